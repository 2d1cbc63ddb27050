// Package config resolves Veridex configuration with tracked provenance.
// Precedence is CLI flag > environment > config file > built-in default,
// and every resolved value remembers where it came from so `veridex config`
// can explain itself.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath string
	CLIDBPath  string
	CLIProfile string
	CLIModel   string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath   ResolvedValue `json:"db_path"`
	Profile  ResolvedValue `json:"profile"`
	VocabDir ResolvedValue `json:"vocab_dir"`

	OpenAIAPIKey   ResolvedValue `json:"openai_api_key"`
	OpenAIBaseURL  ResolvedValue `json:"openai_base_url"`
	ExtractModel   ResolvedValue `json:"extract_model"`
	EmbeddingModel ResolvedValue `json:"embedding_model"`

	ExtractLevel   ResolvedValue `json:"extract_level"`
	ExtractWorkers ResolvedValue `json:"extract_workers"`
	RequestsPerSec ResolvedValue `json:"requests_per_sec"`

	RelativeTolerance ResolvedValue `json:"relative_tolerance"`
	StaleAfterMonths  ResolvedValue `json:"stale_after_months"`
}

type fileConfig struct {
	DBPath   string `yaml:"db_path"`
	Profile  string `yaml:"profile"`
	VocabDir string `yaml:"vocab_dir"`
	OpenAI   struct {
		APIKey         string `yaml:"api_key"`
		BaseURL        string `yaml:"base_url"`
		ExtractModel   string `yaml:"extract_model"`
		EmbeddingModel string `yaml:"embedding_model"`
	} `yaml:"openai"`
	Extract struct {
		Level          int     `yaml:"level"`
		Workers        int     `yaml:"workers"`
		RequestsPerSec float64 `yaml:"requests_per_sec"`
	} `yaml:"extract"`
	Quality struct {
		RelativeTolerance float64 `yaml:"relative_tolerance"`
		StaleAfterMonths  int     `yaml:"stale_after_months"`
	} `yaml:"quality"`
}

// Built-in defaults.
const (
	DefaultProfile        = "general"
	DefaultExtractModel   = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultExtractLevel   = 2
	DefaultWorkers        = 4
	DefaultRequestsPerSec = 2.0
)

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".veridex", "config.yaml")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}
	setDefaults(&out)

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.Profile, cfg.Profile, SourceConfig, path)
		apply(&out.VocabDir, cfg.VocabDir, SourceConfig, path)
		apply(&out.OpenAIAPIKey, cfg.OpenAI.APIKey, SourceConfig, path)
		apply(&out.OpenAIBaseURL, cfg.OpenAI.BaseURL, SourceConfig, path)
		apply(&out.ExtractModel, cfg.OpenAI.ExtractModel, SourceConfig, path)
		apply(&out.EmbeddingModel, cfg.OpenAI.EmbeddingModel, SourceConfig, path)
		if cfg.Extract.Level > 0 {
			apply(&out.ExtractLevel, strconv.Itoa(cfg.Extract.Level), SourceConfig, path)
		}
		if cfg.Extract.Workers > 0 {
			apply(&out.ExtractWorkers, strconv.Itoa(cfg.Extract.Workers), SourceConfig, path)
		}
		if cfg.Extract.RequestsPerSec > 0 {
			apply(&out.RequestsPerSec, strconv.FormatFloat(cfg.Extract.RequestsPerSec, 'f', -1, 64), SourceConfig, path)
		}
		if cfg.Quality.RelativeTolerance > 0 {
			apply(&out.RelativeTolerance, strconv.FormatFloat(cfg.Quality.RelativeTolerance, 'f', -1, 64), SourceConfig, path)
		}
		if cfg.Quality.StaleAfterMonths > 0 {
			apply(&out.StaleAfterMonths, strconv.Itoa(cfg.Quality.StaleAfterMonths), SourceConfig, path)
		}
	}

	applyEnv(&out.DBPath, "VERIDEX_DB")
	applyEnv(&out.Profile, "VERIDEX_PROFILE")
	applyEnv(&out.VocabDir, "VERIDEX_VOCAB_DIR")
	applyEnv(&out.OpenAIAPIKey, "OPENAI_API_KEY")
	applyEnv(&out.OpenAIAPIKey, "VERIDEX_OPENAI_API_KEY")
	applyEnv(&out.OpenAIBaseURL, "VERIDEX_OPENAI_BASE_URL")
	applyEnv(&out.ExtractModel, "VERIDEX_EXTRACT_MODEL")
	applyEnv(&out.EmbeddingModel, "VERIDEX_EMBEDDING_MODEL")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.Profile, opts.CLIProfile, SourceCLI, "--profile")
	apply(&out.ExtractModel, opts.CLIModel, SourceCLI, "--model")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}

	return out, nil
}

// IntValue parses a resolved numeric value, falling back when unparseable.
func (v ResolvedValue) IntValue(fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v.Value))
	if err != nil {
		return fallback
	}
	return n
}

// FloatValue parses a resolved float value, falling back when unparseable.
func (v ResolvedValue) FloatValue(fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func setDefaults(out *ResolvedConfig) {
	def := func(dst *ResolvedValue, value string) {
		*dst = ResolvedValue{Value: value, Source: SourceDefault, From: "built-in default"}
	}
	def(&out.DBPath, "~/.veridex/veridex.db")
	def(&out.Profile, DefaultProfile)
	def(&out.ExtractModel, DefaultExtractModel)
	def(&out.EmbeddingModel, DefaultEmbeddingModel)
	def(&out.ExtractLevel, strconv.Itoa(DefaultExtractLevel))
	def(&out.ExtractWorkers, strconv.Itoa(DefaultWorkers))
	def(&out.RequestsPerSec, strconv.FormatFloat(DefaultRequestsPerSec, 'f', -1, 64))
	def(&out.RelativeTolerance, "0.05")
	def(&out.StaleAfterMonths, "12")
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
