// Package cli implements the veridex command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veridex/veridex/internal/config"
	"github.com/veridex/veridex/internal/quality"
	"github.com/veridex/veridex/internal/store"
	"github.com/veridex/veridex/internal/vocab"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	cfgFile     string
	dbPath      string
	profileFlag string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "veridex",
	Short: "Veridex - consistency analysis for an evidence repository",
	Long: `Veridex ingests business documents, extracts structured facts from
them, and analyzes the fact base for internal consistency.

It detects conflicting metric values, contradictory claims, and open
questions: facts missing units, currencies, or periods, stale data,
ambiguous values, and assertions without evidence. Veridex reports what
the documents say and where they disagree; it does not decide which
side is right.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("veridex %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.veridex/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.veridex/veridex.db)")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "vocabulary profile: general, vc, pharma, insurance")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.veridex")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("VERIDEX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// resolveConfig resolves the effective configuration for the current
// invocation, folding in the global flags.
func resolveConfig() (config.ResolvedConfig, error) {
	return config.ResolveConfig(config.ResolveOptions{
		ConfigPath: cfgFile,
		CLIDBPath:  dbPath,
		CLIProfile: profileFlag,
	})
}

// openStore opens the configured database.
func openStore(cfg config.ResolvedConfig) (store.Store, error) {
	return store.Open(store.Config{DBPath: cfg.DBPath.Value})
}

// loadRegistry loads the vocabulary registry, applying YAML overlays from
// the configured vocab directory when one is set.
func loadRegistry(cfg config.ResolvedConfig) (*vocab.Registry, error) {
	if dir := cfg.VocabDir.Value; dir != "" {
		return vocab.LoadDir(dir)
	}
	return vocab.BuiltinRegistry(), nil
}

// qualityOptions builds analysis options from the resolved config.
func qualityOptions(cfg config.ResolvedConfig) quality.Options {
	opts := quality.DefaultOptions()
	opts.RelativeTolerance = cfg.RelativeTolerance.FloatValue(opts.RelativeTolerance)
	opts.StaleAfterMonths = cfg.StaleAfterMonths.IntValue(opts.StaleAfterMonths)
	return opts
}
