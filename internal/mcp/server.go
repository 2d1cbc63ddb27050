// Package mcp provides a Model Context Protocol server for Veridex.
//
// It exposes the evidence repository (ingest, analysis, conflict and
// open-question triage, stats) as MCP tools over stdio transport, for use
// from agent runtimes and MCP-capable editors.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/veridex/veridex/internal/fact"
	"github.com/veridex/veridex/internal/ingest"
	"github.com/veridex/veridex/internal/quality"
	"github.com/veridex/veridex/internal/store"
	"github.com/veridex/veridex/internal/vocab"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store    store.Store
	Registry *vocab.Registry
	Version  string
	Quality  quality.Options
}

// dbMu serializes all MCP tool calls that touch the database.
// The mcp-go library dispatches handlers concurrently via goroutines, and
// SQLite supports only one writer at a time. A global mutex ensures an
// ingest completes before the analysis that follows it sees the data.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all Veridex tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	if cfg.Registry == nil {
		cfg.Registry = vocab.BuiltinRegistry()
	}
	if cfg.Quality.RelativeTolerance == 0 {
		cfg.Quality = quality.DefaultOptions()
	}

	s := server.NewMCPServer(
		"Veridex",
		ver,
		server.WithToolCapabilities(false),
	)

	registerIngestTool(s, cfg.Store)
	registerAnalyzeTool(s, cfg)
	registerConflictsTool(s, cfg.Store)
	registerQuestionsTool(s, cfg.Store)
	registerTriageTool(s, cfg.Store)
	registerStatsTool(s, cfg.Store)

	return s
}

func registerIngestTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("veridex_ingest",
		mcp.WithDescription("Ingest document content into the evidence repository. Byte-identical re-ingests are no-ops; changed content appends a new version."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The document text to ingest"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Document title"),
		),
		mcp.WithString("content_type",
			mcp.Description("MIME type: text/plain, text/markdown, or text/csv (default: text/plain)"),
			mcp.Enum("text/plain", "text/markdown", "text/csv"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		content, err := req.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError("content is required"), nil
		}
		title, err := req.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError("title is required"), nil
		}
		contentType := "text/plain"
		if ct, err := req.RequireString("content_type"); err == nil && ct != "" {
			contentType = ct
		}

		res, err := ingest.New(st).Ingest(ctx, content, title, "", contentType)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("ingest error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(map[string]any{
			"document_id": res.Document.ID,
			"version":     res.Version.VersionNo,
			"outcome":     res.Outcome,
		}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerAnalyzeTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("veridex_analyze",
		mcp.WithDescription("Run the consistency analysis over a document's stored facts: detects conflicting metric values, contradictory claims, and open questions (missing units, stale data, missing evidence). Persists the result."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("The document to analyze"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		documentID, err := req.RequireString("document_id")
		if err != nil {
			return mcp.NewToolResultError("document_id is required"), nil
		}
		if _, err := cfg.Store.GetDocument(ctx, documentID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("document %s: %v", documentID, err)), nil
		}

		set, err := cfg.Store.FactsForDocument(ctx, documentID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading facts: %v", err)), nil
		}

		result, err := quality.Analyze(set, fact.ScopeFilter{DocumentID: documentID}, cfg.Registry, cfg.Quality)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("analysis error: %v", err)), nil
		}
		if _, err := cfg.Store.SaveAnalysis(ctx, documentID, result); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("saving analysis: %v", err)), nil
		}

		data, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerConflictsTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("veridex_conflicts",
		mcp.WithDescription("List a document's detected conflicts, ordered by severity. Optionally filter by status or severity."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("The document whose conflicts to list"),
		),
		mcp.WithString("status",
			mcp.Description("Filter by triage status"),
			mcp.Enum("open", "acknowledged", "resolved"),
		),
		mcp.WithString("severity",
			mcp.Description("Filter by severity"),
			mcp.Enum("critical", "high", "medium", "low"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 50)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		documentID, err := req.RequireString("document_id")
		if err != nil {
			return mcp.NewToolResultError("document_id is required"), nil
		}

		opts := store.ListOpts{Limit: 50}
		if status, err := req.RequireString("status"); err == nil {
			opts.Status = status
		}
		if severity, err := req.RequireString("severity"); err == nil {
			opts.Severity = severity
		}
		if limitVal, err := req.RequireFloat("limit"); err == nil && int(limitVal) > 0 {
			opts.Limit = int(limitVal)
		}

		conflicts, err := st.ListConflicts(ctx, documentID, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing conflicts: %v", err)), nil
		}

		data, _ := json.MarshalIndent(conflicts, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerQuestionsTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("veridex_questions",
		mcp.WithDescription("List a document's open questions (missing units, currencies, periods, stale data, ambiguous values, missing evidence), ordered by priority."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("The document whose open questions to list"),
		),
		mcp.WithString("status",
			mcp.Description("Filter by triage status"),
			mcp.Enum("open", "answered", "dismissed"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 50)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		documentID, err := req.RequireString("document_id")
		if err != nil {
			return mcp.NewToolResultError("document_id is required"), nil
		}

		opts := store.ListOpts{Limit: 50}
		if status, err := req.RequireString("status"); err == nil {
			opts.Status = status
		}
		if limitVal, err := req.RequireFloat("limit"); err == nil && int(limitVal) > 0 {
			opts.Limit = int(limitVal)
		}

		questions, err := st.ListOpenQuestions(ctx, documentID, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing questions: %v", err)), nil
		}

		data, _ := json.MarshalIndent(questions, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerTriageTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("veridex_triage",
		mcp.WithDescription("Update the triage status of a conflict or open question. Status survives re-analysis."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The conflict or question id (conflict-... or question-...)"),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("New status. Conflicts: open, acknowledged, resolved. Questions: open, answered, dismissed."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}
		status, err := req.RequireString("status")
		if err != nil {
			return mcp.NewToolResultError("status is required"), nil
		}

		switch {
		case len(id) > 9 && id[:9] == "conflict-":
			err = st.UpdateConflictStatus(ctx, id, fact.ConflictStatus(status))
		case len(id) > 9 && id[:9] == "question-":
			err = st.UpdateQuestionStatus(ctx, id, fact.QuestionStatus(status))
		default:
			return mcp.NewToolResultError("id must start with conflict- or question-"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("updating status: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s -> %s", id, status)), nil
	})
}

func registerStatsTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("veridex_stats",
		mcp.WithDescription("Repository statistics: document, version, fact, run, conflict, and question counts."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		stats, err := st.Stats(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stats error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(stats, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// ServeStdio runs the server over stdio until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
