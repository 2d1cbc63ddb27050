// Package ingest imports source documents into the repository. It hashes
// content for deduplication, detects the content type, and appends a new
// document version when content actually changed. Byte-identical
// re-imports are no-ops.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/veridex/veridex/internal/store"
)

// Outcome describes what one import did.
type Outcome string

const (
	OutcomeNew       Outcome = "new"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// Result summarizes one ingested document.
type Result struct {
	Document *store.Document
	Version  *store.Version
	Outcome  Outcome
}

// MaxFileSize caps imports at 10MB; evidence documents are text, anything
// bigger is almost certainly a mistake.
const MaxFileSize = 10 * 1024 * 1024

// Ingestor imports documents into a store.
type Ingestor struct {
	store store.Store
}

func New(s store.Store) *Ingestor {
	return &Ingestor{store: s}
}

// IngestFile imports one file from disk. The file name becomes the title
// unless a non-empty title is given.
func (in *Ingestor) IngestFile(ctx context.Context, path, title string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stating %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%s is %d bytes, over the %d byte limit", path, info.Size(), MaxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return in.Ingest(ctx, string(content), title, path, DetectContentType(path))
}

// Ingest imports raw content. Deduplication is hash-based: unchanged
// content is a no-op, changed content for a document with the same source
// path appends a version.
func (in *Ingestor) Ingest(ctx context.Context, content, title, sourcePath, contentType string) (*Result, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("refusing to ingest empty content for %q", title)
	}
	hash := HashContent(content)

	existing, err := in.store.FindDocumentByHash(ctx, hash)
	if err == nil {
		version, verr := in.store.LatestVersion(ctx, existing.ID)
		if verr != nil {
			return nil, fmt.Errorf("loading latest version of %s: %w", existing.ID, verr)
		}
		return &Result{Document: existing, Version: version, Outcome: OutcomeUnchanged}, nil
	}
	if err != store.ErrNotFound {
		return nil, fmt.Errorf("checking for duplicate: %w", err)
	}

	// Changed content for a known source path appends a version to the
	// existing document rather than creating a new one.
	if sourcePath != "" {
		if doc := in.findBySourcePath(ctx, sourcePath); doc != nil {
			version := &store.Version{DocumentID: doc.ID, ContentHash: hash, Content: content}
			if err := in.store.AddVersion(ctx, version); err != nil {
				return nil, fmt.Errorf("appending version: %w", err)
			}
			return &Result{Document: doc, Version: version, Outcome: OutcomeUpdated}, nil
		}
	}

	doc := &store.Document{
		Title:       title,
		ContentType: contentType,
		SourcePath:  sourcePath,
		ContentHash: hash,
	}
	if err := in.store.AddDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("adding document: %w", err)
	}
	version := &store.Version{DocumentID: doc.ID, ContentHash: hash, Content: content}
	if err := in.store.AddVersion(ctx, version); err != nil {
		return nil, fmt.Errorf("adding first version: %w", err)
	}
	return &Result{Document: doc, Version: version, Outcome: OutcomeNew}, nil
}

func (in *Ingestor) findBySourcePath(ctx context.Context, sourcePath string) *store.Document {
	docs, err := in.store.ListDocuments(ctx, store.ListOpts{Limit: 1000})
	if err != nil {
		return nil
	}
	for _, d := range docs {
		if d.SourcePath == sourcePath {
			return d
		}
	}
	return nil
}

// HashContent returns the hex sha256 of content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// DetectContentType maps a file extension to a MIME type. Unknown
// extensions are treated as plain text.
func DetectContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html"
	default:
		return "text/plain"
	}
}
