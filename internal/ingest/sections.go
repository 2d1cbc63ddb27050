package ingest

import (
	"fmt"
	"strings"
)

// Section is a labeled slice of a document, the unit handed to extraction.
// Ref is the span reference facts cite as evidence.
type Section struct {
	Ref     string
	Heading string
	Text    string
	Line    int
}

// SplitSections divides document content into extraction units. Markdown
// splits on headings; CSV keeps the header row with every chunk of rows;
// everything else splits on blank-line paragraphs, batched to a reasonable
// size. Every section carries a stable span ref derived from the version id.
func SplitSections(versionID, contentType, content string) []Section {
	switch contentType {
	case "text/markdown":
		return splitMarkdown(versionID, content)
	case "text/csv":
		return splitCSV(versionID, content)
	default:
		return splitParagraphs(versionID, content)
	}
}

const maxSectionBytes = 8 * 1024

func splitMarkdown(versionID, content string) []Section {
	var out []Section
	var heading string
	var buf strings.Builder
	startLine := 1

	flush := func(line int) {
		text := strings.TrimSpace(buf.String())
		if text != "" {
			out = append(out, newSection(versionID, len(out), heading, text, startLine))
		}
		buf.Reset()
		startLine = line
	}

	for i, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "#") {
			flush(i + 1)
			heading = strings.TrimSpace(strings.TrimLeft(line, "# "))
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		if buf.Len() > maxSectionBytes {
			flush(i + 2)
		}
	}
	flush(0)
	return out
}

func splitCSV(versionID, content string) []Section {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) == 0 {
		return nil
	}
	header := lines[0]
	rows := lines[1:]

	const rowsPerSection = 50
	var out []Section
	for start := 0; start < len(rows); start += rowsPerSection {
		end := start + rowsPerSection
		if end > len(rows) {
			end = len(rows)
		}
		text := header + "\n" + strings.Join(rows[start:end], "\n")
		out = append(out, newSection(versionID, len(out), "rows", text, start+2))
	}
	if len(out) == 0 {
		// Header-only file; still worth one section.
		out = append(out, newSection(versionID, 0, "rows", header, 1))
	}
	return out
}

func splitParagraphs(versionID, content string) []Section {
	var out []Section
	var buf strings.Builder
	startLine := 1
	line := 1

	flush := func() {
		text := strings.TrimSpace(buf.String())
		if text != "" {
			out = append(out, newSection(versionID, len(out), "", text, startLine))
		}
		buf.Reset()
		startLine = line
	}

	for _, paragraph := range strings.Split(content, "\n\n") {
		if buf.Len()+len(paragraph) > maxSectionBytes {
			flush()
		}
		buf.WriteString(paragraph)
		buf.WriteString("\n\n")
		line += strings.Count(paragraph, "\n") + 2
	}
	flush()
	return out
}

func newSection(versionID string, index int, heading, text string, line int) Section {
	return Section{
		Ref:     fmt.Sprintf("%s#%d", versionID, index),
		Heading: heading,
		Text:    text,
		Line:    line,
	}
}
