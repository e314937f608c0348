// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/util"
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("conversation has no entries")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Document is a conversation plus the metadata shown in exports.
type Document struct {
	Title   string
	Model   string
	Created time.Time
	Entries []model.Entry
}

// Exporter converts a Document to one output format.
type Exporter interface {
	// Export converts a document to the target format and returns the content.
	Export(doc Document) ([]byte, error)

	// FileExtension returns the file extension, e.g. ".md".
	FileExtension() string

	// MimeType returns the MIME type for the format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where ExportToFile writes. Default: current directory
	OutputDir string

	// IncludeMetadata adds the front matter / header block.
	IncludeMetadata bool

	// IncludeSystem keeps system entries (errors, notices) in the output.
	IncludeSystem bool

	// Theme for HTML export ("light" or "dark").
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
		IncludeSystem:   false,
		Theme:           "dark",
	}
}

// New returns the exporter for a format name: markdown (md), html or json.
func New(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "html":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want markdown, html or json)", format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports doc with exporter into opts.OutputDir and returns the
// file path. The file name is built from the title and the current time.
func ExportToFile(doc Document, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(title(doc)),
		time.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)
	outputPath := filepath.Join(opts.OutputDir, filename)
	// SECURITY: exports hold the whole conversation; keep them private.
	if err := util.AtomicWriteFileWithDir(outputPath, content, 0600, 0700); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// visible returns the entries an export shows.
func visible(entries []model.Entry, opts *Options) []model.Entry {
	if opts.IncludeSystem {
		return entries
	}
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Role != model.RoleSystem {
			out = append(out, e)
		}
	}
	return out
}

// title returns the document title, falling back to the first user entry.
func title(doc Document) string {
	if t := strings.TrimSpace(doc.Title); t != "" {
		return t
	}
	for _, e := range doc.Entries {
		if e.Role == model.RoleUser {
			return util.TruncateWidth(strings.Join(strings.Fields(e.Content), " "), 60)
		}
	}
	return "Conversation"
}

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		runes = runes[:50]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
