// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a conversation to HTML format.
func (e *HTMLExporter) Export(doc Document) ([]byte, error) {
	entries := visible(doc.Entries, e.options)
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	name := html.EscapeString(title(doc))

	theme := "dark"
	if e.options.Theme == "light" {
		theme = "light"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", name)
	sb.WriteString("    <meta name=\"generator\" content=\"rigchat\">\n")
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString("        <header class=\"header\">\n")
		fmt.Fprintf(&sb, "            <h1>%s</h1>\n", name)
		sb.WriteString("            <div class=\"metadata\">\n")
		if doc.Model != "" {
			fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Model:</strong> %s</span>\n", html.EscapeString(doc.Model))
		}
		if !doc.Created.IsZero() {
			fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(doc.Created))
		}
		fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Entries:</strong> %d</span>\n", len(entries))
		sb.WriteString("            </div>\n")
		sb.WriteString("        </header>\n")
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, entry := range entries {
		sb.WriteString(renderEntry(entry))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	fmt.Fprintf(&sb, "            <p>Exported from <strong>rigchat</strong> on %s</p>\n",
		time.Now().Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// renderEntry renders one entry. Content is escaped and shown preformatted,
// the way it appears in the terminal.
func renderEntry(entry model.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "            <div class=\"message %s-message\">\n", entry.Role)
	fmt.Fprintf(&sb, "                <div class=\"role-label\">%s</div>\n", html.EscapeString(entry.Role.DisplayName()))
	fmt.Fprintf(&sb, "                <pre class=\"message-content\">%s</pre>\n", html.EscapeString(entry.Content))
	sb.WriteString("            </div>\n")
	return sb.String()
}

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        .dark-theme {
            --bg: #1a1b26;
            --panel: #24283b;
            --text: #c0caf5;
            --muted: #565f89;
            --user: #9ece6a;
            --assistant: #7aa2f7;
            --system: #f7768e;
        }

        .light-theme {
            --bg: #ffffff;
            --panel: #f6f8fa;
            --text: #24292e;
            --muted: #6a737d;
            --user: #22863a;
            --assistant: #0366d6;
            --system: #d73a49;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            line-height: 1.6;
            color: var(--text);
            background: var(--bg);
            padding: 20px;
        }

        .container { max-width: 900px; margin: 0 auto; }
        .header { margin-bottom: 24px; }
        .metadata { color: var(--muted); display: flex; gap: 16px; flex-wrap: wrap; }
        .message { background: var(--panel); border-left: 4px solid var(--muted); padding: 12px 16px; margin-bottom: 12px; }
        .user-message { border-color: var(--user); }
        .assistant-message { border-color: var(--assistant); }
        .system-message { border-color: var(--system); }
        .role-label { font-weight: bold; margin-bottom: 6px; }
        .message-content { font-family: "SF Mono", Monaco, "Fira Code", monospace; white-space: pre-wrap; word-wrap: break-word; }
        .footer { color: var(--muted); margin-top: 24px; font-size: 14px; }
    </style>
`
