// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns chat content into terminal output.
//
// Bot responses are markdown when a glamour renderer could be built;
// otherwise a plain fallback applies minimal structure: paragraph
// breaks, preserved line breaks, and clickable links. User text is
// never interpreted as markup.
package render

import (
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/tradelens/tradelens-tui/internal/ui/styles"
)

// urlPattern matches bare http(s) URLs in running text.
var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// multiNewline collapses runs of three or more newlines so the fallback
// never renders more than one blank line between paragraphs.
var multiNewline = regexp.MustCompile(`\n{3,}`)

var linkStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Underline(true)

// Renderer formats transcript content for a given width.
type Renderer struct {
	markdown *glamour.TermRenderer
	output   *termenv.Output
	width    int
}

// New builds a renderer for the given wrap width. Markdown rendering is
// best effort: if glamour cannot be constructed (or markdown is
// disabled), the fallback formatter serves all bot content.
func New(width int, markdown bool) *Renderer {
	r := &Renderer{
		output: termenv.NewOutput(os.Stdout),
		width:  width,
	}
	if markdown {
		if tr, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		); err == nil {
			r.markdown = tr
		}
	}
	return r
}

// SetWidth rebuilds the word wrap for a resized terminal.
func (r *Renderer) SetWidth(width int) {
	if width == r.width {
		return
	}
	r.width = width
	if r.markdown != nil {
		if tr, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		); err == nil {
			r.markdown = tr
		}
	}
}

// Bot renders a bot response. Markdown when available, fallback otherwise.
func (r *Renderer) Bot(content string) string {
	if r.markdown != nil {
		if out, err := r.markdown.Render(content); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return r.Fallback(content)
}

// Fallback applies the minimal structure rules: double newlines become a
// paragraph break (exactly one blank line), single newlines survive as
// line breaks, bare URLs become styled links.
func (r *Renderer) Fallback(content string) string {
	out := multiNewline.ReplaceAllString(content, "\n\n")
	out = urlPattern.ReplaceAllStringFunc(out, r.styleLink)
	return out
}

// styleLink underlines a URL and, when the terminal supports it, wraps
// it in an OSC 8 hyperlink so it is clickable.
func (r *Renderer) styleLink(url string) string {
	styled := linkStyle.Render(url)
	return r.output.Hyperlink(url, styled)
}

// User renders user-authored text literally. Control characters are
// stripped so pasted content cannot corrupt the display; nothing is
// ever treated as markup.
func (r *Renderer) User(content string) string {
	return sanitize(content)
}

// sanitize removes terminal control characters, keeping newlines and tabs.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\t' {
			b.WriteRune(ch)
			continue
		}
		if ch < 0x20 || ch == 0x7f {
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
