package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/sergi/go-diff/diffmatchpatch"

	"nuance/internal/correction"
	"nuance/pkg/nuancetypes"
)

var (
	aiStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	deleteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Strikethrough(true)
	insertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true)
)

// renderer formats interview output for the terminal. With plain set, all
// styling is stripped so output stays readable in pipes and logs.
type renderer struct {
	plain    bool
	markdown *glamour.TermRenderer
}

func newRenderer(plain bool) (*renderer, error) {
	if !plain && lipgloss.ColorProfile() == termenv.Ascii {
		plain = true
	}
	r := &renderer{plain: plain}
	if plain {
		return r, nil
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	r.markdown = md
	return r, nil
}

func (r *renderer) style(s lipgloss.Style, text string) string {
	if r.plain {
		return text
	}
	return s.Render(text)
}

// AI formats an assistant line.
func (r *renderer) AI(text string) string {
	return r.style(aiStyle, "AI: ") + text
}

// Info formats a status line such as the remaining turn count.
func (r *renderer) Info(text string) string {
	return r.style(infoStyle, text)
}

// Markdown renders md through glamour, or returns it with escapes stripped in plain mode.
func (r *renderer) Markdown(md string) string {
	if r.plain || r.markdown == nil {
		return ansi.Strip(md)
	}
	out, err := r.markdown.Render(md)
	if err != nil {
		return md
	}
	return out
}

// Diff shows the edit from original to suggestion inline. Plain mode marks
// deletions as [-text-] and insertions as {+text+}.
func (r *renderer) Diff(original, suggestion string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(original, suggestion, false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			if r.plain {
				b.WriteString("[-" + d.Text + "-]")
			} else {
				b.WriteString(deleteStyle.Render(d.Text))
			}
		case diffmatchpatch.DiffInsert:
			if r.plain {
				b.WriteString("{+" + d.Text + "+}")
			} else {
				b.WriteString(insertStyle.Render(d.Text))
			}
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

// Article renders a polished article or its failure.
func (r *renderer) Article(a nuancetypes.Article) string {
	if a.Status != nuancetypes.ArticleSuccess {
		return r.Info("Article unavailable: " + a.Error)
	}
	md := fmt.Sprintf("## Your article\n\n%s\n\n*%d words*\n", a.Article, a.WordCount)
	return r.Markdown(md)
}

// Corrections renders a writing analysis, one block per item.
func (r *renderer) Corrections(result nuancetypes.CorrectionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Writing feedback (%d items)\n", result.TotalCount)
	for i, item := range result.Items {
		name := item.Category
		for _, c := range correction.Categories() {
			if c.Label == item.Category {
				name = c.DisplayName
				break
			}
		}
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, r.style(aiStyle, name))
		if item.Category == correction.Perfect {
			fmt.Fprintf(&b, "   %s\n", item.Original)
		} else {
			fmt.Fprintf(&b, "   %s\n", r.Diff(item.Original, item.Suggestion))
		}
		if item.Explanation != "" {
			fmt.Fprintf(&b, "   %s\n", r.Info(item.Explanation))
		}
	}
	return b.String()
}
