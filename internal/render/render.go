// Package render draws highlight decisions for terminals.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/raphaelgruber/relationships/internal/highlight"
	"github.com/raphaelgruber/relationships/internal/models"
)

// Theme holds the color scheme for rendered widgets.
type Theme struct {
	Item        lipgloss.Color // Active item text
	Background  lipgloss.Color // Dimmed items fade toward this
	Cursor      lipgloss.Color
	Heading     lipgloss.Color
	Description lipgloss.Color
}

// DefaultTheme provides default colors.
var DefaultTheme = Theme{
	Item:        lipgloss.Color("#EEEEEE"), // near white
	Background:  lipgloss.Color("#1C1C1C"), // terminal dark
	Cursor:      lipgloss.Color("#5FAFD7"), // light blue
	Heading:     lipgloss.Color("#00D787"), // green
	Description: lipgloss.Color("#D7AF5F"), // amber
}

// Renderer turns decisions into text. It keeps no per-decision state.
type Renderer struct {
	theme Theme
}

// New creates a renderer with the given theme.
func New(theme Theme) *Renderer {
	return &Renderer{theme: theme}
}

// Color returns the foreground color for an item at the given opacity,
// blending the theme item color into the background.
func (r *Renderer) Color(opacity float64) lipgloss.Color {
	fg, err := colorful.Hex(string(r.theme.Item))
	if err != nil {
		return r.theme.Item
	}
	bg, err := colorful.Hex(string(r.theme.Background))
	if err != nil {
		return r.theme.Item
	}
	return lipgloss.Color(bg.BlendRgb(fg, clamp(opacity)).Clamped().Hex())
}

// Render draws both sets as rows of chips followed by the description.
// A non-nil cursor marks the focused item.
func (r *Renderer) Render(cfg highlight.Config, d models.HighlightDecision, cursor *models.Selection) string {
	var b strings.Builder
	b.WriteString(r.row(cfg.SetA, models.SetA, d, cursor))
	b.WriteString("\n")
	b.WriteString(r.row(cfg.SetB, models.SetB, d, cursor))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(r.theme.Description).Italic(true).Render(d.Text))
	b.WriteString("\n")
	return b.String()
}

func (r *Renderer) row(set models.ItemSet, id models.SetID, d models.HighlightDecision, cursor *models.Selection) string {
	heading := lipgloss.NewStyle().Foreground(r.theme.Heading).Bold(true).Width(12).Render(set.Name)

	chips := make([]string, len(set.Items))
	for i, item := range set.Items {
		style := lipgloss.NewStyle().
			Foreground(r.Color(d.Opacity(id, i))).
			Padding(0, 1)
		if d.IsActive(id, i) {
			style = style.Bold(true)
		}
		if cursor != nil && cursor.Set == id && cursor.Index == i {
			style = style.Underline(true).Background(r.theme.Cursor)
		}
		chips[i] = style.Render(item.Label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, heading, strings.Join(chips, " "))
}

// Plain writes one line per item with its opacity, for pipes and logs.
func Plain(cfg highlight.Config, d models.HighlightDecision) string {
	var b strings.Builder
	for _, id := range []models.SetID{models.SetA, models.SetB} {
		set, _ := cfg.Set(id)
		fmt.Fprintf(&b, "%s:\n", setTitle(set, id))
		for i, item := range set.Items {
			mark := " "
			if d.IsActive(id, i) {
				mark = "*"
			}
			fmt.Fprintf(&b, "  [%s] %d %s (%.0f%%)\n", mark, i, item.Label, d.Opacity(id, i)*100)
		}
	}
	fmt.Fprintf(&b, "%s\n", d.Text)
	return b.String()
}

func setTitle(set models.ItemSet, id models.SetID) string {
	if set.Name != "" {
		return set.Name
	}
	return "set " + id.String()
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
