package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/arin/fitbuddy/internal/chat"
)

const defaultWrap = 80

// ToastNotifier prints notifications as coloured status lines.
type ToastNotifier struct {
	W io.Writer
}

func (n ToastNotifier) Notify(title, description string, severity chat.Severity) {
	var c *color.Color
	icon := "•"
	switch severity {
	case chat.SeverityError:
		c = color.New(color.FgRed, color.Bold)
		icon = "✗"
	case chat.SeverityWarning:
		c = color.New(color.FgYellow)
		icon = "!"
	default:
		c = color.New(color.FgCyan)
	}

	if description == "" {
		c.Fprintf(n.W, "  %s %s\n", icon, title)
		return
	}
	c.Fprintf(n.W, "  %s %s: ", icon, title)
	color.New(color.Faint).Fprintln(n.W, description)
}

// RenderMarkdown renders md for the terminal. width <= 0 uses 80 columns.
// When rendering fails the trimmed source is returned with the error.
func RenderMarkdown(md string, width int) (string, error) {
	if width <= 0 {
		width = defaultWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return strings.TrimSpace(md), err
	}
	out, err := r.Render(md)
	if err != nil {
		return strings.TrimSpace(md), err
	}
	return out, nil
}
