// Package toasts renders the ephemeral toast stack. It is purely a
// render helper over the presenter's visible queue; it never touches
// inbox read state.
package toasts

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/capstone-eventify/notify/internal/model"
	"github.com/capstone-eventify/notify/internal/theme"
)

// maxWidth bounds a single toast's rendered width.
const maxWidth = 48

// Render draws the toast stack, newest on top. Returns an empty string
// when nothing is visible.
func Render(toasts []model.Notification, width int) string {
	if len(toasts) == 0 {
		return ""
	}

	w := maxWidth
	if width > 0 && width < w {
		w = width
	}

	rendered := make([]string, 0, len(toasts))
	for _, n := range toasts {
		title := theme.TypeStyle(n.Type).Render(theme.TypeLabel(n.Type)) +
			theme.UnreadStyle.Render(n.Title)
		body := lipgloss.NewStyle().Width(w - 4).Render(n.Message)
		rendered = append(rendered, theme.ToastStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left, title, body),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}
