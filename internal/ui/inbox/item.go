package inbox

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/capstone-eventify/notify/internal/model"
	"github.com/capstone-eventify/notify/internal/theme"
)

// Item wraps a model.Notification so it can be used in a bubbles/list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Notification.Title }

// ItemDelegate implements list.ItemDelegate for notification rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification row: marker, type label, title,
// then a dimmed message/time line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Notification

	marker := " "
	titleStyle := theme.ReadStyle
	if !n.IsRead {
		marker = "•"
		titleStyle = theme.UnreadStyle
	}

	label := theme.TypeStyle(n.Type).Render(theme.TypeLabel(n.Type))
	title := titleStyle.Render(n.Title)

	line := fmt.Sprintf("%s %s %s", marker, label, title)
	detail := theme.ReadStyle.Render(
		fmt.Sprintf("  %s · %s", n.Message, relativeTime(n.Timestamp)),
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
		detail = theme.SelectedItemStyle.Render(detail)
	} else {
		line = theme.ListItemStyle.Render(line)
		detail = theme.ListItemStyle.Render(detail)
	}

	fmt.Fprintf(w, "%s\n%s", line, detail)
}

// relativeTime renders a compact "how long ago" label.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "just now"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
