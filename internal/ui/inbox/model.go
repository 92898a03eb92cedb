// Package inbox is the dropdown-style inbox surface: the merged
// notification list with read/dismiss actions. It holds no feed state
// of its own; the root model feeds it the merged set and applies the
// actions it emits.
package inbox

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/capstone-eventify/notify/internal/keys"
	"github.com/capstone-eventify/notify/internal/model"
	"github.com/capstone-eventify/notify/internal/theme"
)

// MarkReadMsg asks the engine to mark one notification read.
type MarkReadMsg struct {
	ID string
}

// MarkAllReadMsg asks the engine to mark everything read.
type MarkAllReadMsg struct{}

// RemoveMsg asks the engine to dismiss one notification.
type RemoveMsg struct {
	ID string
}

// OpenMsg is a click-through on the selected notification.
type OpenMsg struct {
	Notification model.Notification
}

// RefreshMsg asks the root model to re-fetch the first history page.
type RefreshMsg struct{}

// Model is the inbox panel view component.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new inbox panel model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetNotifications replaces the rendered list with a fresh merged set.
func (m *Model) SetNotifications(ns []model.Notification) tea.Cmd {
	items := make([]list.Item, len(ns))
	for i, n := range ns {
		items[i] = Item{Notification: n}
	}
	return m.list.SetItems(items)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// Selected returns the currently focused notification, if any.
func (m Model) Selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Notification{}, false
	}
	return it.Notification, true
}

// Update handles messages for the inbox panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Select):
			if n, ok := m.Selected(); ok {
				return m, func() tea.Msg { return OpenMsg{Notification: n} }
			}
			return m, nil
		case key.Matches(keyMsg, m.keys.MarkRead):
			if n, ok := m.Selected(); ok {
				return m, func() tea.Msg { return MarkReadMsg{ID: n.ID} }
			}
			return m, nil
		case key.Matches(keyMsg, m.keys.MarkAllRead):
			return m, func() tea.Msg { return MarkAllReadMsg{} }
		case key.Matches(keyMsg, m.keys.Remove):
			if n, ok := m.Selected(); ok {
				return m, func() tea.Msg { return RemoveMsg{ID: n.ID} }
			}
			return m, nil
		case key.Matches(keyMsg, m.keys.Refresh):
			return m, func() tea.Msg { return RefreshMsg{} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the inbox panel.
func (m Model) View() string {
	return m.list.View()
}
