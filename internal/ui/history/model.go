// Package history is the full-history surface: paginated, filterable
// browsing of the persisted notification log, plus the confirmed
// permanent delete-all action.
package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/capstone-eventify/notify/internal/api"
	"github.com/capstone-eventify/notify/internal/keys"
	"github.com/capstone-eventify/notify/internal/model"
	"github.com/capstone-eventify/notify/internal/theme"
)

// FetchMsg asks the root model to fetch a history page.
type FetchMsg struct {
	Page   int
	Filter api.ListFilter
}

// DeleteAllMsg reports that the user confirmed the permanent delete.
type DeleteAllMsg struct{}

// CloseMsg asks the root model to return to the inbox view.
type CloseMsg struct{}

// typeFilters is the filter cycle bound to the type-filter key.
var typeFilters = []string{
	"",
	string(model.TypeTicketConfirmed),
	string(model.TypeRefundRequested),
	string(model.TypeWaitlistApproved),
	string(model.TypeEventDeleted),
	string(model.TypeInfo),
}

// Model is the full-history view component.
type Model struct {
	keys *keys.KeyMap

	page          api.Page
	filter        api.ListFilter
	typeIndex     int
	cursor        int
	loading       bool
	lastError     bool
	confirmForm   *huh.Form
	confirmAnswer *bool

	width  int
	height int
}

// New creates a new history view model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Open resets the view and requests the first page.
func (m *Model) Open() tea.Cmd {
	m.cursor = 0
	m.loading = true
	m.lastError = false
	page := m.page.CurrentPage
	if page == 0 {
		page = 1
	}
	return m.fetch(page)
}

// PageLoaded installs a completed fetch. A failed fetch keeps the
// last-known-good page; only the footer hints that the load failed.
func (m *Model) PageLoaded(p api.Page, err error) {
	m.loading = false
	if err != nil {
		m.lastError = true
		return
	}
	m.lastError = false
	m.page = p
	if m.cursor >= len(p.Notifications) {
		m.cursor = 0
	}
}

// Confirming reports whether the delete-all confirmation is open; the
// root model routes all input here while it is.
func (m Model) Confirming() bool {
	return m.confirmForm != nil
}

// Update handles messages for the history view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm != nil {
		return m.updateConfirm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.page.Notifications)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.NextPage):
		if m.page.HasNextPage {
			m.loading = true
			return m, m.fetch(m.page.CurrentPage + 1)
		}
	case key.Matches(keyMsg, m.keys.PrevPage):
		if m.page.CurrentPage > 1 {
			m.loading = true
			return m, m.fetch(m.page.CurrentPage - 1)
		}
	case key.Matches(keyMsg, m.keys.ToggleUnread):
		m.filter.UnreadOnly = !m.filter.UnreadOnly
		m.loading = true
		return m, m.fetch(1)
	case key.Matches(keyMsg, m.keys.CycleType):
		m.typeIndex = (m.typeIndex + 1) % len(typeFilters)
		m.filter.Type = typeFilters[m.typeIndex]
		m.loading = true
		return m, m.fetch(1)
	case key.Matches(keyMsg, m.keys.Refresh):
		m.loading = true
		return m, m.fetch(m.currentPage())
	case key.Matches(keyMsg, m.keys.DeleteAll):
		return m.startConfirm()
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }
	}

	return m, nil
}

// updateConfirm drives the delete-all confirmation form.
func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}

	switch m.confirmForm.State {
	case huh.StateCompleted:
		confirmed := m.confirmAnswer != nil && *m.confirmAnswer
		m.confirmForm = nil
		m.confirmAnswer = nil
		if confirmed {
			return m, func() tea.Msg { return DeleteAllMsg{} }
		}
		return m, nil
	case huh.StateAborted:
		m.confirmForm = nil
		m.confirmAnswer = nil
		return m, nil
	}

	return m, cmd
}

// startConfirm opens the permanent-delete confirmation. Casual clearing
// goes through mark-all-read instead; only this path issues real deletes.
func (m Model) startConfirm() (Model, tea.Cmd) {
	answer := false
	m.confirmAnswer = &answer
	m.confirmForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Permanently delete all notifications?").
				Description("This removes them from the server and cannot be undone.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(m.confirmAnswer),
		),
	)
	return m, m.confirmForm.Init()
}

// fetch emits the fetch request for the root model to execute.
func (m Model) fetch(page int) tea.Cmd {
	filter := m.filter
	return func() tea.Msg {
		return FetchMsg{Page: page, Filter: filter}
	}
}

func (m Model) currentPage() int {
	if m.page.CurrentPage == 0 {
		return 1
	}
	return m.page.CurrentPage
}

// View renders the history list with its filter and pagination footer.
func (m Model) View() string {
	if m.confirmForm != nil {
		return m.confirmForm.View()
	}

	var b strings.Builder

	for i, n := range m.page.Notifications {
		style := theme.ReadStyle
		marker := " "
		if !n.IsRead {
			style = theme.UnreadStyle
			marker = "•"
		}

		line := fmt.Sprintf("%s %s %s · %s",
			marker,
			theme.TypeStyle(n.Type).Render(theme.TypeLabel(n.Type)),
			style.Render(n.Title),
			n.Message,
		)
		if n.Reason != "" {
			line += theme.HelpStyle.Render(" (" + n.Reason + ")")
		}

		if i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if len(m.page.Notifications) == 0 && !m.loading {
		b.WriteString(theme.HelpStyle.Render("  no notifications"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.footer())

	return lipgloss.NewStyle().Width(m.width).Render(b.String())
}

// footer summarizes pagination, active filters, and load state.
func (m Model) footer() string {
	parts := []string{
		fmt.Sprintf("page %d/%d", m.currentPage(), max(m.page.TotalPages, 1)),
	}
	if m.filter.UnreadOnly {
		parts = append(parts, "unread only")
	}
	if m.filter.Type != "" {
		parts = append(parts, "type: "+m.filter.Type)
	}
	if m.loading {
		parts = append(parts, "loading…")
	}
	if m.lastError {
		parts = append(parts, "fetch failed, showing last page")
	}
	return theme.HelpStyle.Render(strings.Join(parts, " · "))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
