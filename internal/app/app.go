// Package app wires the push manager, reconciliation engine, toast
// presenter, and persisted-store client into the root Bubble Tea model.
package app

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/capstone-eventify/notify/internal/api"
	"github.com/capstone-eventify/notify/internal/credential"
	"github.com/capstone-eventify/notify/internal/inbox"
	"github.com/capstone-eventify/notify/internal/model"
	"github.com/capstone-eventify/notify/internal/push"
	"github.com/capstone-eventify/notify/internal/store"
	"github.com/capstone-eventify/notify/internal/toast"
	"github.com/capstone-eventify/notify/internal/ui"
	historyview "github.com/capstone-eventify/notify/internal/ui/history"
	inboxview "github.com/capstone-eventify/notify/internal/ui/inbox"
	"github.com/capstone-eventify/notify/internal/ui/toasts"
)

// fetchTimeout bounds a single history fetch.
const fetchTimeout = 15 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewHistory
	ViewHelp
)

// PageLoadedMsg carries a completed history fetch. Err keeps the views
// on their last-known-good page.
type PageLoadedMsg struct {
	Page api.Page
	Err  error
}

// cacheLoadedMsg seeds the inbox from the local store before the first
// fetch completes.
type cacheLoadedMsg struct {
	notifications []model.Notification
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and the notification components.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	keys        *KeyMap
	cfg         *model.AppConfig

	apiClient *api.Client
	engine    *inbox.Inbox
	pushMgr   *push.Manager
	presenter *toast.Presenter
	cache     store.Store
	token     string

	inboxView   inboxview.Model
	historyView historyview.Model

	connected bool
	ready     bool
	lastRoute inbox.Route
}

// New creates the root application model. cache may be nil when the
// local database could not be opened.
func New(
	cfg *model.AppConfig,
	apiClient *api.Client,
	engine *inbox.Inbox,
	pushMgr *push.Manager,
	presenter *toast.Presenter,
	cache store.Store,
	token string,
) Model {
	k := DefaultKeyMap()
	return Model{
		currentView: ViewInbox,
		keys:        k,
		cfg:         cfg,
		apiClient:   apiClient,
		engine:      engine,
		pushMgr:     pushMgr,
		presenter:   presenter,
		cache:       cache,
		token:       token,
		inboxView:   inboxview.New(k, 80, 24),
		historyView: historyview.New(k, 80, 24),
	}
}

// Init opens the push channel, paints from the local cache, fetches the
// first history page, and subscribes to the async streams.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.openPush(),
		m.loadCache(),
		m.fetchPage(1, api.ListFilter{}),
		m.pushMgr.WaitForMessage(),
		m.presenter.WaitForExpiry(),
	)
}

// openPush connects the push channel once the session has a credential.
func (m Model) openPush() tea.Cmd {
	mgr := m.pushMgr
	token := m.token
	return func() tea.Msg {
		mgr.Open(token)
		return nil
	}
}

// loadCache reads cached notifications for the offline first paint.
func (m Model) loadCache() tea.Cmd {
	if m.cache == nil {
		return nil
	}
	cache := m.cache
	limit := m.cfg.Notifications.PageSize
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ns, err := cache.GetNotifications(ctx, limit)
		if err != nil {
			log.Printf("app: cache read failed: %v", err)
			return nil
		}
		return cacheLoadedMsg{notifications: ns}
	}
}

// fetchPage fetches one page of the persisted log. There is no request
// cancellation; whichever fetch completes last wins at the call site.
func (m Model) fetchPage(page int, filter api.ListFilter) tea.Cmd {
	client := m.apiClient
	pageSize := m.cfg.Notifications.PageSize
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		p, err := client.List(ctx, page, pageSize, filter)
		return PageLoadedMsg{Page: p, Err: err}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.inboxView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		m.historyView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		return m, nil

	case push.EventMsg:
		m.engine.PushArrived(msg.Notification)
		m.presenter.Offer(msg.Notification)
		return m, tea.Batch(m.refreshInbox(), m.pushMgr.WaitForMessage())

	case push.StatusMsg:
		m.connected = msg.Connected
		return m, m.pushMgr.WaitForMessage()

	case toast.ExpiredMsg:
		// Re-render with the expired toast gone, keep listening.
		return m, m.presenter.WaitForExpiry()

	case cacheLoadedMsg:
		m.engine.SeedCached(msg.notifications)
		return m, m.refreshInbox()

	case PageLoadedMsg:
		if msg.Err != nil {
			if api.IsAuthError(msg.Err) {
				// Rejected credential ends the session: drop the stored
				// token and stop the push channel for good.
				if err := credential.DeleteToken(); err != nil {
					log.Printf("app: clearing rejected token: %v", err)
				}
				m.apiClient.SetToken("")
				m.pushMgr.Close()
			}
			// Stale-but-plausible state: keep the last-known-good page.
			log.Printf("app: fetch failed: %v", msg.Err)
			m.historyView.PageLoaded(api.Page{}, msg.Err)
			return m, nil
		}
		m.engine.PageLoaded(msg.Page)
		m.historyView.PageLoaded(msg.Page, nil)
		return m, m.refreshInbox()

	case inboxview.MarkReadMsg:
		m.engine.MarkAsRead(msg.ID)
		return m, m.refreshInbox()

	case inboxview.MarkAllReadMsg:
		m.engine.MarkAllRead()
		return m, m.refreshInbox()

	case inboxview.RemoveMsg:
		m.engine.Remove(msg.ID)
		return m, m.refreshInbox()

	case inboxview.OpenMsg:
		m.lastRoute = m.engine.ClickThrough(msg.Notification)
		return m, m.refreshInbox()

	case inboxview.RefreshMsg:
		return m, m.fetchPage(1, api.ListFilter{})

	case historyview.FetchMsg:
		return m, m.fetchPage(msg.Page, msg.Filter)

	case historyview.DeleteAllMsg:
		m.engine.DeleteAllPersisted()
		return m, m.refreshInbox()

	case historyview.CloseMsg:
		m.currentView = ViewInbox
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

// handleKey processes global keys, then forwards to the active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The history confirm form captures all input while open.
	if m.currentView != ViewHistory || !m.historyView.Confirming() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, m.shutdown()

		case key.Matches(msg, m.keys.History):
			if m.currentView == ViewInbox {
				m.currentView = ViewHistory
				return m, m.historyView.Open()
			}

		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = ViewInbox
			} else {
				m.currentView = ViewHelp
			}
			return m, nil

		case key.Matches(msg, m.keys.Back):
			if m.currentView == ViewHelp {
				m.currentView = ViewInbox
				return m, nil
			}

		case key.Matches(msg, m.keys.DismissToast):
			if visible := m.presenter.Visible(); len(visible) > 0 {
				m.presenter.Dismiss(visible[0].ID)
			}
			return m, nil
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView forwards a message to whichever view is showing.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case ViewHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	}
	return m, cmd
}

// shutdown tears down timers and the push connection, then quits. The
// manual close suppresses any reconnect attempt.
func (m Model) shutdown() tea.Cmd {
	m.pushMgr.Close()
	m.presenter.Stop()
	return tea.Quit
}

// refreshInbox pushes the engine's merged set into the inbox list.
func (m *Model) refreshInbox() tea.Cmd {
	return m.inboxView.SetNotifications(m.engine.Notifications())
}

// View renders the active view inside the shared frame, with the toast
// stack overlaid beneath the header.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := m.layout.RenderHeader(
		"Eventify Notifications",
		m.engine.UnreadCount(),
		m.connected,
	)

	var content string
	switch m.currentView {
	case ViewHistory:
		content = m.historyView.View()
	case ViewHelp:
		content = m.helpView()
	default:
		content = m.inboxView.View()
	}

	if stack := toasts.Render(m.presenter.Visible(), m.layout.ContentWidth()); stack != "" {
		content = lipgloss.JoinVertical(
			lipgloss.Left,
			lipgloss.PlaceHorizontal(m.layout.ContentWidth(), lipgloss.Right, stack),
			content,
		)
	}

	return m.layout.RenderWithFrame(header, content, m.layout.RenderStatusBar(m.statusHints()))
}

// helpView lists the keybindings.
func (m Model) helpView() string {
	bindings := []key.Binding{
		m.keys.Up, m.keys.Down, m.keys.Select,
		m.keys.MarkRead, m.keys.MarkAllRead, m.keys.Remove,
		m.keys.History, m.keys.NextPage, m.keys.PrevPage,
		m.keys.ToggleUnread, m.keys.CycleType, m.keys.DeleteAll,
		m.keys.Refresh, m.keys.DismissToast, m.keys.Back, m.keys.Quit,
	}

	var b strings.Builder
	for _, bind := range bindings {
		h := bind.Help()
		b.WriteString("  ")
		b.WriteString(h.Key)
		b.WriteString("\t")
		b.WriteString(h.Desc)
		b.WriteString("\n")
	}
	return b.String()
}

// statusHints builds the bottom-bar hint line for the active view.
func (m Model) statusHints() string {
	var hints string
	switch m.currentView {
	case ViewHistory:
		hints = "n/p page · u unread · t type · D delete all · esc back"
	case ViewHelp:
		hints = "esc back"
	default:
		hints = "enter open · m read · M all read · x dismiss · h history · ? help · q quit"
	}
	if m.lastRoute != inbox.RouteNone {
		hints += " · → " + string(m.lastRoute)
	}
	return hints
}
