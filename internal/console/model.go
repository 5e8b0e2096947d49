// Package console консоль администратора в терминале: очередь сделок
// на одобрение, закрытие объявлений и журнал статусов.
package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/rajivgeraev/unlisted-api/internal/client"
	"github.com/rajivgeraev/unlisted-api/internal/models"
)

const requestTimeout = 10 * time.Second

// filters порядок переключения фильтра по статусу
var filters = []models.ListingStatus{
	models.ListingPendingAdminApproval,
	models.ListingActive,
	models.ListingApproved,
	models.ListingClosed,
	"",
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Filter  key.Binding
	Approve key.Binding
	Close   key.Binding
	History key.Binding
	Trades  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Filter:  key.NewBinding(key.WithKeys("tab", "f")),
	Approve: key.NewBinding(key.WithKeys("a")),
	Close:   key.NewBinding(key.WithKeys("c")),
	History: key.NewBinding(key.WithKeys("h", "enter")),
	Trades:  key.NewBinding(key.WithKeys("t")),
	Refresh: key.NewBinding(key.WithKeys("r")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

type listingsMsg struct {
	items []*models.Listing
	err   error
}

type transitionMsg struct {
	listing *models.Listing
	action  string
	err     error
}

type historyMsg struct {
	entries []models.HistoryStatus
	err     error
}

type tradesMsg struct {
	trades []*models.Trade
	err    error
}

type view int

const (
	viewListings view = iota
	viewHistory
	viewTrades
)

// Model модель консоли
type Model struct {
	session *client.AdminSession

	filter   int
	listings []*models.Listing
	selected int

	view    view
	history []models.HistoryStatus
	trades  []*models.Trade

	status string
	err    error
	width  int
}

// NewModel создаёт модель консоли
func NewModel(session *client.AdminSession) *Model {
	return &Model{session: session}
}

// Init загружает очередь на одобрение
func (m *Model) Init() tea.Cmd {
	return m.loadListings()
}

// Update обрабатывает сообщения
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case listingsMsg:
		m.err = msg.err
		if msg.err == nil {
			m.listings = msg.items
			if m.selected >= len(m.listings) {
				m.selected = max(len(m.listings)-1, 0)
			}
		}

	case transitionMsg:
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.status = fmt.Sprintf("%s: %s → %s", msg.action, msg.listing.Company, msg.listing.Status)
		return m, m.loadListings()

	case historyMsg:
		m.err = msg.err
		m.history = msg.entries
		if msg.err == nil {
			m.view = viewHistory
		}

	case tradesMsg:
		m.err = msg.err
		m.trades = msg.trades
		if msg.err == nil {
			m.view = viewTrades
		}
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case msg.String() == "esc":
		m.view = viewListings
	case key.Matches(msg, keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, keys.Down):
		if m.selected < len(m.listings)-1 {
			m.selected++
		}
	case key.Matches(msg, keys.Filter):
		m.filter = (m.filter + 1) % len(filters)
		m.selected = 0
		m.view = viewListings
		return m.loadListings()
	case key.Matches(msg, keys.Refresh):
		return m.loadListings()
	case key.Matches(msg, keys.Trades):
		return m.loadTrades()
	case key.Matches(msg, keys.Approve):
		if l := m.current(); l != nil {
			return m.transition("approve", l, m.session.Approve)
		}
	case key.Matches(msg, keys.Close):
		if l := m.current(); l != nil {
			return m.transition("close", l, m.session.Close)
		}
	case key.Matches(msg, keys.History):
		if l := m.current(); l != nil {
			return m.loadHistory(l)
		}
	}
	return nil
}

func (m *Model) current() *models.Listing {
	if m.view != viewListings || m.selected < 0 || m.selected >= len(m.listings) {
		return nil
	}
	return m.listings[m.selected]
}

func (m *Model) loadListings() tea.Cmd {
	status := filters[m.filter]
	backend := m.session.Backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		items, err := backend.Listings(ctx, status)
		return listingsMsg{items: items, err: err}
	}
}

func (m *Model) transition(action string, l *models.Listing, op func(context.Context, uuid.UUID) (*models.Listing, error)) tea.Cmd {
	id := l.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		updated, err := op(ctx, id)
		return transitionMsg{listing: updated, action: action, err: err}
	}
}

func (m *Model) loadHistory(l *models.Listing) tea.Cmd {
	id := l.ID
	backend := m.session.Backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		entries, err := backend.History(ctx, id)
		return historyMsg{entries: entries, err: err}
	}
}

func (m *Model) loadTrades() tea.Cmd {
	backend := m.session.Backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		trades, err := backend.Trades(ctx)
		return tradesMsg{trades: trades, err: err}
	}
}

// View отрисовывает консоль
func (m *Model) View() string {
	title := titleStyle.Render("Unlisted · Admin")
	if m.session.User != nil {
		title += "  " + headerStyle.Render(m.session.User.DisplayName())
	}
	if m.session.Demo {
		title += "  " + demoBadgeStyle.Render("DEMO")
	}

	var body string
	switch m.view {
	case viewHistory:
		body = m.renderHistory()
	case viewTrades:
		body = m.renderTrades()
	default:
		body = m.renderListings()
	}

	footer := statusBarStyle.Render("↑↓ select · tab filter · a approve · c close · h history · t trades · r refresh · esc back · q quit")
	if m.err != nil {
		footer = errorStyle.Render(m.err.Error()) + "\n" + footer
	} else if m.status != "" {
		footer = m.status + "\n" + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, panelStyle.Render(body), footer)
}

func (m *Model) renderListings() string {
	filter := string(filters[m.filter])
	if filter == "" {
		filter = "all"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Filter: "+filter) + "\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-4s %-28s %10s %8s %-24s %5s", "Kind", "Company", "Price", "Shares", "Status", "Bids")))
	b.WriteString("\n")

	if len(m.listings) == 0 {
		b.WriteString(statusBarStyle.Render("No listings"))
		return b.String()
	}

	for i, l := range m.listings {
		line := fmt.Sprintf("%-4s %-28s %10s %8d %-24s %5d",
			l.Kind, truncate(l.Company, 28), l.Price.StringFixed(2), l.Shares,
			statusStyle(string(l.Status)).Render(fmt.Sprintf("%-24s", l.Status)), len(l.Bids))
		if i == m.selected {
			b.WriteString(selectedRowStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")

		if i == m.selected {
			if bid, ok := agreedBid(l); ok {
				b.WriteString(headerStyle.Render(fmt.Sprintf("     agreed: %s × %d with %s",
					bid.AgreedPrice().StringFixed(2), bid.Quantity, bid.CounterpartyName)))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func (m *Model) renderHistory() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-19s %-8s %-24s %-24s", "Time", "Type", "From", "To")))
	b.WriteString("\n")
	for _, h := range m.history {
		from := h.OldStatus
		if from == "" {
			from = "-"
		}
		b.WriteString(fmt.Sprintf("%-19s %-8s %-24s %s\n",
			h.Timestamp.Local().Format("2006-01-02 15:04:05"), h.RelatedType, from,
			statusStyle(h.NewStatus).Render(h.NewStatus)))
	}
	return b.String()
}

func (m *Model) renderTrades() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-28s %10s %8s %14s %-24s", "Company", "Price", "Qty", "Value", "Status")))
	b.WriteString("\n")
	for _, t := range m.trades {
		b.WriteString(fmt.Sprintf("%-28s %10s %8d %14s %s\n",
			truncate(t.Company, 28), t.Price.StringFixed(2), t.Quantity, t.Value().StringFixed(2),
			statusStyle(string(t.Status)).Render(string(t.Status))))
	}
	return b.String()
}

func agreedBid(l *models.Listing) (*models.Bid, bool) {
	for i := range l.Bids {
		if l.Bids[i].IsSettled() {
			return &l.Bids[i], true
		}
	}
	return nil, false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
