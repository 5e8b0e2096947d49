package console

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/unlisted-api/internal/client"
	"github.com/rajivgeraev/unlisted-api/internal/models"
)

func newDemoModel(t *testing.T) *Model {
	t.Helper()
	demo, err := client.NewDemoBackend()
	require.NoError(t, err)
	m := NewModel(&client.AdminSession{Backend: demo, User: demo.Admin(), Demo: true})
	m.Update(m.Init()())
	return m
}

func press(m *Model, k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

// run выполняет команду и все порождённые ею команды
func run(m *Model, cmd tea.Cmd) {
	for cmd != nil {
		_, cmd = m.Update(cmd())
	}
}

func TestModel_LoadsPendingQueue(t *testing.T) {
	m := newDemoModel(t)

	require.NoError(t, m.err)
	require.Len(t, m.listings, 2)
	for _, l := range m.listings {
		assert.Equal(t, models.ListingPendingAdminApproval, l.Status)
	}

	out := m.View()
	assert.Contains(t, out, "DEMO")
	assert.Contains(t, out, "pending_admin_approval")
	assert.Contains(t, out, "agreed:")
}

func TestModel_ApproveRemovesFromQueue(t *testing.T) {
	m := newDemoModel(t)

	run(m, press(m, "a"))
	require.NoError(t, m.err)
	assert.Len(t, m.listings, 1)
	assert.Contains(t, m.status, "approve")

	run(m, press(m, "tab"))
	run(m, press(m, "tab"))
	assert.Equal(t, models.ListingApproved, filters[m.filter])
	assert.Len(t, m.listings, 2)
}

func TestModel_HistoryAndTrades(t *testing.T) {
	m := newDemoModel(t)

	run(m, press(m, "h"))
	require.NoError(t, m.err)
	assert.Equal(t, viewHistory, m.view)
	assert.NotEmpty(t, m.history)
	assert.Contains(t, m.View(), "pending_admin_approval")

	press(m, "esc")
	assert.Equal(t, viewListings, m.view)

	run(m, press(m, "t"))
	assert.Equal(t, viewTrades, m.view)
	assert.Len(t, m.trades, 3)

	// В режимах просмотра действия над объявлением недоступны
	assert.Nil(t, press(m, "a"))
}

func TestModel_Navigation(t *testing.T) {
	m := newDemoModel(t)

	press(m, "j")
	assert.Equal(t, 1, m.selected)
	press(m, "j")
	assert.Equal(t, 1, m.selected)
	press(m, "k")
	press(m, "k")
	assert.Equal(t, 0, m.selected)

	assert.NotNil(t, press(m, "q"))
}
