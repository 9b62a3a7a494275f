package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/payline/internal/i18n"
	"github.com/naveenspark/payline/pkg/domain"
)

// searchDebounce is how long typing must pause before a lookup fires.
const searchDebounce = 500 * time.Millisecond

// searchTickMsg fires searchDebounce after the keystroke numbered seq.
type searchTickMsg struct {
	seq int
}

type searchResultMsg struct {
	seq   int
	users []domain.UserSummary
	err   error
}

func (m searchResultMsg) result() error { return m.err }

type copyResultMsg struct {
	err error
}

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

type networkModel struct {
	sess      Session
	backend   Backend
	loc       *i18n.Locale
	query     string
	seq       int
	focused   bool
	searching bool
	searched  bool
	results   []domain.UserSummary
	cursor    int
	err       string
	frame     int
	width     int
	height    int
}

func newNetworkModel(s Session, b Backend, loc *i18n.Locale) networkModel {
	return networkModel{sess: s, backend: b, loc: loc, focused: true}
}

// debounce schedules the lookup for keystroke seq. Only the tick whose seq
// is still current when it fires runs a search.
func debounce(seq int) tea.Cmd {
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq}
	})
}

func (m networkModel) search(seq int, query string) tea.Cmd {
	s, b := m.sess, m.backend
	return func() tea.Msg {
		var users []domain.UserSummary
		err := s.Authorized(context.Background(), func(ctx context.Context) error {
			var err error
			users, err = b.SearchUsers(ctx, query)
			return err
		})
		return searchResultMsg{seq: seq, users: users, err: err}
	}
}

func (m networkModel) Update(msg tea.Msg) (networkModel, tea.Cmd) {
	switch msg := msg.(type) {
	case searchTickMsg:
		if msg.seq != m.seq || strings.TrimSpace(m.query) == "" {
			return m, nil
		}
		m.searching = true
		return m, m.search(msg.seq, strings.TrimSpace(m.query))

	case searchResultMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.searching = false
		if msg.err != nil {
			m.err = errorText(msg.err)
			return m, nil
		}
		m.err = ""
		m.searched = true
		m.results = msg.users
		m.cursor = 0

	case copyResultMsg:
		if msg.err != nil {
			return m, flash(m.loc.Sprintf("error: %s", msg.err.Error()), true)
		}
		return m, flash(m.loc.T("copied referral code"), false)

	case tea.KeyMsg:
		if m.focused {
			return m.updateInput(msg)
		}
		return m.updateList(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m networkModel) updateInput(msg tea.KeyMsg) (networkModel, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "tab":
		m.focused = false
		return m, nil
	}
	q := editRune(m.query, msg.String())
	if q == m.query {
		return m, nil
	}
	m.query = q
	m.seq++
	if strings.TrimSpace(q) == "" {
		m.results = nil
		m.searching = false
		m.searched = false
		m.err = ""
		return m, nil
	}
	return m, debounce(m.seq)
}

func (m networkModel) updateList(msg tea.KeyMsg) (networkModel, tea.Cmd) {
	switch msg.String() {
	case "/":
		m.focused = true
	case "j", "down":
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "y":
		code := m.referralCode()
		if code == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			return copyResultMsg{err: writeClipboard(code)}
		}
	}
	return m, nil
}

// referralCode is the selected member's code, or the user's own without results.
func (m networkModel) referralCode() string {
	if m.cursor < len(m.results) {
		return m.results[m.cursor].ReferralCode
	}
	if u := m.sess.User(); u != nil {
		return u.ReferralCode
	}
	return ""
}

func (m networkModel) helpKeys() string {
	if m.focused {
		return helpEntry("esc", "done")
	}
	return strings.Join([]string{helpEntry("/", "search"), helpEntry("j/k", "nav"), helpEntry("y", "copy code")}, "  ")
}

func (m networkModel) View() string {
	var b strings.Builder
	b.WriteString(renderField(">", m.query, m.loc.T("search the network..."), m.focused, false, m.frame) + "\n")
	if u := m.sess.User(); u != nil && u.ReferralCode != "" {
		b.WriteString("  " + metaStyle.Render("ref "+u.ReferralCode) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(m.loc.Sprintf("error: %s", m.err)) + "\n")
		return b.String()
	case m.searching:
		b.WriteString(" " + dimStyle.Render(m.loc.T("loading...")) + "\n")
		return b.String()
	case m.searched && len(m.results) == 0:
		b.WriteString(" " + dimStyle.Render(m.loc.T("no matches")) + "\n")
		return b.String()
	}

	for i, u := range m.results {
		name := u.FullName
		if name == "" {
			name = u.Email
		}
		line := fmt.Sprintf(" %s  %s  %s  %s",
			selectedStyle.Render(truncStr(name, 28)),
			dimStyle.Render(truncStr(u.Email, 32)),
			accentStyle.Render(u.ReferralCode),
			metaStyle.Render(fmt.Sprintf("L%d · %d", u.Level, u.Directs)),
		)
		if i == m.cursor && !m.focused {
			line = selectedRowBg.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
