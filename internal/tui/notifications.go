package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/payline/internal/browser"
	"github.com/naveenspark/payline/internal/i18n"
	"github.com/naveenspark/payline/internal/notify"
	"github.com/naveenspark/payline/pkg/domain"
)

// notificationsPageSize is the page shared by the list and the unread badge.
const notificationsPageSize = 20

// notificationsPollInterval is how often the list auto-refreshes.
const notificationsPollInterval = 15 * time.Second

// notificationsTickMsg carries the seq of the load that armed it. Only the
// newest tick triggers a refresh.
type notificationsTickMsg struct {
	seq int
}

func notificationsTickCmd(seq int) tea.Cmd {
	return tea.Tick(notificationsPollInterval, func(time.Time) tea.Msg {
		return notificationsTickMsg{seq: seq}
	})
}

type notificationsLoadedMsg struct {
	page *domain.NotificationPage
	err  error
}

func (m notificationsLoadedMsg) result() error { return m.err }

type markedMsg struct {
	all bool
	err error
}

func (m markedMsg) result() error { return m.err }

type claimStartedMsg struct {
	err error
}

func (m claimStartedMsg) result() error { return m.err }

type claimPollDoneMsg struct {
	poll    *notify.Poll
	outcome notify.Outcome
}

type linkOpenedMsg struct {
	err error
}

// openLink is replaced in tests.
var openLink = browser.Open

type notificationsModel struct {
	sess    Session
	backend Backend
	notes   Notifications
	loc     *i18n.Locale
	page    *domain.NotificationPage
	cursor  int
	loading bool
	err     string
	poll    *notify.Poll
	tickSeq int
	width   int
	height  int
}

func newNotificationsModel(s Session, b Backend, n Notifications, loc *i18n.Locale) notificationsModel {
	return notificationsModel{sess: s, backend: b, notes: n, loc: loc}
}

func (m notificationsModel) Init() tea.Cmd {
	return m.load()
}

func (m notificationsModel) load() tea.Cmd {
	s, n := m.sess, m.notes
	return func() tea.Msg {
		var page *domain.NotificationPage
		err := s.Authorized(context.Background(), func(ctx context.Context) error {
			var err error
			page, err = n.FetchPage(ctx, 1, notificationsPageSize)
			return err
		})
		return notificationsLoadedMsg{page: page, err: err}
	}
}

func (m notificationsModel) claiming() bool {
	if m.poll == nil {
		return false
	}
	select {
	case <-m.poll.Done():
		return false
	default:
		return true
	}
}

func waitPoll(p *notify.Poll) tea.Cmd {
	return func() tea.Msg {
		<-p.Done()
		return claimPollDoneMsg{poll: p, outcome: p.Outcome()}
	}
}

func (m notificationsModel) Update(msg tea.Msg) (notificationsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case notificationsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = errorText(msg.err)
		} else {
			m.page = msg.page
			m.err = ""
			if m.cursor >= len(m.page.Notifications) {
				m.cursor = max(len(m.page.Notifications)-1, 0)
			}
		}
		m.tickSeq++
		return m, notificationsTickCmd(m.tickSeq)

	case notificationsTickMsg:
		if msg.seq != m.tickSeq {
			return m, nil
		}
		return m, m.load()

	case markedMsg:
		if msg.err != nil {
			return m, flash(m.loc.Sprintf("error: %s", errorText(msg.err)), true)
		}
		text := m.loc.T("marked as read")
		if msg.all {
			text = m.loc.T("all marked as read")
		}
		m.loading = true
		return m, tea.Batch(flash(text, false), m.load())

	case claimStartedMsg:
		if msg.err != nil {
			return m, flash(m.loc.Sprintf("error: %s", errorText(msg.err)), true)
		}
		m.poll = m.notes.StartClaimPoll(context.Background())
		return m, tea.Batch(flash(m.loc.T("claiming commissions..."), false), waitPoll(m.poll))

	case claimPollDoneMsg:
		if m.poll == nil || msg.poll != m.poll {
			return m, nil
		}
		m.poll = nil
		var text string
		switch msg.outcome {
		case notify.PollCompleted:
			text = m.loc.T("claim finished")
		case notify.PollTimedOut:
			text = m.loc.T("claim still running, check later")
		default:
			text = m.loc.T("claim polling stopped")
		}
		m.loading = true
		return m, tea.Batch(flash(text, false), m.load())

	case linkOpenedMsg:
		if msg.err != nil {
			return m, flash(m.loc.Sprintf("error: %s", msg.err.Error()), true)
		}

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m notificationsModel) selected() (domain.Notification, bool) {
	if m.page == nil || m.cursor < 0 || m.cursor >= len(m.page.Notifications) {
		return domain.Notification{}, false
	}
	return m.page.Notifications[m.cursor], true
}

func (m notificationsModel) updateKeys(msg tea.KeyMsg) (notificationsModel, tea.Cmd) {
	s, n, b := m.sess, m.notes, m.backend
	switch msg.String() {
	case "j", "down":
		if m.page != nil && m.cursor < len(m.page.Notifications)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		note, ok := m.selected()
		if !ok || note.IsRead {
			return m, nil
		}
		return m, func() tea.Msg {
			err := s.Authorized(context.Background(), func(ctx context.Context) error {
				return n.MarkRead(ctx, note.ID)
			})
			return markedMsg{err: err}
		}
	case "a":
		return m, func() tea.Msg {
			err := s.Authorized(context.Background(), func(ctx context.Context) error {
				return n.MarkAllRead(ctx)
			})
			return markedMsg{all: true, err: err}
		}
	case "c":
		if m.claiming() {
			return m, nil
		}
		return m, func() tea.Msg {
			err := s.Authorized(context.Background(), func(ctx context.Context) error {
				return b.ClaimCommissions(ctx)
			})
			return claimStartedMsg{err: err}
		}
	case "s":
		if m.claiming() {
			return m, m.stopPoll()
		}
	case "o":
		note, ok := m.selected()
		if !ok {
			return m, nil
		}
		link := note.MetadataString("url")
		if link == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			return linkOpenedMsg{err: openLink(link)}
		}
	case "r":
		m.loading = true
		return m, m.load()
	}
	return m, nil
}

// stopPoll returns a cmd cancelling a running claim poll, or nil. It is
// used before the model is dropped.
func (m notificationsModel) stopPoll() tea.Cmd {
	p := m.poll
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		p.Stop()
		return nil
	}
}

func (m notificationsModel) helpKeys() string {
	keys := []string{
		helpEntry("j/k", "nav"),
		helpEntry("enter", "read"),
		helpEntry("a", "read all"),
		helpEntry("o", "open"),
	}
	if m.claiming() {
		keys = append(keys, helpEntry("s", "stop claim"))
	} else {
		keys = append(keys, helpEntry("c", "claim"))
	}
	return strings.Join(keys, "  ")
}

func (m notificationsModel) View() string {
	if m.page == nil {
		if m.err != "" {
			return " " + errorStyle.Render(m.loc.Sprintf("error: %s", m.err))
		}
		return " " + dimStyle.Render(m.loc.T("loading..."))
	}

	var b strings.Builder
	header := " " + sectionHeaderStyle.Render(m.loc.Sprintf("%d unread", m.page.UnreadCount))
	if m.claiming() {
		header += "  " + accentStyle.Render(m.loc.T("claiming commissions..."))
	}
	b.WriteString(header + "\n")
	if m.err != "" {
		b.WriteString(" " + errorStyle.Render(m.loc.Sprintf("error: %s", m.err)) + "\n")
	}
	b.WriteString("\n")

	if len(m.page.Notifications) == 0 {
		b.WriteString(" " + dimStyle.Render(m.loc.T("no notifications")) + "\n")
		return b.String()
	}

	width := m.width
	if width < 40 {
		width = 80
	}
	for i, n := range m.page.Notifications {
		marker := NotificationStyle(n.Type).Render("●")
		if n.IsRead {
			marker = metaStyle.Render("○")
		}
		title := normalStyle.Render(truncStr(n.Title, width-20))
		if !n.IsRead {
			title = selectedStyle.Render(truncStr(n.Title, width-20))
		}
		line := fmt.Sprintf(" %s %s  %s", marker, title, metaStyle.Render(formatTime(n.CreatedAt)))
		if i == m.cursor {
			line = selectedRowBg.Render(line)
		}
		b.WriteString(line + "\n")
		if n.Body != "" {
			b.WriteString("     " + dimStyle.Render(truncStr(n.Body, width-6)) + "\n")
		}
	}
	return b.String()
}
