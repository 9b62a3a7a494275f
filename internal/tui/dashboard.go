package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/payline/internal/i18n"
	"github.com/naveenspark/payline/pkg/domain"
)

type metricsLoadedMsg struct {
	metrics *domain.DashboardMetrics
	err     error
}

func (m metricsLoadedMsg) result() error { return m.err }

// badgeLoadedMsg carries a refresh of the page shared by the badge and the list.
type badgeLoadedMsg struct {
	page *domain.NotificationPage
	err  error
}

func (m badgeLoadedMsg) result() error { return m.err }

type dashboardModel struct {
	sess    Session
	backend Backend
	notes   Notifications
	loc     *i18n.Locale
	metrics *domain.DashboardMetrics
	loading bool
	err     string
	now     func() time.Time
	width   int
	height  int
}

func newDashboardModel(s Session, b Backend, n Notifications, loc *i18n.Locale) dashboardModel {
	return dashboardModel{sess: s, backend: b, notes: n, loc: loc, now: time.Now}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.load(), loadBadge(m.sess, m.notes))
}

func (m dashboardModel) load() tea.Cmd {
	s, b := m.sess, m.backend
	return func() tea.Msg {
		var metrics *domain.DashboardMetrics
		err := s.Authorized(context.Background(), func(ctx context.Context) error {
			var err error
			metrics, err = b.GetDashboardMetrics(ctx)
			return err
		})
		return metricsLoadedMsg{metrics: metrics, err: err}
	}
}

// loadBadge fetches the first notification page through the shared cache.
func loadBadge(s Session, n Notifications) tea.Cmd {
	return func() tea.Msg {
		var page *domain.NotificationPage
		err := s.Authorized(context.Background(), func(ctx context.Context) error {
			var err error
			page, err = n.FetchPage(ctx, 1, notificationsPageSize)
			return err
		})
		return badgeLoadedMsg{page: page, err: err}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case metricsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = errorText(msg.err)
		} else {
			m.metrics = msg.metrics
			m.err = ""
		}
	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.Init()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m dashboardModel) View() string {
	var b strings.Builder

	user := m.sess.User()
	if user != nil {
		line := " " + selectedStyle.Render(user.DisplayName())
		if badge := RoleBadge(user.Role); badge != "" {
			line += " " + badge
		}
		b.WriteString(line + "\n")
	}
	if exp, ok := m.sess.AccessTokenExpiry(); ok {
		b.WriteString(" " + metaStyle.Render(m.loc.Sprintf("session expires in %s", formatRemaining(exp.Sub(m.now())))) + "\n")
	}
	if page, ok := m.notes.Cached(1, notificationsPageSize); ok && page.UnreadCount > 0 {
		b.WriteString(" " + accentStyle.Render(m.loc.Sprintf("%d unread", page.UnreadCount)) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(m.loc.Sprintf("error: %s", m.err)) + "\n")
		return b.String()
	case m.metrics == nil:
		b.WriteString(" " + dimStyle.Render(m.loc.T("loading...")) + "\n")
		return b.String()
	}

	mt := m.metrics
	rows := []struct {
		label string
		value string
	}{
		{m.loc.T("total"), formatMoney(m.loc, mt.TotalCommissions, mt.Currency)},
		{m.loc.T("pending"), formatMoney(m.loc, mt.PendingCommissions, mt.Currency)},
		{m.loc.T("claimable"), m.loc.Sprintf("%d", mt.ClaimableCount)},
		{m.loc.T("network size"), m.loc.Sprintf("%d", mt.NetworkSize)},
		{m.loc.T("directs"), m.loc.Sprintf("%d", mt.DirectReferrals)},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "   %s  %s\n", sectionHeaderStyle.Render(fmt.Sprintf("%-14s", r.label)), goldStyle.Render(r.value))
	}
	return b.String()
}
