package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/payline/internal/i18n"
	"github.com/naveenspark/payline/pkg/client"
	"github.com/naveenspark/payline/pkg/domain"
)

type profileLoadedMsg struct {
	user *domain.User
	err  error
}

func (m profileLoadedMsg) result() error { return m.err }

type langChangedMsg struct {
	user *domain.User
	err  error
}

func (m langChangedMsg) result() error { return m.err }

type profileModel struct {
	sess     Session
	loc      *i18n.Locale
	user     *domain.User
	updating bool
	err      string
}

func newProfileModel(s Session, loc *i18n.Locale) profileModel {
	return profileModel{sess: s, loc: loc}
}

func (m profileModel) Init() tea.Cmd {
	s := m.sess
	return func() tea.Msg {
		var user *domain.User
		err := s.Authorized(context.Background(), func(ctx context.Context) error {
			var err error
			user, err = s.FetchProfile(ctx)
			return err
		})
		return profileLoadedMsg{user: user, err: err}
	}
}

// nextLang is the language the toggle switches to.
func nextLang(current string) string {
	if current == domain.LangEN {
		return domain.LangES
	}
	return domain.LangEN
}

func (m profileModel) Update(msg tea.Msg) (profileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		if msg.err != nil {
			m.err = errorText(msg.err)
			return m, nil
		}
		m.user = msg.user
		m.err = ""

	case langChangedMsg:
		m.updating = false
		if msg.err != nil {
			m.err = errorText(msg.err)
			return m, nil
		}
		m.user = msg.user
		m.err = ""
		return m, flash(m.loc.Sprintf("language: %s", m.loc.Code()), false)

	case tea.KeyMsg:
		if msg.String() == "l" && !m.updating {
			m.updating = true
			s := m.sess
			lang := nextLang(m.loc.Code())
			return m, func() tea.Msg {
				var user *domain.User
				err := s.Authorized(context.Background(), func(ctx context.Context) error {
					var err error
					user, err = s.UpdateProfile(ctx, client.ProfileUpdate{Lang: &lang})
					return err
				})
				return langChangedMsg{user: user, err: err}
			}
		}
	}
	return m, nil
}

func (m profileModel) View() string {
	user := m.user
	if user == nil {
		user = m.sess.User()
	}
	var b strings.Builder
	if m.err != "" {
		b.WriteString(" " + errorStyle.Render(m.loc.Sprintf("error: %s", m.err)) + "\n\n")
	}
	if user == nil {
		b.WriteString(" " + dimStyle.Render(m.loc.T("loading...")) + "\n")
		return b.String()
	}

	rows := []struct{ label, value string }{
		{m.loc.T("name"), user.FullName},
		{m.loc.T("email"), user.Email},
		{m.loc.T("phone"), user.Phone},
		{m.loc.T("referral code"), user.ReferralCode},
		{m.loc.T("language"), m.loc.Code()},
	}
	b.WriteString("\n")
	for _, r := range rows {
		if r.value == "" {
			continue
		}
		fmt.Fprintf(&b, "   %s  %s\n", sectionHeaderStyle.Render(fmt.Sprintf("%-14s", r.label)), normalStyle.Render(r.value))
	}
	if badge := RoleBadge(user.Role); badge != "" {
		b.WriteString("\n   " + badge + "\n")
	}
	return b.String()
}
