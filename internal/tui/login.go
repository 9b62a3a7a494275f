package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/payline/internal/i18n"
	"github.com/naveenspark/payline/pkg/client"
	"github.com/naveenspark/payline/pkg/domain"
)

type loginField int

const (
	fieldEmail loginField = iota
	fieldPassword
)

type loginResultMsg struct {
	user *domain.User
	err  error
}

func (m loginResultMsg) result() error { return m.err }

type loginModel struct {
	sess       Session
	loc        *i18n.Locale
	email      string
	password   string
	focus      loginField
	submitting bool
	err        string
	frame      int
}

func newLoginModel(s Session, loc *i18n.Locale) loginModel {
	return loginModel{sess: s, loc: loc}
}

func (m loginModel) submit() tea.Cmd {
	s := m.sess
	email, password := m.email, m.password
	return func() tea.Msg {
		res, err := s.Login(context.Background(), email, password)
		if err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{user: res.User}
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = errorText(msg.err)
			m.password = ""
			m.focus = fieldPassword
			return m, nil
		}
		m.err = ""
		m.password = ""
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down", "shift+tab", "up":
			if m.focus == fieldEmail {
				m.focus = fieldPassword
			} else {
				m.focus = fieldEmail
			}
			return m, nil
		case "enter":
			if m.focus == fieldEmail {
				m.focus = fieldPassword
				return m, nil
			}
			if strings.TrimSpace(m.email) == "" || m.password == "" {
				return m, nil
			}
			m.submitting = true
			m.err = ""
			return m, m.submit()
		}
		if m.focus == fieldEmail {
			m.email = editRune(m.email, msg.String())
		} else {
			m.password = editRune(m.password, msg.String())
		}
	}
	return m, nil
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString("\n " + goldStyle.Render(m.loc.T("Sign in")) + "\n\n")
	b.WriteString(renderField(m.loc.T("email"), m.email, "you@example.com", m.focus == fieldEmail, false, m.frame) + "\n")
	b.WriteString(renderField(m.loc.T("password"), m.password, "", m.focus == fieldPassword, true, m.frame) + "\n\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render(m.loc.T("signing in...")) + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(m.loc.Sprintf("error: %s", m.err)) + "\n")
	}
	return b.String()
}

// errorText is the message shown to the user for err.
func errorText(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
