package tui

import (
	"context"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/payline/internal/i18n"
	"github.com/naveenspark/payline/pkg/client"
	"github.com/naveenspark/payline/pkg/domain"
)

const (
	loadFieldEmail = iota
	loadFieldAmount
	loadFieldConcept
	loadFieldCount
)

type loadCreatedMsg struct {
	load *domain.CommissionLoad
	err  error
}

func (m loadCreatedMsg) result() error { return m.err }

// loadsModel is the manual commission load form.
type loadsModel struct {
	sess       Session
	backend    Backend
	loc        *i18n.Locale
	fields     [loadFieldCount]string
	focus      int
	submitting bool
	err        string
	last       *domain.CommissionLoad
	frame      int
}

func newLoadsModel(s Session, b Backend, loc *i18n.Locale) loadsModel {
	return loadsModel{sess: s, backend: b, loc: loc}
}

// parseAmount accepts "1234.5" and "1234,5".
func parseAmount(raw string) (float64, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func (m loadsModel) submit() (loadsModel, tea.Cmd) {
	email := strings.ToLower(strings.TrimSpace(m.fields[loadFieldEmail]))
	concept := strings.TrimSpace(m.fields[loadFieldConcept])
	amount, ok := parseAmount(m.fields[loadFieldAmount])
	if !ok {
		m.err = m.loc.T("invalid amount")
		m.focus = loadFieldAmount
		return m, nil
	}
	if email == "" || concept == "" {
		return m, nil
	}
	m.submitting = true
	m.err = ""
	s, b := m.sess, m.backend
	req := client.CommissionLoadRequest{UserEmail: email, Amount: amount, Concept: concept}
	return m, func() tea.Msg {
		var load *domain.CommissionLoad
		err := s.Authorized(context.Background(), func(ctx context.Context) error {
			var err error
			load, err = b.CreateCommissionLoad(ctx, req)
			return err
		})
		return loadCreatedMsg{load: load, err: err}
	}
}

func (m loadsModel) Update(msg tea.Msg) (loadsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loadCreatedMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = errorText(msg.err)
			return m, nil
		}
		m.last = msg.load
		m.fields = [loadFieldCount]string{}
		m.focus = loadFieldEmail
		return m, flash(m.loc.T("commission loaded"), false)

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.focus = (m.focus + 1) % loadFieldCount
			return m, nil
		case "shift+tab", "up":
			m.focus = (m.focus + loadFieldCount - 1) % loadFieldCount
			return m, nil
		case "ctrl+s":
			return m.submit()
		case "enter":
			if m.focus < loadFieldConcept {
				m.focus++
				return m, nil
			}
			return m.submit()
		}
		m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
	}
	return m, nil
}

func (m loadsModel) View() string {
	labels := [loadFieldCount]string{m.loc.T("user email"), m.loc.T("amount"), m.loc.T("concept")}
	placeholders := [loadFieldCount]string{"member@example.com", "100.00", ""}

	var b strings.Builder
	b.WriteString("\n " + goldStyle.Render(m.loc.T("Loads")) + "\n\n")
	for i := range loadFieldCount {
		b.WriteString(renderField(labels[i], m.fields[i], placeholders[i], m.focus == i, false, m.frame) + "\n")
	}
	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render(m.loc.T("loading...")) + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(m.loc.Sprintf("error: %s", m.err)) + "\n")
	case m.last != nil:
		b.WriteString(" " + flashStyle.Render(m.last.UserEmail+"  "+formatMoney(m.loc, m.last.Amount, "")+"  "+m.last.Concept) + "\n")
	}
	return b.String()
}
