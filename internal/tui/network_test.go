package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/payline/pkg/domain"
)

func typeSearch(m networkModel, s string) networkModel {
	for _, r := range s {
		m, _ = m.Update(key(string(r)))
	}
	return m
}

func TestNetworkOnlyLatestTickSearches(t *testing.T) {
	env := newTestEnv(partnerUser())
	env.backend.users = []domain.UserSummary{{ID: "9", Email: "alice@example.com", ReferralCode: "ALI009"}}
	m := newNetworkModel(env.sess, env.backend, env.loc)
	m = typeSearch(m, "alice")
	if m.seq != 5 {
		t.Fatalf("seq = %d, want 5", m.seq)
	}

	var cmds int
	for seq := 1; seq <= 5; seq++ {
		var cmd tea.Cmd
		m, cmd = m.Update(searchTickMsg{seq: seq})
		if cmd == nil {
			continue
		}
		cmds++
		msg := cmd()
		m, _ = m.Update(msg)
	}
	if cmds != 1 {
		t.Errorf("search cmds = %d, want 1", cmds)
	}
	if got := env.backend.searchCount(); got != 1 {
		t.Errorf("SearchUsers calls = %d, want 1", got)
	}
	if env.backend.searches[0] != "alice" {
		t.Errorf("query = %q", env.backend.searches[0])
	}
	if len(m.results) != 1 {
		t.Errorf("results = %d, want 1", len(m.results))
	}
}

func TestNetworkKeystrokeSchedulesDebounce(t *testing.T) {
	env := newTestEnv(partnerUser())
	m := newNetworkModel(env.sess, env.backend, env.loc)
	m, cmd := m.Update(key("a"))
	if cmd == nil {
		t.Fatal("expected debounce cmd")
	}
	msg, ok := cmd().(searchTickMsg)
	if !ok {
		t.Fatalf("cmd returned %T", cmd())
	}
	if msg.seq != 1 {
		t.Errorf("seq = %d, want 1", msg.seq)
	}
	if env.backend.searchCount() != 0 {
		t.Error("keystroke must not search directly")
	}
}

func TestNetworkStaleResultIgnored(t *testing.T) {
	env := newTestEnv(partnerUser())
	m := newNetworkModel(env.sess, env.backend, env.loc)
	m = typeSearch(m, "al")
	m, _ = m.Update(searchResultMsg{seq: 1, users: []domain.UserSummary{{Email: "old@example.com"}}})
	if len(m.results) != 0 || m.searched {
		t.Error("result for an old keystroke should be dropped")
	}
}

func TestNetworkEmptyQueryClears(t *testing.T) {
	env := newTestEnv(partnerUser())
	m := newNetworkModel(env.sess, env.backend, env.loc)
	m = typeSearch(m, "a")
	m, _ = m.Update(searchResultMsg{seq: m.seq, users: []domain.UserSummary{{Email: "a@example.com"}}})
	m, cmd := m.Update(key("backspace"))
	if cmd != nil {
		t.Error("clearing the query should not schedule a search")
	}
	if m.results != nil || m.searched {
		t.Error("results should be cleared")
	}
	if _, cmd := m.Update(searchTickMsg{seq: m.seq}); cmd != nil {
		t.Error("tick for an empty query should not search")
	}
}

func TestNetworkNoMatches(t *testing.T) {
	env := newTestEnv(partnerUser())
	m := newNetworkModel(env.sess, env.backend, env.loc)
	m = typeSearch(m, "zed")
	m, _ = m.Update(searchResultMsg{seq: m.seq})
	if !strings.Contains(m.View(), "no matches") {
		t.Error("view should say no matches")
	}
}

func TestNetworkSearchError(t *testing.T) {
	env := newTestEnv(partnerUser())
	m := newNetworkModel(env.sess, env.backend, env.loc)
	m = typeSearch(m, "x")
	m, _ = m.Update(searchResultMsg{seq: m.seq, err: errors.New("timeout")})
	if m.err != "timeout" {
		t.Errorf("err = %q", m.err)
	}
}

func TestNetworkCopyReferralCode(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	env := newTestEnv(partnerUser())
	m := newNetworkModel(env.sess, env.backend, env.loc)
	m, _ = m.Update(key("esc"))
	_, cmd := m.Update(key("y"))
	if cmd == nil {
		t.Fatal("expected copy cmd")
	}
	msg := cmd()
	if copied != "PAT002" {
		t.Errorf("copied %q, want own code", copied)
	}

	m = typeSearch(newNetworkModel(env.sess, env.backend, env.loc), "b")
	m, _ = m.Update(searchResultMsg{seq: m.seq, users: []domain.UserSummary{
		{Email: "a@example.com", ReferralCode: "AAA"},
		{Email: "b@example.com", ReferralCode: "BBB"},
	}})
	m, _ = m.Update(key("esc"))
	m, _ = m.Update(key("j"))
	_, cmd = m.Update(key("y"))
	cmd()
	if copied != "BBB" {
		t.Errorf("copied %q, want selected code", copied)
	}

	if _, cmd := m.Update(msg); cmd == nil {
		t.Error("copy result should flash")
	}
}

func TestNetworkSlashRefocuses(t *testing.T) {
	env := newTestEnv(partnerUser())
	m := newNetworkModel(env.sess, env.backend, env.loc)
	m, _ = m.Update(key("esc"))
	if m.focused {
		t.Fatal("esc should leave the search field")
	}
	m, _ = m.Update(key("/"))
	if !m.focused {
		t.Error("/ should focus the search field")
	}
}
