package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/payline/internal/notify"
	"github.com/naveenspark/payline/internal/session"
	"github.com/naveenspark/payline/pkg/domain"
)

// key builds the KeyMsg a terminal would deliver for s.
func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestApp(env *testEnv, disabled map[string]bool) App {
	m, _ := NewApp(env.deps(disabled)).Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m.(App)
}

func press(a App, k string) (App, tea.Cmd) {
	m, cmd := a.Update(key(k))
	return m.(App), cmd
}

func TestNewAppStartsOnLoginWhenAnonymous(t *testing.T) {
	a := newTestApp(newTestEnv(nil), nil)
	if a.view != viewLogin {
		t.Errorf("view = %d, want login", a.view)
	}
}

func TestNewAppStartsOnDashboardWithSession(t *testing.T) {
	a := newTestApp(newTestEnv(adminUser()), nil)
	if a.view != viewDashboard {
		t.Errorf("view = %d, want dashboard", a.view)
	}
}

func TestAppTabKeys(t *testing.T) {
	tests := []struct {
		key  string
		want view
	}{
		{"1", viewDashboard},
		{"2", viewNotifications},
		{"3", viewNetwork},
		{"4", viewLoads},
		{"5", viewProfile},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			a := newTestApp(newTestEnv(adminUser()), nil)
			a, _ = press(a, tt.key)
			if a.view != tt.want {
				t.Errorf("view = %d, want %d", a.view, tt.want)
			}
		})
	}
}

func TestAppLoadsDeniedForNonAdmin(t *testing.T) {
	a := newTestApp(newTestEnv(partnerUser()), nil)
	a, cmd := press(a, "4")
	if a.view != viewDashboard {
		t.Errorf("view = %d, want dashboard", a.view)
	}
	if a.flash != "admins only" {
		t.Errorf("flash = %q, want %q", a.flash, "admins only")
	}
	if !a.flashErr {
		t.Error("denial should be shown as an error")
	}
	if cmd == nil {
		t.Error("expected a flash clear cmd")
	}
}

func TestAppNetworkDeniedWithoutReferralCode(t *testing.T) {
	u := partnerUser()
	u.ReferralCode = ""
	a := newTestApp(newTestEnv(u), nil)
	a, _ = press(a, "3")
	if a.view != viewDashboard {
		t.Errorf("view = %d, want dashboard", a.view)
	}
	if a.flash != "a referral code is required" {
		t.Errorf("flash = %q", a.flash)
	}
}

func TestAppDisabledFeature(t *testing.T) {
	a := newTestApp(newTestEnv(adminUser()), map[string]bool{FeatureNotifications: true})
	a, _ = press(a, "2")
	if a.view != viewDashboard {
		t.Errorf("view = %d, want dashboard", a.view)
	}
	if a.flash != "feature unavailable" {
		t.Errorf("flash = %q, want %q", a.flash, "feature unavailable")
	}
}

func TestAppDeniedElsewhereRedirectsToDashboard(t *testing.T) {
	a := newTestApp(newTestEnv(adminUser()), map[string]bool{FeatureCommissionLoads: true})
	a, _ = press(a, "5")
	a, _ = press(a, "4")
	if a.view != viewDashboard {
		t.Errorf("view = %d, want dashboard", a.view)
	}
	if a.flash != "feature unavailable" {
		t.Errorf("flash = %q", a.flash)
	}
}

func TestAppAnonymousRedirectsToLogin(t *testing.T) {
	a := newTestApp(newTestEnv(nil), nil)
	for _, v := range []view{viewDashboard, viewNotifications, viewNetwork, viewLoads, viewProfile} {
		got, _ := a.navigate(v)
		if got.view != viewLogin {
			t.Errorf("navigate(%d) view = %d, want login", v, got.view)
		}
		if got.flash != "" {
			t.Errorf("navigate(%d) flash = %q, want none", v, got.flash)
		}
	}
}

func TestAppSessionExpiredReturnsToLogin(t *testing.T) {
	env := newTestEnv(adminUser())
	a := newTestApp(env, nil)
	m, _ := a.Update(metricsLoadedMsg{err: fmt.Errorf("load: %w", session.ErrSessionExpired)})
	a = m.(App)
	if a.view != viewLogin {
		t.Errorf("view = %d, want login", a.view)
	}
	if !strings.Contains(a.flash, "session expired") {
		t.Errorf("flash = %q", a.flash)
	}
}

func TestAppOtherErrorsStayInView(t *testing.T) {
	a := newTestApp(newTestEnv(adminUser()), nil)
	m, _ := a.Update(metricsLoadedMsg{err: fmt.Errorf("boom")})
	a = m.(App)
	if a.view != viewDashboard {
		t.Errorf("view = %d, want dashboard", a.view)
	}
	if a.dashboard.err != "boom" {
		t.Errorf("dashboard err = %q", a.dashboard.err)
	}
}

func TestAppLoginSuccessOpensDashboard(t *testing.T) {
	env := newTestEnv(nil)
	a := newTestApp(env, nil)
	env.sess.user = adminUser()
	m, cmd := a.Update(loginResultMsg{user: env.sess.user})
	a = m.(App)
	if a.view != viewDashboard {
		t.Errorf("view = %d, want dashboard", a.view)
	}
	if cmd == nil {
		t.Error("expected dashboard load cmd")
	}
}

func TestAppLoginFailureStaysOnLogin(t *testing.T) {
	a := newTestApp(newTestEnv(nil), nil)
	m, _ := a.Update(loginResultMsg{err: fmt.Errorf("invalid credentials")})
	a = m.(App)
	if a.view != viewLogin {
		t.Errorf("view = %d, want login", a.view)
	}
	if a.login.err != "invalid credentials" {
		t.Errorf("login err = %q", a.login.err)
	}
}

func TestAppSignOut(t *testing.T) {
	env := newTestEnv(adminUser())
	a := newTestApp(env, nil)
	a, _ = press(a, "L")
	if a.view != viewLogin {
		t.Errorf("view = %d, want login", a.view)
	}
	if env.sess.logoutCalls != 1 {
		t.Errorf("logout calls = %d, want 1", env.sess.logoutCalls)
	}
	if a.flash != "signed out" {
		t.Errorf("flash = %q", a.flash)
	}
}

// runAsync runs cmd and every cmd of a batch in the background. Ticks in a
// batch would otherwise block the test.
func runAsync(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		if batch, ok := cmd().(tea.BatchMsg); ok {
			for _, c := range batch {
				if c != nil {
					go c()
				}
			}
		}
	}()
}

// claimingApp opens notifications and starts a claim poll that only ends
// when stopped.
func claimingApp(t *testing.T, env *testEnv) (App, *notify.Poll) {
	t.Helper()
	env.notes.poller = notify.New(idleFetcher{}, notify.WithPollInterval(5*time.Millisecond), notify.WithPollCeiling(time.Minute))
	a := newTestApp(env, nil)
	a, _ = press(a, "2")
	m, _ := a.Update(claimStartedMsg{})
	a = m.(App)
	if a.notifications.poll == nil {
		t.Fatal("claim should start a poll")
	}
	return a, a.notifications.poll
}

func waitStopped(t *testing.T, p *notify.Poll) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("claim poll still running")
	}
	if got := p.Outcome(); got != notify.PollStopped {
		t.Errorf("outcome = %v, want stopped", got)
	}
}

func TestAppSignOutStopsClaimPoll(t *testing.T) {
	env := newTestEnv(adminUser())
	a, p := claimingApp(t, env)

	a, cmd := press(a, "L")
	runAsync(cmd)
	waitStopped(t, p)

	m, cmd := a.Update(claimPollDoneMsg{poll: p, outcome: p.Outcome()})
	a = m.(App)
	if cmd != nil {
		t.Error("done from the dropped poll must not reload")
	}
	if env.sess.logoutCalls != 1 {
		t.Errorf("logout calls = %d, want 1", env.sess.logoutCalls)
	}
	if a.flash != "signed out" {
		t.Errorf("flash = %q", a.flash)
	}
}

func TestAppSessionExpiredStopsClaimPoll(t *testing.T) {
	env := newTestEnv(adminUser())
	a, p := claimingApp(t, env)

	m, cmd := a.Update(notificationsLoadedMsg{err: fmt.Errorf("load: %w", session.ErrSessionExpired)})
	a = m.(App)
	runAsync(cmd)
	waitStopped(t, p)
	if a.notifications.poll != nil {
		t.Error("expired session should drop the notifications state")
	}
	if _, cmd := a.Update(claimPollDoneMsg{poll: p, outcome: p.Outcome()}); cmd != nil {
		t.Error("done from the dropped poll must not reload")
	}
}

func TestAppQuit(t *testing.T) {
	a := newTestApp(newTestEnv(adminUser()), nil)
	_, cmd := press(a, "q")
	if cmd == nil {
		t.Fatal("expected quit cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestAppQIsTypedWhileEditing(t *testing.T) {
	a := newTestApp(newTestEnv(nil), nil)
	a, _ = press(a, "q")
	if a.login.email != "q" {
		t.Errorf("email = %q, want %q", a.login.email, "q")
	}
}

func TestAppCtrlCQuitsFromLogin(t *testing.T) {
	a := newTestApp(newTestEnv(nil), nil)
	_, cmd := press(a, "ctrl+c")
	if cmd == nil {
		t.Fatal("expected quit cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}

func TestAppEscLeavesLoads(t *testing.T) {
	a := newTestApp(newTestEnv(adminUser()), nil)
	a, _ = press(a, "4")
	a, _ = press(a, "esc")
	if a.view != viewDashboard {
		t.Errorf("view = %d, want dashboard", a.view)
	}
}

func TestAppFlashClear(t *testing.T) {
	a := newTestApp(newTestEnv(adminUser()), nil)
	m, _ := a.Update(flashMsg{text: "first"})
	m, _ = m.Update(flashMsg{text: "second"})
	a = m.(App)

	m, _ = a.Update(flashClearMsg{seq: a.flashSeq - 1})
	if got := m.(App).flash; got != "second" {
		t.Errorf("stale clear removed flash, got %q", got)
	}
	m, _ = a.Update(flashClearMsg{seq: a.flashSeq})
	if got := m.(App).flash; got != "" {
		t.Errorf("flash = %q, want cleared", got)
	}
}

func TestAppUnreadBadge(t *testing.T) {
	env := newTestEnv(adminUser())
	env.notes.page = &domain.NotificationPage{UnreadCount: 7}
	env.notes.cached = true
	a := newTestApp(env, nil)
	if got := a.unread(); got != 7 {
		t.Errorf("unread = %d, want 7", got)
	}
	if !strings.Contains(a.View(), "7") {
		t.Error("view should show the unread badge")
	}
}

func TestAppUnreadBadgeHiddenWhenNotificationsOff(t *testing.T) {
	env := newTestEnv(adminUser())
	env.notes.page = &domain.NotificationPage{UnreadCount: 7}
	env.notes.cached = true
	a := newTestApp(env, map[string]bool{FeatureNotifications: true})
	if got := a.unread(); got != 0 {
		t.Errorf("unread = %d, want 0 with notifications disabled", got)
	}
}

func TestAppViewHidesTabsOnLogin(t *testing.T) {
	a := newTestApp(newTestEnv(nil), nil)
	if strings.Contains(a.View(), "Dashboard") {
		t.Error("login view should not render tabs")
	}
}
