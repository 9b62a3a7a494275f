package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/naveenspark/payline/internal/notify"
	"github.com/naveenspark/payline/pkg/domain"
)

func samplePage() *domain.NotificationPage {
	now := time.Now()
	return &domain.NotificationPage{
		UnreadCount: 1,
		Notifications: []domain.Notification{
			{ID: "n1", Title: "Commission paid", Type: domain.NotificationSuccess, CreatedAt: now, Metadata: map[string]any{"url": "https://payline.app/c/1"}},
			{ID: "n2", Title: "Welcome", Type: domain.NotificationInfo, IsRead: true, CreatedAt: now.Add(-2 * time.Hour)},
		},
	}
}

func loadedNotifications(env *testEnv) notificationsModel {
	m := newNotificationsModel(env.sess, env.backend, env.notes, env.loc)
	m, _ = m.Update(notificationsLoadedMsg{page: samplePage()})
	return m
}

func TestNotificationsInitLoadsFirstPage(t *testing.T) {
	env := newTestEnv(adminUser())
	env.notes.page = samplePage()
	m := newNotificationsModel(env.sess, env.backend, env.notes, env.loc)
	msg, ok := m.Init()().(notificationsLoadedMsg)
	if !ok {
		t.Fatal("Init should load notifications")
	}
	if msg.err != nil || len(msg.page.Notifications) != 2 {
		t.Errorf("loaded %+v", msg)
	}
}

func TestNotificationsView(t *testing.T) {
	m := loadedNotifications(newTestEnv(adminUser()))
	view := m.View()
	for _, want := range []string{"1 unread", "Commission paid", "Welcome"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestNotificationsEmpty(t *testing.T) {
	env := newTestEnv(adminUser())
	m := newNotificationsModel(env.sess, env.backend, env.notes, env.loc)
	m, _ = m.Update(notificationsLoadedMsg{page: &domain.NotificationPage{}})
	if !strings.Contains(m.View(), "no notifications") {
		t.Error("expected empty state")
	}
}

func TestNotificationsLoadRearmsPolling(t *testing.T) {
	m := loadedNotifications(newTestEnv(adminUser()))
	m, cmd := m.Update(notificationsLoadedMsg{page: samplePage()})
	if cmd == nil {
		t.Error("a load should schedule the next refresh")
	}
	if _, cmd := m.Update(notificationsTickMsg{seq: m.tickSeq}); cmd == nil {
		t.Error("a tick should reload")
	}
}

func TestNotificationsReloadsKeepOneRefreshChain(t *testing.T) {
	env := newTestEnv(adminUser())
	m := newNotificationsModel(env.sess, env.backend, env.notes, env.loc)
	// One load from Init, then three from r.
	for range 4 {
		m, _ = m.Update(notificationsLoadedMsg{page: samplePage()})
	}
	reloads := 0
	for seq := 1; seq <= 4; seq++ {
		if _, cmd := m.Update(notificationsTickMsg{seq: seq}); cmd != nil {
			reloads++
		}
	}
	if reloads != 1 {
		t.Errorf("ticks that reloaded = %d, want 1", reloads)
	}
	if _, cmd := m.Update(notificationsTickMsg{seq: 4}); cmd == nil {
		t.Error("the newest tick should reload")
	}
}

func TestNotificationsIgnoresDoneFromOtherPoll(t *testing.T) {
	env := newTestEnv(adminUser())
	m := loadedNotifications(env)
	p := env.notes.StartClaimPoll(context.Background())
	<-p.Done()
	if _, cmd := m.Update(claimPollDoneMsg{poll: p, outcome: p.Outcome()}); cmd != nil {
		t.Error("done from a poll this model does not own should be dropped")
	}
}

func TestNotificationsMarkRead(t *testing.T) {
	env := newTestEnv(adminUser())
	m := loadedNotifications(env)
	_, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Fatal("expected mark cmd")
	}
	msg, ok := cmd().(markedMsg)
	if !ok || msg.err != nil || msg.all {
		t.Fatalf("marked = %+v", msg)
	}
	if len(env.notes.marked) != 1 || env.notes.marked[0] != "n1" {
		t.Errorf("marked = %v", env.notes.marked)
	}
	if _, cmd := m.Update(msg); cmd == nil {
		t.Error("a successful mark should flash and reload")
	}
}

func TestNotificationsMarkReadSkipsReadItems(t *testing.T) {
	m := loadedNotifications(newTestEnv(adminUser()))
	m, _ = m.Update(key("j"))
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}
	if _, cmd := m.Update(key("enter")); cmd != nil {
		t.Error("enter on a read notification should do nothing")
	}
}

func TestNotificationsMarkAll(t *testing.T) {
	env := newTestEnv(adminUser())
	m := loadedNotifications(env)
	_, cmd := m.Update(key("a"))
	if cmd == nil {
		t.Fatal("expected mark-all cmd")
	}
	msg := cmd().(markedMsg)
	if !msg.all {
		t.Error("expected all flag")
	}
	if env.notes.all != 1 {
		t.Errorf("MarkAllRead calls = %d", env.notes.all)
	}
}

func TestNotificationsCursorBounds(t *testing.T) {
	m := loadedNotifications(newTestEnv(adminUser()))
	m, _ = m.Update(key("k"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	for range 5 {
		m, _ = m.Update(key("j"))
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestNotificationsClaimFlow(t *testing.T) {
	env := newTestEnv(adminUser())
	m := loadedNotifications(env)
	_, cmd := m.Update(key("c"))
	if cmd == nil {
		t.Fatal("expected claim cmd")
	}
	started, ok := cmd().(claimStartedMsg)
	if !ok || started.err != nil {
		t.Fatalf("claim = %+v", started)
	}
	if env.backend.claims != 1 {
		t.Errorf("claims = %d", env.backend.claims)
	}

	m, cmd = m.Update(started)
	if m.poll == nil || cmd == nil {
		t.Fatal("claim should start a poll")
	}
	select {
	case <-m.poll.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not finish")
	}
	if got := m.poll.Outcome(); got != notify.PollCompleted {
		t.Errorf("outcome = %v, want completed", got)
	}
	done := waitPoll(m.poll)().(claimPollDoneMsg)
	m, cmd = m.Update(done)
	if m.poll != nil {
		t.Error("poll should be released")
	}
	if cmd == nil {
		t.Error("finished claim should flash and reload")
	}
}

func TestNotificationsClaimError(t *testing.T) {
	env := newTestEnv(adminUser())
	m := loadedNotifications(env)
	m, cmd := m.Update(claimStartedMsg{err: errors.New("nothing to claim")})
	if m.poll != nil {
		t.Error("failed claim must not poll")
	}
	if cmd == nil {
		t.Error("failed claim should flash")
	}
}

func TestNotificationsOpenLink(t *testing.T) {
	var opened string
	orig := openLink
	openLink = func(u string) error {
		opened = u
		return nil
	}
	t.Cleanup(func() { openLink = orig })

	m := loadedNotifications(newTestEnv(adminUser()))
	_, cmd := m.Update(key("o"))
	if cmd == nil {
		t.Fatal("expected open cmd")
	}
	cmd()
	if opened != "https://payline.app/c/1" {
		t.Errorf("opened %q", opened)
	}

	m, _ = m.Update(key("j"))
	if _, cmd := m.Update(key("o")); cmd != nil {
		t.Error("no url means nothing to open")
	}
}

func TestNotificationsHelpShowsClaim(t *testing.T) {
	m := loadedNotifications(newTestEnv(adminUser()))
	if !strings.Contains(m.helpKeys(), "claim") {
		t.Error("help should offer claim")
	}
}
