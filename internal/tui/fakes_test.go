package tui

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/naveenspark/payline/internal/guard"
	"github.com/naveenspark/payline/internal/i18n"
	"github.com/naveenspark/payline/internal/notify"
	"github.com/naveenspark/payline/internal/session"
	"github.com/naveenspark/payline/pkg/client"
	"github.com/naveenspark/payline/pkg/domain"
)

type fakeSession struct {
	mu          sync.Mutex
	user        *domain.User
	loc         *i18n.Locale
	expiry      time.Time
	loginErr    error
	authErr     error
	logins      []string
	logoutCalls int
	updates     []client.ProfileUpdate
}

func (f *fakeSession) Login(ctx context.Context, email, password string) (*session.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, email+":"+password)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.user = &domain.User{ID: "1", Email: email}
	return &session.LoginResult{AccessToken: "acc", User: f.user}, nil
}

func (f *fakeSession) Logout(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	f.user = nil
}

func (f *fakeSession) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user != nil
}

func (f *fakeSession) User() *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

func (f *fakeSession) AccessTokenExpiry() (time.Time, bool) {
	return f.expiry, !f.expiry.IsZero()
}

func (f *fakeSession) FetchProfile(ctx context.Context) (*domain.User, error) {
	return f.User(), nil
}

func (f *fakeSession) UpdateProfile(ctx context.Context, u client.ProfileUpdate) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	next := *f.user
	if u.Lang != nil {
		next.Lang = *u.Lang
		f.loc.Apply(*u.Lang)
	}
	f.user = &next
	return &next, nil
}

func (f *fakeSession) Authorized(ctx context.Context, call func(ctx context.Context) error) error {
	if f.authErr != nil {
		return f.authErr
	}
	return call(ctx)
}

type fakeBackend struct {
	mu       sync.Mutex
	metrics  *domain.DashboardMetrics
	users    []domain.UserSummary
	err      error
	searches []string
	claims   int
	loads    []client.CommissionLoadRequest
}

func (f *fakeBackend) GetDashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	return f.metrics, f.err
}

func (f *fakeBackend) ClaimCommissions(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims++
	return f.err
}

func (f *fakeBackend) CreateCommissionLoad(ctx context.Context, req client.CommissionLoadRequest) (*domain.CommissionLoad, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, req)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.CommissionLoad{ID: "l1", UserEmail: req.UserEmail, Amount: req.Amount, Concept: req.Concept}, nil
}

func (f *fakeBackend) SearchUsers(ctx context.Context, query string) ([]domain.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	return f.users, f.err
}

func (f *fakeBackend) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

// pollFetcher reports unread notifications on every tick, so claim polls
// started in tests complete on their first tick.
type pollFetcher struct{}

func (pollFetcher) ListNotifications(ctx context.Context, page, pageSize int) (*domain.NotificationPage, error) {
	return &domain.NotificationPage{UnreadCount: 1}, nil
}
func (pollFetcher) MarkNotificationRead(ctx context.Context, id string) error { return nil }
func (pollFetcher) MarkAllNotificationsRead(ctx context.Context) error          { return nil }

// idleFetcher never reports unread notifications, so claim polls over it
// run until stopped or until their ceiling.
type idleFetcher struct{ pollFetcher }

func (idleFetcher) ListNotifications(ctx context.Context, page, pageSize int) (*domain.NotificationPage, error) {
	return &domain.NotificationPage{}, nil
}

type fakeNotes struct {
	mu     sync.Mutex
	page   *domain.NotificationPage
	cached bool
	marked []domain.ID
	all    int
	poller *notify.Coordinator
}

func newFakeNotes(page *domain.NotificationPage) *fakeNotes {
	return &fakeNotes{
		page:   page,
		poller: notify.New(pollFetcher{}, notify.WithPollInterval(5*time.Millisecond), notify.WithPollCeiling(time.Second)),
	}
}

func (f *fakeNotes) FetchPage(ctx context.Context, page, pageSize int) (*domain.NotificationPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cached = true
	return f.page, nil
}

func (f *fakeNotes) Cached(page, pageSize int) (*domain.NotificationPage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.cached || f.page == nil {
		return nil, false
	}
	return f.page, true
}

func (f *fakeNotes) MarkRead(ctx context.Context, id domain.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	f.cached = false
	return nil
}

func (f *fakeNotes) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.all++
	f.cached = false
	return nil
}

func (f *fakeNotes) StartClaimPoll(ctx context.Context) *notify.Poll {
	return f.poller.StartClaimPoll(ctx)
}

type testEnv struct {
	sess    *fakeSession
	backend *fakeBackend
	notes   *fakeNotes
	loc     *i18n.Locale
}

// newTestEnv builds fakes around user (nil for anonymous) with an English locale.
func newTestEnv(user *domain.User) *testEnv {
	loc := i18n.NewLocale("en")
	return &testEnv{
		sess:    &fakeSession{user: user, loc: loc},
		backend: &fakeBackend{},
		notes:   newFakeNotes(&domain.NotificationPage{}),
		loc:     loc,
	}
}

func (e *testEnv) deps(disabled map[string]bool) Deps {
	return Deps{
		Session: e.sess,
		Backend: e.backend,
		Notes:   e.notes,
		Guard:   guard.New(e.sess, disabled),
		Locale:  e.loc,
		Log:     zerolog.Nop(),
		Version: "test",
	}
}

func adminUser() *domain.User {
	return &domain.User{ID: "1", Email: "admin@example.com", FullName: "Ada Admin", Role: domain.RoleAdmin, ReferralCode: "ADA001"}
}

func partnerUser() *domain.User {
	return &domain.User{ID: "2", Email: "pat@example.com", FullName: "Pat Partner", Role: domain.RolePartner, ReferralCode: "PAT002"}
}
