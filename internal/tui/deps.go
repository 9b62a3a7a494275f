package tui

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/naveenspark/payline/internal/guard"
	"github.com/naveenspark/payline/internal/i18n"
	"github.com/naveenspark/payline/internal/notify"
	"github.com/naveenspark/payline/internal/session"
	"github.com/naveenspark/payline/pkg/client"
	"github.com/naveenspark/payline/pkg/domain"
)

// Session is the part of *session.Manager the views use.
type Session interface {
	Login(ctx context.Context, email, password string) (*session.LoginResult, error)
	Logout(ctx context.Context)
	IsAuthenticated() bool
	User() *domain.User
	AccessTokenExpiry() (time.Time, bool)
	FetchProfile(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, u client.ProfileUpdate) (*domain.User, error)
	Authorized(ctx context.Context, call func(ctx context.Context) error) error
}

// Backend is the part of *client.Client the views call directly.
type Backend interface {
	GetDashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error)
	ClaimCommissions(ctx context.Context) error
	CreateCommissionLoad(ctx context.Context, req client.CommissionLoadRequest) (*domain.CommissionLoad, error)
	SearchUsers(ctx context.Context, query string) ([]domain.UserSummary, error)
}

// Notifications is the part of *notify.Coordinator the views use.
type Notifications interface {
	FetchPage(ctx context.Context, page, pageSize int) (*domain.NotificationPage, error)
	Cached(page, pageSize int) (*domain.NotificationPage, bool)
	MarkRead(ctx context.Context, id domain.ID) error
	MarkAllRead(ctx context.Context) error
	StartClaimPoll(ctx context.Context) *notify.Poll
}

var (
	_ Session       = (*session.Manager)(nil)
	_ Backend       = (*client.Client)(nil)
	_ Notifications = (*notify.Coordinator)(nil)
)

// Deps wires the application.
type Deps struct {
	Session Session
	Backend Backend
	Notes   Notifications
	Guard   *guard.Guard
	Locale  *i18n.Locale
	Log     zerolog.Logger
	Version string
}

// resultMsg is implemented by messages carrying the outcome of an API call.
// The root model uses it to catch expired sessions in one place.
type resultMsg interface {
	result() error
}

func sessionExpired(err error) bool {
	return errors.Is(err, session.ErrSessionExpired)
}
