// Package session owns login, logout, token refresh and the language
// preference derived from server responses. It is the only writer of the
// token store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/naveenspark/payline/internal/i18n"
	"github.com/naveenspark/payline/internal/store"
	"github.com/naveenspark/payline/pkg/client"
	"github.com/naveenspark/payline/pkg/domain"
)

var (
	// ErrNoRefreshToken means a refresh was asked for with no stored refresh
	// token. No request is made; the only way forward is a new login.
	ErrNoRefreshToken = errors.New("no refresh token stored")
	// ErrSessionExpired is returned by Authorized when a 401 could not be
	// recovered by a refresh and the session was cleared.
	ErrSessionExpired = errors.New("session expired")
)

// DefaultLogoutTimeout bounds the background server-side logout call.
const DefaultLogoutTimeout = 5 * time.Second

// Status is the lifecycle state of the session.
type Status int

const (
	StatusAnonymous Status = iota
	StatusAuthenticating
	StatusAuthenticated
	StatusRefreshing
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// API is the part of the REST client the manager needs.
type API interface {
	Login(ctx context.Context, email, password string) (json.RawMessage, error)
	RefreshToken(ctx context.Context, refreshToken string) (json.RawMessage, error)
	Logout(ctx context.Context) error
	GetProfile(ctx context.Context) (json.RawMessage, error)
	UpdateProfile(ctx context.Context, u client.ProfileUpdate) (json.RawMessage, error)
}

// Manager drives the session state machine:
//
//	anonymous -> authenticating -> authenticated
//	authenticated -> refreshing -> authenticated
//	any -> anonymous (logout, or a 401 that a refresh could not fix)
//
// Login, Refresh and Logout do not exclude each other. When they overlap the
// last write to the store wins.
type Manager struct {
	api           API
	tokens        *store.TokenStore
	locale        *i18n.Locale
	log           zerolog.Logger
	logoutTimeout time.Duration

	mu     sync.Mutex
	status Status

	refreshes singleflight.Group
	bg        sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithLogoutTimeout bounds the background logout request.
func WithLogoutTimeout(d time.Duration) Option {
	return func(m *Manager) { m.logoutTimeout = d }
}

// New creates a Manager. A session already persisted in tokens starts
// authenticated, and its locale is restored. From then on every language
// change is persisted to tokens.
func New(api API, tokens *store.TokenStore, locale *i18n.Locale, opts ...Option) *Manager {
	m := &Manager{
		api:           api,
		tokens:        tokens,
		locale:        locale,
		log:           zerolog.Nop(),
		logoutTimeout: DefaultLogoutTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if code := tokens.Locale(); code != "" {
		locale.Apply(code)
	}
	locale.OnChange(tokens.SetLocale)
	m.settle()
	return m
}

// Status returns the current lifecycle state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	prev := m.status
	m.status = s
	m.mu.Unlock()
	if prev != s {
		m.log.Debug().Stringer("from", prev).Stringer("to", s).Msg("session status")
	}
}

// settle derives the resting status from what the store holds.
func (m *Manager) settle() {
	if m.IsAuthenticated() {
		m.setStatus(StatusAuthenticated)
		return
	}
	m.setStatus(StatusAnonymous)
}

// IsAuthenticated is true iff both an access token and a user are stored.
func (m *Manager) IsAuthenticated() bool {
	return m.tokens.Session().Authenticated()
}

// User returns the stored user record, or nil.
func (m *Manager) User() *domain.User {
	return m.tokens.User()
}

// Locale returns the active locale.
func (m *Manager) Locale() *i18n.Locale {
	return m.locale
}

// applyLang switches the active locale when code is supported. Empty or
// unsupported codes are ignored.
func (m *Manager) applyLang(code string) {
	if code == "" {
		return
	}
	if !m.locale.Apply(code) {
		m.log.Debug().Str("lang", code).Msg("ignoring unsupported language")
	}
}

// Login authenticates with email and password. The email is trimmed and
// lowercased. Nothing is stored unless the whole response normalizes.
func (m *Manager) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	m.setStatus(StatusAuthenticating)

	raw, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.settle()
		return nil, fmt.Errorf("session.Login: %w", err)
	}
	res, err := NormalizeLogin(raw)
	if err != nil {
		m.settle()
		return nil, fmt.Errorf("session.Login: %w", err)
	}

	m.tokens.SetSession(domain.Session{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	})
	m.applyLang(res.Lang)
	m.setStatus(StatusAuthenticated)
	m.log.Info().Str("user_id", res.User.ID.String()).Str("shape", string(res.Shape)).Msg("logged in")
	return res, nil
}

// Refresh exchanges the stored refresh token for a new pair. A failure
// leaves the stored session untouched; the caller decides whether to log out.
func (m *Manager) Refresh(ctx context.Context) (*TokenPair, error) {
	refresh := m.tokens.RefreshToken()
	if refresh == "" {
		return nil, fmt.Errorf("session.Refresh: %w", ErrNoRefreshToken)
	}
	m.setStatus(StatusRefreshing)

	raw, err := m.api.RefreshToken(ctx, refresh)
	if err != nil {
		m.settle()
		return nil, fmt.Errorf("session.Refresh: %w", err)
	}
	pair, err := NormalizeRefresh(raw)
	if err != nil {
		m.settle()
		return nil, fmt.Errorf("session.Refresh: %w", err)
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = refresh
	}

	m.tokens.SetAccessToken(pair.AccessToken)
	m.tokens.SetRefreshToken(pair.RefreshToken)
	m.applyLang(pair.Lang)
	m.settle()
	m.log.Debug().Str("shape", string(pair.Shape)).Msg("tokens refreshed")
	return pair, nil
}

// Logout clears the local session at once. The server is told in the
// background with the token that was current; its answer is only logged.
func (m *Manager) Logout(ctx context.Context) {
	tok := m.tokens.AccessToken()
	m.tokens.Clear()
	m.setStatus(StatusAnonymous)
	m.log.Info().Msg("logged out")
	if tok == "" {
		return
	}

	m.bg.Add(1)
	go func() {
		defer m.bg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.logoutTimeout)
		defer cancel()
		if err := m.api.Logout(client.WithToken(ctx, tok)); err != nil {
			m.log.Warn().Err(err).Msg("server logout failed")
		}
	}()
}

// Wait blocks until background logout calls have finished.
func (m *Manager) Wait() {
	m.bg.Wait()
}

// FetchProfile reloads the user record from the server.
func (m *Manager) FetchProfile(ctx context.Context) (*domain.User, error) {
	raw, err := m.api.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("session.FetchProfile: %w", err)
	}
	user, _, err := NormalizeUser(raw)
	if err != nil {
		return nil, fmt.Errorf("session.FetchProfile: %w", err)
	}
	m.tokens.SetUser(user)
	m.applyLang(user.Lang)
	return user, nil
}

// UpdateProfile sends a partial update and stores the updated user. The
// language is re-applied when the update changed it.
func (m *Manager) UpdateProfile(ctx context.Context, u client.ProfileUpdate) (*domain.User, error) {
	raw, err := m.api.UpdateProfile(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("session.UpdateProfile: %w", err)
	}
	user, _, err := NormalizeUser(raw)
	if err != nil {
		return nil, fmt.Errorf("session.UpdateProfile: %w", err)
	}
	m.tokens.SetUser(user)
	if u.Lang != nil {
		lang := user.Lang
		if lang == "" {
			lang = *u.Lang
		}
		m.applyLang(lang)
	}
	return user, nil
}

// AccessTokenExpiry reads the exp claim of the stored access token. The
// signature is not checked; the value is only used for display.
func (m *Manager) AccessTokenExpiry() (time.Time, bool) {
	tok := m.tokens.AccessToken()
	if tok == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Authorized runs call and, if it was rejected with 401, refreshes the tokens
// once and replays it once. Concurrent callers hitting 401 together share a
// single refresh. When the refresh is impossible or rejected the session is
// cleared and ErrSessionExpired is returned; a network failure during the
// refresh is returned as is and keeps the session.
func (m *Manager) Authorized(ctx context.Context, call func(ctx context.Context) error) error {
	err := call(ctx)
	if !client.IsStatus(err, http.StatusUnauthorized) {
		return err
	}

	_, rerr, _ := m.refreshes.Do("refresh", func() (any, error) {
		return m.Refresh(ctx)
	})
	if rerr != nil {
		if client.IsNetwork(rerr) {
			return rerr
		}
		m.log.Info().Err(rerr).Int("status", client.StatusOf(rerr)).Msg("refresh failed, clearing session")
		m.Logout(ctx)
		return fmt.Errorf("%w: %w", ErrSessionExpired, rerr)
	}
	return call(ctx)
}
