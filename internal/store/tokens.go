package store

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/naveenspark/payline/pkg/domain"
)

// Persisted keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
	KeyLocale       = "locale"
)

// TokenStore is the single source of truth for credentials. Reads go to the
// backend every time, so a write is visible to the next request at once.
// Backend failures are logged and read as "absent".
type TokenStore struct {
	mu  sync.Mutex
	kv  KV
	log zerolog.Logger
}

// NewTokenStore wraps kv.
func NewTokenStore(kv KV, log zerolog.Logger) *TokenStore {
	return &TokenStore{kv: kv, log: log}
}

func (s *TokenStore) get(key string) string {
	v, ok, err := s.kv.Get(key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("read persisted entry")
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

// put stores value, or deletes the key when value is empty.
func (s *TokenStore) put(key, value string) {
	var err error
	if value == "" {
		err = s.kv.Delete(key)
	} else {
		err = s.kv.Set(key, value)
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("write persisted entry")
	}
}

// AccessToken returns the stored access token or "".
func (s *TokenStore) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.TrimSpace(s.get(KeyAccessToken))
}

// SetAccessToken stores tok; "" clears it.
func (s *TokenStore) SetAccessToken(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(KeyAccessToken, tok)
}

// RefreshToken returns the stored refresh token or "".
func (s *TokenStore) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.TrimSpace(s.get(KeyRefreshToken))
}

// SetRefreshToken stores tok; "" clears it.
func (s *TokenStore) SetRefreshToken(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(KeyRefreshToken, tok)
}

// User returns the stored user. A corrupt entry reads as no user.
func (s *TokenStore) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user()
}

func (s *TokenStore) user() *domain.User {
	raw := s.get(KeyUser)
	if raw == "" {
		return nil
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable persisted user")
		return nil
	}
	return &u
}

// SetUser stores u; nil clears it.
func (s *TokenStore) SetUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setUser(u)
}

func (s *TokenStore) setUser(u *domain.User) {
	if u == nil {
		s.put(KeyUser, "")
		return
	}
	data, err := json.Marshal(u)
	if err != nil {
		s.log.Error().Err(err).Msg("encode user")
		return
	}
	s.put(KeyUser, string(data))
}

// Locale returns the persisted locale code or "".
func (s *TokenStore) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(KeyLocale)
}

// SetLocale persists the locale code.
func (s *TokenStore) SetLocale(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(KeyLocale, code)
}

// Session returns all three credential entries read under one lock.
func (s *TokenStore) Session() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Session{
		AccessToken:  strings.TrimSpace(s.get(KeyAccessToken)),
		RefreshToken: strings.TrimSpace(s.get(KeyRefreshToken)),
		User:         s.user(),
	}
}

// SetSession writes access token, refresh token and user as one unit.
func (s *TokenStore) SetSession(sess domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(KeyAccessToken, sess.AccessToken)
	s.put(KeyRefreshToken, sess.RefreshToken)
	s.setUser(sess.User)
}

// Clear removes the credentials. The locale is kept.
func (s *TokenStore) Clear() {
	s.SetSession(domain.Session{})
}
