// Package guard decides whether a navigation may proceed.
package guard

import "github.com/naveenspark/payline/pkg/domain"

// Route names.
const (
	RouteLogin         = "login"
	RouteDashboard     = "dashboard"
	RouteNotifications = "notifications"
	RouteLoads         = "loads"
	RouteNetwork       = "network"
	RouteProfile       = "profile"
)

// Messages attached to redirects. They are catalog keys.
const (
	MsgFeatureUnavailable = "feature unavailable"
	MsgNotPermitted       = "not permitted"
)

// SessionReader is what the guard needs from the session manager.
type SessionReader interface {
	IsAuthenticated() bool
	User() *domain.User
}

// Route describes a destination and its requirements.
type Route struct {
	Name string
	// Feature, when set, must not be disabled.
	Feature string
	// Allow, when set, must accept the user.
	Allow func(*domain.User) bool
	// DeniedMessage replaces MsgNotPermitted when Allow rejects.
	DeniedMessage string
	// Public routes skip every check.
	Public bool
}

// Decision is the outcome of Check.
type Decision struct {
	Allowed  bool
	Redirect string
	Message  string
}

// Guard evaluates routes against the current session. It keeps no state.
type Guard struct {
	sess     SessionReader
	disabled map[string]bool
}

// New creates a Guard. disabled lists feature names that are switched off.
func New(sess SessionReader, disabled map[string]bool) *Guard {
	d := make(map[string]bool, len(disabled))
	for k, v := range disabled {
		if v {
			d[k] = true
		}
	}
	return &Guard{sess: sess, disabled: d}
}

// FeatureEnabled reports whether name is not disabled.
func (g *Guard) FeatureEnabled(name string) bool {
	return !g.disabled[name]
}

// Check evaluates r in order: authentication, feature flag, user predicate.
func (g *Guard) Check(r Route) Decision {
	if r.Public {
		return Decision{Allowed: true}
	}
	if !g.sess.IsAuthenticated() {
		return Decision{Redirect: RouteLogin}
	}
	if r.Feature != "" && g.disabled[r.Feature] {
		return Decision{Redirect: RouteDashboard, Message: MsgFeatureUnavailable}
	}
	if r.Allow != nil && !r.Allow(g.sess.User()) {
		msg := r.DeniedMessage
		if msg == "" {
			msg = MsgNotPermitted
		}
		return Decision{Redirect: RouteDashboard, Message: msg}
	}
	return Decision{Allowed: true}
}
