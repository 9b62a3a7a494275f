package domain

import "time"

// Supported language codes for the user's preference.
const (
	LangES = "es"
	LangEN = "en"
)

// User is the authenticated account as returned by the auth and profile endpoints.
type User struct {
	ID           ID         `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Lang         string     `json:"lang,omitempty"`
	Role         string     `json:"role,omitempty"`
	ReferralCode string     `json:"referral_code,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// DisplayName returns the full name, falling back to the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// IsAdmin reports whether the user may load commissions manually.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserSummary is a row of the network user lookup.
type UserSummary struct {
	ID           ID     `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`
	Level        int    `json:"level"`
	Directs      int    `json:"directs"`
}
