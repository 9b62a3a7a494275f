package domain

// Session is the client-side credential set. Each field is persisted under
// its own key, so any of them may be missing independently.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// Authenticated reports whether both an access token and a user are present.
// A missing refresh token does not matter here; it only forces a new login
// on the next 401.
func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.User != nil
}
