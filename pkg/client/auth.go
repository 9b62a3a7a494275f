package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// ProfileUpdate is the partial profile payload. Nil fields are left untouched.
type ProfileUpdate struct {
	Lang     *string `json:"lang,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// Login posts credentials. The response envelope varies across backend
// versions, so the raw body is returned for normalization.
func (c *Client) Login(ctx context.Context, email, password string) (json.RawMessage, error) {
	var raw json.RawMessage
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/auth/login", body, &raw); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return raw, nil
}

// RefreshToken exchanges a refresh token for a new token pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (json.RawMessage, error) {
	var raw json.RawMessage
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.post(ctx, "/auth/refresh-token", body, &raw); err != nil {
		return nil, fmt.Errorf("client.RefreshToken: %w", err)
	}
	return raw, nil
}

// Logout tells the server to end the session of the current bearer token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.post(ctx, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// GetProfile returns the raw profile of the authenticated user.
func (c *Client) GetProfile(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/users/profile", &raw); err != nil {
		return nil, fmt.Errorf("client.GetProfile: %w", err)
	}
	return raw, nil
}

// UpdateProfile sends a partial profile update and returns the raw updated user.
func (c *Client) UpdateProfile(ctx context.Context, u ProfileUpdate) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.patch(ctx, "/users/profile", u, &raw); err != nil {
		return nil, fmt.Errorf("client.UpdateProfile: %w", err)
	}
	return raw, nil
}
