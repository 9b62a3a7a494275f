package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/naveenspark/payline/pkg/domain"
)

// CommissionLoadRequest is the payload for a manual commission load.
type CommissionLoadRequest struct {
	UserEmail string  `json:"user_email"`
	Amount    float64 `json:"amount"`
	Concept   string  `json:"concept"`
}

// GetDashboardMetrics returns the dashboard summary of the authenticated user.
func (c *Client) GetDashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	var m domain.DashboardMetrics
	if err := c.get(ctx, "/dashboard/metrics", &m); err != nil {
		return nil, fmt.Errorf("client.GetDashboardMetrics: %w", err)
	}
	return &m, nil
}

// ClaimCommissions starts the server-side bulk claim. Completion is signalled
// asynchronously through a new notification.
func (c *Client) ClaimCommissions(ctx context.Context) error {
	var res Result
	if err := c.post(ctx, "/commissions/claim", nil, &res); err != nil {
		return fmt.Errorf("client.ClaimCommissions: %w", err)
	}
	return nil
}

// CreateCommissionLoad loads a commission manually for a user.
func (c *Client) CreateCommissionLoad(ctx context.Context, req CommissionLoadRequest) (*domain.CommissionLoad, error) {
	var load domain.CommissionLoad
	if err := c.post(ctx, "/commissions/loads", req, &load); err != nil {
		return nil, fmt.Errorf("client.CreateCommissionLoad: %w", err)
	}
	return &load, nil
}

// SearchUsers looks up network members by email, name or referral code.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]domain.UserSummary, error) {
	params := url.Values{}
	params.Set("q", query)

	var users []domain.UserSummary
	if err := c.get(ctx, "/users/search?"+params.Encode(), &users); err != nil {
		return nil, fmt.Errorf("client.SearchUsers: %w", err)
	}
	return users, nil
}
