package domain

import "time"

// DashboardMetrics is the summary shown on the dashboard header.
type DashboardMetrics struct {
	TotalCommissions   float64 `json:"total_commissions"`
	PendingCommissions float64 `json:"pending_commissions"`
	ClaimableCount     int     `json:"claimable_count"`
	NetworkSize        int     `json:"network_size"`
	DirectReferrals    int     `json:"direct_referrals"`
	Currency           string  `json:"currency"`
}

// CommissionLoad is a manually loaded commission entry.
type CommissionLoad struct {
	ID        ID        `json:"id"`
	UserEmail string    `json:"user_email"`
	Amount    float64   `json:"amount"`
	Concept   string    `json:"concept"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
