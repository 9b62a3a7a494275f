package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/naveenspark/payline/pkg/domain"
)

// ListNotifications fetches one page of notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context, page, pageSize int) (*domain.NotificationPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))

	var p domain.NotificationPage
	if err := c.get(ctx, "/notifications?"+params.Encode(), &p); err != nil {
		return nil, fmt.Errorf("client.ListNotifications: %w", err)
	}
	if p.UnreadCount < 0 {
		p.UnreadCount = 0
	}
	return &p, nil
}

// MarkNotificationRead marks a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	var res Result
	if err := c.patch(ctx, "/notifications/"+url.PathEscape(id)+"/read", nil, &res); err != nil {
		return fmt.Errorf("client.MarkNotificationRead: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification of the user as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	var res Result
	if err := c.patch(ctx, "/notifications/read-all", nil, &res); err != nil {
		return fmt.Errorf("client.MarkAllNotificationsRead: %w", err)
	}
	return nil
}
