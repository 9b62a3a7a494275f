package domain

import "time"

// NotificationType tags how a notification is presented.
type NotificationType string

// Notification types.
const (
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
)

// Notification is a single server-side notification. It moves from unread to
// read and is never deleted by the client.
type Notification struct {
	ID        ID               `json:"id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
}

// MetadataString returns metadata[key] when it is a string.
func (n Notification) MetadataString(key string) string {
	if n.Metadata == nil {
		return ""
	}
	s, _ := n.Metadata[key].(string)
	return s
}

// NotificationPage is one page of notifications, newest first.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

// PageKey identifies a cached notification page.
type PageKey struct {
	Page     int
	PageSize int
}
