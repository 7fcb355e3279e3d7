package api

import (
	"context"
	"net/http"

	"library-client/internal/domain"
)

// ListNotifications returns the session user's notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context) ([]*domain.Notification, error) {
	var ns []*domain.Notification
	err := c.do(ctx, request{method: http.MethodGet, path: "notifications/", endpoint: "notifications"}, &ns)
	if err != nil {
		return nil, err
	}
	return ns, nil
}

// MarkAllNotificationsRead flags every unread notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		path:     "notifications/mark_all_read/",
		endpoint: "notifications_mark_read",
	}, nil)
}
