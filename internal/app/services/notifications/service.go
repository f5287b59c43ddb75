// Package notifications serves each user's notification feed.
package notifications

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperr "github.com/Gather-Network/conference_layer/internal/errors"

	"github.com/Gather-Network/conference_layer/internal/app/domain/notification"
	"github.com/Gather-Network/conference_layer/internal/app/storage"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

// Service reads and updates user notifications.
type Service struct {
	notifications storage.NotificationStore
	log           *logger.Logger
	now           func() time.Time
}

// New creates the notifications service.
func New(notifications storage.NotificationStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("notifications")
	}
	return &Service{notifications: notifications, log: log, now: time.Now}
}

// List returns a user's notifications, newest first. Time-limited banners
// that have lapsed are filtered out.
func (s *Service) List(ctx context.Context, userID string) ([]notification.Notification, error) {
	all, err := s.notifications.ListNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	active := make([]notification.Notification, 0, len(all))
	for _, n := range all {
		if n.Expired(now) {
			continue
		}
		active = append(active, n)
	}
	return active, nil
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	err := s.notifications.MarkNotificationRead(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("notification not found")
	}
	return err
}
