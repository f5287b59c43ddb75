// Package praise implements peer recognition: giving praise, the live feed
// and the per-event leaderboard.
package praise

import (
	"context"
	"strings"

	apperr "github.com/Gather-Network/conference_layer/internal/errors"

	"github.com/Gather-Network/conference_layer/internal/app/domain/notification"
	"github.com/Gather-Network/conference_layer/internal/app/domain/praise"
	"github.com/Gather-Network/conference_layer/internal/app/metrics"
	"github.com/Gather-Network/conference_layer/internal/app/storage"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

const maxMessageLength = 500

// Service manages praise records.
type Service struct {
	praises       storage.PraiseStore
	users         storage.UserStore
	notifications storage.NotificationStore
	hub           *Hub
	metrics       *metrics.Metrics
	log           *logger.Logger
}

// New creates the praise service. hub, notifications and m may be nil.
func New(praises storage.PraiseStore, users storage.UserStore, notifications storage.NotificationStore,
	hub *Hub, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("praise")
	}
	return &Service{
		praises:       praises,
		users:         users,
		notifications: notifications,
		hub:           hub,
		metrics:       m,
		log:           log,
	}
}

// Give records praise from one user to another, notifies the recipient and
// pushes the record to live feed subscribers.
func (s *Service) Give(ctx context.Context, p praise.Praise) (praise.Praise, error) {
	p.Message = strings.TrimSpace(p.Message)
	if p.GiverID == "" || p.RecipientID == "" {
		return praise.Praise{}, apperr.Validation("giver and recipient are required")
	}
	if p.GiverID == p.RecipientID {
		return praise.Praise{}, apperr.Validation("praising yourself is not allowed")
	}
	if !p.Category.Valid() {
		return praise.Praise{}, apperr.Validation("invalid praise category")
	}
	if len(p.Message) > maxMessageLength {
		return praise.Praise{}, apperr.Validation("message is too long")
	}
	if _, err := s.users.GetUser(ctx, p.RecipientID); err != nil {
		return praise.Praise{}, apperr.NotFound("recipient not found")
	}

	created, err := s.praises.CreatePraise(ctx, p)
	if err != nil {
		return praise.Praise{}, err
	}
	if s.metrics != nil {
		s.metrics.PraiseCreated()
	}
	if s.notifications != nil {
		_, nerr := s.notifications.CreateNotification(ctx, notification.Notification{
			UserID:  created.RecipientID,
			Kind:    notification.KindPraise,
			Message: "You received praise: " + string(created.Category),
		})
		if nerr != nil {
			s.log.WithError(nerr).Warn("failed to record praise notification")
		}
	}
	if s.hub != nil {
		s.hub.Broadcast(created)
	}
	s.log.WithField("praise_id", created.ID).WithField("recipient_id", created.RecipientID).Info("praise given")
	return created, nil
}

// Feed returns praise records, newest first, optionally filtered by event
// and recipient.
func (s *Service) Feed(ctx context.Context, eventID, recipientID string) ([]praise.Praise, error) {
	return s.praises.ListPraise(ctx, eventID, recipientID)
}

// Leaderboard returns the most-praised users for an event.
func (s *Service) Leaderboard(ctx context.Context, eventID string, limit int) ([]praise.LeaderboardEntry, error) {
	return s.praises.Leaderboard(ctx, eventID, limit)
}
