package repository

import (
	"context"
	"database/sql"

	"bus-tracking-services/internal/models"
)

// SubscriptionRepository reads and writes opt-out state. A missing row means subscribed.
type SubscriptionRepository interface {
	Get(ctx context.Context, userID string, typeID int64) (*models.NotificationSubscription, error)
	ListByUser(ctx context.Context, userID string) ([]*models.NotificationSubscription, error)
	SetSubscribed(ctx context.Context, userID string, typeID int64, subscribed bool) (*models.NotificationSubscription, error)
}

type subscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

const subscriptionColumns = "id, user_id, notification_type_id, is_subscribed, created_at, updated_at"

// Get returns nil, nil when the user has no row for the type.
func (r *subscriptionRepository) Get(ctx context.Context, userID string, typeID int64) (*models.NotificationSubscription, error) {
	s, err := scanSubscription(r.db.QueryRowContext(ctx,
		"SELECT "+subscriptionColumns+" FROM notification_subscriptions WHERE user_id = $1 AND notification_type_id = $2",
		userID, typeID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*models.NotificationSubscription, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+subscriptionColumns+" FROM notification_subscriptions WHERE user_id = $1 ORDER BY notification_type_id",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.NotificationSubscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *subscriptionRepository) SetSubscribed(ctx context.Context, userID string, typeID int64, subscribed bool) (*models.NotificationSubscription, error) {
	return scanSubscription(r.db.QueryRowContext(ctx, `
		INSERT INTO notification_subscriptions (user_id, notification_type_id, is_subscribed)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, notification_type_id) DO UPDATE
		SET is_subscribed = EXCLUDED.is_subscribed, updated_at = now()
		RETURNING `+subscriptionColumns,
		userID, typeID, subscribed,
	))
}

func scanSubscription(s scanner) (*models.NotificationSubscription, error) {
	sub := &models.NotificationSubscription{}
	if err := s.Scan(&sub.ID, &sub.UserID, &sub.NotificationTypeID, &sub.IsSubscribed, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	return sub, nil
}
