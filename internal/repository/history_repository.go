package repository

import (
	"context"
	"database/sql"
	"strings"

	"bus-tracking-services/internal/models"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// HistoryRepository is the append-only notification audit store.
type HistoryRepository interface {
	Create(ctx context.Context, userID, message, status string) (*models.NotificationHistory, error)
	Get(ctx context.Context, id int64) (*models.NotificationHistory, error)
	ListByUser(ctx context.Context, userID string) ([]*models.NotificationHistory, error)
	List(ctx context.Context, filter models.HistoryFilter) ([]*models.NotificationHistory, error)
}

type historyRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepository{db: db}
}

const historyColumns = "id, user_id, message, status, timestamp"

func (r *historyRepository) Create(ctx context.Context, userID, message, status string) (*models.NotificationHistory, error) {
	h := &models.NotificationHistory{UserID: userID, Message: message, Status: status}
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO notification_history (user_id, message, status) VALUES ($1, $2, $3) RETURNING id, timestamp",
		userID, message, status,
	).Scan(&h.ID, &h.Timestamp)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Get returns nil, nil when no record has the id.
func (r *historyRepository) Get(ctx context.Context, id int64) (*models.NotificationHistory, error) {
	h, err := scanHistory(r.db.QueryRowContext(ctx,
		"SELECT "+historyColumns+" FROM notification_history WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return h, err
}

func (r *historyRepository) ListByUser(ctx context.Context, userID string) ([]*models.NotificationHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+historyColumns+" FROM notification_history WHERE user_id = $1 ORDER BY timestamp DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHistory(rows)
}

func (r *historyRepository) List(ctx context.Context, filter models.HistoryFilter) ([]*models.NotificationHistory, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, "status = $1")
	}

	query := "SELECT " + historyColumns + " FROM notification_history"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC" + paginate(&args, filter.Skip, filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHistory(rows)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanHistory(s scanner) (*models.NotificationHistory, error) {
	h := &models.NotificationHistory{}
	if err := s.Scan(&h.ID, &h.UserID, &h.Message, &h.Status, &h.Timestamp); err != nil {
		return nil, err
	}
	return h, nil
}

func collectHistory(rows *sql.Rows) ([]*models.NotificationHistory, error) {
	out := []*models.NotificationHistory{}
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
