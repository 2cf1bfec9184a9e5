package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bus-tracking-services/internal/common/database"
	"bus-tracking-services/internal/common/errors"
	"bus-tracking-services/internal/models"
)

const duplicateTypeMessage = "Notification type with this name already exists"

type NotificationTypeRepository interface {
	Get(ctx context.Context, id int64) (*models.NotificationType, error)
	GetByName(ctx context.Context, name string) (*models.NotificationType, error)
	List(ctx context.Context, skip, limit int, isActive *bool) ([]*models.NotificationType, error)
	Create(ctx context.Context, in models.NotificationTypeCreate) (*models.NotificationType, error)
	Update(ctx context.Context, id int64, in models.NotificationTypeUpdate) (*models.NotificationType, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Upsert(ctx context.Context, name, description string, isActive bool) (*models.NotificationType, error)
}

type notificationTypeRepository struct {
	db *sql.DB
}

func NewNotificationTypeRepository(db *sql.DB) NotificationTypeRepository {
	return &notificationTypeRepository{db: db}
}

const typeColumns = "id, name, description, is_active, created_at, updated_at"

func (r *notificationTypeRepository) Get(ctx context.Context, id int64) (*models.NotificationType, error) {
	return r.getOne(ctx, "SELECT "+typeColumns+" FROM notification_types WHERE id = $1", id)
}

func (r *notificationTypeRepository) GetByName(ctx context.Context, name string) (*models.NotificationType, error) {
	return r.getOne(ctx, "SELECT "+typeColumns+" FROM notification_types WHERE name = $1", name)
}

func (r *notificationTypeRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.NotificationType, error) {
	t, err := scanType(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *notificationTypeRepository) List(ctx context.Context, skip, limit int, isActive *bool) ([]*models.NotificationType, error) {
	var args []interface{}
	query := "SELECT " + typeColumns + " FROM notification_types"
	if isActive != nil {
		args = append(args, *isActive)
		query += " WHERE is_active = $1"
	}
	query += " ORDER BY id" + paginate(&args, skip, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.NotificationType{}
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *notificationTypeRepository) Create(ctx context.Context, in models.NotificationTypeCreate) (*models.NotificationType, error) {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	t, err := scanType(r.db.QueryRowContext(ctx,
		"INSERT INTO notification_types (name, description, is_active) VALUES ($1, $2, $3) RETURNING "+typeColumns,
		in.Name, in.Description, active,
	))
	if database.IsUniqueViolation(err) {
		return nil, errors.NewDuplicateResourceError(duplicateTypeMessage, "name: "+in.Name)
	}
	return t, err
}

// Update changes only the fields set in in. It returns nil, nil for an unknown id.
func (r *notificationTypeRepository) Update(ctx context.Context, id int64, in models.NotificationTypeUpdate) (*models.NotificationType, error) {
	sets := []string{"updated_at = now()"}
	var args []interface{}
	if in.Name != nil {
		args = append(args, *in.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if in.Description != nil {
		args = append(args, *in.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if in.IsActive != nil {
		args = append(args, *in.IsActive)
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE notification_types SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), typeColumns)

	t, err := scanType(r.db.QueryRowContext(ctx, query, args...))
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case database.IsUniqueViolation(err):
		return nil, errors.NewDuplicateResourceError(duplicateTypeMessage, fmt.Sprintf("id: %d", id))
	}
	return t, err
}

func (r *notificationTypeRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM notification_types WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Upsert creates or refreshes a type by name; used when seeding from a registry file.
func (r *notificationTypeRepository) Upsert(ctx context.Context, name, description string, isActive bool) (*models.NotificationType, error) {
	return scanType(r.db.QueryRowContext(ctx, `
		INSERT INTO notification_types (name, description, is_active)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description, is_active = EXCLUDED.is_active, updated_at = now()
		RETURNING `+typeColumns,
		name, description, isActive,
	))
}

func scanType(s scanner) (*models.NotificationType, error) {
	t := &models.NotificationType{}
	var description sql.NullString
	if err := s.Scan(&t.ID, &t.Name, &description, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	return t, nil
}
