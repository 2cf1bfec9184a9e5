package repository

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus-tracking-services/internal/common/errors"
	"bus-tracking-services/internal/models"
)

var typeCols = []string{"id", "name", "description", "is_active", "created_at", "updated_at"}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// ==========================
// Lookups
// ==========================

func TestNotificationTypeRepository_GetByName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationTypeRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM notification_types WHERE name = \$1`).
		WithArgs("eta_update").
		WillReturnRows(sqlmock.NewRows(typeCols).AddRow(1, "eta_update", "ETA", true, now, now))
	mock.ExpectQuery(`FROM notification_types WHERE name = \$1`).
		WithArgs("promo").
		WillReturnRows(sqlmock.NewRows(typeCols).AddRow(2, "promo", nil, false, now, now))
	mock.ExpectQuery(`FROM notification_types WHERE name = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(typeCols))

	eta, err := repo.GetByName(context.Background(), "eta_update")
	require.NoError(t, err)
	assert.Equal(t, int64(1), eta.ID)
	require.NotNil(t, eta.Description)
	assert.Equal(t, "ETA", *eta.Description)

	promo, err := repo.GetByName(context.Background(), "promo")
	require.NoError(t, err)
	assert.Nil(t, promo.Description)
	assert.False(t, promo.IsActive)

	ghost, err := repo.GetByName(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, ghost)
}

func TestNotificationTypeRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationTypeRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM notification_types ORDER BY id OFFSET \$1 LIMIT \$2`).
		WithArgs(0, DefaultListLimit).
		WillReturnRows(sqlmock.NewRows(typeCols).
			AddRow(1, "eta_update", nil, true, now, now).
			AddRow(2, "promo", nil, false, now, now))
	mock.ExpectQuery(`WHERE is_active = \$1 ORDER BY id OFFSET \$2 LIMIT \$3`).
		WithArgs(true, 5, 10).
		WillReturnRows(sqlmock.NewRows(typeCols).AddRow(1, "eta_update", nil, true, now, now))

	all, err := repo.List(context.Background(), 0, 0, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := repo.List(context.Background(), 5, 10, boolPtr(true))
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

// ==========================
// Writes
// ==========================

func TestNotificationTypeRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationTypeRepository(db)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO notification_types \(name, description, is_active\) VALUES \(\$1, \$2, \$3\)`).
		WithArgs("promo", nil, true).
		WillReturnRows(sqlmock.NewRows(typeCols).AddRow(2, "promo", nil, true, now, now))

	got, err := repo.Create(context.Background(), models.NotificationTypeCreate{Name: "promo"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)
	assert.True(t, got.IsActive)
}

func TestNotificationTypeRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationTypeRepository(db)

	mock.ExpectQuery(`INSERT INTO notification_types`).
		WithArgs("eta_update", "again", false).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), models.NotificationTypeCreate{
		Name:        "eta_update",
		Description: strPtr("again"),
		IsActive:    boolPtr(false),
	})
	require.Error(t, err)

	var se *errors.StandardError
	require.True(t, stderrors.As(err, &se))
	assert.Equal(t, errors.ErrCodeDuplicateResource, se.Code)
	assert.Equal(t, "Notification type with this name already exists", se.Message)
}

func TestNotificationTypeRepository_Update(t *testing.T) {
	now := time.Now()

	t.Run("partial", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNotificationTypeRepository(db)

		mock.ExpectQuery(`UPDATE notification_types SET updated_at = now\(\), is_active = \$1 WHERE id = \$2 RETURNING`).
			WithArgs(false, int64(2)).
			WillReturnRows(sqlmock.NewRows(typeCols).AddRow(2, "promo", nil, false, now, now))

		got, err := repo.Update(context.Background(), 2, models.NotificationTypeUpdate{IsActive: boolPtr(false)})
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	})

	t.Run("all fields", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNotificationTypeRepository(db)

		mock.ExpectQuery(`SET updated_at = now\(\), name = \$1, description = \$2, is_active = \$3 WHERE id = \$4`).
			WithArgs("alerts", "all alerts", true, int64(2)).
			WillReturnRows(sqlmock.NewRows(typeCols).AddRow(2, "alerts", "all alerts", true, now, now))

		got, err := repo.Update(context.Background(), 2, models.NotificationTypeUpdate{
			Name:        strPtr("alerts"),
			Description: strPtr("all alerts"),
			IsActive:    boolPtr(true),
		})
		require.NoError(t, err)
		assert.Equal(t, "alerts", got.Name)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNotificationTypeRepository(db)

		mock.ExpectQuery(`UPDATE notification_types`).
			WithArgs("x", int64(99)).
			WillReturnRows(sqlmock.NewRows(typeCols))

		got, err := repo.Update(context.Background(), 99, models.NotificationTypeUpdate{Name: strPtr("x")})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate name", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNotificationTypeRepository(db)

		mock.ExpectQuery(`UPDATE notification_types`).
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := repo.Update(context.Background(), 2, models.NotificationTypeUpdate{Name: strPtr("eta_update")})
		assert.True(t, stderrors.Is(err, &errors.StandardError{Code: errors.ErrCodeDuplicateResource}))
	})
}

func TestNotificationTypeRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationTypeRepository(db)

	mock.ExpectExec(`DELETE FROM notification_types WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM notification_types WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestNotificationTypeRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationTypeRepository(db)
	now := time.Now()

	mock.ExpectQuery(`ON CONFLICT \(name\) DO UPDATE`).
		WithArgs("eta_update", "ETA", true).
		WillReturnRows(sqlmock.NewRows(typeCols).AddRow(1, "eta_update", "ETA", true, now, now))

	got, err := repo.Upsert(context.Background(), "eta_update", "ETA", true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
}
