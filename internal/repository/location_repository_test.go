package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus-tracking-services/internal/models"
)

var locationCols = []string{"entity_id", "entity_type", "st_y", "st_x", "timestamp"}

func TestLocationRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLocationRepository(db)
	now := time.Now()

	// longitude is bound before latitude for ST_MakePoint
	mock.ExpectQuery(`VALUES \(\$1, \$2, ST_SetSRID\(ST_MakePoint\(\$3, \$4\), 4326\)\)`).
		WithArgs("42", "student", 77.59, 12.97).
		WillReturnRows(sqlmock.NewRows(locationCols).AddRow("42", "student", 12.97, 77.59, now))

	loc, err := repo.Create(context.Background(), "42", "student", 12.97, 77.59)
	require.NoError(t, err)
	assert.Equal(t, 12.97, loc.Latitude)
	assert.Equal(t, 77.59, loc.Longitude)
}

func TestLocationRepository_Latest(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLocationRepository(db)

	mock.ExpectQuery(`WHERE entity_id = \$1 ORDER BY timestamp DESC, id DESC LIMIT 1`).
		WithArgs("bus-7").
		WillReturnRows(sqlmock.NewRows(locationCols).AddRow("bus-7", "bus", 1.5, 2.5, time.Now()))
	mock.ExpectQuery(`WHERE entity_id = \$1`).
		WithArgs("bus-8").
		WillReturnRows(sqlmock.NewRows(locationCols))

	loc, err := repo.Latest(context.Background(), "bus-7")
	require.NoError(t, err)
	assert.Equal(t, "bus", loc.EntityType)

	none, err := repo.Latest(context.Background(), "bus-8")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestLocationRepository_List(t *testing.T) {
	tests := []struct {
		name   string
		filter models.LocationFilter
		query  string
		args   []driver.Value
	}{
		{"no filters", models.LocationFilter{}, `FROM locations ORDER BY timestamp DESC, id DESC OFFSET \$1 LIMIT \$2`, []driver.Value{0, DefaultListLimit}},
		{"entity id", models.LocationFilter{EntityID: "42"}, `WHERE entity_id = \$1 ORDER BY`, []driver.Value{"42", 0, DefaultListLimit}},
		{"both", models.LocationFilter{EntityID: "42", EntityType: "student", Skip: 2, Limit: 3}, `WHERE entity_id = \$1 AND entity_type = \$2 ORDER BY timestamp DESC, id DESC OFFSET \$3 LIMIT \$4`, []driver.Value{"42", "student", 2, 3}},
		{"type only", models.LocationFilter{EntityType: "bus"}, `WHERE entity_type = \$1`, []driver.Value{"bus", 0, DefaultListLimit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewLocationRepository(db)

			mock.ExpectQuery(tt.query).
				WithArgs(tt.args...).
				WillReturnRows(sqlmock.NewRows(locationCols))

			got, err := repo.List(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}
