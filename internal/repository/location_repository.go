package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bus-tracking-services/internal/models"
)

type LocationRepository interface {
	Create(ctx context.Context, entityID, entityType string, lat, lon float64) (*models.Location, error)
	Latest(ctx context.Context, entityID string) (*models.Location, error)
	List(ctx context.Context, filter models.LocationFilter) ([]*models.Location, error)
}

type locationRepository struct {
	db *sql.DB
}

func NewLocationRepository(db *sql.DB) LocationRepository {
	return &locationRepository{db: db}
}

// Points are stored as SRID 4326 geometry; MakePoint takes longitude first.
const locationColumns = "entity_id, entity_type, ST_Y(coordinates::geometry), ST_X(coordinates::geometry), timestamp"

func (r *locationRepository) Create(ctx context.Context, entityID, entityType string, lat, lon float64) (*models.Location, error) {
	return scanLocation(r.db.QueryRowContext(ctx, `
		INSERT INTO locations (entity_id, entity_type, coordinates)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326))
		RETURNING `+locationColumns,
		entityID, entityType, lon, lat,
	))
}

// Latest returns the newest fix for the entity, or nil, nil when none exists.
func (r *locationRepository) Latest(ctx context.Context, entityID string) (*models.Location, error) {
	loc, err := scanLocation(r.db.QueryRowContext(ctx,
		"SELECT "+locationColumns+" FROM locations WHERE entity_id = $1 ORDER BY timestamp DESC, id DESC LIMIT 1",
		entityID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return loc, err
}

func (r *locationRepository) List(ctx context.Context, filter models.LocationFilter) ([]*models.Location, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		where = append(where, fmt.Sprintf("entity_id = $%d", len(args)))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		where = append(where, fmt.Sprintf("entity_type = $%d", len(args)))
	}

	query := "SELECT " + locationColumns + " FROM locations"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC" + paginate(&args, filter.Skip, filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.Location{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func scanLocation(s scanner) (*models.Location, error) {
	loc := &models.Location{}
	if err := s.Scan(&loc.EntityID, &loc.EntityType, &loc.Latitude, &loc.Longitude, &loc.Timestamp); err != nil {
		return nil, err
	}
	return loc, nil
}
