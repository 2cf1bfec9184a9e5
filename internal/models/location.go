// internal/models/location.go
package models

import "time"

const (
	EntityStudent = "student"
	EntityBus     = "bus"
)

type Location struct {
	EntityID   string    `json:"entity_id"`
	EntityType string    `json:"entity_type"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Timestamp  time.Time `json:"timestamp"`
}

type LocationCreate struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type LocationFilter struct {
	EntityID   string
	EntityType string
	Skip       int
	Limit      int
}

// ValidEntityType reports whether t is a trackable entity type.
func ValidEntityType(t string) bool {
	return t == EntityStudent || t == EntityBus
}
