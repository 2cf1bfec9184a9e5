// internal/models/notification.go
package models

import "time"

// Audit record statuses.
const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusPending = "pending"
)

type NotificationHistory struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type NotificationType struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type NotificationTypeCreate struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// NotificationTypeUpdate carries only the fields to change.
type NotificationTypeUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type NotificationSubscription struct {
	ID                 int64     `json:"id"`
	UserID             string    `json:"user_id"`
	NotificationTypeID int64     `json:"notification_type_id"`
	IsSubscribed       bool      `json:"is_subscribed"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type SubscriptionRequest struct {
	UserID             FlexibleID `json:"user_id"`
	NotificationTypeID int64      `json:"notification_type_id"`
}

type SendNotificationRequest struct {
	UserIDs            []FlexibleID `json:"user_ids"`
	NotificationTypeID int64        `json:"notification_type_id"`
	Title              string       `json:"title"`
	Body               string       `json:"body"`
}

type SendNotificationResponse struct {
	Success         bool    `json:"success"`
	Message         string  `json:"message"`
	NotificationIDs []int64 `json:"notification_ids"`
}

// HistoryFilter selects audit records for listing.
type HistoryFilter struct {
	Status string
	Skip   int
	Limit  int
}

// HistorySearch is a full text query over the mirrored history index.
type HistorySearch struct {
	Query  string
	UserID string
	Status string
	Limit  int
}
