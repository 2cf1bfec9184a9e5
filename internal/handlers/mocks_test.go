package handlers

import (
	"context"

	"bus-tracking-services/internal/models"
)

// ==========================
// Mock repositories
// ==========================

type mockHistory struct {
	GetFunc        func(ctx context.Context, id int64) (*models.NotificationHistory, error)
	ListByUserFunc func(ctx context.Context, userID string) ([]*models.NotificationHistory, error)
	ListFunc       func(ctx context.Context, filter models.HistoryFilter) ([]*models.NotificationHistory, error)
}

func (m *mockHistory) Create(context.Context, string, string, string) (*models.NotificationHistory, error) {
	panic("history writes go through the recorder")
}

func (m *mockHistory) Get(ctx context.Context, id int64) (*models.NotificationHistory, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockHistory) ListByUser(ctx context.Context, userID string) ([]*models.NotificationHistory, error) {
	return m.ListByUserFunc(ctx, userID)
}

func (m *mockHistory) List(ctx context.Context, filter models.HistoryFilter) ([]*models.NotificationHistory, error) {
	return m.ListFunc(ctx, filter)
}

type mockIndex struct {
	SearchFunc func(ctx context.Context, q models.HistorySearch) ([]*models.NotificationHistory, int64, error)
}

func (m *mockIndex) Index(context.Context, *models.NotificationHistory) error { return nil }

func (m *mockIndex) Search(ctx context.Context, q models.HistorySearch) ([]*models.NotificationHistory, int64, error) {
	return m.SearchFunc(ctx, q)
}

type mockTypes struct {
	GetFunc    func(ctx context.Context, id int64) (*models.NotificationType, error)
	ListFunc   func(ctx context.Context, skip, limit int, isActive *bool) ([]*models.NotificationType, error)
	CreateFunc func(ctx context.Context, in models.NotificationTypeCreate) (*models.NotificationType, error)
	UpdateFunc func(ctx context.Context, id int64, in models.NotificationTypeUpdate) (*models.NotificationType, error)
	DeleteFunc func(ctx context.Context, id int64) (bool, error)
}

func (m *mockTypes) Get(ctx context.Context, id int64) (*models.NotificationType, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockTypes) GetByName(context.Context, string) (*models.NotificationType, error) {
	return nil, nil
}

func (m *mockTypes) List(ctx context.Context, skip, limit int, isActive *bool) ([]*models.NotificationType, error) {
	return m.ListFunc(ctx, skip, limit, isActive)
}

func (m *mockTypes) Create(ctx context.Context, in models.NotificationTypeCreate) (*models.NotificationType, error) {
	return m.CreateFunc(ctx, in)
}

func (m *mockTypes) Update(ctx context.Context, id int64, in models.NotificationTypeUpdate) (*models.NotificationType, error) {
	return m.UpdateFunc(ctx, id, in)
}

func (m *mockTypes) Delete(ctx context.Context, id int64) (bool, error) {
	return m.DeleteFunc(ctx, id)
}

func (m *mockTypes) Upsert(context.Context, string, string, bool) (*models.NotificationType, error) {
	return nil, nil
}

type mockSubscriptions struct {
	GetFunc        func(ctx context.Context, userID string, typeID int64) (*models.NotificationSubscription, error)
	ListByUserFunc func(ctx context.Context, userID string) ([]*models.NotificationSubscription, error)
}

func (m *mockSubscriptions) Get(ctx context.Context, userID string, typeID int64) (*models.NotificationSubscription, error) {
	return m.GetFunc(ctx, userID, typeID)
}

func (m *mockSubscriptions) ListByUser(ctx context.Context, userID string) ([]*models.NotificationSubscription, error) {
	return m.ListByUserFunc(ctx, userID)
}

func (m *mockSubscriptions) SetSubscribed(context.Context, string, int64, bool) (*models.NotificationSubscription, error) {
	panic("preference writes go through the cached store")
}

type mockPreferences struct {
	optedOut map[string]bool
	err      error
	set      []models.NotificationSubscription
}

func (m *mockPreferences) IsSubscribed(_ context.Context, userID string, _ int64) (bool, error) {
	return !m.optedOut[userID], m.err
}

func (m *mockPreferences) SetSubscribed(_ context.Context, userID string, typeID int64, subscribed bool) (*models.NotificationSubscription, error) {
	if m.err != nil {
		return nil, m.err
	}
	sub := models.NotificationSubscription{ID: 1, UserID: userID, NotificationTypeID: typeID, IsSubscribed: subscribed}
	m.set = append(m.set, sub)
	return &sub, nil
}

type mockRecorder struct {
	records []models.NotificationHistory
	err     error
}

func (m *mockRecorder) Record(_ context.Context, userID, message, status string) (*models.NotificationHistory, error) {
	if m.err != nil {
		return nil, m.err
	}
	rec := models.NotificationHistory{ID: int64(100 + len(m.records)), UserID: userID, Message: message, Status: status}
	m.records = append(m.records, rec)
	return &rec, nil
}

type mockLocations struct {
	CreateFunc func(ctx context.Context, entityID, entityType string, lat, lon float64) (*models.Location, error)
	LatestFunc func(ctx context.Context, entityID string) (*models.Location, error)
	ListFunc   func(ctx context.Context, filter models.LocationFilter) ([]*models.Location, error)
}

func (m *mockLocations) Create(ctx context.Context, entityID, entityType string, lat, lon float64) (*models.Location, error) {
	return m.CreateFunc(ctx, entityID, entityType, lat, lon)
}

func (m *mockLocations) Latest(ctx context.Context, entityID string) (*models.Location, error) {
	return m.LatestFunc(ctx, entityID)
}

func (m *mockLocations) List(ctx context.Context, filter models.LocationFilter) ([]*models.Location, error) {
	return m.ListFunc(ctx, filter)
}

type mockVerifier struct {
	CheckFunc func(ctx context.Context, id, role string) error
}

func (m *mockVerifier) CheckUserExists(ctx context.Context, id, role string) error {
	return m.CheckFunc(ctx, id, role)
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }
