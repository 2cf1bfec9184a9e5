package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bus-tracking-services/internal/common/errors"
	"bus-tracking-services/internal/common/logger"
	"bus-tracking-services/internal/models"
)

// serve routes a single request through a router holding only the route under test.
func serve(t *testing.T, method, pattern, target, body string, fn http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	router.HandleFunc(pattern, fn).Methods(method)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body["detail"]
}

type notificationFixture struct {
	history       *mockHistory
	index         *mockIndex
	types         *mockTypes
	subscriptions *mockSubscriptions
	preferences   *mockPreferences
	recorder      *mockRecorder
}

func newNotificationFixture() *notificationFixture {
	return &notificationFixture{
		history:       &mockHistory{},
		index:         &mockIndex{},
		types:         &mockTypes{},
		subscriptions: &mockSubscriptions{},
		preferences:   &mockPreferences{optedOut: map[string]bool{}},
		recorder:      &mockRecorder{},
	}
}

func (f *notificationFixture) handler(t *testing.T) *NotificationHandler {
	return NewNotificationHandler(NotificationDeps{
		History:       f.history,
		Index:         f.index,
		Types:         f.types,
		Subscriptions: f.subscriptions,
		Preferences:   f.preferences,
		Recorder:      f.recorder,
	}, logger.NewTestLogger(t))
}

var stamp = time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)

// ==========================
// History
// ==========================

func TestUserHistory(t *testing.T) {
	f := newNotificationFixture()
	f.history.ListByUserFunc = func(_ context.Context, userID string) ([]*models.NotificationHistory, error) {
		assert.Equal(t, "7", userID)
		return []*models.NotificationHistory{
			{ID: 2, UserID: "7", Message: "Notification sent: Bus Arrival Update - Your bus will arrive in 5 minutes", Status: "sent", Timestamp: stamp},
		}, nil
	}

	rec := serve(t, http.MethodGet, "/notifications/history/{user_id}", "/notifications/history/7", "", f.handler(t).UserHistory)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.NotificationHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "sent", got[0].Status)
}

func TestUserHistory_EmptyIsArray(t *testing.T) {
	f := newNotificationFixture()
	f.history.ListByUserFunc = func(context.Context, string) ([]*models.NotificationHistory, error) {
		return []*models.NotificationHistory{}, nil
	}

	rec := serve(t, http.MethodGet, "/notifications/history/{user_id}", "/notifications/history/404", "", f.handler(t).UserHistory)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListHistory_Filters(t *testing.T) {
	f := newNotificationFixture()
	var seen models.HistoryFilter
	f.history.ListFunc = func(_ context.Context, filter models.HistoryFilter) ([]*models.NotificationHistory, error) {
		seen = filter
		return []*models.NotificationHistory{}, nil
	}

	rec := serve(t, http.MethodGet, "/notifications/history", "/notifications/history?status=failed&skip=10&limit=5", "", f.handler(t).ListHistory)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.HistoryFilter{Status: "failed", Skip: 10, Limit: 5}, seen)
}

func TestListHistory_BadPagination(t *testing.T) {
	f := newNotificationFixture()

	rec := serve(t, http.MethodGet, "/notifications/history", "/notifications/history?skip=-1", "", f.handler(t).ListHistory)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "skip must be a non-negative integer", detail(t, rec))
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		record     *models.NotificationHistory
		err        error
		wantStatus int
		wantDetail string
	}{
		{name: "found", target: "/notifications/history/id/3", record: &models.NotificationHistory{ID: 3, UserID: "7", Status: "sent"}, wantStatus: http.StatusOK},
		{name: "missing", target: "/notifications/history/id/99", wantStatus: http.StatusNotFound, wantDetail: "Notification not found"},
		{name: "db error", target: "/notifications/history/id/3", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantDetail: "Database query execution error"},
		{name: "non-numeric id", target: "/notifications/history/id/abc", wantStatus: http.StatusUnprocessableEntity, wantDetail: "notification_id must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newNotificationFixture()
			f.history.GetFunc = func(context.Context, int64) (*models.NotificationHistory, error) {
				return tt.record, tt.err
			}

			rec := serve(t, http.MethodGet, "/notifications/history/id/{notification_id}", tt.target, "", f.handler(t).GetHistory)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, detail(t, rec))
			}
		})
	}
}

func TestSearchHistory(t *testing.T) {
	f := newNotificationFixture()
	var seen models.HistorySearch
	f.index.SearchFunc = func(_ context.Context, q models.HistorySearch) ([]*models.NotificationHistory, int64, error) {
		seen = q
		return []*models.NotificationHistory{{ID: 1, UserID: "7", Message: "late bus", Status: "sent"}}, 12, nil
	}

	rec := serve(t, http.MethodGet, "/notifications/search", "/notifications/search?q=late&user_id=7&limit=1", "", f.handler(t).SearchHistory)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.HistorySearch{Query: "late", UserID: "7", Limit: 1}, seen)

	var body struct {
		Total   int64                        `json:"total"`
		Results []models.NotificationHistory `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(12), body.Total)
	assert.Len(t, body.Results, 1)
}

func TestSearchHistory_Unavailable(t *testing.T) {
	h := NewNotificationHandler(NotificationDeps{}, logger.NewNoOpLogger())

	rec := serve(t, http.MethodGet, "/notifications/search", "/notifications/search?q=x", "", h.SearchHistory)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Search is not configured", detail(t, rec))
}

func TestSearchHistory_IndexError(t *testing.T) {
	f := newNotificationFixture()
	f.index.SearchFunc = func(context.Context, models.HistorySearch) ([]*models.NotificationHistory, int64, error) {
		return nil, 0, errors.New("index_not_found_exception")
	}

	rec := serve(t, http.MethodGet, "/notifications/search", "/notifications/search", "", f.handler(t).SearchHistory)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Search query failed", detail(t, rec))
}

// ==========================
// Types
// ==========================

func TestListTypes_ActiveFilter(t *testing.T) {
	f := newNotificationFixture()
	f.types.ListFunc = func(_ context.Context, skip, limit int, isActive *bool) ([]*models.NotificationType, error) {
		assert.Equal(t, 0, skip)
		assert.Equal(t, 20, limit)
		require.NotNil(t, isActive)
		assert.True(t, *isActive)
		return []*models.NotificationType{{ID: 1, Name: "eta_update", IsActive: true}}, nil
	}

	rec := serve(t, http.MethodGet, "/notifications/types", "/notifications/types?is_active=true&limit=20", "", f.handler(t).ListTypes)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"eta_update"`)
}

func TestListTypes_BadBool(t *testing.T) {
	f := newNotificationFixture()

	rec := serve(t, http.MethodGet, "/notifications/types", "/notifications/types?is_active=maybe", "", f.handler(t).ListTypes)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetType_NotFound(t *testing.T) {
	f := newNotificationFixture()
	f.types.GetFunc = func(context.Context, int64) (*models.NotificationType, error) { return nil, nil }

	rec := serve(t, http.MethodGet, "/notifications/types/{notification_type_id}", "/notifications/types/8", "", f.handler(t).GetType)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Notification type not found", detail(t, rec))
}

func TestCreateType(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantDetail string
	}{
		{name: "created", body: `{"name":"route_change","description":"Route changed"}`, wantStatus: http.StatusOK},
		{
			name:       "duplicate name",
			body:       `{"name":"eta_update"}`,
			createErr:  apperrors.NewDuplicateResourceError("Notification type with this name already exists", "eta_update"),
			wantStatus: http.StatusBadRequest,
			wantDetail: "Notification type with this name already exists",
		},
		{name: "missing name", body: `{"description":"x"}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "not json", body: `{`, wantStatus: http.StatusUnprocessableEntity},
		{name: "store failure", body: `{"name":"x"}`, createErr: errors.New("conn refused"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newNotificationFixture()
			f.types.CreateFunc = func(_ context.Context, in models.NotificationTypeCreate) (*models.NotificationType, error) {
				if tt.createErr != nil {
					return nil, tt.createErr
				}
				return &models.NotificationType{ID: 4, Name: in.Name, Description: in.Description, IsActive: true}, nil
			}

			rec := serve(t, http.MethodPost, "/notifications/types", "/notifications/types", tt.body, f.handler(t).CreateType)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, detail(t, rec))
			}
		})
	}
}

func TestUpdateType(t *testing.T) {
	f := newNotificationFixture()
	f.types.UpdateFunc = func(_ context.Context, id int64, in models.NotificationTypeUpdate) (*models.NotificationType, error) {
		if id != 2 {
			return nil, nil
		}
		assert.Nil(t, in.Name)
		require.NotNil(t, in.IsActive)
		return &models.NotificationType{ID: 2, Name: "bus_delay", IsActive: *in.IsActive}, nil
	}
	h := f.handler(t)

	rec := serve(t, http.MethodPut, "/notifications/types/{notification_type_id}", "/notifications/types/2", `{"is_active":false}`, h.UpdateType)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_active":false`)

	rec = serve(t, http.MethodPut, "/notifications/types/{notification_type_id}", "/notifications/types/9", `{"is_active":false}`, h.UpdateType)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteType(t *testing.T) {
	f := newNotificationFixture()
	f.types.DeleteFunc = func(_ context.Context, id int64) (bool, error) { return id == 3, nil }
	h := f.handler(t)

	rec := serve(t, http.MethodDelete, "/notifications/types/{notification_type_id}", "/notifications/types/3", "", h.DeleteType)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Notification type deleted successfully"}`, rec.Body.String())

	rec = serve(t, http.MethodDelete, "/notifications/types/{notification_type_id}", "/notifications/types/4", "", h.DeleteType)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==========================
// Subscriptions
// ==========================

func TestGetSubscription(t *testing.T) {
	f := newNotificationFixture()
	f.subscriptions.GetFunc = func(_ context.Context, userID string, typeID int64) (*models.NotificationSubscription, error) {
		if userID == "7" && typeID == 1 {
			return &models.NotificationSubscription{ID: 1, UserID: "7", NotificationTypeID: 1, IsSubscribed: false}, nil
		}
		return nil, nil
	}
	h := f.handler(t)
	pattern := "/notifications/subscription/{user_id}/{notification_type_id}"

	rec := serve(t, http.MethodGet, pattern, "/notifications/subscription/7/1", "", h.GetSubscription)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_subscribed":false`)

	rec = serve(t, http.MethodGet, pattern, "/notifications/subscription/7/2", "", h.GetSubscription)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Subscription not found", detail(t, rec))
}

func TestListSubscriptions(t *testing.T) {
	f := newNotificationFixture()
	f.subscriptions.ListByUserFunc = func(_ context.Context, userID string) ([]*models.NotificationSubscription, error) {
		return []*models.NotificationSubscription{
			{ID: 1, UserID: userID, NotificationTypeID: 1, IsSubscribed: true},
			{ID: 2, UserID: userID, NotificationTypeID: 2, IsSubscribed: false},
		}, nil
	}

	rec := serve(t, http.MethodGet, "/notifications/subscriptions/{user_id}", "/notifications/subscriptions/7", "", f.handler(t).ListSubscriptions)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.NotificationSubscription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	f := newNotificationFixture()
	h := f.handler(t)

	rec := serve(t, http.MethodPost, "/notifications/unsubscribe", "/notifications/unsubscribe", `{"user_id":7,"notification_type_id":1}`, h.Unsubscribe)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, http.MethodPost, "/notifications/subscribe", "/notifications/subscribe", `{"user_id":"8","notification_type_id":2}`, h.Subscribe)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.preferences.set, 2)
	assert.Equal(t, models.NotificationSubscription{ID: 1, UserID: "7", NotificationTypeID: 1, IsSubscribed: false}, f.preferences.set[0])
	assert.Equal(t, models.NotificationSubscription{ID: 1, UserID: "8", NotificationTypeID: 2, IsSubscribed: true}, f.preferences.set[1])
}

func TestSubscribe_Validation(t *testing.T) {
	f := newNotificationFixture()

	rec := serve(t, http.MethodPost, "/notifications/subscribe", "/notifications/subscribe", `{"user_id":"7"}`, f.handler(t).Subscribe)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, f.preferences.set)
}

// ==========================
// Send
// ==========================

func TestSend_SkipsOptedOutUsers(t *testing.T) {
	f := newNotificationFixture()
	f.preferences.optedOut["2"] = true

	body := `{"user_ids":["1",2,"3"],"notification_type_id":1,"title":"Bus Alert","body":"Route 12 delayed"}`
	rec := serve(t, http.MethodPost, "/notifications/send", "/notifications/send", body, f.handler(t).Send)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got models.SendNotificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, "Notification sent to 2 users", got.Message)
	assert.Equal(t, []int64{100, 101}, got.NotificationIDs)

	require.Len(t, f.recorder.records, 2)
	for _, r := range f.recorder.records {
		assert.Equal(t, models.StatusPending, r.Status)
		assert.Equal(t, "Bus Alert: Route 12 delayed", r.Message)
	}
	assert.Equal(t, "1", f.recorder.records[0].UserID)
	assert.Equal(t, "3", f.recorder.records[1].UserID)
}

func TestSend_NoRecipients(t *testing.T) {
	f := newNotificationFixture()

	body := `{"user_ids":[],"notification_type_id":1,"title":"t","body":"b"}`
	rec := serve(t, http.MethodPost, "/notifications/send", "/notifications/send", body, f.handler(t).Send)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Notification sent to 0 users","notification_ids":[]}`, rec.Body.String())
}

func TestSend_Failures(t *testing.T) {
	tests := []struct {
		name        string
		preferences *mockPreferences
		recorder    *mockRecorder
	}{
		{"subscription check fails", &mockPreferences{err: errors.New("redis down")}, &mockRecorder{}},
		{"history write fails", &mockPreferences{}, &mockRecorder{err: errors.New("disk full")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newNotificationFixture()
			f.preferences, f.recorder = tt.preferences, tt.recorder

			body := `{"user_ids":["1"],"notification_type_id":1,"title":"t","body":"b"}`
			rec := serve(t, http.MethodPost, "/notifications/send", "/notifications/send", body, f.handler(t).Send)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
		})
	}
}
