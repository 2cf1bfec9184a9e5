package routes

import (
	"net/http"

	h "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bus-tracking-services/internal/common/logger"
	"bus-tracking-services/internal/handlers"
	"bus-tracking-services/internal/middleware"
)

const (
	NotificationService = "notification-api"
	LocationService     = "location-api"
	WorkerService       = "notification-worker"
)

// NewNotificationRouter sets up the notification API routes
func NewNotificationRouter(health *handlers.HealthHandler, n *handlers.NotificationHandler) *mux.Router {
	router := newBaseRouter(NotificationService, health)

	router.HandleFunc("/notifications/history/id/{notification_id}", n.GetHistory).Methods(http.MethodGet)
	router.HandleFunc("/notifications/history/", n.ListHistory).Methods(http.MethodGet)
	router.HandleFunc("/notifications/history", n.ListHistory).Methods(http.MethodGet)
	router.HandleFunc("/notifications/history/{user_id}", n.UserHistory).Methods(http.MethodGet)
	router.HandleFunc("/notifications/search", n.SearchHistory).Methods(http.MethodGet)

	router.HandleFunc("/notifications/types", n.ListTypes).Methods(http.MethodGet)
	router.HandleFunc("/notifications/types", n.CreateType).Methods(http.MethodPost)
	router.HandleFunc("/notifications/types/{notification_type_id}", n.GetType).Methods(http.MethodGet)
	router.HandleFunc("/notifications/types/{notification_type_id}", n.UpdateType).Methods(http.MethodPut)
	router.HandleFunc("/notifications/types/{notification_type_id}", n.DeleteType).Methods(http.MethodDelete)

	router.HandleFunc("/notifications/subscriptions/{user_id}", n.ListSubscriptions).Methods(http.MethodGet)
	router.HandleFunc("/notifications/subscription/{user_id}/{notification_type_id}", n.GetSubscription).Methods(http.MethodGet)
	router.HandleFunc("/notifications/subscribe", n.Subscribe).Methods(http.MethodPost)
	router.HandleFunc("/notifications/unsubscribe", n.Unsubscribe).Methods(http.MethodPost)
	router.HandleFunc("/notifications/send", n.Send).Methods(http.MethodPost)

	return router
}

// NewLocationRouter sets up the location API routes
func NewLocationRouter(health *handlers.HealthHandler, l *handlers.LocationHandler) *mux.Router {
	router := newBaseRouter(LocationService, health)

	router.HandleFunc("/locations/entity/{entity_type}/{entity_id}", l.ListByEntity).Methods(http.MethodGet)
	router.HandleFunc("/locations/", l.List).Methods(http.MethodGet)
	router.HandleFunc("/locations", l.List).Methods(http.MethodGet)
	router.HandleFunc("/locations/{entity_type}/{entity_id}", l.Create).Methods(http.MethodPost)
	router.HandleFunc("/locations/{entity_id}", l.Latest).Methods(http.MethodGet)

	return router
}

// NewWorkerRouter serves only health and metrics for the dispatch worker.
func NewWorkerRouter(health *handlers.HealthHandler) *mux.Router {
	return newBaseRouter(WorkerService, health)
}

func newBaseRouter(service string, health *handlers.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Metrics(service))

	router.HandleFunc("/", health.Root).Methods(http.MethodGet)
	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/ready", health.Ready).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}

// Wrap applies request id, recovery, logging and CORS around a router.
func Wrap(router http.Handler, log logger.Logger, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	handler := middleware.Logging(log)(router)
	handler = middleware.Recovery(log)(handler)
	handler = middleware.RequestID(handler)
	return h.CORS(
		h.AllowedOrigins(allowedOrigins),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.RequestIDHeader}),
	)(handler)
}
