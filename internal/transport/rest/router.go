package rest

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"timedquiz/internal/service"
	"timedquiz/internal/transport/rest/handler"
	"timedquiz/internal/transport/rest/middleware"
	"timedquiz/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	TestService    *service.TestService
	TimeTracker    *service.TimeTracker
	WSHub          *ws.Hub
	Logger         *zap.Logger
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	testHandler := handler.NewTestHandler(c.TestService, c.Logger)
	topicHandler := handler.NewTopicHandler(c.TimeTracker, c.Logger)
	wsHandler := ws.NewHandler(c.WSHub, c.TimeTracker, c.Logger, c.AllowedOrigins)

	r.Use(chimw.RequestID, middleware.Logging(c.Logger), chimw.Recoverer)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/test/start/{testId}", testHandler.Start).Methods("POST")
	v1.HandleFunc("/test/submit/{token}", testHandler.Submit).Methods("POST")
	v1.HandleFunc("/test/end/{token}", testHandler.End).Methods("POST")
	v1.HandleFunc("/test/get/{token}", testHandler.Get).Methods("GET")
	v1.HandleFunc("/test/results/{token}", testHandler.Results).Methods("GET")
	v1.HandleFunc("/test/active", testHandler.Active).Methods("GET")
	v1.HandleFunc("/test/{testId}/results", testHandler.History).Methods("GET")

	v1.HandleFunc("/topics/timeSpent/{userId}/{topicId}", topicHandler.TimeSpent).Methods("GET")

	// WebSocket routes
	v1.HandleFunc("/ws/time-tracking", wsHandler.TimeTrackingWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS wraps the router so preflight requests never reach route matching
	return cors.Handler(cors.Options{
		AllowedOrigins:   c.AllowedOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})(r)
}
