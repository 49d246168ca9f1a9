package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"flowtune/internal/service"
	"flowtune/internal/transport/rest/handler"
	"flowtune/internal/transport/rest/middleware"
	"flowtune/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService *service.AuthService
	Engine      *service.AdjustmentEngine
	Detector    *service.FlowStateDetector
	WSHub       *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	telemetryHandler := handler.NewTelemetryHandler(c.Engine)
	difficultyHandler := handler.NewDifficultyHandler(c.Engine)
	flowHandler := handler.NewFlowHandler(c.Detector)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/observe", wsHandler.ObserveWS).Methods("GET")
	v1.HandleFunc("/ws/players/{playerId}", wsHandler.PlayerWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Host routes (require host auth)
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)

	hostRoutes.HandleFunc("/players/{playerId}/telemetry", telemetryHandler.Ingest).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/players/{playerId}/difficulty", difficultyHandler.Get).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/players/{playerId}/transitions", difficultyHandler.Transitions).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/players/{playerId}/prediction", difficultyHandler.Prediction).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/players/{playerId}/flow", flowHandler.Get).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/players/{playerId}/flow/history", flowHandler.History).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/players/{playerId}/session", difficultyHandler.EndSession).Methods("DELETE", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
