// Package api exposes the sampling service over HTTP: decision events,
// notification clicks, completed surveys, and the onboarding page callbacks.
package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stealthcompany.com/cues/internal/metrics"
	"stealthcompany.com/cues/internal/sampling"
	"stealthcompany.com/cues/internal/store"
)

// SetupRoutes configures and returns the HTTP router.
func SetupRoutes(svc *sampling.Service, state *store.Manager) *mux.Router {
	h := &Handlers{svc: svc, state: state}

	r := mux.NewRouter()
	r.Use(metrics.Middleware)

	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Privileged decision source.
	r.HandleFunc("/v1/events/decision", h.DecisionEvent).Methods("POST")

	// Prompt surface click callbacks.
	r.HandleFunc("/v1/notifications/click", h.NotificationClick).Methods("POST")

	// Survey page callbacks.
	r.HandleFunc("/v1/surveys/completed", h.SurveyCompleted).Methods("POST")

	// Onboarding page callbacks.
	r.HandleFunc("/v1/onboarding/consent", h.ConsentStatus).Methods("POST")
	r.HandleFunc("/v1/onboarding/setup", h.SetupStatus).Methods("POST")

	return r
}
