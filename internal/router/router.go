package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/casevia/internal/config"
	"github.com/BerylCAtieno/casevia/internal/handlers"
	"github.com/BerylCAtieno/casevia/internal/middleware"
	"github.com/BerylCAtieno/casevia/internal/services"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

// API is everything the HTTP layer needs from the pipeline.
type API interface {
	services.ProjectService
	services.WebhookService
	services.CaseStudyService
}

func NewRouter(api API, cfg *config.Config, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	projectHandler := handlers.NewProjectHandler(api, cfg.MaxFileSize, cfg.DefaultOrganizationID, logger)
	webhookHandler := handlers.NewWebhookHandler(api, logger)
	caseStudyHandler := handlers.NewCaseStudyHandler(api, logger)

	// Preflight requests match no method-bound route; answer them here so
	// the CORS middleware runs.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	api1 := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api1.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Projects
	api1.HandleFunc("/projects/upload", projectHandler.Upload).Methods(http.MethodPost)
	api1.HandleFunc("/projects/{id}", projectHandler.GetProject).Methods(http.MethodGet)
	api1.HandleFunc("/projects/{id}/status", projectHandler.GetStatus).Methods(http.MethodGet)
	api1.HandleFunc("/projects/{id}/transcribe", projectHandler.Transcribe).Methods(http.MethodPost)
	api1.HandleFunc("/projects/{id}/analyze", projectHandler.Analyze).Methods(http.MethodPost)
	api1.HandleFunc("/projects/{id}/retry", projectHandler.Retry).Methods(http.MethodPost)
	api1.HandleFunc("/projects/{id}/case-study", projectHandler.GetCaseStudy).Methods(http.MethodGet)
	api1.HandleFunc("/organizations/usage", projectHandler.Usage).Methods(http.MethodGet)

	// Provider callbacks
	api1.HandleFunc("/webhooks/transcription", webhookHandler.Transcription).Methods(http.MethodPost)

	// Case studies
	api1.HandleFunc("/case-studies/{id}", caseStudyHandler.Get).Methods(http.MethodGet)
	api1.HandleFunc("/case-studies/{id}/publish", caseStudyHandler.Publish).Methods(http.MethodPost)
	api1.HandleFunc("/case-studies/{id}/unpublish", caseStudyHandler.Unpublish).Methods(http.MethodPost)
	api1.HandleFunc("/case-studies/{id}/export", caseStudyHandler.Export).Methods(http.MethodGet)
	api1.HandleFunc("/public/case-studies/{slug}", caseStudyHandler.GetPublic).Methods(http.MethodGet)

	return r
}
