package routes

import (
	"net/http"

	"github.com/zatekoja/waitwise/backend/internal/api/handlers"
	"github.com/zatekoja/waitwise/backend/internal/api/middleware"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	userHandler        *handlers.UserHandler
	clinicHandler      *handlers.ClinicHandler
	triageHandler      *handlers.TriageHandler
	appointmentHandler *handlers.AppointmentHandler
	reportHandler      *handlers.ReportHandler
	sseHandler         *handlers.SSEHandler
	healthHandler      *handlers.HealthHandler

	metricsHandler http.Handler
	metrics        *observability.Metrics
	allowedOrigins []string
}

// NewRouter creates a new router. metricsHandler serves /metrics when set.
func NewRouter(
	userHandler *handlers.UserHandler,
	clinicHandler *handlers.ClinicHandler,
	triageHandler *handlers.TriageHandler,
	appointmentHandler *handlers.AppointmentHandler,
	reportHandler *handlers.ReportHandler,
	sseHandler *handlers.SSEHandler,
	healthHandler *handlers.HealthHandler,
	metricsHandler http.Handler,
	metrics *observability.Metrics,
	allowedOrigins []string,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		userHandler:        userHandler,
		clinicHandler:      clinicHandler,
		triageHandler:      triageHandler,
		appointmentHandler: appointmentHandler,
		reportHandler:      reportHandler,
		sseHandler:         sseHandler,
		healthHandler:      healthHandler,
		metricsHandler:     metricsHandler,
		metrics:            metrics,
		allowedOrigins:     allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	if r.metricsHandler != nil {
		r.mux.Handle("GET /metrics", r.metricsHandler)
	}

	// Patients
	r.mux.HandleFunc("POST /register", r.userHandler.Register)
	r.mux.HandleFunc("GET /users/{id}", r.userHandler.GetUser)
	r.mux.HandleFunc("POST /triage", r.triageHandler.Triage)

	// Clinics
	r.mux.HandleFunc("GET /clinics/nearby", r.clinicHandler.ListNearby)
	r.mux.HandleFunc("GET /clinics/{id}", r.clinicHandler.GetClinic)
	r.mux.HandleFunc("GET /clinics/{id}/queue", r.clinicHandler.GetQueue)

	// Queue
	r.mux.HandleFunc("POST /book", r.appointmentHandler.Book)
	r.mux.HandleFunc("POST /cancel", r.appointmentHandler.Cancel)
	r.mux.HandleFunc("GET /appointments/{id}", r.appointmentHandler.GetAppointment)
	r.mux.HandleFunc("POST /appointments/{id}/confirm", r.appointmentHandler.Confirm)
	r.mux.HandleFunc("POST /appointments/{id}/complete", r.appointmentHandler.Complete)
	r.mux.HandleFunc("POST /notify-next", r.appointmentHandler.NotifyNext)
	r.mux.HandleFunc("POST /report", r.reportHandler.GenerateReport)

	// Real-time tracking
	r.mux.HandleFunc("GET /api/stream/appointments/{id}", r.sseHandler.StreamAppointment)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	// CORS wraps everything so headers are set on 304s too
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
