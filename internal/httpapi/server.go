package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"terrariumd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Status() types.StatusResponse
	ActiveAlerts() []types.AlertView
	AcknowledgeAlert(index int) bool
	Violations(hours int) []types.ViolationView
	EmergencyStop() types.EmergencyStopView
	ClearEmergencyStop() bool
	Ready() bool
}

// NewMux builds the daemon's HTTP handler.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	// @Summary  Aggregate daemon status
	// @Produce  json
	// @Success  200 {object} types.StatusResponse
	// @Router   /status [get]
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	// @Summary  Unacknowledged alerts
	// @Produce  json
	// @Success  200 {object} types.AlertsResponse
	// @Router   /alerts [get]
	r.Get("/alerts", func(w http.ResponseWriter, r *http.Request) {
		alerts := svc.ActiveAlerts()
		if alerts == nil {
			alerts = []types.AlertView{}
		}
		writeJSON(w, http.StatusOK, types.AlertsResponse{Alerts: alerts})
	})

	// @Summary  Acknowledge one alert
	// @Produce  json
	// @Param    index path int true "Alert index"
	// @Success  204
	// @Failure  404 {object} types.ErrorResponse
	// @Router   /alerts/{index}/ack [post]
	r.Post("/alerts/{index}/ack", func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "alert index must be an integer")
			return
		}
		if !svc.AcknowledgeAlert(index) {
			writeJSONError(w, http.StatusNotFound, "alert index out of range")
			return
		}
		logRequest(r).Int("index", index).Msg("alert acknowledged")
		w.WriteHeader(http.StatusNoContent)
	})

	// @Summary  Recent safety violations
	// @Produce  json
	// @Param    hours query int false "History window in hours (default 24)"
	// @Success  200 {object} types.ViolationsResponse
	// @Router   /violations [get]
	r.Get("/violations", func(w http.ResponseWriter, r *http.Request) {
		hours := 24
		if v := r.URL.Query().Get("hours"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSONError(w, http.StatusBadRequest, "hours must be a non-negative integer")
				return
			}
			hours = n
		}
		violations := svc.Violations(hours)
		if violations == nil {
			violations = []types.ViolationView{}
		}
		writeJSON(w, http.StatusOK, types.ViolationsResponse{Violations: violations})
	})

	// @Summary  Emergency stop latch state
	// @Produce  json
	// @Success  200 {object} types.EmergencyStopView
	// @Router   /emergency-stop [get]
	r.Get("/emergency-stop", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.EmergencyStop())
	})

	// @Summary  Clear the emergency stop latch
	// @Produce  json
	// @Success  204
	// @Failure  409 {object} types.ErrorResponse
	// @Router   /emergency-stop [delete]
	r.Delete("/emergency-stop", func(w http.ResponseWriter, r *http.Request) {
		if !svc.ClearEmergencyStop() {
			writeJSONError(w, http.StatusConflict, "emergency stop is not armed")
			return
		}
		logRequest(r).Msg("emergency stop cleared by operator")
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("starting"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}
