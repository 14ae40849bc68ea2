// Package server exposes the batch geocoding pipeline over HTTP: the batch
// submission endpoint plus the health and metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Houeta/batch-geocoder/internal/models"
	"github.com/Houeta/batch-geocoder/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BatchGeocoder is the pipeline capability the handler dispatches to.
type BatchGeocoder interface {
	GeocodeBatch(ctx context.Context, addresses []string) (*models.Job, error)
}

// Pinger reports backend liveness for the health endpoint. May be nil when
// no database is configured.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the batch geocoding API.
type Handler struct {
	log      *slog.Logger
	geocoder BatchGeocoder
	pinger   Pinger
}

// New creates a Handler around the given pipeline.
func New(log *slog.Logger, geocoder BatchGeocoder, pinger Pinger) *Handler {
	return &Handler{log: log, geocoder: geocoder, pinger: pinger}
}

// Router builds the chi router with all routes registered.
func (h *Handler) Router(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/geocode", h.HandleGeocodeBatch)
	r.Get("/healthz", h.HandleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return r
}

// batchRequest is the inbound batch submission payload.
type batchRequest struct {
	Addresses []string `json:"addresses"`
}

// batchResponse is the job outcome: one entry per submitted address,
// positionally aligned with the request.
type batchResponse struct {
	JobID   string        `json:"job_id"`
	Results []entryResult `json:"results"`
}

// entryResult is one per-address outcome.
type entryResult struct {
	Status    string   `json:"status"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Precision string   `json:"precision,omitempty"`
	Kind      string   `json:"kind,omitempty"`
	Detail    string   `json:"detail,omitempty"`
}

// errorResponse is the single job-level error payload.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// HandleGeocodeBatch accepts an ordered list of raw addresses and responds
// with one result per address in the same order. Invalid input and
// cancelled jobs yield a single job-level error.
func (h *Handler) HandleGeocodeBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, "InvalidInput", "request body is not valid JSON")
		return
	}

	job, err := h.geocoder.GeocodeBatch(ctx, req.Addresses)
	switch {
	case err == nil:
		// fall through to the success response
	case errors.Is(err, service.ErrEmptyBatch):
		h.writeError(ctx, w, http.StatusBadRequest, "InvalidInput", "batch contains no addresses")
		return
	case errors.Is(err, service.ErrJobCancelled):
		// The client is usually gone by now, but write an explicit status
		// so a still-open connection never sees an empty 200.
		h.log.InfoContext(ctx, "Job cancelled by client", "error", err)
		h.writeError(ctx, w, http.StatusServiceUnavailable, "Cancelled", "job cancelled before completion")
		return
	default:
		h.log.ErrorContext(ctx, "Batch geocoding failed", "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, "InternalError", "batch geocoding failed")
		return
	}

	resp := batchResponse{JobID: job.ID, Results: make([]entryResult, len(job.Results))}
	for i, res := range job.Results {
		resp.Results[i] = toEntryResult(res)
	}

	h.writeJSON(ctx, w, http.StatusOK, resp)
}

// HandleHealthz reports liveness, pinging the database when one is
// configured.
func (h *Handler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, body := http.StatusOK, "OK"
	if h.pinger != nil {
		if err := h.pinger.Ping(ctx); err != nil {
			status, body = http.StatusServiceUnavailable, "DB ping failed"
		}
	}

	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		h.log.ErrorContext(ctx, "failed to write reply", "error", err)
	}
}

func toEntryResult(res models.GeocodeResult) entryResult {
	if res.OK() {
		return entryResult{
			Status:    "ok",
			Latitude:  &res.Coordinates.Latitude,
			Longitude: &res.Coordinates.Longitude,
			Precision: res.Precision,
		}
	}
	return entryResult{
		Status: "error",
		Kind:   string(res.Failure.Kind),
		Detail: res.Failure.Detail,
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, status int, kind, detail string) {
	h.writeJSON(ctx, w, status, errorResponse{Error: errorBody{Kind: kind, Detail: detail}})
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
