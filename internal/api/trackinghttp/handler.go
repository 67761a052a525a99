package trackinghttp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/BearBump/ParcelScope/internal/integrations/tracker"
	"github.com/BearBump/ParcelScope/internal/models"
	"github.com/BearBump/ParcelScope/internal/services/tracking"
	"github.com/BearBump/ParcelScope/internal/trackerr"
	"github.com/go-chi/chi/v5"
)

// Service is the orchestrator surface the HTTP layer needs.
type Service interface {
	GetTracking(ctx context.Context, trackNumber, carrierCode string, opts tracker.GetOptions) (*models.TrackingInfo, error)
	CreateTracking(ctx context.Context, trackNumber, carrierCode string, meta map[string]string) error
	DeleteTracking(ctx context.Context, trackNumber, carrierCode string) error
	DetectCarrier(trackNumber string) ([]string, error)
	Carriers() []tracking.CarrierCapability
}

type Handler struct {
	svc Service
}

func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Get("/v1/tracking/{trackNumber}", h.getTracking)
	r.Post("/v1/tracking/{trackNumber}", h.createTracking)
	r.Delete("/v1/tracking/{trackNumber}", h.deleteTracking)
	r.Get("/v1/carriers", h.listCarriers)
	r.Get("/v1/carriers/detect", h.detectCarrier)

	return r
}

func (h *Handler) getTracking(w http.ResponseWriter, r *http.Request) {
	opts := tracker.GetOptions{
		ForceRefresh: r.URL.Query().Get("refresh") == "true",
	}
	info, err := h.svc.GetTracking(r.Context(), chi.URLParam(r, "trackNumber"), r.URL.Query().Get("carrier"), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type createRequest struct {
	Carrier  string            `json:"carrier"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (h *Handler) createTracking(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.Body != nil {
		// An empty body means "no carrier hint, no metadata".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if err := h.svc.CreateTracking(r.Context(), chi.URLParam(r, "trackNumber"), req.Carrier, req.Metadata); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"created": true})
}

func (h *Handler) deleteTracking(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTracking(r.Context(), chi.URLParam(r, "trackNumber"), r.URL.Query().Get("carrier")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) listCarriers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"carriers": h.svc.Carriers()})
}

func (h *Handler) detectCarrier(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.svc.DetectCarrier(r.URL.Query().Get("trackNumber"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"carriers": candidates})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string        `json:"error"`
	Kind  trackerr.Kind `json:"kind"`
}

func writeError(w http.ResponseWriter, err error) {
	kind := trackerr.KindOf(err)
	writeJSON(w, httpStatus(kind), errorBody{Error: err.Error(), Kind: kind})
}

func httpStatus(kind trackerr.Kind) int {
	switch kind {
	case trackerr.KindValidation:
		return http.StatusBadRequest
	case trackerr.KindNotFound:
		return http.StatusNotFound
	case trackerr.KindRateLimit:
		return http.StatusTooManyRequests
	case trackerr.KindTimeout:
		return http.StatusGatewayTimeout
	case trackerr.KindConfiguration:
		return http.StatusServiceUnavailable
	case trackerr.KindAuth, trackerr.KindUpstream, trackerr.KindVocabulary:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
