package plan

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/verdant/verdant/editor-go/internal/constraint"
)

const maxPlanSize = 4 << 20 // 4MB

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

type clampRequest struct {
	Field         constraint.Field `json:"field"`
	Value         float64          `json:"value"`
	Accessibility *bool            `json:"accessibility,omitempty"`
}

func readPlan(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPlanSize))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "plan too large (max 4MB)"})
		return nil, false
	}
	return data, true
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	data, ok := readPlan(w, r)
	if !ok {
		return
	}

	result, err := h.service.Validate(data)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) AutoFix(w http.ResponseWriter, r *http.Request) {
	data, ok := readPlan(w, r)
	if !ok {
		return
	}

	result, err := h.service.AutoFix(data)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("plan auto-fixed", "plan", result.Plan.ID, "before", result.Before, "after", len(result.Result.Violations))
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Sample(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Sample())
}

// Limits handles GET /api/constraints/limits[?accessibility=true|false].
func (h *Handler) Limits(w http.ResponseWriter, r *http.Request) {
	var accessibility *bool
	if v := r.URL.Query().Get("accessibility"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "accessibility must be true or false"})
			return
		}
		accessibility = &b
	}

	writeJSON(w, http.StatusOK, h.service.Limits(accessibility))
}

func (h *Handler) Clamp(w http.ResponseWriter, r *http.Request) {
	var req clampRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	value, err := h.service.Clamp(req.Field, req.Value, req.Accessibility)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"value": value})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidPlan), errors.Is(err, ErrUnknownField):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
