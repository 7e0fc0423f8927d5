package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/stewardrx/platform/pkg/common/logger"
)

type HTTPHandler struct {
	repo    *Repository
	service *Service
}

func NewHTTPHandler(repo *Repository, service *Service) *HTTPHandler {
	return &HTTPHandler{repo: repo, service: service}
}

func (h *HTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/alerts", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/alerts/summary", h.handleSummary).Methods(http.MethodGet)
	r.HandleFunc("/alerts/{id}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/alerts/{id}/ack", h.handleAck).Methods(http.MethodPost)
	r.HandleFunc("/alerts/{id}/resolve", h.handleResolve).Methods(http.MethodPost)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status:    r.URL.Query().Get("status"),
		Severity:  r.URL.Query().Get("severity"),
		PatientID: r.URL.Query().Get("patient_id"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	rows, err := h.repo.List(r.Context(), filter)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list alerts")
		http.Error(w, "failed to fetch alerts", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"items": rows, "count": len(rows)})
}

func (h *HTTPHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.repo.Summarize(r.Context(), 7*24*time.Hour)
	if err != nil {
		logger.Log.WithError(err).Error("failed to summarize alerts")
		http.Error(w, "failed to fetch summary", http.StatusInternalServerError)
		return
	}
	writeJSON(w, summary)
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	alert, err := h.repo.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "alert not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch alert")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, alert)
}

func (h *HTTPHandler) handleAck(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, h.service.Acknowledge)
}

func (h *HTTPHandler) handleResolve(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, h.service.Resolve)
}

func (h *HTTPHandler) updateStatus(w http.ResponseWriter, r *http.Request, update func(ctx context.Context, id, actor string) error) {
	var payload struct {
		Actor string `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Actor == "" {
		http.Error(w, "actor is required", http.StatusBadRequest)
		return
	}

	if err := update(r.Context(), mux.Vars(r)["id"], payload.Actor); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "alert not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to update alert")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}
