/*-------------------------------------------------------------------------
 *
 * handlers.go
 *    Read-only ops endpoints for NeuronChat
 *
 * Exposes the approval request audit trail over HTTP for operators.
 * Resolution happens only through the Telegram admin flow; this API
 * never mutates.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/api/handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/metrics"
)

/* ApprovalStore is the slice of the store the ops API reads from */
type ApprovalStore interface {
	GetApprovalRequest(ctx context.Context, id uuid.UUID) (*db.ApprovalRequest, error)
	ListApprovalRequests(ctx context.Context, status *string, limit, offset int) ([]db.ApprovalRequest, error)
}

type Handlers struct {
	store ApprovalStore
}

func NewHandlers(store ApprovalStore) *Handlers {
	return &Handlers{store: store}
}

/* RegisterRoutes mounts the ops endpoints on a router */
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/approval-requests", h.ListApprovalRequests).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/approval-requests/{id}", h.GetApprovalRequest).Methods(http.MethodGet)
}

/* ListApprovalRequests returns approval requests, optionally filtered by
 * ?status=pending|approved|denied */
func (h *Handlers) ListApprovalRequests(w http.ResponseWriter, r *http.Request) {
	var status *string
	if s := r.URL.Query().Get("status"); s != "" {
		if s != db.ApprovalStatusPending && s != db.ApprovalStatusApproved && s != db.ApprovalStatusDenied {
			respondError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		status = &s
	}

	limit := parseIntParam(r, "limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := parseIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	requests, err := h.store.ListApprovalRequests(r.Context(), status, limit, offset)
	if err != nil {
		metrics.ErrorWithContext(r.Context(), "Failed to list approval requests", err, nil)
		respondError(w, http.StatusInternalServerError, "failed to list approval requests")
		return
	}
	if requests == nil {
		requests = []db.ApprovalRequest{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"approval_requests": requests,
		"count":             len(requests),
	})
}

/* GetApprovalRequest returns a single approval request by ID */
func (h *Handlers) GetApprovalRequest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid approval request ID")
		return
	}

	req, err := h.store.GetApprovalRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrApprovalNotFound) {
			respondError(w, http.StatusNotFound, "approval request not found")
			return
		}
		metrics.ErrorWithContext(r.Context(), "Failed to load approval request", err, map[string]interface{}{
			"approval_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to load approval request")
		return
	}

	respondJSON(w, http.StatusOK, req)
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		metrics.ErrorWithContext(context.Background(), "Failed to encode response", err, nil)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
