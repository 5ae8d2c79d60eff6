/*-------------------------------------------------------------------------
 *
 * handlers_test.go
 *    Unit tests for the ops API handlers
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/api/handlers_test.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/neurondb/NeuronChat/internal/db"
)

type fakeStore struct {
	requests []db.ApprovalRequest
}

func (s *fakeStore) GetApprovalRequest(ctx context.Context, id uuid.UUID) (*db.ApprovalRequest, error) {
	for i := range s.requests {
		if s.requests[i].ID == id {
			return &s.requests[i], nil
		}
	}
	return nil, db.ErrApprovalNotFound
}

func (s *fakeStore) ListApprovalRequests(ctx context.Context, status *string, limit, offset int) ([]db.ApprovalRequest, error) {
	var out []db.ApprovalRequest
	for _, r := range s.requests {
		if status != nil && r.Status != *status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func newTestRouter(store *fakeStore) *mux.Router {
	router := mux.NewRouter()
	NewHandlers(store).RegisterRoutes(router)
	return router
}

/* TestListApprovalRequests tests listing with a status filter */
func TestListApprovalRequests(t *testing.T) {
	store := &fakeStore{requests: []db.ApprovalRequest{
		{ID: uuid.New(), Command: "reboot", Status: db.ApprovalStatusPending},
		{ID: uuid.New(), Command: "ls", Status: db.ApprovalStatusApproved},
	}}
	router := newTestRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/approval-requests?status=pending", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
}

/* TestListApprovalRequestsBadStatus tests rejection of unknown status values */
func TestListApprovalRequestsBadStatus(t *testing.T) {
	router := newTestRouter(&fakeStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/approval-requests?status=bogus", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

/* TestGetApprovalRequest tests fetch by ID and the not-found path */
func TestGetApprovalRequest(t *testing.T) {
	req := db.ApprovalRequest{ID: uuid.New(), Command: "reboot", Status: db.ApprovalStatusPending}
	router := newTestRouter(&fakeStore{requests: []db.ApprovalRequest{req}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/approval-requests/"+req.ID.String(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/approval-requests/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/approval-requests/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
