/*-------------------------------------------------------------------------
 *
 * manager_test.go
 *    Unit tests for approval request resolution
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/humanloop/manager_test.go
 *
 *-------------------------------------------------------------------------
 */

package humanloop

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronChat/internal/db"
)

const (
	adminID    = int64(100)
	strangerID = int64(200)
)

/* fakeStore holds approval requests in memory with the same conditional
 * resolution semantics as the SQL store */
type fakeStore struct {
	requests map[uuid.UUID]*db.ApprovalRequest
}

func newFakeStore(reqs ...*db.ApprovalRequest) *fakeStore {
	s := &fakeStore{requests: make(map[uuid.UUID]*db.ApprovalRequest)}
	for _, r := range reqs {
		s.requests[r.ID] = r
	}
	return s
}

func (s *fakeStore) GetApprovalRequest(ctx context.Context, id uuid.UUID) (*db.ApprovalRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, db.ErrApprovalNotFound
	}
	copied := *req
	return &copied, nil
}

func (s *fakeStore) ResolveApprovalRequest(ctx context.Context, id uuid.UUID, status string, result *string) (bool, error) {
	req, ok := s.requests[id]
	if !ok || req.Status != db.ApprovalStatusPending {
		return false, nil
	}
	req.Status = status
	req.Result = result
	return true, nil
}

/* fakeRunner returns canned output or a canned error */
type fakeRunner struct {
	output string
	err    error
	runs   []string
}

func (r *fakeRunner) Run(ctx context.Context, command string) (string, error) {
	r.runs = append(r.runs, command)
	return r.output, r.err
}

/* fakeNotifier records sent messages by chat ID */
type fakeNotifier struct {
	sent map[int64][]string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(map[int64][]string)}
}

func (n *fakeNotifier) SendText(ctx context.Context, chatID int64, text string) error {
	n.sent[chatID] = append(n.sent[chatID], text)
	return nil
}

func pendingRequest() *db.ApprovalRequest {
	return &db.ApprovalRequest{
		ID:              uuid.New(),
		Command:         "systemctl restart nginx",
		RequesterID:     strangerID,
		RequesterChatID: strangerID,
		Status:          db.ApprovalStatusPending,
	}
}

/* TestResolveApprove tests the happy approval path */
func TestResolveApprove(t *testing.T) {
	req := pendingRequest()
	store := newFakeStore(req)
	runner := &fakeRunner{output: "nginx restarted"}
	notifier := newFakeNotifier()
	m := NewManager(store, runner, notifier, []int64{adminID})

	reply, err := m.Resolve(context.Background(), req.ID, true, adminID)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if reply != "Approved and executed." {
		t.Errorf("reply = %q", reply)
	}
	if len(runner.runs) != 1 || runner.runs[0] != req.Command {
		t.Errorf("runs = %v", runner.runs)
	}
	if store.requests[req.ID].Status != db.ApprovalStatusApproved {
		t.Errorf("status = %q, want approved", store.requests[req.ID].Status)
	}
	msgs := notifier.sent[strangerID]
	if len(msgs) != 1 || !strings.Contains(msgs[0], "nginx restarted") {
		t.Errorf("requester notifications = %v", msgs)
	}
	if len(msgs) == 1 && !strings.Contains(msgs[0], req.Command) {
		t.Errorf("approval notification missing command: %q", msgs[0])
	}
}

/* TestResolveDeny tests the denial path */
func TestResolveDeny(t *testing.T) {
	req := pendingRequest()
	store := newFakeStore(req)
	runner := &fakeRunner{}
	notifier := newFakeNotifier()
	m := NewManager(store, runner, notifier, []int64{adminID})

	reply, err := m.Resolve(context.Background(), req.ID, false, adminID)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if reply != "Denied." {
		t.Errorf("reply = %q", reply)
	}
	if len(runner.runs) != 0 {
		t.Errorf("denied command was executed: %v", runner.runs)
	}
	if store.requests[req.ID].Status != db.ApprovalStatusDenied {
		t.Errorf("status = %q, want denied", store.requests[req.ID].Status)
	}
	msgs := notifier.sent[strangerID]
	if len(msgs) != 1 || !strings.Contains(msgs[0], "denied") {
		t.Errorf("requester notifications = %v", msgs)
	}
	if len(msgs) == 1 && !strings.Contains(msgs[0], req.Command) {
		t.Errorf("denial notification missing command: %q", msgs[0])
	}
}

/* TestResolveNonAdmin tests that non-admins cannot resolve */
func TestResolveNonAdmin(t *testing.T) {
	req := pendingRequest()
	store := newFakeStore(req)
	runner := &fakeRunner{}
	m := NewManager(store, runner, newFakeNotifier(), []int64{adminID})

	reply, err := m.Resolve(context.Background(), req.ID, true, strangerID)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if reply != "You are not an admin." {
		t.Errorf("reply = %q", reply)
	}
	if store.requests[req.ID].Status != db.ApprovalStatusPending {
		t.Error("non-admin resolution changed the request status")
	}
	if len(runner.runs) != 0 {
		t.Error("non-admin resolution executed the command")
	}
}

/* TestResolveNotFound tests resolution of an unknown request ID */
func TestResolveNotFound(t *testing.T) {
	m := NewManager(newFakeStore(), &fakeRunner{}, newFakeNotifier(), []int64{adminID})

	reply, err := m.Resolve(context.Background(), uuid.New(), true, adminID)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if reply != "Approval request not found." {
		t.Errorf("reply = %q", reply)
	}
}

/* TestResolveIdempotent tests that the second resolution is a no-op */
func TestResolveIdempotent(t *testing.T) {
	req := pendingRequest()
	store := newFakeStore(req)
	runner := &fakeRunner{output: "ok"}
	m := NewManager(store, runner, newFakeNotifier(), []int64{adminID})

	if _, err := m.Resolve(context.Background(), req.ID, true, adminID); err != nil {
		t.Fatal(err)
	}

	/* Second approve */
	reply, err := m.Resolve(context.Background(), req.ID, true, adminID)
	if err != nil {
		t.Fatalf("second Resolve returned error: %v", err)
	}
	if !strings.Contains(reply, "already approved") {
		t.Errorf("reply = %q", reply)
	}

	/* Deny after approve must not flip the status */
	reply, err = m.Resolve(context.Background(), req.ID, false, adminID)
	if err != nil {
		t.Fatalf("deny-after-approve returned error: %v", err)
	}
	if !strings.Contains(reply, "already approved") {
		t.Errorf("reply = %q", reply)
	}
	if store.requests[req.ID].Status != db.ApprovalStatusApproved {
		t.Errorf("status = %q, want approved", store.requests[req.ID].Status)
	}
	if len(runner.runs) != 1 {
		t.Errorf("command ran %d times, want 1", len(runner.runs))
	}
}

/* TestResolveApproveRunFailure tests that execution failure still records approval */
func TestResolveApproveRunFailure(t *testing.T) {
	req := pendingRequest()
	store := newFakeStore(req)
	runner := &fakeRunner{err: errors.New("command timed out after 30s")}
	notifier := newFakeNotifier()
	m := NewManager(store, runner, notifier, []int64{adminID})

	reply, err := m.Resolve(context.Background(), req.ID, true, adminID)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !strings.Contains(reply, "execution failed") {
		t.Errorf("reply = %q", reply)
	}

	stored := store.requests[req.ID]
	if stored.Status != db.ApprovalStatusApproved {
		t.Errorf("status = %q, want approved despite failure", stored.Status)
	}
	if stored.Result == nil || !strings.Contains(*stored.Result, "timed out") {
		t.Errorf("result = %v, want execution failure recorded", stored.Result)
	}
}
