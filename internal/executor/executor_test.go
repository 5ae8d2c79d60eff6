/*-------------------------------------------------------------------------
 *
 * executor_test.go
 *    Unit tests for command classification and execution
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/executor/executor_test.go
 *
 *-------------------------------------------------------------------------
 */

package executor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronChat/internal/db"
)

var (
	testAllowed = []string{
		"date", "whoami", "hostname", "uptime", "uname", "echo", "cat",
		"ls", "pwd", "df", "free", "wc", "head", "tail", "which", "env", "printenv",
	}
	testBlocked = []string{
		"rm -rf /",
		"rm -rf /*",
		"mkfs",
		"dd if=/dev/zero",
		":(){ :|:& };:",
		"chmod -R 777 /",
	}
)

/* fakeStore records approval request creations */
type fakeStore struct {
	created []string
}

func (s *fakeStore) CreateApprovalRequest(ctx context.Context, command string, requesterID, requesterChatID int64) (*db.ApprovalRequest, error) {
	s.created = append(s.created, command)
	return &db.ApprovalRequest{
		ID:              uuid.New(),
		Command:         command,
		RequesterID:     requesterID,
		RequesterChatID: requesterChatID,
		Status:          db.ApprovalStatusPending,
	}, nil
}

func newTestExecutor(store Store) *Executor {
	return NewExecutor(store, testAllowed, testBlocked, 30*time.Second, 4000)
}

/* TestBlockedCommands tests that deny-listed commands are always blocked */
func TestBlockedCommands(t *testing.T) {
	store := &fakeStore{}
	exec := newTestExecutor(store)

	cases := []string{
		"rm -rf /",
		"  rm -rf /  ",
		"sudo rm -rf /tmp && rm -rf /*",
		"mkfs.ext4 /dev/sda1",
		"dd if=/dev/zero of=/dev/sda",
		":(){ :|:& };:",
		/* allow-listed base command does not override the deny-list */
		"echo hi; rm -rf /",
	}

	for _, command := range cases {
		result, err := exec.ClassifyAndRun(context.Background(), command, 1, 1)
		if err != nil {
			t.Fatalf("ClassifyAndRun(%q) returned error: %v", command, err)
		}
		if result.Kind != KindBlocked {
			t.Errorf("ClassifyAndRun(%q) kind = %d, want KindBlocked", command, result.Kind)
		}
	}

	if len(store.created) != 0 {
		t.Errorf("blocked commands created %d approval requests, want 0", len(store.created))
	}
}

/* TestAllowedCommands tests that allow-listed commands run immediately */
func TestAllowedCommands(t *testing.T) {
	store := &fakeStore{}
	exec := newTestExecutor(store)

	result, err := exec.ClassifyAndRun(context.Background(), "echo hello", 1, 1)
	if err != nil {
		t.Fatalf("ClassifyAndRun returned error: %v", err)
	}
	if result.Kind != KindImmediate {
		t.Fatalf("kind = %d, want KindImmediate", result.Kind)
	}
	if strings.TrimSpace(result.Output) != "hello" {
		t.Errorf("output = %q, want %q", result.Output, "hello")
	}
	if len(store.created) != 0 {
		t.Errorf("immediate command created %d approval requests, want 0", len(store.created))
	}
}

/* TestRiskyCommandEscalation tests that unknown commands create a pending request */
func TestRiskyCommandEscalation(t *testing.T) {
	store := &fakeStore{}
	exec := newTestExecutor(store)

	result, err := exec.ClassifyAndRun(context.Background(), "systemctl restart nginx", 42, 99)
	if err != nil {
		t.Fatalf("ClassifyAndRun returned error: %v", err)
	}
	if result.Kind != KindPendingApproval {
		t.Fatalf("kind = %d, want KindPendingApproval", result.Kind)
	}
	if result.ApprovalID == uuid.Nil {
		t.Error("ApprovalID is nil")
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d approval requests, want 1", len(store.created))
	}
	if store.created[0] != "systemctl restart nginx" {
		t.Errorf("stored command = %q", store.created[0])
	}
}

/* TestStderrCapture tests the STDERR marker on combined output */
func TestStderrCapture(t *testing.T) {
	exec := newTestExecutor(&fakeStore{})

	output, err := exec.Run(context.Background(), "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(output, "out") {
		t.Errorf("output missing stdout: %q", output)
	}
	if !strings.Contains(output, "STDERR: err") {
		t.Errorf("output missing STDERR marker: %q", output)
	}
}

/* TestOutputTruncation tests that long output is capped with a marker */
func TestOutputTruncation(t *testing.T) {
	exec := newTestExecutor(&fakeStore{})

	output, err := exec.Run(context.Background(), "head -c 10000 /dev/zero | tr '\\0' 'a'")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	marker := "\n... (output truncated)"
	if !strings.HasSuffix(output, marker) {
		t.Fatalf("output missing truncation marker, len=%d", len(output))
	}
	if len(output) != 4000+len(marker) {
		t.Errorf("output length = %d, want %d", len(output), 4000+len(marker))
	}
}

/* TestCommandTimeout tests that a hung command fails with a timeout error */
func TestCommandTimeout(t *testing.T) {
	store := &fakeStore{}
	exec := NewExecutor(store, testAllowed, testBlocked, 100*time.Millisecond, 4000)

	start := time.Now()
	_, err := exec.Run(context.Background(), "sleep 5")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Run returned nil error for hung command")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error = %v, want timeout error", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("timeout took %s, want well under 2s", elapsed)
	}
}

/* TestNonZeroExitOutput tests that failing commands still return their output */
func TestNonZeroExitOutput(t *testing.T) {
	exec := newTestExecutor(&fakeStore{})

	output, err := exec.Run(context.Background(), "echo partial; exit 3")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(output, "partial") {
		t.Errorf("output = %q, want partial output preserved", output)
	}
}
