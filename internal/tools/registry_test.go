/*-------------------------------------------------------------------------
 *
 * registry_test.go
 *    Unit tests for tool call parsing and dispatch
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/tools/registry_test.go
 *
 *-------------------------------------------------------------------------
 */

package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/executor"
)

/* TestParseToolCall tests extraction of tool calls from model replies */
func TestParseToolCall(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		wantNil  bool
		wantTool string
	}{
		{
			name:     "bare json",
			text:     `{"tool": "run_command", "args": {"command": "ls"}}`,
			wantTool: "run_command",
		},
		{
			name:     "prose around json",
			text:     `I'll help. {"tool": "run_command", "args": {"command": "ls"}} done`,
			wantTool: "run_command",
		},
		{
			name:    "plain text answer",
			text:    "Sure, here's the answer: 42",
			wantNil: true,
		},
		{
			name:    "empty reply",
			text:    "",
			wantNil: true,
		},
		{
			name:    "json without tool key",
			text:    `{"answer": 42}`,
			wantNil: true,
		},
		{
			name:    "tool without args key",
			text:    `{"tool": "run_command"}`,
			wantNil: true,
		},
		{
			name:    "malformed json",
			text:    `{"tool": "run_command", "args": {`,
			wantNil: true,
		},
		{
			name:     "args not an object",
			text:     `{"tool": "web_search", "args": null}`,
			wantTool: "web_search",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			call := ParseToolCall(tc.text)
			if tc.wantNil {
				if call != nil {
					t.Fatalf("ParseToolCall(%q) = %+v, want nil", tc.text, call)
				}
				return
			}
			if call == nil {
				t.Fatalf("ParseToolCall(%q) = nil, want tool %q", tc.text, tc.wantTool)
			}
			if call.Name != tc.wantTool {
				t.Errorf("tool = %q, want %q", call.Name, tc.wantTool)
			}
			if call.Arguments == nil {
				t.Error("Arguments is nil, want non-nil map")
			}
		})
	}
}

/* TestParseToolCallArguments tests that arguments survive parsing */
func TestParseToolCallArguments(t *testing.T) {
	call := ParseToolCall(`{"tool": "run_command", "args": {"command": "echo hi"}}`)
	if call == nil {
		t.Fatal("ParseToolCall returned nil")
	}

	command, err := StringArg(call.Arguments, "command")
	if err != nil {
		t.Fatalf("StringArg returned error: %v", err)
	}
	if command != "echo hi" {
		t.Errorf("command = %q, want %q", command, "echo hi")
	}
}

/* TestDispatchUnknownTool tests the fallback for unregistered tools */
func TestDispatchUnknownTool(t *testing.T) {
	registry := NewRegistry()

	reply, err := registry.Dispatch(context.Background(), &Call{Name: "time_travel"}, Invocation{})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if reply != "Tool 'time_travel' is not implemented yet." {
		t.Errorf("reply = %q", reply)
	}
}

/* TestDescribeForPrompt tests that the catalog and wire contract are rendered */
func TestDescribeForPrompt(t *testing.T) {
	desc := NewRegistry().DescribeForPrompt()

	for _, want := range []string{
		`{"tool": "tool_name", "args": {...}}`,
		"run_command",
		"web_search",
		"update_persona",
	} {
		if !strings.Contains(desc, want) {
			t.Errorf("prompt description missing %q", want)
		}
	}
}

/* fakeRunner returns a canned classification result */
type fakeRunner struct {
	result *executor.Result
	err    error
	gotCmd string
}

func (r *fakeRunner) ClassifyAndRun(ctx context.Context, command string, requesterID, requesterChatID int64) (*executor.Result, error) {
	r.gotCmd = command
	return r.result, r.err
}

type fakeLookup struct{}

func (l *fakeLookup) GetApprovalRequest(ctx context.Context, id uuid.UUID) (*db.ApprovalRequest, error) {
	return &db.ApprovalRequest{ID: id, Status: db.ApprovalStatusPending}, nil
}

/* fakeNotifier records approval notifications */
type fakeNotifier struct {
	notified []uuid.UUID
}

func (n *fakeNotifier) NotifyApprovalRequest(ctx context.Context, req *db.ApprovalRequest) error {
	n.notified = append(n.notified, req.ID)
	return nil
}

/* TestCommandToolImmediate tests the immediate-output message format */
func TestCommandToolImmediate(t *testing.T) {
	runner := &fakeRunner{result: &executor.Result{Kind: executor.KindImmediate, Output: "hello"}}
	tool := NewCommandTool(runner, &fakeLookup{}, &fakeNotifier{})

	reply, err := tool.Execute(context.Background(),
		map[string]interface{}{"command": "echo hello"}, Invocation{UserID: 1, ChatID: 1})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if reply != "Command output:\n```\nhello\n```" {
		t.Errorf("reply = %q", reply)
	}
	if runner.gotCmd != "echo hello" {
		t.Errorf("runner got command %q", runner.gotCmd)
	}
}

/* TestCommandToolEscalation tests the pending-approval path and notification */
func TestCommandToolEscalation(t *testing.T) {
	id := uuid.New()
	runner := &fakeRunner{result: &executor.Result{Kind: executor.KindPendingApproval, ApprovalID: id}}
	notifier := &fakeNotifier{}
	tool := NewCommandTool(runner, &fakeLookup{}, notifier)

	reply, err := tool.Execute(context.Background(),
		map[string]interface{}{"command": "systemctl restart nginx"}, Invocation{UserID: 1, ChatID: 1})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(reply, "needs admin approval") {
		t.Errorf("reply = %q", reply)
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != id {
		t.Errorf("notified = %v, want [%s]", notifier.notified, id)
	}
}

/* TestCommandToolBlocked tests the blocked message */
func TestCommandToolBlocked(t *testing.T) {
	runner := &fakeRunner{result: &executor.Result{Kind: executor.KindBlocked}}
	tool := NewCommandTool(runner, &fakeLookup{}, &fakeNotifier{})

	reply, err := tool.Execute(context.Background(),
		map[string]interface{}{"command": "rm -rf /"}, Invocation{UserID: 1, ChatID: 1})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if reply != "🚫 That command is blocked for safety reasons." {
		t.Errorf("reply = %q", reply)
	}
}

/* TestCommandToolMissingArgument tests argument validation */
func TestCommandToolMissingArgument(t *testing.T) {
	tool := NewCommandTool(&fakeRunner{}, &fakeLookup{}, &fakeNotifier{})

	if _, err := tool.Execute(context.Background(), map[string]interface{}{}, Invocation{}); err == nil {
		t.Error("Execute with no command returned nil error")
	}
	if _, err := tool.Execute(context.Background(),
		map[string]interface{}{"command": 42}, Invocation{}); err == nil {
		t.Error("Execute with non-string command returned nil error")
	}
}

/* fakePersonaStore records persona updates */
type fakePersonaStore struct {
	files map[string]string
}

func (s *fakePersonaStore) UpdateFile(name, content string) error {
	if s.files == nil {
		s.files = make(map[string]string)
	}
	s.files[name] = content
	return nil
}

/* TestPersonaToolAdminGate tests that non-admins cannot update persona files */
func TestPersonaToolAdminGate(t *testing.T) {
	store := &fakePersonaStore{}
	tool := NewPersonaTool(store)

	reply, err := tool.Execute(context.Background(),
		map[string]interface{}{"file_name": "SOUL", "new_content": "x"},
		Invocation{UserID: 5, IsAdmin: false})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if reply != "❌ Only admins can update persona files." {
		t.Errorf("reply = %q", reply)
	}
	if len(store.files) != 0 {
		t.Errorf("non-admin wrote %d files, want 0", len(store.files))
	}
}

/* TestPersonaToolUpdate tests an admin persona update */
func TestPersonaToolUpdate(t *testing.T) {
	store := &fakePersonaStore{}
	tool := NewPersonaTool(store)

	reply, err := tool.Execute(context.Background(),
		map[string]interface{}{"file_name": "SOUL", "new_content": "# Soul\nBe kind."},
		Invocation{UserID: 5, IsAdmin: true})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(reply, "SOUL updated") {
		t.Errorf("reply = %q", reply)
	}
	if store.files["SOUL"] != "# Soul\nBe kind." {
		t.Errorf("stored content = %q", store.files["SOUL"])
	}
}
