/*-------------------------------------------------------------------------
 *
 * executor.go
 *    Command risk classification and execution for NeuronChat
 *
 * Classifies a requested shell command against a deny-list of catastrophic
 * patterns and an allow-list of read-only commands. Safe commands run
 * immediately with output capture and a hard timeout; everything else is
 * escalated into a pending approval request. The deny-list check is
 * unconditional and cannot be overridden by approval.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/executor/executor.go
 *
 *-------------------------------------------------------------------------
 */

package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/metrics"
)

/* Classification outcomes */
type Kind int

const (
	/* KindImmediate means the command was safe and executed */
	KindImmediate Kind = iota
	/* KindPendingApproval means the command awaits admin approval */
	KindPendingApproval
	/* KindBlocked means the command is permanently blocked */
	KindBlocked
)

/* Result is the outcome of classifying (and possibly running) a command */
type Result struct {
	Kind       Kind
	Output     string
	ApprovalID uuid.UUID
}

/* Store persists approval requests for escalated commands */
type Store interface {
	CreateApprovalRequest(ctx context.Context, command string, requesterID, requesterChatID int64) (*db.ApprovalRequest, error)
}

type Executor struct {
	store     Store
	allowed   map[string]struct{}
	blocked   []string
	timeout   time.Duration
	maxOutput int
}

/* NewExecutor creates an executor with immutable allow/deny lists */
func NewExecutor(store Store, allowedCommands, blockedPatterns []string, timeout time.Duration, maxOutput int) *Executor {
	allowed := make(map[string]struct{}, len(allowedCommands))
	for _, cmd := range allowedCommands {
		allowed[cmd] = struct{}{}
	}

	return &Executor{
		store:     store,
		allowed:   allowed,
		blocked:   blockedPatterns,
		timeout:   timeout,
		maxOutput: maxOutput,
	}
}

/* ClassifyAndRun classifies a command and either runs it, escalates it
 * into an approval request, or blocks it */
func (e *Executor) ClassifyAndRun(ctx context.Context, command string, requesterID, requesterChatID int64) (*Result, error) {
	trimmed := strings.TrimSpace(command)

	/* Blocked patterns win over everything, no record is created */
	for _, pattern := range e.blocked {
		if strings.Contains(trimmed, pattern) {
			metrics.WarnWithContext(ctx, "Blocked command rejected", map[string]interface{}{
				"requester_id": requesterID,
				"command":      trimmed,
			})
			metrics.RecordCommand("blocked")
			return &Result{Kind: KindBlocked}, nil
		}
	}

	base := ""
	if fields := strings.Fields(trimmed); len(fields) > 0 {
		base = fields[0]
	}

	if _, ok := e.allowed[base]; ok {
		output, err := e.Run(ctx, trimmed)
		if err != nil {
			return nil, err
		}
		metrics.RecordCommand("immediate")
		return &Result{Kind: KindImmediate, Output: output}, nil
	}

	/* Risky: persist a pending approval request, no execution yet */
	req, err := e.store.CreateApprovalRequest(ctx, trimmed, requesterID, requesterChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to escalate command: %w", err)
	}

	metrics.InfoWithContext(ctx, "Approval request created", map[string]interface{}{
		"approval_id":  req.ID.String(),
		"requester_id": requesterID,
		"command":      trimmed,
	})
	metrics.RecordCommand("escalated")

	return &Result{Kind: KindPendingApproval, ApprovalID: req.ID}, nil
}

/* Run executes a shell command and captures output, bounded by the
 * configured wall-clock timeout */
func (e *Executor) Run(ctx context.Context, command string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "bash", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	metrics.RecordCommandDuration(time.Since(start))

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("command timed out after %s", e.timeout)
	}

	var result strings.Builder
	if stdout.Len() > 0 {
		result.Write(stdout.Bytes())
	}
	if stderr.Len() > 0 {
		if result.Len() > 0 {
			result.WriteByte('\n')
		}
		result.WriteString("STDERR: ")
		result.Write(stderr.Bytes())
	}

	/* Non-zero exit is still useful output; only report errors that
	 * prevented execution entirely */
	if err != nil && result.Len() == 0 {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("failed to execute command: %w", err)
		}
	}

	output := result.String()
	if len(output) > e.maxOutput {
		output = output[:e.maxOutput] + "\n... (output truncated)"
	}

	return output, nil
}
