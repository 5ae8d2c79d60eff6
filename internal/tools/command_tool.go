/*-------------------------------------------------------------------------
 *
 * command_tool.go
 *    run_command tool handler for NeuronChat
 *
 * Bridges tool invocations into the command executor and renders the
 * classification outcome as a user-facing message. Escalated commands
 * additionally notify the admin channel through the ApprovalNotifier.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/tools/command_tool.go
 *
 *-------------------------------------------------------------------------
 */

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/executor"
	"github.com/neurondb/NeuronChat/internal/metrics"
)

/* Runner classifies and executes shell commands */
type Runner interface {
	ClassifyAndRun(ctx context.Context, command string, requesterID, requesterChatID int64) (*executor.Result, error)
}

/* ApprovalNotifier pushes a pending approval request to the admin channel */
type ApprovalNotifier interface {
	NotifyApprovalRequest(ctx context.Context, req *db.ApprovalRequest) error
}

/* ApprovalLookup fetches an approval request by ID for notification */
type ApprovalLookup interface {
	GetApprovalRequest(ctx context.Context, id uuid.UUID) (*db.ApprovalRequest, error)
}

/* CommandTool implements the run_command tool */
type CommandTool struct {
	runner   Runner
	lookup   ApprovalLookup
	notifier ApprovalNotifier
}

func NewCommandTool(runner Runner, lookup ApprovalLookup, notifier ApprovalNotifier) *CommandTool {
	return &CommandTool{
		runner:   runner,
		lookup:   lookup,
		notifier: notifier,
	}
}

/* Execute runs the command through the classifier and renders the outcome */
func (t *CommandTool) Execute(ctx context.Context, args map[string]interface{}, inv Invocation) (string, error) {
	command, err := StringArg(args, "command")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("missing required argument 'command'")
	}

	result, err := t.runner.ClassifyAndRun(ctx, command, inv.UserID, inv.ChatID)
	if err != nil {
		return "", fmt.Errorf("failed to run command: %w", err)
	}

	switch result.Kind {
	case executor.KindImmediate:
		return fmt.Sprintf("Command output:\n```\n%s\n```", result.Output), nil

	case executor.KindPendingApproval:
		if t.notifier != nil && t.lookup != nil {
			req, lookupErr := t.lookup.GetApprovalRequest(ctx, result.ApprovalID)
			if lookupErr == nil {
				if notifyErr := t.notifier.NotifyApprovalRequest(ctx, req); notifyErr != nil {
					metrics.WarnWithContext(ctx, "Failed to notify admins of approval request", map[string]interface{}{
						"approval_id": result.ApprovalID.String(),
						"error":       notifyErr.Error(),
					})
				}
			}
		}
		return "⏳ That command needs admin approval. I've sent the request.", nil

	case executor.KindBlocked:
		return "🚫 That command is blocked for safety reasons.", nil

	default:
		return "", fmt.Errorf("unexpected classification kind: kind=%d", result.Kind)
	}
}
