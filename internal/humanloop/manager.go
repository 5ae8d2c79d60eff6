/*-------------------------------------------------------------------------
 *
 * manager.go
 *    Approval request resolution for NeuronChat
 *
 * Resolves pending approval requests created by the command executor.
 * Only admins may resolve; resolution is idempotent (the first resolver
 * wins, guarded by a conditional status update in the store). Approving
 * runs the command and records the request as approved even when the
 * command itself fails, so the audit trail reflects the admin decision
 * rather than the execution outcome.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/humanloop/manager.go
 *
 *-------------------------------------------------------------------------
 */

package humanloop

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/metrics"
)

/* Store persists approval requests */
type Store interface {
	GetApprovalRequest(ctx context.Context, id uuid.UUID) (*db.ApprovalRequest, error)
	ResolveApprovalRequest(ctx context.Context, id uuid.UUID, status string, result *string) (bool, error)
}

/* Runner executes an approved command */
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

/* Notifier delivers resolution outcomes back to the requester */
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Manager struct {
	store    Store
	runner   Runner
	notifier Notifier
	adminIDs map[int64]struct{}
}

/* NewManager creates an approval manager with a fixed admin set */
func NewManager(store Store, runner Runner, notifier Notifier, adminIDs []int64) *Manager {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}

	return &Manager{
		store:    store,
		runner:   runner,
		notifier: notifier,
		adminIDs: admins,
	}
}

/* IsAdmin reports whether a user may resolve approval requests */
func (m *Manager) IsAdmin(userID int64) bool {
	_, ok := m.adminIDs[userID]
	return ok
}

/* Resolve applies an admin decision to a pending approval request and
 * returns the message to show the resolver */
func (m *Manager) Resolve(ctx context.Context, id uuid.UUID, approved bool, resolverID int64) (string, error) {
	if !m.IsAdmin(resolverID) {
		metrics.WarnWithContext(ctx, "Non-admin attempted approval resolution", map[string]interface{}{
			"approval_id": id.String(),
			"resolver_id": resolverID,
		})
		return "You are not an admin.", nil
	}

	req, err := m.store.GetApprovalRequest(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrApprovalNotFound) {
			return "Approval request not found.", nil
		}
		return "", fmt.Errorf("failed to load approval request: id=%s, error=%w", id, err)
	}

	if req.Status != db.ApprovalStatusPending {
		return fmt.Sprintf("This request was already %s.", req.Status), nil
	}

	if !approved {
		return m.deny(ctx, req)
	}
	return m.approve(ctx, req)
}

func (m *Manager) approve(ctx context.Context, req *db.ApprovalRequest) (string, error) {
	/* The decision is "approved" regardless of how the command fares;
	 * execution failure goes into the recorded result */
	output, runErr := m.runner.Run(ctx, req.Command)
	if runErr != nil {
		output = fmt.Sprintf("Execution failed: %v", runErr)
	}

	resolved, err := m.store.ResolveApprovalRequest(ctx, req.ID, db.ApprovalStatusApproved, &output)
	if err != nil {
		return "", fmt.Errorf("failed to resolve approval request: id=%s, error=%w", req.ID, err)
	}
	if !resolved {
		/* Another admin got there first */
		return "This request was already resolved.", nil
	}

	metrics.RecordApprovalResolved("approved")
	metrics.InfoWithContext(ctx, "Approval request approved", map[string]interface{}{
		"approval_id": req.ID.String(),
		"command":     req.Command,
	})

	text := fmt.Sprintf("✅ Your command was approved:\n```\n%s\n```\n\nCommand output:\n```\n%s\n```",
		req.Command, output)
	if err := m.notifier.SendText(ctx, req.RequesterChatID, text); err != nil {
		metrics.WarnWithContext(ctx, "Failed to notify requester of approval", map[string]interface{}{
			"approval_id": req.ID.String(),
			"error":       err.Error(),
		})
	}

	if runErr != nil {
		return fmt.Sprintf("Approved, but execution failed: %v", runErr), nil
	}
	return "Approved and executed.", nil
}

func (m *Manager) deny(ctx context.Context, req *db.ApprovalRequest) (string, error) {
	resolved, err := m.store.ResolveApprovalRequest(ctx, req.ID, db.ApprovalStatusDenied, nil)
	if err != nil {
		return "", fmt.Errorf("failed to resolve approval request: id=%s, error=%w", req.ID, err)
	}
	if !resolved {
		return "This request was already resolved.", nil
	}

	metrics.RecordApprovalResolved("denied")
	metrics.InfoWithContext(ctx, "Approval request denied", map[string]interface{}{
		"approval_id": req.ID.String(),
		"command":     req.Command,
	})

	if err := m.notifier.SendText(ctx, req.RequesterChatID,
		fmt.Sprintf("❌ Your command was denied by an admin:\n```\n%s\n```", req.Command)); err != nil {
		metrics.WarnWithContext(ctx, "Failed to notify requester of denial", map[string]interface{}{
			"approval_id": req.ID.String(),
			"error":       err.Error(),
		})
	}

	return "Denied.", nil
}
