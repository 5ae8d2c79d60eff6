/*-------------------------------------------------------------------------
 *
 * approval_queries.go
 *    Database queries for approval requests
 *
 * Approval requests are an audit trail: rows are created when a command
 * is escalated and resolved exactly once, never deleted.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/db/approval_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

/* Approval request queries */
const (
	createApprovalRequestQuery = `
		INSERT INTO neuronchat.approval_requests (command, requester_id, requester_chat_id)
		VALUES ($1, $2, $3)
		RETURNING *`

	getApprovalRequestQuery = `SELECT * FROM neuronchat.approval_requests WHERE id = $1`

	/* The status guard makes resolution idempotent under concurrent
	 * duplicate callbacks: only the first transition affects a row */
	resolveApprovalRequestQuery = `
		UPDATE neuronchat.approval_requests
		SET status = $2, result = $3
		WHERE id = $1 AND status = 'pending'`

	listApprovalRequestsQuery = `
		SELECT * FROM neuronchat.approval_requests
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
)

/* ErrApprovalNotFound is returned when no approval request has the given ID */
var ErrApprovalNotFound = errors.New("approval request not found")

/* CreateApprovalRequest creates a new pending approval request */
func (q *Queries) CreateApprovalRequest(ctx context.Context, command string, requesterID, requesterChatID int64) (*ApprovalRequest, error) {
	var req ApprovalRequest
	err := q.DB.GetContext(ctx, &req, createApprovalRequestQuery, command, requesterID, requesterChatID)
	if err != nil {
		return nil, fmt.Errorf("approval request creation failed: %w", err)
	}
	return &req, nil
}

/* GetApprovalRequest gets an approval request by ID */
func (q *Queries) GetApprovalRequest(ctx context.Context, id uuid.UUID) (*ApprovalRequest, error) {
	var req ApprovalRequest
	err := q.DB.GetContext(ctx, &req, getApprovalRequestQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrApprovalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval request: %w", err)
	}
	return &req, nil
}

/* ResolveApprovalRequest transitions a pending request to a terminal status.
 * Returns false when the request was already resolved (or absent). */
func (q *Queries) ResolveApprovalRequest(ctx context.Context, id uuid.UUID, status string, result *string) (bool, error) {
	res, err := q.DB.ExecContext(ctx, resolveApprovalRequestQuery, id, status, result)
	if err != nil {
		return false, fmt.Errorf("approval request resolution failed: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

/* ListApprovalRequests lists approval requests, optionally filtered by status */
func (q *Queries) ListApprovalRequests(ctx context.Context, status *string, limit, offset int) ([]ApprovalRequest, error) {
	var requests []ApprovalRequest
	err := q.DB.SelectContext(ctx, &requests, listApprovalRequestsQuery, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval requests: %w", err)
	}
	return requests, nil
}
