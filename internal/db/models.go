/*-------------------------------------------------------------------------
 *
 * models.go
 *    Database models for NeuronChat
 *
 * Defines data structures for users, conversations, messages, and
 * approval requests.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/db/models.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             int64     `db:"id"`
	Username       *string   `db:"username"`
	ProfileSummary string    `db:"profile_summary"`
	Settings       JSONBMap  `db:"settings"`
	CreatedAt      time.Time `db:"created_at"`
}

type Conversation struct {
	ID        uuid.UUID `db:"id"`
	UserID    int64     `db:"user_id"`
	Title     string    `db:"title"`
	Summary   string    `db:"summary"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Message struct {
	ID             uuid.UUID `db:"id"`
	ConversationID uuid.UUID `db:"conversation_id"`
	Role           string    `db:"role"`
	Content        string    `db:"content"`
	TokenCount     int       `db:"token_count"`
	CreatedAt      time.Time `db:"created_at"`
}

/* Approval request statuses. Once a request leaves pending it never returns. */
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusDenied   = "denied"
)

type ApprovalRequest struct {
	ID               uuid.UUID `db:"id"`
	Command          string    `db:"command"`
	RequesterID      int64     `db:"requester_id"`
	RequesterChatID  int64     `db:"requester_chat_id"`
	Status           string    `db:"status"`
	Result           *string   `db:"result"`
	CreatedAt        time.Time `db:"created_at"`
}
