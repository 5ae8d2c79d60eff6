/*-------------------------------------------------------------------------
 *
 * migrations.go
 *    Schema migrations for NeuronChat
 *
 * Creates the neuronchat schema and its tables on startup. Each statement
 * runs as a separate query (Postgres rejects multiple commands in a single
 * prepared statement).
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/db/migrations.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"
)

var migrationStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS neuronchat`,

	`CREATE TABLE IF NOT EXISTS neuronchat.users (
		id BIGINT PRIMARY KEY,
		username TEXT,
		profile_summary TEXT NOT NULL DEFAULT '',
		settings JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS neuronchat.conversations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id BIGINT NOT NULL REFERENCES neuronchat.users(id),
		title TEXT NOT NULL DEFAULT 'New Chat',
		summary TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS neuronchat.messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		conversation_id UUID NOT NULL REFERENCES neuronchat.conversations(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		token_count INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS neuronchat.approval_requests (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		command TEXT NOT NULL,
		requester_id BIGINT NOT NULL,
		requester_chat_id BIGINT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		result TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_conv ON neuronchat.messages(conversation_id, created_at)`,

	`CREATE INDEX IF NOT EXISTS idx_conversations_user ON neuronchat.conversations(user_id, updated_at DESC)`,

	`CREATE INDEX IF NOT EXISTS idx_approval_requests_status ON neuronchat.approval_requests(status, created_at)`,
}

/* RunMigrations applies the schema statements in order */
func (d *DB) RunMigrations(ctx context.Context) error {
	for i, stmt := range migrationStatements {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i+1, err)
		}
	}
	return nil
}
