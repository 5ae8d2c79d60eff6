/*-------------------------------------------------------------------------
 *
 * queries.go
 *    Database queries for NeuronChat
 *
 * Provides query functions for users, conversations, and messages,
 * including the token aggregation and count-based pruning primitives
 * consumed by the context window manager.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/db/queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

/* User queries */
const (
	getOrCreateUserQuery = `
		INSERT INTO neuronchat.users (id, username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET username = COALESCE($2, neuronchat.users.username)
		RETURNING *`

	updateUserProfileQuery = `UPDATE neuronchat.users SET profile_summary = $2 WHERE id = $1`

	updateUserSettingsQuery = `UPDATE neuronchat.users SET settings = $2::jsonb WHERE id = $1`
)

/* Conversation queries */
const (
	createConversationQuery = `
		INSERT INTO neuronchat.conversations (user_id)
		VALUES ($1)
		RETURNING *`

	getConversationQuery = `SELECT * FROM neuronchat.conversations WHERE id = $1`

	listConversationsQuery = `
		SELECT * FROM neuronchat.conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2`

	updateConversationSummaryQuery = `
		UPDATE neuronchat.conversations
		SET summary = $2, updated_at = NOW()
		WHERE id = $1`

	touchConversationQuery = `UPDATE neuronchat.conversations SET updated_at = NOW() WHERE id = $1`
)

/* Message queries */
const (
	createMessageQuery = `
		INSERT INTO neuronchat.messages (conversation_id, role, content, token_count)
		VALUES ($1, $2, $3, $4)
		RETURNING *`

	/* The synthetic summary turn sorts before every surviving message */
	insertSummaryMessageQuery = `
		INSERT INTO neuronchat.messages (conversation_id, role, content, token_count, created_at)
		VALUES ($1, 'system', $2, $3, (
			SELECT COALESCE(MIN(created_at), NOW()) - interval '1 second'
			FROM neuronchat.messages WHERE conversation_id = $1
		))
		RETURNING *`

	getMessagesQuery = `
		SELECT * FROM neuronchat.messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC`

	countMessagesQuery = `SELECT COUNT(*) FROM neuronchat.messages WHERE conversation_id = $1`

	getTotalTokensQuery = `
		SELECT COALESCE(SUM(token_count), 0)
		FROM neuronchat.messages
		WHERE conversation_id = $1`

	/* Deletes all but the newest keep_count messages, computed against the
	 * live count so concurrent appends are tolerated */
	deleteOldestMessagesQuery = `
		DELETE FROM neuronchat.messages
		WHERE id IN (
			SELECT id FROM neuronchat.messages
			WHERE conversation_id = $1
			ORDER BY created_at ASC
			LIMIT (
				SELECT GREATEST(COUNT(*) - $2, 0)
				FROM neuronchat.messages WHERE conversation_id = $1
			)
		)`
)

type Queries struct {
	DB *sqlx.DB
}

/* NewQueries creates a new Queries instance */
func NewQueries(db *sqlx.DB) *Queries {
	return &Queries{DB: db}
}

/* GetOrCreateUser upserts a user row and returns it */
func (q *Queries) GetOrCreateUser(ctx context.Context, id int64, username *string) (*User, error) {
	var user User
	err := q.DB.GetContext(ctx, &user, getOrCreateUserQuery, id, username)
	if err != nil {
		return nil, fmt.Errorf("user upsert failed: user_id=%d, error=%w", id, err)
	}
	return &user, nil
}

/* UpdateUserProfile overwrites a user's profile summary */
func (q *Queries) UpdateUserProfile(ctx context.Context, id int64, profileSummary string) error {
	if _, err := q.DB.ExecContext(ctx, updateUserProfileQuery, id, profileSummary); err != nil {
		return fmt.Errorf("user profile update failed: user_id=%d, error=%w", id, err)
	}
	return nil
}

/* UpdateUserSettings overwrites a user's settings object */
func (q *Queries) UpdateUserSettings(ctx context.Context, id int64, settings JSONBMap) error {
	value, err := settings.Value()
	if err != nil {
		return fmt.Errorf("failed to convert settings: %w", err)
	}
	if _, err := q.DB.ExecContext(ctx, updateUserSettingsQuery, id, value); err != nil {
		return fmt.Errorf("user settings update failed: user_id=%d, error=%w", id, err)
	}
	return nil
}

/* CreateConversation creates a new conversation for a user */
func (q *Queries) CreateConversation(ctx context.Context, userID int64) (*Conversation, error) {
	var conv Conversation
	err := q.DB.GetContext(ctx, &conv, createConversationQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("conversation creation failed: user_id=%d, error=%w", userID, err)
	}
	return &conv, nil
}

/* GetConversation returns a conversation by ID */
func (q *Queries) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var conv Conversation
	err := q.DB.GetContext(ctx, &conv, getConversationQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: conversation_id=%s, error=%w", id, err)
	}
	return &conv, nil
}

/* ListConversations lists a user's conversations, most recently active first */
func (q *Queries) ListConversations(ctx context.Context, userID int64, limit int) ([]Conversation, error) {
	var convs []Conversation
	err := q.DB.SelectContext(ctx, &convs, listConversationsQuery, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: user_id=%d, error=%w", userID, err)
	}
	return convs, nil
}

/* UpdateConversationSummary persists a conversation's display summary */
func (q *Queries) UpdateConversationSummary(ctx context.Context, id uuid.UUID, summary string) error {
	if _, err := q.DB.ExecContext(ctx, updateConversationSummaryQuery, id, summary); err != nil {
		return fmt.Errorf("conversation summary update failed: conversation_id=%s, error=%w", id, err)
	}
	return nil
}

/* CreateMessage appends a message to a conversation */
func (q *Queries) CreateMessage(ctx context.Context, conversationID uuid.UUID, role, content string, tokenCount int) (*Message, error) {
	var msg Message
	err := q.DB.GetContext(ctx, &msg, createMessageQuery, conversationID, role, content, tokenCount)
	if err != nil {
		return nil, fmt.Errorf("message creation failed: conversation_id=%s, error=%w", conversationID, err)
	}

	/* Touch the conversation's updated_at */
	if _, err := q.DB.ExecContext(ctx, touchConversationQuery, conversationID); err != nil {
		return nil, fmt.Errorf("conversation touch failed: conversation_id=%s, error=%w", conversationID, err)
	}

	return &msg, nil
}

/* InsertSummaryMessage inserts a synthetic summary turn at the conversation's head */
func (q *Queries) InsertSummaryMessage(ctx context.Context, conversationID uuid.UUID, content string, tokenCount int) (*Message, error) {
	var msg Message
	err := q.DB.GetContext(ctx, &msg, insertSummaryMessageQuery, conversationID, content, tokenCount)
	if err != nil {
		return nil, fmt.Errorf("summary message insertion failed: conversation_id=%s, error=%w", conversationID, err)
	}
	return &msg, nil
}

/* GetMessages returns a conversation's messages in creation order */
func (q *Queries) GetMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error) {
	var msgs []Message
	err := q.DB.SelectContext(ctx, &msgs, getMessagesQuery, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: conversation_id=%s, error=%w", conversationID, err)
	}
	return msgs, nil
}

/* CountMessages returns the number of messages in a conversation */
func (q *Queries) CountMessages(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	var count int64
	err := q.DB.GetContext(ctx, &count, countMessagesQuery, conversationID)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: conversation_id=%s, error=%w", conversationID, err)
	}
	return count, nil
}

/* GetTotalTokens returns the summed token count of a conversation */
func (q *Queries) GetTotalTokens(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	var total int64
	err := q.DB.GetContext(ctx, &total, getTotalTokensQuery, conversationID)
	if err != nil {
		return 0, fmt.Errorf("failed to get total tokens: conversation_id=%s, error=%w", conversationID, err)
	}
	return total, nil
}

/* DeleteOldestMessages deletes all but the newest keepCount messages */
func (q *Queries) DeleteOldestMessages(ctx context.Context, conversationID uuid.UUID, keepCount int64) (int64, error) {
	result, err := q.DB.ExecContext(ctx, deleteOldestMessagesQuery, conversationID, keepCount)
	if err != nil {
		return 0, fmt.Errorf("message pruning failed: conversation_id=%s, error=%w", conversationID, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return deleted, nil
}
