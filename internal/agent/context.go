/*-------------------------------------------------------------------------
 *
 * context.go
 *    Conversation context window management for NeuronChat
 *
 * Keeps a conversation's stored history under the model's token budget.
 * When the running total exceeds the budget, the oldest half of the
 * turns is summarized by the model, the summarized turns are deleted,
 * and the summary is inserted at the head of the remaining history so
 * the model keeps long-range context at a fraction of the tokens.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/agent/context.go
 *
 *-------------------------------------------------------------------------
 */

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/llm"
	"github.com/neurondb/NeuronChat/internal/metrics"
)

const summarizationPrompt = "Summarize the following conversation into a concise paragraph. " +
	"Preserve key facts, decisions, and any important user information."

/* minTurnsBeforePrune keeps short conversations intact even when a few
 * huge turns blow the budget; summarizing two turns loses more than it
 * saves */
const minTurnsBeforePrune = 4

/* ContextStore is the slice of the message store the pruner needs */
type ContextStore interface {
	GetMessages(ctx context.Context, conversationID uuid.UUID) ([]db.Message, error)
	GetTotalTokens(ctx context.Context, conversationID uuid.UUID) (int64, error)
	DeleteOldestMessages(ctx context.Context, conversationID uuid.UUID, keepCount int64) (int64, error)
	InsertSummaryMessage(ctx context.Context, conversationID uuid.UUID, content string, tokenCount int) (*db.Message, error)
	UpdateConversationSummary(ctx context.Context, id uuid.UUID, summary string) error
}

/* Summarizer produces a summary of a conversation transcript */
type Summarizer interface {
	Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error)
}

type ContextManager struct {
	store      ContextStore
	summarizer Summarizer
	maxTokens  int64
}

/* NewContextManager creates a pruner with a fixed token budget */
func NewContextManager(store ContextStore, summarizer Summarizer, maxTokens int64) *ContextManager {
	return &ContextManager{
		store:      store,
		summarizer: summarizer,
		maxTokens:  maxTokens,
	}
}

/* CheckAndPrune prunes the conversation when it exceeds the token budget.
 * Returns true when a prune happened. */
func (m *ContextManager) CheckAndPrune(ctx context.Context, conversationID uuid.UUID) (bool, error) {
	total, err := m.store.GetTotalTokens(ctx, conversationID)
	if err != nil {
		return false, fmt.Errorf("failed to count conversation tokens: conversation=%s, error=%w", conversationID, err)
	}
	/* Prune at the budget, not only past it */
	if total < m.maxTokens {
		return false, nil
	}

	messages, err := m.store.GetMessages(ctx, conversationID)
	if err != nil {
		return false, fmt.Errorf("failed to load conversation: conversation=%s, error=%w", conversationID, err)
	}
	if len(messages) <= minTurnsBeforePrune {
		return false, nil
	}

	half := len(messages) / 2
	oldest := messages[:half]

	summary, err := m.summarize(ctx, oldest)
	if err != nil {
		return false, fmt.Errorf("failed to summarize conversation: conversation=%s, error=%w", conversationID, err)
	}

	/* Delete first, then insert the summary at the head of what remains.
	 * keepCount is taken against the live count so concurrent inserts
	 * since GetMessages are never deleted. */
	keepCount := int64(len(messages) - half)
	deleted, err := m.store.DeleteOldestMessages(ctx, conversationID, keepCount)
	if err != nil {
		return false, fmt.Errorf("failed to delete pruned messages: conversation=%s, error=%w", conversationID, err)
	}

	summaryContent := "[Previous conversation summary]: " + summary
	if _, err := m.store.InsertSummaryMessage(ctx, conversationID, summaryContent,
		llm.EstimateTokens(summaryContent)); err != nil {
		return false, fmt.Errorf("failed to insert summary message: conversation=%s, error=%w", conversationID, err)
	}

	if err := m.store.UpdateConversationSummary(ctx, conversationID, summary); err != nil {
		return false, fmt.Errorf("failed to update conversation summary: conversation=%s, error=%w", conversationID, err)
	}

	metrics.RecordContextPrune()
	metrics.InfoWithContext(ctx, "Conversation context pruned", map[string]interface{}{
		"conversation_id": conversationID.String(),
		"total_tokens":    total,
		"deleted":         deleted,
	})

	return true, nil
}

/* DescribeConversation produces a short display summary of the last few
 * turns for history listings, and stores it on the conversation */
func (m *ContextManager) DescribeConversation(ctx context.Context, conversationID uuid.UUID) (string, error) {
	messages, err := m.store.GetMessages(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation: conversation=%s, error=%w", conversationID, err)
	}
	if len(messages) == 0 {
		return "", nil
	}
	if len(messages) > 10 {
		messages = messages[len(messages)-10:]
	}

	var transcript strings.Builder
	for _, msg := range messages {
		transcript.WriteString(msg.Role)
		transcript.WriteString(": ")
		transcript.WriteString(msg.Content)
		transcript.WriteByte('\n')
	}

	resp, err := m.summarizer.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "Summarize this conversation in one or two short sentences for a history list."},
		{Role: llm.RoleUser, Content: transcript.String()},
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe conversation: conversation=%s, error=%w", conversationID, err)
	}

	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return "", nil
	}
	if err := m.store.UpdateConversationSummary(ctx, conversationID, summary); err != nil {
		return "", fmt.Errorf("failed to store display summary: conversation=%s, error=%w", conversationID, err)
	}

	return summary, nil
}

func (m *ContextManager) summarize(ctx context.Context, messages []db.Message) (string, error) {
	var transcript strings.Builder
	for _, msg := range messages {
		transcript.WriteString(msg.Role)
		transcript.WriteString(": ")
		transcript.WriteString(msg.Content)
		transcript.WriteByte('\n')
	}

	resp, err := m.summarizer.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: summarizationPrompt},
		{Role: llm.RoleUser, Content: transcript.String()},
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.Text), nil
}
