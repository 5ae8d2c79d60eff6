/*-------------------------------------------------------------------------
 *
 * profile.go
 *    Background user profile maintenance for NeuronChat
 *
 * Periodically asks the model to fold the recent conversation into the
 * user's stored profile summary. The model replies with the full updated
 * profile, or the NO_UPDATE sentinel when nothing new was learned.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/agent/profile.go
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

/* noUpdateSentinel is what the model replies when the profile is current */
const noUpdateSentinel = "NO_UPDATE"

/* profileWindow is how many recent turns feed a profile update */
const profileWindow = 10

const profilePrompt = "You maintain a concise profile of a chat user: their name, preferences, " +
	"ongoing projects, and anything useful to remember across conversations. Given the current " +
	"profile and the recent conversation, reply with the complete updated profile text. If the " +
	"conversation adds nothing worth remembering, reply with exactly NO_UPDATE."

/* ProfileStore is the slice of the store the profiler needs */
type ProfileStore interface {
	GetMessages(ctx context.Context, conversationID uuid.UUID) ([]db.Message, error)
	UpdateUserProfile(ctx context.Context, id int64, profileSummary string) error
}

type Profiler struct {
	store ProfileStore
	model Summarizer
}

/* NewProfiler creates a background profile updater */
func NewProfiler(store ProfileStore, model Summarizer) *Profiler {
	return &Profiler{store: store, model: model}
}

/* MaybeUpdateProfile rebuilds the user's profile from the recent turns of
 * a conversation. Returns true when the profile changed. */
func (p *Profiler) MaybeUpdateProfile(ctx context.Context, userID int64, conversationID uuid.UUID, currentProfile string) (bool, error) {
	messages, err := p.store.GetMessages(ctx, conversationID)
	if err != nil {
		return false, fmt.Errorf("failed to load conversation for profiling: conversation=%s, error=%w", conversationID, err)
	}
	if len(messages) == 0 {
		return false, nil
	}
	if len(messages) > profileWindow {
		messages = messages[len(messages)-profileWindow:]
	}

	var transcript strings.Builder
	transcript.WriteString("Current profile:\n")
	if currentProfile == "" {
		transcript.WriteString("(empty)\n")
	} else {
		transcript.WriteString(currentProfile)
		transcript.WriteByte('\n')
	}
	transcript.WriteString("\nRecent conversation:\n")
	for _, msg := range messages {
		transcript.WriteString(msg.Role)
		transcript.WriteString(": ")
		transcript.WriteString(msg.Content)
		transcript.WriteByte('\n')
	}

	resp, err := p.model.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: profilePrompt},
		{Role: llm.RoleUser, Content: transcript.String()},
	})
	if err != nil {
		metrics.RecordProfileUpdate("error")
		return false, fmt.Errorf("profile update failed: user=%d, error=%w", userID, err)
	}

	updated := strings.TrimSpace(resp.Text)
	if updated == "" || updated == noUpdateSentinel {
		metrics.RecordProfileUpdate("no_update")
		return false, nil
	}

	if err := p.store.UpdateUserProfile(ctx, userID, updated); err != nil {
		metrics.RecordProfileUpdate("error")
		return false, fmt.Errorf("failed to store profile: user=%d, error=%w", userID, err)
	}

	metrics.RecordProfileUpdate("updated")
	return true, nil
}
