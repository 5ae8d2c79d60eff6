/*-------------------------------------------------------------------------
 *
 * pipeline.go
 *    Turn orchestration for NeuronChat
 *
 * Drives a single conversational turn: resolve the user and their active
 * conversation, persist the incoming message, prune the context window,
 * assemble the prompt, call the model, dispatch any tool call in the
 * reply, and persist the final assistant message. Profile maintenance
 * runs detached every few turns and never blocks the reply.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/agent/pipeline.go
 *
 *-------------------------------------------------------------------------
 */

package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/llm"
	"github.com/neurondb/NeuronChat/internal/metrics"
	"github.com/neurondb/NeuronChat/internal/tools"
)

/* settingsKeyActiveConversation stores the user's current conversation ID */
const settingsKeyActiveConversation = "active_conversation"

/* defaultProfileEvery is the profile maintenance cadence in stored
 * messages, used when the configured interval is absent */
const defaultProfileEvery = 10

/* Store is the slice of the database the pipeline needs */
type Store interface {
	GetOrCreateUser(ctx context.Context, id int64, username *string) (*db.User, error)
	UpdateUserSettings(ctx context.Context, id int64, settings db.JSONBMap) error
	CreateConversation(ctx context.Context, userID int64) (*db.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*db.Conversation, error)
	CreateMessage(ctx context.Context, conversationID uuid.UUID, role, content string, tokenCount int) (*db.Message, error)
	GetMessages(ctx context.Context, conversationID uuid.UUID) ([]db.Message, error)
	CountMessages(ctx context.Context, conversationID uuid.UUID) (int64, error)
}

/* PromptBuilder assembles the system prompt for a turn */
type PromptBuilder interface {
	BuildSystemPrompt(profileSummary, toolInstructions string) string
}

type Pipeline struct {
	store        Store
	model        Summarizer
	prompts      PromptBuilder
	registry     *tools.Registry
	pruner       *ContextManager
	profiler     *Profiler
	profileEvery int64
}

/* NewPipeline wires the turn orchestrator. profileEvery is the profile
 * maintenance cadence in stored messages. */
func NewPipeline(store Store, model Summarizer, prompts PromptBuilder, registry *tools.Registry, pruner *ContextManager, profiler *Profiler, profileEvery int) *Pipeline {
	if profileEvery <= 0 {
		profileEvery = defaultProfileEvery
	}

	return &Pipeline{
		store:        store,
		model:        model,
		prompts:      prompts,
		registry:     registry,
		pruner:       pruner,
		profiler:     profiler,
		profileEvery: int64(profileEvery),
	}
}

/* Turn identifies one incoming message */
type Turn struct {
	UserID   int64
	ChatID   int64
	Username *string
	Text     string
	IsAdmin  bool
}

/* HandleTurn runs one full conversational turn and returns the reply text */
func (p *Pipeline) HandleTurn(ctx context.Context, turn Turn) (string, error) {
	start := time.Now()

	user, err := p.store.GetOrCreateUser(ctx, turn.UserID, turn.Username)
	if err != nil {
		metrics.RecordTurn("text", "error", time.Since(start))
		return "", fmt.Errorf("failed to resolve user: user=%d, error=%w", turn.UserID, err)
	}

	conv, err := p.activeConversation(ctx, user)
	if err != nil {
		metrics.RecordTurn("text", "error", time.Since(start))
		return "", err
	}

	ctx = metrics.WithLogContext(ctx, uuid.NewString(),
		fmt.Sprintf("%d", turn.UserID), conv.ID.String())

	if _, err := p.store.CreateMessage(ctx, conv.ID, llm.RoleUser, turn.Text,
		llm.EstimateTokens(turn.Text)); err != nil {
		metrics.RecordTurn("text", "error", time.Since(start))
		return "", fmt.Errorf("failed to store user message: conversation=%s, error=%w", conv.ID, err)
	}

	/* Prune before building the prompt so the history we send fits */
	if _, err := p.pruner.CheckAndPrune(ctx, conv.ID); err != nil {
		metrics.RecordTurn("text", "error", time.Since(start))
		return "", fmt.Errorf("context prune failed: conversation=%s, error=%w", conv.ID, err)
	}

	history, err := p.store.GetMessages(ctx, conv.ID)
	if err != nil {
		metrics.RecordTurn("text", "error", time.Since(start))
		return "", fmt.Errorf("failed to load history: conversation=%s, error=%w", conv.ID, err)
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: p.prompts.BuildSystemPrompt(user.ProfileSummary, p.registry.DescribeForPrompt()),
	})
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	resp, err := p.model.Chat(ctx, messages)
	if err != nil {
		metrics.RecordTurn("text", "error", time.Since(start))
		return "", fmt.Errorf("model call failed: conversation=%s, error=%w", conv.ID, err)
	}

	reply := resp.Text
	kind := "text"
	if call := tools.ParseToolCall(resp.Text); call != nil {
		kind = "tool"
		reply, err = p.registry.Dispatch(ctx, call, tools.Invocation{
			UserID:  turn.UserID,
			ChatID:  turn.ChatID,
			IsAdmin: turn.IsAdmin,
		})
		if err != nil {
			metrics.ErrorWithContext(ctx, "Tool dispatch failed", err, map[string]interface{}{
				"tool": call.Name,
			})
			reply = fmt.Sprintf("⚠️ The %s tool failed: %v", call.Name, err)
		}
	}

	if _, err := p.store.CreateMessage(ctx, conv.ID, llm.RoleAssistant, reply,
		llm.EstimateTokens(reply)); err != nil {
		metrics.RecordTurn(kind, "error", time.Since(start))
		return "", fmt.Errorf("failed to store assistant message: conversation=%s, error=%w", conv.ID, err)
	}

	p.maybeProfileAsync(ctx, user, conv.ID)

	metrics.RecordTurn(kind, "ok", time.Since(start))

	return reply, nil
}

/* NewConversation starts a fresh conversation and makes it active */
func (p *Pipeline) NewConversation(ctx context.Context, userID int64, username *string) (*db.Conversation, error) {
	user, err := p.store.GetOrCreateUser(ctx, userID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: user=%d, error=%w", userID, err)
	}

	conv, err := p.store.CreateConversation(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: user=%d, error=%w", userID, err)
	}

	settings := user.Settings
	if settings == nil {
		settings = db.JSONBMap{}
	}
	settings[settingsKeyActiveConversation] = conv.ID.String()
	if err := p.store.UpdateUserSettings(ctx, user.ID, settings); err != nil {
		return nil, fmt.Errorf("failed to activate conversation: user=%d, error=%w", userID, err)
	}

	return conv, nil
}

/* SwitchConversation makes an existing conversation active */
func (p *Pipeline) SwitchConversation(ctx context.Context, userID int64, conversationID uuid.UUID) (*db.Conversation, error) {
	user, err := p.store.GetOrCreateUser(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: user=%d, error=%w", userID, err)
	}

	conv, err := p.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: conversation=%s, error=%w", conversationID, err)
	}
	if conv.UserID != user.ID {
		return nil, fmt.Errorf("conversation does not belong to user: conversation=%s, user=%d", conversationID, userID)
	}

	settings := user.Settings
	if settings == nil {
		settings = db.JSONBMap{}
	}
	settings[settingsKeyActiveConversation] = conv.ID.String()
	if err := p.store.UpdateUserSettings(ctx, user.ID, settings); err != nil {
		return nil, fmt.Errorf("failed to activate conversation: user=%d, error=%w", userID, err)
	}

	return conv, nil
}

/* DescribeConversation produces and stores a short display summary */
func (p *Pipeline) DescribeConversation(ctx context.Context, conversationID uuid.UUID) (string, error) {
	return p.pruner.DescribeConversation(ctx, conversationID)
}

/* Settings returns the user's settings map, creating the user if needed */
func (p *Pipeline) Settings(ctx context.Context, userID int64) (db.JSONBMap, error) {
	user, err := p.store.GetOrCreateUser(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: user=%d, error=%w", userID, err)
	}
	if user.Settings == nil {
		return db.JSONBMap{}, nil
	}
	return user.Settings, nil
}

/* SetSetting updates one key in the user's settings map */
func (p *Pipeline) SetSetting(ctx context.Context, userID int64, key string, value interface{}) error {
	user, err := p.store.GetOrCreateUser(ctx, userID, nil)
	if err != nil {
		return fmt.Errorf("failed to resolve user: user=%d, error=%w", userID, err)
	}

	settings := user.Settings
	if settings == nil {
		settings = db.JSONBMap{}
	}
	settings[key] = value
	if err := p.store.UpdateUserSettings(ctx, user.ID, settings); err != nil {
		return fmt.Errorf("failed to update settings: user=%d, error=%w", userID, err)
	}
	return nil
}

/* activeConversation resolves the user's active conversation, creating
 * one when the setting is missing or stale */
func (p *Pipeline) activeConversation(ctx context.Context, user *db.User) (*db.Conversation, error) {
	if raw := user.Settings.GetString(settingsKeyActiveConversation, ""); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			if conv, err := p.store.GetConversation(ctx, id); err == nil && conv.UserID == user.ID {
				return conv, nil
			}
		}
	}

	conv, err := p.store.CreateConversation(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: user=%d, error=%w", user.ID, err)
	}

	settings := user.Settings
	if settings == nil {
		settings = db.JSONBMap{}
	}
	settings[settingsKeyActiveConversation] = conv.ID.String()
	if err := p.store.UpdateUserSettings(ctx, user.ID, settings); err != nil {
		return nil, fmt.Errorf("failed to activate conversation: user=%d, error=%w", user.ID, err)
	}

	return conv, nil
}

/* maybeProfileAsync kicks off detached profile maintenance every
 * profileEvery stored messages */
func (p *Pipeline) maybeProfileAsync(ctx context.Context, user *db.User, conversationID uuid.UUID) {
	if p.profiler == nil {
		return
	}

	count, err := p.store.CountMessages(ctx, conversationID)
	if err != nil || count == 0 || count%p.profileEvery != 0 {
		return
	}

	userID := user.ID
	profile := user.ProfileSummary
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		if _, err := p.profiler.MaybeUpdateProfile(bgCtx, userID, conversationID, profile); err != nil {
			metrics.WarnWithContext(bgCtx, "Background profile update failed", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}()
}
