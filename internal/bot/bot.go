/*-------------------------------------------------------------------------
 *
 * bot.go
 *    Telegram transport for NeuronChat
 *
 * Runs the long-polling update loop and routes incoming traffic: slash
 * commands, plain text turns, and inline-keyboard callbacks for approval
 * resolution and conversation switching. Each update is handled in its
 * own goroutine so a slow model call never blocks other users.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/bot/bot.go
 *
 *-------------------------------------------------------------------------
 */

package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/neurondb/NeuronChat/internal/agent"
	"github.com/neurondb/NeuronChat/internal/config"
	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/humanloop"
	"github.com/neurondb/NeuronChat/internal/metrics"
)

/* ConversationLister is the slice of the store the /history command needs */
type ConversationLister interface {
	ListConversations(ctx context.Context, userID int64, limit int) ([]db.Conversation, error)
}

/* Response modes stored in user settings */
const (
	settingsKeyResponseMode = "response_mode"
	responseModeText        = "text"
	responseModeVoice       = "voice"
)

type Bot struct {
	api          *tgbotapi.BotAPI
	pipeline     *agent.Pipeline
	approvals    *humanloop.Manager
	lister       ConversationLister
	transcriber  Transcriber
	synthesizer  Synthesizer
	adminGroupID int64
	cfg          *config.Config
}

/* NewBot authenticates against the Telegram API and wires the handlers.
 * The approval manager is attached afterwards with SetApprovals since it
 * needs the bot as its notifier. */
func NewBot(cfg *config.Config, pipeline *agent.Pipeline, lister ConversationLister) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate bot: %w", err)
	}

	metrics.InfoWithContext(context.Background(), "Telegram bot authenticated", map[string]interface{}{
		"username": api.Self.UserName,
	})

	return &Bot{
		api:          api,
		pipeline:     pipeline,
		lister:       lister,
		adminGroupID: cfg.Telegram.AdminGroupID,
		cfg:          cfg,
	}, nil
}

/* SetApprovals attaches the approval manager */
func (b *Bot) SetApprovals(approvals *humanloop.Manager) {
	b.approvals = approvals
}

/* Run polls for updates until the context is cancelled */
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := b.api.GetUpdatesChan(updateConfig)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ErrorWithContext(ctx, "Panic in update handler",
				fmt.Errorf("%v", r), nil)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	text := msg.Text
	if msg.Voice != nil {
		if b.transcriber == nil {
			b.send(ctx, msg.Chat.ID, "🎤 Sorry, I can't listen to voice messages right now.")
			return
		}
		transcribed, err := b.transcribeVoice(ctx, msg.Voice)
		if err != nil {
			metrics.ErrorWithContext(ctx, "Voice transcription failed", err, map[string]interface{}{
				"user_id": msg.From.ID,
			})
			b.send(ctx, msg.Chat.ID, "🎤 I couldn't make out that voice message. Try again?")
			return
		}
		text = transcribed
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	/* Show "typing..." while the model works */
	if _, err := b.api.Request(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)); err != nil {
		metrics.DebugWithContext(ctx, "Failed to send chat action", map[string]interface{}{
			"error": err.Error(),
		})
	}

	var username *string
	if msg.From.UserName != "" {
		name := msg.From.UserName
		username = &name
	}

	reply, err := b.pipeline.HandleTurn(ctx, agent.Turn{
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Username: username,
		Text:     text,
		IsAdmin:  b.cfg.IsAdmin(msg.From.ID),
	})
	if err != nil {
		metrics.ErrorWithContext(ctx, "Turn failed", err, map[string]interface{}{
			"user_id": msg.From.ID,
		})
		b.send(ctx, msg.Chat.ID, "⚠️ Something went wrong. Please try again.")
		return
	}

	b.deliver(ctx, msg.Chat.ID, msg.From.ID, reply)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	action, payload, ok := splitCallback(cb.Data)
	if !ok {
		b.answerCallback(ctx, cb.ID, "Unrecognized action.")
		return
	}

	switch action {
	case "approve", "deny":
		if b.approvals == nil {
			b.answerCallback(ctx, cb.ID, "Approvals are not available right now.")
			return
		}
		id, err := uuid.Parse(payload)
		if err != nil {
			b.answerCallback(ctx, cb.ID, "Malformed request ID.")
			return
		}
		result, err := b.approvals.Resolve(ctx, id, action == "approve", cb.From.ID)
		if err != nil {
			metrics.ErrorWithContext(ctx, "Approval resolution failed", err, map[string]interface{}{
				"approval_id": payload,
			})
			result = "⚠️ Resolution failed. Please try again."
		}
		b.answerCallback(ctx, cb.ID, result)
		b.clearKeyboard(ctx, cb)

	case "conv":
		id, err := uuid.Parse(payload)
		if err != nil {
			b.answerCallback(ctx, cb.ID, "Malformed conversation ID.")
			return
		}
		conv, err := b.pipeline.SwitchConversation(ctx, cb.From.ID, id)
		if err != nil {
			b.answerCallback(ctx, cb.ID, "Could not switch conversation.")
			return
		}
		b.answerCallback(ctx, cb.ID, "Switched.")
		b.send(ctx, cb.Message.Chat.ID,
			fmt.Sprintf("Resumed conversation from %s.", conv.UpdatedAt.Format("Jan 2 15:04")))

	case "set_mode":
		if payload != responseModeText && payload != responseModeVoice {
			b.answerCallback(ctx, cb.ID, "Unknown response mode.")
			return
		}
		if err := b.pipeline.SetSetting(ctx, cb.From.ID, settingsKeyResponseMode, payload); err != nil {
			metrics.ErrorWithContext(ctx, "Failed to set response mode", err, map[string]interface{}{
				"user_id": cb.From.ID,
			})
			b.answerCallback(ctx, cb.ID, "Could not save that setting.")
			return
		}
		b.answerCallback(ctx, cb.ID, fmt.Sprintf("Response mode set to %s.", payload))

	default:
		b.answerCallback(ctx, cb.ID, "Unrecognized action.")
	}
}

/* splitCallback splits "action:payload" callback data */
func splitCallback(data string) (action, payload string, ok bool) {
	idx := strings.IndexByte(data, ':')
	if idx <= 0 || idx == len(data)-1 {
		return "", "", false
	}
	return data[:idx], data[idx+1:], true
}

func (b *Bot) answerCallback(ctx context.Context, callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		metrics.DebugWithContext(ctx, "Failed to answer callback", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

/* clearKeyboard removes the inline keyboard from a resolved approval message */
func (b *Bot) clearKeyboard(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := b.api.Request(edit); err != nil {
		metrics.DebugWithContext(ctx, "Failed to clear keyboard", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

/* send delivers a message, downgrading to plain text when Markdown fails */
func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		plain := tgbotapi.NewMessage(chatID, text)
		if _, err := b.api.Send(plain); err != nil {
			metrics.ErrorWithContext(ctx, "Failed to send message", err, map[string]interface{}{
				"chat_id": chatID,
			})
		}
	}
}
