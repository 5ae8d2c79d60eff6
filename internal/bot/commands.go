/*-------------------------------------------------------------------------
 *
 * commands.go
 *    Slash command handling for NeuronChat
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/bot/commands.go
 *
 *-------------------------------------------------------------------------
 */

package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/neurondb/NeuronChat/internal/metrics"
)

const helpText = `Here's what I can do:

/start — introduce myself
/new — start a fresh conversation
/history — list your recent conversations
/settings — show your settings
/help — this message

Just send me a message to chat. I can also run commands on my server when you ask; risky ones go to an admin for approval.`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.send(ctx, msg.Chat.ID,
			"👋 Hi! I'm Neuron. Ask me anything, or ask me to run a command on my server.\n\nUse /help to see what I can do.")

	case "new":
		var username *string
		if msg.From.UserName != "" {
			name := msg.From.UserName
			username = &name
		}
		if _, err := b.pipeline.NewConversation(ctx, msg.From.ID, username); err != nil {
			metrics.ErrorWithContext(ctx, "Failed to start conversation", err, map[string]interface{}{
				"user_id": msg.From.ID,
			})
			b.send(ctx, msg.Chat.ID, "⚠️ Could not start a new conversation.")
			return
		}
		b.send(ctx, msg.Chat.ID, "🆕 Fresh conversation started.")

	case "history":
		b.sendHistory(ctx, msg)

	case "settings":
		b.sendSettings(ctx, msg)

	case "help":
		b.send(ctx, msg.Chat.ID, helpText)

	default:
		b.send(ctx, msg.Chat.ID, "Unknown command. Try /help.")
	}
}

/* truncateLabel caps a button label at max runes, never splitting a
 * multi-byte character */
func truncateLabel(label string, max int) string {
	runes := []rune(label)
	if len(runes) <= max {
		return label
	}
	return string(runes[:max]) + "…"
}

/* sendSettings shows the user's settings with response mode buttons */
func (b *Bot) sendSettings(ctx context.Context, msg *tgbotapi.Message) {
	admin := "no"
	if b.cfg.IsAdmin(msg.From.ID) {
		admin = "yes"
	}
	mode := b.responseMode(ctx, msg.From.ID)

	out := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(
		"Your settings:\n- model: %s\n- context budget: %d tokens\n- response mode: %s\n- admin: %s",
		b.cfg.LLM.Model, b.cfg.Agent.MaxContextTokens, mode, admin))
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Text replies", "set_mode:"+responseModeText),
			tgbotapi.NewInlineKeyboardButtonData("🔊 Voice replies", "set_mode:"+responseModeVoice),
		),
	)
	if _, err := b.api.Send(out); err != nil {
		metrics.ErrorWithContext(ctx, "Failed to send settings", err, map[string]interface{}{
			"chat_id": msg.Chat.ID,
		})
	}
}

/* sendHistory lists recent conversations with switch buttons */
func (b *Bot) sendHistory(ctx context.Context, msg *tgbotapi.Message) {
	conversations, err := b.lister.ListConversations(ctx, msg.From.ID, 10)
	if err != nil {
		metrics.ErrorWithContext(ctx, "Failed to list conversations", err, map[string]interface{}{
			"user_id": msg.From.ID,
		})
		b.send(ctx, msg.Chat.ID, "⚠️ Could not load your history.")
		return
	}
	if len(conversations) == 0 {
		b.send(ctx, msg.Chat.ID, "No conversations yet. Just send me a message!")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, conv := range conversations {
		label := conv.Summary
		if label == "" {
			/* Generate a display summary on demand; fall back to the title */
			if summary, err := b.pipeline.DescribeConversation(ctx, conv.ID); err == nil {
				label = summary
			}
		}
		if label == "" {
			label = conv.Title
		}
		if label == "" {
			label = "(no summary yet)"
		}
		label = truncateLabel(label, 40)
		label = fmt.Sprintf("%s — %s", conv.UpdatedAt.Format("Jan 2"), label)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "conv:"+conv.ID.String()),
		))
	}

	out := tgbotapi.NewMessage(msg.Chat.ID,
		fmt.Sprintf("Your last %d conversations — tap one to resume:", len(conversations)))
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(out); err != nil {
		metrics.ErrorWithContext(ctx, "Failed to send history", err, map[string]interface{}{
			"chat_id": msg.Chat.ID,
		})
	}
}
