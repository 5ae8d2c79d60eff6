/*-------------------------------------------------------------------------
 *
 * notify.go
 *    Outbound notifications for NeuronChat
 *
 * Implements the notifier interfaces the approval flow depends on:
 * plain text delivery to a chat, and pending-request announcements to
 * the admin group with inline Approve/Deny buttons.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/bot/notify.go
 *
 *-------------------------------------------------------------------------
 */

package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/neurondb/NeuronChat/internal/db"
)

/* SendText delivers a plain message to a chat */
func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		/* Markdown in command output can break parsing; retry plain */
		plain := tgbotapi.NewMessage(chatID, text)
		if _, err := b.api.Send(plain); err != nil {
			return fmt.Errorf("failed to send message: chat=%d, error=%w", chatID, err)
		}
	}
	return nil
}

/* NotifyApprovalRequest announces a pending request to the admin group */
func (b *Bot) NotifyApprovalRequest(ctx context.Context, req *db.ApprovalRequest) error {
	text := fmt.Sprintf(
		"🔐 Command approval requested\n\nUser: %d\nCommand:\n```\n%s\n```",
		req.RequesterID, req.Command)

	msg := tgbotapi.NewMessage(b.adminGroupID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", "approve:"+req.ID.String()),
			tgbotapi.NewInlineKeyboardButtonData("❌ Deny", "deny:"+req.ID.String()),
		),
	)

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to notify admin group: approval=%s, error=%w", req.ID, err)
	}
	return nil
}
