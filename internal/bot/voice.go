/*-------------------------------------------------------------------------
 *
 * voice.go
 *    Optional voice message support for NeuronChat
 *
 * Speech engines are external collaborators: a Transcriber turns an
 * incoming voice note into a text turn, a Synthesizer turns the reply
 * into audio when the user's response mode is "voice". Both are
 * optional; without them voice notes are politely declined and replies
 * stay textual.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/bot/voice.go
 *
 *-------------------------------------------------------------------------
 */

package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/neurondb/NeuronChat/internal/metrics"
)

/* Transcriber converts voice note audio to text */
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

/* Synthesizer converts reply text to voice note audio */
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

/* SetVoice attaches optional speech engines */
func (b *Bot) SetVoice(transcriber Transcriber, synthesizer Synthesizer) {
	b.transcriber = transcriber
	b.synthesizer = synthesizer
}

/* transcribeVoice downloads a voice note and runs it through the transcriber */
func (b *Bot) transcribeVoice(ctx context.Context, voice *tgbotapi.Voice) (string, error) {
	fileURL, err := b.api.GetFileDirectURL(voice.FileID)
	if err != nil {
		return "", fmt.Errorf("failed to locate voice file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download voice file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download voice file: status=%d", resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read voice file: %w", err)
	}

	text, err := b.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return text, nil
}

/* deliver sends a reply as text or, when the user prefers voice and a
 * synthesizer is attached, as a voice note with text fallback */
func (b *Bot) deliver(ctx context.Context, chatID, userID int64, reply string) {
	if b.synthesizer != nil && b.responseMode(ctx, userID) == responseModeVoice {
		audio, err := b.synthesizer.Synthesize(ctx, reply)
		if err == nil {
			voice := tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{Name: "reply.ogg", Bytes: audio})
			if _, err := b.api.Send(voice); err == nil {
				return
			}
		}
		metrics.DebugWithContext(ctx, "Voice synthesis unavailable, falling back to text", map[string]interface{}{
			"user_id": userID,
		})
	}

	b.send(ctx, chatID, reply)
}

func (b *Bot) responseMode(ctx context.Context, userID int64) string {
	settings, err := b.pipeline.Settings(ctx, userID)
	if err != nil {
		return responseModeText
	}
	return settings.GetString(settingsKeyResponseMode, responseModeText)
}
