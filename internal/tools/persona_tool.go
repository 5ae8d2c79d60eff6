/*-------------------------------------------------------------------------
 *
 * persona_tool.go
 *    update_persona tool handler for NeuronChat
 *
 * Rewrites one of the bot's persona files. Admin-only; the invocation
 * context decides authorization, the identity manager validates the
 * file name and keeps a backup of the previous content.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/tools/persona_tool.go
 *
 *-------------------------------------------------------------------------
 */

package tools

import (
	"context"
	"fmt"

	"github.com/neurondb/NeuronChat/internal/metrics"
)

/* PersonaStore persists persona file updates */
type PersonaStore interface {
	UpdateFile(name, content string) error
}

/* PersonaTool implements the update_persona tool */
type PersonaTool struct {
	store PersonaStore
}

func NewPersonaTool(store PersonaStore) *PersonaTool {
	return &PersonaTool{store: store}
}

/* Execute validates authorization and arguments, then rewrites the file */
func (t *PersonaTool) Execute(ctx context.Context, args map[string]interface{}, inv Invocation) (string, error) {
	if !inv.IsAdmin {
		return "❌ Only admins can update persona files.", nil
	}

	fileName, err := StringArg(args, "file_name")
	if err != nil {
		return "", err
	}
	content, err := StringArg(args, "new_content")
	if err != nil {
		return "", err
	}

	if err := t.store.UpdateFile(fileName, content); err != nil {
		return "", fmt.Errorf("failed to update persona file: file=%s, error=%w", fileName, err)
	}

	metrics.InfoWithContext(ctx, "Persona file updated", map[string]interface{}{
		"file":    fileName,
		"user_id": inv.UserID,
	})

	return fmt.Sprintf("✅ Persona file %s updated.", fileName), nil
}
