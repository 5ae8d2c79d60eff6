/*-------------------------------------------------------------------------
 *
 * tokens.go
 *    Token estimation for NeuronChat
 *
 * Estimates token counts with the cl100k_base tiktoken encoding when it
 * loads, falling back to a chars/4 ceiling when it does not (the encoding
 * is fetched lazily and may be unavailable offline).
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/llm/tokens.go
 *
 *-------------------------------------------------------------------------
 */

package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

/* EstimateTokens estimates the token count of a string */
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})

	if encoding != nil {
		return len(encoding.Encode(text, nil, nil))
	}

	/* Rough fallback: ~4 chars per token */
	return (len(text) + 3) / 4
}
