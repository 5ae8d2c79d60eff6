/*-------------------------------------------------------------------------
 *
 * bot_test.go
 *    Unit tests for callback data parsing
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/bot/bot_test.go
 *
 *-------------------------------------------------------------------------
 */

package bot

import (
	"strings"
	"testing"
	"unicode/utf8"
)

/* TestSplitCallback tests parsing of "action:payload" callback data */
func TestSplitCallback(t *testing.T) {
	cases := []struct {
		data    string
		action  string
		payload string
		ok      bool
	}{
		{"approve:4be2a141-9c40-4a1e-b3a5-0d0b4e1f2a3b", "approve", "4be2a141-9c40-4a1e-b3a5-0d0b4e1f2a3b", true},
		{"deny:abc", "deny", "abc", true},
		{"conv:id:with:colons", "conv", "id:with:colons", true},
		{"noseparator", "", "", false},
		{":payload", "", "", false},
		{"action:", "", "", false},
		{"", "", "", false},
	}

	for _, tc := range cases {
		action, payload, ok := splitCallback(tc.data)
		if ok != tc.ok || action != tc.action || payload != tc.payload {
			t.Errorf("splitCallback(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.data, action, payload, ok, tc.action, tc.payload, tc.ok)
		}
	}
}

/* TestTruncateLabel tests that button labels truncate on rune boundaries */
func TestTruncateLabel(t *testing.T) {
	cases := []struct {
		label string
		max   int
		want  string
	}{
		{"short", 40, "short"},
		{strings.Repeat("x", 40), 40, strings.Repeat("x", 40)},
		{strings.Repeat("x", 41), 40, strings.Repeat("x", 40) + "…"},
		{strings.Repeat("ä", 41), 40, strings.Repeat("ä", 40) + "…"},
		{strings.Repeat("日", 50), 40, strings.Repeat("日", 40) + "…"},
		{"", 40, ""},
	}

	for _, tc := range cases {
		got := truncateLabel(tc.label, tc.max)
		if got != tc.want {
			t.Errorf("truncateLabel(%q, %d) = %q, want %q", tc.label, tc.max, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncateLabel(%q, %d) produced invalid UTF-8", tc.label, tc.max)
		}
	}
}
