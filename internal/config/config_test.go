/*-------------------------------------------------------------------------
 *
 * config_test.go
 *    Unit tests for configuration loading and validation
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/config/config_test.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
)

/* TestDefaultConfig tests that defaults carry the command lists */
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Agent.AllowedCommands) == 0 {
		t.Error("default allow-list is empty")
	}
	if len(cfg.Agent.BlockedPatterns) == 0 {
		t.Error("default deny-list is empty")
	}
	if cfg.Agent.MaxContextTokens <= 0 {
		t.Errorf("MaxContextTokens = %d", cfg.Agent.MaxContextTokens)
	}
	if cfg.Agent.CommandTimeout <= 0 {
		t.Errorf("CommandTimeout = %s", cfg.Agent.CommandTimeout)
	}
}

/* TestLoadConfig tests YAML overrides on top of defaults */
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
telegram:
  bot_token: "test-token"
  admin_ids: [111, 222]
  admin_group_id: -100
llm:
  api_key: "test-key"
  model: "test-model"
agent:
  max_context_tokens: 9000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Telegram.BotToken != "test-token" {
		t.Errorf("BotToken = %q", cfg.Telegram.BotToken)
	}
	if cfg.Agent.MaxContextTokens != 9000 {
		t.Errorf("MaxContextTokens = %d", cfg.Agent.MaxContextTokens)
	}
	/* Unset keys keep their defaults */
	if len(cfg.Agent.AllowedCommands) == 0 {
		t.Error("allow-list lost its default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate returned error: %v", err)
	}
}

/* TestValidate tests required-field enforcement */
func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted a config without a bot token")
	}

	cfg.Telegram.BotToken = "t"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted a config without an API key")
	}

	cfg.LLM.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate returned error for a complete config: %v", err)
	}
}

/* TestIsAdmin tests admin set membership */
func TestIsAdmin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telegram.AdminIDs = []int64{42}

	if !cfg.IsAdmin(42) {
		t.Error("IsAdmin(42) = false")
	}
	if cfg.IsAdmin(43) {
		t.Error("IsAdmin(43) = true")
	}
}

/* TestParseIDList tests comma-separated admin ID parsing */
func TestParseIDList(t *testing.T) {
	ids := parseIDList(" 1, 2 ,,bad, 3 ")
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Errorf("parseIDList = %v", ids)
	}
}
