/*-------------------------------------------------------------------------
 *
 * registry.go
 *    Tool catalog and invocation protocol for NeuronChat
 *
 * Defines the catalog of callable tools, renders it into model-facing
 * instructions, parses a model reply into a structured call, and
 * dispatches calls to registered handlers. The catalog is immutable
 * after startup.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/tools/registry.go
 *
 *-------------------------------------------------------------------------
 */

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

/* Definition describes a tool the model can invoke */
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

/* Call is a parsed tool invocation from a model reply */
type Call struct {
	Name      string
	Arguments map[string]interface{}
}

/* Invocation carries the identity context a handler may need */
type Invocation struct {
	UserID  int64
	ChatID  int64
	IsAdmin bool
}

/* Handler executes a single tool. Handlers validate their own arguments
 * and return a user-facing message. */
type Handler interface {
	Execute(ctx context.Context, args map[string]interface{}, inv Invocation) (string, error)
}

/* Registry holds the tool catalog and its handlers */
type Registry struct {
	defs     []Definition
	handlers map[string]Handler
}

/* NewRegistry creates the built-in tool catalog */
func NewRegistry() *Registry {
	defs := []Definition{
		{
			Name:        "run_command",
			Description: "Execute a shell command on the server. Risky commands require admin approval.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"command": map[string]interface{}{
						"type":        "string",
						"description": "The shell command to execute",
					},
				},
				"required": []string{"command"},
			},
		},
		{
			Name:        "web_search",
			Description: "Search the web for information. Returns a summary of results.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "The search query",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "update_persona",
			Description: "Update a bot persona file (SOUL, IDENTITY, or SECURITY). Admin-only.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"file_name": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"SOUL", "IDENTITY", "SECURITY"},
						"description": "Which persona file to update",
					},
					"new_content": map[string]interface{}{
						"type":        "string",
						"description": "The new markdown content for the file",
					},
				},
				"required": []string{"file_name", "new_content"},
			},
		},
	}

	return &Registry{
		defs:     defs,
		handlers: make(map[string]Handler),
	}
}

/* RegisterHandler binds a handler to a tool name */
func (r *Registry) RegisterHandler(name string, handler Handler) {
	r.handlers[name] = handler
}

/* Definitions returns the tool catalog */
func (r *Registry) Definitions() []Definition {
	return r.defs
}

/* DescribeForPrompt renders the catalog into model-facing instructions,
 * including the exact wire contract for tool calls */
func (r *Registry) DescribeForPrompt() string {
	var desc strings.Builder
	desc.WriteString(
		"You have access to the following tools. To use a tool, respond with ONLY a JSON " +
			"object in the format: {\"tool\": \"tool_name\", \"args\": {...}}\n\n")

	for _, tool := range r.defs {
		params, err := json.MarshalIndent(tool.Parameters, "", "  ")
		if err != nil {
			params = []byte("{}")
		}
		desc.WriteString(fmt.Sprintf("- **%s**: %s\n  Parameters: %s\n\n",
			tool.Name, tool.Description, params))
	}

	return desc.String()
}

/* ParseToolCall tries to parse a tool call from a model's text reply.
 *
 * The span between the first '{' and the last '}' is parsed as JSON.
 * This tolerates prose around the object but deliberately uses the
 * outermost span when several JSON-like fragments appear; the model is
 * instructed to emit exactly one object. Returns nil when the reply is
 * a plain text answer. */
func ParseToolCall(text string) *Call {
	trimmed := strings.TrimSpace(text)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &parsed); err != nil {
		return nil
	}

	name, ok := parsed["tool"].(string)
	if !ok {
		return nil
	}
	rawArgs, ok := parsed["args"]
	if !ok {
		return nil
	}

	args, _ := rawArgs.(map[string]interface{})
	if args == nil {
		args = make(map[string]interface{})
	}

	return &Call{Name: name, Arguments: args}
}

/* Dispatch routes a parsed call to its handler. Unknown tool names get a
 * "not implemented" message rather than an error. */
func (r *Registry) Dispatch(ctx context.Context, call *Call, inv Invocation) (string, error) {
	handler, ok := r.handlers[call.Name]
	if !ok {
		return fmt.Sprintf("Tool '%s' is not implemented yet.", call.Name), nil
	}
	return handler.Execute(ctx, call.Arguments, inv)
}

/* StringArg extracts a required string argument */
func StringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument '%s'", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument '%s' must be a string, got %T", key, v)
	}
	return s, nil
}
