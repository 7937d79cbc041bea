// Package tools provides MCP tool handlers for the identity alignment
// tracker.
//
// Each tool handler follows the same pattern:
// - A struct with dependencies (store.Store, reflection.Generator) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Record-returning tools marshal the record(s) to JSON text so the host
// UI can consume structured responses. Every failure is reported as a
// single human-readable message via mcp.NewToolResultError.
package tools

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
)

// int64Arg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func int64Arg(req mcp.CallToolRequest, key string, defaultVal int64) int64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int64(v)
}

// intArg extracts an int argument from a tool request.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	return int(int64Arg(req, key, int64(defaultVal)))
}

// integerArg extracts a numeric argument that must be a whole number.
// ok is false when the key is absent, not a number, or fractional —
// JSON has no integer type, so 8.5 would otherwise truncate silently.
func integerArg(req mcp.CallToolRequest, key string) (int, bool) {
	v, ok := req.GetArguments()[key].(float64)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

// optionalString returns a pointer to the string argument when the key
// is present, nil when absent. Used for partial-update and open-ended
// range parameters where "" and "not provided" mean different things.
func optionalString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// jsonResult marshals v and wraps it in a text result.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}
