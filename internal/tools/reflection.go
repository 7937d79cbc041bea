package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/becomehq/alignd/internal/reflection"
	"github.com/becomehq/alignd/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// ReflectionGenerateTool handles the reflection_generate MCP tool.
type ReflectionGenerateTool struct {
	generator *reflection.Generator
}

// NewReflectionGenerateTool creates a ReflectionGenerateTool with the
// given generator.
func NewReflectionGenerateTool(g *reflection.Generator) *ReflectionGenerateTool {
	return &ReflectionGenerateTool{generator: g}
}

// Definition returns the MCP tool definition for reflection_generate.
func (t *ReflectionGenerateTool) Definition() mcp.Tool {
	return mcp.NewTool("reflection_generate",
		mcp.WithDescription(
			"Generate the AI daily reflection for an identity from today's behaviors. "+
				"Regenerating for the same date replaces the stored reflection. "+
				"The API key is used for this call only and never persisted.",
		),
		mcp.WithString("api_key",
			mcp.Required(),
			mcp.Description("Completion API key (bearer credential)"),
		),
		mcp.WithNumber("identity_id",
			mcp.Required(),
			mcp.Description("Identity the reflection belongs to"),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Reflection date (YYYY-MM-DD)"),
		),
		mcp.WithString("identity_name",
			mcp.Required(),
			mcp.Description("Identity name, as shown to the model"),
		),
		mcp.WithString("identity_description",
			mcp.Description("Identity description"),
		),
		mcp.WithString("traits",
			mcp.Description(`Trait names as a JSON array of strings, e.g. ["disciplined", "patient"]`),
		),
		mcp.WithString("behaviors",
			mcp.Description(`Today's behaviors as a JSON array of {"description", "alignment_score"} objects`),
		),
	)
}

// Handle processes the reflection_generate tool call.
func (t *ReflectionGenerateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identityID := int64Arg(req, "identity_id", 0)
	if identityID == 0 {
		return mcp.NewToolResultError("'identity_id' is required"), nil
	}
	date := req.GetString("date", "")
	if date == "" {
		return mcp.NewToolResultError("'date' is required"), nil
	}
	identityName := req.GetString("identity_name", "")
	if identityName == "" {
		return mcp.NewToolResultError("'identity_name' is required"), nil
	}

	var traits []string
	if raw := req.GetString("traits", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &traits); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'traits' must be a JSON array of strings: %v", err)), nil
		}
	}

	var behaviors []reflection.BehaviorSnapshot
	if raw := req.GetString("behaviors", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &behaviors); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'behaviors' must be a JSON array of behavior objects: %v", err)), nil
		}
	}

	refl, err := t.generator.Generate(ctx, req.GetString("api_key", ""), reflection.Input{
		IdentityID:          identityID,
		Date:                date,
		IdentityName:        identityName,
		IdentityDescription: req.GetString("identity_description", ""),
		Traits:              traits,
		Behaviors:           behaviors,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to generate reflection: %v", err)), nil
	}
	return jsonResult(refl), nil
}

// ─── ReflectionForDateTool ──────────────────────────────────────────────────

// ReflectionForDateTool handles the reflection_for_date MCP tool.
type ReflectionForDateTool struct {
	store *store.Store
}

// NewReflectionForDateTool creates a ReflectionForDateTool.
func NewReflectionForDateTool(s *store.Store) *ReflectionForDateTool {
	return &ReflectionForDateTool{store: s}
}

// Definition returns the MCP tool definition for reflection_for_date.
func (t *ReflectionForDateTool) Definition() mcp.Tool {
	return mcp.NewTool("reflection_for_date",
		mcp.WithDescription(
			"Get the stored reflection for an identity and date, or an empty result when none exists.",
		),
		mcp.WithNumber("identity_id",
			mcp.Required(),
			mcp.Description("Identity ID"),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Reflection date (YYYY-MM-DD)"),
		),
	)
}

// Handle processes the reflection_for_date tool call.
func (t *ReflectionForDateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identityID := int64Arg(req, "identity_id", 0)
	if identityID == 0 {
		return mcp.NewToolResultError("'identity_id' is required"), nil
	}
	date := req.GetString("date", "")
	if date == "" {
		return mcp.NewToolResultError("'date' is required"), nil
	}

	refl, err := t.store.ReflectionForDate(identityID, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get reflection: %v", err)), nil
	}
	if refl == nil {
		return mcp.NewToolResultText("null"), nil
	}
	return jsonResult(refl), nil
}

// ─── ReflectionListTool ─────────────────────────────────────────────────────

// ReflectionListTool handles the reflection_list MCP tool.
type ReflectionListTool struct {
	store *store.Store
}

// NewReflectionListTool creates a ReflectionListTool.
func NewReflectionListTool(s *store.Store) *ReflectionListTool {
	return &ReflectionListTool{store: s}
}

// Definition returns the MCP tool definition for reflection_list.
func (t *ReflectionListTool) Definition() mcp.Tool {
	return mcp.NewTool("reflection_list",
		mcp.WithDescription("List an identity's reflections, newest date first."),
		mcp.WithNumber("identity_id",
			mcp.Required(),
			mcp.Description("Identity ID"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum rows to return (default: 30)"),
		),
	)
}

// Handle processes the reflection_list tool call.
func (t *ReflectionListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identityID := int64Arg(req, "identity_id", 0)
	if identityID == 0 {
		return mcp.NewToolResultError("'identity_id' is required"), nil
	}

	reflections, err := t.store.ListReflections(identityID, intArg(req, "limit", 30))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reflections: %v", err)), nil
	}
	if reflections == nil {
		reflections = []store.DailyReflection{}
	}
	return jsonResult(reflections), nil
}
