package tools

import (
	"context"
	"fmt"

	"github.com/becomehq/alignd/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// BehaviorLogTool handles the behavior_log MCP tool.
type BehaviorLogTool struct {
	store *store.Store
}

// NewBehaviorLogTool creates a BehaviorLogTool with the given store.
func NewBehaviorLogTool(s *store.Store) *BehaviorLogTool {
	return &BehaviorLogTool{store: s}
}

// Definition returns the MCP tool definition for behavior_log.
func (t *BehaviorLogTool) Definition() mcp.Tool {
	return mcp.NewTool("behavior_log",
		mcp.WithDescription(
			"Log a dated behavior scored 1-10 for alignment with an identity.",
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date of the behavior (YYYY-MM-DD)"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("What the user did"),
		),
		mcp.WithNumber("identity_id",
			mcp.Required(),
			mcp.Description("Owning identity ID"),
		),
		mcp.WithNumber("alignment_score",
			mcp.Required(),
			mcp.Description("Alignment score, 1 (opposed) to 10 (fully aligned)"),
		),
	)
}

// Handle processes the behavior_log tool call.
func (t *BehaviorLogTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := req.GetString("date", "")
	if date == "" {
		return mcp.NewToolResultError("'date' is required"), nil
	}
	description := req.GetString("description", "")
	if description == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}
	identityID := int64Arg(req, "identity_id", 0)
	if identityID == 0 {
		return mcp.NewToolResultError("'identity_id' is required"), nil
	}
	score, ok := integerArg(req, "alignment_score")
	if !ok {
		return mcp.NewToolResultError("'alignment_score' is required and must be a whole number"), nil
	}

	behavior, err := t.store.LogBehavior(store.LogBehaviorParams{
		Date:           date,
		Description:    description,
		IdentityID:     identityID,
		AlignmentScore: score,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to log behavior: %v", err)), nil
	}
	return jsonResult(behavior), nil
}

// ─── BehaviorForDateTool ────────────────────────────────────────────────────

// BehaviorForDateTool handles the behavior_for_date MCP tool.
type BehaviorForDateTool struct {
	store *store.Store
}

// NewBehaviorForDateTool creates a BehaviorForDateTool.
func NewBehaviorForDateTool(s *store.Store) *BehaviorForDateTool {
	return &BehaviorForDateTool{store: s}
}

// Definition returns the MCP tool definition for behavior_for_date.
func (t *BehaviorForDateTool) Definition() mcp.Tool {
	return mcp.NewTool("behavior_for_date",
		mcp.WithDescription("List an identity's behaviors for one date, in creation order."),
		mcp.WithNumber("identity_id",
			mcp.Required(),
			mcp.Description("Owning identity ID"),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date to query (YYYY-MM-DD)"),
		),
	)
}

// Handle processes the behavior_for_date tool call.
func (t *BehaviorForDateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identityID := int64Arg(req, "identity_id", 0)
	if identityID == 0 {
		return mcp.NewToolResultError("'identity_id' is required"), nil
	}
	date := req.GetString("date", "")
	if date == "" {
		return mcp.NewToolResultError("'date' is required"), nil
	}

	behaviors, err := t.store.BehaviorsForDate(identityID, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list behaviors: %v", err)), nil
	}
	if behaviors == nil {
		behaviors = []store.BehaviorLog{}
	}
	return jsonResult(behaviors), nil
}

// ─── BehaviorListTool ───────────────────────────────────────────────────────

// BehaviorListTool handles the behavior_list MCP tool.
type BehaviorListTool struct {
	store *store.Store
}

// NewBehaviorListTool creates a BehaviorListTool.
func NewBehaviorListTool(s *store.Store) *BehaviorListTool {
	return &BehaviorListTool{store: s}
}

// Definition returns the MCP tool definition for behavior_list.
func (t *BehaviorListTool) Definition() mcp.Tool {
	return mcp.NewTool("behavior_list",
		mcp.WithDescription(
			"List an identity's behaviors, newest date first. from_date/to_date bound the "+
				"range inclusively; omit either for an open end.",
		),
		mcp.WithNumber("identity_id",
			mcp.Required(),
			mcp.Description("Owning identity ID"),
		),
		mcp.WithString("from_date",
			mcp.Description("Inclusive lower date bound (YYYY-MM-DD)"),
		),
		mcp.WithString("to_date",
			mcp.Description("Inclusive upper date bound (YYYY-MM-DD)"),
		),
	)
}

// Handle processes the behavior_list tool call.
func (t *BehaviorListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identityID := int64Arg(req, "identity_id", 0)
	if identityID == 0 {
		return mcp.NewToolResultError("'identity_id' is required"), nil
	}

	behaviors, err := t.store.ListBehaviors(identityID,
		optionalString(req, "from_date"),
		optionalString(req, "to_date"),
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list behaviors: %v", err)), nil
	}
	if behaviors == nil {
		behaviors = []store.BehaviorLog{}
	}
	return jsonResult(behaviors), nil
}
