package tools

import (
	"context"
	"fmt"

	"github.com/becomehq/alignd/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// AlignmentWeeklyTool handles the alignment_weekly MCP tool.
type AlignmentWeeklyTool struct {
	store *store.Store
}

// NewAlignmentWeeklyTool creates an AlignmentWeeklyTool.
func NewAlignmentWeeklyTool(s *store.Store) *AlignmentWeeklyTool {
	return &AlignmentWeeklyTool{store: s}
}

// Definition returns the MCP tool definition for alignment_weekly.
func (t *AlignmentWeeklyTool) Definition() mcp.Tool {
	return mcp.NewTool("alignment_weekly",
		mcp.WithDescription(
			"Per-day average alignment score and behavior count for an identity "+
				"over an inclusive date range. Days with no behaviors are omitted.",
		),
		mcp.WithNumber("identity_id",
			mcp.Required(),
			mcp.Description("Identity ID"),
		),
		mcp.WithString("from_date",
			mcp.Required(),
			mcp.Description("Range start (YYYY-MM-DD, inclusive)"),
		),
		mcp.WithString("to_date",
			mcp.Required(),
			mcp.Description("Range end (YYYY-MM-DD, inclusive)"),
		),
	)
}

// Handle processes the alignment_weekly tool call.
func (t *AlignmentWeeklyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identityID := int64Arg(req, "identity_id", 0)
	if identityID == 0 {
		return mcp.NewToolResultError("'identity_id' is required"), nil
	}
	fromDate := req.GetString("from_date", "")
	if fromDate == "" {
		return mcp.NewToolResultError("'from_date' is required"), nil
	}
	toDate := req.GetString("to_date", "")
	if toDate == "" {
		return mcp.NewToolResultError("'to_date' is required"), nil
	}

	days, err := t.store.WeeklyAlignment(identityID, fromDate, toDate)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get weekly alignment: %v", err)), nil
	}
	if days == nil {
		days = []store.DayAlignment{}
	}
	return jsonResult(days), nil
}

// ─── AlignmentTrendsTool ────────────────────────────────────────────────────

// AlignmentTrendsTool handles the alignment_trends MCP tool.
type AlignmentTrendsTool struct {
	store *store.Store
}

// NewAlignmentTrendsTool creates an AlignmentTrendsTool.
func NewAlignmentTrendsTool(s *store.Store) *AlignmentTrendsTool {
	return &AlignmentTrendsTool{store: s}
}

// Definition returns the MCP tool definition for alignment_trends.
func (t *AlignmentTrendsTool) Definition() mcp.Tool {
	return mcp.NewTool("alignment_trends",
		mcp.WithDescription(
			"Per-day alignment averages for an identity over a trailing window "+
				"ending today. Days with no behaviors are omitted.",
		),
		mcp.WithNumber("identity_id",
			mcp.Required(),
			mcp.Description("Identity ID"),
		),
		mcp.WithNumber("days",
			mcp.Description("Window length in days (default: 14)"),
		),
	)
}

// Handle processes the alignment_trends tool call.
func (t *AlignmentTrendsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identityID := int64Arg(req, "identity_id", 0)
	if identityID == 0 {
		return mcp.NewToolResultError("'identity_id' is required"), nil
	}

	trends, err := t.store.AlignmentTrends(identityID, intArg(req, "days", 14))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get alignment trends: %v", err)), nil
	}
	if trends == nil {
		trends = []store.AlignmentTrend{}
	}
	return jsonResult(trends), nil
}
