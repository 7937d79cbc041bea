package tools

import (
	"context"
	"fmt"

	"github.com/becomehq/alignd/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// UserCreateTool handles the user_create MCP tool.
type UserCreateTool struct {
	store *store.Store
}

// NewUserCreateTool creates a UserCreateTool with the given store.
func NewUserCreateTool(s *store.Store) *UserCreateTool {
	return &UserCreateTool{store: s}
}

// Definition returns the MCP tool definition for user_create.
func (t *UserCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("user_create",
		mcp.WithDescription(
			"Create the app user. The tracker assumes a single active user; "+
				"the most recently created user is the current one.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The user's display name"),
		),
	)
}

// Handle processes the user_create tool call.
func (t *UserCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	user, err := t.store.CreateUser(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create user: %v", err)), nil
	}
	return jsonResult(user), nil
}

// ─── UserGetTool ────────────────────────────────────────────────────────────

// UserGetTool handles the user_get MCP tool.
type UserGetTool struct {
	store *store.Store
}

// NewUserGetTool creates a UserGetTool.
func NewUserGetTool(s *store.Store) *UserGetTool {
	return &UserGetTool{store: s}
}

// Definition returns the MCP tool definition for user_get.
func (t *UserGetTool) Definition() mcp.Tool {
	return mcp.NewTool("user_get",
		mcp.WithDescription(
			"Get the current user, or an empty result when no user has been created yet.",
		),
	)
}

// Handle processes the user_get tool call.
func (t *UserGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := t.store.CurrentUser()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get user: %v", err)), nil
	}
	if user == nil {
		return mcp.NewToolResultText("null"), nil
	}
	return jsonResult(user), nil
}
