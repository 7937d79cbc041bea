package tools

import (
	"context"
	"fmt"

	"github.com/becomehq/alignd/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// IdentityCreateTool handles the identity_create MCP tool.
type IdentityCreateTool struct {
	store *store.Store
}

// NewIdentityCreateTool creates an IdentityCreateTool with the given store.
func NewIdentityCreateTool(s *store.Store) *IdentityCreateTool {
	return &IdentityCreateTool{store: s}
}

// Definition returns the MCP tool definition for identity_create.
func (t *IdentityCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("identity_create",
		mcp.WithDescription(
			"Create an identity — a persona the user wants to behave consistently with "+
				"(e.g. 'Disciplined athlete').",
		),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("Owning user ID"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Identity name"),
		),
		mcp.WithString("description",
			mcp.Description("Free-form description (default: empty)"),
		),
	)
}

// Handle processes the identity_create tool call.
func (t *IdentityCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := int64Arg(req, "user_id", 0)
	if userID == 0 {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	ident, err := t.store.CreateIdentity(userID, name, req.GetString("description", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create identity: %v", err)), nil
	}
	return jsonResult(ident), nil
}

// ─── IdentityListTool ───────────────────────────────────────────────────────

// IdentityListTool handles the identity_list MCP tool.
type IdentityListTool struct {
	store *store.Store
}

// NewIdentityListTool creates an IdentityListTool.
func NewIdentityListTool(s *store.Store) *IdentityListTool {
	return &IdentityListTool{store: s}
}

// Definition returns the MCP tool definition for identity_list.
func (t *IdentityListTool) Definition() mcp.Tool {
	return mcp.NewTool("identity_list",
		mcp.WithDescription("List a user's identities, newest first."),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("Owning user ID"),
		),
	)
}

// Handle processes the identity_list tool call.
func (t *IdentityListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := int64Arg(req, "user_id", 0)
	if userID == 0 {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}

	identities, err := t.store.ListIdentities(userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list identities: %v", err)), nil
	}
	if identities == nil {
		identities = []store.Identity{}
	}
	return jsonResult(identities), nil
}

// ─── IdentityGetTool ────────────────────────────────────────────────────────

// IdentityGetTool handles the identity_get MCP tool.
type IdentityGetTool struct {
	store *store.Store
}

// NewIdentityGetTool creates an IdentityGetTool.
func NewIdentityGetTool(s *store.Store) *IdentityGetTool {
	return &IdentityGetTool{store: s}
}

// Definition returns the MCP tool definition for identity_get.
func (t *IdentityGetTool) Definition() mcp.Tool {
	return mcp.NewTool("identity_get",
		mcp.WithDescription("Get one identity by ID, or an empty result when it does not exist."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Identity ID"),
		),
	)
}

// Handle processes the identity_get tool call.
func (t *IdentityGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "id", 0)
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	ident, err := t.store.GetIdentity(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get identity: %v", err)), nil
	}
	if ident == nil {
		return mcp.NewToolResultText("null"), nil
	}
	return jsonResult(ident), nil
}

// ─── IdentityUpdateTool ─────────────────────────────────────────────────────

// IdentityUpdateTool handles the identity_update MCP tool.
type IdentityUpdateTool struct {
	store *store.Store
}

// NewIdentityUpdateTool creates an IdentityUpdateTool.
func NewIdentityUpdateTool(s *store.Store) *IdentityUpdateTool {
	return &IdentityUpdateTool{store: s}
}

// Definition returns the MCP tool definition for identity_update.
func (t *IdentityUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("identity_update",
		mcp.WithDescription(
			"Update an identity's name and/or description. Only provided fields are "+
				"changed; calling with neither returns the row unchanged.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Identity ID to update"),
		),
		mcp.WithString("name",
			mcp.Description("New name"),
		),
		mcp.WithString("description",
			mcp.Description("New description (an empty string clears it)"),
		),
	)
}

// Handle processes the identity_update tool call.
func (t *IdentityUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "id", 0)
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	// Absent fields are left untouched; with neither provided this is a
	// plain fetch of the current row.
	ident, err := t.store.UpdateIdentity(id, store.UpdateIdentityParams{
		Name:        optionalString(req, "name"),
		Description: optionalString(req, "description"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update identity: %v", err)), nil
	}
	return jsonResult(ident), nil
}
