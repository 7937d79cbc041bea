package tools

import (
	"context"
	"fmt"

	"github.com/becomehq/alignd/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// TraitCreateTool handles the trait_create MCP tool.
type TraitCreateTool struct {
	store *store.Store
}

// NewTraitCreateTool creates a TraitCreateTool with the given store.
func NewTraitCreateTool(s *store.Store) *TraitCreateTool {
	return &TraitCreateTool{store: s}
}

// Definition returns the MCP tool definition for trait_create.
func (t *TraitCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("trait_create",
		mcp.WithDescription(
			"Add a named trait to an identity (e.g. 'disciplined', 'patient').",
		),
		mcp.WithNumber("identity_id",
			mcp.Required(),
			mcp.Description("Owning identity ID"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Trait name"),
		),
	)
}

// Handle processes the trait_create tool call.
func (t *TraitCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identityID := int64Arg(req, "identity_id", 0)
	if identityID == 0 {
		return mcp.NewToolResultError("'identity_id' is required"), nil
	}
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	trait, err := t.store.CreateTrait(identityID, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create trait: %v", err)), nil
	}
	return jsonResult(trait), nil
}

// ─── TraitListTool ──────────────────────────────────────────────────────────

// TraitListTool handles the trait_list MCP tool.
type TraitListTool struct {
	store *store.Store
}

// NewTraitListTool creates a TraitListTool.
func NewTraitListTool(s *store.Store) *TraitListTool {
	return &TraitListTool{store: s}
}

// Definition returns the MCP tool definition for trait_list.
func (t *TraitListTool) Definition() mcp.Tool {
	return mcp.NewTool("trait_list",
		mcp.WithDescription("List an identity's traits in creation order."),
		mcp.WithNumber("identity_id",
			mcp.Required(),
			mcp.Description("Owning identity ID"),
		),
	)
}

// Handle processes the trait_list tool call.
func (t *TraitListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identityID := int64Arg(req, "identity_id", 0)
	if identityID == 0 {
		return mcp.NewToolResultError("'identity_id' is required"), nil
	}

	traits, err := t.store.ListTraits(identityID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list traits: %v", err)), nil
	}
	if traits == nil {
		traits = []store.Trait{}
	}
	return jsonResult(traits), nil
}

// ─── TraitDeleteTool ────────────────────────────────────────────────────────

// TraitDeleteTool handles the trait_delete MCP tool.
type TraitDeleteTool struct {
	store *store.Store
}

// NewTraitDeleteTool creates a TraitDeleteTool.
func NewTraitDeleteTool(s *store.Store) *TraitDeleteTool {
	return &TraitDeleteTool{store: s}
}

// Definition returns the MCP tool definition for trait_delete.
func (t *TraitDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("trait_delete",
		mcp.WithDescription(
			"Delete a trait by ID. Deleting a nonexistent trait succeeds with no change.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Trait ID"),
		),
	)
}

// Handle processes the trait_delete tool call.
func (t *TraitDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "id", 0)
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	if err := t.store.DeleteTrait(id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete trait: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Trait %d deleted", id)), nil
}
