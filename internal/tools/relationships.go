package tools

import (
	"context"

	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── RelationshipCreateTool ──────────────────────────────────────────────────

// RelationshipCreateTool handles the relationship_create MCP tool.
type RelationshipCreateTool struct {
	store *knowledge.Store
}

// NewRelationshipCreateTool creates a RelationshipCreateTool.
func NewRelationshipCreateTool(store *knowledge.Store) *RelationshipCreateTool {
	return &RelationshipCreateTool{store: store}
}

// Definition returns the MCP tool definition for relationship_create.
func (t *RelationshipCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("relationship_create",
		mcp.WithDescription(
			"Link two entities of the same product with a directed, typed relationship. "+
				"Example: an experiment 'tests' a hypothesis; feedback is 'evidence' for a problem.",
		),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Source entity id")),
		mcp.WithString("target_id", mcp.Required(), mcp.Description("Target entity id")),
		mcp.WithString("type",
			mcp.Enum("relates_to", "supports", "tests", "informs", "evidence"),
			mcp.Description("Relationship type (default: relates_to)"),
		),
	)
}

// Handle processes the relationship_create tool call.
func (t *RelationshipCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := t.store.CreateRelationship(knowledge.RelationshipInput{
		SourceID: req.GetString("source_id", ""),
		TargetID: req.GetString("target_id", ""),
		Type:     knowledge.RelationshipType(req.GetString("type", "")),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(r), nil
}

// ─── RelationshipDeleteTool ──────────────────────────────────────────────────

// RelationshipDeleteTool handles the relationship_delete MCP tool.
type RelationshipDeleteTool struct {
	store *knowledge.Store
}

// NewRelationshipDeleteTool creates a RelationshipDeleteTool.
func NewRelationshipDeleteTool(store *knowledge.Store) *RelationshipDeleteTool {
	return &RelationshipDeleteTool{store: store}
}

// Definition returns the MCP tool definition for relationship_delete.
func (t *RelationshipDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("relationship_delete",
		mcp.WithDescription("Delete a relationship. Both entities are kept."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Relationship id")),
	)
}

// Handle processes the relationship_delete tool call.
func (t *RelationshipDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if err := t.store.DeleteRelationship(id); err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{"deleted": id}), nil
}

// ─── RelationshipListTool ────────────────────────────────────────────────────

// RelationshipListTool handles the relationship_list MCP tool.
type RelationshipListTool struct {
	store *knowledge.Store
}

// NewRelationshipListTool creates a RelationshipListTool.
func NewRelationshipListTool(store *knowledge.Store) *RelationshipListTool {
	return &RelationshipListTool{store: store}
}

// Definition returns the MCP tool definition for relationship_list.
func (t *RelationshipListTool) Definition() mcp.Tool {
	return mcp.NewTool("relationship_list",
		mcp.WithDescription("List every relationship of a product in creation order."),
		mcp.WithString("product_id", mcp.Required(), mcp.Description("Product id")),
	)
}

// Handle processes the relationship_list tool call.
func (t *RelationshipListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	productID := req.GetString("product_id", "")
	p, err := t.store.GetProduct(productID)
	if err != nil {
		return errorResult(err), nil
	}
	if p == nil {
		return notFoundResult("product", productID), nil
	}
	list, err := t.store.ListRelationships(productID)
	if err != nil {
		return errorResult(err), nil
	}
	if list == nil {
		list = []knowledge.Relationship{}
	}
	return jsonResult(list), nil
}

// ─── EntityLinksTool ─────────────────────────────────────────────────────────

// EntityLinksTool handles the entity_links MCP tool.
type EntityLinksTool struct {
	store *knowledge.Store
}

// NewEntityLinksTool creates an EntityLinksTool.
func NewEntityLinksTool(store *knowledge.Store) *EntityLinksTool {
	return &EntityLinksTool{store: store}
}

// Definition returns the MCP tool definition for entity_links.
func (t *EntityLinksTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_links",
		mcp.WithDescription("Show the entities linked to an entity, split into outgoing and incoming relationships."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
	)
}

// Handle processes the entity_links tool call.
func (t *EntityLinksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	e, err := t.store.GetEntity(id)
	if err != nil {
		return errorResult(err), nil
	}
	if e == nil {
		return notFoundResult("entity", id), nil
	}
	links, err := t.store.GroupedLinks(id)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(links), nil
}
