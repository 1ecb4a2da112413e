package tools

import (
	"context"

	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/HendryAvila/thoughtbox/internal/tagging"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── EntityToggleTagTool ─────────────────────────────────────────────────────

// EntityToggleTagTool handles the entity_toggle_tag MCP tool.
type EntityToggleTagTool struct {
	store *knowledge.Store
}

// NewEntityToggleTagTool creates an EntityToggleTagTool.
func NewEntityToggleTagTool(store *knowledge.Store) *EntityToggleTagTool {
	return &EntityToggleTagTool{store: store}
}

// Definition returns the MCP tool definition for entity_toggle_tag.
func (t *EntityToggleTagTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_toggle_tag",
		mcp.WithDescription("Add a persona, feature area or dimension value tag to an entity, or remove it when already present."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Enum("persona", "feature_area", "dimension_value"),
			mcp.Description("Tag kind"),
		),
		mcp.WithString("tag_id", mcp.Required(), mcp.Description("Taxonomy item id")),
	)
}

// Handle processes the entity_toggle_tag tool call.
func (t *EntityToggleTagTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	tagID := req.GetString("tag_id", "")
	if tagID == "" {
		return invalidArg("tag_id is required"), nil
	}
	e, err := t.store.GetEntity(id)
	if err != nil {
		return errorResult(err), nil
	}
	if e == nil {
		return notFoundResult("entity", id), nil
	}

	var patch knowledge.EntityPatch
	switch knowledge.TaxonomyKind(req.GetString("kind", "")) {
	case knowledge.KindPersona:
		ids := tagging.Toggle(e.PersonaIDs, tagID)
		patch.PersonaIDs = &ids
	case knowledge.KindFeatureArea:
		ids := tagging.Toggle(e.FeatureIDs, tagID)
		patch.FeatureIDs = &ids
	case knowledge.KindDimensionValue:
		ids := tagging.Toggle(e.DimensionValueIDs, tagID)
		patch.DimensionValueIDs = &ids
	default:
		return invalidArg("kind must be one of: persona, feature_area, dimension_value"), nil
	}

	updated, err := t.store.UpdateEntity(id, patch)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(updated), nil
}

// ─── EntitySelectValueTool ───────────────────────────────────────────────────

// EntitySelectValueTool handles the entity_select_value MCP tool.
type EntitySelectValueTool struct {
	store *knowledge.Store
}

// NewEntitySelectValueTool creates an EntitySelectValueTool.
func NewEntitySelectValueTool(store *knowledge.Store) *EntitySelectValueTool {
	return &EntitySelectValueTool{store: store}
}

// Definition returns the MCP tool definition for entity_select_value.
func (t *EntitySelectValueTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_select_value",
		mcp.WithDescription(
			"Set the single value an entity carries for one dimension, replacing any other value of that dimension. "+
				"An empty value_id clears the dimension.",
		),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
		mcp.WithString("dimension_id", mcp.Required(), mcp.Description("Dimension id")),
		mcp.WithString("value_id", mcp.Description("Value id within the dimension, or empty to clear")),
	)
}

// Handle processes the entity_select_value tool call.
func (t *EntitySelectValueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	dimID := req.GetString("dimension_id", "")
	valueID := req.GetString("value_id", "")

	e, err := t.store.GetEntity(id)
	if err != nil {
		return errorResult(err), nil
	}
	if e == nil {
		return notFoundResult("entity", id), nil
	}
	dim, err := t.store.GetTaxonomyItem(dimID)
	if err != nil {
		return errorResult(err), nil
	}
	if dim == nil || dim.Kind != knowledge.KindDimension || dim.ScopeID != e.ProductID {
		return notFoundResult("dimension", dimID), nil
	}

	tax, err := t.store.Taxonomy(e.ProductID, true)
	if err != nil {
		return errorResult(err), nil
	}
	values := tax.DimensionValueIDs(dimID)
	if valueID != "" && !tagging.Contains(values, valueID) {
		return invalidArg("value %q does not belong to dimension %q", valueID, dimID), nil
	}

	ids := tagging.SelectSingle(e.DimensionValueIDs, values, valueID)
	updated, err := t.store.UpdateEntity(id, knowledge.EntityPatch{DimensionValueIDs: &ids})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(updated), nil
}
