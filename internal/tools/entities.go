package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/mark3labs/mcp-go/mcp"
)

const metadataHelp = "Type-specific metadata as a JSON object. " +
	"problem: severity; hypothesis: confidence; experiment: startDate, endDate, outcome; " +
	"decision: decisionType, decidedAt; artifact: artifactType, url; " +
	"feedback: sentiment, feedbackType, source; feature_request: priority, requestedBy; " +
	"feature: health, shippedAt. Captures carry none."

// ─── EntityCreateTool ────────────────────────────────────────────────────────

// EntityCreateTool handles the entity_create MCP tool.
type EntityCreateTool struct {
	store *knowledge.Store
}

// NewEntityCreateTool creates an EntityCreateTool.
func NewEntityCreateTool(store *knowledge.Store) *EntityCreateTool {
	return &EntityCreateTool{store: store}
}

// Definition returns the MCP tool definition for entity_create.
func (t *EntityCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_create",
		mcp.WithDescription(
			"Capture a knowledge entity (capture, problem, hypothesis, experiment, decision, artifact, "+
				"feedback, feature_request, feature) in a product. Status defaults to the type's first status.",
		),
		mcp.WithString("product_id", mcp.Required(), mcp.Description("Product id")),
		mcp.WithString("type", mcp.Required(), mcp.Enum(entityTypeNames()...), mcp.Description("Entity type")),
		mcp.WithString("title", mcp.Description("Title")),
		mcp.WithString("body", mcp.Description("Body text")),
		mcp.WithString("status", mcp.Description(statusHelp("Status from the type's vocabulary"))),
		mcp.WithString("metadata", mcp.Description(metadataHelp)),
		mcp.WithString("persona_ids", mcp.Description("Comma-separated persona ids")),
		mcp.WithString("feature_ids", mcp.Description("Comma-separated feature area ids")),
		mcp.WithString("dimension_value_ids", mcp.Description("Comma-separated dimension value ids")),
	)
}

// Handle processes the entity_create tool call.
func (t *EntityCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := knowledge.EntityType(req.GetString("type", ""))
	if err := knowledge.ValidateEntityType(typ); err != nil {
		return invalidArg("%v", err), nil
	}
	meta, err := metadataArg(req, typ)
	if err != nil {
		return invalidArg("%v", err), nil
	}

	e, err := t.store.CreateEntity(knowledge.EntityInput{
		ProductID:         req.GetString("product_id", ""),
		Type:              typ,
		Title:             req.GetString("title", ""),
		Body:              req.GetString("body", ""),
		Status:            optionalString(req, "status"),
		Metadata:          meta,
		PersonaIDs:        idListArg(req, "persona_ids"),
		FeatureIDs:        idListArg(req, "feature_ids"),
		DimensionValueIDs: idListArg(req, "dimension_value_ids"),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(e), nil
}

// ─── EntityGetTool ───────────────────────────────────────────────────────────

// EntityGetTool handles the entity_get MCP tool.
type EntityGetTool struct {
	store *knowledge.Store
}

// NewEntityGetTool creates an EntityGetTool.
func NewEntityGetTool(store *knowledge.Store) *EntityGetTool {
	return &EntityGetTool{store: store}
}

// Definition returns the MCP tool definition for entity_get.
func (t *EntityGetTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_get",
		mcp.WithDescription("Get one entity with its tags and its linked entities grouped by direction."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
	)
}

// Handle processes the entity_get tool call.
func (t *EntityGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	return jsonResult(map[string]any{"entity": e, "links": links}), nil
}

// ─── EntityListTool ──────────────────────────────────────────────────────────

// EntityListTool handles the entity_list MCP tool.
type EntityListTool struct {
	store *knowledge.Store
}

// NewEntityListTool creates an EntityListTool.
func NewEntityListTool(store *knowledge.Store) *EntityListTool {
	return &EntityListTool{store: store}
}

// Definition returns the MCP tool definition for entity_list.
func (t *EntityListTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_list",
		mcp.WithDescription(
			"List a product's entities, newest first. Every supplied filter must match; "+
				"search is a case-insensitive substring of title or body.",
		),
		mcp.WithString("product_id", mcp.Required(), mcp.Description("Product id")),
		mcp.WithString("type", mcp.Description("Single entity type")),
		mcp.WithString("types", mcp.Description("Comma-separated entity types")),
		mcp.WithString("status", mcp.Description(statusHelp("Exact status"))),
		mcp.WithString("search", mcp.Description("Text to look for in title or body")),
	)
}

// Handle processes the entity_list tool call.
func (t *EntityListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var f knowledge.EntityFilter
	if v := req.GetString("type", ""); v != "" {
		typ := knowledge.EntityType(v)
		f.Type = &typ
	}
	for _, v := range idListArg(req, "types") {
		f.Types = append(f.Types, knowledge.EntityType(v))
	}
	if v := req.GetString("status", ""); v != "" {
		f.Status = &v
	}
	f.Search = req.GetString("search", "")

	list, err := t.store.ListEntities(req.GetString("product_id", ""), f)
	if err != nil {
		return errorResult(err), nil
	}
	if list == nil {
		list = []knowledge.Entity{}
	}
	return jsonResult(list), nil
}

// ─── EntityUpdateTool ────────────────────────────────────────────────────────

// EntityUpdateTool handles the entity_update MCP tool.
type EntityUpdateTool struct {
	store *knowledge.Store
}

// NewEntityUpdateTool creates an EntityUpdateTool.
func NewEntityUpdateTool(store *knowledge.Store) *EntityUpdateTool {
	return &EntityUpdateTool{store: store}
}

// Definition returns the MCP tool definition for entity_update.
func (t *EntityUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_update",
		mcp.WithDescription(
			"Update an entity. Only supplied fields change. Metadata fields are merged into the existing metadata; "+
				"an empty status clears it; supplied tag lists replace the stored ones.",
		),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("body", mcp.Description("New body")),
		mcp.WithString("status", mcp.Description(statusHelp("New status, or empty to clear"))),
		mcp.WithString("metadata", mcp.Description(metadataHelp)),
		mcp.WithBoolean("clear_metadata", mcp.Description("Drop existing metadata before merging")),
		mcp.WithString("persona_ids", mcp.Description("Comma-separated persona ids (replaces)")),
		mcp.WithString("feature_ids", mcp.Description("Comma-separated feature area ids (replaces)")),
		mcp.WithString("dimension_value_ids", mcp.Description("Comma-separated dimension value ids (replaces)")),
	)
}

// Handle processes the entity_update tool call.
func (t *EntityUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	cur, err := t.store.GetEntity(id)
	if err != nil {
		return errorResult(err), nil
	}
	if cur == nil {
		return notFoundResult("entity", id), nil
	}
	meta, err := metadataArg(req, cur.Type)
	if err != nil {
		return invalidArg("%v", err), nil
	}

	patch := knowledge.EntityPatch{
		Title:         optionalString(req, "title"),
		Body:          optionalString(req, "body"),
		Status:        optionalString(req, "status"),
		Metadata:      meta,
		ClearMetadata: boolArg(req, "clear_metadata", false),
	}
	for key, dst := range map[string]**[]string{
		"persona_ids":         &patch.PersonaIDs,
		"feature_ids":         &patch.FeatureIDs,
		"dimension_value_ids": &patch.DimensionValueIDs,
	} {
		if hasArg(req, key) {
			ids := idListArg(req, key)
			*dst = &ids
		}
	}

	e, err := t.store.UpdateEntity(id, patch)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(e), nil
}

// ─── EntityDeleteTool ────────────────────────────────────────────────────────

// EntityDeleteTool handles the entity_delete MCP tool.
type EntityDeleteTool struct {
	store *knowledge.Store
}

// NewEntityDeleteTool creates an EntityDeleteTool.
func NewEntityDeleteTool(store *knowledge.Store) *EntityDeleteTool {
	return &EntityDeleteTool{store: store}
}

// Definition returns the MCP tool definition for entity_delete.
func (t *EntityDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_delete",
		mcp.WithDescription("Delete an entity and every relationship that touches it. Irreversible."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
	)
}

// Handle processes the entity_delete tool call.
func (t *EntityDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if err := t.store.DeleteEntity(id); err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{"deleted": id}), nil
}

// ─── EntityPromoteTool ───────────────────────────────────────────────────────

// EntityPromoteTool handles the entity_promote MCP tool.
type EntityPromoteTool struct {
	store *knowledge.Store
}

// NewEntityPromoteTool creates an EntityPromoteTool.
func NewEntityPromoteTool(store *knowledge.Store) *EntityPromoteTool {
	return &EntityPromoteTool{store: store}
}

// Definition returns the MCP tool definition for entity_promote.
func (t *EntityPromoteTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_promote",
		mcp.WithDescription(
			"Promote an entity (typically a capture, feedback or feature request) into a new entity of another type. "+
				"Title, body and tags are copied; status and metadata start at the target type's defaults. "+
				"The source keeps a pointer to the new entity. Each call creates a new entity.",
		),
		mcp.WithString("id", mcp.Required(), mcp.Description("Source entity id")),
		mcp.WithString("target_type", mcp.Required(), mcp.Enum(entityTypeNames()...), mcp.Description("Type of the new entity")),
	)
}

// Handle processes the entity_promote tool call.
func (t *EntityPromoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	target := knowledge.EntityType(strings.TrimSpace(req.GetString("target_type", "")))
	promoted, err := t.store.PromoteEntity(id, target)
	if err != nil {
		return errorResult(err), nil
	}
	src, err := t.store.GetEntity(id)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{"source": src, "promoted": promoted}), nil
}
