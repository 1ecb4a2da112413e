package tools

import (
	"context"

	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── TaxonomyCreateTool ──────────────────────────────────────────────────────

// TaxonomyCreateTool handles the taxonomy_create MCP tool.
type TaxonomyCreateTool struct {
	store *knowledge.Store
}

// NewTaxonomyCreateTool creates a TaxonomyCreateTool.
func NewTaxonomyCreateTool(store *knowledge.Store) *TaxonomyCreateTool {
	return &TaxonomyCreateTool{store: store}
}

// Definition returns the MCP tool definition for taxonomy_create.
func (t *TaxonomyCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("taxonomy_create",
		mcp.WithDescription(
			"Create a persona, feature area or dimension under a product, or a value under a dimension.",
		),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Enum("persona", "feature_area", "dimension", "dimension_value"),
			mcp.Description("What to create"),
		),
		mcp.WithString("scope_id",
			mcp.Required(),
			mcp.Description("Product id, or the dimension id for a dimension_value"),
		),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name")),
	)
}

// Handle processes the taxonomy_create tool call.
func (t *TaxonomyCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	it, err := t.store.CreateTaxonomyItem(
		knowledge.TaxonomyKind(req.GetString("kind", "")),
		req.GetString("scope_id", ""),
		req.GetString("name", ""),
	)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(it), nil
}

// ─── TaxonomyGetTool ─────────────────────────────────────────────────────────

// TaxonomyGetTool handles the taxonomy_get MCP tool.
type TaxonomyGetTool struct {
	store *knowledge.Store
}

// NewTaxonomyGetTool creates a TaxonomyGetTool.
func NewTaxonomyGetTool(store *knowledge.Store) *TaxonomyGetTool {
	return &TaxonomyGetTool{store: store}
}

// Definition returns the MCP tool definition for taxonomy_get.
func (t *TaxonomyGetTool) Definition() mcp.Tool {
	return mcp.NewTool("taxonomy_get",
		mcp.WithDescription(
			"Get a product's taxonomy: personas, feature areas and dimensions with their values. "+
				"Archived items are hidden unless include_archived is true.",
		),
		mcp.WithString("product_id", mcp.Required(), mcp.Description("Product id")),
		mcp.WithBoolean("include_archived", mcp.Description("Include archived items (default: false)")),
	)
}

// Handle processes the taxonomy_get tool call.
func (t *TaxonomyGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tax, err := t.store.Taxonomy(req.GetString("product_id", ""), boolArg(req, "include_archived", false))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(tax), nil
}

// ─── TaxonomyRenameTool ──────────────────────────────────────────────────────

// TaxonomyRenameTool handles the taxonomy_rename MCP tool.
type TaxonomyRenameTool struct {
	store *knowledge.Store
}

// NewTaxonomyRenameTool creates a TaxonomyRenameTool.
func NewTaxonomyRenameTool(store *knowledge.Store) *TaxonomyRenameTool {
	return &TaxonomyRenameTool{store: store}
}

// Definition returns the MCP tool definition for taxonomy_rename.
func (t *TaxonomyRenameTool) Definition() mcp.Tool {
	return mcp.NewTool("taxonomy_rename",
		mcp.WithDescription("Rename a taxonomy item."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Taxonomy item id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New name")),
	)
}

// Handle processes the taxonomy_rename tool call.
func (t *TaxonomyRenameTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	it, err := t.store.RenameTaxonomyItem(req.GetString("id", ""), req.GetString("name", ""))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(it), nil
}

// ─── TaxonomyArchiveTool ─────────────────────────────────────────────────────

// TaxonomyArchiveTool handles the taxonomy_archive MCP tool.
type TaxonomyArchiveTool struct {
	store *knowledge.Store
}

// NewTaxonomyArchiveTool creates a TaxonomyArchiveTool.
func NewTaxonomyArchiveTool(store *knowledge.Store) *TaxonomyArchiveTool {
	return &TaxonomyArchiveTool{store: store}
}

// Definition returns the MCP tool definition for taxonomy_archive.
func (t *TaxonomyArchiveTool) Definition() mcp.Tool {
	return mcp.NewTool("taxonomy_archive",
		mcp.WithDescription(
			"Archive or unarchive a taxonomy item. Archived items stay on entities already tagged "+
				"but no longer show up in active pickers.",
		),
		mcp.WithString("id", mcp.Required(), mcp.Description("Taxonomy item id")),
		mcp.WithBoolean("archived", mcp.Description("true to archive (default), false to unarchive")),
	)
}

// Handle processes the taxonomy_archive tool call.
func (t *TaxonomyArchiveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	var (
		it  *knowledge.TaxonomyItem
		err error
	)
	if boolArg(req, "archived", true) {
		it, err = t.store.ArchiveTaxonomyItem(id)
	} else {
		it, err = t.store.UnarchiveTaxonomyItem(id)
	}
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(it), nil
}

// ─── TaxonomyDeleteTool ──────────────────────────────────────────────────────

// TaxonomyDeleteTool handles the taxonomy_delete MCP tool.
type TaxonomyDeleteTool struct {
	store *knowledge.Store
}

// NewTaxonomyDeleteTool creates a TaxonomyDeleteTool.
func NewTaxonomyDeleteTool(store *knowledge.Store) *TaxonomyDeleteTool {
	return &TaxonomyDeleteTool{store: store}
}

// Definition returns the MCP tool definition for taxonomy_delete.
func (t *TaxonomyDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("taxonomy_delete",
		mcp.WithDescription(
			"Permanently delete a taxonomy item and remove it from every entity. "+
				"Deleting a dimension deletes its values. Prefer taxonomy_archive to keep history.",
		),
		mcp.WithString("id", mcp.Required(), mcp.Description("Taxonomy item id")),
	)
}

// Handle processes the taxonomy_delete tool call.
func (t *TaxonomyDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if err := t.store.DeleteTaxonomyItem(id); err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{"deleted": id}), nil
}
