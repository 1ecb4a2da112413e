package tools

import (
	"context"

	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── ProductCreateTool ───────────────────────────────────────────────────────

// ProductCreateTool handles the product_create MCP tool.
type ProductCreateTool struct {
	store *knowledge.Store
}

// NewProductCreateTool creates a ProductCreateTool.
func NewProductCreateTool(store *knowledge.Store) *ProductCreateTool {
	return &ProductCreateTool{store: store}
}

// Definition returns the MCP tool definition for product_create.
func (t *ProductCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("product_create",
		mcp.WithDescription("Create a product: the workspace container for entities and taxonomy."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Product name")),
		mcp.WithString("description", mcp.Description("Optional one-line description")),
		mcp.WithString("icon", mcp.Description("Optional icon (emoji or short text)")),
	)
}

// Handle processes the product_create tool call.
func (t *ProductCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := t.store.CreateProduct(knowledge.ProductInput{
		Name:        req.GetString("name", ""),
		Description: req.GetString("description", ""),
		Icon:        req.GetString("icon", ""),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(p), nil
}

// ─── ProductGetTool ──────────────────────────────────────────────────────────

// ProductGetTool handles the product_get MCP tool.
type ProductGetTool struct {
	store *knowledge.Store
}

// NewProductGetTool creates a ProductGetTool.
func NewProductGetTool(store *knowledge.Store) *ProductGetTool {
	return &ProductGetTool{store: store}
}

// Definition returns the MCP tool definition for product_get.
func (t *ProductGetTool) Definition() mcp.Tool {
	return mcp.NewTool("product_get",
		mcp.WithDescription("Get one product by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Product id")),
	)
}

// Handle processes the product_get tool call.
func (t *ProductGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	p, err := t.store.GetProduct(id)
	if err != nil {
		return errorResult(err), nil
	}
	if p == nil {
		return notFoundResult("product", id), nil
	}
	return jsonResult(p), nil
}

// ─── ProductListTool ─────────────────────────────────────────────────────────

// ProductListTool handles the product_list MCP tool.
type ProductListTool struct {
	store *knowledge.Store
}

// NewProductListTool creates a ProductListTool.
func NewProductListTool(store *knowledge.Store) *ProductListTool {
	return &ProductListTool{store: store}
}

// Definition returns the MCP tool definition for product_list.
func (t *ProductListTool) Definition() mcp.Tool {
	return mcp.NewTool("product_list",
		mcp.WithDescription("List all products, most recently active first."),
	)
}

// Handle processes the product_list tool call.
func (t *ProductListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := t.store.ListProducts()
	if err != nil {
		return errorResult(err), nil
	}
	if list == nil {
		list = []knowledge.Product{}
	}
	return jsonResult(list), nil
}

// ─── ProductUpdateTool ───────────────────────────────────────────────────────

// ProductUpdateTool handles the product_update MCP tool.
type ProductUpdateTool struct {
	store *knowledge.Store
}

// NewProductUpdateTool creates a ProductUpdateTool.
func NewProductUpdateTool(store *knowledge.Store) *ProductUpdateTool {
	return &ProductUpdateTool{store: store}
}

// Definition returns the MCP tool definition for product_update.
func (t *ProductUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("product_update",
		mcp.WithDescription("Update a product. Only supplied fields change; an empty description or icon clears it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Product id")),
		mcp.WithString("name", mcp.Description("New name")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("icon", mcp.Description("New icon")),
	)
}

// Handle processes the product_update tool call.
func (t *ProductUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := t.store.UpdateProduct(req.GetString("id", ""), knowledge.ProductPatch{
		Name:        optionalString(req, "name"),
		Description: optionalString(req, "description"),
		Icon:        optionalString(req, "icon"),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(p), nil
}

// ─── ProductDeleteTool ───────────────────────────────────────────────────────

// ProductDeleteTool handles the product_delete MCP tool.
type ProductDeleteTool struct {
	store *knowledge.Store
}

// NewProductDeleteTool creates a ProductDeleteTool.
func NewProductDeleteTool(store *knowledge.Store) *ProductDeleteTool {
	return &ProductDeleteTool{store: store}
}

// Definition returns the MCP tool definition for product_delete.
func (t *ProductDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("product_delete",
		mcp.WithDescription("Delete a product with all its entities, relationships and taxonomy. Irreversible."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Product id")),
	)
}

// Handle processes the product_delete tool call.
func (t *ProductDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if err := t.store.DeleteProduct(id); err != nil {
		return errorResult(err), nil
	}

	// Forget the product if it was the one to restore.
	st, err := t.store.LoadSettings()
	if err == nil && st.LastProductID == id {
		st.LastProductID = ""
		_, _ = t.store.SaveSettings(st)
	}
	return jsonResult(map[string]any{"deleted": id}), nil
}

// ─── ProductOpenTool ─────────────────────────────────────────────────────────

// ProductOpenTool handles the product_open MCP tool. It records the
// product as the last one opened and returns it with its taxonomy.
type ProductOpenTool struct {
	store *knowledge.Store
}

// NewProductOpenTool creates a ProductOpenTool.
func NewProductOpenTool(store *knowledge.Store) *ProductOpenTool {
	return &ProductOpenTool{store: store}
}

// Definition returns the MCP tool definition for product_open.
func (t *ProductOpenTool) Definition() mcp.Tool {
	return mcp.NewTool("product_open",
		mcp.WithDescription(
			"Open a product: remembers it as the last product for startup restore and returns it with its active taxonomy. "+
				"Omit id to reopen the last product.",
		),
		mcp.WithString("id", mcp.Description("Product id (default: last opened product)")),
	)
}

// Handle processes the product_open tool call.
func (t *ProductOpenTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.store.LoadSettings()
	if err != nil {
		return errorResult(err), nil
	}
	id := req.GetString("id", st.LastProductID)
	if id == "" {
		return invalidArg("'id' is required when no product was opened before"), nil
	}

	p, err := t.store.GetProduct(id)
	if err != nil {
		return errorResult(err), nil
	}
	if p == nil {
		return notFoundResult("product", id), nil
	}
	tax, err := t.store.Taxonomy(id, false)
	if err != nil {
		return errorResult(err), nil
	}

	if st.LastProductID != id {
		st.LastProductID = id
		if _, err := t.store.SaveSettings(st); err != nil {
			return errorResult(err), nil
		}
	}
	return jsonResult(map[string]any{"product": p, "taxonomy": tax}), nil
}
