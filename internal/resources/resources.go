// Package resources implements MCP resource handlers over the knowledge
// store.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (thoughtbox://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	SettingsURI = "thoughtbox://settings"
	ProductsURI = "thoughtbox://products"
)

// Handler manages thoughtbox resource endpoints.
type Handler struct {
	store *knowledge.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *knowledge.Store) *Handler {
	return &Handler{store: store}
}

// SettingsResource returns the MCP resource definition for the workspace
// settings.
func (h *Handler) SettingsResource() mcp.Resource {
	return mcp.NewResource(
		SettingsURI,
		"Workspace Settings",
		mcp.WithResourceDescription("Workspace path, last opened product and export defaults"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleSettings returns the current settings as JSON.
func (h *Handler) HandleSettings(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := h.store.LoadSettings()
	if err != nil {
		return errorResource(req.Params.URI, err), nil
	}
	return jsonResource(req.Params.URI, st)
}

// ProductsResource returns the MCP resource definition for the product
// list.
func (h *Handler) ProductsResource() mcp.Resource {
	return mcp.NewResource(
		ProductsURI,
		"Products",
		mcp.WithResourceDescription("All products, most recently active first"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProducts returns the product list as JSON.
func (h *Handler) HandleProducts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := h.store.ListProducts()
	if err != nil {
		return errorResource(req.Params.URI, err), nil
	}
	if list == nil {
		list = []knowledge.Product{}
	}
	return jsonResource(req.Params.URI, list)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri string, err error) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s: %v", knowledge.KindOf(err), err),
		},
	}
}
