// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it opens the knowledge store, builds the
// export engine and injects them into the tools, prompts and resources.
// No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"

	"github.com/HendryAvila/thoughtbox/internal/config"
	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/HendryAvila/thoughtbox/internal/logger"
	"github.com/HendryAvila/thoughtbox/internal/prompts"
	"github.com/HendryAvila/thoughtbox/internal/resources"
	"github.com/HendryAvila/thoughtbox/internal/snapshot"
	"github.com/HendryAvila/thoughtbox/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Tool is what every handler in internal/tools provides.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// New creates and configures the MCP server with all tools, prompts,
// and resources registered.
//
// The returned cleanup function closes the knowledge store and must be
// called on shutdown (typically via defer). It is always non-nil.
func New(cfg *config.Config, log *logger.Logger) (*server.MCPServer, func(), error) {
	if log == nil {
		log = logger.Nop()
	}

	// --- Create shared dependencies ---

	store, err := knowledge.New(knowledge.Config{DataDir: cfg.DataDir})
	if err != nil {
		return nil, noop, fmt.Errorf("opening knowledge store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn("knowledge store close failed", "error", err)
		}
	}

	st, err := store.LoadSettings()
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("loading settings: %w", err)
	}
	restoreLastProduct(store, st, log)

	engine := snapshot.New(store, log)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"thoughtbox",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	for _, t := range Tools(store, engine) {
		s.AddTool(t.Definition(), t.Handle)
	}

	// --- Register prompts ---

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	capturePrompt := prompts.NewCapturePrompt()
	s.AddPrompt(capturePrompt.Definition(), capturePrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.SettingsResource(), resourceHandler.HandleSettings)
	s.AddResource(resourceHandler.ProductsResource(), resourceHandler.HandleProducts)

	log.Info("server ready", "version", Version, "data_dir", cfg.DataDir)
	return s, cleanup, nil
}

// Tools builds every tool handler in registration order.
func Tools(store *knowledge.Store, engine *snapshot.Engine) []Tool {
	return []Tool{
		// Products
		tools.NewProductCreateTool(store),
		tools.NewProductGetTool(store),
		tools.NewProductListTool(store),
		tools.NewProductUpdateTool(store),
		tools.NewProductDeleteTool(store),
		tools.NewProductOpenTool(store),

		// Taxonomy
		tools.NewTaxonomyCreateTool(store),
		tools.NewTaxonomyGetTool(store),
		tools.NewTaxonomyRenameTool(store),
		tools.NewTaxonomyArchiveTool(store),
		tools.NewTaxonomyDeleteTool(store),

		// Entities and tags
		tools.NewEntityCreateTool(store),
		tools.NewEntityGetTool(store),
		tools.NewEntityListTool(store),
		tools.NewEntityUpdateTool(store),
		tools.NewEntityDeleteTool(store),
		tools.NewEntityPromoteTool(store),
		tools.NewEntityToggleTagTool(store),
		tools.NewEntitySelectValueTool(store),

		// Relationships
		tools.NewRelationshipCreateTool(store),
		tools.NewRelationshipDeleteTool(store),
		tools.NewRelationshipListTool(store),
		tools.NewEntityLinksTool(store),

		// Exports and snapshots
		tools.NewExportPreviewTool(store, engine),
		tools.NewExportExecuteTool(store, engine),
		tools.NewExportHistoryTool(store),
		tools.NewExportClearTool(store),
		tools.NewSnapshotCopyTool(engine),

		// Timeline and settings
		tools.NewTimelineTool(store),
		tools.NewSettingsGetTool(store),
		tools.NewSettingsUpdateTool(store),
	}
}

// restoreLastProduct logs the product that will be reopened, and forgets
// it when it no longer exists.
func restoreLastProduct(store *knowledge.Store, st config.Settings, log *logger.Logger) {
	if !st.RestoreLastProduct || st.LastProductID == "" {
		return
	}
	p, err := store.GetProduct(st.LastProductID)
	if err != nil {
		log.Warn("could not check last product", "product_id", st.LastProductID, "error", err)
		return
	}
	if p == nil {
		st.LastProductID = ""
		if _, err := store.SaveSettings(st); err != nil {
			log.Warn("could not forget missing last product", "error", err)
		}
		return
	}
	log.Info("restoring last product", "product_id", p.ID, "name", p.Name)
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use thoughtbox effectively.
func serverInstructions() string {
	return `You have access to thoughtbox, a local product-management knowledge store.

## Model
- A PRODUCT is a workspace. Everything else belongs to exactly one product.
- The TAXONOMY of a product is its personas, feature areas and dimensions
  (each dimension has values). Archived items stay on the entities that
  carry them but are hidden from active listings.
- An ENTITY is one unit of knowledge: capture, problem, hypothesis,
  experiment, decision, artifact, feedback, feature_request or feature.
  Most types have a status vocabulary; status defaults to the first value.
  Each type has its own metadata fields (see entity_create).
- A RELATIONSHIP links two entities of the same product: relates_to,
  supports, tests, informs or evidence.

## Working with the user
1. Start with product_open (no id reopens the last product).
2. File raw thoughts as captures; promote them with entity_promote once
   they are understood. The capture keeps a pointer to what it became.
3. Tag entities with personas, feature areas and dimension values.
   Dimensions are single-select: use entity_select_value.
4. Link evidence: experiments test hypotheses, feedback is evidence for
   problems, decisions are informed by findings.
5. Use timeline_build to show progress over time and snapshot_copy to hand
   a product summary to someone else.

## Exports
export_preview shows what would be written; export_execute writes a JSON
archive and records it in export_history. Defaults come from the workspace
settings (settings_get / settings_update).

## Errors
Failed calls return text starting with not_found, validation or
store_unavailable. Validation errors mean nothing was written.`
}
