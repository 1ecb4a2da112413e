package tools

import (
	"context"
	"time"

	"github.com/HendryAvila/thoughtbox/internal/config"
	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/HendryAvila/thoughtbox/internal/snapshot"
	"github.com/mark3labs/mcp-go/mcp"
)

// exportOptions declares the arguments shared by export_preview and
// export_execute.
func exportOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("product_id", mcp.Description("Product to export; omit for every product")),
		mcp.WithString("mode",
			mcp.Enum(string(config.ExportFull), string(config.ExportIncremental)),
			mcp.Description("Export mode (default: from settings)"),
		),
		mcp.WithNumber("since_days", mcp.Description("Incremental window in days (default: from settings)")),
		mcp.WithBoolean("include_linked", mcp.Description("Embed linked entities (default: from settings)")),
	}
}

// exportRequest resolves settings plus call arguments into a request.
func exportRequest(store *knowledge.Store, req mcp.CallToolRequest, now time.Time) (snapshot.Request, error) {
	st, err := store.LoadSettings()
	if err != nil {
		return snapshot.Request{}, err
	}
	var o snapshot.Overrides
	if v := req.GetString("mode", ""); v != "" {
		mode := config.ExportMode(v)
		o.Mode = &mode
	}
	if hasArg(req, "since_days") {
		days := intArg(req, "since_days", 0)
		o.SinceDays = &days
	}
	if hasArg(req, "include_linked") {
		linked := boolArg(req, "include_linked", st.IncludeLinkedContext)
		o.IncludeLinked = &linked
	}
	o.OutputPath = req.GetString("output_path", "")
	return snapshot.BuildRequest(st, req.GetString("product_id", ""), now, o)
}

// ─── ExportPreviewTool ───────────────────────────────────────────────────────

// ExportPreviewTool handles the export_preview MCP tool.
type ExportPreviewTool struct {
	store  *knowledge.Store
	engine *snapshot.Engine
}

// NewExportPreviewTool creates an ExportPreviewTool.
func NewExportPreviewTool(store *knowledge.Store, engine *snapshot.Engine) *ExportPreviewTool {
	return &ExportPreviewTool{store: store, engine: engine}
}

// Definition returns the MCP tool definition for export_preview.
func (t *ExportPreviewTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Show what an export would contain (counts per type and entity summaries) without writing anything."),
	}, exportOptions()...)
	return mcp.NewTool("export_preview", opts...)
}

// Handle processes the export_preview tool call.
func (t *ExportPreviewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := exportRequest(t.store, req, time.Now())
	if err != nil {
		return errorResult(err), nil
	}
	p, err := t.engine.Preview(r)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(p), nil
}

// ─── ExportExecuteTool ───────────────────────────────────────────────────────

// ExportExecuteTool handles the export_execute MCP tool.
type ExportExecuteTool struct {
	store  *knowledge.Store
	engine *snapshot.Engine
}

// NewExportExecuteTool creates an ExportExecuteTool.
func NewExportExecuteTool(store *knowledge.Store, engine *snapshot.Engine) *ExportExecuteTool {
	return &ExportExecuteTool{store: store, engine: engine}
}

// Definition returns the MCP tool definition for export_execute.
func (t *ExportExecuteTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription(
			"Write a JSON export archive and record it in the export history. " +
				"Either both happen or neither does.",
		),
		mcp.WithString("output_path", mcp.Description("Archive file path (default: a timestamped file under <workspace>/exports)")),
	}, exportOptions()...)
	return mcp.NewTool("export_execute", opts...)
}

// Handle processes the export_execute tool call.
func (t *ExportExecuteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := exportRequest(t.store, req, time.Now())
	if err != nil {
		return errorResult(err), nil
	}
	rec, err := t.engine.Execute(r)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(rec), nil
}

// ─── ExportHistoryTool ───────────────────────────────────────────────────────

// ExportHistoryTool handles the export_history MCP tool.
type ExportHistoryTool struct {
	store *knowledge.Store
}

// NewExportHistoryTool creates an ExportHistoryTool.
func NewExportHistoryTool(store *knowledge.Store) *ExportHistoryTool {
	return &ExportHistoryTool{store: store}
}

// Definition returns the MCP tool definition for export_history.
func (t *ExportHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("export_history",
		mcp.WithDescription("List executed exports, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum records to return (default: all)")),
	)
}

// Handle processes the export_history tool call.
func (t *ExportHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := t.store.ListExportRecords(intArg(req, "limit", 0))
	if err != nil {
		return errorResult(err), nil
	}
	if recs == nil {
		recs = []knowledge.ExportRecord{}
	}
	return jsonResult(recs), nil
}

// ─── ExportClearTool ─────────────────────────────────────────────────────────

// ExportClearTool handles the export_clear MCP tool.
type ExportClearTool struct {
	store *knowledge.Store
}

// NewExportClearTool creates an ExportClearTool.
func NewExportClearTool(store *knowledge.Store) *ExportClearTool {
	return &ExportClearTool{store: store}
}

// Definition returns the MCP tool definition for export_clear.
func (t *ExportClearTool) Definition() mcp.Tool {
	return mcp.NewTool("export_clear",
		mcp.WithDescription("Clear the export history. Archive files on disk are left alone."),
	)
}

// Handle processes the export_clear tool call.
func (t *ExportClearTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := t.store.ClearExportRecords()
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{"cleared": n}), nil
}

// ─── SnapshotCopyTool ────────────────────────────────────────────────────────

// SnapshotCopyTool handles the snapshot_copy MCP tool.
type SnapshotCopyTool struct {
	engine *snapshot.Engine
}

// NewSnapshotCopyTool creates a SnapshotCopyTool.
func NewSnapshotCopyTool(engine *snapshot.Engine) *SnapshotCopyTool {
	return &SnapshotCopyTool{engine: engine}
}

// Definition returns the MCP tool definition for snapshot_copy.
func (t *SnapshotCopyTool) Definition() mcp.Tool {
	return mcp.NewTool("snapshot_copy",
		mcp.WithDescription("Render a product as Markdown text, one section per entity, ready to paste elsewhere."),
		mcp.WithString("product_id", mcp.Required(), mcp.Description("Product id")),
	)
}

// Handle processes the snapshot_copy tool call.
func (t *SnapshotCopyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := t.engine.CopySnapshot(req.GetString("product_id", ""))
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(text), nil
}
