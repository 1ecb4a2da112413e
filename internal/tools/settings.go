package tools

import (
	"context"

	"github.com/HendryAvila/thoughtbox/internal/config"
	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── SettingsGetTool ─────────────────────────────────────────────────────────

// SettingsGetTool handles the settings_get MCP tool.
type SettingsGetTool struct {
	store *knowledge.Store
}

// NewSettingsGetTool creates a SettingsGetTool.
func NewSettingsGetTool(store *knowledge.Store) *SettingsGetTool {
	return &SettingsGetTool{store: store}
}

// Definition returns the MCP tool definition for settings_get.
func (t *SettingsGetTool) Definition() mcp.Tool {
	return mcp.NewTool("settings_get",
		mcp.WithDescription("Show the workspace settings: workspace path, last product, export defaults."),
	)
}

// Handle processes the settings_get tool call.
func (t *SettingsGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.store.LoadSettings()
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(st), nil
}

// ─── SettingsUpdateTool ──────────────────────────────────────────────────────

// SettingsUpdateTool handles the settings_update MCP tool.
type SettingsUpdateTool struct {
	store *knowledge.Store
}

// NewSettingsUpdateTool creates a SettingsUpdateTool.
func NewSettingsUpdateTool(store *knowledge.Store) *SettingsUpdateTool {
	return &SettingsUpdateTool{store: store}
}

// Definition returns the MCP tool definition for settings_update.
func (t *SettingsUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("settings_update",
		mcp.WithDescription("Change workspace settings. Only supplied fields change."),
		mcp.WithString("workspace_path", mcp.Description("Directory exports are written under")),
		mcp.WithBoolean("restore_last_product", mcp.Description("Reopen the last product on startup")),
		mcp.WithString("default_export_mode",
			mcp.Enum(string(config.ExportFull), string(config.ExportIncremental)),
			mcp.Description("Default export mode"),
		),
		mcp.WithNumber("default_incremental_days", mcp.Description("Default incremental window in days (at least 1)")),
		mcp.WithBoolean("include_linked_context", mcp.Description("Embed linked entities in exports by default")),
	)
}

// Handle processes the settings_update tool call.
func (t *SettingsUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.store.LoadSettings()
	if err != nil {
		return errorResult(err), nil
	}
	if hasArg(req, "workspace_path") {
		st.WorkspacePath = req.GetString("workspace_path", "")
	}
	if hasArg(req, "restore_last_product") {
		st.RestoreLastProduct = boolArg(req, "restore_last_product", st.RestoreLastProduct)
	}
	if hasArg(req, "default_export_mode") {
		st.DefaultExportMode = config.ExportMode(req.GetString("default_export_mode", ""))
	}
	if hasArg(req, "default_incremental_days") {
		st.DefaultIncrementalDays = intArg(req, "default_incremental_days", 0)
	}
	if hasArg(req, "include_linked_context") {
		st.IncludeLinkedContext = boolArg(req, "include_linked_context", st.IncludeLinkedContext)
	}

	saved, err := t.store.SaveSettings(st)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(saved), nil
}
