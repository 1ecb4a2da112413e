package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/HendryAvila/thoughtbox/internal/timeline"
	"github.com/mark3labs/mcp-go/mcp"
)

// TimelineTool handles the timeline_build MCP tool.
type TimelineTool struct {
	store *knowledge.Store
	now   func() time.Time
}

// NewTimelineTool creates a TimelineTool.
func NewTimelineTool(store *knowledge.Store) *TimelineTool {
	return &TimelineTool{store: store, now: time.Now}
}

// Definition returns the MCP tool definition for timeline_build.
func (t *TimelineTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_build",
		mcp.WithDescription(
			"Place a product's entities on per-type lanes over a time window. "+
				"Captures and artifacts are not shown. Tag filters are ORed within a taxonomy dimension and ANDed across them.",
		),
		mcp.WithString("product_id", mcp.Required(), mcp.Description("Product id")),
		mcp.WithString("range",
			mcp.Enum("1m", "3m", "6m", "1y", "3y", "all"),
			mcp.Description("Time window ending now (default: 6m)"),
		),
		mcp.WithString("lanes", mcp.Description("Comma-separated entity types to show (default: all lanes)")),
		mcp.WithString("persona_ids", mcp.Description("Comma-separated persona ids")),
		mcp.WithString("feature_ids", mcp.Description("Comma-separated feature area ids")),
		mcp.WithString("dimensions", mcp.Description(`JSON object mapping dimension id to value ids, e.g. {"dim-1":["val-a"]}`)),
	)
}

// Handle processes the timeline_build tool call.
func (t *TimelineTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	productID := req.GetString("product_id", "")
	rng, err := timeline.ParseRange(req.GetString("range", ""))
	if err != nil {
		return invalidArg("%v", err), nil
	}

	opts := timeline.Options{
		Range: rng,
		Now:   t.now(),
		Filters: timeline.Filters{
			Personas:     idListArg(req, "persona_ids"),
			FeatureAreas: idListArg(req, "feature_ids"),
		},
	}
	if hasArg(req, "lanes") {
		opts.Visible = []knowledge.EntityType{}
		for _, v := range idListArg(req, "lanes") {
			typ := knowledge.EntityType(v)
			if err := knowledge.ValidateEntityType(typ); err != nil {
				return invalidArg("%v", err), nil
			}
			opts.Visible = append(opts.Visible, typ)
		}
	}
	dims, err := dimensionsArg(req)
	if err != nil {
		return invalidArg("dimensions: %v", err), nil
	}
	opts.Filters.Dimensions = dims

	tax, err := t.store.Taxonomy(productID, true)
	if err != nil {
		return errorResult(err), nil
	}
	entities, err := t.store.ListEntities(productID, knowledge.EntityFilter{})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(timeline.Build(entities, tax, opts)), nil
}

func dimensionsArg(req mcp.CallToolRequest) (map[string][]string, error) {
	raw, ok := req.GetArguments()["dimensions"]
	if !ok || raw == nil {
		return nil, nil
	}
	var data []byte
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil, nil
		}
		data = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		data = b
	}
	var out map[string][]string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
