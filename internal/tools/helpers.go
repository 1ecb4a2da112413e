// Package tools implements the MCP tool handlers that bridge a UI host to
// the thoughtbox knowledge store.
//
// Each tool receives its dependencies through its struct and exposes:
//   - Definition() returning the mcp.Tool schema
//   - Handle() processing the request
//
// A handler never returns a Go error for a failed operation. Success is a
// JSON text payload; failure is an error result whose text starts with the
// failure kind (not_found, validation, store_unavailable).
package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/mark3labs/mcp-go/mcp"
)

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// errorResult converts a store or engine error into a tagged error result.
func errorResult(err error) *mcp.CallToolResult {
	kind := knowledge.KindOf(err)
	if kind == "" {
		kind = knowledge.KindUnavailable
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", kind, err))
}

// invalidArg reports a malformed or missing argument.
func invalidArg(format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(knowledge.KindValidation + ": " + fmt.Sprintf(format, args...))
}

// notFoundResult reports an absent record on a read.
func notFoundResult(what, id string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s %q not found", knowledge.KindNotFound, what, id))
}

// hasArg reports whether key was supplied at all.
func hasArg(req mcp.CallToolRequest, key string) bool {
	_, ok := req.GetArguments()[key]
	return ok
}

// optionalString returns a pointer to the argument when supplied.
func optionalString(req mcp.CallToolRequest, key string) *string {
	if !hasArg(req, key) {
		return nil
	}
	v := req.GetString(key, "")
	return &v
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// idListArg reads a comma-separated id list. A JSON array of strings is
// accepted too.
func idListArg(req mcp.CallToolRequest, key string) []string {
	switch v := req.GetArguments()[key].(type) {
	case string:
		return splitList(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// metadataArg decodes the "metadata" argument (a JSON object, or a string
// holding one) into the variant for t.
func metadataArg(req mcp.CallToolRequest, t knowledge.EntityType) (knowledge.Metadata, error) {
	raw, ok := req.GetArguments()["metadata"]
	if !ok || raw == nil {
		return nil, nil
	}
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return knowledge.DecodeMetadata(t, data)
}

// statusHelp lists the status vocabulary of every type that has one.
func statusHelp(lead string) string {
	var parts []string
	for _, t := range knowledge.EntityTypes {
		if knowledge.HasStatus(t) {
			parts = append(parts, fmt.Sprintf("%s: %s", t, strings.Join(knowledge.Statuses(t), ", ")))
		}
	}
	return lead + ". " + strings.Join(parts, "; ")
}

func entityTypeNames() []string {
	names := make([]string, len(knowledge.EntityTypes))
	for i, t := range knowledge.EntityTypes {
		names[i] = string(t)
	}
	return names
}
