// Package prompts implements MCP prompt handlers for thoughtbox.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// CapturePrompt handles the thoughtbox-capture MCP prompt.
// It guides the AI to file a loose thought and then offer to promote it.
type CapturePrompt struct{}

// NewCapturePrompt creates a CapturePrompt.
func NewCapturePrompt() *CapturePrompt {
	return &CapturePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *CapturePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("thoughtbox-capture",
		mcp.WithPromptDescription(
			"Capture a quick thought into a product, tag it, and decide whether it "+
				"should become a problem, hypothesis or feature request.",
		),
		mcp.WithArgument("product_id",
			mcp.ArgumentDescription("Product to capture into. Default: the last opened product"),
		),
		mcp.WithArgument("thought",
			mcp.ArgumentDescription("The thought, in your own words"),
		),
	)
}

// Handle processes the thoughtbox-capture prompt request.
func (p *CapturePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments
	productID := args["product_id"]
	thought := args["thought"]

	target := "the product returned by `product_open` with no id"
	if productID != "" {
		target = fmt.Sprintf("product '%s' (open it with `product_open`)", productID)
	}
	ask := "Ask me what is on my mind."
	if thought != "" {
		ask = fmt.Sprintf("My thought: %q", thought)
	}

	return &mcp.GetPromptResult{
		Description: "Capture a thought",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to capture a thought into %s.\n\n"+
						"%s\n\n"+
						"Please:\n"+
						"1. Run `entity_create` with type='capture', a short title and the full thought as body\n"+
						"2. Suggest personas and feature areas from the product taxonomy and tag them with `entity_toggle_tag` once I agree\n"+
						"3. Ask whether it should be promoted, and if so run `entity_promote` with the type I pick\n"+
						"4. Offer to link the result to related entities with `relationship_create`",
					target, ask,
				)),
			},
		},
	}, nil
}
