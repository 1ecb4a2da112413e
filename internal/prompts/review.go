package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the thoughtbox-review MCP prompt.
// It instructs the AI to read a product and summarize where it stands.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("thoughtbox-review",
		mcp.WithPromptDescription(
			"Review a product: open problems, hypotheses under test, recent decisions "+
				"and what to do next.",
		),
		mcp.WithArgument("product_id",
			mcp.ArgumentDescription("Product to review. Default: the last opened product"),
		),
	)
}

// Handle processes the thoughtbox-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	open := "Run `product_open` with no id to reopen my last product."
	if id := req.Params.Arguments["product_id"]; id != "" {
		open = fmt.Sprintf("Run `product_open` with id='%s'.", id)
	}

	return &mcp.GetPromptResult{
		Description: "Product review",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					open + "\n\n" +
						"Then:\n" +
						"1. Run `timeline_build` with range='3m' and describe what moved recently\n" +
						"2. List problems that are still active or blocked with `entity_list`\n" +
						"3. For each running experiment, show which hypothesis it tests using `entity_links`\n" +
						"4. Point out captures and feedback that were never promoted\n" +
						"5. Tell me the one thing I should look at next",
				),
			},
		},
	}, nil
}
