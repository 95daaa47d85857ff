package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// EpicIssueListTool handles the epic_issue_list MCP tool. Listing is the
// mandatory first step before removing or reordering a link, because only
// the listing exposes association ids.
type EpicIssueListTool struct {
	mgr EpicIssueManager
}

// NewEpicIssueListTool creates an EpicIssueListTool over the given manager.
func NewEpicIssueListTool(mgr EpicIssueManager) *EpicIssueListTool {
	return &EpicIssueListTool{mgr: mgr}
}

// Definition returns the MCP tool definition for registration.
func (t *EpicIssueListTool) Definition() mcp.Tool {
	return mcp.NewTool("epic_issue_list",
		mcp.WithDescription(
			"List the issues linked under an epic, in relative order, with "+
				"each link's association id.",
		),
		mcp.WithString("group",
			mcp.Required(),
			mcp.Description("Group path or numeric group id owning the epic."),
		),
		mcp.WithNumber("epic_iid",
			mcp.Required(),
			mcp.Description("Epic internal id within the group."),
		),
	)
}

// Handle processes the epic_issue_list tool call.
func (t *EpicIssueListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	links, err := t.mgr.List(ctx, req.GetString("group", ""), intArg(req, "epic_iid", 0))
	if err != nil {
		return toolError(err)
	}
	if len(links) == 0 {
		return mcp.NewToolResultText("The epic has no linked issues."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Epic Issues (%d)\n\n", len(links))
	b.WriteString("| Association id | Issue | State | Position |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, link := range links {
		fmt.Fprintf(&b, "| %d | %s (#%d) | %s | %d |\n",
			link.AssociationID, link.Issue.Title, link.Issue.IID, link.Issue.State, link.RelativePosition)
	}
	return mcp.NewToolResultText(b.String()), nil
}
