package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// EpicIssueAddTool handles the epic_issue_add MCP tool, linking a project
// issue under a group epic via the legacy association path.
type EpicIssueAddTool struct {
	mgr EpicIssueManager
}

// NewEpicIssueAddTool creates an EpicIssueAddTool over the given manager.
func NewEpicIssueAddTool(mgr EpicIssueManager) *EpicIssueAddTool {
	return &EpicIssueAddTool{mgr: mgr}
}

// Definition returns the MCP tool definition for registration.
func (t *EpicIssueAddTool) Definition() mcp.Tool {
	return mcp.NewTool("epic_issue_add",
		mcp.WithDescription(
			"Link an issue under an epic. Uses the legacy epic-issue "+
				"association, not the hierarchy widget. If the issue already "+
				"belongs to another epic it is moved. Returns the association "+
				"id needed later for epic_issue_remove / epic_issue_reorder.",
		),
		mcp.WithString("group",
			mcp.Required(),
			mcp.Description("Group path or numeric group id owning the epic."),
		),
		mcp.WithNumber("epic_iid",
			mcp.Required(),
			mcp.Description("Epic internal id within the group."),
		),
		mcp.WithNumber("issue_id",
			mcp.Required(),
			mcp.Description("Instance-wide numeric issue id (not the project-local iid)."),
		),
	)
}

// Handle processes the epic_issue_add tool call.
func (t *EpicIssueAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	link, err := t.mgr.Add(ctx,
		req.GetString("group", ""),
		intArg(req, "epic_iid", 0),
		intArg(req, "issue_id", 0),
	)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Linked issue **%s** under the epic.\n\n**Association id:** %d (use this for remove/reorder)\n",
		link.Issue.Title, link.AssociationID,
	)), nil
}
