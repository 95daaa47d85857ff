package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// EpicIssueRemoveTool handles the epic_issue_remove MCP tool.
type EpicIssueRemoveTool struct {
	mgr EpicIssueManager
}

// NewEpicIssueRemoveTool creates an EpicIssueRemoveTool over the given manager.
func NewEpicIssueRemoveTool(mgr EpicIssueManager) *EpicIssueRemoveTool {
	return &EpicIssueRemoveTool{mgr: mgr}
}

// Definition returns the MCP tool definition for registration. The input
// deliberately takes an association id, not an issue id: callers must run
// epic_issue_list first to learn it.
func (t *EpicIssueRemoveTool) Definition() mcp.Tool {
	return mcp.NewTool("epic_issue_remove",
		mcp.WithDescription(
			"Unlink an issue from an epic by association id. Run "+
				"epic_issue_list first to find the association id — issue ids "+
				"are not accepted here.",
		),
		mcp.WithString("group",
			mcp.Required(),
			mcp.Description("Group path or numeric group id owning the epic."),
		),
		mcp.WithNumber("epic_iid",
			mcp.Required(),
			mcp.Description("Epic internal id within the group."),
		),
		mcp.WithNumber("association_id",
			mcp.Required(),
			mcp.Description("The link's own id from epic_issue_list."),
		),
	)
}

// Handle processes the epic_issue_remove tool call.
func (t *EpicIssueRemoveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	assocID := intArg(req, "association_id", 0)
	err := t.mgr.Remove(ctx, req.GetString("group", ""), intArg(req, "epic_iid", 0), assocID)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed association %d.", assocID)), nil
}
