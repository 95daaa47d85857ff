package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tbranmore/trellis/internal/workitems"
)

// EpicIssueReorderTool handles the epic_issue_reorder MCP tool.
type EpicIssueReorderTool struct {
	mgr EpicIssueManager
}

// NewEpicIssueReorderTool creates an EpicIssueReorderTool over the given manager.
func NewEpicIssueReorderTool(mgr EpicIssueManager) *EpicIssueReorderTool {
	return &EpicIssueReorderTool{mgr: mgr}
}

// Definition returns the MCP tool definition for registration.
func (t *EpicIssueReorderTool) Definition() mcp.Tool {
	return mcp.NewTool("epic_issue_reorder",
		mcp.WithDescription(
			"Move a linked issue within its epic's ordering. All three ids "+
				"are association ids from epic_issue_list — never issue or "+
				"epic ids. Supply move_before_id, move_after_id, or both.",
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
			mcp.Description("The link to move."),
		),
		mcp.WithNumber("move_before_id",
			mcp.Description("Association id the link should end up before."),
		),
		mcp.WithNumber("move_after_id",
			mcp.Description("Association id the link should end up after."),
		),
	)
}

// Handle processes the epic_issue_reorder tool call.
func (t *EpicIssueReorderTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var opts workitems.ReorderOptions
	if hasArg(req, "move_before_id") {
		v := intArg(req, "move_before_id", 0)
		opts.MoveBeforeID = &v
	}
	if hasArg(req, "move_after_id") {
		v := intArg(req, "move_after_id", 0)
		opts.MoveAfterID = &v
	}

	assocID := intArg(req, "association_id", 0)
	err := t.mgr.Reorder(ctx, req.GetString("group", ""), intArg(req, "epic_iid", 0), assocID, opts)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reordered association %d.", assocID)), nil
}
