package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// DeleteTool handles the workitem_delete MCP tool.
type DeleteTool struct {
	svc WorkItemService
}

// NewDeleteTool creates a DeleteTool backed by the given service.
func NewDeleteTool(svc WorkItemService) *DeleteTool {
	return &DeleteTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("workitem_delete",
		mcp.WithDescription("Permanently delete a work item by global id."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Work item global id, e.g. gid://gitlab/WorkItem/42."),
		),
	)
}

// Handle processes the workitem_delete tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if err := t.svc.Delete(ctx, id); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted work item `%s`.", id)), nil
}
