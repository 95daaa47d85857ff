package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tbranmore/trellis/internal/workitems"
)

// GetTool handles the workitem_get MCP tool.
type GetTool struct {
	svc WorkItemService
}

// NewGetTool creates a GetTool backed by the given service.
func NewGetTool(svc WorkItemService) *GetTool {
	return &GetTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("workitem_get",
		mcp.WithDescription(
			"Fetch one work item, either by global `id` or by `project_path` "+
				"plus `iid` (the number in the item's reference).",
		),
		mcp.WithString("id",
			mcp.Description("Work item global id."),
		),
		mcp.WithString("project_path",
			mcp.Description("Full project path, used together with iid."),
		),
		mcp.WithString("iid",
			mcp.Description("Internal id within the project, used together with project_path."),
		),
	)
}

// Handle processes the workitem_get tool call.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	projectPath := req.GetString("project_path", "")
	iid := req.GetString("iid", "")

	if id == "" && (projectPath == "" || iid == "") {
		return mcp.NewToolResultError("provide either `id`, or both `project_path` and `iid`"), nil
	}

	var (
		item *workitems.WorkItem
		err  error
	)
	if id != "" {
		item, err = t.svc.Get(ctx, id)
	} else {
		item, err = t.svc.GetByReference(ctx, projectPath, iid)
	}
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(formatWorkItem(item)), nil
}
