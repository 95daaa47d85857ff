package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tbranmore/trellis/internal/workitems"
)

// ListTool handles the workitem_list MCP tool.
type ListTool struct {
	svc WorkItemService
}

// NewListTool creates a ListTool backed by the given service.
func NewListTool(svc WorkItemService) *ListTool {
	return &ListTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("workitem_list",
		mcp.WithDescription(
			"List work items in a project or a namespace (exactly one is "+
				"required). Filter by type, state and search text; paginate "+
				"with `first` and the `after` cursor from a previous page.",
		),
		mcp.WithString("project_path",
			mcp.Description("Full project path. Mutually exclusive with namespace_path."),
		),
		mcp.WithString("namespace_path",
			mcp.Description("Full namespace (group) path."),
		),
		mcp.WithArray("types",
			mcp.Description("Type names to include, e.g. [\"Issue\", \"Task\"]."),
			mcp.WithStringItems(),
		),
		mcp.WithString("state",
			mcp.Description("opened, closed or all."),
		),
		mcp.WithString("search",
			mcp.Description("Free-text search over title and description."),
		),
		mcp.WithNumber("first",
			mcp.Description("Page size (default 20)."),
		),
		mcp.WithString("after",
			mcp.Description("Cursor from the previous page's end_cursor."),
		),
	)
}

// Handle processes the workitem_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := t.svc.List(ctx, workitems.ListRequest{
		ProjectPath:   req.GetString("project_path", ""),
		NamespacePath: req.GetString("namespace_path", ""),
		Types:         stringListArg(req, "types"),
		State:         req.GetString("state", ""),
		Search:        req.GetString("search", ""),
		First:         intArg(req, "first", 20),
		After:         req.GetString("after", ""),
	})
	if err != nil {
		return toolError(err)
	}

	if len(page.Items) == 0 {
		return mcp.NewToolResultText("No work items matched."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Work Items (%d)\n\n", len(page.Items))
	for i := range page.Items {
		b.WriteString(formatWorkItemLine(&page.Items[i]))
		b.WriteString("\n")
	}
	if page.PageInfo.HasNextPage {
		fmt.Fprintf(&b, "\nMore results available — pass `after: %q` to fetch the next page.\n", page.PageInfo.EndCursor)
	}
	return mcp.NewToolResultText(b.String()), nil
}
