package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tbranmore/trellis/internal/workitems"
)

// CreateTool handles the workitem_create MCP tool.
type CreateTool struct {
	svc WorkItemService
}

// NewCreateTool creates a CreateTool backed by the given service.
func NewCreateTool(svc WorkItemService) *CreateTool {
	return &CreateTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool("workitem_create",
		mcp.WithDescription(
			"Create a work item (issue, epic, task, objective, key result, "+
				"incident, test case, requirement). Exactly one of `project_path` "+
				"or `namespace_path` is required. Only supplied fields are sent.",
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Work item type name (e.g. Issue, Epic, Task) or an opaque type id."),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the new work item."),
		),
		mcp.WithString("project_path",
			mcp.Description("Full project path, e.g. group/project. Mutually exclusive with namespace_path."),
		),
		mcp.WithString("namespace_path",
			mcp.Description("Full namespace (group) path, for group-level items such as epics."),
		),
		mcp.WithString("description",
			mcp.Description("Markdown description."),
		),
		mcp.WithBoolean("confidential",
			mcp.Description("Mark the item confidential."),
		),
		mcp.WithArray("assignee_ids",
			mcp.Description("User global ids to assign."),
			mcp.WithStringItems(),
		),
		mcp.WithArray("label_ids",
			mcp.Description("Label global ids to attach."),
			mcp.WithStringItems(),
		),
		mcp.WithString("parent_id",
			mcp.Description("Global id of the hierarchy parent work item."),
		),
		mcp.WithString("milestone_id",
			mcp.Description("Milestone global id."),
		),
		mcp.WithString("iteration_id",
			mcp.Description("Iteration global id."),
		),
		mcp.WithString("start_date",
			mcp.Description("Start date, YYYY-MM-DD."),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date, YYYY-MM-DD."),
		),
	)
}

// Handle processes the workitem_create tool call.
func (t *CreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	createReq := workitems.CreateRequest{
		ProjectPath:   req.GetString("project_path", ""),
		NamespacePath: req.GetString("namespace_path", ""),
		Type:          req.GetString("type", ""),
		Title:         req.GetString("title", ""),
		AssigneeIDs:   stringListArg(req, "assignee_ids"),
		LabelIDs:      stringListArg(req, "label_ids"),
	}
	if hasArg(req, "description") {
		createReq.Description = workitems.Set(req.GetString("description", ""))
	}
	if hasArg(req, "confidential") {
		createReq.Confidential = workitems.Set(req.GetBool("confidential", false))
	}
	if v := req.GetString("parent_id", ""); v != "" {
		createReq.ParentID = workitems.Set(v)
	}
	if v := req.GetString("milestone_id", ""); v != "" {
		createReq.MilestoneID = workitems.Set(v)
	}
	if v := req.GetString("iteration_id", ""); v != "" {
		createReq.IterationID = workitems.Set(v)
	}
	if v := req.GetString("start_date", ""); v != "" {
		createReq.StartDate = workitems.Set(v)
	}
	if v := req.GetString("due_date", ""); v != "" {
		createReq.DueDate = workitems.Set(v)
	}

	item, err := t.svc.Create(ctx, createReq)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(formatWorkItem(item)), nil
}
