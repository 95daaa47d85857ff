package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tbranmore/trellis/internal/workitems"
)

// UpdateTool handles the workitem_update MCP tool. Every field other than
// the id is optional; the remote only sees what the caller supplied.
type UpdateTool struct {
	svc WorkItemService
}

// NewUpdateTool creates an UpdateTool backed by the given service.
func NewUpdateTool(svc WorkItemService) *UpdateTool {
	return &UpdateTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("workitem_update",
		mcp.WithDescription(
			"Update a work item by global id. Only supplied fields change. "+
				"Pass an empty string for `parent_id`, `milestone_id`, `iteration_id`, "+
				"`start_date` or `due_date` to clear that value.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Work item global id, e.g. gid://gitlab/WorkItem/42."),
		),
		mcp.WithString("title",
			mcp.Description("New title."),
		),
		mcp.WithString("state_event",
			mcp.Description("State transition: close or reopen."),
		),
		mcp.WithBoolean("confidential",
			mcp.Description("Change the confidential flag."),
		),
		mcp.WithArray("assignee_ids",
			mcp.Description("Full replacement assignee set (user global ids). An empty array unassigns everyone."),
			mcp.WithStringItems(),
		),
		mcp.WithArray("labels_add",
			mcp.Description("Label global ids to add."),
			mcp.WithStringItems(),
		),
		mcp.WithArray("labels_remove",
			mcp.Description("Label global ids to remove."),
			mcp.WithStringItems(),
		),
		mcp.WithString("parent_id",
			mcp.Description("New hierarchy parent global id; empty string detaches from the current parent."),
		),
		mcp.WithString("milestone_id",
			mcp.Description("Milestone global id; empty string clears it."),
		),
		mcp.WithString("iteration_id",
			mcp.Description("Iteration global id; empty string clears it."),
		),
		mcp.WithString("start_date",
			mcp.Description("Start date YYYY-MM-DD; empty string clears it."),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date YYYY-MM-DD; empty string clears it."),
		),
	)
}

// Handle processes the workitem_update tool call.
func (t *UpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	updateReq := workitems.UpdateRequest{
		ID: req.GetString("id", ""),
	}
	if hasArg(req, "title") {
		updateReq.Title = workitems.Set(req.GetString("title", ""))
	}
	if hasArg(req, "state_event") {
		updateReq.StateEvent = workitems.Set(req.GetString("state_event", ""))
	}
	if hasArg(req, "confidential") {
		updateReq.Confidential = workitems.Set(req.GetBool("confidential", false))
	}
	if hasArg(req, "assignee_ids") {
		updateReq.Assignees = &workitems.AssigneesPatch{UserIDs: stringListArg(req, "assignee_ids")}
	}
	if hasArg(req, "labels_add") || hasArg(req, "labels_remove") {
		updateReq.Labels = &workitems.LabelsPatch{
			AddIDs:    stringListArg(req, "labels_add"),
			RemoveIDs: stringListArg(req, "labels_remove"),
		}
	}
	if hasArg(req, "parent_id") {
		updateReq.Hierarchy = &workitems.HierarchyPatch{ParentID: optionalID(req.GetString("parent_id", ""))}
	}
	if hasArg(req, "milestone_id") {
		updateReq.Milestone = &workitems.RefPatch{ID: optionalID(req.GetString("milestone_id", ""))}
	}
	if hasArg(req, "iteration_id") {
		updateReq.Iteration = &workitems.RefPatch{ID: optionalID(req.GetString("iteration_id", ""))}
	}
	if hasArg(req, "start_date") || hasArg(req, "due_date") {
		dates := &workitems.DatesPatch{}
		if hasArg(req, "start_date") {
			dates.StartDate = optionalDate(req.GetString("start_date", ""))
		}
		if hasArg(req, "due_date") {
			dates.DueDate = optionalDate(req.GetString("due_date", ""))
		}
		updateReq.Dates = dates
	}

	item, err := t.svc.Update(ctx, updateReq)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(formatWorkItem(item)), nil
}

// optionalID maps the tool convention (empty string clears) onto the
// engine's nullable pointer.
func optionalID(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// optionalDate maps the tool convention onto a patch field: empty string
// becomes an explicit null.
func optionalDate(v string) workitems.Field[string] {
	if v == "" {
		return workitems.Null[string]()
	}
	return workitems.Set(v)
}
