// Package tools implements the MCP tool handlers over the work-item engine.
//
// Each tool is a struct with its dependencies injected via constructor,
// exposing Definition() for registration and Handle() for dispatch. Tools
// depend on the small interfaces below rather than on concrete engine
// types, so handler tests run against fakes.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tbranmore/trellis/internal/gitlab"
	"github.com/tbranmore/trellis/internal/workitems"
)

// WorkItemService is the slice of the engine the CRUD tools need.
type WorkItemService interface {
	Create(ctx context.Context, req workitems.CreateRequest) (*workitems.WorkItem, error)
	Update(ctx context.Context, req workitems.UpdateRequest) (*workitems.WorkItem, error)
	Get(ctx context.Context, gid string) (*workitems.WorkItem, error)
	GetByReference(ctx context.Context, projectPath, iid string) (*workitems.WorkItem, error)
	List(ctx context.Context, req workitems.ListRequest) (*workitems.WorkItemPage, error)
	Delete(ctx context.Context, gid string) error
}

// TypeRegistry is the slice of the registry the types tool needs.
type TypeRegistry interface {
	Refresh(ctx context.Context, scopeHint string) workitems.Discovery
	Types() []workitems.WorkItemType
	Discovered() bool
}

// EpicIssueManager is the slice of the engine the legacy association
// tools need.
type EpicIssueManager interface {
	Add(ctx context.Context, group string, epicIID, issueID int) (*workitems.EpicIssueLink, error)
	List(ctx context.Context, group string, epicIID int) ([]workitems.EpicIssueLink, error)
	Remove(ctx context.Context, group string, epicIID, associationID int) error
	Reorder(ctx context.Context, group string, epicIID, associationID int, opts workitems.ReorderOptions) error
}

// toolError maps engine errors onto the MCP result contract: failures the
// caller can fix by adjusting the request become error results, unexpected
// server-side failures surface as Go errors.
func toolError(err error) (*mcp.CallToolResult, error) {
	var nf *gitlab.NotFoundError
	var req *gitlab.RequestError
	var perm *gitlab.PermissionError
	if errors.As(err, &nf) || errors.As(err, &req) || errors.As(err, &perm) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

// intArg extracts an integer argument (JSON numbers arrive as float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// stringListArg extracts a string-array argument; missing or malformed
// entries yield nil.
func stringListArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// hasArg reports whether the caller supplied the key at all, so handlers
// can distinguish "omitted" from "empty" when building sparse patches.
func hasArg(req mcp.CallToolRequest, key string) bool {
	_, ok := req.GetArguments()[key]
	return ok
}

// formatWorkItem renders a work item as markdown for the tool result.
func formatWorkItem(item *workitems.WorkItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", item.Title)
	fmt.Fprintf(&b, "**ID:** `%s`\n", item.ID)
	fmt.Fprintf(&b, "**Reference:** %s\n", item.Reference)
	fmt.Fprintf(&b, "**Type:** %s\n", item.Type.Name)
	fmt.Fprintf(&b, "**State:** %s\n", item.State)
	switch {
	case item.Scope.ProjectPath != "":
		fmt.Fprintf(&b, "**Project:** %s\n", item.Scope.ProjectPath)
	case item.Scope.NamespacePath != "":
		fmt.Fprintf(&b, "**Namespace:** %s\n", item.Scope.NamespacePath)
	}
	fmt.Fprintf(&b, "**Author:** %s\n", item.Author.Username)
	fmt.Fprintf(&b, "**URL:** %s\n", item.WebURL)

	if users := item.Widgets.Assignees(); len(users) > 0 {
		names := make([]string, len(users))
		for i, u := range users {
			names[i] = u.Username
		}
		fmt.Fprintf(&b, "**Assignees:** %s\n", strings.Join(names, ", "))
	}
	if labels := item.Widgets.Labels(); len(labels) > 0 {
		titles := make([]string, len(labels))
		for i, l := range labels {
			titles[i] = l.Title
		}
		fmt.Fprintf(&b, "**Labels:** %s\n", strings.Join(titles, ", "))
	}
	if parent := item.Widgets.Parent(); parent != nil {
		fmt.Fprintf(&b, "**Parent:** %s (`%s`)\n", parent.Title, parent.ID)
	}
	if children := item.Widgets.Children(); len(children) > 0 {
		b.WriteString("\n## Children\n\n")
		for _, c := range children {
			fmt.Fprintf(&b, "- %s [%s] (`%s`)\n", c.Title, c.State, c.ID)
		}
	}
	if w, ok := item.Widgets.Widget(workitems.WidgetDates); ok {
		dates := w.(workitems.DatesWidget)
		if dates.StartDate != nil {
			fmt.Fprintf(&b, "**Start date:** %s\n", *dates.StartDate)
		}
		if dates.DueDate != nil {
			fmt.Fprintf(&b, "**Due date:** %s\n", *dates.DueDate)
		}
	}
	if desc := item.Widgets.Description(); desc != "" {
		fmt.Fprintf(&b, "\n## Description\n\n%s\n", desc)
	}
	return b.String()
}

// formatWorkItemLine renders a one-line listing entry.
func formatWorkItemLine(item *workitems.WorkItem) string {
	return fmt.Sprintf("- **%s** [%s/%s] %s (`%s`)", item.Title, item.Type.Name, item.State, item.Reference, item.ID)
}
