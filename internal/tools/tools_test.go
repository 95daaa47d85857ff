package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tbranmore/trellis/internal/gitlab"
	"github.com/tbranmore/trellis/internal/workitems"
)

// --- shared fakes and helpers ---

// fakeService records the last request per operation and plays back a
// scripted item or error.
type fakeService struct {
	item *workitems.WorkItem
	page *workitems.WorkItemPage
	err  error

	createReq *workitems.CreateRequest
	updateReq *workitems.UpdateRequest
	listReq   *workitems.ListRequest
	gotID     string
	deleted   string
}

func (f *fakeService) Create(ctx context.Context, req workitems.CreateRequest) (*workitems.WorkItem, error) {
	f.createReq = &req
	return f.item, f.err
}

func (f *fakeService) Update(ctx context.Context, req workitems.UpdateRequest) (*workitems.WorkItem, error) {
	f.updateReq = &req
	return f.item, f.err
}

func (f *fakeService) Get(ctx context.Context, gid string) (*workitems.WorkItem, error) {
	f.gotID = gid
	return f.item, f.err
}

func (f *fakeService) GetByReference(ctx context.Context, projectPath, iid string) (*workitems.WorkItem, error) {
	f.gotID = projectPath + "#" + iid
	return f.item, f.err
}

func (f *fakeService) List(ctx context.Context, req workitems.ListRequest) (*workitems.WorkItemPage, error) {
	f.listReq = &req
	return f.page, f.err
}

func (f *fakeService) Delete(ctx context.Context, gid string) error {
	f.deleted = gid
	return f.err
}

type fakeManager struct {
	link  *workitems.EpicIssueLink
	links []workitems.EpicIssueLink
	err   error

	removedID   int
	reorderedID int
	reorderOpts workitems.ReorderOptions
}

func (f *fakeManager) Add(ctx context.Context, group string, epicIID, issueID int) (*workitems.EpicIssueLink, error) {
	return f.link, f.err
}

func (f *fakeManager) List(ctx context.Context, group string, epicIID int) ([]workitems.EpicIssueLink, error) {
	return f.links, f.err
}

func (f *fakeManager) Remove(ctx context.Context, group string, epicIID, associationID int) error {
	f.removedID = associationID
	return f.err
}

func (f *fakeManager) Reorder(ctx context.Context, group string, epicIID, associationID int, opts workitems.ReorderOptions) error {
	f.reorderedID = associationID
	f.reorderOpts = opts
	return f.err
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// isErrorResult reports whether a result is an MCP error result.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func sampleWorkItem() *workitems.WorkItem {
	return &workitems.WorkItem{
		ID:        "gid://gitlab/WorkItem/11",
		IID:       "4",
		Title:     "Bug",
		State:     workitems.StateOpen,
		Type:      workitems.WorkItemType{ID: "gid://gitlab/WorkItems::Type/101", Name: "Issue"},
		Scope:     workitems.Scope{ProjectPath: "g/p"},
		Author:    workitems.User{Username: "ada"},
		WebURL:    "https://gitlab.example.com/g/p/-/work_items/4",
		Reference: "g/p#4",
	}
}

// --- CreateTool ---

func TestCreateTool_Definition(t *testing.T) {
	tool := NewCreateTool(&fakeService{})
	if def := tool.Definition(); def.Name != "workitem_create" {
		t.Errorf("name = %q, want workitem_create", def.Name)
	}
}

func TestCreateTool_Handle_SparseRequest(t *testing.T) {
	svc := &fakeService{item: sampleWorkItem()}
	tool := NewCreateTool(svc)

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"type":         "ISSUE",
		"title":        "Bug",
		"project_path": "g/p",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("unexpected error result: %s", getResultText(result))
	}

	req := svc.createReq
	if req.Type != "ISSUE" || req.Title != "Bug" || req.ProjectPath != "g/p" {
		t.Errorf("request = %+v", req)
	}
	// Nothing else was supplied, so nothing else may be present.
	if req.Description.Present() || req.Confidential.Present() || req.ParentID.Present() ||
		req.MilestoneID.Present() || req.IterationID.Present() ||
		req.StartDate.Present() || req.DueDate.Present() {
		t.Errorf("optional fields leaked into the request: %+v", req)
	}
	if req.AssigneeIDs != nil || req.LabelIDs != nil {
		t.Errorf("widget lists leaked into the request: %+v", req)
	}

	if !strings.Contains(getResultText(result), "Bug") {
		t.Error("result should include the created item")
	}
}

func TestCreateTool_Handle_UserFixableErrorBecomesErrorResult(t *testing.T) {
	svc := &fakeService{err: gitlab.Requestf("exactly one of project path or namespace path must be given")}
	tool := NewCreateTool(svc)

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"type": "ISSUE", "title": "Bug", "project_path": "g/p", "namespace_path": "g",
	}))
	if err != nil {
		t.Fatalf("user-fixable failures must not surface as Go errors: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an MCP error result")
	}
}

func TestCreateTool_Handle_ServerErrorSurfaces(t *testing.T) {
	svc := &fakeService{err: &gitlab.ServerError{Op: "workItemCreate", Err: errors.New("boom")}}
	tool := NewCreateTool(svc)

	_, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"type": "ISSUE", "title": "Bug", "project_path": "g/p",
	}))
	if err == nil {
		t.Fatal("server errors must surface as Go errors")
	}
}

// --- UpdateTool ---

func TestUpdateTool_Handle_StateEventForwarded(t *testing.T) {
	svc := &fakeService{item: sampleWorkItem()}
	tool := NewUpdateTool(svc)

	_, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"id":          "gid://gitlab/WorkItem/11",
		"state_event": "close",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	req := svc.updateReq
	v, ok := req.StateEvent.Value()
	if !ok || v != "close" {
		t.Errorf("StateEvent = %q, %v (the engine uppercases on the wire)", v, ok)
	}
	if req.Title.Present() || req.Assignees != nil || req.Labels != nil ||
		req.Hierarchy != nil || req.Milestone != nil || req.Iteration != nil || req.Dates != nil {
		t.Errorf("unsupplied patches leaked: %+v", req)
	}
}

func TestUpdateTool_Handle_EmptyParentClears(t *testing.T) {
	svc := &fakeService{item: sampleWorkItem()}
	tool := NewUpdateTool(svc)

	_, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"id":        "gid://gitlab/WorkItem/11",
		"parent_id": "",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if svc.updateReq.Hierarchy == nil {
		t.Fatal("hierarchy patch missing")
	}
	if svc.updateReq.Hierarchy.ParentID != nil {
		t.Error("empty parent_id should clear the parent (nil pointer)")
	}
}

func TestUpdateTool_Handle_DueDateOnly(t *testing.T) {
	svc := &fakeService{item: sampleWorkItem()}
	tool := NewUpdateTool(svc)

	_, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"id":       "gid://gitlab/WorkItem/11",
		"due_date": "2026-06-01",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	dates := svc.updateReq.Dates
	if dates == nil {
		t.Fatal("dates patch missing")
	}
	if dates.StartDate.Present() {
		t.Error("start date must stay absent")
	}
	if v, ok := dates.DueDate.Value(); !ok || v != "2026-06-01" {
		t.Errorf("due date = %q, %v", v, ok)
	}
}

// --- GetTool ---

func TestGetTool_Handle_RequiresIDOrReference(t *testing.T) {
	tool := NewGetTool(&fakeService{})

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result without id or project_path+iid")
	}

	result, err = tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"project_path": "g/p",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("project_path without iid must be rejected")
	}
}

func TestGetTool_Handle_NotFound(t *testing.T) {
	svc := &fakeService{err: &gitlab.NotFoundError{Resource: "work item", ID: "x"}}
	tool := NewGetTool(svc)

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"id": "gid://gitlab/WorkItem/404",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("not-found should be an error result, not a Go error")
	}
}

// --- ListTool ---

func TestListTool_Handle_ForwardsFilters(t *testing.T) {
	svc := &fakeService{page: &workitems.WorkItemPage{
		Items:    []workitems.WorkItem{*sampleWorkItem()},
		PageInfo: workitems.PageInfo{EndCursor: "abc", HasNextPage: true},
	}}
	tool := NewListTool(svc)

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"project_path": "g/p",
		"types":        []any{"Issue", "Task"},
		"state":        "opened",
		"search":       "crash",
		"first":        float64(5),
		"after":        "xyz",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	req := svc.listReq
	if req.ProjectPath != "g/p" || req.State != "opened" || req.Search != "crash" ||
		req.First != 5 || req.After != "xyz" {
		t.Errorf("request = %+v", req)
	}
	if len(req.Types) != 2 {
		t.Errorf("Types = %v", req.Types)
	}
	text := getResultText(result)
	if !strings.Contains(text, "Bug") || !strings.Contains(text, "abc") {
		t.Errorf("result = %q", text)
	}
}

// --- DeleteTool ---

func TestDeleteTool_Handle(t *testing.T) {
	svc := &fakeService{}
	tool := NewDeleteTool(svc)

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"id": "gid://gitlab/WorkItem/11",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("unexpected error result: %s", getResultText(result))
	}
	if svc.deleted != "gid://gitlab/WorkItem/11" {
		t.Errorf("deleted = %q", svc.deleted)
	}
}

// --- TypesTool ---

type fakeRegistry struct {
	discovery  workitems.Discovery
	types      []workitems.WorkItemType
	discovered bool
	refreshed  bool
}

func (f *fakeRegistry) Refresh(ctx context.Context, scopeHint string) workitems.Discovery {
	f.refreshed = true
	return f.discovery
}

func (f *fakeRegistry) Types() []workitems.WorkItemType { return f.types }

func (f *fakeRegistry) Discovered() bool { return f.discovered }

func TestTypesTool_Handle_NoRefreshByDefault(t *testing.T) {
	reg := &fakeRegistry{
		types:      []workitems.WorkItemType{{ID: "gid://x/1", Name: "Issue"}},
		discovered: true,
	}
	tool := NewTypesTool(reg)

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if reg.refreshed {
		t.Error("refresh must be explicit, never implicit")
	}
	text := getResultText(result)
	if !strings.Contains(text, "Issue") || !strings.Contains(text, "live instance") {
		t.Errorf("result = %q", text)
	}
}

func TestTypesTool_Handle_RefreshReportsFallback(t *testing.T) {
	reg := &fakeRegistry{
		discovery: workitems.Discovery{Source: workitems.FallbackTable, Reason: "no memberships"},
		types:     []workitems.WorkItemType{{ID: "gid://x/1", Name: "Issue"}},
	}
	tool := NewTypesTool(reg)

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"refresh": true,
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !reg.refreshed {
		t.Error("refresh was requested but never ran")
	}
	text := getResultText(result)
	if !strings.Contains(text, "fallback") || !strings.Contains(text, "no memberships") {
		t.Errorf("result = %q", text)
	}
}

// --- epic issue tools ---

func TestEpicIssueAddTool_Handle(t *testing.T) {
	mgr := &fakeManager{link: &workitems.EpicIssueLink{
		AssociationID: 77,
		Issue:         workitems.IssueRef{ID: 300, Title: "Bug"},
	}}
	tool := NewEpicIssueAddTool(mgr)

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"group": "my-group", "epic_iid": float64(2), "issue_id": float64(300),
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(getResultText(result), "77") {
		t.Error("result must surface the association id for follow-up calls")
	}
}

func TestEpicIssueRemoveTool_Handle(t *testing.T) {
	mgr := &fakeManager{}
	tool := NewEpicIssueRemoveTool(mgr)

	_, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"group": "my-group", "epic_iid": float64(2), "association_id": float64(77),
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if mgr.removedID != 77 {
		t.Errorf("removedID = %d, want 77", mgr.removedID)
	}
}

func TestEpicIssueReorderTool_Handle(t *testing.T) {
	mgr := &fakeManager{}
	tool := NewEpicIssueReorderTool(mgr)

	_, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"group":          "my-group",
		"epic_iid":       float64(2),
		"association_id": float64(77),
		"move_after_id":  float64(78),
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if mgr.reorderedID != 77 {
		t.Errorf("reorderedID = %d", mgr.reorderedID)
	}
	if mgr.reorderOpts.MoveAfterID == nil || *mgr.reorderOpts.MoveAfterID != 78 {
		t.Errorf("MoveAfterID = %v", mgr.reorderOpts.MoveAfterID)
	}
	if mgr.reorderOpts.MoveBeforeID != nil {
		t.Error("MoveBeforeID must stay nil when not supplied")
	}
}

func TestEpicIssueListTool_Handle_Empty(t *testing.T) {
	tool := NewEpicIssueListTool(&fakeManager{})
	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"group": "my-group", "epic_iid": float64(2),
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(getResultText(result), "no linked issues") {
		t.Errorf("result = %q", getResultText(result))
	}
}
