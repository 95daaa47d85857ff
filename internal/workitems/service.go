package workitems

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tbranmore/trellis/internal/gitlab"
)

// Service executes work-item operations against the remote instance. Each
// call is one round trip; the service holds no state beyond its transport
// and the injected type registry.
type Service struct {
	gql GraphQLDoer
	reg *Registry
}

// NewService builds a Service on the shared transport and registry.
func NewService(gql GraphQLDoer, reg *Registry) *Service {
	return &Service{gql: gql, reg: reg}
}

// ListRequest filters a work-item listing. Exactly one of
// ProjectPath/NamespacePath must be set. Types are names resolved through
// the type-name folding ("Test Case" filters TEST_CASE items). First/After
// drive cursor pagination.
type ListRequest struct {
	ProjectPath   string
	NamespacePath string
	Types         []string
	State         string // "opened", "closed" or "all"
	Search        string
	First         int
	After         string
}

// mutationPayload is the common shape of workItemCreate/workItemUpdate
// results.
type mutationPayload struct {
	WorkItem json.RawMessage `json:"workItem"`
	Errors   []string        `json:"errors"`
}

// entity extracts the mutated work item, enforcing the failure contract:
// a non-empty errors list is a request failure, and a missing entity with
// no reported errors is also a failure rather than a silent no-op.
func (p *mutationPayload) entity(op string) (*WorkItem, error) {
	if len(p.Errors) > 0 {
		return nil, &gitlab.RequestError{Message: strings.Join(p.Errors, "; ")}
	}
	if len(p.WorkItem) == 0 || string(p.WorkItem) == "null" {
		return nil, gitlab.Requestf("%s returned no work item and no errors", op)
	}
	item, err := decodeWorkItem(p.WorkItem)
	if err != nil {
		return nil, &gitlab.ServerError{Op: op, Err: err}
	}
	return item, nil
}

// Create creates a work item from a sparse request.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*WorkItem, error) {
	input, err := buildCreateInput(s.reg, req)
	if err != nil {
		return nil, err
	}
	data, err := s.gql.GraphQL(ctx, "workItemCreate", mutationWorkItemCreate, map[string]any{"input": input})
	if err != nil {
		return nil, err
	}
	var out struct {
		WorkItemCreate mutationPayload `json:"workItemCreate"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &gitlab.ServerError{Op: "workItemCreate", Err: err}
	}
	return out.WorkItemCreate.entity("workItemCreate")
}

// Update applies a sparse patch to an existing work item.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*WorkItem, error) {
	input, err := buildUpdateInput(req)
	if err != nil {
		return nil, err
	}
	data, err := s.gql.GraphQL(ctx, "workItemUpdate", mutationWorkItemUpdate, map[string]any{"input": input})
	if err != nil {
		return nil, err
	}
	var out struct {
		WorkItemUpdate mutationPayload `json:"workItemUpdate"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &gitlab.ServerError{Op: "workItemUpdate", Err: err}
	}
	return out.WorkItemUpdate.entity("workItemUpdate")
}

// Get fetches a work item by global id.
func (s *Service) Get(ctx context.Context, gid string) (*WorkItem, error) {
	if gid == "" {
		return nil, gitlab.Requestf("work item id is required")
	}
	data, err := s.gql.GraphQL(ctx, "workItem", queryWorkItemByID, map[string]any{"id": gid})
	if err != nil {
		return nil, err
	}
	var out struct {
		WorkItem json.RawMessage `json:"workItem"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &gitlab.ServerError{Op: "workItem", Err: err}
	}
	if len(out.WorkItem) == 0 || string(out.WorkItem) == "null" {
		return nil, &gitlab.NotFoundError{Resource: "work item", ID: gid}
	}
	item, err := decodeWorkItem(out.WorkItem)
	if err != nil {
		return nil, &gitlab.ServerError{Op: "workItem", Err: err}
	}
	return item, nil
}

// GetByReference fetches a work item by project path and internal id.
func (s *Service) GetByReference(ctx context.Context, projectPath, iid string) (*WorkItem, error) {
	if projectPath == "" || iid == "" {
		return nil, gitlab.Requestf("project path and iid are required")
	}
	data, err := s.gql.GraphQL(ctx, "workItemByIID", queryWorkItemByIID, map[string]any{
		"fullPath": projectPath,
		"iid":      iid,
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		Project *struct {
			WorkItems struct {
				Nodes []json.RawMessage `json:"nodes"`
			} `json:"workItems"`
		} `json:"project"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &gitlab.ServerError{Op: "workItemByIID", Err: err}
	}
	if out.Project == nil {
		return nil, &gitlab.NotFoundError{Resource: "project", ID: projectPath}
	}
	if len(out.Project.WorkItems.Nodes) == 0 {
		return nil, &gitlab.NotFoundError{Resource: "work item", ID: projectPath + "#" + iid}
	}
	item, err := decodeWorkItem(out.Project.WorkItems.Nodes[0])
	if err != nil {
		return nil, &gitlab.ServerError{Op: "workItemByIID", Err: err}
	}
	return item, nil
}

// List returns one page of work items in a project or namespace. Scope is
// validated before any network call.
func (s *Service) List(ctx context.Context, req ListRequest) (*WorkItemPage, error) {
	hasProject := req.ProjectPath != ""
	hasNamespace := req.NamespacePath != ""
	if hasProject == hasNamespace {
		return nil, gitlab.Requestf("exactly one of project path or namespace path must be given")
	}

	vars := map[string]any{}
	query := queryProjectWorkItems
	scope := req.ProjectPath
	if hasNamespace {
		query = queryNamespaceWorkItems
		scope = req.NamespacePath
	}
	vars["fullPath"] = scope

	if len(req.Types) > 0 {
		types := make([]string, len(req.Types))
		for i, t := range req.Types {
			types[i] = canonicalName(t)
		}
		vars["types"] = types
	}
	if req.State != "" {
		vars["state"] = listState(req.State)
	}
	if req.Search != "" {
		vars["search"] = req.Search
	}
	if req.First > 0 {
		vars["first"] = req.First
	}
	if req.After != "" {
		vars["after"] = req.After
	}

	data, err := s.gql.GraphQL(ctx, "workItemList", query, vars)
	if err != nil {
		return nil, err
	}

	var out struct {
		Project   *listContainer `json:"project"`
		Namespace *listContainer `json:"namespace"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &gitlab.ServerError{Op: "workItemList", Err: err}
	}

	container := out.Project
	resource := "project"
	if hasNamespace {
		container = out.Namespace
		resource = "namespace"
	}
	if container == nil {
		return nil, &gitlab.NotFoundError{Resource: resource, ID: scope}
	}

	page := &WorkItemPage{PageInfo: container.WorkItems.PageInfo, Items: make([]WorkItem, 0, len(container.WorkItems.Nodes))}
	for _, raw := range container.WorkItems.Nodes {
		item, err := decodeWorkItem(raw)
		if err != nil {
			return nil, &gitlab.ServerError{Op: "workItemList", Err: err}
		}
		page.Items = append(page.Items, *item)
	}
	return page, nil
}

type listContainer struct {
	WorkItems struct {
		Nodes    []json.RawMessage `json:"nodes"`
		PageInfo PageInfo          `json:"pageInfo"`
	} `json:"workItems"`
}

// listState folds caller state verbs onto the remote enum.
func listState(state string) string {
	switch strings.ToLower(state) {
	case "open", "opened":
		return "opened"
	case "close", "closed":
		return "closed"
	default:
		return strings.ToLower(state)
	}
}

// Delete removes a work item by global id.
func (s *Service) Delete(ctx context.Context, gid string) error {
	if gid == "" {
		return gitlab.Requestf("work item id is required")
	}
	data, err := s.gql.GraphQL(ctx, "workItemDelete", mutationWorkItemDelete, map[string]any{
		"input": map[string]any{"id": gid},
	})
	if err != nil {
		return err
	}
	var out struct {
		WorkItemDelete *struct {
			Project *struct {
				ID string `json:"id"`
			} `json:"project"`
			Errors []string `json:"errors"`
		} `json:"workItemDelete"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return &gitlab.ServerError{Op: "workItemDelete", Err: err}
	}
	if out.WorkItemDelete == nil {
		return gitlab.Requestf("workItemDelete returned no payload and no errors")
	}
	if len(out.WorkItemDelete.Errors) > 0 {
		return &gitlab.RequestError{Message: strings.Join(out.WorkItemDelete.Errors, "; ")}
	}
	if out.WorkItemDelete.Project == nil {
		return gitlab.Requestf("workItemDelete returned no project and no errors")
	}
	return nil
}
