package workitems

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tbranmore/trellis/internal/gitlab"
)

const workItemJSON = `{
  "id": "gid://gitlab/WorkItem/11",
  "iid": "4",
  "title": "Bug",
  "state": "OPEN",
  "createdAt": "2026-08-01T10:00:00Z",
  "updatedAt": "2026-08-02T11:30:00Z",
  "closedAt": null,
  "webUrl": "https://gitlab.example.com/g/p/-/work_items/4",
  "reference": "g/p#4",
  "workItemType": {"id": "gid://gitlab/WorkItems::Type/101", "name": "Issue"},
  "author": {"id": "gid://gitlab/User/1", "username": "ada", "name": "Ada"},
  "project": {"fullPath": "g/p"},
  "namespace": {"fullPath": "g"},
  "widgets": [
    {"type": "LABELS", "labels": {"nodes": [{"id": "gid://gitlab/Label/5", "title": "bug"}]}},
    {"type": "START_AND_DUE_DATE", "startDate": null, "dueDate": "2026-09-01"}
  ]
}`

func newTestService(gql *fakeGraphQL) *Service {
	return NewService(gql, NewRegistry(gql))
}

func TestService_CreateDecodesEntity(t *testing.T) {
	gql := &fakeGraphQL{responses: map[string]string{
		"workItemCreate": `{"workItemCreate": {"workItem": ` + workItemJSON + `, "errors": []}}`,
	}}
	svc := newTestService(gql)

	item, err := svc.Create(context.Background(), CreateRequest{
		ProjectPath: "g/p",
		Type:        "ISSUE",
		Title:       "Bug",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.ID != "gid://gitlab/WorkItem/11" || item.Title != "Bug" {
		t.Errorf("item = %+v", item)
	}
	if item.State != StateOpen {
		t.Errorf("State = %q, want OPEN", item.State)
	}
	if item.Scope.ProjectPath != "g/p" || item.Scope.NamespacePath != "" {
		t.Errorf("Scope = %+v, want project path only", item.Scope)
	}
	if labels := item.Widgets.Labels(); len(labels) != 1 || labels[0].Title != "bug" {
		t.Errorf("Labels = %+v", labels)
	}
}

func TestService_CreateRemoteErrorsJoined(t *testing.T) {
	gql := &fakeGraphQL{responses: map[string]string{
		"workItemCreate": `{"workItemCreate": {"workItem": null, "errors": ["Title can't be blank", "Type is gone"]}}`,
	}}
	svc := newTestService(gql)

	_, err := svc.Create(context.Background(), CreateRequest{
		ProjectPath: "g/p",
		Type:        "ISSUE",
		Title:       "Bug",
	})
	reqErr := mustRequestError(t, err)
	if !strings.Contains(reqErr.Message, "Title can't be blank") {
		t.Errorf("message = %q, want the remote text verbatim", reqErr.Message)
	}
	if !strings.Contains(reqErr.Message, "Type is gone") {
		t.Errorf("message = %q, want all remote errors joined", reqErr.Message)
	}
}

func TestService_UpdateEmptyPayloadIsFailure(t *testing.T) {
	gql := &fakeGraphQL{responses: map[string]string{
		"workItemUpdate": `{"workItemUpdate": {"workItem": null, "errors": []}}`,
	}}
	svc := newTestService(gql)

	_, err := svc.Update(context.Background(), UpdateRequest{
		ID:    "gid://gitlab/WorkItem/11",
		Title: Set("X"),
	})
	mustRequestError(t, err)
}

func TestService_UpdateInvalidRequestSkipsNetwork(t *testing.T) {
	gql := &fakeGraphQL{}
	svc := newTestService(gql)

	_, err := svc.Update(context.Background(), UpdateRequest{Title: Set("X")})
	mustRequestError(t, err)
	if gql.callCount() != 0 {
		t.Errorf("network calls = %d, want 0 for a locally rejected update", gql.callCount())
	}
}

func TestService_GetNotFound(t *testing.T) {
	gql := &fakeGraphQL{responses: map[string]string{
		"workItem": `{"workItem": null}`,
	}}
	svc := newTestService(gql)

	_, err := svc.Get(context.Background(), "gid://gitlab/WorkItem/404")
	var nf *gitlab.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %T (%v), want *gitlab.NotFoundError", err, err)
	}
}

func TestService_GetByReference(t *testing.T) {
	gql := &fakeGraphQL{responses: map[string]string{
		"workItemByIID": `{"project": {"workItems": {"nodes": [` + workItemJSON + `]}}}`,
	}}
	svc := newTestService(gql)

	item, err := svc.GetByReference(context.Background(), "g/p", "4")
	if err != nil {
		t.Fatalf("GetByReference: %v", err)
	}
	if item.IID != "4" {
		t.Errorf("IID = %q, want 4", item.IID)
	}

	gql.responses["workItemByIID"] = `{"project": {"workItems": {"nodes": []}}}`
	_, err = svc.GetByReference(context.Background(), "g/p", "99")
	var nf *gitlab.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %T (%v), want *gitlab.NotFoundError", err, err)
	}
}

func TestService_ListRequiresExactlyOneScope(t *testing.T) {
	gql := &fakeGraphQL{}
	svc := newTestService(gql)

	_, err := svc.List(context.Background(), ListRequest{})
	mustRequestError(t, err)

	_, err = svc.List(context.Background(), ListRequest{ProjectPath: "g/p", NamespacePath: "g"})
	mustRequestError(t, err)

	if gql.callCount() != 0 {
		t.Errorf("network calls = %d, want 0 before scope validation passes", gql.callCount())
	}
}

func TestService_ListFiltersAndPagination(t *testing.T) {
	gql := &fakeGraphQL{responses: map[string]string{
		"workItemList": `{"project": {"workItems": {
            "nodes": [` + workItemJSON + `],
            "pageInfo": {"endCursor": "abc", "hasNextPage": true}
        }}}`,
	}}
	svc := newTestService(gql)

	page, err := svc.List(context.Background(), ListRequest{
		ProjectPath: "g/p",
		Types:       []string{"Test Case", "issue"},
		State:       "open",
		Search:      "crash",
		First:       10,
		After:       "xyz",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Title != "Bug" {
		t.Errorf("Items = %+v", page.Items)
	}
	if page.PageInfo.EndCursor != "abc" || !page.PageInfo.HasNextPage {
		t.Errorf("PageInfo = %+v", page.PageInfo)
	}

	vars := gql.lastCall().vars
	types, _ := vars["types"].([]string)
	if len(types) != 2 || types[0] != "TEST_CASE" || types[1] != "ISSUE" {
		t.Errorf("types = %v, want canonical enum names", vars["types"])
	}
	if vars["state"] != "opened" {
		t.Errorf("state = %v, want opened", vars["state"])
	}
	if vars["search"] != "crash" || vars["first"] != 10 || vars["after"] != "xyz" {
		t.Errorf("vars = %v", vars)
	}
}

func TestService_ListNamespaceScope(t *testing.T) {
	gql := &fakeGraphQL{responses: map[string]string{
		"workItemList": `{"namespace": {"workItems": {"nodes": [], "pageInfo": {"endCursor": "", "hasNextPage": false}}}}`,
	}}
	svc := newTestService(gql)

	page, err := svc.List(context.Background(), ListRequest{NamespacePath: "g"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("Items = %+v, want empty", page.Items)
	}
}

func TestService_Delete(t *testing.T) {
	gql := &fakeGraphQL{responses: map[string]string{
		"workItemDelete": `{"workItemDelete": {"project": {"id": "gid://gitlab/Project/1"}, "errors": []}}`,
	}}
	svc := newTestService(gql)

	if err := svc.Delete(context.Background(), "gid://gitlab/WorkItem/11"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	gql.responses["workItemDelete"] = `{"workItemDelete": {"project": null, "errors": ["not allowed"]}}`
	err := svc.Delete(context.Background(), "gid://gitlab/WorkItem/11")
	reqErr := mustRequestError(t, err)
	if reqErr.Message != "not allowed" {
		t.Errorf("message = %q", reqErr.Message)
	}

	// A payload with neither project nor errors is a failure, not a no-op.
	gql.responses["workItemDelete"] = `{"workItemDelete": {"project": null, "errors": []}}`
	mustRequestError(t, svc.Delete(context.Background(), "gid://gitlab/WorkItem/11"))
}
