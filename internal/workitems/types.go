// Package workitems implements the work-item abstraction engine: type
// discovery with a fixed fallback, the polymorphic widget model, sparse
// mutation building, and the hierarchy/association paths. All remote
// state lives in the instance; nothing here persists between calls.
package workitems

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// GraphQLDoer is the slice of the transport the engine needs for GraphQL.
// Satisfied by *gitlab.Client; tests inject fakes.
type GraphQLDoer interface {
	GraphQL(ctx context.Context, op, query string, vars map[string]any) (json.RawMessage, error)
}

// RESTDoer is the slice of the transport the legacy association path needs.
type RESTDoer interface {
	REST(ctx context.Context, method, path string, query url.Values, body, out any) error
}

// State is a work item's open/closed state as reported by the remote.
type State string

// Work item states.
const (
	StateOpen   State = "OPEN"
	StateClosed State = "CLOSED"
)

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	return s == StateOpen || s == StateClosed
}

// WorkItemType pairs a human-readable type name with the instance's opaque
// global id. Resolved pairs are immutable for the life of a registry map.
type WorkItemType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User identifies an account on the instance.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Label is a project or group label attached through the labels widget.
type Label struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Color string `json:"color,omitempty"`
}

// MilestoneRef references a milestone by global id.
type MilestoneRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// IterationRef references an iteration cadence entry by global id.
type IterationRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// WorkItemRef is the compact form of a work item used inside hierarchy
// widgets, where embedding the full record would recurse.
type WorkItemRef struct {
	ID        string `json:"id"`
	IID       string `json:"iid"`
	Title     string `json:"title"`
	State     State  `json:"state"`
	Reference string `json:"reference,omitempty"`
	WebURL    string `json:"webUrl,omitempty"`
}

// Scope locates a work item in exactly one of a project or a namespace.
// Exactly one field is non-empty on any normalized work item.
type Scope struct {
	ProjectPath   string `json:"projectPath,omitempty"`
	NamespacePath string `json:"namespacePath,omitempty"`
}

// IsZero reports whether neither path is set.
func (s Scope) IsZero() bool { return s.ProjectPath == "" && s.NamespacePath == "" }

// WorkItem is the unified tracked-entity record (issue, epic, task,
// objective, and so on). It is rebuilt from the wire on every call.
type WorkItem struct {
	ID        string           `json:"id"`
	IID       string           `json:"iid"`
	Title     string           `json:"title"`
	State     State            `json:"state"`
	Type      WorkItemType     `json:"workItemType"`
	Scope     Scope            `json:"scope"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	ClosedAt  *time.Time       `json:"closedAt,omitempty"`
	Author    User             `json:"author"`
	WebURL    string           `json:"webUrl"`
	Reference string           `json:"reference"`
	Widgets   WidgetCollection `json:"-"`
}

// PageInfo carries cursor pagination state for list results.
type PageInfo struct {
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

// WorkItemPage is one page of a list query.
type WorkItemPage struct {
	Items    []WorkItem `json:"items"`
	PageInfo PageInfo   `json:"pageInfo"`
}

// workItemNode mirrors the wire shape of a work item before normalization.
// Widgets stay raw here; normalizeWidgets is the only decode site for them.
type workItemNode struct {
	ID           string            `json:"id"`
	IID          string            `json:"iid"`
	Title        string            `json:"title"`
	State        State             `json:"state"`
	WorkItemType WorkItemType      `json:"workItemType"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	ClosedAt     *time.Time        `json:"closedAt"`
	Author       User              `json:"author"`
	WebURL       string            `json:"webUrl"`
	Reference    string            `json:"reference"`
	Project      *pathHolder       `json:"project"`
	Namespace    *pathHolder       `json:"namespace"`
	Widgets      []json.RawMessage `json:"widgets"`
}

type pathHolder struct {
	FullPath string `json:"fullPath"`
}

// toWorkItem normalizes a wire node: widgets become typed variants and the
// scope collapses to exactly one path (project wins when both are present,
// since a project work item's namespace is just the project's namespace).
func (n *workItemNode) toWorkItem() *WorkItem {
	item := &WorkItem{
		ID:        n.ID,
		IID:       n.IID,
		Title:     n.Title,
		State:     n.State,
		Type:      n.WorkItemType,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		ClosedAt:  n.ClosedAt,
		Author:    n.Author,
		WebURL:    n.WebURL,
		Reference: n.Reference,
		Widgets:   normalizeWidgets(n.Widgets),
	}
	switch {
	case n.Project != nil && n.Project.FullPath != "":
		item.Scope = Scope{ProjectPath: n.Project.FullPath}
	case n.Namespace != nil && n.Namespace.FullPath != "":
		item.Scope = Scope{NamespacePath: n.Namespace.FullPath}
	}
	return item
}

// decodeWorkItem decodes one wire work item object.
func decodeWorkItem(raw json.RawMessage) (*WorkItem, error) {
	var node workItemNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("decoding work item: %w", err)
	}
	return node.toWorkItem(), nil
}
