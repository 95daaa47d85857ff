package workitems

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tbranmore/trellis/internal/gitlab"
)

// EpicIssues manages the legacy group-epic ↔ project-issue association.
// This path predates the generic hierarchy widget and keeps its own REST
// surface and its own identity: every link carries an association id that
// is neither the epic id nor the issue id. Removal and reordering address
// links by that association id only, so callers must list first.
type EpicIssues struct {
	rest RESTDoer
}

// NewEpicIssues builds the manager on the shared transport.
func NewEpicIssues(rest RESTDoer) *EpicIssues {
	return &EpicIssues{rest: rest}
}

// EpicRef identifies the epic side of a link.
type EpicRef struct {
	ID      int    `json:"id"`
	IID     int    `json:"iid"`
	GroupID int    `json:"group_id"`
	Title   string `json:"title"`
}

// IssueRef identifies the issue side of a link.
type IssueRef struct {
	ID        int    `json:"id"`
	IID       int    `json:"iid"`
	ProjectID int    `json:"project_id"`
	Title     string `json:"title"`
	State     string `json:"state"`
	WebURL    string `json:"web_url"`
}

// EpicIssueLink is one association record. AssociationID is the link's own
// identity; reorder targets reference other links' AssociationIDs within
// the same epic.
type EpicIssueLink struct {
	AssociationID    int      `json:"epic_issue_id"`
	Epic             *EpicRef `json:"epic,omitempty"`
	Issue            IssueRef `json:"issue"`
	RelativePosition int      `json:"relative_position,omitempty"`
}

// ReorderOptions positions a link relative to sibling links. At least one
// side must be set; both ids are association ids, never issue or epic ids.
type ReorderOptions struct {
	MoveBeforeID *int
	MoveAfterID  *int
}

func epicIssuesPath(group string, epicIID int) string {
	return fmt.Sprintf("/groups/%s/epics/%d/issues", url.PathEscape(group), epicIID)
}

// Add links an issue (by its instance-wide numeric id) under an epic. If
// the issue already belongs to another epic the remote re-parents it.
func (m *EpicIssues) Add(ctx context.Context, group string, epicIID, issueID int) (*EpicIssueLink, error) {
	if group == "" {
		return nil, gitlab.Requestf("group is required")
	}
	path := fmt.Sprintf("%s/%d", epicIssuesPath(group, epicIID), issueID)

	// The create response nests both sides under its own association id.
	var created struct {
		ID    int      `json:"id"`
		Epic  *EpicRef `json:"epic"`
		Issue IssueRef `json:"issue"`
	}
	if err := m.rest.REST(ctx, http.MethodPost, path, nil, nil, &created); err != nil {
		return nil, err
	}
	return &EpicIssueLink{
		AssociationID: created.ID,
		Epic:          created.Epic,
		Issue:         created.Issue,
	}, nil
}

// List returns all issue links of an epic. This is the only way to learn
// association ids before Remove or Reorder.
func (m *EpicIssues) List(ctx context.Context, group string, epicIID int) ([]EpicIssueLink, error) {
	if group == "" {
		return nil, gitlab.Requestf("group is required")
	}

	// The list response is flat: issue fields at the top level with the
	// association id and position alongside.
	var nodes []struct {
		IssueRef
		EpicIssueID      int      `json:"epic_issue_id"`
		RelativePosition int      `json:"relative_position"`
		Epic             *EpicRef `json:"epic"`
	}
	if err := m.rest.REST(ctx, http.MethodGet, epicIssuesPath(group, epicIID), nil, nil, &nodes); err != nil {
		return nil, err
	}

	links := make([]EpicIssueLink, len(nodes))
	for i, n := range nodes {
		links[i] = EpicIssueLink{
			AssociationID:    n.EpicIssueID,
			Epic:             n.Epic,
			Issue:            n.IssueRef,
			RelativePosition: n.RelativePosition,
		}
	}
	return links, nil
}

// Remove deletes a link by association id.
func (m *EpicIssues) Remove(ctx context.Context, group string, epicIID, associationID int) error {
	if group == "" {
		return gitlab.Requestf("group is required")
	}
	if associationID <= 0 {
		return gitlab.Requestf("association id is required (list the epic's issues to obtain it)")
	}
	path := fmt.Sprintf("%s/%d", epicIssuesPath(group, epicIID), associationID)
	return m.rest.REST(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Reorder moves a link relative to sibling links within the same epic.
func (m *EpicIssues) Reorder(ctx context.Context, group string, epicIID, associationID int, opts ReorderOptions) error {
	if group == "" {
		return gitlab.Requestf("group is required")
	}
	if associationID <= 0 {
		return gitlab.Requestf("association id is required (list the epic's issues to obtain it)")
	}
	if opts.MoveBeforeID == nil && opts.MoveAfterID == nil {
		return gitlab.Requestf("at least one of move_before_id or move_after_id is required")
	}

	query := url.Values{}
	if opts.MoveBeforeID != nil {
		query.Set("move_before_id", strconv.Itoa(*opts.MoveBeforeID))
	}
	if opts.MoveAfterID != nil {
		query.Set("move_after_id", strconv.Itoa(*opts.MoveAfterID))
	}
	path := fmt.Sprintf("%s/%d", epicIssuesPath(group, epicIID), associationID)
	return m.rest.REST(ctx, http.MethodPut, path, query, nil, nil)
}
