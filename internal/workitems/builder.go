package workitems

import (
	"strings"

	"github.com/tbranmore/trellis/internal/gitlab"
)

// CreateRequest describes a work item to create. Exactly one of
// ProjectPath/NamespacePath must be set. Type takes either a type name
// ("Issue", "KEY_RESULT") or an already-opaque global id. Every other
// field is optional; omitted fields and widgets contribute no key to the
// wire payload.
type CreateRequest struct {
	ProjectPath   string
	NamespacePath string
	Type          string
	Title         string
	Description   Field[string]
	Confidential  Field[bool]
	AssigneeIDs   []string
	LabelIDs      []string
	ParentID      Field[string]
	MilestoneID   Field[string]
	IterationID   Field[string]
	StartDate     Field[string]
	DueDate       Field[string]
}

// UpdateRequest is a sparse patch against one work item. Only supplied
// fields and widget patches appear on the wire; a patch struct left nil
// leaves that widget untouched remotely.
type UpdateRequest struct {
	ID           string
	Title        Field[string]
	StateEvent   Field[string] // lower-case verb, e.g. "close"; uppercased on the wire
	Confidential Field[bool]
	Assignees    *AssigneesPatch
	Labels       *LabelsPatch
	Hierarchy    *HierarchyPatch
	Milestone    *RefPatch
	Iteration    *RefPatch
	Dates        *DatesPatch
}

// AssigneesPatch replaces the full assignee set.
type AssigneesPatch struct {
	UserIDs []string
}

// LabelsPatch adds and removes labels by id; only populated sides reach
// the wire.
type LabelsPatch struct {
	AddIDs    []string
	RemoveIDs []string
}

// HierarchyPatch sets or clears the parent. A nil ParentID emits an
// explicit null, detaching the item from its parent.
type HierarchyPatch struct {
	ParentID *string
}

// RefPatch sets or clears a milestone or iteration. A nil ID emits an
// explicit null.
type RefPatch struct {
	ID *string
}

// DatesPatch patches start and due dates independently: an absent Field
// leaves that date untouched, Null clears it, Set replaces it. Setting one
// never forces the other onto the wire.
type DatesPatch struct {
	StartDate Field[string]
	DueDate   Field[string]
}

// wireEntry pairs a wire key with an optional value. Builders collect
// entries from the request and emit them in one pass, so the sparseness
// rule lives in exactly one place.
type wireEntry struct {
	key     string
	present bool
	value   any
}

func applyEntries(target map[string]any, entries []wireEntry) {
	for _, e := range entries {
		if e.present {
			target[e.key] = e.value
		}
	}
}

// resolveTypeID turns a type name into an opaque id via the registry.
// Values that already look like global ids pass through untouched.
func resolveTypeID(reg *Registry, typ string) (string, error) {
	if strings.HasPrefix(typ, "gid://") {
		return typ, nil
	}
	id, ok := reg.TypeID(typ)
	if !ok {
		return "", gitlab.Requestf("Unknown work item type: %s", typ)
	}
	return id, nil
}

// buildCreateInput converts a CreateRequest into the mutation's input
// object. It validates scope and title locally and resolves the type name
// before anything touches the network.
func buildCreateInput(reg *Registry, req CreateRequest) (map[string]any, error) {
	hasProject := req.ProjectPath != ""
	hasNamespace := req.NamespacePath != ""
	if hasProject == hasNamespace {
		return nil, gitlab.Requestf("exactly one of project path or namespace path must be given")
	}
	if req.Title == "" {
		return nil, gitlab.Requestf("title is required")
	}
	if req.Type == "" {
		return nil, gitlab.Requestf("work item type is required")
	}

	typeID, err := resolveTypeID(reg, req.Type)
	if err != nil {
		return nil, err
	}

	input := map[string]any{
		"title":          req.Title,
		"workItemTypeId": typeID,
	}
	if hasProject {
		input["projectPath"] = req.ProjectPath
	} else {
		input["namespacePath"] = req.NamespacePath
	}

	applyEntries(input, []wireEntry{
		{"description", req.Description.Present(), req.Description.wire()},
		{"confidential", req.Confidential.Present(), req.Confidential.wire()},
		{"assigneesWidget", len(req.AssigneeIDs) > 0, map[string]any{"assigneeIds": req.AssigneeIDs}},
		{"labelsWidget", len(req.LabelIDs) > 0, map[string]any{"labelIds": req.LabelIDs}},
		{"hierarchyWidget", req.ParentID.Present(), map[string]any{"parentId": req.ParentID.wire()}},
		{"milestoneWidget", req.MilestoneID.Present(), map[string]any{"milestoneId": req.MilestoneID.wire()}},
		{"iterationWidget", req.IterationID.Present(), map[string]any{"iterationId": req.IterationID.wire()}},
		{"startAndDueDateWidget", req.StartDate.Present() || req.DueDate.Present(), datesWire(DatesPatch{StartDate: req.StartDate, DueDate: req.DueDate})},
	})
	return input, nil
}

// buildUpdateInput converts an UpdateRequest into the mutation's input
// object, emitting only supplied fields.
func buildUpdateInput(req UpdateRequest) (map[string]any, error) {
	if req.ID == "" {
		return nil, gitlab.Requestf("work item id is required")
	}

	input := map[string]any{"id": req.ID}

	stateEvent := any(nil)
	if v, ok := req.StateEvent.Value(); ok {
		stateEvent = strings.ToUpper(v)
	}

	applyEntries(input, []wireEntry{
		{"title", req.Title.Present(), req.Title.wire()},
		{"stateEvent", req.StateEvent.Present(), stateEvent},
		{"confidential", req.Confidential.Present(), req.Confidential.wire()},
		{"assigneesWidget", req.Assignees != nil, assigneesWire(req.Assignees)},
		{"labelsWidget", req.Labels != nil && (len(req.Labels.AddIDs) > 0 || len(req.Labels.RemoveIDs) > 0), labelsWire(req.Labels)},
		{"hierarchyWidget", req.Hierarchy != nil, hierarchyWire(req.Hierarchy)},
		{"milestoneWidget", req.Milestone != nil, refWire(req.Milestone, "milestoneId")},
		{"iterationWidget", req.Iteration != nil, refWire(req.Iteration, "iterationId")},
		{"startAndDueDateWidget", req.Dates != nil && (req.Dates.StartDate.Present() || req.Dates.DueDate.Present()), datesWireFromPatch(req.Dates)},
	})
	return input, nil
}

func assigneesWire(p *AssigneesPatch) map[string]any {
	if p == nil {
		return nil
	}
	ids := p.UserIDs
	if ids == nil {
		ids = []string{} // full replacement: nil still means "clear all"
	}
	return map[string]any{"assigneeIds": ids}
}

func labelsWire(p *LabelsPatch) map[string]any {
	if p == nil {
		return nil
	}
	wire := map[string]any{}
	if len(p.AddIDs) > 0 {
		wire["addLabelIds"] = p.AddIDs
	}
	if len(p.RemoveIDs) > 0 {
		wire["removeLabelIds"] = p.RemoveIDs
	}
	return wire
}

func hierarchyWire(p *HierarchyPatch) map[string]any {
	if p == nil {
		return nil
	}
	var parent any
	if p.ParentID != nil {
		parent = *p.ParentID
	}
	return map[string]any{"parentId": parent}
}

func refWire(p *RefPatch, key string) map[string]any {
	if p == nil {
		return nil
	}
	var id any
	if p.ID != nil {
		id = *p.ID
	}
	return map[string]any{key: id}
}

func datesWireFromPatch(p *DatesPatch) map[string]any {
	if p == nil {
		return nil
	}
	return datesWire(*p)
}

func datesWire(p DatesPatch) map[string]any {
	wire := map[string]any{}
	if p.StartDate.Present() {
		wire["startDate"] = p.StartDate.wire()
	}
	if p.DueDate.Present() {
		wire["dueDate"] = p.DueDate.wire()
	}
	return wire
}
