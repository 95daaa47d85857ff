package workitems

import (
	"encoding/json"
)

// WidgetType discriminates the widget variants. Values match the wire
// discriminator strings.
type WidgetType string

// Widget type tags.
const (
	WidgetAssignees    WidgetType = "ASSIGNEES"
	WidgetHierarchy    WidgetType = "HIERARCHY"
	WidgetLabels       WidgetType = "LABELS"
	WidgetMilestone    WidgetType = "MILESTONE"
	WidgetIteration    WidgetType = "ITERATION"
	WidgetDates        WidgetType = "START_AND_DUE_DATE"
	WidgetDescription  WidgetType = "DESCRIPTION"
	WidgetNotes        WidgetType = "NOTES"
	WidgetProgress     WidgetType = "PROGRESS"
	WidgetHealthStatus WidgetType = "HEALTH_STATUS"
	WidgetWeight       WidgetType = "WEIGHT"
)

// Widget is the closed set of optional capability blocks a work item can
// carry. At most one widget of a given type exists per item.
type Widget interface {
	WidgetType() WidgetType
}

// AssigneesWidget lists the users assigned to the item.
type AssigneesWidget struct {
	Users []User
}

func (AssigneesWidget) WidgetType() WidgetType { return WidgetAssignees }

// HierarchyWidget carries the generic parent/child linkage.
type HierarchyWidget struct {
	Parent   *WorkItemRef
	Children []WorkItemRef
}

func (HierarchyWidget) WidgetType() WidgetType { return WidgetHierarchy }

// LabelsWidget lists attached labels.
type LabelsWidget struct {
	Labels []Label
}

func (LabelsWidget) WidgetType() WidgetType { return WidgetLabels }

// MilestoneWidget references the assigned milestone, if any.
type MilestoneWidget struct {
	Milestone *MilestoneRef
}

func (MilestoneWidget) WidgetType() WidgetType { return WidgetMilestone }

// IterationWidget references the assigned iteration, if any.
type IterationWidget struct {
	Iteration *IterationRef
}

func (IterationWidget) WidgetType() WidgetType { return WidgetIteration }

// DatesWidget carries optional start and due dates (ISO date strings).
type DatesWidget struct {
	StartDate *string
	DueDate   *string
}

func (DatesWidget) WidgetType() WidgetType { return WidgetDates }

// DescriptionWidget carries the item body in markdown and rendered HTML.
type DescriptionWidget struct {
	Text string
	HTML string
}

func (DescriptionWidget) WidgetType() WidgetType { return WidgetDescription }

// NotesWidget marks that the item supports discussion threads. The threads
// themselves are not part of this engine.
type NotesWidget struct{}

func (NotesWidget) WidgetType() WidgetType { return WidgetNotes }

// ProgressWidget carries a completion percentage (objectives).
type ProgressWidget struct {
	Percent *int
}

func (ProgressWidget) WidgetType() WidgetType { return WidgetProgress }

// HealthWidget carries the health assessment, empty when unset.
type HealthWidget struct {
	Status string
}

func (HealthWidget) WidgetType() WidgetType { return WidgetHealthStatus }

// WeightWidget carries the issue weight, if set.
type WeightWidget struct {
	Weight *int
}

func (WeightWidget) WidgetType() WidgetType { return WidgetWeight }

// WidgetCollection holds a work item's widgets in wire order. The zero
// value is an empty collection; every accessor is total.
type WidgetCollection struct {
	widgets []Widget
}

// widgetNode is the superset wire shape of every widget variant; the type
// tag selects which fields are meaningful.
type widgetNode struct {
	Type      WidgetType `json:"type"`
	Assignees *struct {
		Nodes []User `json:"nodes"`
	} `json:"assignees"`
	Parent   *WorkItemRef `json:"parent"`
	Children *struct {
		Nodes []WorkItemRef `json:"nodes"`
	} `json:"children"`
	Labels *struct {
		Nodes []Label `json:"nodes"`
	} `json:"labels"`
	Milestone       *MilestoneRef `json:"milestone"`
	Iteration       *IterationRef `json:"iteration"`
	StartDate       *string       `json:"startDate"`
	DueDate         *string       `json:"dueDate"`
	Description     *string       `json:"description"`
	DescriptionHTML *string       `json:"descriptionHtml"`
	Progress        *int          `json:"progress"`
	HealthStatus    *string       `json:"healthStatus"`
	Weight          *int          `json:"weight"`
}

// normalizeWidgets decodes raw wire widget records into typed variants.
// This is the only place the string-discriminated records are interpreted.
// Records that fail to decode or carry an unknown tag are skipped.
func normalizeWidgets(raw []json.RawMessage) WidgetCollection {
	var wc WidgetCollection
	for _, r := range raw {
		var node widgetNode
		if err := json.Unmarshal(r, &node); err != nil {
			continue
		}
		if w := node.toWidget(); w != nil {
			wc.widgets = append(wc.widgets, w)
		}
	}
	return wc
}

func (n *widgetNode) toWidget() Widget {
	switch n.Type {
	case WidgetAssignees:
		w := AssigneesWidget{}
		if n.Assignees != nil {
			w.Users = n.Assignees.Nodes
		}
		return w
	case WidgetHierarchy:
		w := HierarchyWidget{Parent: n.Parent}
		if n.Children != nil {
			w.Children = n.Children.Nodes
		}
		return w
	case WidgetLabels:
		w := LabelsWidget{}
		if n.Labels != nil {
			w.Labels = n.Labels.Nodes
		}
		return w
	case WidgetMilestone:
		return MilestoneWidget{Milestone: n.Milestone}
	case WidgetIteration:
		return IterationWidget{Iteration: n.Iteration}
	case WidgetDates:
		return DatesWidget{StartDate: n.StartDate, DueDate: n.DueDate}
	case WidgetDescription:
		w := DescriptionWidget{}
		if n.Description != nil {
			w.Text = *n.Description
		}
		if n.DescriptionHTML != nil {
			w.HTML = *n.DescriptionHTML
		}
		return w
	case WidgetNotes:
		return NotesWidget{}
	case WidgetProgress:
		return ProgressWidget{Percent: n.Progress}
	case WidgetHealthStatus:
		w := HealthWidget{}
		if n.HealthStatus != nil {
			w.Status = *n.HealthStatus
		}
		return w
	case WidgetWeight:
		return WeightWidget{Weight: n.Weight}
	default:
		return nil
	}
}

// Widget returns the first widget with the given tag. Duplicate tags
// should not occur; if they do, the first wins.
func (wc WidgetCollection) Widget(t WidgetType) (Widget, bool) {
	for _, w := range wc.widgets {
		if w.WidgetType() == t {
			return w, true
		}
	}
	return nil, false
}

// All returns the widgets in wire order.
func (wc WidgetCollection) All() []Widget { return wc.widgets }

// Len reports the number of widgets.
func (wc WidgetCollection) Len() int { return len(wc.widgets) }

// Assignees returns the assigned users, empty when the widget is absent.
func (wc WidgetCollection) Assignees() []User {
	if w, ok := wc.Widget(WidgetAssignees); ok {
		return w.(AssigneesWidget).Users
	}
	return nil
}

// Labels returns the attached labels, empty when the widget is absent.
func (wc WidgetCollection) Labels() []Label {
	if w, ok := wc.Widget(WidgetLabels); ok {
		return w.(LabelsWidget).Labels
	}
	return nil
}

// Parent returns the hierarchy parent, nil when unset or absent.
func (wc WidgetCollection) Parent() *WorkItemRef {
	if w, ok := wc.Widget(WidgetHierarchy); ok {
		return w.(HierarchyWidget).Parent
	}
	return nil
}

// Children returns the hierarchy children, empty when unset or absent.
func (wc WidgetCollection) Children() []WorkItemRef {
	if w, ok := wc.Widget(WidgetHierarchy); ok {
		return w.(HierarchyWidget).Children
	}
	return nil
}

// Description returns the description text, empty when absent.
func (wc WidgetCollection) Description() string {
	if w, ok := wc.Widget(WidgetDescription); ok {
		return w.(DescriptionWidget).Text
	}
	return ""
}
