package workitems

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DiscoverySource tells a caller whether the registry's mapping came from
// the live schema or the built-in table.
type DiscoverySource string

// Discovery sources.
const (
	DiscoveredLive DiscoverySource = "live"
	FallbackTable  DiscoverySource = "fallback"
)

// Discovery is the result of a Refresh pass. Refresh never fails: when the
// live chain breaks, Source is FallbackTable and Reason says why.
type Discovery struct {
	Source DiscoverySource
	Reason string
	Types  []WorkItemType
}

// fallbackTypes is the fixed table installed when discovery is unavailable.
// The numeric ids are stock-instance placeholders — real instances assign
// their own, which is why discovery runs at all. Nothing outside this file
// may depend on the literal values.
var fallbackTypes = []WorkItemType{
	{Name: "Issue", ID: "gid://gitlab/WorkItems::Type/1"},
	{Name: "Incident", ID: "gid://gitlab/WorkItems::Type/2"},
	{Name: "Test Case", ID: "gid://gitlab/WorkItems::Type/3"},
	{Name: "Requirement", ID: "gid://gitlab/WorkItems::Type/4"},
	{Name: "Task", ID: "gid://gitlab/WorkItems::Type/5"},
	{Name: "Objective", ID: "gid://gitlab/WorkItems::Type/6"},
	{Name: "Key Result", ID: "gid://gitlab/WorkItems::Type/7"},
	{Name: "Epic", ID: "gid://gitlab/WorkItems::Type/8"},
	{Name: "Ticket", ID: "gid://gitlab/WorkItems::Type/9"},
}

// Registry maps between work-item type names and the instance's opaque
// type ids. It starts on the fallback table and switches to live data when
// Refresh succeeds. Lookups are case-insensitive. Safe for concurrent use:
// the maps are replaced wholesale under the write lock, never mutated.
type Registry struct {
	gql GraphQLDoer

	mu         sync.RWMutex
	byName     map[string]string // canonical name -> id
	byID       map[string]string // id -> display name
	discovered bool

	flight singleflight.Group
}

// NewRegistry builds a registry answering from the fallback table until
// the first successful Refresh.
func NewRegistry(gql GraphQLDoer) *Registry {
	r := &Registry{gql: gql}
	r.install(fallbackTypes, false)
	return r
}

// canonicalName folds a type name for lookup: uppercased, with spaces and
// hyphens collapsed to underscores, so "Test Case", "TEST_CASE" and
// "test-case" all hit the same entry.
func canonicalName(name string) string {
	folded := strings.ToUpper(strings.TrimSpace(name))
	folded = strings.ReplaceAll(folded, " ", "_")
	folded = strings.ReplaceAll(folded, "-", "_")
	return folded
}

// install atomically replaces both lookup maps.
func (r *Registry) install(types []WorkItemType, discovered bool) {
	byName := make(map[string]string, len(types)*2)
	byID := make(map[string]string, len(types))
	for _, t := range types {
		byName[t.Name] = t.ID
		byName[canonicalName(t.Name)] = t.ID
		byID[t.ID] = t.Name
	}
	r.mu.Lock()
	r.byName = byName
	r.byID = byID
	r.discovered = discovered
	r.mu.Unlock()
}

// Refresh re-runs discovery. Without a scope hint it first looks for any
// project the token can access, then reads that project's work-item types.
// Every failure in that chain installs the fallback table instead; Refresh
// never returns an error. Concurrent calls share one network pass.
func (r *Registry) Refresh(ctx context.Context, scopeHint string) Discovery {
	v, _, _ := r.flight.Do("refresh:"+scopeHint, func() (any, error) {
		return r.refresh(ctx, scopeHint), nil
	})
	return v.(Discovery)
}

func (r *Registry) refresh(ctx context.Context, scopeHint string) Discovery {
	fallback := func(reason string) Discovery {
		r.install(fallbackTypes, false)
		return Discovery{Source: FallbackTable, Reason: reason, Types: fallbackTypes}
	}

	path := scopeHint
	if path == "" {
		found, err := r.anyAccessibleProject(ctx)
		if err != nil {
			return fallback(fmt.Sprintf("finding an accessible project: %v", err))
		}
		if found == "" {
			return fallback("token has no project memberships")
		}
		path = found
	}

	types, err := r.projectTypes(ctx, path)
	if err != nil {
		return fallback(fmt.Sprintf("reading work item types of %s: %v", path, err))
	}
	if len(types) == 0 {
		return fallback(fmt.Sprintf("project %s reports no work item types", path))
	}

	r.install(types, true)
	return Discovery{Source: DiscoveredLive, Types: types}
}

func (r *Registry) anyAccessibleProject(ctx context.Context) (string, error) {
	data, err := r.gql.GraphQL(ctx, "discoverProject", queryAnyProject, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		CurrentUser struct {
			ProjectMemberships struct {
				Nodes []struct {
					Project *pathHolder `json:"project"`
				} `json:"nodes"`
			} `json:"projectMemberships"`
		} `json:"currentUser"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decoding memberships: %w", err)
	}
	for _, n := range out.CurrentUser.ProjectMemberships.Nodes {
		if n.Project != nil && n.Project.FullPath != "" {
			return n.Project.FullPath, nil
		}
	}
	return "", nil
}

func (r *Registry) projectTypes(ctx context.Context, path string) ([]WorkItemType, error) {
	data, err := r.gql.GraphQL(ctx, "discoverTypes", queryWorkItemTypes, map[string]any{
		"fullPath": path,
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		Project *struct {
			WorkItemTypes struct {
				Nodes []WorkItemType `json:"nodes"`
			} `json:"workItemTypes"`
		} `json:"project"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding work item types: %w", err)
	}
	if out.Project == nil {
		return nil, fmt.Errorf("project %s is not accessible", path)
	}
	return out.Project.WorkItemTypes.Nodes, nil
}

// TypeID resolves a type name (any casing, spaces or underscores) to its
// id in the currently active map.
func (r *Registry) TypeID(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byName[name]; ok {
		return id, true
	}
	id, ok := r.byName[canonicalName(name)]
	return id, ok
}

// TypeName reverse-resolves a type id to its display name.
func (r *Registry) TypeName(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byID[id]
	return name, ok
}

// Discovered reports whether the active map came from the live schema.
func (r *Registry) Discovered() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.discovered
}

// Types returns the active mapping sorted by name.
func (r *Registry) Types() []WorkItemType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]WorkItemType, 0, len(r.byID))
	for id, name := range r.byID {
		types = append(types, WorkItemType{ID: id, Name: name})
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types
}
