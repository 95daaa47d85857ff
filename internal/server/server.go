// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it builds the transport client, the type
// registry, the work-item service and the association manager, and injects
// them into the tools. No business logic lives here — only wiring.
package server

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"
	"github.com/tbranmore/trellis/internal/config"
	"github.com/tbranmore/trellis/internal/gitlab"
	"github.com/tbranmore/trellis/internal/tools"
	"github.com/tbranmore/trellis/internal/workitems"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all work-item tools
// registered. It runs one best-effort type-discovery pass up front; when
// discovery is unavailable the registry answers from its fallback table
// and a warning goes to stderr (stdout belongs to the stdio transport).
func New(ctx context.Context, cfg *config.Config) (*server.MCPServer, error) {
	client, err := gitlab.NewClient(gitlab.ClientOptions{
		BaseURL: cfg.URL,
		Token:   cfg.Token,
		APIPath: cfg.APIPath,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}

	registry := workitems.NewRegistry(client)
	if disc := registry.Refresh(ctx, cfg.DefaultProject); disc.Source == workitems.FallbackTable {
		log.Printf("WARNING: work item type discovery unavailable, using fallback table: %s", disc.Reason)
	}

	service := workitems.NewService(client, registry)
	epicIssues := workitems.NewEpicIssues(client)

	s := server.NewMCPServer(
		"trellis",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Work item CRUD tools ---

	createTool := tools.NewCreateTool(service)
	s.AddTool(createTool.Definition(), createTool.Handle)

	updateTool := tools.NewUpdateTool(service)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	getTool := tools.NewGetTool(service)
	s.AddTool(getTool.Definition(), getTool.Handle)

	listTool := tools.NewListTool(service)
	s.AddTool(listTool.Definition(), listTool.Handle)

	deleteTool := tools.NewDeleteTool(service)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	typesTool := tools.NewTypesTool(registry)
	s.AddTool(typesTool.Definition(), typesTool.Handle)

	// --- Legacy epic-issue association tools ---

	addTool := tools.NewEpicIssueAddTool(epicIssues)
	s.AddTool(addTool.Definition(), addTool.Handle)

	epicListTool := tools.NewEpicIssueListTool(epicIssues)
	s.AddTool(epicListTool.Definition(), epicListTool.Handle)

	removeTool := tools.NewEpicIssueRemoveTool(epicIssues)
	s.AddTool(removeTool.Definition(), removeTool.Handle)

	reorderTool := tools.NewEpicIssueReorderTool(epicIssues)
	s.AddTool(reorderTool.Definition(), reorderTool.Handle)

	return s, nil
}

func serverInstructions() string {
	return `Trellis exposes work-item tracking tools over a GitLab-compatible instance.

Work items unify issues, epics, tasks, incidents, objectives, key results,
test cases and requirements. Use workitem_types to see what the instance
supports. Creation needs exactly one scope: a project_path for project-level
items or a namespace_path for group-level items such as epics.

Parent/child structure between work items goes through workitem_create's
parent_id and workitem_update's parent_id. The epic_issue_* tools drive the
older epic-issue association instead; removing or reordering one of those
links needs the association id from epic_issue_list, not the issue id.`
}
