package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// TypesTool handles the workitem_types MCP tool: it reports the type
// names the registry currently knows and can trigger re-discovery.
type TypesTool struct {
	reg TypeRegistry
}

// NewTypesTool creates a TypesTool over the given registry.
func NewTypesTool(reg TypeRegistry) *TypesTool {
	return &TypesTool{reg: reg}
}

// Definition returns the MCP tool definition for registration.
func (t *TypesTool) Definition() mcp.Tool {
	return mcp.NewTool("workitem_types",
		mcp.WithDescription(
			"List the work item type names currently known, and whether they "+
				"were discovered from the live instance or come from the "+
				"built-in fallback table. Set `refresh` to re-run discovery.",
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Re-discover types from the instance before answering."),
		),
		mcp.WithString("project_path",
			mcp.Description("Project to discover against (only with refresh). Defaults to any accessible project."),
		),
	)
}

// Handle processes the workitem_types tool call.
func (t *TypesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var fallbackReason string
	if req.GetBool("refresh", false) {
		disc := t.reg.Refresh(ctx, req.GetString("project_path", ""))
		fallbackReason = disc.Reason
	}

	var b strings.Builder
	b.WriteString("# Work Item Types\n\n")
	if t.reg.Discovered() {
		b.WriteString("Source: live instance schema\n\n")
	} else {
		b.WriteString("Source: built-in fallback table (discovery unavailable)\n")
		if fallbackReason != "" {
			fmt.Fprintf(&b, "Reason: %s\n", fallbackReason)
		}
		b.WriteString("\n")
	}
	for _, typ := range t.reg.Types() {
		fmt.Fprintf(&b, "- **%s** (`%s`)\n", typ.Name, typ.ID)
	}
	return mcp.NewToolResultText(b.String()), nil
}
