package service

import (
	"fmt"

	"github.com/louisbranch/systemforge/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
}

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.DeriveIDInput, domain.DeriveIDResult](),
	newMCPToolRegistrar[domain.SynthesizeSchemasInput, domain.SynthesizeSchemasResult](),
	newMCPToolRegistrar[domain.ValidateImportInput, domain.ValidateImportResult](),
	newMCPToolRegistrar[domain.GroupSkillsInput, domain.GroupSkillsResult](),
	newMCPToolRegistrar[domain.AttributeModifierInput, domain.AttributeModifierResult](),
	newMCPToolRegistrar[domain.BrowseLibraryInput, domain.BrowseLibraryResult](),
	newMCPToolRegistrar[domain.SuggestLibraryInput, domain.SuggestLibraryResult](),
	newMCPToolRegistrar[domain.ExportDocumentInput, domain.ExportDocumentResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}
