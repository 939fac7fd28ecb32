package service

import (
	"fmt"

	"github.com/louisbranch/systemforge/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerSystemsTools(registrar mcpRegistrationTarget, client domain.SystemsClient) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: domain.DeriveIDTool(), handler: domain.DeriveIDHandler(client)},
		{tool: domain.SynthesizeSchemasTool(), handler: domain.SynthesizeSchemasHandler(client)},
		{tool: domain.ValidateImportTool(), handler: domain.ValidateImportHandler(client)},
		{tool: domain.GroupSkillsTool(), handler: domain.GroupSkillsHandler(client)},
		{tool: domain.AttributeModifierTool(), handler: domain.AttributeModifierHandler(client)},
		{tool: domain.BrowseLibraryTool(), handler: domain.BrowseLibraryHandler(client)},
		{tool: domain.SuggestLibraryTool(), handler: domain.SuggestLibraryHandler(client)},
		{tool: domain.ExportDocumentTool(), handler: domain.ExportDocumentHandler(client)},
	}
	for _, registration := range registrations {
		if err := registerTool(registrar, registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}

func registerTool(registrar mcpRegistrationTarget, tool *mcp.Tool, handler any) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	return registrar.AddTool(tool, handler)
}
