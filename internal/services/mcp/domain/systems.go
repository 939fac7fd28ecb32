package domain

import (
	"context"
	"fmt"
	"strings"

	systemsapi "github.com/louisbranch/systemforge/internal/services/systems/api/grpc/systems"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
)

// SystemsClient is the subset of the systems gRPC client the tools call.
type SystemsClient interface {
	DeriveID(context.Context, systemsapi.DeriveIDRequest, ...grpc.CallOption) (systemsapi.DeriveIDResponse, error)
	SynthesizeSchemas(context.Context, systemsapi.SynthesizeSchemasRequest, ...grpc.CallOption) (systemsapi.SynthesizeSchemasResponse, error)
	ValidateImport(context.Context, systemsapi.ValidateImportRequest, ...grpc.CallOption) (systemsapi.ValidateImportResponse, error)
	GroupSkills(context.Context, systemsapi.GroupSkillsRequest, ...grpc.CallOption) (systemsapi.GroupSkillsResponse, error)
	Modifier(context.Context, systemsapi.ModifierRequest, ...grpc.CallOption) (systemsapi.ModifierResponse, error)
	BrowseLibrary(context.Context, systemsapi.BrowseLibraryRequest, ...grpc.CallOption) (systemsapi.BrowseLibraryResponse, error)
	SuggestLibrary(context.Context, systemsapi.SuggestLibraryRequest, ...grpc.CallOption) (systemsapi.SuggestLibraryResponse, error)
	ExportDocument(context.Context, systemsapi.ExportDocumentRequest, ...grpc.CallOption) (systemsapi.ExportDocumentResponse, error)
}

// Issue is a validation finding in tool output.
type Issue struct {
	Code       string `json:"code" jsonschema:"machine-readable issue code"`
	Path       string `json:"path,omitempty" jsonschema:"field path inside the document"`
	Message    string `json:"message" jsonschema:"human-readable description"`
	Suggestion string `json:"suggestion,omitempty" jsonschema:"closest known name, when one exists"`
}

func issuesFromAPI(issues []systemsapi.Issue) []Issue {
	out := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, Issue{
			Code:       issue.Code,
			Path:       issue.Path,
			Message:    issue.Message,
			Suggestion: issue.Suggestion,
		})
	}
	return out
}

// DeriveIDInput represents the MCP tool input for deriving a system id.
type DeriveIDInput struct {
	Name string `json:"name" jsonschema:"system display name"`
}

// DeriveIDResult represents the MCP tool output for deriving a system id.
type DeriveIDResult struct {
	SystemID string `json:"system_id" jsonschema:"derived system identifier"`
}

// DeriveIDTool defines the MCP tool schema for deriving a system id.
func DeriveIDTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "derive_id",
		Description: "Derives the stable system identifier for a display name",
	}
}

// DeriveIDHandler derives a system id through the systems service.
func DeriveIDHandler(client SystemsClient) mcp.ToolHandlerFor[DeriveIDInput, DeriveIDResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DeriveIDInput) (*mcp.CallToolResult, DeriveIDResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
		defer cancel()

		response, err := client.DeriveID(callCtx, systemsapi.DeriveIDRequest{Name: input.Name})
		if err != nil {
			return nil, DeriveIDResult{}, fmt.Errorf("derive id failed: %w", err)
		}
		return nil, DeriveIDResult{SystemID: response.SystemID}, nil
	}
}

// SynthesizeSchemasInput represents the MCP tool input for schema synthesis.
type SynthesizeSchemasInput struct {
	Attributes []domain.Attribute `json:"attributes,omitempty" jsonschema:"attributes with name and description"`
	Saves      []domain.Save      `json:"saves,omitempty" jsonschema:"saves with name and baseAttribute"`
	Skills     []domain.Skill     `json:"skills,omitempty" jsonschema:"skills with name and baseAttribute"`
	Feats      []domain.Feat      `json:"feats,omitempty" jsonschema:"feats with name and description"`
}

// SynthesizeSchemasResult represents the MCP tool output for schema synthesis.
type SynthesizeSchemasResult struct {
	FormSchema string   `json:"form_schema" jsonschema:"serialized JSON Schema for character data"`
	UISchema   string   `json:"ui_schema" jsonschema:"serialized rendering hints"`
	Collisions []string `json:"collisions,omitempty" jsonschema:"names clashing with reserved keys"`
}

// SynthesizeSchemasTool defines the MCP tool schema for schema synthesis.
func SynthesizeSchemasTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "synthesize_schemas",
		Description: "Builds the character data schema and UI schema for a system structure",
	}
}

// SynthesizeSchemasHandler synthesizes schemas without storing anything.
func SynthesizeSchemasHandler(client SystemsClient) mcp.ToolHandlerFor[SynthesizeSchemasInput, SynthesizeSchemasResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SynthesizeSchemasInput) (*mcp.CallToolResult, SynthesizeSchemasResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
		defer cancel()

		response, err := client.SynthesizeSchemas(callCtx, systemsapi.SynthesizeSchemasRequest{
			Attributes: input.Attributes,
			Saves:      input.Saves,
			Skills:     input.Skills,
			Feats:      input.Feats,
		})
		if err != nil {
			return nil, SynthesizeSchemasResult{}, fmt.Errorf("synthesize schemas failed: %w", err)
		}
		return nil, SynthesizeSchemasResult{
			FormSchema: response.Schemas.FormSchema,
			UISchema:   response.Schemas.UISchema,
			Collisions: response.Collisions,
		}, nil
	}
}

// ValidateImportInput represents the MCP tool input for document validation.
type ValidateImportInput struct {
	Kind     string `json:"kind,omitempty" jsonschema:"system or character; detected when empty"`
	Document string `json:"document" jsonschema:"JSON document text"`
}

// ValidateImportResult represents the MCP tool output for document validation.
type ValidateImportResult struct {
	Accepted bool    `json:"accepted" jsonschema:"whether the document would be imported"`
	Kind     string  `json:"kind" jsonschema:"document kind"`
	Document string  `json:"document,omitempty" jsonschema:"normalized document when accepted"`
	Issues   []Issue `json:"issues" jsonschema:"reasons for rejection"`
	Warnings []Issue `json:"warnings" jsonschema:"non-fatal findings"`
}

// ValidateImportTool defines the MCP tool schema for document validation.
func ValidateImportTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "validate_import",
		Description: "Validates a system or character JSON document without storing it",
	}
}

// ValidateImportHandler validates a document through the systems service.
func ValidateImportHandler(client SystemsClient) mcp.ToolHandlerFor[ValidateImportInput, ValidateImportResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ValidateImportInput) (*mcp.CallToolResult, ValidateImportResult, error) {
		if strings.TrimSpace(input.Document) == "" {
			return nil, ValidateImportResult{}, fmt.Errorf("document is required")
		}
		callCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
		defer cancel()

		response, err := client.ValidateImport(callCtx, systemsapi.ValidateImportRequest{
			Kind:     strings.ToLower(strings.TrimSpace(input.Kind)),
			Document: input.Document,
		})
		if err != nil {
			return nil, ValidateImportResult{}, fmt.Errorf("validate import failed: %w", err)
		}
		return nil, ValidateImportResult{
			Accepted: response.Accepted,
			Kind:     response.Kind,
			Document: string(response.Document),
			Issues:   issuesFromAPI(response.Issues),
			Warnings: issuesFromAPI(response.Warnings),
		}, nil
	}
}

// GroupSkillsInput represents the MCP tool input for grouping skills.
type GroupSkillsInput struct {
	SystemID string `json:"system_id" jsonschema:"system identifier"`
}

// SkillGroup is the skills governed by one attribute.
type SkillGroup struct {
	Attribute string         `json:"attribute" jsonschema:"governing attribute name"`
	Skills    []domain.Skill `json:"skills" jsonschema:"skills in declaration order"`
}

// SaveGroup is the saves governed by one attribute.
type SaveGroup struct {
	Attribute string        `json:"attribute" jsonschema:"governing attribute name"`
	Saves     []domain.Save `json:"saves" jsonschema:"saves in declaration order"`
}

// GroupSkillsResult represents the MCP tool output for grouping skills.
type GroupSkillsResult struct {
	Groups     []SkillGroup `json:"groups" jsonschema:"skill groups in first-seen attribute order"`
	SaveGroups []SaveGroup  `json:"save_groups" jsonschema:"save groups in first-seen attribute order"`
}

// GroupSkillsTool defines the MCP tool schema for grouping skills.
func GroupSkillsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "group_skills",
		Description: "Groups a stored system's skills and saves by governing attribute",
	}
}

// GroupSkillsHandler groups skills through the systems service.
func GroupSkillsHandler(client SystemsClient) mcp.ToolHandlerFor[GroupSkillsInput, GroupSkillsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GroupSkillsInput) (*mcp.CallToolResult, GroupSkillsResult, error) {
		systemID := strings.TrimSpace(input.SystemID)
		if systemID == "" {
			return nil, GroupSkillsResult{}, fmt.Errorf("system_id is required")
		}
		callCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
		defer cancel()

		response, err := client.GroupSkills(callCtx, systemsapi.GroupSkillsRequest{SystemID: systemID})
		if err != nil {
			return nil, GroupSkillsResult{}, fmt.Errorf("group skills failed: %w", err)
		}
		result := GroupSkillsResult{
			Groups:     make([]SkillGroup, 0, len(response.Groups)),
			SaveGroups: make([]SaveGroup, 0, len(response.SaveGroups)),
		}
		for _, group := range response.Groups {
			result.Groups = append(result.Groups, SkillGroup{Attribute: group.Key, Skills: group.Items})
		}
		for _, group := range response.SaveGroups {
			result.SaveGroups = append(result.SaveGroups, SaveGroup{Attribute: group.Key, Saves: group.Items})
		}
		return nil, result, nil
	}
}

// AttributeModifierInput represents the MCP tool input for score modifiers.
type AttributeModifierInput struct {
	Score int `json:"score" jsonschema:"raw attribute score"`
}

// AttributeModifierResult represents the MCP tool output for score modifiers.
type AttributeModifierResult struct {
	Score    int    `json:"score" jsonschema:"raw attribute score"`
	Modifier int    `json:"modifier" jsonschema:"floor((score-10)/2)"`
	Label    string `json:"label" jsonschema:"signed modifier text"`
}

// AttributeModifierTool defines the MCP tool schema for score modifiers.
func AttributeModifierTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "attribute_modifier",
		Description: "Converts a raw attribute score to its d20-style modifier",
	}
}

// AttributeModifierHandler computes a modifier through the systems service.
func AttributeModifierHandler(client SystemsClient) mcp.ToolHandlerFor[AttributeModifierInput, AttributeModifierResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AttributeModifierInput) (*mcp.CallToolResult, AttributeModifierResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
		defer cancel()

		response, err := client.Modifier(callCtx, systemsapi.ModifierRequest{Score: input.Score})
		if err != nil {
			return nil, AttributeModifierResult{}, fmt.Errorf("attribute modifier failed: %w", err)
		}
		return nil, AttributeModifierResult{Score: input.Score, Modifier: response.Modifier, Label: response.Label}, nil
	}
}

// LibraryGroup is the library entries of one category.
type LibraryGroup struct {
	Category string                `json:"category" jsonschema:"entry category"`
	Entries  []domain.LibraryEntry `json:"entries" jsonschema:"entries in catalog order"`
}

// BrowseLibraryInput represents the MCP tool input for browsing a catalog.
type BrowseLibraryInput struct {
	Kind     string `json:"kind" jsonschema:"skills or feats"`
	Query    string `json:"query,omitempty" jsonschema:"case-insensitive text over name and description"`
	Category string `json:"category,omitempty" jsonschema:"exact category"`
	Filter   string `json:"filter,omitempty" jsonschema:"AIP-160 filter over name, category and description"`
}

// BrowseLibraryResult represents the MCP tool output for browsing a catalog.
type BrowseLibraryResult struct {
	Groups []LibraryGroup `json:"groups" jsonschema:"entries grouped by category"`
}

// BrowseLibraryTool defines the MCP tool schema for browsing a catalog.
func BrowseLibraryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "browse_library",
		Description: "Lists reference skills or feats grouped by category, with optional filters",
	}
}

// BrowseLibraryHandler browses a catalog through the systems service.
func BrowseLibraryHandler(client SystemsClient) mcp.ToolHandlerFor[BrowseLibraryInput, BrowseLibraryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BrowseLibraryInput) (*mcp.CallToolResult, BrowseLibraryResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
		defer cancel()

		response, err := client.BrowseLibrary(callCtx, systemsapi.BrowseLibraryRequest{
			Kind:     strings.ToLower(strings.TrimSpace(input.Kind)),
			Query:    input.Query,
			Category: input.Category,
			Filter:   input.Filter,
		})
		if err != nil {
			return nil, BrowseLibraryResult{}, fmt.Errorf("browse library failed: %w", err)
		}
		result := BrowseLibraryResult{Groups: make([]LibraryGroup, 0, len(response.Groups))}
		for _, group := range response.Groups {
			result.Groups = append(result.Groups, LibraryGroup{Category: group.Key, Entries: group.Items})
		}
		return nil, result, nil
	}
}

// SuggestLibraryInput represents the MCP tool input for fuzzy suggestions.
type SuggestLibraryInput struct {
	Kind  string `json:"kind" jsonschema:"skills or feats"`
	Query string `json:"query" jsonschema:"partial entry name"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of entries"`
}

// SuggestLibraryResult represents the MCP tool output for fuzzy suggestions.
type SuggestLibraryResult struct {
	Entries []domain.LibraryEntry `json:"entries" jsonschema:"best matches first"`
}

// SuggestLibraryTool defines the MCP tool schema for fuzzy suggestions.
func SuggestLibraryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "suggest_library",
		Description: "Suggests reference skills or feats whose names fuzzily match a query",
	}
}

// SuggestLibraryHandler ranks catalog entries through the systems service.
func SuggestLibraryHandler(client SystemsClient) mcp.ToolHandlerFor[SuggestLibraryInput, SuggestLibraryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SuggestLibraryInput) (*mcp.CallToolResult, SuggestLibraryResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
		defer cancel()

		response, err := client.SuggestLibrary(callCtx, systemsapi.SuggestLibraryRequest{
			Kind:  strings.ToLower(strings.TrimSpace(input.Kind)),
			Query: input.Query,
			Limit: input.Limit,
		})
		if err != nil {
			return nil, SuggestLibraryResult{}, fmt.Errorf("suggest library failed: %w", err)
		}
		entries := response.Entries
		if entries == nil {
			entries = []domain.LibraryEntry{}
		}
		return nil, SuggestLibraryResult{Entries: entries}, nil
	}
}

// ExportDocumentInput represents the MCP tool input for exporting a document.
type ExportDocumentInput struct {
	Kind string `json:"kind" jsonschema:"system or character"`
	ID   string `json:"id" jsonschema:"system or character identifier"`
}

// ExportDocumentResult represents the MCP tool output for exporting a document.
type ExportDocumentResult struct {
	Document string `json:"document" jsonschema:"canonical JSON document"`
}

// ExportDocumentTool defines the MCP tool schema for exporting a document.
func ExportDocumentTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "export_document",
		Description: "Exports a stored system or character as a portable JSON document",
	}
}

// ExportDocumentHandler exports a document through the systems service.
func ExportDocumentHandler(client SystemsClient) mcp.ToolHandlerFor[ExportDocumentInput, ExportDocumentResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ExportDocumentInput) (*mcp.CallToolResult, ExportDocumentResult, error) {
		entityID := strings.TrimSpace(input.ID)
		if entityID == "" {
			return nil, ExportDocumentResult{}, fmt.Errorf("id is required")
		}
		callCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
		defer cancel()

		response, err := client.ExportDocument(callCtx, systemsapi.ExportDocumentRequest{
			Kind: strings.ToLower(strings.TrimSpace(input.Kind)),
			ID:   entityID,
		})
		if err != nil {
			return nil, ExportDocumentResult{}, fmt.Errorf("export document failed: %w", err)
		}
		return nil, ExportDocumentResult{Document: response.Document}, nil
	}
}
