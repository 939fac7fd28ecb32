package systems

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/systemforge/internal/services/systems/core/index"
	"github.com/louisbranch/systemforge/internal/services/systems/core/validate"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Issue is the wire form of a validation finding.
type Issue struct {
	Code       string `json:"code"`
	Path       string `json:"path,omitempty"`
	Message    string `json:"message"`
	Reference  string `json:"reference,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func issuesToWire(issues []validate.Issue) []Issue {
	if len(issues) == 0 {
		return nil
	}
	out := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, Issue{
			Code:       string(issue.Code),
			Path:       issue.Path,
			Message:    issue.Message,
			Reference:  issue.Reference,
			Suggestion: issue.Suggestion,
		})
	}
	return out
}

// SystemDraft carries the GM-authored fields of a system.
type SystemDraft struct {
	SystemName  string              `json:"systemName"`
	Description string              `json:"description"`
	Attributes  []domain.Attribute  `json:"attributes,omitempty"`
	Skills      []domain.Skill      `json:"skills,omitempty"`
	Feats       []domain.Feat       `json:"feats,omitempty"`
	Saves       []domain.Save       `json:"saves,omitempty"`
	CustomRules []domain.CustomRule `json:"customRules,omitempty"`
}

// System converts the draft to a domain system without id or schemas.
func (d SystemDraft) System() domain.System {
	return domain.System{
		SystemName:  d.SystemName,
		Description: d.Description,
		Attributes:  d.Attributes,
		Skills:      d.Skills,
		Feats:       d.Feats,
		Saves:       d.Saves,
		CustomRules: d.CustomRules,
	}
}

type DeriveIDRequest struct {
	Name string `json:"name"`
}

type DeriveIDResponse struct {
	SystemID string `json:"systemId"`
}

type SynthesizeSchemasRequest struct {
	Attributes []domain.Attribute `json:"attributes,omitempty"`
	Saves      []domain.Save      `json:"saves,omitempty"`
	Skills     []domain.Skill     `json:"skills,omitempty"`
	Feats      []domain.Feat      `json:"feats,omitempty"`
}

type SynthesizeSchemasResponse struct {
	Schemas    domain.Schemas `json:"schemas"`
	Collisions []string       `json:"collisions,omitempty"`
}

// ValidateImportRequest checks a document. An empty kind is detected.
type ValidateImportRequest struct {
	Kind     string `json:"kind,omitempty"`
	Document string `json:"document"`
}

type ValidateImportResponse struct {
	Accepted bool            `json:"accepted"`
	Kind     string          `json:"kind"`
	Document json.RawMessage `json:"document,omitempty"`
	Issues   []Issue         `json:"issues,omitempty"`
	Warnings []Issue         `json:"warnings,omitempty"`
}

type GroupByKeyRequest struct {
	Items    []domain.Value `json:"items"`
	KeyField string         `json:"keyField"`
	Query    string         `json:"query,omitempty"`
	Category string         `json:"category,omitempty"`
}

type GroupByKeyResponse struct {
	Groups []index.Group[domain.Value] `json:"groups"`
}

type ModifierRequest struct {
	Score int `json:"score"`
}

type ModifierResponse struct {
	Modifier int    `json:"modifier"`
	Label    string `json:"label"`
}

type CreateSystemRequest struct {
	System SystemDraft `json:"system"`
}

type UpdateSystemRequest struct {
	SystemID string      `json:"systemId"`
	System   SystemDraft `json:"system"`
}

type GetSystemRequest struct {
	SystemID string `json:"systemId"`
}

type SystemResponse struct {
	System   domain.System `json:"system"`
	Warnings []Issue       `json:"warnings,omitempty"`
}

type ListSystemsRequest struct {
	PageSize  int    `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

type ListSystemsResponse struct {
	Systems       []domain.Summary `json:"systems"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

type GroupSkillsRequest struct {
	SystemID string `json:"systemId"`
}

type GroupSkillsResponse struct {
	Groups     []index.Group[domain.Skill] `json:"groups"`
	SaveGroups []index.Group[domain.Save]  `json:"saveGroups"`
}

type CreateCharacterRequest struct {
	SystemID string       `json:"systemId"`
	Data     domain.Value `json:"data"`
}

type GetCharacterRequest struct {
	CharacterID string `json:"characterId"`
}

type CharacterResponse struct {
	Character domain.Character `json:"character"`
	Warnings  []Issue          `json:"warnings,omitempty"`
}

type ListCharactersRequest struct {
	SystemID string `json:"systemId"`
}

type ListCharactersResponse struct {
	Characters []domain.Character `json:"characters"`
}

// ImportDocumentRequest stores a document. An empty kind is detected.
type ImportDocumentRequest struct {
	Kind     string `json:"kind,omitempty"`
	Document string `json:"document"`
}

type ImportDocumentResponse struct {
	Kind     string  `json:"kind"`
	ID       string  `json:"id"`
	Warnings []Issue `json:"warnings,omitempty"`
}

type ExportDocumentRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type ExportDocumentResponse struct {
	Document string `json:"document"`
}

// BrowseLibraryRequest lists a catalog. Filter is an AIP-160 expression.
type BrowseLibraryRequest struct {
	Kind     string `json:"kind"`
	Query    string `json:"query,omitempty"`
	Category string `json:"category,omitempty"`
	Filter   string `json:"filter,omitempty"`
}

type BrowseLibraryResponse struct {
	Groups []index.Group[domain.LibraryEntry] `json:"groups"`
}

type SuggestLibraryRequest struct {
	Kind  string `json:"kind"`
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type SuggestLibraryResponse struct {
	Entries []domain.LibraryEntry `json:"entries"`
}

// encode converts a message to its Struct envelope.
func encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return out, nil
}

// decode fills v from a Struct envelope. A nil envelope decodes as {}.
func decode(in *structpb.Struct, v any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("read struct: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	return nil
}
