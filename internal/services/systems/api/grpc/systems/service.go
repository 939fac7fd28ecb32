package systems

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/louisbranch/systemforge/internal/platform/errors"
	"github.com/louisbranch/systemforge/internal/services/systems/core/codec"
	"github.com/louisbranch/systemforge/internal/services/systems/core/index"
	"github.com/louisbranch/systemforge/internal/services/systems/core/modifier"
	"github.com/louisbranch/systemforge/internal/services/systems/core/naming"
	"github.com/louisbranch/systemforge/internal/services/systems/core/schema"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"github.com/louisbranch/systemforge/internal/services/systems/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service exposes systems.v1 gRPC operations.
type Service struct {
	app *service.Service
}

var _ Server = (*Service)(nil)

// NewService creates the gRPC adapter for app.
func NewService(app *service.Service) *Service {
	return &Service{app: app}
}

func handle[Req, Resp any](ctx context.Context, in *structpb.Struct, fn func(context.Context, Req) (Resp, error)) (*structpb.Struct, error) {
	var req Req
	if err := decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	resp, err := fn(ctx, req)
	if err != nil {
		return nil, apperrors.HandleError(err, apperrors.LocaleFromContext(ctx))
	}
	out, err := encode(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// DeriveID returns the identifier a system name maps to.
func (s *Service) DeriveID(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(_ context.Context, req DeriveIDRequest) (DeriveIDResponse, error) {
		systemID, err := naming.DeriveID(req.Name)
		if err != nil {
			if errors.Is(err, naming.ErrEmptyName) {
				return DeriveIDResponse{}, apperrors.Wrap(apperrors.CodeSystemNameEmpty, "system name has no usable characters", err)
			}
			return DeriveIDResponse{}, err
		}
		return DeriveIDResponse{SystemID: systemID}, nil
	})
}

// SynthesizeSchemas builds data and UI schemas for a structure without
// storing anything.
func (s *Service) SynthesizeSchemas(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(_ context.Context, req SynthesizeSchemasRequest) (SynthesizeSchemasResponse, error) {
		structure := domain.Structure{
			Attributes: req.Attributes,
			Saves:      req.Saves,
			Skills:     req.Skills,
			Feats:      req.Feats,
		}
		schemas, err := schema.Synthesize(structure)
		if err != nil {
			return SynthesizeSchemasResponse{}, err
		}
		return SynthesizeSchemasResponse{
			Schemas:    schemas,
			Collisions: schema.ReservedCollisions(structure),
		}, nil
	})
}

// ValidateImport reports whether a document would be accepted. Rejections
// are returned as data, not as errors.
func (s *Service) ValidateImport(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(_ context.Context, req ValidateImportRequest) (ValidateImportResponse, error) {
		kind, err := parseKind(req.Kind, true)
		if err != nil {
			return ValidateImportResponse{}, err
		}
		kind, result := s.app.ValidateDocument(kind, []byte(req.Document))
		resp := ValidateImportResponse{
			Kind:     string(kind),
			Warnings: issuesToWire(result.Warnings()),
		}
		if rejection, ok := result.Rejection(); ok {
			resp.Issues = issuesToWire(rejection.Issues)
			return resp, nil
		}
		entity, _ := result.Accepted()
		document, err := codec.Export(entity)
		if err != nil {
			return ValidateImportResponse{}, err
		}
		resp.Accepted = true
		resp.Document = document
		return resp, nil
	})
}

// GroupByKey groups arbitrary records by the string value of a field.
func (s *Service) GroupByKey(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(_ context.Context, req GroupByKeyRequest) (GroupByKeyResponse, error) {
		if strings.TrimSpace(req.KeyField) == "" {
			return GroupByKeyResponse{}, apperrors.New(apperrors.CodeMalformedInput, "key field is required")
		}
		groups := index.ByField(req.Items, req.KeyField, index.Filter{Query: req.Query, Category: req.Category})
		return GroupByKeyResponse{Groups: nonNil(groups)}, nil
	})
}

// Modifier converts a raw score to its modifier.
func (s *Service) Modifier(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(_ context.Context, req ModifierRequest) (ModifierResponse, error) {
		return ModifierResponse{Modifier: modifier.For(req.Score), Label: modifier.Label(req.Score)}, nil
	})
}

// CreateSystem stores a new system.
func (s *Service) CreateSystem(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req CreateSystemRequest) (SystemResponse, error) {
		outcome, err := s.app.CreateSystem(ctx, req.System.System())
		if err != nil {
			return SystemResponse{}, err
		}
		return systemResponse(outcome), nil
	})
}

// UpdateSystem replaces a stored system's content.
func (s *Service) UpdateSystem(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req UpdateSystemRequest) (SystemResponse, error) {
		if strings.TrimSpace(req.SystemID) == "" {
			return SystemResponse{}, apperrors.New(apperrors.CodeMalformedInput, "system id is required")
		}
		next := req.System.System()
		next.SystemID = req.SystemID
		outcome, err := s.app.UpdateSystem(ctx, req.SystemID, next)
		if err != nil {
			return SystemResponse{}, err
		}
		return systemResponse(outcome), nil
	})
}

// GetSystem returns a stored system.
func (s *Service) GetSystem(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req GetSystemRequest) (SystemResponse, error) {
		system, err := s.app.GetSystem(ctx, req.SystemID)
		if err != nil {
			return SystemResponse{}, err
		}
		return SystemResponse{System: system}, nil
	})
}

// ListSystems pages through system summaries ordered by id.
func (s *Service) ListSystems(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req ListSystemsRequest) (ListSystemsResponse, error) {
		page, err := s.app.ListSystems(ctx, req.PageSize, req.PageToken)
		if err != nil {
			return ListSystemsResponse{}, err
		}
		summaries := page.Summaries
		if summaries == nil {
			summaries = []domain.Summary{}
		}
		return ListSystemsResponse{Systems: summaries, NextPageToken: page.NextPageToken}, nil
	})
}

// GroupSkills groups a system's skills and saves by base attribute.
func (s *Service) GroupSkills(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req GroupSkillsRequest) (GroupSkillsResponse, error) {
		groups, err := s.app.GroupByAttribute(ctx, req.SystemID)
		if err != nil {
			return GroupSkillsResponse{}, err
		}
		return GroupSkillsResponse{Groups: nonNil(groups.Skills), SaveGroups: nonNil(groups.Saves)}, nil
	})
}

// CreateCharacter stores a character for a system.
func (s *Service) CreateCharacter(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req CreateCharacterRequest) (CharacterResponse, error) {
		outcome, err := s.app.CreateCharacter(ctx, req.SystemID, req.Data)
		if err != nil {
			return CharacterResponse{}, err
		}
		return CharacterResponse{Character: outcome.Character, Warnings: issuesToWire(outcome.Warnings)}, nil
	})
}

// GetCharacter returns a stored character.
func (s *Service) GetCharacter(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req GetCharacterRequest) (CharacterResponse, error) {
		character, err := s.app.GetCharacter(ctx, req.CharacterID)
		if err != nil {
			return CharacterResponse{}, err
		}
		return CharacterResponse{Character: character}, nil
	})
}

// ListCharacters returns the characters of a system.
func (s *Service) ListCharacters(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req ListCharactersRequest) (ListCharactersResponse, error) {
		characters, err := s.app.ListCharacters(ctx, req.SystemID)
		if err != nil {
			return ListCharactersResponse{}, err
		}
		if characters == nil {
			characters = []domain.Character{}
		}
		return ListCharactersResponse{Characters: characters}, nil
	})
}

// ImportDocument validates and stores a system or character document.
func (s *Service) ImportDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req ImportDocumentRequest) (ImportDocumentResponse, error) {
		kind, err := parseKind(req.Kind, true)
		if err != nil {
			return ImportDocumentResponse{}, err
		}
		outcome, err := s.app.ImportDocument(ctx, kind, []byte(req.Document))
		if err != nil {
			return ImportDocumentResponse{}, err
		}
		return ImportDocumentResponse{
			Kind:     string(outcome.Kind),
			ID:       outcome.Entity.EntityID(),
			Warnings: issuesToWire(outcome.Warnings),
		}, nil
	})
}

// ExportDocument returns the canonical JSON document of a stored entity.
func (s *Service) ExportDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req ExportDocumentRequest) (ExportDocumentResponse, error) {
		kind, err := parseKind(req.Kind, false)
		if err != nil {
			return ExportDocumentResponse{}, err
		}
		document, err := s.app.Export(ctx, kind, req.ID)
		if err != nil {
			return ExportDocumentResponse{}, err
		}
		return ExportDocumentResponse{Document: string(document)}, nil
	})
}

// BrowseLibrary filters a reference catalog and groups it by category.
func (s *Service) BrowseLibrary(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req BrowseLibraryRequest) (BrowseLibraryResponse, error) {
		groups, err := s.app.BrowseLibrary(ctx, service.LibraryQuery{
			Kind:   domain.LibraryKind(req.Kind),
			Filter: index.Filter{Query: req.Query, Category: req.Category},
			Where:  req.Filter,
		})
		if err != nil {
			return BrowseLibraryResponse{}, err
		}
		return BrowseLibraryResponse{Groups: nonNil(groups)}, nil
	})
}

// SuggestLibrary ranks catalog entries by fuzzy name match.
func (s *Service) SuggestLibrary(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req SuggestLibraryRequest) (SuggestLibraryResponse, error) {
		entries, err := s.app.SuggestLibrary(ctx, domain.LibraryKind(req.Kind), req.Query, req.Limit)
		if err != nil {
			return SuggestLibraryResponse{}, err
		}
		if entries == nil {
			entries = []domain.LibraryEntry{}
		}
		return SuggestLibraryResponse{Entries: entries}, nil
	})
}

func systemResponse(outcome service.SystemOutcome) SystemResponse {
	return SystemResponse{System: outcome.System, Warnings: issuesToWire(outcome.Warnings)}
}

// parseKind reads a document kind. An empty value is allowed only when the
// caller can detect the kind from the document.
func parseKind(value string, detect bool) (domain.Kind, error) {
	if strings.TrimSpace(value) == "" && detect {
		return "", nil
	}
	kind, ok := domain.ParseKind(value)
	if !ok {
		return "", apperrors.WithMetadata(
			apperrors.CodeMalformedInput,
			"unknown document kind "+value,
			map[string]string{"Field": "kind", "Reference": value},
		)
	}
	return kind, nil
}

func nonNil[T any](groups index.Groups[T]) []index.Group[T] {
	if groups == nil {
		return []index.Group[T]{}
	}
	return groups
}
