package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/systemforge/internal/platform/errors"
	"github.com/louisbranch/systemforge/internal/platform/grpc/pagination"
	"github.com/louisbranch/systemforge/internal/platform/id"
	"github.com/louisbranch/systemforge/internal/services/systems/core/naming"
	"github.com/louisbranch/systemforge/internal/services/systems/core/schema"
	"github.com/louisbranch/systemforge/internal/services/systems/core/validate"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"github.com/louisbranch/systemforge/internal/services/systems/storage"
)

// SystemPageSize bounds system listings.
var SystemPageSize = pagination.PageSizeConfig{Default: 20, Max: 100}

// Deps are the collaborators of a Service.
type Deps struct {
	Systems    storage.SystemStore
	Characters storage.CharacterStore
	Library    storage.LibraryCatalog
	Validator  *validate.Validator
	IDs        id.Generator
}

// Service runs systems operations.
type Service struct {
	systems    storage.SystemStore
	characters storage.CharacterStore
	library    storage.LibraryCatalog
	validator  *validate.Validator
	ids        id.Generator
}

// New builds a Service. Validator and IDs default to the default policy and
// random identifiers.
func New(deps Deps) (*Service, error) {
	if deps.Systems == nil {
		return nil, fmt.Errorf("system store is required")
	}
	if deps.Characters == nil {
		return nil, fmt.Errorf("character store is required")
	}
	if deps.Library == nil {
		return nil, fmt.Errorf("library is required")
	}
	if deps.Validator == nil {
		deps.Validator = validate.New(validate.DefaultPolicy())
	}
	if deps.IDs == nil {
		deps.IDs = id.Random
	}
	return &Service{
		systems:    deps.Systems,
		characters: deps.Characters,
		library:    deps.Library,
		validator:  deps.Validator,
		ids:        deps.IDs,
	}, nil
}

// Validator returns the validator used for imports.
func (s *Service) Validator() *validate.Validator {
	return s.validator
}

// SystemOutcome is a stored system plus the non-fatal issues found on it.
type SystemOutcome struct {
	System   domain.System
	Warnings []validate.Issue
}

// CreateSystem derives the id from the name, synthesizes schemas and stores
// the system. Any SystemID on draft is ignored.
func (s *Service) CreateSystem(ctx context.Context, draft domain.System) (SystemOutcome, error) {
	draft.SystemName = strings.TrimSpace(draft.SystemName)
	systemID, err := deriveSystemID(draft.SystemName)
	if err != nil {
		return SystemOutcome{}, err
	}
	draft.SystemID = systemID

	outcome, err := s.prepareSystem(draft)
	if err != nil {
		return SystemOutcome{}, err
	}
	if err := s.systems.CreateSystem(ctx, outcome.System); err != nil {
		return SystemOutcome{}, storeError(err, "system", systemID)
	}
	return outcome, nil
}

// UpdateSystem replaces the rule set of systemID and regenerates its schemas.
// The id never changes; a different SystemID on the input is refused.
func (s *Service) UpdateSystem(ctx context.Context, systemID string, next domain.System) (SystemOutcome, error) {
	systemID = strings.TrimSpace(systemID)
	next.SystemID = strings.TrimSpace(next.SystemID)
	if next.SystemID != "" && next.SystemID != systemID {
		return SystemOutcome{}, apperrors.WithMetadata(
			apperrors.CodeSystemIDImmutable,
			fmt.Sprintf("system id %q cannot change to %q", systemID, next.SystemID),
			map[string]string{"SystemID": systemID},
		)
	}
	if _, err := s.GetSystem(ctx, systemID); err != nil {
		return SystemOutcome{}, err
	}
	next.SystemID = systemID
	next.SystemName = strings.TrimSpace(next.SystemName)
	if next.SystemName == "" {
		return SystemOutcome{}, apperrors.New(apperrors.CodeSystemNameEmpty, "system name is required")
	}

	outcome, err := s.prepareSystem(next)
	if err != nil {
		return SystemOutcome{}, err
	}
	if err := s.systems.UpdateSystem(ctx, outcome.System); err != nil {
		return SystemOutcome{}, storeError(err, "system", systemID)
	}
	return outcome, nil
}

// prepareSystem fills empty lists, synthesizes schemas and applies the
// reference policy.
func (s *Service) prepareSystem(system domain.System) (SystemOutcome, error) {
	system = withEmptyLists(system)
	schemas, err := schema.Synthesize(system.Structure())
	if err != nil {
		return SystemOutcome{}, apperrors.Wrap(apperrors.CodeUnknown, "synthesize schemas", err)
	}
	system.Schemas = schemas

	result := s.validator.CheckSystem(system)
	if rejection, ok := result.Rejection(); ok {
		return SystemOutcome{}, rejection.DomainError()
	}
	return SystemOutcome{System: system, Warnings: result.Warnings()}, nil
}

// GetSystem loads one system.
func (s *Service) GetSystem(ctx context.Context, systemID string) (domain.System, error) {
	systemID = strings.TrimSpace(systemID)
	if systemID == "" {
		return domain.System{}, notFound("system", systemID)
	}
	system, err := s.systems.GetSystem(ctx, systemID)
	if err != nil {
		return domain.System{}, storeError(err, "system", systemID)
	}
	return system, nil
}

// ListSystems returns one page of summaries. Page tokens are opaque.
func (s *Service) ListSystems(ctx context.Context, pageSize int, pageToken string) (storage.SystemPage, error) {
	cursor, err := pagination.DecodeToken(pageToken)
	if err != nil {
		return storage.SystemPage{}, apperrors.Wrap(apperrors.CodeMalformedInput, "decode page token", err)
	}
	page, err := s.systems.ListSystemSummaries(ctx, pagination.ClampPageSize(pageSize, SystemPageSize), cursor)
	if err != nil {
		return storage.SystemPage{}, fmt.Errorf("list systems: %w", err)
	}
	page.NextPageToken = pagination.EncodeToken(page.NextPageToken)
	return page, nil
}

func deriveSystemID(name string) (string, error) {
	if name == "" {
		return "", apperrors.New(apperrors.CodeSystemNameEmpty, "system name is required")
	}
	systemID, err := naming.DeriveID(name)
	if err != nil {
		if errors.Is(err, naming.ErrEmptyName) {
			return "", apperrors.Wrap(apperrors.CodeSystemNameEmpty, fmt.Sprintf("system name %q has no usable characters", name), err)
		}
		return "", err
	}
	return systemID, nil
}

func withEmptyLists(system domain.System) domain.System {
	if system.Attributes == nil {
		system.Attributes = []domain.Attribute{}
	}
	if system.Skills == nil {
		system.Skills = []domain.Skill{}
	}
	if system.Feats == nil {
		system.Feats = []domain.Feat{}
	}
	if system.Saves == nil {
		system.Saves = []domain.Save{}
	}
	return system
}

func notFound(resource, identifier string) *apperrors.Error {
	return apperrors.WithMetadata(
		apperrors.CodeNotFound,
		fmt.Sprintf("%s %q not found", resource, identifier),
		map[string]string{"Resource": resource, "ID": identifier},
	)
}

// storeError maps storage sentinels to coded errors.
func storeError(err error, resource, identifier string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return notFound(resource, identifier)
	case errors.Is(err, storage.ErrAlreadyExists):
		return &apperrors.Error{
			Code:     apperrors.CodeIdentifierCollision,
			Message:  fmt.Sprintf("%s %q already exists", resource, identifier),
			Metadata: map[string]string{"Resource": resource, "ID": identifier},
			Cause:    err,
		}
	case errors.Is(err, storage.ErrSystemMissing):
		return &apperrors.Error{
			Code:     apperrors.CodeCharacterSystemMissing,
			Message:  fmt.Sprintf("%s %q references a missing system", resource, identifier),
			Metadata: map[string]string{"SystemID": identifier},
			Cause:    err,
		}
	default:
		return err
	}
}
