package service

import (
	"context"
	"strings"

	apperrors "github.com/louisbranch/systemforge/internal/platform/errors"
	"github.com/louisbranch/systemforge/internal/services/systems/core/codec"
	"github.com/louisbranch/systemforge/internal/services/systems/core/validate"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
)

// ImportOutcome describes a stored imported document.
type ImportOutcome struct {
	Kind     domain.Kind
	Entity   domain.Entity
	Warnings []validate.Issue
}

// ValidateDocument checks raw without storing it. An empty kind is detected
// from the document.
func (s *Service) ValidateDocument(kind domain.Kind, raw []byte) (domain.Kind, validate.Result) {
	if kind == "" {
		return codec.ImportAuto(raw, s.validator)
	}
	return kind, codec.Import(kind, raw, s.validator)
}

// ImportDocument validates and stores raw. A rejected document stores
// nothing. Imported systems get freshly synthesized schemas; blank ids are
// derived (systems) or generated (characters).
func (s *Service) ImportDocument(ctx context.Context, kind domain.Kind, raw []byte) (ImportOutcome, error) {
	kind, result := s.ValidateDocument(kind, raw)
	if rejection, ok := result.Rejection(); ok {
		return ImportOutcome{}, rejection.DomainError()
	}

	switch kind {
	case domain.KindSystem:
		system, _ := result.System()
		return s.importSystem(ctx, system)
	default:
		character, _ := result.Character()
		return s.importCharacter(ctx, character)
	}
}

func (s *Service) importSystem(ctx context.Context, system domain.System) (ImportOutcome, error) {
	system.SystemName = strings.TrimSpace(system.SystemName)
	system.SystemID = strings.TrimSpace(system.SystemID)
	if system.SystemID == "" {
		derived, err := deriveSystemID(system.SystemName)
		if err != nil {
			return ImportOutcome{}, err
		}
		system.SystemID = derived
	}

	outcome, err := s.prepareSystem(system)
	if err != nil {
		return ImportOutcome{}, err
	}
	if err := s.systems.CreateSystem(ctx, outcome.System); err != nil {
		return ImportOutcome{}, storeError(err, "system", system.SystemID)
	}
	return ImportOutcome{Kind: domain.KindSystem, Entity: outcome.System, Warnings: outcome.Warnings}, nil
}

func (s *Service) importCharacter(ctx context.Context, character domain.Character) (ImportOutcome, error) {
	character.CharacterID = strings.TrimSpace(character.CharacterID)
	character.SystemID = strings.TrimSpace(character.SystemID)
	if character.CharacterID == "" {
		generated, err := s.ids.NewID()
		if err != nil {
			return ImportOutcome{}, apperrors.Wrap(apperrors.CodeUnknown, "generate character id", err)
		}
		character.CharacterID = generated
	}
	outcome, err := s.storeCharacter(ctx, character)
	if err != nil {
		return ImportOutcome{}, err
	}
	return ImportOutcome{Kind: domain.KindCharacter, Entity: outcome.Character, Warnings: outcome.Warnings}, nil
}

// ExportSystem renders a stored system as a portable document.
func (s *Service) ExportSystem(ctx context.Context, systemID string) ([]byte, error) {
	system, err := s.GetSystem(ctx, systemID)
	if err != nil {
		return nil, err
	}
	return exportEntity(system)
}

// ExportCharacter renders a stored character as a portable document.
func (s *Service) ExportCharacter(ctx context.Context, characterID string) ([]byte, error) {
	character, err := s.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}
	return exportEntity(character)
}

// Export renders the stored document of kind with the given id.
func (s *Service) Export(ctx context.Context, kind domain.Kind, entityID string) ([]byte, error) {
	switch kind {
	case domain.KindSystem:
		return s.ExportSystem(ctx, entityID)
	case domain.KindCharacter:
		return s.ExportCharacter(ctx, entityID)
	default:
		return nil, apperrors.WithMetadata(
			apperrors.CodeMalformedInput,
			"unknown document kind "+string(kind),
			map[string]string{"Document": string(kind), "Field": "kind"},
		)
	}
}

func exportEntity(entity domain.Entity) ([]byte, error) {
	doc, err := codec.Export(entity)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "export document", err)
	}
	return doc, nil
}
