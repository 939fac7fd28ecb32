package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/systemforge/internal/platform/errors"
	"github.com/louisbranch/systemforge/internal/services/systems/core/index"
	"github.com/louisbranch/systemforge/internal/services/systems/core/validate"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
)

// CharacterOutcome is a stored character plus non-fatal issues.
type CharacterOutcome struct {
	Character domain.Character
	Warnings  []validate.Issue
}

// AttributeGroups holds a system's skills and saves grouped by governing
// attribute.
type AttributeGroups struct {
	Skills index.Groups[domain.Skill]
	Saves  index.Groups[domain.Save]
}

// GroupByAttribute groups the skills and saves of a system by governing
// attribute.
func (s *Service) GroupByAttribute(ctx context.Context, systemID string) (AttributeGroups, error) {
	system, err := s.GetSystem(ctx, systemID)
	if err != nil {
		return AttributeGroups{}, err
	}
	return AttributeGroups{
		Skills: index.SkillsByAttribute(system),
		Saves:  index.SavesByAttribute(system),
	}, nil
}

// CreateCharacter stores a new character for systemID with a generated id.
func (s *Service) CreateCharacter(ctx context.Context, systemID string, data domain.Value) (CharacterOutcome, error) {
	characterID, err := s.ids.NewID()
	if err != nil {
		return CharacterOutcome{}, apperrors.Wrap(apperrors.CodeUnknown, "generate character id", err)
	}
	return s.storeCharacter(ctx, domain.Character{
		CharacterID: characterID,
		SystemID:    strings.TrimSpace(systemID),
		Data:        data,
	})
}

func (s *Service) storeCharacter(ctx context.Context, character domain.Character) (CharacterOutcome, error) {
	system, err := s.systems.GetSystem(ctx, character.SystemID)
	if err != nil {
		if mapped := storeError(err, "system", character.SystemID); apperrors.CodeOf(mapped) == apperrors.CodeNotFound {
			return CharacterOutcome{}, missingSystem(character.SystemID)
		}
		return CharacterOutcome{}, err
	}

	result := s.validator.CheckCharacter(character, system)
	if rejection, ok := result.Rejection(); ok {
		return CharacterOutcome{}, rejection.DomainError()
	}
	if err := s.characters.CreateCharacter(ctx, character); err != nil {
		return CharacterOutcome{}, storeError(err, "character", character.CharacterID)
	}
	return CharacterOutcome{Character: character, Warnings: result.Warnings()}, nil
}

// GetCharacter loads one character.
func (s *Service) GetCharacter(ctx context.Context, characterID string) (domain.Character, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return domain.Character{}, notFound("character", characterID)
	}
	character, err := s.characters.GetCharacter(ctx, characterID)
	if err != nil {
		return domain.Character{}, storeError(err, "character", characterID)
	}
	return character, nil
}

// ListCharacters returns the characters of an existing system.
func (s *Service) ListCharacters(ctx context.Context, systemID string) ([]domain.Character, error) {
	if _, err := s.GetSystem(ctx, systemID); err != nil {
		return nil, err
	}
	characters, err := s.characters.ListCharacters(ctx, strings.TrimSpace(systemID))
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return characters, nil
}

func missingSystem(systemID string) *apperrors.Error {
	return apperrors.WithMetadata(
		apperrors.CodeCharacterSystemMissing,
		fmt.Sprintf("system %q does not exist", systemID),
		map[string]string{"SystemID": systemID},
	)
}
