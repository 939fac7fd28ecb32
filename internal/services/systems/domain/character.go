package domain

import "encoding/json"

// Character is a player's instance of data for a System. SystemID is fixed
// after creation.
type Character struct {
	CharacterID string `json:"characterId"`
	SystemID    string `json:"systemId"`
	Data        Value  `json:"data"`

	// Extra holds unknown top-level fields of an imported document.
	Extra map[string]json.RawMessage `json:"-"`
}

// EntityKind implements Entity.
func (Character) EntityKind() Kind { return KindCharacter }

// EntityID implements Entity.
func (c Character) EntityID() string { return c.CharacterID }

// LibraryKind selects a reference catalog.
type LibraryKind string

const (
	// LibrarySkills is the skill catalog.
	LibrarySkills LibraryKind = "skills"
	// LibraryFeats is the feat catalog.
	LibraryFeats LibraryKind = "feats"
)

// LibraryEntry is a reusable, system-independent skill or feat.
type LibraryEntry struct {
	Name          string `json:"name" toml:"name"`
	Category      string `json:"category" toml:"category"`
	Description   string `json:"description" toml:"description"`
	Prerequisites string `json:"prerequisites,omitempty" toml:"prerequisites"`
	Effect        string `json:"effect,omitempty" toml:"effect"`
}
