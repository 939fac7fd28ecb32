package domain

import "encoding/json"

// Kind names a portable document shape.
type Kind string

const (
	// KindSystem identifies System documents.
	KindSystem Kind = "system"
	// KindCharacter identifies Character documents.
	KindCharacter Kind = "character"
)

// ParseKind maps a label to a Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(value) {
	case KindSystem:
		return KindSystem, true
	case KindCharacter:
		return KindCharacter, true
	default:
		return "", false
	}
}

// Entity is implemented by every importable document.
type Entity interface {
	EntityKind() Kind
	EntityID() string
}

// Attribute is a named score every character in the system carries.
type Attribute struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Skill is governed by one attribute.
type Skill struct {
	Name          string `json:"name"`
	BaseAttribute string `json:"baseAttribute"`
}

// Save is a saving throw governed by one attribute.
type Save struct {
	Name          string `json:"name"`
	BaseAttribute string `json:"baseAttribute"`
}

// Feat is a special ability with optional mechanical effect.
type Feat struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Prerequisites string `json:"prerequisites"`
	Effect        string `json:"effect,omitempty"`
}

// CustomRule is a free-form house rule.
type CustomRule struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Schemas holds the serialized data and UI schemas derived from a System.
type Schemas struct {
	FormSchema string `json:"formSchema"`
	UISchema   string `json:"uiSchema"`
}

// Structure is the part of a System that drives schema synthesis.
type Structure struct {
	Attributes []Attribute
	Saves      []Save
	Skills     []Skill
	Feats      []Feat
}

// System is a complete rule set. SystemID is derived from the name at
// creation and never changes; Schemas are regenerated whenever the structure
// is saved.
type System struct {
	SystemID    string       `json:"systemId"`
	SystemName  string       `json:"systemName"`
	Description string       `json:"description"`
	Attributes  []Attribute  `json:"attributes"`
	Skills      []Skill      `json:"skills"`
	Feats       []Feat       `json:"feats"`
	Saves       []Save       `json:"saves"`
	CustomRules []CustomRule `json:"customRules,omitempty"`
	Schemas     Schemas      `json:"schemas"`

	// Extra holds unknown top-level fields of an imported document so they
	// survive a later export.
	Extra map[string]json.RawMessage `json:"-"`
}

// EntityKind implements Entity.
func (System) EntityKind() Kind { return KindSystem }

// EntityID implements Entity.
func (s System) EntityID() string { return s.SystemID }

// Structure returns the structural fields used for schema synthesis.
func (s System) Structure() Structure {
	return Structure{
		Attributes: s.Attributes,
		Saves:      s.Saves,
		Skills:     s.Skills,
		Feats:      s.Feats,
	}
}

// Summary is the listing view of a System.
type Summary struct {
	SystemID    string `json:"id"`
	SystemName  string `json:"name"`
	Description string `json:"description"`
}

// Summary returns the listing view of s.
func (s System) Summary() Summary {
	return Summary{SystemID: s.SystemID, SystemName: s.SystemName, Description: s.Description}
}
