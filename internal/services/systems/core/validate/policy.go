package validate

import (
	"fmt"
	"strings"
)

// ReferencePolicy decides how unresolved attribute references are treated.
type ReferencePolicy string

const (
	// ReferencesWarn accepts the document and reports warnings.
	ReferencesWarn ReferencePolicy = "warn"
	// ReferencesStrict rejects the document.
	ReferencesStrict ReferencePolicy = "strict"
)

// CharacterDataPolicy decides how character payloads are checked against
// their system.
type CharacterDataPolicy string

const (
	// CharacterDataOpen accepts any payload and reports warnings.
	CharacterDataOpen CharacterDataPolicy = "open"
	// CharacterDataStrict rejects payloads that do not match the system's
	// data schema or name unknown skills and feats.
	CharacterDataStrict CharacterDataPolicy = "strict"
)

// Policy configures a Validator.
type Policy struct {
	References    ReferencePolicy
	CharacterData CharacterDataPolicy
}

// DefaultPolicy warns on references and keeps character data open.
func DefaultPolicy() Policy {
	return Policy{References: ReferencesWarn, CharacterData: CharacterDataOpen}
}

// ParseReferencePolicy parses a configuration value. Empty means warn.
func ParseReferencePolicy(value string) (ReferencePolicy, error) {
	switch ReferencePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", ReferencesWarn:
		return ReferencesWarn, nil
	case ReferencesStrict:
		return ReferencesStrict, nil
	default:
		return "", fmt.Errorf("unknown reference policy %q", value)
	}
}

// ParseCharacterDataPolicy parses a configuration value. Empty means open.
func ParseCharacterDataPolicy(value string) (CharacterDataPolicy, error) {
	switch CharacterDataPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", CharacterDataOpen:
		return CharacterDataOpen, nil
	case CharacterDataStrict:
		return CharacterDataStrict, nil
	default:
		return "", fmt.Errorf("unknown character data policy %q", value)
	}
}
