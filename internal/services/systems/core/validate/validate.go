package validate

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	apperrors "github.com/louisbranch/systemforge/internal/platform/errors"
	"github.com/louisbranch/systemforge/internal/services/systems/core/schema"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
)

// Validator checks documents under a fixed Policy. It holds no state between
// calls and is safe for concurrent use.
type Validator struct {
	policy Policy
}

// New returns a Validator. Zero policy fields fall back to the defaults.
func New(policy Policy) *Validator {
	if policy.References == "" {
		policy.References = ReferencesWarn
	}
	if policy.CharacterData == "" {
		policy.CharacterData = CharacterDataOpen
	}
	return &Validator{policy: policy}
}

// Policy returns the active policy.
func (v *Validator) Policy() Policy {
	return v.policy
}

// ValidateImport checks raw as a document of the given kind.
func (v *Validator) ValidateImport(kind domain.Kind, raw []byte) Result {
	switch kind {
	case domain.KindSystem:
		return v.ValidateSystem(raw)
	case domain.KindCharacter:
		return v.ValidateCharacter(raw)
	default:
		return reject(kind, []Issue{{
			Code:    apperrors.CodeMalformedInput,
			Message: fmt.Sprintf("unknown document kind %q", kind),
		}})
	}
}

// ValidateSystem checks raw against the System contract. Any shape problem
// rejects the whole document.
func (v *Validator) ValidateSystem(raw []byte) Result {
	system, issues := parseSystem(raw)
	if len(issues) > 0 {
		return reject(domain.KindSystem, issues)
	}
	return v.CheckSystem(system)
}

// CheckSystem applies the referential rules to an already well-formed System.
func (v *Validator) CheckSystem(system domain.System) Result {
	references := CheckReferences(system)
	if len(references) > 0 && v.policy.References == ReferencesStrict {
		return reject(domain.KindSystem, references)
	}
	warnings := append(references, reservedIssues(system)...)
	return accept(system, warnings)
}

// ValidateCharacter checks raw against the Character contract. The data
// payload is not compared with any System here.
func (v *Validator) ValidateCharacter(raw []byte) Result {
	character, issues := parseCharacter(raw)
	if len(issues) > 0 {
		return reject(domain.KindCharacter, issues)
	}
	return accept(character, nil)
}

// CheckCharacter compares a character payload with its owning System. Under
// the open policy findings are warnings; under the strict policy they reject
// the character and the payload must also satisfy the system's data schema.
func (v *Validator) CheckCharacter(character domain.Character, system domain.System) Result {
	issues := characterIssues(character.Data, system)
	if v.policy.CharacterData != CharacterDataStrict {
		return accept(character, issues)
	}

	formSchema := system.Schemas.FormSchema
	if formSchema == "" {
		synthesized, err := schema.Synthesize(system.Structure())
		if err != nil {
			issues = append(issues, Issue{Code: apperrors.CodeMalformedInput, Path: "data", Message: err.Error()})
			return reject(domain.KindCharacter, issues)
		}
		formSchema = synthesized.FormSchema
	}
	if err := schema.CheckData(formSchema, character.Data); err != nil {
		issues = append(issues, Issue{Code: apperrors.CodeMalformedInput, Path: "data", Message: err.Error()})
	}
	if len(issues) > 0 {
		return reject(domain.KindCharacter, issues)
	}
	return accept(character, nil)
}

// CheckReferences reports duplicate attribute names and skill or save
// references to undeclared attributes.
func CheckReferences(system domain.System) []Issue {
	var issues []Issue
	declared := make(map[string]struct{}, len(system.Attributes))
	names := make([]string, 0, len(system.Attributes))
	for i, attr := range system.Attributes {
		if _, ok := declared[attr.Name]; ok {
			issues = append(issues, Issue{
				Code:      apperrors.CodeReferentialWarning,
				Path:      fmt.Sprintf("attributes[%d].name", i),
				Message:   fmt.Sprintf("duplicate attribute %q", attr.Name),
				Reference: attr.Name,
			})
			continue
		}
		declared[attr.Name] = struct{}{}
		names = append(names, attr.Name)
	}

	check := func(path, ref string) {
		if _, ok := declared[ref]; ok {
			return
		}
		issues = append(issues, Issue{
			Code:       apperrors.CodeReferentialWarning,
			Path:       path,
			Message:    fmt.Sprintf("unknown attribute %q", ref),
			Reference:  ref,
			Suggestion: closest(ref, names),
		})
	}
	for i, skill := range system.Skills {
		check(fmt.Sprintf("skills[%d].baseAttribute", i), skill.BaseAttribute)
	}
	for i, save := range system.Saves {
		check(fmt.Sprintf("saves[%d].baseAttribute", i), save.BaseAttribute)
	}
	return issues
}

func reservedIssues(system domain.System) []Issue {
	clashes := schema.ReservedCollisions(system.Structure())
	if len(clashes) == 0 {
		return nil
	}
	issues := make([]Issue, 0, len(clashes))
	for _, name := range clashes {
		issues = append(issues, Issue{
			Code:      apperrors.CodeReservedKey,
			Path:      reservedPath(system, name),
			Message:   fmt.Sprintf("name %q is reserved by the character form", name),
			Reference: name,
		})
	}
	return issues
}

func reservedPath(system domain.System, name string) string {
	for i, attr := range system.Attributes {
		if attr.Name == name {
			return fmt.Sprintf("attributes[%d].name", i)
		}
	}
	for i, save := range system.Saves {
		if save.Name == name {
			return fmt.Sprintf("saves[%d].name", i)
		}
	}
	return ""
}

// closest returns the candidate within a small edit distance of ref, or "".
func closest(ref string, candidates []string) string {
	if ref == "" {
		return ""
	}
	target := strings.ToLower(ref)
	limit := len([]rune(target))/3 + 1
	best, bestDistance := "", limit+1
	for _, candidate := range candidates {
		distance := levenshtein.ComputeDistance(target, strings.ToLower(candidate))
		if distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best
}

// characterIssues reports data.name, data.class and data.level of the wrong
// type and skills or feats the system does not define.
func characterIssues(data domain.Value, system domain.System) []Issue {
	var issues []Issue
	typed := func(field string, want domain.ValueKind) {
		value, ok := data.Field(field)
		if !ok || value.Kind() == want {
			return
		}
		issues = append(issues, Issue{
			Code:    apperrors.CodeMalformedInput,
			Path:    "data." + field,
			Message: fmt.Sprintf("expected %s, got %s", want, value.Kind()),
		})
	}
	typed(schema.FieldName, domain.ValueString)
	typed(schema.FieldClass, domain.ValueString)
	typed(schema.FieldLevel, domain.ValueNumber)

	skills := make(map[string]struct{}, len(system.Skills))
	skillNames := make([]string, 0, len(system.Skills))
	for _, skill := range system.Skills {
		skills[skill.Name] = struct{}{}
		skillNames = append(skillNames, skill.Name)
	}
	if list, ok := fieldList(data, schema.FieldSkills); ok {
		for i, item := range list {
			nameValue, _ := item.Field("name")
			name, ok := nameValue.AsString()
			if !ok {
				continue
			}
			if _, known := skills[name]; !known {
				issues = append(issues, Issue{
					Code:       apperrors.CodeReferentialWarning,
					Path:       fmt.Sprintf("data.skills[%d].name", i),
					Message:    fmt.Sprintf("unknown skill %q", name),
					Reference:  name,
					Suggestion: closest(name, skillNames),
				})
			}
		}
	}

	feats := make(map[string]struct{}, len(system.Feats))
	featNames := make([]string, 0, len(system.Feats))
	for _, feat := range system.Feats {
		feats[feat.Name] = struct{}{}
		featNames = append(featNames, feat.Name)
	}
	if list, ok := fieldList(data, schema.FieldFeats); ok {
		for i, item := range list {
			name, ok := item.AsString()
			if !ok {
				continue
			}
			if _, known := feats[name]; !known {
				issues = append(issues, Issue{
					Code:       apperrors.CodeReferentialWarning,
					Path:       fmt.Sprintf("data.feats[%d]", i),
					Message:    fmt.Sprintf("unknown feat %q", name),
					Reference:  name,
					Suggestion: closest(name, featNames),
				})
			}
		}
	}
	return issues
}

func fieldList(data domain.Value, field string) ([]domain.Value, bool) {
	value, ok := data.Field(field)
	if !ok {
		return nil, false
	}
	return value.AsList()
}
