package validate

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	apperrors "github.com/louisbranch/systemforge/internal/platform/errors"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"github.com/tidwall/gjson"
)

var systemFields = map[string]struct{}{
	"systemId":    {},
	"systemName":  {},
	"description": {},
	"attributes":  {},
	"skills":      {},
	"feats":       {},
	"saves":       {},
	"customRules": {},
	"schemas":     {},
}

var characterFields = map[string]struct{}{
	"characterId": {},
	"systemId":    {},
	"data":        {},
}

// parser walks a gjson document and collects every shape problem instead of
// stopping at the first one.
type parser struct {
	issues []Issue
}

func (p *parser) malformed(path, format string, args ...any) {
	p.issues = append(p.issues, Issue{
		Code:    apperrors.CodeMalformedInput,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *parser) root(raw []byte) (gjson.Result, bool) {
	if !gjson.ValidBytes(raw) {
		p.malformed("", "invalid JSON")
		return gjson.Result{}, false
	}
	if !utf8.Valid(raw) {
		p.malformed("", "document is not valid UTF-8")
		return gjson.Result{}, false
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		p.malformed("", "expected object, got %s", typeName(root))
		return gjson.Result{}, false
	}
	return root, true
}

func (p *parser) requireString(obj gjson.Result, parent, key string) string {
	path := join(parent, key)
	value := obj.Get(key)
	if !value.Exists() {
		p.malformed(path, "missing required field")
		return ""
	}
	if value.Type != gjson.String {
		p.malformed(path, "expected string, got %s", typeName(value))
		return ""
	}
	return value.Str
}

func (p *parser) optionalString(obj gjson.Result, parent, key string) string {
	value := obj.Get(key)
	if !value.Exists() || value.Type == gjson.Null {
		return ""
	}
	if value.Type != gjson.String {
		p.malformed(join(parent, key), "expected string, got %s", typeName(value))
		return ""
	}
	return value.Str
}

func (p *parser) requireObject(obj gjson.Result, parent, key string) (gjson.Result, bool) {
	path := join(parent, key)
	value := obj.Get(key)
	if !value.Exists() {
		p.malformed(path, "missing required field")
		return gjson.Result{}, false
	}
	if !value.IsObject() {
		p.malformed(path, "expected object, got %s", typeName(value))
		return gjson.Result{}, false
	}
	return value, true
}

// list visits every element of an array field. Elements that are not objects
// are reported and skipped.
func (p *parser) list(obj gjson.Result, key string, required bool, visit func(item gjson.Result, path string)) bool {
	value := obj.Get(key)
	if !value.Exists() || (!required && value.Type == gjson.Null) {
		if required {
			p.malformed(key, "missing required field")
		}
		return false
	}
	if !value.IsArray() {
		p.malformed(key, "expected list, got %s", typeName(value))
		return false
	}
	for i, item := range value.Array() {
		path := fmt.Sprintf("%s[%d]", key, i)
		if !item.IsObject() {
			p.malformed(path, "expected object, got %s", typeName(item))
			continue
		}
		visit(item, path)
	}
	return true
}

func parseSystem(raw []byte) (domain.System, []Issue) {
	p := &parser{}
	root, ok := p.root(raw)
	if !ok {
		return domain.System{}, p.issues
	}

	system := domain.System{
		SystemID:    p.requireString(root, "", "systemId"),
		SystemName:  p.requireString(root, "", "systemName"),
		Description: p.requireString(root, "", "description"),
		Attributes:  []domain.Attribute{},
		Skills:      []domain.Skill{},
		Feats:       []domain.Feat{},
		Saves:       []domain.Save{},
	}
	p.list(root, "attributes", true, func(item gjson.Result, path string) {
		system.Attributes = append(system.Attributes, domain.Attribute{
			Name:        p.requireString(item, path, "name"),
			Description: p.requireString(item, path, "description"),
		})
	})
	p.list(root, "skills", true, func(item gjson.Result, path string) {
		system.Skills = append(system.Skills, domain.Skill{
			Name:          p.requireString(item, path, "name"),
			BaseAttribute: p.requireString(item, path, "baseAttribute"),
		})
	})
	p.list(root, "feats", true, func(item gjson.Result, path string) {
		system.Feats = append(system.Feats, domain.Feat{
			Name:          p.requireString(item, path, "name"),
			Description:   p.requireString(item, path, "description"),
			Prerequisites: p.requireString(item, path, "prerequisites"),
			Effect:        p.optionalString(item, path, "effect"),
		})
	})
	p.list(root, "saves", true, func(item gjson.Result, path string) {
		system.Saves = append(system.Saves, domain.Save{
			Name:          p.requireString(item, path, "name"),
			BaseAttribute: p.requireString(item, path, "baseAttribute"),
		})
	})
	p.list(root, "customRules", false, func(item gjson.Result, path string) {
		system.CustomRules = append(system.CustomRules, domain.CustomRule{
			Title:       p.requireString(item, path, "title"),
			Description: p.requireString(item, path, "description"),
		})
	})
	if schemas, ok := p.requireObject(root, "", "schemas"); ok {
		system.Schemas = domain.Schemas{
			FormSchema: p.requireString(schemas, "schemas", "formSchema"),
			UISchema:   p.requireString(schemas, "schemas", "uiSchema"),
		}
	}
	system.Extra = extraFields(root, systemFields)
	return system, p.issues
}

func parseCharacter(raw []byte) (domain.Character, []Issue) {
	p := &parser{}
	root, ok := p.root(raw)
	if !ok {
		return domain.Character{}, p.issues
	}

	character := domain.Character{
		CharacterID: p.requireString(root, "", "characterId"),
		SystemID:    p.requireString(root, "", "systemId"),
	}
	data := root.Get("data")
	if !data.Exists() {
		p.malformed("data", "missing required field")
	} else {
		character.Data = domain.ValueFromResult(data)
	}
	character.Extra = extraFields(root, characterFields)
	return character, p.issues
}

// extraFields keeps unknown top-level members verbatim.
func extraFields(root gjson.Result, known map[string]struct{}) map[string]json.RawMessage {
	var extra map[string]json.RawMessage
	root.ForEach(func(key, value gjson.Result) bool {
		if _, ok := known[key.Str]; ok {
			return true
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[key.Str] = json.RawMessage(value.Raw)
		return true
	})
	return extra
}

func join(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func typeName(value gjson.Result) string {
	switch value.Type {
	case gjson.Null:
		return "null"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	default:
		if value.IsArray() {
			return "list"
		}
		return "object"
	}
}
