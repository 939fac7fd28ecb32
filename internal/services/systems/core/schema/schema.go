// Package schema synthesizes the character-creation form for a System: a
// JSON Schema describing the character data payload and a parallel UI schema
// with widget, grouping and label hints.
//
// Synthesis is pure: the same structure always serializes to the same bytes.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
)

// Top-level keys of every character payload.
const (
	FieldName       = "name"
	FieldClass      = "class"
	FieldLevel      = "level"
	FieldAttributes = "attributes"
	FieldSaves      = "saves"
	FieldSkills     = "skills"
	FieldFeats      = "feats"
	FieldBackstory  = "backstory"
)

// Order is the display order of top-level fields.
var Order = []string{
	FieldName,
	FieldClass,
	FieldLevel,
	FieldAttributes,
	FieldSaves,
	FieldSkills,
	FieldFeats,
	FieldBackstory,
}

// Required lists the top-level fields every character must carry.
var Required = []string{FieldName, FieldClass, FieldLevel}

const (
	defaultLevel = "1"
	defaultScore = "0"
	widgetNumber = "updown"
	uiPrefix     = "ui:"
)

// Synthesize builds and serializes the data and UI schemas for structure.
// Empty attribute or save lists yield empty groups, not errors.
func Synthesize(structure domain.Structure) (domain.Schemas, error) {
	form, err := json.Marshal(DataSchema(structure))
	if err != nil {
		return domain.Schemas{}, fmt.Errorf("marshal form schema: %w", err)
	}
	ui, err := json.Marshal(UISchema(structure))
	if err != nil {
		return domain.Schemas{}, fmt.Errorf("marshal ui schema: %w", err)
	}
	return domain.Schemas{FormSchema: string(form), UISchema: string(ui)}, nil
}

// DataSchema returns the JSON Schema for a character payload.
func DataSchema(structure domain.Structure) *jsonschema.Schema {
	attributes := make([]scoreField, 0, len(structure.Attributes))
	for _, attr := range structure.Attributes {
		attributes = append(attributes, scoreField{name: attr.Name, description: attr.Description})
	}
	saves := make([]scoreField, 0, len(structure.Saves))
	for _, save := range structure.Saves {
		saves = append(saves, scoreField{name: save.Name, description: "Based on " + save.BaseAttribute})
	}

	return &jsonschema.Schema{
		Type:     "object",
		Required: append([]string(nil), Required...),
		Properties: map[string]*jsonschema.Schema{
			FieldName:       {Type: "string", Title: "Name"},
			FieldClass:      {Type: "string", Title: "Class"},
			FieldLevel:      {Type: "number", Title: "Level", Default: json.RawMessage(defaultLevel)},
			FieldAttributes: scoreGroup("Attributes", attributes),
			FieldSaves:      scoreGroup("Saves", saves),
			FieldSkills: {
				Type:    "array",
				Title:   "Skills",
				Default: json.RawMessage("[]"),
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":  {Type: "string", Title: "Skill"},
						"value": {Type: "number", Title: "Value", Default: json.RawMessage(defaultScore)},
					},
				},
			},
			FieldFeats: {
				Type:    "array",
				Title:   "Feats",
				Default: json.RawMessage("[]"),
				Items:   &jsonschema.Schema{Type: "string"},
			},
			FieldBackstory: {Type: "string", Title: "Backstory", Default: json.RawMessage(`""`)},
		},
	}
}

type scoreField struct {
	name        string
	description string
}

func scoreGroup(title string, fields []scoreField) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(fields))
	for _, field := range fields {
		properties[field.name] = &jsonschema.Schema{
			Type:        "number",
			Title:       field.name,
			Description: field.description,
			Default:     json.RawMessage(defaultScore),
		}
	}
	return &jsonschema.Schema{Type: "object", Title: title, Properties: properties}
}

// UISchema returns rendering hints keyed like the data schema.
func UISchema(structure domain.Structure) map[string]any {
	attributes := make([]scoreField, 0, len(structure.Attributes))
	for _, attr := range structure.Attributes {
		attributes = append(attributes, scoreField{name: attr.Name, description: attr.Description})
	}
	saves := make([]scoreField, 0, len(structure.Saves))
	for _, save := range structure.Saves {
		saves = append(saves, scoreField{name: save.Name, description: "Based on " + save.BaseAttribute})
	}

	skills := map[string]any{
		"ui:options": map[string]any{"orderable": false},
		"items": map[string]any{
			"value": map[string]any{"ui:widget": widgetNumber},
		},
	}
	if names := skillNames(structure.Skills); len(names) > 0 {
		skills["ui:options"] = map[string]any{"orderable": false, "suggestions": names}
	}
	feats := map[string]any{
		"ui:options": map[string]any{"orderable": false},
	}
	if names := featNames(structure.Feats); len(names) > 0 {
		feats["ui:options"] = map[string]any{"orderable": false, "suggestions": names}
	}

	return map[string]any{
		"ui:order":      Order,
		FieldName:       map[string]any{"ui:autofocus": true},
		FieldLevel:      map[string]any{"ui:widget": widgetNumber},
		FieldAttributes: uiGroup("Attributes", attributes),
		FieldSaves:      uiGroup("Saves", saves),
		FieldSkills:     skills,
		FieldFeats:      feats,
		FieldBackstory:  map[string]any{"ui:widget": "textarea", "ui:options": map[string]any{"rows": 5}},
	}
}

func uiGroup(title string, fields []scoreField) map[string]any {
	order := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	group := map[string]any{"ui:title": title}
	for _, field := range fields {
		if _, ok := seen[field.name]; ok {
			continue
		}
		seen[field.name] = struct{}{}
		order = append(order, field.name)
		hint := map[string]any{
			"ui:widget": widgetNumber,
			"ui:title":  field.name,
		}
		if field.description != "" {
			hint["ui:description"] = field.description
		}
		group[field.name] = hint
	}
	group["ui:order"] = order
	return group
}

func skillNames(skills []domain.Skill) []string {
	names := make([]string, 0, len(skills))
	for _, skill := range skills {
		names = append(names, skill.Name)
	}
	return names
}

func featNames(feats []domain.Feat) []string {
	names := make([]string, 0, len(feats))
	for _, feat := range feats {
		names = append(names, feat.Name)
	}
	return names
}

// ReservedCollisions returns the attribute and save names that clash with a
// top-level payload key or a UI hint key. Synthesis still succeeds for them.
func ReservedCollisions(structure domain.Structure) []string {
	reserved := make(map[string]struct{}, len(Order))
	for _, key := range Order {
		reserved[key] = struct{}{}
	}
	var clashes []string
	check := func(name string) {
		if _, ok := reserved[name]; ok || strings.HasPrefix(name, uiPrefix) {
			clashes = append(clashes, name)
		}
	}
	for _, attr := range structure.Attributes {
		check(attr.Name)
	}
	for _, save := range structure.Saves {
		check(save.Name)
	}
	return clashes
}
