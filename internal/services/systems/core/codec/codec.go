// Package codec converts Systems and Characters to portable JSON documents and
// back. Import always goes through the validator.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/louisbranch/systemforge/internal/services/systems/core/validate"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const indent = "  "

// Export serializes entity as an indented JSON document. Pass-through fields
// captured at import are written back alongside the known fields.
func Export(entity domain.Entity) ([]byte, error) {
	var (
		doc   []byte
		extra map[string]json.RawMessage
		err   error
	)
	switch e := entity.(type) {
	case domain.System:
		doc, err = json.Marshal(normalizeSystem(e))
		extra = e.Extra
	case *domain.System:
		doc, err = json.Marshal(normalizeSystem(*e))
		extra = e.Extra
	case domain.Character:
		doc, err = json.Marshal(e)
		extra = e.Extra
	case *domain.Character:
		doc, err = json.Marshal(*e)
		extra = e.Extra
	default:
		return nil, fmt.Errorf("export: unsupported entity %T", entity)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", entity.EntityKind(), err)
	}

	doc, err = merge(doc, extra)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", entity.EntityKind(), err)
	}
	return pretty(doc)
}

// Import validates raw as a document of kind and returns the outcome.
func Import(kind domain.Kind, raw []byte, v *validate.Validator) validate.Result {
	return v.ValidateImport(kind, raw)
}

// ImportAuto detects the document kind before validating it.
func ImportAuto(raw []byte, v *validate.Validator) (domain.Kind, validate.Result) {
	kind, ok := DetectKind(raw)
	if !ok {
		kind = domain.KindSystem
	}
	return kind, v.ValidateImport(kind, raw)
}

// DetectKind infers the document shape from its identifying fields. A
// document with data and systemId but no systemName is a character missing
// its id.
func DetectKind(raw []byte) (domain.Kind, bool) {
	if !gjson.ValidBytes(raw) {
		return "", false
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return "", false
	}
	switch {
	case root.Get("characterId").Exists():
		return domain.KindCharacter, true
	case root.Get("systemName").Exists():
		return domain.KindSystem, true
	case root.Get("data").Exists() && root.Get("systemId").Exists():
		return domain.KindCharacter, true
	default:
		return "", false
	}
}

// normalizeSystem replaces nil lists with empty ones so the exported document
// satisfies the import contract.
func normalizeSystem(s domain.System) domain.System {
	if s.Attributes == nil {
		s.Attributes = []domain.Attribute{}
	}
	if s.Skills == nil {
		s.Skills = []domain.Skill{}
	}
	if s.Feats == nil {
		s.Feats = []domain.Feat{}
	}
	if s.Saves == nil {
		s.Saves = []domain.Save{}
	}
	return s
}

func pretty(doc []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", indent); err != nil {
		return nil, fmt.Errorf("format document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// merge writes the pass-through fields as one object and lays the known
// fields over it. Only known field names, which are plain identifiers, are
// used as sjson paths.
func merge(known []byte, extra map[string]json.RawMessage) ([]byte, error) {
	type field struct {
		key string
		raw string
	}
	var fields []field
	names := map[string]struct{}{}
	gjson.ParseBytes(known).ForEach(func(key, value gjson.Result) bool {
		fields = append(fields, field{key: key.Str, raw: value.Raw})
		names[key.Str] = struct{}{}
		return true
	})

	passThrough := make(map[string]json.RawMessage, len(extra))
	for key, value := range extra {
		// Known fields always win over pass-through values.
		if _, ok := names[key]; ok {
			continue
		}
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		passThrough[key] = value
	}
	if len(passThrough) == 0 {
		return known, nil
	}

	doc, err := json.Marshal(passThrough)
	if err != nil {
		return nil, fmt.Errorf("pass-through fields: %w", err)
	}
	for _, f := range fields {
		doc, err = sjson.SetRawBytes(doc, f.key, []byte(f.raw))
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.key, err)
		}
	}
	return doc, nil
}

var trusted = validate.New(validate.DefaultPolicy())

// DecodeSystem parses a System document written by Export, such as a stored
// record. Shape problems are returned as the rejection error.
func DecodeSystem(raw []byte) (domain.System, error) {
	result := trusted.ValidateSystem(raw)
	system, ok := result.System()
	if !ok {
		return domain.System{}, result.Err()
	}
	return system, nil
}

// DecodeCharacter parses a Character document written by Export.
func DecodeCharacter(raw []byte) (domain.Character, error) {
	result := trusted.ValidateCharacter(raw)
	character, ok := result.Character()
	if !ok {
		return domain.Character{}, result.Err()
	}
	return character, nil
}
