package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueNumber
	ValueString
	ValueList
	ValueObject
)

var valueKindNames = [...]string{"null", "bool", "number", "string", "list", "object"}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "ValueKind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an explicitly typed JSON value. The zero Value is null.
type Value struct {
	kind   ValueKind
	b      bool
	num    json.Number
	str    string
	list   []Value
	object map[string]Value
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: ValueBool, b: b} }

// Number wraps a JSON number literal.
func Number(n json.Number) Value { return Value{kind: ValueNumber, num: n} }

// Int wraps an integer.
func Int(n int64) Value { return Number(json.Number(strconv.FormatInt(n, 10))) }

// String wraps a string.
func String(s string) Value { return Value{kind: ValueString, str: s} }

// List wraps an ordered list of values.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: ValueList, list: items}
}

// Object wraps a set of named values.
func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: ValueObject, object: fields}
}

// Kind reports the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == ValueNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == ValueBool }

// AsNumber returns the number literal held by v.
func (v Value) AsNumber() (json.Number, bool) { return v.num, v.kind == ValueNumber }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.str, v.kind == ValueString }

// AsList returns the items held by v.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == ValueList }

// Field returns the named member of an object value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != ValueObject {
		return Value{}, false
	}
	field, ok := v.object[name]
	return field, ok
}

// Keys returns object member names in sorted order.
func (v Value) Keys() []string {
	if v.kind != ValueObject {
		return nil
	}
	keys := make([]string, 0, len(v.object))
	for key := range v.object {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether v and other hold the same variant and contents.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueNull:
		return true
	case ValueBool:
		return v.b == other.b
	case ValueNumber:
		return v.num == other.num
	case ValueString:
		return v.str == other.str
	case ValueList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case ValueObject:
		if len(v.object) != len(other.object) {
			return false
		}
		for key, field := range v.object {
			otherField, ok := other.object[key]
			if !ok || !field.Equal(otherField) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts v into the generic form produced by encoding/json
// (map[string]any, []any, float64, string, bool, nil).
func (v Value) Interface() any {
	switch v.kind {
	case ValueBool:
		return v.b
	case ValueNumber:
		f, _ := v.num.Float64()
		return f
	case ValueString:
		return v.str
	case ValueList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case ValueObject:
		out := make(map[string]any, len(v.object))
		for key, field := range v.object {
			out[key] = field.Interface()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNull:
		return []byte("null"), nil
	case ValueBool:
		return json.Marshal(v.b)
	case ValueNumber:
		return []byte(v.num.String()), nil
	case ValueString:
		return json.Marshal(v.str)
	case ValueList:
		return json.Marshal(v.list)
	case ValueObject:
		return json.Marshal(v.object)
	default:
		return nil, fmt.Errorf("marshal value: unknown kind %d", v.kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseValue decodes raw JSON into a Value.
func ParseValue(raw []byte) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !gjson.ValidBytes(trimmed) {
		return Value{}, fmt.Errorf("parse value: invalid JSON")
	}
	if !utf8.Valid(trimmed) {
		return Value{}, fmt.Errorf("parse value: invalid UTF-8")
	}
	return ValueFromResult(gjson.ParseBytes(trimmed)), nil
}

// ValueFromResult converts an already-validated gjson result into a Value.
func ValueFromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		return Number(json.Number(r.Raw))
	case gjson.String:
		return String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			items := []Value{}
			r.ForEach(func(_, item gjson.Result) bool {
				items = append(items, ValueFromResult(item))
				return true
			})
			return List(items...)
		}
		fields := map[string]Value{}
		r.ForEach(func(key, field gjson.Result) bool {
			fields[key.String()] = ValueFromResult(field)
			return true
		})
		return Object(fields)
	default:
		return Null()
	}
}
