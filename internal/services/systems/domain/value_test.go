package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseValueNestedStructures(t *testing.T) {
	raw := []byte(`{"name":"Mira","level":3,"tags":["a",{"deep":[true,null]}],"hp":{"max":12.5}}`)

	v, err := ParseValue(raw)
	if err != nil {
		t.Fatalf("parse value: %v", err)
	}
	if v.Kind() != ValueObject {
		t.Fatalf("kind = %s, want object", v.Kind())
	}
	if got := v.Keys(); !reflect.DeepEqual(got, []string{"hp", "level", "name", "tags"}) {
		t.Fatalf("keys = %v", got)
	}
	name, _ := v.Field("name")
	if s, ok := name.AsString(); !ok || s != "Mira" {
		t.Fatalf("name = %v", name)
	}
	level, _ := v.Field("level")
	if n, ok := level.AsNumber(); !ok || n.String() != "3" {
		t.Fatalf("level = %v", level)
	}
	tags, _ := v.Field("tags")
	items, ok := tags.AsList()
	if !ok || len(items) != 2 {
		t.Fatalf("tags = %v", tags)
	}
	deep, _ := items[1].Field("deep")
	deepItems, _ := deep.AsList()
	if b, ok := deepItems[0].AsBool(); !ok || !b {
		t.Fatalf("deep[0] = %v", deepItems[0])
	}
	if !deepItems[1].IsNull() {
		t.Fatalf("deep[1] = %v, want null", deepItems[1])
	}
}

func TestParseValueRejectsInvalidJSON(t *testing.T) {
	for _, raw := range []string{"", "{", "nope", "\"a\xffb\""} {
		if _, err := ParseValue([]byte(raw)); err == nil {
			t.Errorf("ParseValue(%q) expected error", raw)
		}
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	original := Object(map[string]Value{
		"name":   String("Mira"),
		"level":  Int(2),
		"skills": List(Object(map[string]Value{"name": String("Stealth"), "value": Number("1.5")})),
		"feats":  List(),
		"notes":  Null(),
		"alive":  Bool(true),
	})

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Value
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Equal(original) {
		t.Fatalf("decoded %s differs from original", data)
	}
	if !reflect.DeepEqual(decoded, original) {
		t.Fatalf("decoded value not structurally equal: %#v", decoded)
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{name: "nulls", a: Null(), b: Value{}, want: true},
		{name: "different kinds", a: String("1"), b: Int(1), want: false},
		{name: "different numbers", a: Int(1), b: Int(2), want: false},
		{name: "list order matters", a: List(Int(1), Int(2)), b: List(Int(2), Int(1)), want: false},
		{name: "objects", a: Object(map[string]Value{"a": Bool(true)}), b: Object(map[string]Value{"a": Bool(true)}), want: true},
		{name: "object missing key", a: Object(map[string]Value{"a": Null()}), b: Object(map[string]Value{"b": Null()}), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Fatalf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueInterface(t *testing.T) {
	v := Object(map[string]Value{
		"level": Int(3),
		"feats": List(String("Alert")),
	})
	want := map[string]any{
		"level": float64(3),
		"feats": []any{"Alert"},
	}
	if got := v.Interface(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Interface = %#v, want %#v", got, want)
	}
}
