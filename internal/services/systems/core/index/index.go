// Package index groups flat skill, save and library lists for display.
package index

import (
	"strings"

	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"golang.org/x/text/cases"
)

// Group is the ordered list of items sharing one key.
type Group[T any] struct {
	Key   string `json:"key"`
	Items []T    `json:"items"`
}

// Groups keeps groups in first-seen key order.
type Groups[T any] []Group[T]

// GroupBy groups items by key. Group order follows the first occurrence of
// each key and items keep their input order within a group.
func GroupBy[T any](items []T, key func(T) string) Groups[T] {
	var groups Groups[T]
	positions := make(map[string]int)
	for _, item := range items {
		k := key(item)
		pos, ok := positions[k]
		if !ok {
			pos = len(groups)
			positions[k] = pos
			groups = append(groups, Group[T]{Key: k})
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}
	return groups
}

// Keys returns group keys in order.
func (g Groups[T]) Keys() []string {
	keys := make([]string, 0, len(g))
	for _, group := range g {
		keys = append(keys, group.Key)
	}
	return keys
}

// Get returns the items for key.
func (g Groups[T]) Get(key string) ([]T, bool) {
	for _, group := range g {
		if group.Key == key {
			return group.Items, true
		}
	}
	return nil, false
}

// Len returns the number of grouped items.
func (g Groups[T]) Len() int {
	total := 0
	for _, group := range g {
		total += len(group.Items)
	}
	return total
}

// Filter narrows a list before grouping. Query is a case-insensitive
// substring over name and description; Category must match exactly when set.
// An item must pass both.
type Filter struct {
	Query    string
	Category string
}

// IsZero reports whether the filter keeps everything.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Query) == "" && f.Category == ""
}

// Fields are the searchable parts of an item.
type Fields struct {
	Name        string
	Description string
	Category    string
}

// Apply returns the items passing f, in input order.
func Apply[T any](items []T, f Filter, fields func(T) Fields) []T {
	if f.IsZero() {
		return items
	}
	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(f.Query))
	out := make([]T, 0, len(items))
	for _, item := range items {
		itemFields := fields(item)
		if f.Category != "" && itemFields.Category != f.Category {
			continue
		}
		if query != "" &&
			!strings.Contains(fold.String(itemFields.Name), query) &&
			!strings.Contains(fold.String(itemFields.Description), query) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// SkillsByAttribute groups a system's skills by governing attribute.
func SkillsByAttribute(system domain.System) Groups[domain.Skill] {
	return GroupBy(system.Skills, func(s domain.Skill) string { return s.BaseAttribute })
}

// SavesByAttribute groups a system's saves by governing attribute.
func SavesByAttribute(system domain.System) Groups[domain.Save] {
	return GroupBy(system.Saves, func(s domain.Save) string { return s.BaseAttribute })
}

// LibraryByCategory filters library entries and groups them by category.
func LibraryByCategory(entries []domain.LibraryEntry, f Filter) Groups[domain.LibraryEntry] {
	kept := Apply(entries, f, func(e domain.LibraryEntry) Fields {
		return Fields{Name: e.Name, Description: e.Description, Category: e.Category}
	})
	return GroupBy(kept, func(e domain.LibraryEntry) string { return e.Category })
}

// ByField groups open objects by the string member keyField after filtering.
// The category filter is compared with keyField. Items without a string
// keyField are grouped under "".
func ByField(items []domain.Value, keyField string, f Filter) Groups[domain.Value] {
	str := func(item domain.Value, field string) string {
		value, _ := item.Field(field)
		s, _ := value.AsString()
		return s
	}
	kept := Apply(items, f, func(item domain.Value) Fields {
		return Fields{
			Name:        str(item, "name"),
			Description: str(item, "description"),
			Category:    str(item, keyField),
		}
	})
	return GroupBy(kept, func(item domain.Value) string { return str(item, keyField) })
}
