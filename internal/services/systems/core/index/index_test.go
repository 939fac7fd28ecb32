package index

import (
	"reflect"
	"testing"

	"github.com/louisbranch/systemforge/internal/services/systems/domain"
)

func skillNames(skills []domain.Skill) []string {
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		names = append(names, s.Name)
	}
	return names
}

func TestSkillsByAttributeOrdering(t *testing.T) {
	system := domain.System{Skills: []domain.Skill{
		{Name: "Stealth", BaseAttribute: "Dexterity"},
		{Name: "Lore", BaseAttribute: "Intelligence"},
		{Name: "Sneak", BaseAttribute: "Dexterity"},
	}}

	groups := SkillsByAttribute(system)
	if got := groups.Keys(); !reflect.DeepEqual(got, []string{"Dexterity", "Intelligence"}) {
		t.Fatalf("keys = %v", got)
	}
	dex, _ := groups.Get("Dexterity")
	if got := skillNames(dex); !reflect.DeepEqual(got, []string{"Stealth", "Sneak"}) {
		t.Fatalf("Dexterity = %v", got)
	}
	intel, _ := groups.Get("Intelligence")
	if got := skillNames(intel); !reflect.DeepEqual(got, []string{"Lore"}) {
		t.Fatalf("Intelligence = %v", got)
	}
	if groups.Len() != 3 {
		t.Fatalf("expected every skill grouped once, got %d", groups.Len())
	}
}

func TestGroupByUnknownKeysCreateGroups(t *testing.T) {
	system := domain.System{
		Attributes: []domain.Attribute{{Name: "Might"}},
		Saves: []domain.Save{
			{Name: "Fortitude", BaseAttribute: "Might"},
			{Name: "Luck", BaseAttribute: ""},
			{Name: "Will", BaseAttribute: "Spirit"},
		},
	}
	groups := SavesByAttribute(system)
	if got := groups.Keys(); !reflect.DeepEqual(got, []string{"Might", "", "Spirit"}) {
		t.Fatalf("keys = %v", got)
	}
	if _, ok := groups.Get("Missing"); ok {
		t.Fatal("unexpected group")
	}
}

func TestGroupByEmpty(t *testing.T) {
	groups := GroupBy([]int(nil), func(int) string { return "" })
	if len(groups) != 0 || groups.Len() != 0 {
		t.Fatalf("expected no groups, got %v", groups)
	}
}

func TestLibraryByCategory(t *testing.T) {
	entries := []domain.LibraryEntry{
		{Name: "Acrobatics", Category: "Physical", Description: "Tumbling and balance"},
		{Name: "Arcana", Category: "Knowledge", Description: "Magical lore"},
		{Name: "Athletics", Category: "Physical", Description: "Climbing, jumping"},
		{Name: "History", Category: "Knowledge", Description: "Past events and LORE of kingdoms"},
		{Name: "Ánimo", Category: "Social", Description: "Spirit"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   map[string][]string
		keys   []string
	}{
		{
			name:   "no filter",
			filter: Filter{},
			keys:   []string{"Physical", "Knowledge", "Social"},
		},
		{
			name:   "query over description ignores case",
			filter: Filter{Query: "lore"},
			keys:   []string{"Knowledge"},
			want:   map[string][]string{"Knowledge": {"Arcana", "History"}},
		},
		{
			name:   "query and category must both match",
			filter: Filter{Query: "a", Category: "Physical"},
			keys:   []string{"Physical"},
			want:   map[string][]string{"Physical": {"Acrobatics", "Athletics"}},
		},
		{
			name:   "category is exact",
			filter: Filter{Category: "physical"},
			keys:   []string{},
		},
		{
			name:   "query folds case of non-ascii",
			filter: Filter{Query: "ÁNI"},
			keys:   []string{"Social"},
		},
		{
			name:   "no match",
			filter: Filter{Query: "zzz"},
			keys:   []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			groups := LibraryByCategory(entries, tc.filter)
			if got := groups.Keys(); !reflect.DeepEqual(got, tc.keys) {
				t.Fatalf("keys = %v, want %v", got, tc.keys)
			}
			for key, names := range tc.want {
				items, _ := groups.Get(key)
				got := make([]string, 0, len(items))
				for _, item := range items {
					got = append(got, item.Name)
				}
				if !reflect.DeepEqual(got, names) {
					t.Fatalf("%s = %v, want %v", key, got, names)
				}
			}
		})
	}
}

func TestByField(t *testing.T) {
	item := func(name, attr string) domain.Value {
		return domain.Object(map[string]domain.Value{
			"name":          domain.String(name),
			"baseAttribute": domain.String(attr),
		})
	}
	items := []domain.Value{
		item("Stealth", "Dexterity"),
		item("Lore", "Intelligence"),
		item("Sneak", "Dexterity"),
		domain.Int(4),
	}

	groups := ByField(items, "baseAttribute", Filter{})
	if got := groups.Keys(); !reflect.DeepEqual(got, []string{"Dexterity", "Intelligence", ""}) {
		t.Fatalf("keys = %v", got)
	}

	filtered := ByField(items, "baseAttribute", Filter{Query: "sn", Category: "Dexterity"})
	dex, _ := filtered.Get("Dexterity")
	if len(filtered) != 1 || len(dex) != 1 {
		t.Fatalf("unexpected groups: %v", filtered)
	}
	if name, _ := dex[0].Field("name"); !name.Equal(domain.String("Sneak")) {
		t.Fatalf("unexpected item: %v", dex[0])
	}
}
