package systems

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/systemforge/internal/platform/id"
	"github.com/louisbranch/systemforge/internal/services/systems/core/validate"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"github.com/louisbranch/systemforge/internal/services/systems/library"
	"github.com/louisbranch/systemforge/internal/services/systems/service"
	"github.com/louisbranch/systemforge/internal/services/systems/storage/cache"
	"github.com/louisbranch/systemforge/internal/services/systems/storage/sqlite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
)

func newTestClient(t *testing.T, ids ...string) *Client {
	t.Helper()

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "systems.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	cached, err := cache.NewSystemStore(store, 8)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	lib, err := library.Default()
	if err != nil {
		t.Fatalf("library: %v", err)
	}
	app, err := service.New(service.Deps{
		Systems:    cached,
		Characters: store,
		Library:    lib,
		Validator:  validate.New(validate.DefaultPolicy()),
		IDs:        id.Sequence(ids...),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterSystemServiceServer(server, NewService(app))
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func starWarsDraft() SystemDraft {
	return SystemDraft{
		SystemName:  "Star Wars",
		Description: "A galaxy far away",
		Attributes: []domain.Attribute{
			{Name: "Dexterity", Description: "Agility"},
			{Name: "Intelligence", Description: "Reason"},
		},
		Skills: []domain.Skill{
			{Name: "Stealth", BaseAttribute: "Dexterity"},
			{Name: "Lore", BaseAttribute: "Intelligence"},
		},
		Feats: []domain.Feat{{Name: "Alert"}},
		Saves: []domain.Save{{Name: "Reflex", BaseAttribute: "Dexterity"}},
	}
}

func requireStatus(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if got := status.Code(err); got != want {
		t.Fatalf("code = %v, want %v (err: %v)", got, want, err)
	}
}

func TestDeriveID(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	resp, err := client.DeriveID(ctx, DeriveIDRequest{Name: "Star Wars"})
	if err != nil {
		t.Fatalf("derive id: %v", err)
	}
	if resp.SystemID != "star-wars" {
		t.Fatalf("system id = %q, want star-wars", resp.SystemID)
	}

	_, err = client.DeriveID(ctx, DeriveIDRequest{Name: "!!!"})
	requireStatus(t, err, codes.InvalidArgument)
}

func TestModifier(t *testing.T) {
	client := newTestClient(t)
	tests := []struct {
		score int
		mod   int
		label string
	}{
		{score: 10, mod: 0, label: "+0"},
		{score: 15, mod: 2, label: "+2"},
		{score: 9, mod: -1, label: "-1"},
		{score: 1, mod: -5, label: "-5"},
	}
	for _, tt := range tests {
		resp, err := client.Modifier(context.Background(), ModifierRequest{Score: tt.score})
		if err != nil {
			t.Fatalf("modifier(%d): %v", tt.score, err)
		}
		if resp.Modifier != tt.mod || resp.Label != tt.label {
			t.Fatalf("modifier(%d) = %d %q, want %d %q", tt.score, resp.Modifier, resp.Label, tt.mod, tt.label)
		}
	}
}

func TestSynthesizeSchemasReportsCollisions(t *testing.T) {
	client := newTestClient(t)
	resp, err := client.SynthesizeSchemas(context.Background(), SynthesizeSchemasRequest{
		Attributes: []domain.Attribute{{Name: "Strength"}, {Name: "level"}},
	})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	var form map[string]any
	if err := json.Unmarshal([]byte(resp.Schemas.FormSchema), &form); err != nil {
		t.Fatalf("form schema: %v", err)
	}
	if form["type"] != "object" {
		t.Fatalf("form type = %v, want object", form["type"])
	}
	if len(resp.Collisions) != 1 || resp.Collisions[0] != "level" {
		t.Fatalf("collisions = %v, want [level]", resp.Collisions)
	}
}

func TestValidateImport(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	accepted, err := client.ValidateImport(ctx, ValidateImportRequest{
		Document: `{"systemId":"x","systemName":"X","description":"","attributes":[],"skills":[{"name":"Lore","baseAttribute":"Wisdom"}],"feats":[],"saves":[],"schemas":{"formSchema":"","uiSchema":""}}`,
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !accepted.Accepted || accepted.Kind != "system" {
		t.Fatalf("response = %+v, want accepted system", accepted)
	}
	if len(accepted.Warnings) != 1 || accepted.Warnings[0].Code != "REFERENTIAL_WARNING" {
		t.Fatalf("warnings = %+v", accepted.Warnings)
	}
	if len(accepted.Document) == 0 {
		t.Fatal("expected normalized document")
	}

	rejected, err := client.ValidateImport(ctx, ValidateImportRequest{Kind: "character", Document: `{"systemId":"x"}`})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if rejected.Accepted || len(rejected.Issues) == 0 {
		t.Fatalf("response = %+v, want rejection", rejected)
	}

	_, err = client.ValidateImport(ctx, ValidateImportRequest{Kind: "campaign", Document: `{}`})
	requireStatus(t, err, codes.InvalidArgument)
}

func TestGroupByKey(t *testing.T) {
	client := newTestClient(t)
	resp, err := client.GroupByKey(context.Background(), GroupByKeyRequest{
		Items: []domain.Value{
			domain.Object(map[string]domain.Value{"name": domain.String("Stealth"), "attr": domain.String("Dexterity")}),
			domain.Object(map[string]domain.Value{"name": domain.String("Lore"), "attr": domain.String("Intelligence")}),
			domain.Object(map[string]domain.Value{"name": domain.String("Sneak"), "attr": domain.String("Dexterity")}),
		},
		KeyField: "attr",
	})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if len(resp.Groups) != 2 || resp.Groups[0].Key != "Dexterity" || len(resp.Groups[0].Items) != 2 {
		t.Fatalf("groups = %+v", resp.Groups)
	}

	_, err = client.GroupByKey(context.Background(), GroupByKeyRequest{})
	requireStatus(t, err, codes.InvalidArgument)
}

func TestSystemLifecycle(t *testing.T) {
	client := newTestClient(t, "char-1")
	ctx := context.Background()

	created, err := client.CreateSystem(ctx, CreateSystemRequest{System: starWarsDraft()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.System.SystemID != "star-wars" {
		t.Fatalf("system id = %q", created.System.SystemID)
	}
	if created.System.Schemas.FormSchema == "" {
		t.Fatal("expected synthesized schemas")
	}

	_, err = client.CreateSystem(ctx, CreateSystemRequest{System: starWarsDraft()})
	requireStatus(t, err, codes.AlreadyExists)

	draft := starWarsDraft()
	draft.Description = "Updated"
	updated, err := client.UpdateSystem(ctx, UpdateSystemRequest{SystemID: "star-wars", System: draft})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.System.Description != "Updated" {
		t.Fatalf("description = %q", updated.System.Description)
	}

	got, err := client.GetSystem(ctx, GetSystemRequest{SystemID: "star-wars"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.System.Description != "Updated" {
		t.Fatalf("description = %q", got.System.Description)
	}

	list, err := client.ListSystems(ctx, ListSystemsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Systems) != 1 || list.Systems[0].SystemID != "star-wars" {
		t.Fatalf("systems = %+v", list.Systems)
	}

	groups, err := client.GroupSkills(ctx, GroupSkillsRequest{SystemID: "star-wars"})
	if err != nil {
		t.Fatalf("group skills: %v", err)
	}
	if len(groups.Groups) != 2 || groups.Groups[0].Key != "Dexterity" {
		t.Fatalf("groups = %+v", groups.Groups)
	}
	if len(groups.SaveGroups) != 1 || groups.SaveGroups[0].Key != "Dexterity" || groups.SaveGroups[0].Items[0].Name != "Reflex" {
		t.Fatalf("save groups = %+v", groups.SaveGroups)
	}

	character, err := client.CreateCharacter(ctx, CreateCharacterRequest{
		SystemID: "star-wars",
		Data:     domain.Object(map[string]domain.Value{"name": domain.String("Rey"), "level": domain.Int(1)}),
	})
	if err != nil {
		t.Fatalf("create character: %v", err)
	}
	if character.Character.CharacterID != "char-1" {
		t.Fatalf("character id = %q", character.Character.CharacterID)
	}

	characters, err := client.ListCharacters(ctx, ListCharactersRequest{SystemID: "star-wars"})
	if err != nil {
		t.Fatalf("list characters: %v", err)
	}
	if len(characters.Characters) != 1 {
		t.Fatalf("characters = %+v", characters.Characters)
	}

	exported, err := client.ExportDocument(ctx, ExportDocumentRequest{Kind: "character", ID: "char-1"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(exported.Document, `"characterId": "char-1"`) {
		t.Fatalf("document = %s", exported.Document)
	}
}

func TestErrorMapping(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.GetSystem(ctx, GetSystemRequest{SystemID: "missing"})
	requireStatus(t, err, codes.NotFound)

	_, err = client.CreateCharacter(ctx, CreateCharacterRequest{SystemID: "missing", Data: domain.Object(nil)})
	requireStatus(t, err, codes.FailedPrecondition)

	_, err = client.UpdateSystem(ctx, UpdateSystemRequest{})
	requireStatus(t, err, codes.InvalidArgument)

	_, err = client.ExportDocument(ctx, ExportDocumentRequest{Kind: "", ID: "x"})
	requireStatus(t, err, codes.InvalidArgument)

	_, err = client.ListSystems(ctx, ListSystemsRequest{PageToken: "%%%"})
	requireStatus(t, err, codes.InvalidArgument)
}

func TestErrorDetailsUseCallerLocale(t *testing.T) {
	client := newTestClient(t)
	ctx := metadata.AppendToOutgoingContext(context.Background(), "accept-language", "pt-BR,en;q=0.5")

	_, err := client.GetSystem(ctx, GetSystemRequest{SystemID: "missing"})
	requireStatus(t, err, codes.NotFound)
	st, _ := status.FromError(err)

	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	if info == nil || info.Reason != "NOT_FOUND" {
		t.Fatalf("error info = %v, want NOT_FOUND", info)
	}
	if localized == nil || localized.Locale != "pt-BR" {
		t.Fatalf("localized message = %v, want pt-BR", localized)
	}
	if !strings.Contains(localized.Message, "não foi encontrado") {
		t.Fatalf("message = %q", localized.Message)
	}
}

func TestImportDocument(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	resp, err := client.ImportDocument(ctx, ImportDocumentRequest{
		Document: `{"systemId":"","systemName":"Call of Cthulhu","description":"","attributes":[{"name":"Power","description":""}],"skills":[],"feats":[],"saves":[],"schemas":{"formSchema":"","uiSchema":""},"edition":7}`,
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if resp.Kind != "system" || resp.ID != "call-of-cthulhu" {
		t.Fatalf("response = %+v", resp)
	}

	exported, err := client.ExportDocument(ctx, ExportDocumentRequest{Kind: "system", ID: resp.ID})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(exported.Document, `"edition": 7`) {
		t.Fatalf("pass-through field lost: %s", exported.Document)
	}

	_, err = client.ImportDocument(ctx, ImportDocumentRequest{Kind: "system", Document: `{"systemName":1}`})
	requireStatus(t, err, codes.InvalidArgument)
}

func TestLibrary(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	browse, err := client.BrowseLibrary(ctx, BrowseLibraryRequest{Kind: "feats", Filter: `category = "Combat"`})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(browse.Groups) != 1 || browse.Groups[0].Key != "Combat" {
		t.Fatalf("groups = %+v", browse.Groups)
	}

	suggest, err := client.SuggestLibrary(ctx, SuggestLibraryRequest{Kind: "feats", Query: "shrp", Limit: 3})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(suggest.Entries) == 0 || suggest.Entries[0].Name != "Sharpshooter" {
		t.Fatalf("entries = %+v", suggest.Entries)
	}

	_, err = client.BrowseLibrary(ctx, BrowseLibraryRequest{Kind: "spells"})
	requireStatus(t, err, codes.NotFound)

	_, err = client.BrowseLibrary(ctx, BrowseLibraryRequest{Kind: "feats", Filter: "name = "})
	requireStatus(t, err, codes.InvalidArgument)
}
