package systems

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls SystemService over a gRPC connection.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient creates a SystemService client.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func invoke[Req, Resp any](ctx context.Context, c *Client, method string, req Req, opts ...grpc.CallOption) (Resp, error) {
	var resp Resp
	in, err := encode(req)
	if err != nil {
		return resp, status.Errorf(codes.Internal, "encode request: %v", err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return resp, err
	}
	if err := decode(out, &resp); err != nil {
		return resp, status.Errorf(codes.Internal, "decode response: %v", err)
	}
	return resp, nil
}

func (c *Client) DeriveID(ctx context.Context, req DeriveIDRequest, opts ...grpc.CallOption) (DeriveIDResponse, error) {
	return invoke[DeriveIDRequest, DeriveIDResponse](ctx, c, MethodDeriveID, req, opts...)
}

func (c *Client) SynthesizeSchemas(ctx context.Context, req SynthesizeSchemasRequest, opts ...grpc.CallOption) (SynthesizeSchemasResponse, error) {
	return invoke[SynthesizeSchemasRequest, SynthesizeSchemasResponse](ctx, c, MethodSynthesizeSchemas, req, opts...)
}

func (c *Client) ValidateImport(ctx context.Context, req ValidateImportRequest, opts ...grpc.CallOption) (ValidateImportResponse, error) {
	return invoke[ValidateImportRequest, ValidateImportResponse](ctx, c, MethodValidateImport, req, opts...)
}

func (c *Client) GroupByKey(ctx context.Context, req GroupByKeyRequest, opts ...grpc.CallOption) (GroupByKeyResponse, error) {
	return invoke[GroupByKeyRequest, GroupByKeyResponse](ctx, c, MethodGroupByKey, req, opts...)
}

func (c *Client) Modifier(ctx context.Context, req ModifierRequest, opts ...grpc.CallOption) (ModifierResponse, error) {
	return invoke[ModifierRequest, ModifierResponse](ctx, c, MethodModifier, req, opts...)
}

func (c *Client) CreateSystem(ctx context.Context, req CreateSystemRequest, opts ...grpc.CallOption) (SystemResponse, error) {
	return invoke[CreateSystemRequest, SystemResponse](ctx, c, MethodCreateSystem, req, opts...)
}

func (c *Client) UpdateSystem(ctx context.Context, req UpdateSystemRequest, opts ...grpc.CallOption) (SystemResponse, error) {
	return invoke[UpdateSystemRequest, SystemResponse](ctx, c, MethodUpdateSystem, req, opts...)
}

func (c *Client) GetSystem(ctx context.Context, req GetSystemRequest, opts ...grpc.CallOption) (SystemResponse, error) {
	return invoke[GetSystemRequest, SystemResponse](ctx, c, MethodGetSystem, req, opts...)
}

func (c *Client) ListSystems(ctx context.Context, req ListSystemsRequest, opts ...grpc.CallOption) (ListSystemsResponse, error) {
	return invoke[ListSystemsRequest, ListSystemsResponse](ctx, c, MethodListSystems, req, opts...)
}

func (c *Client) GroupSkills(ctx context.Context, req GroupSkillsRequest, opts ...grpc.CallOption) (GroupSkillsResponse, error) {
	return invoke[GroupSkillsRequest, GroupSkillsResponse](ctx, c, MethodGroupSkills, req, opts...)
}

func (c *Client) CreateCharacter(ctx context.Context, req CreateCharacterRequest, opts ...grpc.CallOption) (CharacterResponse, error) {
	return invoke[CreateCharacterRequest, CharacterResponse](ctx, c, MethodCreateCharacter, req, opts...)
}

func (c *Client) GetCharacter(ctx context.Context, req GetCharacterRequest, opts ...grpc.CallOption) (CharacterResponse, error) {
	return invoke[GetCharacterRequest, CharacterResponse](ctx, c, MethodGetCharacter, req, opts...)
}

func (c *Client) ListCharacters(ctx context.Context, req ListCharactersRequest, opts ...grpc.CallOption) (ListCharactersResponse, error) {
	return invoke[ListCharactersRequest, ListCharactersResponse](ctx, c, MethodListCharacters, req, opts...)
}

func (c *Client) ImportDocument(ctx context.Context, req ImportDocumentRequest, opts ...grpc.CallOption) (ImportDocumentResponse, error) {
	return invoke[ImportDocumentRequest, ImportDocumentResponse](ctx, c, MethodImportDocument, req, opts...)
}

func (c *Client) ExportDocument(ctx context.Context, req ExportDocumentRequest, opts ...grpc.CallOption) (ExportDocumentResponse, error) {
	return invoke[ExportDocumentRequest, ExportDocumentResponse](ctx, c, MethodExportDocument, req, opts...)
}

func (c *Client) BrowseLibrary(ctx context.Context, req BrowseLibraryRequest, opts ...grpc.CallOption) (BrowseLibraryResponse, error) {
	return invoke[BrowseLibraryRequest, BrowseLibraryResponse](ctx, c, MethodBrowseLibrary, req, opts...)
}

func (c *Client) SuggestLibrary(ctx context.Context, req SuggestLibraryRequest, opts ...grpc.CallOption) (SuggestLibraryResponse, error) {
	return invoke[SuggestLibraryRequest, SuggestLibraryResponse](ctx, c, MethodSuggestLibrary, req, opts...)
}
