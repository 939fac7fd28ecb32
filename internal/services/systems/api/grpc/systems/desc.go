package systems

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "systems.v1.SystemService"

// Method names.
const (
	MethodDeriveID          = "DeriveID"
	MethodSynthesizeSchemas = "SynthesizeSchemas"
	MethodValidateImport    = "ValidateImport"
	MethodGroupByKey        = "GroupByKey"
	MethodModifier          = "Modifier"
	MethodCreateSystem      = "CreateSystem"
	MethodUpdateSystem      = "UpdateSystem"
	MethodGetSystem         = "GetSystem"
	MethodListSystems       = "ListSystems"
	MethodGroupSkills       = "GroupSkills"
	MethodCreateCharacter   = "CreateCharacter"
	MethodGetCharacter      = "GetCharacter"
	MethodListCharacters    = "ListCharacters"
	MethodImportDocument    = "ImportDocument"
	MethodExportDocument    = "ExportDocument"
	MethodBrowseLibrary     = "BrowseLibrary"
	MethodSuggestLibrary    = "SuggestLibrary"
)

// FullMethod returns the invoke path of method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type unaryCall func(Server, context.Context, *structpb.Struct) (*structpb.Struct, error)

// Server is the server API for SystemService.
type Server interface {
	DeriveID(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SynthesizeSchemas(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateImport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GroupByKey(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Modifier(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateSystem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateSystem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSystem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSystems(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GroupSkills(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCharacter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCharacter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCharacters(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ImportDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BrowseLibrary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SuggestLibrary(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes SystemService for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodDeriveID, Server.DeriveID),
		unary(MethodSynthesizeSchemas, Server.SynthesizeSchemas),
		unary(MethodValidateImport, Server.ValidateImport),
		unary(MethodGroupByKey, Server.GroupByKey),
		unary(MethodModifier, Server.Modifier),
		unary(MethodCreateSystem, Server.CreateSystem),
		unary(MethodUpdateSystem, Server.UpdateSystem),
		unary(MethodGetSystem, Server.GetSystem),
		unary(MethodListSystems, Server.ListSystems),
		unary(MethodGroupSkills, Server.GroupSkills),
		unary(MethodCreateCharacter, Server.CreateCharacter),
		unary(MethodGetCharacter, Server.GetCharacter),
		unary(MethodListCharacters, Server.ListCharacters),
		unary(MethodImportDocument, Server.ImportDocument),
		unary(MethodExportDocument, Server.ExportDocument),
		unary(MethodBrowseLibrary, Server.BrowseLibrary),
		unary(MethodSuggestLibrary, Server.SuggestLibrary),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "systems/v1/systems.proto",
}

// RegisterSystemServiceServer registers srv on s.
func RegisterSystemServiceServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Server), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(Server), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
