// Package rpc declares the authkeeper gRPC service (authkeeper.proto) shared
// by the server and the CLI client. Messages are google.protobuf.Struct
// values keyed by the Field* constants.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "authkeeper.AuthService"

const (
	MethodRegister = "/" + ServiceName + "/Register"
	MethodLogin    = "/" + ServiceName + "/Login"
	MethodProfile  = "/" + ServiceName + "/Profile"
)

// Message fields.
const (
	FieldFullName  = "fullName"
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldRole      = "role"
	FieldToken     = "token"
	FieldUserID    = "userId"
	FieldName      = "name"
	FieldIsActive  = "isActive"
	FieldLastLogin = "lastLogin"
)

// AuthServiceServer is implemented by the server.
type AuthServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Profile(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv AuthServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Register",
			Handler: unaryHandler(MethodRegister, func(s AuthServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.Register(ctx, in)
			}),
		},
		{
			MethodName: "Login",
			Handler: unaryHandler(MethodLogin, func(s AuthServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.Login(ctx, in)
			}),
		},
		{
			MethodName: "Profile",
			Handler: unaryHandler(MethodProfile, func(s AuthServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.Profile(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authkeeper.proto",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// AuthServiceClient is the client API.
type AuthServiceClient interface {
	Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Profile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc: cc}
}

func (c *authServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authServiceClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRegister, in, opts)
}

func (c *authServiceClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodLogin, in, opts)
}

func (c *authServiceClient) Profile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodProfile, in, opts)
}

// String returns the string field key of s, or "".
func String(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	if v, ok := s.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

// Bool returns the bool field key of s, or false.
func Bool(s *structpb.Struct, key string) bool {
	if s == nil {
		return false
	}
	if v, ok := s.GetFields()[key]; ok {
		return v.GetBoolValue()
	}
	return false
}
