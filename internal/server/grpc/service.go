package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophcontacts/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ContactStoreServer is the handler set behind ServiceDesc.
type ContactStoreServer interface {
	Create(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Remove(context.Context, *structpb.Struct) (*structpb.Struct, error)
	QueryAll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	QueryByPrefix(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignUp(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignInFederated(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignInAnonymous(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Watch(*structpb.Struct, grpc.ServerStream) error
}

type unaryFunc func(ContactStoreServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, call unaryFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ContactStoreServer), ctx, req.(*structpb.Struct))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: wire.FullMethod(method)}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ContactStoreServer).Watch(in, stream)
}

// ServiceDesc describes gophcontacts.v1.ContactStore. Every message is a
// google.protobuf.Struct laid out by package wire.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: wire.ServiceName,
	HandlerType: (*ContactStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(wire.MethodCreate, ContactStoreServer.Create),
		unary(wire.MethodUpdate, ContactStoreServer.Update),
		unary(wire.MethodRemove, ContactStoreServer.Remove),
		unary(wire.MethodQueryAll, ContactStoreServer.QueryAll),
		unary(wire.MethodQueryByPrefix, ContactStoreServer.QueryByPrefix),
		unary(wire.MethodSignUp, ContactStoreServer.SignUp),
		unary(wire.MethodSignIn, ContactStoreServer.SignIn),
		unary(wire.MethodSignInFederated, ContactStoreServer.SignInFederated),
		unary(wire.MethodSignInAnonymous, ContactStoreServer.SignInAnonymous),
		unary(wire.MethodPing, ContactStoreServer.Ping),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    wire.MethodWatch,
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "gophcontacts/v1/contact_store",
}
