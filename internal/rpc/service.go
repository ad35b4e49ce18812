package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "accounts.AccountService"

// FullMethod returns the gRPC method path of method, e.g.
// "/accounts.AccountService/DeleteUser".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// AccountServiceServer is implemented by the gRPC transport of the server.
type AccountServiceServer interface {
	ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error)
	GetUser(context.Context, *GetUserRequest) (*GetUserResponse, error)
	CreateUser(context.Context, *CreateUserRequest) (*CreateUserResponse, error)
	UpdateUser(context.Context, *UpdateUserRequest) (*UpdateUserResponse, error)
	DeleteUser(context.Context, *DeleteUserRequest) (*DeleteUserResponse, error)
	Authenticate(context.Context, *AuthenticateRequest) (*AuthenticateResponse, error)
	UpdatePassword(context.Context, *UpdatePasswordRequest) (*UpdatePasswordResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

func RegisterAccountServiceServer(s grpc.ServiceRegistrar, srv AccountServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListUsers", AccountServiceServer.ListUsers),
		unary("GetUser", AccountServiceServer.GetUser),
		unary("CreateUser", AccountServiceServer.CreateUser),
		unary("UpdateUser", AccountServiceServer.UpdateUser),
		unary("DeleteUser", AccountServiceServer.DeleteUser),
		unary("Authenticate", AccountServiceServer.Authenticate),
		unary("UpdatePassword", AccountServiceServer.UpdatePassword),
		unary("RefreshToken", AccountServiceServer.RefreshToken),
		unary("Ping", AccountServiceServer.Ping),
	},
	Streams: []grpc.StreamDesc{},
}

func unary[Req, Resp any](method string, call func(AccountServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AccountServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AccountServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
