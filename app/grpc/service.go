package grpc

import (
	"context"

	"github.com/codetrust-ai/codetrust-api/app/types"

	gogrpc "google.golang.org/grpc"
)

const (
	ServiceName              = "codetrust.auth.v1.AuthService"
	ForgotPasswordFullMethod = "/" + ServiceName + "/ForgotPassword"
	ResetPasswordFullMethod  = "/" + ServiceName + "/ResetPassword"
	LoginFullMethod          = "/" + ServiceName + "/Login"
)

type AuthServiceServer interface {
	ForgotPassword(ctx context.Context, req *types.ForgotPasswordRequest) (*types.ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) (*types.ResetPasswordResponse, error)
	Login(ctx context.Context, req *types.LoginRequest) (*types.LoginResponse, error)
}

var AuthServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: "ForgotPassword", Handler: forgotPasswordHandler},
		{MethodName: "ResetPassword", Handler: resetPasswordHandler},
		{MethodName: "Login", Handler: loginHandler},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "codetrust/auth/v1/auth.json",
}

func RegisterAuthServiceServer(s gogrpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

func forgotPasswordHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(types.ForgotPasswordRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).ForgotPassword(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: ForgotPasswordFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).ForgotPassword(ctx, req.(*types.ForgotPasswordRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func resetPasswordHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(types.ResetPasswordRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).ResetPassword(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: ResetPasswordFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).ResetPassword(ctx, req.(*types.ResetPasswordRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func loginHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(types.LoginRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).Login(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: LoginFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).Login(ctx, req.(*types.LoginRequest))
	}
	return interceptor(ctx, in, info, handler)
}
