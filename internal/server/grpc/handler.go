package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/rpc"
	"github.com/dmitrijs2005/accountkeeper/internal/server/facade"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps a facade error onto a gRPC status.
func toStatus(err error) error {
	var code codes.Code
	switch facade.KindOf(err) {
	case facade.KindNotFound:
		code = codes.NotFound
	case facade.KindInvalidCredentials:
		code = codes.Unauthenticated
	case facade.KindConflict:
		code = codes.AlreadyExists
		if errors.Is(err, common.ErrVersionConflict) {
			code = codes.Aborted
		}
	case facade.KindInvalid:
		code = codes.InvalidArgument
	default:
		code = codes.Internal
	}
	var fe *facade.Error
	if errors.As(err, &fe) {
		return status.Error(code, fe.Message)
	}
	return status.Error(code, "internal error")
}

func (s *GRPCServer) ListUsers(ctx context.Context, req *rpc.ListUsersRequest) (*rpc.ListUsersResponse, error) {
	views, err := s.accounts.ListUsers(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	users := make([]*rpc.User, 0, len(views))
	for _, v := range views {
		users = append(users, rpc.UserFromView(v))
	}
	return &rpc.ListUsersResponse{Users: users}, nil
}

func (s *GRPCServer) GetUser(ctx context.Context, req *rpc.GetUserRequest) (*rpc.GetUserResponse, error) {
	view, err := s.accounts.GetUser(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.GetUserResponse{User: rpc.UserFromView(view)}, nil
}

func (s *GRPCServer) CreateUser(ctx context.Context, req *rpc.CreateUserRequest) (*rpc.CreateUserResponse, error) {
	view, err := s.accounts.CreateUser(ctx, req.Name, req.Configuration)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "Created", "account_id", view.ID)
	return &rpc.CreateUserResponse{User: rpc.UserFromView(view)}, nil
}

func (s *GRPCServer) UpdateUser(ctx context.Context, req *rpc.UpdateUserRequest) (*rpc.UpdateUserResponse, error) {
	view, err := s.accounts.UpdateUser(ctx, req.ID, req.Name, req.Configuration)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.UpdateUserResponse{User: rpc.UserFromView(view)}, nil
}

func (s *GRPCServer) DeleteUser(ctx context.Context, req *rpc.DeleteUserRequest) (*rpc.DeleteUserResponse, error) {
	if err := s.accounts.DeleteUser(ctx, req.ID); err != nil {
		return nil, toStatus(err)
	}
	caller, _ := CallerFromContext(ctx)
	s.logger.Info(ctx, "Deleted", "account_id", req.ID, "by", caller)
	return &rpc.DeleteUserResponse{}, nil
}

func (s *GRPCServer) Authenticate(ctx context.Context, req *rpc.AuthenticateRequest) (*rpc.AuthenticateResponse, error) {
	pair, err := s.accounts.Authenticate(ctx, req.ID, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.AuthenticateResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *GRPCServer) UpdatePassword(ctx context.Context, req *rpc.UpdatePasswordRequest) (*rpc.UpdatePasswordResponse, error) {
	if err := s.accounts.UpdatePassword(ctx, req.ID, req.CurrentPassword, req.NewPassword, req.ResetPassword); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.UpdatePasswordResponse{}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *rpc.RefreshTokenRequest) (*rpc.RefreshTokenResponse, error) {
	pair, err := s.accounts.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.RefreshTokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *rpc.PingRequest) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}
