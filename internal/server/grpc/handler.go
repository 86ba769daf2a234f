package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/rpc"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := s.auth.Register(ctx, services.RegisterInput{
		FullName: rpc.String(req, rpc.FieldFullName),
		Email:    rpc.String(req, rpc.FieldEmail),
		Password: rpc.String(req, rpc.FieldPassword),
		Role:     rpc.String(req, rpc.FieldRole),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return tokenResponse(token)
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := s.auth.Login(ctx, rpc.String(req, rpc.FieldEmail), rpc.String(req, rpc.FieldPassword))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return tokenResponse(token)
}

func (s *GRPCServer) Profile(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.auth.Profile(ctx, claimsFrom(ctx))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	fields := map[string]any{
		rpc.FieldUserID:   p.UserID,
		rpc.FieldEmail:    p.Email,
		rpc.FieldName:     p.Name,
		rpc.FieldRole:     p.Role,
		rpc.FieldIsActive: p.IsActive,
	}
	if p.LastLogin != nil {
		fields[rpc.FieldLastLogin] = p.LastLogin.UTC().Format(time.RFC3339Nano)
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func tokenResponse(token string) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{rpc.FieldToken: token})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// toStatus maps service errors to gRPC codes. Internal details are logged,
// never returned.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrDuplicateAccount):
		return status.Error(codes.InvalidArgument, common.ErrDuplicateAccount.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrAccountDeactivated):
		return status.Error(codes.Unauthenticated, common.ErrAccountDeactivated.Error())
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
