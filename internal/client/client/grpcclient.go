// Package client talks to the authkeeper gRPC endpoint.
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Profile is the identity reported by the server for the current token.
type Profile struct {
	UserID    string
	Email     string
	Name      string
	Role      string
	IsActive  bool
	LastLogin string
}

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      rpc.AuthServiceClient

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.AccessToken(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient dials endpointURL lazily; the first RPC opens the connection.
func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = rpc.NewAuthServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Register creates an account and keeps the returned token.
func (s *GRPCClient) Register(ctx context.Context, fullName, email, password, role string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req, err := structpb.NewStruct(map[string]any{
		rpc.FieldFullName: fullName,
		rpc.FieldEmail:    email,
		rpc.FieldPassword: password,
		rpc.FieldRole:     role,
	})
	if err != nil {
		return "", err
	}

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return "", s.mapError(err)
	}

	token := rpc.String(resp, rpc.FieldToken)
	s.SetAccessToken(token)
	return token, nil
}

// Login authenticates and keeps the returned token.
func (s *GRPCClient) Login(ctx context.Context, email, password string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req, err := structpb.NewStruct(map[string]any{
		rpc.FieldEmail:    email,
		rpc.FieldPassword: password,
	})
	if err != nil {
		return "", err
	}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return "", s.mapError(err)
	}

	token := rpc.String(resp, rpc.FieldToken)
	s.SetAccessToken(token)
	return token, nil
}

// Profile fetches the identity behind the current token.
func (s *GRPCClient) Profile(ctx context.Context) (*Profile, error) {
	if s.AccessToken() == "" {
		return nil, ErrNoToken
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Profile(ctx, &structpb.Struct{})
	if err != nil {
		return nil, s.mapError(err)
	}

	return &Profile{
		UserID:    rpc.String(resp, rpc.FieldUserID),
		Email:     rpc.String(resp, rpc.FieldEmail),
		Name:      rpc.String(resp, rpc.FieldName),
		Role:      rpc.String(resp, rpc.FieldRole),
		IsActive:  rpc.Bool(resp, rpc.FieldIsActive),
		LastLogin: rpc.String(resp, rpc.FieldLastLogin),
	}, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
