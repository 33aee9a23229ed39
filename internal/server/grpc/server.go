package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophcontacts/internal/logging"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/dmitrijs2005/gophcontacts/internal/store"
	"google.golang.org/grpc"
)

// Identity is the auth provider the server exposes.
type Identity interface {
	SignUpWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignInWithFederatedToken(ctx context.Context, idToken string) (*models.Session, error)
	SignInAnonymously(ctx context.Context) (*models.Session, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

type GRPCServer struct {
	address  string
	store    store.Gateway
	identity Identity
	metrics  *Metrics
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, st store.Gateway, id Identity, m *Metrics) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		store:    st,
		identity: id,
		metrics:  m,
	}
}

// NewServer builds a grpc.Server with the interceptor chain and the
// ContactStore service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(s.metrics.UnaryInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.metrics.StreamInterceptor, s.streamAccessTokenInterceptor),
	)
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&ServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gPRC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
