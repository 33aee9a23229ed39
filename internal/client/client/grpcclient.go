package client

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"github.com/dmitrijs2005/gophcontacts/internal/logging"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/dmitrijs2005/gophcontacts/internal/store"
	"github.com/dmitrijs2005/gophcontacts/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultRequestTimeout = 12 * time.Second
	initialBackoff        = 500 * time.Millisecond
	maxBackoffDelay       = 15 * time.Second
)

var watchDesc = &grpc.StreamDesc{StreamName: wire.MethodWatch, ServerStreams: true}

type GRPCClient struct {
	endpointURL    string
	conn           *grpc.ClientConn
	logger         logging.Logger
	requestTimeout time.Duration

	mu      sync.RWMutex
	session *models.Session
}

var _ store.Gateway = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.AccessToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withAccessToken(ctx, s.token()), method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(withAccessToken(ctx, s.token()), desc, cc, method, opts...)
}

// NewGRPCClient connects lazily to endpointURL. Extra dial options are
// appended after the defaults (insecure transport, token interceptors).
func NewGRPCClient(endpointURL string, logger logging.Logger, requestTimeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	c := &GRPCClient{
		endpointURL:    endpointURL,
		logger:         logger.With("module", "grpc_client"),
		requestTimeout: requestTimeout,
	}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithStreamInterceptor(c.streamAccessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	out := new(structpb.Struct)
	if err := s.conn.Invoke(ctx, wire.FullMethod(method), req, out); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.invoke(ctx, wire.MethodPing, wire.Empty())
	if err != nil {
		return err
	}
	if resp.GetFields()["status"].GetStringValue() != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Create(ctx context.Context, candidate models.Contact) (models.Contact, error) {
	resp, err := s.invoke(ctx, wire.MethodCreate, wire.EncodeContact(candidate))
	if err != nil {
		return candidate, err
	}
	created, err := wire.DecodeContact(resp)
	if err != nil {
		return candidate, err
	}
	return created, nil
}

func (s *GRPCClient) UpdateByIdentity(ctx context.Context, original, replacement models.Contact) error {
	_, err := s.invoke(ctx, wire.MethodUpdate, wire.EncodeUpdate(original, replacement))
	return err
}

func (s *GRPCClient) RemoveByIdentity(ctx context.Context, target models.Contact) error {
	_, err := s.invoke(ctx, wire.MethodRemove, wire.EncodeContact(target))
	return err
}

func (s *GRPCClient) QueryAll(ctx context.Context) ([]models.Contact, error) {
	resp, err := s.invoke(ctx, wire.MethodQueryAll, wire.Empty())
	if err != nil {
		return nil, err
	}
	return wire.DecodeContacts(resp)
}

func (s *GRPCClient) QueryByPrefix(ctx context.Context, term string) ([]models.Contact, error) {
	resp, err := s.invoke(ctx, wire.MethodQueryByPrefix, wire.EncodeTerm(term))
	if err != nil {
		return nil, err
	}
	return wire.DecodeContacts(resp)
}

// Subscribe opens a Watch stream and re-opens it with backoff when it breaks.
// It gives up when the server rejects the session.
func (s *GRPCClient) Subscribe(ctx context.Context, onChange func([]models.Contact)) (store.Subscription, error) {
	if s.token() == "" {
		return nil, ErrNotSignedIn
	}

	ctx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	d := store.NewDelivery(onChange, func() {
		stop()
		wg.Wait()
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watch(ctx, d)
	}()
	return d, nil
}

func (s *GRPCClient) watch(ctx context.Context, d *store.Delivery) {
	backoff := initialBackoff
	for {
		err := s.consume(ctx, d, func() { backoff = initialBackoff })
		if ctx.Err() != nil {
			return
		}
		if status.Code(err) == codes.Unauthenticated {
			s.logger.Error(ctx, "subscription error", "error", err)
			return
		}
		s.logger.Warn(ctx, "watch stream interrupted; retrying", "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff = min(backoff*2, maxBackoffDelay)
		}
	}
}

func (s *GRPCClient) consume(ctx context.Context, d *store.Delivery, received func()) error {
	stream, err := s.conn.NewStream(ctx, watchDesc, wire.FullMethod(wire.MethodWatch))
	if err != nil {
		return err
	}
	if err := stream.SendMsg(wire.Empty()); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			return err
		}
		received()

		list, err := wire.DecodeContacts(msg)
		if err != nil {
			s.logger.Error(ctx, "subscription error", "error", err)
			continue
		}
		d.Deliver(list)
	}
}

func (s *GRPCClient) signIn(ctx context.Context, method string, req *structpb.Struct) (*models.Session, error) {
	resp, err := s.invoke(ctx, method, req)
	if err != nil {
		return nil, err
	}
	sess, err := wire.DecodeSession(resp)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *GRPCClient) SignUpWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	return s.signIn(ctx, wire.MethodSignUp, wire.EncodeCredentials(email, password))
}

func (s *GRPCClient) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	return s.signIn(ctx, wire.MethodSignIn, wire.EncodeCredentials(email, password))
}

func (s *GRPCClient) SignInWithFederatedToken(ctx context.Context, idToken string) (*models.Session, error) {
	return s.signIn(ctx, wire.MethodSignInFederated, wire.EncodeIDToken(idToken))
}

func (s *GRPCClient) SignInAnonymously(ctx context.Context) (*models.Session, error) {
	return s.signIn(ctx, wire.MethodSignInAnonymous, wire.Empty())
}

// SignOut forgets the session; tokens are stateless on the server.
func (s *GRPCClient) SignOut(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ErrNotSignedIn
	}
	s.session = nil
	return nil
}

// Session returns the current session or nil.
func (s *GRPCClient) Session() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}
