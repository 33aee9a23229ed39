package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/dmitrijs2005/gophcontacts/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	candidate, err := wire.DecodeContact(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	created, err := s.store.Create(ctx, models.NewContact(candidate.Name, candidate.Surname))
	if err != nil {
		s.logger.Error(ctx, "create failed", "error", err)
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "contact created", "id", created.ID, "user_id", userIDFrom(ctx))
	return wire.EncodeContact(created), nil
}

func (s *GRPCServer) Update(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	original, replacement, err := wire.DecodeUpdate(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.store.UpdateByIdentity(ctx, original, replacement); err != nil {
		s.logger.Warn(ctx, "update failed", "error", err)
		return nil, toStatus(err)
	}
	return wire.Empty(), nil
}

func (s *GRPCServer) Remove(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	target, err := wire.DecodeContact(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.store.RemoveByIdentity(ctx, target); err != nil {
		s.logger.Warn(ctx, "remove failed", "error", err)
		return nil, toStatus(err)
	}
	return wire.Empty(), nil
}

func (s *GRPCServer) QueryAll(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	list, err := s.store.QueryAll(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return wire.EncodeContacts(list), nil
}

func (s *GRPCServer) QueryByPrefix(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	list, err := s.store.QueryByPrefix(ctx, wire.DecodeTerm(req))
	if err != nil {
		return nil, toStatus(err)
	}
	return wire.EncodeContacts(list), nil
}

// Watch streams the full collection once and then after every change until
// the client goes away. Pending lists are coalesced so a slow reader only
// receives the latest one.
func (s *GRPCServer) Watch(_ *structpb.Struct, stream grpc.ServerStream) error {
	ctx := stream.Context()

	updates := make(chan []models.Contact, 1)
	sub, err := s.store.Subscribe(ctx, func(list []models.Contact) {
		select {
		case updates <- list:
		default:
			select {
			case <-updates:
			default:
			}
			updates <- list
		}
	})
	if err != nil {
		return toStatus(err)
	}
	defer sub.Cancel()

	s.logger.Debug(ctx, "watch started", "user_id", userIDFrom(ctx))
	for {
		select {
		case <-ctx.Done():
			return nil
		case list := <-updates:
			if err := stream.SendMsg(wire.EncodeContacts(list)); err != nil {
				return err
			}
		}
	}
}

func (s *GRPCServer) SignUp(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email, password := wire.DecodeCredentials(req)
	return s.session(ctx, "sign up", func() (*models.Session, error) {
		return s.identity.SignUpWithPassword(ctx, email, password)
	})
}

func (s *GRPCServer) SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email, password := wire.DecodeCredentials(req)
	return s.session(ctx, "sign in", func() (*models.Session, error) {
		return s.identity.SignInWithPassword(ctx, email, password)
	})
}

func (s *GRPCServer) SignInFederated(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := wire.DecodeIDToken(req)
	return s.session(ctx, "federated sign in", func() (*models.Session, error) {
		return s.identity.SignInWithFederatedToken(ctx, token)
	})
}

func (s *GRPCServer) SignInAnonymous(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.session(ctx, "anonymous sign in", func() (*models.Session, error) {
		return s.identity.SignInAnonymously(ctx)
	})
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return &structpb.Struct{Fields: map[string]*structpb.Value{"status": structpb.NewStringValue("OK")}}, nil
}

func (s *GRPCServer) session(ctx context.Context, op string, fn func() (*models.Session, error)) (*structpb.Struct, error) {
	sess, err := fn()
	if err != nil {
		s.logger.Warn(ctx, op+" failed", "error", err)
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, op, "user_id", sess.UserID)
	return wire.EncodeSession(sess), nil
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
