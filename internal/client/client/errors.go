package client

import (
	"errors"

	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrNotSignedIn = errors.New("not signed in")
)

// remoteError carries the server's message and unwraps to a local sentinel.
type remoteError struct {
	sentinel error
	msg      string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var sentinel error
	switch st.Code() {
	case codes.NotFound:
		sentinel = common.ErrorNotFound
	case codes.AlreadyExists:
		sentinel = common.ErrAlreadyExists
	case codes.InvalidArgument:
		sentinel = common.ErrValidation
	case codes.Unauthenticated, codes.PermissionDenied:
		sentinel = common.ErrorUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		sentinel = common.ErrorInternal
	}
	return &remoteError{sentinel: sentinel, msg: st.Message()}
}
