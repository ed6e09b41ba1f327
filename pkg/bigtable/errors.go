package bigtable

import (
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNoService is returned by a Table that has no Service bound to it.
	ErrNoService = errors.New("must have active connection to service")

	// ErrInvalidArgument is wrapped by errors caused by bad local input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrFrozen is returned when modifying a frozen ColumnFamilyMap.
	ErrFrozen = errors.New("column family map is frozen")
)

// IsNotFound reports whether err is a NotFound status, possibly wrapped.
func IsNotFound(err error) bool {
	return err != nil && status.Code(err) == codes.NotFound
}

// IsInvalidArgument reports whether err was caused by bad input, either
// locally or as reported by the server.
func IsInvalidArgument(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrInvalidArgument) || status.Code(err) == codes.InvalidArgument
}

// IsUnavailable reports whether err is a transport level failure.
func IsUnavailable(err error) bool {
	return err != nil && status.Code(err) == codes.Unavailable
}

// IsFailedPrecondition reports whether err is ErrNoService or a
// FailedPrecondition status.
func IsFailedPrecondition(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNoService) || status.Code(err) == codes.FailedPrecondition
}

func invalidArgumentf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
