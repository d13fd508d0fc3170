package service

import (
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/lock"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

var errNoIdentity = errors.New("caller identity missing")

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

func permissionDenied(format string, args ...any) error {
	return connect.NewError(connect.CodePermissionDenied, fmt.Errorf(format, args...))
}

func failedPrecondition(format string, args ...any) error {
	return connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf(format, args...))
}

// toConnectError maps domain and storage errors onto Connect codes. Errors that point at
// corrupted records or a broken engine are logged here since the client only sees Internal.
func toConnectError(procedure string, err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	switch {
	case errors.Is(err, calculator.ErrValidation),
		errors.Is(err, money.ErrPrecision),
		errors.Is(err, money.ErrOutOfRange),
		errors.Is(err, money.ErrUnknownCurrency):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, calculator.ErrUnknownMember):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, lock.ErrNotAcquired):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, calculator.ErrConsistency), errors.Is(err, calculator.ErrInvariantViolation):
		slog.Error("Ledger integrity failure", "procedure", procedure, "error", err)
		return connect.NewError(connect.CodeInternal, err)
	default:
		slog.Error("Request failed", "procedure", procedure, "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}
}
