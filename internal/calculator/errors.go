package calculator

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/money"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid split")
	// ErrConsistency matches every *ConsistencyError.
	ErrConsistency = errors.New("inconsistent ledger records")
	// ErrInvariantViolation matches every *InvariantViolationError.
	ErrInvariantViolation = errors.New("ledger invariant violated")
	// ErrUnknownMember is returned when a position is requested for a non-member.
	ErrUnknownMember = errors.New("unknown member")
)

// ValidationReason tags why a split submission was rejected.
type ValidationReason string

const (
	ReasonNonPositiveTotal     ValidationReason = "non_positive_total"
	ReasonNoParticipants       ValidationReason = "no_participants"
	ReasonDuplicateParticipant ValidationReason = "duplicate_participant"
	ReasonUnknownParticipant   ValidationReason = "unknown_participant"
	ReasonMissingShare         ValidationReason = "missing_share"
	ReasonNegativeShare        ValidationReason = "negative_share"
	ReasonSplitMismatch        ValidationReason = "split_mismatch"
	ReasonPercentageMismatch   ValidationReason = "percentage_mismatch"
	ReasonUnsupportedStrategy  ValidationReason = "unsupported_strategy"
)

// ValidationError reports a malformed or non-conserving split. No partial result accompanies it.
type ValidationError struct {
	Reason   ValidationReason
	MemberID string
	Detail   string
}

func (e *ValidationError) Error() string {
	if e.MemberID != "" {
		return fmt.Sprintf("invalid split (%s) for member %s: %s", e.Reason, e.MemberID, e.Detail)
	}
	return fmt.Sprintf("invalid split (%s): %s", e.Reason, e.Detail)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConsistencyError reports a stored record that breaks a ledger invariant, which means the
// data was corrupted upstream of the engine.
type ConsistencyError struct {
	Kind     string // "expense" or "settlement"
	RecordID string
	Detail   string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistent %s %q: %s", e.Kind, e.RecordID, e.Detail)
}

func (e *ConsistencyError) Is(target error) bool { return target == ErrConsistency }

// InvariantViolationError is a caller bug: balances that do not sum to zero, or a settlement
// plan that does not reproduce its balances.
type InvariantViolationError struct {
	Sum    money.Amount
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("ledger invariant violated: %s (sum %d)", e.Detail, e.Sum)
}

func (e *InvariantViolationError) Is(target error) bool { return target == ErrInvariantViolation }

func invalid(reason ValidationReason, memberID, format string, args ...any) error {
	return &ValidationError{Reason: reason, MemberID: memberID, Detail: fmt.Sprintf(format, args...)}
}
