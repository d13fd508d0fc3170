package calculator

import (
	"math/bits"

	"github.com/mmynk/splitledger/internal/money"
)

// SplitKind names a split strategy on the wire and in storage.
type SplitKind string

const (
	SplitEqual      SplitKind = "equal"
	SplitExact      SplitKind = "exact"
	SplitPercentage SplitKind = "percentage"
)

// Strategy is one of EqualSplit, ExactSplit or PercentageSplit.
type Strategy interface {
	Kind() SplitKind
	strategy()
}

// EqualSplit divides the total evenly; leftover units go to the earliest participants.
type EqualSplit struct{}

// ExactSplit carries the explicit amount owed by every participant.
type ExactSplit struct {
	Amounts map[string]money.Amount
}

// PercentageSplit carries every participant's percentage in basis points.
type PercentageSplit struct {
	BasisPoints map[string]money.BasisPoints
}

func (EqualSplit) Kind() SplitKind      { return SplitEqual }
func (ExactSplit) Kind() SplitKind      { return SplitExact }
func (PercentageSplit) Kind() SplitKind { return SplitPercentage }

func (EqualSplit) strategy()      {}
func (ExactSplit) strategy()      {}
func (PercentageSplit) strategy() {}

// Shares maps member ID to the amount that member owes for one expense.
type Shares map[string]money.Amount

// Total sums the shares. Shares produced by ValidateSplit never overflow.
func (s Shares) Total() money.Amount {
	var total money.Amount
	for _, amount := range s {
		total += amount
	}
	return total
}

// ValidateSplit turns a split submission into shares that sum exactly to total.
// Participants are processed in the order given, which fixes who receives remainder units.
func ValidateSplit(total money.Amount, strategy Strategy, participants []string) (Shares, error) {
	if total <= 0 {
		return nil, invalid(ReasonNonPositiveTotal, "", "total must be positive, got %d", total)
	}
	if len(participants) == 0 {
		return nil, invalid(ReasonNoParticipants, "", "at least one participant is required")
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if p == "" {
			return nil, invalid(ReasonUnknownParticipant, "", "participant id is empty")
		}
		if seen[p] {
			return nil, invalid(ReasonDuplicateParticipant, p, "participant listed more than once")
		}
		seen[p] = true
	}

	switch s := strategy.(type) {
	case EqualSplit:
		return splitEqual(total, participants), nil
	case ExactSplit:
		return splitExact(total, s, participants, seen)
	case PercentageSplit:
		return splitPercentage(total, s, participants, seen)
	default:
		return nil, invalid(ReasonUnsupportedStrategy, "", "unsupported split strategy %T", strategy)
	}
}

func splitEqual(total money.Amount, participants []string) Shares {
	n := money.Amount(len(participants))
	base := total / n
	remainder := total - base*n

	shares := make(Shares, len(participants))
	for i, p := range participants {
		shares[p] = base
		if money.Amount(i) < remainder {
			shares[p]++
		}
	}
	return shares
}

func splitExact(total money.Amount, s ExactSplit, participants []string, seen map[string]bool) (Shares, error) {
	for memberID := range s.Amounts {
		if !seen[memberID] {
			return nil, invalid(ReasonUnknownParticipant, memberID, "share given for a non-participant")
		}
	}

	shares := make(Shares, len(participants))
	var sum money.Amount
	for _, p := range participants {
		amount, ok := s.Amounts[p]
		if !ok {
			return nil, invalid(ReasonMissingShare, p, "no amount given")
		}
		if amount < 0 {
			return nil, invalid(ReasonNegativeShare, p, "amount %d is negative", amount)
		}
		var err error
		if sum, err = money.Add(sum, amount); err != nil {
			return nil, invalid(ReasonSplitMismatch, "", "shares overflow")
		}
		shares[p] = amount
	}
	if sum != total {
		return nil, invalid(ReasonSplitMismatch, "", "shares sum to %d, total is %d", sum, total)
	}
	return shares, nil
}

func splitPercentage(total money.Amount, s PercentageSplit, participants []string, seen map[string]bool) (Shares, error) {
	for memberID := range s.BasisPoints {
		if !seen[memberID] {
			return nil, invalid(ReasonUnknownParticipant, memberID, "percentage given for a non-participant")
		}
	}

	var sumBP money.BasisPoints
	for _, p := range participants {
		bp, ok := s.BasisPoints[p]
		if !ok {
			return nil, invalid(ReasonMissingShare, p, "no percentage given")
		}
		if bp < 0 || bp > money.FullPercent {
			return nil, invalid(ReasonNegativeShare, p, "percentage %s out of range", bp.Decimal())
		}
		sumBP += bp
	}
	if sumBP != money.FullPercent {
		return nil, invalid(ReasonPercentageMismatch, "", "percentages sum to %s, want 100", sumBP.Decimal())
	}

	shares := make(Shares, len(participants))
	var allocated money.Amount
	for _, p := range participants {
		share := percentOf(total, s.BasisPoints[p])
		shares[p] = share
		allocated += share
	}

	// Each floored share lost less than one unit, so the residual is smaller than the number
	// of participants with a non-zero percentage and one pass hands it all out.
	residual := total - allocated
	for _, p := range participants {
		if residual == 0 {
			break
		}
		if s.BasisPoints[p] == 0 {
			continue
		}
		shares[p]++
		residual--
	}
	return shares, nil
}

// percentOf returns floor(total * bp / 10000) using a 128-bit intermediate.
func percentOf(total money.Amount, bp money.BasisPoints) money.Amount {
	hi, lo := bits.Mul64(uint64(total), uint64(bp))
	quo, _ := bits.Div64(hi, lo, uint64(money.FullPercent))
	return money.Amount(quo)
}
