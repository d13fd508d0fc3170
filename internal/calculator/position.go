package calculator

import (
	"fmt"

	"github.com/mmynk/splitledger/internal/money"
)

// Position is what one member owes and is owed under a group's simplified plan.
type Position struct {
	MemberID    string
	Balance     money.Amount
	Owes        []DebtEdge
	IsOwed      []DebtEdge
	TotalOwes   money.Amount
	TotalIsOwed money.Amount
}

// MemberPosition extracts memberID's side of the summary's settlement plan.
func MemberPosition(summary *Summary, memberID string) (Position, error) {
	pos := Position{MemberID: memberID}

	found := false
	for _, m := range summary.Members {
		if m.MemberID == memberID {
			pos.Balance = m.NetBalance
			found = true
			break
		}
	}
	if !found {
		return Position{}, fmt.Errorf("%w: %s", ErrUnknownMember, memberID)
	}

	for _, d := range summary.Debts {
		switch memberID {
		case d.From:
			pos.Owes = append(pos.Owes, d)
			pos.TotalOwes += d.Amount
		case d.To:
			pos.IsOwed = append(pos.IsOwed, d)
			pos.TotalIsOwed += d.Amount
		}
	}
	return pos, nil
}
