package calculator

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/mmynk/splitledger/internal/money"
)

// DebtEdge represents a payment instruction: From pays To the Amount.
type DebtEdge struct {
	From   string       `json:"from"` // Person who owes
	To     string       `json:"to"`   // Person who is owed
	Amount money.Amount `json:"amount"`
}

// SimplifyDebts reduces net balances to payment instructions that zero every balance.
//
// Greedy: repeatedly match the largest debtor with the largest creditor for the smaller of the
// two amounts. Every step clears at least one party and the last clears both, so the plan has
// at most (non-zero members - 1) entries. Equal amounts are ordered by lower member ID, which
// makes the output identical across calls. Balances that do not sum to zero are rejected
// with *InvariantViolationError.
func SimplifyDebts(balances Balances) ([]DebtEdge, error) {
	sum, err := balances.Sum()
	if err != nil {
		return nil, &InvariantViolationError{Detail: "balances overflow"}
	}
	if sum != 0 {
		return nil, &InvariantViolationError{Sum: sum, Detail: "balances do not sum to zero"}
	}

	debtors := &partyHeap{}
	creditors := &partyHeap{}
	for id, amount := range balances {
		switch {
		case amount == math.MinInt64:
			return nil, &InvariantViolationError{Detail: fmt.Sprintf("balance of %s has no positive counterpart in int64", id)}
		case amount < 0:
			*debtors = append(*debtors, party{id: id, amount: -amount})
		case amount > 0:
			*creditors = append(*creditors, party{id: id, amount: amount})
		}
	}
	heap.Init(debtors)
	heap.Init(creditors)

	debts := make([]DebtEdge, 0, max(debtors.Len()+creditors.Len()-1, 0))
	for debtors.Len() > 0 && creditors.Len() > 0 {
		debtor := heap.Pop(debtors).(party)
		creditor := heap.Pop(creditors).(party)

		transfer := min(debtor.amount, creditor.amount)
		debts = append(debts, DebtEdge{From: debtor.id, To: creditor.id, Amount: transfer})

		debtor.amount -= transfer
		creditor.amount -= transfer
		if debtor.amount > 0 {
			heap.Push(debtors, debtor)
		}
		if creditor.amount > 0 {
			heap.Push(creditors, creditor)
		}
	}

	if debtors.Len() > 0 || creditors.Len() > 0 {
		return nil, &InvariantViolationError{Detail: "unmatched balance left after simplification"}
	}
	return debts, nil
}

// party is a debtor or creditor with the magnitude still to settle.
type party struct {
	id     string
	amount money.Amount
}

// partyHeap is a max-heap on amount, lower ID first on ties.
type partyHeap []party

func (h partyHeap) Len() int { return len(h) }

func (h partyHeap) Less(i, j int) bool {
	if h[i].amount != h[j].amount {
		return h[i].amount > h[j].amount
	}
	return h[i].id < h[j].id
}

func (h partyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *partyHeap) Push(x any) { *h = append(*h, x.(party)) }

func (h *partyHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}
