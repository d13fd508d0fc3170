package calculator

import (
	"fmt"
	"math/bits"

	"github.com/mmynk/splitledger/internal/money"
)

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	ID      string
	Total   money.Amount
	PayerID string
	Shares  Shares
	Deleted bool
}

// SettlementForBalance represents a confirmed settlement.
type SettlementForBalance struct {
	ID           string
	FromMemberID string // Who paid (debtor settling up)
	ToMemberID   string // Who received (creditor being paid)
	Amount       money.Amount
}

// Balances maps member ID to net balance. Positive = is owed, negative = owes.
type Balances map[string]money.Amount

// Sum adds every balance. For balances produced by ComputeBalances it is always zero.
// Partial sums are kept in 128 bits, so the result does not depend on map order: only a
// total outside int64 is ErrOverflow.
func (b Balances) Sum() (money.Amount, error) {
	var hi int64
	var lo uint64
	for _, amount := range b {
		var carry uint64
		lo, carry = bits.Add64(lo, uint64(amount), 0)
		hi += int64(carry)
		if amount < 0 {
			hi--
		}
	}
	if (hi == 0 && int64(lo) >= 0) || (hi == -1 && int64(lo) < 0) {
		return money.Amount(int64(lo)), nil
	}
	return 0, fmt.Errorf("%w: balances sum exceeds int64", money.ErrOverflow)
}

// NonZero counts members who still owe or are owed.
func (b Balances) NonZero() int {
	n := 0
	for _, amount := range b {
		if amount != 0 {
			n++
		}
	}
	return n
}

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	MemberID   string       `json:"member_id"`
	NetBalance money.Amount `json:"net_balance"` // Positive = owed money, Negative = owes money
	TotalPaid  money.Amount `json:"total_paid"`  // Fronted across all expenses
	TotalShare money.Amount `json:"total_share"` // This member's own shares across all expenses
	SettledOut money.Amount `json:"settled_out"` // Confirmed settlements paid
	SettledIn  money.Amount `json:"settled_in"`  // Confirmed settlements received
}

// ComputeBalances computes one net balance per member from the expense and confirmed
// settlement records. Soft-deleted expenses are skipped. The result always sums to zero;
// a record that would break that yields a *ConsistencyError and no balances.
func ComputeBalances(expenses []ExpenseForBalance, settlements []SettlementForBalance, memberIDs []string) (Balances, error) {
	l, err := buildLedger(expenses, settlements, memberIDs)
	if err != nil {
		return nil, err
	}
	return l.balances(), nil
}

type ledger struct {
	order       []string
	members     map[string]*MemberBalance
	expenses    int
	settlements int
	spent       money.Amount
	settled     money.Amount
}

func buildLedger(expenses []ExpenseForBalance, settlements []SettlementForBalance, memberIDs []string) (*ledger, error) {
	l := &ledger{members: make(map[string]*MemberBalance, len(memberIDs))}
	for _, id := range memberIDs {
		if _, exists := l.members[id]; exists {
			continue
		}
		l.members[id] = &MemberBalance{MemberID: id}
		l.order = append(l.order, id)
	}

	for _, e := range expenses {
		if e.Deleted {
			continue
		}
		if err := l.applyExpense(e); err != nil {
			return nil, err
		}
	}
	for _, s := range settlements {
		if err := l.applySettlement(s); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *ledger) applyExpense(e ExpenseForBalance) error {
	inconsistent := func(format string, args ...any) error {
		return &ConsistencyError{Kind: "expense", RecordID: e.ID, Detail: fmt.Sprintf(format, args...)}
	}

	if e.Total <= 0 {
		return inconsistent("total %d is not positive", e.Total)
	}
	payer, ok := l.members[e.PayerID]
	if !ok {
		return inconsistent("payer %q is not a group member", e.PayerID)
	}

	var sum money.Amount
	for memberID, share := range e.Shares {
		if _, ok := l.members[memberID]; !ok {
			return inconsistent("share holder %q is not a group member", memberID)
		}
		if share < 0 {
			return inconsistent("share of %q is negative", memberID)
		}
		var err error
		if sum, err = money.Add(sum, share); err != nil {
			return inconsistent("shares overflow")
		}
	}
	if sum != e.Total {
		return inconsistent("shares sum to %d, total is %d", sum, e.Total)
	}

	// The payer is owed the full amount back, then every sharer (payer included) owes a share.
	if err := credit(&payer.TotalPaid, &payer.NetBalance, e.Total); err != nil {
		return inconsistent("%v", err)
	}
	for memberID, share := range e.Shares {
		m := l.members[memberID]
		if err := debit(&m.TotalShare, &m.NetBalance, share); err != nil {
			return inconsistent("%v", err)
		}
	}

	l.expenses++
	var err error
	if l.spent, err = money.Add(l.spent, e.Total); err != nil {
		return inconsistent("%v", err)
	}
	return nil
}

func (l *ledger) applySettlement(s SettlementForBalance) error {
	inconsistent := func(format string, args ...any) error {
		return &ConsistencyError{Kind: "settlement", RecordID: s.ID, Detail: fmt.Sprintf(format, args...)}
	}

	if s.Amount <= 0 {
		return inconsistent("amount %d is not positive", s.Amount)
	}
	if s.FromMemberID == s.ToMemberID {
		return inconsistent("payer and recipient are both %q", s.FromMemberID)
	}
	from, ok := l.members[s.FromMemberID]
	if !ok {
		return inconsistent("payer %q is not a group member", s.FromMemberID)
	}
	to, ok := l.members[s.ToMemberID]
	if !ok {
		return inconsistent("recipient %q is not a group member", s.ToMemberID)
	}

	// Paying down a debt raises the payer's balance; receiving lowers the recipient's.
	if err := credit(&from.SettledOut, &from.NetBalance, s.Amount); err != nil {
		return inconsistent("%v", err)
	}
	if err := debit(&to.SettledIn, &to.NetBalance, s.Amount); err != nil {
		return inconsistent("%v", err)
	}

	l.settlements++
	var err error
	if l.settled, err = money.Add(l.settled, s.Amount); err != nil {
		return inconsistent("%v", err)
	}
	return nil
}

func credit(total, net *money.Amount, amount money.Amount) error {
	return post(total, net, amount, amount)
}

func debit(total, net *money.Amount, amount money.Amount) error {
	return post(total, net, amount, -amount)
}

func post(total, net *money.Amount, amount, delta money.Amount) error {
	t, err := money.Add(*total, amount)
	if err != nil {
		return err
	}
	n, err := money.Add(*net, delta)
	if err != nil {
		return err
	}
	*total, *net = t, n
	return nil
}

func (l *ledger) balances() Balances {
	b := make(Balances, len(l.members))
	for id, m := range l.members {
		b[id] = m.NetBalance
	}
	return b
}

// Summary is the full balance view of a group.
type Summary struct {
	Members []MemberBalance `json:"members"`
	Debts   []DebtEdge      `json:"debts"`
	Stats   Stats           `json:"stats"`
}

// Stats aggregates a group's activity.
type Stats struct {
	TotalExpenses      money.Amount `json:"total_expenses"`
	TotalSettled       money.Amount `json:"total_settled"`
	TotalOutstanding   money.Amount `json:"total_outstanding"` // Sum of positive balances
	ExpenseCount       int          `json:"expense_count"`
	SettlementCount    int          `json:"settlement_count"`
	TransactionsNeeded int          `json:"transactions_needed"`
	IsSettled          bool         `json:"is_settled"`
}

// Balances returns the net balances carried by the summary.
func (s *Summary) Balances() Balances {
	b := make(Balances, len(s.Members))
	for _, m := range s.Members {
		b[m.MemberID] = m.NetBalance
	}
	return b
}

// Summarize computes balances, the simplified settlement plan and group stats in one pass.
// Members are reported in the order of memberIDs.
func Summarize(expenses []ExpenseForBalance, settlements []SettlementForBalance, memberIDs []string) (*Summary, error) {
	l, err := buildLedger(expenses, settlements, memberIDs)
	if err != nil {
		return nil, err
	}
	balances := l.balances()

	debts, err := SimplifyDebts(balances)
	if err != nil {
		return nil, err
	}
	if err := checkReplay(balances, debts); err != nil {
		return nil, err
	}

	summary := &Summary{
		Members: make([]MemberBalance, 0, len(l.order)),
		Debts:   debts,
		Stats: Stats{
			TotalExpenses:      l.spent,
			TotalSettled:       l.settled,
			ExpenseCount:       l.expenses,
			SettlementCount:    l.settlements,
			TransactionsNeeded: len(debts),
			IsSettled:          len(debts) == 0,
		},
	}
	for _, id := range l.order {
		m := *l.members[id]
		summary.Members = append(summary.Members, m)
		if m.NetBalance > 0 {
			summary.Stats.TotalOutstanding += m.NetBalance
		}
	}
	return summary, nil
}

// Replay applies every debt to a zeroed mapping: the debtor's side goes negative by the
// amount and the creditor's side positive. Applied to SimplifyDebts(b) it reproduces b.
func Replay(debts []DebtEdge) Balances {
	b := make(Balances)
	for _, d := range debts {
		b[d.From] -= d.Amount
		b[d.To] += d.Amount
	}
	return b
}

func checkReplay(balances Balances, debts []DebtEdge) error {
	replayed := Replay(debts)
	for id, amount := range replayed {
		if balances[id] != amount {
			return &InvariantViolationError{Detail: "settlement plan does not reproduce balance of " + id}
		}
	}
	for id, amount := range balances {
		if amount != replayed[id] {
			return &InvariantViolationError{Detail: "settlement plan does not reproduce balance of " + id}
		}
	}
	return nil
}
