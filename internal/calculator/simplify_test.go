package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyDebts(t *testing.T) {
	tests := []struct {
		name     string
		balances Balances
		want     []DebtEdge
	}{
		{
			name:     "one creditor two debtors with tie broken by lower id",
			balances: Balances{"A": 200, "B": -100, "C": -100},
			want: []DebtEdge{
				{From: "B", To: "A", Amount: 100},
				{From: "C", To: "A", Amount: 100},
			},
		},
		{
			name:     "largest debtor meets largest creditor first",
			balances: Balances{"A": 50, "B": 150, "C": -120, "D": -80},
			// C(120)->B(150): 120, B left 30; D(80)->A(50): 50, D left 30; D(30)->B(30)
			want: []DebtEdge{
				{From: "C", To: "B", Amount: 120},
				{From: "D", To: "A", Amount: 50},
				{From: "D", To: "B", Amount: 30},
			},
		},
		{
			name:     "chain collapses to a single payment",
			balances: Balances{"A": 100, "B": 0, "C": -100},
			want:     []DebtEdge{{From: "C", To: "A", Amount: 100}},
		},
		{
			name:     "all zero means fully settled",
			balances: Balances{"A": 0, "B": 0},
			want:     []DebtEdge{},
		},
		{
			name:     "empty input",
			balances: Balances{},
			want:     []DebtEdge{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SimplifyDebts(tt.balances)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, nonZeroOnly(tt.balances), nonZeroOnly(Replay(got)))
		})
	}
}

func TestSimplifyDebts_NonZeroSum(t *testing.T) {
	tests := []struct {
		name     string
		balances Balances
	}{
		{name: "single non-zero balance", balances: Balances{"A": 100}},
		{name: "credits exceed debts", balances: Balances{"A": 100, "B": -99}},
		{name: "overflowing balances", balances: Balances{"A": 1<<63 - 1, "B": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SimplifyDebts(tt.balances)
			require.ErrorIs(t, err, ErrInvariantViolation)
			assert.Nil(t, got)
		})
	}
}

func TestSimplifyDebts_Idempotent(t *testing.T) {
	balances := Balances{"m1": 70, "m2": 70, "m3": -35, "m4": -35, "m5": -35, "m6": -35}
	first, err := SimplifyDebts(balances)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := SimplifyDebts(balances)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func nonZeroOnly(b Balances) Balances {
	out := Balances{}
	for id, amount := range b {
		if amount != 0 {
			out[id] = amount
		}
	}
	return out
}

func TestSimplifyDebts_LargeBalancesEveryOrder(t *testing.T) {
	b := Balances{"A": 1 << 62, "B": 1 << 62, "C": -(1 << 62), "D": -(1 << 62)}
	want := []DebtEdge{
		{From: "C", To: "A", Amount: 1 << 62},
		{From: "D", To: "B", Amount: 1 << 62},
	}
	for i := 0; i < 200; i++ {
		got, err := SimplifyDebts(b)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestSimplifyDebts_MinInt64Balance(t *testing.T) {
	_, err := SimplifyDebts(Balances{"A": math.MaxInt64, "B": 1, "C": math.MinInt64})
	require.ErrorIs(t, err, ErrInvariantViolation)
}
