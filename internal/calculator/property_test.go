package calculator

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/money"
)

const propertyRuns = 500

func randomMembers(r *rand.Rand) []string {
	n := 1 + r.IntN(8)
	members := make([]string, n)
	for i := range members {
		members[i] = fmt.Sprintf("member-%02d", i)
	}
	r.Shuffle(n, func(i, j int) { members[i], members[j] = members[j], members[i] })
	return members
}

func randomSubset(r *rand.Rand, members []string) []string {
	var subset []string
	for _, m := range members {
		if r.IntN(3) > 0 {
			subset = append(subset, m)
		}
	}
	if len(subset) == 0 {
		subset = append(subset, members[r.IntN(len(members))])
	}
	return subset
}

func randomStrategy(r *rand.Rand, total money.Amount, participants []string) Strategy {
	switch r.IntN(3) {
	case 0:
		return EqualSplit{}
	case 1:
		amounts := make(map[string]money.Amount, len(participants))
		left := total
		for i, p := range participants {
			if i == len(participants)-1 {
				amounts[p] = left
				break
			}
			share := money.Amount(r.Int64N(int64(left) + 1))
			amounts[p] = share
			left -= share
		}
		return ExactSplit{Amounts: amounts}
	default:
		bps := make(map[string]money.BasisPoints, len(participants))
		left := money.FullPercent
		for i, p := range participants {
			if i == len(participants)-1 {
				bps[p] = left
				break
			}
			bp := money.BasisPoints(r.Int64N(int64(left) + 1))
			bps[p] = bp
			left -= bp
		}
		return PercentageSplit{BasisPoints: bps}
	}
}

func TestProperty_SplitExactnessAndDeterminism(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < propertyRuns; i++ {
		members := randomMembers(r)
		participants := randomSubset(r, members)
		total := money.Amount(1 + r.Int64N(1_000_000))
		strategy := randomStrategy(r, total, participants)

		shares, err := ValidateSplit(total, strategy, participants)
		require.NoError(t, err, "run %d", i)
		require.Equal(t, total, shares.Total(), "run %d", i)
		require.Len(t, shares, len(participants))

		again, err := ValidateSplit(total, strategy, participants)
		require.NoError(t, err)
		require.Equal(t, shares, again, "run %d", i)
	}
}

func TestProperty_ConservationRoundTripAndBound(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 99))
	for i := 0; i < propertyRuns; i++ {
		members := randomMembers(r)

		var expenses []ExpenseForBalance
		for e := 0; e < r.IntN(10); e++ {
			participants := randomSubset(r, members)
			total := money.Amount(1 + r.Int64N(100_000))
			shares, err := ValidateSplit(total, randomStrategy(r, total, participants), participants)
			require.NoError(t, err)
			expenses = append(expenses, ExpenseForBalance{
				ID:      fmt.Sprintf("e%d", e),
				Total:   total,
				PayerID: members[r.IntN(len(members))],
				Shares:  shares,
				Deleted: r.IntN(10) == 0,
			})
		}

		var settlements []SettlementForBalance
		if len(members) > 1 {
			for s := 0; s < r.IntN(4); s++ {
				from := members[r.IntN(len(members))]
				to := members[r.IntN(len(members))]
				if from == to {
					continue
				}
				settlements = append(settlements, SettlementForBalance{
					ID: fmt.Sprintf("s%d", s), FromMemberID: from, ToMemberID: to,
					Amount: money.Amount(1 + r.Int64N(50_000)),
				})
			}
		}

		balances, err := ComputeBalances(expenses, settlements, members)
		require.NoError(t, err, "run %d", i)

		sum, err := balances.Sum()
		require.NoError(t, err)
		require.Zero(t, sum, "conservation, run %d", i)

		debts, err := SimplifyDebts(balances)
		require.NoError(t, err, "run %d", i)
		assert.Equal(t, nonZeroOnly(balances), nonZeroOnly(Replay(debts)), "round trip, run %d", i)

		if nz := balances.NonZero(); nz > 0 {
			assert.LessOrEqual(t, len(debts), nz-1, "minimality bound, run %d", i)
		} else {
			assert.Empty(t, debts)
		}
		for _, d := range debts {
			assert.Positive(t, int64(d.Amount))
			assert.NotEqual(t, d.From, d.To)
		}

		again, err := SimplifyDebts(balances)
		require.NoError(t, err)
		assert.Equal(t, debts, again, "idempotence, run %d", i)
	}
}
