package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewSplit(t *testing.T) {
	env := newTestEnv(t, Deps{})
	tr := newTrip(t, env)
	ctx := context.Background()

	preview := func(total string, split SplitInput) (*PreviewSplitResponse, error) {
		resp, err := env.expenses.PreviewSplit(ctx, as(tr.bob, &PreviewSplitRequest{
			GroupID: tr.groupID,
			Total:   amt(total),
			Split:   split,
		}))
		if err != nil {
			return nil, err
		}
		return resp.Msg, nil
	}

	t.Run("equal split gives the remainder to the first participant", func(t *testing.T) {
		resp, err := preview("100.00", tr.equalSplit())
		require.NoError(t, err)
		require.Len(t, resp.Shares, 3)
		assert.Equal(t, tr.aID, resp.Shares[0].MemberID)
		assertAmount(t, "33.34", resp.Shares[0].Amount)
		assertAmount(t, "33.33", resp.Shares[1].Amount)
		assertAmount(t, "33.33", resp.Shares[2].Amount)
		assert.Nil(t, resp.Shares[0].Percentage)
	})

	t.Run("percentage split hands out the residual in order", func(t *testing.T) {
		resp, err := preview("10.00", SplitInput{
			Type:         "percentage",
			Participants: []string{tr.aID, tr.bID, tr.cID},
			Percentages: map[string]decimal.Decimal{
				tr.aID: amt("33.33"),
				tr.bID: amt("33.33"),
				tr.cID: amt("33.34"),
			},
		})
		require.NoError(t, err)
		require.Len(t, resp.Shares, 3)
		assertAmount(t, "3.34", resp.Shares[0].Amount)
		assertAmount(t, "3.33", resp.Shares[1].Amount)
		assertAmount(t, "3.33", resp.Shares[2].Amount)
		require.NotNil(t, resp.Shares[2].Percentage)
		assertAmount(t, "33.34", *resp.Shares[2].Percentage)
	})

	t.Run("exact split", func(t *testing.T) {
		resp, err := preview("50.00", SplitInput{
			Type:         "exact",
			Participants: []string{tr.aID, tr.bID},
			Amounts:      map[string]decimal.Decimal{tr.aID: amt("20.50"), tr.bID: amt("29.50")},
		})
		require.NoError(t, err)
		require.Len(t, resp.Shares, 2)
		assertAmount(t, "20.50", resp.Shares[0].Amount)
		assertAmount(t, "29.50", resp.Shares[1].Amount)
	})

	t.Run("invalid splits", func(t *testing.T) {
		tests := []struct {
			name  string
			total string
			split SplitInput
		}{
			{"exact mismatch", "50.00", SplitInput{
				Type:         "exact",
				Participants: []string{tr.aID, tr.bID},
				Amounts:      map[string]decimal.Decimal{tr.aID: amt("20"), tr.bID: amt("20")},
			}},
			{"percentages short of 100", "50.00", SplitInput{
				Type:         "percentage",
				Participants: []string{tr.aID, tr.bID},
				Percentages:  map[string]decimal.Decimal{tr.aID: amt("50"), tr.bID: amt("49.99")},
			}},
			{"too many decimals", "10.005", tr.equalSplit()},
			{"zero total", "0", tr.equalSplit()},
			{"negative total", "-5", tr.equalSplit()},
			{"no participants", "10", SplitInput{Type: "equal"}},
			{"duplicate participant", "10", SplitInput{Participants: []string{tr.aID, tr.aID}}},
			{"unknown participant", "10", SplitInput{Participants: []string{tr.aID, "stranger"}}},
			{"unsupported type", "10", SplitInput{Type: "shares", Participants: []string{tr.aID}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := preview(tt.total, tt.split)
				assertCode(t, connect.CodeInvalidArgument, err)
			})
		}
	})

	t.Run("non-member denied", func(t *testing.T) {
		_, err := env.expenses.PreviewSplit(ctx, as(tr.eve, &PreviewSplitRequest{
			GroupID: tr.groupID, Total: amt("10"), Split: tr.equalSplit(),
		}))
		assertCode(t, connect.CodePermissionDenied, err)
	})
}

func TestCreateExpense(t *testing.T) {
	env := newTestEnv(t, Deps{})
	tr := newTrip(t, env)
	ctx := context.Background()

	t.Run("payer defaults to the caller", func(t *testing.T) {
		e := tr.addExpense(t, tr.bob, "90.00", tr.equalSplit())
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, tr.bID, e.PayerID)
		assert.Equal(t, "user-bob", e.CreatedBy)
		assert.Equal(t, "equal", e.SplitType)
		assert.Equal(t, "food", e.Category)
		assert.Equal(t, "INR", e.Currency)
		assertAmount(t, "90", e.Total)
		assert.False(t, e.Deleted)
		require.Len(t, e.Shares, 3)
	})

	t.Run("member without an account can be the payer", func(t *testing.T) {
		resp, err := env.expenses.CreateExpense(ctx, as(tr.alice, &CreateExpenseRequest{
			GroupID:     tr.groupID,
			Description: "Fuel",
			Total:       amt("30"),
			PayerID:     tr.cID,
			Split:       tr.equalSplit(),
		}))
		require.NoError(t, err)
		assert.Equal(t, tr.cID, resp.Msg.Expense.PayerID)
		assert.Equal(t, "other", resp.Msg.Expense.Category)

		balances := tr.netBalances(t)
		assert.Equal(t, "-40.00", balances[tr.aID])
		assert.Equal(t, "50.00", balances[tr.bID])
		assert.Equal(t, "-10.00", balances[tr.cID])
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			req  *CreateExpenseRequest
		}{
			{"missing description", &CreateExpenseRequest{GroupID: tr.groupID, Total: amt("10"), Split: tr.equalSplit()}},
			{"unknown category", &CreateExpenseRequest{GroupID: tr.groupID, Description: "x", Category: "yachts", Total: amt("10"), Split: tr.equalSplit()}},
			{"unknown payer", &CreateExpenseRequest{GroupID: tr.groupID, Description: "x", PayerID: "ghost", Total: amt("10"), Split: tr.equalSplit()}},
			{"missing group", &CreateExpenseRequest{Description: "x", Total: amt("10"), Split: tr.equalSplit()}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := env.expenses.CreateExpense(ctx, as(tr.alice, tt.req))
				assertCode(t, connect.CodeInvalidArgument, err)
			})
		}
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := env.expenses.CreateExpense(ctx, as(tr.alice, &CreateExpenseRequest{
			GroupID: "missing", Description: "x", Total: amt("10"), Split: tr.equalSplit(),
		}))
		assertCode(t, connect.CodeNotFound, err)
	})
}

func TestUpdateExpense(t *testing.T) {
	env := newTestEnv(t, Deps{})
	tr := newTrip(t, env)
	ctx := context.Background()

	e := tr.addExpense(t, tr.alice, "300.00", tr.equalSplit())
	update := &UpdateExpenseRequest{
		ExpenseID:   e.ID,
		Description: "Dinner and drinks",
		Category:    "entertainment",
		Total:       amt("600.00"),
		Split:       tr.equalSplit(),
	}

	t.Run("outsider to the expense denied", func(t *testing.T) {
		_, err := env.expenses.UpdateExpense(ctx, as(tr.bob, update))
		assertCode(t, connect.CodePermissionDenied, err)
	})

	t.Run("creator replaces the expense", func(t *testing.T) {
		resp, err := env.expenses.UpdateExpense(ctx, as(tr.alice, update))
		require.NoError(t, err)
		got := resp.Msg.Expense
		assert.Equal(t, "Dinner and drinks", got.Description)
		assert.Equal(t, "entertainment", got.Category)
		assert.Equal(t, tr.aID, got.PayerID)
		assertAmount(t, "600", got.Total)

		balances := tr.netBalances(t)
		assert.Equal(t, "400.00", balances[tr.aID])
		assert.Equal(t, "-200.00", balances[tr.bID])
		assert.Equal(t, "-200.00", balances[tr.cID])
	})

	t.Run("split is re-validated", func(t *testing.T) {
		bad := *update
		bad.Split = SplitInput{
			Type:         "exact",
			Participants: []string{tr.aID, tr.bID},
			Amounts:      map[string]decimal.Decimal{tr.aID: amt("100"), tr.bID: amt("100")},
		}
		_, err := env.expenses.UpdateExpense(ctx, as(tr.alice, &bad))
		assertCode(t, connect.CodeInvalidArgument, err)

		assert.Equal(t, "400.00", tr.netBalances(t)[tr.aID])
	})

	t.Run("payer may edit after a change of payer", func(t *testing.T) {
		moved := *update
		moved.PayerID = tr.bID
		_, err := env.expenses.UpdateExpense(ctx, as(tr.alice, &moved))
		require.NoError(t, err)

		moved.Description = "Bob's dinner"
		resp, err := env.expenses.UpdateExpense(ctx, as(tr.bob, &moved))
		require.NoError(t, err)
		assert.Equal(t, "Bob's dinner", resp.Msg.Expense.Description)
		assert.Equal(t, "400.00", tr.netBalances(t)[tr.bID])
	})

	t.Run("unknown expense", func(t *testing.T) {
		missing := *update
		missing.ExpenseID = "missing"
		_, err := env.expenses.UpdateExpense(ctx, as(tr.alice, &missing))
		assertCode(t, connect.CodeNotFound, err)
	})

	t.Run("outsiders cannot tell existing expenses from missing ones", func(t *testing.T) {
		_, err := env.expenses.UpdateExpense(ctx, as(tr.eve, update))
		assertCode(t, connect.CodeNotFound, err)

		missing := *update
		missing.ExpenseID = "missing"
		_, err = env.expenses.UpdateExpense(ctx, as(tr.eve, &missing))
		assertCode(t, connect.CodeNotFound, err)

		_, err = env.expenses.DeleteExpense(ctx, as(tr.eve, &DeleteExpenseRequest{ExpenseID: e.ID}))
		assertCode(t, connect.CodeNotFound, err)
	})
}

func TestDeleteExpense(t *testing.T) {
	env := newTestEnv(t, Deps{})
	tr := newTrip(t, env)
	ctx := context.Background()

	kept := tr.addExpense(t, tr.alice, "30.00", tr.equalSplit())
	e := tr.addExpense(t, tr.bob, "300.00", tr.equalSplit())

	_, err := env.expenses.DeleteExpense(ctx, as(tr.alice, &DeleteExpenseRequest{ExpenseID: e.ID}))
	assertCode(t, connect.CodePermissionDenied, err)

	_, err = env.expenses.DeleteExpense(ctx, as(tr.bob, &DeleteExpenseRequest{ExpenseID: e.ID}))
	require.NoError(t, err)

	balances := tr.netBalances(t)
	assert.Equal(t, "20.00", balances[tr.aID])
	assert.Equal(t, "-10.00", balances[tr.bID])

	_, err = env.expenses.DeleteExpense(ctx, as(tr.bob, &DeleteExpenseRequest{ExpenseID: e.ID}))
	assertCode(t, connect.CodeNotFound, err)

	_, err = env.expenses.UpdateExpense(ctx, as(tr.bob, &UpdateExpenseRequest{
		ExpenseID: e.ID, Description: "revive", Total: amt("1"), Split: tr.equalSplit(),
	}))
	assertCode(t, connect.CodeNotFound, err)

	list, err := env.expenses.ListExpenses(ctx, as(tr.bob, &ListExpensesRequest{GroupID: tr.groupID}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Expenses, 1)
	assert.Equal(t, kept.ID, list.Msg.Expenses[0].ID)

	list, err = env.expenses.ListExpenses(ctx, as(tr.alice, &ListExpensesRequest{GroupID: tr.groupID, IncludeDeleted: true}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Expenses, 2)
	var deleted int
	for _, got := range list.Msg.Expenses {
		if got.Deleted {
			deleted++
			assert.Equal(t, e.ID, got.ID)
		}
	}
	assert.Equal(t, 1, deleted)

	b := tr.balances(t)
	assert.Equal(t, 1, b.Stats.ExpenseCount)
	assertAmount(t, "30", b.Stats.TotalExpenses)
}

func TestGetExpense(t *testing.T) {
	env := newTestEnv(t, Deps{})
	tr := newTrip(t, env)
	ctx := context.Background()

	e := tr.addExpense(t, tr.alice, "300.00", tr.equalSplit())

	resp, err := env.expenses.GetExpense(ctx, as(tr.bob, &GetExpenseRequest{ExpenseID: e.ID}))
	require.NoError(t, err)
	got := resp.Msg.Expense
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, tr.groupID, got.GroupID)
	assert.Equal(t, "Dinner", got.Description)
	assertAmount(t, "300", got.Total)
	require.Len(t, got.Shares, 3)
	assert.False(t, got.Deleted)

	t.Run("deleted expenses stay readable", func(t *testing.T) {
		_, err := env.expenses.DeleteExpense(ctx, as(tr.alice, &DeleteExpenseRequest{ExpenseID: e.ID}))
		require.NoError(t, err)

		resp, err := env.expenses.GetExpense(ctx, as(tr.bob, &GetExpenseRequest{ExpenseID: e.ID}))
		require.NoError(t, err)
		assert.True(t, resp.Msg.Expense.Deleted)
	})

	t.Run("outsiders cannot tell existing expenses from missing ones", func(t *testing.T) {
		_, err := env.expenses.GetExpense(ctx, as(tr.eve, &GetExpenseRequest{ExpenseID: e.ID}))
		assertCode(t, connect.CodeNotFound, err)
		_, err = env.expenses.GetExpense(ctx, as(tr.eve, &GetExpenseRequest{ExpenseID: "missing"}))
		assertCode(t, connect.CodeNotFound, err)
	})

	t.Run("bad requests", func(t *testing.T) {
		_, err := env.expenses.GetExpense(ctx, as(tr.alice, &GetExpenseRequest{}))
		assertCode(t, connect.CodeInvalidArgument, err)
		_, err = env.expenses.GetExpense(ctx, connect.NewRequest(&GetExpenseRequest{ExpenseID: e.ID}))
		assertCode(t, connect.CodeUnauthenticated, err)
	})
}

func TestListExpensesDenied(t *testing.T) {
	env := newTestEnv(t, Deps{})
	tr := newTrip(t, env)

	_, err := env.expenses.ListExpenses(context.Background(), as(tr.eve, &ListExpensesRequest{GroupID: tr.groupID}))
	assertCode(t, connect.CodePermissionDenied, err)
}
