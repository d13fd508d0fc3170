package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberPosition(t *testing.T) {
	summary, err := Summarize([]ExpenseForBalance{
		{ID: "e1", Total: 300, PayerID: "A", Shares: Shares{"A": 100, "B": 100, "C": 100}},
	}, nil, []string{"A", "B", "C"})
	require.NoError(t, err)

	creditor, err := MemberPosition(summary, "A")
	require.NoError(t, err)
	assert.EqualValues(t, 200, creditor.Balance)
	assert.Empty(t, creditor.Owes)
	assert.Len(t, creditor.IsOwed, 2)
	assert.EqualValues(t, 200, creditor.TotalIsOwed)

	debtor, err := MemberPosition(summary, "C")
	require.NoError(t, err)
	assert.EqualValues(t, -100, debtor.Balance)
	assert.Equal(t, []DebtEdge{{From: "C", To: "A", Amount: 100}}, debtor.Owes)
	assert.EqualValues(t, 100, debtor.TotalOwes)
	assert.Zero(t, debtor.TotalIsOwed)

	_, err = MemberPosition(summary, "Z")
	require.ErrorIs(t, err, ErrUnknownMember)
}
