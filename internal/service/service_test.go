package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
)

// testEnv is a full server stack on a temp SQLite database, reached through Connect clients.
type testEnv struct {
	groups      *GroupServiceClient
	expenses    *ExpenseServiceClient
	settlements *SettlementServiceClient
	jwt         *auth.JWTManager
	metrics     *metrics.Metrics
	url         string
}

func newTestEnv(t *testing.T, deps Deps) *testEnv {
	t.Helper()

	store, err := sqlstore.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	deps.Store = store
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	ledger := NewLedger(deps)
	jwtManager := auth.NewJWTManager("test-secret", "splitledger-test", time.Hour)

	interceptors := connect.WithInterceptors(
		middleware.Observe(deps.Metrics),
		middleware.RequireAuth(jwtManager),
	)
	mux := http.NewServeMux()
	RegisterGroupService(mux, NewGroupService(ledger), interceptors)
	RegisterExpenseService(mux, NewExpenseService(ledger), interceptors)
	RegisterSettlementService(mux, NewSettlementService(ledger), interceptors)
	mux.Handle("/metrics", deps.Metrics.Handler())

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		groups:      NewGroupServiceClient(server.Client(), server.URL),
		expenses:    NewExpenseServiceClient(server.Client(), server.URL),
		settlements: NewSettlementServiceClient(server.Client(), server.URL),
		jwt:         jwtManager,
		metrics:     deps.Metrics,
		url:         server.URL,
	}
}

// caller is an authenticated user of the test server.
type caller struct {
	userID string
	token  string
}

func (e *testEnv) user(t *testing.T, userID string) caller {
	t.Helper()
	token, err := e.jwt.Generate(userID, userID)
	require.NoError(t, err)
	return caller{userID: userID, token: token}
}

func as[T any](c caller, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+c.token)
	return req
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, amt(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func assertCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}

// trip is a group of Alice (creator), Bob (with an account) and Carol (name only).
type trip struct {
	env             *testEnv
	alice, bob, eve caller
	groupID         string
	aID, bID, cID   string
}

func newTrip(t *testing.T, env *testEnv) *trip {
	t.Helper()
	tr := &trip{
		env:   env,
		alice: env.user(t, "user-alice"),
		bob:   env.user(t, "user-bob"),
		eve:   env.user(t, "user-eve"),
	}
	resp, err := env.groups.CreateGroup(context.Background(), as(tr.alice, &CreateGroupRequest{
		Name:        "Goa Trip",
		CreatorName: "Alice",
		Members: []*MemberInput{
			{DisplayName: "Bob", UserID: "user-bob"},
			{DisplayName: "Carol"},
		},
	}))
	require.NoError(t, err)
	g := resp.Msg.Group
	require.Len(t, g.Members, 3)
	tr.groupID = g.ID
	tr.aID, tr.bID, tr.cID = g.Members[0].ID, g.Members[1].ID, g.Members[2].ID
	return tr
}

func (tr *trip) addExpense(t *testing.T, by caller, total string, split SplitInput) *Expense {
	t.Helper()
	resp, err := tr.env.expenses.CreateExpense(context.Background(), as(by, &CreateExpenseRequest{
		GroupID:     tr.groupID,
		Description: "Dinner",
		Category:    "food",
		Total:       amt(total),
		Split:       split,
	}))
	require.NoError(t, err)
	return resp.Msg.Expense
}

func (tr *trip) balances(t *testing.T) *GetGroupBalancesResponse {
	t.Helper()
	resp, err := tr.env.groups.GetGroupBalances(context.Background(), as(tr.alice, &GetGroupBalancesRequest{GroupID: tr.groupID}))
	require.NoError(t, err)
	return resp.Msg
}

func (tr *trip) netBalances(t *testing.T) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, b := range tr.balances(t).Balances {
		out[b.MemberID] = b.NetBalance.StringFixed(2)
	}
	return out
}

func (tr *trip) equalSplit() SplitInput {
	return SplitInput{Type: "equal", Participants: []string{tr.aID, tr.bID, tr.cID}}
}
