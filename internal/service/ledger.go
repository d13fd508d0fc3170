package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/cache"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/lock"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// Deps are the collaborators shared by every service. Only Store is required.
type Deps struct {
	Store   storage.Store
	Cache   cache.BalanceCache
	Locker  lock.GroupLocker
	Metrics *metrics.Metrics

	// DefaultCurrency applies to groups created without one.
	DefaultCurrency money.Currency
}

// Ledger is the state shared by the group, expense and settlement services: it serializes
// writes per group and serves balance summaries through the cache.
type Ledger struct {
	store           storage.Store
	cache           cache.BalanceCache
	locker          lock.GroupLocker
	metrics         *metrics.Metrics
	defaultCurrency money.Currency
	now             func() time.Time
}

func NewLedger(deps Deps) *Ledger {
	l := &Ledger{
		store:           deps.Store,
		cache:           deps.Cache,
		locker:          deps.Locker,
		metrics:         deps.Metrics,
		defaultCurrency: deps.DefaultCurrency,
		now:             time.Now,
	}
	if l.cache == nil {
		l.cache = cache.NewMemoryCache(0)
	}
	if l.locker == nil {
		l.locker = lock.NewLocalLocker()
	}
	if l.defaultCurrency == "" {
		l.defaultCurrency = money.INR
	}
	return l
}

// callerMember loads the group and the caller's active member in it.
func (l *Ledger) callerMember(ctx context.Context, groupID string) (*models.Group, *models.Member, error) {
	if groupID == "" {
		return nil, nil, invalidArgument("group_id is required")
	}
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, nil, connect.NewError(connect.CodeUnauthenticated, errNoIdentity)
	}

	group, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	member, ok := group.MemberForUser(userID)
	if !ok {
		return nil, nil, permissionDenied("not a member of this group")
	}
	return group, member, nil
}

// recordMember is callerMember for a record looked up by its own ID. A caller outside the
// record's group gets the same NotFound as for a missing record, so IDs reveal nothing.
func (l *Ledger) recordMember(ctx context.Context, groupID, kind, id string) (*models.Group, *models.Member, error) {
	group, member, err := l.callerMember(ctx, groupID)
	if err != nil && connect.CodeOf(err) == connect.CodePermissionDenied {
		return nil, nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound))
	}
	return group, member, err
}

// write runs fn under the group's lock and invalidates the cached summary once fn commits.
// The cache must be reachable before writing. The second invalidation drops any summary a
// concurrent reader cached while fn ran; it is retried once, and if both attempts fail the
// stale entry lives until the cache TTL expires.
func (l *Ledger) write(ctx context.Context, groupID string, fn func(ctx context.Context) error) error {
	return l.locker.WithGroupLock(ctx, groupID, func(ctx context.Context) error {
		if err := l.cache.Invalidate(ctx, groupID); err != nil {
			return fmt.Errorf("failed to invalidate balances: %w", err)
		}
		if err := fn(ctx); err != nil {
			return err
		}
		err := l.cache.Invalidate(ctx, groupID)
		if err != nil {
			slog.Warn("Retrying balance invalidation after write", "group_id", groupID, "error", err)
			err = l.cache.Invalidate(ctx, groupID)
		}
		if err != nil {
			slog.Error("Failed to invalidate balances after write", "group_id", groupID, "error", err)
		}
		return nil
	})
}

// summary returns the group's balance summary, computing it on a cache miss. A cache
// outage degrades to recomputation.
func (l *Ledger) summary(ctx context.Context, groupID string) (*calculator.Summary, error) {
	version, err := l.cache.Version(ctx, groupID)
	cacheUp := err == nil
	if !cacheUp {
		slog.Warn("Balance cache unavailable", "group_id", groupID, "error", err)
	}

	if cacheUp {
		summary, ok, err := l.cache.Get(ctx, groupID, version)
		if err != nil {
			slog.Warn("Balance cache read failed", "group_id", groupID, "error", err)
		}
		if ok {
			l.cacheHit()
			return summary, nil
		}
		l.cacheMiss()
	}

	snap, err := l.store.GroupSnapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	summary, err := summarize(snap)
	if err != nil {
		slog.Error("Balance computation failed", "group_id", groupID, "error", err)
		return nil, err
	}
	if l.metrics != nil {
		l.metrics.ObservePlan(len(summary.Debts))
	}

	if cacheUp {
		if err := l.cache.Set(ctx, groupID, version, summary); err != nil {
			slog.Warn("Balance cache write failed", "group_id", groupID, "error", err)
		}
	}
	return summary, nil
}

func (l *Ledger) cacheHit() {
	if l.metrics != nil {
		l.metrics.CacheHit()
	}
}

func (l *Ledger) cacheMiss() {
	if l.metrics != nil {
		l.metrics.CacheMiss()
	}
}

// summarize feeds a snapshot to the calculator. Every member ever in the group takes part
// so historical expenses of departed members still resolve; only confirmed settlements count.
func summarize(snap *storage.Snapshot) (*calculator.Summary, error) {
	expenses := make([]calculator.ExpenseForBalance, 0, len(snap.Expenses))
	for _, e := range snap.Expenses {
		expenses = append(expenses, expenseForBalance(e))
	}

	var settlements []calculator.SettlementForBalance
	for _, s := range snap.Settlements {
		if s.Status != models.SettlementConfirmed {
			continue
		}
		settlements = append(settlements, calculator.SettlementForBalance{
			ID:           s.ID,
			FromMemberID: s.FromMemberID,
			ToMemberID:   s.ToMemberID,
			Amount:       s.Amount,
		})
	}

	return calculator.Summarize(expenses, settlements, snap.Group.MemberIDs())
}

func expenseForBalance(e *models.Expense) calculator.ExpenseForBalance {
	shares := make(calculator.Shares, len(e.Shares))
	for _, s := range e.Shares {
		shares[s.MemberID] = s.Amount
	}
	return calculator.ExpenseForBalance{
		ID:      e.ID,
		Total:   e.Total,
		PayerID: e.PayerID,
		Shares:  shares,
		Deleted: e.Deleted(),
	}
}
