package sqlstore

import (
	"context"
	"database/sql"

	"github.com/mmynk/splitledger/internal/storage"
)

// GroupSnapshot reads the group, its live expenses and all settlements inside one
// repeatable-read transaction, so a concurrent write can never produce a half-applied view.
func (s *Store) GroupSnapshot(ctx context.Context, groupID string) (*storage.Snapshot, error) {
	// SQLite transactions are already serializable with a single connection.
	var opts *sql.TxOptions
	if s.driver == DriverPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}

	var snap storage.Snapshot
	err := s.inTx(ctx, opts, func(tx *sql.Tx) error {
		group, err := s.getGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		expenses, err := s.listExpenses(ctx, tx, groupID, false)
		if err != nil {
			return err
		}
		settlements, err := s.listSettlements(ctx, tx, groupID)
		if err != nil {
			return err
		}
		snap = storage.Snapshot{Group: group, Expenses: expenses, Settlements: settlements}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
