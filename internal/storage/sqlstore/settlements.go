package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

const settlementColumns = `id, group_id, from_member_id, to_member_id, amount, currency, method,
	reference, status, note, created_by, created_at, resolved_at`

// CreateSettlement persists a new settlement to the database.
func (s *Store) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}
	if settlement.Status == "" {
		settlement.Status = models.SettlementPending
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO settlements (`+settlementColumns+`)
		 VALUES (`+placeholders(13)+`)`),
		settlement.ID, settlement.GroupID, settlement.FromMemberID, settlement.ToMemberID,
		int64(settlement.Amount), string(settlement.Currency), string(settlement.Method),
		settlement.Reference, string(settlement.Status), settlement.Note, settlement.CreatedBy,
		settlement.CreatedAt, settlement.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *Store) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlement, err := scanSettlement(s.db.QueryRowContext(ctx, s.rebind(
		"SELECT "+settlementColumns+" FROM settlements WHERE id = ?"), settlementID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return settlement, nil
}

// ResolveSettlement moves a pending settlement to its final status.
func (s *Store) ResolveSettlement(ctx context.Context, settlementID string, status models.SettlementStatus, resolvedAt int64) error {
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, s.rebind("SELECT status FROM settlements WHERE id = ?"), settlementID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check settlement status: %w", err)
		}

		res, err := tx.ExecContext(ctx, s.rebind(
			"UPDATE settlements SET status = ?, resolved_at = ? WHERE id = ? AND status = ?"),
			string(status), resolvedAt, settlementID, string(models.SettlementPending),
		)
		if err != nil {
			return fmt.Errorf("failed to resolve settlement: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("settlement %s is %s: %w", settlementID, current, storage.ErrConflict)
		}
		return nil
	})
}

// ListSettlementsByGroup retrieves all settlements for a group.
func (s *Store) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	return s.listSettlements(ctx, s.db, groupID)
}

func (s *Store) listSettlements(ctx context.Context, q queryer, groupID string) ([]*models.Settlement, error) {
	rows, err := q.QueryContext(ctx, s.rebind(
		"SELECT "+settlementColumns+" FROM settlements WHERE group_id = ? ORDER BY created_at DESC, id"),
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

func scanSettlement(row rowScanner) (*models.Settlement, error) {
	st := &models.Settlement{}
	var amount int64
	var currency, method, status string
	err := row.Scan(&st.ID, &st.GroupID, &st.FromMemberID, &st.ToMemberID, &amount, &currency,
		&method, &st.Reference, &status, &st.Note, &st.CreatedBy, &st.CreatedAt, &st.ResolvedAt)
	if err != nil {
		return nil, err
	}
	st.Amount = money.Amount(amount)
	st.Currency = money.Currency(currency)
	st.Method = models.PaymentMethod(method)
	st.Status = models.SettlementStatus(status)
	return st, nil
}
