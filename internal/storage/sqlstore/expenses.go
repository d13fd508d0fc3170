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

const expenseColumns = `id, group_id, description, category, total, currency, payer_id, split_type,
	notes, expense_date, created_by, created_at, updated_at, deleted_at`

// CreateExpense persists a new expense and its shares in one transaction.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	// Generate IDs if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = expense.CreatedAt
	if expense.ExpenseDate == 0 {
		expense.ExpenseDate = expense.CreatedAt
	}

	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO expenses (`+expenseColumns+`)
			 VALUES (`+placeholders(14)+`)`),
			expense.ID, expense.GroupID, expense.Description, string(expense.Category),
			int64(expense.Total), string(expense.Currency), expense.PayerID, string(expense.SplitType),
			expense.Notes, expense.ExpenseDate, expense.CreatedBy, expense.CreatedAt, expense.UpdatedAt,
			expense.DeletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		return s.insertShares(ctx, tx, expense)
	})
}

func (s *Store) insertShares(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i, share := range expense.Shares {
		_, err := tx.ExecContext(ctx, s.rebind(
			"INSERT INTO expense_shares (expense_id, member_id, seq, amount, basis_points) VALUES (?, ?, ?, ?, ?)"),
			expense.ID, share.MemberID, i, int64(share.Amount), int64(share.BasisPoints),
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its shares.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?"), expenseID)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	shares, err := s.loadShares(ctx, s.db,
		"SELECT expense_id, member_id, amount, basis_points FROM expense_shares WHERE expense_id = ? ORDER BY seq",
		expenseID)
	if err != nil {
		return nil, err
	}
	expense.Shares = shares[expenseID]
	return expense, nil
}

// UpdateExpense replaces a live expense's fields and its full share set.
func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now().Unix()

	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(
			`UPDATE expenses SET description = ?, category = ?, total = ?, payer_id = ?, split_type = ?,
			 notes = ?, expense_date = ?, updated_at = ?
			 WHERE id = ? AND deleted_at = 0`),
			expense.Description, string(expense.Category), int64(expense.Total), expense.PayerID,
			string(expense.SplitType), expense.Notes, expense.ExpenseDate, expense.UpdatedAt, expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if err := expectAffected(res, "expense", expense.ID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM expense_shares WHERE expense_id = ?"), expense.ID); err != nil {
			return fmt.Errorf("failed to delete old shares: %w", err)
		}
		return s.insertShares(ctx, tx, expense)
	})
}

// SoftDeleteExpense marks an expense as deleted without removing it.
func (s *Store) SoftDeleteExpense(ctx context.Context, expenseID string, deletedAt int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE expenses SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at = 0"),
		deletedAt, deletedAt, expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return expectAffected(res, "expense", expenseID)
}

// ListExpensesByGroup retrieves a group's expenses with shares, newest first.
func (s *Store) ListExpensesByGroup(ctx context.Context, groupID string, includeDeleted bool) ([]*models.Expense, error) {
	return s.listExpenses(ctx, s.db, groupID, includeDeleted)
}

func (s *Store) listExpenses(ctx context.Context, q queryer, groupID string, includeDeleted bool) ([]*models.Expense, error) {
	filter := ""
	if !includeDeleted {
		filter = " AND deleted_at = 0"
	}

	rows, err := q.QueryContext(ctx, s.rebind(
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ?"+filter+
			" ORDER BY expense_date DESC, created_at DESC, id"),
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	// Close before the next query: pgx cannot run two queries on one connection at once.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	shares, err := s.loadShares(ctx, q,
		`SELECT sh.expense_id, sh.member_id, sh.amount, sh.basis_points
		 FROM expense_shares sh JOIN expenses e ON e.id = sh.expense_id
		 WHERE e.group_id = ?`+filter+`
		 ORDER BY sh.expense_id, sh.seq`,
		groupID)
	if err != nil {
		return nil, err
	}
	for _, e := range expenses {
		e.Shares = shares[e.ID]
	}
	return expenses, nil
}

// loadShares runs a share query and groups the rows by expense ID.
func (s *Store) loadShares(ctx context.Context, q queryer, query string, args ...any) (map[string][]models.ExpenseShare, error) {
	rows, err := q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer rows.Close()

	shares := make(map[string][]models.ExpenseShare)
	for rows.Next() {
		var expenseID string
		var share models.ExpenseShare
		var amount, bp int64
		if err := rows.Scan(&expenseID, &share.MemberID, &amount, &bp); err != nil {
			return nil, fmt.Errorf("failed to scan expense share: %w", err)
		}
		share.Amount = money.Amount(amount)
		share.BasisPoints = money.BasisPoints(bp)
		shares[expenseID] = append(shares[expenseID], share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense shares: %w", err)
	}
	return shares, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	e := &models.Expense{}
	var category, currency, splitType string
	var total int64
	err := row.Scan(&e.ID, &e.GroupID, &e.Description, &category, &total, &currency, &e.PayerID,
		&splitType, &e.Notes, &e.ExpenseDate, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	if err != nil {
		return nil, err
	}
	e.Category = models.Category(category)
	e.Total = money.Amount(total)
	e.Currency = money.Currency(currency)
	e.SplitType = models.SplitType(splitType)
	return e, nil
}
