package sqlstore

import (
	"context"
	"fmt"
)

// migrations contains the SQL statements to set up the database schema.
// They are written in the subset shared by SQLite and PostgreSQL and run on startup.
// Order matters: referenced tables come first.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS expense_groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'active',
    currency TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS group_members (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL REFERENCES expense_groups(id) ON DELETE CASCADE,
    display_name TEXT NOT NULL,
    user_id TEXT NOT NULL DEFAULT '',
    active INTEGER NOT NULL DEFAULT 1,
    joined_at BIGINT NOT NULL,
    seq INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL REFERENCES expense_groups(id) ON DELETE CASCADE,
    description TEXT NOT NULL,
    category TEXT NOT NULL,
    total BIGINT NOT NULL,
    currency TEXT NOT NULL,
    payer_id TEXT NOT NULL REFERENCES group_members(id),
    split_type TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    expense_date BIGINT NOT NULL,
    created_by TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    deleted_at BIGINT NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS expense_shares (
    expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
    member_id TEXT NOT NULL REFERENCES group_members(id),
    seq INTEGER NOT NULL,
    amount BIGINT NOT NULL,
    basis_points BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (expense_id, member_id)
)`,
	`CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL REFERENCES expense_groups(id) ON DELETE CASCADE,
    from_member_id TEXT NOT NULL REFERENCES group_members(id),
    to_member_id TEXT NOT NULL REFERENCES group_members(id),
    amount BIGINT NOT NULL,
    currency TEXT NOT NULL,
    method TEXT NOT NULL,
    reference TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    resolved_at BIGINT NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS idx_group_members_group_id ON group_members(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_group_members_user_id ON group_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_group_id ON expenses(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_shares_expense_id ON expense_shares(expense_id)`,
	`CREATE INDEX IF NOT EXISTS idx_settlements_group_id ON settlements(group_id)`,
}

// runMigrations executes the schema setup one statement at a time; the pgx driver rejects
// multi-statement strings under the extended protocol.
func (s *Store) runMigrations(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
