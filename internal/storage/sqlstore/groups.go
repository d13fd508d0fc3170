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

// CreateGroup persists a new group and its initial members.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	// Generate IDs if not set
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Status == "" {
		group.Status = models.GroupActive
	}

	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(
			"INSERT INTO expense_groups (id, name, description, status, currency, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"),
			group.ID, group.Name, group.Description, string(group.Status), string(group.Currency), group.CreatedBy, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		for i := range group.Members {
			m := &group.Members[i]
			m.GroupID = group.ID
			if m.JoinedAt == 0 {
				m.JoinedAt = group.CreatedAt
			}
			if err := s.insertMember(ctx, tx, m, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) insertMember(ctx context.Context, q queryer, m *models.Member, seq int) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := q.ExecContext(ctx, s.rebind(
		"INSERT INTO group_members (id, group_id, display_name, user_id, active, joined_at, seq) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		m.ID, m.GroupID, m.DisplayName, m.UserID, boolToInt(m.Active), m.JoinedAt, seq,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID, including all members.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.getGroup(ctx, s.db, groupID)
}

func (s *Store) getGroup(ctx context.Context, q queryer, groupID string) (*models.Group, error) {
	group := &models.Group{}
	var status, currency string
	err := q.QueryRowContext(ctx, s.rebind(
		"SELECT id, name, description, status, currency, created_by, created_at FROM expense_groups WHERE id = ?"),
		groupID,
	).Scan(&group.ID, &group.Name, &group.Description, &status, &currency, &group.CreatedBy, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	group.Status = models.GroupStatus(status)
	group.Currency = money.Currency(currency)

	rows, err := q.QueryContext(ctx, s.rebind(
		"SELECT id, group_id, display_name, user_id, active, joined_at FROM group_members WHERE group_id = ? ORDER BY joined_at, seq, id"),
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Member
		var active int
		if err := rows.Scan(&m.ID, &m.GroupID, &m.DisplayName, &m.UserID, &active, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Active = active != 0
		group.Members = append(group.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return group, nil
}

// ListGroupsForUser returns every group where userID is an active member, newest first.
func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT g.id FROM expense_groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ? AND m.active = 1
		 GROUP BY g.id, g.created_at
		 ORDER BY g.created_at DESC, g.id`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	groups := make([]*models.Group, 0, len(ids))
	for _, id := range ids {
		group, err := s.GetGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// AddMembers appends members to an existing group.
func (s *Store) AddMembers(ctx context.Context, groupID string, members []*models.Member) error {
	now := time.Now().Unix()
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, s.rebind("SELECT 1 FROM expense_groups WHERE id = ?"), groupID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check group existence: %w", err)
		}

		var next int
		err = tx.QueryRowContext(ctx, s.rebind(
			"SELECT COALESCE(MAX(seq), -1) + 1 FROM group_members WHERE group_id = ?"),
			groupID,
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("failed to read member sequence: %w", err)
		}

		for i, m := range members {
			m.GroupID = groupID
			if m.JoinedAt == 0 {
				m.JoinedAt = now
			}
			if err := s.insertMember(ctx, tx, m, next+i); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetMemberActive flips a member's active flag.
func (s *Store) SetMemberActive(ctx context.Context, groupID, memberID string, active bool) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE group_members SET active = ? WHERE id = ? AND group_id = ?"),
		boolToInt(active), memberID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return expectAffected(res, "member", memberID)
}

// UpdateGroup writes the group's name, description and status.
func (s *Store) UpdateGroup(ctx context.Context, group *models.Group) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE expense_groups SET name = ?, description = ?, status = ? WHERE id = ?"),
		group.Name, group.Description, string(group.Status), group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return expectAffected(res, "group", group.ID)
}

// DeleteGroup removes a group with its members, expenses, shares and settlements.
// Children are deleted explicitly rather than through ON DELETE CASCADE: expense shares and
// settlements also reference group_members, which a cascade may reach first.
func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		stmts := []string{
			"DELETE FROM expense_shares WHERE expense_id IN (SELECT id FROM expenses WHERE group_id = ?)",
			"DELETE FROM settlements WHERE group_id = ?",
			"DELETE FROM expenses WHERE group_id = ?",
			"DELETE FROM group_members WHERE group_id = ?",
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, s.rebind(stmt), groupID); err != nil {
				return fmt.Errorf("failed to delete group data: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM expense_groups WHERE id = ?"), groupID)
		if err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		return expectAffected(res, "group", groupID)
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func expectAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
