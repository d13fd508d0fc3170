// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a group, expense or settlement does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional update finds the record in another state.
	ErrConflict = errors.New("conflict")
)

// Snapshot is a consistent read of everything a group's balances depend on.
type Snapshot struct {
	Group *models.Group

	// Expenses excludes soft-deleted expenses.
	Expenses []*models.Expense

	// Settlements holds every settlement regardless of status.
	Settlements []*models.Settlement
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	// CreateGroup persists a new group with its initial members.
	// ID, CreatedAt and member IDs are populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with all of its members, inactive ones included.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns groups where userID is an active member.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// UpdateGroup writes the group's name, description and status.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes the group and everything recorded in it.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddMembers appends members to a group, populating their IDs.
	AddMembers(ctx context.Context, groupID string, members []*models.Member) error

	// SetMemberActive marks a member as having left or rejoined.
	SetMemberActive(ctx context.Context, groupID, memberID string, active bool) error

	// CreateExpense persists a new expense and its shares.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense, soft-deleted or not.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces a live expense's fields and shares.
	// Returns ErrNotFound if it does not exist or was deleted.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// SoftDeleteExpense stamps deleted_at; the row stays for history.
	SoftDeleteExpense(ctx context.Context, expenseID string, deletedAt int64) error

	// ListExpensesByGroup returns a group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string, includeDeleted bool) ([]*models.Expense, error)

	// CreateSettlement persists a new settlement.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// GetSettlement retrieves a settlement by ID.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ResolveSettlement moves a pending settlement to status.
	// Returns ErrConflict if the settlement is no longer pending.
	ResolveSettlement(ctx context.Context, settlementID string, status models.SettlementStatus, resolvedAt int64) error

	// ListSettlementsByGroup returns a group's settlements, newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// GroupSnapshot reads the group, its live expenses and its settlements in one transaction.
	GroupSnapshot(ctx context.Context, groupID string) (*Snapshot, error)

	// Close releases any resources held by the store.
	Close() error
}
