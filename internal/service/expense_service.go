package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// ExpenseService records shared expenses.
type ExpenseService struct {
	ledger *Ledger
}

// NewExpenseService creates a new ExpenseService on the shared ledger.
func NewExpenseService(ledger *Ledger) *ExpenseService {
	return &ExpenseService{ledger: ledger}
}

// PreviewSplit validates a split and returns the resulting shares without storing anything.
func (s *ExpenseService) PreviewSplit(ctx context.Context, req *connect.Request[PreviewSplitRequest]) (*connect.Response[PreviewSplitResponse], error) {
	slog.Info("PreviewSplit request received",
		"group_id", req.Msg.GroupID,
		"split_type", req.Msg.Split.Type,
		"participants_count", len(req.Msg.Split.Participants),
	)

	group, _, err := s.ledger.callerMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	split, err := resolveSplit(group, req.Msg.Total, req.Msg.Split)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	shares := make([]*Share, len(split.shares))
	for i, sh := range split.shares {
		shares[i] = toShare(sh, group.Currency, split.kind == models.SplitPercentage)
	}
	return connect.NewResponse(&PreviewSplitResponse{Shares: shares}), nil
}

// CreateExpense validates and stores a new expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	msg := req.Msg
	slog.Info("CreateExpense request received",
		"group_id", msg.GroupID,
		"description", msg.Description,
		"split_type", msg.Split.Type,
		"participants_count", len(msg.Split.Participants),
	)

	var expense *models.Expense
	err := s.ledger.write(ctx, msg.GroupID, func(ctx context.Context) error {
		group, caller, err := s.ledger.callerMember(ctx, msg.GroupID)
		if err != nil {
			return err
		}
		payerID := msg.PayerID
		if payerID == "" {
			payerID = caller.ID
		}

		expense = &models.Expense{
			GroupID:     group.ID,
			Currency:    group.Currency,
			ExpenseDate: msg.ExpenseDate,
			CreatedBy:   caller.UserID,
		}
		if err := fillExpense(expense, group, expenseFields{
			description: msg.Description,
			category:    msg.Category,
			total:       msg.Total,
			payerID:     payerID,
			split:       msg.Split,
			notes:       msg.Notes,
		}); err != nil {
			return err
		}

		return s.ledger.store.CreateExpense(ctx, expense)
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"group_id", expense.GroupID,
		"total", expense.Total.Format(expense.Currency),
	)

	return connect.NewResponse(&CreateExpenseResponse{Expense: toExpense(expense)}), nil
}

// UpdateExpense replaces an expense's fields and re-validates its split. Only the member
// who recorded the expense or its payer may change it.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	msg := req.Msg
	slog.Info("UpdateExpense request received", "expense_id", msg.ExpenseID)

	expense, err := s.editExpense(ctx, msg.ExpenseID, func(ctx context.Context, group *models.Group, expense *models.Expense) error {
		payerID := msg.PayerID
		if payerID == "" {
			payerID = expense.PayerID
		}
		if msg.ExpenseDate != 0 {
			expense.ExpenseDate = msg.ExpenseDate
		}
		if err := fillExpense(expense, group, expenseFields{
			description: msg.Description,
			category:    msg.Category,
			total:       msg.Total,
			payerID:     payerID,
			split:       msg.Split,
			notes:       msg.Notes,
		}); err != nil {
			return err
		}
		return s.ledger.store.UpdateExpense(ctx, expense)
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Expense updated", "expense_id", expense.ID, "group_id", expense.GroupID)

	return connect.NewResponse(&UpdateExpenseResponse{Expense: toExpense(expense)}), nil
}

// DeleteExpense soft-deletes an expense so it stops affecting balances.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, err := s.editExpense(ctx, req.Msg.ExpenseID, func(ctx context.Context, _ *models.Group, expense *models.Expense) error {
		return s.ledger.store.SoftDeleteExpense(ctx, expense.ID, s.ledger.now().Unix())
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Expense deleted", "expense_id", expense.ID, "group_id", expense.GroupID)

	return connect.NewResponse(&DeleteExpenseResponse{}), nil
}

// GetExpense returns one expense of a group the caller belongs to, deleted or not.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error) {
	expenseID := req.Msg.ExpenseID
	slog.Info("GetExpense request received", "expense_id", expenseID)

	if expenseID == "" {
		return nil, invalidArgument("expense_id is required")
	}
	expense, err := s.ledger.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	if _, _, err := s.ledger.recordMember(ctx, expense.GroupID, "expense", expense.ID); err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	return connect.NewResponse(&GetExpenseResponse{Expense: toExpense(expense)}), nil
}

// ListExpenses returns a group's expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	slog.Info("ListExpenses request received", "group_id", req.Msg.GroupID, "include_deleted", req.Msg.IncludeDeleted)

	if _, _, err := s.ledger.callerMember(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	expenses, err := s.ledger.store.ListExpensesByGroup(ctx, req.Msg.GroupID, req.Msg.IncludeDeleted)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	out := make([]*Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toExpense(e)
	}

	slog.Info("ListExpenses successful", "group_id", req.Msg.GroupID, "count", len(out))

	return connect.NewResponse(&ListExpensesResponse{Expenses: out}), nil
}

// editExpense loads a live expense under its group's lock, checks the caller may change it
// and runs fn.
func (s *ExpenseService) editExpense(
	ctx context.Context,
	expenseID string,
	fn func(ctx context.Context, group *models.Group, expense *models.Expense) error,
) (*models.Expense, error) {
	if expenseID == "" {
		return nil, invalidArgument("expense_id is required")
	}
	found, err := s.ledger.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.ledger.recordMember(ctx, found.GroupID, "expense", found.ID); err != nil {
		return nil, err
	}

	var expense *models.Expense
	err = s.ledger.write(ctx, found.GroupID, func(ctx context.Context) error {
		group, caller, err := s.ledger.recordMember(ctx, found.GroupID, "expense", found.ID)
		if err != nil {
			return err
		}
		// Re-read under the lock.
		expense, err = s.ledger.store.GetExpense(ctx, expenseID)
		if err != nil {
			return err
		}
		if expense.Deleted() {
			return connect.NewError(connect.CodeNotFound, errors.New("expense was deleted"))
		}
		if expense.CreatedBy != caller.UserID && expense.PayerID != caller.ID {
			return permissionDenied("only the creator or payer can change this expense")
		}
		return fn(ctx, group, expense)
	})
	return expense, err
}

type expenseFields struct {
	description string
	category    string
	total       decimal.Decimal
	payerID     string
	split       SplitInput
	notes       string
}

// fillExpense validates the editable fields against the group and writes them to e.
func fillExpense(e *models.Expense, group *models.Group, f expenseFields) error {
	description := strings.TrimSpace(f.description)
	if description == "" {
		return invalidArgument("description is required")
	}
	category, err := models.ParseCategory(f.category)
	if err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err := requireActive(group, f.payerID, "payer"); err != nil {
		return err
	}

	split, err := resolveSplit(group, f.total, f.split)
	if err != nil {
		return err
	}

	e.Description = description
	e.Category = category
	e.Total = split.total
	e.PayerID = f.payerID
	e.SplitType = split.kind
	e.Shares = split.shares
	e.Notes = strings.TrimSpace(f.notes)
	return nil
}

type resolvedSplit struct {
	kind   models.SplitType
	total  money.Amount
	shares []models.ExpenseShare
}

// resolveSplit converts a wire split into minor units, checks every participant is an
// active member and runs the calculator.
func resolveSplit(group *models.Group, totalDec decimal.Decimal, in SplitInput) (*resolvedSplit, error) {
	cur := group.Currency
	total, err := money.FromDecimal(totalDec, cur)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("total: %w", err))
	}
	for _, p := range in.Participants {
		if err := requireActive(group, p, "participant"); err != nil {
			return nil, err
		}
	}

	var strategy calculator.Strategy
	var percents map[string]money.BasisPoints
	switch models.SplitType(strings.ToLower(in.Type)) {
	case models.SplitEqual, "":
		strategy = calculator.EqualSplit{}
	case models.SplitExact:
		amounts := make(map[string]money.Amount, len(in.Amounts))
		for id, d := range in.Amounts {
			a, err := money.FromDecimal(d, cur)
			if err != nil {
				return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("amount for %s: %w", id, err))
			}
			amounts[id] = a
		}
		strategy = calculator.ExactSplit{Amounts: amounts}
	case models.SplitPercentage:
		percents = make(map[string]money.BasisPoints, len(in.Percentages))
		for id, d := range in.Percentages {
			bp, err := money.PercentFromDecimal(d)
			if err != nil {
				return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("percentage for %s: %w", id, err))
			}
			percents[id] = bp
		}
		strategy = calculator.PercentageSplit{BasisPoints: percents}
	default:
		return nil, invalidArgument("unsupported split type %q", in.Type)
	}

	shares, err := calculator.ValidateSplit(total, strategy, in.Participants)
	if err != nil {
		return nil, err
	}

	out := &resolvedSplit{
		kind:   models.SplitType(strategy.Kind()),
		total:  total,
		shares: make([]models.ExpenseShare, len(in.Participants)),
	}
	for i, p := range in.Participants {
		out.shares[i] = models.ExpenseShare{MemberID: p, Amount: shares[p], BasisPoints: percents[p]}
	}
	return out, nil
}

func requireActive(group *models.Group, memberID, role string) error {
	m, ok := group.FindMember(memberID)
	if !ok || !m.Active {
		return invalidArgument("%s %q is not an active member of the group", role, memberID)
	}
	return nil
}
