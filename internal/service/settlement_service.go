package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// SettlementService records payments between members. A settlement only counts toward
// balances once the recipient confirms it.
type SettlementService struct {
	ledger *Ledger
}

// NewSettlementService creates a new SettlementService on the shared ledger.
func NewSettlementService(ledger *Ledger) *SettlementService {
	return &SettlementService{ledger: ledger}
}

// RecordSettlement stores a pending payment from the caller (or a member without a linked
// user, recorded on their behalf) to another member.
func (s *SettlementService) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	msg := req.Msg
	slog.Info("RecordSettlement request received",
		"group_id", msg.GroupID,
		"from_member_id", msg.FromMemberID,
		"to_member_id", msg.ToMemberID,
	)

	var settlement *models.Settlement
	err := s.ledger.write(ctx, msg.GroupID, func(ctx context.Context) error {
		group, caller, err := s.ledger.callerMember(ctx, msg.GroupID)
		if err != nil {
			return err
		}

		fromID := msg.FromMemberID
		if fromID == "" {
			fromID = caller.ID
		}
		from, ok := group.FindMember(fromID)
		if !ok || !from.Active {
			return invalidArgument("payer %q is not an active member of the group", fromID)
		}
		if from.ID != caller.ID && from.UserID != "" {
			return permissionDenied("members with an account record their own payments")
		}
		to, ok := group.FindMember(msg.ToMemberID)
		if !ok || !to.Active {
			return invalidArgument("recipient %q is not an active member of the group", msg.ToMemberID)
		}
		if from.ID == to.ID {
			return invalidArgument("cannot settle with yourself")
		}

		amount, err := money.FromDecimal(msg.Amount, group.Currency)
		if err != nil {
			return connect.NewError(connect.CodeInvalidArgument, err)
		}
		if amount <= 0 {
			return invalidArgument("amount must be positive")
		}
		method, err := models.ParsePaymentMethod(msg.Method)
		if err != nil {
			return connect.NewError(connect.CodeInvalidArgument, err)
		}

		settlement = &models.Settlement{
			GroupID:      group.ID,
			FromMemberID: from.ID,
			ToMemberID:   to.ID,
			Amount:       amount,
			Currency:     group.Currency,
			Method:       method,
			Reference:    strings.TrimSpace(msg.Reference),
			Status:       models.SettlementPending,
			Note:         strings.TrimSpace(msg.Note),
			CreatedBy:    caller.UserID,
		}
		return s.ledger.store.CreateSettlement(ctx, settlement)
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"group_id", settlement.GroupID,
		"amount", settlement.Amount.Format(settlement.Currency),
	)

	return connect.NewResponse(&RecordSettlementResponse{Settlement: toSettlement(settlement)}), nil
}

// ResolveSettlement confirms, disputes or cancels a pending settlement.
//
// The recipient confirms or disputes; when the recipient has no linked user the group
// creator acts for them. The payer, or whoever recorded the payment, may cancel it.
func (s *SettlementService) ResolveSettlement(ctx context.Context, req *connect.Request[ResolveSettlementRequest]) (*connect.Response[ResolveSettlementResponse], error) {
	msg := req.Msg
	slog.Info("ResolveSettlement request received", "settlement_id", msg.SettlementID, "action", msg.Action)

	var status models.SettlementStatus
	switch strings.ToLower(msg.Action) {
	case ActionConfirm:
		status = models.SettlementConfirmed
	case ActionDispute:
		status = models.SettlementDisputed
	case ActionCancel:
		status = models.SettlementCancelled
	default:
		return nil, invalidArgument("action must be confirm, dispute or cancel")
	}
	if msg.SettlementID == "" {
		return nil, invalidArgument("settlement_id is required")
	}

	found, err := s.ledger.store.GetSettlement(ctx, msg.SettlementID)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	if _, _, err := s.ledger.recordMember(ctx, found.GroupID, "settlement", found.ID); err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	var settlement *models.Settlement
	err = s.ledger.write(ctx, found.GroupID, func(ctx context.Context) error {
		group, caller, err := s.ledger.recordMember(ctx, found.GroupID, "settlement", found.ID)
		if err != nil {
			return err
		}
		// Re-read under the lock.
		current, err := s.ledger.store.GetSettlement(ctx, msg.SettlementID)
		if err != nil {
			return err
		}
		if err := authorizeResolve(group, caller, current, status); err != nil {
			return err
		}
		if current.Status != models.SettlementPending {
			return failedPrecondition("settlement is %s, not pending", current.Status)
		}

		if err := s.ledger.store.ResolveSettlement(ctx, current.ID, status, s.ledger.now().Unix()); err != nil {
			return err
		}
		settlement, err = s.ledger.store.GetSettlement(ctx, current.ID)
		return err
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Settlement resolved",
		"settlement_id", settlement.ID,
		"group_id", settlement.GroupID,
		"status", settlement.Status,
	)

	return connect.NewResponse(&ResolveSettlementResponse{Settlement: toSettlement(settlement)}), nil
}

// ListSettlements returns a group's settlements, newest first.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	slog.Info("ListSettlements request received", "group_id", req.Msg.GroupID, "status", req.Msg.Status)

	if _, _, err := s.ledger.callerMember(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	settlements, err := s.ledger.store.ListSettlementsByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListSettlements failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	status := models.SettlementStatus(strings.ToLower(req.Msg.Status))
	out := make([]*Settlement, 0, len(settlements))
	for _, st := range settlements {
		if status != "" && st.Status != status {
			continue
		}
		out = append(out, toSettlement(st))
	}

	slog.Info("ListSettlements successful", "group_id", req.Msg.GroupID, "count", len(out))

	return connect.NewResponse(&ListSettlementsResponse{Settlements: out}), nil
}

func authorizeResolve(group *models.Group, caller *models.Member, st *models.Settlement, status models.SettlementStatus) error {
	if status == models.SettlementCancelled {
		if caller.ID == st.FromMemberID || caller.UserID == st.CreatedBy {
			return nil
		}
		return permissionDenied("only the payer can cancel a settlement")
	}

	if caller.ID == st.ToMemberID {
		return nil
	}
	to, ok := group.FindMember(st.ToMemberID)
	if !ok {
		return connect.NewError(connect.CodeInternal, errors.New("settlement recipient missing from group"))
	}
	if to.UserID == "" && caller.UserID == group.CreatedBy {
		return nil
	}
	return permissionDenied("only the recipient can confirm or dispute a settlement")
}
