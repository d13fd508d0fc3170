package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// GroupService manages groups, their members and the balance views.
type GroupService struct {
	ledger *Ledger
}

// NewGroupService creates a new GroupService on the shared ledger.
func NewGroupService(ledger *Ledger) *GroupService {
	return &GroupService{ledger: ledger}
}

// CreateGroup creates a group. The caller always ends up as a member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
		"user_id", userID,
	)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errNoIdentity)
	}

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("name is required")
	}
	description, err := groupDescription(req.Msg.Description)
	if err != nil {
		return nil, err
	}

	currency := s.ledger.defaultCurrency
	if req.Msg.Currency != "" {
		if currency, err = money.ParseCurrency(req.Msg.Currency); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	members, err := newMembers(req.Msg.Members, nil)
	if err != nil {
		return nil, err
	}
	if !hasUser(members, userID) {
		creatorName := strings.TrimSpace(req.Msg.CreatorName)
		if creatorName == "" {
			creatorName = userID
		}
		members = append([]*models.Member{{DisplayName: creatorName, UserID: userID, Active: true}}, members...)
	}

	group := &models.Group{
		Name:        name,
		Description: description,
		Status:      models.GroupActive,
		Currency:    currency,
		CreatedBy:   userID,
		Members:     make([]models.Member, len(members)),
	}
	for i, m := range members {
		group.Members[i] = *m
	}

	// Save to storage (generates IDs and CreatedAt)
	if err := s.ledger.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Group created", "group_id", group.ID, "members_count", len(group.Members))

	return connect.NewResponse(&CreateGroupResponse{Group: toGroup(group)}), nil
}

// GetGroup retrieves a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, _, err := s.ledger.callerMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	return connect.NewResponse(&GetGroupResponse{Group: toGroup(group)}), nil
}

// ListGroups returns every group where the caller is an active member.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("ListGroups request received", "user_id", userID)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errNoIdentity)
	}

	groups, err := s.ledger.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	out := make([]*Group, len(groups))
	for i, g := range groups {
		out[i] = toGroup(g)
	}

	slog.Info("ListGroups successful", "count", len(out))

	return connect.NewResponse(&ListGroupsResponse{Groups: out}), nil
}

// UpdateGroup renames the group or changes its description or status. Only the group's
// creator may update it.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[UpdateGroupResponse], error) {
	msg := req.Msg
	slog.Info("UpdateGroup request received", "group_id", msg.GroupID)

	var name, description string
	var status models.GroupStatus
	if msg.Name != nil {
		if name = strings.TrimSpace(*msg.Name); name == "" {
			return nil, invalidArgument("name cannot be empty")
		}
	}
	if msg.Description != nil {
		var err error
		if description, err = groupDescription(*msg.Description); err != nil {
			return nil, err
		}
	}
	if msg.Status != nil {
		if *msg.Status == "" {
			return nil, invalidArgument("status cannot be empty")
		}
		var err error
		if status, err = models.ParseGroupStatus(strings.ToLower(*msg.Status)); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	var group *models.Group
	err := s.ledger.write(ctx, msg.GroupID, func(ctx context.Context) error {
		current, _, err := s.ledger.callerMember(ctx, msg.GroupID)
		if err != nil {
			return err
		}
		if current.CreatedBy != middleware.GetUserID(ctx) {
			return permissionDenied("only the group creator can update the group")
		}

		if msg.Name != nil {
			current.Name = name
		}
		if msg.Description != nil {
			current.Description = description
		}
		if msg.Status != nil {
			current.Status = status
		}
		if err := s.ledger.store.UpdateGroup(ctx, current); err != nil {
			return err
		}
		group = current
		return nil
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Group updated", "group_id", group.ID, "status", group.Status)

	return connect.NewResponse(&UpdateGroupResponse{Group: toGroup(group)}), nil
}

// DeleteGroup removes a group and its history. Only the creator may delete it, and only
// once every balance in it is settled.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error) {
	groupID := req.Msg.GroupID
	slog.Info("DeleteGroup request received", "group_id", groupID)

	err := s.ledger.write(ctx, groupID, func(ctx context.Context) error {
		current, _, err := s.ledger.callerMember(ctx, groupID)
		if err != nil {
			return err
		}
		if current.CreatedBy != middleware.GetUserID(ctx) {
			return permissionDenied("only the group creator can delete the group")
		}

		// Recompute under the lock; a cached summary may predate the last write.
		snap, err := s.ledger.store.GroupSnapshot(ctx, groupID)
		if err != nil {
			return err
		}
		summary, err := summarize(snap)
		if err != nil {
			return err
		}
		if !summary.Stats.IsSettled {
			return failedPrecondition("group has unsettled balances: %d payments outstanding", len(summary.Debts))
		}

		return s.ledger.store.DeleteGroup(ctx, groupID)
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Group deleted", "group_id", groupID)

	return connect.NewResponse(&DeleteGroupResponse{}), nil
}

// AddMembers appends members. Only the group's creator may add members.
func (s *GroupService) AddMembers(ctx context.Context, req *connect.Request[AddMembersRequest]) (*connect.Response[AddMembersResponse], error) {
	groupID := req.Msg.GroupID
	slog.Info("AddMembers request received", "group_id", groupID, "members_count", len(req.Msg.Members))

	if len(req.Msg.Members) == 0 {
		return nil, invalidArgument("at least one member is required")
	}

	var group *models.Group
	err := s.ledger.write(ctx, groupID, func(ctx context.Context) error {
		current, _, err := s.ledger.callerMember(ctx, groupID)
		if err != nil {
			return err
		}
		if current.CreatedBy != middleware.GetUserID(ctx) {
			return permissionDenied("only the group creator can add members")
		}

		members, err := newMembers(req.Msg.Members, current)
		if err != nil {
			return err
		}
		if err := s.ledger.store.AddMembers(ctx, groupID, members); err != nil {
			return err
		}

		group, err = s.ledger.store.GetGroup(ctx, groupID)
		return err
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Members added", "group_id", groupID, "members_count", len(group.Members))

	return connect.NewResponse(&AddMembersResponse{Group: toGroup(group)}), nil
}

// RemoveMember marks a member as departed. Members may leave on their own and the creator
// may remove anyone but themselves; either way the member's balance must be zero.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[RemoveMemberRequest]) (*connect.Response[RemoveMemberResponse], error) {
	groupID, memberID := req.Msg.GroupID, req.Msg.MemberID
	slog.Info("RemoveMember request received", "group_id", groupID, "member_id", memberID)

	if memberID == "" {
		return nil, invalidArgument("member_id is required")
	}

	var group *models.Group
	err := s.ledger.write(ctx, groupID, func(ctx context.Context) error {
		current, caller, err := s.ledger.callerMember(ctx, groupID)
		if err != nil {
			return err
		}
		target, ok := current.FindMember(memberID)
		if !ok || !target.Active {
			return connect.NewError(connect.CodeNotFound, errors.New("member not found"))
		}
		isCreator := current.CreatedBy == caller.UserID
		if target.ID != caller.ID && !isCreator {
			return permissionDenied("only the group creator can remove other members")
		}
		if target.UserID != "" && target.UserID == current.CreatedBy {
			return failedPrecondition("the group creator cannot leave the group")
		}

		// Recompute under the lock; a cached summary may predate the last write.
		snap, err := s.ledger.store.GroupSnapshot(ctx, groupID)
		if err != nil {
			return err
		}
		summary, err := summarize(snap)
		if err != nil {
			return err
		}
		pos, err := calculator.MemberPosition(summary, memberID)
		if err != nil {
			return err
		}
		if pos.Balance != 0 {
			return failedPrecondition("member has an unsettled balance of %s", pos.Balance.Format(current.Currency))
		}

		if err := s.ledger.store.SetMemberActive(ctx, groupID, memberID, false); err != nil {
			return err
		}
		group, err = s.ledger.store.GetGroup(ctx, groupID)
		return err
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Member removed", "group_id", groupID, "member_id", memberID)

	return connect.NewResponse(&RemoveMemberResponse{Group: toGroup(group)}), nil
}

// GetGroupBalances returns every member's net balance, the simplified settlement plan
// and group totals.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	groupID := req.Msg.GroupID
	slog.Info("GetGroupBalances request received", "group_id", groupID)

	group, _, err := s.ledger.callerMember(ctx, groupID)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	summary, err := s.ledger.summary(ctx, groupID)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("GetGroupBalances successful",
		"group_id", groupID,
		"members_count", len(summary.Members),
		"debts_count", len(summary.Debts),
	)

	return connect.NewResponse(toBalancesResponse(group, summary)), nil
}

// GetMemberPosition returns what one member owes and is owed under the current plan.
func (s *GroupService) GetMemberPosition(ctx context.Context, req *connect.Request[GetMemberPositionRequest]) (*connect.Response[GetMemberPositionResponse], error) {
	groupID := req.Msg.GroupID
	slog.Info("GetMemberPosition request received", "group_id", groupID, "member_id", req.Msg.MemberID)

	group, caller, err := s.ledger.callerMember(ctx, groupID)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	memberID := req.Msg.MemberID
	if memberID == "" {
		memberID = caller.ID
	}

	summary, err := s.ledger.summary(ctx, groupID)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	pos, err := calculator.MemberPosition(summary, memberID)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	cur := group.Currency
	names := memberNames(group)
	return connect.NewResponse(&GetMemberPositionResponse{
		MemberID:    pos.MemberID,
		Balance:     pos.Balance.Decimal(cur),
		Owes:        toDebts(pos.Owes, names, cur),
		IsOwed:      toDebts(pos.IsOwed, names, cur),
		TotalOwes:   pos.TotalOwes.Decimal(cur),
		TotalIsOwed: pos.TotalIsOwed.Decimal(cur),
	}), nil
}

// newMembers validates member inputs. Linked user IDs must be unique among the new members
// and the group's active members.
func newMembers(inputs []*MemberInput, existing *models.Group) ([]*models.Member, error) {
	taken := make(map[string]bool)
	if existing != nil {
		for _, m := range existing.Members {
			if m.Active && m.UserID != "" {
				taken[m.UserID] = true
			}
		}
	}

	members := make([]*models.Member, 0, len(inputs))
	for _, in := range inputs {
		if in == nil {
			continue
		}
		name := strings.TrimSpace(in.DisplayName)
		if name == "" {
			return nil, invalidArgument("member display_name is required")
		}
		userID := strings.TrimSpace(in.UserID)
		if userID != "" {
			if taken[userID] {
				return nil, connect.NewError(connect.CodeAlreadyExists, errors.New("user "+userID+" is already a member"))
			}
			taken[userID] = true
		}
		members = append(members, &models.Member{DisplayName: name, UserID: userID, Active: true})
	}
	return members, nil
}

const maxDescriptionLen = 200

func groupDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxDescriptionLen {
		return "", invalidArgument("description cannot exceed %d characters", maxDescriptionLen)
	}
	return s, nil
}

func hasUser(members []*models.Member, userID string) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
