package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	GroupServiceName      = "splitledger.v1.GroupService"
	ExpenseServiceName    = "splitledger.v1.ExpenseService"
	SettlementServiceName = "splitledger.v1.SettlementService"
)

// Procedure paths, one per RPC.
const (
	GroupServiceCreateGroupProcedure       = "/" + GroupServiceName + "/CreateGroup"
	GroupServiceGetGroupProcedure          = "/" + GroupServiceName + "/GetGroup"
	GroupServiceListGroupsProcedure        = "/" + GroupServiceName + "/ListGroups"
	GroupServiceUpdateGroupProcedure       = "/" + GroupServiceName + "/UpdateGroup"
	GroupServiceDeleteGroupProcedure       = "/" + GroupServiceName + "/DeleteGroup"
	GroupServiceAddMembersProcedure        = "/" + GroupServiceName + "/AddMembers"
	GroupServiceRemoveMemberProcedure      = "/" + GroupServiceName + "/RemoveMember"
	GroupServiceGetGroupBalancesProcedure  = "/" + GroupServiceName + "/GetGroupBalances"
	GroupServiceGetMemberPositionProcedure = "/" + GroupServiceName + "/GetMemberPosition"

	ExpenseServicePreviewSplitProcedure  = "/" + ExpenseServiceName + "/PreviewSplit"
	ExpenseServiceCreateExpenseProcedure = "/" + ExpenseServiceName + "/CreateExpense"
	ExpenseServiceGetExpenseProcedure    = "/" + ExpenseServiceName + "/GetExpense"
	ExpenseServiceUpdateExpenseProcedure = "/" + ExpenseServiceName + "/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure = "/" + ExpenseServiceName + "/DeleteExpense"
	ExpenseServiceListExpensesProcedure  = "/" + ExpenseServiceName + "/ListExpenses"

	SettlementServiceRecordSettlementProcedure  = "/" + SettlementServiceName + "/RecordSettlement"
	SettlementServiceResolveSettlementProcedure = "/" + SettlementServiceName + "/ResolveSettlement"
	SettlementServiceListSettlementsProcedure   = "/" + SettlementServiceName + "/ListSettlements"
)

func handle[Req, Res any](
	mux *http.ServeMux,
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// RegisterGroupService mounts every GroupService procedure on mux.
func RegisterGroupService(mux *http.ServeMux, svc *GroupService, opts ...connect.HandlerOption) {
	opts = handlerOptions(opts)
	handle(mux, GroupServiceCreateGroupProcedure, svc.CreateGroup, opts)
	handle(mux, GroupServiceGetGroupProcedure, svc.GetGroup, opts)
	handle(mux, GroupServiceListGroupsProcedure, svc.ListGroups, opts)
	handle(mux, GroupServiceUpdateGroupProcedure, svc.UpdateGroup, opts)
	handle(mux, GroupServiceDeleteGroupProcedure, svc.DeleteGroup, opts)
	handle(mux, GroupServiceAddMembersProcedure, svc.AddMembers, opts)
	handle(mux, GroupServiceRemoveMemberProcedure, svc.RemoveMember, opts)
	handle(mux, GroupServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts)
	handle(mux, GroupServiceGetMemberPositionProcedure, svc.GetMemberPosition, opts)
}

// RegisterExpenseService mounts every ExpenseService procedure on mux.
func RegisterExpenseService(mux *http.ServeMux, svc *ExpenseService, opts ...connect.HandlerOption) {
	opts = handlerOptions(opts)
	handle(mux, ExpenseServicePreviewSplitProcedure, svc.PreviewSplit, opts)
	handle(mux, ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts)
	handle(mux, ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts)
	handle(mux, ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts)
	handle(mux, ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts)
	handle(mux, ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts)
}

// RegisterSettlementService mounts every SettlementService procedure on mux.
func RegisterSettlementService(mux *http.ServeMux, svc *SettlementService, opts ...connect.HandlerOption) {
	opts = handlerOptions(opts)
	handle(mux, SettlementServiceRecordSettlementProcedure, svc.RecordSettlement, opts)
	handle(mux, SettlementServiceResolveSettlementProcedure, svc.ResolveSettlement, opts)
	handle(mux, SettlementServiceListSettlementsProcedure, svc.ListSettlements, opts)
}

func newClient[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts []connect.ClientOption) *connect.Client[Req, Res] {
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return connect.NewClient[Req, Res](httpClient, strings.TrimRight(baseURL, "/")+procedure, opts...)
}

// GroupServiceClient calls GroupService over Connect.
type GroupServiceClient struct {
	createGroup       *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup          *connect.Client[GetGroupRequest, GetGroupResponse]
	listGroups        *connect.Client[ListGroupsRequest, ListGroupsResponse]
	updateGroup       *connect.Client[UpdateGroupRequest, UpdateGroupResponse]
	deleteGroup       *connect.Client[DeleteGroupRequest, DeleteGroupResponse]
	addMembers        *connect.Client[AddMembersRequest, AddMembersResponse]
	removeMember      *connect.Client[RemoveMemberRequest, RemoveMemberResponse]
	getGroupBalances  *connect.Client[GetGroupBalancesRequest, GetGroupBalancesResponse]
	getMemberPosition *connect.Client[GetMemberPositionRequest, GetMemberPositionResponse]
}

func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	return &GroupServiceClient{
		createGroup:       newClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL, GroupServiceCreateGroupProcedure, opts),
		getGroup:          newClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL, GroupServiceGetGroupProcedure, opts),
		listGroups:        newClient[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL, GroupServiceListGroupsProcedure, opts),
		updateGroup:       newClient[UpdateGroupRequest, UpdateGroupResponse](httpClient, baseURL, GroupServiceUpdateGroupProcedure, opts),
		deleteGroup:       newClient[DeleteGroupRequest, DeleteGroupResponse](httpClient, baseURL, GroupServiceDeleteGroupProcedure, opts),
		addMembers:        newClient[AddMembersRequest, AddMembersResponse](httpClient, baseURL, GroupServiceAddMembersProcedure, opts),
		removeMember:      newClient[RemoveMemberRequest, RemoveMemberResponse](httpClient, baseURL, GroupServiceRemoveMemberProcedure, opts),
		getGroupBalances:  newClient[GetGroupBalancesRequest, GetGroupBalancesResponse](httpClient, baseURL, GroupServiceGetGroupBalancesProcedure, opts),
		getMemberPosition: newClient[GetMemberPositionRequest, GetMemberPositionResponse](httpClient, baseURL, GroupServiceGetMemberPositionProcedure, opts),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[UpdateGroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) AddMembers(ctx context.Context, req *connect.Request[AddMembersRequest]) (*connect.Response[AddMembersResponse], error) {
	return c.addMembers.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RemoveMember(ctx context.Context, req *connect.Request[RemoveMemberRequest]) (*connect.Response[RemoveMemberResponse], error) {
	return c.removeMember.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetMemberPosition(ctx context.Context, req *connect.Request[GetMemberPositionRequest]) (*connect.Response[GetMemberPositionResponse], error) {
	return c.getMemberPosition.CallUnary(ctx, req)
}

// ExpenseServiceClient calls ExpenseService over Connect.
type ExpenseServiceClient struct {
	previewSplit  *connect.Client[PreviewSplitRequest, PreviewSplitResponse]
	createExpense *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	getExpense    *connect.Client[GetExpenseRequest, GetExpenseResponse]
	updateExpense *connect.Client[UpdateExpenseRequest, UpdateExpenseResponse]
	deleteExpense *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	listExpenses  *connect.Client[ListExpensesRequest, ListExpensesResponse]
}

func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	return &ExpenseServiceClient{
		previewSplit:  newClient[PreviewSplitRequest, PreviewSplitResponse](httpClient, baseURL, ExpenseServicePreviewSplitProcedure, opts),
		createExpense: newClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL, ExpenseServiceCreateExpenseProcedure, opts),
		getExpense:    newClient[GetExpenseRequest, GetExpenseResponse](httpClient, baseURL, ExpenseServiceGetExpenseProcedure, opts),
		updateExpense: newClient[UpdateExpenseRequest, UpdateExpenseResponse](httpClient, baseURL, ExpenseServiceUpdateExpenseProcedure, opts),
		deleteExpense: newClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL, ExpenseServiceDeleteExpenseProcedure, opts),
		listExpenses:  newClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL, ExpenseServiceListExpensesProcedure, opts),
	}
}

func (c *ExpenseServiceClient) PreviewSplit(ctx context.Context, req *connect.Request[PreviewSplitRequest]) (*connect.Response[PreviewSplitResponse], error) {
	return c.previewSplit.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

// SettlementServiceClient calls SettlementService over Connect.
type SettlementServiceClient struct {
	recordSettlement  *connect.Client[RecordSettlementRequest, RecordSettlementResponse]
	resolveSettlement *connect.Client[ResolveSettlementRequest, ResolveSettlementResponse]
	listSettlements   *connect.Client[ListSettlementsRequest, ListSettlementsResponse]
}

func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SettlementServiceClient {
	return &SettlementServiceClient{
		recordSettlement:  newClient[RecordSettlementRequest, RecordSettlementResponse](httpClient, baseURL, SettlementServiceRecordSettlementProcedure, opts),
		resolveSettlement: newClient[ResolveSettlementRequest, ResolveSettlementResponse](httpClient, baseURL, SettlementServiceResolveSettlementProcedure, opts),
		listSettlements:   newClient[ListSettlementsRequest, ListSettlementsResponse](httpClient, baseURL, SettlementServiceListSettlementsProcedure, opts),
	}
}

func (c *SettlementServiceClient) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	return c.recordSettlement.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) ResolveSettlement(ctx context.Context, req *connect.Request[ResolveSettlementRequest]) (*connect.Response[ResolveSettlementResponse], error) {
	return c.resolveSettlement.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}
