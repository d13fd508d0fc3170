package service

import "github.com/shopspring/decimal"

// Amounts and percentages travel as decimal strings ("12.50", "33.33") in major units.

type MemberInput struct {
	DisplayName string `json:"display_name"`
	UserID      string `json:"user_id,omitempty"`
}

type Member struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	UserID      string `json:"user_id,omitempty"`
	Active      bool   `json:"active"`
	JoinedAt    int64  `json:"joined_at"`
}

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Currency    string    `json:"currency"`
	Members     []*Member `json:"members"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   int64     `json:"created_at"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Currency    string `json:"currency,omitempty"`
	// CreatorName is the caller's display name when the caller is not listed in Members.
	CreatorName string         `json:"creator_name,omitempty"`
	Members     []*MemberInput `json:"members"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

// UpdateGroupRequest changes only the fields that are set.
type UpdateGroupRequest struct {
	GroupID     string  `json:"group_id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type AddMembersRequest struct {
	GroupID string         `json:"group_id"`
	Members []*MemberInput `json:"members"`
}

type AddMembersResponse struct {
	Group *Group `json:"group"`
}

type RemoveMemberRequest struct {
	GroupID  string `json:"group_id"`
	MemberID string `json:"member_id"`
}

type RemoveMemberResponse struct {
	Group *Group `json:"group"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type MemberBalance struct {
	MemberID    string          `json:"member_id"`
	DisplayName string          `json:"display_name"`
	NetBalance  decimal.Decimal `json:"net_balance"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	TotalShare  decimal.Decimal `json:"total_share"`
	SettledOut  decimal.Decimal `json:"settled_out"`
	SettledIn   decimal.Decimal `json:"settled_in"`
}

type Debt struct {
	FromMemberID string          `json:"from_member_id"`
	FromName     string          `json:"from_name"`
	ToMemberID   string          `json:"to_member_id"`
	ToName       string          `json:"to_name"`
	Amount       decimal.Decimal `json:"amount"`
}

type BalanceStats struct {
	TotalExpenses      decimal.Decimal `json:"total_expenses"`
	TotalSettled       decimal.Decimal `json:"total_settled"`
	TotalOutstanding   decimal.Decimal `json:"total_outstanding"`
	ExpenseCount       int             `json:"expense_count"`
	SettlementCount    int             `json:"settlement_count"`
	TransactionsNeeded int             `json:"transactions_needed"`
	IsSettled          bool            `json:"is_settled"`
}

type GetGroupBalancesResponse struct {
	GroupID  string           `json:"group_id"`
	Currency string           `json:"currency"`
	Balances []*MemberBalance `json:"balances"`
	Debts    []*Debt          `json:"debts"`
	Stats    BalanceStats     `json:"stats"`
}

type GetMemberPositionRequest struct {
	GroupID string `json:"group_id"`
	// MemberID defaults to the caller's own member.
	MemberID string `json:"member_id,omitempty"`
}

type GetMemberPositionResponse struct {
	MemberID    string          `json:"member_id"`
	Balance     decimal.Decimal `json:"balance"`
	Owes        []*Debt         `json:"owes"`
	IsOwed      []*Debt         `json:"is_owed"`
	TotalOwes   decimal.Decimal `json:"total_owes"`
	TotalIsOwed decimal.Decimal `json:"total_is_owed"`
}

// SplitInput describes how a total is divided. Participants fixes the order in which
// remainder units are handed out.
type SplitInput struct {
	Type         string                     `json:"type"`
	Participants []string                   `json:"participants"`
	Amounts      map[string]decimal.Decimal `json:"amounts,omitempty"`
	Percentages  map[string]decimal.Decimal `json:"percentages,omitempty"`
}

type Share struct {
	MemberID   string           `json:"member_id"`
	Amount     decimal.Decimal  `json:"amount"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}

type Expense struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	PayerID     string          `json:"payer_id"`
	SplitType   string          `json:"split_type"`
	Shares      []*Share        `json:"shares"`
	Notes       string          `json:"notes,omitempty"`
	ExpenseDate int64           `json:"expense_date"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
	Deleted     bool            `json:"deleted"`
}

type PreviewSplitRequest struct {
	GroupID string          `json:"group_id"`
	Total   decimal.Decimal `json:"total"`
	Split   SplitInput      `json:"split"`
}

type PreviewSplitResponse struct {
	Shares []*Share `json:"shares"`
}

type CreateExpenseRequest struct {
	GroupID     string          `json:"group_id"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Total       decimal.Decimal `json:"total"`
	// PayerID defaults to the caller's own member.
	PayerID     string     `json:"payer_id,omitempty"`
	Split       SplitInput `json:"split"`
	Notes       string     `json:"notes,omitempty"`
	ExpenseDate int64      `json:"expense_date,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

// UpdateExpenseRequest replaces every editable field of the expense.
type UpdateExpenseRequest struct {
	ExpenseID   string          `json:"expense_id"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Total       decimal.Decimal `json:"total"`
	PayerID     string          `json:"payer_id"`
	Split       SplitInput      `json:"split"`
	Notes       string          `json:"notes,omitempty"`
	ExpenseDate int64           `json:"expense_date,omitempty"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	GroupID        string `json:"group_id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type Settlement struct {
	ID           string          `json:"id"`
	GroupID      string          `json:"group_id"`
	FromMemberID string          `json:"from_member_id"`
	ToMemberID   string          `json:"to_member_id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Method       string          `json:"method"`
	Reference    string          `json:"reference,omitempty"`
	Status       string          `json:"status"`
	Note         string          `json:"note,omitempty"`
	CreatedBy    string          `json:"created_by"`
	CreatedAt    int64           `json:"created_at"`
	ResolvedAt   int64           `json:"resolved_at,omitempty"`
}

type RecordSettlementRequest struct {
	GroupID string `json:"group_id"`
	// FromMemberID defaults to the caller's own member. Another member may only be named
	// when that member has no linked user.
	FromMemberID string          `json:"from_member_id,omitempty"`
	ToMemberID   string          `json:"to_member_id"`
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method,omitempty"`
	Reference    string          `json:"reference,omitempty"`
	Note         string          `json:"note,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

// Settlement actions accepted by ResolveSettlement.
const (
	ActionConfirm = "confirm"
	ActionDispute = "dispute"
	ActionCancel  = "cancel"
)

type ResolveSettlementRequest struct {
	SettlementID string `json:"settlement_id"`
	Action       string `json:"action"`
}

type ResolveSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"group_id"`
	// Status filters by status when set.
	Status string `json:"status,omitempty"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}
