package service

import (
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func toGroup(g *models.Group) *Group {
	out := &Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Status:      string(g.Status),
		Currency:    string(g.Currency),
		Members:     make([]*Member, len(g.Members)),
		CreatedBy:   g.CreatedBy,
		CreatedAt:   g.CreatedAt,
	}
	for i, m := range g.Members {
		out.Members[i] = &Member{
			ID:          m.ID,
			DisplayName: m.DisplayName,
			UserID:      m.UserID,
			Active:      m.Active,
			JoinedAt:    m.JoinedAt,
		}
	}
	return out
}

func toExpense(e *models.Expense) *Expense {
	out := &Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Category:    string(e.Category),
		Total:       e.Total.Decimal(e.Currency),
		Currency:    string(e.Currency),
		PayerID:     e.PayerID,
		SplitType:   string(e.SplitType),
		Shares:      make([]*Share, len(e.Shares)),
		Notes:       e.Notes,
		ExpenseDate: e.ExpenseDate,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		Deleted:     e.Deleted(),
	}
	for i, s := range e.Shares {
		out.Shares[i] = toShare(s, e.Currency, e.SplitType == models.SplitPercentage)
	}
	return out
}

func toShare(s models.ExpenseShare, cur money.Currency, withPercent bool) *Share {
	share := &Share{MemberID: s.MemberID, Amount: s.Amount.Decimal(cur)}
	if withPercent {
		pct := s.BasisPoints.Decimal()
		share.Percentage = &pct
	}
	return share
}

func toSettlement(s *models.Settlement) *Settlement {
	return &Settlement{
		ID:           s.ID,
		GroupID:      s.GroupID,
		FromMemberID: s.FromMemberID,
		ToMemberID:   s.ToMemberID,
		Amount:       s.Amount.Decimal(s.Currency),
		Currency:     string(s.Currency),
		Method:       string(s.Method),
		Reference:    s.Reference,
		Status:       string(s.Status),
		Note:         s.Note,
		CreatedBy:    s.CreatedBy,
		CreatedAt:    s.CreatedAt,
		ResolvedAt:   s.ResolvedAt,
	}
}

// memberNames maps member ID to display name, departed members included.
func memberNames(g *models.Group) map[string]string {
	names := make(map[string]string, len(g.Members))
	for _, m := range g.Members {
		names[m.ID] = m.DisplayName
	}
	return names
}

func toDebts(debts []calculator.DebtEdge, names map[string]string, cur money.Currency) []*Debt {
	out := make([]*Debt, len(debts))
	for i, d := range debts {
		out[i] = &Debt{
			FromMemberID: d.From,
			FromName:     names[d.From],
			ToMemberID:   d.To,
			ToName:       names[d.To],
			Amount:       d.Amount.Decimal(cur),
		}
	}
	return out
}

func toBalancesResponse(g *models.Group, s *calculator.Summary) *GetGroupBalancesResponse {
	cur := g.Currency
	names := memberNames(g)
	resp := &GetGroupBalancesResponse{
		GroupID:  g.ID,
		Currency: string(cur),
		Balances: make([]*MemberBalance, len(s.Members)),
		Debts:    toDebts(s.Debts, names, cur),
		Stats: BalanceStats{
			TotalExpenses:      s.Stats.TotalExpenses.Decimal(cur),
			TotalSettled:       s.Stats.TotalSettled.Decimal(cur),
			TotalOutstanding:   s.Stats.TotalOutstanding.Decimal(cur),
			ExpenseCount:       s.Stats.ExpenseCount,
			SettlementCount:    s.Stats.SettlementCount,
			TransactionsNeeded: s.Stats.TransactionsNeeded,
			IsSettled:          s.Stats.IsSettled,
		},
	}
	for i, m := range s.Members {
		resp.Balances[i] = &MemberBalance{
			MemberID:    m.MemberID,
			DisplayName: names[m.MemberID],
			NetBalance:  m.NetBalance.Decimal(cur),
			TotalPaid:   m.TotalPaid.Decimal(cur),
			TotalShare:  m.TotalShare.Decimal(cur),
			SettledOut:  m.SettledOut.Decimal(cur),
			SettledIn:   m.SettledIn.Decimal(cur),
		}
	}
	return resp
}
