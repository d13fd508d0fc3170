package models

import (
	"fmt"

	"github.com/mmynk/splitledger/internal/money"
)

// SplitType is how an expense's total was divided.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitExact      SplitType = "exact"
	SplitPercentage SplitType = "percentage"
)

// Category classifies an expense.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryAccommodation Category = "accommodation"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryUtilities     Category = "utilities"
	CategoryGroceries     Category = "groceries"
	CategoryFuel          Category = "fuel"
	CategoryMedical       Category = "medical"
	CategoryEducation     Category = "education"
	CategoryOther         Category = "other"
)

var categories = map[Category]bool{
	CategoryFood: true, CategoryTransport: true, CategoryAccommodation: true,
	CategoryEntertainment: true, CategoryShopping: true, CategoryUtilities: true,
	CategoryGroceries: true, CategoryFuel: true, CategoryMedical: true,
	CategoryEducation: true, CategoryOther: true,
}

// ParseCategory maps "" to CategoryOther and rejects unknown values.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOther, nil
	}
	c := Category(s)
	if !categories[c] {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Expense is one shared cost. Shares always sum to Total; the service layer only persists
// shares produced by calculator.ValidateSplit.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID      string
	GroupID string

	Description string
	Category    Category

	// Total is the full amount fronted by the payer.
	Total    money.Amount
	Currency money.Currency

	// PayerID is the member who paid.
	PayerID string

	SplitType SplitType

	// Shares holds one entry per participant, in the order participants were submitted.
	Shares []ExpenseShare

	Notes string

	// ExpenseDate is when the cost was incurred (Unix seconds).
	ExpenseDate int64

	CreatedBy string
	CreatedAt int64
	UpdatedAt int64

	// DeletedAt is non-zero for soft-deleted expenses, which no longer affect balances.
	DeletedAt int64
}

// ExpenseShare is one participant's portion of an expense.
type ExpenseShare struct {
	MemberID string
	Amount   money.Amount

	// BasisPoints is the submitted percentage for percentage splits, zero otherwise.
	BasisPoints money.BasisPoints
}

// Deleted reports whether the expense was soft-deleted.
func (e *Expense) Deleted() bool {
	return e.DeletedAt != 0
}
