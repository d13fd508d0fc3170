package models

import (
	"fmt"

	"github.com/mmynk/splitledger/internal/money"
)

// SettlementStatus tracks whether a recorded payment counts toward balances.
type SettlementStatus string

const (
	// SettlementPending is a payment claimed by the payer and not yet acknowledged.
	SettlementPending SettlementStatus = "pending"
	// SettlementConfirmed is acknowledged by the recipient. Only these affect balances.
	SettlementConfirmed SettlementStatus = "confirmed"
	// SettlementCancelled was withdrawn by the payer.
	SettlementCancelled SettlementStatus = "cancelled"
	// SettlementDisputed was rejected by the recipient.
	SettlementDisputed SettlementStatus = "disputed"
)

// PaymentMethod records how money changed hands.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodUPI          PaymentMethod = "upi"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodGPay         PaymentMethod = "gpay"
	MethodPhonePe      PaymentMethod = "phonepe"
	MethodPaytm        PaymentMethod = "paytm"
	MethodOther        PaymentMethod = "other"
)

var methods = map[PaymentMethod]bool{
	MethodCash: true, MethodUPI: true, MethodBankTransfer: true, MethodGPay: true,
	MethodPhonePe: true, MethodPaytm: true, MethodOther: true,
}

// ParsePaymentMethod maps "" to MethodCash and rejects unknown values.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	if s == "" {
		return MethodCash, nil
	}
	m := PaymentMethod(s)
	if !methods[m] {
		return "", fmt.Errorf("unknown payment method %q", s)
	}
	return m, nil
}

// Settlement represents a payment between group members to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromMemberID is the member who paid (debtor settling up).
	FromMemberID string

	// ToMemberID is the member who received payment (creditor being paid).
	ToMemberID string

	// Amount is the payment amount in minor units.
	Amount   money.Amount
	Currency money.Currency

	Method PaymentMethod

	// Reference is an external payment reference such as a UPI transaction ID.
	Reference string

	Status SettlementStatus

	// Note is an optional description for the settlement.
	Note string

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// ResolvedAt is when the status left pending, zero while pending.
	ResolvedAt int64
}
