// Package models defines the persisted records of a shared-expense group.
//
// Records reference each other by ID strings rather than pointers. Balances are not stored
// here: they are always recomputed from the expense and settlement records by the calculator
// package, so there is no running total that can drift from its sources.
//
// Amounts are integer minor units (money.Amount) in the group's currency.
package models
