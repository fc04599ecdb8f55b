// Package models defines the core domain records for Debtbook.
//
// # Models
//
//   - Transaction: one signed ledger entry owned by a person
//   - Person: a counterparty owning a set of transactions
//   - SettledRecord: immutable archive written when a balance is settled
//   - ActivityLog: audit trail entry for every mutation
//   - User: an account that can sign in and mutate the shared ledger
//
// # Sign convention
//
// A transaction's amount is signed: positive amounts count toward
// "they owe me", negative amounts toward "I owe them". Payments are
// recorded with the opposite sign of the debt they reduce, so the raw
// sum of a person's log is always their current signed balance. The
// ViewMode enum only interprets that sum for display and filters which
// transactions are relevant to a listing; it never changes stored
// arithmetic.
//
// # Invariants
//
// Constructors validate invariants instead of leaving them to caller
// discipline: amounts must be finite, and a settled transaction must
// have an amount of exactly zero with the pre-settlement value kept in
// OriginalAmount.
package models
