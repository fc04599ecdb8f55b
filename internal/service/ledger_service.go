// Package service composes the store, calculator, cache, settlement
// engine and audit recorder into the ledger operations consumed by the
// HTTP boundary.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/adiallo/debtbook/internal/audit"
	"github.com/adiallo/debtbook/internal/cache"
	"github.com/adiallo/debtbook/internal/calculator"
	"github.com/adiallo/debtbook/internal/metrics"
	"github.com/adiallo/debtbook/internal/models"
	"github.com/adiallo/debtbook/internal/storage"
)

// activityLimit bounds audit listings, matching the display window.
const activityLimit = 100

// Actor identifies who performs a mutation. Supplied by the identity
// collaborator; opaque to the core.
type Actor struct {
	ID   string
	Name string
}

// PersonBalance is one row of a balance listing.
type PersonBalance struct {
	Person  *models.Person
	Balance float64
	Overdue bool
}

// LedgerService is the facade over the ledger core. Reads may be
// served from the cache; writes always go to the store and invalidate
// the affected keys before returning success.
type LedgerService struct {
	store    storage.Store
	cache    cache.Cache
	audit    *audit.Recorder
	engine   *SettlementEngine
	currency string
}

// NewLedgerService wires the facade.
func NewLedgerService(store storage.Store, c cache.Cache, recorder *audit.Recorder, currency string) *LedgerService {
	return &LedgerService{
		store:    store,
		cache:    c,
		audit:    recorder,
		engine:   NewSettlementEngine(store, currency),
		currency: currency,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

// loadPersons serves the shared person list through the read cache.
func (s *LedgerService) loadPersons(ctx context.Context) ([]*models.Person, error) {
	v, err := s.cache.Get(cache.KeyPersons, func() (interface{}, error) {
		persons, err := s.store.ListPersons(ctx)
		if err != nil {
			return nil, storeErr(err)
		}
		return persons, nil
	})
	if err != nil {
		if v == nil {
			return nil, err
		}
		// Read-only failure with a stale copy available: serve it.
		slog.Warn("serving stale person list", "error", err)
	}
	return v.([]*models.Person), nil
}

// ListPersons returns every person eligible for display under the view
// mode, with their balance and overdue flag. Cached read.
func (s *LedgerService) ListPersons(ctx context.Context, mode models.ViewMode) ([]PersonBalance, error) {
	if !mode.Valid() {
		return nil, ErrInvalidViewMode
	}

	persons, err := s.loadPersons(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var out []PersonBalance
	for _, p := range persons {
		if !calculator.HasRelevant(p.Transactions, mode) {
			continue
		}
		balance, err := calculator.Balance(p.Transactions)
		if err != nil {
			return nil, err
		}
		out = append(out, PersonBalance{
			Person:  p,
			Balance: balance,
			Overdue: calculator.AnyOverdue(p.Transactions, now),
		})
	}
	return out, nil
}

// AddTransactionInput describes a new debt entry. Amount is the
// displayed nonnegative magnitude; Mode decides its stored sign.
type AddTransactionInput struct {
	PersonID        string // either an existing person id...
	PersonName      string // ...or a name, creating the person on first use
	PersonSignature string
	Description     string
	Comment         string
	Amount          float64
	Mode            models.ViewMode
	Date            time.Time
	DueDate         *time.Time
	Signature       string
}

// resolvePerson finds the counterparty, creating it on first use when
// only a name is given. Names match case-insensitively.
func (s *LedgerService) resolvePerson(ctx context.Context, in AddTransactionInput) (*models.Person, error) {
	if in.PersonID != "" {
		p, err := s.store.GetPerson(ctx, in.PersonID)
		return p, storeErr(err)
	}
	if in.PersonName == "" {
		return nil, fmt.Errorf("person id or name is required: %w", storage.ErrNotFound)
	}

	p, err := s.store.GetPersonByName(ctx, in.PersonName)
	if err == nil {
		return p, nil
	}
	if !isNotFound(err) {
		return nil, storeErr(err)
	}

	p = &models.Person{Name: in.PersonName, Signature: in.PersonSignature}
	if err := s.store.CreatePerson(ctx, p); err != nil {
		return nil, storeErr(err)
	}
	return p, nil
}

// AddTransaction appends a new debt entry, creating the person on
// first use.
func (s *LedgerService) AddTransaction(ctx context.Context, actor Actor, in AddTransactionInput) (*models.Transaction, error) {
	if !in.Mode.Valid() {
		return nil, ErrInvalidViewMode
	}
	if err := models.CheckAmount(in.Amount); err != nil {
		return nil, err
	}
	if in.Amount < 0 {
		return nil, models.ErrInvalidAmount
	}

	person, err := s.resolvePerson(ctx, in)
	if err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	tx, err := models.NewTransaction(person.ID, in.Description, in.Amount*in.Mode.Sign(), in.Mode, date)
	if err != nil {
		return nil, err
	}
	tx.Comment = in.Comment
	tx.DueDate = in.DueDate
	tx.Signature = in.Signature

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, storeErr(err)
	}

	s.invalidateListings()
	metrics.Mutations.WithLabelValues(string(models.ActionCreate)).Inc()
	s.audit.Record(ctx, audit.Entry{
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Action:    models.ActionCreate,
		Mode:      in.Mode,
		Description: fmt.Sprintf("%s added a transaction of %s %.2f for %s",
			actor.Name, s.currency, in.Amount, person.Name),
		PersonName: person.Name,
		Amount:     in.Amount,
	})
	return tx, nil
}

// PaymentInput describes a payment against a person's balance. Amount
// is the positive magnitude paid.
type PaymentInput struct {
	PersonID    string
	Amount      float64
	Mode        models.ViewMode
	Date        time.Time
	Description string
	Comment     string
	Signature   string
}

// PaymentResult reports what a payment did. Record is set when the
// payment zeroed the balance and triggered auto-settlement.
type PaymentResult struct {
	Transaction *models.Transaction
	Settled     bool
	Record      *models.SettledRecord
}

// RecordPayment inserts an opposite-signed payment entry and, when the
// resulting balance lands within epsilon of zero, settles the person.
func (s *LedgerService) RecordPayment(ctx context.Context, actor Actor, in PaymentInput) (*PaymentResult, error) {
	if !in.Mode.Valid() {
		return nil, ErrInvalidViewMode
	}
	if err := models.CheckAmount(in.Amount); err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	person, err := s.store.GetPerson(ctx, in.PersonID)
	if err != nil {
		return nil, storeErr(err)
	}

	preSum, err := calculator.SignedSum(person.Transactions)
	if err != nil {
		return nil, err
	}
	// The archived amount convention: the full balance that existed
	// immediately before the zeroing operation.
	preBalance := calculator.Normalize(preSum)

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	description := in.Description
	if description == "" {
		description = "Payment"
	}

	// A payment carries the opposite sign of the debt it reduces.
	tx, err := models.NewTransaction(person.ID, description, -in.Amount*in.Mode.Sign(), in.Mode, date)
	if err != nil {
		return nil, err
	}
	tx.IsPayment = true
	tx.Comment = in.Comment
	tx.Signature = in.Signature

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, storeErr(err)
	}

	s.invalidateListings()
	metrics.Mutations.WithLabelValues(string(models.ActionPayment)).Inc()

	willSettle := math.Abs(preSum+tx.Amount) < calculator.Epsilon
	if !willSettle {
		s.audit.Record(ctx, audit.Entry{
			ActorID:   actor.ID,
			ActorName: actor.Name,
			Action:    models.ActionPayment,
			Mode:      in.Mode,
			Description: fmt.Sprintf("%s recorded a payment of %s %.2f for %s",
				actor.Name, s.currency, in.Amount, person.Name),
			PersonName: person.Name,
			Amount:     in.Amount,
		})
		return &PaymentResult{Transaction: tx}, nil
	}

	rec, err := s.settle(ctx, actor, person.ID, preBalance, in.Mode,
		fmt.Sprintf("Settled via full payment of %s %.2f", s.currency, in.Amount))

	description = fmt.Sprintf("%s recorded a payment of %s %.2f for %s",
		actor.Name, s.currency, in.Amount, person.Name)
	if rec != nil {
		description += " and settled the account"
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		Action:      models.ActionPayment,
		Mode:        in.Mode,
		Description: description,
		PersonName:  person.Name,
		Amount:      in.Amount,
	})

	if err != nil && rec == nil {
		return &PaymentResult{Transaction: tx}, err
	}
	return &PaymentResult{Transaction: tx, Settled: true, Record: rec}, err
}

// DirectEditResult reports what a direct edit did.
type DirectEditResult struct {
	// NoOp is true when the balance already matched the target and
	// nothing was persisted.
	NoOp       bool
	Adjustment *models.Transaction
	Settled    bool
	Record     *models.SettledRecord
}

// DirectEdit sets a person's displayed balance to target by inserting
// a single adjustment entry. A target of zero (or one landing within
// epsilon of zero) settles the person afterwards.
func (s *LedgerService) DirectEdit(ctx context.Context, actor Actor, personID string, target float64, mode models.ViewMode) (*DirectEditResult, error) {
	person, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		return nil, storeErr(err)
	}

	adj, err := Reconcile(person.Transactions, person.ID, target, mode, time.Now())
	if err != nil {
		return nil, err
	}
	if adj == nil {
		return &DirectEditResult{NoOp: true}, nil
	}

	preSum, err := calculator.SignedSum(person.Transactions)
	if err != nil {
		return nil, err
	}
	preBalance := calculator.Normalize(preSum)

	if err := s.store.CreateTransaction(ctx, adj); err != nil {
		return nil, storeErr(err)
	}

	s.invalidateListings()
	metrics.Mutations.WithLabelValues(string(models.ActionEdit)).Inc()
	s.audit.Record(ctx, audit.Entry{
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Action:    models.ActionEdit,
		Mode:      mode,
		Description: fmt.Sprintf("%s set %s's balance to %s %.2f",
			actor.Name, person.Name, s.currency, target),
		PersonName: person.Name,
		Amount:     target,
	})

	result := &DirectEditResult{Adjustment: adj}
	if calculator.Normalize(preSum+adj.Amount) != 0 {
		return result, nil
	}

	rec, err := s.settle(ctx, actor, person.ID, preBalance, mode, "Settled via direct edit")
	if err != nil && rec == nil {
		return result, err
	}
	result.Settled = true
	result.Record = rec
	return result, err
}

// SettleNow closes a person's account unconditionally, whatever the
// remaining balance. Settling a person that no longer exists returns
// ErrNotFound with no partial write.
func (s *LedgerService) SettleNow(ctx context.Context, actor Actor, personID string, mode models.ViewMode, notes string) (*models.SettledRecord, error) {
	if !mode.Valid() {
		return nil, ErrInvalidViewMode
	}

	person, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		return nil, storeErr(err)
	}

	total, err := calculator.Balance(person.Transactions)
	if err != nil {
		return nil, err
	}

	rec, settleErr := s.settle(ctx, actor, personID, total, mode, notes)
	if rec != nil {
		s.audit.Record(ctx, audit.Entry{
			ActorID:   actor.ID,
			ActorName: actor.Name,
			Action:    models.ActionSettle,
			Mode:      mode,
			Description: fmt.Sprintf("%s settled %s's account (%s %.2f); all transactions removed",
				actor.Name, person.Name, s.currency, total),
			PersonName: person.Name,
			Amount:     total,
		})
	}
	return rec, settleErr
}

// settle runs the engine against a freshly loaded person and
// invalidates every listing the settlement touched.
func (s *LedgerService) settle(ctx context.Context, actor Actor, personID string, totalAmount float64, mode models.ViewMode, notes string) (*models.SettledRecord, error) {
	// Reload so the frozen copy includes the triggering mutation.
	person, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		return nil, storeErr(err)
	}

	// The archive stores a magnitude; the mode carries the direction.
	rec, err := s.engine.Settle(ctx, person, math.Abs(totalAmount), mode, actor, notes)

	s.cache.Invalidate(cache.KeyPersons)
	s.cache.Invalidate(cache.KeySettledRecords)
	s.cache.Invalidate(cache.KeyActivityLogs)
	return rec, err
}

// SettleTransaction zeroes a single entry, stashing its amount in
// OriginalAmount. Already-settled entries are a no-op.
func (s *LedgerService) SettleTransaction(ctx context.Context, actor Actor, txID string) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, storeErr(err)
	}
	if tx.Settled {
		return tx, nil
	}

	original := math.Abs(tx.Amount)
	if err := s.store.UpdateTransactionAmount(ctx, txID, 0, original, true); err != nil {
		return nil, storeErr(err)
	}
	tx.Amount = 0
	tx.OriginalAmount = original
	tx.Settled = true

	s.invalidateListings()
	metrics.Mutations.WithLabelValues(string(models.ActionSettle)).Inc()
	s.audit.Record(ctx, audit.Entry{
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Action:    models.ActionSettle,
		Mode:      tx.Mode,
		Description: fmt.Sprintf("%s marked %q as paid (%s %.2f)",
			actor.Name, tx.Description, s.currency, original),
		Amount: original,
	})
	return tx, nil
}

// UnsettleTransaction restores a zeroed entry's amount from
// OriginalAmount and clears the settled flag. It operates only on
// still-active rows; archived records are immutable.
func (s *LedgerService) UnsettleTransaction(ctx context.Context, actor Actor, txID string) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !tx.Settled {
		return tx, nil
	}

	// OriginalAmount is a magnitude; the stored mode gives the debt
	// polarity back, flipped for payment entries.
	sign := tx.Mode.Sign()
	if tx.IsPayment {
		sign = -sign
	}
	amount := sign * tx.OriginalAmount

	if err := s.store.UpdateTransactionAmount(ctx, txID, amount, tx.OriginalAmount, false); err != nil {
		return nil, storeErr(err)
	}
	tx.Amount = amount
	tx.Settled = false

	s.invalidateListings()
	metrics.Mutations.WithLabelValues(string(models.ActionUnsettle)).Inc()
	s.audit.Record(ctx, audit.Entry{
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Action:    models.ActionUnsettle,
		Mode:      tx.Mode,
		Description: fmt.Sprintf("%s marked %q as unpaid (%s %.2f)",
			actor.Name, tx.Description, s.currency, tx.OriginalAmount),
		Amount: tx.OriginalAmount,
	})
	return tx, nil
}

// DeletePerson removes a person and their whole log without archiving.
func (s *LedgerService) DeletePerson(ctx context.Context, actor Actor, personID string, mode models.ViewMode) error {
	person, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		return storeErr(err)
	}

	if err := s.store.DeleteTransactionsByPerson(ctx, personID); err != nil {
		return storeErr(err)
	}
	if err := s.store.DeletePerson(ctx, personID); err != nil {
		return storeErr(err)
	}

	s.invalidateListings()
	metrics.Mutations.WithLabelValues(string(models.ActionDelete)).Inc()
	s.audit.Record(ctx, audit.Entry{
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		Action:      models.ActionDelete,
		Mode:        mode,
		Description: fmt.Sprintf("%s deleted %s and all their transactions", actor.Name, person.Name),
		PersonName:  person.Name,
	})
	return nil
}

// ListSettledRecords returns the archive, newest first. Cached read.
func (s *LedgerService) ListSettledRecords(ctx context.Context) ([]*models.SettledRecord, error) {
	v, err := s.cache.Get(cache.KeySettledRecords, func() (interface{}, error) {
		records, err := s.store.ListSettledRecords(ctx)
		if err != nil {
			return nil, storeErr(err)
		}
		return records, nil
	})
	if err != nil {
		if v == nil {
			return nil, err
		}
		slog.Warn("serving stale settled records", "error", err)
	}
	return v.([]*models.SettledRecord), nil
}

// ListActivity returns the most recent audit entries. Cached read.
func (s *LedgerService) ListActivity(ctx context.Context) ([]*models.ActivityLog, error) {
	v, err := s.cache.Get(cache.KeyActivityLogs, func() (interface{}, error) {
		entries, err := s.store.ListActivityLogs(ctx, activityLimit)
		if err != nil {
			return nil, storeErr(err)
		}
		return entries, nil
	})
	if err != nil {
		if v == nil {
			return nil, err
		}
		slog.Warn("serving stale activity log", "error", err)
	}
	return v.([]*models.ActivityLog), nil
}

// invalidateListings drops the cache keys every plain mutation
// touches. Settlement additionally drops the settled records key.
func (s *LedgerService) invalidateListings() {
	s.cache.Invalidate(cache.KeyPersons)
	s.cache.Invalidate(cache.KeyActivityLogs)
}
