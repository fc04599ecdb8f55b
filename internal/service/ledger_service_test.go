package service

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adiallo/debtbook/internal/audit"
	"github.com/adiallo/debtbook/internal/cache"
	"github.com/adiallo/debtbook/internal/models"
	"github.com/adiallo/debtbook/internal/storage"
	"github.com/adiallo/debtbook/internal/storage/sqlite"
)

var testActor = Actor{ID: "user-1", Name: "Amadou"}

func newTestService(t *testing.T) (*LedgerService, storage.Store) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := NewLedgerService(store, cache.New(time.Minute), audit.NewRecorder(store), "FCFA")
	return svc, store
}

func addTx(t *testing.T, svc *LedgerService, name string, amount float64, mode models.ViewMode) *models.Transaction {
	t.Helper()
	tx, err := svc.AddTransaction(context.Background(), testActor, AddTransactionInput{
		PersonName:  name,
		Description: "Loan",
		Amount:      amount,
		Mode:        mode,
	})
	if err != nil {
		t.Fatalf("failed to add transaction: %v", err)
	}
	return tx
}

func balanceOf(t *testing.T, svc *LedgerService, name string, mode models.ViewMode) float64 {
	t.Helper()
	rows, err := svc.ListPersons(context.Background(), mode)
	if err != nil {
		t.Fatalf("failed to list persons: %v", err)
	}
	for _, row := range rows {
		if row.Person.Name == name {
			return row.Balance
		}
	}
	t.Fatalf("person %q not listed", name)
	return 0
}

func TestAddTransactionAccumulates(t *testing.T) {
	svc, _ := newTestService(t)

	tx := addTx(t, svc, "Moussa", 500, models.TheyOweMe)
	if tx.Amount != 500 {
		t.Errorf("expected stored amount 500, got %v", tx.Amount)
	}
	addTx(t, svc, "Moussa", 300, models.TheyOweMe)

	if got := balanceOf(t, svc, "Moussa", models.TheyOweMe); got != 800 {
		t.Errorf("expected balance 800, got %v", got)
	}
}

func TestAddTransactionSignByMode(t *testing.T) {
	svc, _ := newTestService(t)

	tx := addTx(t, svc, "Fatou", 200, models.IOweThem)
	if tx.Amount != -200 {
		t.Errorf("expected stored amount -200 in i-owe-them mode, got %v", tx.Amount)
	}
	// The displayed balance is always a nonnegative magnitude; only
	// the stored amount carries the sign.
	if got := balanceOf(t, svc, "Fatou", models.IOweThem); got != 200 {
		t.Errorf("expected balance 200, got %v", got)
	}
}

func TestAddTransactionReusesPersonByName(t *testing.T) {
	svc, store := newTestService(t)

	first := addTx(t, svc, "Moussa", 100, models.TheyOweMe)
	second := addTx(t, svc, "moussa", 50, models.TheyOweMe)
	if first.PersonID != second.PersonID {
		t.Errorf("expected case-insensitive name match to reuse person, got %s and %s",
			first.PersonID, second.PersonID)
	}

	persons, err := store.ListPersons(context.Background())
	if err != nil {
		t.Fatalf("failed to list persons: %v", err)
	}
	if len(persons) != 1 {
		t.Errorf("expected 1 person, got %d", len(persons))
	}
}

func TestAddTransactionRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, testActor, AddTransactionInput{
		PersonName: "Moussa", Amount: -10, Mode: models.TheyOweMe,
	})
	if !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative amount, got %v", err)
	}

	_, err = svc.AddTransaction(ctx, testActor, AddTransactionInput{
		PersonName: "Moussa", Amount: 10, Mode: models.ViewMode("sideways"),
	})
	if !errors.Is(err, ErrInvalidViewMode) {
		t.Errorf("expected ErrInvalidViewMode, got %v", err)
	}

	_, err = svc.AddTransaction(ctx, testActor, AddTransactionInput{
		PersonName: "Moussa", Amount: math.NaN(), Mode: models.TheyOweMe,
	})
	if !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for NaN, got %v", err)
	}
}

func TestPartialPaymentReducesBalance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tx := addTx(t, svc, "Moussa", 800, models.TheyOweMe)

	res, err := svc.RecordPayment(ctx, testActor, PaymentInput{
		PersonID: tx.PersonID, Amount: 500, Mode: models.TheyOweMe,
	})
	if err != nil {
		t.Fatalf("failed to record payment: %v", err)
	}
	if res.Settled {
		t.Error("partial payment should not settle the account")
	}
	if res.Transaction.Amount != -500 {
		t.Errorf("expected payment stored as -500, got %v", res.Transaction.Amount)
	}
	if !res.Transaction.IsPayment {
		t.Error("expected payment flag set")
	}

	if got := balanceOf(t, svc, "Moussa", models.TheyOweMe); got != 300 {
		t.Errorf("expected balance 300 after partial payment, got %v", got)
	}
}

func TestFullPaymentSettlesAndArchives(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	tx := addTx(t, svc, "Moussa", 800, models.TheyOweMe)
	if _, err := svc.RecordPayment(ctx, testActor, PaymentInput{
		PersonID: tx.PersonID, Amount: 500, Mode: models.TheyOweMe,
	}); err != nil {
		t.Fatalf("failed to record first payment: %v", err)
	}

	res, err := svc.RecordPayment(ctx, testActor, PaymentInput{
		PersonID: tx.PersonID, Amount: 300, Mode: models.TheyOweMe,
	})
	if err != nil {
		t.Fatalf("failed to record final payment: %v", err)
	}
	if !res.Settled || res.Record == nil {
		t.Fatal("expected final payment to settle the account")
	}
	// The archive captures the balance as it stood before the zeroing
	// payment, not the post-payment zero.
	if res.Record.TotalAmount != 300 {
		t.Errorf("expected archived total 300, got %v", res.Record.TotalAmount)
	}
	// The frozen copy includes the zeroing payment itself.
	if len(res.Record.Transactions) != 3 {
		t.Errorf("expected 3 frozen transactions, got %d", len(res.Record.Transactions))
	}

	if _, err := store.GetPerson(ctx, tx.PersonID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected person removed after settlement, got %v", err)
	}

	records, err := svc.ListSettledRecords(ctx)
	if err != nil {
		t.Fatalf("failed to list settled records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 settled record, got %d", len(records))
	}
}

func TestPaymentSettlesWithinEpsilon(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tx := addTx(t, svc, "Moussa", 100.005, models.TheyOweMe)
	res, err := svc.RecordPayment(ctx, testActor, PaymentInput{
		PersonID: tx.PersonID, Amount: 100, Mode: models.TheyOweMe,
	})
	if err != nil {
		t.Fatalf("failed to record payment: %v", err)
	}
	if !res.Settled {
		t.Error("residual below epsilon should settle the account")
	}
}

func TestDirectEditToZeroSettles(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	tx := addTx(t, svc, "Moussa", 450, models.TheyOweMe)

	res, err := svc.DirectEdit(ctx, testActor, tx.PersonID, 0, models.TheyOweMe)
	if err != nil {
		t.Fatalf("failed to edit balance: %v", err)
	}
	if res.Adjustment == nil || res.Adjustment.Amount != -450 {
		t.Fatalf("expected adjustment of -450, got %+v", res.Adjustment)
	}
	if !res.Settled || res.Record == nil {
		t.Fatal("expected edit to zero to settle the account")
	}
	if res.Record.TotalAmount != 450 {
		t.Errorf("expected archived total 450, got %v", res.Record.TotalAmount)
	}

	if _, err := store.GetPerson(ctx, tx.PersonID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected person removed after settlement, got %v", err)
	}
}

func TestDirectEditRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tx := addTx(t, svc, "Moussa", 333.33, models.TheyOweMe)

	for _, target := range []float64{210.10, 999.99, 0.02} {
		res, err := svc.DirectEdit(ctx, testActor, tx.PersonID, target, models.TheyOweMe)
		if err != nil {
			t.Fatalf("failed to edit balance to %v: %v", target, err)
		}
		if res.Settled {
			t.Fatalf("edit to %v should not settle", target)
		}
		got := balanceOf(t, svc, "Moussa", models.TheyOweMe)
		if math.Abs(got-target) >= 0.01 {
			t.Errorf("expected balance within 0.01 of %v, got %v", target, got)
		}
	}
}

func TestDirectEditNoOpWithinEpsilon(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	tx := addTx(t, svc, "Moussa", 100, models.TheyOweMe)

	res, err := svc.DirectEdit(ctx, testActor, tx.PersonID, 100.005, models.TheyOweMe)
	if err != nil {
		t.Fatalf("failed to edit balance: %v", err)
	}
	if !res.NoOp {
		t.Error("expected edit within epsilon of current balance to be a no-op")
	}

	person, err := store.GetPerson(ctx, tx.PersonID)
	if err != nil {
		t.Fatalf("failed to load person: %v", err)
	}
	if len(person.Transactions) != 1 {
		t.Errorf("expected no adjustment persisted, got %d transactions", len(person.Transactions))
	}
}

func TestDirectEditRejectsNegativeTarget(t *testing.T) {
	svc, _ := newTestService(t)

	tx := addTx(t, svc, "Moussa", 100, models.TheyOweMe)
	_, err := svc.DirectEdit(context.Background(), testActor, tx.PersonID, -50, models.TheyOweMe)
	if !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative target, got %v", err)
	}
}

func TestSettleNow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tx := addTx(t, svc, "Moussa", 275, models.TheyOweMe)

	rec, err := svc.SettleNow(ctx, testActor, tx.PersonID, models.TheyOweMe, "cash handover")
	if err != nil {
		t.Fatalf("failed to settle: %v", err)
	}
	if rec.TotalAmount != 275 {
		t.Errorf("expected archived total 275, got %v", rec.TotalAmount)
	}
	if rec.Notes != "cash handover" {
		t.Errorf("expected notes preserved, got %q", rec.Notes)
	}

	// Settling again hits a person that no longer exists.
	if _, err := svc.SettleNow(ctx, testActor, tx.PersonID, models.TheyOweMe, ""); !isNotFound(err) {
		t.Errorf("expected ErrNotFound on repeated settle, got %v", err)
	}

	records, err := svc.ListSettledRecords(ctx)
	if err != nil {
		t.Fatalf("failed to list settled records: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected a single settled record, got %d", len(records))
	}
}

// failingDeleteStore simulates a store whose archive write succeeds
// but whose transaction purge fails afterwards.
type failingDeleteStore struct {
	storage.Store
}

func (s *failingDeleteStore) DeleteTransactionsByPerson(ctx context.Context, personID string) error {
	return errors.New("disk full")
}

func TestSettleArchiveSurvivesDeleteFailure(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	wrapped := &failingDeleteStore{Store: store}
	svc := NewLedgerService(wrapped, cache.New(time.Minute), audit.NewRecorder(store), "FCFA")
	ctx := context.Background()

	tx := addTx(t, svc, "Moussa", 120, models.TheyOweMe)

	rec, err := svc.SettleNow(ctx, testActor, tx.PersonID, models.TheyOweMe, "")
	if !errors.Is(err, ErrDeleteAfterArchiveFailed) {
		t.Fatalf("expected ErrDeleteAfterArchiveFailed, got %v", err)
	}
	if rec == nil {
		t.Fatal("expected the settled record despite the delete failure")
	}

	var deleteErr *DeleteAfterArchiveError
	if !errors.As(err, &deleteErr) {
		t.Fatalf("expected DeleteAfterArchiveError, got %T", err)
	}
	if deleteErr.PersonID != tx.PersonID {
		t.Errorf("expected failure to name person %s, got %s", tx.PersonID, deleteErr.PersonID)
	}

	// The archive write happened before the failed delete, so the
	// record is durable.
	records, err := store.ListSettledRecords(ctx)
	if err != nil {
		t.Fatalf("failed to list settled records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 settled record, got %d", len(records))
	}
	if records[0].TotalAmount != 120 {
		t.Errorf("expected archived total 120, got %v", records[0].TotalAmount)
	}
}

func TestMutationsInvalidateCachedListings(t *testing.T) {
	svc, _ := newTestService(t)

	addTx(t, svc, "Moussa", 100, models.TheyOweMe)
	if got := balanceOf(t, svc, "Moussa", models.TheyOweMe); got != 100 {
		t.Fatalf("expected balance 100, got %v", got)
	}

	// The listing is now cached with a long TTL; the write must evict
	// it so the next read sees the new entry.
	addTx(t, svc, "Moussa", 50, models.TheyOweMe)
	if got := balanceOf(t, svc, "Moussa", models.TheyOweMe); got != 150 {
		t.Errorf("expected balance 150 after invalidation, got %v", got)
	}
}

func TestListPersonsFiltersByMode(t *testing.T) {
	svc, _ := newTestService(t)

	addTx(t, svc, "Moussa", 100, models.TheyOweMe)
	addTx(t, svc, "Fatou", 80, models.IOweThem)

	rows, err := svc.ListPersons(context.Background(), models.TheyOweMe)
	if err != nil {
		t.Fatalf("failed to list persons: %v", err)
	}
	if len(rows) != 1 || rows[0].Person.Name != "Moussa" {
		t.Fatalf("expected only Moussa in they-owe-me view, got %d rows", len(rows))
	}

	rows, err = svc.ListPersons(context.Background(), models.IOweThem)
	if err != nil {
		t.Fatalf("failed to list persons: %v", err)
	}
	if len(rows) != 1 || rows[0].Person.Name != "Fatou" {
		t.Fatalf("expected only Fatou in i-owe-them view, got %d rows", len(rows))
	}
}

func TestSettleAndUnsettleTransaction(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tx := addTx(t, svc, "Moussa", 500, models.TheyOweMe)

	settled, err := svc.SettleTransaction(ctx, testActor, tx.ID)
	if err != nil {
		t.Fatalf("failed to settle transaction: %v", err)
	}
	if settled.Amount != 0 || !settled.Settled {
		t.Errorf("expected zeroed settled transaction, got amount=%v settled=%v", settled.Amount, settled.Settled)
	}
	if settled.OriginalAmount != 500 {
		t.Errorf("expected original amount 500 preserved, got %v", settled.OriginalAmount)
	}

	// Repeating is a no-op.
	again, err := svc.SettleTransaction(ctx, testActor, tx.ID)
	if err != nil {
		t.Fatalf("failed on repeated settle: %v", err)
	}
	if again.Amount != 0 || again.OriginalAmount != 500 {
		t.Errorf("expected repeated settle to change nothing, got %+v", again)
	}

	restored, err := svc.UnsettleTransaction(ctx, testActor, tx.ID)
	if err != nil {
		t.Fatalf("failed to unsettle transaction: %v", err)
	}
	if restored.Amount != 500 || restored.Settled {
		t.Errorf("expected restored amount 500, got amount=%v settled=%v", restored.Amount, restored.Settled)
	}
}

func TestUnsettlePaymentRestoresNegativeSign(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tx := addTx(t, svc, "Moussa", 500, models.TheyOweMe)
	res, err := svc.RecordPayment(ctx, testActor, PaymentInput{
		PersonID: tx.PersonID, Amount: 200, Mode: models.TheyOweMe,
	})
	if err != nil {
		t.Fatalf("failed to record payment: %v", err)
	}

	if _, err := svc.SettleTransaction(ctx, testActor, res.Transaction.ID); err != nil {
		t.Fatalf("failed to settle payment row: %v", err)
	}
	restored, err := svc.UnsettleTransaction(ctx, testActor, res.Transaction.ID)
	if err != nil {
		t.Fatalf("failed to unsettle payment row: %v", err)
	}
	if restored.Amount != -200 {
		t.Errorf("expected payment restored as -200, got %v", restored.Amount)
	}
}

func TestDeletePersonRemovesEverything(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	tx := addTx(t, svc, "Moussa", 500, models.TheyOweMe)
	addTx(t, svc, "Moussa", 300, models.TheyOweMe)

	if err := svc.DeletePerson(ctx, testActor, tx.PersonID, models.TheyOweMe); err != nil {
		t.Fatalf("failed to delete person: %v", err)
	}

	if _, err := store.GetPerson(ctx, tx.PersonID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	// No archive is written for a plain delete.
	records, err := svc.ListSettledRecords(ctx)
	if err != nil {
		t.Fatalf("failed to list settled records: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no settled records after plain delete, got %d", len(records))
	}
}

func TestMutationsLeaveActivityTrail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tx := addTx(t, svc, "Moussa", 500, models.TheyOweMe)
	if _, err := svc.RecordPayment(ctx, testActor, PaymentInput{
		PersonID: tx.PersonID, Amount: 500, Mode: models.TheyOweMe,
	}); err != nil {
		t.Fatalf("failed to record payment: %v", err)
	}

	entries, err := svc.ListActivity(ctx)
	if err != nil {
		t.Fatalf("failed to list activity: %v", err)
	}
	// One entry for the create, one for the settling payment.
	if len(entries) != 2 {
		t.Fatalf("expected 2 activity entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.UserName != testActor.Name {
			t.Errorf("expected actor %q on entry, got %q", testActor.Name, e.UserName)
		}
	}

	var sawSettled bool
	for _, e := range entries {
		if e.Action == models.ActionPayment && strings.Contains(e.Description, "settled the account") {
			sawSettled = true
		}
	}
	if !sawSettled {
		t.Error("expected the payment entry to mention the settlement")
	}
}
