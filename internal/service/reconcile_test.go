package service

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/adiallo/debtbook/internal/models"
)

func mkTx(t *testing.T, amount float64, mode models.ViewMode) *models.Transaction {
	t.Helper()
	tx, err := models.NewTransaction("person-1", "Loan", amount, mode, time.Now())
	if err != nil {
		t.Fatalf("failed to build transaction: %v", err)
	}
	return tx
}

func TestReconcile(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		txs       []*models.Transaction
		target    float64
		mode      models.ViewMode
		wantDelta float64
		wantNoOp  bool
	}{
		{
			name:      "raise balance",
			txs:       []*models.Transaction{mkTx(t, 500, models.TheyOweMe)},
			target:    800,
			mode:      models.TheyOweMe,
			wantDelta: 300,
		},
		{
			name:      "lower balance",
			txs:       []*models.Transaction{mkTx(t, 500, models.TheyOweMe)},
			target:    200,
			mode:      models.TheyOweMe,
			wantDelta: -300,
		},
		{
			name:      "zero out",
			txs:       []*models.Transaction{mkTx(t, 450, models.TheyOweMe)},
			target:    0,
			mode:      models.TheyOweMe,
			wantDelta: -450,
		},
		{
			name:      "i-owe-them target points negative",
			txs:       []*models.Transaction{mkTx(t, -100, models.IOweThem)},
			target:    250,
			mode:      models.IOweThem,
			wantDelta: -150,
		},
		{
			name:     "already at target",
			txs:      []*models.Transaction{mkTx(t, 500, models.TheyOweMe)},
			target:   500,
			mode:     models.TheyOweMe,
			wantNoOp: true,
		},
		{
			name:     "within epsilon of target",
			txs:      []*models.Transaction{mkTx(t, 500.004, models.TheyOweMe)},
			target:   500,
			mode:     models.TheyOweMe,
			wantNoOp: true,
		},
		{
			name:      "empty log",
			txs:       nil,
			target:    75,
			mode:      models.TheyOweMe,
			wantDelta: 75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj, err := Reconcile(tt.txs, "person-1", tt.target, tt.mode, now)
			if err != nil {
				t.Fatalf("Reconcile failed: %v", err)
			}
			if tt.wantNoOp {
				if adj != nil {
					t.Fatalf("expected no adjustment, got %+v", adj)
				}
				return
			}
			if adj == nil {
				t.Fatal("expected an adjustment, got nil")
			}
			if math.Abs(adj.Amount-tt.wantDelta) > 1e-9 {
				t.Errorf("expected delta %v, got %v", tt.wantDelta, adj.Amount)
			}
			if adj.PersonID != "person-1" {
				t.Errorf("expected person-1, got %s", adj.PersonID)
			}
			if adj.Description != "Adjustment" {
				t.Errorf("expected Adjustment description, got %q", adj.Description)
			}
		})
	}
}

func TestReconcileRejectsBadInput(t *testing.T) {
	now := time.Now()
	txs := []*models.Transaction{mkTx(t, 100, models.TheyOweMe)}

	if _, err := Reconcile(txs, "person-1", -10, models.TheyOweMe, now); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative target, got %v", err)
	}
	if _, err := Reconcile(txs, "person-1", math.Inf(1), models.TheyOweMe, now); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for infinite target, got %v", err)
	}
	if _, err := Reconcile(txs, "person-1", 50, models.ViewMode("bogus"), now); !errors.Is(err, ErrInvalidViewMode) {
		t.Errorf("expected ErrInvalidViewMode, got %v", err)
	}
}
