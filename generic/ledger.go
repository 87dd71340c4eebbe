/*
ledger.go - Balance journal for the annual and medical leave pools

PURPOSE:
  Worker records carry the current annual/medical balances as mutable
  fields. Every change to those fields goes through Ledger.Post, which
  writes the new balance AND appends an immutable BalanceTransaction, so
  "why is the balance X?" is always answerable from the journal.

INVARIANTS:
  1. The journal is append-only; corrections are new entries.
  2. A balance never goes below zero through Post.
  3. Idempotency keys are unique: approving or deleting the same request
     twice cannot double-post.

ENTRY TYPES:
  deduction    Leave approval consumed days
  restoration  Approved leave deleted, days added back
  adjustment   Manual administrator correction

EXAMPLE FLOW:
  balance 3, approve 5 weekdays of annual leave:
    deduction   -3  (balance 0, 3 paid + 2 unpaid days)
  delete that request:
    restoration +3  (balance 3)

SEE ALSO:
  - store.go: JournalStore
  - leave/service.go: Posts deductions and restorations
*/
package generic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TxType string

const (
	TxDeduction   TxType = "deduction"
	TxRestoration TxType = "restoration"
	TxAdjustment  TxType = "adjustment"
)

// BalanceTransaction is one immutable journal entry.
type BalanceTransaction struct {
	ID             TransactionID   `json:"id"`
	WorkerID       WorkerID        `json:"worker_id"`
	Pool           Pool            `json:"pool"`
	Delta          Amount          `json:"delta"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	Type           TxType          `json:"type"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BalanceChange is the input to Ledger.Post.
type BalanceChange struct {
	Pool           Pool
	Delta          decimal.Decimal
	Type           TxType
	ReferenceID    string
	Reason         string
	IdempotencyKey string
	// CapAtLimit clamps a positive change so the balance does not exceed the
	// pool's configured limit.
	CapAtLimit bool
}

type Ledger struct {
	Store Store
	Now   func() time.Time
}

func NewLedger(store Store) *Ledger {
	return &Ledger{Store: store, Now: time.Now}
}

// Post applies change to w (in memory and in the store) and journals it.
func (l *Ledger) Post(ctx context.Context, w *Worker, change BalanceChange) (BalanceTransaction, error) {
	current := w.Leave.Balance(change.Pool)
	next := current.Add(change.Delta)

	if change.CapAtLimit && change.Delta.IsPositive() {
		if limit := w.Leave.Limit(change.Pool); limit.IsPositive() && next.GreaterThan(limit) {
			next = decimal.Max(limit, current)
		}
	}
	if next.IsNegative() {
		return BalanceTransaction{}, InvalidInput("%s balance of worker %s would become negative (%s, change %s)",
			change.Pool, w.ID, current, change.Delta)
	}

	tx := BalanceTransaction{
		ID:             TransactionID(uuid.NewString()),
		WorkerID:       w.ID,
		Pool:           change.Pool,
		Delta:          Amount{Value: next.Sub(current), Unit: UnitDays},
		BalanceAfter:   next,
		Type:           change.Type,
		ReferenceID:    change.ReferenceID,
		Reason:         change.Reason,
		IdempotencyKey: change.IdempotencyKey,
		CreatedAt:      l.Now().UTC(),
	}
	if err := l.Store.AppendBalanceTx(ctx, tx); err != nil {
		return BalanceTransaction{}, fmt.Errorf("journal %s for worker %s: %w", change.Type, w.ID, err)
	}

	w.Leave = w.Leave.WithBalance(change.Pool, next)
	if err := l.Store.UpdateLeaveBalances(ctx, w.ID, w.Leave.AnnualBalance, w.Leave.MedicalBalance); err != nil {
		return BalanceTransaction{}, fmt.Errorf("update %s balance for worker %s: %w", change.Pool, w.ID, err)
	}
	return tx, nil
}

// History returns the worker's journal in posting order.
func (l *Ledger) History(ctx context.Context, workerID WorkerID) ([]BalanceTransaction, error) {
	return l.Store.ListBalanceTx(ctx, workerID)
}

// NetDelta sums the journal deltas for one pool.
func NetDelta(txs []BalanceTransaction, pool Pool) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Pool == pool {
			total = total.Add(tx.Delta.Value)
		}
	}
	return total
}
