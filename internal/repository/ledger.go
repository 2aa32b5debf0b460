package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"canx-backend/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LedgerKind string

const (
	LedgerOrder   LedgerKind = "order"
	LedgerPayment LedgerKind = "payment"
)

// LedgerEntry is one line of a customer's account statement.
type LedgerEntry struct {
	At        time.Time       `json:"date"`
	Kind      LedgerKind      `json:"kind"`
	OrderID   string          `json:"orderId"`
	Reference string          `json:"reference"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Balance   decimal.Decimal `json:"balance"`
}

type LedgerRepository interface {
	// Statement merges a customer's placed orders and approved payments by date
	// and carries a running balance.
	Statement(ctx context.Context, customerID string) ([]LedgerEntry, error)
}

type ledgerRepoImpl struct {
	db *sqlx.DB
}

// NewLedgerRepository shares the gorm connection pool with sqlx.
func NewLedgerRepository(db *gorm.DB) (LedgerRepository, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	driver := db.Dialector.Name()
	if driver == "sqlite" {
		driver = "sqlite3"
	}

	return &ledgerRepoImpl{
		db: sqlx.NewDb(sqlDB, driver),
	}, nil
}

type orderRow struct {
	ID          string          `db:"id"`
	OrderNumber string          `db:"order_number"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	CreatedAt   time.Time       `db:"created_at"`
}

type paymentRow struct {
	OrderID        string          `db:"order_id"`
	Reference      string          `db:"reference"`
	ApprovedAmount decimal.Decimal `db:"approved_amount"`
	CashDiscount   decimal.Decimal `db:"cash_discount"`
	Interest       decimal.Decimal `db:"interest"`
	SettledAt      *time.Time      `db:"settled_at"`
	CreatedAt      time.Time       `db:"created_at"`
}

func (r *ledgerRepoImpl) Statement(ctx context.Context, customerID string) ([]LedgerEntry, error) {
	var orders []orderRow
	err := r.db.SelectContext(ctx, &orders, r.db.Rebind(`
		SELECT id, order_number, total_amount, created_at
		FROM orders
		WHERE customer_id = ? AND order_status <> ?`),
		customerID, model.OrderDraft)
	if err != nil {
		return nil, fmt.Errorf("select ledger orders: %w", err)
	}

	var payments []paymentRow
	err = r.db.SelectContext(ctx, &payments, r.db.Rebind(`
		SELECT order_id, reference, approved_amount, cash_discount, interest, settled_at, created_at
		FROM payments
		WHERE customer_id = ? AND status = ?`),
		customerID, model.PaymentStateApproved)
	if err != nil {
		return nil, fmt.Errorf("select ledger payments: %w", err)
	}

	entries := make([]LedgerEntry, 0, len(orders)+len(payments))
	for _, o := range orders {
		entries = append(entries, LedgerEntry{
			At:        o.CreatedAt,
			Kind:      LedgerOrder,
			OrderID:   o.ID,
			Reference: o.OrderNumber,
			Debit:     o.TotalAmount,
			Credit:    decimal.Zero,
		})
	}
	for _, p := range payments {
		at := p.CreatedAt
		if p.SettledAt != nil {
			at = *p.SettledAt
		}
		entries = append(entries, LedgerEntry{
			At:        at,
			Kind:      LedgerPayment,
			OrderID:   p.OrderID,
			Reference: p.Reference,
			Debit:     decimal.Zero,
			Credit:    p.ApprovedAmount.Add(p.CashDiscount).Sub(p.Interest),
		})
	}

	return runningBalance(entries), nil
}

// runningBalance sorts entries by date, orders before payments on ties.
func runningBalance(entries []LedgerEntry) []LedgerEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].At.Equal(entries[j].At) {
			return entries[i].Kind == LedgerOrder && entries[j].Kind == LedgerPayment
		}
		return entries[i].At.Before(entries[j].At)
	})

	balance := decimal.Zero
	for i := range entries {
		balance = balance.Add(entries[i].Debit).Sub(entries[i].Credit)
		entries[i].Balance = balance
	}
	return entries
}
