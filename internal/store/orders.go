package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sacscloud/checkout/internal/orchestrate"
)

// CommitOrder persists an order payload and returns its sequential folio
// as the order reference. Header and lines are written in one
// transaction: a failure anywhere leaves no partial order behind.
//
// Implements orchestrate.OrderService.
func (s *Store) CommitOrder(ctx context.Context, payload orchestrate.OrderPayload) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("commit order: %w", err)
	}
	defer tx.Rollback()

	h := payload.Header
	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders
		(account_id, order_date, order_time, subtotal, tax, total, currency,
		 customer_name, customer_email, customer_phone, customer_address,
		 customer_city, customer_postal_code, customer_type_key,
		 warehouse_key, branch_key, status, payment_status, channel,
		 payment_method, intent_id, signature_png)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		payload.AccountID,
		h.Date,
		h.Time,
		h.Subtotal,
		h.Tax,
		h.Total,
		h.Currency,
		h.CustomerName,
		h.CustomerEmail,
		h.CustomerPhone,
		h.CustomerAddress,
		h.CustomerCity,
		h.CustomerPostalCode,
		h.CustomerTypeKey,
		h.WarehouseKey,
		h.BranchKey,
		h.Status,
		h.PaymentStatus,
		h.Channel,
		h.PaymentMethod,
		h.IntentID,
		payload.SignaturePNG,
	)
	if err != nil {
		return "", fmt.Errorf("commit order: insert header: %w", err)
	}

	folio, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("commit order: folio: %w", err)
	}

	for _, l := range payload.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines
			(folio, product_id, name, variant, quantity,
			 unit_price_inc_tax, tax_rate_percent,
			 unit_price_ex_tax, amount_ex_tax, tax_amount, amount_inc_tax)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			folio,
			l.ProductID,
			l.Name,
			l.Variant,
			l.Quantity,
			l.UnitPriceIncTax,
			l.TaxRatePercent,
			l.UnitPriceExTax,
			l.AmountExTax,
			l.TaxAmount,
			l.AmountIncTax,
		)
		if err != nil {
			return "", fmt.Errorf("commit order: insert line %s: %w", l.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit order: %w", err)
	}

	return strconv.FormatInt(folio, 10), nil
}

// OrderSummary is one row of the order listing.
type OrderSummary struct {
	Folio         int64
	Date          string
	Time          string
	CustomerName  string
	Total         float64
	Currency      string
	PaymentStatus string
	IntentID      string
	LineCount     int
}

// ListOrders returns committed orders, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]OrderSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.folio, o.order_date, o.order_time, o.customer_name,
		       o.total, o.currency, o.payment_status, o.intent_id,
		       COUNT(l.id)
		FROM orders o
		LEFT JOIN order_lines l ON l.folio = o.folio
		GROUP BY o.folio
		ORDER BY o.folio DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []OrderSummary
	for rows.Next() {
		var o OrderSummary
		if err := rows.Scan(&o.Folio, &o.Date, &o.Time, &o.CustomerName,
			&o.Total, &o.Currency, &o.PaymentStatus, &o.IntentID, &o.LineCount); err != nil {
			return nil, fmt.Errorf("list orders: scan: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}
