package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sacscloud/checkout/internal/orchestrate"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkout.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePayload(intentID string) orchestrate.OrderPayload {
	return orchestrate.OrderPayload{
		AccountID: "acct-123",
		Header: orchestrate.OrderHeader{
			Date:            "2026-03-14",
			Time:            "15:09:26",
			Subtotal:        172.41,
			Tax:             27.59,
			Total:           200,
			Currency:        "MXN",
			CustomerName:    "Ana Torres",
			CustomerEmail:   "ana@example.com",
			CustomerTypeKey: "CT1",
			WarehouseKey:    "W1",
			BranchKey:       "B1",
			Status:          "open",
			PaymentStatus:   "paid",
			Channel:         "ecommerce-widget",
			PaymentMethod:   "card",
			IntentID:        intentID,
		},
		Lines: []orchestrate.OrderLine{
			{
				ProductID:       "p1",
				Name:            "Widget",
				Quantity:        2,
				UnitPriceIncTax: 100,
				TaxRatePercent:  16,
				UnitPriceExTax:  86.21,
				AmountExTax:     172.41,
				TaxAmount:       27.59,
				AmountIncTax:    200,
			},
		},
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkout.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkout.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"orders", "order_lines", "failed_commits"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_SetsSchemaVersion(t *testing.T) {
	s := openTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestCommitOrder_ReturnsSequentialFolio(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ref1, err := s.CommitOrder(ctx, samplePayload("pi_3aaa"))
	if err != nil {
		t.Fatalf("CommitOrder() failed: %v", err)
	}
	ref2, err := s.CommitOrder(ctx, samplePayload("pi_3bbb"))
	if err != nil {
		t.Fatalf("second CommitOrder() failed: %v", err)
	}

	if ref1 != "1" || ref2 != "2" {
		t.Errorf("folios = %q, %q, want sequential 1, 2", ref1, ref2)
	}
}

func TestCommitOrder_WritesHeaderAndLines(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	payload := samplePayload("pi_3abc")
	payload.SignaturePNG = []byte{0x89, 'P', 'N', 'G'}
	if _, err := s.CommitOrder(ctx, payload); err != nil {
		t.Fatalf("CommitOrder() failed: %v", err)
	}

	var total float64
	var intentID string
	var sig []byte
	err := s.db.QueryRow(
		"SELECT total, intent_id, signature_png FROM orders WHERE folio = 1",
	).Scan(&total, &intentID, &sig)
	if err != nil {
		t.Fatalf("query order: %v", err)
	}
	if total != 200 || intentID != "pi_3abc" {
		t.Errorf("header = (%v, %q), want (200, pi_3abc)", total, intentID)
	}
	if len(sig) == 0 {
		t.Error("signature blob was not persisted")
	}

	var lineCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM order_lines WHERE folio = 1").Scan(&lineCount); err != nil {
		t.Fatalf("count lines: %v", err)
	}
	if lineCount != 1 {
		t.Errorf("line count = %d, want 1", lineCount)
	}
}

func TestCommitOrder_DuplicateIntentRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.CommitOrder(ctx, samplePayload("pi_3dup")); err != nil {
		t.Fatalf("CommitOrder() failed: %v", err)
	}

	// The unique index on intent_id is the duplicate-order guard: the
	// same captured payment can never produce two orders.
	if _, err := s.CommitOrder(ctx, samplePayload("pi_3dup")); err == nil {
		t.Error("expected duplicate intent_id to be rejected")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM orders").Scan(&count); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 1 {
		t.Errorf("order count = %d after rejected duplicate, want 1", count)
	}
}

func TestListOrders_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.CommitOrder(ctx, samplePayload("pi_3one"))
	s.CommitOrder(ctx, samplePayload("pi_3two"))

	orders, err := s.ListOrders(ctx)
	if err != nil {
		t.Fatalf("ListOrders() failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("len = %d, want 2", len(orders))
	}
	if orders[0].Folio != 2 || orders[1].Folio != 1 {
		t.Errorf("order folios = %d, %d, want 2, 1", orders[0].Folio, orders[1].Folio)
	}
	if orders[0].LineCount != 1 {
		t.Errorf("LineCount = %d, want 1", orders[0].LineCount)
	}
}

func TestFailedCommitLedger(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	fc := FailedCommit{
		IntentID:         "pi_3fail",
		Reason:           "order commit failed",
		RawDetail:        "503 service unavailable",
		AmountMinorUnits: 20000,
		Currency:         "MXN",
	}
	if err := s.RecordFailedCommit(ctx, fc); err != nil {
		t.Fatalf("RecordFailedCommit() failed: %v", err)
	}

	// Idempotent: a second record of the same intent is a no-op.
	if err := s.RecordFailedCommit(ctx, fc); err != nil {
		t.Fatalf("duplicate RecordFailedCommit() failed: %v", err)
	}

	rows, err := s.ListFailedCommits(ctx, true)
	if err != nil {
		t.Fatalf("ListFailedCommits() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len = %d, want 1", len(rows))
	}
	if rows[0].IntentID != "pi_3fail" || rows[0].AmountMinorUnits != 20000 {
		t.Errorf("row = %+v", rows[0])
	}
	if rows[0].Resolved {
		t.Error("fresh ledger row must be unresolved")
	}
}

func TestResolveFailedCommit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.RecordFailedCommit(ctx, FailedCommit{
		IntentID: "pi_3fix", Reason: "r", AmountMinorUnits: 100, Currency: "MXN",
	})

	ok, err := s.ResolveFailedCommit(ctx, "pi_3fix")
	if err != nil {
		t.Fatalf("ResolveFailedCommit() failed: %v", err)
	}
	if !ok {
		t.Error("expected resolution to match a row")
	}

	unresolved, err := s.ListFailedCommits(ctx, true)
	if err != nil {
		t.Fatalf("ListFailedCommits() failed: %v", err)
	}
	if len(unresolved) != 0 {
		t.Errorf("unresolved rows = %d, want 0", len(unresolved))
	}

	all, err := s.ListFailedCommits(ctx, false)
	if err != nil {
		t.Fatalf("ListFailedCommits(all) failed: %v", err)
	}
	if len(all) != 1 || !all[0].Resolved {
		t.Errorf("all rows = %+v, want one resolved row", all)
	}

	ok, err = s.ResolveFailedCommit(ctx, "pi_3missing")
	if err != nil {
		t.Fatalf("ResolveFailedCommit(missing) failed: %v", err)
	}
	if ok {
		t.Error("resolving an unknown intent must report no match")
	}
}
