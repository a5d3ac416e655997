package core_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"supplier-recon/internal/core"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE divergences, reconciled_invoices, ledger_entries, suppliers, imported_statements CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

func savedSample(t *testing.T, svc core.StatementService) *core.ImportedStatement {
	t.Helper()
	parser := core.NewStatementParser(nil)
	st, err := parser.Parse(strings.Split(sampleLedger, "\n"), []byte(sampleLedger))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	recs := core.ReconcileAll(st)

	saved, err := svc.SaveResult(context.Background(), "razao_jan.txt", st, recs)
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	return saved
}

func TestStatementService_SaveAndFindByHash(t *testing.T) {
	pool := setupTestDB(t)
	svc := core.NewStatementService(pool)
	ctx := context.Background()

	saved := savedSample(t, svc)
	if saved.ID == 0 {
		t.Fatal("expected a generated id")
	}
	if saved.TotalSuppliers != 3 || saved.TotalEntries != 4 {
		t.Errorf("counters = %d suppliers / %d entries", saved.TotalSuppliers, saved.TotalEntries)
	}
	if saved.Status != "COMPLETED" {
		t.Errorf("status = %q", saved.Status)
	}

	found, err := svc.FindByHash(ctx, core.Fingerprint([]byte(sampleLedger)))
	if err != nil {
		t.Fatalf("FindByHash: %v", err)
	}
	if found.ID != saved.ID {
		t.Errorf("found id %d, want %d", found.ID, saved.ID)
	}

	if _, err := svc.FindByHash(ctx, "deadbeef"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown hash: got %v, want ErrNotFound", err)
	}
}

func TestStatementService_DuplicateSave(t *testing.T) {
	pool := setupTestDB(t)
	svc := core.NewStatementService(pool)

	savedSample(t, svc)

	parser := core.NewStatementParser(nil)
	st, _ := parser.Parse(strings.Split(sampleLedger, "\n"), []byte(sampleLedger))
	_, err := svc.SaveResult(context.Background(), "razao_jan_again.txt", st, core.ReconcileAll(st))
	if !errors.Is(err, core.ErrDuplicateStatement) {
		t.Errorf("got %v, want ErrDuplicateStatement", err)
	}

	all, err := svc.ListStatements(context.Background())
	if err != nil {
		t.Fatalf("ListStatements: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d statements, duplicate must not create a second row", len(all))
	}
}

func TestStatementService_SummaryAndSuppliers(t *testing.T) {
	pool := setupTestDB(t)
	svc := core.NewStatementService(pool)
	ctx := context.Background()

	saved := savedSample(t, svc)

	sum, err := svc.GetSummary(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if sum.Settled+sum.Open+sum.Advanced != 3 {
		t.Errorf("status counts %d/%d/%d do not cover all 3 suppliers", sum.Settled, sum.Open, sum.Advanced)
	}

	suppliers, total, err := svc.ListSuppliers(ctx, saved.ID, core.SupplierFilter{})
	if err != nil {
		t.Fatalf("ListSuppliers: %v", err)
	}
	if total != 3 || len(suppliers) != 3 {
		t.Fatalf("got %d/%d suppliers, want 3", len(suppliers), total)
	}
	// Ordered by payable descending.
	for i := 1; i < len(suppliers); i++ {
		if suppliers[i].Payable.GreaterThan(suppliers[i-1].Payable) {
			t.Error("suppliers not ordered by payable descending")
		}
	}

	open, total, err := svc.ListSuppliers(ctx, saved.ID, core.SupplierFilter{Status: core.SupplierOpen})
	if err != nil {
		t.Fatalf("ListSuppliers filtered: %v", err)
	}
	if total != len(open) {
		t.Errorf("filtered total %d != returned %d", total, len(open))
	}
	for _, s := range open {
		if s.Status != core.SupplierOpen {
			t.Errorf("filter leaked status %s", s.Status)
		}
	}
}

func TestStatementService_ListDivergencesSeverityOrder(t *testing.T) {
	pool := setupTestDB(t)
	svc := core.NewStatementService(pool)
	ctx := context.Background()

	parser := core.NewStatementParser(nil)
	st, err := parser.Parse(strings.Split(sampleLedger, "\n"), []byte(sampleLedger))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	recs := core.ReconcileAll(st)

	// Attach findings in an order that alphabetical sorting would scramble:
	// LOW ahead of MEDIUM, HIGH last.
	recs[0].Divergences = []core.Divergence{
		{AccountCode: recs[0].AccountCode, Kind: core.DivergenceOther, Severity: core.SeverityLow, Description: "informational", Amount: amount("1")},
		{AccountCode: recs[0].AccountCode, Kind: core.DivergenceUnmatchedPayment, Severity: core.SeverityMedium, Description: "payments exceed open purchases by 50.00", Amount: amount("50")},
	}
	recs[0].HasDivergence = true
	recs[1].Divergences = []core.Divergence{
		{AccountCode: recs[1].AccountCode, Kind: core.DivergenceBalanceMismatch, Severity: core.SeverityHigh, Description: "statement closing balance differs", Amount: amount("200")},
	}
	recs[1].HasDivergence = true

	saved, err := svc.SaveResult(ctx, "razao_jan.txt", st, recs)
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	divergences, err := svc.ListDivergences(ctx, saved.ID)
	if err != nil {
		t.Fatalf("ListDivergences: %v", err)
	}
	if len(divergences) != 3 {
		t.Fatalf("got %d divergences, want 3", len(divergences))
	}
	want := []core.DivergenceSeverity{core.SeverityHigh, core.SeverityMedium, core.SeverityLow}
	for i, d := range divergences {
		if d.Severity != want[i] {
			t.Errorf("position %d: severity %s, want %s", i, d.Severity, want[i])
		}
	}
}

func TestStatementService_GetSupplierDetail(t *testing.T) {
	pool := setupTestDB(t)
	svc := core.NewStatementService(pool)
	ctx := context.Background()

	saved := savedSample(t, svc)
	suppliers, _, err := svc.ListSuppliers(ctx, saved.ID, core.SupplierFilter{})
	if err != nil {
		t.Fatalf("ListSuppliers: %v", err)
	}

	var bdg *core.SupplierRecord
	for i := range suppliers {
		if suppliers[i].AccountCode == "1" {
			bdg = &suppliers[i]
		}
	}
	if bdg == nil {
		t.Fatal("supplier with account code 1 not stored")
	}

	detail, err := svc.GetSupplier(ctx, bdg.ID)
	if err != nil {
		t.Fatalf("GetSupplier: %v", err)
	}
	if len(detail.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(detail.Entries))
	}
	if len(detail.Invoices) != 1 {
		t.Fatalf("got %d invoices, want 1", len(detail.Invoices))
	}
	if detail.Invoices[0].InvoiceNumber != "21100" {
		t.Errorf("invoice number = %q", detail.Invoices[0].InvoiceNumber)
	}
	if detail.Invoices[0].Status != core.InvoicePartiallyPaid {
		t.Errorf("invoice status = %s", detail.Invoices[0].Status)
	}

	if _, err := svc.GetSupplier(ctx, 999999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown supplier: got %v, want ErrNotFound", err)
	}
}
