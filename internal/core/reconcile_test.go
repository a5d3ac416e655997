package core_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"supplier-recon/internal/core"
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) *time.Time {
	t := time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func purchase(d int, nf, credit string) core.LedgerEntry {
	return core.LedgerEntry{
		Date:          day(d),
		Narration:     "COMPRAS CONFORME NF " + nf,
		InvoiceNumber: nf,
		Credit:        amount(credit),
		Operation:     core.OpPurchase,
	}
}

func payment(d int, debit string) core.LedgerEntry {
	return core.LedgerEntry{
		Date:      day(d),
		Narration: "PGTO DUPLICATA",
		Debit:     amount(debit),
		Operation: core.OpPayment,
	}
}

func block(entries ...core.LedgerEntry) core.SupplierBlock {
	return core.SupplierBlock{
		AccountCode:   "42",
		AccountNumber: "2.1.01.042",
		DisplayName:   "FORNECEDOR TESTE LTDA",
		Entries:       entries,
	}
}

func TestReconcile_FullSettlementInTwoPayments(t *testing.T) {
	b := block(
		purchase(10, "21100", "1000"),
		payment(15, "600"),
		payment(20, "400"),
	)

	rec := core.Reconcile(b)

	if len(rec.Invoices) != 1 {
		t.Fatalf("got %d invoices, want 1", len(rec.Invoices))
	}
	inv := rec.Invoices[0]
	if inv.Status != core.InvoicePaid {
		t.Errorf("invoice status = %s, want PAID", inv.Status)
	}
	if !inv.Allocated.Equal(amount("1000")) || !inv.Remaining.IsZero() {
		t.Errorf("allocated %s remaining %s", inv.Allocated, inv.Remaining)
	}
	if rec.Status != core.SupplierSettled {
		t.Errorf("supplier status = %s, want SETTLED", rec.Status)
	}
	if rec.HasDivergence {
		t.Errorf("unexpected divergences: %+v", rec.Divergences)
	}
	if rec.PendingCount != 0 || rec.PartialCount != 0 {
		t.Errorf("pending %d partial %d", rec.PendingCount, rec.PartialCount)
	}
}

func TestReconcile_OverpaymentReportsUnmatchedRemainder(t *testing.T) {
	b := block(
		purchase(10, "21100", "1000"),
		payment(15, "1500"),
	)

	rec := core.Reconcile(b)

	if rec.Invoices[0].Status != core.InvoicePaid {
		t.Errorf("invoice status = %s, want PAID", rec.Invoices[0].Status)
	}
	if len(rec.Divergences) != 1 {
		t.Fatalf("got %d divergences, want 1", len(rec.Divergences))
	}
	d := rec.Divergences[0]
	if d.Kind != core.DivergenceUnmatchedPayment {
		t.Errorf("kind = %s", d.Kind)
	}
	if d.Severity != core.SeverityMedium {
		t.Errorf("severity = %s", d.Severity)
	}
	if !d.Amount.Equal(amount("500")) {
		t.Errorf("amount = %s, want 500", d.Amount)
	}
	if rec.Status != core.SupplierAdvanced {
		t.Errorf("supplier status = %s, want ADVANCED", rec.Status)
	}
}

func TestReconcile_FIFOAllocationOrder(t *testing.T) {
	b := block(
		purchase(5, "1001", "300"),
		purchase(10, "1002", "700"),
		payment(15, "500"),
	)

	rec := core.Reconcile(b)

	if got := rec.Invoices[0]; got.Status != core.InvoicePaid || !got.Allocated.Equal(amount("300")) {
		t.Errorf("oldest invoice: status %s allocated %s, want PAID 300", got.Status, got.Allocated)
	}
	if got := rec.Invoices[1]; got.Status != core.InvoicePartiallyPaid || !got.Allocated.Equal(amount("200")) {
		t.Errorf("newer invoice: status %s allocated %s, want PARTIALLY_PAID 200", got.Status, got.Allocated)
	}
	if rec.PartialCount != 1 || rec.PendingCount != 0 {
		t.Errorf("partial %d pending %d", rec.PartialCount, rec.PendingCount)
	}
	if rec.Status != core.SupplierOpen {
		t.Errorf("supplier status = %s, want OPEN", rec.Status)
	}
	if !rec.Payable.Equal(amount("500")) {
		t.Errorf("payable = %s, want 500", rec.Payable)
	}
}

func TestReconcile_StatedTotalsBeatEntrySums(t *testing.T) {
	b := block(
		purchase(10, "1001", "1000"),
		payment(15, "1000"),
	)
	b.StatedDebit = amount("1000")
	b.StatedCredit = amount("1200")
	b.HasTotals = true

	rec := core.Reconcile(b)

	if !rec.TotalCredit.Equal(amount("1200")) {
		t.Errorf("total credit = %s, want the stated 1200", rec.TotalCredit)
	}
	if !rec.Payable.Equal(amount("200")) {
		t.Errorf("payable = %s, want 200", rec.Payable)
	}
	if rec.Status != core.SupplierOpen {
		t.Errorf("status = %s, want OPEN", rec.Status)
	}
}

func TestReconcile_MissingTotalsFallsBackToEntrySums(t *testing.T) {
	b := block(
		purchase(10, "1001", "800"),
		payment(15, "300"),
	)

	rec := core.Reconcile(b)

	if !rec.TotalCredit.Equal(amount("800")) || !rec.TotalDebit.Equal(amount("300")) {
		t.Errorf("totals = %s / %s, want entry sums 300 / 800", rec.TotalDebit, rec.TotalCredit)
	}
	if !rec.Payable.Equal(amount("500")) {
		t.Errorf("payable = %s", rec.Payable)
	}
}

func TestReconcile_BalanceMismatch(t *testing.T) {
	b := block(
		purchase(10, "1001", "5000"),
		payment(15, "200"),
	)
	// Running balance printed on the last entry disagrees with the
	// recomputed closing balance of 4800 by exactly 200.
	b.Entries[1].Balance = amount("5000")
	b.Entries[1].BalanceSign = "C"

	rec := core.Reconcile(b)

	var found *core.Divergence
	for i := range rec.Divergences {
		if rec.Divergences[i].Kind == core.DivergenceBalanceMismatch {
			found = &rec.Divergences[i]
		}
	}
	if found == nil {
		t.Fatalf("no BALANCE_MISMATCH in %+v", rec.Divergences)
	}
	if found.Severity != core.SeverityHigh {
		t.Errorf("severity = %s, want HIGH", found.Severity)
	}
	if !found.Amount.Equal(amount("200")) {
		t.Errorf("amount = %s, want 200", found.Amount)
	}
}

func TestReconcile_ToleranceAbsorbsRoundingNoise(t *testing.T) {
	b := block(
		purchase(10, "1001", "100.00"),
		payment(15, "99.99"),
	)

	rec := core.Reconcile(b)

	if rec.Invoices[0].Status != core.InvoicePaid {
		t.Errorf("invoice status = %s, want PAID within tolerance", rec.Invoices[0].Status)
	}
	if rec.Status != core.SupplierSettled {
		t.Errorf("supplier status = %s, want SETTLED within tolerance", rec.Status)
	}
}

func TestReconcile_NegativePurchaseExcludedFromAllocation(t *testing.T) {
	neg := purchase(10, "1001", "-250")
	b := block(
		neg,
		purchase(12, "1002", "400"),
		payment(15, "400"),
	)

	rec := core.Reconcile(b)

	if len(rec.Invoices) != 1 {
		t.Fatalf("got %d invoices, want 1 (negative excluded)", len(rec.Invoices))
	}
	if rec.Invoices[0].InvoiceNumber != "1002" {
		t.Errorf("surviving invoice = %q", rec.Invoices[0].InvoiceNumber)
	}
	var found bool
	for _, d := range rec.Divergences {
		if d.Kind == core.DivergenceNegativeAllocation && d.Amount.Equal(amount("250")) {
			found = true
		}
	}
	if !found {
		t.Errorf("no NEGATIVE_ALLOCATION divergence in %+v", rec.Divergences)
	}
}

func TestReconcile_OpeningBalanceSign(t *testing.T) {
	b := block(purchase(10, "1001", "100"))
	b.HasOpening = true
	b.OpeningBalance = amount("500")
	b.OpeningSign = "D"

	rec := core.Reconcile(b)

	if !rec.OpeningBalance.Equal(amount("-500")) {
		t.Errorf("opening = %s, want -500 for a D balance", rec.OpeningBalance)
	}
	if !rec.ClosingBalance.Equal(amount("-400")) {
		t.Errorf("closing = %s, want -400", rec.ClosingBalance)
	}
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	b := block(
		purchase(10, "1001", "1000"),
		payment(15, "600"),
	)
	before := make([]core.LedgerEntry, len(b.Entries))
	copy(before, b.Entries)

	_ = core.Reconcile(b)

	for i := range before {
		if !b.Entries[i].Credit.Equal(before[i].Credit) || !b.Entries[i].Debit.Equal(before[i].Debit) {
			t.Fatal("input entries were mutated")
		}
	}
}

func TestReconcileAll(t *testing.T) {
	st := &core.Statement{
		Suppliers: []core.SupplierBlock{
			block(purchase(10, "1001", "100")),
			block(purchase(11, "1002", "200"), payment(12, "200")),
		},
	}

	recs := core.ReconcileAll(st)

	if len(recs) != 2 {
		t.Fatalf("got %d reconciliations, want 2", len(recs))
	}
	if recs[0].Status != core.SupplierOpen {
		t.Errorf("first status = %s", recs[0].Status)
	}
	if recs[1].Status != core.SupplierSettled {
		t.Errorf("second status = %s", recs[1].Status)
	}
}
