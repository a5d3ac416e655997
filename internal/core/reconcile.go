package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// settlementTolerance absorbs the rounding noise real ledgers carry.
var settlementTolerance = decimal.RequireFromString("0.01")

// signedBalance applies the statement's C/D marker: credit balances are
// positive (amount owed to the supplier), debit balances negative.
func signedBalance(amount decimal.Decimal, sign string) decimal.Decimal {
	if sign == SignDebit {
		return amount.Neg()
	}
	return amount
}

// Reconcile allocates one consolidated supplier block's payments against
// its purchases and derives per-invoice and supplier-level outcomes.
//
// It is a pure function of the block: no hidden state, no dependency on
// other suppliers, inputs never mutated. Callers may run it across blocks
// in parallel.
func Reconcile(block SupplierBlock) SupplierReconciliation {
	rec := SupplierReconciliation{
		AccountCode:   block.AccountCode,
		AccountNumber: block.AccountNumber,
		DisplayName:   block.DisplayName,
	}
	if block.HasOpening {
		rec.OpeningBalance = signedBalance(block.OpeningBalance, block.OpeningSign)
	}

	sumDebit, sumCredit := decimal.Zero, decimal.Zero
	for i := range block.Entries {
		e := &block.Entries[i]
		sumDebit = sumDebit.Add(e.Debit)
		sumCredit = sumCredit.Add(e.Credit)
		if rec.TaxID == "" && e.TaxID != "" {
			rec.TaxID = e.TaxID
		}
	}

	// Document-stated totals are authoritative; when the totals line is
	// missing (tolerated anomaly) fall back to the entry sums rather than
	// calling an active account settled on zero-against-zero.
	rec.TotalDebit, rec.TotalCredit = block.StatedDebit, block.StatedCredit
	if !block.HasTotals {
		rec.TotalDebit, rec.TotalCredit = sumDebit, sumCredit
	}

	rec.Payable = rec.TotalCredit.Sub(rec.TotalDebit)
	rec.ClosingBalance = rec.OpeningBalance.Add(rec.TotalCredit).Sub(rec.TotalDebit)

	switch {
	case rec.Payable.Abs().LessThanOrEqual(settlementTolerance):
		rec.Status = SupplierSettled
	case rec.Payable.IsNegative():
		rec.Status = SupplierAdvanced
	default:
		rec.Status = SupplierOpen
	}

	// Partition in document order: purchases carry credit amounts, payments
	// debit amounts.
	var purchases []ReconciledInvoice
	var payments []decimal.Decimal
	for i := range block.Entries {
		e := &block.Entries[i]
		switch e.Operation {
		case OpPurchase:
			if e.Credit.IsNegative() {
				rec.Divergences = append(rec.Divergences, Divergence{
					AccountCode: block.AccountCode,
					Kind:        DivergenceNegativeAllocation,
					Severity:    SeverityHigh,
					Description: fmt.Sprintf("purchase %q has negative amount %s and was excluded from allocation", e.Narration, e.Credit.StringFixed(2)),
					Amount:      e.Credit.Abs(),
				})
				continue
			}
			purchases = append(purchases, ReconciledInvoice{
				Date:          e.Date,
				InvoiceNumber: e.InvoiceNumber,
				Narration:     e.Narration,
				Original:      e.Credit,
				Remaining:     e.Credit,
				Status:        InvoiceOpen,
			})
		case OpPayment:
			payments = append(payments, e.Debit)
		}
	}

	// FIFO open-item allocation: each payment settles the oldest purchase
	// with a remaining open amount before moving to the next. An unexhausted
	// remainder is a finding, never silently discarded.
	unmatched := decimal.Zero
	next := 0
	for _, pay := range payments {
		left := pay
		for next < len(purchases) && left.IsPositive() {
			inv := &purchases[next]
			if !inv.Remaining.IsPositive() {
				next++
				continue
			}
			applied := decimal.Min(left, inv.Remaining)
			inv.Allocated = inv.Allocated.Add(applied)
			inv.Remaining = inv.Remaining.Sub(applied)
			left = left.Sub(applied)
			if !inv.Remaining.IsPositive() {
				next++
			}
		}
		if left.IsPositive() {
			unmatched = unmatched.Add(left)
		}
	}
	if unmatched.GreaterThan(settlementTolerance) {
		rec.Divergences = append(rec.Divergences, Divergence{
			AccountCode: block.AccountCode,
			Kind:        DivergenceUnmatchedPayment,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("payments exceed open purchases by %s", unmatched.StringFixed(2)),
			Amount:      unmatched,
		})
	}

	for i := range purchases {
		inv := &purchases[i]
		switch {
		case inv.Remaining.LessThanOrEqual(settlementTolerance):
			inv.Status = InvoicePaid
		case inv.Allocated.IsPositive():
			inv.Status = InvoicePartiallyPaid
		default:
			inv.Status = InvoiceOpen
		}
		switch inv.Status {
		case InvoiceOpen:
			rec.PendingCount++
		case InvoicePartiallyPaid:
			rec.PartialCount++
		}
	}
	rec.Invoices = purchases

	// Compare the document's own running balance after the last entry with
	// the closing balance recomputed independently from the entry list.
	if n := len(block.Entries); n > 0 {
		last := block.Entries[n-1]
		if last.BalanceSign != "" || !last.Balance.IsZero() {
			asserted := signedBalance(last.Balance, last.BalanceSign)
			computed := rec.OpeningBalance.Add(sumCredit).Sub(sumDebit)
			if diff := asserted.Sub(computed).Abs(); diff.GreaterThan(settlementTolerance) {
				rec.Divergences = append(rec.Divergences, Divergence{
					AccountCode: block.AccountCode,
					Kind:        DivergenceBalanceMismatch,
					Severity:    SeverityHigh,
					Description: fmt.Sprintf("statement closing balance %s differs from computed %s", asserted.StringFixed(2), computed.StringFixed(2)),
					Amount:      diff,
				})
			}
		}
	}

	rec.HasDivergence = len(rec.Divergences) > 0
	return rec
}

// ReconcileAll reconciles every supplier block of a parsed statement.
func ReconcileAll(st *Statement) []SupplierReconciliation {
	out := make([]SupplierReconciliation, 0, len(st.Suppliers))
	for i := range st.Suppliers {
		out = append(out, Reconcile(st.Suppliers[i]))
	}
	return out
}
