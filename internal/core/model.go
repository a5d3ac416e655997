package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationKind labels what a ledger entry represents, inferred from its
// narration keywords and from which monetary column is populated.
type OperationKind string

const (
	OpPayment  OperationKind = "PAYMENT"
	OpPurchase OperationKind = "PURCHASE"
	OpReversal OperationKind = "REVERSAL"
	OpAdvance  OperationKind = "ADVANCE"
	OpDebit    OperationKind = "DEBIT"
	OpCredit   OperationKind = "CREDIT"
	OpOther    OperationKind = "OTHER"
)

// Balance sign markers as printed in the statement. "C" means the account
// carries a credit balance (amount owed to the supplier), "D" a debit one.
const (
	SignCredit = "C"
	SignDebit  = "D"
)

// LedgerEntry is one dated posting in a supplier's ledger section.
// Exactly one of Debit/Credit is non-zero; both are never positive.
type LedgerEntry struct {
	Date          *time.Time
	Batch         string
	Narration     string
	ContraAccount string // optional 1-4 digit contra-account code
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Balance       decimal.Decimal // running balance after the entry
	BalanceSign   string          // "C", "D" or ""
	InvoiceNumber string
	TaxID         string
	Operation     OperationKind
}

// Amount returns the populated monetary column of the entry.
func (e *LedgerEntry) Amount() decimal.Decimal {
	if e.Debit.IsPositive() {
		return e.Debit
	}
	return e.Credit
}

// SupplierBlock is one supplier's section of the statement: the account
// header, the document-stated opening balance and totals, and the entries in
// original document order.
type SupplierBlock struct {
	AccountCode    string // unique key per supplier within a statement
	AccountNumber  string // chart-of-accounts number, e.g. "2.1.1.01.0001"
	DisplayName    string
	OpeningBalance decimal.Decimal
	OpeningSign    string
	HasOpening     bool
	StatedDebit    decimal.Decimal // from the "Total da conta:" line
	StatedCredit   decimal.Decimal
	HasTotals      bool
	Entries        []LedgerEntry
}

// InvoiceStatus is the derived payment state of a single purchase.
type InvoiceStatus string

const (
	InvoiceOpen          InvoiceStatus = "OPEN"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
)

// PaymentStatus is the derived settlement state of a whole supplier.
type PaymentStatus string

const (
	SupplierSettled  PaymentStatus = "SETTLED"
	SupplierAdvanced PaymentStatus = "ADVANCED"
	SupplierOpen     PaymentStatus = "OPEN"
)

// DivergenceKind classifies a detected inconsistency between the document's
// stated figures and the independently computed ones.
type DivergenceKind string

const (
	DivergenceBalanceMismatch    DivergenceKind = "BALANCE_MISMATCH"
	DivergenceUnmatchedPayment   DivergenceKind = "UNMATCHED_PAYMENT"
	DivergenceNegativeAllocation DivergenceKind = "NEGATIVE_ALLOCATION"
	DivergenceOther              DivergenceKind = "OTHER"
)

// DivergenceSeverity ranks divergences for triage.
type DivergenceSeverity string

const (
	SeverityLow    DivergenceSeverity = "LOW"
	SeverityMedium DivergenceSeverity = "MEDIUM"
	SeverityHigh   DivergenceSeverity = "HIGH"
)

// Divergence is a data-quality finding. It is a business result, not an
// error: reconciliation always completes and reports what it found.
type Divergence struct {
	AccountCode string
	Kind        DivergenceKind
	Severity    DivergenceSeverity
	Description string
	Amount      decimal.Decimal // numeric magnitude of the discrepancy
}

// ReconciledInvoice is the allocation outcome for one PURCHASE entry.
// Allocated never exceeds Original; Remaining is always Original - Allocated.
type ReconciledInvoice struct {
	Date          *time.Time
	InvoiceNumber string
	Narration     string
	Original      decimal.Decimal
	Allocated     decimal.Decimal
	Remaining     decimal.Decimal
	Status        InvoiceStatus
}

// SupplierReconciliation is the full reconciliation result for one
// consolidated supplier block. It is recomputed from scratch on every run.
type SupplierReconciliation struct {
	AccountCode    string
	AccountNumber  string
	DisplayName    string
	TaxID          string
	OpeningBalance decimal.Decimal // signed: credit positive, debit negative
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	ClosingBalance decimal.Decimal // opening + credit - debit
	Payable        decimal.Decimal // credit - debit
	Status         PaymentStatus
	PendingCount   int // invoices still OPEN
	PartialCount   int // invoices PARTIALLY_PAID
	HasDivergence  bool
	Invoices       []ReconciledInvoice
	Divergences    []Divergence
}

// Statement is the structured result of parsing one ledger document.
type Statement struct {
	Fingerprint  string // SHA-256 of the raw document bytes
	CompanyName  string
	CompanyTaxID string
	PeriodStart  *time.Time
	PeriodEnd    *time.Time
	Suppliers    []SupplierBlock
}

// TotalEntries returns the entry count across all supplier blocks.
func (s *Statement) TotalEntries() int {
	n := 0
	for i := range s.Suppliers {
		n += len(s.Suppliers[i].Entries)
	}
	return n
}
