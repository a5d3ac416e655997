package web

import (
	"time"

	"github.com/shopspring/decimal"

	"supplier-recon/internal/core"
)

// View types shape JSON responses. Domain records stay free of
// serialization tags; the mapping lives here.

type statementView struct {
	ID             int     `json:"id"`
	Filename       string  `json:"filename"`
	ContentHash    string  `json:"content_hash"`
	CompanyName    string  `json:"company_name"`
	CompanyTaxID   string  `json:"company_tax_id,omitempty"`
	PeriodStart    *string `json:"period_start,omitempty"`
	PeriodEnd      *string `json:"period_end,omitempty"`
	TotalSuppliers int     `json:"total_suppliers"`
	TotalEntries   int     `json:"total_entries"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
}

type supplierView struct {
	ID             int             `json:"id"`
	StatementID    int             `json:"statement_id"`
	AccountCode    string          `json:"account_code"`
	AccountNumber  string          `json:"account_number"`
	DisplayName    string          `json:"display_name"`
	TaxID          string          `json:"tax_id,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Payable        decimal.Decimal `json:"payable"`
	Status         string          `json:"status"`
	PendingCount   int             `json:"pending_invoices"`
	PartialCount   int             `json:"partial_invoices"`
	HasDivergence  bool            `json:"has_divergence"`
}

type entryView struct {
	ID            int             `json:"id"`
	Date          *string         `json:"date,omitempty"`
	Batch         string          `json:"batch"`
	Narration     string          `json:"narration"`
	ContraAccount string          `json:"contra_account,omitempty"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Balance       decimal.Decimal `json:"balance"`
	BalanceSign   string          `json:"balance_sign,omitempty"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Operation     string          `json:"operation"`
}

type invoiceView struct {
	ID            int             `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	Date          *string         `json:"date,omitempty"`
	Original      decimal.Decimal `json:"original"`
	Allocated     decimal.Decimal `json:"allocated"`
	Remaining     decimal.Decimal `json:"remaining"`
	Status        string          `json:"status"`
}

type divergenceView struct {
	ID          int             `json:"id"`
	SupplierID  int             `json:"supplier_id"`
	AccountCode string          `json:"account_code"`
	Supplier    string          `json:"supplier"`
	Kind        string          `json:"kind"`
	Severity    string          `json:"severity"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Resolved    bool            `json:"resolved"`
	CreatedAt   string          `json:"created_at"`
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func newStatementView(s core.ImportedStatement) statementView {
	return statementView{
		ID:             s.ID,
		Filename:       s.Filename,
		ContentHash:    s.ContentHash,
		CompanyName:    s.CompanyName,
		CompanyTaxID:   s.CompanyTaxID,
		PeriodStart:    dateString(s.PeriodStart),
		PeriodEnd:      dateString(s.PeriodEnd),
		TotalSuppliers: s.TotalSuppliers,
		TotalEntries:   s.TotalEntries,
		Status:         s.Status,
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
	}
}

func newStatementViews(ss []core.ImportedStatement) []statementView {
	out := make([]statementView, len(ss))
	for i, s := range ss {
		out[i] = newStatementView(s)
	}
	return out
}

func newSupplierView(s core.SupplierRecord) supplierView {
	return supplierView{
		ID:             s.ID,
		StatementID:    s.StatementID,
		AccountCode:    s.AccountCode,
		AccountNumber:  s.AccountNumber,
		DisplayName:    s.DisplayName,
		TaxID:          s.TaxID,
		OpeningBalance: s.OpeningBalance,
		TotalDebit:     s.TotalDebit,
		TotalCredit:    s.TotalCredit,
		ClosingBalance: s.ClosingBalance,
		Payable:        s.Payable,
		Status:         string(s.Status),
		PendingCount:   s.PendingCount,
		PartialCount:   s.PartialCount,
		HasDivergence:  s.HasDivergence,
	}
}

func newSupplierViews(ss []core.SupplierRecord) []supplierView {
	out := make([]supplierView, len(ss))
	for i, s := range ss {
		out[i] = newSupplierView(s)
	}
	return out
}

func newEntryView(e core.EntryRecord) entryView {
	return entryView{
		ID:            e.ID,
		Date:          dateString(e.Date),
		Batch:         e.Batch,
		Narration:     e.Narration,
		ContraAccount: e.ContraAccount,
		Debit:         e.Debit,
		Credit:        e.Credit,
		Balance:       e.Balance,
		BalanceSign:   e.BalanceSign,
		InvoiceNumber: e.InvoiceNumber,
		Operation:     string(e.Operation),
	}
}

func newEntryViews(es []core.EntryRecord) []entryView {
	out := make([]entryView, len(es))
	for i, e := range es {
		out[i] = newEntryView(e)
	}
	return out
}

func newInvoiceView(v core.InvoiceRecord) invoiceView {
	return invoiceView{
		ID:            v.ID,
		InvoiceNumber: v.InvoiceNumber,
		Date:          dateString(v.Date),
		Original:      v.Original,
		Allocated:     v.Allocated,
		Remaining:     v.Remaining,
		Status:        string(v.Status),
	}
}

func newInvoiceViews(vs []core.InvoiceRecord) []invoiceView {
	out := make([]invoiceView, len(vs))
	for i, v := range vs {
		out[i] = newInvoiceView(v)
	}
	return out
}

func newDivergenceView(d core.DivergenceRecord) divergenceView {
	return divergenceView{
		ID:          d.ID,
		SupplierID:  d.SupplierID,
		AccountCode: d.AccountCode,
		Supplier:    d.DisplayName,
		Kind:        string(d.Kind),
		Severity:    string(d.Severity),
		Description: d.Description,
		Amount:      d.Amount,
		Resolved:    d.Resolved,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
	}
}

func newDivergenceViews(ds []core.DivergenceRecord) []divergenceView {
	out := make([]divergenceView, len(ds))
	for i, d := range ds {
		out[i] = newDivergenceView(d)
	}
	return out
}
