package app

import (
	"supplier-recon/internal/ai"
	"supplier-recon/internal/core"
)

// IngestResult is returned by IngestStatement.
type IngestResult struct {
	Statement core.ImportedStatement
}

// StatementListResult is returned by ListStatements.
type StatementListResult struct {
	Statements []core.ImportedStatement
}

// SummaryResult is returned by GetSummary.
type SummaryResult struct {
	Summary core.StatementSummary
}

// SupplierListResult is returned by ListSuppliers. Total is the unpaginated
// match count.
type SupplierListResult struct {
	Total     int
	Suppliers []core.SupplierRecord
}

// SupplierDetailResult is returned by GetSupplier. OpenInvoices is the
// subset of invoices not yet fully paid.
type SupplierDetailResult struct {
	Detail       core.SupplierDetail
	OpenInvoices []core.InvoiceRecord
}

// DivergenceListResult is returned by ListDivergences.
type DivergenceListResult struct {
	Divergences []core.DivergenceRecord
}

// ReviewResult is returned by ReviewDivergences.
type ReviewResult struct {
	Review *ai.DivergenceReview
}
