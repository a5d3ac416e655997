package app

import (
	"context"

	"supplier-recon/internal/core"
)

// ApplicationService is the single interface all adapters call. It
// decouples presentation from business logic; implementations contain no
// display logic of any kind.
type ApplicationService interface {
	// IngestStatement processes one uploaded ledger document end to end:
	// duplicate check by content fingerprint, text extraction, parse,
	// reconciliation, and persistence.
	IngestStatement(ctx context.Context, filename string, raw []byte) (*IngestResult, error)

	// ListStatements returns all imported statements, newest first.
	ListStatements(ctx context.Context) (*StatementListResult, error)

	// GetSummary returns aggregate reconciliation counts for a statement.
	GetSummary(ctx context.Context, statementID int) (*SummaryResult, error)

	// ListSuppliers returns a statement's suppliers ordered by payable
	// descending, honoring the filter.
	ListSuppliers(ctx context.Context, statementID int, filter core.SupplierFilter) (*SupplierListResult, error)

	// GetSupplier returns one supplier with its invoices, entries and
	// divergences.
	GetSupplier(ctx context.Context, supplierID int) (*SupplierDetailResult, error)

	// ListDivergences returns a statement's unresolved divergences.
	ListDivergences(ctx context.Context, statementID int) (*DivergenceListResult, error)

	// ExportWorkbook renders a statement's reconciliation as an xlsx file.
	// scope is one of full, open, divergent.
	ExportWorkbook(ctx context.Context, statementID int, scope string) ([]byte, string, error)

	// ReviewDivergences asks the AI agent to assess a statement's
	// divergences. Returns ErrAgentUnavailable when no agent is configured.
	ReviewDivergences(ctx context.Context, statementID int) (*ReviewResult, error)
}
