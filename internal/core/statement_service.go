package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a statement or supplier does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateStatement is returned when a document with the same content
// fingerprint was already imported.
var ErrDuplicateStatement = errors.New("statement already imported")

// ImportedStatement is the stored record of one processed document.
type ImportedStatement struct {
	ID             int
	Filename       string
	ContentHash    string
	CompanyName    string
	CompanyTaxID   string
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	TotalSuppliers int
	TotalEntries   int
	Status         string
	CreatedAt      time.Time
}

// SupplierRecord is a stored supplier reconciliation row.
type SupplierRecord struct {
	ID             int
	StatementID    int
	AccountCode    string
	AccountNumber  string
	DisplayName    string
	TaxID          string
	OpeningBalance decimal.Decimal
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	ClosingBalance decimal.Decimal
	Payable        decimal.Decimal
	Status         PaymentStatus
	PendingCount   int
	PartialCount   int
	HasDivergence  bool
}

// EntryRecord is a stored ledger entry row.
type EntryRecord struct {
	ID         int
	SupplierID int
	LedgerEntry
}

// InvoiceRecord is a stored reconciled invoice row.
type InvoiceRecord struct {
	ID         int
	SupplierID int
	ReconciledInvoice
}

// DivergenceRecord is a stored divergence row.
type DivergenceRecord struct {
	ID          int
	SupplierID  int
	AccountCode string
	DisplayName string
	Kind        DivergenceKind
	Severity    DivergenceSeverity
	Description string
	Amount      decimal.Decimal
	Resolved    bool
	CreatedAt   time.Time
}

// SupplierDetail bundles a supplier with its invoices, entries and findings.
type SupplierDetail struct {
	Supplier    SupplierRecord
	Invoices    []InvoiceRecord
	Entries     []EntryRecord
	Divergences []DivergenceRecord
}

// StatementSummary aggregates one statement's reconciliation outcome.
type StatementSummary struct {
	Statement    ImportedStatement
	Settled      int
	Open         int
	Advanced     int
	Divergent    int
	TotalPayable decimal.Decimal
}

// SupplierFilter narrows ListSuppliers. Zero values mean no filtering;
// Limit 0 defaults to 100.
type SupplierFilter struct {
	Status      PaymentStatus
	HasPartials *bool
	Limit       int
	Offset      int
}

// StatementService persists parse and reconciliation results.
type StatementService interface {
	// FindByHash returns the statement with the given content fingerprint,
	// or ErrNotFound.
	FindByHash(ctx context.Context, hash string) (*ImportedStatement, error)

	// SaveResult stores a parsed statement with its reconciliations in one
	// transaction. Returns ErrDuplicateStatement when the fingerprint is
	// already present.
	SaveResult(ctx context.Context, filename string, st *Statement, recs []SupplierReconciliation) (*ImportedStatement, error)

	// ListStatements returns all imports, newest first.
	ListStatements(ctx context.Context) ([]ImportedStatement, error)

	// GetStatement returns one import by id, or ErrNotFound.
	GetStatement(ctx context.Context, id int) (*ImportedStatement, error)

	// GetSummary returns aggregate counts for one statement.
	GetSummary(ctx context.Context, statementID int) (*StatementSummary, error)

	// ListSuppliers returns suppliers of a statement ordered by payable
	// descending, plus the unpaginated match count.
	ListSuppliers(ctx context.Context, statementID int, f SupplierFilter) ([]SupplierRecord, int, error)

	// GetSupplier returns a supplier with invoices, entries and divergences.
	GetSupplier(ctx context.Context, supplierID int) (*SupplierDetail, error)

	// ListDivergences returns unresolved divergences for a statement.
	ListDivergences(ctx context.Context, statementID int) ([]DivergenceRecord, error)
}

type statementService struct {
	pool *pgxpool.Pool
}

// NewStatementService constructs a StatementService backed by PostgreSQL.
func NewStatementService(pool *pgxpool.Pool) StatementService {
	return &statementService{pool: pool}
}

const statementCols = `id, filename, content_hash, COALESCE(company_name, ''), COALESCE(company_tax_id, ''),
       period_start, period_end, total_suppliers, total_entries, status, created_at`

func scanStatement(row pgx.Row) (*ImportedStatement, error) {
	var s ImportedStatement
	err := row.Scan(
		&s.ID, &s.Filename, &s.ContentHash, &s.CompanyName, &s.CompanyTaxID,
		&s.PeriodStart, &s.PeriodEnd, &s.TotalSuppliers, &s.TotalEntries, &s.Status, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *statementService) FindByHash(ctx context.Context, hash string) (*ImportedStatement, error) {
	st, err := scanStatement(s.pool.QueryRow(ctx,
		"SELECT "+statementCols+" FROM imported_statements WHERE content_hash = $1", hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find statement by hash: %w", err)
	}
	return st, nil
}

func (s *statementService) SaveResult(ctx context.Context, filename string, st *Statement, recs []SupplierReconciliation) (*ImportedStatement, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var statementID int
	err = tx.QueryRow(ctx, `
		INSERT INTO imported_statements (filename, content_hash, company_name, company_tax_id,
		                                 period_start, period_end, total_suppliers, total_entries, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'COMPLETED')
		ON CONFLICT (content_hash) DO NOTHING
		RETURNING id`,
		filename, st.Fingerprint, st.CompanyName, st.CompanyTaxID,
		st.PeriodStart, st.PeriodEnd, len(st.Suppliers), st.TotalEntries(),
	).Scan(&statementID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDuplicateStatement
		}
		return nil, fmt.Errorf("insert statement: %w", err)
	}

	blocks := make(map[string]*SupplierBlock, len(st.Suppliers))
	for i := range st.Suppliers {
		blocks[st.Suppliers[i].AccountCode] = &st.Suppliers[i]
	}

	for i := range recs {
		rec := &recs[i]
		var supplierID int
		err = tx.QueryRow(ctx, `
			INSERT INTO suppliers (statement_id, account_code, account_number, display_name, tax_id,
			                       opening_balance, total_debit, total_credit, closing_balance, payable,
			                       payment_status, pending_invoices, partial_invoices, has_divergence)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id`,
			statementID, rec.AccountCode, rec.AccountNumber, rec.DisplayName, rec.TaxID,
			rec.OpeningBalance, rec.TotalDebit, rec.TotalCredit, rec.ClosingBalance, rec.Payable,
			string(rec.Status), rec.PendingCount, rec.PartialCount, rec.HasDivergence,
		).Scan(&supplierID)
		if err != nil {
			return nil, fmt.Errorf("insert supplier %s: %w", rec.AccountCode, err)
		}

		if block, ok := blocks[rec.AccountCode]; ok {
			for pos := range block.Entries {
				e := &block.Entries[pos]
				_, err = tx.Exec(ctx, `
					INSERT INTO ledger_entries (supplier_id, position, entry_date, batch, narration, contra_account,
					                            debit, credit, balance, balance_sign, operation, invoice_number, tax_id)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
					supplierID, pos, e.Date, e.Batch, e.Narration, e.ContraAccount,
					e.Debit, e.Credit, e.Balance, e.BalanceSign, string(e.Operation), e.InvoiceNumber, e.TaxID,
				)
				if err != nil {
					return nil, fmt.Errorf("insert entry %d for supplier %s: %w", pos, rec.AccountCode, err)
				}
			}
		}

		for j := range rec.Invoices {
			inv := &rec.Invoices[j]
			_, err = tx.Exec(ctx, `
				INSERT INTO reconciled_invoices (supplier_id, invoice_date, invoice_number, narration,
				                                 original_amount, allocated_amount, remaining_amount, status)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				supplierID, inv.Date, inv.InvoiceNumber, inv.Narration,
				inv.Original, inv.Allocated, inv.Remaining, string(inv.Status),
			)
			if err != nil {
				return nil, fmt.Errorf("insert invoice for supplier %s: %w", rec.AccountCode, err)
			}
		}

		for j := range rec.Divergences {
			d := &rec.Divergences[j]
			_, err = tx.Exec(ctx, `
				INSERT INTO divergences (supplier_id, kind, severity, description, amount)
				VALUES ($1, $2, $3, $4, $5)`,
				supplierID, string(d.Kind), string(d.Severity), d.Description, d.Amount,
			)
			if err != nil {
				return nil, fmt.Errorf("insert divergence for supplier %s: %w", rec.AccountCode, err)
			}
		}
	}

	saved, err := scanStatement(tx.QueryRow(ctx,
		"SELECT "+statementCols+" FROM imported_statements WHERE id = $1", statementID))
	if err != nil {
		return nil, fmt.Errorf("read back statement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit statement: %w", err)
	}
	return saved, nil
}

func (s *statementService) ListStatements(ctx context.Context) ([]ImportedStatement, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+statementCols+" FROM imported_statements ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	var out []ImportedStatement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func (s *statementService) GetStatement(ctx context.Context, id int) (*ImportedStatement, error) {
	st, err := scanStatement(s.pool.QueryRow(ctx,
		"SELECT "+statementCols+" FROM imported_statements WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get statement %d: %w", id, err)
	}
	return st, nil
}

func (s *statementService) GetSummary(ctx context.Context, statementID int) (*StatementSummary, error) {
	st, err := s.GetStatement(ctx, statementID)
	if err != nil {
		return nil, err
	}

	sum := &StatementSummary{Statement: *st, TotalPayable: decimal.Zero}
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE payment_status = 'SETTLED'),
		       COUNT(*) FILTER (WHERE payment_status = 'OPEN'),
		       COUNT(*) FILTER (WHERE payment_status = 'ADVANCED'),
		       COUNT(*) FILTER (WHERE has_divergence),
		       COALESCE(SUM(payable), 0)
		FROM suppliers WHERE statement_id = $1`, statementID,
	).Scan(&sum.Settled, &sum.Open, &sum.Advanced, &sum.Divergent, &sum.TotalPayable)
	if err != nil {
		return nil, fmt.Errorf("summarize statement %d: %w", statementID, err)
	}
	return sum, nil
}

const supplierCols = `id, statement_id, account_code, account_number, display_name, COALESCE(tax_id, ''),
       opening_balance, total_debit, total_credit, closing_balance, payable,
       payment_status, pending_invoices, partial_invoices, has_divergence`

func scanSupplier(row pgx.Row) (*SupplierRecord, error) {
	var r SupplierRecord
	err := row.Scan(
		&r.ID, &r.StatementID, &r.AccountCode, &r.AccountNumber, &r.DisplayName, &r.TaxID,
		&r.OpeningBalance, &r.TotalDebit, &r.TotalCredit, &r.ClosingBalance, &r.Payable,
		&r.Status, &r.PendingCount, &r.PartialCount, &r.HasDivergence,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *statementService) ListSuppliers(ctx context.Context, statementID int, f SupplierFilter) ([]SupplierRecord, int, error) {
	where := "WHERE statement_id = $1"
	args := []any{statementID}

	if f.Status != "" {
		args = append(args, string(f.Status))
		where += fmt.Sprintf(" AND payment_status = $%d", len(args))
	}
	if f.HasPartials != nil {
		if *f.HasPartials {
			where += " AND partial_invoices > 0"
		} else {
			where += " AND partial_invoices = 0"
		}
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM suppliers "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppliers: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf("SELECT %s FROM suppliers %s ORDER BY payable DESC LIMIT $%d OFFSET $%d",
		supplierCols, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var out []SupplierRecord
	for rows.Next() {
		r, err := scanSupplier(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan supplier: %w", err)
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}

func (s *statementService) GetSupplier(ctx context.Context, supplierID int) (*SupplierDetail, error) {
	rec, err := scanSupplier(s.pool.QueryRow(ctx,
		"SELECT "+supplierCols+" FROM suppliers WHERE id = $1", supplierID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get supplier %d: %w", supplierID, err)
	}
	detail := &SupplierDetail{Supplier: *rec}

	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_date, COALESCE(invoice_number, ''), COALESCE(narration, ''),
		       original_amount, allocated_amount, remaining_amount, status
		FROM reconciled_invoices WHERE supplier_id = $1 ORDER BY id`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var inv InvoiceRecord
		inv.SupplierID = supplierID
		if err := rows.Scan(&inv.ID, &inv.Date, &inv.InvoiceNumber, &inv.Narration,
			&inv.Original, &inv.Allocated, &inv.Remaining, &inv.Status); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		detail.Invoices = append(detail.Invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entryRows, err := s.pool.Query(ctx, `
		SELECT id, entry_date, COALESCE(batch, ''), narration, COALESCE(contra_account, ''),
		       debit, credit, balance, balance_sign, operation, COALESCE(invoice_number, ''), COALESCE(tax_id, '')
		FROM ledger_entries WHERE supplier_id = $1 ORDER BY position`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer entryRows.Close()
	for entryRows.Next() {
		var e EntryRecord
		e.SupplierID = supplierID
		var op string
		if err := entryRows.Scan(&e.ID, &e.Date, &e.Batch, &e.Narration, &e.ContraAccount,
			&e.Debit, &e.Credit, &e.Balance, &e.BalanceSign, &op, &e.InvoiceNumber, &e.TaxID); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Operation = OperationKind(op)
		detail.Entries = append(detail.Entries, e)
	}
	if err := entryRows.Err(); err != nil {
		return nil, err
	}

	divRows, err := s.pool.Query(ctx, `
		SELECT id, kind, severity, description, amount, resolved, created_at
		FROM divergences WHERE supplier_id = $1 ORDER BY id`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("list supplier divergences: %w", err)
	}
	defer divRows.Close()
	for divRows.Next() {
		d := DivergenceRecord{SupplierID: supplierID, AccountCode: rec.AccountCode, DisplayName: rec.DisplayName}
		if err := divRows.Scan(&d.ID, &d.Kind, &d.Severity, &d.Description, &d.Amount, &d.Resolved, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan divergence: %w", err)
		}
		detail.Divergences = append(detail.Divergences, d)
	}
	return detail, divRows.Err()
}

func (s *statementService) ListDivergences(ctx context.Context, statementID int) ([]DivergenceRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.id, d.supplier_id, sup.account_code, sup.display_name,
		       d.kind, d.severity, d.description, d.amount, d.resolved, d.created_at
		FROM divergences d
		JOIN suppliers sup ON sup.id = d.supplier_id
		WHERE sup.statement_id = $1 AND d.resolved = FALSE
		ORDER BY CASE d.severity WHEN 'HIGH' THEN 0 WHEN 'MEDIUM' THEN 1 WHEN 'LOW' THEN 2 ELSE 3 END, d.id`, statementID)
	if err != nil {
		return nil, fmt.Errorf("list divergences: %w", err)
	}
	defer rows.Close()

	var out []DivergenceRecord
	for rows.Next() {
		var d DivergenceRecord
		if err := rows.Scan(&d.ID, &d.SupplierID, &d.AccountCode, &d.DisplayName,
			&d.Kind, &d.Severity, &d.Description, &d.Amount, &d.Resolved, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan divergence: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
