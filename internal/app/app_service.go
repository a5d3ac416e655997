package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"supplier-recon/internal/ai"
	"supplier-recon/internal/core"
	"supplier-recon/internal/export"
)

// ErrAgentUnavailable is returned when divergence review is requested but
// no AI agent is configured.
var ErrAgentUnavailable = errors.New("ai agent not configured")

type appService struct {
	statements core.StatementService
	parser     *core.StatementParser
	extractor  TextExtractor
	agent      ai.AgentService
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil; ReviewDivergences then returns ErrAgentUnavailable.
func NewAppService(
	statements core.StatementService,
	parser *core.StatementParser,
	extractor TextExtractor,
	agent ai.AgentService,
) ApplicationService {
	return &appService{
		statements: statements,
		parser:     parser,
		extractor:  extractor,
		agent:      agent,
	}
}

func (s *appService) IngestStatement(ctx context.Context, filename string, raw []byte) (*IngestResult, error) {
	hash := core.Fingerprint(raw)
	if _, err := s.statements.FindByHash(ctx, hash); err == nil {
		return nil, core.ErrDuplicateStatement
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	lines, err := s.extractor.Extract(ctx, raw)
	if err != nil {
		return nil, err
	}

	st, err := s.parser.Parse(lines, raw)
	if err != nil {
		return nil, err
	}

	recs := core.ReconcileAll(st)
	saved, err := s.statements.SaveResult(ctx, filename, st, recs)
	if err != nil {
		return nil, err
	}
	return &IngestResult{Statement: *saved}, nil
}

func (s *appService) ListStatements(ctx context.Context) (*StatementListResult, error) {
	statements, err := s.statements.ListStatements(ctx)
	if err != nil {
		return nil, err
	}
	return &StatementListResult{Statements: statements}, nil
}

func (s *appService) GetSummary(ctx context.Context, statementID int) (*SummaryResult, error) {
	sum, err := s.statements.GetSummary(ctx, statementID)
	if err != nil {
		return nil, err
	}
	return &SummaryResult{Summary: *sum}, nil
}

func (s *appService) ListSuppliers(ctx context.Context, statementID int, filter core.SupplierFilter) (*SupplierListResult, error) {
	suppliers, total, err := s.statements.ListSuppliers(ctx, statementID, filter)
	if err != nil {
		return nil, err
	}
	return &SupplierListResult{Total: total, Suppliers: suppliers}, nil
}

func (s *appService) GetSupplier(ctx context.Context, supplierID int) (*SupplierDetailResult, error) {
	detail, err := s.statements.GetSupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	result := &SupplierDetailResult{Detail: *detail}
	for _, inv := range detail.Invoices {
		if inv.Status != core.InvoicePaid {
			result.OpenInvoices = append(result.OpenInvoices, inv)
		}
	}
	return result, nil
}

func (s *appService) ListDivergences(ctx context.Context, statementID int) (*DivergenceListResult, error) {
	divergences, err := s.statements.ListDivergences(ctx, statementID)
	if err != nil {
		return nil, err
	}
	return &DivergenceListResult{Divergences: divergences}, nil
}

func (s *appService) ExportWorkbook(ctx context.Context, statementID int, scope string) ([]byte, string, error) {
	st, err := s.statements.GetStatement(ctx, statementID)
	if err != nil {
		return nil, "", err
	}

	suppliers, _, err := s.statements.ListSuppliers(ctx, statementID, core.SupplierFilter{Limit: 10000})
	if err != nil {
		return nil, "", err
	}

	var included []core.SupplierRecord
	for i := range suppliers {
		if export.Include(&suppliers[i], scope) {
			included = append(included, suppliers[i])
		}
	}

	f, err := export.Workbook(included)
	if err != nil {
		return nil, "", fmt.Errorf("build workbook: %w", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("serialize workbook: %w", err)
	}

	filename := fmt.Sprintf("conciliacao_%d_%s.xlsx", st.ID, scope)
	return buf.Bytes(), filename, nil
}

func (s *appService) ReviewDivergences(ctx context.Context, statementID int) (*ReviewResult, error) {
	if s.agent == nil {
		return nil, ErrAgentUnavailable
	}

	divergences, err := s.statements.ListDivergences(ctx, statementID)
	if err != nil {
		return nil, err
	}

	type divergencePayload struct {
		AccountCode string `json:"account_code"`
		Supplier    string `json:"supplier"`
		Kind        string `json:"kind"`
		Severity    string `json:"severity"`
		Description string `json:"description"`
		Amount      string `json:"amount"`
	}
	payload := make([]divergencePayload, 0, len(divergences))
	for _, d := range divergences {
		payload = append(payload, divergencePayload{
			AccountCode: d.AccountCode,
			Supplier:    d.DisplayName,
			Kind:        string(d.Kind),
			Severity:    string(d.Severity),
			Description: d.Description,
			Amount:      d.Amount.StringFixed(2),
		})
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode divergences: %w", err)
	}

	review, err := s.agent.ReviewDivergences(ctx, string(encoded))
	if err != nil {
		return nil, err
	}
	return &ReviewResult{Review: review}, nil
}
