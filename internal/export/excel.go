// Package export builds the reconciliation spreadsheet.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"supplier-recon/internal/core"
)

const sheetName = "Conciliação"

// Scope filters which suppliers land in the workbook.
const (
	ScopeFull      = "full"
	ScopeOpen      = "open"
	ScopeDivergent = "divergent"
)

var headers = []string{
	"Código", "Conta Contábil", "Fornecedor", "CNPJ",
	"Total Compras", "Total Pagamentos", "Saldo a Pagar",
	"Status", "NFs Pendentes", "NFs Parciais", "Divergência",
}

// Workbook renders supplier reconciliation rows into an xlsx file. Callers
// pre-filter by scope via Include.
func Workbook(suppliers []core.SupplierRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header %q: %w", h, err)
		}
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, s := range suppliers {
		row := i + 2
		flag := "Não"
		if s.HasDivergence {
			flag = "Sim"
		}
		values := []any{
			s.AccountCode, s.AccountNumber, s.DisplayName, s.TaxID,
			s.TotalCredit.InexactFloat64(), s.TotalDebit.InexactFloat64(), s.Payable.InexactFloat64(),
			string(s.Status), s.PendingCount, s.PartialCount, flag,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	for col := range headers {
		name, _ := excelize.ColumnNumberToName(col + 1)
		_ = f.SetColWidth(sheetName, name, name, 20)
	}
	return f, nil
}

// Include reports whether a supplier belongs in the given export scope.
func Include(s *core.SupplierRecord, scope string) bool {
	switch scope {
	case ScopeOpen:
		return s.Status == core.SupplierOpen
	case ScopeDivergent:
		return s.HasDivergence
	default:
		return true
	}
}
