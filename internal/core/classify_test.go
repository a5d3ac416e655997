package core_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"supplier-recon/internal/core"
)

func TestClassifyOperation(t *testing.T) {
	hundred := decimal.NewFromInt(100)

	tests := []struct {
		name      string
		narration string
		debit     decimal.Decimal
		credit    decimal.Decimal
		want      core.OperationKind
	}{
		{"payment abbreviation", "PGTO REF NF 4452", hundred, decimal.Zero, core.OpPayment},
		{"payment spelled out", "PAGAMENTO DUPLICATA", hundred, decimal.Zero, core.OpPayment},
		{"baixa", "BAIXA TITULO 99887", hundred, decimal.Zero, core.OpPayment},
		{"advance on debit side", "ADTO FORNECEDOR", hundred, decimal.Zero, core.OpPayment},
		{"reversal on debit side", "DEVOLUCAO DE MERCADORIA", hundred, decimal.Zero, core.OpReversal},
		{"estorno", "ESTORNO LANCTO 1122", hundred, decimal.Zero, core.OpReversal},
		{"unlabeled debit", "TARIFA BANCARIA", hundred, decimal.Zero, core.OpDebit},
		{"purchase by NF", "COMPRAS CONFORME NF. Nº 21100", decimal.Zero, hundred, core.OpPurchase},
		{"purchase by freight", "CT-E 98765 FRETE", decimal.Zero, hundred, core.OpPurchase},
		{"purchase lowercase", "compras conforme nota fiscal 5544", decimal.Zero, hundred, core.OpPurchase},
		{"advance posted as credit", "ADIANTAMENTO", decimal.Zero, hundred, core.OpAdvance},
		{"unlabeled credit", "LANCAMENTO AVULSO", decimal.Zero, hundred, core.OpCredit},
		{"no amount at all", "SALDO", decimal.Zero, decimal.Zero, core.OpOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.ClassifyOperation(tt.narration, tt.debit, tt.credit)
			if got != tt.want {
				t.Errorf("ClassifyOperation(%q, d=%s, c=%s) = %s, want %s",
					tt.narration, tt.debit, tt.credit, got, tt.want)
			}
		})
	}
}
