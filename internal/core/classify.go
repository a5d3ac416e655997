package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Keyword tables for operation classification. The ledger prints narration
// in Portuguese; abbreviations vary between bookkeepers, so both short and
// long forms are listed.
var (
	paymentKeywords = []string{
		"PGTO", "PAGAMENTO", "BAIXA",
		"VLR REF", "VALOR REF",
	}
	reversalKeywords = []string{"DEVOLUCAO", "ESTORNO"}
	purchaseKeywords = []string{
		"COMPRA", "NF", "NOTA FISCAL", "SERVICO", "SERVIÇO",
		"CT-E", "ADQUIRIDO", "AQUISICAO", "AQUISIÇÃO", "CONFORME",
	}
	advanceKeywords = []string{"ADTO", "ADIANTAMENTO"}
)

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// ClassifyOperation labels an entry from its narration and from which
// monetary column is populated. In this ledger's single-account view a debit
// settles the supplier (payment) and a credit accrues to it (purchase).
//
// Classification must be re-run once the narration is finalized: a keyword
// may live on a continuation line that was not yet joined when the entry was
// first parsed.
func ClassifyOperation(narration string, debit, credit decimal.Decimal) OperationKind {
	upper := strings.ToUpper(narration)

	switch {
	case debit.IsPositive():
		if containsAny(upper, paymentKeywords) || containsAny(upper, advanceKeywords) {
			return OpPayment
		}
		if containsAny(upper, reversalKeywords) {
			return OpReversal
		}
		return OpDebit

	case credit.IsPositive():
		if containsAny(upper, purchaseKeywords) {
			return OpPurchase
		}
		// Legacy path: advances are expected to be routed through the debit
		// branch upstream, but an advance posted as a credit still gets its
		// own label rather than a generic CREDIT.
		if containsAny(upper, advanceKeywords) {
			return OpAdvance
		}
		return OpCredit
	}

	return OpOther
}
