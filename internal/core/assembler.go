package core

import (
	"regexp"
	"strings"
)

var (
	blockHeader   = regexp.MustCompile(`^Conta:\s*(\d+)\s*-\s*([\d.]+)\s+(.+)$`)
	openingAmount = regexp.MustCompile(`([\d.,]+)(C|D)?`)
	totalsPair    = regexp.MustCompile(`([\d.,]+)\s+([\d.,]+)`)
)

const (
	openingMarker = "SALDO ANTERIOR"
	totalsMarker  = "Total da conta:"
)

// parseBlock runs the block state machine over one supplier's lines: the
// account header, an optional opening-balance line, dated entry lines with
// continuations, free text buffered ahead of its entry, and the stated
// totals line that ends the block. A block with no postable entries is not a
// reconciliation subject and yields nil.
func (p *StatementParser) parseBlock(lines []string) *SupplierBlock {
	var block *SupplierBlock
	var entries []LedgerEntry
	var current *LedgerEntry
	var pending []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := blockHeader.FindStringSubmatch(line); m != nil {
			block = &SupplierBlock{
				AccountCode:   m[1],
				AccountNumber: m[2],
				DisplayName:   strings.TrimSpace(m[3]),
			}
			current = nil
			pending = nil
			continue
		}
		if block == nil {
			continue
		}

		if strings.Contains(line, openingMarker) {
			if m := openingAmount.FindStringSubmatch(line); m != nil {
				block.OpeningBalance = ParseAmount(m[1])
				block.OpeningSign = m[2]
				block.HasOpening = true
			}
			// Opening balance is a hard boundary: narration never leaks
			// across it.
			pending = nil
			continue
		}

		if strings.Contains(line, totalsMarker) {
			if m := totalsPair.FindStringSubmatch(line); m != nil {
				block.StatedDebit = ParseAmount(m[1])
				block.StatedCredit = ParseAmount(m[2])
				block.HasTotals = true
			}
			break
		}

		if e, ok := p.parseEntryLine(line); ok {
			if current != nil {
				entries = append(entries, *current)
			}
			if len(pending) > 0 {
				// A description can legitimately precede its amount line in
				// the source layout.
				e.Narration = strings.TrimSpace(strings.Join(pending, " ")) + " " + e.Narration
				if nf := ExtractInvoiceNumber(e.Narration); nf != "" {
					e.InvoiceNumber = nf
				}
				pending = nil
			}
			current = e
			continue
		}

		switch {
		case current != nil && !datePrefix.MatchString(line):
			// Continuation of the open entry. The accumulated narration is
			// cumulative evidence: an extraction over the whole of it beats
			// one over the fragment alone.
			current.Narration += " " + line
			nfLine := ExtractInvoiceNumber(line)
			nfFull := ExtractInvoiceNumber(current.Narration)
			if nfFull != "" {
				current.InvoiceNumber = nfFull
			} else if nfLine != "" && current.InvoiceNumber == "" {
				current.InvoiceNumber = nfLine
			}
		case current == nil && !datePrefix.MatchString(line):
			pending = append(pending, line)
		default:
			// Dated but unparsable, or decorative header noise.
			p.diag.LineDropped(line)
		}
	}

	if current != nil {
		entries = append(entries, *current)
	}
	if block == nil || len(entries) == 0 {
		return nil
	}

	// Re-run classification and extraction now that every narration is
	// final: the deciding keyword or invoice number may have arrived on a
	// continuation line.
	for i := range entries {
		e := &entries[i]
		e.Operation = ClassifyOperation(e.Narration, e.Debit, e.Credit)
		if nf := ExtractInvoiceNumber(e.Narration); nf != "" {
			e.InvoiceNumber = nf
		}
		if e.TaxID == "" {
			e.TaxID = ExtractTaxID(e.Narration)
		}
	}
	block.Entries = entries
	return block
}

// consolidateBlocks merges blocks sharing an account code. A supplier
// section that wraps across a page break is extracted as separate blocks;
// the printed subtotal is only final on the last page, while the opening
// balance is printed only on the first. Entries concatenate in encounter
// order. First-seen order of account codes is preserved.
func (p *StatementParser) consolidateBlocks(blocks []*SupplierBlock) []SupplierBlock {
	var order []string
	byCode := make(map[string][]*SupplierBlock)
	for _, b := range blocks {
		if _, seen := byCode[b.AccountCode]; !seen {
			order = append(order, b.AccountCode)
		}
		byCode[b.AccountCode] = append(byCode[b.AccountCode], b)
	}

	out := make([]SupplierBlock, 0, len(order))
	for _, code := range order {
		frags := byCode[code]
		if len(frags) == 1 {
			out = append(out, *frags[0])
			continue
		}
		p.diag.BlocksConsolidated(code, len(frags))

		merged := *frags[0] // first fragment's opening balance is authoritative
		merged.Entries = nil
		for _, f := range frags {
			merged.Entries = append(merged.Entries, f.Entries...)
		}
		last := frags[len(frags)-1] // last fragment carries the cumulative totals
		merged.StatedDebit = last.StatedDebit
		merged.StatedCredit = last.StatedCredit
		merged.HasTotals = last.HasTotals
		out = append(out, merged)
	}
	return out
}
