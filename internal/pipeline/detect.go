package pipeline

import "strings"

type DetectResult struct {
	IsInvoice bool
	Score     float64
	Reason    string
}

var detectKeywords = []string{"invoice", "rechnung", "facture", "bill", "amount due", "payment", "po-", "purchase order"}

// DetectInvoiceMail scores a fetched message on subject/body keywords and
// attachment types. Threshold is conservative on purpose; a missed invoice
// can be reprocessed by message id, a false positive pollutes the queue.
func DetectInvoiceMail(subject, text, html string, attachmentNames []string) DetectResult {
	subject = strings.ToLower(subject)
	text = strings.ToLower(text)
	html = strings.ToLower(html)

	score := 0.0
	for _, kw := range detectKeywords {
		if strings.Contains(subject, kw) {
			score += 0.25
		}
		if strings.Contains(text, kw) || strings.Contains(html, kw) {
			score += 0.1
		}
	}

	for _, name := range attachmentNames {
		ln := strings.ToLower(name)
		if strings.HasSuffix(ln, ".pdf") || strings.HasSuffix(ln, ".xlsx") || strings.HasSuffix(ln, ".xls") {
			score += 0.3
			break
		}
	}

	if strings.Contains(html, "<table") {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}

	isInvoice := score >= 0.45
	reason := "rules_negative"
	if isInvoice {
		reason = "rules_positive"
	}

	return DetectResult{IsInvoice: isInvoice, Score: score, Reason: reason}
}
