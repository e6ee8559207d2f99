package pipeline

import (
	"regexp"
	"strings"

	"invox/internal"
	"invox/internal/config"
	"invox/internal/util"
)

// Candidate patterns per field category, evaluated in fixed priority order:
// the first structural match wins, so behavior is deterministic for
// identical input text.
var (
	invoicePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\binvoice\s*(?:number|no\.?|num\.?)\s*[:#]?\s*([A-Za-z0-9][\w-]*)`),
		regexp.MustCompile(`(?i)\binvoice\s*#\s*([A-Za-z0-9][\w-]*)`),
		regexp.MustCompile(`(?i)\binv\.?\s*(?:no\.?|#)\s*:?\s*([A-Za-z0-9][\w-]*)`),
	}

	poPattern = regexp.MustCompile(`(?i)\b(?:P\.?O\.?[-\s#:]*|purchase\s+order[-\s#:]*)(\d{2,})`)

	supplierLabelPattern  = regexp.MustCompile(`(?i)^(?:supplier|vendor|from|sold\s+by|billed\s+from)\s*:\s*(.+)$`)
	supplierSuffixPattern = regexp.MustCompile(`(?i)^([A-Z0-9][\w&.,' -]*?\s(?:ltd|llc|inc|gmbh|corp|co|plc|s\.a\.?)\.?)$`)
	addressHintPattern    = regexp.MustCompile(`(?i)\d|street|str\.|avenue|ave\b|road|rd\.|box|suite|floor|lane`)

	// Line-item patterns, mirroring the document styles seen in the wild:
	// fully labeled product rows, compact code-first rows with an optional
	// inline PO reference, service hours x rate rows, and a generic
	// qty/price/total tail for everything else.
	productLabeledPattern = regexp.MustCompile(`(?i)product\s*code[:;\s]*([A-Z]{2,4}-[\w\-\[\]]+)\s+quantity[:;\s]*(\d+)(?:\s*units)?\s+unit\s*price[:;\s]*([$S]?[\d.,_]+)\s+amount[:;\s]*([$S]?[\d.,_]+)`)
	productCompactPattern = regexp.MustCompile(`(?i)\b((?:PRD|SKU|ITM)-[\w-]+)\s+([A-Za-z0-9 /_-]+?)\s+qty[:;\s]*(\d+)\s+(?:unit\s*)?price[:;\s]*([$S]?[\d.,_]+)\s+(?:total|amount)[:;\s]*([$S]?[\d.,_]+)(?:\s+po[:;\s]+(?:po[-\s]*)?(\d{2,}))?`)
	servicePattern        = regexp.MustCompile(`(?i)(.+?)\s*hours[:;\s]*(\d+)\s*x\s*rate[:;\s]*([$S]?[\d.,_]+)\s*/hr\s+amount[:;\s]*([$S]?[\d.,_]+)`)
	genericItemPattern    = regexp.MustCompile(`(?i)^(.*?)[\s,:]*\bqty[.:;\s]+(\d+)\s+(?:unit\s*)?price[:;\s]*([$S]?[\d.,_]+)\s+(?:total|amount)[:;\s]*([$S]?[\d.,_]+)`)

	serviceKeywords = []string{"service", "labor", "labour", "consulting", "support", "maintenance", "installation", "training"}
)

const headerRegionLines = 12

// ExtractedFields is the typed result of rule-based extraction. Absent
// fields stay nil/empty; extraction never fails a document.
type ExtractedFields struct {
	InvoiceNumber *string
	Supplier      *internal.SupplierInfo
	PONumbers     []string
	Products      []internal.LineItem
	Services      []internal.LineItem
}

type FieldExtractor struct {
	maxLineMerge int
}

func NewFieldExtractor(cfg config.Config) *FieldExtractor {
	merge := cfg.MaxLineMerge
	if merge <= 0 {
		merge = 6
	}
	return &FieldExtractor{maxLineMerge: merge}
}

// Extract applies the pattern rules to raw text and, when usable table rows
// exist, prefers those for line items. Table engines and text engines fail
// on different document classes, which is why both inputs arrive here.
func (e *FieldExtractor) Extract(text internal.RawDocumentText, tables []internal.RawTable) ExtractedFields {
	fields := ExtractedFields{
		PONumbers: []string{},
		Products:  []internal.LineItem{},
		Services:  []internal.LineItem{},
	}

	lines := PrepareLines(text.Text)
	joined := strings.Join(lines, "\n")

	fields.InvoiceNumber = ExtractInvoiceNumber(joined)
	fields.Supplier = extractSupplier(lines)
	fields.PONumbers = ExtractPONumbers(joined)

	items, kinds := itemsFromTables(tables)
	if len(items) == 0 {
		items, kinds = e.itemsFromLines(lines)
	}
	for i, item := range items {
		if kinds[i] == internal.ItemService {
			fields.Services = append(fields.Services, item)
		} else {
			fields.Products = append(fields.Products, item)
		}
	}

	return fields
}

// ExtractInvoiceNumber returns the first invoice-number-shaped token by
// pattern priority, then document order. When several differing tokens
// appear the first one wins; that is a deliberate, documented policy.
func ExtractInvoiceNumber(text string) *string {
	for _, pat := range invoicePatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			return util.StringPtr(m[1])
		}
	}
	return nil
}

// ExtractPONumbers collects every PO-shaped token in canonical PO-<digits>
// form, deduplicated, insertion order preserved.
func ExtractPONumbers(text string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, m := range poPattern.FindAllStringSubmatch(text, -1) {
		token := "PO-" + m[1]
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// extractSupplier anchors on explicit labels or a company-suffix line in
// the header region; the following line is taken as the address when it
// looks like one. Name-only extraction is valid output.
func extractSupplier(lines []string) *internal.SupplierInfo {
	limit := len(lines)
	if limit > headerRegionLines {
		limit = headerRegionLines
	}

	for i := 0; i < limit; i++ {
		name := ""
		if m := supplierLabelPattern.FindStringSubmatch(lines[i]); m != nil {
			name = strings.TrimSpace(m[1])
		} else if m := supplierSuffixPattern.FindStringSubmatch(lines[i]); m != nil {
			name = strings.TrimSpace(m[1])
		}
		if name == "" {
			continue
		}

		info := internal.SupplierInfo{Name: util.StringPtr(name)}
		if i+1 < len(lines) && looksLikeAddress(lines[i+1]) {
			info.Address = util.StringPtr(lines[i+1])
		}
		return &info
	}
	return nil
}

func isItemLine(line string) bool {
	_, _, ok := matchItemLine(line)
	return ok
}

// looksLikeAddress accepts the line after the supplier name as an address
// only when it carries a street-style hint and is not itself a document
// field line.
func looksLikeAddress(line string) bool {
	if !addressHintPattern.MatchString(line) {
		return false
	}
	if ExtractInvoiceNumber(line) != nil || len(ExtractPONumbers(line)) > 0 {
		return false
	}
	return !isItemLine(line)
}

// itemsFromLines extracts line items from free text. Lines that match no
// pattern on their own are merged with up to maxLineMerge-1 following lines
// and retried, because both direct extraction and OCR routinely split one
// logical row across physical lines.
func (e *FieldExtractor) itemsFromLines(lines []string) ([]internal.LineItem, []internal.ItemKind) {
	items := []internal.LineItem{}
	kinds := []internal.ItemKind{}

	i := 0
	for i < len(lines) {
		if item, kind, ok := matchItemLine(lines[i]); ok {
			items = append(items, item)
			kinds = append(kinds, kind)
			i++
			continue
		}

		merged := false
		for n := 1; n < e.maxLineMerge; n++ {
			if i+n >= len(lines) {
				break
			}
			candidate := strings.Join(lines[i:i+n+1], " ")
			if item, kind, ok := matchItemLine(candidate); ok {
				items = append(items, item)
				kinds = append(kinds, kind)
				i += n + 1
				merged = true
				break
			}
		}
		if !merged {
			i++
		}
	}

	return items, kinds
}

func matchItemLine(line string) (internal.LineItem, internal.ItemKind, bool) {
	if m := productLabeledPattern.FindStringSubmatch(line); m != nil {
		item := internal.LineItem{
			Code:     util.StringPtr(m[1]),
			Quantity: util.ParseQuantity(m[2]),
		}
		item.UnitPrice = amountField(&item, m[3])
		item.TotalPrice = amountField(&item, m[4])
		return item, internal.ItemProduct, true
	}

	if m := productCompactPattern.FindStringSubmatch(line); m != nil {
		item := internal.LineItem{
			Code:        util.StringPtr(m[1]),
			Description: strings.TrimSpace(m[2]),
			Quantity:    util.ParseQuantity(m[3]),
		}
		item.UnitPrice = amountField(&item, m[4])
		item.TotalPrice = amountField(&item, m[5])
		if m[6] != "" {
			item.PORef = util.StringPtr("PO-" + m[6])
		}
		return item, classifyItem(item.Description), true
	}

	if m := servicePattern.FindStringSubmatch(line); m != nil {
		item := internal.LineItem{
			Description: strings.Trim(m[1], ":,.- "),
			Quantity:    util.ParseQuantity(m[2]),
		}
		item.UnitPrice = amountField(&item, m[3])
		item.TotalPrice = amountField(&item, m[4])
		return item, internal.ItemService, true
	}

	if m := genericItemPattern.FindStringSubmatch(line); m != nil {
		item := internal.LineItem{
			Description: strings.Trim(m[1], ":,.- "),
			Quantity:    util.ParseQuantity(m[2]),
		}
		item.UnitPrice = amountField(&item, m[3])
		item.TotalPrice = amountField(&item, m[4])
		return item, classifyItem(item.Description), true
	}

	return internal.LineItem{}, internal.ItemProduct, false
}

// amountField parses a captured numeric token, recording the raw token on
// the item when it looked numeric but failed to parse.
func amountField(item *internal.LineItem, raw string) *float64 {
	v := util.ParseAmount(raw)
	if v == nil && strings.TrimSpace(raw) != "" {
		item.Malformed = append(item.Malformed, strings.TrimSpace(raw))
	}
	return v
}

// classifyItem routes descriptions with service-indicating keywords to
// Service; everything else is a Product.
func classifyItem(description string) internal.ItemKind {
	lower := strings.ToLower(description)
	for _, kw := range serviceKeywords {
		if strings.Contains(lower, kw) {
			return internal.ItemService
		}
	}
	return internal.ItemProduct
}
