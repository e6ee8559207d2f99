package pipeline

import (
	"strings"

	"invox/internal"
	"invox/internal/util"
)

// ColumnMap is the typed role assignment for one table, inferred from its
// header row. -1 marks a role the header does not carry; rows converted
// under such a map simply leave that field absent.
type ColumnMap struct {
	Code        int
	Description int
	Quantity    int
	UnitPrice   int
	Total       int
	PO          int
}

var (
	codeProbes  = []string{"code", "sku", "item no", "item #", "article", "part"}
	descProbes  = []string{"description", "desc", "item", "product", "service", "details"}
	qtyProbes   = []string{"qty", "quantity", "hours", "units"}
	priceProbes = []string{"unit price", "price", "rate"}
	totalProbes = []string{"total", "amount", "line total"}
	poProbes    = []string{"po", "purchase order", "order ref"}
)

// InferColumns maps header cells to column roles by case-insensitive
// keyword match. A map is usable only when it identifies something to name
// the item by and at least one numeric column; guessing blindly on
// unlabeled tables produces garbage items, so those tables are skipped.
func InferColumns(header []string) (ColumnMap, bool) {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = strings.ToLower(strings.TrimSpace(h))
	}

	cm := ColumnMap{
		Code:        findHeaderIndex(norm, codeProbes),
		Description: findHeaderIndex(norm, descProbes),
		Quantity:    findHeaderIndex(norm, qtyProbes),
		UnitPrice:   findHeaderIndex(norm, priceProbes),
		Total:       findHeaderIndex(norm, totalProbes),
		PO:          findHeaderIndex(norm, poProbes),
	}

	// "Unit Price" headers also contain "unit"; make sure quantity did not
	// claim the price column.
	if cm.Quantity >= 0 && cm.Quantity == cm.UnitPrice {
		cm.Quantity = -1
	}

	usable := (cm.Code >= 0 || cm.Description >= 0) &&
		(cm.Quantity >= 0 || cm.UnitPrice >= 0 || cm.Total >= 0)
	return cm, usable
}

// itemsFromTables converts table rows to line items under an inferred
// column map. Tables whose header defeats inference contribute nothing;
// the free-text path covers those documents.
func itemsFromTables(tables []internal.RawTable) ([]internal.LineItem, []internal.ItemKind) {
	items := []internal.LineItem{}
	kinds := []internal.ItemKind{}

	for _, table := range tables {
		if len(table.Rows) < 2 {
			continue
		}
		cm, ok := InferColumns(table.Rows[0])
		if !ok {
			continue
		}

		for _, row := range table.Rows[1:] {
			item, ok := rowToItem(cm, row)
			if !ok {
				continue
			}
			items = append(items, item)
			kinds = append(kinds, classifyItem(item.Description))
		}
	}

	return items, kinds
}

func rowToItem(cm ColumnMap, row []string) (internal.LineItem, bool) {
	item := internal.LineItem{Description: pickCell(row, cm.Description, -1)}

	if code := pickCell(row, cm.Code, -1); code != "" {
		item.Code = util.StringPtr(code)
	}
	if item.Description == "" && item.Code == nil {
		return internal.LineItem{}, false
	}

	if raw := pickCell(row, cm.Quantity, -1); raw != "" {
		item.Quantity = util.ParseQuantity(raw)
		if item.Quantity == nil {
			item.Malformed = append(item.Malformed, raw)
		}
	}
	if raw := pickCell(row, cm.UnitPrice, -1); raw != "" {
		item.UnitPrice = amountField(&item, raw)
	}
	if raw := pickCell(row, cm.Total, -1); raw != "" {
		item.TotalPrice = amountField(&item, raw)
	}
	if raw := pickCell(row, cm.PO, -1); raw != "" {
		if refs := ExtractPONumbers(raw); len(refs) > 0 {
			item.PORef = util.StringPtr(refs[0])
		}
	}

	// A row with a name but nothing numeric at all is usually a section
	// header or carried-over description, not an item.
	if item.Quantity == nil && item.UnitPrice == nil && item.TotalPrice == nil && len(item.Malformed) == 0 {
		return internal.LineItem{}, false
	}

	return item, true
}

func findHeaderIndex(headers []string, probes []string) int {
	for _, probe := range probes {
		for i, h := range headers {
			if strings.Contains(h, probe) {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int, fallback int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	if fallback >= 0 && fallback < len(cells) {
		return strings.TrimSpace(cells[fallback])
	}
	return ""
}
