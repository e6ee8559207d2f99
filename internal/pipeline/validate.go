package pipeline

import (
	"math"
	"strconv"

	"invox/internal"
)

// Validator cross-checks extracted fields. Findings never block record
// assembly; they travel with the record so reviewers see exactly what to
// look at.
type Validator struct {
	tolerance float64
}

func NewValidator(tolerance float64) *Validator {
	if tolerance <= 0 {
		tolerance = 0.01
	}
	return &Validator{tolerance: tolerance}
}

// Validate runs arithmetic checks per category and the referential PO check
// across both. PO numbers declared in the document header but referenced by
// no item are left alone: a header may legitimately list orders the invoice
// only partially bills.
func (v *Validator) Validate(products, services []internal.LineItem, poNumbers []string) internal.ConsistencyReport {
	report := internal.ConsistencyReport{
		Products: v.checkItems(products),
		Services: v.checkItems(services),
		PO:       checkReferences(products, services, poNumbers),
	}
	return report
}

func (v *Validator) checkItems(items []internal.LineItem) internal.CategoryReport {
	cat := internal.CategoryReport{Findings: []internal.ConsistencyFinding{}}

	for _, item := range items {
		ref := itemRef(item)

		for _, raw := range item.Malformed {
			cat.Findings = append(cat.Findings, internal.ConsistencyFinding{
				Kind:     internal.MalformedValue,
				ItemRef:  ref,
				Observed: raw,
			})
		}

		// The arithmetic check needs all three operands; a missing one is
		// an extraction gap, not a mismatch.
		if item.Quantity == nil || item.UnitPrice == nil || item.TotalPrice == nil {
			continue
		}
		expected := *item.Quantity * *item.UnitPrice
		if math.Abs(expected-*item.TotalPrice) > v.tolerance {
			cat.Findings = append(cat.Findings, internal.ConsistencyFinding{
				Kind:     internal.ArithmeticMismatch,
				ItemRef:  ref,
				Expected: formatAmount(expected),
				Observed: formatAmount(*item.TotalPrice),
			})
		}
	}

	cat.Total = len(cat.Findings)
	return cat
}

// checkReferences flags PO tokens that items mention but the document never
// declares. Tokens come from explicit item PO fields and from PO-shaped
// text inside descriptions; each unknown token is reported once per item.
func checkReferences(products, services []internal.LineItem, poNumbers []string) internal.CategoryReport {
	cat := internal.CategoryReport{Findings: []internal.ConsistencyFinding{}}

	known := make(map[string]struct{}, len(poNumbers))
	for _, po := range poNumbers {
		known[po] = struct{}{}
	}

	check := func(items []internal.LineItem) {
		for _, item := range items {
			refs := []string{}
			seen := map[string]struct{}{}
			if item.PORef != nil {
				refs = append(refs, *item.PORef)
				seen[*item.PORef] = struct{}{}
			}
			for _, tok := range ExtractPONumbers(item.Description) {
				if _, ok := seen[tok]; ok {
					continue
				}
				seen[tok] = struct{}{}
				refs = append(refs, tok)
			}
			for _, tok := range refs {
				if _, ok := known[tok]; ok {
					continue
				}
				cat.Findings = append(cat.Findings, internal.ConsistencyFinding{
					Kind:     internal.MissingReference,
					ItemRef:  itemRef(item),
					Observed: tok,
				})
			}
		}
	}
	check(products)
	check(services)

	cat.Total = len(cat.Findings)
	return cat
}

func itemRef(item internal.LineItem) string {
	if item.Code != nil && *item.Code != "" {
		return *item.Code
	}
	return item.Description
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
