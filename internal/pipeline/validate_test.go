package pipeline

import (
	"testing"

	"invox/internal"
	"invox/internal/util"
)

func item(desc string, qty, unit, total float64) internal.LineItem {
	return internal.LineItem{
		Description: desc,
		Quantity:    util.FloatPtr(qty),
		UnitPrice:   util.FloatPtr(unit),
		TotalPrice:  util.FloatPtr(total),
	}
}

func TestValidateArithmeticMismatch(t *testing.T) {
	v := NewValidator(0.01)
	report := v.Validate([]internal.LineItem{item("Widget", 10, 5.50, 60.00)}, nil, nil)

	if report.Products.Total != 1 {
		t.Fatalf("total=%d findings=%+v", report.Products.Total, report.Products.Findings)
	}
	f := report.Products.Findings[0]
	if f.Kind != internal.ArithmeticMismatch {
		t.Fatalf("kind=%s", f.Kind)
	}
	if f.Expected != "55.00" || f.Observed != "60.00" {
		t.Fatalf("expected=%q observed=%q", f.Expected, f.Observed)
	}
}

func TestValidateWithinTolerance(t *testing.T) {
	v := NewValidator(0.01)
	// 3 x 0.333 = 0.999 against a stated 1.00: inside tolerance.
	report := v.Validate([]internal.LineItem{item("Rounded", 3, 0.333, 1.00)}, nil, nil)
	if report.Total() != 0 {
		t.Fatalf("findings=%+v", report)
	}
}

func TestValidateMissingOperandSkipped(t *testing.T) {
	v := NewValidator(0.01)
	partial := internal.LineItem{Description: "No total", Quantity: util.FloatPtr(2), UnitPrice: util.FloatPtr(3)}
	report := v.Validate([]internal.LineItem{partial}, nil, nil)
	if report.Total() != 0 {
		t.Fatalf("findings=%+v", report)
	}
}

func TestValidateMalformedValueFinding(t *testing.T) {
	v := NewValidator(0.01)
	bad := internal.LineItem{Description: "Smudged", Malformed: []string{"1_0.x0"}}
	report := v.Validate(nil, []internal.LineItem{bad}, nil)
	if report.Services.Total != 1 {
		t.Fatalf("total=%d", report.Services.Total)
	}
	f := report.Services.Findings[0]
	if f.Kind != internal.MalformedValue || f.Observed != "1_0.x0" {
		t.Fatalf("finding=%+v", f)
	}
}

func TestValidateMissingReference(t *testing.T) {
	v := NewValidator(0.01)
	withRef := item("Bracket for PO-999", 1, 1, 1)
	report := v.Validate([]internal.LineItem{withRef}, nil, []string{"PO-100"})
	if report.PO.Total != 1 {
		t.Fatalf("total=%d findings=%+v", report.PO.Total, report.PO.Findings)
	}
	f := report.PO.Findings[0]
	if f.Kind != internal.MissingReference || f.Observed != "PO-999" {
		t.Fatalf("finding=%+v", f)
	}
}

func TestValidateKnownReferenceClean(t *testing.T) {
	v := NewValidator(0.01)
	withRef := item("Bracket for PO-100", 1, 1, 1)
	withRef.PORef = util.StringPtr("PO-100")
	report := v.Validate([]internal.LineItem{withRef}, nil, []string{"PO-100"})
	if report.PO.Total != 0 {
		t.Fatalf("findings=%+v", report.PO.Findings)
	}
}

func TestValidateUnusedPONotFlagged(t *testing.T) {
	v := NewValidator(0.01)
	plain := item("No reference here", 2, 2, 4)
	report := v.Validate([]internal.LineItem{plain}, nil, []string{"PO-100", "PO-200"})
	if report.PO.Total != 0 {
		t.Fatalf("declared but unreferenced POs must not be findings: %+v", report.PO.Findings)
	}
}

func TestValidateItemRefPrefersCode(t *testing.T) {
	v := NewValidator(0.01)
	coded := item("Widget", 2, 5, 20)
	coded.Code = util.StringPtr("ABC-123")
	report := v.Validate([]internal.LineItem{coded}, nil, nil)
	if report.Products.Total != 1 || report.Products.Findings[0].ItemRef != "ABC-123" {
		t.Fatalf("findings=%+v", report.Products.Findings)
	}
}
