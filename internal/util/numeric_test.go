package util

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "plain", input: "55.00", want: 55},
		{name: "currency symbol", input: "$5.50", want: 5.5},
		{name: "thousands comma", input: "1,234.50", want: 1234.5},
		{name: "thousands dot", input: "1.234", want: 1234},
		{name: "decimal comma", input: "5,50", want: 5.5},
		{name: "ocr s for dollar", input: "S55.00", want: 55},
		{name: "double separator", input: "55.,00", want: 55},
		{name: "multiple dots", input: "1.234.5", want: 1234.5},
		{name: "spaced thousands", input: "1 000", want: 1000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseAmount(tc.input)
			if got == nil {
				t.Fatalf("ParseAmount(%q) = nil", tc.input)
			}
			if *got != tc.want {
				t.Fatalf("ParseAmount(%q) = %v, want %v", tc.input, *got, tc.want)
			}
		})
	}
}

func TestParseAmountUnparseable(t *testing.T) {
	for _, input := range []string{"", "   ", "n/a", "--"} {
		if got := ParseAmount(input); got != nil {
			t.Fatalf("ParseAmount(%q) = %v, want nil", input, *got)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	if got := ParseQuantity("10 units"); got == nil || *got != 10 {
		t.Fatalf("got %v", got)
	}
	if got := ParseQuantity("none"); got != nil {
		t.Fatalf("got %v, want nil", *got)
	}
}

func TestCleanLine(t *testing.T) {
	got := CleanLine("Widget Q ty: 10 P r i c e: 5.50 T o t a l: 55.00")
	want := "Widget Qty: 10 Price: 5.50 Total: 55.00"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
