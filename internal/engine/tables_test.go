package engine

import (
	"testing"

	"github.com/ledongthuc/pdf"
)

func word(s string, x, w float64) pdf.Text {
	return pdf.Text{S: s, X: x, W: w}
}

func TestClusterCellsSplitsOnWideGaps(t *testing.T) {
	row := pdf.TextHorizontal{
		word("Hex", 10, 20),
		word("bolts", 32, 25),
		word("50", 120, 12),
		word("0.12", 200, 22),
	}
	cells := clusterCells(row)
	if len(cells) != 3 {
		t.Fatalf("cells=%v", cells)
	}
	if cells[0] != "Hex bolts" || cells[1] != "50" || cells[2] != "0.12" {
		t.Fatalf("cells=%v", cells)
	}
}

func TestClusterCellsUnsortedInput(t *testing.T) {
	row := pdf.TextHorizontal{
		word("0.12", 200, 22),
		word("Hex", 10, 20),
		word("50", 120, 12),
	}
	cells := clusterCells(row)
	if len(cells) != 3 || cells[0] != "Hex" {
		t.Fatalf("cells=%v", cells)
	}
}

func TestClusterCellsSingleRun(t *testing.T) {
	row := pdf.TextHorizontal{
		word("Invoice", 10, 40),
		word("Number:", 52, 42),
		word("INV-1", 96, 30),
	}
	cells := clusterCells(row)
	if len(cells) != 1 || cells[0] != "Invoice Number: INV-1" {
		t.Fatalf("cells=%v", cells)
	}
}

func TestClusterCellsEmpty(t *testing.T) {
	if cells := clusterCells(nil); cells != nil {
		t.Fatalf("cells=%v", cells)
	}
}
