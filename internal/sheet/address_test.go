// File path: internal/sheet/address_test.go
package sheet

import (
	"errors"
	"testing"
)

func TestCellAddressConcreteCases(t *testing.T) {
	cases := []struct {
		row, col int
		want     string
	}{
		{0, 0, "A1"},
		{0, 25, "Z1"},
		{0, 26, "AA1"},
		{4, 1, "B5"},
		{9, 51, "AZ10"},
		{0, 701, "ZZ1"},
		{0, 702, "AAA1"},
	}
	for _, tc := range cases {
		if got := CellAddress(tc.row, tc.col); got != tc.want {
			t.Fatalf("CellAddress(%d,%d) = %q, want %q", tc.row, tc.col, got, tc.want)
		}
	}
}

func TestParseAddressConcreteCases(t *testing.T) {
	row, col, err := ParseAddress("B5")
	if err != nil {
		t.Fatalf("parse B5: %v", err)
	}
	if row != 4 || col != 1 {
		t.Fatalf("parse B5 = (%d,%d), want (4,1)", row, col)
	}
	row, col, err = ParseAddress("aa1")
	if err != nil {
		t.Fatalf("parse aa1: %v", err)
	}
	if row != 0 || col != 26 {
		t.Fatalf("lowercase parse failed: (%d,%d)", row, col)
	}
}

func TestAddressRoundTrip(t *testing.T) {
	for row := 0; row < 40; row++ {
		for col := 0; col < 800; col++ {
			addr := CellAddress(row, col)
			gotRow, gotCol, err := ParseAddress(addr)
			if err != nil {
				t.Fatalf("round trip (%d,%d) via %q: %v", row, col, addr, err)
			}
			if gotRow != row || gotCol != col {
				t.Fatalf("round trip (%d,%d) via %q = (%d,%d)", row, col, addr, gotRow, gotCol)
			}
		}
	}
}

func TestParseAddressRejectsMalformedInput(t *testing.T) {
	for _, bad := range []string{"", "A", "1", "A0", "1A", "A-1", "A 1", "A1B", "à1"} {
		if _, _, err := ParseAddress(bad); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("expected ErrInvalidAddress for %q, got %v", bad, err)
		}
	}
}

func TestCellAddressVeryWideColumns(t *testing.T) {
	// Nine letters and beyond: the encoder must stay total wherever the
	// decoder can produce the index.
	for _, addr := range []string{"AAAAAAAAA1", "ZZZZZZZZZ1", "AAAAAAAAAAAA99"} {
		row, col, err := ParseAddress(addr)
		if err != nil {
			t.Fatalf("parse %q: %v", addr, err)
		}
		if got := CellAddress(row, col); got != addr {
			t.Fatalf("round trip %q = %q", addr, got)
		}
	}
}

func TestCellAddressTreatsNegativeAsOrigin(t *testing.T) {
	if got := CellAddress(-3, -7); got != "A1" {
		t.Fatalf("negative indices: got %q, want A1", got)
	}
}
