// File path: internal/sheet/render.go
package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fillora/fillora/internal/common"
)

// The textual conventions exchanged with the external binary encoders:
// "=== SHEET: Name ===" headers followed by "Row N: tab-separated-values".

const sheetHeaderPrefix = "=== SHEET: "
const sheetHeaderSuffix = " ==="

// Render produces the plain-text form of the sheets.
func Render(sheets []*Sheet) string {
	var b strings.Builder
	for i, s := range sheets {
		if s == nil {
			continue
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sheetHeaderPrefix)
		b.WriteString(s.Name)
		b.WriteString(sheetHeaderSuffix)
		b.WriteString("\n")
		for r, row := range s.Rows {
			values := make([]string, len(row))
			for c, cell := range row {
				values[c] = FormatValue(cell.Value)
			}
			fmt.Fprintf(&b, "Row %d: %s\n", r+1, strings.Join(values, "\t"))
		}
	}
	return b.String()
}

// ParseText rebuilds the grid model from rendered text. Lines outside a
// sheet header or row convention are ignored; cells come back as strings,
// which is all the textual exchange format preserves.
func ParseText(text string) []*Sheet {
	var sheets []*Sheet
	var current *Sheet
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, sheetHeaderPrefix) && strings.HasSuffix(trimmed, sheetHeaderSuffix) {
			name := strings.TrimSuffix(strings.TrimPrefix(trimmed, sheetHeaderPrefix), sheetHeaderSuffix)
			current = NewSheet(name)
			sheets = append(sheets, current)
			continue
		}
		if current == nil || !strings.HasPrefix(trimmed, "Row ") {
			continue
		}
		rest := strings.TrimPrefix(trimmed, "Row ")
		colon := strings.Index(rest, ":")
		if colon < 0 {
			continue
		}
		rowNum, err := strconv.Atoi(strings.TrimSpace(rest[:colon]))
		if err != nil || rowNum < 1 {
			continue
		}
		payload := strings.TrimPrefix(rest[colon+1:], " ")
		for c, value := range strings.Split(payload, "\t") {
			if err := current.Set(rowNum-1, c, value); err != nil {
				continue
			}
		}
	}
	return sheets
}

// Growth bounds for addressed edits: sheets pad densely, so a reference
// far outside any plausible grid would allocate its distance in cells.
// XLSX dimensions; references beyond them are treated as malformed.
const (
	maxAddressedRows = 1 << 20
	maxAddressedCols = 1 << 14
)

// ApplyCellEdits applies edits keyed "SheetName:CellRef" structurally by
// address, growing sheets as needed. Unlike the textual merge there is no
// miss case; only a malformed or out-of-bounds reference skips an edit.
// Returns how many edits were applied.
func ApplyCellEdits(sheets []*Sheet, edits map[string]interface{}) (int, []*Sheet) {
	logger := common.Logger()
	applied := 0
	for key, value := range edits {
		idx := strings.LastIndex(key, ":")
		if idx <= 0 || idx == len(key)-1 {
			logger.Warn("sheet: cell edit key malformed", "key", key)
			continue
		}
		name, ref := key[:idx], key[idx+1:]
		rowIndex, colIndex, err := ParseAddress(ref)
		if err != nil {
			logger.Warn("sheet: cell edit skipped", "key", key, "error", err)
			continue
		}
		if rowIndex >= maxAddressedRows || colIndex >= maxAddressedCols {
			logger.Warn("sheet: cell edit outside addressable bounds", "key", key)
			continue
		}
		target := findSheet(sheets, name)
		if target == nil {
			target = NewSheet(name)
			sheets = append(sheets, target)
		}
		if err := target.Set(rowIndex, colIndex, value); err != nil {
			logger.Warn("sheet: cell edit skipped", "key", key, "error", err)
			continue
		}
		applied++
	}
	return applied, sheets
}

func findSheet(sheets []*Sheet, name string) *Sheet {
	for _, s := range sheets {
		if s != nil && s.Name == name {
			return s
		}
	}
	return nil
}
