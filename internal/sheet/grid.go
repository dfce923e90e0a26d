// File path: internal/sheet/grid.go
package sheet

import (
	"fmt"
	"strconv"
)

// Cell holds one normalized scalar value, or nil when empty. Nested
// structures are rejected at the boundary by NormalizeValue.
type Cell struct {
	Value interface{} `json:"value,omitempty"`
}

// Sheet is a densely indexed grid: rows carry no sparse holes, reads of an
// out-of-range index are empty, and writes grow the grid by padding with
// empty cells instead of failing.
type Sheet struct {
	Name        string   `json:"name"`
	Rows        [][]Cell `json:"rows"`
	ColumnCount int      `json:"column_count"`
}

// NewSheet returns an empty named sheet.
func NewSheet(name string) *Sheet {
	return &Sheet{Name: name}
}

// RowCount reports the number of materialized rows.
func (s *Sheet) RowCount() int {
	return len(s.Rows)
}

// Get reads the value at the zero-based position. Out-of-range reads are
// empty, never an error.
func (s *Sheet) Get(rowIndex, colIndex int) interface{} {
	if s == nil || rowIndex < 0 || colIndex < 0 || rowIndex >= len(s.Rows) {
		return nil
	}
	row := s.Rows[rowIndex]
	if colIndex >= len(row) {
		return nil
	}
	return row[colIndex].Value
}

// Set writes a normalized scalar at the zero-based position, padding rows
// and columns as needed. ColumnCount stays >= the longest row present.
func (s *Sheet) Set(rowIndex, colIndex int, value interface{}) error {
	if rowIndex < 0 || colIndex < 0 {
		return fmt.Errorf("negative cell index %d,%d", rowIndex, colIndex)
	}
	normalized, err := NormalizeValue(value)
	if err != nil {
		return err
	}
	for len(s.Rows) <= rowIndex {
		s.Rows = append(s.Rows, make([]Cell, 0, colIndex+1))
	}
	row := s.Rows[rowIndex]
	for len(row) <= colIndex {
		row = append(row, Cell{})
	}
	row[colIndex] = Cell{Value: normalized}
	s.Rows[rowIndex] = row
	if colIndex+1 > s.ColumnCount {
		s.ColumnCount = colIndex + 1
	}
	return nil
}

// SetByAddress writes through an "A1"-style reference.
func (s *Sheet) SetByAddress(address string, value interface{}) error {
	rowIndex, colIndex, err := ParseAddress(address)
	if err != nil {
		return err
	}
	return s.Set(rowIndex, colIndex, value)
}

// NormalizeValue reduces an arbitrary decoded value to the closed scalar
// union {string, float64, bool}. Nil passes through as an empty cell;
// anything nested is rejected.
func NormalizeValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case bool:
		return v, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("unsupported cell value type %T", value)
	}
}

// FormatValue renders a cell value for the textual sheet convention.
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
