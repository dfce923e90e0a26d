// File path: internal/sheet/address.go
package sheet

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidAddress marks a cell reference that does not parse. The codec
// never guesses; callers decide whether to skip or default.
var ErrInvalidAddress = errors.New("invalid cell address")

var addressPattern = regexp.MustCompile(`^[A-Za-z]+[0-9]+$`)

// CellAddress renders zero-based row/column indices as an "A1"-style
// reference. Columns use bijective base-26 (A=0 .. Z=25, AA=26 ..); rows
// are 1-based decimal. Total over its domain: it never fails, and negative
// indices are treated as zero.
func CellAddress(rowIndex, colIndex int) string {
	if rowIndex < 0 {
		rowIndex = 0
	}
	if colIndex < 0 {
		colIndex = 0
	}
	return columnLabel(colIndex) + strconv.Itoa(rowIndex+1)
}

// ParseAddress decodes an "A1"-style reference back to zero-based indices.
// Column letters are case-insensitive.
func ParseAddress(address string) (rowIndex, colIndex int, err error) {
	if !addressPattern.MatchString(address) {
		return 0, 0, ErrInvalidAddress
	}
	split := 0
	for split < len(address) && (address[split] < '0' || address[split] > '9') {
		split++
	}
	letters := strings.ToUpper(address[:split])
	row, convErr := strconv.Atoi(address[split:])
	if convErr != nil || row < 1 {
		return 0, 0, ErrInvalidAddress
	}
	col := 0
	for i := 0; i < len(letters); i++ {
		col = col*26 + int(letters[i]-'A') + 1
	}
	return row - 1, col - 1, nil
}

func columnLabel(colIndex int) string {
	n := colIndex + 1
	// 16 letters cover bijective base-26 for any int64.
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		n--
		i--
		buf[i] = byte('A' + n%26)
		n /= 26
	}
	return string(buf[i:])
}
