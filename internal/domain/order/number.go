package order

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

const numberPrefix = "ORD-"

// FormatNumber renders the n-th order number. Sequences past 999 grow
// naturally: ORD-999, ORD-1000.
func FormatNumber(n int) string {
	return fmt.Sprintf("%s%03d", numberPrefix, n)
}

// ParseNumber extracts the sequence value from an order number.
func ParseNumber(number string) (int, error) {
	digits, ok := strings.CutPrefix(number, numberPrefix)
	if !ok {
		return 0, errors.Errorf("order number %q: missing %s prefix", number, numberPrefix)
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, errors.Errorf("order number %q: invalid sequence", number)
	}
	return n, nil
}

// NextNumber returns the order number following last. An empty last starts
// the sequence at ORD-001.
func NextNumber(last string) (string, error) {
	if last == "" {
		return FormatNumber(1), nil
	}
	n, err := ParseNumber(last)
	if err != nil {
		return "", err
	}
	return FormatNumber(n + 1), nil
}
