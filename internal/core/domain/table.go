package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Table is a read-only view over rows of named columns.
type Table interface {
	Len() int
	Float(column string, row int) (float64, error)
	Bool(column string, row int) (bool, error)
}

// Records is a Table backed by one map per row. Rows decoded from JSON,
// CSV and SQL all land here; cells are converted when read.
type Records []map[string]any

func (r Records) Len() int { return len(r) }

// Float returns the cell as a float64. Missing values (nil or "") are NaN.
func (r Records) Float(column string, row int) (float64, error) {
	v, err := r.cell(column, row)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("%w: column %q row %d: %v is not numeric", ErrColumnType, column, row, v)
	}
	return f, nil
}

// Bool returns the cell as a bool. Missing values are false.
func (r Records) Bool(column string, row int) (bool, error) {
	v, err := r.cell(column, row)
	if err != nil {
		return false, err
	}
	b, ok := toBool(v)
	if !ok {
		return false, fmt.Errorf("%w: column %q row %d: %v is not boolean", ErrColumnType, column, row, v)
	}
	return b, nil
}

func (r Records) cell(column string, row int) (any, error) {
	if row < 0 || row >= len(r) {
		return nil, fmt.Errorf("row %d out of range [0,%d)", row, len(r))
	}
	v, ok := r[row][column]
	if !ok {
		return nil, fmt.Errorf("%w: %q (row %d)", ErrColumnNotFound, column, row)
	}
	return v, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return math.NaN(), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return math.NaN(), true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case fmt.Stringer:
		f, err := strconv.ParseFloat(strings.TrimSpace(x.String()), 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case nil:
		return false, true
	case bool:
		return x, true
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		switch s {
		case "":
			return false, true
		case "yes", "y":
			return true, true
		case "no", "n":
			return false, true
		}
		b, err := strconv.ParseBool(s)
		return b, err == nil
	}
	if f, ok := toFloat(v); ok && !math.IsNaN(f) {
		return f != 0, true
	}
	return false, false
}
