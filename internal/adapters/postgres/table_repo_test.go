package postgres

import (
	"math"
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestNormalize_Numeric(t *testing.T) {
	n := pgtype.Numeric{Int: big.NewInt(12345), Exp: -2, Valid: true}
	if got := normalize(n); got != 123.45 {
		t.Errorf("expected 123.45, got %v", got)
	}

	if got, ok := normalize(pgtype.Numeric{}).(float64); !ok || !math.IsNaN(got) {
		t.Errorf("expected NaN for NULL numeric, got %v", got)
	}
	if got, ok := normalize(pgtype.Numeric{NaN: true, Valid: true}).(float64); !ok || !math.IsNaN(got) {
		t.Errorf("expected NaN for numeric NaN, got %v", got)
	}
}

func TestNormalize_Passthrough(t *testing.T) {
	for _, v := range []any{nil, int64(3), 2.5, "x", true} {
		if got := normalize(v); got != v {
			t.Errorf("normalize(%v) = %v", v, got)
		}
	}
}
