package executor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsInt64(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"nil", nil, 0},
		{"int64", int64(42), 42},
		{"int", 7, 7},
		{"float truncates", 3.9, 3},
		{"float out of range", math.Inf(1), 0},
		{"NaN", math.NaN(), 0},
		{"float 2^63", float64(1 << 63), 0},
		{"float min int64", float64(math.MinInt64), math.MinInt64},
		{"float below min int64", -1e19, 0},
		{"string past max int64", "9223372036854775808", 0},
		{"true", true, 1},
		{"false", false, 0},
		{"numeric string", " 12 ", 12},
		{"float string", "2.5", 2},
		{"text", "abc", 0},
		{"bytes", []byte("99"), 99},
		{"unsupported", struct{}{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AsInt64(tt.in))
		})
	}
}
