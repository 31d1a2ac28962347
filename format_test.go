package objtree_test

import (
	"math"
	"testing"

	"github.com/danderson/objtree"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1e-6, "1e-06"},
		{123456.789, "1.234568e+05"},
		{100, "100"},
		{1.5, "1.5"},
		{-2.25, "-2.25"},
		{0.001, "0.001"},
		{0.0009, "9e-04"},
		{100000, "100000"},
		{100001, "1.00001e+05"},
		{1.0000001, "1"},
		{-1e-9, "-1e-09"},
		{math.Inf(1), "+Inf"},
		{math.NaN(), "NaN"},
	}

	for _, tc := range tests {
		got := objtree.FormatFloat(tc.in, 6, 0.001, 100000)
		if got != tc.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tc.in, got, tc.want)
		}
		if got := objtree.DefaultFloatFormat().Format(tc.in); got != tc.want {
			t.Errorf("DefaultFloatFormat().Format(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatFloatPrecision(t *testing.T) {
	tests := []struct {
		in        float64
		precision int
		want      string
	}{
		{3.14159, 0, "3"},
		{3.14159, 2, "3.14"},
		{2.5e-7, 1, "2.5e-07"},
		{1e10, 3, "1e+10"},
	}
	for _, tc := range tests {
		got := objtree.FormatFloat(tc.in, tc.precision, 0.001, 100000)
		if got != tc.want {
			t.Errorf("FormatFloat(%v, %d) = %q, want %q", tc.in, tc.precision, got, tc.want)
		}
	}
}
