package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceString(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{name: "plain string", input: "  hello ", want: "hello"},
		{name: "number", input: 42.5, want: "42.5"},
		{name: "integer-valued number", input: float64(7), want: "7"},
		{name: "bool", input: true, want: "true"},
		{name: "nil", input: nil, want: ""},
		{name: "object", input: map[string]interface{}{"a": 1}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, coerceString(tt.input))
		})
	}
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  interface{}
		want   float64
		wantOK bool
	}{
		{name: "float", input: 3.5, want: 3.5, wantOK: true},
		{name: "quoted number", input: "12", want: 12, wantOK: true},
		{name: "quoted number with spaces", input: " 12.25 ", want: 12.25, wantOK: true},
		{name: "nan", input: math.NaN(), wantOK: false},
		{name: "inf string", input: "Inf", wantOK: false},
		{name: "garbage string", input: "twelve", wantOK: false},
		{name: "nil", input: nil, wantOK: false},
		{name: "bool", input: true, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceNumber(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCoerceNonNegative(t *testing.T) {
	assert.Equal(t, 5.0, coerceNonNegative(5.0))
	assert.Equal(t, 0.0, coerceNonNegative(-3.0))
	assert.Equal(t, 0.0, coerceNonNegative(nil))
	assert.Equal(t, 0.0, coerceNonNegative("junk"))
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		name   string
		input  interface{}
		want   bool
		wantOK bool
	}{
		{name: "true", input: true, want: true, wantOK: true},
		{name: "false", input: false, want: false, wantOK: true},
		{name: "quoted yes", input: "Yes", want: true, wantOK: true},
		{name: "quoted false", input: "false", want: false, wantOK: true},
		{name: "garbage", input: "maybe", wantOK: false},
		{name: "nil", input: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceBool(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCoerceStringSlice(t *testing.T) {
	got := coerceStringSlice([]interface{}{"a", 2.0, "", nil, "b "})
	assert.Equal(t, []string{"a", "2", "b"}, got)

	assert.Empty(t, coerceStringSlice("not a slice"))
	assert.NotNil(t, coerceStringSlice(nil))
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  float64
	}{
		{name: "in range", input: 0.85, want: 0.85},
		{name: "above one", input: 1.7, want: 1},
		{name: "negative", input: -0.2, want: 0},
		{name: "quoted", input: "0.4", want: 0.4},
		{name: "missing", input: nil, want: 0.5},
		{name: "garbage", input: "high", want: 0.5},
		{name: "nan", input: math.NaN(), want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampConfidence(tt.input))
		})
	}
}
