package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAsFloat(t *testing.T) {
	assert.Equal(t, 0.0, asFloat(nil))
	assert.Equal(t, 1.5, asFloat(1.5))
	assert.Equal(t, 2.0, asFloat(float32(2)))
	assert.Equal(t, 3.0, asFloat(int64(3)))
	assert.Equal(t, 4.0, asFloat(4))
	assert.Equal(t, 0.0, asFloat("not a number"))
}

func TestAsInt(t *testing.T) {
	assert.Equal(t, int64(0), asInt(nil))
	assert.Equal(t, int64(7), asInt(int64(7)))
	assert.Equal(t, int64(8), asInt(int32(8)))
	assert.Equal(t, int64(9), asInt(9.6))
	assert.Equal(t, int64(0), asInt("9"))
}

func TestAsString(t *testing.T) {
	assert.Equal(t, "", asString(nil))
	assert.Equal(t, "hello", asString("hello"))
	assert.Equal(t, "2024-08-31", asString(time.Date(2024, time.August, 31, 13, 45, 0, 0, time.UTC)))
	assert.Equal(t, "2001", asString([]byte("2001")))
	assert.Equal(t, "42", asString(int64(42)))
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{330.5, "$330.50"},
		{999.999, "$1,000.00"},
		{1234.56, "$1,234.56"},
		{1234567.8, "$1,234,567.80"},
		{-45.5, "-$45.50"},
		{-1234.5, "-$1,234.50"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatCurrency(tt.in))
		})
	}
}
