package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDecimal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Cents
	}{
		{name: "whole amount", input: "12", want: 1200},
		{name: "two decimal places", input: "12.34", want: 1234},
		{name: "one decimal place", input: "0.5", want: 50},
		{name: "rounds half away from zero", input: "0.005", want: 1},
		{name: "negative rounds half away from zero", input: "-0.005", want: -1},
		{name: "truncates float dust", input: "10.001", want: 1000},
		{name: "zero", input: "0", want: 0},
		{name: "negative amount", input: "-3.75", want: -375},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, FromDecimal(d))
		})
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("42.10")
	require.NoError(t, err)
	assert.Equal(t, Cents(4210), got)

	_, err = Parse("not-a-number")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestString(t *testing.T) {
	assert.Equal(t, "12.34", Cents(1234).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "-3.00", Cents(-300).String())
	assert.Equal(t, "0.00", Cents(0).String())
}

func TestDecimalRoundTrip(t *testing.T) {
	for _, c := range []Cents{-1234, -1, 0, 1, 99, 100, 123456789} {
		assert.Equal(t, c, FromDecimal(c.Decimal()))
	}
}

func TestAbs(t *testing.T) {
	assert.Equal(t, Cents(5), Cents(-5).Abs())
	assert.Equal(t, Cents(5), Cents(5).Abs())
	assert.Equal(t, Cents(0), Cents(0).Abs())
}

func TestSum(t *testing.T) {
	assert.Equal(t, Cents(0), Sum())
	assert.Equal(t, Cents(60), Sum(10, 20, 30))
	assert.Equal(t, Cents(-10), Sum(20, -30))
}
