package amount

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		units string
		str   string
	}{
		{input: "50", units: "50000000", str: "50"},
		{input: "0.5", units: "500000", str: "0.5"},
		{input: ".25", units: "250000", str: "0.25"},
		{input: "7.", units: "7000000", str: "7"},
		{input: "0.000001", units: "1", str: "0.000001"},
		{input: " 12.340000 ", units: "12340000", str: "12.34"},
		{input: "0", units: "0", str: "0"},
		{input: "000.000", units: "0", str: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			a, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.units, a.UnitsString())
			assert.Equal(t, tt.str, a.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		input string
		err   error
	}{
		{input: "", err: ErrEmpty},
		{input: "   ", err: ErrEmpty},
		{input: ".", err: ErrMalformed},
		{input: "-1", err: ErrMalformed},
		{input: "1e5", err: ErrMalformed},
		{input: "1.2.3", err: ErrMalformed},
		{input: "abc", err: ErrMalformed},
		{input: "1.0000001", err: ErrTooPrecise},
		{input: "115792089237316195423570985008687907853269984665640564039457584007913129.639936", err: ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParsePositive(t *testing.T) {
	_, err := ParsePositive("0.000")
	assert.ErrorIs(t, err, ErrNotPositive)

	a, err := ParsePositive("0.000001")
	require.NoError(t, err)
	assert.True(t, a.IsPositive())
}

func TestAmount_Cmp(t *testing.T) {
	fifty, _ := Parse("50")
	seventyFive, _ := Parse("75")
	assert.Equal(t, -1, fifty.Cmp(seventyFive))
	assert.Equal(t, 0, fifty.Cmp(FromUnits(big.NewInt(50_000_000))))
	assert.Equal(t, 1, seventyFive.Cmp(Amount{}))
}

func TestFromUnits_DoesNotAlias(t *testing.T) {
	units := big.NewInt(10)
	a := FromUnits(units)
	units.SetInt64(99)
	assert.Equal(t, "10", a.UnitsString())

	out := a.Units()
	out.SetInt64(1)
	assert.Equal(t, "10", a.UnitsString())
}

func TestParseUnits(t *testing.T) {
	a, err := ParseUnits("75000000")
	require.NoError(t, err)
	assert.Equal(t, "75", a.String())

	_, err = ParseUnits("-1")
	assert.ErrorIs(t, err, ErrMalformed)
}
