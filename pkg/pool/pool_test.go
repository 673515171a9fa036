package pool

import (
	"math"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWellKnownAccounts(t *testing.T) {
	mint, err := base58.Decode(Mint)
	require.NoError(t, err)
	assert.EqualValues(t, mint, TokenMint)

	authority, err := base58.Decode(Authority)
	require.NoError(t, err)
	assert.EqualValues(t, authority, AuthorityAccount)
}

func TestToRawAmount(t *testing.T) {
	for _, tc := range []struct {
		amount   float64
		decimals uint8
		expected uint64
	}{
		{1.5, 6, 1_500_000},
		{10, 6, 10_000_000},
		{0.000001, 6, 1},
		{2.25, 9, 2_250_000_000},
		{0, 6, 0},
	} {
		actual, err := ToRawAmount(tc.amount, tc.decimals)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, actual)
	}
}

func TestToRawAmount_Invalid(t *testing.T) {
	for _, amount := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := ToRawAmount(amount, 6)
		assert.Equal(t, ErrAmountNotRepresentable, err)
	}
}

func TestFromRawAmount(t *testing.T) {
	assert.Equal(t, 1.5, FromRawAmount(1_500_000, 6))
	assert.Equal(t, 10.0, FromRawAmount(10_000_000_000, 9))
}
