package zk

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomBitsExactLength(t *testing.T) {
	x, err := randomBits(64)
	require.NoError(t, err)
	assert.Equal(t, 64, x.BitLen())
}

func TestRandomInRangeBounds(t *testing.T) {
	lo, hi := big.NewInt(10), big.NewInt(20)
	for i := 0; i < 50; i++ {
		x, err := randomInRange(lo, hi)
		require.NoError(t, err)
		assert.True(t, x.Cmp(lo) >= 0 && x.Cmp(hi) < 0, "x=%s must fall in [lo,hi)", x)
	}
}

func TestRandomInRangeEmptyRangeErrors(t *testing.T) {
	_, err := randomInRange(big.NewInt(5), big.NewInt(5))
	assert.Error(t, err)
	assert.True(t, IsInvalidStructure(err))
}

func TestSafePrime(t *testing.T) {
	p, err := safePrime(64)
	require.NoError(t, err)
	assert.Equal(t, 64, p.BitLen())
	assert.True(t, isPrime(p))

	pPrime := new(big.Int).Rsh(p, 1)
	assert.True(t, isPrime(pPrime), "(p-1)/2 must also be prime for a safe prime")
}

func TestModExpNegativeExponent(t *testing.T) {
	// 3^-1 mod 11 = 4, since 3*4 = 12 = 1 mod 11.
	got, err := modExp(big.NewInt(3), big.NewInt(-1), big.NewInt(11))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(4), got)
}

func TestModExpNegativeExponentNotInvertibleErrors(t *testing.T) {
	_, err := modExp(big.NewInt(2), big.NewInt(-1), big.NewInt(4))
	assert.Error(t, err)
}

func TestModExpMatchesPositiveThenInverse(t *testing.T) {
	base, exp, m := big.NewInt(7), big.NewInt(5), big.NewInt(23)
	fwd, err := modExp(base, exp, m)
	require.NoError(t, err)
	back, err := modExp(base, new(big.Int).Neg(exp), m)
	require.NoError(t, err)
	product := new(big.Int).Mod(new(big.Int).Mul(fwd, back), m)
	assert.Equal(t, big1, product)
}

func TestLooksLikeQR(t *testing.T) {
	n := big.NewInt(91) // 7 * 13
	qr, err := randomQR(n)
	require.NoError(t, err)
	assert.True(t, looksLikeQR(qr, n))

	assert.False(t, looksLikeQR(big.NewInt(0), n))
	assert.False(t, looksLikeQR(n, n))
}

func TestBitLenOK(t *testing.T) {
	x := new(big.Int).Lsh(big1, 10) // 2^10, 11 bits
	assert.True(t, bitLenOK(x, 11))
	assert.False(t, bitLenOK(x, 10))
	assert.True(t, bitLenOK(new(big.Int).Neg(x), 11), "bitLenOK must ignore sign")
}
