package zk

import (
	"crypto/sha256"
	"math/big"
)

// minimalBytes returns the big-endian, minimal-length encoding of x: no
// leading zero bytes, except that zero itself encodes as a single 0x00
// byte. Negative values are encoded by their absolute value; callers that
// need to bind the sign into a transcript must do so explicitly, matching
// the reference's convention of only ever hashing already-reduced,
// non-negative transcript elements.
func minimalBytes(x *big.Int) []byte {
	if x.Sign() == 0 {
		return []byte{0x00}
	}
	return new(big.Int).Abs(x).Bytes()
}

// fiatShamirHash derives a non-interactive challenge as SHA-256 over the
// concatenation of the minimal big-endian encoding of every element, in the
// order given, interpreted as a big-endian unsigned integer. The order of
// arguments is part of the protocol and must match exactly between prover
// and verifier.
func fiatShamirHash(elems ...*big.Int) *big.Int {
	h := sha256.New()
	for _, e := range elems {
		h.Write(minimalBytes(e))
	}
	sum := h.Sum(nil)
	return new(big.Int).SetBytes(sum)
}
