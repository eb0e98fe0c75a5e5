package zk

import "math/big"

// NewNonce generates a fresh 80-bit nonce. Issuance binds one nonce to the
// blinding step (n0) and one to the signature correctness proof (n1), and a
// presentation proof is bound to its own nonce; a Verifier rejects proofs
// bound to the wrong nonce by construction, since it is hashed into the
// Fiat-Shamir challenge.
func NewNonce() (*big.Int, error) {
	return randomBits(largeNonce)
}
