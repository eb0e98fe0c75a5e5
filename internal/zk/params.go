// Package zk implements Camenisch-Lysyanskaya anonymous credentials: blind
// issuance of an RSA-based signature over a set of attributes, and
// non-interactive zero-knowledge proofs that a holder possesses a valid
// signature satisfying a disclosure/predicate policy without revealing the
// signature or the undisclosed attributes.
package zk

// Bit-length parameters for the CL signature scheme. These mirror the
// reference construction; changing them changes interoperability, not just
// performance.
const (
	largePrime       = 1024 // bit length of each safe prime p, q
	largeMasterSecret = 256 // bit length of the master secret attribute
	largeVPrime       = 2724
	largeEStart       = 596
	largeEEndRange    = 119
	largeETilde       = 456
	largeMTilde       = 593

	// largeNonce is the bit length of freshly generated nonces.
	largeNonce = 80

	// v'' width used during signing: v'' in [2^(largeVPrime-1), 2^(largeVPrime-1)+2^597).
	largeVPrimePrimeRange = 597
)
