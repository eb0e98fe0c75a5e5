package zk

import "math/big"

// PublicKey is the Issuer's published CL key: a modulus n, a generator s of
// QR_n, one base r_a per effective attribute, and z.
type PublicKey struct {
	N     *big.Int
	S     *big.Int
	Z     *big.Int
	R     map[string]*big.Int // keyed by effective attribute name
	Attrs []string            // effective attribute set, sorted; defines iteration order
}

// PrivateKey holds the two safe primes backing n.
type PrivateKey struct {
	P *big.Int
	Q *big.Int
}

// order returns p'*q', the group order used for exponent arithmetic.
func (sk *PrivateKey) order() *big.Int {
	pPrime := new(big.Int).Rsh(sk.P, 1)
	qPrime := new(big.Int).Rsh(sk.Q, 1)
	return new(big.Int).Mul(pPrime, qPrime)
}

// KeyCorrectnessProof proves that z and every r_a are of the form s^x for
// an integer x known to the Issuer.
type KeyCorrectnessProof struct {
	C     *big.Int
	XZCap *big.Int
	XRCap map[string]*big.Int
}

// keyGenSecrets are the discrete logs retained by the Issuer after
// NewCredentialDef, needed only to build the KeyCorrectnessProof.
type keyGenSecrets struct {
	xz  *big.Int
	xr  map[string]*big.Int
}

// NewCredentialDef generates a fresh Issuer key pair and its correctness
// proof over the effective attribute set of the given schemas.
func NewCredentialDef(cs *CredentialSchema, ncs *NonCredentialSchema) (*PublicKey, *PrivateKey, *KeyCorrectnessProof, error) {
	const op = "new_credential_def"
	if err := disjoint(cs, ncs); err != nil {
		return nil, nil, nil, err
	}
	attrs := effectiveAttrs(cs, ncs)

	p, err := safePrime(largePrime)
	if err != nil {
		return nil, nil, nil, newErr(CryptoError, op, err)
	}
	q, err := safePrime(largePrime)
	if err != nil {
		return nil, nil, nil, newErr(CryptoError, op, err)
	}
	for q.Cmp(p) == 0 {
		if q, err = safePrime(largePrime); err != nil {
			return nil, nil, nil, newErr(CryptoError, op, err)
		}
	}
	n := new(big.Int).Mul(p, q)

	sk := &PrivateKey{P: p, Q: q}
	order := sk.order()

	s, err := randomQR(n)
	if err != nil {
		return nil, nil, nil, err
	}

	xz, err := randomInRange(big2, order)
	if err != nil {
		return nil, nil, nil, err
	}
	z, err := modExp(s, xz, n)
	if err != nil {
		return nil, nil, nil, err
	}

	r := make(map[string]*big.Int, len(attrs))
	xr := make(map[string]*big.Int, len(attrs))
	for _, a := range attrs {
		xra, err := randomInRange(big2, order)
		if err != nil {
			return nil, nil, nil, err
		}
		ra, err := modExp(s, xra, n)
		if err != nil {
			return nil, nil, nil, err
		}
		xr[a] = xra
		r[a] = ra
	}

	pk := &PublicKey{N: n, S: s, Z: z, R: r, Attrs: attrs}
	secrets := &keyGenSecrets{xz: xz, xr: xr}
	kcp, err := buildKeyCorrectnessProof(pk, secrets)
	if err != nil {
		return nil, nil, nil, err
	}
	return pk, sk, kcp, nil
}

func buildKeyCorrectnessProof(pk *PublicKey, secrets *keyGenSecrets) (*KeyCorrectnessProof, error) {
	// Commit phase: discrete-log Schnorr commitments for each of xz, {xr_a}.
	// The commit exponents are drawn from [2, 2^(2*largePrime)), a bound
	// derived from the modulus bit length; they are not drawn from the
	// [2, p'q') range of the secrets they shadow, since the group order is
	// not passed in here.
	upper := new(big.Int).Lsh(big1, uint(largePrime*2))

	xzTilde, err := randomInRange(big2, upper)
	if err != nil {
		return nil, err
	}
	zTilde, err := modExp(pk.S, xzTilde, pk.N)
	if err != nil {
		return nil, err
	}

	xrTilde := make(map[string]*big.Int, len(pk.Attrs))
	rTilde := make(map[string]*big.Int, len(pk.Attrs))
	for _, a := range pk.Attrs {
		xt, err := randomInRange(big2, upper)
		if err != nil {
			return nil, err
		}
		rt, err := modExp(pk.S, xt, pk.N)
		if err != nil {
			return nil, err
		}
		xrTilde[a] = xt
		rTilde[a] = rt
	}

	c := kcpChallenge(pk, zTilde, rTilde)

	xzCap := new(big.Int).Add(xzTilde, new(big.Int).Mul(c, secrets.xz))
	xrCap := make(map[string]*big.Int, len(pk.Attrs))
	for _, a := range pk.Attrs {
		xrCap[a] = new(big.Int).Add(xrTilde[a], new(big.Int).Mul(c, secrets.xr[a]))
	}
	return &KeyCorrectnessProof{C: c, XZCap: xzCap, XRCap: xrCap}, nil
}

// kcpChallenge derives c = H(z, {r_a} sorted, z_tilde, {r_a_tilde} sorted).
func kcpChallenge(pk *PublicKey, zTilde *big.Int, rTilde map[string]*big.Int) *big.Int {
	elems := []*big.Int{pk.Z}
	for _, a := range pk.Attrs {
		elems = append(elems, pk.R[a])
	}
	elems = append(elems, zTilde)
	for _, a := range pk.Attrs {
		elems = append(elems, rTilde[a])
	}
	return fiatShamirHash(elems...)
}

// VerifyKeyCorrectnessProof checks the KCP against a published PublicKey.
func VerifyKeyCorrectnessProof(pk *PublicKey, kcp *KeyCorrectnessProof) (bool, error) {
	const op = "verify_key_correctness_proof"
	if pk.Z.Sign() <= 0 || pk.Z.Cmp(pk.N) >= 0 {
		return false, structErr(op, "z out of range")
	}
	for _, a := range pk.Attrs {
		ra, ok := pk.R[a]
		if !ok {
			return false, structErr(op, "missing r_a for attribute")
		}
		if ra.Sign() <= 0 || ra.Cmp(pk.N) >= 0 {
			return false, structErr(op, "r_a out of range")
		}
	}

	negC := new(big.Int).Neg(kcp.C)
	zInvC, err := modExp(pk.Z, negC, pk.N)
	if err != nil {
		return false, err
	}
	sXzCap, err := modExp(pk.S, kcp.XZCap, pk.N)
	if err != nil {
		return false, err
	}
	zTildePrime := new(big.Int).Mod(new(big.Int).Mul(zInvC, sXzCap), pk.N)

	rTildePrime := make(map[string]*big.Int, len(pk.Attrs))
	for _, a := range pk.Attrs {
		xrCap, ok := kcp.XRCap[a]
		if !ok {
			return false, structErr(op, "missing response for attribute")
		}
		raInvC, err := modExp(pk.R[a], negC, pk.N)
		if err != nil {
			return false, err
		}
		sXrCap, err := modExp(pk.S, xrCap, pk.N)
		if err != nil {
			return false, err
		}
		rTildePrime[a] = new(big.Int).Mod(new(big.Int).Mul(raInvC, sXrCap), pk.N)
	}

	cPrime := kcpChallenge(pk, zTildePrime, rTildePrime)
	if cPrime.Cmp(kcp.C) != 0 {
		return false, nil
	}
	return true, nil
}
