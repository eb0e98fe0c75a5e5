package zk

import "math/big"

// vTildeEqualityBits is the bit width of the equality sub-proof's
// randomizer for v' (distinct from the signature-issuance v' itself and
// from the BCP's own v'-randomizer, per the construction in §4.7).
const vTildeEqualityBits = 2873

// EqualityProof is the "primary proof" of knowledge of a valid signature
// over a set of attributes, disclosing only RevealedAttrs (name -> value).
type EqualityProof struct {
	RevealedAttrs map[string]*big.Int
	APrime        *big.Int
	EHat          *big.Int
	VHat          *big.Int
	MHatA         map[string]*big.Int // keyed by undisclosed attribute
}

// eqCommitState is the Prover's working state between the commit phase and
// the response phase of one equality sub-proof build; it is never shared
// across goroutines or proofs.
type eqCommitState struct {
	pk            *PublicKey
	revealed      []string
	undisclosed   []string
	rA            *big.Int
	ePrime        *big.Int
	vPrimeBlinded *big.Int
	eTilde        *big.Int
	vTilde        *big.Int
	mTilde        map[string]*big.Int // keyed by every attribute in pk.Attrs not revealed
	values        *CredentialValues
	aPrime        *big.Int
	t             *big.Int
}

// commitEquality runs the Prover's commit phase for the equality sub-proof.
func commitEquality(sig *PrimaryCredentialSignature, values *CredentialValues, pk *PublicKey, revealed []string) (*eqCommitState, error) {
	const op = "equality_proof_commit"
	revealedSet := make(map[string]struct{}, len(revealed))
	for _, a := range revealed {
		if _, ok := values.Value[a]; !ok {
			return nil, structErr(op, "revealed attribute has no known value")
		}
		revealedSet[a] = struct{}{}
	}
	var undisclosed []string
	for _, a := range pk.Attrs {
		if _, ok := revealedSet[a]; !ok {
			undisclosed = append(undisclosed, a)
		}
	}

	rA, err := randomInRange(big0, new(big.Int).Lsh(big1, uint(largeVPrime)))
	if err != nil {
		return nil, err
	}
	// A' = A * s^rA mod n
	srA, err := modExp(pk.S, rA, pk.N)
	if err != nil {
		return nil, err
	}
	aPrime := new(big.Int).Mod(new(big.Int).Mul(sig.A, srA), pk.N)

	eStartPow := new(big.Int).Lsh(big1, uint(largeEStart))
	ePrime := new(big.Int).Sub(sig.E, eStartPow)

	// v' = v - e*rA
	vPrimeBlinded := new(big.Int).Sub(sig.V, new(big.Int).Mul(sig.E, rA))

	eTilde, err := randomBits(largeETilde)
	if err != nil {
		return nil, err
	}
	vTilde, err := randomBits(vTildeEqualityBits)
	if err != nil {
		return nil, err
	}
	mTilde := make(map[string]*big.Int, len(undisclosed))
	for _, a := range undisclosed {
		t, err := randomBits(largeMTilde)
		if err != nil {
			return nil, err
		}
		mTilde[a] = t
	}

	// T = A'^eTilde * s^vTilde * prod_{a undisclosed} r_a^mTilde_a mod n
	t, err := modExp(aPrime, eTilde, pk.N)
	if err != nil {
		return nil, err
	}
	svt, err := modExp(pk.S, vTilde, pk.N)
	if err != nil {
		return nil, err
	}
	t = new(big.Int).Mod(new(big.Int).Mul(t, svt), pk.N)
	for _, a := range undisclosed {
		ram, err := modExp(pk.R[a], mTilde[a], pk.N)
		if err != nil {
			return nil, err
		}
		t = new(big.Int).Mod(new(big.Int).Mul(t, ram), pk.N)
	}

	return &eqCommitState{
		pk: pk, revealed: revealed, undisclosed: undisclosed,
		rA: rA, ePrime: ePrime, vPrimeBlinded: vPrimeBlinded,
		eTilde: eTilde, vTilde: vTilde, mTilde: mTilde,
		values: values, aPrime: aPrime, t: t,
	}, nil
}

// respondEquality runs the Prover's response phase given the global
// Fiat-Shamir challenge.
func respondEquality(state *eqCommitState, cH *big.Int) *EqualityProof {
	eHat := new(big.Int).Add(state.eTilde, new(big.Int).Mul(cH, state.ePrime))
	vHat := new(big.Int).Add(state.vTilde, new(big.Int).Mul(cH, state.vPrimeBlinded))
	mHat := make(map[string]*big.Int, len(state.undisclosed))
	for _, a := range state.undisclosed {
		mHat[a] = new(big.Int).Add(state.mTilde[a], new(big.Int).Mul(cH, state.values.Value[a]))
	}
	revealedVals := make(map[string]*big.Int, len(state.revealed))
	for _, a := range state.revealed {
		revealedVals[a] = state.values.Value[a]
	}
	return &EqualityProof{
		RevealedAttrs: revealedVals,
		APrime:        state.aPrime,
		EHat:          eHat,
		VHat:          vHat,
		MHatA:         mHat,
	}
}

// reconstructEqualityTau recomputes T' on the Verifier side using the
// proof's own disclosed values and the global challenge, per §4.7's Verify
// step.
func reconstructEqualityTau(proof *EqualityProof, pk *PublicKey, cH *big.Int) (*big.Int, error) {
	const op = "equality_proof_verify"
	if !looksLikeQR(proof.APrime, pk.N) {
		return nil, structErr(op, "A' is not a plausible quadratic residue mod n")
	}
	maxEHatBits := largeETilde + 1 + largeEEndRange + 1
	if !bitLenOK(proof.EHat, maxEHatBits) {
		return nil, structErr(op, "e_hat exceeds allowed bit length")
	}

	revealedSet := make(map[string]struct{}, len(proof.RevealedAttrs))
	for a := range proof.RevealedAttrs {
		revealedSet[a] = struct{}{}
	}

	// base = z * A'^{-2^largeEStart} * prod_{a in R} r_a^{-m_a} mod n. The A'
	// factor balances e_hat, which carries e' = e - 2^largeEStart rather than e.
	negEStartPow := new(big.Int).Neg(new(big.Int).Lsh(big1, uint(largeEStart)))
	aPrimeInv, err := modExp(proof.APrime, negEStartPow, pk.N)
	if err != nil {
		return nil, err
	}
	base := new(big.Int).Mod(new(big.Int).Mul(pk.Z, aPrimeInv), pk.N)
	for a, val := range proof.RevealedAttrs {
		negVal := new(big.Int).Neg(val)
		raInv, err := modExp(pk.R[a], negVal, pk.N)
		if err != nil {
			return nil, err
		}
		base = new(big.Int).Mod(new(big.Int).Mul(base, raInv), pk.N)
	}

	negC := new(big.Int).Neg(cH)
	baseNegC, err := modExp(base, negC, pk.N)
	if err != nil {
		return nil, err
	}
	aPrimeEHat, err := modExp(proof.APrime, proof.EHat, pk.N)
	if err != nil {
		return nil, err
	}
	sVHat, err := modExp(pk.S, proof.VHat, pk.N)
	if err != nil {
		return nil, err
	}
	tPrime := new(big.Int).Mod(new(big.Int).Mul(new(big.Int).Mul(baseNegC, aPrimeEHat), sVHat), pk.N)

	for _, a := range pk.Attrs {
		if _, revealed := revealedSet[a]; revealed {
			continue
		}
		mHat, ok := proof.MHatA[a]
		if !ok {
			return nil, structErr(op, "missing m_hat for undisclosed attribute")
		}
		ram, err := modExp(pk.R[a], mHat, pk.N)
		if err != nil {
			return nil, err
		}
		tPrime = new(big.Int).Mod(new(big.Int).Mul(tPrime, ram), pk.N)
	}
	return tPrime, nil
}
