package zk

import "math/big"

// bitwidths used only in the blinded-secrets correctness proof (BCP). These
// are quoted directly from the construction rather than reusing the
// similarly-named key-generation constants, since the two proofs pick
// independent statistical-hiding margins.
const (
	bcpVPrimeTildeBits = 2673
	bcpMTildeBits      = largeMTilde // 593, shared with the equality proof
	bcpRTildeBits      = 2673        // blinding-factor randomizer; same order as v'_tilde
	committedBlindingBits = largeVPrime
)

// MasterSecret is the Prover's per-holder linkage secret: a single hidden
// attribute committed into every credential it holds.
type MasterSecret struct {
	Value *big.Int
}

// NewMasterSecret generates a fresh master secret.
func NewMasterSecret() (*MasterSecret, error) {
	v, err := randomBits(largeMasterSecret)
	if err != nil {
		return nil, err
	}
	return &MasterSecret{Value: v}, nil
}

// BlindedCredentialSecrets is the Prover's first message to the Issuer: a
// blinded commitment u folding in every hidden and committed attribute, plus
// one Pedersen commitment per committed attribute.
type BlindedCredentialSecrets struct {
	U               *big.Int
	HiddenAttrs     []string // every attribute folded into u: hidden and committed
	CommittedCommit map[string]*big.Int // C_a, keyed by attribute name
}

// BlindingFactors holds the Prover-side randomness needed to unblind the
// signature once issued.
type BlindingFactors struct {
	VPrime *big.Int
}

// BlindedSecretsCorrectnessProof (BCP) proves u and every C_a are
// well-formed without revealing the hidden/committed values.
type BlindedSecretsCorrectnessProof struct {
	C          *big.Int
	VDashCap   *big.Int
	MCap       map[string]*big.Int // keyed by hidden+committed attribute
	RCap       map[string]*big.Int // keyed by committed attribute
}

// BlindCredentialSecrets runs the Prover side of blinded issuance: it
// verifies the Issuer's key correctness proof, then builds u, the
// per-attribute commitments, and the BCP proving they are well-formed.
func BlindCredentialSecrets(pk *PublicKey, kcp *KeyCorrectnessProof, cv *CredentialValues, n0 *big.Int) (*BlindedCredentialSecrets, *BlindingFactors, *BlindedSecretsCorrectnessProof, error) {
	const op = "blind_credential_secrets"

	ok, err := VerifyKeyCorrectnessProof(pk, kcp)
	if err != nil {
		return nil, nil, nil, err
	}
	if !ok {
		return nil, nil, nil, proofErr(op, "issuer key correctness proof does not verify")
	}

	committed := namesOfKind(cv, pk.Attrs, Committed)
	// Committed values are folded into u alongside hidden ones, so the
	// Issuer's signature covers them even though it never sees them.
	hidden := dedupAttrNames(namesOfKind(cv, pk.Attrs, Hidden), committed)

	vPrime, err := randomSignedBits(largeVPrime)
	if err != nil {
		return nil, nil, nil, err
	}

	u, err := modExp(pk.S, vPrime, pk.N)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, a := range hidden {
		ra := pk.R[a]
		rma, err := modExp(ra, cv.Value[a], pk.N)
		if err != nil {
			return nil, nil, nil, err
		}
		u = new(big.Int).Mod(new(big.Int).Mul(u, rma), pk.N)
	}

	cCommit := make(map[string]*big.Int, len(committed))
	for _, a := range committed {
		if cv.Blinding[a] == nil {
			b, err := randomBits(committedBlindingBits)
			if err != nil {
				return nil, nil, nil, err
			}
			cv.Blinding[a] = b
		}
		zMa, err := modExp(pk.Z, cv.Value[a], pk.N)
		if err != nil {
			return nil, nil, nil, err
		}
		sBa, err := modExp(pk.S, cv.Blinding[a], pk.N)
		if err != nil {
			return nil, nil, nil, err
		}
		cCommit[a] = new(big.Int).Mod(new(big.Int).Mul(zMa, sBa), pk.N)
	}

	blinded := &BlindedCredentialSecrets{U: u, HiddenAttrs: hidden, CommittedCommit: cCommit}
	factors := &BlindingFactors{VPrime: vPrime}

	bcp, err := buildBCP(pk, hidden, committed, cv, u, cCommit, vPrime, n0)
	if err != nil {
		return nil, nil, nil, err
	}
	return blinded, factors, bcp, nil
}

func buildBCP(pk *PublicKey, hidden, committed []string, cv *CredentialValues, u *big.Int, cCommit map[string]*big.Int, vPrime, n0 *big.Int) (*BlindedSecretsCorrectnessProof, error) {
	vPrimeTilde, err := randomBits(bcpVPrimeTildeBits)
	if err != nil {
		return nil, err
	}

	hiddenAndCommitted := dedupAttrNames(hidden, committed)
	mTilde := make(map[string]*big.Int, len(hiddenAndCommitted))
	for _, a := range hiddenAndCommitted {
		t, err := randomBits(bcpMTildeBits)
		if err != nil {
			return nil, err
		}
		mTilde[a] = t
	}
	rTilde := make(map[string]*big.Int, len(committed))
	for _, a := range committed {
		t, err := randomBits(bcpRTildeBits)
		if err != nil {
			return nil, err
		}
		rTilde[a] = t
	}

	uTilde, err := modExp(pk.S, vPrimeTilde, pk.N)
	if err != nil {
		return nil, err
	}
	for _, a := range hidden {
		ram, err := modExp(pk.R[a], mTilde[a], pk.N)
		if err != nil {
			return nil, err
		}
		uTilde = new(big.Int).Mod(new(big.Int).Mul(uTilde, ram), pk.N)
	}

	cTilde := make(map[string]*big.Int, len(committed))
	for _, a := range committed {
		zm, err := modExp(pk.Z, mTilde[a], pk.N)
		if err != nil {
			return nil, err
		}
		sr, err := modExp(pk.S, rTilde[a], pk.N)
		if err != nil {
			return nil, err
		}
		cTilde[a] = new(big.Int).Mod(new(big.Int).Mul(zm, sr), pk.N)
	}

	c := bcpChallenge(u, cCommit, committed, uTilde, cTilde, n0)

	vDashCap := new(big.Int).Add(vPrimeTilde, new(big.Int).Mul(c, vPrime))
	mCap := make(map[string]*big.Int, len(hiddenAndCommitted))
	for _, a := range hiddenAndCommitted {
		mCap[a] = new(big.Int).Add(mTilde[a], new(big.Int).Mul(c, cv.Value[a]))
	}
	rCap := make(map[string]*big.Int, len(committed))
	for _, a := range committed {
		rCap[a] = new(big.Int).Add(rTilde[a], new(big.Int).Mul(c, cv.Blinding[a]))
	}

	return &BlindedSecretsCorrectnessProof{C: c, VDashCap: vDashCap, MCap: mCap, RCap: rCap}, nil
}

// bcpChallenge derives c = H(u, {C_a} sorted, u_tilde, {C_a_tilde} sorted, n0).
func bcpChallenge(u *big.Int, cCommit map[string]*big.Int, committed []string, uTilde *big.Int, cTilde map[string]*big.Int, n0 *big.Int) *big.Int {
	elems := []*big.Int{u}
	for _, a := range committed {
		elems = append(elems, cCommit[a])
	}
	elems = append(elems, uTilde)
	for _, a := range committed {
		elems = append(elems, cTilde[a])
	}
	elems = append(elems, n0)
	return fiatShamirHash(elems...)
}

// verifyBCP re-derives the BCP challenge on the Issuer side (§4.5 step 1).
func verifyBCP(pk *PublicKey, blinded *BlindedCredentialSecrets, bcp *BlindedSecretsCorrectnessProof, n0 *big.Int) (bool, error) {
	committed := make([]string, 0, len(blinded.CommittedCommit))
	for a := range blinded.CommittedCommit {
		committed = append(committed, a)
	}
	committed = sortedAttrNames(committed)

	negC := new(big.Int).Neg(bcp.C)
	uInvC, err := modExp(blinded.U, negC, pk.N)
	if err != nil {
		return false, err
	}
	sVCap, err := modExp(pk.S, bcp.VDashCap, pk.N)
	if err != nil {
		return false, err
	}
	uTildePrime := new(big.Int).Mod(new(big.Int).Mul(uInvC, sVCap), pk.N)
	for _, a := range blinded.HiddenAttrs {
		mCap, ok := bcp.MCap[a]
		if !ok {
			return false, structErr("verify_bcp", "missing m_cap for hidden attribute")
		}
		ram, err := modExp(pk.R[a], mCap, pk.N)
		if err != nil {
			return false, err
		}
		uTildePrime = new(big.Int).Mod(new(big.Int).Mul(uTildePrime, ram), pk.N)
	}

	cTildePrime := make(map[string]*big.Int, len(committed))
	for _, a := range committed {
		ca, ok := blinded.CommittedCommit[a]
		if !ok {
			return false, structErr("verify_bcp", "missing commitment for committed attribute")
		}
		mCap, ok := bcp.MCap[a]
		if !ok {
			return false, structErr("verify_bcp", "missing m_cap for committed attribute")
		}
		rCap, ok := bcp.RCap[a]
		if !ok {
			return false, structErr("verify_bcp", "missing r_cap for committed attribute")
		}
		caInvC, err := modExp(ca, negC, pk.N)
		if err != nil {
			return false, err
		}
		zm, err := modExp(pk.Z, mCap, pk.N)
		if err != nil {
			return false, err
		}
		sr, err := modExp(pk.S, rCap, pk.N)
		if err != nil {
			return false, err
		}
		cTildePrime[a] = new(big.Int).Mod(new(big.Int).Mul(new(big.Int).Mul(caInvC, zm), sr), pk.N)
	}

	cPrime := bcpChallenge(blinded.U, blinded.CommittedCommit, committed, uTildePrime, cTildePrime, n0)
	return cPrime.Cmp(bcp.C) == 0, nil
}
