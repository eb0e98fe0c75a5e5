package zk

import "math/big"

// SubProofRequest names what a single credential's sub-proof must disclose:
// a set of attributes in the clear, plus zero or more range predicates over
// other (undisclosed) attributes.
type SubProofRequest struct {
	RevealedAttrs []string    `json:"revealed_attrs"`
	Predicates    []Predicate `json:"predicates,omitempty"`
}

// PrimaryProof is the sub-proof produced for one credential: the equality
// (signature-knowledge) proof plus zero or more range predicate proofs.
type PrimaryProof struct {
	Equality     *EqualityProof
	Inequalities []*InequalityProof
}

// AggregatedProof is the full non-interactive proof sent to a Verifier: the
// Fiat-Shamir challenge hash plus the first-move commitments (c_list,
// flattened across every sub-proof in declared order) needed to re-derive
// it, alongside the sub-proofs themselves.
type AggregatedProof struct {
	CHash     *big.Int
	CList     []*big.Int
	SubProofs []*PrimaryProof
}

// CredentialProofInput bundles everything CreateProof needs for one
// credential being presented.
type CredentialProofInput struct {
	Request   *SubProofRequest
	Signature *PrimaryCredentialSignature
	Values    *CredentialValues
	PK        *PublicKey
}

// CredentialVerifyInput bundles everything VerifyProof needs for one
// credential's sub-proof.
type CredentialVerifyInput struct {
	Request *SubProofRequest
	PK      *PublicKey
}

// collectCList flattens every sub-proof's first-move commitments (A', then
// each predicate's T_0..T_4) in declared order.
func collectCList(subProofs []*PrimaryProof) []*big.Int {
	var out []*big.Int
	for _, sp := range subProofs {
		out = append(out, sp.Equality.APrime)
		for _, ip := range sp.Inequalities {
			out = append(out, ip.T[:]...)
		}
	}
	return out
}

// CreateProof builds a non-interactive proof over one or more credentials
// under a single Fiat-Shamir challenge, disclosing exactly what each
// input's SubProofRequest asks for.
func CreateProof(inputs []CredentialProofInput, nonce *big.Int) (*AggregatedProof, error) {
	const op = "create_proof"
	if len(inputs) == 0 {
		return nil, structErr(op, "at least one credential input is required")
	}

	type builtState struct {
		eq    *eqCommitState
		ineqs []*ineqCommitState
	}
	states := make([]builtState, len(inputs))
	var tauList []*big.Int
	var cList []*big.Int

	for i, in := range inputs {
		if err := in.Request.validate(); err != nil {
			return nil, err
		}
		eqState, err := commitEquality(in.Signature, in.Values, in.PK, in.Request.RevealedAttrs)
		if err != nil {
			return nil, err
		}
		states[i].eq = eqState
		tauList = append(tauList, eqState.t)
		cList = append(cList, eqState.aPrime)

		for _, pred := range in.Request.Predicates {
			m, ok := in.Values.Value[pred.Attr]
			if !ok {
				return nil, structErr(op, "predicate refers to an attribute with no known value")
			}
			ineqState, err := commitInequality(in.PK, eqState, m, pred)
			if err != nil {
				return nil, err
			}
			states[i].ineqs = append(states[i].ineqs, ineqState)
			tauList = append(tauList, ineqState.tauI[0], ineqState.tauI[1], ineqState.tauI[2], ineqState.tauI[3], ineqState.tauDelta, ineqState.q)
			cList = append(cList, ineqState.t[:]...)
		}
	}

	elems := append(append([]*big.Int{}, tauList...), cList...)
	elems = append(elems, nonce)
	cH := fiatShamirHash(elems...)

	subProofs := make([]*PrimaryProof, len(inputs))
	for i, in := range inputs {
		eqProof := respondEquality(states[i].eq, cH)
		var ineqProofs []*InequalityProof
		for j, ineqState := range states[i].ineqs {
			pred := in.Request.Predicates[j]
			mHat := eqProof.MHatA[pred.Attr]
			ineqProofs = append(ineqProofs, respondInequality(ineqState, cH, mHat))
		}
		subProofs[i] = &PrimaryProof{Equality: eqProof, Inequalities: ineqProofs}
	}

	return &AggregatedProof{CHash: cH, CList: collectCList(subProofs), SubProofs: subProofs}, nil
}

func (r *SubProofRequest) validate() error {
	for _, p := range r.Predicates {
		if err := p.validate(); err != nil {
			return err
		}
	}
	return nil
}

// VerifyProof checks an AggregatedProof against the per-credential requests
// and public keys, and the nonce it must be bound to.
func VerifyProof(proof *AggregatedProof, inputs []CredentialVerifyInput, nonce *big.Int) (bool, error) {
	const op = "verify_proof"
	if len(proof.SubProofs) != len(inputs) {
		return false, structErr(op, "sub-proof count does not match request count")
	}

	var tauList []*big.Int
	for i, sp := range proof.SubProofs {
		in := inputs[i]
		if err := in.Request.validate(); err != nil {
			return false, err
		}
		if !revealedSetMatches(sp.Equality.RevealedAttrs, in.Request.RevealedAttrs) {
			return false, structErr(op, "proof discloses a different attribute set than requested")
		}
		tPrime, err := reconstructEqualityTau(sp.Equality, in.PK, proof.CHash)
		if err != nil {
			return false, err
		}
		tauList = append(tauList, tPrime)

		if len(sp.Inequalities) != len(in.Request.Predicates) {
			return false, structErr(op, "predicate count mismatch")
		}
		for j, ip := range sp.Inequalities {
			if ip.Predicate != in.Request.Predicates[j] {
				return false, structErr(op, "predicate mismatch between proof and request")
			}
			taus, err := reconstructInequalityTaus(ip, in.PK, proof.CHash)
			if err != nil {
				return false, err
			}
			tauList = append(tauList, taus[:]...)
		}
	}

	cList := collectCList(proof.SubProofs)
	elems := append(append([]*big.Int{}, tauList...), cList...)
	elems = append(elems, nonce)
	cPrime := fiatShamirHash(elems...)

	if cPrime.Cmp(proof.CHash) != 0 {
		return false, nil
	}
	return true, nil
}

func revealedSetMatches(got map[string]*big.Int, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for _, a := range want {
		if _, ok := got[a]; !ok {
			return false
		}
	}
	return true
}
