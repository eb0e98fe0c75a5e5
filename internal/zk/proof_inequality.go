package zk

import "math/big"

// PredicateType is one of the four supported comparison operators.
type PredicateType string

const (
	GE PredicateType = "GE"
	GT PredicateType = "GT"
	LE PredicateType = "LE"
	LT PredicateType = "LT"
)

// Predicate states that a signed attribute must satisfy attr OP value.
type Predicate struct {
	Attr  string        `json:"attr"`
	PType PredicateType `json:"p_type"`
	Value int32         `json:"value"`
}

func (p Predicate) validate() error {
	switch p.PType {
	case GE, GT, LE, LT:
		return nil
	default:
		return structErr("predicate", "unknown predicate type")
	}
}

// isLess reports whether the predicate is one of the "less than or equal /
// strictly less than" family, which flips the sign used throughout the
// range sub-proof.
func (p Predicate) isLess() bool {
	return p.PType == LE || p.PType == LT
}

// sign returns +1 for GE/GT, -1 for LE/LT.
func (p Predicate) sign() int64 {
	if p.isLess() {
		return -1
	}
	return 1
}

// deltaPrime returns the verifier-visible constant k' per the predicate
// table (§4.8): GE -> k, GT -> k+1, LE -> k, LT -> k-1.
func (p Predicate) deltaPrime() *big.Int {
	k := big.NewInt(int64(p.Value))
	switch p.PType {
	case GE, LE:
		return k
	case GT:
		return new(big.Int).Add(k, big1)
	case LT:
		return new(big.Int).Sub(k, big1)
	}
	return k
}

// delta computes the prover's non-negative quantity sign*(m - deltaPrime).
func (p Predicate) delta(m *big.Int) *big.Int {
	diff := new(big.Int).Sub(m, p.deltaPrime())
	if p.sign() < 0 {
		diff.Neg(diff)
	}
	return diff
}

// inequality-proof-only bit widths, quoted from §4.8.
const (
	ineqRBits      = largeVPrime // 2724 bits, randomness behind each T_i
	ineqUTildeBits = largeMTilde // 593 bits
	ineqRTildeBits = 672
	ineqAlphaTildeBits = 2787
)

// InequalityProof is the range sub-proof for one predicate, tying a hidden
// attribute's value to a public constant without revealing the value.
type InequalityProof struct {
	UHat      [4]*big.Int
	RHat      [5]*big.Int
	MJ        *big.Int // equal to the equality proof's m_hat for Predicate.Attr
	Alpha     *big.Int
	T         [5]*big.Int
	Predicate Predicate
}

type ineqCommitState struct {
	pred      Predicate
	u         [4]*big.Int
	r         [5]*big.Int
	t         [5]*big.Int
	uTilde    [4]*big.Int
	rTilde    [5]*big.Int
	alphaTilde *big.Int
	tauI      [4]*big.Int
	tauDelta  *big.Int
	q         *big.Int
}

// fourSquareAttempts bounds the random search in fourSquares/threeSquares.
// Each attempt succeeds with probability roughly 1/ln(delta) (the density of
// primes near delta's size), so for a 256-bit delta the expected number of
// attempts is in the low hundreds; this bound fails with negligible
// probability (comparable to a Miller-Rabin false positive).
const fourSquareAttempts = 4096

// fourSquares decomposes a non-negative delta into four squares using the
// Rabin-Shallit randomized method: peel off one random square, then express
// the remainder as a sum of three squares by a second random square plus a
// prime congruent to 1 mod 4 (or 2), whose own two-square decomposition comes
// from Cornacchia's algorithm. This replaces brute-force search over the
// full magnitude of delta — the latter is fine for the small deltas in a toy
// age predicate but does not terminate in practice once delta is a 256-bit
// attribute value compared against a small threshold.
func fourSquares(delta *big.Int) ([4]*big.Int, bool) {
	var out [4]*big.Int
	if delta.Sign() == 0 {
		return [4]*big.Int{big0, big0, big0, big0}, true
	}
	maxY := new(big.Int).Sqrt(delta)
	upper := new(big.Int).Add(maxY, big1)
	for attempt := 0; attempt < fourSquareAttempts; attempt++ {
		y, err := randomInRange(big0, upper)
		if err != nil {
			return out, false
		}
		rem := new(big.Int).Sub(delta, new(big.Int).Mul(y, y))
		abc, ok := threeSquares(rem)
		if !ok {
			continue
		}
		return [4]*big.Int{y, abc[0], abc[1], abc[2]}, true
	}
	return out, false
}

// threeSquares decomposes a non-negative n into three squares, or reports
// false if n is of the Legendre-excluded form 4^a(8b+7) (no such
// decomposition exists) or the random search was unlucky fourSquareAttempts
// times in a row.
func threeSquares(n *big.Int) ([3]*big.Int, bool) {
	var out [3]*big.Int
	if n.Sign() < 0 {
		return out, false
	}
	if n.Sign() == 0 {
		return [3]*big.Int{big0, big0, big0}, true
	}

	m := new(big.Int).Set(n)
	scale := big.NewInt(1)
	for new(big.Int).Mod(m, big4).Sign() == 0 {
		m.Div(m, big4)
		scale.Mul(scale, big2)
	}
	if new(big.Int).Mod(m, big8).Cmp(big.NewInt(7)) == 0 {
		return out, false
	}

	maxX := new(big.Int).Sqrt(m)
	upper := new(big.Int).Add(maxX, big1)
	for attempt := 0; attempt < fourSquareAttempts; attempt++ {
		x, err := randomInRange(big0, upper)
		if err != nil {
			return out, false
		}
		rem := new(big.Int).Sub(m, new(big.Int).Mul(x, x))
		switch {
		case rem.Sign() == 0:
			return scaleTriple([3]*big.Int{x, big0, big0}, scale), true
		case rem.Cmp(big2) == 0:
			return scaleTriple([3]*big.Int{x, big1, big1}, scale), true
		case !isPrime(rem):
			continue
		case new(big.Int).Mod(rem, big4).Cmp(big1) != 0:
			continue
		default:
			a, b, ok := cornacchia(rem)
			if !ok {
				continue
			}
			return scaleTriple([3]*big.Int{x, a, b}, scale), true
		}
	}
	return out, false
}

// scaleTriple multiplies every component by scale, undoing the factor-of-4
// stripping threeSquares performs before searching.
func scaleTriple(t [3]*big.Int, scale *big.Int) [3]*big.Int {
	var out [3]*big.Int
	for i, v := range t {
		out[i] = new(big.Int).Mul(v, scale)
	}
	return out
}

// cornacchia finds a, b such that a^2+b^2 = p for a prime p with p == 2 or
// p == 1 (mod 4) (both are guaranteed by Fermat's two-square theorem to have
// such a representation).
func cornacchia(p *big.Int) (*big.Int, *big.Int, bool) {
	if p.Cmp(big2) == 0 {
		return big1, big1, true
	}
	r, ok := sqrtNegOneModPrime(p)
	if !ok {
		return nil, nil, false
	}
	a, b := new(big.Int).Set(p), r
	bound := new(big.Int).Sqrt(p)
	for b.Cmp(bound) > 0 {
		a, b = b, new(big.Int).Mod(a, b)
	}
	c2 := new(big.Int).Sub(p, new(big.Int).Mul(b, b))
	if c2.Sign() < 0 {
		return nil, nil, false
	}
	c := new(big.Int).Sqrt(c2)
	if new(big.Int).Mul(c, c).Cmp(c2) != 0 {
		return nil, nil, false
	}
	return new(big.Int).Set(b), c, true
}

// sqrtNegOneModPrime finds x with x^2 == -1 (mod p) for a prime p == 1 (mod
// 4), by raising a random quadratic non-residue to the (p-1)/4 power.
func sqrtNegOneModPrime(p *big.Int) (*big.Int, bool) {
	exp := new(big.Int).Rsh(new(big.Int).Sub(p, big1), 2)
	negOne := new(big.Int).Sub(p, big1)
	for attempt := 0; attempt < 256; attempt++ {
		g, err := randomInRange(big2, p)
		if err != nil {
			return nil, false
		}
		if big.Jacobi(g, p) != -1 {
			continue
		}
		x := new(big.Int).Exp(g, exp, p)
		if new(big.Int).Mod(new(big.Int).Mul(x, x), p).Cmp(negOne) == 0 {
			return x, true
		}
	}
	return nil, false
}

// decomposeFourSquares handles the special cases for delta in {0,1,2,3}
// directly and otherwise falls back to the randomized search.
func decomposeFourSquares(delta *big.Int) ([4]*big.Int, error) {
	var out [4]*big.Int
	switch {
	case delta.Sign() < 0:
		return out, structErr("four_square_decomposition", "predicate does not hold: delta is negative")
	case delta.Sign() == 0:
		return [4]*big.Int{big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0)}, nil
	case delta.Cmp(big1) == 0:
		return [4]*big.Int{big.NewInt(1), big.NewInt(0), big.NewInt(0), big.NewInt(0)}, nil
	case delta.Cmp(big.NewInt(2)) == 0:
		return [4]*big.Int{big.NewInt(1), big.NewInt(1), big.NewInt(0), big.NewInt(0)}, nil
	case delta.Cmp(big.NewInt(3)) == 0:
		return [4]*big.Int{big.NewInt(1), big.NewInt(1), big.NewInt(1), big.NewInt(0)}, nil
	}
	squares, ok := fourSquares(delta)
	if !ok {
		return out, cryptoErr("four_square_decomposition", errNoDecomposition)
	}
	return squares, nil
}

var errNoDecomposition = &noDecompositionError{}

type noDecompositionError struct{}

func (*noDecompositionError) Error() string { return "no four-square decomposition found" }

// commitInequality runs the Prover's commit phase for one range predicate.
// eq is the equality sub-proof's commit state for the same credential; the
// predicate's attribute must be undisclosed there, since its m_tilde is
// reused here to tie the two sub-proofs together.
func commitInequality(pk *PublicKey, eq *eqCommitState, m *big.Int, pred Predicate) (*ineqCommitState, error) {
	const op = "inequality_proof_commit"
	if err := pred.validate(); err != nil {
		return nil, err
	}
	mTilde, ok := eq.mTilde[pred.Attr]
	if !ok {
		return nil, structErr(op, "predicate attribute must be undisclosed in the equality sub-proof")
	}

	delta := pred.delta(m)
	u4, err := decomposeFourSquares(delta)
	if err != nil {
		return nil, err
	}

	state := &ineqCommitState{pred: pred}
	// u[0..3] are the decomposition; r[0..4] randomize T_0..T_4, where
	// T_4 commits to delta itself (u[3]-slot analog but a fifth term).
	copy(state.u[:], u4[:])

	var uFull [5]*big.Int
	copy(uFull[:4], state.u[:])
	uFull[4] = delta

	for i := 0; i < 5; i++ {
		ri, err := randomBits(ineqRBits)
		if err != nil {
			return nil, err
		}
		state.r[i] = ri
		zu, err := modExp(pk.Z, uFull[i], pk.N)
		if err != nil {
			return nil, err
		}
		sr, err := modExp(pk.S, ri, pk.N)
		if err != nil {
			return nil, err
		}
		state.t[i] = new(big.Int).Mod(new(big.Int).Mul(zu, sr), pk.N)
	}

	for i := 0; i < 4; i++ {
		ut, err := randomBits(ineqUTildeBits)
		if err != nil {
			return nil, err
		}
		rt, err := randomBits(ineqRTildeBits)
		if err != nil {
			return nil, err
		}
		state.uTilde[i] = ut
		state.rTilde[i] = rt
		zu, err := modExp(pk.Z, ut, pk.N)
		if err != nil {
			return nil, err
		}
		sr, err := modExp(pk.S, rt, pk.N)
		if err != nil {
			return nil, err
		}
		state.tauI[i] = new(big.Int).Mod(new(big.Int).Mul(zu, sr), pk.N)
	}
	rTilde4, err := randomBits(ineqRTildeBits)
	if err != nil {
		return nil, err
	}
	state.rTilde[4] = rTilde4

	alphaTilde, err := randomBits(ineqAlphaTildeBits)
	if err != nil {
		return nil, err
	}
	state.alphaTilde = alphaTilde

	signedMTilde := new(big.Int).Mul(mTilde, big.NewInt(pred.sign()))
	zSignedM, err := modExp(pk.Z, signedMTilde, pk.N)
	if err != nil {
		return nil, err
	}
	sRTilde4, err := modExp(pk.S, rTilde4, pk.N)
	if err != nil {
		return nil, err
	}
	state.tauDelta = new(big.Int).Mod(new(big.Int).Mul(zSignedM, sRTilde4), pk.N)
	sAlpha, err := modExp(pk.S, alphaTilde, pk.N)
	if err != nil {
		return nil, err
	}

	q := new(big.Int).Set(sAlpha)
	for i := 0; i < 4; i++ {
		ti, err := modExp(state.t[i], state.uTilde[i], pk.N)
		if err != nil {
			return nil, err
		}
		q = new(big.Int).Mod(new(big.Int).Mul(q, ti), pk.N)
	}
	state.q = q

	return state, nil
}

// respondInequality produces the response scalars given the global
// challenge. mHat is the equality sub-proof's response for the same
// attribute, shared rather than recomputed.
func respondInequality(state *ineqCommitState, cH *big.Int, mHat *big.Int) *InequalityProof {
	var uHat [4]*big.Int
	var rHat [5]*big.Int
	for i := 0; i < 4; i++ {
		uHat[i] = new(big.Int).Add(state.uTilde[i], new(big.Int).Mul(cH, state.u[i]))
		rHat[i] = new(big.Int).Add(state.rTilde[i], new(big.Int).Mul(cH, state.r[i]))
	}
	// sum_{i=0..3} u_i * r_i
	sum := new(big.Int)
	for i := 0; i < 4; i++ {
		sum.Add(sum, new(big.Int).Mul(state.u[i], state.r[i]))
	}
	inner := new(big.Int).Sub(state.r[4], sum)
	rHat[4] = new(big.Int).Add(state.rTilde[4], new(big.Int).Mul(cH, state.r[4]))
	alphaHat := new(big.Int).Add(state.alphaTilde, new(big.Int).Mul(cH, inner))

	var t [5]*big.Int
	copy(t[:], state.t[:])

	return &InequalityProof{
		UHat: uHat, RHat: rHat, MJ: new(big.Int).Set(mHat),
		Alpha: alphaHat, T: t, Predicate: state.pred,
	}
}

// reconstructInequalityTaus recomputes {TAU_0..3, TAU_delta, Q} on the
// Verifier side from the transmitted T_i and the response scalars.
func reconstructInequalityTaus(proof *InequalityProof, pk *PublicKey, cH *big.Int) ([6]*big.Int, error) {
	var out [6]*big.Int

	negC := new(big.Int).Neg(cH)
	for i := 0; i < 4; i++ {
		tiNegC, err := modExp(proof.T[i], negC, pk.N)
		if err != nil {
			return out, err
		}
		zu, err := modExp(pk.Z, proof.UHat[i], pk.N)
		if err != nil {
			return out, err
		}
		sr, err := modExp(pk.S, proof.RHat[i], pk.N)
		if err != nil {
			return out, err
		}
		out[i] = new(big.Int).Mod(new(big.Int).Mul(new(big.Int).Mul(tiNegC, zu), sr), pk.N)
	}

	sign := proof.Predicate.sign()
	offset := new(big.Int).Mul(proof.Predicate.deltaPrime(), big.NewInt(sign))
	zOffset, err := modExp(pk.Z, offset, pk.N)
	if err != nil {
		return out, err
	}
	t4Adj := new(big.Int).Mod(new(big.Int).Mul(proof.T[4], zOffset), pk.N)
	t4AdjNegC, err := modExp(t4Adj, negC, pk.N)
	if err != nil {
		return out, err
	}
	signedMHat := new(big.Int).Mul(proof.MJ, big.NewInt(sign))
	zSignedM, err := modExp(pk.Z, signedMHat, pk.N)
	if err != nil {
		return out, err
	}
	sRHat4, err := modExp(pk.S, proof.RHat[4], pk.N)
	if err != nil {
		return out, err
	}
	out[4] = new(big.Int).Mod(new(big.Int).Mul(new(big.Int).Mul(t4AdjNegC, zSignedM), sRHat4), pk.N)

	t4NegC, err := modExp(proof.T[4], negC, pk.N)
	if err != nil {
		return out, err
	}
	qPrime := new(big.Int).Set(t4NegC)
	for i := 0; i < 4; i++ {
		ti, err := modExp(proof.T[i], proof.UHat[i], pk.N)
		if err != nil {
			return out, err
		}
		qPrime = new(big.Int).Mod(new(big.Int).Mul(qPrime, ti), pk.N)
	}
	sAlpha, err := modExp(pk.S, proof.Alpha, pk.N)
	if err != nil {
		return out, err
	}
	qPrime = new(big.Int).Mod(new(big.Int).Mul(qPrime, sAlpha), pk.N)
	out[5] = qPrime

	return out, nil
}
