package zk

import "math/big"

// PrimaryCredentialSignature is the Issuer's signature over a credential's
// attribute values: A^e * prod_a r_a^m_a * s^v == z (mod n).
type PrimaryCredentialSignature struct {
	A *big.Int
	E *big.Int
	V *big.Int
}

// SignatureCorrectnessProof proves the Issuer computed A correctly without
// revealing d = e^-1 mod p'q'.
type SignatureCorrectnessProof struct {
	Se *big.Int
	C  *big.Int
}

// SignCredential runs the Issuer side of blinded issuance: it verifies the
// Prover's BCP, folds in the known attribute values, and produces a
// signature plus its correctness proof. proverID is carried through for
// audit/context purposes only; it does not enter the signing arithmetic in
// this primary-only scheme.
func SignCredential(proverID string, blinded *BlindedCredentialSecrets, bcp *BlindedSecretsCorrectnessProof, n0, n1 *big.Int, knownValues *CredentialValues, pk *PublicKey, sk *PrivateKey) (*PrimaryCredentialSignature, *SignatureCorrectnessProof, error) {
	const op = "sign_credential"

	ok, err := verifyBCP(pk, blinded, bcp, n0)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, proofErr(op, "blinded secrets correctness proof does not verify")
	}

	order := sk.order()

	known := namesOfKind(knownValues, pk.Attrs, Known)

	vPrimePrime, err := randomVPrimePrime()
	if err != nil {
		return nil, nil, err
	}

	// denom = u * prod_{a in known} r_a^{m_a} * s^{v''} mod n
	denom := new(big.Int).Set(blinded.U)
	for _, a := range known {
		ram, err := modExp(pk.R[a], knownValues.Value[a], pk.N)
		if err != nil {
			return nil, nil, err
		}
		denom = new(big.Int).Mod(new(big.Int).Mul(denom, ram), pk.N)
	}
	sv, err := modExp(pk.S, vPrimePrime, pk.N)
	if err != nil {
		return nil, nil, err
	}
	denom = new(big.Int).Mod(new(big.Int).Mul(denom, sv), pk.N)

	denomInv, err := modInverse(denom, pk.N)
	if err != nil {
		return nil, nil, err
	}
	q := new(big.Int).Mod(new(big.Int).Mul(pk.Z, denomInv), pk.N)

	e, err := randomPrimeE()
	if err != nil {
		return nil, nil, err
	}

	d, err := modInverse(e, order)
	if err != nil {
		return nil, nil, err
	}
	a, err := modExp(q, d, pk.N)
	if err != nil {
		return nil, nil, err
	}

	sig := &PrimaryCredentialSignature{A: a, E: e, V: vPrimePrime}

	scp, err := buildSCP(q, a, d, order, pk.N, n1)
	if err != nil {
		return nil, nil, err
	}
	return sig, scp, nil
}

func buildSCP(q, a, d, order, n, n1 *big.Int) (*SignatureCorrectnessProof, error) {
	r, err := randomInRange(big0, order)
	if err != nil {
		return nil, err
	}
	aTilde, err := modExp(q, r, n)
	if err != nil {
		return nil, err
	}
	c := scpChallenge(q, a, aTilde, n1)
	se := new(big.Int).Sub(r, new(big.Int).Mul(c, d))
	se.Mod(se, order)
	return &SignatureCorrectnessProof{Se: se, C: c}, nil
}

func scpChallenge(q, a, aTilde, n1 *big.Int) *big.Int {
	return fiatShamirHash(q, a, aTilde, n1)
}

// randomVPrimePrime draws v'' in [2^(largeVPrime-1), 2^(largeVPrime-1)+2^largeVPrimePrimeRange).
func randomVPrimePrime() (*big.Int, error) {
	lo := new(big.Int).Lsh(big1, uint(largeVPrime-1))
	span := new(big.Int).Lsh(big1, uint(largeVPrimePrimeRange))
	hi := new(big.Int).Add(lo, span)
	return randomInRange(lo, hi)
}

// randomPrimeE draws a prime e in [2^largeEStart, 2^largeEStart + 2^largeEEndRange).
func randomPrimeE() (*big.Int, error) {
	lo := new(big.Int).Lsh(big1, uint(largeEStart))
	span := new(big.Int).Lsh(big1, uint(largeEEndRange))
	hi := new(big.Int).Add(lo, span)
	for {
		cand, err := randomInRange(lo, hi)
		if err != nil {
			return nil, err
		}
		cand.SetBit(cand, 0, 1) // force odd
		if isPrime(cand) {
			return cand, nil
		}
	}
}

// ProcessCredentialSignature runs the Prover side of post-processing: it
// folds in the Issuer's v'' to recover the full v, verifies the signature
// equation, and verifies the signature correctness proof. sig is mutated
// in place to carry the final V.
func ProcessCredentialSignature(sig *PrimaryCredentialSignature, values *CredentialValues, scp *SignatureCorrectnessProof, factors *BlindingFactors, pk *PublicKey, n1 *big.Int) error {
	const op = "process_credential_signature"

	v := new(big.Int).Add(factors.VPrime, sig.V)
	sig.V = v

	denom := new(big.Int).Set(big1)
	for _, a := range pk.Attrs {
		val, ok := values.Value[a]
		if !ok {
			return structErr(op, "missing value for effective attribute")
		}
		ram, err := modExp(pk.R[a], val, pk.N)
		if err != nil {
			return err
		}
		denom = new(big.Int).Mod(new(big.Int).Mul(denom, ram), pk.N)
	}
	sv, err := modExp(pk.S, v, pk.N)
	if err != nil {
		return err
	}
	denom = new(big.Int).Mod(new(big.Int).Mul(denom, sv), pk.N)
	denomInv, err := modInverse(denom, pk.N)
	if err != nil {
		return err
	}
	qPrime := new(big.Int).Mod(new(big.Int).Mul(pk.Z, denomInv), pk.N)

	ae, err := modExp(sig.A, sig.E, pk.N)
	if err != nil {
		return err
	}
	if ae.Cmp(qPrime) != 0 {
		return structErr(op, "signature does not satisfy A^e == Q'")
	}

	// A_tilde' = A^c * Q'^se mod n (Fermat re-expression: Q^r = Q^(se+cd) = Q^se * A^c).
	ac, err := modExp(sig.A, scp.C, pk.N)
	if err != nil {
		return err
	}
	qse, err := modExp(qPrime, scp.Se, pk.N)
	if err != nil {
		return err
	}
	aTildePrime := new(big.Int).Mod(new(big.Int).Mul(ac, qse), pk.N)

	cPrime := scpChallenge(qPrime, sig.A, aTildePrime, n1)
	if cPrime.Cmp(scp.C) != 0 {
		return structErr(op, "signature correctness proof does not verify")
	}
	return nil
}
