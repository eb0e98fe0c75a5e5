package zk

import (
	"fmt"
	"math/big"
	"sync"
)

// credentialAttrNames is the fixed schema this authority issues credentials
// over: an identity credential naming the holder's role, team, and MFA
// enrollment, with a Prover-held master secret binding every credential
// issued to the same holder.
var credentialAttrNames = []string{"user_id", "role", "team", "mfa"}

// Credential is a fully-issued, self-contained credential: a signature
// over the effective attribute set plus the values themselves. The holder
// uses it to build selective-disclosure proofs via CreateProof; nothing
// about its internal fields needs to cross a wire transport unmodified,
// since a proof — not the credential — is what is ultimately shared with a
// Verifier.
type Credential struct {
	Schema    *CredentialSchema
	NonSchema *NonCredentialSchema
	Signature *PrimaryCredentialSignature
	Values    *CredentialValues
}

// CredentialIssuer is a stateful wrapper around one CL key pair: it holds
// the Issuer's public key, private key, and key-correctness proof, and
// exposes the issue/verify operations the host API needs. A single
// CredentialIssuer may be shared across goroutines; NewCredentialDef is
// run once at construction and the key material is read-only afterward —
// only the private key ever needs protecting, and it never leaves this
// type.
type CredentialIssuer struct {
	mu  sync.RWMutex
	pk  *PublicKey
	sk  *PrivateKey
	kcp *KeyCorrectnessProof
}

// NewCredentialIssuer generates a fresh key pair for the fixed identity
// credential schema used by the host application.
func NewCredentialIssuer() (*CredentialIssuer, error) {
	cs, err := NewCredentialSchema(credentialAttrNames...)
	if err != nil {
		return nil, err
	}
	ncs := NewNonCredentialSchema("master_secret")
	pk, sk, kcp, err := NewCredentialDef(cs, ncs)
	if err != nil {
		return nil, err
	}
	return &CredentialIssuer{pk: pk, sk: sk, kcp: kcp}, nil
}

// NewCredentialIssuerWithKeys builds an authority around an already
// generated key pair, for tests and for restoring a previously persisted
// issuer.
func NewCredentialIssuerWithKeys(pk *PublicKey, sk *PrivateKey, kcp *KeyCorrectnessProof) *CredentialIssuer {
	return &CredentialIssuer{pk: pk, sk: sk, kcp: kcp}
}

// PublicKey returns the Issuer's published key.
func (ci *CredentialIssuer) PublicKey() PublicKey {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return *ci.pk
}

// KeyCorrectnessProof returns the Issuer's published KCP.
func (ci *CredentialIssuer) KeyCorrectnessProof() KeyCorrectnessProof {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return *ci.kcp
}

// IssueCredential runs the full blind -> sign -> process pipeline for one
// holder and returns the resulting Credential. The authority plays both
// Issuer and (on the holder's behalf) Prover for this single issuance,
// which is appropriate for a same-process issuance endpoint; a holder
// running its own Prover would instead call BlindCredentialSecrets,
// ship the blinded secrets to this authority's SignCredential, and finish
// with ProcessCredentialSignature itself.
func (ci *CredentialIssuer) IssueCredential(userID, role, team, mfa string) (*Credential, error) {
	const op = "issue_credential"
	ci.mu.RLock()
	pk, sk, kcp := ci.pk, ci.sk, ci.kcp
	ci.mu.RUnlock()

	ms, err := NewMasterSecret()
	if err != nil {
		return nil, err
	}

	values := NewCredentialValuesBuilder().
		AddHidden("master_secret", ms.Value).
		AddKnown("user_id", stringAttr(userID)).
		AddKnown("role", stringAttr(role)).
		AddKnown("team", stringAttr(team)).
		AddKnown("mfa", stringAttr(mfa)).
		Build()

	n0, err := NewNonce()
	if err != nil {
		return nil, err
	}
	n1, err := NewNonce()
	if err != nil {
		return nil, err
	}

	blinded, factors, bcp, err := BlindCredentialSecrets(pk, kcp, values, n0)
	if err != nil {
		return nil, err
	}

	sig, scp, err := SignCredential(userID, blinded, bcp, n0, n1, values, pk, sk)
	if err != nil {
		return nil, err
	}

	if err := ProcessCredentialSignature(sig, values, scp, factors, pk, n1); err != nil {
		return nil, newErr(sigErrKind(err), op, err)
	}

	cs, err := NewCredentialSchema(credentialAttrNames...)
	if err != nil {
		return nil, err
	}
	ncs := NewNonCredentialSchema("master_secret")

	return &Credential{Schema: cs, NonSchema: ncs, Signature: sig, Values: values}, nil
}

func sigErrKind(err error) ErrorKind {
	if zerr, ok := err.(*Error); ok {
		return zerr.Kind
	}
	return CryptoError
}

// stringAttr deterministically maps an arbitrary string claim value into
// the integer domain the signature scheme operates over, by hashing it.
// This lets the host application keep issuing human-readable role/team
// names while the underlying credential only ever signs integers.
func stringAttr(s string) *big.Int {
	return fiatShamirHash(big.NewInt(0).SetBytes([]byte(s)))
}

// ProveDisclosure builds an AggregatedProof over one credential, revealing
// exactly the named attributes and proving the given range predicates.
// Proofs spanning more than one credential go through CreateProof directly.
func ProveDisclosure(cred *Credential, pk *PublicKey, reveal []string, predicates []Predicate, nonce *big.Int) (*AggregatedProof, error) {
	req := &SubProofRequest{RevealedAttrs: reveal, Predicates: predicates}
	input := CredentialProofInput{Request: req, Signature: cred.Signature, Values: cred.Values, PK: pk}
	return CreateProof([]CredentialProofInput{input}, nonce)
}

// VerifyDisclosure verifies a single-credential AggregatedProof whose
// disclosed attribute set must be exactly requiredRevealed (any other set is
// an InvalidStructure error), returning the disclosed values by name on
// success.
func VerifyDisclosure(proof *AggregatedProof, pk *PublicKey, requiredRevealed []string, predicates []Predicate, nonce *big.Int) (bool, map[string]string, error) {
	if len(proof.SubProofs) != 1 {
		return false, nil, structErr("verify_disclosure", "expected exactly one sub-proof")
	}
	req := &SubProofRequest{RevealedAttrs: requiredRevealed, Predicates: predicates}
	ok, err := VerifyProof(proof, []CredentialVerifyInput{{Request: req, PK: pk}}, nonce)
	if err != nil || !ok {
		return false, nil, err
	}
	disclosed := make(map[string]string, len(proof.SubProofs[0].Equality.RevealedAttrs))
	for name, val := range proof.SubProofs[0].Equality.RevealedAttrs {
		disclosed[name] = fmt.Sprintf("%d", val)
	}
	return true, disclosed, nil
}
