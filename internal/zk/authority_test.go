package zk

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Key generation over 1024-bit safe primes is the expensive part of this
// package; every test that needs a live issuer shares one built once.
var (
	testIssuer     *CredentialIssuer
	testIssuerOnce sync.Once
)

func sharedTestIssuer(t *testing.T) *CredentialIssuer {
	t.Helper()
	testIssuerOnce.Do(func() {
		issuer, err := NewCredentialIssuer()
		require.NoError(t, err)
		testIssuer = issuer
	})
	return testIssuer
}

func TestIssueCredentialAndProveDisclosure(t *testing.T) {
	issuer := sharedTestIssuer(t)

	cred, err := issuer.IssueCredential("user-42", "operator", "payments", "enabled")
	require.NoError(t, err)

	pk := issuer.PublicKey()
	nonce, err := NewNonce()
	require.NoError(t, err)

	proof, err := ProveDisclosure(cred, &pk, []string{"role", "team"}, nil, nonce)
	require.NoError(t, err)

	valid, disclosed, err := VerifyDisclosure(proof, &pk, []string{"role", "team"}, nil, nonce)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Contains(t, disclosed, "role")
	assert.Contains(t, disclosed, "team")

	wantRole := stringAttr("operator")
	gotRole, ok := new(big.Int).SetString(disclosed["role"], 10)
	require.True(t, ok)
	assert.Equal(t, wantRole, gotRole)
}

func TestVerifyDisclosure_WrongNonceFails(t *testing.T) {
	issuer := sharedTestIssuer(t)

	cred, err := issuer.IssueCredential("user-7", "viewer", "default", "disabled")
	require.NoError(t, err)
	pk := issuer.PublicKey()

	proveNonce, err := NewNonce()
	require.NoError(t, err)
	verifyNonce, err := NewNonce()
	require.NoError(t, err)

	proof, err := ProveDisclosure(cred, &pk, []string{"role"}, nil, proveNonce)
	require.NoError(t, err)

	valid, _, err := VerifyDisclosure(proof, &pk, []string{"role"}, nil, verifyNonce)
	require.NoError(t, err)
	assert.False(t, valid, "a proof bound to one nonce must not verify against another")
}

func TestVerifyDisclosure_DifferentRevealSetRejected(t *testing.T) {
	issuer := sharedTestIssuer(t)

	cred, err := issuer.IssueCredential("user-9", "admin", "core", "enabled")
	require.NoError(t, err)
	pk := issuer.PublicKey()
	nonce, err := NewNonce()
	require.NoError(t, err)

	proof, err := ProveDisclosure(cred, &pk, []string{"role"}, nil, nonce)
	require.NoError(t, err)

	// Demanding a larger reveal set than the proof actually discloses must
	// be rejected rather than silently accepted.
	_, _, err = VerifyDisclosure(proof, &pk, []string{"role", "team"}, nil, nonce)
	require.Error(t, err)
}

func TestProveDisclosure_GEPredicate(t *testing.T) {
	cs, err := NewCredentialSchema("mfa_level")
	require.NoError(t, err)
	ncs := NewNonCredentialSchema("master_secret")
	pk, sk, kcp, err := NewCredentialDef(cs, ncs)
	require.NoError(t, err)

	issue := func(level int64) (*Credential, *PublicKey) {
		ms, err := NewMasterSecret()
		require.NoError(t, err)
		values := NewCredentialValuesBuilder().
			AddHidden("master_secret", ms.Value).
			AddKnown("mfa_level", big.NewInt(level)).
			Build()
		n0, err := NewNonce()
		require.NoError(t, err)
		n1, err := NewNonce()
		require.NoError(t, err)
		blinded, factors, bcp, err := BlindCredentialSecrets(pk, kcp, values, n0)
		require.NoError(t, err)
		sig, scp, err := SignCredential("prover", blinded, bcp, n0, n1, values, pk, sk)
		require.NoError(t, err)
		require.NoError(t, ProcessCredentialSignature(sig, values, scp, factors, pk, n1))
		return &Credential{Schema: cs, NonSchema: ncs, Signature: sig, Values: values}, pk
	}

	nonce, err := NewNonce()
	require.NoError(t, err)
	pred := Predicate{Attr: "mfa_level", PType: GE, Value: 3}

	t.Run("meets threshold", func(t *testing.T) {
		cred, pk := issue(5)
		proof, err := ProveDisclosure(cred, pk, nil, []Predicate{pred}, nonce)
		require.NoError(t, err)
		valid, _, err := VerifyDisclosure(proof, pk, nil, []Predicate{pred}, nonce)
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("below threshold cannot even build a proof", func(t *testing.T) {
		cred, pk := issue(1)
		_, err := ProveDisclosure(cred, pk, nil, []Predicate{pred}, nonce)
		assert.Error(t, err, "delta = m - value must be a sum of four squares only when the predicate holds")
	})
}

func TestProveDisclosure_MultiplePredicates(t *testing.T) {
	cs, err := NewCredentialSchema("age", "clearance")
	require.NoError(t, err)
	ncs := NewNonCredentialSchema("master_secret")
	pk, sk, kcp, err := NewCredentialDef(cs, ncs)
	require.NoError(t, err)

	ms, err := NewMasterSecret()
	require.NoError(t, err)
	values := NewCredentialValuesBuilder().
		AddHidden("master_secret", ms.Value).
		AddKnown("age", big.NewInt(34)).
		AddKnown("clearance", big.NewInt(2)).
		Build()
	n0, err := NewNonce()
	require.NoError(t, err)
	n1, err := NewNonce()
	require.NoError(t, err)
	blinded, factors, bcp, err := BlindCredentialSecrets(pk, kcp, values, n0)
	require.NoError(t, err)
	sig, scp, err := SignCredential("prover", blinded, bcp, n0, n1, values, pk, sk)
	require.NoError(t, err)
	require.NoError(t, ProcessCredentialSignature(sig, values, scp, factors, pk, n1))
	cred := &Credential{Schema: cs, NonSchema: ncs, Signature: sig, Values: values}

	nonce, err := NewNonce()
	require.NoError(t, err)
	predicates := []Predicate{
		{Attr: "age", PType: GE, Value: 18},
		{Attr: "clearance", PType: LT, Value: 5},
	}

	proof, err := ProveDisclosure(cred, pk, nil, predicates, nonce)
	require.NoError(t, err)
	require.Len(t, proof.SubProofs, 1)
	require.Len(t, proof.SubProofs[0].Inequalities, 2)

	valid, _, err := VerifyDisclosure(proof, pk, nil, predicates, nonce)
	require.NoError(t, err)
	assert.True(t, valid)
}
