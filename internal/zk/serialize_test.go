package zk

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicKeyRoundTrip(t *testing.T) {
	pk := &PublicKey{
		N:     big.NewInt(91),
		S:     big.NewInt(5),
		Z:     big.NewInt(7),
		R:     map[string]*big.Int{"role": big.NewInt(3), "team": big.NewInt(11)},
		Attrs: []string{"role", "team"},
	}
	b, err := json.Marshal(pk)
	require.NoError(t, err)

	var got PublicKey
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, pk.N, got.N)
	assert.Equal(t, pk.S, got.S)
	assert.Equal(t, pk.Z, got.Z)
	assert.Equal(t, pk.R, got.R)
	assert.Equal(t, pk.Attrs, got.Attrs)
}

func TestPublicKeyLegacyRMSFold(t *testing.T) {
	raw := []byte(`{"n":"91","s":"5","z":"7","r":{"role":"3"},"rms":"13"}`)
	var pk PublicKey
	require.NoError(t, json.Unmarshal(raw, &pk))
	assert.Equal(t, big.NewInt(13), pk.R["master_secret"])
	assert.ElementsMatch(t, []string{"role", "master_secret"}, pk.Attrs)
}

func TestPublicKeyLegacyRMSDoesNotOverwriteExisting(t *testing.T) {
	raw := []byte(`{"n":"91","s":"5","z":"7","r":{"master_secret":"99"},"rms":"13"}`)
	var pk PublicKey
	require.NoError(t, json.Unmarshal(raw, &pk))
	assert.Equal(t, big.NewInt(99), pk.R["master_secret"])
}

func TestEqualityProofLegacyM1Fold(t *testing.T) {
	raw := []byte(`{"revealed_attrs":{"role":"4"},"a_prime":"1","e_hat":"2","v_hat":"3","m_hat_a":{},"m1":"77"}`)
	var p EqualityProof
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Equal(t, big.NewInt(77), p.MHatA["master_secret"])
	assert.Equal(t, big.NewInt(4), p.RevealedAttrs["role"])
}

func TestCredentialRoundTrip(t *testing.T) {
	issuer := sharedTestIssuer(t)
	cred, err := issuer.IssueCredential("user-1", "admin", "core", "enabled")
	require.NoError(t, err)

	b, err := json.Marshal(cred)
	require.NoError(t, err)

	var got Credential
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, cred.Signature.A, got.Signature.A)
	assert.Equal(t, cred.Signature.E, got.Signature.E)
	assert.Equal(t, cred.Signature.V, got.Signature.V)
	assert.Equal(t, cred.Schema.Attrs, got.Schema.Attrs)

	pk := issuer.PublicKey()
	nonce, err := NewNonce()
	require.NoError(t, err)
	proof, err := ProveDisclosure(&got, &pk, []string{"role"}, nil, nonce)
	require.NoError(t, err)
	valid, _, err := VerifyDisclosure(proof, &pk, []string{"role"}, nil, nonce)
	require.NoError(t, err)
	assert.True(t, valid, "a credential that survives a JSON round-trip must still produce valid proofs")
}

func TestAggregatedProofRoundTrip(t *testing.T) {
	issuer := sharedTestIssuer(t)
	cred, err := issuer.IssueCredential("user-2", "viewer", "ops", "disabled")
	require.NoError(t, err)
	pk := issuer.PublicKey()
	nonce, err := NewNonce()
	require.NoError(t, err)

	proof, err := ProveDisclosure(cred, &pk, []string{"team"}, nil, nonce)
	require.NoError(t, err)

	b, err := json.Marshal(proof)
	require.NoError(t, err)

	var got AggregatedProof
	require.NoError(t, json.Unmarshal(b, &got))

	valid, _, err := VerifyDisclosure(&got, &pk, []string{"team"}, nil, nonce)
	require.NoError(t, err)
	assert.True(t, valid)
}
