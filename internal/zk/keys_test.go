package zk

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCredentialDefAndKCP(t *testing.T) {
	cs, err := NewCredentialSchema("role", "team")
	require.NoError(t, err)
	ncs := NewNonCredentialSchema("master_secret")

	pk, sk, kcp, err := NewCredentialDef(cs, ncs)
	require.NoError(t, err)
	require.NotNil(t, sk)
	assert.ElementsMatch(t, []string{"role", "team", "master_secret"}, pk.Attrs)

	valid, err := VerifyKeyCorrectnessProof(pk, kcp)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestVerifyKeyCorrectnessProof_TamperedCRejected(t *testing.T) {
	cs, err := NewCredentialSchema("role")
	require.NoError(t, err)
	ncs := NewNonCredentialSchema("master_secret")
	pk, _, kcp, err := NewCredentialDef(cs, ncs)
	require.NoError(t, err)

	tampered := *kcp
	tampered.C = new(big.Int).Add(kcp.C, big.NewInt(1))

	valid, err := VerifyKeyCorrectnessProof(pk, &tampered)
	require.NoError(t, err)
	assert.False(t, valid, "a modified challenge must not re-derive to the same value")
}

func TestVerifyKeyCorrectnessProof_TamperedXZCapRejected(t *testing.T) {
	cs, err := NewCredentialSchema("role")
	require.NoError(t, err)
	ncs := NewNonCredentialSchema("master_secret")
	pk, _, kcp, err := NewCredentialDef(cs, ncs)
	require.NoError(t, err)

	tampered := *kcp
	tampered.XZCap = new(big.Int).Add(kcp.XZCap, big.NewInt(1))

	valid, err := VerifyKeyCorrectnessProof(pk, &tampered)
	require.NoError(t, err)
	assert.False(t, valid, "a response inconsistent with the committed xz_tilde must fail verification")
}

func TestVerifyKeyCorrectnessProof_MissingAttributeResponseErrors(t *testing.T) {
	cs, err := NewCredentialSchema("role")
	require.NoError(t, err)
	ncs := NewNonCredentialSchema("master_secret")
	pk, _, kcp, err := NewCredentialDef(cs, ncs)
	require.NoError(t, err)

	tampered := *kcp
	tampered.XRCap = map[string]*big.Int{}

	_, err = VerifyKeyCorrectnessProof(pk, &tampered)
	assert.Error(t, err)
	assert.True(t, IsInvalidStructure(err))
}

func TestVerifyKeyCorrectnessProof_ZOutOfRangeRejected(t *testing.T) {
	cs, err := NewCredentialSchema("role")
	require.NoError(t, err)
	ncs := NewNonCredentialSchema("master_secret")
	pk, _, kcp, err := NewCredentialDef(cs, ncs)
	require.NoError(t, err)

	tampered := *pk
	tampered.Z = big.NewInt(0)

	_, err = VerifyKeyCorrectnessProof(&tampered, kcp)
	assert.Error(t, err)
	assert.True(t, IsInvalidStructure(err))
}
