package zk

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueWithCommittedAttr(t *testing.T) (*PublicKey, *PrivateKey, *KeyCorrectnessProof, *CredentialValues) {
	t.Helper()
	cs, err := NewCredentialSchema("role")
	require.NoError(t, err)
	ncs := NewNonCredentialSchema("master_secret", "link_secret")
	pk, sk, kcp, err := NewCredentialDef(cs, ncs)
	require.NoError(t, err)

	ms, err := NewMasterSecret()
	require.NoError(t, err)
	values := NewCredentialValuesBuilder().
		AddHidden("master_secret", ms.Value).
		AddCommitted("link_secret", big.NewInt(424242), nil).
		AddKnown("role", stringAttr("admin")).
		Build()
	return pk, sk, kcp, values
}

func TestBlindCredentialSecrets_CommittedAttrGetsBlindingFactor(t *testing.T) {
	pk, _, kcp0, values := issueWithCommittedAttr(t)
	n0, err := NewNonce()
	require.NoError(t, err)

	blinded, factors, bcp, err := BlindCredentialSecrets(pk, kcp0, values, n0)
	require.NoError(t, err)
	assert.NotNil(t, factors.VPrime)
	assert.Contains(t, blinded.CommittedCommit, "link_secret")
	assert.NotNil(t, values.Blinding["link_secret"], "a committed attribute with no caller-supplied blinding must get one generated at blind time")

	ok, err := verifyBCP(pk, blinded, bcp, n0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyBCP_TamperedChallengeRejected(t *testing.T) {
	pk, _, kcp0, values := issueWithCommittedAttr(t)
	n0, err := NewNonce()
	require.NoError(t, err)

	blinded, _, bcp, err := BlindCredentialSecrets(pk, kcp0, values, n0)
	require.NoError(t, err)

	tampered := *bcp
	tampered.C = new(big.Int).Add(bcp.C, big.NewInt(1))

	ok, err := verifyBCP(pk, blinded, &tampered, n0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyBCP_TamperedCommitmentRejected(t *testing.T) {
	pk, _, kcp0, values := issueWithCommittedAttr(t)
	n0, err := NewNonce()
	require.NoError(t, err)

	blinded, _, bcp, err := BlindCredentialSecrets(pk, kcp0, values, n0)
	require.NoError(t, err)

	blinded.CommittedCommit["link_secret"] = new(big.Int).Add(blinded.CommittedCommit["link_secret"], big.NewInt(1))

	ok, err := verifyBCP(pk, blinded, bcp, n0)
	require.NoError(t, err)
	assert.False(t, ok, "a commitment modified after the proof was built must fail re-derivation")
}

func TestProcessCredentialSignature_TamperedSCPRejected(t *testing.T) {
	pk, sk, kcp0, values := issueWithCommittedAttr(t)
	n0, err := NewNonce()
	require.NoError(t, err)
	n1, err := NewNonce()
	require.NoError(t, err)

	blinded, factors, bcp, err := BlindCredentialSecrets(pk, kcp0, values, n0)
	require.NoError(t, err)

	sig, scp, err := SignCredential("prover", blinded, bcp, n0, n1, values, pk, sk)
	require.NoError(t, err)

	tampered := *scp
	tampered.Se = new(big.Int).Add(scp.Se, big.NewInt(1))

	sigCopy := *sig
	err = ProcessCredentialSignature(&sigCopy, values, &tampered, factors, pk, n1)
	assert.Error(t, err, "a modified se response must not re-derive the committed challenge")
}

func TestProcessCredentialSignature_Succeeds(t *testing.T) {
	pk, sk, kcp0, values := issueWithCommittedAttr(t)
	n0, err := NewNonce()
	require.NoError(t, err)
	n1, err := NewNonce()
	require.NoError(t, err)

	blinded, factors, bcp, err := BlindCredentialSecrets(pk, kcp0, values, n0)
	require.NoError(t, err)

	sig, scp, err := SignCredential("prover", blinded, bcp, n0, n1, values, pk, sk)
	require.NoError(t, err)

	require.NoError(t, ProcessCredentialSignature(sig, values, scp, factors, pk, n1))
}
