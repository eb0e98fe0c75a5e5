package zk

import (
	"encoding/json"
	"math/big"
)

// Every public artifact serializes every BigInt as a decimal string, per
// the wire format; these helpers centralize that conversion.

func bigToStr(x *big.Int) string {
	if x == nil {
		return "0"
	}
	return x.String()
}

func strToBig(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	x, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, structErr("deserialize", "invalid decimal integer")
	}
	return x, nil
}

func mapBigToStr(m map[string]*big.Int) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = bigToStr(v)
	}
	return out
}

func mapStrToBig(m map[string]string) (map[string]*big.Int, error) {
	out := make(map[string]*big.Int, len(m))
	for k, v := range m {
		x, err := strToBig(v)
		if err != nil {
			return nil, err
		}
		out[k] = x
	}
	return out, nil
}

// foldLegacyMasterSecret merges a legacy scalar field (the historical "rms"
// key field or "m1" equality-proof field) into the attribute map under the
// canonical key "master_secret", per the legacy-compatibility requirement:
// the fold only happens when the legacy field is present and non-zero, and
// it never overwrites an already-present master_secret entry from the
// current-format map.
func foldLegacyMasterSecret(m map[string]*big.Int, legacy *big.Int) {
	if legacy == nil || legacy.Sign() == 0 {
		return
	}
	if _, ok := m["master_secret"]; ok {
		return
	}
	m["master_secret"] = legacy
}

// publicKeyWire is the JSON shape of PublicKey, accepting either the
// current r["master_secret"] shape or the legacy dedicated "rms" field.
type publicKeyWire struct {
	N   string            `json:"n"`
	S   string            `json:"s"`
	Z   string            `json:"z"`
	R   map[string]string `json:"r"`
	RMS string            `json:"rms,omitempty"`
}

func (pk *PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(publicKeyWire{
		N: bigToStr(pk.N),
		S: bigToStr(pk.S),
		Z: bigToStr(pk.Z),
		R: mapBigToStr(pk.R),
	})
}

func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var w publicKeyWire
	if err := json.Unmarshal(data, &w); err != nil {
		return structErr("public_key_unmarshal", err.Error())
	}
	n, err := strToBig(w.N)
	if err != nil {
		return err
	}
	s, err := strToBig(w.S)
	if err != nil {
		return err
	}
	z, err := strToBig(w.Z)
	if err != nil {
		return err
	}
	r, err := mapStrToBig(w.R)
	if err != nil {
		return err
	}
	if w.RMS != "" {
		rms, err := strToBig(w.RMS)
		if err != nil {
			return err
		}
		foldLegacyMasterSecret(r, rms)
	}
	attrs := make([]string, 0, len(r))
	for a := range r {
		attrs = append(attrs, a)
	}
	pk.N, pk.S, pk.Z, pk.R, pk.Attrs = n, s, z, r, sortedAttrNames(attrs)
	return nil
}

type keyCorrectnessProofWire struct {
	C     string            `json:"c"`
	XZCap string            `json:"xz_cap"`
	XRCap map[string]string `json:"xr_cap"`
}

func (kcp *KeyCorrectnessProof) MarshalJSON() ([]byte, error) {
	return json.Marshal(keyCorrectnessProofWire{
		C:     bigToStr(kcp.C),
		XZCap: bigToStr(kcp.XZCap),
		XRCap: mapBigToStr(kcp.XRCap),
	})
}

func (kcp *KeyCorrectnessProof) UnmarshalJSON(data []byte) error {
	var w keyCorrectnessProofWire
	if err := json.Unmarshal(data, &w); err != nil {
		return structErr("kcp_unmarshal", err.Error())
	}
	c, err := strToBig(w.C)
	if err != nil {
		return err
	}
	xz, err := strToBig(w.XZCap)
	if err != nil {
		return err
	}
	xr, err := mapStrToBig(w.XRCap)
	if err != nil {
		return err
	}
	kcp.C, kcp.XZCap, kcp.XRCap = c, xz, xr
	return nil
}

type signatureWire struct {
	A string `json:"a"`
	E string `json:"e"`
	V string `json:"v"`
}

func (sig *PrimaryCredentialSignature) MarshalJSON() ([]byte, error) {
	return json.Marshal(signatureWire{A: bigToStr(sig.A), E: bigToStr(sig.E), V: bigToStr(sig.V)})
}

func (sig *PrimaryCredentialSignature) UnmarshalJSON(data []byte) error {
	var w signatureWire
	if err := json.Unmarshal(data, &w); err != nil {
		return structErr("signature_unmarshal", err.Error())
	}
	a, err := strToBig(w.A)
	if err != nil {
		return err
	}
	e, err := strToBig(w.E)
	if err != nil {
		return err
	}
	v, err := strToBig(w.V)
	if err != nil {
		return err
	}
	sig.A, sig.E, sig.V = a, e, v
	return nil
}

type scpWire struct {
	Se string `json:"se"`
	C  string `json:"c"`
}

func (scp *SignatureCorrectnessProof) MarshalJSON() ([]byte, error) {
	return json.Marshal(scpWire{Se: bigToStr(scp.Se), C: bigToStr(scp.C)})
}

func (scp *SignatureCorrectnessProof) UnmarshalJSON(data []byte) error {
	var w scpWire
	if err := json.Unmarshal(data, &w); err != nil {
		return structErr("scp_unmarshal", err.Error())
	}
	se, err := strToBig(w.Se)
	if err != nil {
		return err
	}
	c, err := strToBig(w.C)
	if err != nil {
		return err
	}
	scp.Se, scp.C = se, c
	return nil
}

// equalityProofWire is the JSON shape of EqualityProof, accepting either
// the current m_hat_a["master_secret"] shape or the legacy dedicated "m1"
// field used by older credential-primary-proof blobs.
type equalityProofWire struct {
	RevealedAttrs map[string]string `json:"revealed_attrs"`
	APrime        string            `json:"a_prime"`
	EHat          string            `json:"e_hat"`
	VHat          string            `json:"v_hat"`
	MHatA         map[string]string `json:"m_hat_a"`
	M1            string            `json:"m1,omitempty"`
}

func (p *EqualityProof) MarshalJSON() ([]byte, error) {
	return json.Marshal(equalityProofWire{
		RevealedAttrs: mapBigToStr(p.RevealedAttrs),
		APrime:        bigToStr(p.APrime),
		EHat:          bigToStr(p.EHat),
		VHat:          bigToStr(p.VHat),
		MHatA:         mapBigToStr(p.MHatA),
	})
}

func (p *EqualityProof) UnmarshalJSON(data []byte) error {
	var w equalityProofWire
	if err := json.Unmarshal(data, &w); err != nil {
		return structErr("equality_proof_unmarshal", err.Error())
	}
	revealed, err := mapStrToBig(w.RevealedAttrs)
	if err != nil {
		return err
	}
	aPrime, err := strToBig(w.APrime)
	if err != nil {
		return err
	}
	eHat, err := strToBig(w.EHat)
	if err != nil {
		return err
	}
	vHat, err := strToBig(w.VHat)
	if err != nil {
		return err
	}
	mHat, err := mapStrToBig(w.MHatA)
	if err != nil {
		return err
	}
	if w.M1 != "" {
		m1, err := strToBig(w.M1)
		if err != nil {
			return err
		}
		foldLegacyMasterSecret(mHat, m1)
	}
	p.RevealedAttrs, p.APrime, p.EHat, p.VHat, p.MHatA = revealed, aPrime, eHat, vHat, mHat
	return nil
}

type inequalityProofWire struct {
	UHat      []string  `json:"u_hat"`
	RHat      []string  `json:"r_hat"`
	MJ        string    `json:"mj"`
	Alpha     string    `json:"alpha"`
	T         []string  `json:"t"`
	Predicate Predicate `json:"predicate"`
}

func (ip *InequalityProof) MarshalJSON() ([]byte, error) {
	w := inequalityProofWire{Predicate: ip.Predicate}
	for i := 0; i < 4; i++ {
		w.UHat = append(w.UHat, bigToStr(ip.UHat[i]))
	}
	for i := 0; i < 5; i++ {
		w.RHat = append(w.RHat, bigToStr(ip.RHat[i]))
		w.T = append(w.T, bigToStr(ip.T[i]))
	}
	w.MJ = bigToStr(ip.MJ)
	w.Alpha = bigToStr(ip.Alpha)
	return json.Marshal(w)
}

func (ip *InequalityProof) UnmarshalJSON(data []byte) error {
	var w inequalityProofWire
	if err := json.Unmarshal(data, &w); err != nil {
		return structErr("inequality_proof_unmarshal", err.Error())
	}
	if len(w.UHat) != 4 || len(w.RHat) != 5 || len(w.T) != 5 {
		return structErr("inequality_proof_unmarshal", "malformed field lengths")
	}
	for i := 0; i < 4; i++ {
		v, err := strToBig(w.UHat[i])
		if err != nil {
			return err
		}
		ip.UHat[i] = v
	}
	for i := 0; i < 5; i++ {
		r, err := strToBig(w.RHat[i])
		if err != nil {
			return err
		}
		ip.RHat[i] = r
		t, err := strToBig(w.T[i])
		if err != nil {
			return err
		}
		ip.T[i] = t
	}
	mj, err := strToBig(w.MJ)
	if err != nil {
		return err
	}
	alpha, err := strToBig(w.Alpha)
	if err != nil {
		return err
	}
	ip.MJ, ip.Alpha, ip.Predicate = mj, alpha, w.Predicate
	return nil
}

type aggregatedProofWire struct {
	CHash     string          `json:"c_hash"`
	CList     []string        `json:"c_list"`
	SubProofs []*PrimaryProof `json:"sub_proofs"`
}

func (p *AggregatedProof) MarshalJSON() ([]byte, error) {
	w := aggregatedProofWire{CHash: bigToStr(p.CHash), SubProofs: p.SubProofs}
	for _, c := range p.CList {
		w.CList = append(w.CList, bigToStr(c))
	}
	return json.Marshal(w)
}

func (p *AggregatedProof) UnmarshalJSON(data []byte) error {
	var w aggregatedProofWire
	if err := json.Unmarshal(data, &w); err != nil {
		return structErr("aggregated_proof_unmarshal", err.Error())
	}
	cHash, err := strToBig(w.CHash)
	if err != nil {
		return err
	}
	var cList []*big.Int
	for _, c := range w.CList {
		v, err := strToBig(c)
		if err != nil {
			return err
		}
		cList = append(cList, v)
	}
	p.CHash, p.CList, p.SubProofs = cHash, cList, w.SubProofs
	return nil
}

// credentialValuesWire carries the AttrKind tag alongside each value so a
// deserialized CredentialValues round-trips exactly, including which
// attributes were committed and their blinding factors.
type credentialValuesWire struct {
	Kind     map[string]AttrKind `json:"kind"`
	Value    map[string]string   `json:"value"`
	Blinding map[string]string   `json:"blinding,omitempty"`
}

func (cv *CredentialValues) MarshalJSON() ([]byte, error) {
	return json.Marshal(credentialValuesWire{
		Kind:     cv.Kind,
		Value:    mapBigToStr(cv.Value),
		Blinding: mapBigToStr(cv.Blinding),
	})
}

func (cv *CredentialValues) UnmarshalJSON(data []byte) error {
	var w credentialValuesWire
	if err := json.Unmarshal(data, &w); err != nil {
		return structErr("credential_values_unmarshal", err.Error())
	}
	value, err := mapStrToBig(w.Value)
	if err != nil {
		return err
	}
	blinding, err := mapStrToBig(w.Blinding)
	if err != nil {
		return err
	}
	cv.Kind, cv.Value, cv.Blinding = w.Kind, value, blinding
	return nil
}

type credentialWire struct {
	Schema    *CredentialSchema    `json:"schema"`
	NonSchema *NonCredentialSchema `json:"non_schema"`
	Signature *PrimaryCredentialSignature `json:"signature"`
	Values    *CredentialValues    `json:"values"`
}

func (c *Credential) MarshalJSON() ([]byte, error) {
	return json.Marshal(credentialWire{Schema: c.Schema, NonSchema: c.NonSchema, Signature: c.Signature, Values: c.Values})
}

func (c *Credential) UnmarshalJSON(data []byte) error {
	var w credentialWire
	if err := json.Unmarshal(data, &w); err != nil {
		return structErr("credential_unmarshal", err.Error())
	}
	c.Schema, c.NonSchema, c.Signature, c.Values = w.Schema, w.NonSchema, w.Signature, w.Values
	return nil
}
