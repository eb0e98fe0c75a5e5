package zk

import (
	"fmt"
	"math/big"
)

// CredentialSchema is the deduplicated, sorted set of attribute names an
// issuer signs. Two schemas are equal iff their attribute sets are equal.
type CredentialSchema struct {
	Attrs []string
}

// NewCredentialSchema builds a schema from a set of attribute names,
// rejecting an empty set.
func NewCredentialSchema(names ...string) (*CredentialSchema, error) {
	if len(names) == 0 {
		return nil, structErr("new_credential_schema", "credential schema must name at least one attribute")
	}
	return &CredentialSchema{Attrs: dedupAttrNames(names)}, nil
}

// NonCredentialSchema is the set of attribute names known only to the
// Prover (typically just the master secret). Must be disjoint from the
// CredentialSchema it pairs with.
type NonCredentialSchema struct {
	Attrs []string
}

// NewNonCredentialSchema builds a non-credential schema; defaults to the
// single conventional attribute "master_secret" when none are given.
func NewNonCredentialSchema(names ...string) *NonCredentialSchema {
	if len(names) == 0 {
		names = []string{"master_secret"}
	}
	return &NonCredentialSchema{Attrs: dedupAttrNames(names)}
}

// effectiveAttrs returns the sorted union of a credential schema and a
// non-credential schema: every per-attribute structure (keys, proofs,
// values) is keyed by this set.
func effectiveAttrs(cs *CredentialSchema, ncs *NonCredentialSchema) []string {
	return dedupAttrNames(cs.Attrs, ncs.Attrs)
}

func disjoint(cs *CredentialSchema, ncs *NonCredentialSchema) error {
	seen := make(map[string]struct{}, len(cs.Attrs))
	for _, a := range cs.Attrs {
		seen[a] = struct{}{}
	}
	for _, a := range ncs.Attrs {
		if _, ok := seen[a]; ok {
			return structErr("schema", fmt.Sprintf("attribute %q appears in both credential and non-credential schemas", a))
		}
	}
	return nil
}

// AttrKind distinguishes how an attribute value is carried through blinding.
type AttrKind int

const (
	// Known values are sent to the Issuer in the clear.
	Known AttrKind = iota
	// Hidden values are kept by the Prover and never transmitted; they are
	// folded into the blinded commitment u.
	Hidden
	// Committed values are folded into u like Hidden ones and are also sent
	// as a Pedersen commitment, proved well-formed alongside u.
	Committed
)

// CredentialValues holds, for every attribute in an effective attribute
// set, its integer value, its AttrKind, and — for Committed attributes —
// the blinding factor used in its Pedersen commitment.
type CredentialValues struct {
	Kind      map[string]AttrKind
	Value     map[string]*big.Int
	Blinding  map[string]*big.Int // only set for Committed attributes
}

// CredentialValuesBuilder accumulates attribute values by kind before
// producing an immutable CredentialValues, mirroring the ergonomic split
// the reference implementation offers its callers.
type CredentialValuesBuilder struct {
	cv *CredentialValues
}

// NewCredentialValuesBuilder returns an empty builder.
func NewCredentialValuesBuilder() *CredentialValuesBuilder {
	return &CredentialValuesBuilder{cv: &CredentialValues{
		Kind:     make(map[string]AttrKind),
		Value:    make(map[string]*big.Int),
		Blinding: make(map[string]*big.Int),
	}}
}

// AddKnown records a cleartext attribute value.
func (b *CredentialValuesBuilder) AddKnown(name string, value *big.Int) *CredentialValuesBuilder {
	b.cv.Kind[name] = Known
	b.cv.Value[name] = value
	return b
}

// AddHidden records a Prover-only attribute value, e.g. the master secret.
func (b *CredentialValuesBuilder) AddHidden(name string, value *big.Int) *CredentialValuesBuilder {
	b.cv.Kind[name] = Hidden
	b.cv.Value[name] = value
	return b
}

// AddCommitted records a Prover-only value that is additionally committed
// to the Issuer via a Pedersen commitment, with a fresh random blinding
// factor generated if none is supplied.
func (b *CredentialValuesBuilder) AddCommitted(name string, value *big.Int, blinding *big.Int) *CredentialValuesBuilder {
	b.cv.Kind[name] = Committed
	b.cv.Value[name] = value
	b.cv.Blinding[name] = blinding
	return b
}

// Build finalizes the CredentialValues.
func (b *CredentialValuesBuilder) Build() *CredentialValues {
	return b.cv
}

func namesOfKind(cv *CredentialValues, attrs []string, kind AttrKind) []string {
	var out []string
	for _, a := range attrs {
		if cv.Kind[a] == kind {
			out = append(out, a)
		}
	}
	return out
}
