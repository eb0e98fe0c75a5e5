package db

import (
	"context"
	"fmt"
)

// UpsertCredentialDefinition persists (or replaces) the public key material
// for a named ZK credential authority. The server calls it once at startup
// with the key of the issuer it has just generated; an existing row with the
// same id is replaced without being compared to the new key.
func (db *DB) UpsertCredentialDefinition(ctx context.Context, id string, schemaAttrs []string, publicKey, kcp []byte) (*CredentialDefinition, error) {
	cd := &CredentialDefinition{}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO zk_credential_definitions (id, schema_attrs, public_key, key_correctness_proof)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
			schema_attrs = EXCLUDED.schema_attrs,
			public_key = EXCLUDED.public_key,
			key_correctness_proof = EXCLUDED.key_correctness_proof
		 RETURNING id, schema_attrs, public_key, key_correctness_proof, created_at`,
		id, schemaAttrs, publicKey, kcp,
	).Scan(&cd.ID, &cd.SchemaAttrs, &cd.PublicKey, &cd.KeyCorrectnessProof, &cd.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting credential definition: %w", err)
	}
	return cd, nil
}

// GetCredentialDefinition retrieves a published credential authority's key
// material by its ID.
func (db *DB) GetCredentialDefinition(ctx context.Context, id string) (*CredentialDefinition, error) {
	cd := &CredentialDefinition{}
	err := db.Pool.QueryRow(ctx,
		`SELECT id, schema_attrs, public_key, key_correctness_proof, created_at
		 FROM zk_credential_definitions WHERE id = $1`,
		id,
	).Scan(&cd.ID, &cd.SchemaAttrs, &cd.PublicKey, &cd.KeyCorrectnessProof, &cd.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting credential definition: %w", err)
	}
	return cd, nil
}
