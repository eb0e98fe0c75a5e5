package db

import (
	"encoding/json"
	"time"
)

// User represents a user account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// CredentialDefinition persists the public half of an issued ZK credential
// authority's key material: the schema attribute names, the public key, and
// its key-correctness proof. The private key never touches this table.
type CredentialDefinition struct {
	ID                  string          `json:"id"`
	SchemaAttrs         []string        `json:"schema_attrs"`
	PublicKey           json.RawMessage `json:"public_key"`
	KeyCorrectnessProof json.RawMessage `json:"key_correctness_proof"`
	CreatedAt           time.Time       `json:"created_at"`
}
