package api

import (
	"log"
	"math/big"
	"net/http"

	"github.com/teamvault/teamvault/internal/zk"
)

// ZKHandlers holds ZK-related dependencies.
type ZKHandlers struct {
	issuer *zk.CredentialIssuer
}

// NewZKHandlers creates ZK handlers around a single credential issuer.
func NewZKHandlers(issuer *zk.CredentialIssuer) *ZKHandlers {
	return &ZKHandlers{issuer: issuer}
}

// zkCredentialRequest is the request for issuing a ZK credential.
type zkCredentialRequest struct {
	Team string `json:"team"`
	MFA  string `json:"mfa"` // "enabled" or "disabled"
}

// zkCredentialResponse contains the issued credential. Both fields are
// pointers so json.Encode picks up their pointer-receiver MarshalJSON —
// a non-pointer field read back through an interface{} isn't addressable,
// and encoding/json only promotes pointer methods on addressable values.
type zkCredentialResponse struct {
	Credential *zk.Credential `json:"credential"`
	PublicKey  *zk.PublicKey  `json:"public_key"`
}

// handleZKCredential issues a ZK credential after JWT authentication.
// POST /api/v1/auth/zk/credential
func (s *Server) handleZKCredential(w http.ResponseWriter, r *http.Request) {
	if s.zkHandlers == nil || s.zkHandlers.issuer == nil {
		writeError(w, http.StatusServiceUnavailable, "ZK auth not available")
		return
	}

	ctx := r.Context()
	claims := getUserClaims(ctx)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "JWT authentication required for ZK credential issuance")
		return
	}

	var req zkCredentialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Team == "" {
		req.Team = "default"
	}
	if req.MFA == "" {
		req.MFA = "disabled"
	}

	cred, err := s.zkHandlers.issuer.IssueCredential(
		claims.UserID,
		claims.Role,
		req.Team,
		req.MFA,
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue credential")
		return
	}

	log.Printf("zk.credential_issued user=%s team=%s ip=%s", claims.UserID, req.Team, clientIP(r))

	pk := s.zkHandlers.issuer.PublicKey()
	writeJSON(w, http.StatusOK, zkCredentialResponse{
		Credential: cred,
		PublicKey:  &pk,
	})
}

// zkVerifyRequest is the request for verifying a ZK selective-disclosure
// proof. Nonce must be the same value the prover bound its proof to (the
// caller is expected to have issued it over the same channel used to ask
// for the proof).
type zkVerifyRequest struct {
	Proof          zk.AggregatedProof `json:"proof"`
	RequiredClaims []string           `json:"required_claims"`
	Nonce          string             `json:"nonce"`
}

// zkVerifyResponse contains the verification result.
type zkVerifyResponse struct {
	Valid           bool              `json:"valid"`
	DisclosedClaims map[string]string `json:"disclosed_claims,omitempty"`
}

// handleZKVerify verifies a ZK selective disclosure proof.
// POST /api/v1/auth/zk/verify
func (s *Server) handleZKVerify(w http.ResponseWriter, r *http.Request) {
	if s.zkHandlers == nil || s.zkHandlers.issuer == nil {
		writeError(w, http.StatusServiceUnavailable, "ZK auth not available")
		return
	}

	var req zkVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.RequiredClaims) == 0 {
		writeError(w, http.StatusBadRequest, "required_claims must be specified")
		return
	}

	nonce, ok := new(big.Int).SetString(req.Nonce, 10)
	if !ok {
		writeError(w, http.StatusBadRequest, "nonce must be a decimal integer")
		return
	}

	pk := s.zkHandlers.issuer.PublicKey()
	valid, disclosed, err := zk.VerifyDisclosure(&req.Proof, &pk, req.RequiredClaims, nil, nonce)
	if err != nil && !zk.IsInvalidProof(err) {
		writeError(w, http.StatusBadRequest, "malformed proof")
		return
	}

	outcome := "success"
	if !valid {
		outcome = "denied"
	}
	log.Printf("zk.verify outcome=%s required_claims=%v ip=%s", outcome, req.RequiredClaims, clientIP(r))

	resp := zkVerifyResponse{Valid: valid}
	if valid {
		resp.DisclosedClaims = disclosed
	}

	writeJSON(w, http.StatusOK, resp)
}
