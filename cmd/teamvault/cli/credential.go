package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teamvault/teamvault/internal/zk"
)

const credentialFile = "credential.json"

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Issue and prove zero-knowledge credentials",
	Long: `Issue a ZK credential from the server, derive selective-disclosure
proofs from it locally, and verify proofs against a published public key.`,
}

var credentialIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Request a ZK credential for the logged-in user",
	Long: `Requests a ZK credential over the caller's identity and stores it
at ~/.teamvault/credential.json. The credential never leaves the machine
again — only proofs derived from it are shared with a verifier.`,
	RunE: runCredentialIssue,
}

var (
	credentialTeam string
	credentialMFA  string
)

var credentialProveCmd = &cobra.Command{
	Use:   "prove",
	Short: "Build a selective-disclosure proof from a stored credential",
	Long: `Builds a non-interactive proof over the stored credential, revealing
only the requested attributes, optionally bound by range predicates
(e.g. --predicate mfa>=1), and bound to the given nonce.

Examples:
  teamvault credential prove --reveal role,team --nonce 12345
  teamvault credential prove --reveal role --predicate "mfa>=1" --nonce 12345`,
	RunE: runCredentialProve,
}

var (
	proveReveal     string
	provePredicates []string
	proveNonce      string
)

var credentialVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Submit a proof file to the server for verification",
	Long: `Sends a previously built proof (see "credential prove") to the
server's verification endpoint and prints the disclosed attributes on
success.`,
	RunE: runCredentialVerify,
}

var (
	verifyProofFile      string
	verifyRequiredClaims string
	verifyNonce          string
)

func init() {
	credentialIssueCmd.Flags().StringVar(&credentialTeam, "team", "default", "Team to embed in the credential")
	credentialIssueCmd.Flags().StringVar(&credentialMFA, "mfa", "disabled", "MFA enrollment status (\"enabled\" or \"disabled\")")

	credentialProveCmd.Flags().StringVar(&proveReveal, "reveal", "", "Comma-separated attribute names to disclose")
	credentialProveCmd.Flags().StringArrayVar(&provePredicates, "predicate", nil, "Range predicate, e.g. mfa>=1 (repeatable)")
	credentialProveCmd.Flags().StringVar(&proveNonce, "nonce", "", "Verifier-issued nonce to bind the proof to")
	credentialProveCmd.MarkFlagRequired("nonce")

	credentialVerifyCmd.Flags().StringVar(&verifyProofFile, "proof", "", "Path to a proof JSON file (stdin if omitted)")
	credentialVerifyCmd.Flags().StringVar(&verifyRequiredClaims, "require", "", "Comma-separated attribute names that must be disclosed")
	credentialVerifyCmd.Flags().StringVar(&verifyNonce, "nonce", "", "Nonce the proof must be bound to")
	credentialVerifyCmd.MarkFlagRequired("require")
	credentialVerifyCmd.MarkFlagRequired("nonce")

	credentialCmd.AddCommand(credentialIssueCmd)
	credentialCmd.AddCommand(credentialProveCmd)
	credentialCmd.AddCommand(credentialVerifyCmd)
}

func credentialFilePath() (string, error) {
	dir, err := ensureConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credentialFile), nil
}

func runCredentialIssue(cmd *cobra.Command, args []string) error {
	client, err := NewClient()
	if err != nil {
		return err
	}

	resp, err := client.IssueZKCredential(credentialTeam, credentialMFA)
	if err != nil {
		return fmt.Errorf("failed to issue credential: %w", err)
	}

	path, err := credentialFilePath()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, resp.Credential, 0600); err != nil {
		return fmt.Errorf("cannot write credential file %s: %w", path, err)
	}

	pkPath := filepath.Join(filepath.Dir(path), "credential_pubkey.json")
	if err := os.WriteFile(pkPath, resp.PublicKey, 0600); err != nil {
		return fmt.Errorf("cannot write public key file %s: %w", pkPath, err)
	}

	fmt.Fprintf(os.Stderr, "✓ ZK credential issued and stored at %s\n", path)
	return nil
}

func runCredentialProve(cmd *cobra.Command, args []string) error {
	path, err := credentialFilePath()
	if err != nil {
		return err
	}
	credBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("no stored credential (run 'teamvault credential issue' first): %w", err)
	}
	var cred zk.Credential
	if err := json.Unmarshal(credBytes, &cred); err != nil {
		return fmt.Errorf("corrupt credential file: %w", err)
	}

	pkPath := filepath.Join(filepath.Dir(path), "credential_pubkey.json")
	pkBytes, err := os.ReadFile(pkPath)
	if err != nil {
		return fmt.Errorf("missing credential public key file: %w", err)
	}
	var pk zk.PublicKey
	if err := json.Unmarshal(pkBytes, &pk); err != nil {
		return fmt.Errorf("corrupt public key file: %w", err)
	}

	var reveal []string
	for _, a := range strings.Split(proveReveal, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			reveal = append(reveal, a)
		}
	}

	predicates, err := parsePredicates(provePredicates)
	if err != nil {
		return err
	}

	nonce, ok := new(big.Int).SetString(proveNonce, 10)
	if !ok {
		return fmt.Errorf("--nonce must be a decimal integer")
	}

	proof, err := zk.ProveDisclosure(&cred, &pk, reveal, predicates, nonce)
	if err != nil {
		return fmt.Errorf("failed to build proof: %w", err)
	}

	out, err := json.Marshal(proof)
	if err != nil {
		return fmt.Errorf("failed to encode proof: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runCredentialVerify(cmd *cobra.Command, args []string) error {
	var proofBytes []byte
	var err error
	if verifyProofFile != "" {
		proofBytes, err = os.ReadFile(verifyProofFile)
	} else {
		proofBytes, err = readAllStdin()
	}
	if err != nil {
		return fmt.Errorf("failed to read proof: %w", err)
	}

	var required []string
	for _, a := range strings.Split(verifyRequiredClaims, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			required = append(required, a)
		}
	}

	client, err := NewClient()
	if err != nil {
		return err
	}

	resp, err := client.VerifyZKProof(json.RawMessage(proofBytes), required, verifyNonce)
	if err != nil {
		return fmt.Errorf("verification request failed: %w", err)
	}

	if !resp.Valid {
		fmt.Fprintln(os.Stderr, "✗ proof invalid")
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "✓ proof valid")
	for name, val := range resp.DisclosedClaims {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", name, val)
	}
	return nil
}

// parsePredicates parses flags shaped like "mfa>=1" into zk.Predicate values.
func parsePredicates(raw []string) ([]zk.Predicate, error) {
	var out []zk.Predicate
	for _, p := range raw {
		for _, op := range []string{">=", "<=", ">", "<"} {
			idx := strings.Index(p, op)
			if idx <= 0 {
				continue
			}
			attr := strings.TrimSpace(p[:idx])
			valStr := strings.TrimSpace(p[idx+len(op):])
			var val int64
			if _, err := fmt.Sscanf(valStr, "%d", &val); err != nil {
				return nil, fmt.Errorf("invalid predicate value in %q: %w", p, err)
			}
			pt, err := predicateTypeForOp(op)
			if err != nil {
				return nil, err
			}
			out = append(out, zk.Predicate{Attr: attr, PType: pt, Value: int32(val)})
			goto next
		}
		return nil, fmt.Errorf("invalid predicate %q (expected form attr>=value)", p)
	next:
	}
	return out, nil
}

func predicateTypeForOp(op string) (zk.PredicateType, error) {
	switch op {
	case ">=":
		return zk.GE, nil
	case ">":
		return zk.GT, nil
	case "<=":
		return zk.LE, nil
	case "<":
		return zk.LT, nil
	default:
		return "", fmt.Errorf("unsupported predicate operator %q", op)
	}
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
