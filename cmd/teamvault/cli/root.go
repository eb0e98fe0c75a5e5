package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "teamvault",
	Short: "TeamVault — anonymous credential issuance for teams",
	Long: `TeamVault issues and verifies zero-knowledge anonymous credentials for
team members, letting a holder prove claims about their session (role,
team, MFA status) to a verifier without revealing anything beyond what
was asked for.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(credentialCmd)
}
