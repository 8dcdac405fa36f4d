package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"evalgo.org/graphapi/internal/auth"
	"evalgo.org/graphapi/models"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage authentication tokens",
	Long:  `Issue JWT bearer tokens and create API keys for the API server.`,
}

var issueTokenCmd = &cobra.Command{
	Use:   "issue [subject]",
	Short: "Issue a JWT bearer token",
	Long: `Issue a JWT signed with security.jwt_secret. The token expires after
security.jwt_expiration.

Examples:
  graphapi token issue ci-bot --role viewer
  graphapi token issue alice --role admin`,
	Args: cobra.ExactArgs(1),
	RunE: runIssueToken,
}

var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Generate an API key and its bcrypt hash",
	Long: `Generate a random API key. Add the printed hash to
security.api_key_hashes and hand the key to the client, which sends it in
the X-API-Key header.`,
	Args: cobra.NoArgs,
	RunE: runAPIKey,
}

var hashKeyCmd = &cobra.Command{
	Use:   "hash [key]",
	Short: "Print the bcrypt hash of an existing API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runHashKey,
}

var tokenRoles []string

var knownRoles = []models.Role{models.RoleAdmin, models.RoleUser, models.RoleViewer}

func init() {
	issueTokenCmd.Flags().StringSliceVar(&tokenRoles, "role", []string{models.RoleViewer}, "roles to grant (admin, user, viewer)")

	tokenCmd.AddCommand(issueTokenCmd)
	tokenCmd.AddCommand(apiKeyCmd)
	tokenCmd.AddCommand(hashKeyCmd)
}

func runIssueToken(cmd *cobra.Command, args []string) error {
	for _, r := range tokenRoles {
		if !slices.Contains(knownRoles, r) {
			return fmt.Errorf("unknown role %q (use admin, user or viewer)", r)
		}
	}
	if cfg.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is not set")
	}

	token, err := auth.NewJWTService(cfg.Security).GenerateToken(args[0], tokenRoles...)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func runAPIKey(cmd *cobra.Command, args []string) error {
	key, err := auth.GenerateAPIKey()
	if err != nil {
		return err
	}
	hash, err := auth.HashAPIKey(key)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Key:  %s\n", key)
	fmt.Fprintf(w, "Hash: %s\n", hash)
	return nil
}

func runHashKey(cmd *cobra.Command, args []string) error {
	hash, err := auth.HashAPIKey(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
