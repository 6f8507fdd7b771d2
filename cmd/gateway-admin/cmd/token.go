package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/studenttools/gateway/internal/gateway/token"
)

var (
	flagTokenSecret string
	flagTokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint and inspect session tokens",
}

var tokenMintCmd = &cobra.Command{
	Use:   "mint <subject>",
	Short: "Mint a session token for a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := tokenService()
		if err != nil {
			return err
		}

		tok, err := svc.Mint(args[0])
		if err != nil {
			return fmt.Errorf("mint token: %w", err)
		}

		fmt.Println(tok)
		return nil
	},
}

var tokenVerifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Verify a session token and print its claims",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := tokenService()
		if err != nil {
			return err
		}

		claims, err := svc.Verify(args[0])
		if err != nil {
			return fmt.Errorf("verify token (%s): %w", token.FailureKind(err), err)
		}

		fmt.Printf("subject:   %s\n", claims.Subject)
		fmt.Printf("issued_at: %s\n", claims.IssuedAt.Format(time.RFC3339))
		fmt.Printf("expires:   %s\n", claims.IssuedAt.Add(flagTokenTTL).Format(time.RFC3339))
		return nil
	},
}

func tokenService() (*token.Service, error) {
	secret := flagTokenSecret
	if secret == "" {
		secret = os.Getenv("AUTH_TOKEN_SECRET")
	}
	if secret == "" {
		return nil, fmt.Errorf("token secret required (--secret or AUTH_TOKEN_SECRET)")
	}
	return token.NewService(secret, flagTokenTTL)
}

func init() {
	tokenCmd.PersistentFlags().StringVar(&flagTokenSecret, "secret", "", "Token signing secret (env: AUTH_TOKEN_SECRET)")
	tokenCmd.PersistentFlags().DurationVar(&flagTokenTTL, "ttl", 24*time.Hour, "Token lifetime")

	tokenCmd.AddCommand(tokenMintCmd)
	tokenCmd.AddCommand(tokenVerifyCmd)
	rootCmd.AddCommand(tokenCmd)
}
