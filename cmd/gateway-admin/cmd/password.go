package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studenttools/gateway/pkg/password"
)

var flagBcryptCost int

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Hash admin passwords for configuration",
}

var passwordHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Read a password from stdin and print its bcrypt hash",
	Long: `Reads a password from stdin and prints a bcrypt hash suitable for
AUTH_ADMIN_PASSWORD with AUTH_ADMIN_PASSWORD_HASHED=true.

  echo -n 'my-password' | gateway-admin password hash`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(cmd.InOrStdin())
		raw, err := reader.ReadString('\n')
		if err != nil && raw == "" {
			return fmt.Errorf("read password from stdin: %w", err)
		}
		raw = strings.TrimRight(raw, "\r\n")
		if raw == "" {
			return fmt.Errorf("password must not be empty")
		}

		hasher := password.New(password.WithCost(flagBcryptCost))
		hash, err := hasher.Hash(raw)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Generate a token signing secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := password.GenerateSecureToken(48)
		if err != nil {
			return fmt.Errorf("generate secret: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), secret)
		return nil
	},
}

func init() {
	passwordHashCmd.Flags().IntVar(&flagBcryptCost, "cost", password.DefaultCost, "Bcrypt cost factor")

	passwordCmd.AddCommand(passwordHashCmd)
	rootCmd.AddCommand(passwordCmd)
	rootCmd.AddCommand(secretCmd)
}
