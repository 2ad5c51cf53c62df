package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/law-makers/homeharvest/internal/auth"
	"github.com/law-makers/homeharvest/internal/ui"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the persisted realtor.com token",
	Long: `Show or clear the realtor.com bearer token reused across runs.

The token is stored in your OS keyring, or under ~/.homeharvest/tokens
where no keyring is available. A fresh one is fetched automatically when
it is missing or expired.`,
	Example: `  # Inspect the persisted token
  homeharvest token show

  # Force a fresh token on the next scrape
  homeharvest token clear`,
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the persisted token's age and expiry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showToken(os.Stdout, auth.NewKeyringStore(), time.Now())
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the persisted token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return clearToken(os.Stdout, auth.NewKeyringStore())
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenShowCmd)
	tokenCmd.AddCommand(tokenClearCmd)
}

func showToken(w io.Writer, store auth.TokenStore, now time.Time) error {
	token, err := store.Load(auth.RealtorTokenName)
	if errors.Is(err, auth.ErrTokenNotFound) {
		fmt.Fprintln(w, "No persisted token. One is fetched on the next scrape.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}

	p := ui.For(os.Stdout)
	fmt.Fprintf(w, "Name:     %s\n", token.Name)
	fmt.Fprintf(w, "Token:    %s\n", mask(token.Token))
	fmt.Fprintf(w, "Created:  %s (%s ago)\n", token.CreatedAt.Format(time.RFC1123), now.Sub(token.CreatedAt).Round(time.Minute))
	if !token.ExpiresAt.IsZero() {
		if now.After(token.ExpiresAt) {
			fmt.Fprintf(w, "Status:   %s\n", p.Error("expired"))
		} else {
			fmt.Fprintf(w, "Status:   %s (expires in %s)\n", p.Success("valid"), token.ExpiresAt.Sub(now).Round(time.Minute))
		}
	}
	return nil
}

func clearToken(w io.Writer, store auth.TokenStore) error {
	err := store.Delete(auth.RealtorTokenName)
	if err != nil && !errors.Is(err, auth.ErrTokenNotFound) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	fmt.Fprintln(w, "Persisted token cleared.")
	return nil
}

// mask keeps only the ends of a secret
func mask(s string) string {
	if len(s) <= 12 {
		return "****"
	}
	return s[:6] + "…" + s[len(s)-4:]
}
