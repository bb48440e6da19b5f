package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func hashPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for resetting a user's password by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashed, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("generate hash: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Bcrypt Hash: %s\n", hashed)
			if email != "" {
				fmt.Fprintf(out, "\nTo update in MongoDB, run:\n")
				fmt.Fprintf(out, "db.users.updateOne(\n")
				fmt.Fprintf(out, "  {\"email\": %q},\n", email)
				fmt.Fprintf(out, "  {$set: {\"password\": %q}}\n", string(hashed))
				fmt.Fprintf(out, ")\n")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Also print the mongo shell update for this account")
	return cmd
}
