package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Operator tokens",
	}
	cmd.AddCommand(newTokenIssueCmd())
	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for an existing operator without a password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			svc := operatorService(cfg, db)
			operator, err := svc.GetByEmail(cmd.Context(), email)
			if err != nil {
				return err
			}
			if !operator.Active {
				return fmt.Errorf("operator %s is inactive", operator.Email)
			}

			resp, err := svc.IssueToken(operator)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", resp.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Operator email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
