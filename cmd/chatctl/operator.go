package main

import (
	"fmt"
	"os"

	"brokerage-chat/backend/pkg/jwt"

	"github.com/spf13/cobra"
)

func newOperatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage operator accounts",
	}
	cmd.AddCommand(newOperatorAddCmd())
	return cmd
}

func newOperatorAddCmd() *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an operator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("CHATCTL_PASSWORD")
			}

			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			operator, err := operatorService(cfg, db).CreateOperator(cmd.Context(), name, email, password, jwt.Role(role))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created operator %d (%s, %s)\n", operator.ID, operator.Email, operator.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name shown to visitors")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&password, "password", "", "Password (or CHATCTL_PASSWORD)")
	cmd.Flags().StringVar(&role, "role", string(jwt.RoleOperator), "operator or admin")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
