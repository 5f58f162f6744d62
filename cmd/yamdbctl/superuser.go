package main

import (
	"fmt"

	"github.com/kevinaaaquil/yamdb/service"
	"github.com/kevinaaaquil/yamdb/store"
	"github.com/spf13/cobra"
)

var (
	superuserName  string
	superuserEmail string
)

var superuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create or promote a staff account",
	Long: `Create an admin account with the staff flag, or promote an existing one.

The account signs in through the usual confirmation-code flow.

Examples:
  yamdbctl createsuperuser --username root --email root@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), cfg, func(st store.Store) error {
			user, created, err := service.EnsureSuperuser(cmd.Context(), st, superuserName, superuserEmail)
			if err != nil {
				return err
			}
			verb := "promoted"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s staff account %s <%s>\n", verb, user.Username, user.Email)
			return nil
		})
	},
}

func init() {
	superuserCmd.Flags().StringVar(&superuserName, "username", "", "Username of the account (required)")
	superuserCmd.Flags().StringVar(&superuserEmail, "email", "", "Email, required when the account does not exist yet")
	_ = superuserCmd.MarkFlagRequired("username")
}
