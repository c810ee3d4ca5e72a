package main

import (
	"github.com/spf13/cobra"

	"github.com/charlesng35/mediaplatform/internal/services"
)

func newBillingCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Manage billing accounts",
	}
	cmd.AddCommand(newBillingCreateCmd(c))
	return cmd
}

func newBillingCreateCmd(c *cli) *cobra.Command {
	var input services.CreateBillingAccountInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a billing account whose members may create channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.database()
			if err != nil {
				return err
			}
			audit, err := c.auditService()
			if err != nil {
				return err
			}
			svc, err := services.NewBillingAccountService(db, audit)
			if err != nil {
				return err
			}

			account, err := svc.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd, account)
		},
	}

	cmd.Flags().StringVar(&input.LookupInstID, "instid", "", "Lookup institution that owns the account")
	cmd.Flags().StringVar(&input.Description, "description", "", "Free text description")
	_ = cmd.MarkFlagRequired("instid")
	return cmd
}
