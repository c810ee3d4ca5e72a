package main

import (
	"github.com/spf13/cobra"

	"github.com/charlesng35/mediaplatform/internal/services"
)

func newPurgeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <kind> <id>",
		Short: "Permanently delete a resource and the permission records it owns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.database()
			if err != nil {
				return err
			}
			audit, err := c.auditService()
			if err != nil {
				return err
			}
			svc, err := services.NewResourceService(db, audit)
			if err != nil {
				return err
			}

			if err := svc.Purge(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"kind": args[0], "id": args[1], "purged": true})
		},
	}
}
