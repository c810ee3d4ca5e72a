package main

import (
	"github.com/spf13/cobra"

	"github.com/charlesng35/mediaplatform/internal/permissions"
	"github.com/charlesng35/mediaplatform/internal/services"
)

type slotGrant struct {
	Slot       string                         `json:"slot"`
	Permission *services.PermissionDetail     `json:"permission"`
	References []services.PermissionReference `json:"references,omitempty"`
}

func newPermissionsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Inspect and change resource permissions",
	}
	cmd.AddCommand(newPermissionsShowCmd(c))
	cmd.AddCommand(newPermissionsGrantCmd(c))
	return cmd
}

func (c *cli) permissionService() (*services.PermissionService, error) {
	db, err := c.database()
	if err != nil {
		return nil, err
	}
	audit, err := c.auditService()
	if err != nil {
		return nil, err
	}
	return services.NewPermissionService(db, audit)
}

func newPermissionsShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <kind> <id>",
		Short: "Show the permission records of a resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.permissionService()
			if err != nil {
				return err
			}

			kind, id := args[0], args[1]
			slots := []string{services.SlotView, services.SlotEdit}
			if kind == permissions.KindBillingAccount {
				slots = append(slots, services.SlotChannelCreate)
			}

			out := make([]slotGrant, 0, len(slots))
			for _, slot := range slots {
				permID, err := svc.SlotPermissionID(cmd.Context(), kind, id, slot)
				if err != nil {
					return err
				}
				detail, err := svc.Get(cmd.Context(), permID)
				if err != nil {
					return err
				}
				refs, err := svc.References(cmd.Context(), permID)
				if err != nil {
					return err
				}
				out = append(out, slotGrant{Slot: slot, Permission: detail, References: refs})
			}
			return printJSON(cmd, out)
		},
	}
}

func newPermissionsGrantCmd(c *cli) *cobra.Command {
	var (
		which     string
		replace   bool
		additions permissions.Record
	)

	cmd := &cobra.Command{
		Use:   "grant <kind> <id>",
		Short: "Add principals to one permission of a resource",
		Long: "Adds the given crsids, Lookup groups, Lookup institutions and flags to the\n" +
			"selected permission. With --replace the permission is overwritten instead.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.permissionService()
			if err != nil {
				return err
			}

			permID, err := svc.SlotPermissionID(cmd.Context(), args[0], args[1], which)
			if err != nil {
				return err
			}

			var detail *services.PermissionDetail
			if replace {
				detail, err = svc.Replace(cmd.Context(), permID, additions)
			} else {
				detail, err = svc.Grant(cmd.Context(), permID, additions)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, slotGrant{Slot: which, Permission: detail})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&which, "which", services.SlotView, "Permission to change: view, edit or channel_create")
	flags.StringSliceVar(&additions.CRSIDs, "crsid", nil, "crsid to grant (repeatable)")
	flags.Int64SliceVar(&additions.LookupGroups, "group", nil, "Lookup group id to grant (repeatable)")
	flags.StringSliceVar(&additions.LookupInsts, "inst", nil, "Lookup institution to grant (repeatable)")
	flags.BoolVar(&additions.IsPublic, "public", false, "Grant everyone, including anonymous users")
	flags.BoolVar(&additions.IsSignedIn, "signed-in", false, "Grant every signed in user")
	flags.BoolVar(&replace, "replace", false, "Overwrite the permission instead of adding to it")
	return cmd
}
