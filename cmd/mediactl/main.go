package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/app"
	"github.com/charlesng35/mediaplatform/internal/auditctx"
	"github.com/charlesng35/mediaplatform/internal/database"
	"github.com/charlesng35/mediaplatform/internal/services"
)

func main() {
	if err := newRootCmd(&cli{}).Execute(); err != nil {
		os.Exit(1)
	}
}

// cli holds state shared by every command. The database is opened lazily so
// commands that only need configuration, such as token, never touch it.
type cli struct {
	configPath string
	cfg        *app.Config
	db         *gorm.DB
	audit      *services.AuditService
	ownsDB     bool
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:          "mediactl",
		Short:        "Administrative tool for the media platform catalog",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(auditctx.WithActor(cmd.Context(), auditctx.Actor{Source: "mediactl"}))
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to configuration directory")

	root.AddCommand(newBillingCmd(c))
	root.AddCommand(newPermissionsCmd(c))
	root.AddCommand(newPurgeCmd(c))
	root.AddCommand(newTokenCmd(c))
	return root
}

func (c *cli) config() (*app.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	var paths []string
	if path := strings.TrimSpace(c.configPath); path != "" {
		paths = append(paths, path)
	}
	cfg, err := app.LoadConfig(paths...)
	if err != nil {
		return nil, err
	}
	if err := app.ConfigureLogging(app.ServerConfig{LogLevel: "warn", LogFormat: "console"}); err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *cli) database() (*gorm.DB, error) {
	if c.db != nil {
		return c.db, nil
	}

	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.Database.ConnectionConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	c.db, c.ownsDB = db, true
	return db, nil
}

func (c *cli) auditService() (*services.AuditService, error) {
	if c.audit != nil {
		return c.audit, nil
	}
	db, err := c.database()
	if err != nil {
		return nil, err
	}
	c.audit, err = services.NewAuditService(db)
	return c.audit, err
}

func (c *cli) close() error {
	if !c.ownsDB || c.db == nil {
		return nil
	}
	err := database.Close(c.db)
	c.db, c.audit, c.ownsDB = nil, nil, false
	return err
}

func printJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
