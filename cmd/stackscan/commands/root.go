package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	catalogCmd "github.com/vulntor/stackscan/cmd/stackscan/commands/catalog"
	serverCmd "github.com/vulntor/stackscan/cmd/stackscan/commands/server"
	"github.com/vulntor/stackscan/pkg/appctx"
	"github.com/vulntor/stackscan/pkg/config"
	"github.com/vulntor/stackscan/pkg/logging"
	"github.com/vulntor/stackscan/pkg/paths"
)

const cliExecutable = "stackscan"

// errConfigLoad marks failures of the layered configuration load.
var errConfigLoad = errors.New("load configuration")

// NewCommand constructs the top-level stackscan CLI command, wiring global
// flags, configuration loading and logging for every subcommand.
func NewCommand() *cobra.Command {
	var (
		configFile string
		logFile    io.Closer
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "stackscan identifies the technologies behind a website",
		Long: `stackscan fetches a page and matches its headers, cookies, HTML, scripts
and meta tags against a catalog of technology signatures.

Run a one-off detection with 'stackscan detect <url>' or expose the same
engine over HTTP with 'stackscan server start'.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if path == "" && !cmd.Flags().Changed("config") {
				path = paths.ConfigFile()
			}

			mgr := config.NewManager()
			if err := mgr.Load(cmd.Flags(), path); err != nil {
				return fmt.Errorf("%w: %w", errConfigLoad, err)
			}
			cfg := mgr.Get()

			logFormat := cfg.Log.Format
			if cfg.Log.File != "" {
				closer, err := logging.ConfigureLogFile(cfg.Log.File, logFormat)
				if err != nil {
					return fmt.Errorf("%w: %w", errConfigLoad, err)
				}
				logFile = closer
				// keep the file writer installed above
				logFormat = ""
			}
			if err := logging.ConfigureGlobalLogging(cfg.Log.Level, logFormat); err != nil {
				return fmt.Errorf("%w: %w", errConfigLoad, err)
			}

			ctx := appctx.WithConfig(cmd.Context(), mgr)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logFile != nil {
				return logFile.Close()
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path (default "+paths.ConfigFile()+")")
	config.BindFlags(cmd.PersistentFlags())
	config.BindCatalogFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "detect", Title: "Detection Commands"})
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands"})

	cmd.AddCommand(newDetectCommand())
	cmd.AddCommand(serverCmd.NewCommand())
	cmd.AddCommand(catalogCmd.NewCommand())
	cmd.AddCommand(newVersionCommand(cliExecutable))

	return cmd
}
