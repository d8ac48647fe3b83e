package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/stackscan/cmd/stackscan/internal/bind"
	"github.com/vulntor/stackscan/cmd/stackscan/internal/format"
	"github.com/vulntor/stackscan/pkg/appctx"
	"github.com/vulntor/stackscan/pkg/config"
	"github.com/vulntor/stackscan/pkg/server/api"
	v1 "github.com/vulntor/stackscan/pkg/server/api/v1"
	"github.com/vulntor/stackscan/pkg/stringutil"
)

// ErrTechnologyNotFound is returned when info is asked about an unknown technology.
var ErrTechnologyNotFound = errors.New("technology not found")

func newInfoCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "info [technology]",
		Short: "Show the active catalog or one of its technologies",
		Long: `Resolve the catalog the same way 'detect' and 'server start' do and print
where it came from, its version and how many technologies it holds.

With a technology name, print that entry's categories, links and the
signals it is matched on.`,
		Example: `  # Summary of the active catalog
  stackscan catalog info

  # List every technology name
  stackscan catalog info --list

  # Inspect one entry
  stackscan catalog info WordPress`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			cfg := config.DefaultConfig().Catalog
			if mgr, ok := appctx.Config(cmd.Context()); ok {
				cfg = mgr.Get().Catalog
			}
			compiled := bind.LoadCatalog(cfg, log.Logger)

			if len(args) == 1 {
				sig, ok := compiled.Signature(args[0])
				if !ok {
					err := fmt.Errorf("%w: %s", ErrTechnologyNotFound, args[0])
					return formatter.PrintTotalFailureSummary("show technology", err, "TECHNOLOGY_NOT_FOUND")
				}
				info := v1.NewTechnologyInfo(sig)
				if formatter.IsJSON() {
					return formatter.PrintJSON(info)
				}
				return formatter.PrintTable([]string{"FIELD", "VALUE"}, [][]string{
					{"Name", info.Name},
					{"Categories", joinInts(info.Categories)},
					{"Website", dash(info.Website)},
					{"Icon", dash(info.Icon)},
					{"Signals", dash(strings.Join(info.Signals, ", "))},
					{"Description", dash(stringutil.Ellipsis(info.Description, 100))},
				})
			}

			if list {
				names := compiled.Names()
				if formatter.IsJSON() {
					if names == nil {
						names = []string{}
					}
					return formatter.PrintJSON(names)
				}
				for _, name := range names {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
						return err
					}
				}
				return nil
			}

			stats := api.NewCatalogStats(compiled)
			if formatter.IsJSON() {
				return formatter.PrintJSON(stats)
			}
			return formatter.PrintTable([]string{"FIELD", "VALUE"}, [][]string{
				{"Source", dash(stats.Source)},
				{"Version", dash(stats.Version)},
				{"Technologies", strconv.Itoa(stats.Technologies)},
				{"Skipped patterns", strconv.Itoa(stats.Skipped)},
				{"Loaded", dash(stats.LoadedAt)},
			})
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List technology names in evaluation order")
	addOutputFlags(cmd)

	return cmd
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return dash(strings.Join(parts, ", "))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
