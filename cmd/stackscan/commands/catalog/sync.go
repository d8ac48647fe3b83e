package catalog

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/stackscan/cmd/stackscan/internal/bind"
	"github.com/vulntor/stackscan/cmd/stackscan/internal/format"
	"github.com/vulntor/stackscan/pkg/appctx"
	"github.com/vulntor/stackscan/pkg/catalog"
	"github.com/vulntor/stackscan/pkg/config"
)

const syncOperation = "sync catalog"

func newSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download or install a catalog into the local cache",
		Long: `Fetch a catalog from a URL or a local file, validate it and store it in
the catalog cache, where detections pick it up when --catalog.path is unset.

A catalog whose version is lower than the cached one is refused unless
--force is given. Running servers pick up the new cache on SIGHUP.`,
		Example: `  # Sync from catalog.url in the config file
  stackscan catalog sync

  # Sync from an explicit URL
  stackscan catalog sync --url https://example.com/technologies.json

  # Install a local file, replacing a newer cached catalog
  stackscan catalog sync --file ./technologies.json --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)
			fail := func(err error) error {
				return formatter.PrintTotalFailureSummary(syncOperation, err, catalog.ErrorCode(err))
			}

			cfg := config.DefaultConfig().Catalog
			if mgr, ok := appctx.Config(cmd.Context()); ok {
				cfg = mgr.Get().Catalog
			}

			opts, err := bind.BindCatalogSyncOptions(cmd, cfg)
			if err != nil {
				return fail(err)
			}
			if opts.CacheDir == "" {
				return fail(catalog.NewStorageDisabledError())
			}

			var source catalog.Source = catalog.FileSource{Path: opts.FilePath}
			origin := opts.FilePath
			retry := catalog.NoRetry()
			if opts.URL != "" {
				source = catalog.HTTPSource{URL: opts.URL}
				origin = opts.URL
				retry = catalog.DefaultRetryConfig()
				retry.MaxAttempts, _ = cmd.Flags().GetInt("retries")
			}

			ctx := cmd.Context()
			if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			svc := catalog.Service{
				Source: source,
				Store:  catalog.FileStore{Path: catalog.CachePath(opts.CacheDir)},
				Force:  opts.Force,
				Retry:  retry,
				Logger: log.Logger,
			}

			res, err := svc.Sync(ctx)
			if err != nil {
				return fail(err)
			}

			if formatter.IsJSON() {
				return formatter.PrintJSON(map[string]any{
					"source":           origin,
					"path":             catalog.CachePath(opts.CacheDir),
					"version":          res.Document.Version,
					"previous_version": res.PreviousVersion,
					"technologies":     res.Compiled.Len(),
					"skipped":          res.Compiled.Skipped(),
					"rejected":         len(res.Document.Rejected),
				})
			}

			subject := "catalog"
			if res.Document.Version != "" {
				subject = "catalog v" + res.Document.Version
			}
			return formatter.PrintSuccessSummary("sync", subject, syncDetail(res))
		},
	}

	cmd.Flags().String("file", "", "Install the catalog from a local file")
	cmd.Flags().String("url", "", "Download the catalog from a URL (default catalog.url)")
	cmd.Flags().String("cache-dir", "", "Catalog cache directory (default catalog.cache_dir)")
	cmd.Flags().Bool("force", false, "Replace a newer cached catalog")
	cmd.Flags().Duration("timeout", 0, "Overall sync timeout including retries (0 disables)")
	cmd.Flags().Int("retries", catalog.DefaultRetryConfig().MaxAttempts, "Download attempts for --url sources")
	addOutputFlags(cmd)

	return cmd
}

func syncDetail(res *catalog.SyncResult) string {
	detail := "(" + plural(res.Compiled.Len(), "technology", "technologies")
	if n := res.Compiled.Skipped(); n > 0 {
		detail += ", " + plural(n, "pattern", "patterns") + " skipped"
	}
	if n := len(res.Document.Rejected); n > 0 {
		detail += ", " + plural(n, "entry", "entries") + " rejected"
	}
	detail += ")"
	if res.PreviousVersion != "" && res.PreviousVersion != res.Document.Version {
		detail += " replacing v" + res.PreviousVersion
	}
	return detail
}
