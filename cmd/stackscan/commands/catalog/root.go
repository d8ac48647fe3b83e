// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package catalog

import (
	"github.com/spf13/cobra"
)

// NewCommand creates the catalog command with all subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "catalog",
		Short:   "Technology catalog management",
		GroupID: "core",
		Long: `Manage the technology signature catalog used for detection.

The catalog is resolved from --catalog.path, then the synced cache, then the
copy embedded in the binary. Use these commands to sync a newer catalog,
validate a catalog file before deploying it, and inspect the active one.`,
		Example: `  # Download the configured catalog into the cache
  stackscan catalog sync

  # Install a catalog from a local file
  stackscan catalog sync --file ./technologies.json

  # Check a catalog file for broken patterns
  stackscan catalog validate ./technologies.yaml

  # Show the catalog detections would use
  stackscan catalog info`,
	}

	// Add subcommands
	cmd.AddCommand(newSyncCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newInfoCommand())

	return cmd
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "table", "Output format (table, json)")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress summaries")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
}
