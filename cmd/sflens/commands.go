package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	forceRefresh bool
	streamEvents bool
	jsonOutput   bool
	hubUsername  string
	exportFormat string
	exportDir    string

	rootCmd = &cobra.Command{
		Use:   "sflens",
		Short: "Inspect and clean up Salesforce DevHubs, scratch orgs and snapshots",
		Long: `sflens aggregates what the Salesforce CLI knows about your DevHubs:
scratch-org limits, editions, org snapshots and the scratch orgs they own.
Run "sflens serve" for the panel backend, or use the one-shot commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket backend for the panel",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in cmd_serve.go
	}

	// --- Read ---
	devHubsCmd = &cobra.Command{
		Use:     "devhubs",
		Short:   "List authorized DevHubs with their scratch-org limits",
		Aliases: []string{"hubs"},
		Args:    cobra.NoArgs,
		RunE:    runDevHubs, // Defined in cmd_orgs.go
	}
	scratchOrgsCmd = &cobra.Command{
		Use:   "scratch-orgs [devhub-username]",
		Short: "List the scratch orgs recorded by a DevHub",
		Args:  cobra.ExactArgs(1),
		RunE:  runScratchOrgs, // Defined in cmd_orgs.go
	}
	snapshotsCmd = &cobra.Command{
		Use:   "snapshots [devhub-username]",
		Short: "List the org snapshots of a DevHub",
		Args:  cobra.ExactArgs(1),
		RunE:  runSnapshots, // Defined in cmd_orgs.go
	}

	// --- Delete ---
	deleteCmd = &cobra.Command{
		Use:   "delete",
		Short: "Delete scratch orgs or snapshots",
	}
	deleteScratchOrgsCmd = &cobra.Command{
		Use:   "scratch-orgs [id...]",
		Short: "Delete scratch orgs by ScratchOrgInfo id",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDeleteScratchOrgs, // Defined in cmd_delete.go
	}
	deleteSnapshotsCmd = &cobra.Command{
		Use:   "snapshots [id...]",
		Short: "Delete org snapshots by id",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDeleteSnapshots, // Defined in cmd_delete.go
	}

	exportCmd = &cobra.Command{
		Use:   "export [devhub-username]",
		Short: "Export the scratch orgs of a DevHub to csv, json or yaml",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport, // Defined in cmd_export.go
	}

	// --- Cache ---
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Manage the persisted org snapshot",
	}
	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove the snapshot file and the redis mirror",
		Args:  cobra.NoArgs,
		RunE:  runCacheClear, // Defined in cmd_cache.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run:   runVersion, // Defined in cmd_cache.go
	}
)

func init() {
	devHubsCmd.Flags().BoolVar(&forceRefresh, "force", false, "Bypass every cache and ask the CLI again")
	devHubsCmd.Flags().BoolVar(&streamEvents, "stream", false, "Print panel events as JSON lines while data arrives")
	for _, c := range []*cobra.Command{devHubsCmd, scratchOrgsCmd, snapshotsCmd, deleteScratchOrgsCmd, deleteSnapshotsCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	}

	for _, c := range []*cobra.Command{deleteScratchOrgsCmd, deleteSnapshotsCmd} {
		c.Flags().StringVar(&hubUsername, "hub", "", "DevHub username owning the records")
		_ = c.MarkFlagRequired("hub")
	}
	deleteCmd.AddCommand(deleteScratchOrgsCmd, deleteSnapshotsCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Export format: csv, json or yaml")
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", "", "Directory to write to (defaults to the configured export dir)")

	cacheCmd.AddCommand(cacheClearCmd)

	rootCmd.AddCommand(
		serveCmd,
		devHubsCmd,
		scratchOrgsCmd,
		snapshotsCmd,
		deleteCmd,
		exportCmd,
		cacheCmd,
		versionCmd,
	)
}
