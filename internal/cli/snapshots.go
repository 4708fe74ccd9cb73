package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/flexiflow/persist"
	"github.com/roach88/flexiflow/persist/sqlite"
)

// NewSnapshotsCommand creates the snapshots command group.
func NewSnapshotsCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Manage component snapshots in a sqlite database",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "flexiflow.db", "path to the snapshot database")

	cmd.AddCommand(newSnapshotsSaveCommand(rootOpts, &dbPath))
	cmd.AddCommand(newSnapshotsListCommand(rootOpts, &dbPath))
	cmd.AddCommand(newSnapshotsRestoreCommand(rootOpts, &dbPath))
	cmd.AddCommand(newSnapshotsPruneCommand(rootOpts, &dbPath))
	return cmd
}

func newSnapshotsSaveCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "save",
		Short:         "Snapshot the configured component",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.newFormatter(cmd)

			env, err := buildRuntime(rootOpts)
			if err != nil {
				formatter.Failure(err)
				return WrapExitError(ExitCommandError, "snapshot save failed", err)
			}

			store, err := sqlite.Open(*dbPath)
			if err != nil {
				formatter.Failure(err)
				return WrapExitError(ExitCommandError, "open snapshot db failed", err)
			}
			defer store.Close()

			snapshot := persist.Capture(env.component, map[string]any{"source": "cli"})
			id, err := store.SaveSnapshot(cmd.Context(), snapshot, time.Now())
			if err != nil {
				formatter.Failure(err)
				return WrapExitError(ExitFailure, "snapshot save failed", err)
			}

			if rootOpts.Format == "json" {
				return formatter.Success(map[string]any{
					"id":        id,
					"component": snapshot.Name,
					"state":     snapshot.CurrentState,
				})
			}
			return formatter.Success(fmt.Sprintf("saved snapshot %d for %s (state: %s)",
				id, snapshot.Name, snapshot.CurrentState))
		},
	}
}

func newSnapshotsListCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "list <component-name>",
		Short:         "List snapshots for a component, newest first",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.newFormatter(cmd)

			store, err := sqlite.Open(*dbPath)
			if err != nil {
				formatter.Failure(err)
				return WrapExitError(ExitCommandError, "open snapshot db failed", err)
			}
			defer store.Close()

			if limit <= 0 {
				limit = -1 // SQLite: no limit
			}
			infos, err := store.ListSnapshots(cmd.Context(), args[0], limit)
			if err != nil {
				formatter.Failure(err)
				return WrapExitError(ExitFailure, "snapshot list failed", err)
			}

			if rootOpts.Format == "json" {
				return formatter.Success(infos)
			}
			if len(infos) == 0 {
				return formatter.Success("no snapshots for " + args[0])
			}
			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n",
					info.ID, info.CreatedAt, info.CurrentState)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum snapshots to list (0 for all)")
	return cmd
}

func newSnapshotsRestoreCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "restore <component-name>",
		Short:         "Restore a component from its latest snapshot",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.newFormatter(cmd)

			env, err := buildRuntime(rootOpts)
			if err != nil {
				formatter.Failure(err)
				return WrapExitError(ExitCommandError, "snapshot restore failed", err)
			}

			store, err := sqlite.Open(*dbPath)
			if err != nil {
				formatter.Failure(err)
				return WrapExitError(ExitCommandError, "open snapshot db failed", err)
			}
			defer store.Close()

			snapshot, ok, err := store.LatestSnapshot(cmd.Context(), args[0])
			if err != nil {
				formatter.Failure(err)
				return WrapExitError(ExitFailure, "snapshot restore failed", err)
			}
			if !ok {
				err := NewExitError(ExitFailure, "no snapshot found for "+args[0])
				formatter.Failure(err)
				return err
			}

			comp, err := persist.RestoreComponent(snapshot, env.engine, env.registry)
			if err != nil {
				formatter.Failure(err)
				return WrapExitError(ExitFailure, "snapshot restore failed", err)
			}

			if rootOpts.Format == "json" {
				return formatter.Success(map[string]any{
					"component": comp.Name(),
					"state":     comp.Machine().Current().Name(),
				})
			}
			return formatter.Success(fmt.Sprintf("restored %s (state: %s)",
				comp.Name(), comp.Machine().Current().Name()))
		},
	}
}

func newSnapshotsPruneCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:           "prune <component-name>",
		Short:         "Delete old snapshots, keeping the most recent ones",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.newFormatter(cmd)

			store, err := sqlite.Open(*dbPath)
			if err != nil {
				formatter.Failure(err)
				return WrapExitError(ExitCommandError, "open snapshot db failed", err)
			}
			defer store.Close()

			deleted, err := store.PruneSnapshots(cmd.Context(), args[0], keep)
			if err != nil {
				formatter.Failure(err)
				return WrapExitError(ExitFailure, "snapshot prune failed", err)
			}

			if rootOpts.Format == "json" {
				return formatter.Success(map[string]any{"deleted": deleted, "kept": keep})
			}
			return formatter.Success(fmt.Sprintf("deleted %d snapshot(s)", deleted))
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 10, "number of most recent snapshots to keep")
	return cmd
}
