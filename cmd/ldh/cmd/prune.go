package cmd

import (
	"fmt"

	"github.com/bianoble/ldh/internal/engine"
	"github.com/spf13/cobra"
)

var (
	pruneDryRun  bool
	pruneOrphans bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove dependencies no longer declared in the manifest",
	Long: `Removes the directories of lockfile entries that the manifest no longer
declares and drops them from the lockfile. With --orphans, directories in the
dependency root that no lockfile entry references are removed as well.
Use --dry-run to see what would be removed without acting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManifest()
		if err != nil {
			return err
		}

		doc, err := loadLockfile()
		if err != nil {
			return err
		}

		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		eng := &engine.PruneEngine{
			Store:       ws.store,
			ProjectRoot: ws.root,
		}

		opts := engine.PruneOptions{DryRun: pruneDryRun, Orphans: pruneOrphans}
		result, err := eng.Prune(cmd.Context(), m, doc, opts)
		if err != nil {
			return err
		}

		if pruneDryRun {
			info("Dry run, nothing removed.")
		}

		for _, e := range result.Failed {
			errorf("%s", e)
		}

		if len(result.Removed) == 0 {
			info("Nothing to prune.")
		} else {
			for _, a := range result.Removed {
				info("  %s  %s", a.Action, a.Path)
			}
			info("\nPruned %d dependency(ies).", len(result.Removed))
		}

		if result.Lock != nil {
			if err := saveLockfile(result.Lock); err != nil {
				return fmt.Errorf("saving lockfile: %w", err)
			}
		}

		if len(result.Failed) > 0 {
			return fmt.Errorf("%d error(s) during prune", len(result.Failed))
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "show what would be removed without acting")
	pruneCmd.Flags().BoolVar(&pruneOrphans, "orphans", false, "also remove unreferenced directories in the dependency root")
	rootCmd.AddCommand(pruneCmd)
}
