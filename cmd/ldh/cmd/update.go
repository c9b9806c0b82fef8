package cmd

import (
	"fmt"

	"github.com/bianoble/ldh/internal/engine"
	"github.com/spf13/cobra"
)

var (
	updateDryRun  bool
	updateNoPrune bool
)

var updateCmd = &cobra.Command{
	Use:   "update [dependency-name...]",
	Short: "Resolve dependencies and update the lockfile",
	Long: `Reconciles the manifest with the lockfile, clones or reuses a checkout for
every declared dependency and writes the resolved state to the lockfile.
Directories of dependencies no longer declared are removed unless --no-prune
is given. If names are provided, only those dependencies are resolved; others
keep their recorded state.`,
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

		eng := &engine.UpdateEngine{
			Resolver:    ws.resolver(),
			ProjectRoot: ws.root,
		}

		opts := engine.UpdateOptions{
			Names:  args,
			DryRun: updateDryRun,
			Prune:  !updateNoPrune,
		}

		result, err := eng.Update(cmd.Context(), m, doc, opts)
		if err != nil {
			return err
		}

		if updateDryRun {
			printPlan(result.Plan)
			info("\nDry run, lockfile not modified.")
			return nil
		}

		for _, a := range result.Resolved {
			info("  %-20s  %-8s %s (%s)", a.Name, a.Action, a.Ref, shortVersion(a.Version))
			detail("path: %s", a.Path)
		}
		for _, a := range result.Skipped {
			detail("%-20s  %s", a.Name, a.Action)
		}
		for _, a := range result.Removed {
			info("  %-20s  removed  %s", a.Name, a.Path)
		}
		for _, e := range result.Failed {
			errorf("%s", e)
		}

		if result.Lock != nil {
			if err := saveLockfile(result.Lock); err != nil {
				return fmt.Errorf("saving lockfile: %w", err)
			}
			info("\nLockfile updated.")
		}

		if len(result.Failed) > 0 {
			return fmt.Errorf("%d dependency(ies) failed", len(result.Failed))
		}
		return nil
	},
}

func printPlan(plan *engine.Reconciliation) {
	if plan == nil {
		return
	}
	if len(plan.Added) == 0 && len(plan.Removed) == 0 {
		info("All dependencies are recorded in the lockfile.")
	}
	for _, d := range plan.Matched {
		detail("%-20s  locked at %s", d.Name, shortVersion(d.Locked.ResolvedVersion))
	}
	for _, d := range plan.Added {
		info("  + %-20s  %s", d.Name, d.Input.Selector)
	}
	for _, d := range plan.Removed {
		info("  - %-20s  %s", d.Name, d.Locked.LocalPath)
	}
}

func init() {
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "show what would change without touching the dependency root or lockfile")
	updateCmd.Flags().BoolVar(&updateNoPrune, "no-prune", false, "keep directories of dependencies no longer declared")
	rootCmd.AddCommand(updateCmd)
}
