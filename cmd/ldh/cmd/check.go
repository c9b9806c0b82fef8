package cmd

import (
	"fmt"

	"github.com/bianoble/ldh/internal/engine"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that checkouts match the lockfile",
	Long: `Opens every checkout recorded in the lockfile and compares its HEAD with the
recorded version. Exit 0 if everything matches; exit non-zero on drift or
missing directories. Suitable for CI pipelines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadLockfile()
		if err != nil {
			return err
		}

		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		result, err := engine.Check(cmd.Context(), ws.registry, doc, ws.root)
		if err != nil {
			return err
		}

		for _, e := range result.Failed {
			errorf("%s", e)
		}

		if result.Clean {
			info("All dependencies match the lockfile.")
			return nil
		}

		for _, d := range result.Drifted {
			info("  drifted   %s (%s)", d.Name, d.Path)
			detail("expected: %s", d.Expected)
			detail("actual:   %s", d.Actual)
		}
		for _, m := range result.Missing {
			info("  missing   %s", m)
		}

		total := len(result.Drifted) + len(result.Missing) + len(result.Failed)
		return fmt.Errorf("check failed: %d dependency(ies) out of sync", total)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
