package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bianoble/ldh/internal/manifest"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter ldh.toml manifest",
	Long: `Creates an ldh.toml file in the current directory with a package section,
one pinned git dependency and commented examples of the other selectors.

Use --force to overwrite an existing manifest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := manifestPath
		if !filepath.IsAbs(outPath) {
			abs, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		if err := os.WriteFile(outPath, []byte(manifest.InitTemplate), 0644); err != nil {
			return fmt.Errorf("writing manifest: %w", err)
		}

		info("Created %s", outPath)
		info("")
		info("Next steps:")
		info("  1. Edit the file to declare your dependencies")
		info("  2. Run 'ldh update' to fetch them and write ldh.lock")
		info("  3. Run 'ldh check' in CI to verify checkouts")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing manifest")
	rootCmd.AddCommand(initCmd)
}
