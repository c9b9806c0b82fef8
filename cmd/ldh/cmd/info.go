package cmd

import (
	"fmt"

	"github.com/bianoble/ldh/internal/engine"
	"github.com/bianoble/ldh/internal/store"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information about ldh settings and the dependency root",
	Long: `Displays the ldh version, manifest and lockfile paths, the settings chain,
the effective range policy and git binary, and the dependency root with its
size.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}

		// ok if settings fail to load; report what is known
		hr, _ := loadSettings(root)
		var st *store.Store
		if hr != nil && hr.Settings != nil {
			st, _ = newStore(hr.Settings, root)
		}

		result, err := engine.Info(version, hr, st, manifestPath, lockfilePath)
		if err != nil {
			return err
		}

		fmt.Printf("ldh %s\n", result.Version)
		fmt.Printf("  manifest:      %s\n", result.ManifestPath)
		fmt.Printf("  lockfile:      %s\n", result.LockPath)

		if len(result.SettingsChain) > 0 {
			fmt.Println("  settings chain:")
			for _, layer := range result.SettingsChain {
				status := "not found"
				if layer.Loaded {
					status = "loaded"
				}
				fmt.Printf("    %-10s %s (%s)\n", layer.Level+":", layer.Path, status)
			}
		}

		fmt.Printf("  range policy:  %s\n", result.RangePolicy)
		fmt.Printf("  git binary:    %s\n", result.GitBinary)
		fmt.Printf("  dep root:      %s\n", result.DependencyRoot)
		fmt.Printf("  entries:       %d\n", result.StoreEntries)
		fmt.Printf("  size:          %s\n", humanSize(result.StoreSize))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
