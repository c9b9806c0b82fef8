package cmd

import (
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the manifest, lockfile and settings",
	Long: `Parses and validates the manifest, the lockfile (if present) and the
effective settings without touching the network or the dependency root.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManifest()
		if err != nil {
			return err
		}
		detail("manifest: %d dependency(ies)", len(m.Dependencies))

		doc, err := loadLockfile()
		if err != nil {
			return err
		}
		detail("lockfile: %d package(s)", len(doc.Packages))

		root, err := projectRoot()
		if err != nil {
			return err
		}
		hr, err := loadSettings(root)
		if err != nil {
			return err
		}
		detail("dependency root: %s", hr.Settings.RootDir(root))

		info("%s is valid.", manifestPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
