package cmd

import (
	"os"

	"github.com/bianoble/ldh/internal/engine"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [dependency-name...]",
	Short: "Show the state of every dependency",
	Long: `Shows dependency name, selector, recorded ref and version, local path and
state (resolved, missing, pending, removed) for all or named dependencies.
Nothing is fetched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManifest()
		if err != nil {
			return err
		}

		doc, err := loadLockfile()
		if err != nil {
			return err
		}

		root, err := projectRoot()
		if err != nil {
			return err
		}

		statuses := engine.Status(m, doc, root, args)
		if len(statuses) == 0 {
			info("No dependencies declared.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Dependency", "Selector", "Ref", "Version", "Path", "State"})
		for _, s := range statuses {
			t.AppendRow(table.Row{s.Name, s.Selector, s.Ref, shortVersion(s.Version), s.Path, s.State})
		}
		t.SetStyle(table.StyleLight)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
