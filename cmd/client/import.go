package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [workbook.xlsx]",
	Short: "Upload and import an Excel workbook",
	Long:  "Upload a workbook to the server. Use --dry-run to see what an import would do without writing anything.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var importDryRun bool

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse and resolve without writing")
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	report, err := c.Import(cmd.Context(), filepath.Base(args[0]), data, importDryRun)
	if err != nil {
		return err
	}

	if report.DryRun {
		fmt.Println("Dry run - nothing written.")
	}
	fmt.Printf("Event: %s (created: %v)\n", report.EventID, report.EventCreated)
	fmt.Printf("Participants: %d created, %d updated, %d assigned\n",
		report.Created, report.Updated, report.Assigned)

	if len(report.Errors) > 0 {
		fmt.Printf("\n%d rows rejected:\n", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Printf("  line %d (%s): %s\n", e.Line, e.Name, e.Reason)
		}
	}
	return nil
}
