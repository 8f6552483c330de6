package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the posts found in the export directory",
	Long: `List every HTML document in the input directory, numbered in the
order the other commands use. The numbers are valid targets for
'mediumpress single'.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	initLogger()

	// list never rewrites links, so any syntactically valid domain works
	conv, err := newConverter("example.com")
	if err != nil {
		return err
	}

	entries, err := conv.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, e := range entries {
		title := e.Title
		if title == "" {
			title = "(unreadable)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, title, e.File)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	logInfo("%d post(s) found", len(entries))
	return nil
}
