package commands

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var singleCmd = &cobra.Command{
	Use:   "single <number|filename> <target-domain>",
	Short: "Convert one post into its own import file",
	Long: `Convert a single HTML document into a WXR document of its own. The
post is addressed either by its number in 'mediumpress list' output or
by filename. Unlike 'all', a document that cannot be parsed fails the
command.

Examples:
  mediumpress single 3 myblog.com
  mediumpress single 2019-07-04_My-Post-abc123def456.html myblog.com`,
	Args: cobra.ExactArgs(2),
	RunE: runSingle,
}

func init() {
	rootCmd.AddCommand(singleCmd)

	singleCmd.Flags().StringP("output", "o", "", "output file (default: <post-basename>.xml)")
}

func runSingle(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conv, err := newConverter(args[1])
	if err != nil {
		return err
	}

	file, err := conv.ResolveTarget(args[0])
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		outPath = strings.TrimSuffix(file, ".html") + ".xml"
	}

	summary, err := conv.ConvertSingle(ctx, file, outPath)
	if err != nil {
		return err
	}

	logInfo("wrote %d post(s) to %s", summary.Processed, outPath)
	return nil
}
