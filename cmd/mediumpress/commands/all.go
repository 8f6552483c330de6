package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mschroeder/mediumpress/internal/logger"
)

var allCmd = &cobra.Command{
	Use:   "all <target-domain>",
	Short: "Convert every post into one WordPress import file",
	Long: `Convert every HTML document in the input directory into a single
WXR document. Documents that cannot be parsed are skipped with a
warning; the run only fails when nothing at all could be converted.

Examples:
  mediumpress all myblog.com
  mediumpress all https://myblog.com -o import.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runAll,
}

func init() {
	rootCmd.AddCommand(allCmd)

	allCmd.Flags().StringP("output", "o", "wordpress_export.xml", "output file")
}

func runAll(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conv, err := newConverter(args[0])
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("output")
	summary, err := conv.ConvertAll(ctx, outPath)
	if err != nil {
		return err
	}

	if len(summary.Skipped) > 0 {
		logger.Warn("some posts were skipped", "count", len(summary.Skipped))
	}
	logInfo("wrote %d post(s) to %s", summary.Processed, outPath)
	return nil
}
