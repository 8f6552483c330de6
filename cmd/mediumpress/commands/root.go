// Package commands implements the CLI commands for mediumpress.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mschroeder/mediumpress/internal/converter"
	"github.com/mschroeder/mediumpress/internal/logger"
	"github.com/mschroeder/mediumpress/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "mediumpress",
	Version: version.String(),
	Short:   "Convert Medium HTML exports to a WordPress import file",
	Long: `Mediumpress converts the HTML files from a Medium data export into
WordPress WXR documents ready for Tools > Import.

Point it at the posts/ directory of an unpacked Medium export, give it
the domain of the target WordPress site, and it rewrites internal links,
assigns categories and tags, and resolves image references to upload
paths on the new site.

Examples:
  # List the posts found in the export
  mediumpress list

  # Convert everything into one import file
  mediumpress all myblog.com

  # Convert a single post, by number or filename
  mediumpress single 3 myblog.com
  mediumpress single 2019-07-04_My-Post-abc123def456.html myblog.com

  # Keep the export but skip image downloads
  mediumpress all myblog.com --no-images`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.mediumpress.yaml)")
	rootCmd.PersistentFlags().StringP("input-dir", "i", "export_htmls", "directory containing the Medium export HTML files")
	rootCmd.PersistentFlags().String("images-dir", "wordpress_images", "directory for downloaded images")
	rootCmd.PersistentFlags().Bool("no-images", false, "skip downloading images")
	rootCmd.PersistentFlags().String("keywords", "", "YAML file overriding the built-in category keyword table")
	rootCmd.PersistentFlags().String("author", "Admin", "author login for exported posts")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("input_dir", rootCmd.PersistentFlags().Lookup("input-dir"))
	_ = viper.BindPFlag("images_dir", rootCmd.PersistentFlags().Lookup("images-dir"))
	_ = viper.BindPFlag("no_images", rootCmd.PersistentFlags().Lookup("no-images"))
	_ = viper.BindPFlag("keywords", rootCmd.PersistentFlags().Lookup("keywords"))
	_ = viper.BindPFlag("author", rootCmd.PersistentFlags().Lookup("author"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".mediumpress")
		viper.SetConfigType("yaml")
	}

	// Environment variables, e.g. MEDIUMPRESS_INPUT_DIR
	viper.SetEnvPrefix("MEDIUMPRESS")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// initLogger wires the logger to the global flags. Called by every
// command's RunE before it does anything else.
func initLogger() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug") || viper.GetBool("verbose"),
		Quiet: viper.GetBool("quiet"),
	})
}

// newConverter builds a converter from the global flags plus the
// target domain.
func newConverter(targetDomain string) (*converter.Converter, error) {
	return converter.New(converter.Options{
		InputDir:       viper.GetString("input_dir"),
		TargetDomain:   targetDomain,
		ImagesDir:      viper.GetString("images_dir"),
		DownloadImages: !viper.GetBool("no_images"),
		KeywordsFile:   viper.GetString("keywords"),
		Author:         viper.GetString("author"),
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
