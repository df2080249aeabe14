// Package cli implements the confsync command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/confsync/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	verboseFlag bool
	configDir   string
)

var rootCmd = &cobra.Command{
	Use:   "confsync",
	Short: "Incremental Confluence sync and search",
	Long: `confsync keeps a local index in step with a Confluence site.
Each run fetches only the pages modified since the last completed sync,
normalises their content, chunks it, and writes embeddings to the
configured vector index.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.confsync)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}
