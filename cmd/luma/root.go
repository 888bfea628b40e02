package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lumahq/luma/internal/config"
	"github.com/lumahq/luma/internal/defaults"
)

// Shared CLI flags (used across multiple command files)
var (
	modelsFile string
	verbose    bool
)

// ServerConfig holds the loaded server configuration (set by main)
var ServerConfig *config.Config

// Version is set at build time via ldflags.
var Version = "dev"

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	ServerConfig = c

	rootCmd := &cobra.Command{
		Use:   "luma",
		Short: "Luma - personal AI assistant server",
		Long: `Luma is the assistant backend of a personal productivity app.

Just type 'luma' to start the server.`,
		Version: Version,
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}

	rootCmd.PersistentFlags().StringVar(&modelsFile, "models", "", "model pricing file (hot-reloaded on change)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(ModelsCmd())

	return rootCmd
}

// modelsPath resolves the pricing file: the --models flag wins, then the
// copy seeded into the data directory on first run.
func modelsPath() string {
	if modelsFile != "" {
		return modelsFile
	}
	dir, err := defaults.DataDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "models.yaml")
}
