package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	cli "github.com/lumahq/luma/cmd/luma"
	"github.com/lumahq/luma/internal/config"
	"github.com/lumahq/luma/internal/defaults"
	"github.com/lumahq/luma/internal/local"
)

//go:embed etc/luma.yaml
var embeddedConfig []byte

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Load embedded config (defaults)
	c, err := config.LoadFromBytes(embeddedConfig)
	if err != nil {
		fmt.Printf("Failed to load embedded config: %v\n", err)
		os.Exit(1)
	}

	// Override database path to use <data_dir>/data/luma.db
	dataDir, err := defaults.EnsureDataDir()
	if err == nil {
		dbDir := filepath.Join(dataDir, "data")
		os.MkdirAll(dbDir, 0755)
		c.Database.SQLitePath = filepath.Join(dbDir, "luma.db")
	}

	// Load local settings (auto-generates JWT secret on first run)
	if c.Auth.AccessSecret == "" {
		settings, err := local.LoadSettings()
		if err != nil {
			fmt.Printf("Failed to load local settings: %v\n", err)
			os.Exit(1)
		}
		c.Auth.AccessSecret = settings.AccessSecret
	}

	// Pass config to CLI and execute
	if err := cli.SetupRootCmd(&c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
