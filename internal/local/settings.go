package local

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lumahq/luma/internal/defaults"
)

// Settings holds local configuration that can't live in the embedded yaml,
// most importantly the JWT signing secret generated on first run.
type Settings struct {
	AccessSecret string `json:"accessSecret"`
}

// settingsPath returns the path to the local settings file
func settingsPath() (string, error) {
	dataDir, err := defaults.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "settings.json"), nil
}

// LoadSettings loads local settings, creating defaults if needed
func LoadSettings() (*Settings, error) {
	path, err := settingsPath()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if err == nil {
		var settings Settings
		if err := json.Unmarshal(data, &settings); err == nil {
			// Ensure secret exists (upgrade from older settings)
			if settings.AccessSecret == "" {
				settings.AccessSecret = generateSecret()
				if err := SaveSettings(&settings); err != nil {
					return nil, err
				}
			}
			return &settings, nil
		}
	}

	settings := Settings{AccessSecret: generateSecret()}
	if err := SaveSettings(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings persists settings to disk
func SaveSettings(settings *Settings) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// generateSecret creates a cryptographically secure random secret
func generateSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to less secure but still random
		return fmt.Sprintf("luma-%d", os.Getpid())
	}
	return hex.EncodeToString(bytes)
}
