package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration, loaded from YAML with
// environment variable expansion. LUMA_* variables override the cost
// ceilings and provider keys after parsing.
type Config struct {
	Port int `yaml:"port"`

	App struct {
		Name           string `yaml:"name"`
		Domain         string `yaml:"domain"`
		ProductionMode string `yaml:"productionMode"`
	} `yaml:"app"`

	Auth struct {
		AccessSecret  string `yaml:"accessSecret"`
		TrustedIssuer string `yaml:"trustedIssuer"`
	} `yaml:"auth"`

	Database struct {
		SQLitePath string `yaml:"sqlitePath"`
	} `yaml:"database"`

	Assistant struct {
		DefaultModel       string  `yaml:"defaultModel"`
		SummaryModel       string  `yaml:"summaryModel"`
		AnalysisModel      string  `yaml:"analysisModel"`
		MaxContextMessages int     `yaml:"maxContextMessages"`
		SummaryThreshold   int     `yaml:"summaryThreshold"`
		MaxOutputTokens    int     `yaml:"maxOutputTokens"`
		RequestTimeoutSecs int     `yaml:"requestTimeoutSecs"`
		Limits             Limits  `yaml:"limits"`
		WarnRatio          float64 `yaml:"warnRatio"`
	} `yaml:"assistant"`

	Providers struct {
		OpenAI struct {
			APIKey  string `yaml:"apiKey"`
			BaseURL string `yaml:"baseUrl"`
		} `yaml:"openai"`
		Anthropic struct {
			APIKey string `yaml:"apiKey"`
		} `yaml:"anthropic"`
		Ollama struct {
			BaseURL string `yaml:"baseUrl"`
		} `yaml:"ollama"`
	} `yaml:"providers"`

	Embeddings struct {
		Provider   string `yaml:"provider"` // "openai" or "ollama"
		Model      string `yaml:"model"`
		Dimensions int    `yaml:"dimensions"`
	} `yaml:"embeddings"`

	Voice struct {
		TranscribeModel string `yaml:"transcribeModel"`
		TTSModel        string `yaml:"ttsModel"`
		TTSVoice        string `yaml:"ttsVoice"`
	} `yaml:"voice"`
}

// Limits holds the three cost ceilings in dollars. All three are checked
// independently; any one is sufficient to deny a request.
type Limits struct {
	PerRequest float64 `yaml:"perRequest"`
	Daily      float64 `yaml:"daily"`
	Monthly    float64 `yaml:"monthly"`
}

// LoadFromBytes loads configuration from YAML bytes with environment
// variable expansion, then applies defaults and LUMA_* overrides.
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return c, fmt.Errorf("failed to parse config: %w", err)
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8790
	}
	if c.App.Name == "" {
		c.App.Name = "luma"
	}
	if c.App.Domain == "" {
		c.App.Domain = "localhost"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "./data/luma.db"
	}
	a := &c.Assistant
	if a.DefaultModel == "" {
		a.DefaultModel = "gpt-4o-mini"
	}
	if a.SummaryModel == "" {
		a.SummaryModel = "gpt-4o-mini"
	}
	if a.AnalysisModel == "" {
		a.AnalysisModel = "gpt-4o"
	}
	if a.MaxContextMessages == 0 {
		a.MaxContextMessages = 10
	}
	if a.SummaryThreshold == 0 {
		a.SummaryThreshold = 5
	}
	if a.MaxOutputTokens == 0 {
		a.MaxOutputTokens = 1000
	}
	if a.RequestTimeoutSecs == 0 {
		a.RequestTimeoutSecs = 120
	}
	if a.WarnRatio == 0 {
		a.WarnRatio = 0.8
	}
	if a.Limits.PerRequest == 0 {
		a.Limits.PerRequest = 0.50
	}
	if a.Limits.Daily == 0 {
		a.Limits.Daily = 5.00
	}
	if a.Limits.Monthly == 0 {
		a.Limits.Monthly = 50.00
	}
	if c.Providers.Ollama.BaseURL == "" {
		c.Providers.Ollama.BaseURL = "http://localhost:11434"
	}
	if c.Embeddings.Provider == "" {
		c.Embeddings.Provider = "openai"
	}
	if c.Voice.TranscribeModel == "" {
		c.Voice.TranscribeModel = "whisper-1"
	}
	if c.Voice.TTSModel == "" {
		c.Voice.TTSModel = "tts-1"
	}
	if c.Voice.TTSVoice == "" {
		c.Voice.TTSVoice = "alloy"
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.Providers.OpenAI.APIKey == "" {
		c.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && c.Providers.Anthropic.APIKey == "" {
		c.Providers.Anthropic.APIKey = v
	}
	if v := envFloat("LUMA_LIMIT_PER_REQUEST"); v > 0 {
		c.Assistant.Limits.PerRequest = v
	}
	if v := envFloat("LUMA_LIMIT_DAILY"); v > 0 {
		c.Assistant.Limits.Daily = v
	}
	if v := envFloat("LUMA_LIMIT_MONTHLY"); v > 0 {
		c.Assistant.Limits.Monthly = v
	}
}

func envFloat(name string) float64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseBool parses a string as boolean with a default value.
// Accepts "true", "1", "yes" as true; empty or other values return default.
func parseBool(s string, defaultVal bool) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultVal
	}
	return s == "true" || s == "1" || s == "yes"
}

func (c Config) IsProductionMode() bool {
	return parseBool(c.App.ProductionMode, false)
}
