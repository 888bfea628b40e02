package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/lumahq/luma/internal/logging"
)

// ModelPricing describes pricing per million tokens.
type ModelPricing struct {
	Input  float64 `json:"input" yaml:"input"`   // $ per 1M input tokens
	Output float64 `json:"output" yaml:"output"` // $ per 1M output tokens
}

// ModelInfo describes a chat model known to the gateway.
type ModelInfo struct {
	ID            string        `json:"id" yaml:"id"`
	DisplayName   string        `json:"displayName" yaml:"displayName"`
	Provider      string        `json:"provider" yaml:"provider"`
	ContextWindow int           `json:"contextWindow" yaml:"contextWindow"`
	Pricing       *ModelPricing `json:"pricing,omitempty" yaml:"pricing,omitempty"`
}

// catalogFile is the YAML structure of models.yaml.
type catalogFile struct {
	Version   string                 `yaml:"version"`
	UpdatedAt string                 `yaml:"updatedAt"`
	Providers map[string][]ModelInfo `yaml:"providers"`
}

// Catalog holds the model/price table. Unknown models are priced at the
// most expensive known tier so estimation fails closed rather than
// under-charging.
type Catalog struct {
	mu      sync.RWMutex
	path    string
	models  map[string]ModelInfo
	watcher *fsnotify.Watcher
}

// builtinModels seeds the catalog when no models.yaml exists yet.
var builtinModels = []ModelInfo{
	{ID: "gpt-4o", DisplayName: "GPT-4o", Provider: "openai", ContextWindow: 128000,
		Pricing: &ModelPricing{Input: 2.50, Output: 10.00}},
	{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini", Provider: "openai", ContextWindow: 128000,
		Pricing: &ModelPricing{Input: 0.15, Output: 0.60}},
	{ID: "claude-sonnet-4-5", DisplayName: "Claude Sonnet 4.5", Provider: "anthropic", ContextWindow: 200000,
		Pricing: &ModelPricing{Input: 3.00, Output: 15.00}},
	{ID: "claude-haiku-4-5", DisplayName: "Claude Haiku 4.5", Provider: "anthropic", ContextWindow: 200000,
		Pricing: &ModelPricing{Input: 1.00, Output: 5.00}},
}

// NewCatalog loads the pricing catalog from models.yaml, falling back to
// the builtin table when the file is absent or malformed.
func NewCatalog(path string) *Catalog {
	c := &Catalog{path: path}
	c.reload()
	return c
}

func (c *Catalog) reload() {
	models := make(map[string]ModelInfo)
	for _, m := range builtinModels {
		models[m.ID] = m
	}

	if c.path != "" {
		if data, err := os.ReadFile(c.path); err == nil {
			var file catalogFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				logging.Errorf("Failed to parse %s: %v", c.path, err)
			} else {
				for providerID, list := range file.Providers {
					for _, m := range list {
						if m.Provider == "" {
							m.Provider = providerID
						}
						models[m.ID] = m
					}
				}
			}
		}
	}

	c.mu.Lock()
	c.models = models
	c.mu.Unlock()
}

// Models returns all known models sorted by nothing in particular.
func (c *Catalog) Models() []ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ModelInfo, 0, len(c.models))
	for _, m := range c.models {
		out = append(out, m)
	}
	return out
}

// Lookup returns model info by ID.
func (c *Catalog) Lookup(model string) (ModelInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[model]
	return m, ok
}

// ProviderFor returns the provider ID for a model, empty if unknown.
func (c *Catalog) ProviderFor(model string) string {
	m, ok := c.Lookup(model)
	if !ok {
		return ""
	}
	return m.Provider
}

// Pricing returns the price tier for a model. Unknown models get the most
// expensive known tier.
func (c *Catalog) Pricing(model string) ModelPricing {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if m, ok := c.models[model]; ok && m.Pricing != nil {
		return *m.Pricing
	}

	// Fail closed: price unknown models at the priciest known tier.
	var max ModelPricing
	for _, m := range c.models {
		if m.Pricing == nil {
			continue
		}
		if m.Pricing.Input+m.Pricing.Output > max.Input+max.Output {
			max = *m.Pricing
		}
	}
	if max.Input == 0 && max.Output == 0 {
		max = ModelPricing{Input: 15.00, Output: 75.00}
	}
	return max
}

// StartWatcher watches models.yaml for edits and reloads with a debounce
// (editors may write the file several times in quick succession).
func (c *Catalog) StartWatcher() error {
	if c.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	c.watcher = watcher

	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	base := filepath.Base(c.path)
	go func() {
		var debounce *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if debounce != nil {
						debounce.Stop()
					}
					debounce = time.AfterFunc(100*time.Millisecond, func() {
						c.reload()
						logging.Infof("Model catalog reloaded from %s", c.path)
					})
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Errorf("Catalog watcher error: %v", err)
			}
		}
	}()

	logging.Infof("Watching %s for pricing changes", c.path)
	return nil
}

// Close stops the file watcher if running.
func (c *Catalog) Close() {
	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}
}
