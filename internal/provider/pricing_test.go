package provider

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCatalogBuiltins(t *testing.T) {
	c := NewCatalog("")
	defer c.Close()

	m, ok := c.Lookup("gpt-4o-mini")
	if !ok {
		t.Fatal("gpt-4o-mini missing from builtin catalog")
	}
	if m.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", m.Provider)
	}
	if m.Pricing == nil || m.Pricing.Input != 0.15 {
		t.Errorf("Pricing = %+v, want input 0.15", m.Pricing)
	}

	if got := c.ProviderFor("claude-sonnet-4-5"); got != "anthropic" {
		t.Errorf("ProviderFor = %q, want anthropic", got)
	}
	if got := c.ProviderFor("nonsense-model"); got != "" {
		t.Errorf("ProviderFor unknown = %q, want empty", got)
	}
}

func TestPricingUnknownModelFailsClosed(t *testing.T) {
	c := NewCatalog("")
	defer c.Close()

	p := c.Pricing("some-future-model")

	// The priciest builtin tier is claude-sonnet-4-5 at 3.00/15.00.
	if p.Input != 3.00 || p.Output != 15.00 {
		t.Errorf("unknown model priced at %+v, want priciest known tier", p)
	}
}

func TestCatalogFileOverridesBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	yaml := `
version: "1"
providers:
  openai:
    - id: gpt-4o-mini
      displayName: GPT-4o mini
      pricing:
        input: 0.20
        output: 0.80
    - id: gpt-5-preview
      displayName: GPT-5 preview
      pricing:
        input: 5.00
        output: 20.00
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewCatalog(path)
	defer c.Close()

	p := c.Pricing("gpt-4o-mini")
	if p.Input != 0.20 || p.Output != 0.80 {
		t.Errorf("Pricing = %+v, want file values", p)
	}

	// Provider is inherited from the YAML section key when omitted.
	if got := c.ProviderFor("gpt-5-preview"); got != "openai" {
		t.Errorf("ProviderFor = %q, want openai", got)
	}

	// Builtins not mentioned in the file survive.
	if _, ok := c.Lookup("claude-haiku-4-5"); !ok {
		t.Error("builtin model lost after file load")
	}
}

func TestCatalogMalformedFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	if err := os.WriteFile(path, []byte("providers: [broken"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewCatalog(path)
	defer c.Close()

	if _, ok := c.Lookup("gpt-4o"); !ok {
		t.Error("builtin catalog missing after malformed file")
	}
}
