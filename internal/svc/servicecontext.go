package svc

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lumahq/luma/internal/assistant/contextsel"
	"github.com/lumahq/luma/internal/assistant/cost"
	"github.com/lumahq/luma/internal/assistant/domain"
	"github.com/lumahq/luma/internal/assistant/entity"
	"github.com/lumahq/luma/internal/assistant/orchestrator"
	"github.com/lumahq/luma/internal/assistant/summarize"
	"github.com/lumahq/luma/internal/config"
	"github.com/lumahq/luma/internal/db"
	"github.com/lumahq/luma/internal/embeddings"
	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/provider"
	"github.com/lumahq/luma/internal/voice"
)

// ServiceContext holds the wired service dependencies shared by handlers.
type ServiceContext struct {
	Config       config.Config
	Store        *db.Store
	Catalog      *provider.Catalog
	Governor     *cost.Governor
	Domains      *domain.Builder
	Orchestrator *orchestrator.Orchestrator

	retention *cron.Cron
}

// NewServiceContext wires the full service from configuration. It fails
// hard on storage problems and degrades on missing provider keys.
func NewServiceContext(c config.Config, modelsPath string) (*ServiceContext, error) {
	store, err := db.NewSQLite(c.Database.SQLitePath)
	if err != nil {
		return nil, err
	}

	catalog := provider.NewCatalog(modelsPath)
	if err := catalog.StartWatcher(); err != nil {
		logging.Warnf("Pricing catalog watcher disabled: %v", err)
	}

	providers := make(map[string]provider.Chat)
	if key := c.Providers.OpenAI.APIKey; key != "" {
		providers["openai"] = provider.NewOpenAI(key, c.Assistant.DefaultModel)
	}
	if key := c.Providers.Anthropic.APIKey; key != "" {
		providers["anthropic"] = provider.NewAnthropic(key, c.Assistant.DefaultModel)
	}
	if len(providers) == 0 {
		logging.Warnf("No chat provider keys configured; chat endpoints will fail")
	}

	embedder := buildEmbedder(c, store)

	governor := cost.NewGovernor(store, catalog, c.Assistant.Limits,
		c.Assistant.MaxOutputTokens, c.Assistant.WarnRatio)

	summaryChat := providers[catalog.ProviderFor(c.Assistant.SummaryModel)]
	var summarizer *summarize.Summarizer
	if summaryChat != nil {
		summarizer = summarize.NewSummarizer(store, summaryChat, governor,
			c.Assistant.SummaryModel, c.Assistant.SummaryThreshold)
	}

	domains := domain.NewBuilder(store)

	var speech orchestrator.Speech
	if key := c.Providers.OpenAI.APIKey; key != "" {
		speech = voice.NewClient(key, c.Providers.OpenAI.BaseURL)
	}

	orch := orchestrator.New(orchestrator.Deps{
		History:    store,
		Governor:   governor,
		Selector:   contextsel.NewSelector(embedder),
		Linker:     entity.NewLinker(store, nil),
		Summarizer: summarizer,
		Domains:    domains,
		Catalog:    catalog,
		Providers:  providers,
		Speech:     speech,
	}, orchestrator.Config{
		DefaultModel:       c.Assistant.DefaultModel,
		AnalysisModel:      c.Assistant.AnalysisModel,
		MaxContextMessages: c.Assistant.MaxContextMessages,
		RequestTimeout:     time.Duration(c.Assistant.RequestTimeoutSecs) * time.Second,
		TranscribeModel:    c.Voice.TranscribeModel,
		TTSModel:           c.Voice.TTSModel,
		TTSVoice:           c.Voice.TTSVoice,
	})

	return &ServiceContext{
		Config:       c,
		Store:        store,
		Catalog:      catalog,
		Governor:     governor,
		Domains:      domains,
		Orchestrator: orch,
		retention:    governor.StartRetentionJob(),
	}, nil
}

func buildEmbedder(c config.Config, store *db.Store) *embeddings.Service {
	switch c.Embeddings.Provider {
	case "ollama":
		return embeddings.NewService(embeddings.NewOllamaProvider(embeddings.OllamaConfig{
			BaseURL:    c.Providers.Ollama.BaseURL,
			Model:      c.Embeddings.Model,
			Dimensions: c.Embeddings.Dimensions,
		}), store)
	default:
		if c.Providers.OpenAI.APIKey == "" {
			logging.Warnf("No embedding provider available; context selection degrades to recency")
			return embeddings.NewService(nil, store)
		}
		return embeddings.NewService(embeddings.NewOpenAIProvider(embeddings.OpenAIConfig{
			APIKey:     c.Providers.OpenAI.APIKey,
			Model:      c.Embeddings.Model,
			Dimensions: c.Embeddings.Dimensions,
			BaseURL:    c.Providers.OpenAI.BaseURL,
		}), store)
	}
}

// Close releases held resources.
func (s *ServiceContext) Close() {
	if s.retention != nil {
		s.retention.Stop()
	}
	if s.Catalog != nil {
		s.Catalog.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}
