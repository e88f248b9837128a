package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/notarial-clause-assistant/internal/config"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/agent"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/usecase"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/catalog"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/export"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/extractor"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/knowledge"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/llm"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/repository/memory"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/notarial-clause-assistant/internal/observability/metrics"
)

type Options struct {
	// Service labels metrics and logs.
	Service string
	// WithoutEvents skips the NATS connection; completed clauses are then
	// not announced to the export worker.
	WithoutEvents bool
}

type App struct {
	Config config.Config

	Cases    *usecase.CaseService
	Repo     ports.CaseRepository
	Storage  *localfs.Storage
	Renderer *export.Renderer
	Queue    *nats.Queue
	Metrics  *metrics.HTTPServerMetrics

	// OtherOption is the question option that asks for a free-text answer.
	OtherOption string

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Service == "" {
		opts.Service = "api"
	}
	m := metrics.NewHTTPServerMetrics(opts.Service)

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	repo, db, err := newCaseRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		closers = append(closers, func() { _ = db.Close() })
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	clauses, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("load clause catalog: %w", err)
	}
	rules, err := knowledge.Load(cfg.KnowledgePath)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("load knowledge: %w", err)
	}

	model, err := newModel(ctx, cfg, m)
	if err != nil {
		closeAll()
		return nil, err
	}

	var queue *nats.Queue
	var publisher ports.EventPublisher
	if !opts.WithoutEvents {
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		closers = append(closers, queue.Close)
		publisher = queue
	}

	agents := agent.New(model, rules, agent.Limits{
		Applicability: cfg.ApplicabilityCorpusChars,
		Research:      cfg.ResearchCorpusChars,
		Search:        cfg.SearchCorpusChars,
		Intake:        cfg.IntakeCorpusChars,
	})
	renderer := export.NewRenderer()
	cases := usecase.NewCaseService(usecase.CaseServiceDeps{
		Repo:      repo,
		Catalog:   clauses,
		Extractor: extractor.NewRouter(),
		Storage:   storage,
		Agents:    agents,
		Pipeline:  usecase.NewClausePipeline(agents, publisher, m),
		Renderer:  renderer,
		Notary: domain.NotaryOffice{
			Name:          cfg.NotaryName,
			Location:      cfg.NotaryLocation,
			OfficeAddress: cfg.NotaryOfficeAddress,
		},
	})

	slog.Info("bootstrap_ready",
		"llm_provider", cfg.LLMProvider,
		"case_store", cfg.CaseStore,
		"events", queue != nil,
	)

	return &App{
		Config:   cfg,
		Cases:    cases,
		Repo:     repo,
		Storage:  storage,
		Renderer: renderer,
		Queue:    queue,
		Metrics:  m,

		OtherOption: agents.OtherOption(),
		closeFn:     closeAll,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newCaseRepository(ctx context.Context, cfg config.Config) (ports.CaseRepository, *sql.DB, error) {
	if cfg.CaseStore == "memory" {
		return memory.NewCaseRepository(), nil, nil
	}
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewCaseRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, db, nil
}

// newModel builds the configured provider behind the shared guard. The model
// is never retried; the breaker only sheds load while a provider is down.
func newModel(ctx context.Context, cfg config.Config, m *metrics.HTTPServerMetrics) (ports.ModelInvoker, error) {
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second

	var provider ports.ModelInvoker
	switch cfg.LLMProvider {
	case "gemini":
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		provider = client
	case "openai":
		client, err := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, fmt.Errorf("init openai client: %w", err)
		}
		provider = client
	default:
		provider = ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, timeout)
	}

	breaker := resilience.NoRetry()
	breaker.BreakerEnabled = cfg.LLMBreakerEnabled
	breaker.OnStateChange = m.BreakerStateChanged

	return llm.NewGuard(cfg.LLMProvider, provider, llm.GuardOptions{
		Timeout:       timeout,
		RatePerMinute: cfg.LLMRatePerMinute,
		Executor:      resilience.NewExecutor(breaker),
		Recorder:      m,
	}), nil
}
