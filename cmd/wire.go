package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bnema/helpdesk-agent/internal/adapters/commerce/httpclient"
	"github.com/bnema/helpdesk-agent/internal/adapters/commerce/mock"
	"github.com/bnema/helpdesk-agent/internal/adapters/escalation/sqlite"
	"github.com/bnema/helpdesk-agent/internal/adapters/observability"
	openaiadapter "github.com/bnema/helpdesk-agent/internal/adapters/reasoning/openai"
	chainstore "github.com/bnema/helpdesk-agent/internal/adapters/secrets/chain"
	envstore "github.com/bnema/helpdesk-agent/internal/adapters/secrets/env"
	badgerstore "github.com/bnema/helpdesk-agent/internal/adapters/store/badger"
	memorystore "github.com/bnema/helpdesk-agent/internal/adapters/store/memory"
	"github.com/bnema/helpdesk-agent/internal/application"
	"github.com/bnema/helpdesk-agent/internal/config"
	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/guardrail"
	"github.com/bnema/helpdesk-agent/internal/ports"
	"go.uber.org/zap"
)

const secretsEnvPrefix = "HDA"

type app struct {
	cfg          config.Config
	logger       *zap.Logger
	orchestrator *application.Orchestrator
	escalations  ports.EscalationQueue
	metrics      *observability.Metrics
	// mockCommerce is set when commerce.mode is mock.
	mockCommerce *mock.Store
	closers      []func() error
}

func newSecretStore(cfg config.Config) *chainstore.Store {
	return chainstore.NewEnvFirstWithFileFallback(secretsEnvPrefix, cfg.SecretsDir)
}

func wireApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger, metrics: observability.NewMetrics()}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.Close())
		}
	}()

	secrets := newSecretStore(cfg)

	reasoner, err := wireReasoner(ctx, cfg, secrets, logger)
	if err != nil {
		return nil, err
	}

	commerce, err := a.wireCommerce(ctx, cfg, secrets, logger)
	if err != nil {
		return nil, err
	}

	store, err := a.wireSessionStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	queue, err := sqlite.Open(cfg.Escalations.Path)
	if err != nil {
		return nil, fmt.Errorf("wire escalation queue: %w", err)
	}
	a.closers = append(a.closers, queue.Close)
	a.escalations = queue

	a.orchestrator = application.NewOrchestrator(application.Deps{
		Store:     store,
		Reasoner:  reasoner,
		Commerce:  commerce,
		Sink:      queue,
		Clock:     ports.SystemClock{},
		Telemetry: a.metrics,
		Logger:    logger,
	}, settingsFromConfig(cfg))

	return a, nil
}

func wireReasoner(ctx context.Context, cfg config.Config, secrets *chainstore.Store, logger *zap.Logger) (ports.Reasoner, error) {
	apiKey, source, err := secrets.Lookup(ctx, cfg.Reasoning.APIKeySecret)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return nil, fmt.Errorf("reasoning api key %q not found: export %s or run `hda secret set %s`: %w",
				cfg.Reasoning.APIKeySecret, envstore.NewStore(secretsEnvPrefix).VariableName(cfg.Reasoning.APIKeySecret), cfg.Reasoning.APIKeySecret, err)
		}
		return nil, fmt.Errorf("resolve reasoning api key: %w", err)
	}
	logger.Debug("reasoning api key resolved", zap.String("source", source))

	reasoner, err := openaiadapter.New(openaiadapter.Config{
		BaseURL:           cfg.Reasoning.BaseURL,
		APIKey:            apiKey,
		FastModel:         cfg.Reasoning.FastModel,
		SmartModel:        cfg.Reasoning.SmartModel,
		RequestsPerSecond: cfg.Reasoning.RequestsPerSecond,
		Burst:             cfg.Reasoning.Burst,
		HTTPClient:        &http.Client{},
		Logger:            logger.Named("reasoning"),
	})
	if err != nil {
		return nil, fmt.Errorf("wire reasoner: %w", err)
	}

	return reasoner, nil
}

func (a *app) wireCommerce(ctx context.Context, cfg config.Config, secrets ports.SecretStore, logger *zap.Logger) (ports.CommerceAPI, error) {
	if cfg.Commerce.Mode == config.CommerceMock {
		store, err := mock.NewStore(mock.WithLogger(logger.Named("commerce")))
		if err != nil {
			return nil, fmt.Errorf("wire mock commerce: %w", err)
		}
		a.mockCommerce = store
		return store, nil
	}

	// The commerce key is optional; an unauthenticated API is allowed.
	apiKey, err := secrets.Get(ctx, cfg.Commerce.APIKeySecret)
	if err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
		return nil, fmt.Errorf("resolve commerce api key: %w", err)
	}

	client, err := httpclient.New(cfg.Commerce.BaseURL, apiKey, &http.Client{})
	if err != nil {
		return nil, fmt.Errorf("wire commerce client: %w", err)
	}

	return client, nil
}

func (a *app) wireSessionStore(cfg config.Config, logger *zap.Logger) (ports.SessionStore, error) {
	if cfg.Store.Driver == config.StoreMemory {
		return memorystore.New(), nil
	}

	badgerCfg := badgerstore.DefaultConfig(cfg.Store.Path)
	badgerCfg.Logger = logger.Named("badger")
	store, err := badgerstore.Open(badgerCfg)
	if err != nil {
		return nil, fmt.Errorf("wire session store: %w", err)
	}
	a.closers = append(a.closers, store.Close)

	return store, nil
}

func settingsFromConfig(cfg config.Config) application.Settings {
	return application.Settings{
		ConfidenceThreshold: cfg.Orchestrator.ConfidenceThreshold,
		ShiftThreshold:      cfg.Orchestrator.ShiftThreshold,
		MaxIterations:       cfg.Orchestrator.MaxIterations,
		MaxSupervisorRuns:   cfg.Orchestrator.MaxSupervisorRuns,
		MaxInputChars:       cfg.Orchestrator.MaxInputChars,
		Reasoning: application.RetryPolicy{
			Timeout:      cfg.Reasoning.Timeout,
			RetryTimeout: cfg.Reasoning.RetryTimeout,
		},
		Tools: application.RetryPolicy{
			Timeout:      cfg.Commerce.Timeout,
			RetryTimeout: cfg.Commerce.RetryTimeout,
		},
		Location: cfg.Location(),
		Persona: guardrail.Persona{
			AgentName:   cfg.Persona.AgentName,
			LeadName:    cfg.Persona.LeadName,
			LeadTitle:   cfg.Persona.LeadTitle,
			LeadPronoun: cfg.Persona.LeadPronoun,
		},
		ReflectionReviewer: cfg.Orchestrator.ReflectionReviewer,
		GeneratedSummary:   cfg.Orchestrator.GeneratedSummary,
	}
}

// Close releases stores in reverse wiring order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil

	return errors.Join(errs...)
}
