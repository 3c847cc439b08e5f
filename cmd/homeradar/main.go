// Command homeradar classifies captured real-estate posts and extracts
// structured listing details from them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/homeradar/internal/adapters/driven/agent"
	"github.com/custodia-labs/homeradar/internal/adapters/driven/ai"
	"github.com/custodia-labs/homeradar/internal/adapters/driven/config/file"
	"github.com/custodia-labs/homeradar/internal/adapters/driven/gazetteer"
	"github.com/custodia-labs/homeradar/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/homeradar/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/homeradar/internal/adapters/driving/cli"
	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
	"github.com/custodia-labs/homeradar/internal/core/services"
	"github.com/custodia-labs/homeradar/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// recordStore is a RecordStore that holds a connection.
type recordStore interface {
	driven.RecordStore
	io.Closer
}

func run() error {
	// API keys may live in a .env file next to the binary's working directory.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Settings
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	holder := services.NewSettingsHolder(domain.DefaultSettings())
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator(), holder)
	if _, err := settingsService.Reload(); err != nil {
		logger.Warn("invalid configuration, using defaults: %v", err)
	}
	current := holder.Current()

	// Deterministic pipeline
	source := gazetteer.NewFileSource(current.Gazetteer.LocationsPath, current.Gazetteer.StreetsPath)
	extractor := services.NewDetailExtractor(services.CompileGazetteer(services.LoadGazetteer(source)))

	svc := cli.Services{
		Extractor: extractor,
		Settings:  settingsService,
	}

	// Record store. A store that cannot be opened leaves the ingest and
	// posts commands unconfigured so settings can still be fixed.
	store, err := openStore(ctx, current.Store)
	if err != nil {
		logger.Warn("record store unavailable: %v", err)
		return cli.Execute(ctx, svc)
	}
	defer store.Close()

	// Agents
	llm, err := ai.CreateLLMService(&current.LLM)
	if err != nil {
		logger.Warn("LLM unavailable, posts will be treated as relevant: %v", err)
	}
	if llm != nil {
		defer llm.Close()
	}
	prompts, err := file.NewPromptStore("")
	if err != nil {
		logger.Warn("prompt store: %v", err)
	}
	var promptStore driven.PromptStore
	if prompts != nil {
		promptStore = prompts
	}
	limiter := agent.NewLimiter(current.Agents.MinDelay)
	classifier := agent.NewClassifier(llm, promptStore, holder, limiter)
	completer := agent.NewCompleter(llm, promptStore, holder, limiter)

	svc.Ingestor = services.NewIngestOrchestrator(store, classifier, completer, extractor, holder)
	svc.Posts = services.NewPostService(store)
	svc.WatchConfig = func(ctx context.Context) error {
		return watchConfig(ctx, configStore, prompts, settingsService, limiter)
	}

	return cli.Execute(ctx, svc)
}

func openStore(ctx context.Context, cfg domain.StoreSettings) (recordStore, error) {
	switch cfg.Driver {
	case domain.StoreDriverPostgres:
		return postgres.Open(ctx, cfg.DSN)
	case domain.StoreDriverSQLite, "":
		return sqlite.NewStore(cfg.DataDir)
	default:
		return nil, fmt.Errorf("%w: store driver %q", domain.ErrUnsupportedType, cfg.Driver)
	}
}

// watchConfig applies config and prompt edits until ctx is done.
// The LLM provider itself is fixed for the life of the process.
func watchConfig(
	ctx context.Context,
	configStore *file.ConfigStore,
	prompts *file.PromptStore,
	settingsService *services.SettingsService,
	limiter *agent.Limiter,
) error {
	w, err := file.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	err = w.WatchFile(configStore.Path(), func() {
		settings, err := settingsService.Reload()
		if err != nil {
			logger.Warn("config reload: %v", err)
			return
		}
		limiter.SetMinDelay(settings.Agents.MinDelay)
	})
	if err != nil {
		return err
	}
	if prompts != nil {
		// Loading once creates the directory with the default templates.
		if _, err := prompts.Load(driven.PromptClassify); err != nil {
			logger.Warn("prompts: %v", err)
		}
		if err := w.WatchDir(prompts.Dir(), prompts.Reload); err != nil {
			logger.Warn("prompts will not reload: %v", err)
		}
	}

	w.Run(ctx)
	return nil
}
