package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"RfpIntel/internal/config"
	"RfpIntel/internal/httpapi"
	"RfpIntel/internal/infrastructure/llm"
	"RfpIntel/internal/infrastructure/memory"
	"RfpIntel/internal/infrastructure/pdftext"
	"RfpIntel/internal/infrastructure/reducto"
	"RfpIntel/internal/infrastructure/scheduler"
	"RfpIntel/internal/infrastructure/storage"
	"RfpIntel/internal/infrastructure/telegram"
	"RfpIntel/internal/infrastructure/uploadthing"
	"RfpIntel/internal/logging"
	"RfpIntel/internal/parsing"
	"RfpIntel/internal/ports"
	"RfpIntel/internal/usecase"
)

// Registry is everything the use cases need from the document store.
type Registry interface {
	ports.DocumentRegistry
	ports.FolderRegistry
	ports.NameLocker
}

// Adapters are the driven side of the application. Async, Notifier and
// Scheduler may be nil.
type Adapters struct {
	Registry  Registry
	Storage   ports.FileStorage
	Parser    ports.Parser
	Async     ports.AsyncParser
	Completer ports.Completer
	Notifier  ports.Notifier
	Scheduler ports.Scheduler
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool

	Documents ports.DocumentRegistry
	Jobs      ports.AsyncParser
	Pipeline  *usecase.Pipeline
	Resolver  *usecase.Resolver
	Folders   *usecase.Folders
	Queue     *usecase.Queue
}

// New connects the configured adapters and assembles the application.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	var (
		registry Registry
		pool     *pgxpool.Pool
	)
	if cfg.Database.InMemory {
		baseLogger.Warn("using in-memory registry; documents are lost on exit")
		registry = memory.NewRegistry()
	} else {
		dbLogger := logging.Component(baseLogger, "postgres")
		if cfg.Database.Migrate {
			if err := storage.Migrate(cfg.Database.DSN, dbLogger); err != nil {
				return nil, err
			}
		}
		p, err := storage.Connect(ctx, cfg.Database, dbLogger)
		if err != nil {
			return nil, err
		}
		pool = p
		registry = storage.NewPostgresRegistry(pool)
	}

	reductoClient := reducto.NewClient(cfg.Parsing, logging.Component(baseLogger, "reducto"))
	parsers := parsing.NewRegistry()
	parsers.Register(reductoClient)
	parsers.Register(pdftext.NewExtractor(cfg.Parsing.Timeout, logging.Component(baseLogger, "pdftext")))

	parser, err := parsers.Resolve(cfg.Parsing.Mode)
	if err != nil {
		closePool(pool)
		return nil, err
	}

	if cfg.ChatGPT.APIKey == "" {
		baseLogger.Warn("chatgpt api key is empty; completions will fail")
	}

	adapters := Adapters{
		Registry:  registry,
		Storage:   uploadthing.NewClient(cfg.Storage, logging.Component(baseLogger, "uploadthing")),
		Parser:    parser,
		Async:     reductoClient,
		Completer: llm.NewChatGPTClient(cfg.ChatGPT, logging.Component(baseLogger, "chatgpt")),
		Scheduler: scheduler.NewCronScheduler(
			cfg.Scheduler.CronExpression,
			cfg.Scheduler.Location(),
			cfg.Scheduler.RunOnStart,
			logging.Component(baseLogger, "scheduler"),
		),
	}
	if cfg.Notifications.Telegram.Enabled() {
		adapters.Notifier = telegram.NewNotifier(cfg.Notifications.Telegram, logging.Component(baseLogger, "telegram"))
	}

	application := Assemble(cfg, baseLogger, adapters)
	application.pool = pool
	return application, nil
}

// Assemble builds the use cases over already constructed adapters.
func Assemble(cfg config.Config, baseLogger *slog.Logger, a Adapters) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Storage:   a.Storage,
		Registry:  a.Registry,
		Parser:    a.Parser,
		Async:     a.Async,
		Completer: a.Completer,
		Locker:    a.Registry,
		Notifier:  a.Notifier,
		Logger:    logging.Component(baseLogger, "pipeline"),
	})

	resolver := usecase.NewResolver(usecase.ResolverDeps{
		Registry:  a.Registry,
		Completer: a.Completer,
		Cache:     usecase.NewArtifactCache(cfg.Cache.Size, cfg.Cache.TTL),
		Logger:    logging.Component(baseLogger, "resolver"),
	})

	queue := usecase.NewQueue(pipeline, a.Scheduler, usecase.QueueConfig{
		Folder:      cfg.Storage.DefaultFolder,
		MaxAttempts: cfg.Ingest.MaxAttempts,
	}, logging.Component(baseLogger, "queue"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		Documents: a.Registry,
		Jobs:      a.Async,
		Pipeline:  pipeline,
		Resolver:  resolver,
		Folders:   usecase.NewFolders(a.Registry, a.Registry, logging.Component(baseLogger, "folders")),
		Queue:     queue,
	}
}

// Serve runs the scheduled drain and the HTTP API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.Queue.Start(ctx); err != nil {
		return fmt.Errorf("start queue: %w", err)
	}

	server := httpapi.New(a.cfg.Server, httpapi.Deps{
		Pipeline:  a.Pipeline,
		Queue:     a.Queue,
		Resolver:  a.Resolver,
		Folders:   a.Folders,
		Documents: a.Documents,
		Jobs:      a.Jobs,
		Folder:    a.cfg.Storage.DefaultFolder,
	}, logging.Component(a.logger, "http"))

	serveErr := server.Run(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	stopErr := a.Queue.Stop(stopCtx)

	return errors.Join(serveErr, stopErr)
}

// Close releases the database pool, if any.
func (a *Application) Close() {
	closePool(a.pool)
}

func closePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
