package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"RfpIntel/internal/domain"
	"RfpIntel/internal/ports"
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Storage   ports.FileStorage
	Registry  ports.DocumentRegistry
	Parser    ports.Parser
	Async     ports.AsyncParser
	Completer ports.Completer
	Locker    ports.NameLocker
	Notifier  ports.Notifier
	Logger    *slog.Logger
}

// Pipeline implements single-file document ingestion.
type Pipeline struct {
	storage   ports.FileStorage
	registry  ports.DocumentRegistry
	parser    ports.Parser
	async     ports.AsyncParser
	completer ports.Completer
	locker    ports.NameLocker
	notifier  ports.Notifier
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		storage:   deps.Storage,
		registry:  deps.Registry,
		parser:    deps.Parser,
		async:     deps.Async,
		completer: deps.Completer,
		locker:    deps.Locker,
		notifier:  deps.Notifier,
		logger:    orDiscard(deps.Logger),
	}
}

// Result reports one ProcessNext invocation. Processed is nil when there was
// nothing to do, the file was skipped, or it failed (Err set).
type Result struct {
	File      *domain.ExternalFile
	Processed *domain.Document
	Remaining int
	Skipped   bool
	Err       error
}

// Analysis is the eager part of ingestion: cover sheet plus summary.
type Analysis struct {
	CoverSheet string
	Summary    domain.Summary
}

var errSkipped = errors.New("skipped")

// IsSkipped reports whether err means the file was left alone because it is
// registered already or being ingested elsewhere.
func IsSkipped(err error) bool {
	return errors.Is(err, errSkipped)
}

// Discover lists the storage folder and diffs it against the registry.
func (p *Pipeline) Discover(ctx context.Context, folder string) ([]domain.ExternalFile, error) {
	if p.storage == nil || p.registry == nil {
		return nil, fmt.Errorf("pipeline misconfigured: storage and registry are required")
	}

	files, err := p.storage.ListFiles(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	docs, err := p.registry.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	fresh := DiscoverNew(files, docs)
	backlogSize.Set(float64(len(fresh)))
	p.logger.Debug("discovery done", "folder", folder, "files", len(files), "registered", len(docs), "new", len(fresh))
	return fresh, nil
}

// RunOnce discovers new files and ingests exactly the first one. The
// returned error covers discovery only; ingestion failures land in
// Result.Err.
func (p *Pipeline) RunOnce(ctx context.Context, folder string) (Result, error) {
	candidates, err := p.Discover(ctx, folder)
	if err != nil {
		return Result{}, err
	}
	return p.ProcessNext(ctx, candidates), nil
}

// ProcessNext ingests candidates[0] and reports how many remain. The
// candidate counts as consumed whatever the outcome.
func (p *Pipeline) ProcessNext(ctx context.Context, candidates []domain.ExternalFile) Result {
	if len(candidates) == 0 {
		return Result{}
	}

	file := candidates[0]
	res := Result{File: &file, Remaining: len(candidates) - 1}
	log := p.logger.With("file", file.Name)

	start := time.Now()
	doc, err := p.processFile(ctx, file)
	ingestDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, errSkipped):
		res.Skipped = true
		ingestFilesTotal.WithLabelValues("skipped").Inc()
		log.Info("file skipped", "reason", err)
	case err != nil:
		res.Err = fmt.Errorf("process %s: %w", file.Name, err)
		ingestFilesTotal.WithLabelValues("failed").Inc()
		log.Error("file ingestion failed", "error", err)
	default:
		res.Processed = &doc
		ingestFilesTotal.WithLabelValues("processed").Inc()
		log.Info("file ingested", "document_id", doc.ID, "remaining", res.Remaining)
	}
	return res
}

func (p *Pipeline) processFile(ctx context.Context, file domain.ExternalFile) (domain.Document, error) {
	if p.parser == nil || p.storage == nil || p.registry == nil {
		return domain.Document{}, fmt.Errorf("pipeline misconfigured: parser, storage and registry are required")
	}

	unlock, err := p.claim(ctx, file.Name)
	if err != nil {
		return domain.Document{}, err
	}
	defer unlock()

	parsed, err := p.parser.Parse(ctx, p.storage.FileURL(file.Key))
	if err != nil {
		return domain.Document{}, fmt.Errorf("parse: %w", err)
	}

	return p.Ingest(ctx, file.Name, parsed.Text())
}

// claim takes the per-name lock and checks the name is still unregistered.
func (p *Pipeline) claim(ctx context.Context, name string) (func(), error) {
	unlock := func() {}
	if p.locker != nil {
		release, ok, err := p.locker.TryLockName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("lock name: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: ingestion in progress elsewhere", errSkipped)
		}
		unlock = release
	}

	_, err := p.registry.FindByName(ctx, name)
	switch {
	case err == nil:
		unlock()
		return nil, fmt.Errorf("%w: %w", errSkipped, domain.ErrDuplicateName)
	case !errors.Is(err, domain.ErrNotFound):
		unlock()
		return nil, fmt.Errorf("find by name: %w", err)
	}
	return unlock, nil
}

// Submit hands file to the async parser; the parse webhook finishes the
// ingestion through IngestParsed.
func (p *Pipeline) Submit(ctx context.Context, file domain.ExternalFile) (string, error) {
	if p.async == nil || p.storage == nil {
		return "", fmt.Errorf("pipeline misconfigured: async parser and storage are required")
	}
	jobID, err := p.async.ParseAsync(ctx, p.storage.FileURL(file.Key), map[string]string{"fileName": file.Name})
	if err != nil {
		return "", fmt.Errorf("submit %s: %w", file.Name, err)
	}
	p.logger.Info("parse job submitted", "file", file.Name, "job_id", jobID)
	return jobID, nil
}

// IngestParsed finishes an asynchronously parsed file. A name that got
// registered meanwhile yields domain.ErrDuplicateName.
func (p *Pipeline) IngestParsed(ctx context.Context, name string, parsed domain.ParseResult) (domain.Document, error) {
	if p.registry == nil {
		return domain.Document{}, fmt.Errorf("pipeline misconfigured: registry is required")
	}
	unlock, err := p.claim(ctx, name)
	if err != nil {
		return domain.Document{}, err
	}
	defer unlock()

	doc, err := p.Ingest(ctx, name, parsed.Text())
	if err != nil {
		ingestFilesTotal.WithLabelValues("failed").Inc()
		return domain.Document{}, err
	}
	ingestFilesTotal.WithLabelValues("processed").Inc()
	return doc, nil
}

// Ingest analyzes already-parsed text and registers the document. The
// async webhook path enters here directly.
func (p *Pipeline) Ingest(ctx context.Context, name, pdfContent string) (domain.Document, error) {
	if pdfContent == "" {
		p.logger.Warn("parsed content is empty", "file", name)
	}

	analysis, err := p.Analyze(ctx, pdfContent)
	if err != nil {
		return domain.Document{}, err
	}

	doc, err := p.registry.CreateDocument(ctx, domain.NewDocument{
		Name:        name,
		PDFContent:  pdfContent,
		CoverSheet:  analysis.CoverSheet,
		Description: analysis.Summary.Summary,
		DueDate:     analysis.Summary.DueDate,
	})
	if err != nil {
		return domain.Document{}, fmt.Errorf("persist document: %w", err)
	}

	p.notify(ctx, doc)
	return doc, nil
}

// Analyze runs the cover sheet and summary completions concurrently.
func (p *Pipeline) Analyze(ctx context.Context, pdfContent string) (Analysis, error) {
	if p.completer == nil {
		return Analysis{}, fmt.Errorf("pipeline misconfigured: completer is required")
	}

	var coverRaw, summaryRaw string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := p.completer.Complete(gctx, domain.ProfileCoverSheet, pdfContent)
		if err != nil {
			return fmt.Errorf("cover sheet: %w", err)
		}
		coverRaw = out
		return nil
	})
	g.Go(func() error {
		out, err := p.completer.Complete(gctx, domain.ProfileSummary, pdfContent)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		summaryRaw = out
		return nil
	})
	if err := g.Wait(); err != nil {
		return Analysis{}, err
	}

	summary, ok := domain.ParseSummary(summaryRaw)
	if !ok {
		p.logger.Warn("summary is not structured, keeping raw text")
	}

	return Analysis{
		CoverSheet: domain.CleanJSON(coverRaw),
		Summary:    summary,
	}, nil
}

func (p *Pipeline) notify(ctx context.Context, doc domain.Document) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(doc)); err != nil {
		p.logger.Warn("notify ingestion", "document_id", doc.ID, "error", err)
	}
}

func buildDigestMessage(doc domain.Document) string {
	due := doc.DueDate
	if due == "" {
		due = "not stated"
	}
	return fmt.Sprintf("New RFP ingested: %s (due %s)\n%s", doc.Name, due, doc.Description)
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
