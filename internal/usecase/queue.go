package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"RfpIntel/internal/domain"
	"RfpIntel/internal/ports"
)

// ErrDrainInProgress is returned when a drain is requested while another
// one is running in this process.
var ErrDrainInProgress = errors.New("drain already in progress")

// Progress is published after every file a drain touches.
type Progress struct {
	RunID     string
	File      domain.ExternalFile
	Document  *domain.Document
	Remaining int
	Skipped   bool
	Err       error
}

// DrainSummary totals one drain run.
type DrainSummary struct {
	RunID      string
	Discovered int
	Processed  int
	Failed     int
	Skipped    int
}

// QueueConfig tunes the queue. MaxAttempts <= 0 retries failed files on
// every drain forever.
type QueueConfig struct {
	Folder      string
	MaxAttempts int
}

// Queue drains the discovery backlog one file at a time and reports
// progress to subscribers. It is driven by a ports.Scheduler or on demand.
type Queue struct {
	pipeline    *Pipeline
	driver      ports.Scheduler
	folder      string
	maxAttempts int
	logger      *slog.Logger

	running atomic.Bool

	mu        sync.Mutex
	attempts  map[string]int
	observers []func(Progress)
}

// NewQueue wires the pipeline with an optional scheduling driver.
func NewQueue(pipeline *Pipeline, driver ports.Scheduler, cfg QueueConfig, logger *slog.Logger) *Queue {
	return &Queue{
		pipeline:    pipeline,
		driver:      driver,
		folder:      cfg.Folder,
		maxAttempts: cfg.MaxAttempts,
		logger:      orDiscard(logger),
		attempts:    make(map[string]int),
	}
}

// Subscribe registers fn for progress events. fn runs on the drain
// goroutine and must not block.
func (q *Queue) Subscribe(fn func(Progress)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.observers = append(q.observers, fn)
}

// Drain discovers once, then ingests every candidate in listing order,
// each at most once. An empty folder uses the configured one.
func (q *Queue) Drain(ctx context.Context, folder string) (DrainSummary, error) {
	if !q.running.CompareAndSwap(false, true) {
		return DrainSummary{}, ErrDrainInProgress
	}
	defer q.running.Store(false)

	if folder == "" {
		folder = q.folder
	}
	summary := DrainSummary{RunID: uuid.NewString()}
	log := q.logger.With("run_id", summary.RunID, "folder", folder)

	candidates, err := q.pipeline.Discover(ctx, folder)
	if err != nil {
		return summary, fmt.Errorf("discover: %w", err)
	}
	candidates = q.withoutDeadLetters(candidates, log)
	summary.Discovered = len(candidates)
	if len(candidates) == 0 {
		log.Debug("backlog empty")
		return summary, nil
	}

	log.Info("drain started", "candidates", len(candidates))
	start := time.Now()
	for len(candidates) > 0 {
		if err := ctx.Err(); err != nil {
			log.Warn("drain interrupted", "remaining", len(candidates))
			return summary, err
		}

		res := q.pipeline.ProcessNext(ctx, candidates)
		candidates = candidates[1:]

		switch {
		case res.Skipped:
			summary.Skipped++
		case res.Err != nil:
			summary.Failed++
			q.recordFailure(res.File.Name, log)
		default:
			summary.Processed++
			q.recordSuccess(res.File.Name)
		}
		q.publish(Progress{
			RunID:     summary.RunID,
			File:      *res.File,
			Document:  res.Processed,
			Remaining: res.Remaining,
			Skipped:   res.Skipped,
			Err:       res.Err,
		})
	}

	log.Info("drain finished",
		"processed", summary.Processed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"elapsed", time.Since(start))
	return summary, nil
}

// DeadLetters lists file names that reached the attempt limit.
func (q *Queue) DeadLetters() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	var names []string
	for name, n := range q.attempts {
		if q.exhausted(n) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Start registers Drain with the scheduling driver.
func (q *Queue) Start(ctx context.Context) error {
	if q.driver == nil || q.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := q.Drain(ctx, ""); err != nil && !errors.Is(err, ErrDrainInProgress) {
			q.logger.Error("scheduled drain failed", "trigger", trigger, "error", err)
		}
	}

	return q.driver.Start(ctx, job)
}

// Stop tears down the scheduling driver.
func (q *Queue) Stop(ctx context.Context) error {
	if q.driver == nil {
		return nil
	}

	return q.driver.Stop(ctx)
}

func (q *Queue) exhausted(attempts int) bool {
	return q.maxAttempts > 0 && attempts >= q.maxAttempts
}

func (q *Queue) withoutDeadLetters(candidates []domain.ExternalFile, log *slog.Logger) []domain.ExternalFile {
	if q.maxAttempts <= 0 {
		return candidates
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	kept := make([]domain.ExternalFile, 0, len(candidates))
	for _, file := range candidates {
		if q.exhausted(q.attempts[file.Name]) {
			log.Warn("file dead-lettered, skipping", "file", file.Name, "attempts", q.attempts[file.Name])
			continue
		}
		kept = append(kept, file)
	}
	return kept
}

func (q *Queue) recordFailure(name string, log *slog.Logger) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.attempts[name]++
	if q.exhausted(q.attempts[name]) {
		log.Warn("file reached attempt limit", "file", name, "attempts", q.attempts[name])
	}
}

func (q *Queue) recordSuccess(name string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.attempts, name)
}

func (q *Queue) publish(p Progress) {
	q.mu.Lock()
	observers := slices.Clone(q.observers)
	q.mu.Unlock()

	for _, fn := range observers {
		fn(p)
	}
}
