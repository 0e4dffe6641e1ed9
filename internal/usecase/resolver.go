package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"RfpIntel/internal/domain"
	"RfpIntel/internal/ports"
)

// ResolverDeps wires the artifact resolver.
type ResolverDeps struct {
	Registry  ports.DocumentRegistry
	Completer ports.Completer
	Cache     *ArtifactCache
	Logger    *slog.Logger
}

// Resolver serves document artifacts from the registry, computing and
// persisting a derived artifact on first demand.
type Resolver struct {
	registry  ports.DocumentRegistry
	completer ports.Completer
	cache     *ArtifactCache
	logger    *slog.Logger
}

// NewResolver constructs a Resolver. A nil cache gets a default one.
func NewResolver(deps ResolverDeps) *Resolver {
	cache := deps.Cache
	if cache == nil {
		cache = NewArtifactCache(0, 0)
	}
	return &Resolver{
		registry:  deps.Registry,
		completer: deps.Completer,
		cache:     cache,
		logger:    orDiscard(deps.Logger),
	}
}

// Cache exposes the slot states, mostly for diagnostics.
func (r *Resolver) Cache() *ArtifactCache {
	return r.cache
}

// Resolve returns the artifact of kind for doc. pdfContent and any stored
// derived value are returned as is; otherwise the value is computed once,
// persisted, then returned.
func (r *Resolver) Resolve(ctx context.Context, doc domain.Document, kind domain.ArtifactKind) (string, error) {
	stored, err := doc.Artifact(kind)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, kind)
	}
	if !kind.Derived() || stored != "" {
		artifactRequestsTotal.WithLabelValues(string(kind), "registry").Inc()
		return stored, nil
	}

	profile, _ := kind.Profile()
	if doc.PDFContent == "" {
		artifactRequestsTotal.WithLabelValues(string(kind), "failed").Inc()
		return "", fmt.Errorf("resolve %s for document %d: %w", kind, doc.ID, domain.ErrEmptyContent)
	}
	if r.completer == nil || r.registry == nil {
		return "", errors.New("resolver misconfigured: completer and registry are required")
	}

	log := r.logger.With("document_id", doc.ID, "kind", string(kind))
	value, source, err := r.cache.do(ctx, doc.ID, kind, func(ctx context.Context) (string, error) {
		log.Info("computing artifact")
		raw, err := r.completer.Complete(ctx, profile, doc.PDFContent)
		if err != nil {
			return "", fmt.Errorf("complete %s: %w", profile, err)
		}
		value := normalizeArtifact(kind, raw)
		if err := r.registry.UpdateArtifact(ctx, doc.ID, kind, value); err != nil {
			return "", fmt.Errorf("persist %s: %w", kind, err)
		}
		return value, nil
	})
	if err != nil {
		artifactRequestsTotal.WithLabelValues(string(kind), "failed").Inc()
		log.Error("artifact resolution failed", "error", err)
		return "", err
	}

	switch source {
	case sourceMemo:
		artifactRequestsTotal.WithLabelValues(string(kind), "memo").Inc()
	case sourceShared:
		artifactRequestsTotal.WithLabelValues(string(kind), "shared").Inc()
	default:
		artifactRequestsTotal.WithLabelValues(string(kind), "computed").Inc()
		log.Info("artifact computed", "bytes", len(value))
	}
	return value, nil
}

// ResolveByID loads the document and resolves kind.
func (r *Resolver) ResolveByID(ctx context.Context, id int64, kind domain.ArtifactKind) (string, error) {
	doc, err := r.registry.GetDocument(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get document %d: %w", id, err)
	}
	return r.Resolve(ctx, doc, kind)
}

// Save stores a human-edited derived artifact, the only path that replaces
// a set value. pdfContent is read-only.
func (r *Resolver) Save(ctx context.Context, id int64, kind domain.ArtifactKind, value string) error {
	if _, err := domain.ParseArtifactKind(string(kind)); err != nil {
		return err
	}
	if !kind.Derived() {
		return fmt.Errorf("save %s: %w", kind, domain.ErrReadOnlyArtifact)
	}
	if err := r.registry.UpdateArtifact(ctx, id, kind, value); err != nil {
		return fmt.Errorf("save %s for document %d: %w", kind, id, err)
	}
	r.cache.Set(id, kind, value)
	r.logger.Info("artifact saved", "document_id", id, "kind", string(kind))
	return nil
}

// ErrEmptyQuestion rejects blank questions.
var ErrEmptyQuestion = errors.New("question is empty")

// Ask answers a free-form question against the document text. Answers are
// never cached.
func (r *Resolver) Ask(ctx context.Context, doc domain.Document, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	if doc.PDFContent == "" {
		return "", fmt.Errorf("ask document %d: %w", doc.ID, domain.ErrEmptyContent)
	}
	if r.completer == nil {
		return "", errors.New("resolver misconfigured: completer is required")
	}

	answer, err := r.completer.Complete(ctx, domain.ProfileQuestion, doc.PDFContent+"\n\nQuestion: "+question)
	if err != nil {
		return "", fmt.Errorf("complete question: %w", err)
	}
	return answer, nil
}

func normalizeArtifact(kind domain.ArtifactKind, raw string) string {
	switch kind {
	case domain.KindCoverSheet, domain.KindFeasibilityCheck:
		return domain.CleanJSON(raw)
	default:
		return raw
	}
}
