package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RfpIntel/internal/domain"
)

func seedDocument(t *testing.T, reg *fakeRegistry, in domain.NewDocument) domain.Document {
	t.Helper()
	doc, err := reg.CreateDocument(context.Background(), in)
	require.NoError(t, err)
	return doc
}

func TestResolveCachedCoverSheetSkipsCompletion(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	completer := newFakeCompleter()
	r := NewResolver(ResolverDeps{Registry: reg, Completer: completer})
	doc := seedDocument(t, reg, domain.NewDocument{Name: "a.pdf", PDFContent: "text", CoverSheet: `{"cached":true}`})

	got, err := r.Resolve(context.Background(), doc, domain.KindCoverSheet)
	require.NoError(t, err)
	assert.Equal(t, `{"cached":true}`, got)
	assert.Zero(t, completer.total.Load())
}

func TestResolvePDFContentIsRaw(t *testing.T) {
	t.Parallel()

	completer := newFakeCompleter()
	r := NewResolver(ResolverDeps{Registry: newFakeRegistry(), Completer: completer})

	got, err := r.Resolve(context.Background(), domain.Document{ID: 9}, domain.KindPDFContent)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, completer.total.Load())
}

func TestResolveComputesPersistsOnce(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	completer := newFakeCompleter()
	completer.answers[domain.ProfileFeasibility] = "```json\n[{\"req_no\":1,\"feasible\":\"Yes\"}]\n```"
	r := NewResolver(ResolverDeps{Registry: reg, Completer: completer})
	doc := seedDocument(t, reg, domain.NewDocument{Name: "a.pdf", PDFContent: "text"})

	got, err := r.Resolve(context.Background(), doc, domain.KindFeasibilityCheck)
	require.NoError(t, err)
	assert.Equal(t, `[{"req_no":1,"feasible":"Yes"}]`, got)

	stored, err := reg.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored.FeasibilityCheck)

	again, err := r.ResolveByID(context.Background(), doc.ID, domain.KindFeasibilityCheck)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	stale, err := r.Resolve(context.Background(), doc, domain.KindFeasibilityCheck)
	require.NoError(t, err)
	assert.Equal(t, got, stale)

	assert.Equal(t, 1, completer.count(domain.ProfileFeasibility))
	assert.Equal(t, StateReady, r.Cache().Get(doc.ID, domain.KindFeasibilityCheck).State)
}

func TestResolveConcurrentRequestsShareComputation(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	completer := newFakeCompleter()
	completer.gate = make(chan struct{})
	r := NewResolver(ResolverDeps{Registry: reg, Completer: completer})
	doc := seedDocument(t, reg, domain.NewDocument{Name: "a.pdf", PDFContent: "text"})

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = r.Resolve(context.Background(), doc, domain.KindComplianceMatrix)
		}()
	}

	require.Eventually(t, func() bool {
		return r.Cache().Get(doc.ID, domain.KindComplianceMatrix).State == StateComputing
	}, time.Second, 5*time.Millisecond)
	close(completer.gate)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "<table><tr><th>Req</th></tr></table>", results[i])
	}
	assert.Equal(t, 1, completer.count(domain.ProfileComplianceMatrix))
	assert.Equal(t, 1, reg.updates)
}

func TestResolveFailureAllowsRetry(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	completer := newFakeCompleter()
	completer.errs[domain.ProfileComplianceMatrix] = errBoom
	r := NewResolver(ResolverDeps{Registry: reg, Completer: completer})
	doc := seedDocument(t, reg, domain.NewDocument{Name: "a.pdf", PDFContent: "text"})

	_, err := r.Resolve(context.Background(), doc, domain.KindComplianceMatrix)
	require.ErrorIs(t, err, errBoom)
	entry := r.Cache().Get(doc.ID, domain.KindComplianceMatrix)
	assert.Equal(t, StateFailed, entry.State)
	assert.ErrorIs(t, entry.Err, errBoom)

	completer.mu.Lock()
	delete(completer.errs, domain.ProfileComplianceMatrix)
	completer.mu.Unlock()

	got, err := r.Resolve(context.Background(), doc, domain.KindComplianceMatrix)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.Equal(t, 2, completer.count(domain.ProfileComplianceMatrix))
}

func TestResolvePersistFailureIsReported(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	doc := seedDocument(t, reg, domain.NewDocument{Name: "a.pdf", PDFContent: "text"})
	reg.updateErr = errBoom
	r := NewResolver(ResolverDeps{Registry: reg, Completer: newFakeCompleter()})

	_, err := r.Resolve(context.Background(), doc, domain.KindCoverSheet)
	assert.ErrorIs(t, err, errBoom)
}

func TestResolveRejectsUnknownKindAndEmptyContent(t *testing.T) {
	t.Parallel()

	r := NewResolver(ResolverDeps{Registry: newFakeRegistry(), Completer: newFakeCompleter()})

	_, err := r.Resolve(context.Background(), domain.Document{ID: 1}, domain.ArtifactKind("summary"))
	assert.ErrorIs(t, err, domain.ErrUnknownArtifactKind)

	_, err = r.Resolve(context.Background(), domain.Document{ID: 1}, domain.KindCoverSheet)
	assert.ErrorIs(t, err, domain.ErrEmptyContent)
}

func TestSaveReplacesArtifact(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	completer := newFakeCompleter()
	r := NewResolver(ResolverDeps{Registry: reg, Completer: completer})
	doc := seedDocument(t, reg, domain.NewDocument{Name: "a.pdf", PDFContent: "text"})

	require.NoError(t, r.Save(context.Background(), doc.ID, domain.KindComplianceMatrix, "Req,Status,Notes\n1,Met,ok"))

	got, err := r.Resolve(context.Background(), doc, domain.KindComplianceMatrix)
	require.NoError(t, err)
	assert.Equal(t, "Req,Status,Notes\n1,Met,ok", got)
	assert.Zero(t, completer.total.Load())

	assert.ErrorIs(t, r.Save(context.Background(), doc.ID, "bogus", "x"), domain.ErrUnknownArtifactKind)
	assert.ErrorIs(t, r.Save(context.Background(), 404, domain.KindCoverSheet, "x"), domain.ErrNotFound)
}

func TestSaveKeepsPDFContent(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	r := NewResolver(ResolverDeps{Registry: reg, Completer: newFakeCompleter()})
	doc := seedDocument(t, reg, domain.NewDocument{Name: "a.pdf", PDFContent: "original text"})

	err := r.Save(context.Background(), doc.ID, domain.KindPDFContent, "replaced")
	require.ErrorIs(t, err, domain.ErrReadOnlyArtifact)

	got, err := reg.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "original text", got.PDFContent)
}

func TestAsk(t *testing.T) {
	t.Parallel()

	completer := newFakeCompleter()
	completer.answers[domain.ProfileQuestion] = "answer"
	r := NewResolver(ResolverDeps{Registry: newFakeRegistry(), Completer: completer})
	doc := domain.Document{ID: 3, PDFContent: "Proposals due May 1."}

	got, err := r.Ask(context.Background(), doc, " When are proposals due? ")
	require.NoError(t, err)
	assert.Equal(t, "answer | Proposals due May 1.\n\nQuestion: When are proposals due?", got)

	_, err = r.Ask(context.Background(), doc, "   ")
	assert.Error(t, err)

	_, err = r.Ask(context.Background(), doc, "again?")
	require.NoError(t, err)
	assert.Equal(t, 2, completer.count(domain.ProfileQuestion))
}
