package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RfpIntel/internal/app"
	"RfpIntel/internal/config"
	"RfpIntel/internal/domain"
	"RfpIntel/internal/infrastructure/memory"
)

type stubStorage struct{ files []domain.ExternalFile }

func (s *stubStorage) ListFiles(context.Context, string) ([]domain.ExternalFile, error) {
	return s.files, nil
}

func (s *stubStorage) FileURL(key string) string { return "https://files.test/f/" + key }

type stubParser struct{}

func (stubParser) Name() string { return "stub" }

func (stubParser) Parse(_ context.Context, url string) (domain.ParseResult, error) {
	if url == "https://files.test/f/broken" {
		return domain.ParseResult{}, errors.New("unreadable pdf")
	}
	return domain.ParseResult{Chunks: []domain.Chunk{{Blocks: []domain.Block{{Content: "RFP " + url}}}}}, nil
}

type stubCompleter struct{}

func (stubCompleter) Complete(_ context.Context, profile domain.Profile, _ string) (string, error) {
	switch profile {
	case domain.ProfileCoverSheet:
		return `{"timeline":{"Submissions due":"2025-04-01"}}`, nil
	case domain.ProfileSummary:
		return "not json at all", nil
	default:
		return "feasibility rows", nil
	}
}

type harness struct {
	registry *memory.Registry
	storage  *stubStorage
}

func newHarness() *harness {
	return &harness{registry: memory.NewRegistry(), storage: &stubStorage{}}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cfg := config.Config{}
	cfg.Storage.DefaultFolder = "rfp"
	cfg.Logging.Level = "error"

	root := NewRootCommand(Options{
		Out:        &out,
		LoadConfig: func() config.Config { return cfg },
		Build: func(_ context.Context, cfg config.Config, logger *slog.Logger) (*app.Application, error) {
			return app.Assemble(cfg, logger, app.Adapters{
				Registry:  h.registry,
				Storage:   h.storage,
				Parser:    stubParser{},
				Completer: stubCompleter{},
			}), nil
		},
	})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProcessOneAtATime(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.storage.files = []domain.ExternalFile{{Name: "a.pdf", Key: "k1"}, {Name: "b.pdf", Key: "k2"}}

	out, err := h.run(t, "process")
	require.NoError(t, err)
	assert.Equal(t, "processed a.pdf as document 1, 1 remaining\n", out)

	out, err = h.run(t, "process", "--folder", "rfp")
	require.NoError(t, err)
	assert.Equal(t, "processed b.pdf as document 2, 0 remaining\n", out)

	out, err = h.run(t, "process")
	require.NoError(t, err)
	assert.Equal(t, "no new files to process\n", out)

	doc, err := h.registry.FindByName(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "not json at all", doc.Description)
	assert.Empty(t, doc.DueDate)
}

func TestProcessAllReportsEachFile(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.storage.files = []domain.ExternalFile{{Name: "a.pdf", Key: "k1"}, {Name: "bad.pdf", Key: "broken"}}

	out, err := h.run(t, "process", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "processed a.pdf as document 1, 1 remaining")
	assert.Contains(t, out, "failed bad.pdf")
	assert.Contains(t, out, "1 processed, 1 failed, 0 skipped")

	_, err = h.run(t, "process", "--all", "--async")
	assert.Error(t, err)
}

func TestResolveAndExport(t *testing.T) {
	t.Parallel()

	h := newHarness()
	doc, err := h.registry.CreateDocument(context.Background(), domain.NewDocument{Name: "parks.pdf", PDFContent: "RFP text"})
	require.NoError(t, err)

	out, err := h.run(t, "resolve", "1", "feasibilityCheck")
	require.NoError(t, err)
	assert.Equal(t, "feasibility rows\n", out)

	stored, err := h.registry.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "feasibility rows", stored.FeasibilityCheck)

	_, err = h.run(t, "resolve", "1", "poem")
	assert.ErrorIs(t, err, domain.ErrUnknownArtifactKind)
	_, err = h.run(t, "resolve", "x", "coverSheet")
	assert.Error(t, err)

	out, err = h.run(t, "export", "1", "--format", "md")
	require.NoError(t, err)
	assert.Contains(t, out, "## Timeline")
	assert.Contains(t, out, "**Submissions due**: 2025-04-01")

	path := filepath.Join(t.TempDir(), "sheet.xlsx")
	out, err = h.run(t, "export", "1", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestMigrateRefusesInMemory(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	root := NewRootCommand(Options{
		Out: &out,
		LoadConfig: func() config.Config {
			var cfg config.Config
			cfg.Database.InMemory = true
			return cfg
		},
	})
	root.SetArgs([]string{"migrate"})
	err := root.Execute()
	assert.ErrorContains(t, err, "nothing to migrate")
}
