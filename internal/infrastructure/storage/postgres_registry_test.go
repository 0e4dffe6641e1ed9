package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"RfpIntel/internal/config"
	"RfpIntel/internal/domain"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("rfpintel_test"),
		postgres.WithUsername("rfpintel"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, Migrate(dsn, logger))
	// second run is a no-op
	require.NoError(t, Migrate(dsn, logger))

	pool, err := Connect(ctx, config.DatabaseConfig{DSN: dsn, MaxConns: 4}, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestMigrateURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pgx5://u:p@db:5432/rfp", migrateURL("postgres://u:p@db:5432/rfp"))
	assert.Equal(t, "pgx5://db/rfp", migrateURL("postgresql://db/rfp"))
	assert.Equal(t, "pgx5://db/rfp", migrateURL("pgx5://db/rfp"))
}

func TestPostgresRegistryDocuments(t *testing.T) {
	pool := setupTestDB(t)
	reg := NewPostgresRegistry(pool)
	ctx := context.Background()

	created, err := reg.CreateDocument(ctx, domain.NewDocument{
		Name:        "rfp-a.pdf",
		PDFContent:  "Request for Proposals",
		CoverSheet:  `{"timeline":{}}`,
		Description: "City parks RFP",
		DueDate:     "2025-05-01",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.Uncategorized())
	assert.Empty(t, created.ComplianceMatrix)

	_, err = reg.CreateDocument(ctx, domain.NewDocument{Name: "rfp-a.pdf"})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	found, err := reg.FindByName(ctx, "rfp-a.pdf")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = reg.FindByName(ctx, "missing.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, reg.UpdateArtifact(ctx, created.ID, domain.KindComplianceMatrix, "<table></table>"))
	got, err := reg.GetDocument(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "<table></table>", got.ComplianceMatrix)
	assert.Equal(t, "Request for Proposals", got.PDFContent)

	assert.ErrorIs(t, reg.UpdateArtifact(ctx, created.ID+100, domain.KindCoverSheet, "x"), domain.ErrNotFound)
	assert.ErrorIs(t, reg.UpdateArtifact(ctx, created.ID, domain.ArtifactKind("poem"), "x"), domain.ErrUnknownArtifactKind)

	docs, err := reg.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestPostgresRegistryFolders(t *testing.T) {
	pool := setupTestDB(t)
	reg := NewPostgresRegistry(pool)
	ctx := context.Background()

	folder, err := reg.CreateFolder(ctx, "Parks")
	require.NoError(t, err)
	doc, err := reg.CreateDocument(ctx, domain.NewDocument{Name: "rfp-b.pdf", FolderID: &folder.ID})
	require.NoError(t, err)
	assert.Equal(t, folder.ID, *doc.FolderID)

	require.NoError(t, reg.RenameFolder(ctx, folder.ID, "Parks & Rec"))
	folders, err := reg.ListFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "Parks & Rec", folders[0].Name)

	missing := folder.ID + 100
	assert.ErrorIs(t, reg.SetDocumentFolder(ctx, doc.ID, &missing), domain.ErrNotFound)

	moved, err := reg.ClearFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, moved)

	require.NoError(t, reg.SetDocumentFolder(ctx, doc.ID, &folder.ID))
	require.NoError(t, reg.DeleteFolder(ctx, folder.ID))
	assert.ErrorIs(t, reg.DeleteFolder(ctx, folder.ID), domain.ErrNotFound)

	got, err := reg.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, got.Uncategorized())
}

func TestPostgresRegistryNameLock(t *testing.T) {
	pool := setupTestDB(t)
	reg := NewPostgresRegistry(pool)
	ctx := context.Background()

	unlock, ok, err := reg.TryLockName(ctx, "rfp-c.pdf")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = reg.TryLockName(ctx, "rfp-c.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	other, ok, err := reg.TryLockName(ctx, "rfp-d.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	other()

	unlock()
	again, ok, err := reg.TryLockName(ctx, "rfp-c.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	again()
}
