package ports

import (
	"context"
	"time"

	"RfpIntel/internal/domain"
)

// FileStorage lists uploaded proposal files and builds their fetchable URLs.
type FileStorage interface {
	ListFiles(ctx context.Context, folder string) ([]domain.ExternalFile, error)
	FileURL(key string) string
}

// DocumentRegistry persists documents keyed by their external name.
type DocumentRegistry interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	GetDocument(ctx context.Context, id int64) (domain.Document, error)
	FindByName(ctx context.Context, name string) (domain.Document, error)
	CreateDocument(ctx context.Context, doc domain.NewDocument) (domain.Document, error)
	UpdateArtifact(ctx context.Context, id int64, kind domain.ArtifactKind, value string) error
	SetDocumentFolder(ctx context.Context, id int64, folderID *int64) error
}

// FolderRegistry persists folders. ClearFolder detaches every member
// document from the folder.
type FolderRegistry interface {
	ListFolders(ctx context.Context) ([]domain.Folder, error)
	CreateFolder(ctx context.Context, name string) (domain.Folder, error)
	RenameFolder(ctx context.Context, id int64, name string) error
	DeleteFolder(ctx context.Context, id int64) error
	ClearFolder(ctx context.Context, id int64) (int64, error)
}

// NameLocker serializes ingestion of one file name across processes.
// ok is false when another holder owns the name.
type NameLocker interface {
	TryLockName(ctx context.Context, name string) (unlock func(), ok bool, err error)
}

// Parser converts a document URL into chunked text.
type Parser interface {
	Name() string
	Parse(ctx context.Context, documentURL string) (domain.ParseResult, error)
}

// AsyncParser submits parse jobs answered later through a webhook.
type AsyncParser interface {
	ParseAsync(ctx context.Context, documentURL string, metadata map[string]string) (string, error)
	JobResult(ctx context.Context, jobID string) (domain.ParseResult, error)
}

// Completer runs one prompt profile against a document's text.
type Completer interface {
	Complete(ctx context.Context, profile domain.Profile, documentText string) (string, error)
}

// Notifier announces freshly ingested documents.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when queue drains execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
