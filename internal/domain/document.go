package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by registries when a document or folder is absent.
	ErrNotFound = errors.New("not found")
	// ErrUnknownArtifactKind rejects kinds outside the closed ArtifactKind set.
	ErrUnknownArtifactKind = errors.New("unknown artifact kind")
	// ErrEmptyContent means a document has no parsed text to derive artifacts from.
	ErrEmptyContent = errors.New("document has no parsed content")
	// ErrDuplicateName is reported when a file name is already registered.
	ErrDuplicateName = errors.New("document name already registered")
	// ErrReadOnlyArtifact rejects edits to pdfContent, which never changes
	// once ingested.
	ErrReadOnlyArtifact = errors.New("artifact is read-only")
)

// Document is the registry record for one ingested proposal file.
// Content fields stay empty until computed.
type Document struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	PDFContent       string    `json:"pdfContent"`
	CoverSheet       string    `json:"coverSheet"`
	ComplianceMatrix string    `json:"complianceMatrix"`
	FeasibilityCheck string    `json:"feasibilityCheck"`
	Description      string    `json:"description"`
	DueDate          string    `json:"dueDate"`
	FolderID         *int64    `json:"folderId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Artifact returns the stored value for kind.
func (d Document) Artifact(kind ArtifactKind) (string, error) {
	switch kind {
	case KindPDFContent:
		return d.PDFContent, nil
	case KindCoverSheet:
		return d.CoverSheet, nil
	case KindComplianceMatrix:
		return d.ComplianceMatrix, nil
	case KindFeasibilityCheck:
		return d.FeasibilityCheck, nil
	default:
		return "", ErrUnknownArtifactKind
	}
}

// SetArtifact writes value into the field backing kind.
func (d *Document) SetArtifact(kind ArtifactKind, value string) error {
	switch kind {
	case KindPDFContent:
		d.PDFContent = value
	case KindCoverSheet:
		d.CoverSheet = value
	case KindComplianceMatrix:
		d.ComplianceMatrix = value
	case KindFeasibilityCheck:
		d.FeasibilityCheck = value
	default:
		return ErrUnknownArtifactKind
	}
	return nil
}

// Uncategorized reports whether the document sits outside any folder.
func (d Document) Uncategorized() bool {
	return d.FolderID == nil
}

// Folder groups documents for organization only.
type Folder struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExternalFile is an object-storage entry considered for ingestion.
type ExternalFile struct {
	Name       string    `json:"name"`
	Key        string    `json:"key"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// NewDocument carries the fields persisted on first successful ingestion.
type NewDocument struct {
	Name        string
	PDFContent  string
	CoverSheet  string
	Description string
	DueDate     string
	FolderID    *int64
}
