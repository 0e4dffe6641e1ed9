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

// Folders manages document grouping. Folders carry no pipeline semantics.
type Folders struct {
	folders   ports.FolderRegistry
	documents ports.DocumentRegistry
	logger    *slog.Logger
}

// NewFolders constructs the folder use case.
func NewFolders(folders ports.FolderRegistry, documents ports.DocumentRegistry, logger *slog.Logger) *Folders {
	return &Folders{folders: folders, documents: documents, logger: orDiscard(logger)}
}

// ErrEmptyFolderName rejects blank folder names.
var ErrEmptyFolderName = errors.New("folder name is empty")

// List returns every folder.
func (f *Folders) List(ctx context.Context) ([]domain.Folder, error) {
	folders, err := f.folders.ListFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

// Create adds a folder.
func (f *Folders) Create(ctx context.Context, name string) (domain.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Folder{}, ErrEmptyFolderName
	}
	folder, err := f.folders.CreateFolder(ctx, name)
	if err != nil {
		return domain.Folder{}, fmt.Errorf("create folder: %w", err)
	}
	f.logger.Info("folder created", "folder_id", folder.ID, "name", name)
	return folder, nil
}

// Rename changes a folder's display name.
func (f *Folders) Rename(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyFolderName
	}
	if err := f.folders.RenameFolder(ctx, id, name); err != nil {
		return fmt.Errorf("rename folder %d: %w", id, err)
	}
	return nil
}

// Delete detaches every member document, then removes the folder. If the
// delete fails after the detach, documents stay uncategorized.
func (f *Folders) Delete(ctx context.Context, id int64) error {
	detached, err := f.folders.ClearFolder(ctx, id)
	if err != nil {
		return fmt.Errorf("clear folder %d: %w", id, err)
	}
	if err := f.folders.DeleteFolder(ctx, id); err != nil {
		return fmt.Errorf("delete folder %d: %w", id, err)
	}
	f.logger.Info("folder deleted", "folder_id", id, "detached_documents", detached)
	return nil
}

// MoveDocument assigns a document to a folder; nil makes it uncategorized.
// Failures are surfaced unchanged so the caller can revert its own state.
func (f *Folders) MoveDocument(ctx context.Context, documentID int64, folderID *int64) error {
	if err := f.documents.SetDocumentFolder(ctx, documentID, folderID); err != nil {
		return fmt.Errorf("move document %d: %w", documentID, err)
	}
	return nil
}
