package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"RfpIntel/internal/domain"
	"RfpIntel/internal/ports"
)

// Registry keeps documents and folders in process memory. It backs local
// runs without a database and mirrors the Postgres registry's rules:
// names are unique and folder references must exist.
type Registry struct {
	mu      sync.Mutex
	nextDoc int64
	nextFol int64
	docs    map[int64]domain.Document
	folders map[int64]domain.Folder
	locks   map[string]struct{}
	now     func() time.Time
}

var (
	_ ports.DocumentRegistry = (*Registry)(nil)
	_ ports.FolderRegistry   = (*Registry)(nil)
	_ ports.NameLocker       = (*Registry)(nil)
)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		docs:    make(map[int64]domain.Document),
		folders: make(map[int64]domain.Folder),
		locks:   make(map[string]struct{}),
		now:     time.Now,
	}
}

// ListDocuments returns documents newest first.
func (r *Registry) ListDocuments(context.Context) ([]domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Document, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Registry) GetDocument(_ context.Context, id int64) (domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.docs[id]
	if !ok {
		return domain.Document{}, domain.ErrNotFound
	}
	return d, nil
}

func (r *Registry) FindByName(_ context.Context, name string) (domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.byName(name); ok {
		return d, nil
	}
	return domain.Document{}, domain.ErrNotFound
}

func (r *Registry) CreateDocument(_ context.Context, in domain.NewDocument) (domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName(in.Name); ok {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrDuplicateName, in.Name)
	}
	if in.FolderID != nil {
		if _, ok := r.folders[*in.FolderID]; !ok {
			return domain.Document{}, fmt.Errorf("folder: %w", domain.ErrNotFound)
		}
	}

	r.nextDoc++
	now := r.now()
	doc := domain.Document{
		ID:          r.nextDoc,
		Name:        in.Name,
		PDFContent:  in.PDFContent,
		CoverSheet:  in.CoverSheet,
		Description: in.Description,
		DueDate:     in.DueDate,
		FolderID:    in.FolderID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.docs[doc.ID] = doc
	return doc, nil
}

func (r *Registry) UpdateArtifact(_ context.Context, id int64, kind domain.ArtifactKind, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if err := d.SetArtifact(kind, value); err != nil {
		return fmt.Errorf("%w: %q", err, kind)
	}
	d.UpdatedAt = r.now()
	r.docs[id] = d
	return nil
}

func (r *Registry) SetDocumentFolder(_ context.Context, id int64, folderID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if folderID != nil {
		if _, ok := r.folders[*folderID]; !ok {
			return fmt.Errorf("folder: %w", domain.ErrNotFound)
		}
		fid := *folderID
		folderID = &fid
	}
	d.FolderID = folderID
	d.UpdatedAt = r.now()
	r.docs[id] = d
	return nil
}

// ListFolders returns folders ordered by name.
func (r *Registry) ListFolders(context.Context) ([]domain.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Folder, 0, len(r.folders))
	for _, f := range r.folders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *Registry) CreateFolder(_ context.Context, name string) (domain.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextFol++
	f := domain.Folder{ID: r.nextFol, Name: name, CreatedAt: r.now()}
	r.folders[f.ID] = f
	return f, nil
}

func (r *Registry) RenameFolder(_ context.Context, id int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.folders[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.Name = name
	r.folders[id] = f
	return nil
}

// DeleteFolder removes the folder and, like ON DELETE SET NULL, detaches
// any document still pointing at it.
func (r *Registry) DeleteFolder(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.folders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.folders, id)
	r.detach(id)
	return nil
}

func (r *Registry) ClearFolder(_ context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detach(id), nil
}

// TryLockName is a process-local stand-in for the advisory lock.
func (r *Registry) TryLockName(_ context.Context, name string) (func(), bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.locks[name]; held {
		return nil, false, nil
	}
	r.locks[name] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.locks, name)
			r.mu.Unlock()
		})
	}, true, nil
}

func (r *Registry) byName(name string) (domain.Document, bool) {
	for _, d := range r.docs {
		if d.Name == name {
			return d, true
		}
	}
	return domain.Document{}, false
}

func (r *Registry) detach(folderID int64) int64 {
	var n int64
	for id, d := range r.docs {
		if d.FolderID != nil && *d.FolderID == folderID {
			d.FolderID = nil
			d.UpdatedAt = r.now()
			r.docs[id] = d
			n++
		}
	}
	return n
}
