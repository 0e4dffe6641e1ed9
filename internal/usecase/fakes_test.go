package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"RfpIntel/internal/domain"
)

type fakeStorage struct {
	files   []domain.ExternalFile
	listErr error
}

func (s *fakeStorage) ListFiles(context.Context, string) ([]domain.ExternalFile, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]domain.ExternalFile(nil), s.files...), nil
}

func (s *fakeStorage) FileURL(key string) string {
	return "https://files.test/f/" + key
}

// fakeRegistry is an in-memory document and folder registry.
type fakeRegistry struct {
	mu        sync.Mutex
	nextID    int64
	docs      map[int64]domain.Document
	folders   map[int64]domain.Folder
	createErr error
	updateErr error
	updates   int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{docs: map[int64]domain.Document{}, folders: map[int64]domain.Folder{}}
}

func (r *fakeRegistry) ListDocuments(context.Context) ([]domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Document, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRegistry) GetDocument(_ context.Context, id int64) (domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return domain.Document{}, domain.ErrNotFound
	}
	return d, nil
}

func (r *fakeRegistry) FindByName(_ context.Context, name string) (domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.Name == name {
			return d, nil
		}
	}
	return domain.Document{}, domain.ErrNotFound
}

func (r *fakeRegistry) CreateDocument(_ context.Context, in domain.NewDocument) (domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return domain.Document{}, r.createErr
	}
	r.nextID++
	now := time.Now()
	doc := domain.Document{
		ID:          r.nextID,
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

func (r *fakeRegistry) UpdateArtifact(_ context.Context, id int64, kind domain.ArtifactKind, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	d, ok := r.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if err := d.SetArtifact(kind, value); err != nil {
		return err
	}
	r.updates++
	r.docs[id] = d
	return nil
}

func (r *fakeRegistry) SetDocumentFolder(_ context.Context, id int64, folderID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if folderID != nil {
		if _, ok := r.folders[*folderID]; !ok {
			return domain.ErrNotFound
		}
	}
	d.FolderID = folderID
	r.docs[id] = d
	return nil
}

func (r *fakeRegistry) ListFolders(context.Context) ([]domain.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Folder, 0, len(r.folders))
	for _, f := range r.folders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRegistry) CreateFolder(_ context.Context, name string) (domain.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	f := domain.Folder{ID: r.nextID, Name: name, CreatedAt: time.Now()}
	r.folders[f.ID] = f
	return f, nil
}

func (r *fakeRegistry) RenameFolder(_ context.Context, id int64, name string) error {
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

func (r *fakeRegistry) DeleteFolder(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.folders, id)
	return nil
}

func (r *fakeRegistry) ClearFolder(_ context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for docID, d := range r.docs {
		if d.FolderID != nil && *d.FolderID == id {
			d.FolderID = nil
			r.docs[docID] = d
			n++
		}
	}
	return n, nil
}

type fakeParser struct {
	mu    sync.Mutex
	text  map[string]string
	fail  map[string]error
	calls []string
}

func (p *fakeParser) Name() string { return "fake" }

func (p *fakeParser) Parse(_ context.Context, url string) (domain.ParseResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, url)
	p.mu.Unlock()

	if err, ok := p.fail[url]; ok {
		return domain.ParseResult{}, err
	}
	text := "parsed " + url
	if t, ok := p.text[url]; ok {
		text = t
	}
	return domain.ParseResult{Chunks: []domain.Chunk{{Blocks: []domain.Block{{Content: text}}}}}, nil
}

// fakeCompleter answers each profile with a fixed string and counts calls.
type fakeCompleter struct {
	mu      sync.Mutex
	answers map[domain.Profile]string
	errs    map[domain.Profile]error
	calls   map[domain.Profile]int
	total   atomic.Int64
	gate    chan struct{}
}

func newFakeCompleter() *fakeCompleter {
	return &fakeCompleter{
		answers: map[domain.Profile]string{
			domain.ProfileCoverSheet:       `{"rfpIdentification":{"RFP number & title":"RFP 1"}}`,
			domain.ProfileSummary:          `{"summary":"Parks maintenance services.","dueDate":"2025-04-01"}`,
			domain.ProfileComplianceMatrix: "<table><tr><th>Req</th></tr></table>",
			domain.ProfileFeasibility:      `[{"req_no":1,"feasible":"Yes"}]`,
		},
		errs:  map[domain.Profile]error{},
		calls: map[domain.Profile]int{},
	}
}

func (c *fakeCompleter) Complete(ctx context.Context, profile domain.Profile, text string) (string, error) {
	c.total.Add(1)
	c.mu.Lock()
	c.calls[profile]++
	gate := c.gate
	answer, ok := c.answers[profile]
	err := c.errs[profile]
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no answer for %s", profile)
	}
	if profile == domain.ProfileQuestion {
		return answer + " | " + text, nil
	}
	return answer, nil
}

func (c *fakeCompleter) count(profile domain.Profile) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[profile]
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, digest)
	return n.err
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLocker) TryLockName(_ context.Context, name string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[name] {
		return nil, false, nil
	}
	l.held[name] = true
	return func() {
		l.mu.Lock()
		delete(l.held, name)
		l.mu.Unlock()
	}, true, nil
}

var errBoom = errors.New("boom")
