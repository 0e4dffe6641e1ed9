package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"RfpIntel/internal/domain"
	"RfpIntel/internal/ports"
)

const (
	documentsTable = "documents"
	foldersTable   = "folders"
)

var documentColumns = []string{
	"id", "name", "pdf_content", "cover_sheet", "compliance_matrix", "feasibility_check",
	"description", "due_date", "folder_id", "created_at", "updated_at",
}

var folderColumns = []string{"id", "name", "created_at"}

// PostgresRegistry persists documents and folders into Postgres.
type PostgresRegistry struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

var (
	_ ports.DocumentRegistry = (*PostgresRegistry)(nil)
	_ ports.FolderRegistry   = (*PostgresRegistry)(nil)
	_ ports.NameLocker       = (*PostgresRegistry)(nil)
)

// NewPostgresRegistry wires a pgx pool implementation.
func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ListDocuments returns every document, newest first.
func (r *PostgresRegistry) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	query, args, err := r.sb.Select(documentColumns...).
		From(documentsTable).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list documents: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return docs, nil
}

// GetDocument loads one document by id.
func (r *PostgresRegistry) GetDocument(ctx context.Context, id int64) (domain.Document, error) {
	return r.getDocument(ctx, sq.Eq{"id": id})
}

// FindByName loads the document registered under name.
func (r *PostgresRegistry) FindByName(ctx context.Context, name string) (domain.Document, error) {
	return r.getDocument(ctx, sq.Eq{"name": name})
}

func (r *PostgresRegistry) getDocument(ctx context.Context, where sq.Eq) (domain.Document, error) {
	query, args, err := r.sb.Select(documentColumns...).
		From(documentsTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return domain.Document{}, fmt.Errorf("build get document: %w", err)
	}

	doc, err := scanDocument(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Document{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// CreateDocument inserts a freshly ingested document.
func (r *PostgresRegistry) CreateDocument(ctx context.Context, doc domain.NewDocument) (domain.Document, error) {
	query, args, err := r.sb.Insert(documentsTable).
		Columns("name", "pdf_content", "cover_sheet", "description", "due_date", "folder_id").
		Values(doc.Name, doc.PDFContent, doc.CoverSheet, doc.Description, doc.DueDate, doc.FolderID).
		Suffix("RETURNING " + strings.Join(documentColumns, ", ")).
		ToSql()
	if err != nil {
		return domain.Document{}, fmt.Errorf("build insert document: %w", err)
	}

	created, err := scanDocument(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrDuplicateName, doc.Name)
		}
		if isForeignKeyViolation(err) {
			return domain.Document{}, fmt.Errorf("folder: %w", domain.ErrNotFound)
		}
		return domain.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return created, nil
}

// UpdateArtifact overwrites the column backing kind.
func (r *PostgresRegistry) UpdateArtifact(ctx context.Context, id int64, kind domain.ArtifactKind, value string) error {
	column := kind.Column()
	if column == "" {
		return fmt.Errorf("%w: %q", domain.ErrUnknownArtifactKind, kind)
	}

	query, args, err := r.sb.Update(documentsTable).
		Set(column, value).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update artifact: %w", err)
	}
	return r.execOne(ctx, query, args, "update artifact")
}

// SetDocumentFolder moves a document into folderID, or out of any folder
// when folderID is nil.
func (r *PostgresRegistry) SetDocumentFolder(ctx context.Context, id int64, folderID *int64) error {
	query, args, err := r.sb.Update(documentsTable).
		Set("folder_id", folderID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build move document: %w", err)
	}

	err = r.execOne(ctx, query, args, "move document")
	if isForeignKeyViolation(err) {
		return fmt.Errorf("folder: %w", domain.ErrNotFound)
	}
	return err
}

// ListFolders returns folders ordered by name.
func (r *PostgresRegistry) ListFolders(ctx context.Context) ([]domain.Folder, error) {
	query, args, err := r.sb.Select(folderColumns...).
		From(foldersTable).
		OrderBy("name", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list folders: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	defer rows.Close()

	folders := make([]domain.Folder, 0)
	for rows.Next() {
		var f domain.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return folders, nil
}

// CreateFolder inserts a folder.
func (r *PostgresRegistry) CreateFolder(ctx context.Context, name string) (domain.Folder, error) {
	query, args, err := r.sb.Insert(foldersTable).
		Columns("name").
		Values(name).
		Suffix("RETURNING " + strings.Join(folderColumns, ", ")).
		ToSql()
	if err != nil {
		return domain.Folder{}, fmt.Errorf("build insert folder: %w", err)
	}

	var f domain.Folder
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&f.ID, &f.Name, &f.CreatedAt); err != nil {
		return domain.Folder{}, fmt.Errorf("insert folder: %w", err)
	}
	return f, nil
}

// RenameFolder changes a folder's display name.
func (r *PostgresRegistry) RenameFolder(ctx context.Context, id int64, name string) error {
	query, args, err := r.sb.Update(foldersTable).
		Set("name", name).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build rename folder: %w", err)
	}
	return r.execOne(ctx, query, args, "rename folder")
}

// DeleteFolder removes a folder. Member documents fall back to
// uncategorized through the foreign key.
func (r *PostgresRegistry) DeleteFolder(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete(foldersTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete folder: %w", err)
	}
	return r.execOne(ctx, query, args, "delete folder")
}

// ClearFolder detaches every document from the folder and returns how many
// moved.
func (r *PostgresRegistry) ClearFolder(ctx context.Context, id int64) (int64, error) {
	query, args, err := r.sb.Update(documentsTable).
		Set("folder_id", nil).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"folder_id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build clear folder: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear folder: %w", err)
	}
	return tag.RowsAffected(), nil
}

// TryLockName takes a session advisory lock keyed by the file name on a
// dedicated connection. The connection returns to the pool on unlock.
func (r *PostgresRegistry) TryLockName(ctx context.Context, name string) (func(), bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire conn: %w", err)
	}

	var locked bool
	err = conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtextextended($1, 0))`, name).Scan(&locked)
	if err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(unlockCtx, `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, name); err != nil {
			// a session lock dies with its connection
			_ = conn.Conn().Close(unlockCtx)
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (r *PostgresRegistry) execOne(ctx context.Context, query string, args []any, op string) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (domain.Document, error) {
	var d domain.Document
	err := row.Scan(
		&d.ID, &d.Name, &d.PDFContent, &d.CoverSheet, &d.ComplianceMatrix, &d.FeasibilityCheck,
		&d.Description, &d.DueDate, &d.FolderID, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
