package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"RfpIntel/internal/domain"
	"RfpIntel/internal/infrastructure/export"
	"RfpIntel/internal/infrastructure/table"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// documentSummary is a listing row without the heavy text fields.
type documentSummary struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	DueDate     string    `json:"dueDate"`
	FolderID    *int64    `json:"folderId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type artifactResponse struct {
	DocumentID int64               `json:"documentId"`
	Kind       domain.ArtifactKind `json:"kind"`
	Content    string              `json:"content"`
}

type saveArtifactRequest struct {
	Content string `json:"content"`
}

type complianceTableResponse struct {
	Parsed bool         `json:"parsed"`
	Table  *table.Table `json:"table,omitempty"`
	Raw    string       `json:"raw"`
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type moveDocumentRequest struct {
	FolderID *int64 `json:"folderId"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.deps.Documents.ListDocuments(r.Context())
	if err != nil {
		s.logger.Error("list documents failed", "error", err)
		respondErr(w, err, http.StatusInternalServerError)
		return
	}

	folder, filter := folderFilter(r)
	out := make([]documentSummary, 0, len(docs))
	for _, d := range docs {
		if filter && !inFolder(d, folder) {
			continue
		}
		out = append(out, documentSummary{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			DueDate:     d.DueDate,
			FolderID:    d.FolderID,
			CreatedAt:   d.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// folderFilter reads ?folder=<id>|uncategorized.
func folderFilter(r *http.Request) (*int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("folder"))
	if raw == "" {
		return nil, false
	}
	if raw == "uncategorized" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func inFolder(d domain.Document, folder *int64) bool {
	if folder == nil {
		return d.Uncategorized()
	}
	return d.FolderID != nil && *d.FolderID == *folder
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseArtifactKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondErr(w, err, http.StatusBadRequest)
		return
	}
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}

	content, err := s.deps.Resolver.Resolve(r.Context(), doc, kind)
	if err != nil {
		respondErr(w, err, http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, artifactResponse{DocumentID: doc.ID, Kind: kind, Content: content})
}

func (s *Server) handleSaveArtifact(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	kind, err := domain.ParseArtifactKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondErr(w, err, http.StatusBadRequest)
		return
	}
	var req saveArtifactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.deps.Resolver.Save(r.Context(), id, kind, req.Content); err != nil {
		s.logger.Error("save artifact failed", "document_id", id, "kind", string(kind), "error", err)
		respondErr(w, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, artifactResponse{DocumentID: id, Kind: kind, Content: req.Content})
}

func (s *Server) handleComplianceTable(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	raw, err := s.deps.Resolver.Resolve(r.Context(), doc, domain.KindComplianceMatrix)
	if err != nil {
		respondErr(w, err, http.StatusBadGateway)
		return
	}

	resp := complianceTableResponse{Raw: raw}
	if t, parsed := table.ParseComplianceTable(raw); parsed {
		resp.Parsed = true
		resp.Table = &t
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCoverSheetXLSX(w http.ResponseWriter, r *http.Request) {
	doc, raw, ok := s.coverSheet(w, r)
	if !ok {
		return
	}
	body, err := export.CoverSheetXLSX(raw)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(doc.Name)+"-cover-sheet.xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleCoverSheetMarkdown(w http.ResponseWriter, r *http.Request) {
	_, raw, ok := s.coverSheet(w, r)
	if !ok {
		return
	}
	md, err := export.CoverSheetMarkdown(raw)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(md))
}

func (s *Server) coverSheet(w http.ResponseWriter, r *http.Request) (domain.Document, string, bool) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return domain.Document{}, "", false
	}
	raw, err := s.deps.Resolver.Resolve(r.Context(), doc, domain.KindCoverSheet)
	if err != nil {
		respondErr(w, err, http.StatusBadGateway)
		return domain.Document{}, "", false
	}
	return doc, raw, true
}

func exportName(name string) string {
	name = strings.TrimSuffix(name, ".pdf")
	name = strings.TrimSuffix(name, ".PDF")
	if name == "" {
		return "document"
	}
	return name
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}

	answer, err := s.deps.Resolver.Ask(r.Context(), doc, req.Question)
	if err != nil {
		respondErr(w, err, http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, askResponse{Answer: answer})
}

func (s *Server) handleMoveDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	var req moveDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.deps.Folders.MoveDocument(r.Context(), id, req.FolderID); err != nil {
		respondErr(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loadDocument(w http.ResponseWriter, r *http.Request) (domain.Document, bool) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return domain.Document{}, false
	}
	doc, err := s.deps.Documents.GetDocument(r.Context(), id)
	if err != nil {
		respondErr(w, err, http.StatusInternalServerError)
		return domain.Document{}, false
	}
	return doc, true
}
