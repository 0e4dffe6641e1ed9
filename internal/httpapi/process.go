package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"RfpIntel/internal/domain"
	"RfpIntel/internal/infrastructure/reducto"
	"RfpIntel/internal/usecase"
)

type processNextResponse struct {
	Success        bool    `json:"success"`
	ProcessedFile  *string `json:"processedFile"`
	DocumentID     *int64  `json:"documentId,omitempty"`
	RemainingFiles int     `json:"remainingFiles"`
	Skipped        bool    `json:"skipped,omitempty"`
	Message        string  `json:"message"`
}

type drainResponse struct {
	RunID       string   `json:"runId"`
	Discovered  int      `json:"discovered"`
	Processed   int      `json:"processed"`
	Failed      int      `json:"failed"`
	Skipped     int      `json:"skipped"`
	DeadLetters []string `json:"deadLetters"`
}

type parseWebhook struct {
	Status   string            `json:"status"`
	JobID    string            `json:"job_id"`
	Metadata map[string]string `json:"metadata"`
}

func (s *Server) folder(r *http.Request) string {
	if f := strings.TrimSpace(r.URL.Query().Get("folder")); f != "" {
		return f
	}
	return s.deps.Folder
}

// handleProcessNext ingests at most one new file. A per-file failure is
// reported with success=false and 200 so a polling client keeps going.
func (s *Server) handleProcessNext(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Pipeline.RunOnce(r.Context(), s.folder(r))
	if err != nil {
		s.logger.Error("process next: discovery failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, processNextResponse{Message: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, processNextBody(res))
}

func processNextBody(res usecase.Result) processNextResponse {
	if res.File == nil {
		return processNextResponse{Success: true, Message: "No new files to process"}
	}

	body := processNextResponse{
		ProcessedFile:  &res.File.Name,
		RemainingFiles: res.Remaining,
	}
	switch {
	case res.Skipped:
		body.Success = true
		body.Skipped = true
		body.Message = fmt.Sprintf("Skipped %s: already registered or in progress", res.File.Name)
	case res.Err != nil:
		body.Message = res.Err.Error()
	default:
		body.Success = true
		body.DocumentID = &res.Processed.ID
		body.Message = fmt.Sprintf("Processed %s", res.File.Name)
	}
	return body
}

func (s *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	if s.deps.Queue == nil {
		respondError(w, http.StatusServiceUnavailable, "queue is not configured")
		return
	}
	summary, err := s.deps.Queue.Drain(r.Context(), s.folder(r))
	if err != nil {
		respondErr(w, err, http.StatusInternalServerError)
		return
	}
	dead := s.deps.Queue.DeadLetters()
	if dead == nil {
		dead = []string{}
	}
	respondJSON(w, http.StatusOK, drainResponse{
		RunID:       summary.RunID,
		Discovered:  summary.Discovered,
		Processed:   summary.Processed,
		Failed:      summary.Failed,
		Skipped:     summary.Skipped,
		DeadLetters: dead,
	})
}

// handleParseWebhook finishes an async parse job. Only completed jobs
// trigger ingestion; other statuses are acknowledged and ignored.
func (s *Server) handleParseWebhook(w http.ResponseWriter, r *http.Request) {
	if s.deps.Jobs == nil {
		respondError(w, http.StatusServiceUnavailable, "async parsing is not configured")
		return
	}

	var hook parseWebhook
	if err := decodeJSON(r, &hook); err != nil {
		respondError(w, http.StatusBadRequest, "invalid webhook body")
		return
	}
	log := s.logger.With("job_id", hook.JobID, "status", hook.Status)

	if hook.Status != reducto.StatusCompleted {
		log.Info("parse webhook ignored")
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "ignored"})
		return
	}
	fileName := strings.TrimSpace(hook.Metadata["fileName"])
	if hook.JobID == "" || fileName == "" {
		respondError(w, http.StatusBadRequest, "job_id and metadata.fileName are required")
		return
	}
	log = log.With("file", fileName)

	parsed, err := s.deps.Jobs.JobResult(r.Context(), hook.JobID)
	if err != nil {
		log.Error("fetch job result failed", "error", err)
		if errors.Is(err, reducto.ErrJobNotReady) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondErr(w, err, http.StatusBadGateway)
		return
	}

	doc, err := s.deps.Pipeline.IngestParsed(r.Context(), fileName, parsed)
	switch {
	case usecase.IsSkipped(err) || errors.Is(err, domain.ErrDuplicateName):
		log.Info("webhook file already registered")
		respondJSON(w, http.StatusOK, map[string]string{"status": "skipped"})
	case err != nil:
		log.Error("webhook ingestion failed", "error", err)
		respondErr(w, err, http.StatusBadGateway)
	default:
		log.Info("webhook file ingested", "document_id", doc.ID)
		respondJSON(w, http.StatusOK, map[string]any{"status": "processed", "documentId": doc.ID})
	}
}
