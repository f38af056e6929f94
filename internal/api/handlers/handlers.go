package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-ingest/internal/api/middleware"
	"github.com/dvloznov/statement-ingest/internal/domain"
	"github.com/dvloznov/statement-ingest/internal/gcs"
	"github.com/dvloznov/statement-ingest/internal/jobs"
	"github.com/dvloznov/statement-ingest/internal/pipeline"
	"github.com/dvloznov/statement-ingest/internal/rules"
)

// maxStatementUploadBytes caps multipart statement uploads.
const maxStatementUploadBytes = 32 << 20

// StatementsHandler handles statement upload and ingestion endpoints.
type StatementsHandler struct {
	storage   gcs.StorageService
	publisher jobs.Publisher
	bucket    string
	log       zerolog.Logger
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(storage gcs.StorageService, publisher jobs.Publisher, bucket string, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		storage:   storage,
		publisher: publisher,
		bucket:    bucket,
		log:       log,
	}
}

// UploadStatement handles POST /api/statements
// Accepts a multipart statement CSV, stores it in GCS and enqueues ingestion.
func (h *StatementsHandler) UploadStatement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.bucket == "" {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Statement uploads are disabled: no bucket configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxStatementUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." {
		filename = "statement.csv"
	}

	objectName := fmt.Sprintf("statements/%s/%s", time.Now().Format("2006/01/02"), uuid.New().String()+"-"+filename)
	gcsURI := fmt.Sprintf("gs://%s/%s", h.bucket, objectName)

	if err := h.storage.Upload(ctx, h.bucket, objectName, file); err != nil {
		h.log.Error().Err(err).Str("gcs_uri", gcsURI).Msg("Failed to upload statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload statement")
		return
	}

	job := &jobs.IngestStatementJob{GCSURI: gcsURI}
	if err := h.publisher.PublishIngestStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Str("gcs_uri", gcsURI).Msg("Failed to enqueue ingestion job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingestion job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("gcs_uri", gcsURI).
		Str("filename", filename).
		Msg("Statement uploaded and ingestion enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"gcs_uri": gcsURI,
		"status":  string(job.Status),
	})
}

// EnqueueIngestion handles POST /api/statements/ingest
// Enqueues ingestion for a statement CSV that is already in GCS.
func (h *StatementsHandler) EnqueueIngestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GCSURI string `json:"gcs_uri"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.GCSURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "gcs_uri is required")
		return
	}

	ctx := r.Context()

	job := &jobs.IngestStatementJob{GCSURI: req.GCSURI}
	if err := h.publisher.PublishIngestStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue ingestion job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingestion job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("gcs_uri", req.GCSURI).Msg("Ingestion job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"gcs_uri": req.GCSURI,
		"status":  string(job.Status),
	})
}

// RulesHandler handles classification rule endpoints.
type RulesHandler struct {
	store *rules.Store
	log   zerolog.Logger
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(store *rules.Store, log zerolog.Logger) *RulesHandler {
	return &RulesHandler{
		store: store,
		log:   log,
	}
}

// ListRules handles GET /api/rules
func (h *RulesHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	entries := h.store.Rules()

	type ruleEntry struct {
		Category string   `json:"category"`
		Patterns []string `json:"patterns"`
	}
	out := make([]ruleEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ruleEntry{Category: e.Category, Patterns: e.Patterns})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rules": out,
		"count": len(out),
	})
}

// AddRule handles POST /api/rules
func (h *RulesHandler) AddRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
		Pattern  string `json:"pattern"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Category == "" || req.Pattern == "" {
		middleware.WriteError(w, http.StatusBadRequest, "category and pattern are required")
		return
	}

	if err := h.store.AddRule(req.Category, req.Pattern); err != nil {
		h.log.Error().Err(err).Str("category", req.Category).Msg("Failed to add rule")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to persist rule")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{
		"category": req.Category,
		"pattern":  req.Pattern,
		"status":   "added",
	})
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	repo TransactionRepository
	log  zerolog.Logger
}

// TransactionRepository is the repository slice the handler needs.
// *bigquery.Repository is the production implementation.
type TransactionRepository interface {
	pipeline.TransactionRepository
	QueryTransactionsByMonth(ctx context.Context, execMonth string) ([]*domain.Transaction, error)
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo TransactionRepository, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		repo: repo,
		log:  log,
	}
}

// ListTransactions handles GET /api/transactions?month=YYYY-MM
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	transactions, err := h.repo.QueryTransactionsByMonth(ctx, month)
	if err != nil {
		h.log.Error().Err(err).Str("month", month).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	out := make([]transactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		out = append(out, toTransactionResponse(tx))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": out,
		"count":        len(out),
	})
}

// PatchTransaction handles PATCH /api/transactions/{id}
func (h *TransactionsHandler) PatchTransaction(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	var req struct {
		Receiver        *string          `json:"receiver"`
		Title           *string          `json:"title"`
		Amount          *decimal.Decimal `json:"amount"`
		TransactionType *string          `json:"transaction_type"`
		Category        *string          `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	patch := domain.TransactionPatch{
		Receiver:        req.Receiver,
		Title:           req.Title,
		Amount:          req.Amount,
		TransactionType: req.TransactionType,
		Category:        req.Category,
	}

	if patch.IsZero() {
		middleware.WriteError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	updated, err := h.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to update transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toTransactionResponse(updated))
}

// transactionResponse is the JSON shape of a stored transaction. Amount is a
// decimal string so callers do not lose precision to float encoding.
type transactionResponse struct {
	ID              string `json:"transaction_id"`
	Date            string `json:"date,omitempty"`
	ExecMonth       string `json:"exec_month"`
	Receiver        string `json:"receiver"`
	Title           string `json:"title"`
	Amount          string `json:"amount"`
	TransactionType string `json:"transaction_type"`
	Category        string `json:"category"`
	RefNumber       string `json:"ref_number"`
	StatementID     string `json:"statement_id,omitempty"`
	IngestRunID     string `json:"ingest_run_id,omitempty"`
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:              tx.ID,
		Date:            tx.DateString(),
		ExecMonth:       tx.ExecMonth,
		Receiver:        tx.Receiver,
		Title:           tx.Title,
		Amount:          tx.Amount.String(),
		TransactionType: tx.TransactionType,
		Category:        tx.Category,
		RefNumber:       tx.RefNumber,
		StatementID:     tx.StatementID,
		IngestRunID:     tx.IngestRunID,
	}
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		StatementID: query.Get("statement_id"),
		Status:      jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
