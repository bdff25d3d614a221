package documents

//go:generate mockgen -source=service.go -destination=mock_service.go -package=documents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/akeren/crpt-gateway/internal/models"
	"github.com/akeren/crpt-gateway/pkg/document"
	apperrors "github.com/akeren/crpt-gateway/pkg/errors"
	"github.com/akeren/crpt-gateway/pkg/submitter"
)

const (
	receiptCacheKeyPrefix = "crpt-gateway:receipt:"
	receiptCacheTTL       = 10 * time.Minute

	// receiptWriteTimeout bounds the journal write, which outlives the request context.
	receiptWriteTimeout = 5 * time.Second
)

// DocumentSubmitter is the rate-limited client for the registration service.
type DocumentSubmitter interface {
	Submit(ctx context.Context, body []byte, signature string) (*submitter.Result, error)
}

// ReceiptCache holds immutable receipts by ID. Get returns ("", nil) on a miss.
type ReceiptCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

type DocumentService interface {
	// Normalize maps a raw document onto the canonical wire form without submitting it.
	Normalize(ctx context.Context, raw []byte) (*NormalizeDocumentResponse, error)

	// Submit normalizes, submits and journals a document.
	Submit(ctx context.Context, raw []byte, signature string) (*SubmitDocumentResponse, error)

	// FindReceiptByID retrieves a submission receipt.
	FindReceiptByID(ctx context.Context, id string) (*ReceiptResponse, error)

	// ListReceipts pages through receipts, newest first.
	ListReceipts(ctx context.Context, limit, offset int) ([]ReceiptResponse, error)
}

type documentService struct {
	logger     *log.Logger
	submitter  DocumentSubmitter
	repository ReceiptRepository
	cache      ReceiptCache
}

// NewDocumentService accepts a nil cache.
func NewDocumentService(logger *log.Logger, submitter DocumentSubmitter, repository ReceiptRepository, cache ReceiptCache) DocumentService {
	return &documentService{
		logger:     logger,
		submitter:  submitter,
		repository: repository,
		cache:      cache,
	}
}

func (s *documentService) Normalize(ctx context.Context, raw []byte) (*NormalizeDocumentResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	doc, report, body, err := canonicalize(raw)
	if err != nil {
		logger.Error("Failed to normalize document", "error", err)
		return nil, err
	}

	if report.HasIssues() {
		logger.Warn("Document has fields that could not be mapped", "invalid", len(report.Invalid), "doc_id", document.StringOrEmpty(doc.DocID))
	}

	return &NormalizeDocumentResponse{Document: json.RawMessage(body), Report: report}, nil
}

func (s *documentService) Submit(ctx context.Context, raw []byte, signature string) (*SubmitDocumentResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if strings.TrimSpace(signature) == "" {
		logger.Error("Submit received a request without a signature")
		return nil, apperrors.NewInvalidRequestError("signature is required", nil)
	}

	doc, report, body, err := canonicalize(raw)
	if err != nil {
		logger.Error("Failed to normalize document for submission", "error", err)
		return nil, err
	}

	if s.submitter == nil {
		logger.Error("Submit called without a configured submitter")
		return nil, apperrors.NewConfigurationError("document submission is not configured", nil)
	}

	digest := sha256.Sum256(body)
	receipt := &models.SubmissionReceipt{
		CorrelationID: log.GetOrGenerateCorrelationID(ctx),
		DocID:         document.StringOrEmpty(doc.DocID),
		DocType:       doc.PrimaryDocType(),
		PayloadSHA256: hex.EncodeToString(digest[:]),
	}

	started := time.Now()
	result, submitErr := s.submitter.Submit(ctx, body, signature)
	receipt.DurationMs = time.Since(started).Milliseconds()

	if submitErr != nil {
		receipt.ErrorType = apperrors.GetErrorType(submitErr)
		receipt.ErrorMessage = apperrors.GetHumanReadableMessage(submitErr)
		if receipt.ErrorType != apperrors.ErrorTypeInvalidRequest {
			s.recordReceipt(ctx, logger, receipt)
		}
		logger.Error("Document submission failed", "doc_id", receipt.DocID, "error", submitErr)
		return nil, submitErr
	}

	receipt.StatusCode = result.StatusCode
	receipt.Succeeded = result.Succeeded()
	receipt.WaitedMs = result.Waited.Milliseconds()
	receipt.DurationMs = result.Elapsed.Milliseconds()
	if !receipt.Succeeded {
		receipt.ErrorType = apperrors.ErrorTypeUpstreamRejected
		receipt.ErrorMessage = result.Status
	}
	s.recordReceipt(ctx, logger, receipt)

	return &SubmitDocumentResponse{
		ReceiptID:      receipt.ID,
		UpstreamStatus: result.StatusCode,
		UpstreamText:   result.Status,
		Accepted:       result.Succeeded(),
		WaitedMs:       receipt.WaitedMs,
		ElapsedMs:      receipt.DurationMs,
		Report:         report,
	}, nil
}

// recordReceipt journals the outcome. Cancelled and timed-out submissions are journaled too, so the
// write detaches from the caller's cancellation. A journal failure does not undo a completed
// submission: it is logged and the receipt ID is left empty.
func (s *documentService) recordReceipt(ctx context.Context, logger *log.Logger, receipt *models.SubmissionReceipt) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), receiptWriteTimeout)
	defer cancel()

	if _, err := s.repository.CreateReceipt(writeCtx, receipt); err != nil {
		logger.Error("Failed to record submission receipt", "doc_id", receipt.DocID, "error", err)
		receipt.ID = ""
	}
}

func (s *documentService) FindReceiptByID(ctx context.Context, id string) (*ReceiptResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if strings.TrimSpace(id) == "" {
		logger.Error("FindReceiptByID received empty ID")
		return nil, apperrors.NewInvalidRequestError("invalid receipt ID", nil)
	}

	if cached := s.cachedReceipt(ctx, logger, id); cached != nil {
		return cached, nil
	}

	receipt, err := s.repository.FindReceiptByID(ctx, id)
	if err != nil {
		logger.Error("Failed to find submission receipt", "id", id, "error", err)
		return nil, err
	}

	response := ToReceiptResponse(receipt)
	s.cacheReceipt(ctx, logger, &response)
	return &response, nil
}

func (s *documentService) ListReceipts(ctx context.Context, limit, offset int) ([]ReceiptResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	limit, offset = normalizePage(limit, offset)

	receipts, err := s.repository.ListReceipts(ctx, limit, offset)
	if err != nil {
		logger.Error("Failed to list submission receipts", "error", err)
		return nil, err
	}

	responses := make([]ReceiptResponse, 0, len(receipts))
	for _, receipt := range receipts {
		responses = append(responses, ToReceiptResponse(receipt))
	}

	return responses, nil
}

func (s *documentService) cachedReceipt(ctx context.Context, logger *log.Logger, id string) *ReceiptResponse {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, receiptCacheKeyPrefix+id)
	if err != nil {
		logger.Warn("Receipt cache lookup failed", "id", id, "error", err)
		return nil
	}
	if raw == "" {
		return nil
	}

	var response ReceiptResponse
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		logger.Warn("Discarding malformed cached receipt", "id", id, "error", err)
		return nil
	}
	return &response
}

func (s *documentService) cacheReceipt(ctx context.Context, logger *log.Logger, response *ReceiptResponse) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, receiptCacheKeyPrefix+response.ID, string(data), receiptCacheTTL); err != nil {
		logger.Warn("Failed to cache receipt", "id", response.ID, "error", err)
	}
}

// canonicalize decodes raw tolerantly and re-serializes the mapped fields.
func canonicalize(raw []byte) (*document.Document, *document.Report, []byte, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil, nil, apperrors.NewInvalidRequestError("document body is empty", nil)
	}

	doc, report, err := document.Decode(raw)
	if err != nil {
		return nil, nil, nil, apperrors.NewInvalidRequestError("document must be a JSON object", err)
	}

	body, err := document.Marshal(doc)
	if err != nil {
		return nil, nil, nil, apperrors.NewInternalServerError("failed to serialize document", err)
	}

	return doc, report, body, nil
}
