package documents

import (
	"encoding/json"

	"github.com/akeren/crpt-gateway/internal/models"
	"github.com/akeren/crpt-gateway/pkg/constants"
	"github.com/akeren/crpt-gateway/pkg/document"
)

const (
	defaultReceiptsPageSize = 50
	maxReceiptsPageSize     = 200
)

type ListReceiptsQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

type NormalizeDocumentResponse struct {
	Document json.RawMessage  `json:"document"`
	Report   *document.Report `json:"report"`
}

type SubmitDocumentResponse struct {
	ReceiptID      string           `json:"receipt_id,omitempty"`
	UpstreamStatus int              `json:"upstream_status"`
	UpstreamText   string           `json:"upstream_status_text"`
	Accepted       bool             `json:"accepted"`
	WaitedMs       int64            `json:"waited_ms"`
	ElapsedMs      int64            `json:"elapsed_ms"`
	Report         *document.Report `json:"report"`
}

type ReceiptResponse struct {
	ID             string `json:"id"`
	CorrelationID  string `json:"correlation_id"`
	DocID          string `json:"doc_id"`
	DocType        string `json:"doc_type"`
	UpstreamStatus int    `json:"upstream_status"`
	Succeeded      bool   `json:"succeeded"`
	ErrorType      string `json:"error_type,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
	PayloadSHA256  string `json:"payload_sha256"`
	WaitedMs       int64  `json:"waited_ms"`
	DurationMs     int64  `json:"duration_ms"`
	CreatedAt      string `json:"created_at"`
}

// ========================================
// Mappers
// ========================================

func ToReceiptResponse(receipt *models.SubmissionReceipt) ReceiptResponse {
	if receipt == nil {
		return ReceiptResponse{}
	}
	return ReceiptResponse{
		ID:             receipt.ID,
		CorrelationID:  receipt.CorrelationID,
		DocID:          receipt.DocID,
		DocType:        receipt.DocType,
		UpstreamStatus: receipt.StatusCode,
		Succeeded:      receipt.Succeeded,
		ErrorType:      receipt.ErrorType,
		ErrorMessage:   receipt.ErrorMessage,
		PayloadSHA256:  receipt.PayloadSHA256,
		WaitedMs:       receipt.WaitedMs,
		DurationMs:     receipt.DurationMs,
		CreatedAt:      receipt.CreatedAt.UTC().Format(constants.RFC3339DateTimeFormat),
	}
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultReceiptsPageSize
	}
	if limit > maxReceiptsPageSize {
		limit = maxReceiptsPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
