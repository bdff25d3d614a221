package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionReceipt records the outcome of one submission. The document body is never stored.
type SubmissionReceipt struct {
	ID            string    `gorm:"type:text;primaryKey" json:"id"`
	CorrelationID string    `gorm:"index" json:"correlation_id"`
	DocID         string    `gorm:"index" json:"doc_id"`
	DocType       string    `json:"doc_type"`
	StatusCode    int       `gorm:"not null;default:0" json:"status_code"`
	Succeeded     bool      `gorm:"not null;default:false" json:"succeeded"`
	ErrorType     string    `json:"error_type"`
	ErrorMessage  string    `json:"error_message"`
	PayloadSHA256 string    `gorm:"type:char(64);not null" json:"payload_sha256"`
	WaitedMs      int64     `gorm:"not null;default:0" json:"waited_ms"`
	DurationMs    int64     `gorm:"not null;default:0" json:"duration_ms"`
	CreatedAt     time.Time `gorm:"not null;index" json:"created_at"`
}

func (r *SubmissionReceipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// ModelRegistry lists the gorm models; the schema itself is owned by the SQL migrations.
var ModelRegistry = []interface{}{
	&SubmissionReceipt{},
}
