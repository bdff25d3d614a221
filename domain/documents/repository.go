package documents

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=documents

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/crpt-gateway/internal/models"
	apperrors "github.com/akeren/crpt-gateway/pkg/errors"
	"gorm.io/gorm"
)

type ReceiptRepository interface {
	// CreateReceipt persists a submission receipt and assigns its ID.
	CreateReceipt(ctx context.Context, receipt *models.SubmissionReceipt) (*models.SubmissionReceipt, error)
	// FindReceiptByID retrieves a receipt by its ID.
	FindReceiptByID(ctx context.Context, id string) (*models.SubmissionReceipt, error)
	// ListReceipts returns receipts newest first.
	ListReceipts(ctx context.Context, limit, offset int) ([]*models.SubmissionReceipt, error)
	// DeleteReceiptsBefore removes receipts created before cutoff and reports how many were removed.
	DeleteReceiptsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type receiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) CreateReceipt(ctx context.Context, receipt *models.SubmissionReceipt) (*models.SubmissionReceipt, error) {
	if err := r.db.WithContext(ctx).Create(receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err) {
			return nil, apperrors.NewConflictError("submission receipt already exists", err)
		}
		return nil, apperrors.NewDatabaseError("unable to record submission receipt", err)
	}
	return receipt, nil
}

func (r *receiptRepository) FindReceiptByID(ctx context.Context, id string) (*models.SubmissionReceipt, error) {
	var receipt models.SubmissionReceipt

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("submission receipt not found", err)
		}
		return nil, apperrors.NewDatabaseError("failed to fetch submission receipt", err)
	}

	return &receipt, nil
}

func (r *receiptRepository) ListReceipts(ctx context.Context, limit, offset int) ([]*models.SubmissionReceipt, error) {
	var receipts []*models.SubmissionReceipt

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&receipts).Error
	if err != nil {
		return nil, apperrors.NewDatabaseError("unable to fetch submission receipts", err)
	}

	return receipts, nil
}

func (r *receiptRepository) DeleteReceiptsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.SubmissionReceipt{})
	if result.Error != nil {
		return 0, apperrors.NewDatabaseError("unable to prune submission receipts", result.Error)
	}
	return result.RowsAffected, nil
}
