package mysql

import (
	"context"

	requestDomain "peerlend-backend/internal/domain/request"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestRepository struct{ db *gorm.DB }

func NewRequestRepository(db *gorm.DB) *RequestRepository { return &RequestRepository{db: db} }

func (r *RequestRepository) Create(ctx context.Context, lr *requestDomain.LoanRequest) error {
	return r.db.WithContext(ctx).Create(lr).Error
}

func (r *RequestRepository) Save(ctx context.Context, lr *requestDomain.LoanRequest) error {
	return r.db.WithContext(ctx).Save(lr).Error
}

func (r *RequestRepository) Delete(ctx context.Context, lr *requestDomain.LoanRequest) error {
	return r.db.WithContext(ctx).Delete(lr).Error
}

func (r *RequestRepository) GetByRequestID(ctx context.Context, requestID string) (*requestDomain.LoanRequest, error) {
	var out requestDomain.LoanRequest
	res := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&out)
	return &out, res.Error
}

func (r *RequestRepository) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*requestDomain.LoanRequest, error) {
	var out requestDomain.LoanRequest
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ?", requestID).
		First(&out)
	return &out, res.Error
}

func (r *RequestRepository) GetPendingByBorrowerID(ctx context.Context, borrowerID string) (*requestDomain.LoanRequest, error) {
	var out requestDomain.LoanRequest
	res := r.db.WithContext(ctx).
		Where("borrower_id = ? AND status = ?", borrowerID, requestDomain.StatusPending).
		Order("status_updated_at DESC, id DESC").
		First(&out)
	return &out, res.Error
}

func (r *RequestRepository) ListByBorrowerID(ctx context.Context, borrowerID string) ([]requestDomain.LoanRequest, error) {
	var out []requestDomain.LoanRequest
	res := r.db.WithContext(ctx).
		Where("borrower_id = ?", borrowerID).
		Order("created_at DESC, id DESC").
		Find(&out)
	return out, res.Error
}

func (r *RequestRepository) ListByStatus(ctx context.Context, status requestDomain.Status, excludeBorrowerID string, offset, limit int) ([]requestDomain.LoanRequest, error) {
	q := r.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if excludeBorrowerID != "" {
		q = q.Where("borrower_id <> ?", excludeBorrowerID)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []requestDomain.LoanRequest
	res := q.Order("created_at DESC, id DESC").Find(&out)
	return out, res.Error
}
