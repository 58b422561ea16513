package mysql

import (
	"context"

	offerDomain "peerlend-backend/internal/domain/offer"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OfferRepository struct{ db *gorm.DB }

func NewOfferRepository(db *gorm.DB) *OfferRepository { return &OfferRepository{db: db} }

func (r *OfferRepository) Create(ctx context.Context, o *offerDomain.LoanOffer) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OfferRepository) Save(ctx context.Context, o *offerDomain.LoanOffer) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *OfferRepository) GetByOfferID(ctx context.Context, offerID string) (*offerDomain.LoanOffer, error) {
	var out offerDomain.LoanOffer
	res := r.db.WithContext(ctx).Where("offer_id = ?", offerID).First(&out)
	return &out, res.Error
}

func (r *OfferRepository) GetByOfferIDForUpdate(ctx context.Context, offerID string) (*offerDomain.LoanOffer, error) {
	var out offerDomain.LoanOffer
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("offer_id = ?", offerID).
		First(&out)
	return &out, res.Error
}

func (r *OfferRepository) GetByRequestAndLender(ctx context.Context, requestID, lenderID string) (*offerDomain.LoanOffer, error) {
	var out offerDomain.LoanOffer
	res := r.db.WithContext(ctx).
		Where("request_id = ? AND lender_id = ?", requestID, lenderID).
		First(&out)
	return &out, res.Error
}

func (r *OfferRepository) ListByRequestID(ctx context.Context, requestID string) ([]offerDomain.LoanOffer, error) {
	var out []offerDomain.LoanOffer
	res := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at DESC, id DESC").
		Find(&out)
	return out, res.Error
}

func (r *OfferRepository) RejectPendingSiblings(ctx context.Context, requestID, keepOfferID string) error {
	return r.db.WithContext(ctx).
		Model(&offerDomain.LoanOffer{}).
		Where("request_id = ? AND offer_id <> ? AND status = ?",
			requestID, keepOfferID, offerDomain.StatusPending).
		Update("status", offerDomain.StatusRejected).Error
}
