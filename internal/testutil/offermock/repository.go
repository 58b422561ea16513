package offermock

import (
	"context"

	domain "peerlend-backend/internal/domain/offer"
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn                func(ctx context.Context, o *domain.LoanOffer) error
	GetByOfferIDFn          func(ctx context.Context, offerID string) (*domain.LoanOffer, error)
	GetByOfferIDForUpdateFn func(ctx context.Context, offerID string) (*domain.LoanOffer, error)
	GetByRequestAndLenderFn func(ctx context.Context, requestID, lenderID string) (*domain.LoanOffer, error)
	ListByRequestIDFn       func(ctx context.Context, requestID string) ([]domain.LoanOffer, error)
	RejectPendingSiblingsFn func(ctx context.Context, requestID, keepOfferID string) error
	SaveFn                  func(ctx context.Context, o *domain.LoanOffer) error
}

func (m *Repo) Create(ctx context.Context, o *domain.LoanOffer) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, o)
	}
	return nil
}

func (m *Repo) GetByOfferID(ctx context.Context, offerID string) (*domain.LoanOffer, error) {
	if m.GetByOfferIDFn != nil {
		return m.GetByOfferIDFn(ctx, offerID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByOfferIDForUpdate(ctx context.Context, offerID string) (*domain.LoanOffer, error) {
	if m.GetByOfferIDForUpdateFn != nil {
		return m.GetByOfferIDForUpdateFn(ctx, offerID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByRequestAndLender(ctx context.Context, requestID, lenderID string) (*domain.LoanOffer, error) {
	if m.GetByRequestAndLenderFn != nil {
		return m.GetByRequestAndLenderFn(ctx, requestID, lenderID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByRequestID(ctx context.Context, requestID string) ([]domain.LoanOffer, error) {
	if m.ListByRequestIDFn != nil {
		return m.ListByRequestIDFn(ctx, requestID)
	}
	return nil, nil
}

func (m *Repo) RejectPendingSiblings(ctx context.Context, requestID, keepOfferID string) error {
	if m.RejectPendingSiblingsFn != nil {
		return m.RejectPendingSiblingsFn(ctx, requestID, keepOfferID)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, o *domain.LoanOffer) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, o)
	}
	return nil
}
