package offer

import "context"

type Repository interface {
	Create(ctx context.Context, o *LoanOffer) error
	GetByOfferID(ctx context.Context, offerID string) (*LoanOffer, error)
	GetByOfferIDForUpdate(ctx context.Context, offerID string) (*LoanOffer, error)
	GetByRequestAndLender(ctx context.Context, requestID, lenderID string) (*LoanOffer, error)
	ListByRequestID(ctx context.Context, requestID string) ([]LoanOffer, error)
	// RejectPendingSiblings flips every PENDING offer on the request, except
	// keepOfferID, to REJECTED. Runs inside the caller's transaction.
	RejectPendingSiblings(ctx context.Context, requestID, keepOfferID string) error
	Save(ctx context.Context, o *LoanOffer) error
}
