package request

import "context"

type Repository interface {
	Create(ctx context.Context, r *LoanRequest) error
	GetByRequestID(ctx context.Context, requestID string) (*LoanRequest, error)
	// GetByRequestIDForUpdate locks the row for the current transaction.
	GetByRequestIDForUpdate(ctx context.Context, requestID string) (*LoanRequest, error)
	GetPendingByBorrowerID(ctx context.Context, borrowerID string) (*LoanRequest, error)
	ListByBorrowerID(ctx context.Context, borrowerID string) ([]LoanRequest, error)
	// ListByStatus returns newest-first, excluding excludeBorrowerID when set.
	ListByStatus(ctx context.Context, status Status, excludeBorrowerID string, offset, limit int) ([]LoanRequest, error)
	Save(ctx context.Context, r *LoanRequest) error
	// Delete hard-removes the record. Only PENDING requests are ever deleted.
	Delete(ctx context.Context, r *LoanRequest) error
}
