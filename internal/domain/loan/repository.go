package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the row for the current transaction.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	// GetLiveByBorrowerID returns the borrower's LOAN_RECEIVED_PENDING or
	// ACTIVE loan, if any.
	GetLiveByBorrowerID(ctx context.Context, borrowerID string) (*Loan, error)
	ListByBorrowerID(ctx context.Context, borrowerID string, status Status) ([]Loan, error)
	ListByLenderID(ctx context.Context, lenderID string, status Status) ([]Loan, error)
	Save(ctx context.Context, l *Loan) error
}
