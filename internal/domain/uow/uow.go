package uow

import (
	"context"

	"peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/offer"
	"peerlend-backend/internal/domain/request"
)

type Repos struct {
	Requests request.Repository
	Offers   offer.Repository
	Loans    loan.Repository
}

// UnitOfWork serializes mutations on a single record. The convenience
// variants lock the anchor row up-front so concurrent operations on the
// same key cannot interleave.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	WithinRequestTx(ctx context.Context, requestID string, fn func(r Repos, req *request.LoanRequest) error) error
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
