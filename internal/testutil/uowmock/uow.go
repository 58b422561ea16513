package uowmock

import (
	"context"
	"errors"

	"peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/request"
	"peerlend-backend/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn        func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinRequestTxFn func(ctx context.Context, requestID string, fn func(r uow.Repos, req *request.LoanRequest) error) error
	WithinLoanTxFn    func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error
}

func New() *UoW { return &UoW{} }

// Passthrough wires every variant to run its body directly against the
// given repos, looking the anchor record up through them; no transaction
// semantics, which is all most usecase tests need.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(r uow.Repos) error) error {
			return fn(repos)
		},
		WithinRequestTxFn: func(ctx context.Context, requestID string, fn func(r uow.Repos, req *request.LoanRequest) error) error {
			req, err := repos.Requests.GetByRequestIDForUpdate(ctx, requestID)
			if err != nil {
				return err
			}
			return fn(repos, req)
		},
		WithinLoanTxFn: func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
			l, err := repos.Loans.GetByLoanIDForUpdate(ctx, loanID)
			if err != nil {
				return err
			}
			return fn(repos, l)
		},
	}
}

func (m *UoW) Reset() { *m = UoW{} }

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinRequestTx(ctx context.Context, requestID string, fn func(r uow.Repos, req *request.LoanRequest) error) error {
	if m.WithinRequestTxFn != nil {
		return m.WithinRequestTxFn(ctx, requestID, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, loanID, fn)
	}
	return errUnimplemented
}
