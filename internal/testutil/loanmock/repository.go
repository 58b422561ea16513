package loanmock

import (
	"context"

	domain "peerlend-backend/internal/domain/loan"
)

// Repo is a function-backed mock that satisfies domain.Repository.
// Only methods you need are included; add more as tests require.
type Repo struct {
	CreateFn               func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetLiveByBorrowerIDFn  func(ctx context.Context, borrowerID string) (*domain.Loan, error)
	ListByBorrowerIDFn     func(ctx context.Context, borrowerID string, status domain.Status) ([]domain.Loan, error)
	ListByLenderIDFn       func(ctx context.Context, lenderID string, status domain.Status) ([]domain.Loan, error)
	SaveFn                 func(ctx context.Context, l *domain.Loan) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetLiveByBorrowerID(ctx context.Context, borrowerID string) (*domain.Loan, error) {
	if m.GetLiveByBorrowerIDFn != nil {
		return m.GetLiveByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByBorrowerID(ctx context.Context, borrowerID string, status domain.Status) ([]domain.Loan, error) {
	if m.ListByBorrowerIDFn != nil {
		return m.ListByBorrowerIDFn(ctx, borrowerID, status)
	}
	return nil, nil
}

func (m *Repo) ListByLenderID(ctx context.Context, lenderID string, status domain.Status) ([]domain.Loan, error) {
	if m.ListByLenderIDFn != nil {
		return m.ListByLenderIDFn(ctx, lenderID, status)
	}
	return nil, nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}
