package requestmock

import (
	"context"

	domain "peerlend-backend/internal/domain/request"
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn                  func(ctx context.Context, r *domain.LoanRequest) error
	GetByRequestIDFn          func(ctx context.Context, requestID string) (*domain.LoanRequest, error)
	GetByRequestIDForUpdateFn func(ctx context.Context, requestID string) (*domain.LoanRequest, error)
	GetPendingByBorrowerIDFn  func(ctx context.Context, borrowerID string) (*domain.LoanRequest, error)
	ListByBorrowerIDFn        func(ctx context.Context, borrowerID string) ([]domain.LoanRequest, error)
	ListByStatusFn            func(ctx context.Context, status domain.Status, excludeBorrowerID string, offset, limit int) ([]domain.LoanRequest, error)
	SaveFn                    func(ctx context.Context, r *domain.LoanRequest) error
	DeleteFn                  func(ctx context.Context, r *domain.LoanRequest) error
}

func (m *Repo) Create(ctx context.Context, r *domain.LoanRequest) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByRequestID(ctx context.Context, requestID string) (*domain.LoanRequest, error) {
	if m.GetByRequestIDFn != nil {
		return m.GetByRequestIDFn(ctx, requestID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*domain.LoanRequest, error) {
	if m.GetByRequestIDForUpdateFn != nil {
		return m.GetByRequestIDForUpdateFn(ctx, requestID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetPendingByBorrowerID(ctx context.Context, borrowerID string) (*domain.LoanRequest, error) {
	if m.GetPendingByBorrowerIDFn != nil {
		return m.GetPendingByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByBorrowerID(ctx context.Context, borrowerID string) ([]domain.LoanRequest, error) {
	if m.ListByBorrowerIDFn != nil {
		return m.ListByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, nil
}

func (m *Repo) ListByStatus(ctx context.Context, status domain.Status, excludeBorrowerID string, offset, limit int) ([]domain.LoanRequest, error) {
	if m.ListByStatusFn != nil {
		return m.ListByStatusFn(ctx, status, excludeBorrowerID, offset, limit)
	}
	return nil, nil
}

func (m *Repo) Save(ctx context.Context, r *domain.LoanRequest) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, r *domain.LoanRequest) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, r)
	}
	return nil
}
