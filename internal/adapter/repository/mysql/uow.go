package mysql

import (
	"context"

	"peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/request"
	"peerlend-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Requests: &RequestRepository{db: tx},
		Offers:   &OfferRepository{db: tx},
		Loans:    &LoanRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinRequestTx(ctx context.Context, requestID string, fn func(r uow.Repos, req *request.LoanRequest) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the request row up-front so competing acceptances serialize
		req, err := r.Requests.GetByRequestIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		return fn(r, req)
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}
