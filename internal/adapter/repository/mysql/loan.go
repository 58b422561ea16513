package mysql

import (
	"context"

	loanDomain "peerlend-backend/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetLiveByBorrowerID(ctx context.Context, borrowerID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("borrower_id = ? AND status IN ?", borrowerID,
			[]loanDomain.Status{loanDomain.StatusReceivedPending, loanDomain.StatusActive}).
		Order("status_updated_at DESC, id DESC").
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) ListByBorrowerID(ctx context.Context, borrowerID string, status loanDomain.Status) ([]loanDomain.Loan, error) {
	q := r.db.WithContext(ctx).Where("borrower_id = ?", borrowerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []loanDomain.Loan
	res := q.Order("created_at DESC, id DESC").Find(&out)
	return out, res.Error
}

func (r *LoanRepository) ListByLenderID(ctx context.Context, lenderID string, status loanDomain.Status) ([]loanDomain.Loan, error) {
	q := r.db.WithContext(ctx).Where("lender_id = ?", lenderID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []loanDomain.Loan
	res := q.Order("created_at DESC, id DESC").Find(&out)
	return out, res.Error
}
