package repayment

import (
	"context"
	"errors"
	"fmt"

	"peerlend-backend/internal/domain/fault"
	domain "peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/uow"
	"peerlend-backend/pkg/clock"

	"gorm.io/gorm"
)

// Usecase owns an active loan's repayment ledger: appends, balance
// recomputation, completion detection and the read-side metrics.
type Usecase struct {
	loans domain.Repository
	uow   uow.UnitOfWork
	clock clock.Clock
}

func NewUsecase(loans domain.Repository, tx uow.UnitOfWork, clk clock.Clock) *Usecase {
	return &Usecase{loans: loans, uow: tx, clock: clk}
}

type RecordRepaymentInput struct {
	LenderID string
	LoanID   string
	Amount   float64
	Note     string
}

// RecordRepayment appends a ledger entry and recomputes the remaining
// balance from the frozen total; the balance is never written directly.
// Hitting exactly zero completes the loan.
func (u *Usecase) RecordRepayment(ctx context.Context, in RecordRepaymentInput) (*domain.Loan, error) {
	if in.LenderID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	if in.Amount <= 0 {
		return nil, fault.NewValidationError("repayment amount must be > 0")
	}

	var out *domain.Loan
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if l.LenderID != in.LenderID {
			return fault.NewAuthorizationError("only the lender can record repayments")
		}
		if l.Status != domain.StatusActive {
			return fault.NewConflictError("repayments can only be recorded on an active loan")
		}

		now := u.clock.Now()
		l.Repayments = append(l.Repayments, domain.Repayment{
			Amount:   in.Amount,
			PaidDate: now,
			Note:     in.Note,
		})
		l.TotalRepaid += in.Amount
		l.Recompute()
		if l.RemainingAmount == 0 && domain.CanTransition(l.Status, domain.StatusCompleted) {
			l.Status = domain.StatusCompleted
			l.StatusUpdatedAt = now
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// MarkCompleted is the administrative override: either party may close the
// loan regardless of remaining balance.
func (u *Usecase) MarkCompleted(ctx context.Context, callerID, loanID string) (*domain.Loan, error) {
	return u.forceTransition(ctx, callerID, loanID, domain.StatusCompleted)
}

// MarkDefaulted records an explicit default. Only ACTIVE loans default;
// overdue detection itself stays derived and advisory.
func (u *Usecase) MarkDefaulted(ctx context.Context, callerID, loanID string) (*domain.Loan, error) {
	return u.forceTransition(ctx, callerID, loanID, domain.StatusDefaulted)
}

func (u *Usecase) forceTransition(ctx context.Context, callerID, loanID string, to domain.Status) (*domain.Loan, error) {
	if callerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}

	var out *domain.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.BorrowerID != callerID && l.LenderID != callerID {
			return fault.NewAuthorizationError("only a party to the loan can change its status")
		}
		if !domain.CanTransition(l.Status, to) {
			return fault.NewConflictError(fmt.Sprintf("cannot mark a %s loan as %s", l.Status, to))
		}
		l.Status = to
		l.StatusUpdatedAt = u.clock.Now()
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Get returns the loan to either party; anyone else is refused.
func (u *Usecase) Get(ctx context.Context, callerID, loanID string) (*domain.Loan, error) {
	if callerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, translate(err)
	}
	if l.BorrowerID != callerID && l.LenderID != callerID {
		return nil, fault.NewAuthorizationError("not authorized to view this loan")
	}
	return l, nil
}

// ListBorrowed returns the caller's loans as borrower, optionally filtered
// by status.
func (u *Usecase) ListBorrowed(ctx context.Context, borrowerID, status string) ([]domain.Loan, error) {
	if borrowerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	return u.loans.ListByBorrowerID(ctx, borrowerID, domain.Status(status))
}

// ListLent returns the caller's loans as lender.
func (u *Usecase) ListLent(ctx context.Context, lenderID, status string) ([]domain.Loan, error) {
	if lenderID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	return u.loans.ListByLenderID(ctx, lenderID, domain.Status(status))
}

// ActiveLoan returns the borrower's live loan, or nil when none exists.
func (u *Usecase) ActiveLoan(ctx context.Context, borrowerID string) (*domain.Loan, error) {
	if borrowerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	l, err := u.loans.GetLiveByBorrowerID(ctx, borrowerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Metrics aggregates the caller's loan set on read. No running totals are
// stored anywhere, so the ledger stays the single source of truth.
func (u *Usecase) Metrics(ctx context.Context, userID string) (*Metrics, error) {
	if userID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}

	borrowed, err := u.loans.ListByBorrowerID(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	lent, err := u.loans.ListByLenderID(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	m := &Metrics{}
	for i := range borrowed {
		l := &borrowed[i]
		m.TotalBorrowed += l.Amount
		if l.Live() {
			m.ActiveBorrowedCount++
			m.TotalToRepay += l.RemainingAmount
		}
		if l.Status == domain.StatusCompleted {
			m.CompletedBorrowedCount++
		}
		if l.Overdue(now) {
			m.OverdueCount++
		}
	}
	for i := range lent {
		l := &lent[i]
		m.TotalLent += l.Amount
		if l.Live() {
			m.ActiveLentCount++
		}
		if l.Status == domain.StatusCompleted {
			m.CompletedLentCount++
		}
	}
	return m, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fault.NewNotFoundError("loan not found")
	}
	return err
}
