package repayment

import (
	"context"
	"testing"
	"time"

	"peerlend-backend/internal/domain/fault"
	domain "peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/uow"
	"peerlend-backend/internal/testutil/loanmock"
	"peerlend-backend/internal/testutil/offermock"
	"peerlend-backend/internal/testutil/requestmock"
	"peerlend-backend/internal/testutil/uowmock"
	"peerlend-backend/pkg/clock"

	"gorm.io/gorm"
)

const (
	borrowerID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	lenderID   = "cccccccccccccccccccccccccccccccc"
	loanID     = "dddddddddddddddddddddddddddddddd"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func activeLoan() *domain.Loan {
	l := &domain.Loan{
		LoanID:         loanID,
		BorrowerID:     borrowerID,
		LenderID:       lenderID,
		Amount:         1000,
		InterestRate:   12,
		DurationMonths: 12,
		TotalPayable:   1120,
		Status:         domain.StatusActive,
		DueDate:        testNow.AddDate(0, 12, 0),
	}
	l.Recompute()
	return l
}

func newTestUsecase(loans *loanmock.Repo) *Usecase {
	repos := uow.Repos{Requests: &requestmock.Repo{}, Offers: &offermock.Repo{}, Loans: loans}
	return NewUsecase(loans, uowmock.Passthrough(repos), clock.Fixed{T: testNow})
}

func storeWithLoan(l *domain.Loan) *loanmock.Repo {
	return &loanmock.Repo{
		GetByLoanIDFn: func(_ context.Context, id string) (*domain.Loan, error) {
			if id != l.LoanID {
				return nil, gorm.ErrRecordNotFound
			}
			return l, nil
		},
		GetByLoanIDForUpdateFn: func(_ context.Context, id string) (*domain.Loan, error) {
			if id != l.LoanID {
				return nil, gorm.ErrRecordNotFound
			}
			return l, nil
		},
	}
}

func TestRecordRepayment_DerivesRemaining(t *testing.T) {
	l := activeLoan()
	uc := newTestUsecase(storeWithLoan(l))

	out, err := uc.RecordRepayment(context.Background(), RecordRepaymentInput{
		LenderID: lenderID,
		LoanID:   loanID,
		Amount:   1000,
		Note:     "first installment",
	})
	if err != nil {
		t.Fatalf("RecordRepayment err: %v", err)
	}
	if out.TotalRepaid != 1000 || out.RemainingAmount != 120 {
		t.Fatalf("repaid=%v remaining=%v", out.TotalRepaid, out.RemainingAmount)
	}
	if out.Status != domain.StatusActive {
		t.Fatalf("partial repayment must not close the loan: %s", out.Status)
	}
	if len(out.Repayments) != 1 || out.Repayments[0].Note != "first installment" {
		t.Fatalf("ledger: %+v", out.Repayments)
	}
}

func TestRecordRepayment_AutoCompletesAtZero(t *testing.T) {
	l := activeLoan()
	l.TotalRepaid = 1000
	l.Repayments = []domain.Repayment{{Amount: 1000, PaidDate: testNow}}
	l.Recompute()
	uc := newTestUsecase(storeWithLoan(l))

	out, err := uc.RecordRepayment(context.Background(), RecordRepaymentInput{
		LenderID: lenderID,
		LoanID:   loanID,
		Amount:   120,
	})
	if err != nil {
		t.Fatalf("RecordRepayment err: %v", err)
	}
	if out.RemainingAmount != 0 {
		t.Fatalf("remaining=%v", out.RemainingAmount)
	}
	if out.Status != domain.StatusCompleted {
		t.Fatalf("status=%s", out.Status)
	}
}

func TestRecordRepayment_OverpayClampsToZero(t *testing.T) {
	l := activeLoan()
	uc := newTestUsecase(storeWithLoan(l))

	out, err := uc.RecordRepayment(context.Background(), RecordRepaymentInput{
		LenderID: lenderID,
		LoanID:   loanID,
		Amount:   2000,
	})
	if err != nil {
		t.Fatalf("RecordRepayment err: %v", err)
	}
	if out.RemainingAmount != 0 {
		t.Fatalf("remaining=%v", out.RemainingAmount)
	}
	if out.Status != domain.StatusCompleted {
		t.Fatalf("status=%s", out.Status)
	}
}

func TestRecordRepayment_LenderOnly(t *testing.T) {
	l := activeLoan()
	uc := newTestUsecase(storeWithLoan(l))

	_, err := uc.RecordRepayment(context.Background(), RecordRepaymentInput{
		LenderID: borrowerID,
		LoanID:   loanID,
		Amount:   100,
	})
	if !fault.IsCode(err, fault.CodeAuthorization) {
		t.Fatalf("want AUTHORIZATION, got %v", err)
	}
}

func TestRecordRepayment_ActiveOnly(t *testing.T) {
	l := activeLoan()
	l.Status = domain.StatusReceivedPending
	uc := newTestUsecase(storeWithLoan(l))

	_, err := uc.RecordRepayment(context.Background(), RecordRepaymentInput{
		LenderID: lenderID,
		LoanID:   loanID,
		Amount:   100,
	})
	if !fault.IsCode(err, fault.CodeConflict) {
		t.Fatalf("want CONFLICT, got %v", err)
	}
}

func TestMarkDefaulted_ActiveLoan(t *testing.T) {
	l := activeLoan()
	uc := newTestUsecase(storeWithLoan(l))

	out, err := uc.MarkDefaulted(context.Background(), lenderID, loanID)
	if err != nil {
		t.Fatalf("MarkDefaulted err: %v", err)
	}
	if out.Status != domain.StatusDefaulted {
		t.Fatalf("status=%s", out.Status)
	}
}

func TestMarkDefaulted_TerminalLoanConflicts(t *testing.T) {
	l := activeLoan()
	l.Status = domain.StatusCompleted
	uc := newTestUsecase(storeWithLoan(l))

	_, err := uc.MarkDefaulted(context.Background(), lenderID, loanID)
	if !fault.IsCode(err, fault.CodeConflict) {
		t.Fatalf("want CONFLICT, got %v", err)
	}
}

func TestMarkCompleted_PartyOnly(t *testing.T) {
	l := activeLoan()
	uc := newTestUsecase(storeWithLoan(l))

	_, err := uc.MarkCompleted(context.Background(), "ffffffffffffffffffffffffffffffff", loanID)
	if !fault.IsCode(err, fault.CodeAuthorization) {
		t.Fatalf("want AUTHORIZATION, got %v", err)
	}
}

func TestGet_ThirdPartyForbidden(t *testing.T) {
	l := activeLoan()
	uc := newTestUsecase(storeWithLoan(l))

	if _, err := uc.Get(context.Background(), borrowerID, loanID); err != nil {
		t.Fatalf("borrower view: %v", err)
	}
	if _, err := uc.Get(context.Background(), "ffffffffffffffffffffffffffffffff", loanID); !fault.IsCode(err, fault.CodeAuthorization) {
		t.Fatalf("want AUTHORIZATION, got %v", err)
	}
}

func TestActiveLoan_NilWhenNone(t *testing.T) {
	loans := &loanmock.Repo{
		GetLiveByBorrowerIDFn: func(context.Context, string) (*domain.Loan, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	uc := newTestUsecase(loans)

	l, err := uc.ActiveLoan(context.Background(), borrowerID)
	if err != nil {
		t.Fatalf("ActiveLoan err: %v", err)
	}
	if l != nil {
		t.Fatalf("want nil loan, got %+v", l)
	}
}

func TestMetrics_AggregatesOnRead(t *testing.T) {
	overdue := activeLoan()
	overdue.DueDate = testNow.AddDate(0, -1, 0)
	completed := activeLoan()
	completed.Status = domain.StatusCompleted
	completed.TotalRepaid = completed.TotalPayable
	completed.Recompute()
	lent := activeLoan()
	lent.BorrowerID = "ffffffffffffffffffffffffffffffff"
	lent.LenderID = borrowerID

	loans := &loanmock.Repo{
		ListByBorrowerIDFn: func(context.Context, string, domain.Status) ([]domain.Loan, error) {
			return []domain.Loan{*overdue, *completed}, nil
		},
		ListByLenderIDFn: func(context.Context, string, domain.Status) ([]domain.Loan, error) {
			return []domain.Loan{*lent}, nil
		},
	}
	uc := newTestUsecase(loans)

	m, err := uc.Metrics(context.Background(), borrowerID)
	if err != nil {
		t.Fatalf("Metrics err: %v", err)
	}
	if m.TotalBorrowed != 2000 || m.TotalLent != 1000 {
		t.Fatalf("totals: %+v", m)
	}
	if m.ActiveBorrowedCount != 1 || m.ActiveLentCount != 1 {
		t.Fatalf("active counts: %+v", m)
	}
	if m.CompletedBorrowedCount != 1 || m.CompletedLentCount != 0 {
		t.Fatalf("completed counts: %+v", m)
	}
	if m.TotalToRepay != 1120 {
		t.Fatalf("to repay: %v", m.TotalToRepay)
	}
	if m.OverdueCount != 1 {
		t.Fatalf("overdue: %d", m.OverdueCount)
	}
}
