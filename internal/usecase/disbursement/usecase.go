package disbursement

import (
	"context"
	"errors"
	"fmt"

	"peerlend-backend/internal/domain/event"
	"peerlend-backend/internal/domain/fault"
	loanDomain "peerlend-backend/internal/domain/loan"
	requestDomain "peerlend-backend/internal/domain/request"
	"peerlend-backend/internal/domain/uow"
	"peerlend-backend/pkg/clock"
	"peerlend-backend/pkg/id"

	"gorm.io/gorm"
)

// Activation is the one intent object both matching paths produce. The
// offer-acceptance path carries Immediate=true: the borrower accepted a
// concrete offer, so both parties' consent already exists and the loan
// starts ACTIVE. The direct-selection path starts the two-phase handshake.
type Activation struct {
	Request      *requestDomain.LoanRequest
	LenderID     string
	InterestRate float64
	Immediate    bool
}

type Usecase struct {
	uow   uow.UnitOfWork
	bus   event.Bus
	clock clock.Clock
}

func NewUsecase(tx uow.UnitOfWork, bus event.Bus, clk clock.Clock) *Usecase {
	return &Usecase{uow: tx, bus: bus, clock: clk}
}

type MarkReceivedInput struct {
	BorrowerID string
	RequestID  string
	LenderID   string
}

// Activate creates the authoritative Loan record. Runs inside the caller's
// transaction; this is the only code path that writes an initial Loan row,
// so creation invariants hold regardless of matching path. The request's
// LinkedLoanID is set in memory; the caller persists the request.
func (u *Usecase) Activate(ctx context.Context, r uow.Repos, in Activation) (*loanDomain.Loan, error) {
	req := in.Request
	if req.LinkedLoanID != "" {
		return nil, fault.NewConflictError("request is already linked to a loan")
	}
	if in.LenderID == "" || in.LenderID == req.BorrowerID {
		return nil, fault.NewValidationError("activation requires a lender distinct from the borrower")
	}

	now := u.clock.Now()
	l := &loanDomain.Loan{
		LoanID:            id.NewID32(),
		RequestID:         req.RequestID,
		BorrowerID:        req.BorrowerID,
		LenderID:          in.LenderID,
		Amount:            req.Amount,
		InterestRate:      in.InterestRate,
		DurationMonths:    req.DurationMonths,
		TotalPayable:      loanDomain.ComputeTotalPayable(req.Amount, in.InterestRate, req.DurationMonths),
		Status:            loanDomain.StatusReceivedPending,
		BorrowerConfirmed: true,
		SelectedLenderID:  in.LenderID,
		DisbursementDate:  now,
		DueDate:           now.AddDate(0, req.DurationMonths, 0),
		Repayments:        []loanDomain.Repayment{},
		StatusUpdatedAt:   now,
	}
	if in.Immediate {
		l.Status = loanDomain.StatusActive
		l.LenderConfirmed = true
		l.ConfirmedDate = &now
	}
	l.Recompute()

	if err := r.Loans.Create(ctx, l); err != nil {
		return nil, err
	}
	req.LinkedLoanID = l.LoanID
	return l, nil
}

// MarkReceived is the borrower's half of the handshake: funds arrived from
// the named lender, create the pending loan and wait for the lender to
// confirm.
func (u *Usecase) MarkReceived(ctx context.Context, in MarkReceivedInput) (*requestDomain.LoanRequest, error) {
	if in.BorrowerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}

	var out *requestDomain.LoanRequest
	err := u.uow.WithinRequestTx(ctx, in.RequestID, func(r uow.Repos, req *requestDomain.LoanRequest) error {
		if req.BorrowerID != in.BorrowerID {
			return fault.NewAuthorizationError("only the borrower can mark the loan as received")
		}
		interest := req.FindInterest(in.LenderID)
		if interest == nil {
			return fault.NewValidationError("lender has not expressed interest in this request")
		}
		if !requestDomain.CanTransition(req.Status, requestDomain.StatusLoanReceivedPending) {
			return fault.NewConflictError(fmt.Sprintf("cannot mark a %s request as received", req.Status))
		}

		if _, err := u.Activate(ctx, r, Activation{
			Request:      req,
			LenderID:     in.LenderID,
			InterestRate: interest.InterestRate,
		}); err != nil {
			return err
		}

		req.Status = requestDomain.StatusLoanReceivedPending
		req.StatusUpdatedAt = u.clock.Now()
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	u.bus.Publish(ctx, event.RequestUpdatedChannel(in.RequestID), out)
	return out, nil
}

// ConfirmDisbursement is the lender's half. The loan goes ACTIVE only when
// both sides confirmed and the confirming lender is the one the borrower
// selected; the identity check keeps a stale lender reference from
// activating a mismatched loan.
func (u *Usecase) ConfirmDisbursement(ctx context.Context, lenderID, loanID string) (*loanDomain.Loan, error) {
	if lenderID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}

	var out *loanDomain.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loanDomain.Loan) error {
		if l.LenderID != lenderID {
			return fault.NewAuthorizationError("only the lender can confirm disbursement")
		}
		if l.Status != loanDomain.StatusReceivedPending {
			return fault.NewConflictError("loan is not awaiting confirmation")
		}

		now := u.clock.Now()
		l.LenderConfirmed = true
		l.ConfirmedDate = &now
		if l.BorrowerConfirmed && l.SelectedLenderID == lenderID &&
			loanDomain.CanTransition(l.Status, loanDomain.StatusActive) {
			l.Status = loanDomain.StatusActive
			l.StatusUpdatedAt = now
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, translateLoan(err)
	}
	return out, nil
}

type EditLoanReceivedInput struct {
	BorrowerID  string
	RequestID   string
	NewLenderID string
}

// EditLoanReceived redoes the handshake with a different lender while the
// linked loan is still pending: re-target the lender, refresh the rate and
// wipe the lender-side confirmation.
func (u *Usecase) EditLoanReceived(ctx context.Context, in EditLoanReceivedInput) (*loanDomain.Loan, error) {
	if in.BorrowerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}

	var out *loanDomain.Loan
	err := u.uow.WithinRequestTx(ctx, in.RequestID, func(r uow.Repos, req *requestDomain.LoanRequest) error {
		if req.BorrowerID != in.BorrowerID {
			return fault.NewAuthorizationError("only the borrower can edit the received loan")
		}
		if req.LinkedLoanID == "" {
			return fault.NewConflictError("request has no linked loan")
		}
		interest := req.FindInterest(in.NewLenderID)
		if interest == nil {
			return fault.NewValidationError("lender has not expressed interest in this request")
		}

		l, err := r.Loans.GetByLoanIDForUpdate(ctx, req.LinkedLoanID)
		if err != nil {
			return err
		}
		if l.Status != loanDomain.StatusReceivedPending {
			return fault.NewConflictError("loan is no longer editable")
		}

		l.LenderID = in.NewLenderID
		l.SelectedLenderID = in.NewLenderID
		l.InterestRate = interest.InterestRate
		l.TotalPayable = loanDomain.ComputeTotalPayable(l.Amount, l.InterestRate, l.DurationMonths)
		l.LenderConfirmed = false
		l.ConfirmedDate = nil
		l.Recompute()
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	u.bus.Publish(ctx, event.RequestUpdatedChannel(in.RequestID), out)
	return out, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fault.NewNotFoundError("loan request not found")
	}
	return err
}

func translateLoan(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fault.NewNotFoundError("loan not found")
	}
	return err
}
