package offer

import (
	"context"
	"errors"
	"fmt"

	"peerlend-backend/internal/domain/event"
	"peerlend-backend/internal/domain/fault"
	loanDomain "peerlend-backend/internal/domain/loan"
	domain "peerlend-backend/internal/domain/offer"
	requestDomain "peerlend-backend/internal/domain/request"
	"peerlend-backend/internal/domain/uow"
	"peerlend-backend/internal/usecase/disbursement"
	requestUC "peerlend-backend/internal/usecase/request"
	"peerlend-backend/pkg/clock"
	"peerlend-backend/pkg/id"

	"gorm.io/gorm"
)

// Activator is the disbursement coordinator's single loan-creation entry.
// Offer acceptance hands off through it instead of writing Loan rows
// itself, so activation invariants live in exactly one place.
type Activator interface {
	Activate(ctx context.Context, r uow.Repos, in disbursement.Activation) (*loanDomain.Loan, error)
}

// Usecase owns the competing-offer flow: make, accept-one-reject-rest,
// reject, withdraw.
type Usecase struct {
	offers    domain.Repository
	requests  requestDomain.Repository
	uow       uow.UnitOfWork
	activator Activator
	bus       event.Bus
	clock     clock.Clock
}

func NewUsecase(offers domain.Repository, requests requestDomain.Repository, tx uow.UnitOfWork, act Activator, bus event.Bus, clk clock.Clock) *Usecase {
	return &Usecase{offers: offers, requests: requests, uow: tx, activator: act, bus: bus, clock: clk}
}

type MakeOfferInput struct {
	LenderID     string
	LenderRole   string
	RequestID    string
	InterestRate float64
	Message      string
}

// Make upserts the lender's offer on a request. A second offer from the
// same lender updates the existing row and resets it to PENDING; the
// (request_id, lender_id) unique index backstops races.
func (u *Usecase) Make(ctx context.Context, in MakeOfferInput) (*domain.LoanOffer, error) {
	if in.LenderID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	if !requestUC.CanLend(in.LenderRole) {
		return nil, fault.NewAuthorizationError("only lenders can make loan offers")
	}
	if in.InterestRate < 0 || in.InterestRate > 100 {
		return nil, fault.NewValidationError("interest_rate must be between 0 and 100")
	}
	if len(in.Message) > 500 {
		return nil, fault.NewValidationError("message must be at most 500 characters")
	}

	var out *domain.LoanOffer
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		req, err := r.Requests.GetByRequestID(ctx, in.RequestID)
		if err != nil {
			return err
		}
		if req.BorrowerID == in.LenderID {
			return fault.NewAuthorizationError("cannot offer a loan on your own request")
		}
		if req.Status != requestDomain.StatusPending {
			return fault.NewConflictError("request is no longer accepting offers")
		}

		existing, err := r.Offers.GetByRequestAndLender(ctx, in.RequestID, in.LenderID)
		switch {
		case err == nil:
			existing.InterestRate = in.InterestRate
			existing.Amount = req.Amount
			existing.Message = in.Message
			existing.Status = domain.StatusPending
			if err := r.Offers.Save(ctx, existing); err != nil {
				return err
			}
			out = existing
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		o := &domain.LoanOffer{
			OfferID:      id.NewID32(),
			RequestID:    in.RequestID,
			LenderID:     in.LenderID,
			InterestRate: in.InterestRate,
			Amount:       req.Amount,
			Message:      in.Message,
			Status:       domain.StatusPending,
		}
		if err := r.Offers.Create(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	u.bus.Publish(ctx, event.RequestUpdatedChannel(in.RequestID), out)
	return out, nil
}

// Accept marks one offer ACCEPTED, rejects every PENDING sibling and hands
// off to the disbursement coordinator for immediate activation. The whole
// operation runs inside one transaction that holds the request row lock,
// so two concurrent acceptances on the same request serialize and the
// loser fails on the status guard.
func (u *Usecase) Accept(ctx context.Context, borrowerID, offerID string) (*loanDomain.Loan, error) {
	if borrowerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}

	o, err := u.offers.GetByOfferID(ctx, offerID)
	if err != nil {
		return nil, translateOffer(err)
	}

	var (
		outLoan *loanDomain.Loan
		outReq  *requestDomain.LoanRequest
	)
	err = u.uow.WithinRequestTx(ctx, o.RequestID, func(r uow.Repos, req *requestDomain.LoanRequest) error {
		if req.BorrowerID != borrowerID {
			return fault.NewAuthorizationError("only the borrower can accept offers")
		}
		if req.Status == requestDomain.StatusAccepted {
			return fault.NewConflictError("request has already been accepted")
		}
		if !requestDomain.CanTransition(req.Status, requestDomain.StatusAccepted) {
			return fault.NewConflictError(fmt.Sprintf("cannot accept offers on a %s request", req.Status))
		}

		// re-read under the lock: the offer may have been rejected or
		// withdrawn since the unlocked read above
		locked, err := r.Offers.GetByOfferIDForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		if locked.Status != domain.StatusPending {
			return fault.NewConflictError(fmt.Sprintf("offer is %s, not PENDING", locked.Status))
		}

		locked.Status = domain.StatusAccepted
		if err := r.Offers.Save(ctx, locked); err != nil {
			return err
		}
		if err := r.Offers.RejectPendingSiblings(ctx, req.RequestID, offerID); err != nil {
			return err
		}

		l, err := u.activator.Activate(ctx, r, disbursement.Activation{
			Request:      req,
			LenderID:     locked.LenderID,
			InterestRate: locked.InterestRate,
			Immediate:    true,
		})
		if err != nil {
			return err
		}

		now := u.clock.Now()
		req.Status = requestDomain.StatusAccepted
		req.AcceptedOfferID = offerID
		req.AcceptedAt = &now
		req.StatusUpdatedAt = now
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}

		outLoan, outReq = l, req
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	u.bus.Publish(ctx, event.RequestUpdatedChannel(outReq.RequestID), outReq)
	return outLoan, nil
}

// Reject declines a single offer. No side effects on siblings.
func (u *Usecase) Reject(ctx context.Context, borrowerID, offerID string) (*domain.LoanOffer, error) {
	if borrowerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}

	o, err := u.offers.GetByOfferID(ctx, offerID)
	if err != nil {
		return nil, translateOffer(err)
	}

	var out *domain.LoanOffer
	err = u.uow.WithinRequestTx(ctx, o.RequestID, func(r uow.Repos, req *requestDomain.LoanRequest) error {
		if req.BorrowerID != borrowerID {
			return fault.NewAuthorizationError("only the borrower can reject offers")
		}
		locked, err := r.Offers.GetByOfferIDForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		if locked.Status != domain.StatusPending {
			return fault.NewConflictError(fmt.Sprintf("offer is %s, not PENDING", locked.Status))
		}
		locked.Status = domain.StatusRejected
		if err := r.Offers.Save(ctx, locked); err != nil {
			return err
		}
		out = locked
		return nil
	})
	return out, translate(err)
}

// Withdraw lets a lender retract their own PENDING offer.
func (u *Usecase) Withdraw(ctx context.Context, lenderID, offerID string) (*domain.LoanOffer, error) {
	if lenderID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}

	var out *domain.LoanOffer
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		locked, err := r.Offers.GetByOfferIDForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		if locked.LenderID != lenderID {
			return fault.NewAuthorizationError("only the offering lender can withdraw")
		}
		if locked.Status != domain.StatusPending {
			return fault.NewConflictError(fmt.Sprintf("offer is %s, not PENDING", locked.Status))
		}
		locked.Status = domain.StatusWithdrawn
		if err := r.Offers.Save(ctx, locked); err != nil {
			return err
		}
		out = locked
		return nil
	})
	return out, translateOffer(err)
}

// List returns all offers on a request, newest first.
func (u *Usecase) List(ctx context.Context, callerID, requestID string) ([]domain.LoanOffer, error) {
	if callerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	if _, err := u.requests.GetByRequestID(ctx, requestID); err != nil {
		return nil, translate(err)
	}
	return u.offers.ListByRequestID(ctx, requestID)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fault.NewNotFoundError("loan request not found")
	}
	return err
}

func translateOffer(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fault.NewNotFoundError("loan offer not found")
	}
	return err
}
