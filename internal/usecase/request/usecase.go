package request

import (
	"context"
	"errors"
	"fmt"

	"peerlend-backend/internal/domain/event"
	"peerlend-backend/internal/domain/fault"
	loanDomain "peerlend-backend/internal/domain/loan"
	domain "peerlend-backend/internal/domain/request"
	"peerlend-backend/internal/domain/uow"
	"peerlend-backend/pkg/clock"
	"peerlend-backend/pkg/id"

	"gorm.io/gorm"
)

// Usecase owns the LoanRequest lifecycle: creation, the interested-lenders
// list, lender selection and status transitions up to the disbursement
// handoff.
type Usecase struct {
	requests domain.Repository
	loans    loanDomain.Repository
	uow      uow.UnitOfWork
	bus      event.Bus
	clock    clock.Clock
}

func NewUsecase(requests domain.Repository, loans loanDomain.Repository, tx uow.UnitOfWork, bus event.Bus, clk clock.Clock) *Usecase {
	return &Usecase{requests: requests, loans: loans, uow: tx, bus: bus, clock: clk}
}

func (u *Usecase) Create(ctx context.Context, in CreateRequestInput) (*domain.LoanRequest, error) {
	if in.BorrowerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	if in.Amount <= 0 {
		return nil, fault.NewValidationError("amount must be > 0")
	}
	if in.DurationMonths < 1 {
		return nil, fault.NewValidationError("duration_months must be >= 1")
	}
	sec := domain.SecurityType(in.SecurityType)
	switch sec {
	case domain.SecuritySecured:
		if in.CollateralType == "" || in.CollateralValue <= 0 {
			return nil, fault.NewValidationError("secured requests require collateral type and value")
		}
	case domain.SecurityUnsecured:
		if in.CollateralType != "" || in.CollateralValue != 0 {
			return nil, fault.NewValidationError("unsecured requests must not carry collateral")
		}
	default:
		return nil, fault.NewValidationError("security_type must be SECURED or UNSECURED")
	}
	if in.CreditScore != 0 && (in.CreditScore < 300 || in.CreditScore > 850) {
		return nil, fault.NewValidationError("credit_score must be between 300 and 850")
	}

	// One live funding need per borrower: no unresolved loan...
	live, err := u.loans.GetLiveByBorrowerID(ctx, in.BorrowerID)
	switch {
	case err == nil:
		return nil, fault.NewConflictError(fmt.Sprintf("borrower already has an unresolved loan: %s", live.LoanID))
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	// ...and no pending request.
	pending, err := u.requests.GetPendingByBorrowerID(ctx, in.BorrowerID)
	switch {
	case err == nil:
		return nil, fault.NewConflictError(fmt.Sprintf("borrower already has a pending loan request: %s", pending.RequestID))
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	now := u.clock.Now()
	lr := &domain.LoanRequest{
		RequestID:       id.NewID32(),
		BorrowerID:      in.BorrowerID,
		Amount:          in.Amount,
		Purpose:         in.Purpose,
		DurationMonths:  in.DurationMonths,
		CreditScore:     in.CreditScore,
		SecurityType:    sec,
		Description:     in.Description,
		Status:          domain.StatusPending,
		StatusUpdatedAt: now,
	}
	if sec == domain.SecuritySecured {
		lr.Collateral = &domain.Collateral{
			Type:           in.CollateralType,
			EstimatedValue: in.CollateralValue,
			Documents:      []domain.CollateralDocument{},
		}
	}

	if err := u.requests.Create(ctx, lr); err != nil {
		return nil, err
	}

	u.bus.Publish(ctx, event.ChannelNewRequest, lr)
	return lr, nil
}

func (u *Usecase) ExpressInterest(ctx context.Context, in ExpressInterestInput) (*domain.LoanRequest, error) {
	if in.LenderID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	if !CanLend(in.LenderRole) {
		return nil, fault.NewAuthorizationError("only lenders can express interest")
	}
	if in.InterestRate < 0 || in.InterestRate > 100 {
		return nil, fault.NewValidationError("interest_rate must be between 0 and 100")
	}

	var out *domain.LoanRequest
	err := u.uow.WithinRequestTx(ctx, in.RequestID, func(r uow.Repos, req *domain.LoanRequest) error {
		req.UpsertInterest(domain.Interest{
			LenderID:     in.LenderID,
			InterestRate: in.InterestRate,
			Message:      in.Message,
			Timestamp:    u.clock.Now(),
		})
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	u.bus.Publish(ctx, event.InterestReceivedChannel(out.BorrowerID), out)
	return out, nil
}

func (u *Usecase) SelectLender(ctx context.Context, borrowerID, requestID, lenderID string) (*domain.LoanRequest, error) {
	if borrowerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}

	var out *domain.LoanRequest
	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, req *domain.LoanRequest) error {
		if req.BorrowerID != borrowerID {
			return fault.NewAuthorizationError("only the borrower can select a lender")
		}
		interest := req.FindInterest(lenderID)
		if interest == nil {
			return fault.NewValidationError("lender has not expressed interest in this request")
		}
		if !domain.CanTransition(req.Status, domain.StatusApproved) {
			return fault.NewConflictError(fmt.Sprintf("cannot approve a %s request", req.Status))
		}

		now := u.clock.Now()
		req.SelectedLenderID = lenderID
		req.Status = domain.StatusApproved
		req.StatusUpdatedAt = now
		req.Agreement = &domain.Agreement{
			InterestRate:  interest.InterestRate,
			StartDate:     now,
			EndDate:       now.AddDate(0, req.DurationMonths, 0),
			TermsAccepted: false,
		}
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	u.bus.Publish(ctx, event.RequestUpdatedChannel(requestID), out)
	return out, nil
}

func (u *Usecase) AcceptTerms(ctx context.Context, lenderID, requestID string) (*domain.LoanRequest, error) {
	if lenderID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}

	var out *domain.LoanRequest
	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, req *domain.LoanRequest) error {
		if req.SelectedLenderID == "" || req.SelectedLenderID != lenderID {
			return fault.NewAuthorizationError("only the selected lender can accept terms")
		}
		if req.Agreement == nil {
			return fault.NewConflictError("request has no agreement to accept")
		}
		if !domain.CanTransition(req.Status, domain.StatusFunded) {
			return fault.NewConflictError(fmt.Sprintf("cannot fund a %s request", req.Status))
		}

		req.Agreement.TermsAccepted = true
		req.Status = domain.StatusFunded
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

	u.bus.Publish(ctx, event.RequestUpdatedChannel(requestID), out)
	return out, nil
}

// UpdateStatus is the operational override. It stays authorization-gated
// and, unlike its ancestor, refuses any edge missing from the transition
// table, so the monotonic-status invariant holds even for corrections.
func (u *Usecase) UpdateStatus(ctx context.Context, in UpdateStatusInput) (*domain.LoanRequest, error) {
	if in.CallerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	next := domain.Status(in.NewStatus)
	if !domain.ValidStatus(next) {
		return nil, fault.NewValidationError("unknown status " + in.NewStatus)
	}

	var out *domain.LoanRequest
	err := u.uow.WithinRequestTx(ctx, in.RequestID, func(r uow.Repos, req *domain.LoanRequest) error {
		isBorrower := req.BorrowerID == in.CallerID
		isSelected := req.SelectedLenderID != "" && req.SelectedLenderID == in.CallerID
		if !isBorrower && !isSelected && in.CallerRole != RoleAdmin {
			return fault.NewAuthorizationError("not authorized to update this request")
		}
		if !domain.CanTransition(req.Status, next) {
			return fault.NewValidationError(fmt.Sprintf("transition %s -> %s not allowed", req.Status, next))
		}

		req.Status = next
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

func (u *Usecase) Cancel(ctx context.Context, borrowerID, requestID string) error {
	if borrowerID == "" {
		return fault.NewAuthenticationError("caller identity required")
	}

	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, req *domain.LoanRequest) error {
		if req.BorrowerID != borrowerID {
			return fault.NewAuthorizationError("only the borrower can cancel their request")
		}
		if req.Status != domain.StatusPending {
			return fault.NewConflictError("only pending requests can be cancelled")
		}
		return r.Requests.Delete(ctx, req)
	})
	return translate(err)
}

func (u *Usecase) AddCollateralDocument(ctx context.Context, in AddCollateralDocumentInput) (*domain.LoanRequest, error) {
	if in.BorrowerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	if in.DocType != "PHOTO" && in.DocType != "PDF" {
		return nil, fault.NewValidationError("document type must be PHOTO or PDF")
	}

	var out *domain.LoanRequest
	err := u.uow.WithinRequestTx(ctx, in.RequestID, func(r uow.Repos, req *domain.LoanRequest) error {
		if req.BorrowerID != in.BorrowerID {
			return fault.NewAuthorizationError("only the borrower can attach collateral documents")
		}
		if req.Collateral == nil {
			return fault.NewValidationError("request has no collateral")
		}

		req.Collateral.Documents = append(req.Collateral.Documents, domain.CollateralDocument{
			Type:       in.DocType,
			URL:        in.URL,
			Name:       in.Name,
			UploadedAt: u.clock.Now(),
		})
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

func (u *Usecase) Get(ctx context.Context, callerID, requestID string) (*domain.LoanRequest, error) {
	if callerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	lr, err := u.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, translate(err)
	}
	return lr, nil
}

func (u *Usecase) ListMine(ctx context.Context, borrowerID string) ([]domain.LoanRequest, error) {
	if borrowerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	return u.requests.ListByBorrowerID(ctx, borrowerID)
}

// ListAvailable returns other borrowers' PENDING requests for lender
// browsing.
func (u *Usecase) ListAvailable(ctx context.Context, callerID, callerRole string) ([]domain.LoanRequest, error) {
	if callerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	if !CanLend(callerRole) {
		return nil, fault.NewAuthorizationError("only lenders can browse available requests")
	}
	return u.list(ctx, domain.StatusPending, callerID, 0, 0)
}

func (u *Usecase) ListByStatus(ctx context.Context, callerID string, status string, page, limit int) ([]domain.LoanRequest, error) {
	if callerID == "" {
		return nil, fault.NewAuthenticationError("caller identity required")
	}
	s := domain.Status(status)
	if status != "" && !domain.ValidStatus(s) {
		return nil, fault.NewValidationError("unknown status " + status)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return u.list(ctx, s, callerID, (page-1)*limit, limit)
}

func (u *Usecase) list(ctx context.Context, status domain.Status, excludeBorrower string, offset, limit int) ([]domain.LoanRequest, error) {
	rs, err := u.requests.ListByStatus(ctx, status, excludeBorrower, offset, limit)
	if err != nil {
		return nil, err
	}
	// skip orphaned records on the read side
	out := rs[:0]
	for _, lr := range rs {
		if lr.BorrowerID == "" {
			continue
		}
		out = append(out, lr)
	}
	return out, nil
}

// translate maps store-level not-found onto the shared taxonomy; fault
// errors pass through untouched.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fault.NewNotFoundError("loan request not found")
	}
	return err
}
