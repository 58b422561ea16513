package offer

import (
	"context"
	"testing"
	"time"

	"peerlend-backend/internal/domain/fault"
	loanDomain "peerlend-backend/internal/domain/loan"
	domain "peerlend-backend/internal/domain/offer"
	requestDomain "peerlend-backend/internal/domain/request"
	"peerlend-backend/internal/domain/uow"
	"peerlend-backend/internal/testutil/busmock"
	"peerlend-backend/internal/testutil/loanmock"
	"peerlend-backend/internal/testutil/offermock"
	"peerlend-backend/internal/testutil/requestmock"
	"peerlend-backend/internal/testutil/uowmock"
	"peerlend-backend/internal/usecase/disbursement"
	requestUC "peerlend-backend/internal/usecase/request"
	"peerlend-backend/pkg/clock"

	"gorm.io/gorm"
)

const (
	borrowerID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	lenderID   = "cccccccccccccccccccccccccccccccc"
	requestID  = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	offerID    = "11111111111111111111111111111111"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeActivator records the activation intent and hands back a canned loan.
type fakeActivator struct {
	got  *disbursement.Activation
	loan *loanDomain.Loan
	err  error
}

func (f *fakeActivator) Activate(_ context.Context, _ uow.Repos, in disbursement.Activation) (*loanDomain.Loan, error) {
	f.got = &in
	if f.err != nil {
		return nil, f.err
	}
	if f.loan == nil {
		f.loan = &loanDomain.Loan{LoanID: "dddddddddddddddddddddddddddddddd", Status: loanDomain.StatusActive}
	}
	in.Request.LinkedLoanID = f.loan.LoanID
	return f.loan, nil
}

func newTestUsecase(offers *offermock.Repo, requests *requestmock.Repo, act *fakeActivator, bus *busmock.Bus) *Usecase {
	repos := uow.Repos{Requests: requests, Offers: offers, Loans: &loanmock.Repo{}}
	return NewUsecase(offers, requests, uowmock.Passthrough(repos), act, bus, clock.Fixed{T: testNow})
}

func pendingRequest() *requestDomain.LoanRequest {
	return &requestDomain.LoanRequest{
		RequestID:      requestID,
		BorrowerID:     borrowerID,
		Amount:         1000,
		DurationMonths: 12,
		Status:         requestDomain.StatusPending,
	}
}

func storeWithRequest(lr *requestDomain.LoanRequest) *requestmock.Repo {
	return &requestmock.Repo{
		GetByRequestIDFn: func(_ context.Context, id string) (*requestDomain.LoanRequest, error) {
			if id != lr.RequestID {
				return nil, gorm.ErrRecordNotFound
			}
			return lr, nil
		},
		GetByRequestIDForUpdateFn: func(_ context.Context, id string) (*requestDomain.LoanRequest, error) {
			if id != lr.RequestID {
				return nil, gorm.ErrRecordNotFound
			}
			return lr, nil
		},
	}
}

func TestMake_CreatesPendingOffer(t *testing.T) {
	offers := &offermock.Repo{
		GetByRequestAndLenderFn: func(context.Context, string, string) (*domain.LoanOffer, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	uc := newTestUsecase(offers, storeWithRequest(pendingRequest()), &fakeActivator{}, busmock.New())

	o, err := uc.Make(context.Background(), MakeOfferInput{
		LenderID:     lenderID,
		LenderRole:   requestUC.RoleLender,
		RequestID:    requestID,
		InterestRate: 11,
		Message:      "happy to fund this",
	})
	if err != nil {
		t.Fatalf("Make err: %v", err)
	}
	if len(o.OfferID) != 32 {
		t.Fatalf("OfferID length: %d", len(o.OfferID))
	}
	if o.Status != domain.StatusPending {
		t.Fatalf("status=%s", o.Status)
	}
	if o.Amount != 1000 {
		t.Fatalf("amount not mirrored from request: %v", o.Amount)
	}
}

func TestMake_ReofferUpdatesExistingRow(t *testing.T) {
	existing := &domain.LoanOffer{
		OfferID:      offerID,
		RequestID:    requestID,
		LenderID:     lenderID,
		InterestRate: 15,
		Status:       domain.StatusWithdrawn,
	}
	offers := &offermock.Repo{
		GetByRequestAndLenderFn: func(context.Context, string, string) (*domain.LoanOffer, error) {
			return existing, nil
		},
		CreateFn: func(context.Context, *domain.LoanOffer) error {
			t.Fatalf("re-offer must not insert a new row")
			return nil
		},
	}
	uc := newTestUsecase(offers, storeWithRequest(pendingRequest()), &fakeActivator{}, busmock.New())

	o, err := uc.Make(context.Background(), MakeOfferInput{
		LenderID:     lenderID,
		LenderRole:   requestUC.RoleLender,
		RequestID:    requestID,
		InterestRate: 9,
	})
	if err != nil {
		t.Fatalf("Make err: %v", err)
	}
	if o.OfferID != offerID {
		t.Fatalf("offer id changed: %s", o.OfferID)
	}
	if o.Status != domain.StatusPending || o.InterestRate != 9 {
		t.Fatalf("row not reset: %+v", o)
	}
}

func TestMake_OwnRequestForbidden(t *testing.T) {
	lr := pendingRequest()
	uc := newTestUsecase(&offermock.Repo{}, storeWithRequest(lr), &fakeActivator{}, busmock.New())

	_, err := uc.Make(context.Background(), MakeOfferInput{
		LenderID:     borrowerID,
		LenderRole:   requestUC.RoleBoth,
		RequestID:    requestID,
		InterestRate: 11,
	})
	if !fault.IsCode(err, fault.CodeAuthorization) {
		t.Fatalf("want AUTHORIZATION, got %v", err)
	}
}

func TestMake_ClosedRequestConflict(t *testing.T) {
	lr := pendingRequest()
	lr.Status = requestDomain.StatusAccepted
	uc := newTestUsecase(&offermock.Repo{}, storeWithRequest(lr), &fakeActivator{}, busmock.New())

	_, err := uc.Make(context.Background(), MakeOfferInput{
		LenderID:     lenderID,
		LenderRole:   requestUC.RoleLender,
		RequestID:    requestID,
		InterestRate: 11,
	})
	if !fault.IsCode(err, fault.CodeConflict) {
		t.Fatalf("want CONFLICT, got %v", err)
	}
}

func TestAccept_ActivatesAndRejectsSiblings(t *testing.T) {
	lr := pendingRequest()
	o := &domain.LoanOffer{
		OfferID:      offerID,
		RequestID:    requestID,
		LenderID:     lenderID,
		InterestRate: 12,
		Amount:       1000,
		Status:       domain.StatusPending,
	}
	var siblingsKept string
	offers := &offermock.Repo{
		GetByOfferIDFn: func(context.Context, string) (*domain.LoanOffer, error) { return o, nil },
		GetByOfferIDForUpdateFn: func(context.Context, string) (*domain.LoanOffer, error) {
			return o, nil
		},
		RejectPendingSiblingsFn: func(_ context.Context, reqID, keep string) error {
			if reqID != requestID {
				t.Fatalf("sibling rejection on wrong request: %s", reqID)
			}
			siblingsKept = keep
			return nil
		},
	}
	act := &fakeActivator{}
	bus := busmock.New()
	uc := newTestUsecase(offers, storeWithRequest(lr), act, bus)

	l, err := uc.Accept(context.Background(), borrowerID, offerID)
	if err != nil {
		t.Fatalf("Accept err: %v", err)
	}
	if o.Status != domain.StatusAccepted {
		t.Fatalf("offer status=%s", o.Status)
	}
	if siblingsKept != offerID {
		t.Fatalf("siblings kept=%q", siblingsKept)
	}
	if act.got == nil || !act.got.Immediate {
		t.Fatalf("activation intent: %+v", act.got)
	}
	if act.got.LenderID != lenderID || act.got.InterestRate != 12 {
		t.Fatalf("activation terms: %+v", act.got)
	}
	if l == nil || l.Status != loanDomain.StatusActive {
		t.Fatalf("loan: %+v", l)
	}
	if lr.Status != requestDomain.StatusAccepted || lr.AcceptedOfferID != offerID || lr.AcceptedAt == nil {
		t.Fatalf("request not updated: %+v", lr)
	}
}

func TestAccept_SecondAcceptanceConflicts(t *testing.T) {
	lr := pendingRequest()
	lr.Status = requestDomain.StatusAccepted
	o := &domain.LoanOffer{OfferID: offerID, RequestID: requestID, LenderID: lenderID, Status: domain.StatusPending}
	offers := &offermock.Repo{
		GetByOfferIDFn: func(context.Context, string) (*domain.LoanOffer, error) { return o, nil },
	}
	uc := newTestUsecase(offers, storeWithRequest(lr), &fakeActivator{}, busmock.New())

	_, err := uc.Accept(context.Background(), borrowerID, offerID)
	if !fault.IsCode(err, fault.CodeConflict) {
		t.Fatalf("want CONFLICT, got %v", err)
	}
}

func TestAccept_OfferNoLongerPending(t *testing.T) {
	lr := pendingRequest()
	o := &domain.LoanOffer{OfferID: offerID, RequestID: requestID, LenderID: lenderID, Status: domain.StatusPending}
	offers := &offermock.Repo{
		GetByOfferIDFn: func(context.Context, string) (*domain.LoanOffer, error) { return o, nil },
		GetByOfferIDForUpdateFn: func(context.Context, string) (*domain.LoanOffer, error) {
			// withdrawn between the unlocked read and the locked one
			return &domain.LoanOffer{OfferID: offerID, RequestID: requestID, LenderID: lenderID, Status: domain.StatusWithdrawn}, nil
		},
	}
	uc := newTestUsecase(offers, storeWithRequest(lr), &fakeActivator{}, busmock.New())

	_, err := uc.Accept(context.Background(), borrowerID, offerID)
	if !fault.IsCode(err, fault.CodeConflict) {
		t.Fatalf("want CONFLICT, got %v", err)
	}
}

func TestAccept_BorrowerOnly(t *testing.T) {
	lr := pendingRequest()
	o := &domain.LoanOffer{OfferID: offerID, RequestID: requestID, LenderID: lenderID, Status: domain.StatusPending}
	offers := &offermock.Repo{
		GetByOfferIDFn: func(context.Context, string) (*domain.LoanOffer, error) { return o, nil },
	}
	uc := newTestUsecase(offers, storeWithRequest(lr), &fakeActivator{}, busmock.New())

	_, err := uc.Accept(context.Background(), lenderID, offerID)
	if !fault.IsCode(err, fault.CodeAuthorization) {
		t.Fatalf("want AUTHORIZATION, got %v", err)
	}
}

func TestReject_LeavesSiblingsAlone(t *testing.T) {
	lr := pendingRequest()
	o := &domain.LoanOffer{OfferID: offerID, RequestID: requestID, LenderID: lenderID, Status: domain.StatusPending}
	offers := &offermock.Repo{
		GetByOfferIDFn: func(context.Context, string) (*domain.LoanOffer, error) { return o, nil },
		GetByOfferIDForUpdateFn: func(context.Context, string) (*domain.LoanOffer, error) {
			return o, nil
		},
		RejectPendingSiblingsFn: func(context.Context, string, string) error {
			t.Fatalf("Reject must not touch siblings")
			return nil
		},
	}
	uc := newTestUsecase(offers, storeWithRequest(lr), &fakeActivator{}, busmock.New())

	out, err := uc.Reject(context.Background(), borrowerID, offerID)
	if err != nil {
		t.Fatalf("Reject err: %v", err)
	}
	if out.Status != domain.StatusRejected {
		t.Fatalf("status=%s", out.Status)
	}
}

func TestWithdraw_OfferingLenderOnly(t *testing.T) {
	o := &domain.LoanOffer{OfferID: offerID, RequestID: requestID, LenderID: lenderID, Status: domain.StatusPending}
	offers := &offermock.Repo{
		GetByOfferIDForUpdateFn: func(context.Context, string) (*domain.LoanOffer, error) {
			return o, nil
		},
	}
	uc := newTestUsecase(offers, &requestmock.Repo{}, &fakeActivator{}, busmock.New())

	if _, err := uc.Withdraw(context.Background(), borrowerID, offerID); !fault.IsCode(err, fault.CodeAuthorization) {
		t.Fatalf("want AUTHORIZATION, got %v", err)
	}

	out, err := uc.Withdraw(context.Background(), lenderID, offerID)
	if err != nil {
		t.Fatalf("Withdraw err: %v", err)
	}
	if out.Status != domain.StatusWithdrawn {
		t.Fatalf("status=%s", out.Status)
	}
}
