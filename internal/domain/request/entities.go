package request

import (
	"time"
)

type Status string

const (
	StatusPending             Status = "PENDING"
	StatusApproved            Status = "APPROVED"
	StatusFunded              Status = "FUNDED"
	StatusLoanReceivedPending Status = "LOAN_RECEIVED_PENDING"
	StatusAccepted            Status = "ACCEPTED"
	StatusCancelled           Status = "CANCELLED"
	StatusRejected            Status = "REJECTED"
)

// transitions is the full edge set for loan request statuses. Any edge not
// listed here is denied, including by the administrative status override.
var transitions = map[Status][]Status{
	StatusPending:             {StatusApproved, StatusAccepted, StatusLoanReceivedPending, StatusCancelled, StatusRejected},
	StatusApproved:            {StatusFunded, StatusLoanReceivedPending, StatusRejected},
	StatusFunded:              {StatusLoanReceivedPending, StatusRejected},
	StatusLoanReceivedPending: {StatusFunded, StatusRejected},
	StatusAccepted:            {StatusRejected},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusFunded, StatusLoanReceivedPending,
		StatusAccepted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

type SecurityType string

const (
	SecuritySecured   SecurityType = "SECURED"
	SecurityUnsecured SecurityType = "UNSECURED"
)

type CollateralDocument struct {
	Type       string    `json:"type"` // PHOTO or PDF
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Collateral struct {
	Type           string               `json:"type"`
	EstimatedValue float64              `json:"estimated_value"`
	Documents      []CollateralDocument `json:"documents"`
}

// Interest is one lender's expression of interest. At most one entry per
// lender id lives in a request's list; re-expressing updates in place.
type Interest struct {
	LenderID     string    `json:"lender_id"`
	InterestRate float64   `json:"interest_rate"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

type Agreement struct {
	InterestRate  float64   `json:"interest_rate"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	TermsAccepted bool      `json:"terms_accepted"`
}

type LoanRequest struct {
	ID        uint64 `gorm:"primaryKey;column:id" json:"-"`
	RequestID string `gorm:"size:32;uniqueIndex:ux_loan_requests_request_id" json:"request_id"`
	// BorrowerID is a reference into the external identity store, immutable
	// after creation.
	BorrowerID string `gorm:"size:32;index:idx_loan_requests_borrower_status" json:"borrower_id"`

	Amount         float64      `gorm:"type:decimal(18,2)" json:"amount"`
	Purpose        string       `gorm:"type:text" json:"purpose"`
	DurationMonths int          `json:"duration_months"`
	CreditScore    int          `json:"credit_score,omitempty"`
	SecurityType   SecurityType `gorm:"size:16" json:"security_type"`
	// Collateral is present iff SecurityType is SECURED.
	Collateral  *Collateral `gorm:"serializer:json;type:text" json:"collateral,omitempty"`
	Description string      `gorm:"type:text" json:"description,omitempty"`

	Status            Status     `gorm:"size:32;index:idx_loan_requests_borrower_status;default:'PENDING'" json:"status"`
	InterestedLenders []Interest `gorm:"serializer:json;type:text" json:"interested_lenders"`
	SelectedLenderID  string     `gorm:"size:32" json:"selected_lender_id,omitempty"`
	Agreement         *Agreement `gorm:"serializer:json;type:text" json:"agreement,omitempty"`

	// LinkedLoanID is set once, when a Loan is created from this request.
	LinkedLoanID    string     `gorm:"size:32" json:"linked_loan_id,omitempty"`
	AcceptedOfferID string     `gorm:"size:32" json:"accepted_offer_id,omitempty"`
	AcceptedAt      *time.Time `json:"accepted_at,omitempty"`

	StatusUpdatedAt time.Time `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LoanRequest) TableName() string { return "loan_requests" }

// FindInterest returns the lender's entry, or nil.
func (r *LoanRequest) FindInterest(lenderID string) *Interest {
	for i := range r.InterestedLenders {
		if r.InterestedLenders[i].LenderID == lenderID {
			return &r.InterestedLenders[i]
		}
	}
	return nil
}

// UpsertInterest updates the lender's existing entry in place, else appends.
// Keeps the at-most-one-entry-per-lender law.
func (r *LoanRequest) UpsertInterest(in Interest) {
	if cur := r.FindInterest(in.LenderID); cur != nil {
		cur.InterestRate = in.InterestRate
		cur.Message = in.Message
		cur.Timestamp = in.Timestamp
		return
	}
	r.InterestedLenders = append(r.InterestedLenders, in)
}
