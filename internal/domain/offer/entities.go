package offer

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusWithdrawn Status = "WITHDRAWN"
)

func (s Status) Terminal() bool { return s != StatusPending }

// LoanOffer is a lender's formal competing bid against one request. The
// (request_id, lender_id) pair is unique: re-offering updates the existing
// row and resets it to PENDING instead of inserting a duplicate.
type LoanOffer struct {
	ID      uint64 `gorm:"primaryKey;column:id" json:"-"`
	OfferID string `gorm:"size:32;uniqueIndex:ux_loan_offers_offer_id" json:"offer_id"`

	RequestID string `gorm:"size:32;uniqueIndex:ux_loan_offers_request_lender" json:"request_id"`
	LenderID  string `gorm:"size:32;uniqueIndex:ux_loan_offers_request_lender" json:"lender_id"`

	InterestRate float64 `gorm:"type:decimal(6,2)" json:"interest_rate"`
	// Amount mirrors the request amount at offer time.
	Amount  float64 `gorm:"type:decimal(18,2)" json:"amount"`
	Message string  `gorm:"size:500" json:"message,omitempty"`
	Status  Status  `gorm:"size:16;default:'PENDING'" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LoanOffer) TableName() string { return "loan_offers" }
