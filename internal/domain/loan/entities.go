package loan

import "time"

type Status string

const (
	StatusReceivedPending Status = "LOAN_RECEIVED_PENDING"
	StatusActive          Status = "ACTIVE"
	StatusCompleted       Status = "COMPLETED"
	StatusDefaulted       Status = "DEFAULTED"
)

var transitions = map[Status][]Status{
	StatusReceivedPending: {StatusActive},
	StatusActive:          {StatusCompleted, StatusDefaulted},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool { return len(transitions[s]) == 0 }

type Repayment struct {
	Amount   float64   `json:"amount"`
	PaidDate time.Time `json:"paid_date"`
	Note     string    `json:"note,omitempty"`
}

// Loan is the authoritative funded-loan record. Terms are frozen at
// creation; only confirmation and repayment state mutate afterwards.
type Loan struct {
	ID     uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID string `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`

	RequestID  string `gorm:"size:32;index" json:"request_id"`
	BorrowerID string `gorm:"size:32;index:idx_loans_borrower_status" json:"borrower_id"`
	LenderID   string `gorm:"size:32;index:idx_loans_lender_status" json:"lender_id"`

	Amount         float64 `gorm:"type:decimal(18,2)" json:"amount"`
	InterestRate   float64 `gorm:"type:decimal(6,2)" json:"interest_rate"`
	DurationMonths int     `json:"duration_months"`
	// TotalPayable = Amount plus simple interest, frozen at creation.
	TotalPayable float64 `gorm:"type:decimal(18,2)" json:"total_payable"`

	Status Status `gorm:"size:32;index:idx_loans_borrower_status;index:idx_loans_lender_status;default:'LOAN_RECEIVED_PENDING'" json:"status"`

	BorrowerConfirmed bool `json:"borrower_confirmed"`
	LenderConfirmed   bool `json:"lender_confirmed"`
	// SelectedLenderID is the lender the borrower claims received funds
	// from; activation requires it to match LenderID.
	SelectedLenderID string `gorm:"size:32" json:"selected_lender_id,omitempty"`

	DisbursementDate time.Time  `json:"disbursement_date"`
	ConfirmedDate    *time.Time `json:"confirmed_date,omitempty"`
	DueDate          time.Time  `json:"due_date"`

	Repayments      []Repayment `gorm:"serializer:json;type:text" json:"repayments"`
	TotalRepaid     float64     `gorm:"type:decimal(18,2)" json:"total_repaid"`
	RemainingAmount float64     `gorm:"type:decimal(18,2)" json:"remaining_amount"`

	StatusUpdatedAt time.Time `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// ComputeTotalPayable returns principal plus simple interest:
// amount * (1 + rate/100 * months/12).
func ComputeTotalPayable(amount, rate float64, months int) float64 {
	return amount + amount*(rate/100)*(float64(months)/12)
}

// Recompute derives RemainingAmount from TotalPayable and TotalRepaid.
// RemainingAmount is never set independently.
func (l *Loan) Recompute() {
	l.RemainingAmount = l.TotalPayable - l.TotalRepaid
	if l.RemainingAmount < 0 {
		l.RemainingAmount = 0
	}
}

// Overdue reports whether the loan is past due with a balance outstanding.
// Derived, never stored.
func (l *Loan) Overdue(now time.Time) bool {
	return l.Status == StatusActive && now.After(l.DueDate) && l.RemainingAmount > 0
}

// Live reports whether the loan still occupies the borrower's single
// active-loan slot.
func (l *Loan) Live() bool {
	return l.Status == StatusReceivedPending || l.Status == StatusActive
}
