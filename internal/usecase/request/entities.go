package request

// Roles carried by caller identity. Identity issuance is external; the
// engine only checks the relationship between role and operation.
const (
	RoleBorrower = "borrower"
	RoleLender   = "lender"
	RoleBoth     = "both"
	RoleAdmin    = "admin"
)

func CanLend(role string) bool { return role == RoleLender || role == RoleBoth }

type CreateRequestInput struct {
	BorrowerID      string
	Amount          float64
	Purpose         string
	DurationMonths  int
	CreditScore     int
	SecurityType    string
	CollateralType  string
	CollateralValue float64
	Description     string
}

type ExpressInterestInput struct {
	LenderID     string
	LenderRole   string
	RequestID    string
	InterestRate float64
	Message      string
}

type UpdateStatusInput struct {
	CallerID   string
	CallerRole string
	RequestID  string
	NewStatus  string
}

type AddCollateralDocumentInput struct {
	BorrowerID string
	RequestID  string
	DocType    string
	URL        string
	Name       string
}
