package repayment

// Metrics is a pure read-side aggregation over the caller's loan set.
type Metrics struct {
	TotalBorrowed          float64 `json:"total_borrowed"`
	TotalLent              float64 `json:"total_lent"`
	ActiveBorrowedCount    int     `json:"active_borrowed_count"`
	ActiveLentCount        int     `json:"active_lent_count"`
	CompletedBorrowedCount int     `json:"completed_borrowed_count"`
	CompletedLentCount     int     `json:"completed_lent_count"`
	TotalToRepay           float64 `json:"total_to_repay"`
	OverdueCount           int     `json:"overdue_count"`
}
