package mysql

import (
	"testing"

	loanDomain "peerlend-backend/internal/domain/loan"
	offerDomain "peerlend-backend/internal/domain/offer"
	requestDomain "peerlend-backend/internal/domain/request"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB creates an in-memory sqlite DB with all engine tables. The
// domain models carry no MySQL-only column types, so they migrate as-is.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&requestDomain.LoanRequest{}, &offerDomain.LoanOffer{}, &loanDomain.Loan{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}
