package http

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the API under /v1. Mutating routes sit behind the
// idempotency middleware; every /v1 route requires an authenticated caller.
func RegisterRoutes(e *echo.Echo, auth, idemp echo.MiddlewareFunc, h *Handler, rh *RequestHandler, oh *OfferHandler, lh *LoanHandler) {
	e.GET("/health", h.Health)

	v1 := e.Group("/v1", auth, idemp)

	v1.POST("/loan-requests", rh.CreateRequest)
	v1.GET("/loan-requests", rh.ListRequests)
	v1.GET("/loan-requests/available", rh.ListAvailableRequests)
	v1.GET("/loan-requests/mine", rh.ListMyRequests)
	v1.GET("/loan-requests/:request_id", rh.GetRequest)
	v1.DELETE("/loan-requests/:request_id", rh.CancelRequest)
	v1.PATCH("/loan-requests/:request_id/status", rh.UpdateStatus)
	v1.POST("/loan-requests/:request_id/interest", rh.ExpressInterest)
	v1.POST("/loan-requests/:request_id/select-lender", rh.SelectLender)
	v1.POST("/loan-requests/:request_id/accept-terms", rh.AcceptTerms)
	v1.POST("/loan-requests/:request_id/collateral-documents", rh.AddCollateralDocument)
	v1.POST("/loan-requests/:request_id/mark-received", lh.MarkReceived)
	v1.PATCH("/loan-requests/:request_id/received-lender", lh.EditLoanReceived)

	v1.POST("/loan-requests/:request_id/offers", oh.MakeOffer)
	v1.GET("/loan-requests/:request_id/offers", oh.ListOffers)
	v1.POST("/offers/:offer_id/accept", oh.AcceptOffer)
	v1.POST("/offers/:offer_id/reject", oh.RejectOffer)
	v1.POST("/offers/:offer_id/withdraw", oh.WithdrawOffer)

	v1.GET("/loans", lh.ListLoans)
	v1.GET("/loans/active", lh.GetActiveLoan)
	v1.GET("/loans/metrics", lh.GetMetrics)
	v1.GET("/loans/:loan_id", lh.GetLoan)
	v1.POST("/loans/:loan_id/confirm-disbursement", lh.ConfirmDisbursement)
	v1.POST("/loans/:loan_id/repayments", lh.RecordRepayment)
	v1.POST("/loans/:loan_id/complete", lh.MarkCompleted)
	v1.POST("/loans/:loan_id/default", lh.MarkDefaulted)
}
