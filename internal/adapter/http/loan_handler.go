package http

import (
	"net/http"

	"peerlend-backend/internal/adapter/middleware"
	"peerlend-backend/internal/usecase/disbursement"
	repaymentUC "peerlend-backend/internal/usecase/repayment"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct {
	disb *disbursement.Usecase
	rep  *repaymentUC.Usecase
}

func NewLoanHandler(disb *disbursement.Usecase, rep *repaymentUC.Usecase) *LoanHandler {
	return &LoanHandler{disb: disb, rep: rep}
}

type markReceivedReq struct {
	LenderID string `json:"lender_id" validate:"required,hex32"`
}

func (h *LoanHandler) MarkReceived(c echo.Context) error {
	var req markReceivedReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	lr, err := h.disb.MarkReceived(c.Request().Context(), disbursement.MarkReceivedInput{
		BorrowerID: middleware.CallerID(c),
		RequestID:  c.Param("request_id"),
		LenderID:   req.LenderID,
	})
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, lr)
}

type editReceivedReq struct {
	LenderID string `json:"lender_id" validate:"required,hex32"`
}

func (h *LoanHandler) EditLoanReceived(c echo.Context) error {
	var req editReceivedReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	l, err := h.disb.EditLoanReceived(c.Request().Context(), disbursement.EditLoanReceivedInput{
		BorrowerID:  middleware.CallerID(c),
		RequestID:   c.Param("request_id"),
		NewLenderID: req.LenderID,
	})
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) ConfirmDisbursement(c echo.Context) error {
	l, err := h.disb.ConfirmDisbursement(c.Request().Context(), middleware.CallerID(c), c.Param("loan_id"))
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	l, err := h.rep.Get(c.Request().Context(), middleware.CallerID(c), c.Param("loan_id"))
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	callerID := middleware.CallerID(c)
	status := c.QueryParam("status")

	switch c.QueryParam("type") {
	case "lended":
		ls, err := h.rep.ListLent(c.Request().Context(), callerID, status)
		if err != nil {
			return writeFault(c, err)
		}
		return c.JSON(http.StatusOK, ls)
	default:
		ls, err := h.rep.ListBorrowed(c.Request().Context(), callerID, status)
		if err != nil {
			return writeFault(c, err)
		}
		return c.JSON(http.StatusOK, ls)
	}
}

func (h *LoanHandler) GetActiveLoan(c echo.Context) error {
	l, err := h.rep.ActiveLoan(c.Request().Context(), middleware.CallerID(c))
	if err != nil {
		return writeFault(c, err)
	}
	if l == nil {
		return c.JSON(http.StatusOK, map[string]any{"loan": nil})
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) GetMetrics(c echo.Context) error {
	m, err := h.rep.Metrics(c.Request().Context(), middleware.CallerID(c))
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

type recordRepaymentReq struct {
	Amount float64 `json:"amount" validate:"required,gt=0,dec2"`
	Note   string  `json:"note"   validate:"max=500"`
}

func (h *LoanHandler) RecordRepayment(c echo.Context) error {
	var req recordRepaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	l, err := h.rep.RecordRepayment(c.Request().Context(), repaymentUC.RecordRepaymentInput{
		LenderID: middleware.CallerID(c),
		LoanID:   c.Param("loan_id"),
		Amount:   req.Amount,
		Note:     req.Note,
	})
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *LoanHandler) MarkCompleted(c echo.Context) error {
	l, err := h.rep.MarkCompleted(c.Request().Context(), middleware.CallerID(c), c.Param("loan_id"))
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) MarkDefaulted(c echo.Context) error {
	l, err := h.rep.MarkDefaulted(c.Request().Context(), middleware.CallerID(c), c.Param("loan_id"))
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, l)
}
