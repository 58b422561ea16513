package http

import (
	"net/http"
	"strconv"

	"peerlend-backend/internal/adapter/middleware"
	requestUC "peerlend-backend/internal/usecase/request"

	"github.com/labstack/echo/v4"
)

type RequestHandler struct{ uc *requestUC.Usecase }

func NewRequestHandler(uc *requestUC.Usecase) *RequestHandler { return &RequestHandler{uc: uc} }

type createRequestReq struct {
	Amount          float64 `json:"amount"           validate:"required,gt=0,dec2"`
	Purpose         string  `json:"purpose"          validate:"required"`
	DurationMonths  int     `json:"duration_months"  validate:"required,gte=1"`
	CreditScore     int     `json:"credit_score"     validate:"omitempty,gte=300,lte=850"`
	SecurityType    string  `json:"security_type"    validate:"required,oneof=SECURED UNSECURED"`
	CollateralType  string  `json:"collateral_type"  validate:"omitempty"`
	CollateralValue float64 `json:"collateral_value" validate:"omitempty,gte=0,dec2"`
	Description     string  `json:"description"`
}

func (h *RequestHandler) CreateRequest(c echo.Context) error {
	var req createRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	lr, err := h.uc.Create(c.Request().Context(), requestUC.CreateRequestInput{
		BorrowerID:      middleware.CallerID(c),
		Amount:          req.Amount,
		Purpose:         req.Purpose,
		DurationMonths:  req.DurationMonths,
		CreditScore:     req.CreditScore,
		SecurityType:    req.SecurityType,
		CollateralType:  req.CollateralType,
		CollateralValue: req.CollateralValue,
		Description:     req.Description,
	})
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusCreated, lr)
}

func (h *RequestHandler) GetRequest(c echo.Context) error {
	lr, err := h.uc.Get(c.Request().Context(), middleware.CallerID(c), c.Param("request_id"))
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, lr)
}

func (h *RequestHandler) ListRequests(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	rs, err := h.uc.ListByStatus(c.Request().Context(), middleware.CallerID(c), c.QueryParam("status"), page, limit)
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *RequestHandler) ListMyRequests(c echo.Context) error {
	rs, err := h.uc.ListMine(c.Request().Context(), middleware.CallerID(c))
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *RequestHandler) ListAvailableRequests(c echo.Context) error {
	rs, err := h.uc.ListAvailable(c.Request().Context(), middleware.CallerID(c), middleware.CallerRole(c))
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, rs)
}

type expressInterestReq struct {
	InterestRate float64 `json:"interest_rate" validate:"gte=0,lte=100"`
	Message      string  `json:"message"       validate:"max=500"`
}

func (h *RequestHandler) ExpressInterest(c echo.Context) error {
	var req expressInterestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	lr, err := h.uc.ExpressInterest(c.Request().Context(), requestUC.ExpressInterestInput{
		LenderID:     middleware.CallerID(c),
		LenderRole:   middleware.CallerRole(c),
		RequestID:    c.Param("request_id"),
		InterestRate: req.InterestRate,
		Message:      req.Message,
	})
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, lr)
}

type selectLenderReq struct {
	LenderID string `json:"lender_id" validate:"required,hex32"`
}

func (h *RequestHandler) SelectLender(c echo.Context) error {
	var req selectLenderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	lr, err := h.uc.SelectLender(c.Request().Context(), middleware.CallerID(c), c.Param("request_id"), req.LenderID)
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, lr)
}

func (h *RequestHandler) AcceptTerms(c echo.Context) error {
	lr, err := h.uc.AcceptTerms(c.Request().Context(), middleware.CallerID(c), c.Param("request_id"))
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, lr)
}

type updateStatusReq struct {
	Status string `json:"status" validate:"required"`
}

func (h *RequestHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	lr, err := h.uc.UpdateStatus(c.Request().Context(), requestUC.UpdateStatusInput{
		CallerID:   middleware.CallerID(c),
		CallerRole: middleware.CallerRole(c),
		RequestID:  c.Param("request_id"),
		NewStatus:  req.Status,
	})
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, lr)
}

func (h *RequestHandler) CancelRequest(c echo.Context) error {
	if err := h.uc.Cancel(c.Request().Context(), middleware.CallerID(c), c.Param("request_id")); err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

type addCollateralDocumentReq struct {
	Type string `json:"type" validate:"required,oneof=PHOTO PDF"`
	URL  string `json:"url"  validate:"required,url"`
	Name string `json:"name" validate:"required"`
}

func (h *RequestHandler) AddCollateralDocument(c echo.Context) error {
	var req addCollateralDocumentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	lr, err := h.uc.AddCollateralDocument(c.Request().Context(), requestUC.AddCollateralDocumentInput{
		BorrowerID: middleware.CallerID(c),
		RequestID:  c.Param("request_id"),
		DocType:    req.Type,
		URL:        req.URL,
		Name:       req.Name,
	})
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, lr)
}
