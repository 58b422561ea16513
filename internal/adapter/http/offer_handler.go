package http

import (
	"net/http"

	"peerlend-backend/internal/adapter/middleware"
	offerUC "peerlend-backend/internal/usecase/offer"

	"github.com/labstack/echo/v4"
)

type OfferHandler struct{ uc *offerUC.Usecase }

func NewOfferHandler(uc *offerUC.Usecase) *OfferHandler { return &OfferHandler{uc: uc} }

type makeOfferReq struct {
	InterestRate float64 `json:"interest_rate" validate:"gte=0,lte=100"`
	Message      string  `json:"message"       validate:"max=500"`
}

func (h *OfferHandler) MakeOffer(c echo.Context) error {
	var req makeOfferReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	off, err := h.uc.Make(c.Request().Context(), offerUC.MakeOfferInput{
		LenderID:     middleware.CallerID(c),
		LenderRole:   middleware.CallerRole(c),
		RequestID:    c.Param("request_id"),
		InterestRate: req.InterestRate,
		Message:      req.Message,
	})
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusCreated, off)
}

func (h *OfferHandler) ListOffers(c echo.Context) error {
	offs, err := h.uc.List(c.Request().Context(), middleware.CallerID(c), c.Param("request_id"))
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, offs)
}

func (h *OfferHandler) AcceptOffer(c echo.Context) error {
	l, err := h.uc.Accept(c.Request().Context(), middleware.CallerID(c), c.Param("offer_id"))
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *OfferHandler) RejectOffer(c echo.Context) error {
	off, err := h.uc.Reject(c.Request().Context(), middleware.CallerID(c), c.Param("offer_id"))
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, off)
}

func (h *OfferHandler) WithdrawOffer(c echo.Context) error {
	off, err := h.uc.Withdraw(c.Request().Context(), middleware.CallerID(c), c.Param("offer_id"))
	if err != nil {
		return writeFault(c, err)
	}
	return c.JSON(http.StatusOK, off)
}
