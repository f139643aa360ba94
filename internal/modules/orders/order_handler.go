package orders

import (
	"net/http"
	"strconv"

	"corralx-backend/internal/models"
	"corralx-backend/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new order handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func orderIDParam(c echo.Context) (int64, error) {
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil || orderID <= 0 {
		return 0, utils.RespondWithError(c, http.StatusBadRequest, "Invalid order ID")
	}
	return orderID, nil
}

func (h *Handler) CreateOrder(c echo.Context) error {
	profileID, err := utils.ExtractProfileID(c)
	if err != nil {
		return err
	}

	var req models.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	}

	order, err := h.svc.CreateOrder(c.Request().Context(), profileID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusCreated, order)
}

func (h *Handler) ListMyOrders(c echo.Context) error {
	profileID, err := utils.ExtractProfileID(c)
	if err != nil {
		return err
	}

	page, limit := utils.GetPageLimit(c)
	orders, total, err := h.svc.ListMyOrders(c.Request().Context(), profileID, page, limit)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}

func (h *Handler) GetOrderDetails(c echo.Context) error {
	profileID, err := utils.ExtractProfileID(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.svc.GetOrder(c.Request().Context(), profileID, orderID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) AmendOrder(c echo.Context) error {
	profileID, err := utils.ExtractProfileID(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req models.AmendOrderRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	}

	order, err := h.svc.AmendOrder(c.Request().Context(), profileID, orderID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) AcceptOrder(c echo.Context) error {
	profileID, err := utils.ExtractProfileID(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.svc.AcceptOrder(c.Request().Context(), profileID, orderID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) RejectOrder(c echo.Context) error {
	profileID, err := utils.ExtractProfileID(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req models.RejectOrderRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	}

	order, err := h.svc.RejectOrder(c.Request().Context(), profileID, orderID, req.Reason)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) DeliverOrder(c echo.Context) error {
	profileID, err := utils.ExtractProfileID(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	// The body is optional: an empty deliver request defaults the pickup
	// date to now.
	var req models.DeliverOrderRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}

	order, err := h.svc.DeliverOrder(c.Request().Context(), profileID, orderID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) CancelOrder(c echo.Context) error {
	profileID, err := utils.ExtractProfileID(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req models.CancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	}

	order, err := h.svc.CancelOrder(c.Request().Context(), profileID, orderID, req.Reason)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) GetReceipt(c echo.Context) error {
	profileID, err := utils.ExtractProfileID(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	receipt, err := h.svc.GetReceipt(c.Request().Context(), profileID, orderID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, receipt)
}

func (h *Handler) SubmitReviews(c echo.Context) error {
	profileID, err := utils.ExtractProfileID(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req models.SubmitReviewsRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	}

	order, err := h.svc.SubmitReviews(c.Request().Context(), profileID, orderID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) ListReviews(c echo.Context) error {
	profileID, err := utils.ExtractProfileID(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	reviews, err := h.svc.ListReviews(c.Request().Context(), profileID, orderID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"reviews": reviews})
}
