package v1

import (
	"net/http"

	"herbal-market-backend/internal/delivery/http/middleware"
	"herbal-market-backend/internal/delivery/http/response"
	"herbal-market-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	orderUC domain.OrderUsecase
}

// NewPaymentHandler registers the payment gateway callbacks. The group must
// resolve either the signed callback principal or an admin.
func NewPaymentHandler(payments *gin.RouterGroup, orderUC domain.OrderUsecase) {
	handler := &PaymentHandler{orderUC: orderUC}

	payments.POST("/orders/:id/paid", handler.MarkPaid)
	payments.POST("/orders/:id/failed", handler.MarkFailed)
}

// MarkPaid godoc
// @Summary      Record a successful payment
// @Tags         payments
// @Produce      json
// @Param        X-Payment-Signature  header  string  false  "Gateway shared secret"
// @Param        id                   path    string  true   "Order ID"
// @Success      200  {object}  response.Response{data=domain.Order}
// @Failure      401  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /payments/orders/{id}/paid [post]
func (h *PaymentHandler) MarkPaid(c *gin.Context) {
	order, err := h.orderUC.MarkPaid(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Payment recorded", order)
}

// MarkFailed godoc
// @Summary      Record a failed payment
// @Tags         payments
// @Produce      json
// @Param        X-Payment-Signature  header  string  false  "Gateway shared secret"
// @Param        id                   path    string  true   "Order ID"
// @Success      200  {object}  response.Response{data=domain.Order}
// @Failure      401  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /payments/orders/{id}/failed [post]
func (h *PaymentHandler) MarkFailed(c *gin.Context) {
	order, err := h.orderUC.MarkFailed(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Payment recorded", order)
}
