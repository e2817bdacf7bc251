package v1

import (
	"net/http"

	"herbal-market-backend/internal/delivery/http/middleware"
	"herbal-market-backend/internal/delivery/http/response"
	"herbal-market-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	orderUC domain.OrderUsecase
}

func NewAdminHandler(admins *gin.RouterGroup, orderUC domain.OrderUsecase) {
	handler := &AdminHandler{orderUC: orderUC}

	admins.GET("/orders", handler.ListOrders)
	admins.GET("/orders/stats", handler.Stats)
}

// ListOrders godoc
// @Summary      List every order
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status    query  string  false  "Fulfillment status filter"
// @Param        page      query  int     false  "Page number"  default(1)
// @Param        pageSize  query  int     false  "Page size"    default(10)
// @Success      200  {object}  response.Response{data=domain.PaginatedResult[domain.Order]}
// @Failure      403  {object}  response.Response
// @Router       /admin/orders [get]
func (h *AdminHandler) ListOrders(c *gin.Context) {
	status, err := statusFilter(c)
	if err != nil {
		c.Error(err)
		return
	}

	page, pageSize := pageParams(c)
	result, err := h.orderUC.AdminList(c.Request.Context(), middleware.PrincipalFrom(c), status, page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Orders retrieved", result)
}

// Stats godoc
// @Summary      Order counts per status
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=domain.OrderStats}
// @Failure      403  {object}  response.Response
// @Router       /admin/orders/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.orderUC.AdminStats(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Order stats retrieved", stats)
}
