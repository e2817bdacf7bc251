package v1

import (
	"net/http"

	"herbal-market-backend/internal/delivery/http/middleware"
	"herbal-market-backend/internal/delivery/http/response"
	"herbal-market-backend/internal/domain"
	"herbal-market-backend/internal/usecase"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderUC  domain.OrderUsecase
	exportUC domain.OrderExportUsecase
}

type CreateOrderRequest struct {
	ProductID string `json:"product_id" binding:"required" example:"3f1c9f0e-8f0a-4c2e-9d55-0a2b7b1d6f10"`
	Quantity  int    `json:"quantity" example:"2"`
}

type TransitionRequest struct {
	Status domain.FulfillmentStatus `json:"status" binding:"required" example:"confirmed"`
}

func NewOrderHandler(members, providers *gin.RouterGroup, orderUC domain.OrderUsecase, exportUC domain.OrderExportUsecase) {
	handler := &OrderHandler{orderUC: orderUC, exportUC: exportUC}

	members.POST("/orders", handler.Create)
	members.GET("/orders", handler.ListMine)
	members.GET("/orders/:id", handler.Get)
	members.POST("/orders/:id/transitions", handler.Transition)

	providers.GET("/orders", handler.Queue)
	providers.GET("/orders/export", handler.Export)
}

// Create godoc
// @Summary      Place an order
// @Description  Snapshots the unit price and checks remaining capacity.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateOrderRequest true "Order"
// @Success      201  {object}  response.Response{data=domain.Order}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	order, err := h.orderUC.Create(c.Request.Context(), middleware.PrincipalFrom(c), req.ProductID, req.Quantity)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Order placed", order)
}

// ListMine godoc
// @Summary      My purchases
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]domain.Order}
// @Router       /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	orders, err := h.orderUC.ListForBuyer(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Orders retrieved", orders)
}

// Get godoc
// @Summary      Order detail
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=domain.Order}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderUC.Get(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Order retrieved", order)
}

// Transition godoc
// @Summary      Move an order along its fulfillment lifecycle
// @Description  Providers advance or cancel; buyers may cancel while pending or confirmed.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string             true  "Order ID"
// @Param        request  body  TransitionRequest  true  "Target status"
// @Success      200  {object}  response.Response{data=domain.Order}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /orders/{id}/transitions [post]
func (h *OrderHandler) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	order, err := h.orderUC.Transition(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"), req.Status)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Order updated", order)
}

// Queue godoc
// @Summary      Provider order queue
// @Tags         provider
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "Fulfillment status filter"
// @Success      200  {object}  response.Response{data=[]domain.Order}
// @Router       /provider/orders [get]
func (h *OrderHandler) Queue(c *gin.Context) {
	status, err := statusFilter(c)
	if err != nil {
		c.Error(err)
		return
	}

	orders, err := h.orderUC.ListForProvider(c.Request.Context(), middleware.PrincipalFrom(c), status)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Orders retrieved", orders)
}

// Export godoc
// @Summary      Export the provider order queue
// @Tags         provider
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce      text/csv
// @Security     BearerAuth
// @Param        format  query  string  false  "xlsx or csv"  default(xlsx)
// @Param        status  query  string  false  "Fulfillment status filter"
// @Success      200  {file}    file
// @Failure      400  {object}  response.Response
// @Router       /provider/orders/export [get]
func (h *OrderHandler) Export(c *gin.Context) {
	status, err := statusFilter(c)
	if err != nil {
		c.Error(err)
		return
	}

	format := c.DefaultQuery("format", usecase.ExportFormatXLSX)
	data, filename, err := h.exportUC.ExportProviderQueue(c.Request.Context(), middleware.PrincipalFrom(c), status, format)
	if err != nil {
		c.Error(err)
		return
	}

	contentType := "text/csv"
	if format == usecase.ExportFormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	response.Attachment(c, contentType, filename, data)
}
