package v1

import (
	"net/http"

	"herbal-market-backend/internal/delivery/http/middleware"
	"herbal-market-backend/internal/delivery/http/response"
	"herbal-market-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	catalogUC domain.CatalogUsecase
}

func NewProductHandler(public, providers *gin.RouterGroup, catalogUC domain.CatalogUsecase) {
	handler := &ProductHandler{catalogUC: catalogUC}

	public.GET("/products", handler.ListAvailable)
	public.GET("/products/:id", handler.Get)

	providers.POST("/products", handler.Create)
	providers.GET("/products", handler.ListMine)
}

// ListAvailable godoc
// @Summary      Browse available products
// @Tags         products
// @Produce      json
// @Param        category  query  string  false  "Category filter"
// @Param        page      query  int     false  "Page number"  default(1)
// @Param        pageSize  query  int     false  "Page size"    default(10)
// @Success      200  {object}  response.Response{data=domain.PaginatedResult[domain.Product]}
// @Router       /products [get]
func (h *ProductHandler) ListAvailable(c *gin.Context) {
	page, pageSize := pageParams(c)
	result, err := h.catalogUC.ListAvailable(c.Request.Context(), c.Query("category"), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Products retrieved", result)
}

// Get godoc
// @Summary      Product detail
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=domain.Product}
// @Failure      404  {object}  response.Response
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.catalogUC.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Product retrieved", product)
}

// Create godoc
// @Summary      Publish a product
// @Tags         provider
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body domain.ProductDraft true "Listing"
// @Success      201  {object}  response.Response{data=domain.Product}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /provider/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var draft domain.ProductDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.Error(bindError(err))
		return
	}

	product, err := h.catalogUC.Create(c.Request.Context(), middleware.PrincipalFrom(c), draft)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Product created", product)
}

// ListMine godoc
// @Summary      List my products
// @Tags         provider
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]domain.Product}
// @Router       /provider/products [get]
func (h *ProductHandler) ListMine(c *gin.Context) {
	products, err := h.catalogUC.ListByProvider(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Products retrieved", products)
}
