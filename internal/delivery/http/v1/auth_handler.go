package v1

import (
	"net/http"

	"herbal-market-backend/internal/delivery/http/middleware"
	"herbal-market-backend/internal/delivery/http/response"
	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	identityUC domain.IdentityUsecase
}

type RegisterRequest struct {
	Role domain.Role `json:"role" binding:"omitempty,oneof=user planter" example:"planter"`
}

// NewAuthHandler registers identity routes. tokenOnly has a verified token
// but no principal yet; members have a resolved principal.
func NewAuthHandler(tokenOnly, members *gin.RouterGroup, identityUC domain.IdentityUsecase) {
	handler := &AuthHandler{identityUC: identityUC}

	tokenOnly.POST("/auth/register", handler.Register)
	members.GET("/auth/me", handler.Me)
	members.POST("/auth/onboarding/complete", handler.CompleteOnboarding)
}

// Register godoc
// @Summary      Register the authenticated subject
// @Description  Creates the principal for the token subject with a self-declared role. Repeat calls return the stored principal unchanged.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body RegisterRequest false "Declared role (user or planter)"
// @Success      201  {object}  response.Response{data=domain.Principal}
// @Failure      400  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(bindError(err))
			return
		}
	}

	p, err := h.identityUC.Register(c.Request.Context(),
		c.GetString(string(domain.KeyUserID)),
		c.GetString(string(domain.KeyUserEmail)),
		req.Role,
	)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Registered", p)
}

// Me godoc
// @Summary      Current principal
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=domain.Principal}
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		c.Error(apperror.Unauthorized("User not authenticated"))
		return
	}
	response.Success(c, http.StatusOK, "Principal retrieved", p)
}

// CompleteOnboarding godoc
// @Summary      Mark onboarding complete
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=domain.Principal}
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /auth/onboarding/complete [post]
func (h *AuthHandler) CompleteOnboarding(c *gin.Context) {
	p, err := h.identityUC.CompleteOnboarding(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Onboarding completed", p)
}
