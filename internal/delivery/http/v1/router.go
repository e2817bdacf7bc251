package v1

import (
	"herbal-market-backend/config"
	"herbal-market-backend/internal/access"
	"herbal-market-backend/internal/delivery/http/middleware"
	"herbal-market-backend/internal/domain"
	"herbal-market-backend/internal/usecase"
	"herbal-market-backend/pkg/auth"
	"herbal-market-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	IdentityUC domain.IdentityUsecase
	CatalogUC  domain.CatalogUsecase
	OrderUC    domain.OrderUsecase
	ExportUC   domain.OrderExportUsecase
	ChannelUC  domain.ChannelUsecase
	MessageUC  domain.MessageUsecase
	HealthUC   usecase.HealthUsecase
	Verifier   auth.TokenVerifier
	Config     *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.RegisterValidators(v)
	}

	cfg := deps.Config
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.FrontendURL, cfg.IsProduction())) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))
	r.Use(middleware.RateLimitMiddleware(middleware.GlobalRateLimitConfig(cfg.RateLimitGlobalThreshold, cfg.RateLimitWindow())))
	r.Use(middleware.CSRFMiddleware(cfg.IsProduction()))
	r.Use(middleware.ErrorHandler())

	v1 := r.Group("/v1")

	NewHealthHandler(v1, deps.HealthUC)

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Verified token, principal not required (registration)
	tokenOnly := v1.Group("")
	tokenOnly.Use(middleware.Authenticate(deps.Verifier))

	// Resolved principal
	authenticated := v1.Group("")
	authenticated.Use(middleware.Authenticate(deps.Verifier), middleware.ResolvePrincipal(deps.IdentityUC))

	members := authenticated.Group("")
	members.Use(middleware.RequireRoles(access.Members...))

	providers := authenticated.Group("/provider")
	providers.Use(middleware.RequireRoles(access.Providers...))

	admins := authenticated.Group("/admin")
	admins.Use(middleware.RequireRoles(access.Admins...))

	payments := v1.Group("/payments")
	payments.Use(
		middleware.PaymentSignature(cfg.PaymentWebhookSecret, deps.Verifier, deps.IdentityUC),
		middleware.RequireRoles(access.Payments...),
	)

	sendLimit := middleware.RateLimitMiddleware(middleware.MessageRateLimitConfig(cfg.RateLimitMessageThreshold, cfg.RateLimitWindow()))

	NewAuthHandler(tokenOnly, authenticated, deps.IdentityUC)
	NewProductHandler(v1, providers, deps.CatalogUC)
	NewOrderHandler(members, providers, deps.OrderUC, deps.ExportUC)
	NewPaymentHandler(payments, deps.OrderUC)
	NewAdminHandler(admins, deps.OrderUC)
	NewChannelHandler(members, deps.ChannelUC, deps.MessageUC, sendLimit)
	NewStreamHandler(members, deps.MessageUC)

	return r
}
