package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ledgerforge/gl_ledger_app/cmd/docs"
	"github.com/ledgerforge/gl_ledger_app/internal/core/services"
	"github.com/ledgerforge/gl_ledger_app/internal/middleware"
	"github.com/ledgerforge/gl_ledger_app/pkg/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *services.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Setup API v1 routes with auth middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	service *services.ServiceContainer,
) {
	// API tokens authenticate machine callers first; requests without a valid
	// x-api-key fall through to JWT bearer auth.
	v1 := r.Group("/api/v1",
		middleware.APITokenAuth(service.APIToken),
		middleware.AuthMiddleware(cfg.JWTSecret),
	)

	registerCurrencyRoutes(v1, service.Currency)
	registerExchangeRateRoutes(v1, service.ExchangeRate)
	registerAPITokenRoutes(v1, service.APIToken)
	registerOrganizationRoutes(v1, service)
}

// registerOrganizationRoutes wires the organization-scoped ledger resources.
func registerOrganizationRoutes(rg *gin.RouterGroup, service *services.ServiceContainer) {
	org := rg.Group("/organizations/:organization_id")

	registerAccountRoutes(org, service.Chart, service.Ledger, service.Reconciliation)
	registerTransactionRoutes(org, service.Ledger)
	registerReconciliationRoutes(org, service.Reconciliation)
	registerFinAccountRoutes(org, service.FinAccount)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
