package router

import (
	"github.com/granary/backend/internal/domain/identity"
	"github.com/granary/backend/internal/infrastructure/auth"
	"github.com/granary/backend/internal/infrastructure/logger"
	"github.com/granary/backend/internal/interfaces/http/handler"
	"github.com/granary/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles everything the router wires up
type Handlers struct {
	System  *handler.SystemHandler
	Auth    *handler.AuthHandler
	Storage *handler.StorageHandler
	Inflow  *handler.InflowHandler
	Billing *handler.BillingHandler
}

// Setup builds the gin engine with all middleware and routes registered.
// Everything under /api/v1 except login requires a valid token; write
// operations additionally require an operating role.
func Setup(handlers Handlers, jwtService *auth.JWTService, log *zap.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)

	engine.GET("/health", handlers.System.Health)
	engine.GET("/ready", handlers.System.Ready)

	api := engine.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", handlers.Auth.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.JWTAuth(jwtService))

	protected.GET("/auth/me", handlers.Auth.Me)
	protected.POST("/auth/register",
		middleware.RequireRole(identity.RoleAdmin),
		handlers.Auth.Register)

	operators := middleware.RequireRole(
		identity.RoleAdmin, identity.RoleManager, identity.RoleAssistant)

	locations := protected.Group("/locations")
	{
		locations.GET("", handlers.Storage.ListLocations)
		locations.GET("/:id", handlers.Storage.GetLocation)
		locations.GET("/:id/areas", handlers.Storage.ListAreasByLocation)
		locations.POST("", operators, handlers.Storage.CreateLocation)
		locations.PUT("/:id", operators, handlers.Storage.UpdateLocation)
		locations.DELETE("/:id", operators, handlers.Storage.DeleteLocation)
	}

	areas := protected.Group("/areas")
	{
		areas.GET("/:id", handlers.Storage.GetArea)
		areas.POST("", operators, handlers.Storage.CreateArea)
		areas.PUT("/:id", operators, handlers.Storage.ResizeArea)
		areas.DELETE("/:id", operators, handlers.Storage.DeleteArea)
	}

	cropTypes := protected.Group("/crop-types")
	{
		cropTypes.GET("", handlers.Storage.ListCropTypes)
		cropTypes.GET("/:id", handlers.Storage.GetCropType)
		cropTypes.POST("", operators, handlers.Storage.CreateCropType)
		cropTypes.PUT("/:id", operators, handlers.Storage.UpdateCropType)
		cropTypes.DELETE("/:id", operators, handlers.Storage.DeleteCropType)
	}

	inflows := protected.Group("/inflows")
	{
		inflows.GET("", handlers.Inflow.ListInflows)
		inflows.GET("/:id", handlers.Inflow.GetInflow)
		inflows.POST("", operators, handlers.Inflow.RecordInflow)
	}

	outflows := protected.Group("/outflows")
	{
		outflows.GET("", handlers.Billing.ListOutflows)
		outflows.GET("/:id", handlers.Billing.GetOutflow)
		outflows.POST("/preview", handlers.Billing.PreviewBill)
		outflows.POST("", operators, handlers.Billing.Settle)
		outflows.POST("/:id/payments", operators, handlers.Billing.PayBill)
	}

	protected.POST("/payments", operators, handlers.Billing.RecordBulkPayment)

	customers := protected.Group("/customers")
	{
		customers.GET("/:id/stock", handlers.Inflow.ListCustomerStock)
		customers.GET("/:id/outstanding", handlers.Billing.ListOutstanding)
		customers.GET("/:id/payments", handlers.Billing.ListCustomerPayments)
	}

	return engine
}
