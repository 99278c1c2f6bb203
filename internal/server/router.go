package server

import (
	"context"
	"net/http"
	"time"

	model "property-bidding/internal/models"
	handler "property-bidding/services/bidding/handler"
	"property-bidding/services/bidding/helpers"
	"property-bidding/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

// Dependencies are the services the HTTP surface is built on
type Dependencies struct {
	Bidding  handler.BiddingServiceInterface
	Accounts handler.AccountServiceInterface
	Catalog  handler.CatalogServiceInterface
	Events   handler.EventSubscriber
	Auth     Authenticator
	Sessions handler.SessionRevoker

	// RequestTimeout bounds every API request except the event stream
	RequestTimeout time.Duration
	// Heartbeat is the keepalive interval of the event stream; zero disables it
	Heartbeat time.Duration
	// HealthCheck reports backing store health; nil means always healthy
	HealthCheck func(ctx context.Context) error
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps Dependencies) *gin.Engine {
	helpers.RegisterValidators()

	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	accountHandler := handler.NewAccountHandler(deps.Accounts, deps.Sessions)
	productHandler := handler.NewProductHandler(deps.Catalog)
	biddingHandler := handler.NewBiddingHandler(deps.Bidding)
	eventsHandler := handler.NewEventsHandler(deps.Catalog, deps.Events, deps.Heartbeat)

	requireAuth := AuthMiddleware(deps.Auth)

	router.GET("/health", healthHandler(deps.HealthCheck))

	// the event stream lives outside the request timeout
	router.GET("/products/:id/events", eventsHandler.StreamBidsHandler)

	api := router.Group("", RequestTimeout(deps.RequestTimeout))

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", accountHandler.RegisterHandler)
		authGroup.POST("/login", accountHandler.LoginHandler)
		authGroup.POST("/logout", requireAuth, accountHandler.LogoutHandler)
		authGroup.GET("/me", requireAuth, accountHandler.MeHandler)
	}

	products := api.Group("/products")
	{
		products.GET("", productHandler.ListProductsHandler)
		products.POST("", requireAuth, RequireRole(model.RoleAdmin), productHandler.CreateProductHandler)
		products.GET("/:id", productHandler.GetProductHandler)
		products.POST("/:id/bids", requireAuth, biddingHandler.PlaceBidHandler)
		products.GET("/:id/bids", biddingHandler.GetBidsByProductHandler)
		products.GET("/:id/winning", biddingHandler.GetWinningBidHandler)
	}

	api.GET("/featured", productHandler.FeaturedProductHandler)

	users := api.Group("/users")
	{
		users.GET("/:id/products", requireAuth, biddingHandler.GetProductsByBidderHandler)
	}

	return router
}

// WithCORS wraps the router so browsers on allowedOrigins can call the API
func WithCORS(h http.Handler, allowedOrigins []string) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400,
	})(h)
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				utils.Error("health check failed", map[string]any{"error": err.Error()})
				utils.JSONResponse(c, http.StatusServiceUnavailable, gin.H{"status": "unhealthy"}, "service unavailable")
				return
			}
		}
		utils.JSONResponse(c, http.StatusOK, gin.H{"status": "healthy"}, "service healthy")
	}
}
