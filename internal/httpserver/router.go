package httpserver

import (
	"context"
	"io"
	"log"
	"time"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/service/inventory"
	"storefront-checkout/internal/service/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductLookup resolves a live product snapshot by id.
type ProductLookup interface {
	Get(ctx context.Context, id string) (domain.Product, error)
}

// Deps are the services behind the routes.
type Deps struct {
	Sessions    *session.Service
	Products    ProductLookup
	Inventory   *inventory.Validator
	CORSOrigins []string
	// ReadyChecks run on /readyz after the database check.
	ReadyChecks map[string]func(context.Context) error
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", sessionHeader},
			ExposeHeaders:    []string{sessionHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db, deps.ReadyChecks))

	h := &handlers{deps: deps, logger: logger}

	router.POST("/sessions", h.openSession)
	authed := router.Group("/", sessionMiddleware(deps.Sessions))
	authed.POST("/sessions/login", h.login)
	authed.POST("/sessions/logout", h.logout)

	cart := authed.Group("/cart")
	cart.GET("", h.getCart)
	cart.DELETE("", h.clearCart)
	cart.POST("/items", h.addItem)
	cart.PUT("/items/:productId", h.setItemQuantity)
	cart.DELETE("/items/:productId", h.removeItem)
	cart.POST("/refresh", h.refreshCart)
	cart.POST("/selection/:productId", h.selectItem)
	cart.DELETE("/selection/:productId", h.unselectItem)
	cart.POST("/selection", h.selectAll)
	cart.DELETE("/selection", h.unselectAll)
	cart.POST("/validate", h.validateCart)

	checkout := authed.Group("/checkout")
	checkout.POST("", h.beginCheckout)
	checkout.GET("", h.getCheckout)
	checkout.PUT("/delivery", h.submitDelivery)
	checkout.POST("/rush", h.setRush)
	checkout.POST("/payment", h.selectPayment)
	checkout.GET("/summary", h.summary)
	checkout.POST("/back", h.back)
	checkout.POST("/confirm", h.confirm)

	return router
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}
