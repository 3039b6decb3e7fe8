package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spsports/sps-backend/config"
	"github.com/spsports/sps-backend/internal/app/controller"
	"github.com/spsports/sps-backend/internal/app/model"
	"github.com/spsports/sps-backend/internal/middleware"
)

type Router struct {
	authController    *controller.AuthController
	productController *controller.ProductController
	orderController   *controller.OrderController
	uploadController  *controller.UploadController
	authMiddleware    *middleware.AuthMiddleware
	rateLimiter       *middleware.RateLimiter
	config            *config.Config
}

// NewRouter wires the HTTP surface. rateLimiter may be nil to disable
// throttling of the credential endpoints.
func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	orderController *controller.OrderController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:    authController,
		productController: productController,
		orderController:   orderController,
		uploadController:  uploadController,
		authMiddleware:    authMiddleware,
		rateLimiter:       rateLimiter,
		config:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "SPS API is running",
		})
	})

	authenticated := r.authMiddleware.Authenticate()
	manageCatalog := r.authMiddleware.RequireCapability(model.CapManageCatalog)
	manageOrders := r.authMiddleware.RequireCapability(model.CapManageOrders)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			credentials := auth.Group("")
			if r.rateLimiter != nil {
				credentials.Use(r.rateLimiter.Middleware())
			}
			credentials.POST("/register", r.authController.Register)
			credentials.POST("/login", r.authController.Login)

			auth.POST("/logout", authenticated, r.authController.Logout)
			auth.GET("/me", authenticated, r.authController.Me)
		}

		products := api.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/categories", r.productController.ListCategories)
			products.GET("/sizes", r.productController.GetSizeChart)
			products.GET("/sizes/:category", r.productController.GetSizes)
			products.GET("/:id", r.productController.GetProduct)

			products.POST("/AddProduct", authenticated, manageCatalog, r.productController.CreateProduct)
			products.PATCH("/update/:id", authenticated, manageCatalog, r.productController.UpdateProduct)
			products.DELETE("/delete/:id", authenticated, manageCatalog, r.productController.DeleteProduct)
		}

		orders := api.Group("/orders")
		{
			orders.POST("/placeorder", r.orderController.PlaceOrder)
			orders.GET("/track/:orderNumber", r.orderController.TrackOrder)
			orders.GET("/track/:orderNumber/ws", r.orderController.WatchOrder)

			admin := orders.Group("", authenticated, manageOrders)
			{
				admin.GET("/viewOrders", r.orderController.ListOrders)
				admin.GET("/export", r.orderController.ExportOrders)
				admin.GET("/:id", r.orderController.GetOrder)
				admin.PATCH("/:id/tracking", r.orderController.UpdateTracking)
				admin.PATCH("/:id/paid", r.orderController.MarkPaid)
			}
		}

		upload := api.Group("/upload")
		upload.Use(authenticated, manageCatalog)
		{
			upload.POST("/presigned-url", r.uploadController.GeneratePresignedURL)
		}
	}

	return router
}

// corsMiddleware allows credentialed requests from the configured origins.
// A "*" entry reflects any origin since browsers reject a literal wildcard
// alongside credentials.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	wildcard := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[origin] = true
	}

	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return wildcard || allowed[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With", "X-Request-ID", "Cache-Control"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
