package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/qrdine/controllers"
	"github.com/yeremiapane/qrdine/middlewares"
	"github.com/yeremiapane/qrdine/services"
	"github.com/yeremiapane/qrdine/session"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, monitor *session.Monitor) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	// Services are built once and handed to the controllers explicitly, so
	// identity resolution stays testable without ambient singletons.
	catalog := services.NewCatalogService(db)
	selfService := services.NewSelfServiceService()
	resolver := session.NewResolver(selfService)
	carts := services.NewCartService(db)

	entryCtrl := controllers.NewEntryController(resolver, catalog, monitor)
	sessionCtrl := controllers.NewSessionController(resolver, monitor)
	cartCtrl := controllers.NewCartController(carts, resolver, catalog)
	featureCtrl := controllers.NewFeatureController(catalog)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      QR ENTRY POINT
	// ----------------------------------------------------------------
	// Scans hit / with ?code and optional ?table; both are relocated out
	// of the URL before the tenant page loads.
	entry := r.Group("/")
	entry.Use(middlewares.NewScanRateLimiter())
	{
		entry.GET("/", entryCtrl.HandleEntry)
	}

	// ----------------------------------------------------------------
	//                      TENANT SURFACE
	// ----------------------------------------------------------------
	tenant := r.Group("/:code")
	{
		tenant.GET("", entryCtrl.ShowTenant)
		tenant.GET("/self-service", entryCtrl.ShowTenant)

		tenant.GET("/session", sessionCtrl.GetSession)
		tenant.DELETE("/session", sessionCtrl.ResetSession)

		tenant.GET("/features", featureCtrl.GetFeatures)
		tenant.GET("/happy-hour", featureCtrl.GetHappyHour)

		tenant.GET("/cart", cartCtrl.GetCart)
		tenant.POST("/cart/items", cartCtrl.AddItem)
		tenant.DELETE("/cart", cartCtrl.ClearCart)

		tenant.GET("/events", controllers.EventsHandler)
	}

	return r
}
