package api

import (
	"github.com/gin-gonic/gin"

	"github.com/subkit/subkit/internal/api/cron"
	v1 "github.com/subkit/subkit/internal/api/v1"
	"github.com/subkit/subkit/internal/rest/middleware"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Package      *v1.PackageHandler
	Customer     *v1.CustomerHandler
	Subscription *v1.SubscriptionHandler
	CronRenewal  *cron.RenewalHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CORSMiddleware,
		middleware.RequestIDMiddleware,
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	cronGroup := router.Group("/cron")
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	packages := router.Group("/packages")
	{
		packages.POST("", handlers.Package.CreatePackage)
		packages.GET("", handlers.Package.ListPackages)
		packages.GET("/:id", handlers.Package.GetPackage)
		packages.POST("/:id/deactivate", handlers.Package.DeactivatePackage)
	}

	customers := router.Group("/customers")
	{
		customers.POST("", handlers.Customer.CreateCustomer)
		customers.GET("/:id", handlers.Customer.GetCustomer)
		customers.GET("/external/:external_id", handlers.Customer.GetCustomerByExternalID)
		customers.POST("/:id/sources", handlers.Customer.CreateSource)
		customers.GET("/:id/sources", handlers.Customer.ListSources)
		customers.GET("/:id/subscription", handlers.Subscription.GetCurrentSubscription)
		customers.GET("/:id/subscribed", handlers.Subscription.IsSubscribed)
	}

	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.POST("/:id/cancel", handlers.Subscription.CancelSubscription)
		subscriptions.POST("/:id/restore", handlers.Subscription.RestoreSubscription)
		subscriptions.POST("/:id/terminate", handlers.Subscription.TerminateSubscription)
		subscriptions.POST("/:id/swap", handlers.Subscription.SwapSubscription)
		subscriptions.POST("/:id/auto-renew", handlers.Subscription.SetAutoRenew)
		subscriptions.POST("/:id/confirm-renewal", handlers.Subscription.ConfirmRenewal)
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	renewals := router.Group("/renewals")
	{
		renewals.GET("", handlers.CronRenewal.ListRenewals)
		renewals.POST("/process", handlers.CronRenewal.ProcessRenewals)
	}
}
