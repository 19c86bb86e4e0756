package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/subkit/subkit/internal/api"
	"github.com/subkit/subkit/internal/api/cron"
	v1 "github.com/subkit/subkit/internal/api/v1"
	"github.com/subkit/subkit/internal/cache"
	"github.com/subkit/subkit/internal/config"
	"github.com/subkit/subkit/internal/invoicing"
	"github.com/subkit/subkit/internal/logger"
	"github.com/subkit/subkit/internal/pubsub"
	"github.com/subkit/subkit/internal/pubsub/memory"
	pubsubRouter "github.com/subkit/subkit/internal/pubsub/router"
	"github.com/subkit/subkit/internal/repository"
	"github.com/subkit/subkit/internal/sentry"
	"github.com/subkit/subkit/internal/service"
	"github.com/subkit/subkit/internal/types"
	"github.com/subkit/subkit/internal/validator"
	"github.com/subkit/subkit/internal/webhook"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Cache
			provideCache,

			// PubSub
			memory.NewPubSub,
			providePublisher,
			provideSubscriber,
			pubsubRouter.NewRouter,

			// Invoicing
			invoicing.NewOfflineGateway,
			invoicing.NewBridge,

			// Repositories
			repository.NewCatalogRepository,
			repository.NewCustomerRepository,
			repository.NewSourceRepository,
			repository.NewInvoiceRepository,
			repository.NewOplogRepository,
			repository.NewSubscriptionRepository,
		),
	)

	// Webhook module (must be initialised before services)
	opts = append(opts, webhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewCatalogService,
			service.NewCustomerService,
			service.NewSubscriptionService,
			service.NewRenewalService,
			service.NewInvoiceListener,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideCache(logger *logger.Logger) cache.Cache {
	return cache.NewInMemoryCache()
}

func providePublisher(pubSub pubsub.PubSub) pubsub.Publisher {
	return pubSub
}

func provideSubscriber(pubSub pubsub.PubSub) pubsub.Subscriber {
	return pubSub
}

func provideHandlers(
	logger *logger.Logger,
	catalogService service.CatalogService,
	customerService service.CustomerService,
	subscriptionService service.SubscriptionService,
	renewalService service.RenewalService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Package:      v1.NewPackageHandler(catalogService, logger),
		Customer:     v1.NewCustomerHandler(customerService, logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, logger),
		CronRenewal:  cron.NewRenewalHandler(renewalService, subscriptionService, logger),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	webhookService *webhook.WebhookService,
	invoiceListener *service.InvoiceListener,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, webhookService, invoiceListener, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeConsumer:
		startMessageRouter(lc, router, webhookService, invoiceListener, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	webhookService *webhook.WebhookService,
	invoiceListener *service.InvoiceListener,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := webhookService.Start(ctx, router); err != nil {
				return err
			}
			invoiceListener.RegisterHandler(router)

			go func() {
				if err := router.Run(); err != nil {
					log.Errorw("message router stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping message router...")
			if err := webhookService.Stop(); err != nil {
				log.Errorw("failed to stop webhook service", "error", err)
			}
			return router.Close()
		},
	})
}
