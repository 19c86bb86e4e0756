package service

import (
	"github.com/subkit/subkit/internal/config"
	"github.com/subkit/subkit/internal/domain/catalog"
	"github.com/subkit/subkit/internal/domain/customer"
	"github.com/subkit/subkit/internal/domain/invoice"
	"github.com/subkit/subkit/internal/domain/oplog"
	"github.com/subkit/subkit/internal/domain/source"
	"github.com/subkit/subkit/internal/domain/subscription"
	"github.com/subkit/subkit/internal/logger"
	"github.com/subkit/subkit/internal/sentry"
	webhookPublisher "github.com/subkit/subkit/internal/webhook/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Sentry *sentry.Service

	// Repositories
	SubRepo      subscription.Repository
	CatalogRepo  catalog.Repository
	CustomerRepo customer.Repository
	SourceRepo   source.Repository
	InvoiceRepo  invoice.Repository
	OplogRepo    oplog.Repository

	// Collaborators
	InvoiceBridge    invoice.Bridge
	WebhookPublisher webhookPublisher.WebhookPublisher
}

// NewServiceParams assembles the common service dependencies
func NewServiceParams(
	logger *logger.Logger,
	cfg *config.Configuration,
	sentryService *sentry.Service,
	subRepo subscription.Repository,
	catalogRepo catalog.Repository,
	customerRepo customer.Repository,
	sourceRepo source.Repository,
	invoiceRepo invoice.Repository,
	oplogRepo oplog.Repository,
	invoiceBridge invoice.Bridge,
	webhookPub webhookPublisher.WebhookPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           cfg,
		Sentry:           sentryService,
		SubRepo:          subRepo,
		CatalogRepo:      catalogRepo,
		CustomerRepo:     customerRepo,
		SourceRepo:       sourceRepo,
		InvoiceRepo:      invoiceRepo,
		OplogRepo:        oplogRepo,
		InvoiceBridge:    invoiceBridge,
		WebhookPublisher: webhookPub,
	}
}
