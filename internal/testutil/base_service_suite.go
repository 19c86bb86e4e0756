package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/subkit/subkit/internal/cache"
	"github.com/subkit/subkit/internal/config"
	"github.com/subkit/subkit/internal/domain/catalog"
	"github.com/subkit/subkit/internal/domain/customer"
	"github.com/subkit/subkit/internal/domain/invoice"
	"github.com/subkit/subkit/internal/domain/oplog"
	"github.com/subkit/subkit/internal/domain/source"
	"github.com/subkit/subkit/internal/domain/subscription"
	"github.com/subkit/subkit/internal/logger"
	"github.com/subkit/subkit/internal/repository"
	"github.com/subkit/subkit/internal/types"
	"github.com/subkit/subkit/internal/validator"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	SubscriptionRepo subscription.Repository
	CatalogRepo      catalog.Repository
	CustomerRepo     customer.Repository
	SourceRepo       source.Repository
	InvoiceRepo      invoice.Repository
	OplogRepo        oplog.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx              context.Context
	stores           Stores
	gateway          *FakeGateway
	webhookPublisher *CapturingWebhookPublisher
	logger           *logger.Logger
	config           *config.Configuration
	now              time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = context.WithValue(context.Background(), types.CtxUserID, "user_test")
	s.now = time.Now().UTC()

	s.stores = Stores{
		SubscriptionRepo: repository.NewSubscriptionRepository(s.logger, cache.NewInMemoryCache()),
		CatalogRepo:      repository.NewCatalogRepository(s.logger),
		CustomerRepo:     repository.NewCustomerRepository(s.logger),
		SourceRepo:       repository.NewSourceRepository(s.logger),
		InvoiceRepo:      repository.NewInvoiceRepository(s.logger),
		OplogRepo:        repository.NewOplogRepository(s.logger),
	}
	s.gateway = NewFakeGateway()
	s.webhookPublisher = NewCapturingWebhookPublisher()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetStores returns the test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetGateway returns the scriptable payment gateway
func (s *BaseServiceTestSuite) GetGateway() *FakeGateway {
	return s.gateway
}

// GetWebhookPublisher returns the capturing webhook publisher
func (s *BaseServiceTestSuite) GetWebhookPublisher() *CapturingWebhookPublisher {
	return s.webhookPublisher
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetNow returns the time at test setup
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
