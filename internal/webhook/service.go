// Package webhook wires event publication and delivery together.
package webhook

import (
	"context"

	"github.com/subkit/subkit/internal/config"
	"github.com/subkit/subkit/internal/logger"
	pubsubRouter "github.com/subkit/subkit/internal/pubsub/router"
	"github.com/subkit/subkit/internal/webhook/handler"
	"github.com/subkit/subkit/internal/webhook/publisher"
)

// WebhookService orchestrates webhook publication and delivery
type WebhookService struct {
	config    *config.Configuration
	publisher publisher.WebhookPublisher
	handler   handler.Handler
	logger    *logger.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	cfg *config.Configuration,
	pub publisher.WebhookPublisher,
	h handler.Handler,
	log *logger.Logger,
) *WebhookService {
	return &WebhookService{
		config:    cfg,
		publisher: pub,
		handler:   h,
		logger:    log,
	}
}

// Start registers the delivery handler on the router
func (s *WebhookService) Start(ctx context.Context, router *pubsubRouter.Router) error {
	if !s.config.Webhook.Enabled {
		s.logger.Info("webhook service disabled")
		return nil
	}

	s.handler.RegisterHandler(router)
	s.logger.Info("webhook service started")
	return nil
}

// Stop closes the publisher
func (s *WebhookService) Stop() error {
	s.logger.Debug("stopping webhook service")
	return s.publisher.Close()
}
