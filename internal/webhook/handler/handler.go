// Package handler consumes webhook events off the message bus and delivers
// them to the configured endpoint.
package handler

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/subkit/subkit/internal/config"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/logger"
	"github.com/subkit/subkit/internal/pubsub"
	pubsubRouter "github.com/subkit/subkit/internal/pubsub/router"
	"github.com/subkit/subkit/internal/types"
)

// Handler processes webhook events
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

type handler struct {
	subscriber pubsub.Subscriber
	config     *config.Webhook
	client     *retryablehttp.Client
	logger     *logger.Logger
}

// NewHandler creates a delivery handler over the configured subscriber
func NewHandler(
	subscriber pubsub.Subscriber,
	cfg *config.Configuration,
	log *logger.Logger,
) Handler {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.Webhook.MaxRetries
	client.RetryWaitMin = cfg.Webhook.InitialInterval
	client.RetryWaitMax = cfg.Webhook.MaxInterval
	client.Logger = nil

	return &handler{
		subscriber: subscriber,
		config:     &cfg.Webhook,
		client:     client,
		logger:     log,
	}
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"webhook_delivery",
		h.config.Topic,
		h.subscriber,
		h.processMessage,
	)
}

func (h *handler) processMessage(msg *message.Message) error {
	var event types.WebhookEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal webhook event",
			"error", err,
			"message_id", msg.UUID)
		// drop malformed messages, retrying will not fix them
		return nil
	}

	h.logger.Debugw("delivering webhook event",
		"event_id", event.ID,
		"event_name", event.EventName)

	if h.config.EndpointURL == "" {
		// no consumer endpoint configured; events remain observable via logs
		return nil
	}

	if err := h.deliver(msg.Context(), msg.Payload); err != nil {
		h.logger.Errorw("failed to deliver webhook event",
			"error", err,
			"event_id", event.ID,
			"event_name", event.EventName)
		return err
	}

	return nil
}

func (h *handler) deliver(ctx context.Context, body []byte) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, "POST", h.config.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to build webhook delivery request").
			Mark(ierr.ErrHTTPClient)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Webhook delivery failed").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return ierr.NewErrorf("webhook endpoint returned status %d", resp.StatusCode).
			WithHint("Webhook endpoint rejected the event").
			Mark(ierr.ErrHTTPClient)
	}

	return nil
}
