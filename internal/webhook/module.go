package webhook

import (
	"go.uber.org/fx"

	"github.com/subkit/subkit/internal/webhook/handler"
	"github.com/subkit/subkit/internal/webhook/publisher"
)

// Module provides the webhook components
var Module = fx.Options(
	fx.Provide(
		publisher.NewPublisher,
		handler.NewHandler,
		NewWebhookService,
	),
)
