package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/subkit/subkit/internal/api/dto"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/logger"
	"github.com/subkit/subkit/internal/service"
)

type SubscriptionHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

func NewSubscriptionHandler(service service.SubscriptionService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, log: log}
}

func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	result, err := h.service.Create(ctx, req)
	if err != nil {
		h.log.Error("Failed to create subscription", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateSubscriptionResponse{
		Instance:    result.Instance,
		ChargeState: result.Charge.State,
		RedirectURL: result.Charge.RedirectURL,
	})
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	ctx := c.Request.Context()
	inst, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		h.log.Error("Failed to get subscription", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.SubscriptionResponse{Instance: inst})
}

func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	inst, err := h.service.Cancel(ctx, c.Param("id"), req.Reason)
	if err != nil {
		h.log.Error("Failed to cancel subscription", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.SubscriptionResponse{Instance: inst})
}

func (h *SubscriptionHandler) RestoreSubscription(c *gin.Context) {
	ctx := c.Request.Context()
	inst, err := h.service.Restore(ctx, c.Param("id"))
	if err != nil {
		h.log.Error("Failed to restore subscription", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.SubscriptionResponse{Instance: inst})
}

func (h *SubscriptionHandler) TerminateSubscription(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.TerminateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	inst, err := h.service.Terminate(ctx, c.Param("id"), req.Reason)
	if err != nil {
		h.log.Error("Failed to terminate subscription", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.SubscriptionResponse{Instance: inst})
}

func (h *SubscriptionHandler) SwapSubscription(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.SwapSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	inst, err := h.service.Swap(ctx, c.Param("id"), req.PackageID, req.Immediately)
	if err != nil {
		h.log.Error("Failed to swap subscription", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.SubscriptionResponse{Instance: inst})
}

func (h *SubscriptionHandler) SetAutoRenew(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.SetAutoRenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	inst, err := h.service.SetAutoRenew(ctx, c.Param("id"), *req.AutomaticRenew)
	if err != nil {
		h.log.Error("Failed to set auto renew", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.SubscriptionResponse{Instance: inst})
}

// ConfirmRenewal is the synchronous confirmation path, used when the host
// application prefers a callback over the invoice paid message stream
func (h *SubscriptionHandler) ConfirmRenewal(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.service.ConfirmRenewal(ctx, c.Param("id")); err != nil {
		h.log.Error("Failed to confirm renewal", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Renewal confirmed successfully"})
}

// GetCurrentSubscription returns the instance covering a customer at a
// given instant, defaulting to now
func (h *SubscriptionHandler) GetCurrentSubscription(c *gin.Context) {
	ctx := c.Request.Context()

	when, err := parseWhen(c.Query("at"))
	if err != nil {
		c.Error(err)
		return
	}

	inst, err := h.service.GetCurrent(ctx, c.Param("id"), when)
	if err != nil {
		h.log.Error("Failed to get current subscription", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.SubscriptionResponse{Instance: inst})
}

func (h *SubscriptionHandler) IsSubscribed(c *gin.Context) {
	ctx := c.Request.Context()

	when, err := parseWhen(c.Query("at"))
	if err != nil {
		c.Error(err)
		return
	}

	subscribed, err := h.service.IsSubscribed(ctx, c.Param("id"), when)
	if err != nil {
		h.log.Error("Failed to check subscription state", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.IsSubscribedResponse{Subscribed: subscribed})
}

func parseWhen(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	when, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid timestamp, expected RFC3339").
			Mark(ierr.ErrValidation)
	}
	return &when, nil
}
