package cron

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/subkit/subkit/internal/api/dto"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/logger"
	"github.com/subkit/subkit/internal/service"
)

// RenewalHandler exposes the daily renewal batch to the scheduler
type RenewalHandler struct {
	renewalService      service.RenewalService
	subscriptionService service.SubscriptionService
	log                 *logger.Logger
}

func NewRenewalHandler(
	renewalService service.RenewalService,
	subscriptionService service.SubscriptionService,
	log *logger.Logger,
) *RenewalHandler {
	return &RenewalHandler{
		renewalService:      renewalService,
		subscriptionService: subscriptionService,
		log:                 log,
	}
}

// ListRenewals reports which instances a batch run for a date would touch,
// without renewing anything
func (h *RenewalHandler) ListRenewals(c *gin.Context) {
	ctx := c.Request.Context()

	date, err := parseDate(c.Query("date"))
	if err != nil {
		c.Error(err)
		return
	}

	onlyDue := c.Query("only_due_to_renew") != "false"
	instances, err := h.subscriptionService.GetRenewals(ctx, date, onlyDue)
	if err != nil {
		h.log.Error("Failed to list renewals", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  date.Format("2006-01-02"),
		"items": instances,
		"total": len(instances),
	})
}

// ProcessRenewals runs the renewal batch for a date
func (h *RenewalHandler) ProcessRenewals(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ProcessRenewalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	date := time.Now().UTC()
	if req.Date != nil {
		date = req.Date.UTC()
	}

	resp, err := h.renewalService.ProcessBatch(ctx, date, req.OnlyDueToRenew)
	if err != nil {
		h.log.Error("Failed to process renewals", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHint("Invalid date, expected YYYY-MM-DD").
			Mark(ierr.ErrValidation)
	}
	return date, nil
}
