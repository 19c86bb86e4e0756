package service

import (
	"context"
	"time"

	"github.com/subkit/subkit/internal/api/dto"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/types"
	"github.com/subkit/subkit/internal/webhook/payload"
)

// RenewalService drives the daily renewal batch. Instances are processed
// strictly in sequence and failures are isolated per instance so one bad
// renewal never aborts the run.
type RenewalService interface {
	ProcessBatch(ctx context.Context, date time.Time, onlyDueToRenew bool) (*dto.ProcessRenewalsResponse, error)
}

type renewalService struct {
	ServiceParams
	subscriptionService SubscriptionService
}

// NewRenewalService creates the renewal batch runner
func NewRenewalService(params ServiceParams, subs SubscriptionService) RenewalService {
	return &renewalService{
		ServiceParams:       params,
		subscriptionService: subs,
	}
}

func (s *renewalService) ProcessBatch(ctx context.Context, date time.Time, onlyDueToRenew bool) (*dto.ProcessRenewalsResponse, error) {
	s.Logger.Infow("processing renewals",
		"date", date.Format("2006-01-02"),
		"only_due_to_renew", onlyDueToRenew)

	instances, err := s.subscriptionService.GetRenewals(ctx, date, onlyDueToRenew)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProcessRenewalsResponse{
		Date:    date.Format("2006-01-02"),
		Results: make([]dto.RenewalResult, 0, len(instances)),
	}

	for _, inst := range instances {
		resp.Processed++
		result := dto.RenewalResult{InstanceID: inst.ID}

		newInst, err := s.subscriptionService.Renew(ctx, inst.ID, false)
		switch {
		case err == nil:
			resp.Renewed++
			result.Outcome = "renewed"
			result.NewInstanceID = newInst.ID

		case ierr.IsRenewalOutcome(err):
			// expected outcomes; the engine has already logged them and
			// emitted the matching domain event
			resp.Failed++
			result.Outcome = "skipped"
			if ierr.IsFailedToRenew(err) {
				result.Outcome = "failed"
			}
			result.Error = err.Error()

		default:
			resp.Uncaught++
			result.Outcome = "error"
			result.Error = err.Error()

			s.Logger.Errorw("unexpected error renewing instance",
				"error", err,
				"instance_id", inst.ID)
			s.Sentry.CaptureException(err)
			s.publishUncaught(ctx, inst.ID, err)
		}

		resp.Results = append(resp.Results, result)
	}

	s.Logger.Infow("renewal batch finished",
		"date", resp.Date,
		"processed", resp.Processed,
		"renewed", resp.Renewed,
		"failed", resp.Failed,
		"uncaught", resp.Uncaught)

	return resp, nil
}

func (s *renewalService) publishUncaught(ctx context.Context, instanceID string, cause error) {
	inst, err := s.SubRepo.GetBypassCache(ctx, instanceID)
	if err != nil {
		s.Logger.Errorw("failed to load instance for uncaught renewal event",
			"error", err,
			"instance_id", instanceID)
		return
	}

	event, err := payload.NewWebhookEvent(ctx, types.WebhookEventRenewalUncaughtException, &payload.RenewalPayload{
		Old:   inst,
		Error: cause.Error(),
	})
	if err != nil {
		s.Logger.Errorw("failed to build uncaught renewal event", "error", err)
		return
	}

	if err := s.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		s.Logger.Errorw("failed to publish uncaught renewal event", "error", err)
	}
}
