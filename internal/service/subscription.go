package service

import (
	"context"
	"time"

	"github.com/subkit/subkit/internal/api/dto"
	"github.com/subkit/subkit/internal/domain/catalog"
	"github.com/subkit/subkit/internal/domain/customer"
	"github.com/subkit/subkit/internal/domain/invoice"
	"github.com/subkit/subkit/internal/domain/source"
	"github.com/subkit/subkit/internal/domain/subscription"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/types"
	"github.com/subkit/subkit/internal/webhook/payload"
)

// SubscriptionService owns the subscription lifecycle: creation, renewal,
// cancellation, restoration, termination and package swaps. Instances are
// only ever mutated through it.
type SubscriptionService interface {
	Create(ctx context.Context, req dto.CreateSubscriptionRequest) (*CreateResult, error)
	Renew(ctx context.Context, instanceID string, customerPresent bool) (*subscription.Instance, error)
	ConfirmRenewal(ctx context.Context, instanceID string) error

	Cancel(ctx context.Context, instanceID, reason string) (*subscription.Instance, error)
	Restore(ctx context.Context, instanceID string) (*subscription.Instance, error)
	Terminate(ctx context.Context, instanceID, reason string) (*subscription.Instance, error)
	Swap(ctx context.Context, instanceID, newPackageID string, immediately bool) (*subscription.Instance, error)
	SetAutoRenew(ctx context.Context, instanceID string, autoRenew bool) (*subscription.Instance, error)

	Get(ctx context.Context, instanceID string) (*subscription.Instance, error)
	GetCurrent(ctx context.Context, customerID string, when *time.Time) (*subscription.Instance, error)
	IsSubscribed(ctx context.Context, customerID string, when *time.Time) (bool, error)
	GetRenewals(ctx context.Context, when time.Time, onlyDueToRenew bool) ([]*subscription.Instance, error)
}

// CreateResult carries the created instance together with the outcome of
// the initial charge attempt. Charge.State is empty when no charge was
// attempted, i.e. the invoice was not due or was zero value.
type CreateResult struct {
	Instance *subscription.Instance
	Charge   invoice.ChargeOutcome
}

type subscriptionService struct {
	ServiceParams
}

// NewSubscriptionService creates the lifecycle engine
func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{ServiceParams: params}
}

func (s *subscriptionService) Create(ctx context.Context, req dto.CreateSubscriptionRequest) (*CreateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	logGroup := types.GenerateLogGroup()
	ctx = types.WithLogGroup(ctx, logGroup)
	olog := newOpLogger(s.Logger, s.OplogRepo, logGroup)

	cust, err := s.CustomerRepo.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	pkg, err := s.CatalogRepo.Get(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}
	src, err := s.SourceRepo.Get(ctx, req.SourceID)
	if err != nil {
		return nil, err
	}

	start := time.Now().UTC()
	if req.Start != nil {
		start = req.Start.UTC()
	}

	olog.logf(ctx, "Creating a new subscription")
	olog.logf(ctx, "- Customer:   %s", cust.ID)
	olog.logf(ctx, "- Package:    %s", pkg.ID)
	olog.logf(ctx, "- Source:     %s", src.ID)
	olog.logf(ctx, "- Currency:   %s", req.Currency)
	olog.logf(ctx, "- Start Date: %s", start.Format(time.RFC3339))

	subscribed, err := s.isSubscribedAt(ctx, cust.ID, start)
	if err != nil {
		return nil, err
	}
	if subscribed {
		olog.logf(ctx, "Aborting. Customer is already subscribed.")
		return nil, ierr.NewErrorf("customer %s is already subscribed", cust.ID).
			WithHint("Customer is already subscribed").
			Mark(ierr.ErrAlreadySubscribed)
	}

	// Whether prior usage should burn a customer's free trial is an open
	// policy decision; everyone is currently eligible.
	canUseFreeTrial := true
	olog.logf(ctx, "Customer is able to use the package's free trial")

	olog.logf(ctx, "Calculating dates:")
	var periods subscription.Periods
	if canUseFreeTrial {
		periods, err = subscription.InitialPeriods(pkg, start)
	} else {
		periods, err = subscription.RenewalPeriods(pkg, start)
	}
	if err != nil {
		return nil, err
	}
	olog.logf(ctx, "- Free trial:   %s -> %s", periods.FreeTrial.Start.Format(time.RFC3339), periods.FreeTrial.End.Format(time.RFC3339))
	olog.logf(ctx, "- Subscription: %s -> %s", periods.Subscription.Start.Format(time.RFC3339), periods.Subscription.End.Format(time.RFC3339))
	olog.logf(ctx, "- Cooling off:  %s -> %s", periods.CoolingOff.Start.Format(time.RFC3339), periods.CoolingOff.End.Format(time.RFC3339))

	if err := s.validatePackage(ctx, olog, pkg, req.Currency); err != nil {
		return nil, err
	}
	if err := s.validateSource(ctx, olog, src, cust, &periods.Subscription.Start); err != nil {
		return nil, err
	}

	// the attempt is recorded regardless of how the payment flow ends
	inst, err := s.createInstance(ctx, olog, cust, pkg, src, req.Currency, periods, nil)
	if err != nil {
		return nil, err
	}
	olog = olog.forInstance(inst.ID)

	olog.logf(ctx, "Payment flow: Begin")
	inv, err := s.raiseInvoice(ctx, olog, inst, pkg, false)
	if err != nil {
		s.terminateAfterFailure(ctx, olog, inst, err)
		return nil, err
	}

	outcome, err := s.chargeInvoice(ctx, olog, chargeParams{
		instance:        inst,
		invoice:         inv,
		source:          src,
		customerPresent: req.CustomerPresent,
		successURL:      req.SuccessURL,
		errorURL:        req.ErrorURL,
	})
	olog.logf(ctx, "Payment flow: finished")
	if err != nil {
		s.terminateAfterFailure(ctx, olog, inst, err)
		return nil, err
	}

	switch outcome.State {
	case invoice.ChargeStateRedirect:
		// payment is incomplete, not failed; the payer completes it off
		// this call path and the instance stays live
		olog.logf(ctx, "Payment flow: Redirect required (%s)", outcome.RedirectURL)
		return &CreateResult{Instance: inst, Charge: outcome}, nil

	case invoice.ChargeStateFailed:
		olog.logf(ctx, "Payment flow: Declined (%s)", outcome.DeclineReason)
		declineErr := ierr.NewError("payment was declined").
			WithHint("Payment was declined").
			WithReportableDetails(map[string]any{
				"decline_reason": outcome.DeclineReason,
				"instance_id":    inst.ID,
			}).
			Mark(ierr.ErrPaymentDeclined)
		s.terminateAfterFailure(ctx, olog, inst, declineErr)
		return nil, declineErr
	}

	s.publishEvent(ctx, types.WebhookEventInstanceCreated, &payload.InstancePayload{Instance: inst})

	return &CreateResult{Instance: inst, Charge: outcome}, nil
}

func (s *subscriptionService) Renew(ctx context.Context, instanceID string, customerPresent bool) (*subscription.Instance, error) {
	old, err := s.SubRepo.GetBypassCache(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	logGroup := old.LogGroup
	if logGroup == "" {
		logGroup = types.GenerateLogGroup()
	}
	ctx = types.WithLogGroup(ctx, logGroup)
	olog := newOpLogger(s.Logger, s.OplogRepo, logGroup).forInstance(old.ID)

	cust, err := s.CustomerRepo.Get(ctx, old.CustomerID)
	if err != nil {
		return nil, err
	}
	src, err := s.SourceRepo.Get(ctx, old.SourceID)
	if err != nil {
		return nil, err
	}
	pkg, err := s.CatalogRepo.Get(ctx, old.EffectivePackageID())
	if err != nil {
		return nil, err
	}

	olog.logf(ctx, "Renewing an existing instance")
	olog.logf(ctx, "- Instance:         %s", old.ID)
	olog.logf(ctx, "- Customer:         %s", cust.ID)
	olog.logf(ctx, "- Customer present: %t", customerPresent)
	olog.logf(ctx, "- Source:           %s", src.ID)
	olog.logf(ctx, "- New Package:      %s", pkg.ID)

	if err := s.instanceShouldRenew(ctx, olog, old); err != nil {
		s.publishEvent(ctx, types.WebhookEventRenewalShouldNotRenew, &payload.RenewalPayload{Old: old, Error: err.Error()})
		return nil, err
	}
	if err := s.instanceCanRenew(ctx, olog, old, pkg, src, cust); err != nil {
		s.publishEvent(ctx, types.WebhookEventRenewalCannotRenew, &payload.RenewalPayload{Old: old, Error: err.Error()})
		return nil, err
	}

	// trial and cooling off only apply to the first term in a lineage
	olog.logf(ctx, "Calculating dates:")
	periods, err := subscription.RenewalPeriods(pkg, old.SubscriptionEnd)
	if err != nil {
		return nil, err
	}
	olog.logf(ctx, "- Subscription: %s -> %s", periods.Subscription.Start.Format(time.RFC3339), periods.Subscription.End.Format(time.RFC3339))

	newInst, err := s.createInstance(ctx, olog, cust, pkg, src, old.Currency, periods, old)
	if err != nil {
		if ierr.IsAlreadyExists(err) {
			// a concurrent renewal won the insert; surface it the same way
			// as the should-renew gate
			olog.logf(ctx, "Instance should not renew: a renewal already exists")
			shouldNotErr := ierr.WithError(err).
				WithMessage("instance has already been renewed").
				WithHint("Instance has already been renewed").
				Mark(ierr.ErrShouldNotRenew)
			s.publishEvent(ctx, types.WebhookEventRenewalShouldNotRenew, &payload.RenewalPayload{Old: old, Error: shouldNotErr.Error()})
			return nil, shouldNotErr
		}
		return nil, err
	}

	newLog := olog.forInstance(newInst.ID)
	newLog.logf(ctx, "Payment flow: Begin")

	inv, err := s.raiseInvoice(ctx, newLog, newInst, pkg, true)
	if err != nil {
		newLog.logf(ctx, "Payment flow: Uncaught exception: %s", err.Error())
		newLog.logf(ctx, "Payment flow: finished")
		return nil, err
	}

	// renewals always attempt payment now, regardless of the due date
	outcome, err := s.chargeInvoice(ctx, newLog, chargeParams{
		instance:        newInst,
		invoice:         inv,
		source:          src,
		customerPresent: customerPresent,
		forcePaymentNow: true,
	})
	newLog.logf(ctx, "Payment flow: finished")
	if err != nil {
		newLog.logf(ctx, "Payment flow: Uncaught exception: %s", err.Error())
		return nil, err
	}

	switch outcome.State {
	case invoice.ChargeStateRedirect, invoice.ChargeStateFailed:
		reason := outcome.DeclineReason
		if outcome.State == invoice.ChargeStateRedirect {
			reason = "a redirect is required to complete payment"
			newLog.logf(ctx, "Payment flow: Caught Redirect (%s)", outcome.RedirectURL)
		} else {
			newLog.logf(ctx, "Payment flow: Caught payment failure (%s)", reason)
		}

		failedErr := ierr.NewError(reason).
			WithHint("The renewal payment did not complete").
			WithReportableDetails(map[string]any{
				"instance_id":     old.ID,
				"new_instance_id": newInst.ID,
			}).
			Mark(ierr.ErrFailedToRenew)

		s.publishEvent(ctx, types.WebhookEventRenewalFailed, &payload.RenewalPayload{
			Old:   old,
			New:   newInst,
			Error: failedErr.Error(),
		})
		return nil, failedErr
	}

	s.publishEvent(ctx, types.WebhookEventRenewalSucceeded, &payload.RenewalPayload{Old: old, New: newInst})

	return newInst, nil
}

// ConfirmRenewal completes the chain link once an instance's invoice is
// observed paid. It is the only place a predecessor's next pointer is set,
// and invoking it again for an already confirmed instance is a no-op.
func (s *subscriptionService) ConfirmRenewal(ctx context.Context, instanceID string) error {
	inst, err := s.SubRepo.GetBypassCache(ctx, instanceID)
	if err != nil {
		return err
	}

	logGroup := inst.LogGroup
	if logGroup == "" {
		logGroup = types.GenerateLogGroup()
	}
	ctx = types.WithLogGroup(ctx, logGroup)
	olog := newOpLogger(s.Logger, s.OplogRepo, logGroup).forInstance(inst.ID)

	olog.logf(ctx, "Confirming Renewal")
	olog.logf(ctx, "Instance: %s", inst.ID)

	var prev *subscription.Instance
	if inst.PreviousInstanceID != "" {
		if prev, err = s.SubRepo.GetBypassCache(ctx, inst.PreviousInstanceID); err != nil {
			return err
		}
	}

	olog.logf(ctx, "Fetching associated invoice...")
	if inst.InvoiceID == "" {
		olog.logf(ctx, "FAILED: Could not find associated invoice")
		failedErr := ierr.NewError("could not find associated invoice").
			WithHint("The instance has no associated invoice").
			Mark(ierr.ErrFailedToRenew)
		s.publishEvent(ctx, types.WebhookEventRenewalFailed, &payload.RenewalPayload{Old: prev, New: inst, Error: failedErr.Error()})
		return failedErr
	}

	inv, err := s.InvoiceBridge.GetInvoice(ctx, inst.InvoiceID)
	if err != nil {
		return err
	}
	olog.logf(ctx, "Invoice: %s", inv.ID)

	if !inv.IsPaid() {
		olog.logf(ctx, "FAILED: Invoice has not been paid")
		failedErr := ierr.NewError("associated invoice has not been paid").
			WithHint("The associated invoice has not been paid").
			Mark(ierr.ErrFailedToRenew)
		s.publishEvent(ctx, types.WebhookEventRenewalFailed, &payload.RenewalPayload{Old: prev, New: inst, Error: failedErr.Error()})
		return failedErr
	}

	olog.logf(ctx, "Fetching previous instance...")
	if prev == nil {
		olog.logf(ctx, "- No previous instance found")
		return nil
	}

	if prev.NextInstanceID == inst.ID {
		olog.logf(ctx, "- Previous instance already linked")
		return nil
	}

	if prev.NextInstanceID != "" {
		olog.logf(ctx, "FAILED: Previous instance already linked to a different renewal: %s", prev.NextInstanceID)
		return ierr.NewError("previous instance is linked to a different renewal").
			WithHint("The previous instance is already linked to a different renewal").
			WithReportableDetails(map[string]any{
				"previous_instance_id": prev.ID,
				"linked_instance_id":   prev.NextInstanceID,
				"instance_id":          inst.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	olog.logf(ctx, "- Previous instance: %s", prev.ID)
	olog.logf(ctx, "Linking previous instance with current instance")

	prev.NextInstanceID = inst.ID
	return s.SubRepo.Update(ctx, prev)
}

func (s *subscriptionService) Cancel(ctx context.Context, instanceID, reason string) (*subscription.Instance, error) {
	inst, err := s.SubRepo.GetBypassCache(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	ctx = types.WithLogGroup(ctx, inst.LogGroup)
	olog := newOpLogger(s.Logger, s.OplogRepo, inst.LogGroup).forInstance(inst.ID)
	olog.logf(ctx, "Cancelling instance: %s", inst.ID)

	if inst.IsCancelled() {
		olog.logf(ctx, "FAILED: Instance is already cancelled")
		return nil, ierr.NewError("instance is already cancelled").
			WithHint("Instance is already cancelled").
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	autoRenew := false
	cancelled, err := s.modify(ctx, olog, inst, instanceChanges{
		AutomaticRenew: &autoRenew,
		CancelReason:   &reason,
		DateCancel:     &now,
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, types.WebhookEventInstanceCancelled, &payload.InstancePayload{Instance: cancelled})
	return cancelled, nil
}

func (s *subscriptionService) Restore(ctx context.Context, instanceID string) (*subscription.Instance, error) {
	inst, err := s.SubRepo.GetBypassCache(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	ctx = types.WithLogGroup(ctx, inst.LogGroup)
	olog := newOpLogger(s.Logger, s.OplogRepo, inst.LogGroup).forInstance(inst.ID)
	olog.logf(ctx, "Restoring instance: %s", inst.ID)

	if !inst.IsCancelled() {
		olog.logf(ctx, "FAILED: Instance is not in a cancelled state")
		return nil, ierr.NewError("instance is not in a cancelled state").
			WithHint("Instance is not cancelled").
			Mark(ierr.ErrInvalidOperation)
	}

	autoRenew := true
	emptyReason := ""
	restored, err := s.modify(ctx, olog, inst, instanceChanges{
		AutomaticRenew:  &autoRenew,
		CancelReason:    &emptyReason,
		ClearDateCancel: true,
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, types.WebhookEventInstanceRestored, &payload.InstancePayload{Instance: restored})
	return restored, nil
}

func (s *subscriptionService) Terminate(ctx context.Context, instanceID, reason string) (*subscription.Instance, error) {
	inst, err := s.SubRepo.GetBypassCache(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	ctx = types.WithLogGroup(ctx, inst.LogGroup)
	olog := newOpLogger(s.Logger, s.OplogRepo, inst.LogGroup).forInstance(inst.ID)

	return s.terminate(ctx, olog, inst, reason)
}

func (s *subscriptionService) terminate(ctx context.Context, olog *opLogger, inst *subscription.Instance, reason string) (*subscription.Instance, error) {
	olog.logf(ctx, "Terminating instance: %s", inst.ID)
	if reason != "" {
		olog.logf(ctx, "- Reason: %s", reason)
	}

	now := time.Now().UTC()
	autoRenew := false
	terminated, err := s.modify(ctx, olog, inst, instanceChanges{
		AutomaticRenew:  &autoRenew,
		CancelReason:    &reason,
		DateCancel:      &now,
		FreeTrialEnd:    &now,
		SubscriptionEnd: &now,
		CoolingOffEnd:   &now,
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, types.WebhookEventInstanceTerminated, &payload.InstancePayload{Instance: terminated})
	return terminated, nil
}

// terminateAfterFailure soft fails a freshly created instance when its
// payment flow blows up. The original failure is what the caller sees; a
// failure to terminate is only logged.
func (s *subscriptionService) terminateAfterFailure(ctx context.Context, olog *opLogger, inst *subscription.Instance, cause error) {
	olog.logf(ctx, "Payment flow: Uncaught failure: %s", cause.Error())

	if _, err := s.terminate(ctx, olog, inst, "a failure occurred during processing: "+cause.Error()); err != nil {
		s.Logger.Errorw("failed to terminate instance after payment failure",
			"error", err,
			"instance_id", inst.ID)
	}
}

func (s *subscriptionService) Swap(ctx context.Context, instanceID, newPackageID string, immediately bool) (*subscription.Instance, error) {
	inst, err := s.SubRepo.GetBypassCache(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	newPkg, err := s.CatalogRepo.Get(ctx, newPackageID)
	if err != nil {
		return nil, err
	}

	ctx = types.WithLogGroup(ctx, inst.LogGroup)
	olog := newOpLogger(s.Logger, s.OplogRepo, inst.LogGroup).forInstance(inst.ID)

	olog.logf(ctx, "Swapping an instance to a new package")
	olog.logf(ctx, "- Instance:         %s", inst.ID)
	olog.logf(ctx, "- New Package:      %s", newPkg.ID)
	olog.logf(ctx, "- Swap Immediately: %t", immediately)

	if immediately {
		olog.logf(ctx, "FAILED: Swapping immediately is not implemented")
		return nil, ierr.NewError("swapping a subscription immediately is not currently implemented").
			WithHint("Immediate swaps are not supported").
			Mark(ierr.ErrInvalidOperation)
	}

	if !newPkg.IsActiveAt(inst.SubscriptionEnd) {
		olog.logf(ctx, "FAILED: Desired package will not be active at time of renewal")
		return nil, ierr.NewError("desired package will not be active at time of renewal").
			WithHint("The desired package will not be active at the time of renewal").
			Mark(ierr.ErrInvalidOperation)
	}

	autoRenew := true
	changes := instanceChanges{AutomaticRenew: &autoRenew}
	if inst.PackageID == newPkg.ID {
		// swapping back to the current package reverts any pending request
		empty := ""
		changes.ChangeToPackageID = &empty
	} else {
		changes.ChangeToPackageID = &newPkg.ID
	}

	swapped, err := s.modify(ctx, olog, inst, changes)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, types.WebhookEventInstanceSwapped, &payload.InstancePayload{Instance: swapped})
	return swapped, nil
}

func (s *subscriptionService) SetAutoRenew(ctx context.Context, instanceID string, autoRenew bool) (*subscription.Instance, error) {
	inst, err := s.SubRepo.GetBypassCache(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	ctx = types.WithLogGroup(ctx, inst.LogGroup)
	olog := newOpLogger(s.Logger, s.OplogRepo, inst.LogGroup).forInstance(inst.ID)

	olog.logf(ctx, "Setting instance's auto renew status")
	olog.logf(ctx, "- Instance: %s", inst.ID)
	olog.logf(ctx, "- Status:   %t", autoRenew)

	return s.modify(ctx, olog, inst, instanceChanges{AutomaticRenew: &autoRenew})
}

func (s *subscriptionService) Get(ctx context.Context, instanceID string) (*subscription.Instance, error) {
	return s.SubRepo.Get(ctx, instanceID)
}

// GetCurrent returns the customer's instance covering the given instant,
// through either its free trial or its billing term
func (s *subscriptionService) GetCurrent(ctx context.Context, customerID string, when *time.Time) (*subscription.Instance, error) {
	at := time.Now().UTC()
	if when != nil {
		at = when.UTC()
	}

	instances, err := s.SubRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	for _, inst := range instances {
		if inst.IsInFreeTrial(at) || inst.IsInSubscription(at) {
			return inst, nil
		}
	}

	return nil, ierr.NewError("no subscription covers the requested time").
		WithHint("The customer has no subscription for this period").
		Mark(ierr.ErrNotFound)
}

func (s *subscriptionService) IsSubscribed(ctx context.Context, customerID string, when *time.Time) (bool, error) {
	at := time.Now().UTC()
	if when != nil {
		at = when.UTC()
	}
	return s.isSubscribedAt(ctx, customerID, at)
}

func (s *subscriptionService) isSubscribedAt(ctx context.Context, customerID string, at time.Time) (bool, error) {
	inst, err := s.GetCurrent(ctx, customerID, &at)
	if err != nil {
		if ierr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	if inst.IsInFreeTrial(at) {
		return true, nil
	}

	// an instance without an invoice is trusted; one with an invoice only
	// counts while that invoice is paid
	if inst.InvoiceID == "" {
		return true, nil
	}

	inv, err := s.InvoiceBridge.GetInvoice(ctx, inst.InvoiceID)
	if err != nil {
		return false, err
	}

	return inv.IsPaid(), nil
}

func (s *subscriptionService) GetRenewals(ctx context.Context, when time.Time, onlyDueToRenew bool) ([]*subscription.Instance, error) {
	instances, err := s.SubRepo.ListBySubscriptionEndDate(ctx, when)
	if err != nil {
		return nil, err
	}

	if !onlyDueToRenew {
		return instances, nil
	}

	due := make([]*subscription.Instance, 0, len(instances))
	for _, inst := range instances {
		if inst.AutomaticRenew && inst.NextInstanceID == "" {
			due = append(due, inst)
		}
	}
	return due, nil
}

// ---------------------------------------------------------------------------
// internals

func (s *subscriptionService) instanceShouldRenew(ctx context.Context, olog *opLogger, inst *subscription.Instance) error {
	olog.logf(ctx, "Checking if instance should renew")

	var reason string
	switch {
	case !inst.AutomaticRenew:
		reason = "instance is configured to not renew"
	case inst.NextInstanceID != "":
		reason = "instance has already been renewed"
	default:
		return nil
	}

	olog.logf(ctx, "Instance should not renew: %s", reason)
	return ierr.NewError(reason).
		WithHint("Instance should not renew").
		WithReportableDetails(map[string]any{"instance_id": inst.ID}).
		Mark(ierr.ErrShouldNotRenew)
}

func (s *subscriptionService) instanceCanRenew(
	ctx context.Context,
	olog *opLogger,
	inst *subscription.Instance,
	pkg *catalog.Package,
	src *source.Source,
	cust *customer.Customer,
) error {
	olog.logf(ctx, "Checking if instance can renew")
	olog.logf(ctx, "- New package: %s (%s)", pkg.ID, pkg.Label)

	if err := s.validatePackage(ctx, olog, pkg, inst.Currency); err != nil {
		olog.logf(ctx, "Instance cannot renew: %s", err.Error())
		return ierr.WithError(err).
			WithMessage("instance cannot renew").
			WithHint("Instance cannot renew").
			Mark(ierr.ErrCannotRenew)
	}
	if err := s.validateSource(ctx, olog, src, cust, nil); err != nil {
		olog.logf(ctx, "Instance cannot renew: %s", err.Error())
		return ierr.WithError(err).
			WithMessage("instance cannot renew").
			WithHint("Instance cannot renew").
			Mark(ierr.ErrCannotRenew)
	}

	return nil
}

func (s *subscriptionService) validatePackage(ctx context.Context, olog *opLogger, pkg *catalog.Package, currency string) error {
	olog.logf(ctx, "Validating package %s (%s)", pkg.ID, pkg.Label)

	if !pkg.IsActiveAt(time.Now().UTC()) {
		olog.logf(ctx, "Invalid package: Not currently active")
		return ierr.NewErrorf("package %s is not currently active", pkg.ID).
			WithHint("The package is not currently active").
			Mark(ierr.ErrValidation)
	}
	if !pkg.SupportsCurrency(currency) {
		olog.logf(ctx, "Invalid package: Does not support payments in %s", currency)
		return ierr.NewErrorf("package %s does not support payments in %s", pkg.ID, currency).
			WithHintf("The package does not support payments in %s", currency).
			Mark(ierr.ErrValidation)
	}

	return nil
}

func (s *subscriptionService) validateSource(
	ctx context.Context,
	olog *opLogger,
	src *source.Source,
	cust *customer.Customer,
	start *time.Time,
) error {
	olog.logf(ctx, "Validating source %s", src.ID)

	billAt := time.Now().UTC()
	if start != nil {
		billAt = start.UTC()
	}

	if src.CustomerID != cust.ID {
		olog.logf(ctx, "Invalid source: Source does not belong to customer")
		return ierr.NewError("invalid payment source").
			WithHint("Invalid payment source").
			Mark(ierr.ErrValidation)
	}
	if src.IsExpiredAt(time.Now().UTC()) {
		olog.logf(ctx, "Invalid source: Source has expired")
		return ierr.NewError("payment source is expired").
			WithHint("Payment source is expired").
			Mark(ierr.ErrValidation)
	}
	if src.IsExpiredAt(billAt) {
		olog.logf(ctx, "Invalid source: Source will have expired at time of payment")
		return ierr.NewErrorf("payment source expires before the subscription is billed on %s", billAt.Format("2006-01-02")).
			WithHint("The payment source will have expired when the subscription is billed").
			Mark(ierr.ErrValidation)
	}

	return nil
}

func (s *subscriptionService) createInstance(
	ctx context.Context,
	olog *opLogger,
	cust *customer.Customer,
	pkg *catalog.Package,
	src *source.Source,
	currency string,
	periods subscription.Periods,
	previous *subscription.Instance,
) (*subscription.Instance, error) {
	olog.logf(ctx, "Creating new instance:")

	inst := &subscription.Instance{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INSTANCE),
		CustomerID:        cust.ID,
		PackageID:         pkg.ID,
		SourceID:          src.ID,
		Currency:          currency,
		FreeTrialStart:    periods.FreeTrial.Start,
		FreeTrialEnd:      periods.FreeTrial.End,
		SubscriptionStart: periods.Subscription.Start,
		SubscriptionEnd:   periods.Subscription.End,
		CoolingOffStart:   periods.CoolingOff.Start,
		CoolingOffEnd:     periods.CoolingOff.End,
		AutomaticRenew:    pkg.SupportsAutomaticRenew,
		LogGroup:          types.GetLogGroup(ctx),
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}

	var err error
	if previous != nil {
		inst.PreviousInstanceID = previous.ID
		err = s.SubRepo.CreateRenewal(ctx, inst)
	} else {
		err = s.SubRepo.Create(ctx, inst)
	}
	if err != nil {
		olog.logf(ctx, "FAILED: %s", err.Error())
		return nil, err
	}

	olog.logf(ctx, "- ID: %s", inst.ID)
	return inst, nil
}

func (s *subscriptionService) raiseInvoice(
	ctx context.Context,
	olog *opLogger,
	inst *subscription.Instance,
	pkg *catalog.Package,
	isNormalPrice bool,
) (*invoice.Invoice, error) {
	olog.logf(ctx, "Raising a new invoice for instance %s", inst.ID)

	cost := pkg.CostFor(inst.Currency)
	if cost == nil {
		return nil, ierr.NewErrorf("package %s has no cost in %s", pkg.ID, inst.Currency).
			WithHint("The package has no cost in the requested currency").
			Mark(ierr.ErrValidation)
	}

	amount := cost.ValueInitial
	callbackType := invoice.CallbackTypeInitial
	if isNormalPrice {
		amount = cost.ValueNormal
	}
	if inst.IsRenewal() {
		callbackType = invoice.CallbackTypeRenewal
	}

	olog.logf(ctx, "- Generating line item")
	olog.logf(ctx, "- Label:  Subscription: %s", pkg.Label)
	olog.logf(ctx, "- Amount: %s %s", amount.String(), inst.Currency)

	inv, err := s.InvoiceBridge.RaiseInvoice(ctx, invoice.RaiseRequest{
		CustomerID: inst.CustomerID,
		Currency:   inst.Currency,
		Label:      "Subscription: " + pkg.Label,
		Amount:     amount,
		DueAt:      inst.SubscriptionStart,
		CallbackData: invoice.CallbackData{
			Identifier: invoice.CallbackIdentifier,
			Type:       callbackType,
			InstanceID: inst.ID,
		},
	})
	if err != nil {
		return nil, err
	}

	olog.logf(ctx, "- Associating invoice (%s) with instance", inv.ID)
	inst.InvoiceID = inv.ID
	if err := s.SubRepo.Update(ctx, inst); err != nil {
		return nil, err
	}

	return inv, nil
}

type chargeParams struct {
	instance        *subscription.Instance
	invoice         *invoice.Invoice
	source          *source.Source
	customerPresent bool
	successURL      string
	errorURL        string
	forcePaymentNow bool
}

// chargeInvoice attempts collection if the time is right. The outcome comes
// back by value; an error here means infrastructure failed, not that the
// payment was declined.
func (s *subscriptionService) chargeInvoice(ctx context.Context, olog *opLogger, p chargeParams) (invoice.ChargeOutcome, error) {
	olog.logf(ctx, "Charging invoice %s", p.invoice.ID)
	olog.logf(ctx, "- Source:            %s", p.source.ID)
	olog.logf(ctx, "- Customer Present:  %t", p.customerPresent)
	olog.logf(ctx, "- Force Payment Now: %t", p.forcePaymentNow)

	now := time.Now().UTC()
	total := p.invoice.Total()

	switch {
	case (p.forcePaymentNow || types.SameDate(now, p.invoice.DueAt)) && !total.IsZero():
		olog.logf(ctx, "Invoice to be paid now, building charge request")

		outcome, err := s.InvoiceBridge.ChargeInvoice(ctx, p.invoice, invoice.ChargeRequest{
			SourceID:   p.source.ID,
			OffSession: !p.customerPresent,
			SuccessURL: p.successURL,
			ErrorURL:   p.errorURL,
		})
		if err != nil {
			return invoice.ChargeOutcome{}, err
		}

		olog.logf(ctx, "Charge request executed, state: %s", outcome.State)
		return outcome, nil

	case total.IsZero():
		olog.logf(ctx, "Invoice is zero-value; marking as paid")
		if err := s.InvoiceBridge.MarkZeroValuePaid(ctx, p.invoice); err != nil {
			return invoice.ChargeOutcome{}, err
		}
		return invoice.ChargeOutcome{State: invoice.ChargeStateComplete}, nil

	default:
		olog.logf(ctx, "Invoice is not due to be paid now.")
		return invoice.ChargeOutcome{}, nil
	}
}

type instanceChanges struct {
	AutomaticRenew    *bool
	CancelReason      *string
	DateCancel        *time.Time
	ClearDateCancel   bool
	ChangeToPackageID *string
	FreeTrialEnd      *time.Time
	SubscriptionEnd   *time.Time
	CoolingOffEnd     *time.Time
}

// modify is the single mutation primitive. It persists the changes,
// re-reads the instance bypassing the read cache, and emits a modified
// event carrying both the before and after images.
func (s *subscriptionService) modify(ctx context.Context, olog *opLogger, inst *subscription.Instance, changes instanceChanges) (*subscription.Instance, error) {
	olog.logf(ctx, "Modifying instance: %s", inst.ID)

	updated := *inst
	if changes.AutomaticRenew != nil {
		updated.AutomaticRenew = *changes.AutomaticRenew
	}
	if changes.CancelReason != nil {
		reason := *changes.CancelReason
		if len(reason) > 150 {
			reason = reason[:150]
		}
		updated.CancelReason = reason
	}
	if changes.DateCancel != nil {
		dc := *changes.DateCancel
		updated.DateCancel = &dc
	}
	if changes.ClearDateCancel {
		updated.DateCancel = nil
	}
	if changes.ChangeToPackageID != nil {
		updated.ChangeToPackageID = *changes.ChangeToPackageID
	}
	if changes.FreeTrialEnd != nil {
		updated.FreeTrialEnd = *changes.FreeTrialEnd
	}
	if changes.SubscriptionEnd != nil {
		updated.SubscriptionEnd = *changes.SubscriptionEnd
	}
	if changes.CoolingOffEnd != nil {
		updated.CoolingOffEnd = *changes.CoolingOffEnd
	}
	updated.UpdatedAt = time.Now().UTC()
	updated.UpdatedBy = types.GetUserID(ctx)

	if err := s.SubRepo.Update(ctx, &updated); err != nil {
		olog.logf(ctx, "FAILED: %s", err.Error())
		return nil, ierr.WithError(err).
			WithMessage("failed to modify subscription").
			WithHint("Failed to modify the subscription").
			Mark(ierr.ErrInvalidOperation)
	}

	modified, err := s.SubRepo.GetBypassCache(ctx, inst.ID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, types.WebhookEventInstanceModified, &payload.InstanceModifiedPayload{
		Before: inst,
		After:  modified,
	})

	return modified, nil
}

// publishEvent emits a domain event. Event delivery is best effort and never
// fails the operation that triggered it.
func (s *subscriptionService) publishEvent(ctx context.Context, eventName string, body any) {
	event, err := payload.NewWebhookEvent(ctx, eventName, body)
	if err != nil {
		s.Logger.Errorw("failed to build webhook event", "error", err, "event_name", eventName)
		return
	}

	if err := s.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		s.Logger.Errorw("failed to publish webhook event", "error", err, "event_name", eventName)
	}
}
