package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/subkit/subkit/internal/api/dto"
	"github.com/subkit/subkit/internal/domain/catalog"
	"github.com/subkit/subkit/internal/domain/customer"
	"github.com/subkit/subkit/internal/domain/invoice"
	"github.com/subkit/subkit/internal/domain/source"
	"github.com/subkit/subkit/internal/domain/subscription"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/invoicing"
	"github.com/subkit/subkit/internal/pubsub/memory"
	"github.com/subkit/subkit/internal/sentry"
	"github.com/subkit/subkit/internal/testutil"
	"github.com/subkit/subkit/internal/types"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionService
	params  ServiceParams
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	pubSub := memory.NewPubSub(s.GetConfig(), s.GetLogger())
	bridge := invoicing.NewBridge(stores.InvoiceRepo, s.GetGateway(), pubSub, s.GetConfig(), s.GetLogger())

	s.params = ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		Sentry:           sentry.NewSentryService(s.GetConfig(), s.GetLogger()),
		SubRepo:          stores.SubscriptionRepo,
		CatalogRepo:      stores.CatalogRepo,
		CustomerRepo:     stores.CustomerRepo,
		SourceRepo:       stores.SourceRepo,
		InvoiceRepo:      stores.InvoiceRepo,
		OplogRepo:        stores.OplogRepo,
		InvoiceBridge:    bridge,
		WebhookPublisher: s.GetWebhookPublisher(),
	}
	s.service = NewSubscriptionService(s.params)
}

// fixtures

type packageOpts struct {
	freeTrialDays  int
	coolingOffDays int
	valueInitial   string
	valueNormal    string
	activeTo       *time.Time
	inactive       bool
	noAutoRenew    bool
}

func (s *SubscriptionServiceSuite) newPackage(opts packageOpts) *catalog.Package {
	valueInitial := decimal.RequireFromString("5")
	if opts.valueInitial != "" {
		valueInitial = decimal.RequireFromString(opts.valueInitial)
	}
	valueNormal := decimal.RequireFromString("10")
	if opts.valueNormal != "" {
		valueNormal = decimal.RequireFromString(opts.valueNormal)
	}

	pkg := &catalog.Package{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PACKAGE),
		Label:                  "Gold",
		BillingPeriod:          types.BILLING_PERIOD_MONTH,
		BillingDuration:        1,
		IsActive:               !opts.inactive,
		ActiveTo:               opts.activeTo,
		SupportsFreeTrial:      opts.freeTrialDays > 0,
		FreeTrialDuration:      opts.freeTrialDays,
		SupportsCoolingOff:     opts.coolingOffDays > 0,
		CoolingOffDuration:     opts.coolingOffDays,
		SupportsAutomaticRenew: !opts.noAutoRenew,
		Costs: []*catalog.Cost{
			{
				ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PACKAGE_COST),
				Currency:     "usd",
				ValueNormal:  valueNormal,
				ValueInitial: valueInitial,
			},
		},
	}
	s.Require().NoError(s.GetStores().CatalogRepo.Create(s.GetContext(), pkg))
	return pkg
}

func (s *SubscriptionServiceSuite) newCustomerWithSource() (*customer.Customer, *source.Source) {
	cust := &customer.Customer{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		ExternalID: "ext-1",
		Name:       "Ada",
		Email:      "ada@example.com",
	}
	s.Require().NoError(s.GetStores().CustomerRepo.Create(s.GetContext(), cust))

	expires := time.Now().UTC().AddDate(2, 0, 0)
	src := &source.Source{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SOURCE),
		CustomerID: cust.ID,
		Label:      "Visa ending 4242",
		ExpiresAt:  &expires,
	}
	s.Require().NoError(s.GetStores().SourceRepo.Create(s.GetContext(), src))
	return cust, src
}

func (s *SubscriptionServiceSuite) create(pkg *catalog.Package, cust *customer.Customer, src *source.Source) *CreateResult {
	result, err := s.service.Create(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID:      cust.ID,
		PackageID:       pkg.ID,
		SourceID:        src.ID,
		Currency:        "usd",
		CustomerPresent: true,
	})
	s.Require().NoError(err)
	s.Require().NotNil(result.Instance)
	return result
}

// create

func (s *SubscriptionServiceSuite) TestCreateChargesInitialPriceImmediately() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()

	result := s.create(pkg, cust, src)
	inst := result.Instance

	// no trial: the billing term starts now and runs one month
	now := time.Now().UTC()
	s.True(types.SameDate(inst.SubscriptionStart, now))
	s.True(inst.SubscriptionEnd.Equal(inst.SubscriptionStart.AddDate(0, 1, 0)))
	s.True(inst.IsInFreeTrial(inst.FreeTrialStart))
	s.True(inst.FreeTrialStart.Equal(inst.FreeTrialEnd))
	s.True(inst.AutomaticRenew)
	s.Empty(inst.PreviousInstanceID)

	// invoice due today, so a charge was attempted at the initial price
	s.Len(s.GetGateway().Requests(), 1)
	s.Equal(invoice.ChargeStateComplete, result.Charge.State)

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inst.InvoiceID)
	s.Require().NoError(err)
	s.True(inv.Total().Equal(decimal.RequireFromString("5")))
	s.True(inv.IsPaid())

	item := inv.InstanceItem()
	s.Require().NotNil(item)
	s.Equal(invoice.CallbackTypeInitial, item.CallbackData.Type)
	s.Equal(inst.ID, item.CallbackData.InstanceID)

	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventInstanceCreated)
}

func (s *SubscriptionServiceSuite) TestCreateWithFreeTrialDefersCharge() {
	pkg := s.newPackage(packageOpts{freeTrialDays: 7})
	cust, src := s.newCustomerWithSource()

	inst := s.create(pkg, cust, src).Instance
	start := inst.FreeTrialStart

	s.True(inst.IsInFreeTrial(start.AddDate(0, 0, 3)))
	s.False(inst.IsInFreeTrial(start.AddDate(0, 0, 8)))
	s.True(inst.SubscriptionStart.Equal(inst.FreeTrialEnd))

	// the invoice is due when the trial ends, so nothing was charged yet
	s.Empty(s.GetGateway().Requests())

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inst.InvoiceID)
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusPending, inv.PaymentStatus)
}

func (s *SubscriptionServiceSuite) TestCreateZeroValueInvoiceIsMarkedPaid() {
	pkg := s.newPackage(packageOpts{valueInitial: "0"})
	cust, src := s.newCustomerWithSource()

	inst := s.create(pkg, cust, src).Instance

	s.Empty(s.GetGateway().Requests())
	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inst.InvoiceID)
	s.Require().NoError(err)
	s.True(inv.IsPaid())
}

func (s *SubscriptionServiceSuite) TestCreateRejectsAlreadySubscribedCustomer() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()
	s.create(pkg, cust, src)

	_, err := s.service.Create(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID:      cust.ID,
		PackageID:       pkg.ID,
		SourceID:        src.ID,
		Currency:        "usd",
		CustomerPresent: true,
	})
	s.Require().Error(err)
	s.True(ierr.IsAlreadySubscribed(err))
}

func (s *SubscriptionServiceSuite) TestCreateValidatesPackageAndSource() {
	cust, src := s.newCustomerWithSource()

	s.Run("inactive package", func() {
		pkg := s.newPackage(packageOpts{inactive: true})
		_, err := s.service.Create(s.GetContext(), dto.CreateSubscriptionRequest{
			CustomerID: cust.ID, PackageID: pkg.ID, SourceID: src.ID, Currency: "usd",
		})
		s.Require().Error(err)
		s.True(ierr.IsValidation(err))
	})

	s.Run("unsupported currency", func() {
		pkg := s.newPackage(packageOpts{})
		_, err := s.service.Create(s.GetContext(), dto.CreateSubscriptionRequest{
			CustomerID: cust.ID, PackageID: pkg.ID, SourceID: src.ID, Currency: "gbp",
		})
		s.Require().Error(err)
		s.True(ierr.IsValidation(err))
	})

	s.Run("source belongs to another customer", func() {
		pkg := s.newPackage(packageOpts{})
		other := &customer.Customer{ID: types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER), ExternalID: "ext-2", Name: "Eve"}
		s.Require().NoError(s.GetStores().CustomerRepo.Create(s.GetContext(), other))

		_, err := s.service.Create(s.GetContext(), dto.CreateSubscriptionRequest{
			CustomerID: other.ID, PackageID: pkg.ID, SourceID: src.ID, Currency: "usd",
		})
		s.Require().Error(err)
		s.True(ierr.IsValidation(err))
	})

	s.Run("source expired before billing", func() {
		pkg := s.newPackage(packageOpts{freeTrialDays: 60})
		expires := time.Now().UTC().AddDate(0, 0, 30)
		shortSrc := &source.Source{
			ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SOURCE),
			CustomerID: cust.ID,
			ExpiresAt:  &expires,
		}
		s.Require().NoError(s.GetStores().SourceRepo.Create(s.GetContext(), shortSrc))

		_, err := s.service.Create(s.GetContext(), dto.CreateSubscriptionRequest{
			CustomerID: cust.ID, PackageID: pkg.ID, SourceID: shortSrc.ID, Currency: "usd",
		})
		s.Require().Error(err)
		s.True(ierr.IsValidation(err))
	})
}

func (s *SubscriptionServiceSuite) TestCreateDeclinedPaymentTerminatesInstance() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()

	s.GetGateway().ScriptOutcome(invoice.ChargeOutcome{
		State:         invoice.ChargeStateFailed,
		DeclineReason: "insufficient funds",
	})

	_, err := s.service.Create(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: cust.ID, PackageID: pkg.ID, SourceID: src.ID, Currency: "usd", CustomerPresent: true,
	})
	s.Require().Error(err)
	s.True(ierr.IsPaymentDeclined(err))

	// the attempt was recorded, then soft failed
	instances, listErr := s.GetStores().SubscriptionRepo.ListByCustomer(s.GetContext(), cust.ID)
	s.Require().NoError(listErr)
	s.Require().Len(instances, 1)
	s.True(instances[0].IsCancelled())
	s.False(instances[0].AutomaticRenew)
	s.NotNil(instances[0].DateCancel)
}

func (s *SubscriptionServiceSuite) TestCreateRedirectDoesNotTerminate() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()

	s.GetGateway().ScriptOutcome(invoice.ChargeOutcome{
		State:       invoice.ChargeStateRedirect,
		RedirectURL: "https://bank.example.com/3ds",
	})

	result, err := s.service.Create(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: cust.ID, PackageID: pkg.ID, SourceID: src.ID, Currency: "usd", CustomerPresent: true,
	})
	s.Require().NoError(err)
	s.Equal(invoice.ChargeStateRedirect, result.Charge.State)
	s.Equal("https://bank.example.com/3ds", result.Charge.RedirectURL)

	fresh, err := s.GetStores().SubscriptionRepo.GetBypassCache(s.GetContext(), result.Instance.ID)
	s.Require().NoError(err)
	s.False(fresh.IsCancelled())

	// payment is incomplete, so the lineage has not been announced yet
	s.NotContains(s.GetWebhookPublisher().EventNames(), types.WebhookEventInstanceCreated)
}

// renew

func (s *SubscriptionServiceSuite) TestRenewCreatesChainedInstanceAtNormalPrice() {
	pkg := s.newPackage(packageOpts{freeTrialDays: 7})
	cust, src := s.newCustomerWithSource()
	old := s.create(pkg, cust, src).Instance

	newInst, err := s.service.Renew(s.GetContext(), old.ID, false)
	s.Require().NoError(err)

	s.Equal(old.ID, newInst.PreviousInstanceID)
	s.True(newInst.SubscriptionStart.Equal(old.SubscriptionEnd))
	s.True(newInst.FreeTrialStart.Equal(newInst.FreeTrialEnd), "renewal terms carry no trial")
	s.True(newInst.CoolingOffStart.Equal(newInst.CoolingOffEnd), "renewal terms carry no cooling off")

	// the chain link is not set until the invoice is observed paid
	oldFresh, err := s.GetStores().SubscriptionRepo.GetBypassCache(s.GetContext(), old.ID)
	s.Require().NoError(err)
	s.Empty(oldFresh.NextInstanceID)

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), newInst.InvoiceID)
	s.Require().NoError(err)
	s.True(inv.Total().Equal(decimal.RequireFromString("10")), "renewals bill the normal price")
	s.True(inv.IsPaid(), "renewals force payment regardless of due date")

	item := inv.InstanceItem()
	s.Require().NotNil(item)
	s.Equal(invoice.CallbackTypeRenewal, item.CallbackData.Type)

	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventRenewalSucceeded)
}

func (s *SubscriptionServiceSuite) TestRenewGuards() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()
	old := s.create(pkg, cust, src).Instance

	s.Run("second renewal is refused", func() {
		_, err := s.service.Renew(s.GetContext(), old.ID, false)
		s.Require().NoError(err)

		_, err = s.service.Renew(s.GetContext(), old.ID, false)
		s.Require().Error(err)
		s.True(ierr.IsShouldNotRenew(err))
		s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventRenewalShouldNotRenew)
	})

	s.Run("auto renew off refuses renewal", func() {
		pkg2 := s.newPackage(packageOpts{})
		cust2 := &customer.Customer{ID: types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER), ExternalID: "ext-3", Name: "Bea"}
		s.Require().NoError(s.GetStores().CustomerRepo.Create(s.GetContext(), cust2))
		expires := time.Now().UTC().AddDate(2, 0, 0)
		src2 := &source.Source{ID: types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SOURCE), CustomerID: cust2.ID, ExpiresAt: &expires}
		s.Require().NoError(s.GetStores().SourceRepo.Create(s.GetContext(), src2))

		inst := s.create(pkg2, cust2, src2).Instance
		_, err := s.service.SetAutoRenew(s.GetContext(), inst.ID, false)
		s.Require().NoError(err)

		_, err = s.service.Renew(s.GetContext(), inst.ID, false)
		s.Require().Error(err)
		s.True(ierr.IsShouldNotRenew(err))
	})
}

func (s *SubscriptionServiceSuite) TestRenewCannotRenewWhenPackageWithdrawn() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()
	old := s.create(pkg, cust, src).Instance

	pkg.IsActive = false
	s.Require().NoError(s.GetStores().CatalogRepo.Update(s.GetContext(), pkg))

	_, err := s.service.Renew(s.GetContext(), old.ID, false)
	s.Require().Error(err)
	s.True(ierr.IsCannotRenew(err))
	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventRenewalCannotRenew)
}

func (s *SubscriptionServiceSuite) TestRenewPaymentFailureWrapsAsFailedToRenew() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()
	old := s.create(pkg, cust, src).Instance

	s.GetGateway().ScriptOutcome(invoice.ChargeOutcome{
		State:         invoice.ChargeStateFailed,
		DeclineReason: "card expired",
	})

	_, err := s.service.Renew(s.GetContext(), old.ID, false)
	s.Require().Error(err)
	s.True(ierr.IsFailedToRenew(err))
	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventRenewalFailed)

	// the pending successor exists but the chain is not linked
	oldFresh, err := s.GetStores().SubscriptionRepo.GetBypassCache(s.GetContext(), old.ID)
	s.Require().NoError(err)
	s.Empty(oldFresh.NextInstanceID)
}

func (s *SubscriptionServiceSuite) TestRenewSwapsToPendingPackage() {
	pkg := s.newPackage(packageOpts{})
	target := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()
	old := s.create(pkg, cust, src).Instance

	_, err := s.service.Swap(s.GetContext(), old.ID, target.ID, false)
	s.Require().NoError(err)

	newInst, err := s.service.Renew(s.GetContext(), old.ID, false)
	s.Require().NoError(err)
	s.Equal(target.ID, newInst.PackageID)
}

// confirmRenewal

func (s *SubscriptionServiceSuite) findRenewalOf(customerID, oldID string) *subscription.Instance {
	instances, err := s.GetStores().SubscriptionRepo.ListByCustomer(s.GetContext(), customerID)
	s.Require().NoError(err)
	for _, inst := range instances {
		if inst.PreviousInstanceID == oldID {
			return inst
		}
	}
	s.FailNow("no renewal instance found")
	return nil
}

func (s *SubscriptionServiceSuite) TestConfirmRenewalLinksChainIdempotently() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()
	old := s.create(pkg, cust, src).Instance

	newInst, err := s.service.Renew(s.GetContext(), old.ID, false)
	s.Require().NoError(err)

	s.Require().NoError(s.service.ConfirmRenewal(s.GetContext(), newInst.ID))

	oldFresh, err := s.GetStores().SubscriptionRepo.GetBypassCache(s.GetContext(), old.ID)
	s.Require().NoError(err)
	s.Equal(newInst.ID, oldFresh.NextInstanceID)

	// confirming again is a no-op
	s.Require().NoError(s.service.ConfirmRenewal(s.GetContext(), newInst.ID))
	oldAgain, err := s.GetStores().SubscriptionRepo.GetBypassCache(s.GetContext(), old.ID)
	s.Require().NoError(err)
	s.Equal(newInst.ID, oldAgain.NextInstanceID)
}

func (s *SubscriptionServiceSuite) TestConfirmRenewalRejectsConflictingRelink() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()
	old := s.create(pkg, cust, src).Instance

	newInst, err := s.service.Renew(s.GetContext(), old.ID, false)
	s.Require().NoError(err)

	// the predecessor already points at another successor; confirming
	// this instance must not rewrite the chain
	oldFresh, err := s.GetStores().SubscriptionRepo.GetBypassCache(s.GetContext(), old.ID)
	s.Require().NoError(err)
	oldFresh.NextInstanceID = "inst_other"
	s.Require().NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), oldFresh))

	err = s.service.ConfirmRenewal(s.GetContext(), newInst.ID)
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))

	oldAgain, err := s.GetStores().SubscriptionRepo.GetBypassCache(s.GetContext(), old.ID)
	s.Require().NoError(err)
	s.Equal("inst_other", oldAgain.NextInstanceID)
}

func (s *SubscriptionServiceSuite) TestConfirmRenewalRequiresPaidInvoice() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()
	old := s.create(pkg, cust, src).Instance

	// the payer never comes back from the redirect
	s.GetGateway().ScriptOutcome(invoice.ChargeOutcome{
		State:       invoice.ChargeStateRedirect,
		RedirectURL: "https://bank.example.com/3ds",
	})

	_, err := s.service.Renew(s.GetContext(), old.ID, true)
	s.Require().Error(err)
	s.True(ierr.IsFailedToRenew(err))

	newInst := s.findRenewalOf(cust.ID, old.ID)

	err = s.service.ConfirmRenewal(s.GetContext(), newInst.ID)
	s.Require().Error(err)
	s.True(ierr.IsFailedToRenew(err))

	// settlement arrives later through the payment notification path
	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), newInst.InvoiceID)
	s.Require().NoError(err)
	inv.PaymentStatus = types.PaymentStatusPaid
	s.Require().NoError(s.GetStores().InvoiceRepo.Update(s.GetContext(), inv))

	s.Require().NoError(s.service.ConfirmRenewal(s.GetContext(), newInst.ID))
	oldFresh, err := s.GetStores().SubscriptionRepo.GetBypassCache(s.GetContext(), old.ID)
	s.Require().NoError(err)
	s.Equal(newInst.ID, oldFresh.NextInstanceID)
}

func (s *SubscriptionServiceSuite) TestConfirmRenewalWithoutInvoiceFails() {
	inst := &subscription.Instance{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INSTANCE),
		CustomerID: "cust_orphan",
	}
	s.Require().NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), inst))

	err := s.service.ConfirmRenewal(s.GetContext(), inst.ID)
	s.Require().Error(err)
	s.True(ierr.IsFailedToRenew(err))
}

// cancel / restore / terminate / swap

func (s *SubscriptionServiceSuite) TestCancelAndRestore() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()
	inst := s.create(pkg, cust, src).Instance

	cancelled, err := s.service.Cancel(s.GetContext(), inst.ID, "too expensive")
	s.Require().NoError(err)
	s.True(cancelled.IsCancelled())
	s.False(cancelled.AutomaticRenew)
	s.NotNil(cancelled.DateCancel)
	s.Equal("too expensive", cancelled.CancelReason)
	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventInstanceCancelled)

	_, err = s.service.Cancel(s.GetContext(), inst.ID, "again")
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))

	restored, err := s.service.Restore(s.GetContext(), inst.ID)
	s.Require().NoError(err)
	s.False(restored.IsCancelled())
	s.True(restored.AutomaticRenew)
	s.Nil(restored.DateCancel)
	s.Empty(restored.CancelReason)
	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventInstanceRestored)

	_, err = s.service.Restore(s.GetContext(), inst.ID)
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestTerminateEndsAllPeriodsNow() {
	pkg := s.newPackage(packageOpts{freeTrialDays: 7, coolingOffDays: 14})
	cust, src := s.newCustomerWithSource()
	inst := s.create(pkg, cust, src).Instance

	terminated, err := s.service.Terminate(s.GetContext(), inst.ID, "fraud")
	s.Require().NoError(err)

	now := time.Now().UTC()
	s.True(terminated.IsCancelled())
	s.False(terminated.FreeTrialEnd.After(now))
	s.False(terminated.SubscriptionEnd.After(now))
	s.False(terminated.CoolingOffEnd.After(now))
	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventInstanceTerminated)
}

func (s *SubscriptionServiceSuite) TestSwap() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()
	inst := s.create(pkg, cust, src).Instance

	s.Run("swap to a different package queues the change", func() {
		target := s.newPackage(packageOpts{})
		swapped, err := s.service.Swap(s.GetContext(), inst.ID, target.ID, false)
		s.Require().NoError(err)
		s.Equal(target.ID, swapped.ChangeToPackageID)
		s.Equal(pkg.ID, swapped.PackageID)
		s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventInstanceSwapped)
	})

	s.Run("swap back to the current package reverts the change", func() {
		swapped, err := s.service.Swap(s.GetContext(), inst.ID, pkg.ID, false)
		s.Require().NoError(err)
		s.Empty(swapped.ChangeToPackageID)
	})

	s.Run("immediate swap is not supported", func() {
		target := s.newPackage(packageOpts{})
		_, err := s.service.Swap(s.GetContext(), inst.ID, target.ID, true)
		s.Require().Error(err)
		s.True(ierr.IsInvalidOperation(err))
	})

	s.Run("target inactive at renewal is refused", func() {
		soon := time.Now().UTC().AddDate(0, 0, 7)
		target := s.newPackage(packageOpts{activeTo: &soon})
		_, err := s.service.Swap(s.GetContext(), inst.ID, target.ID, false)
		s.Require().Error(err)
		s.True(ierr.IsInvalidOperation(err))
	})
}

// queries

func (s *SubscriptionServiceSuite) TestIsSubscribed() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()

	subscribed, err := s.service.IsSubscribed(s.GetContext(), cust.ID, nil)
	s.Require().NoError(err)
	s.False(subscribed)

	s.create(pkg, cust, src)

	subscribed, err = s.service.IsSubscribed(s.GetContext(), cust.ID, nil)
	s.Require().NoError(err)
	s.True(subscribed)

	// outside every window
	later := time.Now().UTC().AddDate(1, 0, 0)
	subscribed, err = s.service.IsSubscribed(s.GetContext(), cust.ID, &later)
	s.Require().NoError(err)
	s.False(subscribed)
}

func (s *SubscriptionServiceSuite) TestIsSubscribedDuringFreeTrialWithUnpaidInvoice() {
	pkg := s.newPackage(packageOpts{freeTrialDays: 7})
	cust, src := s.newCustomerWithSource()
	s.create(pkg, cust, src)

	// the invoice is pending until the trial ends, but the trial itself
	// counts as subscribed
	subscribed, err := s.service.IsSubscribed(s.GetContext(), cust.ID, nil)
	s.Require().NoError(err)
	s.True(subscribed)
}

func (s *SubscriptionServiceSuite) TestGetRenewalsFiltersInstancesWhichWillNotRenew() {
	pkg := s.newPackage(packageOpts{})
	cust, src := s.newCustomerWithSource()
	inst := s.create(pkg, cust, src).Instance

	due, err := s.service.GetRenewals(s.GetContext(), inst.SubscriptionEnd, false)
	s.Require().NoError(err)
	s.Len(due, 1)

	_, err = s.service.SetAutoRenew(s.GetContext(), inst.ID, false)
	s.Require().NoError(err)

	due, err = s.service.GetRenewals(s.GetContext(), inst.SubscriptionEnd, true)
	s.Require().NoError(err)
	s.Empty(due)

	// unfiltered still returns it
	due, err = s.service.GetRenewals(s.GetContext(), inst.SubscriptionEnd, false)
	s.Require().NoError(err)
	s.Len(due, 1)
}
