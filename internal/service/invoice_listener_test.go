package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/subkit/subkit/internal/api/dto"
	"github.com/subkit/subkit/internal/domain/catalog"
	"github.com/subkit/subkit/internal/domain/customer"
	"github.com/subkit/subkit/internal/domain/invoice"
	"github.com/subkit/subkit/internal/domain/source"
	"github.com/subkit/subkit/internal/domain/subscription"
	"github.com/subkit/subkit/internal/invoicing"
	"github.com/subkit/subkit/internal/pubsub/memory"
	"github.com/subkit/subkit/internal/sentry"
	"github.com/subkit/subkit/internal/testutil"
	"github.com/subkit/subkit/internal/types"
)

type InvoiceListenerSuite struct {
	testutil.BaseServiceTestSuite
	subs     SubscriptionService
	listener *InvoiceListener
}

func TestInvoiceListener(t *testing.T) {
	suite.Run(t, new(InvoiceListenerSuite))
}

func (s *InvoiceListenerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	pubSub := memory.NewPubSub(s.GetConfig(), s.GetLogger())
	bridge := invoicing.NewBridge(stores.InvoiceRepo, s.GetGateway(), pubSub, s.GetConfig(), s.GetLogger())

	params := ServiceParams{
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
	s.subs = NewSubscriptionService(params)
	s.listener = NewInvoiceListener(s.subs, pubSub, s.GetConfig(), s.GetLogger())
}

// pendingRenewal provisions a subscription and renews it with a redirect
// outcome, leaving an unconfirmed successor whose invoice is still pending.
func (s *InvoiceListenerSuite) pendingRenewal() (old, renewed *subscription.Instance) {
	pkg := &catalog.Package{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PACKAGE),
		Label:                  "Gold",
		BillingPeriod:          types.BILLING_PERIOD_MONTH,
		BillingDuration:        1,
		IsActive:               true,
		SupportsAutomaticRenew: true,
		Costs: []*catalog.Cost{
			{
				ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PACKAGE_COST),
				Currency:     "usd",
				ValueNormal:  decimal.RequireFromString("10"),
				ValueInitial: decimal.RequireFromString("5"),
			},
		},
	}
	s.Require().NoError(s.GetStores().CatalogRepo.Create(s.GetContext(), pkg))

	cust := &customer.Customer{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		ExternalID: "ext-1",
		Name:       "Ada",
	}
	s.Require().NoError(s.GetStores().CustomerRepo.Create(s.GetContext(), cust))

	expires := time.Now().UTC().AddDate(2, 0, 0)
	src := &source.Source{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SOURCE),
		CustomerID: cust.ID,
		ExpiresAt:  &expires,
	}
	s.Require().NoError(s.GetStores().SourceRepo.Create(s.GetContext(), src))

	result, err := s.subs.Create(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID:      cust.ID,
		PackageID:       pkg.ID,
		SourceID:        src.ID,
		Currency:        "usd",
		CustomerPresent: true,
	})
	s.Require().NoError(err)
	old = result.Instance

	s.GetGateway().ScriptOutcome(invoice.ChargeOutcome{
		State:       invoice.ChargeStateRedirect,
		RedirectURL: "https://bank.example.com/3ds",
	})
	_, err = s.subs.Renew(s.GetContext(), old.ID, true)
	s.Require().Error(err)

	instances, err := s.GetStores().SubscriptionRepo.ListByCustomer(s.GetContext(), cust.ID)
	s.Require().NoError(err)
	for _, inst := range instances {
		if inst.PreviousInstanceID == old.ID {
			renewed = inst
		}
	}
	s.Require().NotNil(renewed)
	return old, renewed
}

func (s *InvoiceListenerSuite) messageFor(inv *invoice.Invoice) *message.Message {
	body, err := json.Marshal(inv)
	s.Require().NoError(err)
	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.SetContext(s.GetContext())
	return msg
}

func (s *InvoiceListenerSuite) TestSettledInvoiceConfirmsRenewal() {
	old, renewed := s.pendingRenewal()

	// the payer completes the redirect and the invoicing system settles
	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), renewed.InvoiceID)
	s.Require().NoError(err)
	inv.PaymentStatus = types.PaymentStatusPaid
	s.Require().NoError(s.GetStores().InvoiceRepo.Update(s.GetContext(), inv))

	s.Require().NoError(s.listener.processMessage(s.messageFor(inv)))

	oldFresh, err := s.GetStores().SubscriptionRepo.GetBypassCache(s.GetContext(), old.ID)
	s.Require().NoError(err)
	s.Equal(renewed.ID, oldFresh.NextInstanceID)
}

func (s *InvoiceListenerSuite) TestUnpaidInvoiceIsNotRetried() {
	old, renewed := s.pendingRenewal()

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), renewed.InvoiceID)
	s.Require().NoError(err)
	s.Require().False(inv.IsPaid())

	// the engine refuses the confirmation; the listener must not requeue
	s.Require().NoError(s.listener.processMessage(s.messageFor(inv)))

	oldFresh, err := s.GetStores().SubscriptionRepo.GetBypassCache(s.GetContext(), old.ID)
	s.Require().NoError(err)
	s.Empty(oldFresh.NextInstanceID)
}

func (s *InvoiceListenerSuite) TestItemsAreMatchedByCallbackIdentifierOnly() {
	old, renewed := s.pendingRenewal()

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), renewed.InvoiceID)
	s.Require().NoError(err)
	inv.PaymentStatus = types.PaymentStatusPaid

	// a foreign item carrying an instance id under a different identifier
	// must not be treated as a subscription item
	foreign := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		CustomerID:    inv.CustomerID,
		Currency:      "usd",
		PaymentStatus: types.PaymentStatusPaid,
		LineItems: []*invoice.LineItem{
			{
				ID:     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LINE_ITEM),
				Label:  "One off purchase",
				Amount: decimal.RequireFromString("3"),
			},
			{
				ID:     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LINE_ITEM),
				Label:  "Gift voucher",
				Amount: decimal.RequireFromString("25"),
				CallbackData: &invoice.CallbackData{
					Identifier: "VOUCHER_PAYMENT",
					InstanceID: renewed.ID,
				},
			},
		},
	}

	s.Require().NoError(s.listener.processMessage(s.messageFor(foreign)))

	oldFresh, err := s.GetStores().SubscriptionRepo.GetBypassCache(s.GetContext(), old.ID)
	s.Require().NoError(err)
	s.Empty(oldFresh.NextInstanceID, "a foreign invoice must not confirm the renewal")

	// the real invoice still does
	s.Require().NoError(s.GetStores().InvoiceRepo.Update(s.GetContext(), inv))
	s.Require().NoError(s.listener.processMessage(s.messageFor(inv)))

	oldFresh, err = s.GetStores().SubscriptionRepo.GetBypassCache(s.GetContext(), old.ID)
	s.Require().NoError(err)
	s.Equal(renewed.ID, oldFresh.NextInstanceID)
}

func (s *InvoiceListenerSuite) TestInitialTermInvoiceDoesNotConfirmRenewal() {
	old, renewed := s.pendingRenewal()

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), renewed.InvoiceID)
	s.Require().NoError(err)
	inv.PaymentStatus = types.PaymentStatusPaid
	s.Require().NoError(s.GetStores().InvoiceRepo.Update(s.GetContext(), inv))

	// an invoice billing a first term carries an initial-typed item; its
	// settlement must not drive the confirmation path even when the
	// instance it names has a paid invoice on record
	initial := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		CustomerID:    inv.CustomerID,
		Currency:      "usd",
		PaymentStatus: types.PaymentStatusPaid,
		LineItems: []*invoice.LineItem{
			{
				ID:     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LINE_ITEM),
				Label:  "Gold",
				Amount: decimal.RequireFromString("5"),
				CallbackData: &invoice.CallbackData{
					Identifier: invoice.CallbackIdentifier,
					Type:       invoice.CallbackTypeInitial,
					InstanceID: renewed.ID,
				},
			},
		},
	}

	s.Require().NoError(s.listener.processMessage(s.messageFor(initial)))

	oldFresh, err := s.GetStores().SubscriptionRepo.GetBypassCache(s.GetContext(), old.ID)
	s.Require().NoError(err)
	s.Empty(oldFresh.NextInstanceID, "a first-term invoice must not confirm the renewal")

	// the predecessor's own first-term invoice settling likewise leaves
	// the operation log untouched
	before, err := s.GetStores().OplogRepo.ListByInstance(s.GetContext(), old.ID)
	s.Require().NoError(err)

	firstTerm, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), old.InvoiceID)
	s.Require().NoError(err)
	s.Require().True(firstTerm.IsPaid())
	s.Require().NoError(s.listener.processMessage(s.messageFor(firstTerm)))

	after, err := s.GetStores().OplogRepo.ListByInstance(s.GetContext(), old.ID)
	s.Require().NoError(err)
	s.Len(after, len(before))
}

func (s *InvoiceListenerSuite) TestMalformedPayloadIsDropped() {
	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	msg.SetContext(s.GetContext())
	s.Require().NoError(s.listener.processMessage(msg))
}
