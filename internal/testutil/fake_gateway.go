package testutil

import (
	"context"
	"sync"

	"github.com/subkit/subkit/internal/domain/invoice"
)

// FakeGateway is a scriptable payment gateway. Tests set the next outcome or
// error and inspect the charge requests the engine issued.
type FakeGateway struct {
	mu       sync.Mutex
	outcome  invoice.ChargeOutcome
	err      error
	requests []invoice.ChargeRequest
}

// NewFakeGateway creates a gateway that approves every charge
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		outcome: invoice.ChargeOutcome{State: invoice.ChargeStateComplete},
	}
}

// ScriptOutcome sets the outcome returned by subsequent charges
func (g *FakeGateway) ScriptOutcome(outcome invoice.ChargeOutcome) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcome = outcome
	g.err = nil
}

// ScriptError makes subsequent charges fail with an infrastructure error
func (g *FakeGateway) ScriptError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// Requests returns the charge requests seen so far
func (g *FakeGateway) Requests() []invoice.ChargeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]invoice.ChargeRequest(nil), g.requests...)
}

func (g *FakeGateway) Charge(ctx context.Context, req invoice.ChargeRequest) (invoice.ChargeOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	if g.err != nil {
		return invoice.ChargeOutcome{}, g.err
	}
	return g.outcome, nil
}
