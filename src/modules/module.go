package modules

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/guildgate/syncer/src/utils/provider"
)

// ErrUnknownModule is returned when a config references a module id that is
// not registered. The offending config is skipped by callers, never fatal.
var ErrUnknownModule = errors.New("unknown module")

// Request carries everything a module needs to decide eligibility.
// When Cached holds pre-fetched data for the configured contract the module
// must use it instead of calling the provider again.
type Request struct {
	Wallet  string
	Network string
	Config  map[string]string
	Cached  *CachedData
}

// CachedData is provider data fetched once per chunk and shared between
// members, keyed by contract address.
type CachedData struct {
	Holdings map[string][]provider.Asset
}

func (self *CachedData) HoldingsFor(contract string) (assets []provider.Asset, ok bool) {
	if self == nil {
		return nil, false
	}
	assets, ok = self.Holdings[contract]
	return
}

// Module is one pluggable eligibility rule.
type Module interface {
	ID() string

	// Evaluate decides whether the wallet qualifies for the bound role
	Evaluate(ctx context.Context, req Request) (eligible bool, err error)

	// RefreshOnTransfer marks modules re-evaluated on every relevant transfer event
	RefreshOnTransfer() bool

	// RefreshPeriodically marks modules swept by the periodic scheduler
	RefreshPeriodically() bool
}

// HoldingsFetcher returns an owner's normalized asset list for one contract
type HoldingsFetcher interface {
	FetchHoldings(ctx context.Context, network, contract, owner string) ([]provider.Asset, error)
}

// BalanceReader reads fungible token state from chain RPC
type BalanceReader interface {
	FetchBalance(ctx context.Context, network, contract, owner string) (*big.Int, error)
	FetchDecimals(ctx context.Context, network, contract string) (uint8, error)
}

// ContractProber answers whether an address implements given entrypoints
type ContractProber interface {
	HasCode(ctx context.Context, network, address string) (bool, error)
	ProbeMethod(ctx context.Context, network, contract, signature string) (bool, error)
}

// Registry resolves module ids to implementations.
type Registry struct {
	modules map[string]Module
}

func NewRegistry(modules ...Module) (self *Registry) {
	self = new(Registry)
	self.modules = make(map[string]Module, len(modules))
	for _, m := range modules {
		self.modules[m.ID()] = m
	}
	return
}

func (self *Registry) Get(id string) (module Module, err error) {
	module, ok := self.modules[id]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}
	return
}

// All returns every registered module
func (self *Registry) All() (out []Module) {
	out = make([]Module, 0, len(self.modules))
	for _, m := range self.modules {
		out = append(out, m)
	}
	return
}
