package provider

import (
	"context"
	"fmt"
)

// HoldingsFetcher is implemented by every asset indexer client
type HoldingsFetcher interface {
	FetchHoldings(ctx context.Context, network, contract, owner string) ([]Asset, error)
}

// Router picks the asset indexer configured for a network. Networks keep
// their indexer choice in config, so one deployment can mix providers.
type Router struct {
	byProvider map[string]HoldingsFetcher
	byNetwork  map[string]string
}

func NewRouter() (self *Router) {
	self = new(Router)
	self.byProvider = make(map[string]HoldingsFetcher)
	self.byNetwork = make(map[string]string)
	return
}

func (self *Router) WithProvider(name string, fetcher HoldingsFetcher) *Router {
	self.byProvider[name] = fetcher
	return self
}

func (self *Router) WithNetwork(network, providerName string) *Router {
	self.byNetwork[network] = providerName
	return self
}

func (self *Router) FetchHoldings(ctx context.Context, network, contract, owner string) ([]Asset, error) {
	name, ok := self.byNetwork[network]
	if !ok {
		return nil, fmt.Errorf("no asset provider configured for network %s", network)
	}

	fetcher, ok := self.byProvider[name]
	if !ok {
		return nil, fmt.Errorf("unknown asset provider %s for network %s", name, network)
	}

	return fetcher.FetchHoldings(ctx, network, contract, owner)
}
