package modules

import (
	"context"
	"fmt"
	"math/big"

	"github.com/guildgate/syncer/src/utils/logger"

	"github.com/sirupsen/logrus"
)

const ModuleOwnership = "ownership"

// Config keys understood by the ownership module
const (
	ConfigContractAddress = "contract_address"
	ConfigMinBalance      = "min_balance"
)

// Minimum values above this are assumed to already be in raw token units
var rawScaleThreshold = big.NewFloat(1000)

// OwnershipModule grants eligibility when the wallet holds the configured
// token. Non-fungible variant: at least one asset of the contract. Fungible
// variant (min_balance set): raw on-chain balance at or above the configured
// minimum, scaled by the token's decimals.
type OwnershipModule struct {
	holdings HoldingsFetcher
	balances BalanceReader
	log      *logrus.Entry
}

func NewOwnershipModule(holdings HoldingsFetcher, balances BalanceReader) (self *OwnershipModule) {
	self = new(OwnershipModule)
	self.holdings = holdings
	self.balances = balances
	self.log = logger.NewSublogger("module.ownership")
	return
}

func (self *OwnershipModule) ID() string {
	return ModuleOwnership
}

func (self *OwnershipModule) RefreshOnTransfer() bool {
	return true
}

func (self *OwnershipModule) RefreshPeriodically() bool {
	return false
}

func (self *OwnershipModule) Evaluate(ctx context.Context, req Request) (eligible bool, err error) {
	contract, ok := req.Config[ConfigContractAddress]
	if !ok {
		return false, fmt.Errorf("ownership config is missing %s", ConfigContractAddress)
	}

	if minText, ok := req.Config[ConfigMinBalance]; ok {
		return self.evaluateFungible(ctx, req, contract, minText)
	}
	return self.evaluateNonFungible(ctx, req, contract)
}

func (self *OwnershipModule) evaluateNonFungible(ctx context.Context, req Request, contract string) (eligible bool, err error) {
	assets, ok := req.Cached.HoldingsFor(contract)
	if !ok {
		assets, err = self.holdings.FetchHoldings(ctx, req.Network, contract, req.Wallet)
		if err != nil {
			return
		}
	}
	return len(assets) > 0, nil
}

func (self *OwnershipModule) evaluateFungible(ctx context.Context, req Request, contract, minText string) (eligible bool, err error) {
	balance, err := self.balances.FetchBalance(ctx, req.Network, contract, req.Wallet)
	if err != nil {
		return
	}

	minimum, err := self.scaledMinimum(ctx, req.Network, contract, minText)
	if err != nil {
		return
	}

	return balance.Cmp(minimum) >= 0, nil
}

// scaledMinimum converts the human-entered minimum to raw token units.
// Values above 1000 are assumed raw already; everything else is scaled by the
// token's on-chain decimals, falling back to 18 when decimals are unknown.
func (self *OwnershipModule) scaledMinimum(ctx context.Context, network, contract, minText string) (minimum *big.Int, err error) {
	value, ok := new(big.Float).SetString(minText)
	if !ok {
		return nil, fmt.Errorf("invalid minimum balance %q", minText)
	}

	if value.Cmp(rawScaleThreshold) > 0 {
		minimum, _ = value.Int(nil)
		return minimum, nil
	}

	decimals, err := self.balances.FetchDecimals(ctx, network, contract)
	if err != nil {
		self.log.WithError(err).WithField("contract", contract).
			Warn("Could not fetch token decimals, assuming 18")
		decimals = 18
		err = nil
	}

	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	minimum, _ = new(big.Float).Mul(value, scale).Int(nil)
	return minimum, nil
}
