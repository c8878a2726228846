package modules

import (
	"context"
	"errors"
	"math/big"

	"github.com/guildgate/syncer/src/utils/provider"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"testing"
)

func TestOwnershipTestSuite(t *testing.T) {
	suite.Run(t, new(OwnershipTestSuite))
}

type OwnershipTestSuite struct {
	suite.Suite
	ctx      context.Context
	cancel   context.CancelFunc
	holdings *fakeHoldings
	balances *fakeBalances
	module   *OwnershipModule
}

type fakeHoldings struct {
	assets map[string][]provider.Asset
	err    error
	calls  int
}

func (self *fakeHoldings) FetchHoldings(ctx context.Context, network, contract, owner string) ([]provider.Asset, error) {
	self.calls++
	if self.err != nil {
		return nil, self.err
	}
	return self.assets[contract], nil
}

type fakeBalances struct {
	balance     *big.Int
	decimals    uint8
	decimalsErr error
}

func (self *fakeBalances) FetchBalance(ctx context.Context, network, contract, owner string) (*big.Int, error) {
	return self.balance, nil
}

func (self *fakeBalances) FetchDecimals(ctx context.Context, network, contract string) (uint8, error) {
	return self.decimals, self.decimalsErr
}

func (s *OwnershipTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.holdings = &fakeHoldings{assets: map[string][]provider.Asset{}}
	s.balances = &fakeBalances{decimals: 18}
	s.module = NewOwnershipModule(s.holdings, s.balances)
}

func (s *OwnershipTestSuite) TearDownTest() {
	s.cancel()
}

func (s *OwnershipTestSuite) request(cfg map[string]string) Request {
	return Request{
		Wallet:  "0xabc",
		Network: "mainnet",
		Config:  cfg,
	}
}

func (s *OwnershipTestSuite) TestNonFungibleOwnership() {
	s.holdings.assets["0xc1"] = []provider.Asset{{"token_id": "1"}}

	eligible, err := s.module.Evaluate(s.ctx, s.request(map[string]string{
		ConfigContractAddress: "0xc1",
	}))
	require.NoError(s.T(), err)
	require.True(s.T(), eligible)

	eligible, err = s.module.Evaluate(s.ctx, s.request(map[string]string{
		ConfigContractAddress: "0xc2",
	}))
	require.NoError(s.T(), err)
	require.False(s.T(), eligible)
}

func (s *OwnershipTestSuite) TestCachedHoldingsSkipFetch() {
	req := s.request(map[string]string{ConfigContractAddress: "0xc1"})
	req.Cached = &CachedData{Holdings: map[string][]provider.Asset{
		"0xc1": {{"token_id": "7"}},
	}}

	eligible, err := s.module.Evaluate(s.ctx, req)
	require.NoError(s.T(), err)
	require.True(s.T(), eligible)
	require.Zero(s.T(), s.holdings.calls)
}

func (s *OwnershipTestSuite) TestCachedEmptyHoldingsAreAuthoritative() {
	req := s.request(map[string]string{ConfigContractAddress: "0xc1"})
	req.Cached = &CachedData{Holdings: map[string][]provider.Asset{
		"0xc1": {},
	}}

	eligible, err := s.module.Evaluate(s.ctx, req)
	require.NoError(s.T(), err)
	require.False(s.T(), eligible)
	require.Zero(s.T(), s.holdings.calls)
}

func (s *OwnershipTestSuite) TestFungibleMinimumScaledByDecimals() {
	cfg := map[string]string{
		ConfigContractAddress: "0xc1",
		ConfigMinBalance:      "5",
	}

	// 5 * 10^18
	threshold, _ := new(big.Int).SetString("5000000000000000000", 10)

	s.balances.balance = threshold
	eligible, err := s.module.Evaluate(s.ctx, s.request(cfg))
	require.NoError(s.T(), err)
	require.True(s.T(), eligible)

	s.balances.balance = new(big.Int).Sub(threshold, big.NewInt(1))
	eligible, err = s.module.Evaluate(s.ctx, s.request(cfg))
	require.NoError(s.T(), err)
	require.False(s.T(), eligible)
}

func (s *OwnershipTestSuite) TestFungibleLargeMinimumIsRaw() {
	cfg := map[string]string{
		ConfigContractAddress: "0xc1",
		ConfigMinBalance:      "2000000000000000000",
	}

	raw, _ := new(big.Int).SetString("2000000000000000000", 10)
	s.balances.balance = raw

	eligible, err := s.module.Evaluate(s.ctx, s.request(cfg))
	require.NoError(s.T(), err)
	require.True(s.T(), eligible)
}

func (s *OwnershipTestSuite) TestDecimalsFailureFallsBackTo18() {
	s.balances.decimalsErr = errors.New("rpc down")
	s.balances.decimals = 0

	threshold, _ := new(big.Int).SetString("5000000000000000000", 10)
	s.balances.balance = threshold

	eligible, err := s.module.Evaluate(s.ctx, s.request(map[string]string{
		ConfigContractAddress: "0xc1",
		ConfigMinBalance:      "5",
	}))
	require.NoError(s.T(), err)
	require.True(s.T(), eligible)
}

func (s *OwnershipTestSuite) TestMissingContractConfig() {
	_, err := s.module.Evaluate(s.ctx, s.request(map[string]string{}))
	require.Error(s.T(), err)
}
