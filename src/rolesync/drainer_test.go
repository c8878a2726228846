package rolesync

import (
	"context"

	"github.com/guildgate/syncer/src/modules"
	"github.com/guildgate/syncer/src/utils/config"
	"github.com/guildgate/syncer/src/utils/model"
	"github.com/guildgate/syncer/src/utils/monitoring"
	"github.com/guildgate/syncer/src/utils/provider"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"testing"
)

func TestDrainerTestSuite(t *testing.T) {
	suite.Run(t, new(DrainerTestSuite))
}

type DrainerTestSuite struct {
	suite.Suite
	ctx     context.Context
	cancel  context.CancelFunc
	config  *config.Config
	storage *fakeStorage
	roles   *fakeRoles
	module  *fakeModule
	fetcher *fakeFetcher
	drainer *Drainer
}

func (s *DrainerTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = config.Default()
	s.storage = newFakeStorage()
	s.roles = &fakeRoles{}
	s.fetcher = newFakeFetcher()
	s.module = &fakeModule{
		id:         "ownership",
		onTransfer: true,
		eligible:   map[string]bool{},
	}

	registry := modules.NewRegistry(s.module)
	network := config.Network{Name: "mainnet"}

	s.drainer = NewDrainer(s.config, network).
		WithQueue(NewBlockQueue()).
		WithStorage(s.storage).
		WithRegistry(registry).
		WithHoldingsFetcher(s.fetcher).
		WithReconciler(NewReconciler(s.storage, registry, s.roles)).
		WithMonitor(monitoring.NewMonitor())
}

func (s *DrainerTestSuite) TearDownTest() {
	s.cancel()
}

func (s *DrainerTestSuite) addConfig(id uint, contract string) {
	cfg := model.ServerConfig{
		ID:       id,
		GuildID:  "guild-1",
		RoleID:   "role-1",
		Network:  "mainnet",
		ModuleID: "ownership",
	}
	err := cfg.SetConfigMap(map[string]string{
		modules.ConfigContractAddress: contract,
	})
	require.NoError(s.T(), err)
	s.storage.configs = append(s.storage.configs, cfg)
}

func (s *DrainerTestSuite) chunk(members ...model.Member) *BlockChunk {
	chunk := &BlockChunk{Network: "mainnet", LastBlock: 100}
	for _, m := range members {
		chunk.Affected = append(chunk.Affected, AffectedMember{Member: m})
	}
	return chunk
}

func (s *DrainerTestSuite) member(id uint, user, walletAddr string) model.Member {
	return model.Member{
		ID:            id,
		UserID:        user,
		GuildID:       "guild-1",
		Network:       "mainnet",
		WalletAddress: wallet(walletAddr),
	}
}

func (s *DrainerTestSuite) TestMembersDedupedWithinChunk() {
	s.addConfig(1, "0xc1")
	member := s.member(1, "user-1", "0xaaa")

	s.drainer.ProcessChunk(s.ctx, s.chunk(member, member, member))

	require.Len(s.T(), s.module.evaluated, 1)
}

func (s *DrainerTestSuite) TestHoldingsFetchedOncePerContractAndOwner() {
	// Two configs watching the same contract share one fetch per owner
	s.addConfig(1, "0xc1")
	s.addConfig(2, "0xc1")
	s.addConfig(3, "0xc2")

	s.fetcher.assets["0xc1/0xaaa"] = []provider.Asset{{"token_id": "1"}}

	s.drainer.ProcessChunk(s.ctx, s.chunk(
		s.member(1, "user-1", "0xaaa"),
		s.member(2, "user-2", "0xbbb"),
	))

	require.Equal(s.T(), 1, s.fetcher.calls["0xc1/0xaaa"])
	require.Equal(s.T(), 1, s.fetcher.calls["0xc1/0xbbb"])
	require.Equal(s.T(), 1, s.fetcher.calls["0xc2/0xaaa"])
	require.Equal(s.T(), 1, s.fetcher.calls["0xc2/0xbbb"])

	// Every (config, member) pair evaluated, all from the shared cache
	require.Len(s.T(), s.module.evaluated, 6)
	for _, req := range s.module.evaluated {
		require.NotNil(s.T(), req.Cached)
	}
}

func (s *DrainerTestSuite) TestCachedHoldingsReachTheModule() {
	s.addConfig(1, "0xc1")
	s.fetcher.assets["0xc1/0xaaa"] = []provider.Asset{{"token_id": "7"}}

	s.drainer.ProcessChunk(s.ctx, s.chunk(s.member(1, "user-1", "0xaaa")))

	require.Len(s.T(), s.module.evaluated, 1)
	assets, ok := s.module.evaluated[0].Cached.HoldingsFor("0xc1")
	require.True(s.T(), ok)
	require.Len(s.T(), assets, 1)
}

func (s *DrainerTestSuite) TestWatermarkAdvancesAfterChunk() {
	s.addConfig(1, "0xc1")

	s.drainer.ProcessChunk(s.ctx, s.chunk(s.member(1, "user-1", "0xaaa")))

	require.Equal(s.T(), uint64(100), s.storage.watermarks["mainnet"])
}

func (s *DrainerTestSuite) TestWatermarkRetriesTransientFailure() {
	s.storage.watermarkErrs = 1

	s.drainer.ProcessChunk(s.ctx, s.chunk())

	require.Equal(s.T(), uint64(100), s.storage.watermarks["mainnet"])
}

func (s *DrainerTestSuite) TestMemberErrorDoesNotBlockSiblings() {
	s.addConfig(1, "0xc1")
	s.module.evaluateErr = errDbDown

	s.drainer.ProcessChunk(s.ctx, s.chunk(
		s.member(1, "user-1", "0xaaa"),
		s.member(2, "user-2", "0xbbb"),
	))

	// Both members attempted despite failures, watermark still advances
	require.Len(s.T(), s.module.evaluated, 2)
	require.Equal(s.T(), uint64(100), s.storage.watermarks["mainnet"])
}
