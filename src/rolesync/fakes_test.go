package rolesync

import (
	"context"
	"errors"
	"sync"

	"github.com/guildgate/syncer/src/modules"
	"github.com/guildgate/syncer/src/utils/model"
	"github.com/guildgate/syncer/src/utils/provider"
)

var errDbDown = errors.New("db down")

type fakeStorage struct {
	mtx sync.Mutex

	watermarks     map[string]uint64
	configs        []model.ServerConfig
	members        map[string][]model.Member // keyed by network + "/" + wallet
	activeMembers  map[string][]model.Member // keyed by guild + "/" + network
	deletedMembers []uint
	deletedConfigs []uint
	watermarkErrs  int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		watermarks:    make(map[string]uint64),
		members:       make(map[string][]model.Member),
		activeMembers: make(map[string][]model.Member),
	}
}

func (self *fakeStorage) EnsureNetworkStatus(ctx context.Context, network string, defaultBlock uint64) (uint64, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if block, ok := self.watermarks[network]; ok {
		return block, nil
	}
	self.watermarks[network] = defaultBlock
	return defaultBlock, nil
}

func (self *fakeStorage) SetLastProcessedBlock(ctx context.Context, network string, block uint64) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.watermarkErrs > 0 {
		self.watermarkErrs--
		return errDbDown
	}
	if self.watermarks[network] < block {
		self.watermarks[network] = block
	}
	return nil
}

func (self *fakeStorage) GetConfigs(ctx context.Context) ([]model.ServerConfig, error) {
	return self.configs, nil
}

func (self *fakeStorage) GetConfigsByNetwork(ctx context.Context, network string) (out []model.ServerConfig, err error) {
	for _, cfg := range self.configs {
		if cfg.Network == network {
			out = append(out, cfg)
		}
	}
	return
}

func (self *fakeStorage) DeleteConfig(ctx context.Context, id uint) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.deletedConfigs = append(self.deletedConfigs, id)
	return nil
}

func (self *fakeStorage) GetMembersByWallet(ctx context.Context, network, wallet string) ([]model.Member, error) {
	return self.members[network+"/"+wallet], nil
}

func (self *fakeStorage) GetActiveMembers(ctx context.Context, guildID, network string) ([]model.Member, error) {
	return self.activeMembers[guildID+"/"+network], nil
}

func (self *fakeStorage) DeleteMember(ctx context.Context, id uint) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.deletedMembers = append(self.deletedMembers, id)
	return nil
}

// fakeRoles records grants and revokes and can fail with a canned error
type fakeRoles struct {
	mtx sync.Mutex

	grants    []string
	revokes   []string
	grantErr  error
	revokeErr error
}

func (self *fakeRoles) GrantRole(guildID, roleID, userID string) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.grantErr != nil {
		return self.grantErr
	}
	self.grants = append(self.grants, guildID+"/"+roleID+"/"+userID)
	return nil
}

func (self *fakeRoles) RevokeRole(guildID, roleID, userID string) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.revokeErr != nil {
		return self.revokeErr
	}
	self.revokes = append(self.revokes, guildID+"/"+roleID+"/"+userID)
	return nil
}

// fakeModule answers eligibility per wallet address
type fakeModule struct {
	id          string
	onTransfer  bool
	periodic    bool
	eligible    map[string]bool
	evaluateErr error

	mtx       sync.Mutex
	evaluated []modules.Request
}

func (self *fakeModule) ID() string                { return self.id }
func (self *fakeModule) RefreshOnTransfer() bool   { return self.onTransfer }
func (self *fakeModule) RefreshPeriodically() bool { return self.periodic }

func (self *fakeModule) Evaluate(ctx context.Context, req modules.Request) (bool, error) {
	self.mtx.Lock()
	self.evaluated = append(self.evaluated, req)
	self.mtx.Unlock()
	if self.evaluateErr != nil {
		return false, self.evaluateErr
	}
	return self.eligible[req.Wallet], nil
}

// fakeFetcher counts holdings calls per (contract, owner) pair
type fakeFetcher struct {
	mtx    sync.Mutex
	assets map[string][]provider.Asset // keyed by contract + "/" + owner
	calls  map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		assets: make(map[string][]provider.Asset),
		calls:  make(map[string]int),
	}
}

func (self *fakeFetcher) FetchHoldings(ctx context.Context, network, contract, owner string) ([]provider.Asset, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	key := contract + "/" + owner
	self.calls[key]++
	return self.assets[key], nil
}

func wallet(addr string) *string {
	return &addr
}
