package rolesync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/guildgate/syncer/src/modules"
	"github.com/guildgate/syncer/src/utils/config"
	"github.com/guildgate/syncer/src/utils/model"
	"github.com/guildgate/syncer/src/utils/monitoring"
	"github.com/guildgate/syncer/src/utils/provider"
	"github.com/guildgate/syncer/src/utils/task"

	"github.com/cenkalti/backoff/v4"
)

// Drainer processes one network's queue, one chunk at a time, which keeps the
// watermark monotonic. Members inside a chunk are independent and reconciled
// on a worker pool; their errors are isolated so one bad pair never poisons
// the chunk. After a chunk the watermark is persisted - work between the last
// watermark and a crash may be skipped, the periodic refresh pass is the
// backstop.
type Drainer struct {
	*task.Task

	network  config.Network
	queue    *BlockQueue
	storage  Storage
	registry *modules.Registry
	holdings modules.HoldingsFetcher
	rec      *Reconciler
	monitor  *monitoring.Monitor
}

func NewDrainer(config *config.Config, network config.Network) (self *Drainer) {
	self = new(Drainer)
	self.network = network

	self.Task = task.NewTask(config, "drainer."+network.Name).
		WithSubtaskFunc(self.run).
		WithWorkerPool(config.RoleSyncer.DrainerNumWorkers)

	return
}

func (self *Drainer) WithQueue(v *BlockQueue) *Drainer {
	self.queue = v
	return self
}

func (self *Drainer) WithStorage(v Storage) *Drainer {
	self.storage = v
	return self
}

func (self *Drainer) WithRegistry(v *modules.Registry) *Drainer {
	self.registry = v
	return self
}

func (self *Drainer) WithHoldingsFetcher(v modules.HoldingsFetcher) *Drainer {
	self.holdings = v
	return self
}

func (self *Drainer) WithReconciler(v *Reconciler) *Drainer {
	self.rec = v
	return self
}

func (self *Drainer) WithMonitor(v *monitoring.Monitor) *Drainer {
	self.monitor = v
	return self
}

func (self *Drainer) run() (err error) {
	for {
		chunk, ok := self.queue.Dequeue()
		if !ok {
			select {
			case <-self.StopChannel:
				return nil
			case <-time.After(self.Config.RoleSyncer.QueueBackoff):
			}
			continue
		}

		self.ProcessChunk(self.Ctx, chunk)

		if self.IsStopping.Load() {
			return nil
		}
	}
}

// ProcessChunk reconciles every affected member of one chunk and persists the
// chunk's block as the new watermark, errors notwithstanding.
func (self *Drainer) ProcessChunk(ctx context.Context, chunk *BlockChunk) {
	affected := dedupeMembers(chunk.Affected)

	configs, err := self.storage.GetConfigsByNetwork(ctx, chunk.Network)
	if err != nil {
		self.Log.WithError(err).Error("Failed to load configs for chunk")
		configs = nil
	}

	cache := self.prefetch(ctx, configs, affected)

	var wg sync.WaitGroup
	wg.Add(len(affected))
	for _, am := range affected {
		am := am
		self.SubmitToWorker(func() {
			defer wg.Done()
			self.reconcileMember(ctx, configs, am, cache)
		})
	}
	wg.Wait()

	self.persistWatermark(ctx, chunk)
	self.monitor.GetReport().State.ChunksProcessed.Inc()
}

// prefetch loads holdings once per distinct (contract, owner) pair referenced
// by the chunk's transfer-triggered configs, so provider calls stay
// proportional to distinct contracts instead of members times configs.
func (self *Drainer) prefetch(ctx context.Context, configs []model.ServerConfig, affected []AffectedMember) (cache map[string]map[string][]provider.Asset) {
	cache = make(map[string]map[string][]provider.Asset)

	for _, cfg := range configs {
		module, err := self.registry.Get(cfg.ModuleID)
		if err != nil || !module.RefreshOnTransfer() {
			continue
		}

		contract, ok := cfg.ConfigMap()[modules.ConfigContractAddress]
		if !ok || cache[contract] != nil {
			continue
		}

		byOwner := make(map[string][]provider.Asset, len(affected))
		for _, am := range affected {
			if !am.Member.HasWallet() {
				continue
			}
			owner := *am.Member.WalletAddress
			if _, done := byOwner[owner]; done {
				continue
			}

			assets, err := self.holdings.FetchHoldings(ctx, self.network.Name, contract, owner)
			if err != nil {
				self.monitor.GetReport().Errors.ProviderFailures.Inc()
				self.Log.WithError(err).WithField("contract", contract).
					Warn("Holdings prefetch failed")
				continue
			}
			byOwner[owner] = assets
		}
		cache[contract] = byOwner
	}
	return
}

func (self *Drainer) reconcileMember(ctx context.Context, configs []model.ServerConfig, am AffectedMember, cache map[string]map[string][]provider.Asset) {
	for _, cfg := range configs {
		if cfg.GuildID != am.Member.GuildID {
			continue
		}

		module, err := self.registry.Get(cfg.ModuleID)
		if err != nil {
			// Reconcile logs and counts the skip
			_ = self.rec.Reconcile(ctx, cfg, am.Member, nil)
			continue
		}
		if !module.RefreshOnTransfer() {
			continue
		}

		err = self.rec.Reconcile(ctx, cfg, am.Member, self.cachedFor(am.Member, cache))
		if err != nil {
			self.Log.WithError(err).
				WithField("configId", cfg.ID).
				WithField("userId", am.Member.UserID).
				Error("Failed to reconcile member, continuing with siblings")
		}
	}
}

func (self *Drainer) cachedFor(member model.Member, cache map[string]map[string][]provider.Asset) *modules.CachedData {
	if !member.HasWallet() {
		return nil
	}

	holdings := make(map[string][]provider.Asset, len(cache))
	for contract, byOwner := range cache {
		if assets, ok := byOwner[*member.WalletAddress]; ok {
			holdings[contract] = assets
		}
	}
	if len(holdings) == 0 {
		return nil
	}
	return &modules.CachedData{Holdings: holdings}
}

func (self *Drainer) persistWatermark(ctx context.Context, chunk *BlockChunk) {
	if chunk.LastBlock == 0 {
		return
	}

	err := task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(0).
		WithMaxInterval(self.Config.RoleSyncer.WatermarkMaxBackoffInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if errors.Is(err, context.Canceled) && self.IsStopping.Load() {
				return backoff.Permanent(err)
			}
			self.monitor.GetReport().Errors.WatermarkFailures.Inc()
			self.Log.WithError(err).Warn("Failed to persist watermark, retrying")
			return err
		}).
		Run(func() error {
			return self.storage.SetLastProcessedBlock(ctx, chunk.Network, chunk.LastBlock)
		})
	if err != nil {
		self.Log.WithError(err).WithField("block", chunk.LastBlock).
			Error("Giving up on watermark update")
		return
	}

	self.monitor.GetReport().State.LastProcessedBlock.Store(int64(chunk.LastBlock))
}

// dedupeMembers keeps the first occurrence of each member so a member touched
// by both sides of a transfer is reconciled once per chunk
func dedupeMembers(affected []AffectedMember) (out []AffectedMember) {
	type key struct {
		user    string
		guild   string
		network string
	}

	seen := make(map[key]bool, len(affected))
	out = make([]AffectedMember, 0, len(affected))
	for _, am := range affected {
		k := key{am.Member.UserID, am.Member.GuildID, am.Member.Network}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, am)
	}
	return
}
