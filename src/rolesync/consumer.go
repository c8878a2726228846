package rolesync

import (
	"errors"
	"time"

	"github.com/guildgate/syncer/src/utils/config"
	"github.com/guildgate/syncer/src/utils/eth"
	"github.com/guildgate/syncer/src/utils/monitoring"
	"github.com/guildgate/syncer/src/utils/task"
)

// Consumer is one network's long lived transfer stream subscription.
// It resolves transfer addresses to stored members, batches them into block
// aligned chunks and seals each chunk onto the queue. Sealed chunks are never
// re-delivered: failures inside reconciliation do not cause chain level
// replay.
type Consumer struct {
	*task.Task

	network config.Network
	source  eth.TransferSource
	storage Storage
	queue   *BlockQueue
	monitor *monitoring.Monitor

	// Last block seen on the stream, the resubscription point
	cursor uint64

	current *BlockChunk
}

func NewConsumer(config *config.Config, network config.Network) (self *Consumer) {
	self = new(Consumer)
	self.network = network

	self.Task = task.NewTask(config, "consumer."+network.Name).
		WithSubtaskFunc(self.run).
		WithOnBeforeStart(self.initCursor)

	return
}

func (self *Consumer) WithSource(v eth.TransferSource) *Consumer {
	self.source = v
	return self
}

func (self *Consumer) WithStorage(v Storage) *Consumer {
	self.storage = v
	return self
}

func (self *Consumer) WithQueue(v *BlockQueue) *Consumer {
	self.queue = v
	return self
}

func (self *Consumer) WithMonitor(v *monitoring.Monitor) *Consumer {
	self.monitor = v
	return self
}

func (self *Consumer) initCursor() (err error) {
	self.cursor, err = self.storage.EnsureNetworkStatus(self.Ctx, self.network.Name, self.network.StartBlock)
	if err != nil {
		self.Log.WithError(err).Error("Failed to load network watermark")
		return
	}

	self.current = &BlockChunk{Network: self.network.Name}

	self.Log.WithField("block", self.cursor).Info("Stream starting")
	return
}

func (self *Consumer) run() (err error) {
	for {
		if self.IsStopping.Load() {
			return nil
		}

		err = self.consume()
		if err == nil {
			// Context cancelled, we're stopping
			return nil
		}

		self.monitor.GetReport().Errors.StreamFailures.Inc()

		if errors.Is(err, eth.ErrResourceExhausted) {
			// Retrying the same block would starve forever, skip one forward
			self.cursor++
			self.Log.WithField("block", self.cursor).
				Warn("Stream resource exhausted, skipping one block forward")
			continue
		}

		self.Log.WithError(err).Error("Stream failed, reconnecting")
		select {
		case <-self.StopChannel:
			return nil
		case <-time.After(self.Config.RoleSyncer.StreamBackoff):
		}
	}
}

// consume runs one subscription until it errors or the task stops.
// A nil return means we're shutting down.
func (self *Consumer) consume() (err error) {
	events, errs, err := self.source.Subscribe(self.Ctx, self.cursor+1)
	if err != nil {
		return
	}

	for {
		select {
		case <-self.StopChannel:
			return nil
		case err = <-errs:
			return
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			self.handle(ev)
		}
	}
}

func (self *Consumer) handle(ev eth.TransferEvent) {
	self.monitor.GetReport().State.StreamEventsDecoded.Inc()
	self.cursor = ev.Block

	self.append(ev, ev.From)
	self.append(ev, ev.To)

	if self.current.LastBlock < ev.Block {
		self.current.LastBlock = ev.Block
	}

	// Chunks are aligned to block boundaries
	if ev.Block%self.Config.RoleSyncer.ChunkSize == 0 {
		self.seal()
	}
}

func (self *Consumer) append(ev eth.TransferEvent, wallet string) {
	if wallet == "" {
		return
	}

	members, err := self.storage.GetMembersByWallet(self.Ctx, self.network.Name, eth.NormalizeAddress(wallet))
	if err != nil {
		self.Log.WithError(err).WithField("wallet", wallet).
			Error("Failed to resolve wallet to members")
		return
	}

	for _, member := range members {
		self.current.Affected = append(self.current.Affected, AffectedMember{
			Member:   member,
			Contract: ev.Contract,
		})
	}
}

func (self *Consumer) seal() {
	if len(self.current.Affected) == 0 && self.current.LastBlock == 0 {
		return
	}

	self.queue.Enqueue(self.current)
	self.monitor.GetReport().State.ChunksEnqueued.Inc()

	self.Log.WithField("block", self.current.LastBlock).
		WithField("members", len(self.current.Affected)).
		Debug("Chunk sealed")

	self.current = &BlockChunk{Network: self.network.Name}
}
