package rolesync

import (
	"github.com/guildgate/syncer/src/modules"
	"github.com/guildgate/syncer/src/utils/config"
	"github.com/guildgate/syncer/src/utils/monitoring"
	"github.com/guildgate/syncer/src/utils/task"
)

// Scheduler periodically re-evaluates configs whose module state can drift
// without any on-chain transfer, e.g. wallet heuristics. It is the safety net
// for work missed between the watermark and a crash.
type Scheduler struct {
	*task.Task

	storage  Storage
	registry *modules.Registry
	rec      *Reconciler
	monitor  *monitoring.Monitor
}

func NewScheduler(config *config.Config) (self *Scheduler) {
	self = new(Scheduler)

	self.Task = task.NewTask(config, "scheduler").
		WithPeriodicSubtaskFunc(config.RoleSyncer.RefreshInterval, self.runPass)

	return
}

func (self *Scheduler) WithStorage(v Storage) *Scheduler {
	self.storage = v
	return self
}

func (self *Scheduler) WithRegistry(v *modules.Registry) *Scheduler {
	self.registry = v
	return self
}

func (self *Scheduler) WithReconciler(v *Reconciler) *Scheduler {
	self.rec = v
	return self
}

func (self *Scheduler) WithMonitor(v *monitoring.Monitor) *Scheduler {
	self.monitor = v
	return self
}

func (self *Scheduler) runPass() (err error) {
	configs, err := self.storage.GetConfigs(self.Ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to load configs for refresh pass")
		return nil
	}

	for _, cfg := range configs {
		if self.IsStopping.Load() {
			return nil
		}

		module, err := self.registry.Get(cfg.ModuleID)
		if err != nil {
			self.monitor.GetReport().Errors.ConfigsSkipped.Inc()
			self.Log.WithField("moduleId", cfg.ModuleID).WithField("configId", cfg.ID).
				Warn("Unknown module id, skipping config")
			continue
		}
		if !module.RefreshPeriodically() {
			continue
		}

		members, err := self.storage.GetActiveMembers(self.Ctx, cfg.GuildID, cfg.Network)
		if err != nil {
			self.Log.WithError(err).WithField("configId", cfg.ID).
				Error("Failed to load members for refresh, skipping config")
			continue
		}

		for _, member := range members {
			if self.IsStopping.Load() {
				return nil
			}

			err = self.rec.Reconcile(self.Ctx, cfg, member, nil)
			if err != nil {
				self.Log.WithError(err).
					WithField("configId", cfg.ID).
					WithField("userId", member.UserID).
					Error("Failed to refresh member, continuing")
			}
		}
	}

	self.monitor.GetReport().State.RefreshPassesRun.Inc()
	return nil
}
