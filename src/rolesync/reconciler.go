package rolesync

import (
	"context"
	"errors"

	"github.com/guildgate/syncer/src/modules"
	"github.com/guildgate/syncer/src/utils/discord"
	"github.com/guildgate/syncer/src/utils/logger"
	"github.com/guildgate/syncer/src/utils/model"
	"github.com/guildgate/syncer/src/utils/monitoring"

	"github.com/sirupsen/logrus"
)

// Reconciler computes eligibility for one (config, member) pair and applies
// the minimal grant or revoke. Platform consistency errors ("user left",
// "role deleted") are absorbed by deleting the stale record instead of being
// propagated.
type Reconciler struct {
	storage  Storage
	registry *modules.Registry
	roles    discord.RoleManager
	monitor  *monitoring.Monitor
	log      *logrus.Entry
}

func NewReconciler(storage Storage, registry *modules.Registry, roles discord.RoleManager) (self *Reconciler) {
	self = new(Reconciler)
	self.storage = storage
	self.registry = registry
	self.roles = roles
	self.log = logger.NewSublogger("reconciler")
	return
}

func (self *Reconciler) WithMonitor(v *monitoring.Monitor) *Reconciler {
	self.monitor = v
	return self
}

// Reconcile evaluates one pair. cached may be nil, in which case the module
// fetches provider data itself.
func (self *Reconciler) Reconcile(ctx context.Context, cfg model.ServerConfig, member model.Member, cached *modules.CachedData) (err error) {
	// Nothing to decide before the wallet is verified
	if !member.HasWallet() {
		return nil
	}
	if member.Network != cfg.Network {
		return nil
	}

	module, err := self.registry.Get(cfg.ModuleID)
	if err != nil {
		// Bad config, skip it and leave siblings alone
		self.log.WithError(err).
			WithField("configId", cfg.ID).
			WithField("moduleId", cfg.ModuleID).
			Error("Config references unknown module, skipping")
		if self.monitor != nil {
			self.monitor.GetReport().Errors.ConfigsSkipped.Inc()
		}
		return nil
	}

	// Deletion takes precedence over the module's answer: a soft-deleted
	// member always loses the role, even if chain state would grant it
	eligible := false
	if !member.IsDeleted() {
		eligible, err = module.Evaluate(ctx, modules.Request{
			Wallet:  *member.WalletAddress,
			Network: cfg.Network,
			Config:  cfg.ConfigMap(),
			Cached:  cached,
		})
		if err != nil {
			self.log.WithError(err).
				WithField("configId", cfg.ID).
				WithField("userId", member.UserID).
				Error("Module evaluation failed")
			if self.monitor != nil {
				self.monitor.GetReport().Errors.ReconcileFailures.Inc()
			}
			return
		}
	}

	err = self.apply(ctx, cfg, member, eligible)
	if err != nil {
		return
	}

	if member.IsDeleted() {
		// Role is revoked by now, the binding can be purged
		err = self.storage.DeleteMember(ctx, member.ID)
		if err != nil {
			return
		}
	}

	if self.monitor != nil {
		self.monitor.GetReport().State.MembersReconciled.Inc()
	}
	return nil
}

func (self *Reconciler) apply(ctx context.Context, cfg model.ServerConfig, member model.Member, eligible bool) (err error) {
	if eligible {
		err = self.roles.GrantRole(cfg.GuildID, cfg.RoleID, member.UserID)
	} else {
		err = self.roles.RevokeRole(cfg.GuildID, cfg.RoleID, member.UserID)
	}

	switch {
	case err == nil:
		if self.monitor != nil {
			if eligible {
				self.monitor.GetReport().State.RolesGranted.Inc()
			} else {
				self.monitor.GetReport().State.RolesRevoked.Inc()
			}
		}
		return nil

	case errors.Is(err, discord.ErrMemberGone):
		self.log.WithField("userId", member.UserID).
			WithField("guildId", cfg.GuildID).
			Info("Member left the guild, removing binding")
		if self.monitor != nil {
			self.monitor.GetReport().State.StaleMembersDeleted.Inc()
		}
		return self.storage.DeleteMember(ctx, member.ID)

	case errors.Is(err, discord.ErrRoleGone):
		self.log.WithField("roleId", cfg.RoleID).
			WithField("guildId", cfg.GuildID).
			Info("Role was deleted, removing config")
		if self.monitor != nil {
			self.monitor.GetReport().State.StaleConfigsDeleted.Inc()
		}
		return self.storage.DeleteConfig(ctx, cfg.ID)

	default:
		if self.monitor != nil {
			self.monitor.GetReport().Errors.ReconcileFailures.Inc()
		}
		return err
	}
}

// ReconcileOneMember is the manual trigger behind admin refresh commands
func (self *Reconciler) ReconcileOneMember(ctx context.Context, cfg model.ServerConfig, member model.Member) error {
	return self.Reconcile(ctx, cfg, member, nil)
}

// ReconcileAllConfigsForMember re-evaluates one member against every config
// of their guild and network
func (self *Reconciler) ReconcileAllConfigsForMember(ctx context.Context, member model.Member) (err error) {
	configs, err := self.storage.GetConfigsByNetwork(ctx, member.Network)
	if err != nil {
		return
	}

	for _, cfg := range configs {
		if cfg.GuildID != member.GuildID {
			continue
		}
		err := self.Reconcile(ctx, cfg, member, nil)
		if err != nil {
			self.log.WithError(err).WithField("configId", cfg.ID).
				Error("Failed to reconcile config for member")
		}
	}
	return nil
}
