package modules

import (
	"context"

	"github.com/guildgate/syncer/src/utils/logger"

	"github.com/sirupsen/logrus"
)

const ModuleWallet = "wallet"

// Config keys understood by the wallet module, both optional
const (
	ConfigInterfaceSignature = "interface_signature"
	ConfigProbeSignature     = "probe_signature"
)

const (
	defaultInterfaceSignature = "supportsInterface(bytes4)"
	defaultProbeSignature     = "getSigner()"
)

// WalletModule detects a specific smart wallet vendor: the address must be a
// contract exposing the wallet interface and answering the vendor identity
// probe. A probe hitting a missing entrypoint means "not this vendor", not an
// error. No transfer event signals a wallet deployment, so this module relies
// entirely on the periodic refresh pass.
type WalletModule struct {
	prober ContractProber
	log    *logrus.Entry
}

func NewWalletModule(prober ContractProber) (self *WalletModule) {
	self = new(WalletModule)
	self.prober = prober
	self.log = logger.NewSublogger("module.wallet")
	return
}

func (self *WalletModule) ID() string {
	return ModuleWallet
}

func (self *WalletModule) RefreshOnTransfer() bool {
	return false
}

func (self *WalletModule) RefreshPeriodically() bool {
	return true
}

func (self *WalletModule) Evaluate(ctx context.Context, req Request) (eligible bool, err error) {
	hasCode, err := self.prober.HasCode(ctx, req.Network, req.Wallet)
	if err != nil || !hasCode {
		return false, err
	}

	interfaceSig := req.Config[ConfigInterfaceSignature]
	if interfaceSig == "" {
		interfaceSig = defaultInterfaceSignature
	}

	implemented, err := self.prober.ProbeMethod(ctx, req.Network, req.Wallet, interfaceSig)
	if err != nil || !implemented {
		return false, err
	}

	probeSig := req.Config[ConfigProbeSignature]
	if probeSig == "" {
		probeSig = defaultProbeSignature
	}

	return self.prober.ProbeMethod(ctx, req.Network, req.Wallet, probeSig)
}
