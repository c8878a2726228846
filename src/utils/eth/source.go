package eth

import (
	"context"
	"strings"

	"github.com/guildgate/syncer/src/utils/config"
	"github.com/guildgate/syncer/src/utils/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// TransferEvent is one decoded token transfer, addresses normalized to lowercase hex
type TransferEvent struct {
	Network  string
	Block    uint64
	Contract string
	From     string
	To       string
}

// TransferSource is one network's stream of transfer events.
// Subscribe starts emitting at fromBlock; stream errors arrive on the error
// channel and terminate the subscription.
type TransferSource interface {
	Subscribe(ctx context.Context, fromBlock uint64) (<-chan TransferEvent, <-chan error, error)
}

var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// EvmTransferSource streams ERC-20/ERC-721 Transfer logs over a websocket
// subscription, backfilled from fromBlock with a filter query.
type EvmTransferSource struct {
	network     config.Network
	client      *ethclient.Client
	channelSize int
	log         *logrus.Entry
}

func NewEvmTransferSource(network config.Network, client *ethclient.Client) (self *EvmTransferSource) {
	self = new(EvmTransferSource)
	self.network = network
	self.client = client
	self.log = logger.NewSublogger("transfer-source." + network.Name)
	return
}

// WithChannelSize buffers decoded events so short reconciliation stalls do
// not back up the websocket read loop
func (self *EvmTransferSource) WithChannelSize(v int) *EvmTransferSource {
	self.channelSize = v
	return self
}

func (self *EvmTransferSource) Subscribe(ctx context.Context, fromBlock uint64) (<-chan TransferEvent, <-chan error, error) {
	events := make(chan TransferEvent, self.channelSize)
	errs := make(chan error, 1)

	logs := make(chan types.Log)
	query := ethereum.FilterQuery{
		Topics: [][]common.Hash{{transferTopic}},
	}

	sub, err := self.client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return nil, nil, self.mapError(err)
	}

	go func() {
		defer close(events)
		defer sub.Unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				errs <- self.mapError(err)
				return
			case l := <-logs:
				if l.BlockNumber < fromBlock || len(l.Topics) < 3 {
					continue
				}
				select {
				case <-ctx.Done():
					return
				case events <- self.decode(l):
				}
			}
		}
	}()

	return events, errs, nil
}

func (self *EvmTransferSource) decode(l types.Log) TransferEvent {
	return TransferEvent{
		Network:  self.network.Name,
		Block:    l.BlockNumber,
		Contract: NormalizeAddress(l.Address.Hex()),
		From:     NormalizeAddress(common.HexToAddress(l.Topics[1].Hex()).Hex()),
		To:       NormalizeAddress(common.HexToAddress(l.Topics[2].Hex()).Hex()),
	}
}

func (self *EvmTransferSource) mapError(err error) error {
	if IsResourceExhausted(err) {
		return ErrResourceExhausted
	}
	return err
}

// NormalizeAddress lowercases hex addresses so member lookups are exact matches
func NormalizeAddress(address string) string {
	return strings.ToLower(address)
}
