package eth

import (
	"errors"
	"strings"

	"github.com/guildgate/syncer/src/utils/config"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// ErrResourceExhausted marks provider-side throttling of the event stream.
// The consumer reacts by skipping one block forward instead of retrying
// the same block indefinitely.
var ErrResourceExhausted = errors.New("stream resource exhausted")

func GetEthClient(log *logrus.Entry, network config.Network) (client *ethclient.Client, err error) {
	client, err = ethclient.Dial(network.RpcUrl)
	if err != nil {
		log.WithError(err).WithField("network", network.Name).Error("Could not connect to RPC endpoint")
		return
	}
	return
}

func GetWsClient(log *logrus.Entry, network config.Network) (client *ethclient.Client, err error) {
	client, err = ethclient.Dial(network.WsUrl)
	if err != nil {
		log.WithError(err).WithField("network", network.Name).Error("Could not connect to websocket endpoint")
		return
	}
	return
}

// IsResourceExhausted recognizes provider throttling in stream errors
func IsResourceExhausted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrResourceExhausted) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "429")
}
