package provider

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/guildgate/syncer/src/utils/config"
	"github.com/guildgate/syncer/src/utils/logger"
	"github.com/guildgate/syncer/src/utils/ratelimit"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const ProviderEtherscan = "etherscan"

const erc20AbiJson = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

var erc20Abi abi.ABI

func init() {
	var err error
	erc20Abi, err = abi.JSON(strings.NewReader(erc20AbiJson))
	if err != nil {
		panic(err)
	}
}

// Erc20Client reads token balances and decimals straight from chain RPC.
// Decimals change never, so they are cached per contract.
type Erc20Client struct {
	clients  map[string]*ethclient.Client
	limiter  *ratelimit.Limiter
	decimals *cache.Cache
	log      *logrus.Entry
}

func NewErc20Client(config *config.Config) (self *Erc20Client) {
	self = new(Erc20Client)
	self.log = logger.NewSublogger("erc20")
	self.clients = make(map[string]*ethclient.Client)
	self.decimals = cache.New(config.Provider.DecimalsCacheTTL, 2*config.Provider.DecimalsCacheTTL)
	return
}

func (self *Erc20Client) WithLimiter(v *ratelimit.Limiter) *Erc20Client {
	self.limiter = v
	return self
}

func (self *Erc20Client) WithNetworkClient(network string, client *ethclient.Client) *Erc20Client {
	self.clients[network] = client
	return self
}

func (self *Erc20Client) client(network string) (client *ethclient.Client, err error) {
	client, ok := self.clients[network]
	if !ok {
		err = fmt.Errorf("no RPC client for network %s", network)
	}
	return
}

func (self *Erc20Client) FetchBalance(ctx context.Context, network, contract, owner string) (balance *big.Int, err error) {
	client, err := self.client(network)
	if err != nil {
		return
	}

	data, err := erc20Abi.Pack("balanceOf", common.HexToAddress(owner))
	if err != nil {
		return
	}

	var out []byte
	err = self.limiter.RunThrottled(ctx, ProviderEtherscan, func() (err error) {
		out, err = self.call(ctx, client, contract, data)
		return
	})
	if err != nil {
		return
	}

	results, err := erc20Abi.Unpack("balanceOf", out)
	if err != nil {
		return
	}

	balance, ok := results[0].(*big.Int)
	if !ok {
		err = fmt.Errorf("unexpected balanceOf result type")
	}
	return
}

func (self *Erc20Client) FetchDecimals(ctx context.Context, network, contract string) (decimals uint8, err error) {
	key := network + ":" + contract
	if cached, ok := self.decimals.Get(key); ok {
		return cached.(uint8), nil
	}

	client, err := self.client(network)
	if err != nil {
		return
	}

	data, err := erc20Abi.Pack("decimals")
	if err != nil {
		return
	}

	var out []byte
	err = self.limiter.RunThrottled(ctx, ProviderEtherscan, func() (err error) {
		out, err = self.call(ctx, client, contract, data)
		return
	})
	if err != nil {
		return
	}

	results, err := erc20Abi.Unpack("decimals", out)
	if err != nil {
		return
	}

	decimals, ok := results[0].(uint8)
	if !ok {
		err = fmt.Errorf("unexpected decimals result type")
		return
	}

	self.decimals.SetDefault(key, decimals)
	return
}

// ProbeMethod calls a contract method given by its textual signature and
// reports whether the call executed at all. A revert means the contract does
// not implement the method, which callers treat as a negative answer rather
// than an error.
func (self *Erc20Client) ProbeMethod(ctx context.Context, network, contract, signature string) (implemented bool, err error) {
	client, err := self.client(network)
	if err != nil {
		return
	}

	selector := crypto.Keccak256([]byte(signature))[:4]

	err = self.limiter.RunThrottled(ctx, ProviderEtherscan, func() (err error) {
		_, err = self.call(ctx, client, contract, selector)
		return
	})
	if err != nil {
		if isEntrypointNotFound(err) {
			return false, nil
		}
		return
	}
	return true, nil
}

// HasCode reports whether the address is a contract at all
func (self *Erc20Client) HasCode(ctx context.Context, network, address string) (ok bool, err error) {
	client, err := self.client(network)
	if err != nil {
		return
	}

	var code []byte
	err = self.limiter.RunThrottled(ctx, ProviderEtherscan, func() (err error) {
		code, err = client.CodeAt(ctx, common.HexToAddress(address), nil)
		return
	})
	if err != nil {
		return
	}
	return len(code) > 0, nil
}

func (self *Erc20Client) call(ctx context.Context, client *ethclient.Client, contract string, data []byte) ([]byte, error) {
	to := common.HexToAddress(contract)
	return client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

func isEntrypointNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "entrypoint") && strings.Contains(msg, "not found")
}
