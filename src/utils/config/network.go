package config

import (
	"github.com/spf13/viper"
)

type Network struct {
	// Network identifier, e.g. "mainnet" or "goerli"
	Name string

	// HTTP RPC endpoint
	RpcUrl string

	// Websocket endpoint used for the transfer subscription
	WsUrl string

	// Block the stream starts from when there's no saved watermark
	StartBlock uint64

	// Asset indexer used for this network, a rate limiter budget key
	AssetProvider string
}

func setNetworkDefaults() {
	viper.SetDefault("Networks", []Network{{
		Name:          "mainnet",
		RpcUrl:        "https://eth.llamarpc.com",
		WsUrl:         "wss://eth.llamarpc.com",
		StartBlock:    0,
		AssetProvider: "starkscan",
	}})
}
