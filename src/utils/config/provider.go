package config

import (
	"time"

	"github.com/spf13/viper"
)

type Provider struct {
	// Starkscan-compatible NFT indexer
	StarkscanUrl    string
	StarkscanApiKey string

	// Page size requested from the indexer
	StarkscanPageSize int

	// Custom HTTP asset API, owner address is appended as a query param
	CustomHttpUrl string

	// Timeout for provider HTTP requests
	HttpRequestTimeout time.Duration

	// How long fetched token decimals stay cached
	DecimalsCacheTTL time.Duration
}

func setProviderDefaults() {
	viper.SetDefault("Provider.StarkscanUrl", "https://api.starkscan.co/api/v0")
	viper.SetDefault("Provider.StarkscanApiKey", "")
	viper.SetDefault("Provider.StarkscanPageSize", 100)
	viper.SetDefault("Provider.CustomHttpUrl", "")
	viper.SetDefault("Provider.HttpRequestTimeout", "30s")
	viper.SetDefault("Provider.DecimalsCacheTTL", "24h")
}
