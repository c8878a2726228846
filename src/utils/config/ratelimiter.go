package config

import (
	"time"

	"github.com/spf13/viper"
)

type RateLimiter struct {
	// Length of one admission window. Budgets reset when it elapses.
	Window time.Duration

	// Max number of calls per window, keyed by provider name.
	// A provider missing from this map may not be called at all.
	Budgets map[string]int
}

func setRateLimiterDefaults() {
	viper.SetDefault("RateLimiter.Window", "1s")
	viper.SetDefault("RateLimiter.Budgets", map[string]int{
		"starkscan":   5,
		"etherscan":   5,
		"custom-http": 10,
	})
}
