package config

import (
	"time"

	"github.com/spf13/viper"
)

type Discord struct {
	// Bot token, required
	Token string

	// Timeout for role API requests
	RequestTimeout time.Duration
}

func setDiscordDefaults() {
	viper.SetDefault("Discord.Token", "")
	viper.SetDefault("Discord.RequestTimeout", "15s")
}
