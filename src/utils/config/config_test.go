package config

import (
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"testing"
)

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

type ConfigTestSuite struct {
	suite.Suite
}

func (s *ConfigTestSuite) TestDefaults() {
	config := Default()
	require.NotNil(s.T(), config)

	require.Equal(s.T(), uint64(5), config.RoleSyncer.ChunkSize)
	require.NotZero(s.T(), config.RateLimiter.Window)
	require.NotEmpty(s.T(), config.RateLimiter.Budgets)
	require.NotEmpty(s.T(), config.Networks)
	require.Equal(s.T(), "starkscan", config.Networks[0].AssetProvider)
}

func (s *ConfigTestSuite) TestValidateRequiresToken() {
	config := Default()
	require.Error(s.T(), config.Validate())

	config.Discord.Token = "token"
	require.NoError(s.T(), config.Validate())
}

func (s *ConfigTestSuite) TestValidateRequiresNetworks() {
	config := Default()
	config.Discord.Token = "token"
	config.Networks = nil
	require.Error(s.T(), config.Validate())
}
