package model

import (
	"encoding/json"

	"github.com/jackc/pgtype"
)

const TableServerConfigs = "server_configs"

// ServerConfig binds one Discord role to one eligibility module.
// Created by the configuration collaborator, deleted here when Discord
// reports the role no longer exists.
type ServerConfig struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	GuildID      string       `json:"guild_id"`
	RoleID       string       `json:"role_id"`
	Network      string       `json:"network"`
	ModuleID     string       `json:"module_id"`
	ModuleConfig pgtype.JSONB `json:"module_config"`
}

func (ServerConfig) TableName() string {
	return TableServerConfigs
}

// ConfigMap decodes the opaque module configuration into string key-values.
func (self *ServerConfig) ConfigMap() (out map[string]string) {
	out = map[string]string{}
	if self.ModuleConfig.Bytes == nil {
		return
	}
	// Decode errors leave the map empty, modules treat missing keys as config errors
	_ = json.Unmarshal(self.ModuleConfig.Bytes, &out)
	return
}

// SetConfigMap encodes the module configuration, used by tests and fixtures.
func (self *ServerConfig) SetConfigMap(m map[string]string) (err error) {
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	return self.ModuleConfig.Set(data)
}
