package rolesync

import (
	"context"
	"errors"

	"github.com/guildgate/syncer/src/utils/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage is the slice of the database this pipeline reads and writes.
// Kept as an interface so reconciliation logic is testable without postgres.
type Storage interface {
	// EnsureNetworkStatus returns the network watermark, seeding the row with
	// defaultBlock when it does not exist yet
	EnsureNetworkStatus(ctx context.Context, network string, defaultBlock uint64) (uint64, error)

	// SetLastProcessedBlock advances the watermark, never moving it backwards
	SetLastProcessedBlock(ctx context.Context, network string, block uint64) error

	GetConfigs(ctx context.Context) ([]model.ServerConfig, error)
	GetConfigsByNetwork(ctx context.Context, network string) ([]model.ServerConfig, error)
	DeleteConfig(ctx context.Context, id uint) error

	GetMembersByWallet(ctx context.Context, network, wallet string) ([]model.Member, error)
	GetActiveMembers(ctx context.Context, guildID, network string) ([]model.Member, error)
	DeleteMember(ctx context.Context, id uint) error
}

// Store implements Storage on gorm
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (self *Store) EnsureNetworkStatus(ctx context.Context, network string, defaultBlock uint64) (block uint64, err error) {
	var status model.NetworkStatus
	err = self.db.WithContext(ctx).
		Where("network = ?", network).
		First(&status).
		Error
	if err == nil {
		return status.LastProcessedBlock, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return
	}

	status = model.NetworkStatus{Network: network, LastProcessedBlock: defaultBlock}
	err = self.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&status).
		Error
	if err != nil {
		return
	}
	return defaultBlock, nil
}

func (self *Store) SetLastProcessedBlock(ctx context.Context, network string, block uint64) error {
	return self.db.WithContext(ctx).
		Model(&model.NetworkStatus{}).
		Where("network = ? AND last_processed_block < ?", network, block).
		Update("last_processed_block", block).
		Error
}

func (self *Store) GetConfigs(ctx context.Context) (configs []model.ServerConfig, err error) {
	err = self.db.WithContext(ctx).
		Find(&configs).
		Error
	return
}

func (self *Store) GetConfigsByNetwork(ctx context.Context, network string) (configs []model.ServerConfig, err error) {
	err = self.db.WithContext(ctx).
		Where("network = ?", network).
		Find(&configs).
		Error
	return
}

func (self *Store) DeleteConfig(ctx context.Context, id uint) error {
	return self.db.WithContext(ctx).
		Delete(&model.ServerConfig{}, id).
		Error
}

func (self *Store) GetMembersByWallet(ctx context.Context, network, wallet string) (members []model.Member, err error) {
	err = self.db.WithContext(ctx).
		Where("network = ? AND wallet_address = ?", network, wallet).
		Find(&members).
		Error
	return
}

func (self *Store) GetActiveMembers(ctx context.Context, guildID, network string) (members []model.Member, err error) {
	err = self.db.WithContext(ctx).
		Where("guild_id = ? AND network = ? AND deleted_at IS NULL", guildID, network).
		Find(&members).
		Error
	return
}

func (self *Store) DeleteMember(ctx context.Context, id uint) error {
	return self.db.WithContext(ctx).
		Delete(&model.Member{}, id).
		Error
}
