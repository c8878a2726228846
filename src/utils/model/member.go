package model

import (
	"time"
)

const TableMembers = "members"

// Member binds a Discord user inside one guild to a wallet on one network.
// The same user may hold separate bindings on two networks at the same time.
// Created by the verification collaborator. Removed here when Discord reports
// the user left the guild, or after a soft-deleted binding had its role revoked.
type Member struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  string `json:"user_id"`
	GuildID string `json:"guild_id"`
	Network string `json:"network"`

	// Verified wallet address, normalized lowercase hex. Nil until verification completes.
	WalletAddress *string `json:"wallet_address"`

	// Token used during the out of band wallet verification
	LinkToken string `json:"link_token"`

	// Soft-deletion marker. A marked binding still gets its role revoked before removal.
	DeletedAt *time.Time `json:"deleted_at"`
}

func (Member) TableName() string {
	return TableMembers
}

func (self *Member) IsDeleted() bool {
	return self.DeletedAt != nil
}

func (self *Member) HasWallet() bool {
	return self.WalletAddress != nil && *self.WalletAddress != ""
}
