package rolesync

import (
	"github.com/guildgate/syncer/src/utils/model"
)

// AffectedMember is one member touched by a transfer event, with the contract
// that produced the event as an optional hint.
type AffectedMember struct {
	Member   model.Member
	Contract string
}

// BlockChunk is an ordered batch of members affected by transfer events up to
// one block-aligned boundary. Lives only between stream decode and
// reconciliation, never persisted.
type BlockChunk struct {
	Network   string
	LastBlock uint64
	Affected  []AffectedMember
}
