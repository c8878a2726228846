package monitoring

import "go.uber.org/atomic"

type RunState struct {
	StartTimestamp atomic.Int64 `json:"start_timestamp"`
	UpForSeconds   atomic.Int64 `json:"up_for_seconds"`
}

type SyncerState struct {
	StreamEventsDecoded atomic.Int64 `json:"stream_events_decoded"`
	ChunksEnqueued      atomic.Int64 `json:"chunks_enqueued"`
	ChunksProcessed     atomic.Int64 `json:"chunks_processed"`
	MembersReconciled   atomic.Int64 `json:"members_reconciled"`
	RolesGranted        atomic.Int64 `json:"roles_granted"`
	RolesRevoked        atomic.Int64 `json:"roles_revoked"`
	RefreshPassesRun    atomic.Int64 `json:"refresh_passes_run"`
	LastProcessedBlock  atomic.Int64 `json:"last_processed_block"`
	StaleMembersDeleted atomic.Int64 `json:"stale_members_deleted"`
	StaleConfigsDeleted atomic.Int64 `json:"stale_configs_deleted"`
}

type SyncerErrors struct {
	StreamFailures    atomic.Uint64 `json:"stream_failures"`
	ReconcileFailures atomic.Uint64 `json:"reconcile_failures"`
	ProviderFailures  atomic.Uint64 `json:"provider_failures"`
	ConfigsSkipped    atomic.Uint64 `json:"configs_skipped"`
	WatermarkFailures atomic.Uint64 `json:"watermark_failures"`
}

type Report struct {
	Run    RunState     `json:"run"`
	State  SyncerState  `json:"state"`
	Errors SyncerErrors `json:"errors"`
}
