package model

const TableNetworkStatuses = "network_statuses"

// NetworkStatus keeps the watermark of the last fully reconciled block per network.
// Written only by the queue drainer, read once on stream startup.
type NetworkStatus struct {
	Network            string `gorm:"primaryKey" json:"network"`
	LastProcessedBlock uint64 `json:"last_processed_block"`
}

func (NetworkStatus) TableName() string {
	return TableNetworkStatuses
}
