package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// State
	StreamEventsDecoded *prometheus.Desc
	ChunksEnqueued      *prometheus.Desc
	ChunksProcessed     *prometheus.Desc
	MembersReconciled   *prometheus.Desc
	RolesGranted        *prometheus.Desc
	RolesRevoked        *prometheus.Desc
	RefreshPassesRun    *prometheus.Desc
	LastProcessedBlock  *prometheus.Desc
	StaleMembersDeleted *prometheus.Desc
	StaleConfigsDeleted *prometheus.Desc

	// Errors
	StreamFailures    *prometheus.Desc
	ReconcileFailures *prometheus.Desc
	ProviderFailures  *prometheus.Desc
	ConfigsSkipped    *prometheus.Desc
	WatermarkFailures *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		// State
		StreamEventsDecoded: prometheus.NewDesc("stream_events_decoded", "", nil, nil),
		ChunksEnqueued:      prometheus.NewDesc("chunks_enqueued", "", nil, nil),
		ChunksProcessed:     prometheus.NewDesc("chunks_processed", "", nil, nil),
		MembersReconciled:   prometheus.NewDesc("members_reconciled", "", nil, nil),
		RolesGranted:        prometheus.NewDesc("roles_granted", "", nil, nil),
		RolesRevoked:        prometheus.NewDesc("roles_revoked", "", nil, nil),
		RefreshPassesRun:    prometheus.NewDesc("refresh_passes_run", "", nil, nil),
		LastProcessedBlock:  prometheus.NewDesc("last_processed_block", "", nil, nil),
		StaleMembersDeleted: prometheus.NewDesc("stale_members_deleted", "", nil, nil),
		StaleConfigsDeleted: prometheus.NewDesc("stale_configs_deleted", "", nil, nil),

		// Errors
		StreamFailures:    prometheus.NewDesc("stream_failures", "", nil, nil),
		ReconcileFailures: prometheus.NewDesc("reconcile_failures", "", nil, nil),
		ProviderFailures:  prometheus.NewDesc("provider_failures", "", nil, nil),
		ConfigsSkipped:    prometheus.NewDesc("configs_skipped", "", nil, nil),
		WatermarkFailures: prometheus.NewDesc("watermark_failures", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.UpForSeconds

	ch <- self.StreamEventsDecoded
	ch <- self.ChunksEnqueued
	ch <- self.ChunksProcessed
	ch <- self.MembersReconciled
	ch <- self.RolesGranted
	ch <- self.RolesRevoked
	ch <- self.RefreshPassesRun
	ch <- self.LastProcessedBlock
	ch <- self.StaleMembersDeleted
	ch <- self.StaleConfigsDeleted

	ch <- self.StreamFailures
	ch <- self.ReconcileFailures
	ch <- self.ProviderFailures
	ch <- self.ConfigsSkipped
	ch <- self.WatermarkFailures
}

func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	report := self.monitor.GetReport()

	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(report.Run.UpForSeconds.Load()))

	ch <- prometheus.MustNewConstMetric(self.StreamEventsDecoded, prometheus.CounterValue, float64(report.State.StreamEventsDecoded.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChunksEnqueued, prometheus.CounterValue, float64(report.State.ChunksEnqueued.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChunksProcessed, prometheus.CounterValue, float64(report.State.ChunksProcessed.Load()))
	ch <- prometheus.MustNewConstMetric(self.MembersReconciled, prometheus.CounterValue, float64(report.State.MembersReconciled.Load()))
	ch <- prometheus.MustNewConstMetric(self.RolesGranted, prometheus.CounterValue, float64(report.State.RolesGranted.Load()))
	ch <- prometheus.MustNewConstMetric(self.RolesRevoked, prometheus.CounterValue, float64(report.State.RolesRevoked.Load()))
	ch <- prometheus.MustNewConstMetric(self.RefreshPassesRun, prometheus.CounterValue, float64(report.State.RefreshPassesRun.Load()))
	ch <- prometheus.MustNewConstMetric(self.LastProcessedBlock, prometheus.GaugeValue, float64(report.State.LastProcessedBlock.Load()))
	ch <- prometheus.MustNewConstMetric(self.StaleMembersDeleted, prometheus.CounterValue, float64(report.State.StaleMembersDeleted.Load()))
	ch <- prometheus.MustNewConstMetric(self.StaleConfigsDeleted, prometheus.CounterValue, float64(report.State.StaleConfigsDeleted.Load()))

	ch <- prometheus.MustNewConstMetric(self.StreamFailures, prometheus.CounterValue, float64(report.Errors.StreamFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ReconcileFailures, prometheus.CounterValue, float64(report.Errors.ReconcileFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ProviderFailures, prometheus.CounterValue, float64(report.Errors.ProviderFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ConfigsSkipped, prometheus.CounterValue, float64(report.Errors.ConfigsSkipped.Load()))
	ch <- prometheus.MustNewConstMetric(self.WatermarkFailures, prometheus.CounterValue, float64(report.Errors.WatermarkFailures.Load()))
}
