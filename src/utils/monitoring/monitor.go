package monitoring

import (
	"net/http"
	"time"

	"github.com/guildgate/syncer/src/utils/task"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Monitor stores counters updated by the sync pipeline and serves them as a
// report and as prometheus metrics.
type Monitor struct {
	*task.Task

	report    Report
	collector *Collector
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.report.Run.StartTimestamp.Store(time.Now().Unix())
	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.updateUptime)
	return
}

func (self *Monitor) GetReport() *Report {
	return &self.report
}

func (self *Monitor) GetPrometheusCollector() prometheus.Collector {
	return self.collector
}

func (self *Monitor) updateUptime() error {
	self.report.Run.UpForSeconds.Store(time.Now().Unix() - self.report.Run.StartTimestamp.Load())
	return nil
}

// OnGet serves the raw report as JSON
func (self *Monitor) OnGet(c *gin.Context) {
	c.JSON(http.StatusOK, self.GetReport())
}
