// Package metrics counts applied content changes in prometheus metrics.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stateful/blockstate/internal/version"
	"github.com/stateful/blockstate/pkg/state"
)

const subsystem = "tree"

// Collector implements [state.Observer]. It is not safe for concurrent use,
// the same as the tree it observes.
type Collector struct {
	AppliesTotal      *prometheus.CounterVec
	FailuresTotal     *prometheus.CounterVec
	BlockChangesTotal *prometheus.CounterVec
	BatchTargets      prometheus.Histogram
	ApplyDuration     prometheus.Histogram
	Blocks            prometheus.Gauge

	started time.Time
	now     func() time.Time
}

var _ state.Observer = (*Collector)(nil)

// NewCollector registers the metrics on reg, together with a build info
// gauge labeled with the base version.
func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	factory := promauto.With(reg)

	factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information of the running binary",
	}, []string{"version"}).WithLabelValues(version.BaseVersion()).Set(1)

	return &Collector{
		AppliesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "applies_total",
			Help:      "Applied change batches by source",
		}, []string{"source"}),
		FailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "apply_failures_total",
			Help:      "Change batches that failed to apply by source",
		}, []string{"source"}),
		BlockChangesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "block_changes_total",
			Help:      "Blocks reported by applies by kind (insert, update, delete)",
		}, []string{"kind"}),
		BatchTargets: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "batch_targets",
			Help:      "Number of target blocks in a normalized batch",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
		ApplyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "apply_duration_seconds",
			Help:      "Time between the will-change and changed notifications",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		Blocks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "blocks",
			Help:      "Blocks reachable from the root after the last apply",
		}),
		now: time.Now,
	}
}

func (c *Collector) ContentWillChange(e state.WillChangeEvent) {
	c.started = c.now()
	c.BatchTargets.Observe(float64(e.Changes.Len()))
}

func (c *Collector) ContentChanged(e state.ChangeEvent) {
	c.AppliesTotal.WithLabelValues(string(e.Source)).Inc()
	c.BlockChangesTotal.WithLabelValues("insert").Add(float64(e.Inserts.Len()))
	c.BlockChangesTotal.WithLabelValues("update").Add(float64(e.Updates.Len()))
	c.BlockChangesTotal.WithLabelValues("delete").Add(float64(e.Deletes.Len()))
	c.Blocks.Set(float64(len(e.Current)))

	if !c.started.IsZero() {
		c.ApplyDuration.Observe(c.now().Sub(c.started).Seconds())
		c.started = time.Time{}
	}
}

// RecordFailure counts an apply that returned an error.
func (c *Collector) RecordFailure(source state.Source) {
	if source == "" {
		source = state.SourceUser
	}
	c.FailuresTotal.WithLabelValues(string(source)).Inc()
	c.started = time.Time{}
}

// WriteTextfile writes everything gathered by g to filename in the text
// exposition format.
func WriteTextfile(g prometheus.Gatherer, filename string) error {
	return errors.WithStack(prometheus.WriteToTextfile(filename, g))
}
