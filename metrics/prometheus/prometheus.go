package prometheus

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ceyewan/idlease/metrics"
)

// MonitoringService publishes lease allocator metrics to Prometheus.
// Metrics live in a private registry so several instances can coexist in tests.
type MonitoringService struct {
	namespace string
	registry  *prom.Registry

	leasesGained    prom.Counter
	leaseRenewals   prom.Counter
	leasesReclaimed prom.Counter
	leaseRejections *prom.CounterVec
	poolExhausted   prom.Counter
	leasesHeld      prom.Gauge
	poolSize        prom.Gauge
}

var _ metrics.MonitoringService = (*MonitoringService)(nil)

// NewMonitoringService returns a monitoring service; call Init before use.
func NewMonitoringService(namespace string) *MonitoringService {
	return &MonitoringService{
		namespace: namespace,
		registry:  prom.NewRegistry(),
	}
}

// Init creates and registers all collectors. poolSize is the fixed number of ids in the range.
func (p *MonitoringService) Init(poolSize int) error {
	p.leasesGained = prom.NewCounter(prom.CounterOpts{
		Namespace: p.namespace,
		Name:      "leases_gained_total",
		Help:      "Number of ids handed out by Acquire",
	})
	p.leaseRenewals = prom.NewCounter(prom.CounterOpts{
		Namespace: p.namespace,
		Name:      "lease_renewals_total",
		Help:      "Number of successful heartbeats",
	})
	p.leasesReclaimed = prom.NewCounter(prom.CounterOpts{
		Namespace: p.namespace,
		Name:      "leases_reclaimed_total",
		Help:      "Number of expired leases returned to the free pool by the reclaimer",
	})
	p.leaseRejections = prom.NewCounterVec(prom.CounterOpts{
		Namespace: p.namespace,
		Name:      "lease_rejections_total",
		Help:      "Number of heartbeats rejected, by reason",
	}, []string{"reason"})
	p.poolExhausted = prom.NewCounter(prom.CounterOpts{
		Namespace: p.namespace,
		Name:      "pool_exhausted_total",
		Help:      "Number of Acquire calls that found no free id",
	})
	p.leasesHeld = prom.NewGauge(prom.GaugeOpts{
		Namespace: p.namespace,
		Name:      "leases_held",
		Help:      "Number of ids currently in leased state",
	})
	p.poolSize = prom.NewGauge(prom.GaugeOpts{
		Namespace: p.namespace,
		Name:      "pool_size",
		Help:      "Number of ids in the configured range",
	})

	cs := []prom.Collector{
		p.leasesGained,
		p.leaseRenewals,
		p.leasesReclaimed,
		p.leaseRejections,
		p.poolExhausted,
		p.leasesHeld,
		p.poolSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range cs {
		if err := p.registry.Register(c); err != nil {
			return err
		}
	}

	p.poolSize.Set(float64(poolSize))
	return nil
}

// Handler serves the registry in the Prometheus text format.
func (p *MonitoringService) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (p *MonitoringService) Registry() *prom.Registry {
	return p.registry
}

func (p *MonitoringService) LeaseGained(id int) {
	p.leasesGained.Inc()
}

func (p *MonitoringService) LeaseRenewed(id int) {
	p.leaseRenewals.Inc()
}

func (p *MonitoringService) LeasesReclaimed(count int) {
	p.leasesReclaimed.Add(float64(count))
}

func (p *MonitoringService) LeaseRejected(reason string) {
	p.leaseRejections.With(prom.Labels{"reason": reason}).Inc()
}

func (p *MonitoringService) PoolExhausted() {
	p.poolExhausted.Inc()
}

func (p *MonitoringService) LeasesHeld(count int) {
	p.leasesHeld.Set(float64(count))
}
