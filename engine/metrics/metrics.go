// Package metrics exposes engine activity as prometheus collectors. A Collector is both a
// notification sink and an operation observer, so it is wired into the token with
// token.WithSink and token.WithObserver.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"keeperx/engine/library"
)

type Collector struct {
	registry *prometheus.Registry

	operations   *prometheus.CounterVec
	rebases      prometheus.Counter
	burned       prometheus.Counter
	claims       prometheus.Counter
	rewards      prometheus.Counter
	pairChanges  prometheus.Counter
	totalSupply  prometheus.Gauge
	lastRebaseAt prometheus.Gauge
}

// NewCollector registers every collector on a private registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "keeperx"
	}
	c := &Collector{registry: prometheus.NewRegistry()}

	c.operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Engine operations by name and result",
		},
		[]string{"op", "result"},
	)
	c.rebases = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rebase",
		Name:      "applied_total",
		Help:      "Rebases applied",
	})
	c.burned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rebase",
		Name:      "burned_tokens_total",
		Help:      "KPX destroyed by rebases",
	})
	c.claims = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "staking",
		Name:      "claims_total",
		Help:      "Reward payouts, explicit claims and settlements",
	})
	c.rewards = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "staking",
		Name:      "rewards_tokens_total",
		Help:      "KPX minted as staking rewards",
	})
	c.pairChanges = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pair",
		Name:      "changes_total",
		Help:      "Pair address changes",
	})
	c.totalSupply = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "total_supply_tokens",
		Help:      "Total supply after the last rebase or reward mint",
	})
	c.lastRebaseAt = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "rebase",
		Name:      "last_applied_timestamp_seconds",
		Help:      "Unix time of the last applied rebase",
	})

	c.registry.MustRegister(
		c.operations,
		c.rebases,
		c.burned,
		c.claims,
		c.rewards,
		c.pairChanges,
		c.totalSupply,
		c.lastRebaseAt,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Push adds the registry to a prometheus pushgateway under job. Short lived commands use it,
// since nothing scrapes them.
func (c *Collector) Push(url, job string) error {
	return push.New(url, job).Gatherer(c.registry).Add()
}

func (c *Collector) ObserveOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	c.operations.WithLabelValues(op, result).Inc()
}

func (c *Collector) Notify(n library.Notification) {
	switch n.Kind {
	case library.RebaseApplied:
		c.rebases.Inc()
		c.burned.Add(tokens(n))
		if n.Supply != nil {
			c.totalSupply.Set(asFloat(n.Supply.Dec()))
		}
		c.lastRebaseAt.Set(float64(n.At.Unix()))
	case library.RewardClaimed:
		c.claims.Inc()
		c.rewards.Add(tokens(n))
		if n.Supply != nil {
			c.totalSupply.Set(asFloat(n.Supply.Dec()))
		}
	case library.PairAddressChanged:
		c.pairChanges.Inc()
	}
}

// SetTotalSupply seeds the supply gauge before the first rebase.
func (c *Collector) SetTotalSupply(supply string) {
	c.totalSupply.Set(asFloat(supply))
}
