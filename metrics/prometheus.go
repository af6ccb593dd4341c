package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "oppaware"

// PrometheusCollector keeps per-search counts like the default collector and
// also exports running totals across searches.
type PrometheusCollector struct {
	collector
	episodes     prometheus.Counter
	fullPlayouts prometheus.Counter
	expansions   prometheus.Counter
}

func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	newCounter := func(name, help string) (prometheus.Counter, error) {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      name,
			Help:      help,
		})
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
					return existing, nil
				}
			}
			return nil, errors.Wrapf(err, "register %s", name)
		}
		return c, nil
	}

	var (
		p   PrometheusCollector
		err error
	)
	if p.episodes, err = newCounter("episodes_total", "Completed select, rollout and backup cycles."); err != nil {
		return nil, err
	}
	if p.fullPlayouts, err = newCounter("full_playouts_total", "Rollouts that reached a terminal state."); err != nil {
		return nil, err
	}
	if p.expansions, err = newCounter("expansions_total", "Nodes added to search trees."); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *PrometheusCollector) AddEpisode() {
	p.collector.AddEpisode()
	p.episodes.Inc()
}

func (p *PrometheusCollector) AddFullPlayout() {
	p.collector.AddFullPlayout()
	p.fullPlayouts.Inc()
}

func (p *PrometheusCollector) AddExpansion() {
	p.collector.AddExpansion()
	p.expansions.Inc()
}
