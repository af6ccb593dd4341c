package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	StartTime    time.Time
	Duration     time.Duration
	Episodes     int
	FullPlayouts int // Rollouts that reached a terminal state
	Expansions   int
	Nodes        int // Tree size when the search completed
}

type Collector interface {
	Start()
	AddEpisode()
	AddFullPlayout()
	AddExpansion()
	Complete() SearchMetric
}

type collector struct {
	startTime    time.Time
	episodes     atomic.Int64
	fullPlayouts atomic.Int64
	expansions   atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

// Start resets the counters for a new search
func (m *collector) Start() {
	m.startTime = time.Now()
	m.episodes.Store(0)
	m.fullPlayouts.Store(0)
	m.expansions.Store(0)
}

func (m *collector) AddEpisode() {
	m.episodes.Add(1)
}

func (m *collector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

func (m *collector) AddExpansion() {
	m.expansions.Add(1)
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		StartTime:    m.startTime,
		Duration:     time.Since(m.startTime),
		Episodes:     int(m.episodes.Load()),
		FullPlayouts: int(m.fullPlayouts.Load()),
		Expansions:   int(m.expansions.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start()                 {}
func (m *dummyCollector) AddEpisode()            {}
func (m *dummyCollector) AddFullPlayout()        {}
func (m *dummyCollector) AddExpansion()          {}
func (m *dummyCollector) Complete() SearchMetric { return SearchMetric{} }
