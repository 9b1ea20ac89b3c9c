package observability

import (
	"sync/atomic"
	"time"
)

// OtherJobType buckets job types the metrics were not built with.
const OtherJobType = "other"

type jobCounters struct {
	claimed           atomic.Uint64
	done              atomic.Uint64
	failed            atomic.Uint64
	retried           atomic.Uint64
	deadLettered      atomic.Uint64
	duplicatesSkipped atomic.Uint64

	// nanoseconds
	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64
}

func (c *jobCounters) observe(ns int64) {
	c.durationCount.Add(1)
	c.durationTotal.Add(ns)

	for {
		curr := c.durationMax.Load()
		if ns <= curr {
			return
		}
		if c.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

func (c *jobCounters) snapshot() JobCountersSnapshot {
	count := c.durationCount.Load()

	var avg time.Duration
	if count > 0 {
		avg = time.Duration(c.durationTotal.Load() / int64(count))
	}

	return JobCountersSnapshot{
		Claimed:           c.claimed.Load(),
		Done:              c.done.Load(),
		Failed:            c.failed.Load(),
		Retried:           c.retried.Load(),
		DeadLettered:      c.deadLettered.Load(),
		DuplicatesSkipped: c.duplicatesSkipped.Load(),
		DurationCount:     count,
		AverageDuration:   avg,
		MaxDuration:       time.Duration(c.durationMax.Load()),
	}
}

// JobMetrics counts worker outcomes in process, overall and per job type.
// The per-type map is fixed at construction so recording never locks.
type JobMetrics struct {
	totals jobCounters
	byType map[string]*jobCounters
}

func NewJobMetrics(jobTypes ...string) *JobMetrics {
	m := &JobMetrics{byType: make(map[string]*jobCounters, len(jobTypes)+1)}
	for _, t := range jobTypes {
		m.byType[t] = &jobCounters{}
	}
	m.byType[OtherJobType] = &jobCounters{}
	return m
}

func (m *JobMetrics) bucket(jobType string) *jobCounters {
	if c, ok := m.byType[jobType]; ok {
		return c
	}
	return m.byType[OtherJobType]
}

func (m *JobMetrics) IncClaimed(jobType string) {
	m.totals.claimed.Add(1)
	m.bucket(jobType).claimed.Add(1)
}

func (m *JobMetrics) IncDone(jobType string) {
	m.totals.done.Add(1)
	m.bucket(jobType).done.Add(1)
}

func (m *JobMetrics) IncFailed(jobType string) {
	m.totals.failed.Add(1)
	m.bucket(jobType).failed.Add(1)
}

func (m *JobMetrics) IncRetried(jobType string) {
	m.totals.retried.Add(1)
	m.bucket(jobType).retried.Add(1)
}

func (m *JobMetrics) IncDeadLettered(jobType string) {
	m.totals.deadLettered.Add(1)
	m.bucket(jobType).deadLettered.Add(1)
}

// IncDuplicateSkipped counts jobs whose notification had already been sent.
func (m *JobMetrics) IncDuplicateSkipped(jobType string) {
	m.totals.duplicatesSkipped.Add(1)
	m.bucket(jobType).duplicatesSkipped.Add(1)
}

func (m *JobMetrics) ObserveDuration(jobType string, d time.Duration) {
	ns := d.Nanoseconds()
	m.totals.observe(ns)
	m.bucket(jobType).observe(ns)
}

type JobCountersSnapshot struct {
	Claimed           uint64
	Done              uint64
	Failed            uint64
	Retried           uint64
	DeadLettered      uint64
	DuplicatesSkipped uint64
	DurationCount     uint64
	AverageDuration   time.Duration
	MaxDuration       time.Duration
}

type JobMetricsSnapShot struct {
	JobCountersSnapshot
	ByType map[string]JobCountersSnapshot
}

// Snapshot reports totals plus every known type; the other bucket is
// included only once something landed in it.
func (m *JobMetrics) Snapshot() JobMetricsSnapShot {
	s := JobMetricsSnapShot{
		JobCountersSnapshot: m.totals.snapshot(),
		ByType:              make(map[string]JobCountersSnapshot, len(m.byType)),
	}

	for t, c := range m.byType {
		cs := c.snapshot()
		if t == OtherJobType && cs.Claimed == 0 {
			continue
		}
		s.ByType[t] = cs
	}

	return s
}
