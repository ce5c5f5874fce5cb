// Package telemetry collects per-frame statistics from the render loop and
// the compositor so degradation (skipped passes, direct-render fallbacks) is
// observable instead of silent.
package telemetry

import (
	"log"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// FrameRecord is one frame's measurements.
type FrameRecord struct {
	Frame   int     `csv:"frame"`
	TimeMS  float64 `csv:"frame_ms"`
	Passes  int     `csv:"passes"`
	Skipped int     `csv:"skipped"`
	Direct  bool    `csv:"direct"`
}

// Summary aggregates a window of frames.
type Summary struct {
	Frames       int
	MeanMS       float64
	P50MS        float64
	P95MS        float64
	MaxMS        float64
	SkippedTotal int
	DirectFrames int
}

// Collector accumulates frame records in a bounded window.
type Collector struct {
	records  []FrameRecord
	capacity int

	lastLog  time.Time
	logEvery time.Duration
}

// NewCollector creates a collector holding at most capacity frames; older
// frames are discarded.
func NewCollector(capacity int) *Collector {
	if capacity <= 0 {
		capacity = 600
	}
	return &Collector{
		capacity: capacity,
		lastLog:  time.Now(),
		logEvery: 5 * time.Second,
	}
}

// Record appends a frame, evicting the oldest when the window is full.
func (c *Collector) Record(rec FrameRecord) {
	if len(c.records) >= c.capacity {
		copy(c.records, c.records[1:])
		c.records = c.records[:len(c.records)-1]
	}
	c.records = append(c.records, rec)
}

// Summary computes aggregate statistics over the current window.
func (c *Collector) Summary() Summary {
	s := Summary{Frames: len(c.records)}
	if len(c.records) == 0 {
		return s
	}
	times := make([]float64, len(c.records))
	for i, r := range c.records {
		times[i] = r.TimeMS
		s.SkippedTotal += r.Skipped
		if r.Direct {
			s.DirectFrames++
		}
		if r.TimeMS > s.MaxMS {
			s.MaxMS = r.TimeMS
		}
	}
	s.MeanMS = stat.Mean(times, nil)
	sort.Float64s(times)
	s.P50MS = stat.Quantile(0.5, stat.Empirical, times, nil)
	s.P95MS = stat.Quantile(0.95, stat.Empirical, times, nil)
	return s
}

// Records returns the current window.
func (c *Collector) Records() []FrameRecord {
	return c.records
}

// MaybeLog prints a summary line at most once per log interval.
func (c *Collector) MaybeLog() {
	if time.Since(c.lastLog) < c.logEvery {
		return
	}
	c.lastLog = time.Now()
	s := c.Summary()
	log.Printf("frames=%d mean=%.2fms p50=%.2fms p95=%.2fms max=%.2fms skipped=%d direct=%d",
		s.Frames, s.MeanMS, s.P50MS, s.P95MS, s.MaxMS, s.SkippedTotal, s.DirectFrames)
}
