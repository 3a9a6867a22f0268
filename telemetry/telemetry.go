// Package telemetry collects hierarchical operation timings. Collectors
// ride on the context so that instrumentation never changes function
// signatures; without a collector on the context every call is a no-op.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

type contextKey struct{}

var collectorKey = contextKey{}

// Timer tracks one operation. Timers nest via Child.
type Timer interface {
	// End stops the timer and records the duration.
	End()
	// Child starts a nested timer under this one.
	Child(name string) Timer
}

// Collector gathers timers and renders a report.
type Collector interface {
	// Start begins timing a top-level operation.
	Start(name string) Timer
	// Report writes the collected timings.
	Report(w io.Writer)
}

// WithCollector attaches a collector to the context.
func WithCollector(ctx context.Context, c Collector) context.Context {
	return context.WithValue(ctx, collectorKey, c)
}

// FromContext returns the context's collector, or a no-op one.
func FromContext(ctx context.Context) Collector {
	if c, ok := ctx.Value(collectorKey).(Collector); ok {
		return c
	}
	return noOpCollector{}
}

// TimingCollector records wall-clock durations in a tree.
type TimingCollector struct {
	mu    sync.Mutex
	roots []*timing
}

type timing struct {
	name     string
	start    time.Time
	duration time.Duration
	children []*timing

	collector *TimingCollector
}

// NewTimingCollector creates an empty collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{}
}

// Start begins timing a top-level operation.
func (c *TimingCollector) Start(name string) Timer {
	t := &timing{name: name, start: time.Now(), collector: c}
	c.mu.Lock()
	c.roots = append(c.roots, t)
	c.mu.Unlock()
	return t
}

// Report writes the timing tree, one line per timer, children indented.
func (c *TimingCollector) Report(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.roots {
		t.report(w, 0)
	}
}

func (t *timing) End() {
	if t.duration == 0 {
		t.duration = time.Since(t.start)
	}
}

func (t *timing) Child(name string) Timer {
	child := &timing{name: name, start: time.Now(), collector: t.collector}
	t.collector.mu.Lock()
	t.children = append(t.children, child)
	t.collector.mu.Unlock()
	return child
}

func (t *timing) report(w io.Writer, depth int) {
	_, _ = fmt.Fprintf(w, "%s%s: %s\n", strings.Repeat("  ", depth), t.name, t.duration.Round(time.Microsecond))
	for _, c := range t.children {
		c.report(w, depth+1)
	}
}

type noOpCollector struct{}

type noOpTimer struct{}

func (noOpCollector) Start(string) Timer { return noOpTimer{} }
func (noOpCollector) Report(io.Writer)   {}
func (noOpTimer) End()                   {}
func (noOpTimer) Child(string) Timer     { return noOpTimer{} }
