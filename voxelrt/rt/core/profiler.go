package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// frameWindow is how many recent frame times FrameStats summarizes.
const frameWindow = 120

type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string

	frames []float64 // milliseconds, ring buffer
	next   int
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		Order:      make([]string, 0),
		frames:     make([]float64, 0, frameWindow),
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = time.Now()
	found := false
	for _, n := range p.Order {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		p.Order = append(p.Order, name)
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] = time.Since(start)
	}
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

// AddFrame records one frame time in the rolling window.
func (p *Profiler) AddFrame(d time.Duration) {
	ms := float64(d.Microseconds()) / 1000.0
	if len(p.frames) < frameWindow {
		p.frames = append(p.frames, ms)
		return
	}
	p.frames[p.next] = ms
	p.next = (p.next + 1) % frameWindow
}

type FrameStats struct {
	Frames int
	MeanMs float64
	StdMs  float64
	P95Ms  float64
}

func (p *Profiler) FrameStats() FrameStats {
	if len(p.frames) == 0 {
		return FrameStats{}
	}
	sorted := append([]float64(nil), p.frames...)
	sort.Float64s(sorted)

	fs := FrameStats{
		Frames: len(sorted),
		MeanMs: stat.Mean(sorted, nil),
		P95Ms:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		fs.StdMs = stat.StdDev(sorted, nil)
	}
	return fs
}

func (p *Profiler) GetStatsString() string {
	var sb strings.Builder

	sb.WriteString("Timings (CPU):\n")
	for _, name := range p.Order {
		dur := p.Scopes[name]
		ms := float64(dur.Microseconds()) / 1000.0
		sb.WriteString(fmt.Sprintf("  %-15s: %.2f ms\n", name, ms))
	}

	if fs := p.FrameStats(); fs.Frames > 0 {
		sb.WriteString(fmt.Sprintf("  %-15s: %.2f ms (sd %.2f, p95 %.2f, n=%d)\n", "frame", fs.MeanMs, fs.StdMs, fs.P95Ms, fs.Frames))
	}

	sb.WriteString("\nStats:\n")
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %-15s: %d\n", k, p.Counts[k]))
	}

	return sb.String()
}
