// Package profiling accumulates named durations for the current tick.
package profiling

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

type total struct {
	dur   time.Duration
	calls int
}

var (
	mu     sync.Mutex
	totals = make(map[string]total)
)

// Track returns a stop function that adds the elapsed time to name.
// Usage: defer profiling.Track("world.PollCompletedTasks")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		t := totals[name]
		t.dur += d
		t.calls++
		totals[name] = t
		mu.Unlock()
	}
}

// ResetFrame clears the totals. Call at the start of each tick.
func ResetFrame() {
	mu.Lock()
	clear(totals)
	mu.Unlock()
}

// Snapshot returns a copy of the current durations.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, len(totals))
	for k, v := range totals {
		out[k] = v.dur
	}
	return out
}

// Entry is one tracked name.
type Entry struct {
	Name     string
	Duration time.Duration
	Calls    int
}

// Top returns the n slowest entries, slowest first. A negative n returns none.
func Top(n int) []Entry {
	mu.Lock()
	list := make([]Entry, 0, len(totals))
	for k, v := range totals {
		list = append(list, Entry{Name: k, Duration: v.dur, Calls: v.calls})
	}
	mu.Unlock()

	slices.SortFunc(list, func(a, b Entry) int {
		if c := cmp.Compare(b.Duration, a.Duration); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return list[:min(max(n, 0), len(list))]
}

// TopN formats the n slowest entries.
// Example: "worldgen.GenerateChunk:4.2ms, world.PollCompletedTasks:0.1ms"
func TopN(n int) string {
	top := Top(n)
	parts := make([]string, 0, len(top))
	for _, e := range top {
		parts = append(parts, e.Name+":"+formatMs(e.Duration))
	}
	return strings.Join(parts, ", ")
}

// formatMs keeps one decimal and drops it for whole milliseconds.
func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000
	return strconv.FormatFloat(float64(int64(ms*10))/10, 'f', -1, 64) + "ms"
}
