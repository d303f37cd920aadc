package suggest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFetcher counts calls and returns a canned suggestion.
type countingFetcher struct {
	calls int64
}

func (f *countingFetcher) Suggest(ctx context.Context, content, sectionType string) ([]Suggestion, error) {
	atomic.AddInt64(&f.calls, 1)
	return []Suggestion{{Text: "suggestion for: " + content[:10], Score: 0.9}}, nil
}

// gatedFetcher blocks each call until released, to simulate slow
// in-flight requests.
type gatedFetcher struct {
	mu      sync.Mutex
	pending []chan []Suggestion
}

func (f *gatedFetcher) Suggest(ctx context.Context, content, sectionType string) ([]Suggestion, error) {
	ch := make(chan []Suggestion)
	f.mu.Lock()
	f.pending = append(f.pending, ch)
	f.mu.Unlock()
	return <-ch, nil
}

func (f *gatedFetcher) release(i int, s []Suggestion) {
	f.mu.Lock()
	ch := f.pending[i]
	f.mu.Unlock()
	ch <- s
}

func (f *gatedFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

func longContent() string { return strings.Repeat("the quick brown fox ", 5) }

func TestBurstOfChangesFiresOneRequest(t *testing.T) {
	// Changes at t=0, 100, 200, 1300 (scaled down 10x) with a 1000ms
	// quiet period: exactly one request fires, after the last change.
	fetcher := &countingFetcher{}
	d := NewDebouncer(fetcher, 100*time.Millisecond, 50)

	d.Change("sec-1", longContent(), "TEXT")
	time.Sleep(10 * time.Millisecond)
	d.Change("sec-1", longContent()+"a", "TEXT")
	time.Sleep(10 * time.Millisecond)
	d.Change("sec-1", longContent()+"ab", "TEXT")

	// Quiet period elapses once.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&fetcher.calls))

	d.Change("sec-1", longContent()+"abc", "TEXT")
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int64(2), atomic.LoadInt64(&fetcher.calls))
}

func TestShortContentNeverFires(t *testing.T) {
	fetcher := &countingFetcher{}
	d := NewDebouncer(fetcher, 20*time.Millisecond, 50)

	d.Change("sec-1", "too short", "TEXT")
	time.Sleep(100 * time.Millisecond)

	assert.Zero(t, atomic.LoadInt64(&fetcher.calls))
	_, ok := d.Latest("sec-1")
	assert.False(t, ok)
}

func TestStaleResponseDoesNotOverwriteNewer(t *testing.T) {
	fetcher := &gatedFetcher{}
	d := NewDebouncer(fetcher, 10*time.Millisecond, 10)

	d.Change("sec-1", longContent(), "TEXT")
	require.Eventually(t, func() bool { return fetcher.count() == 1 }, time.Second, time.Millisecond)

	// Second change dispatches while the first request is in flight.
	d.Change("sec-1", longContent()+"more", "TEXT")
	require.Eventually(t, func() bool { return fetcher.count() == 2 }, time.Second, time.Millisecond)

	// Newer request completes first.
	fetcher.release(1, []Suggestion{{Text: "newer", Score: 1}})
	require.Eventually(t, func() bool {
		s, ok := d.Latest("sec-1")
		return ok && len(s) == 1 && s[0].Text == "newer"
	}, time.Second, time.Millisecond)

	// Older request completing late must not win.
	fetcher.release(0, []Suggestion{{Text: "stale", Score: 1}})
	time.Sleep(50 * time.Millisecond)

	s, ok := d.Latest("sec-1")
	require.True(t, ok)
	assert.Equal(t, "newer", s[0].Text)
}

func TestIndependentSectionsDebounceSeparately(t *testing.T) {
	fetcher := &countingFetcher{}
	d := NewDebouncer(fetcher, 20*time.Millisecond, 10)

	d.Change("sec-1", longContent(), "TEXT")
	d.Change("sec-2", longContent(), "TABLE")
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int64(2), atomic.LoadInt64(&fetcher.calls))
}
