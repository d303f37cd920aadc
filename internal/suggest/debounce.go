package suggest

import (
	"context"
	"log"
	"sync"
	"time"
)

// Fetcher is the slice of Client the debouncer needs.
type Fetcher interface {
	Suggest(ctx context.Context, content, sectionType string) ([]Suggestion, error)
}

// Debouncer coalesces content-change events per section: at most one
// suggestion request fires per quiet period after the last change, and
// only once the content passes the minimum length. Results of
// superseded in-flight requests never overwrite a newer request's
// result.
type Debouncer struct {
	fetcher  Fetcher
	delay    time.Duration
	minChars int

	mu      sync.Mutex
	timers  map[string]*time.Timer
	seq     map[string]uint64
	results map[string][]Suggestion
}

func NewDebouncer(fetcher Fetcher, delay time.Duration, minChars int) *Debouncer {
	return &Debouncer{
		fetcher:  fetcher,
		delay:    delay,
		minChars: minChars,
		timers:   make(map[string]*time.Timer),
		seq:      make(map[string]uint64),
		results:  make(map[string][]Suggestion),
	}
}

// Change records a content-change event for the section. The fetch
// fires after the quiet period; earlier pending fetches for the same
// section are cancelled.
func (d *Debouncer) Change(sectionID, content, sectionType string) {
	if len(content) < d.minChars {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[sectionID]; ok {
		t.Stop()
	}
	d.timers[sectionID] = time.AfterFunc(d.delay, func() {
		d.dispatch(sectionID, content, sectionType)
	})
}

func (d *Debouncer) dispatch(sectionID, content, sectionType string) {
	d.mu.Lock()
	d.seq[sectionID]++
	mySeq := d.seq[sectionID]
	delete(d.timers, sectionID)
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	suggestions, err := d.fetcher.Suggest(ctx, content, sectionType)
	if err != nil {
		log.Printf("suggest: fetch for section %s failed: %v", sectionID, err)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	// Last request wins: drop the result if a newer fetch was
	// dispatched while this one was in flight.
	if mySeq == d.seq[sectionID] {
		d.results[sectionID] = suggestions
	}
}

// Latest returns the most recent suggestions fetched for the section.
func (d *Debouncer) Latest(sectionID string) ([]Suggestion, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.results[sectionID]
	return s, ok
}
