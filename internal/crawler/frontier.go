package crawler

import "sync"

// item is one frontier entry: an address scheduled for fetching along with
// the discovery context it arrived with.
type item struct {
	address string
	depth   int
	parent  string
	rel     string
}

// frontier is the shared FIFO work queue. It tracks in-flight work so the
// crawl can tell "queue momentarily empty" apart from "run finished":
// pending counts items that are queued or still being processed, and the
// frontier closes itself when pending drops to zero.
type frontier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []item
	pending int
	closed  bool
}

func newFrontier() *frontier {
	f := &frontier{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// push schedules it for processing. Returns false when the frontier has
// already closed.
func (f *frontier) push(it item) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.pending++
	f.queue = append(f.queue, it)
	f.cond.Signal()
	return true
}

// pop blocks until an item is available or the frontier closes.
// Every successful pop must be balanced by exactly one done call.
func (f *frontier) pop() (item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.queue) == 0 && !f.closed {
		f.cond.Wait()
	}
	if len(f.queue) == 0 {
		return item{}, false
	}
	it := f.queue[0]
	f.queue = f.queue[1:]
	return it, true
}

// done marks one popped item as fully processed, including any pushes it
// performed. When nothing remains pending the frontier closes and all
// blocked workers drain out.
func (f *frontier) done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending--
	if f.pending == 0 {
		f.closed = true
		f.cond.Broadcast()
	}
}

// close shuts the frontier down early, e.g. on context cancellation.
// Queued items are discarded and blocked workers wake up empty-handed.
func (f *frontier) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.queue = nil
	f.cond.Broadcast()
}
