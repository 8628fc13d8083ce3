package crawler

import "container/list"

// Provenance records how a URL entered the frontier.
type Provenance int

const (
	// Predefined marks one of the conventional contact-page paths
	// seeded at crawl start. Predefined entries are exempt from the
	// dynamic-page budget.
	Predefined Provenance = iota

	// Dynamic marks a URL discovered via link extraction. Dynamic
	// entries count against the per-domain page budget.
	Dynamic
)

// frontierEntry is one queued URL with its provenance.
type frontierEntry struct {
	url        string
	provenance Provenance
}

// frontier is the queue of URLs still to be fetched for one domain.
//
// Consumption is FIFO, except that contact-like links are front-inserted
// so they take priority over already-queued ordinary URLs. A deque gives
// both insertions in O(1); splicing at the head of a slice would not.
type frontier struct {
	entries *list.List
	queued  map[string]bool
}

// newFrontier creates an empty frontier.
func newFrontier() *frontier {
	return &frontier{
		entries: list.New(),
		queued:  make(map[string]bool),
	}
}

// pushFront inserts a URL at the head of the queue.
func (f *frontier) pushFront(url string, provenance Provenance) {
	if f.queued[url] {
		return
	}
	f.queued[url] = true
	f.entries.PushFront(frontierEntry{url: url, provenance: provenance})
}

// pushBack appends a URL at the tail of the queue.
func (f *frontier) pushBack(url string, provenance Provenance) {
	if f.queued[url] {
		return
	}
	f.queued[url] = true
	f.entries.PushBack(frontierEntry{url: url, provenance: provenance})
}

// pop removes and returns the next entry. The URL becomes eligible for
// re-insertion: the visited-set, not the frontier, decides whether a
// popped URL may be fetched again.
func (f *frontier) pop() (frontierEntry, bool) {
	front := f.entries.Front()
	if front == nil {
		return frontierEntry{}, false
	}
	f.entries.Remove(front)
	entry := front.Value.(frontierEntry)
	delete(f.queued, entry.url)
	return entry, true
}

// len returns the number of queued entries.
func (f *frontier) len() int {
	return f.entries.Len()
}
