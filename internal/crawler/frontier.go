package crawler

import "sync"

// Frontier is the crawl's FIFO work queue combined with its visited set.
//
// Design decision: One type owns both structures under one mutex because
// the correctness of the whole crawl reduces to a single rule: a URL is
// claimed and marked visited in the same critical section. With separate
// locks, two workers could pop duplicate queue entries for the same URL
// and fetch it twice.
type Frontier struct {
	mu      sync.Mutex
	queue   []frontierItem
	visited map[string]bool
}

// frontierItem is one queued URL with its link distance from a seed.
type frontierItem struct {
	url   string
	depth int
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queue:   make([]frontierItem, 0),
		visited: make(map[string]bool),
	}
}

// Enqueue appends a URL at the given depth. Callers pass URLs through
// NormalizeURL first; the visited check here is a cheap pre-filter against
// that form. The queue may still accumulate duplicates when the same link
// is discovered on several pages before any copy is dequeued; Next
// resolves those.
func (f *Frontier) Enqueue(normalizedURL string, depth int) {
	if normalizedURL == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.visited[normalizedURL] {
		return
	}
	f.queue = append(f.queue, frontierItem{url: normalizedURL, depth: depth})
}

// Next pops queue entries until it finds a URL not yet visited, marks that
// URL visited, and returns it. The claim and the mark happen under one
// lock, so a URL is returned at most once per crawl no matter how many
// workers call Next or how many duplicate entries the queue holds.
// ok is false when the queue is empty.
//
// Entries are normalized again at dequeue. NormalizeURL strips the
// trailing slash before the fragment, so "https://a.example/b/#top"
// normalizes to "https://a.example/b/" on the way in and collapses to
// "https://a.example/b" here; the second pass keeps the visited set keyed
// by the fully collapsed form.
func (f *Frontier) Next() (pageURL string, depth int, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.queue) > 0 {
		item := f.queue[0]
		f.queue = f.queue[1:]

		u := NormalizeURL(item.url)
		if f.visited[u] {
			continue
		}
		f.visited[u] = true
		return u, item.depth, true
	}
	return "", 0, false
}

// VisitedCount returns the number of unique URLs claimed so far.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// QueueLen returns the number of entries waiting in the queue, counting
// duplicates.
func (f *Frontier) QueueLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
