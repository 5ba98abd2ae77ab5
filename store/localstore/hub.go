package localstore

import "sync"

// changeHub fans committed writes out to live queries, per collection.
// Listeners run synchronously after the write that triggered them, so a
// subscriber sees a snapshot no older than its own last write.
type changeHub struct {
	mu        sync.Mutex
	next      int
	listeners map[string]map[int]func()
}

func newChangeHub() *changeHub {
	return &changeHub{listeners: make(map[string]map[int]func())}
}

func (h *changeHub) subscribe(collection string, fn func()) (release func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	if h.listeners[collection] == nil {
		h.listeners[collection] = make(map[int]func())
	}
	h.listeners[collection][id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners[collection], id)
	}
}

func (h *changeHub) notify(collection string) {
	h.mu.Lock()
	fns := make([]func(), 0, len(h.listeners[collection]))
	for _, fn := range h.listeners[collection] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
