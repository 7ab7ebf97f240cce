package services

import "sync"

// FeedHub notifies live feed subscribers that the contents collection changed.
// Notifications coalesce: a subscriber that has not consumed the previous one
// receives a single pending signal.
type FeedHub struct {
	mutex sync.Mutex
	subs  map[chan struct{}]struct{}
}

func NewFeedHub() *FeedHub {
	return &FeedHub{subs: make(map[chan struct{}]struct{})}
}

// Subscribe registers a listener. The returned func unregisters it.
func (h *FeedHub) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mutex.Lock()
	h.subs[ch] = struct{}{}
	h.mutex.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mutex.Lock()
			delete(h.subs, ch)
			h.mutex.Unlock()
		})
	}
}

// Publish signals every subscriber without blocking.
func (h *FeedHub) Publish() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of registered listeners.
func (h *FeedHub) Subscribers() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.subs)
}
