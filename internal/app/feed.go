package app

import (
	"sync"

	"quiz-vault/internal/domain"
)

// Feed fans change events out to every service sharing one store, so their
// mirrors can reload after another instance writes.
type Feed struct {
	mu          sync.Mutex
	subscribers map[chan domain.ChangeEvent]string
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[chan domain.ChangeEvent]string)}
}

// Subscribe returns a channel receiving events not published by source.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *Feed) Subscribe(source string) (<-chan domain.ChangeEvent, func()) {
	ch := make(chan domain.ChangeEvent, 8)

	f.mu.Lock()
	f.subscribers[ch] = source
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish never blocks: a subscriber that falls behind loses its oldest event.
func (f *Feed) Publish(event domain.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch, source := range f.subscribers {
		if source != "" && source == event.Source {
			continue
		}
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

// Len reports the number of live subscriptions.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
