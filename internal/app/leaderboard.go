package app

import (
	"sync"

	"quiz-attempt-service/internal/domain"
)

// leaderboardHub fans best-results snapshots out to per-quiz subscribers.
type leaderboardHub struct {
	mu   sync.Mutex
	subs map[int64]map[chan []domain.ResultEntry]struct{}
}

func newLeaderboardHub() *leaderboardHub {
	return &leaderboardHub{
		subs: make(map[int64]map[chan []domain.ResultEntry]struct{}),
	}
}

func (h *leaderboardHub) subscribe(quizID int64, initial []domain.ResultEntry) (<-chan []domain.ResultEntry, func()) {
	ch := make(chan []domain.ResultEntry, 8)

	h.mu.Lock()
	if h.subs[quizID] == nil {
		h.subs[quizID] = make(map[chan []domain.ResultEntry]struct{})
	}
	h.subs[quizID][ch] = struct{}{}
	h.mu.Unlock()

	ch <- initial

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[quizID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, quizID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *leaderboardHub) broadcast(quizID int64, entries []domain.ResultEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[quizID] {
		select {
		case ch <- entries:
		default:
			// Drop the stale snapshot so a slow client never blocks the rest.
			select {
			case <-ch:
			default:
			}
			ch <- entries
		}
	}
}
