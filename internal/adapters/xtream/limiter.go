package xtream

import (
	"context"
	"sync"
)

// DynamicLimiter limite le nombre de requêtes concurrentes vers un même hôte.
// Acquire respecte le contexte.
type DynamicLimiter struct {
	mu       sync.Mutex
	limit    int
	inFlight int
	notify   chan struct{}
}

func NewDynamicLimiter(limit int) *DynamicLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &DynamicLimiter{limit: limit, notify: make(chan struct{})}
}

func (l *DynamicLimiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

func (l *DynamicLimiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.inFlight < l.limit {
			l.inFlight++
			l.mu.Unlock()
			return nil
		}
		ch := l.notify
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

func (l *DynamicLimiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inFlight > 0 {
		l.inFlight--
	}
	l.signalLocked()
}

func (l *DynamicLimiter) signalLocked() {
	// Réveille tous les waiters en fermant le channel et en recréant.
	close(l.notify)
	l.notify = make(chan struct{})
}

// hostLimiters associe un DynamicLimiter à chaque hôte amont.
type hostLimiters struct {
	mu    sync.Mutex
	limit int
	byKey map[string]*DynamicLimiter
}

func newHostLimiters(limit int) *hostLimiters {
	return &hostLimiters{limit: limit, byKey: map[string]*DynamicLimiter{}}
}

func (h *hostLimiters) get(host string) *DynamicLimiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.byKey[host]
	if !ok {
		l = NewDynamicLimiter(h.limit)
		h.byKey[host] = l
	}
	return l
}
