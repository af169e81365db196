package guauth

import (
	"context"
	"sync"
)

// sessionHolder is the single owner of the current Session. Mutations go
// through set and clear, which persist through the store and then notify
// every subscriber in change order. Persistence failures do not block the
// in-memory transition; the session concern degrades to process-local.
type sessionHolder struct {
	mu    sync.Mutex
	cur   Session
	store SessionStore
	subs  []chan SessionChange
}

func newSessionHolder(store SessionStore, initial Session) *sessionHolder {
	return &sessionHolder{
		store: store,
		cur:   initial,
	}
}

// Current returns the session as of the call.
func (h *sessionHolder) Current() Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cur
}

// Subscribe registers a change listener. Subscribers that drain promptly
// (the Flow's reaction loop does) observe every change in order; a change
// that cannot be handed over because the buffer is full is dropped for that
// subscriber, so an abandoned channel never blocks session mutations.
func (h *sessionHolder) Subscribe() <-chan SessionChange {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan SessionChange, 64)
	h.subs = append(h.subs, ch)
	return ch
}

// set installs a credential pair. Token and user ID travel together.
func (h *sessionHolder) set(ctx context.Context, token, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur.Token == token && h.cur.UserID == userID {
		return
	}
	prev := h.cur
	h.cur = Session{Token: token, UserID: userID}
	if h.store != nil {
		_ = h.store.Save(ctx, h.cur)
	}
	h.notifyLocked(prev)
}

// clear drops the credentials. It reports whether a clear actually happened,
// so a 401 response clears (and notifies) at most once.
func (h *sessionHolder) clear(ctx context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur == (Session{}) {
		return false
	}
	prev := h.cur
	h.cur = Session{}
	if h.store != nil {
		_ = h.store.Clear(ctx)
	}
	h.notifyLocked(prev)
	return true
}

func (h *sessionHolder) notifyLocked(prev Session) {
	change := SessionChange{Previous: prev, Current: h.cur}
	for _, ch := range h.subs {
		select {
		case ch <- change:
		default:
			// Buffer full means the subscriber stopped draining. Dropping
			// here keeps one dead channel from wedging every mutation.
		}
	}
}
