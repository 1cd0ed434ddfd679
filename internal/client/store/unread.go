package store

import (
	"sync"

	"pollchat/internal/client/models"
)

// UnreadTracker keeps per-conversation sets of unseen message ids. It holds
// only derived state; message content lives in the Store. Counts are set
// cardinalities, never recomputed by rescanning buckets.
type UnreadTracker struct {
	mu     sync.Mutex
	active string
	ids    map[string]map[string]struct{}
}

func NewUnreadTracker() *UnreadTracker {
	return &UnreadTracker{
		active: models.BroadcastKey,
		ids:    make(map[string]map[string]struct{}),
	}
}

// OnIngested records id as unread iff the message came from another party and
// the conversation is not the active one. Re-adding a known id is a no-op, so
// at-least-once polling never inflates counts.
func (u *UnreadTracker) OnIngested(key, id string, fromOther bool) {
	if !fromOther {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if key == u.active {
		return
	}
	set, ok := u.ids[key]
	if !ok {
		set = make(map[string]struct{})
		u.ids[key] = set
	}
	set[id] = struct{}{}
}

// Activate makes key the active conversation and atomically clears its unread
// set. Idempotent.
func (u *UnreadTracker) Activate(key string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.active = key
	delete(u.ids, key)
}

// Active returns the currently active conversation key.
func (u *UnreadTracker) Active() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.active
}

// Count returns the number of unread messages for key.
func (u *UnreadTracker) Count(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.ids[key])
}

// Forget drops a single id, e.g. when the message is deleted or pruned.
func (u *UnreadTracker) Forget(key, id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if set, ok := u.ids[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(u.ids, key)
		}
	}
}

// FromOther reports whether a message counts toward unread state for the
// local user: authored by someone else, and either broadcast, group-scoped or
// a direct message addressed to the local user.
func FromOther(m models.Message, key, localUser string) bool {
	if m.From == localUser {
		return false
	}
	return key == models.BroadcastKey || models.IsGroupKey(key) || m.To == localUser
}
