// Package store owns the per-conversation message buckets and the unread
// state derived from them. It is the only component that mutates conversation
// history; everything else goes through its methods.
package store

import (
	"sort"
	"sync"

	"pollchat/internal/client/models"
)

// IngestOutcome describes what Ingest did with a message.
type IngestOutcome int

const (
	// OutcomeReplaced means an entry with the same id was already present and
	// was replaced in place (idempotent re-ingestion).
	OutcomeReplaced IngestOutcome = iota

	// OutcomePromoted means a matching provisional entry was replaced by the
	// confirmed message.
	OutcomePromoted

	// OutcomeInserted means the message was added as a new entry.
	OutcomeInserted
)

// IngestResult reports the bucket a message landed in and, for promotions,
// the provisional id it superseded so callers can retarget UI state.
type IngestResult struct {
	Key          string
	Outcome      IngestOutcome
	PromotedFrom string
}

// UpdateFunc is invoked after any mutation affecting a conversation key.
type UpdateFunc func(key string)

// Store holds every conversation bucket, keyed by conversation key and
// ordered by timestamp ascending (ties keep insertion order).
type Store struct {
	mu        sync.Mutex
	localUser string
	buckets   map[string][]models.Message
	subs      []UpdateFunc
}

func New(localUser string) *Store {
	return &Store{
		localUser: localUser,
		buckets:   make(map[string][]models.Message),
	}
}

// Subscribe registers fn to be called after mutations. Callbacks run outside
// the store lock, on the mutating goroutine.
func (s *Store) Subscribe(fn UpdateFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify(key string) {
	s.mu.Lock()
	subs := make([]UpdateFunc, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(key)
	}
}

// Ingest reconciles one inbound (typically server-sourced) message with the
// target bucket:
//
//  1. exact-id match: replace in place, so re-polling the same window is a
//     no-op
//  2. provisional match: a provisional entry with the same author, target and
//     content within the match window is promoted to the confirmed message;
//     when several qualify the earliest-created one wins, since later ones are
//     more likely genuinely distinct messages sent in quick succession
//  3. otherwise: insert as a new entry
//
// The bucket is kept sorted by timestamp after every change. Messages that
// fail validation are rejected and touch no bucket.
func (s *Store) Ingest(m models.Message) (IngestResult, error) {
	if err := m.Validate(); err != nil {
		return IngestResult{}, err
	}
	key := models.ConversationKey(m, s.localUser)

	s.mu.Lock()
	res, changed := s.ingestLocked(key, m)
	s.mu.Unlock()

	if changed {
		s.notify(key)
	}
	return res, nil
}

func (s *Store) ingestLocked(key string, m models.Message) (IngestResult, bool) {
	b := s.buckets[key]

	for i := range b {
		if b[i].ID == m.ID {
			// Re-polling an unchanged record must not wake subscribers.
			if b[i] == m {
				return IngestResult{Key: key, Outcome: OutcomeReplaced}, false
			}
			b[i] = m
			s.resortLocked(key)
			return IngestResult{Key: key, Outcome: OutcomeReplaced}, true
		}
	}

	// The bucket is timestamp-sorted, so scanning in order yields the
	// earliest-created provisional candidate first.
	if !m.Provisional() {
		for i := range b {
			p := b[i]
			if !p.Provisional() {
				continue
			}
			if p.From != m.From || p.To != m.To || p.Content() != m.Content() {
				continue
			}
			if absDelta(p.Timestamp, m.Timestamp) > models.MatchWindow.Milliseconds() {
				continue
			}
			b[i] = m
			s.buckets[key] = b
			s.resortLocked(key)
			return IngestResult{Key: key, Outcome: OutcomePromoted, PromotedFrom: p.ID}, true
		}
	}

	s.buckets[key] = append(b, m)
	s.resortLocked(key)
	return IngestResult{Key: key, Outcome: OutcomeInserted}, true
}

// AppendProvisional inserts a locally authored, not yet acknowledged message
// unconditionally (a provisional id can never already exist in a bucket).
// It returns the conversation key the entry landed in.
func (s *Store) AppendProvisional(m models.Message) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	key := models.ConversationKey(m, s.localUser)

	s.mu.Lock()
	s.buckets[key] = append(s.buckets[key], m)
	s.resortLocked(key)
	s.mu.Unlock()

	s.notify(key)
	return key, nil
}

// Remove deletes the entry with the given id from the bucket, if present.
func (s *Store) Remove(key, id string) bool {
	s.mu.Lock()
	b := s.buckets[key]
	removed := false
	for i := range b {
		if b[i].ID == id {
			s.buckets[key] = append(b[:i], b[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.notify(key)
	}
	return removed
}

// PruneConfirmed drops confirmed entries whose ids are absent from present.
// Provisional entries are kept; the server has not acknowledged them yet, so
// their absence from a poll result means nothing. Returns the removed ids.
// Used after group polls, where server-side deletes must propagate.
func (s *Store) PruneConfirmed(key string, present map[string]struct{}) []string {
	s.mu.Lock()
	b := s.buckets[key]
	kept := b[:0]
	var removed []string
	for _, m := range b {
		if m.Provisional() {
			kept = append(kept, m)
			continue
		}
		if _, ok := present[m.ID]; ok {
			kept = append(kept, m)
			continue
		}
		removed = append(removed, m.ID)
	}
	s.buckets[key] = kept
	s.mu.Unlock()

	if len(removed) > 0 {
		s.notify(key)
	}
	return removed
}

// Messages returns a copy of the bucket, ordered by timestamp ascending.
func (s *Store) Messages(key string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.buckets[key]
	out := make([]models.Message, len(b))
	copy(out, b)
	return out
}

// Get returns the entry with the given id from the bucket, if present.
func (s *Store) Get(key, id string) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.buckets[key] {
		if m.ID == id {
			return m, true
		}
	}
	return models.Message{}, false
}

// Keys returns every conversation key with at least one entry, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.buckets))
	for k := range s.buckets {
		if len(s.buckets[k]) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) resortLocked(key string) {
	b := s.buckets[key]
	sort.SliceStable(b, func(i, j int) bool {
		return b[i].Timestamp < b[j].Timestamp
	})
}

func absDelta(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
