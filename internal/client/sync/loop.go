// Package sync drives the poll loop that keeps local conversation state
// reconciled with the remote message store.
package sync

import (
	"context"
	"sync"
	"time"

	"pollchat/internal/client/client"
	"pollchat/internal/client/identity"
	"pollchat/internal/client/models"
	"pollchat/internal/client/store"
	"pollchat/internal/logging"
)

// State of the loop, observable for diagnostics and tests.
type State int32

const (
	StateIdle State = iota
	StateFetching
)

func (s State) String() string {
	if s == StateFetching {
		return "fetching"
	}
	return "idle"
}

// PromotionFunc is called when a poll result confirms a provisional entry.
type PromotionFunc func(key, provisionalID, confirmedID string)

// Loop polls the server on a fixed cadence and reconciles the results into the
// store. A cycle is single-flight: triggers arriving while a fetch is in
// progress coalesce into at most one follow-up cycle.
type Loop struct {
	client   client.Client
	store    *store.Store
	unread   *store.UnreadTracker
	identity *identity.Provider
	log      logging.Logger

	interval    time.Duration
	trigger     chan struct{}
	onPromotion PromotionFunc

	mu     sync.Mutex
	state  State
	synced map[string]bool
}

func NewLoop(c client.Client, s *store.Store, u *store.UnreadTracker,
	id *identity.Provider, interval time.Duration, log logging.Logger) *Loop {
	return &Loop{
		client:   c,
		store:    s,
		unread:   u,
		identity: id,
		log:      log,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		synced:   make(map[string]bool),
	}
}

// OnPromotion registers the promotion callback. Must be set before Run.
func (l *Loop) OnPromotion(fn PromotionFunc) {
	l.onPromotion = fn
}

// Trigger requests an immediate cycle. Never blocks; if a trigger is already
// pending the call is absorbed.
func (l *Loop) Trigger() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// State returns what the loop is currently doing.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Run blocks until ctx is cancelled, cycling on every tick and on every
// trigger. A failed cycle is logged and skipped; the next tick retries at the
// regular cadence, there is no backoff.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-l.trigger:
		}
		l.Cycle(ctx)
	}
}

// Cycle runs one full fetch-and-reconcile pass over every sync target.
// Exported so the CLI "sync" command and tests can drive the loop directly.
func (l *Loop) Cycle(ctx context.Context) {
	l.setState(StateFetching)
	defer l.setState(StateIdle)

	for _, target := range l.targets() {
		if err := l.syncTarget(ctx, target); err != nil {
			if ctx.Err() != nil {
				return
			}
			l.log.Warn(ctx, "sync failed", "target", target, "error", err)
		}
	}
}

// targets lists what to poll this cycle: the broadcast channel, every group
// the user belongs to, and the active conversation when it is a direct one.
func (l *Loop) targets() []string {
	snap := l.identity.Snapshot()
	targets := append([]string{models.BroadcastKey}, snap.GroupKeys()...)

	active := l.unread.Active()
	if active != models.BroadcastKey && !models.IsGroupKey(active) {
		targets = append(targets, active)
	}
	return targets
}

func (l *Loop) syncTarget(ctx context.Context, target string) error {
	msgs, err := l.client.ListMessages(ctx, target)
	if err != nil {
		return err
	}

	localUser := l.identity.Snapshot().User
	first := l.firstSync(target)

	present := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		present[m.ID] = struct{}{}

		res, err := l.store.Ingest(m)
		if err != nil {
			l.log.Warn(ctx, "rejected inbound message", "target", target, "id", m.ID, "error", err)
			continue
		}

		switch res.Outcome {
		case store.OutcomeInserted:
			// History fetched on the first pass is not news.
			if !first {
				l.unread.OnIngested(res.Key, m.ID, store.FromOther(m, res.Key, localUser))
			}
		case store.OutcomePromoted:
			if l.onPromotion != nil {
				l.onPromotion(res.Key, res.PromotedFrom, m.ID)
			}
		}
	}

	// Server-side deletes in a group must disappear locally too. Confirmed
	// entries missing from the poll are gone for everyone.
	if models.IsGroupKey(target) {
		for _, id := range l.store.PruneConfirmed(target, present) {
			l.unread.Forget(target, id)
		}
	}
	return nil
}

// firstSync marks target as synced and reports whether this was its first pass.
func (l *Loop) firstSync(target string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.synced[target] {
		return false
	}
	l.synced[target] = true
	return true
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}
