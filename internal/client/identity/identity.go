package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"pollchat/internal/client/client"
	"pollchat/internal/logging"
)

// Snapshot is one consistent view of who the local user may talk to.
type Snapshot struct {
	User    string
	Friends map[string]struct{}
	Groups  map[string]struct{}
}

func (s Snapshot) IsFriend(username string) bool {
	_, ok := s.Friends[username]
	return ok
}

func (s Snapshot) InGroup(key string) bool {
	_, ok := s.Groups[key]
	return ok
}

// GroupKeys returns the group conversation keys in sorted order.
func (s Snapshot) GroupKeys() []string {
	keys := make([]string, 0, len(s.Groups))
	for k := range s.Groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Provider keeps the friend list and group memberships of the local user
// refreshed from the server. Reads always return the last good snapshot, so a
// failed refresh never blanks out permissions.
type Provider struct {
	client client.Client
	log    logging.Logger

	mu   sync.RWMutex
	snap Snapshot
}

func NewProvider(c client.Client, user string, log logging.Logger) *Provider {
	return &Provider{
		client: c,
		log:    log,
		snap: Snapshot{
			User:    user,
			Friends: map[string]struct{}{},
			Groups:  map[string]struct{}{},
		},
	}
}

func (p *Provider) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Refresh fetches friends and groups and swaps in a new snapshot.
func (p *Provider) Refresh(ctx context.Context) error {
	user := p.Snapshot().User

	friends, err := p.client.Friends(ctx, user)
	if err != nil {
		return err
	}
	groups, err := p.client.Groups(ctx, user)
	if err != nil {
		return err
	}

	next := Snapshot{
		User:    user,
		Friends: make(map[string]struct{}, len(friends)),
		Groups:  make(map[string]struct{}, len(groups)),
	}
	for _, f := range friends {
		next.Friends[f] = struct{}{}
	}
	for _, g := range groups {
		next.Groups[g] = struct{}{}
	}

	p.mu.Lock()
	p.snap = next
	p.mu.Unlock()
	return nil
}

// Run refreshes on a fixed interval until the context is cancelled. Errors are
// logged and the previous snapshot stays in effect.
func (p *Provider) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				p.log.Warn(ctx, "identity refresh failed", "error", err)
			}
		}
	}
}
