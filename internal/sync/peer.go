// Package sync tracks peer health and chain-sync progress as a pure
// state machine: the engine never opens a socket itself, it only
// records what an external transport reports and tells the chain what
// to do next.
package sync

import (
	"sync"
	"time"

	"github.com/trinitychain/trinitychain/config"
)

// PeerState is one peer's sync bookkeeping.
type PeerState struct {
	ID               string
	Height           uint64
	Syncing          bool
	ConsecutiveFails int
	LastUpdated      time.Time
}

// Unreliable reports whether the peer has failed too many times in a
// row to be trusted for best-peer selection.
func (p PeerState) Unreliable() bool {
	return p.ConsecutiveFails >= config.PeerUnreliableThreshold
}

// Stale reports whether the peer hasn't reported in within the
// freshness window, as of now.
func (p PeerState) Stale(now time.Time) bool {
	return now.Sub(p.LastUpdated) > time.Duration(config.PeerStaleSeconds)*time.Second
}

// Registry is the peer table: registration, height/failure updates,
// and best-peer selection, guarded by its own lock so it can be
// consulted independently of the chain's write lock.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]*PeerState
	now   func() time.Time
}

// NewRegistry creates an empty peer registry.
func NewRegistry() *Registry {
	return &Registry{
		peers: make(map[string]*PeerState),
		now:   time.Now,
	}
}

// RegisterPeer adds a new peer at the given reported height, or
// resets an existing entry's bookkeeping if the id is already known.
func (r *Registry) RegisterPeer(id string, height uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[id] = &PeerState{ID: id, Height: height, LastUpdated: r.now()}
}

// UpdatePeerHeight records a fresh height report and clears the
// failure count, since a successful update implies reachability.
func (r *Registry) UpdatePeerHeight(id string, height uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[id]
	if !ok {
		return
	}
	p.Height = height
	p.ConsecutiveFails = 0
	p.LastUpdated = r.now()
}

// SetPeerSyncing marks whether a block request to this peer is
// currently outstanding.
func (r *Registry) SetPeerSyncing(id string, syncing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.peers[id]; ok {
		p.Syncing = syncing
	}
}

// RecordBlockReceived marks a successful delivery from the peer,
// resetting its failure streak.
func (r *Registry) RecordBlockReceived(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[id]
	if !ok {
		return
	}
	p.ConsecutiveFails = 0
	p.Syncing = false
	p.LastUpdated = r.now()
}

// RecordSyncFailure increments the peer's consecutive-failure count,
// pushing it toward the unreliable threshold.
func (r *Registry) RecordSyncFailure(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[id]
	if !ok {
		return
	}
	p.ConsecutiveFails++
	p.Syncing = false
}

// RemovePeer drops a peer from the registry entirely.
func (r *Registry) RemovePeer(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, id)
}

// Peer returns a copy of the named peer's state, if known.
func (r *Registry) Peer(id string) (PeerState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[id]
	if !ok {
		return PeerState{}, false
	}
	return *p, true
}

// Count returns the number of peers currently tracked, regardless of
// health.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// GetBestPeer returns the highest, healthy peer — excluding unreliable
// and stale ones — or false if none qualify.
func (r *Registry) GetBestPeer() (PeerState, bool) {
	best := r.GetBestPeers(1)
	if len(best) == 0 {
		return PeerState{}, false
	}
	return best[0], true
}

// GetBestPeers returns healthy peers ordered by descending height,
// truncated to limit (0 means unlimited).
func (r *Registry) GetBestPeers(limit int) []PeerState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	healthy := make([]PeerState, 0, len(r.peers))
	for _, p := range r.peers {
		if p.Unreliable() || p.Stale(now) {
			continue
		}
		healthy = append(healthy, *p)
	}
	sortByHeightDesc(healthy)
	if limit > 0 && len(healthy) > limit {
		healthy = healthy[:limit]
	}
	return healthy
}

func sortByHeightDesc(peers []PeerState) {
	for i := 1; i < len(peers); i++ {
		for j := i; j > 0 && peers[j-1].Height < peers[j].Height; j-- {
			peers[j-1], peers[j] = peers[j], peers[j-1]
		}
	}
}
