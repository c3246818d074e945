package sync

import (
	"sync"
	"time"

	"github.com/trinitychain/trinitychain/internal/log"
	"github.com/trinitychain/trinitychain/pkg/block"
)

// Phase is the coarse sync state advanced by the caller driving the
// external transport; the engine never transitions itself.
type Phase int

const (
	Idle Phase = iota
	Syncing
	Synced
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Syncing:
		return "syncing"
	case Synced:
		return "synced"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats summarizes sync progress: the peer registry and pending-block
// queue are the state-only contract; these counters are a bookkeeping
// extra built on top of them for operator-facing status reporting.
type Stats struct {
	Phase                 Phase
	TotalBlocksSynced     uint64
	BlocksSyncedThisRun   uint64
	ActivePeers           int
	SyncSpeedBlocksPerSec float64
}

// State is the full in-process sync coordinator: peer health, a FIFO
// of blocks awaiting application, and the phase/stats the caller
// reads to decide what to do next.
type State struct {
	mu      sync.Mutex
	phase   Phase
	peers   *Registry
	pending []*block.Block

	totalSynced uint64
	runSynced   uint64
	runStart    time.Time
	now         func() time.Time
}

// NewState creates a sync coordinator with its own peer registry.
func NewState() *State {
	return &State{
		phase: Idle,
		peers: NewRegistry(),
		now:   time.Now,
	}
}

// Peers exposes the underlying peer registry for direct registration
// and health queries.
func (s *State) Peers() *Registry {
	return s.peers
}

// Begin transitions the coordinator into Syncing and resets the
// per-run counters used for instantaneous speed reporting.
func (s *State) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = Syncing
	s.runSynced = 0
	s.runStart = s.now()
	log.Sync.Info().Msg("sync started")
}

// Enqueue appends a received block to the FIFO pending queue. The
// chain drains it via Dequeue when it's ready to apply the next
// block; Enqueue itself never applies anything.
func (s *State) Enqueue(blk *block.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, blk)
}

// Dequeue pops the oldest pending block, if any.
func (s *State) Dequeue() (*block.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil, false
	}
	blk := s.pending[0]
	s.pending = s.pending[1:]
	return blk, true
}

// PendingCount returns the number of blocks still awaiting apply_block.
func (s *State) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// MarkBlockApplied records that a queued block was successfully
// committed to the chain, advancing the synced counters. It does not
// touch the pending queue itself; callers dequeue before applying.
func (s *State) MarkBlockApplied() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalSynced++
	s.runSynced++
}

// MarkSynced transitions the coordinator to Synced once the queue has
// drained and the chain has caught up to its peers.
func (s *State) MarkSynced() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = Synced
	log.Sync.Info().Uint64("total_blocks_synced", s.totalSynced).Msg("sync complete")
}

// MarkFailed transitions the coordinator to Failed, e.g. after
// exhausting every known peer without making progress.
func (s *State) MarkFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = Failed
	log.Sync.Warn().Msg("sync failed")
}

// Phase returns the current coarse sync state.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Stats returns a point-in-time snapshot of sync progress, including
// an instantaneous blocks-per-second estimate for the current run.
func (s *State) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var speed float64
	if elapsed := s.now().Sub(s.runStart).Seconds(); elapsed > 0 && !s.runStart.IsZero() {
		speed = float64(s.runSynced) / elapsed
	}
	return Stats{
		Phase:                 s.phase,
		TotalBlocksSynced:     s.totalSynced,
		BlocksSyncedThisRun:   s.runSynced,
		ActivePeers:           s.peers.Count(),
		SyncSpeedBlocksPerSec: speed,
	}
}

// EstimatedTimeRemaining projects how long it will take to reach
// targetHeight at the current run's observed speed. It returns false
// if there isn't enough data yet to estimate (just started, or no
// progress made).
func (s *State) EstimatedTimeRemaining(currentHeight, targetHeight uint64) (time.Duration, bool) {
	stats := s.Stats()
	if stats.SyncSpeedBlocksPerSec <= 0 || targetHeight <= currentHeight {
		return 0, false
	}
	remaining := float64(targetHeight - currentHeight)
	seconds := remaining / stats.SyncSpeedBlocksPerSec
	return time.Duration(seconds * float64(time.Second)), true
}
