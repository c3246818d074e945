package miner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/trinitychain/trinitychain/internal/consensus"
	"github.com/trinitychain/trinitychain/internal/log"
	"github.com/trinitychain/trinitychain/pkg/block"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// ErrAlreadyMining is returned by Start when a mining task is already
// running; the caller must Stop it before changing beneficiaries.
var ErrAlreadyMining = errors.New("mining already in progress")

// BlockSubmitter accepts a sealed block for application. In a running
// node this is the chain's ingress surface; tests substitute a recorder.
type BlockSubmitter interface {
	SubmitBlock(blk *block.Block) error
}

// Controller drives mining as its own task: assemble a candidate from
// the current tip, seal it, submit it, repeat. The loop re-reads the
// tip on every iteration, so a block arriving from a peer mid-search
// simply makes the in-flight candidate stale; the submit fails and the
// next iteration builds on the new tip. No chain lock is held while
// searching for nonces.
type Controller struct {
	mu     sync.Mutex
	chain  ChainState
	engine consensus.Engine
	pool   MempoolSelector
	submit BlockSubmitter

	cancel context.CancelFunc
	done   chan struct{}
}

// NewController wires a mining controller to the chain's read surface,
// the consensus engine, the mempool, and the block ingress.
func NewController(chain ChainState, engine consensus.Engine, pool MempoolSelector, submit BlockSubmitter) *Controller {
	return &Controller{
		chain:  chain,
		engine: engine,
		pool:   pool,
		submit: submit,
	}
}

// Start launches the mining task paying rewards to beneficiary. It
// returns ErrAlreadyMining if a task is already running.
func (c *Controller) Start(beneficiary types.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return ErrAlreadyMining
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	m := New(c.chain, c.engine, c.pool, beneficiary)
	go c.run(ctx, m, done)

	log.Miner.Info().Str("beneficiary", beneficiary.String()).Msg("mining started")
	return nil
}

// Stop signals the mining task to halt and blocks until it has. The
// stop signal is observed inside the nonce search, so any in-progress
// candidate block is dropped. Stopping when not mining is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Miner.Info().Msg("mining stopped")
}

// IsMining reports whether a mining task is currently running.
func (c *Controller) IsMining() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *Controller) run(ctx context.Context, m *Miner, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		blk, err := m.ProduceBlock(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Miner.Warn().Err(err).Msg("block production failed, retrying")
			continue
		}

		if err := c.submit.SubmitBlock(blk); err != nil {
			// Usually a stale tip: a peer block landed while we were
			// sealing. The next iteration rebuilds on the fresh tip.
			log.Miner.Debug().Err(err).Uint64("height", blk.Header.Height).Msg("sealed block rejected")
			select {
			case <-ctx.Done():
				return
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}

		log.Miner.Info().
			Uint64("height", blk.Header.Height).
			Str("hash", blk.Hash().String()).
			Int("transactions", len(blk.Transactions)).
			Msg("mined block")
	}
}
