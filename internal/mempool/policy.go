package mempool

import (
	"github.com/trinitychain/trinitychain/config"
	"github.com/trinitychain/trinitychain/pkg/tx"
)

// Policy defines the acceptance rules applied at insertion, separate
// from the state-aware validation the chain re-runs at block assembly
// time. Policy rules may be loosened or tightened per node without a
// consensus change.
type Policy struct {
	MaxTxSize int // Maximum serialized transaction size in bytes.
}

// DefaultPolicy returns a policy matching the protocol-level maximum
// transaction size.
func DefaultPolicy() *Policy {
	return &Policy{MaxTxSize: config.MaxTransactionSize}
}

// Check runs the transaction's stateless validation plus this policy's
// size bound. It does not touch UTXO state — that is re-checked by the
// chain when the transaction is actually included in a block.
func (p *Policy) Check(t *tx.Transaction) error {
	if err := t.ValidateSize(p.MaxTxSize); err != nil {
		return err
	}
	return t.Validate()
}
