package consensus

import (
	"context"

	"github.com/trinitychain/trinitychain/pkg/block"
)

// Engine is the interface for consensus implementations.
type Engine interface {
	VerifyHeader(header *block.Header) error
	Seal(ctx context.Context, header *block.Header) error
}

var _ Engine = (*PoW)(nil)
