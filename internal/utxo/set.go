// Package utxo maintains the triangle UTXO set: the mapping from
// transaction hash to the triangle that transaction produced, plus a
// derived address-balance index.
package utxo

import (
	"github.com/trinitychain/trinitychain/pkg/geometry"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// Set is the interface the engine uses to read and mutate triangle
// UTXO state. Block validation operates on a Clone of the live set so
// a failing transaction never mutates state a reader can observe.
type Set interface {
	Get(hash types.Hash) (geometry.Triangle, bool)
	Put(hash types.Hash, t geometry.Triangle)
	Delete(hash types.Hash)
	BalanceOf(addr types.Address) geometry.Coordinate
	Count() int
	Clone() *Store
}
