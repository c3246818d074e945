package block

import (
	"errors"
	"testing"

	"github.com/trinitychain/trinitychain/pkg/geometry"
	"github.com/trinitychain/trinitychain/pkg/tx"
	"github.com/trinitychain/trinitychain/pkg/types"
)

func testAddr(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func coinbaseTx() *tx.Transaction {
	return tx.NewCoinbase(&tx.CoinbaseTx{
		RewardArea:  geometry.CoordinateFromInt(50),
		Beneficiary: testAddr(1),
	})
}

func buildBlock(t *testing.T, txs []*tx.Transaction) *Block {
	t.Helper()
	hashes := make([]types.Hash, len(txs))
	for i, tr := range txs {
		hashes[i] = tr.Hash()
	}
	header := &Header{
		Height:       1,
		TimestampMs:  1000,
		PreviousHash: types.Hash{},
		MerkleRoot:   ComputeMerkleRoot(hashes),
		Difficulty:   1,
	}
	return NewBlock(header, txs)
}

func TestValidateStructure_Valid(t *testing.T) {
	b := buildBlock(t, []*tx.Transaction{coinbaseTx()})
	if err := b.ValidateStructure(); err != nil {
		t.Errorf("ValidateStructure() unexpected error: %v", err)
	}
}

func TestValidateStructure_NilHeader(t *testing.T) {
	b := &Block{Transactions: []*tx.Transaction{coinbaseTx()}}
	if err := b.ValidateStructure(); err != ErrNilHeader {
		t.Errorf("ValidateStructure() = %v, want ErrNilHeader", err)
	}
}

func TestValidateStructure_NoTransactions(t *testing.T) {
	b := buildBlock(t, nil)
	if err := b.ValidateStructure(); err != ErrNoTransactions {
		t.Errorf("ValidateStructure() = %v, want ErrNoTransactions", err)
	}
}

func TestValidateStructure_MissingCoinbase(t *testing.T) {
	tr := tx.NewTransfer(&tx.TransferTx{Sender: testAddr(1), NewOwner: testAddr(2), Amount: geometry.CoordinateFromInt(1)})
	b := buildBlock(t, []*tx.Transaction{tr})
	if err := b.ValidateStructure(); err != ErrNoCoinbase {
		t.Errorf("ValidateStructure() = %v, want ErrNoCoinbase", err)
	}
}

func TestValidateStructure_MultipleCoinbase(t *testing.T) {
	b := buildBlock(t, []*tx.Transaction{coinbaseTx(), coinbaseTx()})
	if err := b.ValidateStructure(); err == nil {
		t.Error("expected error for multiple coinbase transactions")
	}
}

func TestValidateStructure_BadMerkleRoot(t *testing.T) {
	b := buildBlock(t, []*tx.Transaction{coinbaseTx()})
	b.Header.MerkleRoot = types.Hash{0xFF}
	if err := b.ValidateStructure(); !errors.Is(err, ErrBadMerkleRoot) {
		t.Errorf("ValidateStructure() = %v, want ErrBadMerkleRoot", err)
	}
}

func TestValidateStructure_DuplicateSpend(t *testing.T) {
	input := types.Hash{0x09}
	t1 := tx.NewTransfer(&tx.TransferTx{InputHash: input, Sender: testAddr(1), NewOwner: testAddr(2), Amount: geometry.CoordinateFromInt(1), Nonce: 1})
	t2 := tx.NewTransfer(&tx.TransferTx{InputHash: input, Sender: testAddr(1), NewOwner: testAddr(3), Amount: geometry.CoordinateFromInt(1), Nonce: 2})
	b := buildBlock(t, []*tx.Transaction{coinbaseTx(), t1, t2})
	if err := b.ValidateStructure(); !errors.Is(err, ErrDuplicateBlockSpend) {
		t.Errorf("ValidateStructure() = %v, want ErrDuplicateBlockSpend", err)
	}
}

func TestValidateStructure_ZeroTimestamp(t *testing.T) {
	b := buildBlock(t, []*tx.Transaction{coinbaseTx()})
	b.Header.TimestampMs = 0
	if err := b.ValidateStructure(); err != ErrZeroTimestamp {
		t.Errorf("ValidateStructure() = %v, want ErrZeroTimestamp", err)
	}
}

func TestBlock_Hash_NilHeader(t *testing.T) {
	b := &Block{}
	if b.Hash() != (types.Hash{}) {
		t.Error("Hash() of block with nil header should be zero hash")
	}
}
