package mempool

import (
	"testing"

	"github.com/trinitychain/trinitychain/pkg/chainerr"
	"github.com/trinitychain/trinitychain/pkg/crypto"
	"github.com/trinitychain/trinitychain/pkg/geometry"
	"github.com/trinitychain/trinitychain/pkg/tx"
	"github.com/trinitychain/trinitychain/pkg/types"
)

func testAddress(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func testHash(b byte) types.Hash {
	var h types.Hash
	h[0] = b
	return h
}

func signedTransfer(t *testing.T, amount, fee geometry.Coordinate, nonce uint64) *tx.Transaction {
	t.Helper()
	sender, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	tr := tx.NewTransfer(&tx.TransferTx{
		InputHash: testHash(byte(nonce%255 + 1)),
		NewOwner:  testAddress(2),
		Sender:    sender.Address(),
		Amount:    amount,
		FeeArea:   fee,
		Nonce:     nonce,
	})
	msg, err := tr.SignableMessage()
	if err != nil {
		t.Fatalf("SignableMessage() error: %v", err)
	}
	digest := crypto.Hash(msg)
	sig, err := sender.Sign(digest[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	tr.Transfer.Signature = sig
	tr.Transfer.PublicKey = sender.PublicKey()
	return tr
}

func TestPool_AddGetHasCount(t *testing.T) {
	p := New(10)
	transfer := signedTransfer(t, geometry.CoordinateFromInt(5), geometry.CoordinateFromInt(1), 1)

	if err := p.Add(transfer); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if p.Count() != 1 {
		t.Errorf("Count() = %d, want 1", p.Count())
	}
	if !p.Has(transfer.Hash()) {
		t.Error("Has() = false, want true")
	}
	got, ok := p.Get(transfer.Hash())
	if !ok || got.Hash() != transfer.Hash() {
		t.Errorf("Get() = %v, %v", got, ok)
	}
}

func TestPool_Add_Duplicate(t *testing.T) {
	p := New(10)
	transfer := signedTransfer(t, geometry.CoordinateFromInt(5), geometry.CoordinateFromInt(1), 1)

	if err := p.Add(transfer); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := p.Add(transfer); err == nil {
		t.Fatal("Add() expected error on duplicate insertion")
	}
}

func TestPool_Add_RejectsInvalid(t *testing.T) {
	p := New(10)
	sender, _ := crypto.GenerateKey()
	unsigned := tx.NewTransfer(&tx.TransferTx{
		InputHash: testHash(1),
		NewOwner:  testAddress(2),
		Sender:    sender.Address(),
		Amount:    geometry.CoordinateFromInt(5),
		FeeArea:   geometry.CoordinateFromInt(1),
		Nonce:     1,
	})
	if err := p.Add(unsigned); err == nil {
		t.Fatal("Add() expected error for unsigned transaction")
	}
	if p.Count() != 0 {
		t.Errorf("Count() = %d, want 0 after rejected Add", p.Count())
	}
}

func TestPool_Add_MempoolFull(t *testing.T) {
	p := New(1)
	first := signedTransfer(t, geometry.CoordinateFromInt(5), geometry.CoordinateFromInt(1), 1)
	second := signedTransfer(t, geometry.CoordinateFromInt(5), geometry.CoordinateFromInt(1), 2)

	if err := p.Add(first); err != nil {
		t.Fatalf("Add(first) error: %v", err)
	}
	err := p.Add(second)
	if err == nil {
		t.Fatal("Add(second) expected MempoolFull error")
	}
	if !chainerr.Is(err, chainerr.MempoolFull) {
		t.Errorf("Add(second) error kind = %v, want MempoolFull", err)
	}
}

func TestPool_Remove(t *testing.T) {
	p := New(10)
	transfer := signedTransfer(t, geometry.CoordinateFromInt(5), geometry.CoordinateFromInt(1), 1)
	_ = p.Add(transfer)

	p.Remove(transfer.Hash())
	if p.Has(transfer.Hash()) {
		t.Error("Has() = true after Remove()")
	}

	// Removing an absent hash must not panic.
	p.Remove(transfer.Hash())
}

func TestPool_RemoveIncluded(t *testing.T) {
	p := New(10)
	a := signedTransfer(t, geometry.CoordinateFromInt(5), geometry.CoordinateFromInt(1), 1)
	b := signedTransfer(t, geometry.CoordinateFromInt(6), geometry.CoordinateFromInt(1), 2)
	_ = p.Add(a)
	_ = p.Add(b)

	p.RemoveIncluded([]*tx.Transaction{a})
	if p.Has(a.Hash()) {
		t.Error("included transaction should have been removed")
	}
	if !p.Has(b.Hash()) {
		t.Error("non-included transaction should remain")
	}
}

func TestPool_GetTransactionsByFee_OrdersDescending(t *testing.T) {
	p := New(10)
	low := signedTransfer(t, geometry.CoordinateFromInt(5), geometry.CoordinateFromFloat64(0.1), 1)
	high := signedTransfer(t, geometry.CoordinateFromInt(5), geometry.CoordinateFromFloat64(2.0), 2)
	mid := signedTransfer(t, geometry.CoordinateFromInt(5), geometry.CoordinateFromFloat64(1.0), 3)

	_ = p.Add(low)
	_ = p.Add(high)
	_ = p.Add(mid)

	ordered := p.GetTransactionsByFee(10)
	if len(ordered) != 3 {
		t.Fatalf("GetTransactionsByFee() returned %d, want 3", len(ordered))
	}
	if ordered[0].Hash() != high.Hash() || ordered[1].Hash() != mid.Hash() || ordered[2].Hash() != low.Hash() {
		t.Error("GetTransactionsByFee() did not order by fee_area descending")
	}
}

func TestPool_GetTransactionsByFee_Limit(t *testing.T) {
	p := New(10)
	for i := uint64(1); i <= 5; i++ {
		_ = p.Add(signedTransfer(t, geometry.CoordinateFromInt(5), geometry.CoordinateFromInt(int64(i)), i))
	}
	top := p.GetTransactionsByFee(2)
	if len(top) != 2 {
		t.Fatalf("GetTransactionsByFee(2) returned %d, want 2", len(top))
	}
}

func TestPool_Evict(t *testing.T) {
	p := New(10)
	low := signedTransfer(t, geometry.CoordinateFromInt(5), geometry.CoordinateFromFloat64(0.1), 1)
	high := signedTransfer(t, geometry.CoordinateFromInt(5), geometry.CoordinateFromFloat64(2.0), 2)
	_ = p.Add(low)
	_ = p.Add(high)

	removed := p.Evict(1)
	if removed != 1 {
		t.Fatalf("Evict() removed %d, want 1", removed)
	}
	if !p.Has(high.Hash()) {
		t.Error("Evict() should keep the higher-fee transaction")
	}
	if p.Has(low.Hash()) {
		t.Error("Evict() should remove the lower-fee transaction")
	}
}
