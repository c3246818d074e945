package tx

import (
	"encoding/json"
	"testing"

	"github.com/trinitychain/trinitychain/pkg/crypto"
	"github.com/trinitychain/trinitychain/pkg/geometry"
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

func sampleTriangle(owner types.Address) geometry.Triangle {
	return geometry.Triangle{
		A: geometry.Point{X: geometry.CoordinateFromInt(0), Y: geometry.CoordinateFromInt(0)},
		B: geometry.Point{X: geometry.CoordinateFromInt(10), Y: geometry.CoordinateFromInt(0)},
		C: geometry.Point{X: geometry.CoordinateFromInt(0), Y: geometry.CoordinateFromInt(10)},
		Owner: owner,
	}
}

func TestCoinbase_HashDeterministic(t *testing.T) {
	cb := NewCoinbase(&CoinbaseTx{
		RewardArea:  geometry.CoordinateFromInt(50),
		Beneficiary: testAddress(1),
		Nonce:       7,
	})

	h1 := cb.Hash()
	h2 := cb.Hash()
	if h1 != h2 {
		t.Error("Coinbase hash is not deterministic")
	}
}

func TestCoinbase_HashDiffersByNonce(t *testing.T) {
	base := &CoinbaseTx{RewardArea: geometry.CoordinateFromInt(50), Beneficiary: testAddress(1)}
	a := NewCoinbase(&CoinbaseTx{RewardArea: base.RewardArea, Beneficiary: base.Beneficiary, Nonce: 1})
	b := NewCoinbase(&CoinbaseTx{RewardArea: base.RewardArea, Beneficiary: base.Beneficiary, Nonce: 2})

	if a.Hash() == b.Hash() {
		t.Error("different nonces should produce different coinbase hashes")
	}
}

func TestCoinbase_FeeAreaIsZero(t *testing.T) {
	cb := NewCoinbase(&CoinbaseTx{RewardArea: geometry.CoordinateFromInt(50), Beneficiary: testAddress(1)})
	if cb.FeeArea() != 0 {
		t.Error("coinbase transactions should have zero fee")
	}
}

func TestTransfer_SignableMessageMatchesHash(t *testing.T) {
	tr := NewTransfer(&TransferTx{
		InputHash: testHash(2),
		NewOwner:  testAddress(3),
		Sender:    testAddress(4),
		Amount:    geometry.CoordinateFromInt(5),
		FeeArea:   geometry.CoordinateFromInt(1),
		Nonce:     9,
	})

	msg, err := tr.SignableMessage()
	if err != nil {
		t.Fatalf("SignableMessage() error: %v", err)
	}
	want := crypto.Hash(msg)
	if tr.Hash() != want {
		t.Error("Transfer hash should equal Hash(SignableMessage())")
	}
}

func TestTransfer_SignAndVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}

	tr := NewTransfer(&TransferTx{
		InputHash: testHash(2),
		NewOwner:  testAddress(3),
		Sender:    key.Address(),
		Amount:    geometry.CoordinateFromInt(5),
		FeeArea:   geometry.CoordinateFromInt(1),
		Nonce:     1,
	})

	msg, err := tr.SignableMessage()
	if err != nil {
		t.Fatalf("SignableMessage() error: %v", err)
	}
	digest := crypto.Hash(msg)

	sig, err := key.Sign(digest[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	tr.Transfer.Signature = sig
	tr.Transfer.PublicKey = key.PublicKey()

	if !crypto.VerifySignature(digest[:], tr.Transfer.Signature, tr.Transfer.PublicKey) {
		t.Error("transfer signature should verify")
	}
}

func TestSubdivision_Hash_PayloadIncludesChildren(t *testing.T) {
	owner := testAddress(1)
	parent := sampleTriangle(owner)
	children := parent.Subdivide()

	s1 := NewSubdivision(&SubdivisionTx{
		ParentHash:   parent.Hash(),
		Children:     children,
		OwnerAddress: owner,
		FeeArea:      geometry.CoordinateFromInt(1),
		Nonce:        1,
	})

	mutated := children
	mutated[0].Owner = testAddress(99)
	s2 := NewSubdivision(&SubdivisionTx{
		ParentHash:   parent.Hash(),
		Children:     mutated,
		OwnerAddress: owner,
		FeeArea:      geometry.CoordinateFromInt(1),
		Nonce:        1,
	})

	if s1.Hash() == s2.Hash() {
		t.Error("changing a child triangle should change the subdivision hash")
	}
}

func TestTransaction_FeeArea(t *testing.T) {
	tr := NewTransfer(&TransferTx{FeeArea: geometry.CoordinateFromInt(3)})
	if tr.FeeArea() != geometry.CoordinateFromInt(3) {
		t.Error("Transfer FeeArea() mismatch")
	}

	owner := testAddress(1)
	parent := sampleTriangle(owner)
	s := NewSubdivision(&SubdivisionTx{
		ParentHash:   parent.Hash(),
		Children:     parent.Subdivide(),
		OwnerAddress: owner,
		FeeArea:      geometry.CoordinateFromInt(2),
	})
	if s.FeeArea() != geometry.CoordinateFromInt(2) {
		t.Error("Subdivision FeeArea() mismatch")
	}
}

func TestTransaction_JSONRoundtrip_Coinbase(t *testing.T) {
	cb := NewCoinbase(&CoinbaseTx{
		RewardArea:  geometry.CoordinateFromInt(50),
		Beneficiary: testAddress(1),
		Nonce:       42,
	})

	data, err := json.Marshal(cb)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var out Transaction
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if out.Kind != KindCoinbase {
		t.Fatalf("Kind = %v, want KindCoinbase", out.Kind)
	}
	if out.Hash() != cb.Hash() {
		t.Error("roundtripped coinbase should hash identically")
	}
}

func TestTransaction_JSONRoundtrip_Transfer(t *testing.T) {
	memo := "for rent"
	tr := NewTransfer(&TransferTx{
		InputHash: testHash(2),
		NewOwner:  testAddress(3),
		Sender:    testAddress(4),
		Amount:    geometry.CoordinateFromInt(5),
		FeeArea:   geometry.CoordinateFromInt(1),
		Nonce:     9,
		Memo:      &memo,
		Signature: []byte{1, 2, 3},
		PublicKey: []byte{4, 5, 6},
	})

	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var out Transaction
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if out.Kind != KindTransfer {
		t.Fatalf("Kind = %v, want KindTransfer", out.Kind)
	}
	if out.Hash() != tr.Hash() {
		t.Error("roundtripped transfer should hash identically")
	}
	if out.Transfer.Memo == nil || *out.Transfer.Memo != memo {
		t.Error("memo should survive roundtrip")
	}
}

func TestTransaction_JSONRoundtrip_Subdivision(t *testing.T) {
	owner := testAddress(1)
	parent := sampleTriangle(owner)
	s := NewSubdivision(&SubdivisionTx{
		ParentHash:   parent.Hash(),
		Children:     parent.Subdivide(),
		OwnerAddress: owner,
		FeeArea:      geometry.CoordinateFromInt(1),
		Nonce:        3,
		Signature:    []byte{9, 9},
		PublicKey:    []byte{8, 8},
	})

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var out Transaction
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if out.Kind != KindSubdivision {
		t.Fatalf("Kind = %v, want KindSubdivision", out.Kind)
	}
	if out.Hash() != s.Hash() {
		t.Error("roundtripped subdivision should hash identically")
	}
	for i := range out.Subdivision.Children {
		if out.Subdivision.Children[i].Hash() != s.Subdivision.Children[i].Hash() {
			t.Errorf("child %d hash mismatch after roundtrip", i)
		}
	}
}

func TestTransaction_UnmarshalJSON_UnknownType(t *testing.T) {
	var out Transaction
	err := json.Unmarshal([]byte(`{"type":"bogus"}`), &out)
	if err == nil {
		t.Error("expected error for unknown transaction type")
	}
}

func TestTransaction_ValidateSize(t *testing.T) {
	cb := NewCoinbase(&CoinbaseTx{RewardArea: geometry.CoordinateFromInt(50), Beneficiary: testAddress(1)})
	if err := cb.ValidateSize(100_000); err != nil {
		t.Errorf("ValidateSize() unexpected error: %v", err)
	}
	if err := cb.ValidateSize(1); err == nil {
		t.Error("ValidateSize() should reject an unreasonably small max size")
	}
}
