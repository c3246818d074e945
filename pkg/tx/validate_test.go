package tx

import (
	"testing"

	"github.com/trinitychain/trinitychain/pkg/crypto"
	"github.com/trinitychain/trinitychain/pkg/geometry"
)

func signedTransfer(t *testing.T, sender *crypto.PrivateKey, newOwner [32]byte, amount, fee geometry.Coordinate) *Transaction {
	t.Helper()
	tr := NewTransfer(&TransferTx{
		InputHash: testHash(1),
		NewOwner:  newOwner,
		Sender:    sender.Address(),
		Amount:    amount,
		FeeArea:   fee,
		Nonce:     1,
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

func TestValidate_Coinbase_Valid(t *testing.T) {
	cb := NewCoinbase(&CoinbaseTx{RewardArea: geometry.CoordinateFromInt(50), Beneficiary: testAddress(1)})
	if err := cb.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_Coinbase_ZeroBeneficiary(t *testing.T) {
	cb := NewCoinbase(&CoinbaseTx{RewardArea: geometry.CoordinateFromInt(50), Beneficiary: testAddress(0)})
	if err := cb.Validate(); err != ErrZeroBeneficiary {
		t.Errorf("Validate() = %v, want ErrZeroBeneficiary", err)
	}
}

func TestValidate_Coinbase_RewardOutOfBounds(t *testing.T) {
	cb := NewCoinbase(&CoinbaseTx{RewardArea: 0, Beneficiary: testAddress(1)})
	if err := cb.Validate(); err != ErrRewardOutOfBounds {
		t.Errorf("Validate() = %v, want ErrRewardOutOfBounds for zero reward", err)
	}

	tooBig := NewCoinbase(&CoinbaseTx{RewardArea: geometry.CoordinateFromInt(1_000_001), Beneficiary: testAddress(1)})
	if err := tooBig.Validate(); err != ErrRewardOutOfBounds {
		t.Errorf("Validate() = %v, want ErrRewardOutOfBounds for excessive reward", err)
	}
}

func TestValidate_Transfer_Valid(t *testing.T) {
	sender, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	tr := signedTransfer(t, sender, testAddress(2), geometry.CoordinateFromInt(5), geometry.CoordinateFromInt(1))
	if err := tr.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_Transfer_SameAddress(t *testing.T) {
	sender, _ := crypto.GenerateKey()
	tr := signedTransfer(t, sender, sender.Address(), geometry.CoordinateFromInt(5), geometry.CoordinateFromInt(1))
	if err := tr.Validate(); err != ErrSameAddress {
		t.Errorf("Validate() = %v, want ErrSameAddress", err)
	}
}

func TestValidate_Transfer_NonPositiveSpend(t *testing.T) {
	sender, _ := crypto.GenerateKey()
	tr := signedTransfer(t, sender, testAddress(2), 0, 0)
	if err := tr.Validate(); err != ErrNonPositiveSpend {
		t.Errorf("Validate() = %v, want ErrNonPositiveSpend", err)
	}
}

func TestValidate_Transfer_NegativeAmountOrFee(t *testing.T) {
	sender, _ := crypto.GenerateKey()

	// A negative amount offset by a larger fee still sums positive; it
	// must be rejected on its own sign, not on the sum.
	tr := signedTransfer(t, sender, testAddress(2), geometry.CoordinateFromInt(-1), geometry.CoordinateFromInt(5))
	if err := tr.Validate(); err != ErrNegativeAmount {
		t.Errorf("Validate() = %v, want ErrNegativeAmount", err)
	}

	tr = signedTransfer(t, sender, testAddress(2), geometry.CoordinateFromInt(5), geometry.CoordinateFromInt(-1))
	if err := tr.Validate(); err != ErrNegativeFee {
		t.Errorf("Validate() = %v, want ErrNegativeFee", err)
	}
}

func TestValidate_Transfer_MemoTooLong(t *testing.T) {
	sender, _ := crypto.GenerateKey()
	tr := signedTransfer(t, sender, testAddress(2), geometry.CoordinateFromInt(5), geometry.CoordinateFromInt(1))
	longMemo := make([]byte, 257)
	for i := range longMemo {
		longMemo[i] = 'a'
	}
	memo := string(longMemo)
	tr.Transfer.Memo = &memo
	if err := tr.Validate(); err != ErrMemoTooLong {
		t.Errorf("Validate() = %v, want ErrMemoTooLong", err)
	}
}

func TestValidate_Transfer_MissingSignature(t *testing.T) {
	sender, _ := crypto.GenerateKey()
	tr := NewTransfer(&TransferTx{
		InputHash: testHash(1),
		NewOwner:  testAddress(2),
		Sender:    sender.Address(),
		Amount:    geometry.CoordinateFromInt(5),
		FeeArea:   geometry.CoordinateFromInt(1),
	})
	if err := tr.Validate(); err != ErrMissingSignature {
		t.Errorf("Validate() = %v, want ErrMissingSignature", err)
	}
}

func TestValidate_Transfer_SenderMismatch(t *testing.T) {
	sender, _ := crypto.GenerateKey()
	other, _ := crypto.GenerateKey()
	tr := signedTransfer(t, sender, testAddress(2), geometry.CoordinateFromInt(5), geometry.CoordinateFromInt(1))
	tr.Transfer.Sender = other.Address()
	if err := tr.Validate(); err != ErrSenderMismatch {
		t.Errorf("Validate() = %v, want ErrSenderMismatch", err)
	}
}

func TestValidate_Transfer_InvalidSignature(t *testing.T) {
	sender, _ := crypto.GenerateKey()
	tr := signedTransfer(t, sender, testAddress(2), geometry.CoordinateFromInt(5), geometry.CoordinateFromInt(1))
	tr.Transfer.Signature[0] ^= 0xFF
	if err := tr.Validate(); err != ErrInvalidSignature {
		t.Errorf("Validate() = %v, want ErrInvalidSignature", err)
	}
}

func TestValidateSubdivisionChildren_Match(t *testing.T) {
	parent := sampleTriangle(testAddress(1))
	children := parent.Subdivide()
	if err := ValidateSubdivisionChildren(parent, children); err != nil {
		t.Errorf("ValidateSubdivisionChildren() unexpected error: %v", err)
	}
}

func TestValidateSubdivisionChildren_Mismatch(t *testing.T) {
	parent := sampleTriangle(testAddress(1))
	children := parent.Subdivide()
	children[0].A.X = children[0].A.X.Add(geometry.CoordinateFromInt(1))
	if err := ValidateSubdivisionChildren(parent, children); err != ErrChildMismatch {
		t.Errorf("ValidateSubdivisionChildren() = %v, want ErrChildMismatch", err)
	}
}

// Owner and value are not part of the geometric check: a Subdivision's
// owner comes from the transaction's own OwnerAddress field, and its
// value split is governed by the separate conservation check, not by
// Subdivide()'s default even three-way split.
func TestValidateSubdivisionChildren_IgnoresOwnerAndValue(t *testing.T) {
	parent := sampleTriangle(testAddress(1))
	children := parent.Subdivide()
	children[0].Owner = testAddress(99)
	altValue := children[1].EffectiveValue().Sub(geometry.CoordinateFromFloat64(0.1))
	children[1] = children[1].WithEffectiveValue(altValue)
	if err := ValidateSubdivisionChildren(parent, children); err != nil {
		t.Errorf("ValidateSubdivisionChildren() unexpected error: %v", err)
	}
}
