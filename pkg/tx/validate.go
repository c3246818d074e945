package tx

import (
	"errors"
	"fmt"

	"github.com/trinitychain/trinitychain/config"
	"github.com/trinitychain/trinitychain/pkg/crypto"
	"github.com/trinitychain/trinitychain/pkg/geometry"
)

// Stateless validation errors.
var (
	ErrZeroBeneficiary   = errors.New("coinbase beneficiary is zero address")
	ErrRewardOutOfBounds = errors.New("coinbase reward_area out of bounds")
	ErrZeroAddress       = errors.New("address is zero")
	ErrSameAddress       = errors.New("sender and new_owner must differ")
	ErrNegativeAmount    = errors.New("amount must be non-negative")
	ErrNegativeFee       = errors.New("fee_area must be non-negative")
	ErrNonPositiveSpend  = errors.New("amount+fee_area must be positive")
	ErrMemoTooLong       = errors.New("memo exceeds maximum length")
	ErrMissingSignature  = errors.New("missing signature")
	ErrMissingPublicKey  = errors.New("missing public key")
	ErrInvalidSignature  = errors.New("signature does not verify")
	ErrSenderMismatch    = errors.New("sender does not derive from public key")
	ErrChildMismatch     = errors.New("subdivision children do not match deterministic subdivide")
)

// Validate performs the stateless checks that don't require UTXO access:
// structural bounds, address rules, signature well-formedness.
func (t *Transaction) Validate() error {
	switch t.Kind {
	case KindCoinbase:
		return t.validateCoinbase()
	case KindTransfer:
		return t.validateTransfer()
	case KindSubdivision:
		return t.validateSubdivisionShape()
	default:
		return fmt.Errorf("unknown transaction kind %v", t.Kind)
	}
}

func (t *Transaction) validateCoinbase() error {
	c := t.Coinbase
	if c.Beneficiary.IsZero() {
		return ErrZeroBeneficiary
	}
	if c.RewardArea <= 0 || c.RewardArea > config.MaxRewardArea {
		return ErrRewardOutOfBounds
	}
	return nil
}

func (t *Transaction) validateTransfer() error {
	tr := t.Transfer
	if tr.Sender.IsZero() || tr.NewOwner.IsZero() {
		return ErrZeroAddress
	}
	if tr.Sender == tr.NewOwner {
		return ErrSameAddress
	}
	if tr.Amount < 0 {
		return ErrNegativeAmount
	}
	if tr.FeeArea < 0 {
		return ErrNegativeFee
	}
	if tr.Amount.Add(tr.FeeArea) <= 0 {
		return ErrNonPositiveSpend
	}
	if tr.Memo != nil && len(*tr.Memo) > config.MaxMemoLength {
		return ErrMemoTooLong
	}
	return t.verifySignature()
}

// validateSubdivisionShape checks everything that does not require the
// parent triangle from state: owner address, fee sign, and signature.
// The children are not checked here; ValidateSubdivisionChildren
// compares them with the parent's subdivide during state-aware
// validation.
func (t *Transaction) validateSubdivisionShape() error {
	s := t.Subdivision
	if s.OwnerAddress.IsZero() {
		return ErrZeroAddress
	}
	if s.FeeArea < 0 {
		return ErrNegativeFee
	}
	return t.verifySignature()
}

func (t *Transaction) verifySignature() error {
	var sig, pubKey []byte
	var sender [32]byte

	switch t.Kind {
	case KindTransfer:
		sig, pubKey = t.Transfer.Signature, t.Transfer.PublicKey
		sender = t.Transfer.Sender
	case KindSubdivision:
		sig, pubKey = t.Subdivision.Signature, t.Subdivision.PublicKey
		sender = t.Subdivision.OwnerAddress
	default:
		return nil
	}

	if len(sig) == 0 {
		return ErrMissingSignature
	}
	if len(pubKey) == 0 {
		return ErrMissingPublicKey
	}

	derived := crypto.AddressFromPubKey(pubKey)
	if [32]byte(derived) != sender {
		return ErrSenderMismatch
	}

	msg, err := t.SignableMessage()
	if err != nil {
		return err
	}
	digest := crypto.Hash(msg)
	if !crypto.VerifySignature(digest[:], sig, pubKey) {
		return ErrInvalidSignature
	}
	return nil
}

// ValidateSubdivisionChildren checks that the supplied children's
// vertex coordinates exactly equal the deterministic subdivide of
// parent, in order. This is a purely geometric check: owner and value
// are deliberately excluded, since a Subdivision's owner is fixed by
// the transaction's own OwnerAddress and its value split is governed
// by the separate conservation check in utxo_validate.go, which must
// remain free to account for a retained fee_area. This requires the
// parent triangle, which the caller obtains from state — it is
// invoked as part of state-aware validation in utxo_validate.go.
func ValidateSubdivisionChildren(parent geometry.Triangle, children [3]geometry.Triangle) error {
	want := parent.Subdivide()
	for i := range want {
		if !children[i].SameVertices(want[i]) {
			return ErrChildMismatch
		}
	}
	return nil
}
