// Package tx implements the three transaction variants that mutate
// triangle UTXO state: Coinbase, Transfer, and Subdivision.
package tx

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/trinitychain/trinitychain/pkg/crypto"
	"github.com/trinitychain/trinitychain/pkg/geometry"
	"github.com/trinitychain/trinitychain/pkg/types"
)

// Kind discriminates the transaction variant.
type Kind int

const (
	KindCoinbase Kind = iota
	KindTransfer
	KindSubdivision
)

func (k Kind) String() string {
	switch k {
	case KindCoinbase:
		return "coinbase"
	case KindTransfer:
		return "transfer"
	case KindSubdivision:
		return "subdivision"
	default:
		return "unknown"
	}
}

// CoinbaseTx mints a new triangle as a miner reward; it has no input
// and no signature.
type CoinbaseTx struct {
	RewardArea  geometry.Coordinate
	Beneficiary types.Address
	Nonce       uint64
}

// TransferTx reassigns ownership of an existing triangle, optionally
// returning unspent value as change back to the sender.
type TransferTx struct {
	InputHash types.Hash
	NewOwner  types.Address
	Sender    types.Address
	Amount    geometry.Coordinate
	FeeArea   geometry.Coordinate
	Nonce     uint64
	Memo      *string
	Signature []byte
	PublicKey []byte
}

// SubdivisionTx consumes a parent triangle and produces its three
// Sierpinski corner children.
type SubdivisionTx struct {
	ParentHash   types.Hash
	Children     [3]geometry.Triangle
	OwnerAddress types.Address
	FeeArea      geometry.Coordinate
	Nonce        uint64
	Signature    []byte
	PublicKey    []byte
}

// Transaction is a tagged union over the three variants. Exactly one
// of Coinbase, Transfer, Subdivision is non-nil, matching Kind.
type Transaction struct {
	Kind        Kind
	Coinbase    *CoinbaseTx
	Transfer    *TransferTx
	Subdivision *SubdivisionTx
}

func NewCoinbase(t *CoinbaseTx) *Transaction {
	return &Transaction{Kind: KindCoinbase, Coinbase: t}
}

func NewTransfer(t *TransferTx) *Transaction {
	return &Transaction{Kind: KindTransfer, Transfer: t}
}

func NewSubdivision(t *SubdivisionTx) *Transaction {
	return &Transaction{Kind: KindSubdivision, Subdivision: t}
}

func le8(n uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, n)
	return b
}

// payloadBytes returns the exact canonical byte concatenation used both
// as the signable message and as the hash() input, per variant.
func (t *Transaction) payloadBytes() ([]byte, error) {
	switch t.Kind {
	case KindCoinbase:
		c := t.Coinbase
		buf := append([]byte("coinbase"), c.RewardArea.Bytes()...)
		buf = append(buf, c.Beneficiary[:]...)
		buf = append(buf, le8(c.Nonce)...)
		return buf, nil
	case KindTransfer:
		tr := t.Transfer
		buf := append([]byte("transfer"), tr.InputHash[:]...)
		buf = append(buf, tr.NewOwner[:]...)
		buf = append(buf, tr.Sender[:]...)
		buf = append(buf, tr.Amount.Bytes()...)
		buf = append(buf, tr.FeeArea.Bytes()...)
		buf = append(buf, le8(tr.Nonce)...)
		return buf, nil
	case KindSubdivision:
		s := t.Subdivision
		buf := append([]byte{}, s.ParentHash[:]...)
		for _, child := range s.Children {
			ch := child.Hash()
			buf = append(buf, ch[:]...)
		}
		buf = append(buf, s.OwnerAddress[:]...)
		buf = append(buf, s.FeeArea.Bytes()...)
		buf = append(buf, le8(s.Nonce)...)
		return buf, nil
	default:
		return nil, fmt.Errorf("unknown transaction kind %v", t.Kind)
	}
}

// Hash returns the transaction's stable 32-byte identity.
func (t *Transaction) Hash() types.Hash {
	payload, err := t.payloadBytes()
	if err != nil {
		// payloadBytes only fails for a malformed Kind, which is a
		// programming bug, not a data-dependent condition.
		panic(err)
	}
	return crypto.Hash(payload)
}

// SignableMessage returns the bytes that must be signed for
// Transfer/Subdivision transactions. It is identical to the hash
// payload: signing covers the same canonical fields as the identity
// hash.
func (t *Transaction) SignableMessage() ([]byte, error) {
	switch t.Kind {
	case KindTransfer, KindSubdivision:
		return t.payloadBytes()
	default:
		return nil, fmt.Errorf("kind %v has no signable message", t.Kind)
	}
}

// FeeArea returns the fee this transaction retains for the miner.
// Coinbase transactions have no fee.
func (t *Transaction) FeeArea() geometry.Coordinate {
	switch t.Kind {
	case KindTransfer:
		return t.Transfer.FeeArea
	case KindSubdivision:
		return t.Subdivision.FeeArea
	default:
		return 0
	}
}

// ValidateSize reports whether the transaction's JSON-serialized size
// (the wire format used for persistence and transport) is within the
// configured maximum.
func (t *Transaction) ValidateSize(maxBytes int) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("serialize transaction: %w", err)
	}
	if len(data) > maxBytes {
		return fmt.Errorf("transaction size %d exceeds maximum %d", len(data), maxBytes)
	}
	return nil
}

// --- JSON tagged-union encoding ---

type txEnvelope struct {
	Type        string           `json:"type"`
	Coinbase    *coinbaseJSON    `json:"coinbase,omitempty"`
	Transfer    *transferJSON    `json:"transfer,omitempty"`
	Subdivision *subdivisionJSON `json:"subdivision,omitempty"`
}

type coinbaseJSON struct {
	RewardArea  int64         `json:"reward_area_bits"`
	Beneficiary types.Address `json:"beneficiary"`
	Nonce       uint64        `json:"nonce"`
}

type transferJSON struct {
	InputHash types.Hash    `json:"input_hash"`
	NewOwner  types.Address `json:"new_owner"`
	Sender    types.Address `json:"sender"`
	Amount    int64         `json:"amount_bits"`
	FeeArea   int64         `json:"fee_area_bits"`
	Nonce     uint64        `json:"nonce"`
	Memo      *string       `json:"memo,omitempty"`
	Signature []byte        `json:"signature"`
	PublicKey []byte        `json:"public_key"`
}

type triangleJSON struct {
	AX, AY, BX, BY, CX, CY int64
	ParentHash             *types.Hash
	Owner                  types.Address
	Value                  *int64
}

func toTriangleJSON(t geometry.Triangle) triangleJSON {
	var value *int64
	if t.Value != nil {
		v := t.Value.Bits()
		value = &v
	}
	return triangleJSON{
		AX: t.A.X.Bits(), AY: t.A.Y.Bits(),
		BX: t.B.X.Bits(), BY: t.B.Y.Bits(),
		CX: t.C.X.Bits(), CY: t.C.Y.Bits(),
		ParentHash: t.ParentHash,
		Owner:      t.Owner,
		Value:      value,
	}
}

func fromTriangleJSON(j triangleJSON) geometry.Triangle {
	tri := geometry.Triangle{
		A:          geometry.Point{X: geometry.Coordinate(j.AX), Y: geometry.Coordinate(j.AY)},
		B:          geometry.Point{X: geometry.Coordinate(j.BX), Y: geometry.Coordinate(j.BY)},
		C:          geometry.Point{X: geometry.Coordinate(j.CX), Y: geometry.Coordinate(j.CY)},
		ParentHash: j.ParentHash,
		Owner:      j.Owner,
	}
	if j.Value != nil {
		v := geometry.Coordinate(*j.Value)
		tri.Value = &v
	}
	return tri
}

type subdivisionJSON struct {
	ParentHash   types.Hash      `json:"parent_hash"`
	Children     [3]triangleJSON `json:"children"`
	OwnerAddress types.Address   `json:"owner_address"`
	FeeArea      int64           `json:"fee_area_bits"`
	Nonce        uint64          `json:"nonce"`
	Signature    []byte          `json:"signature"`
	PublicKey    []byte          `json:"public_key"`
}

func (t *Transaction) MarshalJSON() ([]byte, error) {
	env := txEnvelope{Type: t.Kind.String()}
	switch t.Kind {
	case KindCoinbase:
		c := t.Coinbase
		env.Coinbase = &coinbaseJSON{RewardArea: c.RewardArea.Bits(), Beneficiary: c.Beneficiary, Nonce: c.Nonce}
	case KindTransfer:
		tr := t.Transfer
		env.Transfer = &transferJSON{
			InputHash: tr.InputHash, NewOwner: tr.NewOwner, Sender: tr.Sender,
			Amount: tr.Amount.Bits(), FeeArea: tr.FeeArea.Bits(), Nonce: tr.Nonce,
			Memo: tr.Memo, Signature: tr.Signature, PublicKey: tr.PublicKey,
		}
	case KindSubdivision:
		s := t.Subdivision
		env.Subdivision = &subdivisionJSON{
			ParentHash:   s.ParentHash,
			Children:     [3]triangleJSON{toTriangleJSON(s.Children[0]), toTriangleJSON(s.Children[1]), toTriangleJSON(s.Children[2])},
			OwnerAddress: s.OwnerAddress, FeeArea: s.FeeArea.Bits(), Nonce: s.Nonce,
			Signature: s.Signature, PublicKey: s.PublicKey,
		}
	default:
		return nil, fmt.Errorf("unknown transaction kind %v", t.Kind)
	}
	return json.Marshal(env)
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var env txEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Type {
	case KindCoinbase.String():
		if env.Coinbase == nil {
			return fmt.Errorf("missing coinbase payload")
		}
		t.Kind = KindCoinbase
		t.Coinbase = &CoinbaseTx{
			RewardArea:  geometry.Coordinate(env.Coinbase.RewardArea),
			Beneficiary: env.Coinbase.Beneficiary,
			Nonce:       env.Coinbase.Nonce,
		}
	case KindTransfer.String():
		if env.Transfer == nil {
			return fmt.Errorf("missing transfer payload")
		}
		j := env.Transfer
		t.Kind = KindTransfer
		t.Transfer = &TransferTx{
			InputHash: j.InputHash, NewOwner: j.NewOwner, Sender: j.Sender,
			Amount: geometry.Coordinate(j.Amount), FeeArea: geometry.Coordinate(j.FeeArea),
			Nonce: j.Nonce, Memo: j.Memo, Signature: j.Signature, PublicKey: j.PublicKey,
		}
	case KindSubdivision.String():
		if env.Subdivision == nil {
			return fmt.Errorf("missing subdivision payload")
		}
		j := env.Subdivision
		t.Kind = KindSubdivision
		t.Subdivision = &SubdivisionTx{
			ParentHash:   j.ParentHash,
			Children:     [3]geometry.Triangle{fromTriangleJSON(j.Children[0]), fromTriangleJSON(j.Children[1]), fromTriangleJSON(j.Children[2])},
			OwnerAddress: j.OwnerAddress, FeeArea: geometry.Coordinate(j.FeeArea), Nonce: j.Nonce,
			Signature: j.Signature, PublicKey: j.PublicKey,
		}
	default:
		return fmt.Errorf("unknown transaction type %q", env.Type)
	}
	return nil
}
