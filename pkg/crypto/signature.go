package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/trinitychain/trinitychain/pkg/types"
)

// PublicKeySize is the length of a compressed secp256k1 public key.
const PublicKeySize = 33

// Signer signs messages with a private key using ECDSA/secp256k1.
type Signer interface {
	// Sign produces a 64-byte compact ECDSA signature over a 32-byte hash.
	Sign(hash []byte) ([]byte, error)
	// PublicKey returns the compressed 33-byte public key.
	PublicKey() []byte
}

// Verifier verifies ECDSA/secp256k1 signatures.
type Verifier interface {
	// Verify checks a compact signature against a hash and compressed public key.
	Verify(hash, signature, publicKey []byte) bool
}

// PrivateKey wraps a secp256k1 private key for ECDSA signing.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key, using the
// platform's cryptographically secure random source.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	key := secp256k1.PrivKeyFromBytes(b)
	return &PrivateKey{key: key}, nil
}

// Sign produces a 64-byte compact ECDSA signature (R||S, big-endian)
// over a 32-byte hash.
func (pk *PrivateKey) Sign(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	sig := ecdsa.Sign(pk.key, hash)
	return derToCompact(sig.Serialize())
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// Address derives the owner address for this key: SHA-256 of the
// compressed public key.
func (pk *PrivateKey) Address() types.Address {
	return AddressFromPubKey(pk.PublicKey())
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// AddressFromPubKey derives an address from a compressed public key:
// address = SHA-256(compressed_pubkey).
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	return types.Address(h)
}

// Distinguished verification failures. ErrSignatureVerificationFailed is
// deliberately coarse: it covers every way a well-formed signature can
// fail to verify, so callers cannot probe for more detail than "it
// didn't verify." Malformed input lengths are reported distinctly since
// they indicate a caller bug, not a forged or tampered signature.
var (
	ErrInvalidKeyLength            = fmt.Errorf("public key must be %d bytes", PublicKeySize)
	ErrInvalidSignatureLength      = fmt.Errorf("signature must be %d bytes", CompactSignatureSize)
	ErrSignatureVerificationFailed = fmt.Errorf("signature verification failed")
)

// Verify checks a 64-byte compact ECDSA signature against a 32-byte
// hash and a compressed public key. A length mismatch is reported
// distinctly from a signature that parses fine but simply does not
// verify.
func Verify(hash, signature, publicKey []byte) error {
	if len(publicKey) != PublicKeySize {
		return ErrInvalidKeyLength
	}
	if len(signature) != CompactSignatureSize {
		return ErrInvalidSignatureLength
	}
	if !VerifySignature(hash, signature, publicKey) {
		return ErrSignatureVerificationFailed
	}
	return nil
}

// VerifySignature checks a 64-byte compact ECDSA signature against a
// 32-byte hash and a compressed public key. It fails closed: any
// malformed input (wrong key or signature length, unparsable key)
// returns false rather than an error. Most engine call sites use this
// coarse form directly; Verify above is for callers that need the
// distinguished length-vs-verification taxonomy.
func VerifySignature(hash, signature, publicKey []byte) bool {
	if len(publicKey) != PublicKeySize || len(signature) != CompactSignatureSize {
		return false
	}
	pubKey, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	der, err := compactToDER(signature)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return false
	}
	return sig.Verify(hash, pubKey)
}

// ECDSAVerifier implements the Verifier interface.
type ECDSAVerifier struct{}

// Verify checks a compact ECDSA signature against a hash and compressed public key.
func (v ECDSAVerifier) Verify(hash, signature, publicKey []byte) bool {
	return VerifySignature(hash, signature, publicKey)
}
