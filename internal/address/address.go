// Package address derives stable record locations from a namespace and seeds.
//
// A location is the BLAKE3 keyed hash of the Core Deterministic CBOR encoding
// of [namespace, seeds...]. The same namespace and seeds always produce the
// same location, and distinct namespaces never collide for equal seeds.
package address

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// Namespaces for ledger records.
const (
	QuestionBank = "question_bank"
	Question     = "question"
	Reputation   = "reputation"
	Pool         = "pool"
	RewardVault  = "reward_vault"
	Claim        = "claim"
)

// Address is a 32-byte derived record location.
type Address [32]byte

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// Parse decodes the hex form produced by String.
func Parse(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("decode address: %w", err)
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("decode address: want %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}

// derivationKey is the ASCII "soltrivia.ledger.address" zero-padded to 32
// bytes. Changing it relocates every record.
var derivationKey = [32]byte{
	's', 'o', 'l', 't', 'r', 'i', 'v', 'i', 'a', '.', 'l', 'e', 'd', 'g', 'e', 'r',
	'.', 'a', 'd', 'd', 'r', 'e', 's', 's', 0, 0, 0, 0, 0, 0, 0, 0,
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("address: CBOR encoder initialization failed: " + err.Error())
	}
}

// Derive returns the location for namespace and seeds. Seeds must be CBOR
// encodable (integers, strings, byte slices); anything else is a programming
// error and panics.
func Derive(namespace string, seeds ...any) Address {
	a, err := TryDerive(namespace, seeds...)
	if err != nil {
		panic(err)
	}
	return a
}

// TryDerive is Derive for seeds supplied by callers, such as transfer
// authorizations, where an unencodable seed is an input error.
func TryDerive(namespace string, seeds ...any) (Address, error) {
	var a Address

	parts := make([]any, 0, len(seeds)+1)
	parts = append(parts, namespace)
	parts = append(parts, seeds...)

	encoded, err := encMode.Marshal(parts)
	if err != nil {
		return a, fmt.Errorf("address: encode seeds for %q: %w", namespace, err)
	}

	hasher, err := blake3.NewKeyed(derivationKey[:])
	if err != nil {
		return a, fmt.Errorf("address: keyed hash init: %w", err)
	}
	if _, err := hasher.Write(encoded); err != nil {
		return a, fmt.Errorf("address: hash seeds: %w", err)
	}
	copy(a[:], hasher.Sum(nil))
	return a, nil
}

func ForQuestionBank() Address {
	return Derive(QuestionBank)
}

func ForQuestion(id uint64) Address {
	return Derive(Question, id)
}

func ForReputation(user string) Address {
	return Derive(Reputation, user)
}

func ForPool(id uint64) Address {
	return Derive(Pool, id)
}

func ForVault(poolID uint64) Address {
	return Derive(RewardVault, poolID)
}

func ForClaim(poolID uint64, user string) Address {
	return Derive(Claim, poolID, user)
}
