package domain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// Identity is the canonical text form of an OpenPGP key ID: the 8-byte
// identifier lowercase hex encoded, 16 characters. Two identities are equal
// iff their encodings are byte-equal, so Identity values must only ever be
// constructed through this package.
//
// An Identity is a lookup key, not a trust anchor. Nothing may be attributed
// to an identity until a signature verified against the registered key.
type Identity string

const identityHexLen = 16

// IdentityFromKeyID encodes an 8-byte OpenPGP key ID in canonical form.
func IdentityFromKeyID(keyID uint64) Identity {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], keyID)
	return Identity(hex.EncodeToString(raw[:]))
}

// ParseIdentity canonicalizes and validates an externally supplied identity
// string. Uppercase hex is accepted and folded to the canonical lowercase
// form.
func ParseIdentity(s string) (Identity, error) {
	s = strings.ToLower(s)
	if len(s) != identityHexLen {
		return "", fmt.Errorf("identity must be %d hex characters, got %d", identityHexLen, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("identity is not valid hex: %w", err)
	}
	return Identity(s), nil
}

func (id Identity) String() string {
	return string(id)
}
