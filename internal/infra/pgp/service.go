// Package pgp implements the OpenPGP trust boundary: decoding signed
// messages, parsing self-declared public keys and verifying signatures.
// It has no storage access and no side effects.
package pgp

import (
	"bytes"
	"fmt"

	// Register the hash algorithms signatures are allowed to use.
	_ "crypto/sha256"
	_ "crypto/sha512"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/packet"

	"github.com/n-arms/md-pgp-server/internal/domain"
)

// Service adapts the package functions to the usecase.CryptoService
// contract.
type Service struct{}

func (Service) ParseMessage(raw []byte) (*domain.SignedMessage, error) {
	return ParseMessage(raw)
}

func (Service) ParsePublicKey(raw []byte) (*domain.PublicKey, error) {
	return ParsePublicKey(raw)
}

func (Service) Verify(signature []byte, key domain.PublicKey, payload []byte) error {
	return Verify(signature, key, payload)
}

// ParsePublicKey decodes raw bytes as a transferable public key and derives
// the canonical identity of its primary key. The material is retained
// verbatim so later signatures can be re-verified against it.
func ParsePublicKey(raw []byte) (*domain.PublicKey, error) {
	entities, err := openpgp.ReadKeyRing(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyParse, err)
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("%w: no key in payload", domain.ErrKeyParse)
	}
	material := make([]byte, len(raw))
	copy(material, raw)
	return &domain.PublicKey{
		Identity: domain.IdentityFromKeyID(entities[0].PrimaryKey.KeyId),
		Material: material,
	}, nil
}

// Verify checks that signature (a raw signature packet) is a valid signature
// by key's primary key over exactly payload. Any failure, cryptographic or
// structural, reports ErrSignatureInvalid.
func Verify(signature []byte, key domain.PublicKey, payload []byte) error {
	p, err := packet.Read(bytes.NewReader(signature))
	if err != nil {
		return fmt.Errorf("%w: bad signature packet: %v", domain.ErrSignatureInvalid, err)
	}
	sig, ok := p.(*packet.Signature)
	if !ok {
		return fmt.Errorf("%w: not a signature packet", domain.ErrSignatureInvalid)
	}

	entities, err := openpgp.ReadKeyRing(bytes.NewReader(key.Material))
	if err != nil || len(entities) == 0 {
		return fmt.Errorf("%w: unreadable key material", domain.ErrSignatureInvalid)
	}
	primary := entities[0].PrimaryKey

	if !sig.Hash.Available() {
		return fmt.Errorf("%w: unsupported hash algorithm", domain.ErrSignatureInvalid)
	}
	h := sig.Hash.New()
	h.Write(payload)
	if err := primary.VerifySignature(h, sig); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}
	return nil
}
