// Package enroll builds account registration messages on the client side: a
// one-pass signed OpenPGP message whose payload is the signer's own public
// key. The server accepts such a message as proof of key possession.
package enroll

import (
	"bytes"
	"crypto"
	"errors"
	"fmt"
	"io"
	"time"

	_ "crypto/sha256"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/packet"
)

// NewKey generates a fresh keypair with signed identity packets, ready for
// serialization. config may be nil for library defaults.
func NewKey(name, comment, email string, config *packet.Config) (*openpgp.Entity, error) {
	entity, err := openpgp.NewEntity(name, comment, email, config)
	if err != nil {
		return nil, err
	}
	// NewEntity leaves the identity self-signatures pending; serializing the
	// private key signs them in place.
	if err := entity.SerializePrivate(io.Discard, config); err != nil {
		return nil, err
	}
	return entity, nil
}

// PublicKeyBytes serializes the transferable public key of entity.
func PublicKeyBytes(entity *openpgp.Entity) ([]byte, error) {
	var buf bytes.Buffer
	if err := entity.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RegistrationMessage builds the self-signed registration blob for entity:
// its own public key, signed with the matching private key.
func RegistrationMessage(entity *openpgp.Entity) ([]byte, error) {
	payload, err := PublicKeyBytes(entity)
	if err != nil {
		return nil, err
	}
	return SignMessage(entity, payload)
}

// SignMessage wraps payload in a one-pass signed message signed by entity's
// primary key.
func SignMessage(entity *openpgp.Entity, payload []byte) ([]byte, error) {
	priv := entity.PrivateKey
	if priv == nil {
		return nil, errors.New("entity has no private key")
	}
	if priv.Encrypted {
		return nil, errors.New("private key is encrypted; decrypt it first")
	}

	var buf bytes.Buffer
	ops := &packet.OnePassSignature{
		SigType:    packet.SigTypeBinary,
		Hash:       crypto.SHA256,
		PubKeyAlgo: priv.PubKeyAlgo,
		KeyId:      priv.KeyId,
		IsLast:     true,
	}
	if err := ops.Serialize(&buf); err != nil {
		return nil, err
	}

	literal, err := packet.SerializeLiteral(nopCloser{&buf}, true, "", uint32(time.Now().Unix()))
	if err != nil {
		return nil, err
	}
	if _, err := literal.Write(payload); err != nil {
		return nil, err
	}
	if err := literal.Close(); err != nil {
		return nil, err
	}

	sig := &packet.Signature{
		SigType:      packet.SigTypeBinary,
		PubKeyAlgo:   priv.PubKeyAlgo,
		Hash:         crypto.SHA256,
		CreationTime: time.Now(),
		IssuerKeyId:  &priv.KeyId,
	}
	h := crypto.SHA256.New()
	h.Write(payload)
	if err := sig.Sign(h, priv, nil); err != nil {
		return nil, fmt.Errorf("sign payload: %w", err)
	}
	if err := sig.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// nopCloser adapts a buffer to the io.WriteCloser SerializeLiteral wants.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// ReadSecretKey loads the first entity from an armored or binary private key
// stream and requires it to carry a usable private key.
func ReadSecretKey(r io.Reader) (*openpgp.Entity, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("parse secret key: %w", err)
	}
	for _, entity := range entities {
		if entity.PrivateKey != nil {
			return entity, nil
		}
	}
	return nil, errors.New("no private key found")
}
