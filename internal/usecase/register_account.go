package usecase

import (
	"context"
	"time"

	"github.com/n-arms/md-pgp-server/internal/domain"
)

// RegisterAccount runs the self-certifying registration protocol: the raw
// input must be a signed message whose payload is the signer's own public
// key. Steps 1-5 are pure validation; nothing is persisted until they all
// pass.
type RegisterAccount struct {
	Accounts AccountRepository
	Crypto   CryptoService
	Clock    func() time.Time
}

func (uc *RegisterAccount) Execute(ctx context.Context, raw []byte) (domain.Identity, error) {
	// Step 1: decode {signature, payload}.
	msg, err := uc.Crypto.ParseMessage(raw)
	if err != nil {
		return "", err
	}

	// Step 2: the payload must itself be a public key.
	key, err := uc.Crypto.ParsePublicKey(msg.Payload)
	if err != nil {
		return "", err
	}

	// Step 3: the signature must declare exactly one issuer.
	issuer, err := msg.Issuer()
	if err != nil {
		return "", err
	}

	// Step 4: the signature must verify against the declared key over the
	// exact payload bytes.
	if err := uc.Crypto.Verify(msg.Signature, *key, msg.Payload); err != nil {
		return "", err
	}

	// Step 5: the key must have signed itself; a valid signature by some
	// other key over this key material proves nothing.
	if key.Identity != issuer {
		return "", domain.ErrIssuerKeyMismatch
	}

	// Step 6: first write. The store's uniqueness constraint rejects the
	// second of two concurrent registrations.
	account := domain.Account{
		Identity:    key.Identity,
		KeyMaterial: key.Material,
		CreatedAt:   uc.now(),
	}
	if err := uc.Accounts.Create(ctx, account); err != nil {
		return "", err
	}
	return key.Identity, nil
}

func (uc *RegisterAccount) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock()
	}
	return time.Now().UTC()
}
