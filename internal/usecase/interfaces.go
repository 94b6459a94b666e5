package usecase

import (
	"context"

	"github.com/n-arms/md-pgp-server/internal/domain"
)

// CryptoService is the trust boundary: everything that parses or checks
// untrusted cryptographic input. Implemented by infra/pgp.
type CryptoService interface {
	// ParseMessage decodes a signed message; the returned payload is the
	// exact signed byte sequence.
	ParseMessage(raw []byte) (*domain.SignedMessage, error)
	// ParsePublicKey decodes key material and derives its canonical identity.
	ParsePublicKey(raw []byte) (*domain.PublicKey, error)
	// Verify checks signature over payload against key. Pure; no side
	// effects, no registry access.
	Verify(signature []byte, key domain.PublicKey, payload []byte) error
}

// AccountRepository persists registered identities. Create must be rejecting
// on duplicates, not upserting; the storage layer's uniqueness constraint is
// the only registration race guard needed.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	Exists(ctx context.Context, identity domain.Identity) (bool, error)
}

// DocumentRepository persists documents and their sharing lists. All methods
// report domain.ErrUnknownDocument for missing IDs. Implementations own the
// sharing-list representation; callers only ever see []domain.Identity.
type DocumentRepository interface {
	Insert(ctx context.Context, doc domain.Document) error
	GetOwner(ctx context.Context, docID string) (domain.Identity, error)
	GetSharedWith(ctx context.Context, docID string) ([]domain.Identity, error)
	SetSharedWith(ctx context.Context, docID string, list []domain.Identity) error
	ListByOwner(ctx context.Context, owner domain.Identity) ([]domain.DocumentSummary, error)
	ListSharedWith(ctx context.Context, identity domain.Identity) ([]domain.DocumentSummary, error)

	// WithTx runs fn against a repository view whose reads and writes for
	// docID form one atomic unit: concurrent WithTx calls for the same
	// document must serialize, so a share's read-modify-write can never
	// lose a concurrent grant.
	WithTx(ctx context.Context, docID string, fn func(repo DocumentRepository) error) error
}
