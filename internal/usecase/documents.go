package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/n-arms/md-pgp-server/internal/domain"
)

// CreateDocument mints time-ordered document IDs and persists new documents
// with an empty sharing list. Names are not unique; the ID is the handle.
type CreateDocument struct {
	Documents DocumentRepository
	Clock     func() time.Time
}

func (uc *CreateDocument) Execute(ctx context.Context, owner domain.Identity, name string) (domain.Document, error) {
	if owner == "" {
		return domain.Document{}, errors.New("owner identity is required")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Document{}, fmt.Errorf("mint document id: %w", err)
	}
	doc := domain.Document{
		ID:        id.String(),
		Name:      name,
		Owner:     owner,
		CreatedAt: uc.now(),
	}
	if err := uc.Documents.Insert(ctx, doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

func (uc *CreateDocument) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock()
	}
	return time.Now().UTC()
}

// ShareDocument appends a grantee to a document's sharing list. Only the
// owner may share, the grantee must be registered, and re-granting is a
// no-op. The check-then-append runs as one atomic unit per document, so
// concurrent grants are never lost.
type ShareDocument struct {
	Documents DocumentRepository
	Accounts  AccountRepository
}

func (uc *ShareDocument) Execute(ctx context.Context, docID string, requester, grantee domain.Identity) error {
	return uc.Documents.WithTx(ctx, docID, func(repo DocumentRepository) error {
		owner, err := repo.GetOwner(ctx, docID)
		if err != nil {
			return err
		}
		if owner != requester {
			return domain.ErrNotOwner
		}

		registered, err := uc.Accounts.Exists(ctx, grantee)
		if err != nil {
			return err
		}
		if !registered {
			return domain.ErrUnknownGrantee
		}

		list, err := repo.GetSharedWith(ctx, docID)
		if err != nil {
			return err
		}
		for _, id := range list {
			if id == grantee {
				return nil
			}
		}
		return repo.SetSharedWith(ctx, docID, append(list, grantee))
	})
}

// ListDocuments serves the document read paths.
type ListDocuments struct {
	Documents DocumentRepository
}

// Owned returns the documents identity owns, in creation order.
func (uc *ListDocuments) Owned(ctx context.Context, identity domain.Identity) ([]domain.DocumentSummary, error) {
	return uc.Documents.ListByOwner(ctx, identity)
}

// SharedWith returns the documents whose owners granted identity access.
func (uc *ListDocuments) SharedWith(ctx context.Context, identity domain.Identity) ([]domain.DocumentSummary, error) {
	return uc.Documents.ListSharedWith(ctx, identity)
}
