// Package memstore keeps accounts and documents in process memory. It backs
// the server's no-db mode and the test suite; semantics match the database
// repositories, including per-document serialization of sharing updates.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/n-arms/md-pgp-server/internal/domain"
	"github.com/n-arms/md-pgp-server/internal/usecase"
)

type Store struct {
	mu       sync.Mutex
	accounts map[domain.Identity]domain.Account
	docs     map[string]domain.Document

	txMu    sync.Mutex
	txLocks map[string]*txLock
}

type txLock struct {
	mu   sync.Mutex
	refs int
}

func New() *Store {
	return &Store{
		accounts: make(map[domain.Identity]domain.Account),
		docs:     make(map[string]domain.Document),
		txLocks:  make(map[string]*txLock),
	}
}

func (s *Store) Create(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.Identity]; ok {
		return domain.ErrDuplicateIdentity
	}
	account.KeyMaterial = append([]byte(nil), account.KeyMaterial...)
	s.accounts[account.Identity] = account
	return nil
}

func (s *Store) Exists(ctx context.Context, identity domain.Identity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[identity]
	return ok, nil
}

func (s *Store) Insert(ctx context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.SharedWith = append([]domain.Identity(nil), doc.SharedWith...)
	s.docs[doc.ID] = doc
	return nil
}

func (s *Store) GetOwner(ctx context.Context, docID string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return "", domain.ErrUnknownDocument
	}
	return doc.Owner, nil
}

func (s *Store) GetSharedWith(ctx context.Context, docID string) ([]domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, domain.ErrUnknownDocument
	}
	return append([]domain.Identity(nil), doc.SharedWith...), nil
}

func (s *Store) SetSharedWith(ctx context.Context, docID string, list []domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return domain.ErrUnknownDocument
	}
	doc.SharedWith = append([]domain.Identity(nil), list...)
	s.docs[docID] = doc
	return nil
}

func (s *Store) ListByOwner(ctx context.Context, owner domain.Identity) ([]domain.DocumentSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.DocumentSummary
	for _, doc := range s.docs {
		if doc.Owner == owner {
			out = append(out, summary(doc))
		}
	}
	sortSummaries(out)
	return out, nil
}

func (s *Store) ListSharedWith(ctx context.Context, identity domain.Identity) ([]domain.DocumentSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.DocumentSummary
	for _, doc := range s.docs {
		for _, id := range doc.SharedWith {
			if id == identity {
				out = append(out, summary(doc))
				break
			}
		}
	}
	sortSummaries(out)
	return out, nil
}

// WithTx serializes sharing updates per document with a dedicated mutex, the
// in-memory analogue of the database's row lock. Lock entries are
// reference-counted and dropped once the last holder leaves, so probing
// arbitrary document IDs cannot grow the map without bound.
func (s *Store) WithTx(ctx context.Context, docID string, fn func(repo usecase.DocumentRepository) error) error {
	s.txMu.Lock()
	lock, ok := s.txLocks[docID]
	if !ok {
		lock = &txLock{}
		s.txLocks[docID] = lock
	}
	lock.refs++
	s.txMu.Unlock()

	lock.mu.Lock()
	err := fn(s)
	lock.mu.Unlock()

	s.txMu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.txLocks, docID)
	}
	s.txMu.Unlock()
	return err
}

func summary(doc domain.Document) domain.DocumentSummary {
	return domain.DocumentSummary{ID: doc.ID, Name: doc.Name, CreatedAt: doc.CreatedAt}
}

// UUIDv7 document IDs sort by creation time, so ID order is creation order.
func sortSummaries(list []domain.DocumentSummary) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}
