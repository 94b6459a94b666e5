package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/n-arms/md-pgp-server/internal/domain"
	"github.com/n-arms/md-pgp-server/internal/infra/memstore"
	"github.com/n-arms/md-pgp-server/internal/usecase"
)

func identityN(n int) domain.Identity {
	return domain.Identity(fmt.Sprintf("%016x", uint64(n)+1))
}

func registerIdentity(t *testing.T, store *memstore.Store, id domain.Identity) {
	t.Helper()
	err := store.Create(context.Background(), domain.Account{
		Identity:  id,
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	})
	if err != nil {
		t.Fatalf("seed account %s: %v", id, err)
	}
}

func createDoc(t *testing.T, store *memstore.Store, owner domain.Identity, name string) domain.Document {
	t.Helper()
	uc := &usecase.CreateDocument{Documents: store}
	doc, err := uc.Execute(context.Background(), owner, name)
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}

func TestCreateDocument(t *testing.T) {
	store := memstore.New()
	owner := identityN(1)
	registerIdentity(t, store, owner)

	first := createDoc(t, store, owner, "notes")
	second := createDoc(t, store, owner, "plans")

	if first.ID == second.ID {
		t.Fatal("documents share an id")
	}
	// v7 ids sort by creation time, so listing order follows creation order.
	if first.ID >= second.ID {
		t.Fatalf("ids out of creation order: %s >= %s", first.ID, second.ID)
	}
	if first.Owner != owner || first.Name != "notes" {
		t.Fatalf("unexpected document: %+v", first)
	}
	if len(first.SharedWith) != 0 {
		t.Fatalf("new document already shared: %v", first.SharedWith)
	}
}

func TestCreateDocumentRequiresOwner(t *testing.T) {
	store := memstore.New()
	uc := &usecase.CreateDocument{Documents: store}
	if _, err := uc.Execute(context.Background(), "", "notes"); err == nil {
		t.Fatal("expected error for empty owner")
	}
}

func TestShareDocument(t *testing.T) {
	store := memstore.New()
	owner, grantee := identityN(1), identityN(2)
	registerIdentity(t, store, owner)
	registerIdentity(t, store, grantee)
	doc := createDoc(t, store, owner, "notes")

	uc := &usecase.ShareDocument{Documents: store, Accounts: store}
	if err := uc.Execute(context.Background(), doc.ID, owner, grantee); err != nil {
		t.Fatalf("share: %v", err)
	}

	shared, err := store.GetSharedWith(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("get shared list: %v", err)
	}
	if len(shared) != 1 || shared[0] != grantee {
		t.Fatalf("shared list = %v, want [%s]", shared, grantee)
	}
}

func TestShareDocumentIsIdempotent(t *testing.T) {
	store := memstore.New()
	owner, grantee := identityN(1), identityN(2)
	registerIdentity(t, store, owner)
	registerIdentity(t, store, grantee)
	doc := createDoc(t, store, owner, "notes")

	uc := &usecase.ShareDocument{Documents: store, Accounts: store}
	for i := 0; i < 3; i++ {
		if err := uc.Execute(context.Background(), doc.ID, owner, grantee); err != nil {
			t.Fatalf("share #%d: %v", i+1, err)
		}
	}

	shared, err := store.GetSharedWith(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("get shared list: %v", err)
	}
	if len(shared) != 1 {
		t.Fatalf("grantee recorded %d times", len(shared))
	}
}

func TestShareDocumentRejectsNonOwner(t *testing.T) {
	store := memstore.New()
	owner, intruder, grantee := identityN(1), identityN(2), identityN(3)
	registerIdentity(t, store, owner)
	registerIdentity(t, store, intruder)
	registerIdentity(t, store, grantee)
	doc := createDoc(t, store, owner, "notes")

	uc := &usecase.ShareDocument{Documents: store, Accounts: store}
	if err := uc.Execute(context.Background(), doc.ID, intruder, grantee); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("got %v, want ErrNotOwner", err)
	}
	// Even a grantee cannot grant further access.
	if err := uc.Execute(context.Background(), doc.ID, owner, grantee); err != nil {
		t.Fatalf("owner share: %v", err)
	}
	if err := uc.Execute(context.Background(), doc.ID, grantee, intruder); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("got %v, want ErrNotOwner", err)
	}
}

func TestShareDocumentRejectsUnknownDocument(t *testing.T) {
	store := memstore.New()
	owner, grantee := identityN(1), identityN(2)
	registerIdentity(t, store, owner)
	registerIdentity(t, store, grantee)
	createDoc(t, store, owner, "notes")

	uc := &usecase.ShareDocument{Documents: store, Accounts: store}
	missing := uuid.NewString()
	if err := uc.Execute(context.Background(), missing, owner, grantee); !errors.Is(err, domain.ErrUnknownDocument) {
		t.Fatalf("got %v, want ErrUnknownDocument", err)
	}
}

func TestShareDocumentRejectsUnknownGrantee(t *testing.T) {
	store := memstore.New()
	owner := identityN(1)
	registerIdentity(t, store, owner)
	doc := createDoc(t, store, owner, "notes")

	uc := &usecase.ShareDocument{Documents: store, Accounts: store}
	err := uc.Execute(context.Background(), doc.ID, owner, identityN(9))
	if !errors.Is(err, domain.ErrUnknownGrantee) {
		t.Fatalf("got %v, want ErrUnknownGrantee", err)
	}
	shared, _ := store.GetSharedWith(context.Background(), doc.ID)
	if len(shared) != 0 {
		t.Fatalf("failed share left a grant behind: %v", shared)
	}
}

func TestShareDocumentConcurrent(t *testing.T) {
	store := memstore.New()
	owner := identityN(1)
	registerIdentity(t, store, owner)
	doc := createDoc(t, store, owner, "notes")

	const grantees = 32
	for i := 0; i < grantees; i++ {
		registerIdentity(t, store, identityN(i+2))
	}

	uc := &usecase.ShareDocument{Documents: store, Accounts: store}
	var wg sync.WaitGroup
	errs := make([]error, grantees)
	for i := 0; i < grantees; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Each grantee is attempted twice to exercise the duplicate path
			// under contention.
			for attempt := 0; attempt < 2; attempt++ {
				if err := uc.Execute(context.Background(), doc.ID, owner, identityN(i+2)); err != nil {
					errs[i] = err
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("share grantee %d: %v", i, err)
		}
	}

	shared, err := store.GetSharedWith(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("get shared list: %v", err)
	}
	if len(shared) != grantees {
		t.Fatalf("shared list has %d entries, want %d", len(shared), grantees)
	}
	seen := make(map[domain.Identity]bool, len(shared))
	for _, id := range shared {
		if seen[id] {
			t.Fatalf("duplicate grantee %s", id)
		}
		seen[id] = true
	}
}

func TestListDocuments(t *testing.T) {
	store := memstore.New()
	alice, bob := identityN(1), identityN(2)
	registerIdentity(t, store, alice)
	registerIdentity(t, store, bob)

	first := createDoc(t, store, alice, "first")
	second := createDoc(t, store, alice, "second")
	createDoc(t, store, bob, "bobs")

	share := &usecase.ShareDocument{Documents: store, Accounts: store}
	if err := share.Execute(context.Background(), second.ID, alice, bob); err != nil {
		t.Fatalf("share: %v", err)
	}

	list := &usecase.ListDocuments{Documents: store}

	owned, err := list.Owned(context.Background(), alice)
	if err != nil {
		t.Fatalf("list owned: %v", err)
	}
	if len(owned) != 2 || owned[0].ID != first.ID || owned[1].ID != second.ID {
		t.Fatalf("owned = %+v", owned)
	}

	sharedWithBob, err := list.SharedWith(context.Background(), bob)
	if err != nil {
		t.Fatalf("list shared: %v", err)
	}
	if len(sharedWithBob) != 1 || sharedWithBob[0].ID != second.ID {
		t.Fatalf("shared with bob = %+v", sharedWithBob)
	}

	sharedWithAlice, err := list.SharedWith(context.Background(), alice)
	if err != nil {
		t.Fatalf("list shared: %v", err)
	}
	if len(sharedWithAlice) != 0 {
		t.Fatalf("shared with alice = %+v", sharedWithAlice)
	}
}
