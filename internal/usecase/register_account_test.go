package usecase_test

import (
	"bytes"
	"context"
	"crypto"
	"errors"
	"io"
	"testing"
	"time"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/packet"

	"github.com/n-arms/md-pgp-server/internal/domain"
	"github.com/n-arms/md-pgp-server/internal/infra/memstore"
	"github.com/n-arms/md-pgp-server/internal/infra/pgp"
	"github.com/n-arms/md-pgp-server/internal/usecase"
	"github.com/n-arms/md-pgp-server/pkg/enroll"
)

func testKey(t *testing.T, name string) *openpgp.Entity {
	t.Helper()
	entity, err := enroll.NewKey(name, "", name+"@example.com", &packet.Config{RSABits: 1024})
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return entity
}

func newRegisterUC(store *memstore.Store) *usecase.RegisterAccount {
	return &usecase.RegisterAccount{
		Accounts: store,
		Crypto:   pgp.Service{},
		Clock:    func() time.Time { return time.Unix(1700000000, 0).UTC() },
	}
}

func TestRegisterAccount(t *testing.T) {
	store := memstore.New()
	uc := newRegisterUC(store)
	entity := testKey(t, "alice")

	message, err := enroll.RegistrationMessage(entity)
	if err != nil {
		t.Fatalf("build registration message: %v", err)
	}

	identity, err := uc.Execute(context.Background(), message)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	want := domain.IdentityFromKeyID(entity.PrimaryKey.KeyId)
	if identity != want {
		t.Fatalf("identity = %q, want %q", identity, want)
	}

	registered, err := store.Exists(context.Background(), identity)
	if err != nil || !registered {
		t.Fatalf("account not persisted: exists=%v err=%v", registered, err)
	}
}

func TestRegisterAccountRejectsDuplicate(t *testing.T) {
	store := memstore.New()
	uc := newRegisterUC(store)
	entity := testKey(t, "alice")

	message, err := enroll.RegistrationMessage(entity)
	if err != nil {
		t.Fatalf("build registration message: %v", err)
	}
	if _, err := uc.Execute(context.Background(), message); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := uc.Execute(context.Background(), message); !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("second register: got %v, want ErrDuplicateIdentity", err)
	}
}

func TestRegisterAccountRejectsNonKeyPayload(t *testing.T) {
	store := memstore.New()
	uc := newRegisterUC(store)
	entity := testKey(t, "alice")

	message, err := enroll.SignMessage(entity, []byte("just some text"))
	if err != nil {
		t.Fatalf("sign message: %v", err)
	}
	if _, err := uc.Execute(context.Background(), message); !errors.Is(err, domain.ErrKeyParse) {
		t.Fatalf("got %v, want ErrKeyParse", err)
	}

	// A failed registration leaves nothing behind.
	identity := domain.IdentityFromKeyID(entity.PrimaryKey.KeyId)
	if registered, _ := store.Exists(context.Background(), identity); registered {
		t.Fatal("failed registration persisted an account")
	}
}

func TestRegisterAccountRejectsForeignKeyPayload(t *testing.T) {
	store := memstore.New()
	uc := newRegisterUC(store)
	alice := testKey(t, "alice")
	bob := testKey(t, "bob")

	// Alice signs Bob's key material. The signature cannot verify against
	// the payload key, so this dies at the verification step.
	bobKey, err := enroll.PublicKeyBytes(bob)
	if err != nil {
		t.Fatalf("serialize bob's key: %v", err)
	}
	message, err := enroll.SignMessage(alice, bobKey)
	if err != nil {
		t.Fatalf("sign message: %v", err)
	}
	if _, err := uc.Execute(context.Background(), message); !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("got %v, want ErrSignatureInvalid", err)
	}
}

func TestRegisterAccountRejectsForgedIssuer(t *testing.T) {
	store := memstore.New()
	uc := newRegisterUC(store)
	alice := testKey(t, "alice")
	mallory := testKey(t, "mallory")

	// The signature is genuinely Alice's over her own key, but the issuer
	// subpacket claims Mallory. Verification passes; the self-consistency
	// check must not.
	message, err := signWithDeclaredIssuer(alice, mallory.PrimaryKey.KeyId)
	if err != nil {
		t.Fatalf("build forged message: %v", err)
	}
	if _, err := uc.Execute(context.Background(), message); !errors.Is(err, domain.ErrIssuerKeyMismatch) {
		t.Fatalf("got %v, want ErrIssuerKeyMismatch", err)
	}
}

func TestRegisterAccountRejectsUnsigned(t *testing.T) {
	store := memstore.New()
	uc := newRegisterUC(store)
	entity := testKey(t, "alice")

	payload, err := enroll.PublicKeyBytes(entity)
	if err != nil {
		t.Fatalf("serialize key: %v", err)
	}
	var buf bytes.Buffer
	literal, err := packet.SerializeLiteral(nopCloser{&buf}, true, "", 0)
	if err != nil {
		t.Fatalf("serialize literal: %v", err)
	}
	literal.Write(payload)
	literal.Close()

	if _, err := uc.Execute(context.Background(), buf.Bytes()); !errors.Is(err, domain.ErrUnsignedMessage) {
		t.Fatalf("got %v, want ErrUnsignedMessage", err)
	}
}

func TestRegisterAccountRejectsGarbage(t *testing.T) {
	store := memstore.New()
	uc := newRegisterUC(store)
	if _, err := uc.Execute(context.Background(), []byte{0x00, 0x01, 0x02}); !errors.Is(err, domain.ErrMalformedMessage) {
		t.Fatalf("got %v, want ErrMalformedMessage", err)
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// signWithDeclaredIssuer builds a registration message for entity whose
// signature declares issuerKeyID instead of the true signer.
func signWithDeclaredIssuer(entity *openpgp.Entity, issuerKeyID uint64) ([]byte, error) {
	payload, err := enroll.PublicKeyBytes(entity)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	ops := &packet.OnePassSignature{
		SigType:    packet.SigTypeBinary,
		Hash:       crypto.SHA256,
		PubKeyAlgo: entity.PrivateKey.PubKeyAlgo,
		KeyId:      issuerKeyID,
		IsLast:     true,
	}
	if err := ops.Serialize(&buf); err != nil {
		return nil, err
	}
	literal, err := packet.SerializeLiteral(nopCloser{&buf}, true, "", 0)
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
		PubKeyAlgo:   entity.PrivateKey.PubKeyAlgo,
		Hash:         crypto.SHA256,
		CreationTime: time.Now(),
		IssuerKeyId:  &issuerKeyID,
	}
	h := crypto.SHA256.New()
	h.Write(payload)
	if err := sig.Sign(h, entity.PrivateKey, nil); err != nil {
		return nil, err
	}
	if err := sig.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
