package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnsignedMessage    = errors.New("message is not signed")
	ErrAmbiguousIssuer    = errors.New("ambiguous issuer")
	ErrKeyParse           = errors.New("payload is not a valid public key")
	ErrSignatureInvalid   = errors.New("signature invalid")
	ErrIssuerKeyMismatch  = errors.New("issuer does not match payload key")
	ErrDuplicateIdentity  = errors.New("identity already registered")
	ErrUnknownDocument    = errors.New("unknown document")
	ErrNotOwner           = errors.New("requester is not the document owner")
	ErrUnknownGrantee     = errors.New("grantee has no registered account")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// AmbiguousIssuerError reports a signature that declares zero or more than
// one issuer. It matches ErrAmbiguousIssuer under errors.Is.
type AmbiguousIssuerError struct {
	Issuers []Identity
}

func (e *AmbiguousIssuerError) Error() string {
	if len(e.Issuers) == 0 {
		return "signature declares no issuer"
	}
	return fmt.Sprintf("signature declares %d issuers: %v", len(e.Issuers), e.Issuers)
}

func (e *AmbiguousIssuerError) Is(target error) bool {
	return target == ErrAmbiguousIssuer
}
