package domain

// SignedMessage is the decoded form of an inbound signed blob: the raw
// signature packet plus the exact byte sequence it signs. Payload must reach
// the verifier unmodified; re-serializing it would break the signature.
type SignedMessage struct {
	// Issuers lists every identity declared by the message's signature
	// packets, in packet order. A well-formed message declares exactly one.
	Issuers []Identity

	// Signature is the first signature packet, raw, as it appeared on the
	// wire.
	Signature []byte

	// Payload is the signed byte sequence.
	Payload []byte
}

// Issuer returns the message's sole issuer, or an AmbiguousIssuerError when
// the message declares zero or several.
func (m *SignedMessage) Issuer() (Identity, error) {
	if len(m.Issuers) == 1 {
		return m.Issuers[0], nil
	}
	return "", &AmbiguousIssuerError{Issuers: m.Issuers}
}

// PublicKey is parsed, self-contained public key material and the identity
// derived from it. Material is kept verbatim so future signatures from the
// same identity can be re-verified against it.
type PublicKey struct {
	Identity Identity
	Material []byte
}
