package pgp

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/crypto/openpgp/packet"

	"github.com/n-arms/md-pgp-server/internal/domain"
)

// maxNesting bounds recursion into compressed packets so a zip-bomb style
// message cannot overflow the stack.
const maxNesting = 4

// ParseMessage decodes raw bytes as an OpenPGP signed message and returns
// the signature together with the exact signed payload. The payload is the
// literal-data body as it appeared on the wire; callers must pass it to the
// verifier untouched.
//
// A structurally invalid stream yields ErrMalformedMessage. A stream that
// decodes but carries no signature packet (including a one-pass framing
// missing its trailing signature) yields ErrUnsignedMessage.
func ParseMessage(raw []byte) (*domain.SignedMessage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", domain.ErrMalformedMessage)
	}

	var walk messageWalk
	if err := walk.consume(packet.NewReader(bytes.NewReader(raw)), 0); err != nil {
		return nil, err
	}

	if !walk.sawLiteral {
		return nil, fmt.Errorf("%w: no literal data packet", domain.ErrMalformedMessage)
	}
	if len(walk.signatures) == 0 {
		if walk.sawOnePass {
			return nil, fmt.Errorf("%w: one-pass message missing trailing signature packet", domain.ErrUnsignedMessage)
		}
		return nil, fmt.Errorf("%w: no signature packet", domain.ErrUnsignedMessage)
	}

	first, err := serializeSignature(walk.signatures[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}

	return &domain.SignedMessage{
		Issuers:   walk.issuers,
		Signature: first,
		Payload:   walk.payload,
	}, nil
}

type messageWalk struct {
	payload    []byte
	sawLiteral bool
	sawOnePass bool
	signatures []*packet.Signature
	issuers    []domain.Identity
}

func (w *messageWalk) consume(r *packet.Reader, depth int) error {
	if depth > maxNesting {
		return fmt.Errorf("%w: compression nested too deeply", domain.ErrMalformedMessage)
	}
	for {
		p, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
		}
		switch pkt := p.(type) {
		case *packet.OnePassSignature:
			w.sawOnePass = true
		case *packet.LiteralData:
			if w.sawLiteral {
				return fmt.Errorf("%w: multiple literal data packets", domain.ErrMalformedMessage)
			}
			body, err := io.ReadAll(pkt.Body)
			if err != nil {
				return fmt.Errorf("%w: truncated literal data: %v", domain.ErrMalformedMessage, err)
			}
			w.payload = body
			w.sawLiteral = true
		case *packet.Compressed:
			if err := w.consume(packet.NewReader(pkt.Body), depth+1); err != nil {
				return err
			}
		case *packet.Signature:
			w.signatures = append(w.signatures, pkt)
			if pkt.IssuerKeyId != nil {
				w.issuers = append(w.issuers, domain.IdentityFromKeyID(*pkt.IssuerKeyId))
			}
		case *packet.SignatureV3:
			return fmt.Errorf("%w: v3 signatures are not supported", domain.ErrMalformedMessage)
		case *packet.SymmetricallyEncrypted, *packet.EncryptedKey, *packet.SymmetricKeyEncrypted:
			// Decodes fine, but an encrypted message carries nothing we
			// can attribute to a signer.
			return fmt.Errorf("%w: message is encrypted, not signed", domain.ErrUnsignedMessage)
		default:
			// Marker, user ID and other packets are legal filler in a
			// message stream and carry no signing semantics.
		}
	}
}

// serializeSignature re-frames a parsed signature packet so it can travel
// through the domain layer as opaque bytes and be re-read at verify time.
func serializeSignature(sig *packet.Signature) ([]byte, error) {
	var buf bytes.Buffer
	if err := sig.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
