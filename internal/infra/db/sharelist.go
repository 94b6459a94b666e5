package db

import (
	"strings"

	"github.com/n-arms/md-pgp-server/internal/domain"
)

// The sharing list is stored as a single comma-delimited text column.
// Identities are fixed-width hex, so the delimiter can never appear inside
// an entry. The structured form is []domain.Identity everywhere else; only
// this file touches the flat text.

const shareDelimiter = ","

// EncodeSharedWith joins identities in order, dropping duplicates. This is
// the one place duplicates are prevented from reaching storage, whatever the
// caller did.
func EncodeSharedWith(list []domain.Identity) string {
	if len(list) == 0 {
		return ""
	}
	seen := make(map[domain.Identity]struct{}, len(list))
	parts := make([]string, 0, len(list))
	for _, id := range list {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		parts = append(parts, string(id))
	}
	return strings.Join(parts, shareDelimiter)
}

// DecodeSharedWith splits an encoded sharing list. Entries are stored
// canonical, so no trimming or case folding happens here. The empty string
// is the empty list.
func DecodeSharedWith(encoded string) []domain.Identity {
	if encoded == "" {
		return nil
	}
	parts := strings.Split(encoded, shareDelimiter)
	out := make([]domain.Identity, 0, len(parts))
	for _, part := range parts {
		out = append(out, domain.Identity(part))
	}
	return out
}
