package domain

import "time"

// Account binds an identity to the key material that proved possession at
// registration time. Accounts are created exactly once and never mutated;
// there is no key rotation path.
type Account struct {
	Identity    Identity
	KeyMaterial []byte
	CreatedAt   time.Time
}
