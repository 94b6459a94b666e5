package domain

import "time"

// Document is an owned record with an append-only sharing list. ID is a
// UUIDv7 so documents sort by creation time. Owner never changes after
// creation; SharedWith is ordered and duplicate-free and only ever grows.
type Document struct {
	ID         string
	Name       string
	Owner      Identity
	SharedWith []Identity
	CreatedAt  time.Time
}

// DocumentSummary is the read-model row returned by document listings.
type DocumentSummary struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
