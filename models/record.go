package models

// DedupRecord is the append-only persistence shape for a notified listing.
// Written exactly once per newly observed listing, never updated or deleted.
// Timestamps are epoch seconds.
type DedupRecord struct {
	ExternalID string `json:"external_id" db:"external_id"`
	Name       string `json:"name" db:"name"`
	URL        string `json:"url" db:"url"`
	SourceDate int64  `json:"source_date" db:"source_date"`
	CreatedAt  int64  `json:"created_at" db:"created_at"`
}
