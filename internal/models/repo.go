package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// NoDescription is stored when GitHub reports a null description, so the
// embedding text and the persisted metadata never carry an empty field.
const NoDescription = "(no description)"

// StarredRepo is a read-only snapshot of one starred repository as fetched
// from GitHub. Identity is the numeric ID, which is stable across syncs.
type StarredRepo struct {
	ID          int64    `json:"id"`
	FullName    string   `json:"fullName"`
	Description string   `json:"description"`
	HTMLURL     string   `json:"htmlUrl"`
	Language    string   `json:"language,omitempty"`
	Topics      []string `json:"topics"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// EmbeddingText is the canonical text a repository is embedded (and
// fingerprinted) under. The template is fixed: changing it invalidates every
// stored fingerprint at once, so it must never vary between sync runs.
// Topics are sorted because GitHub treats them as an unordered set.
func (r StarredRepo) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(r.FullName)
	b.WriteString("\n")
	b.WriteString(r.Description)
	if r.Language != "" {
		b.WriteString("\nLanguage: ")
		b.WriteString(r.Language)
	}
	if len(r.Topics) > 0 {
		topics := make([]string, len(r.Topics))
		copy(topics, r.Topics)
		sort.Strings(topics)
		b.WriteString("\nTopics: ")
		b.WriteString(strings.Join(topics, ", "))
	}
	return b.String()
}

// Fingerprint returns the hex SHA-256 of the embedding text. Equal
// fingerprints are treated as a license to skip re-embedding.
func (r StarredRepo) Fingerprint() string {
	return HashText(r.EmbeddingText())
}

// HashText computes the hex SHA-256 digest of text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// RepoRecord is one entry of the shared vector index, keyed by the numeric
// repository ID. StarredBy is the single source of truth for which users can
// retrieve the record; a record with an empty StarredBy is orphaned but kept.
type RepoRecord struct {
	ID          int64
	Vector      []float32
	Score       float64 // similarity score, only set on query results
	FullName    string
	Description string
	HTMLURL     string
	Language    string
	Topics      []string
	Hash        string
	StarredBy   []string
}

// Starred reports whether userID is in the record's StarredBy set.
func (r RepoRecord) Starred(userID string) bool {
	for _, u := range r.StarredBy {
		if u == userID {
			return true
		}
	}
	return false
}
