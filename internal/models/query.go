package models

// SearchRequest is the payload for POST /search.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topK"` // optional; default handled in the service
}

// VectorSearchResult is one search hit, ordered by descending similarity.
type VectorSearchResult struct {
	ID          int64    `json:"id"`
	Score       float64  `json:"score"`
	FullName    string   `json:"fullName"`
	Description string   `json:"description"`
	HTMLURL     string   `json:"htmlUrl"`
	Language    string   `json:"language,omitempty"`
	Topics      []string `json:"topics"`
}
