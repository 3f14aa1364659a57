package domain

// Candidate is a single similarity hit, produced by the similarity client
// and consumed immediately by the match resolver. Never persisted.
type Candidate struct {
	// ExternalID is the similarity-service identifier of the matched item.
	ExternalID string
	// Score is the similarity confidence in [0,1].
	Score float64
}

// RegisterPayload is the item description sent to the similarity service
// on registration.
type RegisterPayload struct {
	ImageURL    string
	Description string
	Location    string
	Category    string
	ReportType  ReportType
}

// Registration is the similarity service's receipt for a registered item.
type Registration struct {
	// ExternalID identifies the item inside the similarity service.
	ExternalID string
	// EmbeddingRef is the handle for subsequent FindSimilar calls.
	EmbeddingRef string
}
