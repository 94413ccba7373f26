package types

// MatchType classifies why a stored image was reported as a duplicate candidate
type MatchType string

// Known match classifications
const (
	// MatchExactFilename means the candidate's filename equals a stored record's
	// filename within the same folder, independent of content similarity
	MatchExactFilename MatchType = "exact_filename"

	// MatchSimilarContent means the candidate's fingerprint is within threshold
	// distance of the stored record's fingerprint
	MatchSimilarContent MatchType = "similar_content"
)

// ImageRecord holds a stored image's metadata as persisted in the database.
// Fingerprint is nil for records whose hash was never computed (pre-existing
// rows or failed hash computation); absence is a modeled state, not an error.
type ImageRecord struct {
	ID          int64   `json:"id"`
	Filename    string  `json:"filename"`
	Folder      string  `json:"folder"`
	Format      string  `json:"format"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Size        int64   `json:"size"`
	CreatedAt   string  `json:"created_at"`
	Fingerprint *string `json:"fingerprint,omitempty"`
}

// SimilarImage is one hit from a fingerprint similarity scan
type SimilarImage struct {
	ID          int64
	Filename    string
	Fingerprint string
	Similarity  float64
}

// DuplicateMatch is an ephemeral classified result for a duplicate check.
// Never persisted; computed fresh per request.
type DuplicateMatch struct {
	ImageID     int64     `json:"image_id"`
	Filename    string    `json:"filename"`
	Folder      string    `json:"folder"`
	Similarity  float64   `json:"similarity"`
	Fingerprint *string   `json:"fingerprint,omitempty"`
	MatchType   MatchType `json:"match_type"`
}
