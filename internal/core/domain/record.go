package domain

import "time"

// RecordStatus tracks a document record through the scan pipeline.
type RecordStatus string

// Record lifecycle states. A record only ever moves forward:
// pending -> extracted -> summarised, or pending -> failed.
const (
	StatusPending    RecordStatus = "pending"
	StatusExtracted  RecordStatus = "extracted"
	StatusSummarised RecordStatus = "summarised"
	StatusFailed     RecordStatus = "failed"
)

// statusRank orders states for AtLeast comparisons.
var statusRank = map[RecordStatus]int{
	StatusFailed:     0,
	StatusPending:    1,
	StatusExtracted:  2,
	StatusSummarised: 3,
}

// AtLeast reports whether the status has reached the given state.
// Failed records never satisfy AtLeast for any pipeline state.
func (s RecordStatus) AtLeast(other RecordStatus) bool {
	if s == StatusFailed {
		return false
	}
	return statusRank[s] >= statusRank[other]
}

// FileMetadata holds optional metadata recovered during extraction.
type FileMetadata struct {
	// Title is the document title, if the format carries one.
	Title string `json:"title,omitempty"`

	// Author is the document author, if known.
	Author string `json:"author,omitempty"`

	// CreatedAt is the document creation date as reported by the format.
	CreatedAt string `json:"creation_date,omitempty"`
}

// DocumentRecord is the per-file working record of a scan run.
// Records are created during directory discovery, mutated only by
// extraction and summarisation, and never deleted within a run.
type DocumentRecord struct {
	// Path is the absolute source location. Unique key within a run.
	Path string `json:"file_path"`

	// Extension is the lowercased file extension including the dot.
	Extension string `json:"file_type"`

	// ExtractedText is the raw extracted text. It is working state
	// only and is not persisted with the record.
	ExtractedText string `json:"-"`

	// Table marks content that is tabular (CSV and friends), which
	// takes the line-based summary path instead of sentence ranking.
	Table bool `json:"-"`

	// Metadata holds optional title/author/date from extraction.
	Metadata *FileMetadata `json:"metadata,omitempty"`

	// Summary is the ordered selection of sentences, original
	// document order preserved.
	Summary []string `json:"summary"`

	// Embedding is the whole-document vector, absent when
	// summarisation was skipped or failed.
	Embedding []float32 `json:"embedding,omitempty"`

	// Status is the record's pipeline state.
	Status RecordStatus `json:"status"`

	// FailureReason explains a failed status.
	FailureReason string `json:"failure_reason,omitempty"`

	// DiscoveredAt is when the scan first saw the file.
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Projection returns the reduced view of the record sent to the plan
// service. Only summary and metadata travel; embeddings stay local.
func (r *DocumentRecord) Projection() RecordProjection {
	p := RecordProjection{
		Path:      r.Path,
		Extension: r.Extension,
		Summary:   joinSummary(r.Summary),
	}
	if r.Metadata != nil {
		p.Title = r.Metadata.Title
		p.Author = r.Metadata.Author
		p.CreatedAt = r.Metadata.CreatedAt
	}
	return p
}

// RecordProjection is the reduced record view serialised for the plan
// service. Failed records must never appear in a projection.
type RecordProjection struct {
	Path      string `json:"file_path"`
	Extension string `json:"file_type"`
	Summary   string `json:"summary"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	CreatedAt string `json:"creation_date,omitempty"`
}

func joinSummary(sentences []string) string {
	out := ""
	for i, s := range sentences {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}
