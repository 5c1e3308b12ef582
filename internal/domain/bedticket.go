package domain

import "time"

// EntryCategory closed set of clinical entry categories.
type EntryCategory string

const (
	EntryDiagnosis EntryCategory = "diagnosis"
	EntryReport    EntryCategory = "report"
	EntryOther     EntryCategory = "other"
)

// Valid reports whether c is one of the known categories.
func (c EntryCategory) Valid() bool {
	switch c {
	case EntryDiagnosis, EntryReport, EntryOther:
		return true
	}
	return false
}

// Attachment file metadata carried on a clinical entry. The file body lives
// outside this core; StoredName is the opaque on-disk name.
type Attachment struct {
	OriginalName string `json:"originalName"`
	StoredName   string `json:"fileName"`
	Size         int64  `json:"size"`
	ContentType  string `json:"mimetype"`
}

// ClinicalEntry one note/record in a stay's log.
//
// LocalID is unique within the owning stay only: it is assigned as
// len(entries)+1 under the stay's row lock, so concurrent appends cannot
// produce duplicates.
type ClinicalEntry struct {
	LocalID     int           `json:"id"`
	Category    EntryCategory `json:"category"`
	Type        string        `json:"type"`
	Note        string        `json:"note"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	CreatedBy   int           `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
}
