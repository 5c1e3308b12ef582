package domain

import (
	"strings"
	"time"
)

// Date day/month/year triple as captured on the registration form.
type Date struct {
	Day   int `json:"d"`
	Month int `json:"m"`
	Year  int `json:"y"`
}

// AdmissionInfo admission metadata captured at registration.
type AdmissionInfo struct {
	Date           Date   `json:"date"`
	DoctorInCharge string `json:"dic"`
}

// Demographics patient-identifying fields. Stored only inside the encrypted
// patient document, never in a clear-text column.
type Demographics struct {
	FirstName string        `json:"fname"`
	LastName  string        `json:"lname"`
	Gender    string        `json:"gender"`
	DOB       Date          `json:"dob"`
	Address   string        `json:"address,omitempty"`
	Email     string        `json:"email,omitempty"`
	Phone     string        `json:"tp,omitempty"`
	Admission AdmissionInfo `json:"admission"`
}

// StayRef one row of a patient's stay history. DischargedAt stays nil while
// the stay is active.
type StayRef struct {
	ID           int        `json:"id"`
	AdmittedAt   time.Time  `json:"admission_date"`
	DischargedAt *time.Time `json:"discharge_date,omitempty"`
}

// PatientRecord the canonical patient document (persisted as one encrypted
// blob keyed by ID).
//
// Invariant: ActiveStay is set iff exactly one StayHistory entry has a nil
// DischargedAt, and that entry's ID equals *ActiveStay. Only the allocation
// service mutates ActiveStay/StayHistory, always under a row lock.
type PatientRecord struct {
	ID           int          `json:"id"`
	Demographics Demographics `json:"demographics"`
	ActiveStay   *int         `json:"current_bedticket,omitempty"`
	StayHistory  []StayRef    `json:"bedtickets,omitempty"`
	CreatedBy    int          `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
}

// FullName clear-text value stored in the search index row.
func (r *PatientRecord) FullName() string {
	return strings.TrimSpace(r.Demographics.FirstName + " " + r.Demographics.LastName)
}

// ActiveStayRef returns the history entry matching ActiveStay, or nil.
func (r *PatientRecord) ActiveStayRef() *StayRef {
	if r.ActiveStay == nil {
		return nil
	}
	for i := range r.StayHistory {
		if r.StayHistory[i].ID == *r.ActiveStay {
			return &r.StayHistory[i]
		}
	}
	return nil
}

// SearchResult one clear-text search index hit.
type SearchResult struct {
	PatientID int    `json:"id"`
	FullName  string `json:"full_name"`
}
