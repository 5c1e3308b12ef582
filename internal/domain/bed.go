package domain

import "time"

// BedOccupancy one row of the bed board (stats.beds table). Bed rows are
// pre-provisioned; the allocation service only claims and releases them.
//
// PatientID, StayID and PatientName are present together or all absent.
type BedOccupancy struct {
	BedID       int       `json:"id"`
	PatientID   *int      `json:"pid,omitempty"`
	StayID      *int      `json:"bid,omitempty"`
	PatientName *string   `json:"name,omitempty"`
	UpdatedAt   time.Time `json:"updated_on"`
}

// Occupied reports whether the bed currently has a patient.
func (b *BedOccupancy) Occupied() bool {
	return b.PatientID != nil
}
