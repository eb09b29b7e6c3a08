package domain

import (
	"strings"
	"time"
)

// ActivityRecord is the envelope submitted to the activity persistence
// endpoint: a client-generated id, the activity type id, the encoded form
// payload, and the wall-clock submit time.
type ActivityRecord struct {
	ID           string
	ActivityType string
	Value        string
	OccurredAt   time.Time
	PatientID    string
}

// RecordInput carries the fields needed to build one activity record.
type RecordInput struct {
	ID           string
	ActivityType string
	Value        string
	PatientID    string
}

// NewActivityRecord validates and constructs a submission envelope stamped
// with the supplied wall-clock time.
func NewActivityRecord(in RecordInput, now time.Time) (ActivityRecord, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ActivityType = strings.TrimSpace(in.ActivityType)
	if in.ID == "" {
		return ActivityRecord{}, ErrInvalidID
	}
	if in.ActivityType == "" {
		return ActivityRecord{}, ErrInvalidActivityType
	}
	if strings.TrimSpace(in.Value) == "" {
		return ActivityRecord{}, ErrEmptyForm
	}
	return ActivityRecord{
		ID:           in.ID,
		ActivityType: in.ActivityType,
		Value:        in.Value,
		OccurredAt:   now.UTC().Truncate(time.Second),
		PatientID:    strings.TrimSpace(in.PatientID),
	}, nil
}

// Fields decodes the record value into its field entries, reporting ok=false
// for legacy plain-string payloads.
func (r ActivityRecord) Fields() (FormState, bool) {
	return DecodeFormValue(r.Value)
}
