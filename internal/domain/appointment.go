package domain

import (
	"strings"
	"time"
)

// Appointment is one doctor agenda entry as served by the backend.
type Appointment struct {
	ID          string
	DoctorID    string
	DoctorName  string
	PatientID   string
	PatientName string
	StartTime   time.Time
	EndTime     time.Time
	Status      string
	Title       string
}

// AppointmentInput carries the fields needed to create one appointment.
type AppointmentInput struct {
	ID          string
	DoctorID    string
	PatientID   string
	StartTime   time.Time
	EndTime     time.Time
	Title       string
	DoctorNotes string
}

// NewAppointment validates and constructs an agenda entry.
func NewAppointment(in AppointmentInput) (Appointment, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.PatientID = strings.TrimSpace(in.PatientID)
	in.Title = strings.TrimSpace(in.Title)
	if in.ID == "" || in.PatientID == "" {
		return Appointment{}, ErrInvalidID
	}
	if in.Title == "" {
		return Appointment{}, ErrInvalidTitle
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() || !in.EndTime.After(in.StartTime) {
		return Appointment{}, ErrInvalidTimeRange
	}
	return Appointment{
		ID:        in.ID,
		DoctorID:  strings.TrimSpace(in.DoctorID),
		PatientID: in.PatientID,
		StartTime: in.StartTime.UTC(),
		EndTime:   in.EndTime.UTC(),
		Status:    "scheduled",
		Title:     in.Title,
	}, nil
}
