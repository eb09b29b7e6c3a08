package api

import (
	"encoding/json"
	"time"

	"github.com/teknos/oncolly/internal/domain"
)

// loginRequest is the credential payload.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the session grant. The backend historically served the
// user id as a bare number, so it is decoded loosely.
type loginResponse struct {
	ID    json.Number `json:"id"`
	Role  string      `json:"role"`
	Token string      `json:"token"`
}

type patientDTO struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

func (p patientDTO) toDomain() domain.Patient {
	return domain.Patient(p)
}

func patientFromDomain(p domain.Patient) patientDTO {
	return patientDTO(p)
}

type doctorDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type activityDTO struct {
	ID           string `json:"id"`
	ActivityType string `json:"activityType"`
	Value        string `json:"value"`
	OccurredAt   string `json:"occurredAt"`
	PatientID    string `json:"patientId,omitempty"`
}

func (a activityDTO) toDomain() domain.ActivityRecord {
	return domain.ActivityRecord{
		ID:           a.ID,
		ActivityType: a.ActivityType,
		Value:        a.Value,
		OccurredAt:   parseWireTime(a.OccurredAt),
		PatientID:    a.PatientID,
	}
}

func activityFromDomain(r domain.ActivityRecord) activityDTO {
	return activityDTO{
		ID:           r.ID,
		ActivityType: r.ActivityType,
		Value:        r.Value,
		OccurredAt:   r.OccurredAt.UTC().Format(time.RFC3339),
		PatientID:    r.PatientID,
	}
}

type appointmentDTO struct {
	ID          string `json:"id"`
	DoctorID    string `json:"doctorId,omitempty"`
	DoctorName  string `json:"doctorName,omitempty"`
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName,omitempty"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Status      string `json:"status,omitempty"`
	Title       string `json:"title"`
	DoctorNotes string `json:"doctorNotes,omitempty"`
}

func (a appointmentDTO) toDomain() domain.Appointment {
	return domain.Appointment{
		ID:          a.ID,
		DoctorID:    a.DoctorID,
		DoctorName:  a.DoctorName,
		PatientID:   a.PatientID,
		PatientName: a.PatientName,
		StartTime:   parseWireTime(a.StartTime),
		EndTime:     parseWireTime(a.EndTime),
		Status:      a.Status,
		Title:       a.Title,
	}
}

func appointmentFromDomain(a domain.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		PatientID: a.PatientID,
		StartTime: a.StartTime.UTC().Format(time.RFC3339),
		EndTime:   a.EndTime.UTC().Format(time.RFC3339),
		Title:     a.Title,
	}
}

// parseWireTime accepts RFC3339 plus the fraction-only local form legacy
// records were written with; unparseable stamps yield the zero time rather
// than an error so one bad row cannot sink a whole listing.
func parseWireTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
