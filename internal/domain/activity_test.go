package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewActivityRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 30, 0, 500_000_000, time.UTC)
	rec, err := NewActivityRecord(RecordInput{
		ID:           "rec-1",
		ActivityType: "hydration",
		Value:        `{"glasses":"6"}`,
		PatientID:    "p-1",
	}, now)
	if err != nil {
		t.Fatalf("NewActivityRecord() error = %v", err)
	}
	if rec.OccurredAt != now.Truncate(time.Second) {
		t.Fatalf("OccurredAt = %v, want %v", rec.OccurredAt, now.Truncate(time.Second))
	}
	fields, ok := rec.Fields()
	if !ok {
		t.Fatal("expected JSON value to decode")
	}
	if v, _ := fields.Value("glasses"); v != "6" {
		t.Fatalf("glasses = %q, want 6", v)
	}
}

func TestNewActivityRecordValidation(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		in   RecordInput
		want error
	}{
		{"missing id", RecordInput{ActivityType: "sleep", Value: "{}"}, ErrInvalidID},
		{"missing type", RecordInput{ID: "r", Value: "{}"}, ErrInvalidActivityType},
		{"missing value", RecordInput{ID: "r", ActivityType: "sleep"}, ErrEmptyForm},
	}
	for _, tc := range cases {
		if _, err := NewActivityRecord(tc.in, now); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestNewAppointmentValidation(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if _, err := NewAppointment(AppointmentInput{
		ID:        "a-1",
		PatientID: "p-1",
		Title:     "Follow-up",
		StartTime: start,
		EndTime:   start.Add(-time.Hour),
	}); !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}

	appt, err := NewAppointment(AppointmentInput{
		ID:        "a-1",
		DoctorID:  "d-1",
		PatientID: "p-1",
		Title:     "Follow-up",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("NewAppointment() error = %v", err)
	}
	if appt.Status != "scheduled" {
		t.Fatalf("Status = %q, want scheduled", appt.Status)
	}
}

func TestParseRole(t *testing.T) {
	if ParseRole("doctor") != RoleDoctor {
		t.Fatal("expected doctor role")
	}
	if ParseRole("PATIENT") != RolePatient {
		t.Fatal("expected patient role")
	}
	if ParseRole("unknown") != RolePatient {
		t.Fatal("expected unknown role to default to patient")
	}
}
