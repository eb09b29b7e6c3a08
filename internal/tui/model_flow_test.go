package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/teknos/oncolly/internal/domain"
)

// Full-loop flows: each test walks one session from restored login to quit
// through Update, asserting on the rendered screens along the way.

func TestPatientSessionFlow(t *testing.T) {
	svc := newFakeService(domain.RolePatient)
	svc.restoreOK = true
	svc.records = []domain.ActivityRecord{
		{
			ID:           "rec-1",
			ActivityType: "hydration",
			Value:        `{"glasses":"6"}`,
			OccurredAt:   time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
		},
	}

	m := loadReadyModel(t, NewModel(svc))
	if !strings.Contains(viewString(m), "Hydration") {
		t.Fatalf("picker missing Hydration:\n%s", viewString(m))
	}

	m = applyMsg(t, m, keyRune('H'))
	if !strings.Contains(viewString(m), "glasses=6") {
		t.Fatalf("history missing decoded entry:\n%s", viewString(m))
	}

	_, cmd := m.Update(keyRune('q'))
	if cmd == nil || cmd() == nil {
		t.Fatal("expected quit")
	}
}

func TestDoctorSessionFlow(t *testing.T) {
	svc := newFakeService(domain.RoleDoctor)
	svc.restoreOK = true
	svc.patients = []domain.Patient{{ID: "p-1", FirstName: "Alma", LastName: "Reyes"}}
	agendaItem, err := domain.NewAppointment(domain.AppointmentInput{
		ID:        "appt-1",
		DoctorID:  "u-1",
		PatientID: "p-1",
		Title:     "Follow-up",
		StartTime: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("NewAppointment() error = %v", err)
	}
	svc.agenda = []domain.Appointment{agendaItem}

	m := loadReadyModel(t, NewModel(svc))
	if !strings.Contains(viewString(m), "Alma Reyes") {
		t.Fatalf("roster missing patient:\n%s", viewString(m))
	}

	m = applyMsg(t, m, keyRune('g'))
	if !strings.Contains(viewString(m), "Follow-up") {
		t.Fatalf("agenda missing appointment:\n%s", viewString(m))
	}

	_, cmd := m.Update(keyRune('q'))
	if cmd == nil || cmd() == nil {
		t.Fatal("expected quit")
	}
}
