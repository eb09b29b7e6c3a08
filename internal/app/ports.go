package app

import (
	"context"
	"time"

	"github.com/teknos/oncolly/internal/domain"
)

// LoginResult carries the backend's answer to a credential check.
type LoginResult struct {
	UserID string
	Role   domain.Role
	Token  string
}

// Gateway is the remote Oncolly API as the application consumes it.
type Gateway interface {
	Login(context.Context, string, string) (LoginResult, error)
	Authorize(string)

	Patient(context.Context, string) (domain.Patient, error)
	UpdatePatient(context.Context, domain.Patient) (domain.Patient, error)
	Doctor(context.Context, string) (domain.Doctor, error)
	ListPatients(context.Context) ([]domain.Patient, error)

	CreateActivity(context.Context, domain.ActivityRecord) error
	ListActivities(context.Context, string) ([]domain.ActivityRecord, error)
	DeleteActivity(context.Context, string) error

	ListAppointments(context.Context, string) ([]domain.Appointment, error)
	CreateAppointment(context.Context, domain.Appointment) error
}

// Session is one authenticated login, persisted between runs.
type Session struct {
	Token      string
	UserID     string
	Role       domain.Role
	LoggedInAt time.Time
}

// SessionStore persists the current session across process restarts.
type SessionStore interface {
	Save(Session) error
	Load() (Session, bool, error)
	Clear() error
}

// IDGenerator returns unique identifiers for new records.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time
