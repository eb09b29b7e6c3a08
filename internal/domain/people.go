package domain

import "strings"

// Role identifies which home surface a logged-in user lands on.
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
)

// ParseRole normalizes a backend role string; anything unknown is treated as
// a patient.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleDoctor)) {
		return RoleDoctor
	}
	return RolePatient
}

// Patient is a patient profile as served by the backend.
type Patient struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	DateOfBirth string
}

// FullName joins the name parts for display.
func (p Patient) FullName() string {
	return joinName(p.FirstName, p.LastName)
}

// Doctor is a doctor profile as served by the backend.
type Doctor struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}

// FullName joins the name parts for display.
func (d Doctor) FullName() string {
	return joinName(d.FirstName, d.LastName)
}

func joinName(first, last string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		return "(unnamed)"
	}
	return name
}
