package server

import (
	"context"
	"fmt"

	"github.com/teknos/oncolly/internal/adapters/server/auth"
	"github.com/teknos/oncolly/internal/adapters/storage/sqlite"
	"github.com/teknos/oncolly/internal/domain"
)

// seedAccount is one demo login created on first serve.
type seedAccount struct {
	id        string
	role      domain.Role
	email     string
	password  string
	firstName string
	lastName  string
}

var seedAccounts = []seedAccount{
	{id: "1", role: domain.RolePatient, email: "patient@oncolly.dev", password: "patient", firstName: "Alma", lastName: "Reyes"},
	{id: "2", role: domain.RolePatient, email: "patient2@oncolly.dev", password: "patient", firstName: "Tomas", lastName: "Lindqvist"},
	{id: "3", role: domain.RoleDoctor, email: "doctor@oncolly.dev", password: "doctor", firstName: "Iris", lastName: "Mbeki"},
}

// Seed inserts the demo accounts, skipping any email already present.
func Seed(ctx context.Context, store *sqlite.Store) error {
	for _, acct := range seedAccounts {
		if _, err := store.UserByEmail(ctx, acct.email); err == nil {
			continue
		}
		hash, err := auth.HashPassword(acct.password)
		if err != nil {
			return err
		}
		err = store.CreateUser(ctx, sqlite.User{
			ID:           acct.id,
			Role:         acct.role,
			Email:        acct.email,
			PasswordHash: hash,
			FirstName:    acct.firstName,
			LastName:     acct.lastName,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", acct.email, err)
		}
	}
	return nil
}
