package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/models"
)

// Seed is the JSON document used to populate the directory and catalog of an
// in-memory store, since identities live outside this service.
type Seed struct {
	Users []struct {
		ID       uuid.UUID `json:"id"`
		FullName string    `json:"full_name"`
		Email    string    `json:"email"`
		Role     string    `json:"role"`
	} `json:"users"`
	Courses []struct {
		ID    uuid.UUID `json:"id"`
		Title string    `json:"title"`
	} `json:"courses"`
}

// LoadSeed reads a seed document into the store.
func (s *Store) LoadSeed(r io.Reader) error {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}

	for i, u := range seed.Users {
		role := models.UserRole(u.Role)
		switch role {
		case models.UserRoleStudent, models.UserRoleReviewer, models.UserRoleAdmin:
		default:
			return fmt.Errorf("seed user %d: unknown role %q", i, u.Role)
		}
		if u.ID == uuid.Nil {
			return fmt.Errorf("seed user %d: id is required", i)
		}
		s.AddUser(models.User{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: role})
	}
	for i, c := range seed.Courses {
		if c.ID == uuid.Nil {
			return fmt.Errorf("seed course %d: id is required", i)
		}
		s.AddCourse(models.Course{ID: c.ID, Title: c.Title})
	}
	return nil
}

// LoadSeedFile is LoadSeed for a path.
func (s *Store) LoadSeedFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return s.LoadSeed(f)
}
