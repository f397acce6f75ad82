package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetRole returns the profile role, or an empty string when the user has no profile.
func (s *Store) GetRole(ctx context.Context, userID uuid.UUID) (string, error) {
	var role sql.NullString

	err := s.db.QueryRowContext(ctx, `SELECT role FROM profiles WHERE id = $1`, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("getting profile role: %w", err)
	}

	return role.String, nil
}
