package alerts

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SubscriptionRepository persists the address→contact mapping. Addresses
// are keyed case-insensitively.
type SubscriptionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *sql.DB, log zerolog.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{
		db:  db,
		log: log.With().Str("repo", "subscriptions").Logger(),
	}
}

// Subscribe registers or overwrites the contact email for an address.
func (r *SubscriptionRepository) Subscribe(address, email string) error {
	query := `
		INSERT INTO alert_subscriptions (address, email, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			email = excluded.email,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, strings.ToLower(address), email, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store subscription: %w", err)
	}
	return nil
}

// Email returns the registered contact for an address, or "" when none is
// registered.
func (r *SubscriptionRepository) Email(address string) (string, error) {
	var email string
	err := r.db.QueryRow(
		`SELECT email FROM alert_subscriptions WHERE address = ?`,
		strings.ToLower(address),
	).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up subscription: %w", err)
	}
	return email, nil
}
