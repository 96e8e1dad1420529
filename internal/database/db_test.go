package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InMemory(t *testing.T) {
	db, err := New("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.NoError(t, db.Conn().Ping())
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db, err := New("file::memory:")
	require.NoError(t, err)
	db.Conn().SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())

	_, err = db.Conn().Exec(
		`INSERT INTO alert_subscriptions (address, email, updated_at) VALUES (?, ?, ?)`,
		"0xabc", "a@b.c", "2026-03-01T00:00:00Z",
	)
	assert.NoError(t, err)
}
