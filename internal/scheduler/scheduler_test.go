package scheduler

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopJob struct{}

func (noopJob) Run() error   { return nil }
func (noopJob) Name() string { return "noop" }

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob("@hourly", noopJob{}))
	require.NoError(t, s.AddJob("@every 10m", noopJob{}))
	assert.Equal(t, 2, s.Entries())
}

func TestScheduler_AddJob_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	assert.Error(t, s.AddJob("not a schedule", noopJob{}))
	assert.Equal(t, 0, s.Entries())
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@hourly", noopJob{}))

	s.Start()
	s.Stop()
}
