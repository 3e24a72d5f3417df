package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CadeStocker/producepricer/internal/service"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) SweepAll(context.Context) (service.SweepStats, error) {
	c.calls.Add(1)
	return service.SweepStats{Items: 3, Saved: 2}, c.err
}

func TestNew_RejectsBadSpec(t *testing.T) {
	_, err := New("not a cron", "UTC", &countingSweeper{}, nil)
	assert.Error(t, err)

	_, err = New("15 0 * * *", "Mars/Olympus", &countingSweeper{}, nil)
	assert.Error(t, err)
}

func TestScheduler_StartSchedulesSweep(t *testing.T) {
	s, err := New("15 0 * * *", "UTC", &countingSweeper{}, nil)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	next := s.Next()
	require.False(t, next.IsZero())
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 15, next.Minute())
}

func TestRunSweep_CallsSweeper(t *testing.T) {
	sweeper := &countingSweeper{}
	s, err := New("@daily", "UTC", sweeper, nil)
	require.NoError(t, err)

	s.runSweep()
	sweeper.err = errors.New("disk full")
	s.runSweep()

	assert.Equal(t, int32(2), sweeper.calls.Load())
}
