package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundgood-leasing/internal/config"
	"soundgood-leasing/internal/jobs"
)

type nopPinger struct{}

func (nopPinger) Ping(context.Context) error { return nil }

func TestNewScheduler(t *testing.T) {
	t.Run("Registers keep-alive", func(t *testing.T) {
		cfg := &config.Config{Scheduler: config.SchedulerConfig{SessionKeepAlive: config.DefaultSessionKeepAlive}}

		s, err := NewScheduler(jobs.NewJobRunner(nopPinger{}, cfg))
		require.NoError(t, err)
		assert.True(t, s.IsRunning())

		s.Start()
		s.Stop()
	})

	t.Run("Rejects a bad schedule", func(t *testing.T) {
		cfg := &config.Config{Scheduler: config.SchedulerConfig{SessionKeepAlive: "every now and then"}}

		s, err := NewScheduler(jobs.NewJobRunner(nopPinger{}, cfg))
		assert.Error(t, err)
		assert.Nil(t, s)
	})

	t.Run("Five field spec needs seconds", func(t *testing.T) {
		cfg := &config.Config{Scheduler: config.SchedulerConfig{SessionKeepAlive: "*/5 * * * *"}}

		_, err := NewScheduler(jobs.NewJobRunner(nopPinger{}, cfg))
		assert.Error(t, err)
	})
}
