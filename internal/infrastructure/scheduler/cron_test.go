package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronSchedulerRunsOnStart(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewCronScheduler("0 0 1 1 *", time.UTC, true, nil)

	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(1) }))
	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(100) }))

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, int32(1), runs.Load())
}

func TestCronSchedulerRejectsBadExpression(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("every tuesday", nil, false, nil)
	err := s.Start(context.Background(), func(time.Time) {})
	assert.Error(t, err)
	assert.NoError(t, s.Stop(context.Background()))
}
