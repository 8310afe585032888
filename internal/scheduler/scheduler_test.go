package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
	err  error
	done chan struct{}
}

func (j *countingJob) RunOnce(context.Context) error {
	if j.runs.Add(1) == 1 {
		close(j.done)
	}
	return j.err
}

func TestStartRunsImmediately(t *testing.T) {
	job := &countingJob{done: make(chan struct{})}
	s := New(job, time.Hour, slog.New(slog.DiscardHandler))
	t.Cleanup(s.Stop)

	require.NoError(t, s.Start(context.Background()))

	select {
	case <-job.done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
	assert.GreaterOrEqual(t, job.runs.Load(), int32(1))
}

func TestJobErrorDoesNotStopScheduler(t *testing.T) {
	job := &countingJob{done: make(chan struct{}), err: errors.New("boom")}
	s := New(job, 10*time.Millisecond, slog.New(slog.DiscardHandler))
	t.Cleanup(s.Stop)

	require.NoError(t, s.Start(context.Background()))

	<-job.done
	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, 5*time.Second, 5*time.Millisecond)
}
