package sweeper_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/bizflow/pkg/sweeper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRetrier struct {
	calls   atomic.Int32
	resumed int
	err     error
}

func (r *countingRetrier) RetryStalled(context.Context) (int, error) {
	r.calls.Add(1)

	return r.resumed, r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_ValidatesSchedule(t *testing.T) {
	_, err := sweeper.New("every tuesday", &countingRetrier{}, testLogger())
	require.Error(t, err)

	_, err = sweeper.New("*/5 * * * *", nil, testLogger())
	require.Error(t, err)

	s, err := sweeper.New("", &countingRetrier{}, testLogger())
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestRunOnce(t *testing.T) {
	retrier := &countingRetrier{resumed: 3}

	s, err := sweeper.New("*/5 * * * *", retrier, testLogger())
	require.NoError(t, err)

	resumed, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, resumed)

	retrier.err = errors.New("store offline")

	_, err = s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "store offline")
	assert.Equal(t, int32(2), retrier.calls.Load())
}

func TestStartAndStop(t *testing.T) {
	retrier := &countingRetrier{}

	s, err := sweeper.New("@every 1s", retrier, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.Error(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return retrier.calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}
