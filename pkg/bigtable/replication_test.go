package bigtable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func replicationTable(svc *fakeService) *Table {
	return NewTable(testTable("events"), svc, ViewSchema)
}

func TestWaitForReplicationRejectsIntervalAboveTimeout(t *testing.T) {
	for _, tc := range []struct {
		name          string
		timeout       time.Duration
		checkInterval time.Duration
	}{
		{name: "interval above timeout", timeout: 10 * time.Millisecond, checkInterval: 20 * time.Millisecond},
		{name: "default interval above timeout", timeout: time.Second},
		{name: "negative timeout", timeout: -time.Second, checkInterval: time.Millisecond},
		{name: "negative interval", timeout: time.Second, checkInterval: -time.Millisecond},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svc := newFakeService(testTable("events"))
			ok, err := replicationTable(svc).WaitForReplication(context.Background(), tc.timeout, tc.checkInterval)
			require.Error(t, err)
			assert.True(t, IsInvalidArgument(err))
			assert.False(t, ok)
			assert.Zero(t, svc.rpcCalls())
		})
	}
}

func TestWaitForReplicationConsistentOnThirdCheck(t *testing.T) {
	svc := newFakeService(testTable("events"))
	svc.checkResults = []bool{false, false, true}

	ok, err := replicationTable(svc).WaitForReplication(context.Background(), 10*time.Second, time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, svc.tokenCalls)
	assert.Equal(t, 3, svc.checkCalls)
}

func TestWaitForReplicationConsistentImmediately(t *testing.T) {
	svc := newFakeService(testTable("events"))
	svc.checkResults = []bool{true}

	start := time.Now()
	ok, err := replicationTable(svc).WaitForReplication(context.Background(), time.Minute, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, svc.checkCalls)
	// No sleep after the final round.
	assert.Less(t, time.Since(start), 30*time.Second)
}

func TestWaitForReplicationTimesOut(t *testing.T) {
	svc := newFakeService(testTable("events"))
	svc.checkResults = []bool{false}

	timeout := 12 * time.Millisecond
	start := time.Now()
	ok, err := replicationTable(svc).WaitForReplication(context.Background(), timeout, 5*time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, svc.tokenCalls)
	assert.GreaterOrEqual(t, svc.checkCalls, 2)
	assert.GreaterOrEqual(t, elapsed, timeout)
}

func TestWaitForReplicationChecksAtLeastOnce(t *testing.T) {
	svc := newFakeService(testTable("events"))
	svc.checkResults = []bool{false}

	ok, err := replicationTable(svc).WaitForReplication(context.Background(), time.Nanosecond, time.Nanosecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, svc.checkCalls)
}

func TestWaitForReplicationErrors(t *testing.T) {
	t.Run("token", func(t *testing.T) {
		svc := newFakeService(testTable("events"))
		svc.tokenErr = status.Error(codes.NotFound, "no table")

		_, err := replicationTable(svc).WaitForReplication(context.Background(), time.Second, time.Millisecond)
		require.True(t, IsNotFound(err))
		assert.Equal(t, 1, svc.tokenCalls)
		assert.Zero(t, svc.checkCalls)
	})

	t.Run("check", func(t *testing.T) {
		svc := newFakeService(testTable("events"))
		svc.checkErr = status.Error(codes.Unavailable, "down")

		_, err := replicationTable(svc).WaitForReplication(context.Background(), time.Second, time.Millisecond)
		require.True(t, IsUnavailable(err))
		assert.Equal(t, 1, svc.checkCalls)
	})
}

func TestWaitForReplicationContextCanceled(t *testing.T) {
	svc := newFakeService(testTable("events"))
	svc.checkResults = []bool{false}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	ok, err := replicationTable(svc).WaitForReplication(ctx, time.Hour, time.Minute)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)
	assert.Equal(t, 1, svc.checkCalls)
	assert.Less(t, time.Since(start), time.Minute)
}
