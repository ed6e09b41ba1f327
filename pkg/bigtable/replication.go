package bigtable

import (
	"context"
	"time"

	"github.com/go-kit/log/level"
)

const (
	DefaultReplicationTimeout       = 10 * time.Minute
	DefaultReplicationCheckInterval = 5 * time.Second
)

// WaitForReplication blocks until every write that finished before the call
// has been replicated to all clusters, or until timeout elapses. It returns
// false, not an error, when the timeout is reached. At least one check is
// always made, and the call may overrun timeout by one round-trip.
//
// Zero timeout or checkInterval select DefaultReplicationTimeout and
// DefaultReplicationCheckInterval. checkInterval must not exceed timeout.
func (t *Table) WaitForReplication(ctx context.Context, timeout, checkInterval time.Duration) (bool, error) {
	if timeout == 0 {
		timeout = DefaultReplicationTimeout
	}
	if checkInterval == 0 {
		checkInterval = DefaultReplicationCheckInterval
	}
	switch {
	case timeout < 0 || checkInterval < 0:
		return false, invalidArgumentf("timeout and check interval must not be negative")
	case checkInterval > timeout:
		return false, invalidArgumentf("check interval %s can not be greater than timeout %s", checkInterval, timeout)
	}

	token, err := t.GenerateConsistencyToken(ctx)
	if err != nil {
		return false, err
	}

	start := time.Now()
	for round := 1; ; round++ {
		consistent, err := t.CheckConsistency(ctx, token)
		if err != nil {
			return false, err
		}
		elapsed := time.Since(start)
		level.Debug(t.logger).Log("msg", "checked replication", "table", t.path, "round", round, "consistent", consistent, "elapsed", elapsed)
		if consistent {
			return true, nil
		}
		if elapsed >= timeout {
			return false, nil
		}

		timer := time.NewTimer(checkInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}
}
