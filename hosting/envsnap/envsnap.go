// Package envsnap serializes process-global environment mutation behind a
// single mutex, so the distributed-host strategy can set env vars ahead of
// constructing a third-party application factory without one test's
// mutation leaking into the next.
package envsnap

import (
	"context"
	"os"
)

// sem is a process-global 1-slot semaphore standing in for the controller's
// mutex: exactly one apply/restore window may be open at a time across
// every App in the process. A channel (rather than sync.Mutex) lets Apply
// honor context cancellation while waiting to acquire it.
var sem = make(chan struct{}, 1)

// entry records one key's prior state for restoration.
type entry struct {
	key      string
	wasSet   bool
	priorVal string
}

// Snapshot is an open apply window: a set of keys whose prior values were
// captured and can be restored exactly once.
type Snapshot struct {
	entries []entry
	done    bool
}

// Apply acquires the process-wide mutex, snapshots the current value of
// every key in vars, sets vars, and returns a Snapshot whose Restore
// releases the mutex and reverts every key. ctx allows the mutex wait to be
// cancelled; once acquired, Apply itself cannot fail other than from
// os.Setenv errors.
//
// Every successful Apply must be paired with exactly one Restore call, but
// the two need not be adjacent: a caller whose own contract ties
// restoration to its dispose (as DistributedTestHost's does) holds the
// Snapshot open across an intervening failure and restores later, rather
// than deferring Restore immediately.
func Apply(ctx context.Context, vars map[string]string) (*Snapshot, error) {
	if err := acquire(ctx); err != nil {
		return nil, err
	}

	entries := make([]entry, 0, len(vars))
	for k, v := range vars {
		prior, wasSet := os.LookupEnv(k)
		entries = append(entries, entry{key: k, wasSet: wasSet, priorVal: prior})
		if err := os.Setenv(k, v); err != nil {
			restore(entries)
			<-sem
			return nil, err
		}
	}
	return &Snapshot{entries: entries}, nil
}

func acquire(ctx context.Context) error {
	select {
	case sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func restore(entries []entry) {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.wasSet {
			os.Setenv(e.key, e.priorVal)
		} else {
			os.Unsetenv(e.key)
		}
	}
}

// Restore reverts every key Apply changed and releases the process-wide
// mutex. Safe to call at most once per Snapshot; a second call is a no-op.
func (s *Snapshot) Restore() {
	if s == nil || s.done {
		return
	}
	s.done = true
	restore(s.entries)
	<-sem
}
