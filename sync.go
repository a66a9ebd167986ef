package tuition

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"time"
)

// SyncOptions tunes one synchronization attempt.
type SyncOptions struct {
	// PreferCloud adopts the remote state wholesale when it is the only
	// replica holding data. An explicit pull (typically right after
	// sign-in) sets it so a device takes the cloud copy without pushing
	// first. It does not bypass the merge when both replicas hold data.
	PreferCloud bool
}

// TriggerSync starts a background synchronization and returns
// immediately. A failed attempt is logged and dropped; the local copy is
// already safe on disk and the next mutation retriggers.
func (t *Tracker) TriggerSync() {
	if t.remote == nil || !t.remote.Authenticated() {
		return
	}
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		if err := t.Sync(context.Background(), SyncOptions{}); err != nil {
			log.Printf("sync: %v", err)
		}
	}()
}

// Sync reconciles the local and remote replicas once.
//
// Attempts are single-flight: a call that finds another sync in progress
// returns immediately without queueing. The caller's state has already
// been persisted locally, and the running attempt (or the next trigger)
// will carry it; stacking attempts would only push the same state twice.
//
// The reconciliation itself:
//
//   - remote unreachable: nothing changes, the attempt is dropped,
//   - no remote record and local data: push local as the initial record,
//   - both replicas hold data: merge, adopt the merged book locally and
//     push it,
//   - only the cloud holds data (or PreferCloud is set and it holds
//     data): adopt the cloud copy wholesale,
//   - only the local replica holds data: push it,
//   - neither holds data: nothing to do.
//
// An empty local book never overwrites a populated remote record, and
// any adopted payload goes through normalization before it is trusted.
func (t *Tracker) Sync(ctx context.Context, opts SyncOptions) error {
	if t.remote == nil || !t.remote.Authenticated() {
		return nil
	}
	if !t.syncing.CompareAndSwap(false, true) {
		return nil
	}
	defer t.syncing.Store(false)

	t.mu.Lock()
	local := t.accounts.Clone()
	t.mu.Unlock()
	// Mutations accepted after this snapshot are folded back in by adopt,
	// keyed on the snapshot's clock.
	snapshotClock := local.Meta.UpdatedAt

	rec, err := t.remote.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	if rec == nil {
		if !local.HasData() {
			return nil
		}
		if err := t.remote.Push(ctx, local); err != nil {
			return fmt.Errorf("push: %w", err)
		}
		return nil
	}

	cloud, err := rec.Decode()
	if err != nil {
		return fmt.Errorf("remote record: %w", err)
	}

	switch {
	case local.HasData() && cloud.HasData():
		// Already converged: merging again would only churn the clock.
		if sameContent(local, cloud) {
			return nil
		}
		adopted, err := t.adopt(Merge(local, cloud), snapshotClock)
		if err != nil {
			return err
		}
		if err := t.remote.Push(ctx, adopted); err != nil {
			return fmt.Errorf("push: %w", err)
		}
		return nil

	case cloud.HasData() && (opts.PreferCloud || !local.HasData()):
		_, err := t.adopt(cloud, snapshotClock)
		return err

	case local.HasData():
		if err := t.remote.Push(ctx, local); err != nil {
			return fmt.Errorf("push: %w", err)
		}
		return nil

	default:
		return nil
	}
}

// sameContent reports whether two books hold the same records,
// ignoring the clock.
func sameContent(a, b *Accounts) bool {
	return a.GlobalRate == b.GlobalRate &&
		reflect.DeepEqual(a.Students, b.Students) &&
		reflect.DeepEqual(a.Sessions, b.Sessions) &&
		reflect.DeepEqual(a.Payments, b.Payments)
}

// adopt replaces the in-memory account book with a, re-normalized, and
// persists it. It returns the book actually installed.
//
// snapshotClock is the clock the sync attempt read before fetching. A
// mutation accepted while the attempt was in flight advanced the clock
// past it (and its own trigger was dropped by the single-flight guard),
// so replacing the book wholesale would destroy that mutation's record
// in every replica. When the clock moved, adopt merges the current book
// into a instead of discarding it.
//
// The clock never regresses: when the result carries an older stamp than
// the current book the stamp is advanced.
func (t *Tracker) adopt(a *Accounts, snapshotClock int64) (*Accounts, error) {
	a = NormalizeAccounts(a)
	t.mu.Lock()
	if t.accounts.Meta.UpdatedAt != snapshotClock {
		a = Merge(t.accounts, a)
	}
	if a.Meta.UpdatedAt < t.accounts.Meta.UpdatedAt {
		a.Meta.UpdatedAt = t.accounts.Meta.UpdatedAt
		a.Touch(time.Now())
	}
	t.accounts = a
	err := t.store.Save(a)
	t.mu.Unlock()
	return a, err
}
