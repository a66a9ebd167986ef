package tuition

import (
	"sync"
	"sync/atomic"
	"time"
)

// Tracker owns the in-memory account book and runs every mutation through
// the same pipeline: validate and apply, advance the logical clock, persist
// locally, then trigger a background sync. The local write always
// happens-before the sync attempt, so the device never depends on the
// network to accept a change.
type Tracker struct {
	mu       sync.Mutex
	accounts *Accounts
	store    *LocalStore
	remote   RemoteStore

	syncing atomic.Bool    // single-flight guard, see sync.go
	pending sync.WaitGroup // in-flight background syncs
}

// NewTracker loads the local account book (running the legacy migration
// if needed) and returns a tracker bound to the given stores. remote may
// be nil for a fully offline tracker.
func NewTracker(store *LocalStore, remote RemoteStore) (*Tracker, error) {
	a, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Tracker{accounts: a, store: store, remote: remote}, nil
}

// Accounts returns the live account book. Readers must not mutate it;
// all mutations go through the tracker.
func (t *Tracker) Accounts() *Accounts {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accounts
}

// Close waits for any background sync to finish. A CLI process calls it
// before exiting so a fire-and-forget sync is not cut short.
func (t *Tracker) Close() { t.pending.Wait() }

// mutate applies fn to the account book and, when it succeeds, stamps the
// clock, persists locally and triggers a sync.
func (t *Tracker) mutate(fn func(a *Accounts) error) error {
	t.mu.Lock()
	if err := fn(t.accounts); err != nil {
		t.mu.Unlock()
		return err
	}
	t.accounts.Touch(time.Now())
	err := t.store.Save(t.accounts)
	t.mu.Unlock()
	if err != nil {
		return err
	}
	t.TriggerSync()
	return nil
}

// AddStudent adds or replaces a student.
func (t *Tracker) AddStudent(s Student) (Student, error) {
	err := t.mutate(func(a *Accounts) error {
		var e error
		s, e = a.UpsertStudent(s)
		return e
	})
	return s, err
}

// DeleteStudent removes a student and every session row that referenced
// it. found is false when the id is unknown, in which case nothing
// changed and no sync is triggered.
func (t *Tracker) DeleteStudent(id string) (found bool, err error) {
	err = t.mutate(func(a *Accounts) error {
		found = a.DeleteStudent(id)
		if !found {
			return errNoChange
		}
		return nil
	})
	if err == errNoChange {
		err = nil
	}
	return found, err
}

// AddSession adds or replaces a session.
func (t *Tracker) AddSession(s Session) (Session, error) {
	err := t.mutate(func(a *Accounts) error {
		var e error
		s, e = a.UpsertSession(s)
		return e
	})
	return s, err
}

// DeleteSession removes a session.
func (t *Tracker) DeleteSession(id string) (found bool, err error) {
	err = t.mutate(func(a *Accounts) error {
		found = a.DeleteSession(id)
		if !found {
			return errNoChange
		}
		return nil
	})
	if err == errNoChange {
		err = nil
	}
	return found, err
}

// AddPayment adds or replaces a payment.
func (t *Tracker) AddPayment(p Payment) (Payment, error) {
	err := t.mutate(func(a *Accounts) error {
		var e error
		p, e = a.UpsertPayment(p)
		return e
	})
	return p, err
}

// DeletePayment removes a payment.
func (t *Tracker) DeletePayment(id string) (found bool, err error) {
	err = t.mutate(func(a *Accounts) error {
		found = a.DeletePayment(id)
		if !found {
			return errNoChange
		}
		return nil
	})
	if err == errNoChange {
		err = nil
	}
	return found, err
}

// SetGlobalRate sets the default hourly rate. Setting the current value
// again is a no-op.
func (t *Tracker) SetGlobalRate(rate float64) error {
	err := t.mutate(func(a *Accounts) error {
		if a.GlobalRate == rate {
			return errNoChange
		}
		return a.SetGlobalRate(rate)
	})
	if err == errNoChange {
		err = nil
	}
	return err
}

// Import adopts an already-normalized account book wholesale, exactly
// like an adopted remote state: the whole aggregate is replaced.
func (t *Tracker) Import(a *Accounts) error {
	return t.mutate(func(current *Accounts) error {
		*current = *NormalizeAccounts(a)
		return nil
	})
}

// errNoChange aborts a mutation that turned out to be a no-op, so the
// clock does not advance and no sync fires.
var errNoChange = noChangeError{}

type noChangeError struct{}

func (noChangeError) Error() string { return "no change" }
