package tuition

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rvasa/tuition/date"
)

// fakeRemote is an in-memory RemoteStore.
type fakeRemote struct {
	mu      sync.Mutex
	rec     *RemoteRecord
	fetches int
	pushes  int

	fetchErr error
	pushErr  error

	// When block is set, Fetch signals started and waits for block to
	// close. Used to hold a sync in flight.
	block   chan struct{}
	started chan struct{}
	once    sync.Once
}

func (f *fakeRemote) Authenticated() bool { return true }

func (f *fakeRemote) Fetch(ctx context.Context) (*RemoteRecord, error) {
	f.mu.Lock()
	f.fetches++
	err, rec, block := f.fetchErr, f.rec, f.block
	f.mu.Unlock()

	if block != nil {
		f.once.Do(func() { close(f.started) })
		<-block
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRemote) Push(ctx context.Context, a *Accounts) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	f.pushes++
	f.rec = &RemoteRecord{Owner: "user-1", Payload: payload, UpdatedAt: a.Meta.UpdatedAt}
	return nil
}

func (f *fakeRemote) record(t *testing.T) *Accounts {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rec == nil {
		return nil
	}
	a, err := f.rec.Decode()
	if err != nil {
		t.Fatalf("cannot decode remote record: %v", err)
	}
	return a
}

// seedRemote installs a book as the current remote record.
func (f *fakeRemote) seed(t *testing.T, a *Accounts) {
	t.Helper()
	payload, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	f.rec = &RemoteRecord{Owner: "user-1", Payload: payload, UpdatedAt: a.Meta.UpdatedAt}
}

func newTestTracker(t *testing.T, a *Accounts, remote RemoteStore) *Tracker {
	t.Helper()
	store := NewLocalStore(t.TempDir())
	if err := store.Save(a); err != nil {
		t.Fatalf("Save: %v", err)
	}
	tr, err := NewTracker(store, remote)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	return tr
}

func localWithStudent() *Accounts {
	a := NewAccounts()
	a.Students = []Student{{ID: "s1", Name: "Amit", Gender: Male}}
	a.Meta.UpdatedAt = 1_700_000_000_000
	return a
}

func TestSync_PushesInitialRecord(t *testing.T) {
	remote := &fakeRemote{}
	tr := newTestTracker(t, localWithStudent(), remote)

	if err := tr.Sync(context.Background(), SyncOptions{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	rec := remote.record(t)
	if rec == nil || rec.Student("s1") == nil {
		t.Errorf("remote should hold the pushed local state, got %+v", rec)
	}
}

func TestSync_BothEmptyIsNoop(t *testing.T) {
	remote := &fakeRemote{}
	tr := newTestTracker(t, NewAccounts(), remote)

	if err := tr.Sync(context.Background(), SyncOptions{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if remote.pushes != 0 {
		t.Errorf("nothing to sync, but %d pushes happened", remote.pushes)
	}
}

func TestSync_AdoptsCloudWhenLocalEmpty(t *testing.T) {
	cloud := NewAccounts()
	cloud.Payments = []Payment{{ID: "p1", Date: date.New(2026, 1, 5), Amount: 500}}
	cloud.Meta.UpdatedAt = 1_700_000_000_000

	remote := &fakeRemote{}
	remote.seed(t, cloud)
	tr := newTestTracker(t, NewAccounts(), remote)

	if err := tr.Sync(context.Background(), SyncOptions{PreferCloud: true}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	a := tr.Accounts()
	if p := a.Payment("p1"); p == nil || p.Amount != 500 {
		t.Errorf("local should equal the cloud copy, got %+v", a.Payments)
	}
	// An empty local must never overwrite the populated remote.
	if remote.pushes != 0 {
		t.Errorf("adopting the cloud should not push, got %d pushes", remote.pushes)
	}
	// The adopted state is persisted.
	saved, err := tr.store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if saved.Payment("p1") == nil {
		t.Error("adopted state should be persisted locally")
	}
}

func TestSync_PushesLocalWhenCloudEmpty(t *testing.T) {
	remote := &fakeRemote{}
	remote.seed(t, NewAccounts())
	tr := newTestTracker(t, localWithStudent(), remote)

	if err := tr.Sync(context.Background(), SyncOptions{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	rec := remote.record(t)
	if rec == nil || rec.Student("s1") == nil {
		t.Errorf("populated local should replace the empty remote, got %+v", rec)
	}
}

func TestSync_MergesDivergentReplicas(t *testing.T) {
	local := NewAccounts()
	local.Students = []Student{{ID: "s1", Name: "Amit"}}
	local.Sessions = []Session{{ID: "x", Date: date.New(2026, 1, 2), Rows: []SessionRow{
		{StudentID: "s1", Duration: 1, Rate: 400},
	}}}
	local.Meta.UpdatedAt = 100

	cloud := NewAccounts()
	cloud.Students = []Student{{ID: "s1", Name: "Amit"}}
	cloud.Sessions = []Session{
		{ID: "x", Date: date.New(2026, 1, 2), Rows: []SessionRow{
			{StudentID: "s1", Duration: 2, Rate: 400},
		}},
		{ID: "y", Date: date.New(2026, 1, 3), Rows: []SessionRow{
			{StudentID: "s1", Duration: 1, Rate: 400},
		}},
	}
	cloud.Meta.UpdatedAt = 200 // newer than local, still loses collisions

	remote := &fakeRemote{}
	remote.seed(t, cloud)
	tr := newTestTracker(t, local, remote)

	if err := tr.Sync(context.Background(), SyncOptions{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	for name, a := range map[string]*Accounts{"local": tr.Accounts(), "remote": remote.record(t)} {
		x := a.Session("x")
		if x == nil || x.Rows[0].Duration != 1 {
			t.Errorf("%s: local version of x should win: %+v", name, x)
		}
		if a.Session("y") == nil {
			t.Errorf("%s: cloud-only session y should survive", name)
		}
	}
}

func TestSync_FixedPoint(t *testing.T) {
	local := localWithStudent()
	cloud := NewAccounts()
	cloud.Payments = []Payment{{ID: "p1", Date: date.New(2026, 1, 5), Amount: 500}}
	cloud.Meta.UpdatedAt = 50

	remote := &fakeRemote{}
	remote.seed(t, cloud)
	tr := newTestTracker(t, local, remote)

	if err := tr.Sync(context.Background(), SyncOptions{}); err != nil {
		t.Fatalf("first Sync: %v", err)
	}
	pushes := remote.pushes
	before := tr.Accounts().Clone()

	if err := tr.Sync(context.Background(), SyncOptions{}); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if remote.pushes != pushes {
		t.Errorf("second sync pushed again (%d -> %d pushes)", pushes, remote.pushes)
	}
	if !sameContent(before, tr.Accounts()) {
		t.Errorf("second sync changed the local book")
	}
}

func TestSync_FetchFailureLeavesLocalAlone(t *testing.T) {
	remote := &fakeRemote{fetchErr: ErrSyncUnavailable}
	tr := newTestTracker(t, localWithStudent(), remote)

	if err := tr.Sync(context.Background(), SyncOptions{}); err == nil {
		t.Fatal("Sync should report the fetch failure")
	}
	if remote.pushes != 0 {
		t.Errorf("failed fetch must not push, got %d pushes", remote.pushes)
	}
	if tr.Accounts().Student("s1") == nil {
		t.Error("local state should be untouched")
	}
}

func TestSync_AdoptedPayloadIsNormalized(t *testing.T) {
	remote := &fakeRemote{}
	// A remote payload with damage: a nameless student and a row
	// pointing at nobody.
	remote.rec = &RemoteRecord{
		Owner: "user-1",
		Payload: []byte(`{
			"students": [{"id":"s1","name":"Amit"},{"id":"s2","name":""}],
			"sessions": [{"id":"x","date":"2026-01-02","rows":[
				{"studentId":"s1","duration":1,"rate":400},
				{"studentId":"ghost","duration":1}
			]}],
			"payments": [],
			"meta": {"updatedAt": 1700000000000}
		}`),
		UpdatedAt: 1_700_000_000_000,
	}
	tr := newTestTracker(t, NewAccounts(), remote)

	if err := tr.Sync(context.Background(), SyncOptions{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	a := tr.Accounts()
	if a.Student("s2") != nil {
		t.Error("nameless student should not survive adoption")
	}
	if len(a.Sessions) != 1 || len(a.Sessions[0].Rows) != 1 {
		t.Errorf("dangling row should not survive adoption: %+v", a.Sessions)
	}
}

func TestSync_SingleFlightDropsOverlap(t *testing.T) {
	remote := &fakeRemote{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	tr := newTestTracker(t, localWithStudent(), remote)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tr.Sync(context.Background(), SyncOptions{})
	}()
	<-remote.started

	// Overlapping attempt is dropped, not queued.
	if err := tr.Sync(context.Background(), SyncOptions{}); err != nil {
		t.Errorf("dropped attempt should not error: %v", err)
	}
	close(remote.block)
	wg.Wait()

	if remote.fetches != 1 {
		t.Errorf("fetches = %d, want 1 (second attempt dropped)", remote.fetches)
	}
}

func TestTracker_MutationTriggersSync(t *testing.T) {
	remote := &fakeRemote{}
	tr := newTestTracker(t, NewAccounts(), remote)

	if _, err := tr.AddStudent(Student{Name: "Amit"}); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}
	tr.Close() // wait for the background sync

	rec := remote.record(t)
	if rec == nil || len(rec.Students) != 1 {
		t.Errorf("mutation should end up on the remote, got %+v", rec)
	}
}

func TestTracker_NoopMutationDoesNotSync(t *testing.T) {
	remote := &fakeRemote{}
	tr := newTestTracker(t, NewAccounts(), remote)

	found, err := tr.DeleteStudent("ghost")
	if err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}
	if found {
		t.Fatal("ghost should not be found")
	}
	tr.Close()

	if remote.fetches != 0 || remote.pushes != 0 {
		t.Errorf("a no-op must not trigger a sync (%d fetches, %d pushes)", remote.fetches, remote.pushes)
	}
}

func TestTracker_MutationPersistsBeforeSync(t *testing.T) {
	// Even with the remote down, the mutation lands on disk.
	remote := &fakeRemote{fetchErr: ErrSyncUnavailable}
	tr := newTestTracker(t, NewAccounts(), remote)

	s, err := tr.AddStudent(Student{Name: "Amit"})
	if err != nil {
		t.Fatalf("AddStudent: %v", err)
	}
	tr.Close()

	saved, err := tr.store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if saved.Student(s.ID) == nil {
		t.Error("mutation should be persisted even when sync fails")
	}
	if saved.Meta.UpdatedAt == 0 {
		t.Error("mutation should advance the clock")
	}
}

// A mutation accepted while a sync attempt is in flight must survive the
// attempt's adopt: its own trigger is dropped by the single-flight guard,
// so the attempt itself has to fold it in rather than install the result
// of its stale snapshot wholesale.
func TestSync_KeepsMutationAcceptedMidFlight(t *testing.T) {
	cloud := NewAccounts()
	cloud.Students = []Student{{ID: "s2", Name: "Sita", Gender: Female}}
	cloud.Meta.UpdatedAt = 1_700_000_000_000

	remote := &fakeRemote{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	remote.seed(t, cloud)
	tr := newTestTracker(t, localWithStudent(), remote)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tr.Sync(context.Background(), SyncOptions{}); err != nil {
			t.Errorf("Sync: %v", err)
		}
	}()
	<-remote.started

	// Accepted and persisted while the fetch hangs; the payment's own
	// trigger is dropped by the running attempt.
	p, err := tr.AddPayment(Payment{Date: date.New(2026, 1, 20), Amount: 750})
	if err != nil {
		t.Fatalf("AddPayment: %v", err)
	}
	close(remote.block)
	wg.Wait()
	tr.Close()

	if tr.Accounts().Payment(p.ID) == nil {
		t.Error("payment lost from memory after the sync adopted its result")
	}
	saved, err := tr.store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if saved.Payment(p.ID) == nil {
		t.Error("payment lost from disk after the sync adopted its result")
	}
	if rec := remote.record(t); rec == nil || rec.Payment(p.ID) == nil {
		t.Error("payment absent from the pushed remote record")
	}
	// The rest of the merge is intact.
	for _, id := range []string{"s1", "s2"} {
		if tr.Accounts().Student(id) == nil {
			t.Errorf("student %s should survive the merge", id)
		}
	}
}

// Guard against clock rewind when adopting a cloud record carrying an
// older stamp than the local book.
func TestSync_ClockNeverRegresses(t *testing.T) {
	local := NewAccounts()
	local.Meta.UpdatedAt = 2_000_000_000_000

	cloud := NewAccounts()
	cloud.Payments = []Payment{{ID: "p1", Date: date.New(2026, 1, 5), Amount: 500}}
	cloud.Meta.UpdatedAt = 1_000

	remote := &fakeRemote{}
	remote.seed(t, cloud)
	tr := newTestTracker(t, local, remote)

	if err := tr.Sync(context.Background(), SyncOptions{PreferCloud: true}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if got := tr.Accounts().Meta.UpdatedAt; got < 1_000 {
		t.Errorf("clock = %d, regressed", got)
	}
	if tr.Accounts().Payment("p1") == nil {
		t.Error("cloud copy should still be adopted")
	}
	// Not strictly below the old local clock either: time.Now is far
	// beyond both test stamps.
	if got := tr.Accounts().Meta.UpdatedAt; got < 2_000_000_000_000 {
		t.Errorf("clock = %d, below the pre-adoption local clock", got)
	}
}
