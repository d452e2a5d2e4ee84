package sync

import (
	"context"
	"strconv"
	stdsync "sync"
	"testing"
	"time"

	"taskdeck/internal/state"
	"taskdeck/store"
)

// fakeRemote is an in-memory Remote recording calls.
type fakeRemote struct {
	mu      stdsync.Mutex
	doc     *Document
	upserts int
	fetches int
}

func (f *fakeRemote) Fetch(ctx context.Context, userID string) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.doc, nil
}

func (f *fakeRemote) Upsert(ctx context.Context, userID string, doc *Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	f.doc = doc
	return nil
}

func (f *fakeRemote) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

func (f *fakeRemote) lastDoc() *Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc
}

// harness wires a reconciler to a mutable local dataset.
type harness struct {
	mu      stdsync.Mutex
	local   store.Dataset
	remote  *fakeRemote
	r       *Reconciler
	adopted bool
}

func newHarness(t *testing.T, debounce time.Duration) *harness {
	t.Helper()
	h := &harness{remote: &fakeRemote{}}
	h.local = store.Dataset{
		Folders:      []store.Folder{{ID: "f1", Name: "Local", CreatedAt: 1}},
		Tasks:        map[string][]store.Task{"f1": {}},
		LastModified: 100,
	}
	h.r = NewReconciler(h.remote, debounce,
		func() store.Dataset {
			h.mu.Lock()
			defer h.mu.Unlock()
			return h.local
		},
		func(ds store.Dataset) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.local = ds
			h.adopted = true
		},
	)
	return h
}

func signIn(h *harness, ctx context.Context) {
	h.r.HandleIdentity(ctx, &User{ID: "u1", Email: "u@example.com", DisplayName: "U"})
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		local  int64
		remote int64
		want   Decision
	}{
		{"remote newer wins", 100, 200, RemoteWins},
		{"remote older loses", 100, 50, LocalWins},
		{"equal keeps local", 100, 100, LocalWins},
		{"absent remote keeps local", 100, 0, LocalWins},
		{"fresh local adopts any remote", 0, 1, RemoteWins},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.local, tt.remote); got != tt.want {
				t.Errorf("Decide(%d, %d) = %v, want %v", tt.local, tt.remote, got, tt.want)
			}
		})
	}
}

func TestPullAdoptsNewerRemote(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.remote.doc = &Document{
		Folders:      []store.Folder{{ID: "rf", Name: "Remote", CreatedAt: 2}},
		Tasks:        map[string][]store.Task{"rf": {}},
		LastModified: 200,
	}

	signIn(h, context.Background())

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.adopted {
		t.Fatal("sign-in with newer remote must adopt it")
	}
	if h.local.LastModified != 200 || h.local.Folders[0].Name != "Remote" {
		t.Errorf("local after adoption = %+v", h.local)
	}
}

func TestPullKeepsNewerLocal(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.remote.doc = &Document{LastModified: 50}

	signIn(h, context.Background())

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.adopted {
		t.Fatal("older remote data must not be adopted")
	}
	if h.local.LastModified != 100 {
		t.Errorf("local LastModified = %d, want untouched 100", h.local.LastModified)
	}
}

func TestPullWithNoRemoteDocument(t *testing.T) {
	h := newHarness(t, time.Hour)

	signIn(h, context.Background())

	if h.r.Pull(context.Background()) {
		t.Error("Pull with no remote document must report false")
	}
	if h.adopted {
		t.Error("missing remote document must not trigger adoption")
	}
}

func TestSignInTransitionPullsOnce(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	signIn(h, ctx)
	signIn(h, ctx) // already signed in; no second pull

	if h.remote.fetches != 1 {
		t.Errorf("fetches = %d, want 1 (only the transition pulls)", h.remote.fetches)
	}
}

func TestSchedulePushCoalesces(t *testing.T) {
	h := newHarness(t, 30*time.Millisecond)
	signIn(h, context.Background())

	for i := 0; i < 5; i++ {
		h.r.SchedulePush()
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := h.remote.upsertCount(); got != 1 {
		t.Errorf("upserts = %d, want rapid mutations coalesced into 1", got)
	}
}

func TestSchedulePushNoopWhileSignedOut(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)

	h.r.SchedulePush()
	time.Sleep(50 * time.Millisecond)

	if got := h.remote.upsertCount(); got != 0 {
		t.Errorf("upserts = %d, want 0 while signed out", got)
	}
}

func TestFlushPushesIdentityFields(t *testing.T) {
	h := newHarness(t, time.Hour)
	signIn(h, context.Background())

	h.r.Flush(context.Background())

	if h.remote.doc == nil {
		t.Fatal("Flush did not push a document")
	}
	if h.remote.doc.Email != "u@example.com" || h.remote.doc.DisplayName != "U" {
		t.Errorf("pushed identity = %q/%q", h.remote.doc.Email, h.remote.doc.DisplayName)
	}
	if h.remote.doc.LastModified != 100 {
		t.Errorf("pushed LastModified = %d, want 100", h.remote.doc.LastModified)
	}
}

// mapKV is a minimal in-memory store.KV for controller-backed tests.
type mapKV struct {
	mu stdsync.Mutex
	m  map[string][]byte
}

func (k *mapKV) Read(key string, fallback []byte) []byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	if v, ok := k.m[key]; ok {
		return v
	}
	return fallback
}

func (k *mapKV) Write(key string, value []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key] = append([]byte(nil), value...)
}

func (k *mapKV) Close() error { return nil }

// The production wiring hands the reconciler the controller's own Snapshot
// and ReplaceAll, so the debounce timer snapshots on its goroutine while
// the application keeps mutating. This drives that exact wiring through a
// burst of mutations.
func TestSchedulePushOverLiveController(t *testing.T) {
	ctrl := state.Load(&mapKV{m: make(map[string][]byte)}, nil)
	remote := &fakeRemote{}
	r := NewReconciler(remote, time.Millisecond, ctrl.Snapshot, ctrl.ReplaceAll)
	r.HandleIdentity(context.Background(), &User{ID: "u1"})
	ctrl.OnMutate(r.SchedulePush)

	for i := 0; i < 500; i++ {
		if _, err := ctrl.AddTask("task " + strconv.Itoa(i)); err != nil {
			t.Fatalf("AddTask error: %v", err)
		}
	}
	r.Flush(context.Background())
	time.Sleep(20 * time.Millisecond) // let any armed timer push drain

	doc := remote.lastDoc()
	if doc == nil {
		t.Fatal("no document pushed")
	}
	tasks := doc.Tasks[ctrl.CurrentFolderID()]
	if len(tasks) != 500 {
		t.Errorf("pushed task count = %d, want 500", len(tasks))
	}
	if doc.LastModified != ctrl.LastModified() {
		t.Errorf("pushed LastModified = %d, want %d", doc.LastModified, ctrl.LastModified())
	}
}

func TestSubscribePollsUntilCancelled(t *testing.T) {
	h := newHarness(t, time.Hour)
	signIn(h, context.Background())
	before := h.remote.fetches

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.r.Subscribe(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(45 * time.Millisecond)
	cancel()
	<-done

	if h.remote.fetches <= before {
		t.Error("Subscribe performed no polls")
	}
}
