// Package sync reconciles the local dataset with a per-user remote
// document using last-writer-wins on a single modification timestamp.
// The decision itself is a pure comparator; push and pull are thin I/O
// around it and every remote failure is swallowed so the application
// stays fully usable offline.
package sync

import (
	"context"
	stdsync "sync"
	"time"

	"taskdeck/internal/utils"
	"taskdeck/store"
)

// DefaultDebounce is the delay between a local mutation and the push it
// schedules. Rapid mutations re-arm the same timer and collapse into one
// push.
const DefaultDebounce = 500 * time.Millisecond

// Decision is the outcome of comparing the two copies of the dataset.
type Decision int

const (
	// LocalWins means local data stays authoritative; nothing changes.
	LocalWins Decision = iota
	// RemoteWins means the remote copy replaces local state wholesale.
	RemoteWins
)

// Decide compares modification timestamps. Only a strictly newer remote
// copy wins; absent (zero) or equal remote timestamps leave local data
// authoritative.
func Decide(localModified, remoteModified int64) Decision {
	if remoteModified > localModified {
		return RemoteWins
	}
	return LocalWins
}

// User describes the signed-in identity as delivered by the auth
// collaborator. A nil *User means signed out.
type User struct {
	ID          string
	Email       string
	DisplayName string
	PhotoURL    string
}

// Document is the remote per-user document shape.
type Document struct {
	Folders      []store.Folder          `json:"folders"`
	Tasks        map[string][]store.Task `json:"tasks"`
	LastModified int64                   `json:"lastModified"`
	Email        string                  `json:"email,omitempty"`
	DisplayName  string                  `json:"displayName,omitempty"`
}

// Remote is the document store the reconciler talks to. Fetch returns
// (nil, nil) when no document exists for the user yet.
type Remote interface {
	Fetch(ctx context.Context, userID string) (*Document, error)
	Upsert(ctx context.Context, userID string, doc *Document) error
}

// Reconciler drives the two sync triggers: local mutations schedule a
// debounced push, and the sign-in transition pulls and applies the
// last-writer-wins decision.
type Reconciler struct {
	remote   Remote
	debounce time.Duration

	// snapshot reads the current local dataset; adopt overwrites it.
	// Both are supplied by the state controller.
	snapshot func() store.Dataset
	adopt    func(store.Dataset)

	mu    stdsync.Mutex
	user  *User
	timer *time.Timer
}

// NewReconciler wires a reconciler to the remote store and the local
// dataset accessors. A zero debounce gets the default.
func NewReconciler(remote Remote, debounce time.Duration, snapshot func() store.Dataset, adopt func(store.Dataset)) *Reconciler {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Reconciler{
		remote:   remote,
		debounce: debounce,
		snapshot: snapshot,
		adopt:    adopt,
	}
}

// HandleIdentity is the identity-change callback. The reconciler reacts
// only to the transition into "signed in", where it pulls the remote
// document.
func (r *Reconciler) HandleIdentity(ctx context.Context, u *User) {
	r.mu.Lock()
	wasSignedIn := r.user != nil
	r.user = u
	r.mu.Unlock()

	if u != nil && !wasSignedIn {
		r.Pull(ctx)
	}
}

// currentUser returns the signed-in user, or nil.
func (r *Reconciler) currentUser() *User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.user
}

// SchedulePush arms (or re-arms) the debounced push. Call it after every
// successful local mutation; it is a no-op while signed out.
func (r *Reconciler) SchedulePush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.user == nil {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		r.Flush(context.Background())
	})
}

// Flush pushes the full dataset immediately. Failures are logged and
// dropped; the push is idempotent and the next mutation reschedules it.
func (r *Reconciler) Flush(ctx context.Context) {
	u := r.currentUser()
	if u == nil {
		return
	}
	ds := r.snapshot()
	doc := &Document{
		Folders:      ds.Folders,
		Tasks:        ds.Tasks,
		LastModified: ds.LastModified,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
	}
	if err := r.remote.Upsert(ctx, u.ID, doc); err != nil {
		utils.Warnf("sync push failed: %v", err)
		return
	}
	utils.Debugf("pushed %d list(s) to remote", len(doc.Folders))
}

// Pull fetches the remote document and adopts it when it is strictly
// newer than the local dataset. It reports whether remote data was
// adopted. Any failure leaves local data untouched.
func (r *Reconciler) Pull(ctx context.Context) bool {
	u := r.currentUser()
	if u == nil {
		return false
	}
	doc, err := r.remote.Fetch(ctx, u.ID)
	if err != nil {
		utils.Warnf("sync pull failed: %v", err)
		return false
	}
	if doc == nil {
		return false
	}
	local := r.snapshot()
	if Decide(local.LastModified, doc.LastModified) != RemoteWins {
		return false
	}
	r.adopt(store.Dataset{
		Folders:      doc.Folders,
		Tasks:        doc.Tasks,
		LastModified: doc.LastModified,
	})
	utils.Infof("adopted remote data from %s", doc.Email)
	return true
}

// Subscribe polls the remote document at the given interval while signed
// in, invoking the same pull/decide path as sign-in. It blocks until ctx
// is done.
func (r *Reconciler) Subscribe(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Pull(ctx)
		}
	}
}
