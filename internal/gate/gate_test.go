package gate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicure/medicure/internal/navigation"
	"github.com/medicure/medicure/internal/session"
)

// recordingNav counts navigation operations so tests can assert the gate
// resets and never pushes.
type recordingNav struct {
	mu     sync.Mutex
	stack  []navigation.Route
	pushes int
	resets int
}

func newRecordingNav() *recordingNav {
	return &recordingNav{stack: []navigation.Route{navigation.RouteDoctorHome}}
}

func (n *recordingNav) Push(r navigation.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes++
	n.stack = append(n.stack, r)
}

func (n *recordingNav) Reset(r navigation.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets++
	n.stack = []navigation.Route{r}
}

func (n *recordingNav) Current() navigation.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack[len(n.stack)-1]
}

func (n *recordingNav) Depth() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.stack)
}

// blockingStore hangs on Get until released, ignoring the context, to
// simulate a store that never responds.
type blockingStore struct {
	release chan struct{}
}

func (b *blockingStore) Get(ctx context.Context, key string) (string, error) {
	<-b.release
	return "", session.ErrNotFound
}
func (b *blockingStore) Set(ctx context.Context, key, value string) error { return nil }
func (b *blockingStore) Delete(ctx context.Context, key string) error     { return nil }

type erroringStore struct{ err error }

func (e erroringStore) Get(ctx context.Context, key string) (string, error) { return "", e.err }
func (e erroringStore) Set(ctx context.Context, key, value string) error    { return e.err }
func (e erroringStore) Delete(ctx context.Context, key string) error        { return e.err }

func newGate(store session.Store, nav navigation.Navigator) *Gate {
	mgr := session.NewManager(store, zerolog.Nop())
	return New(mgr, nav, Config{}, zerolog.Nop())
}

func TestGateStartsChecking(t *testing.T) {
	g := newGate(session.NewMemStore(), newRecordingNav())
	if g.State() != StateChecking {
		t.Errorf("initial state = %v, want %v", g.State(), StateChecking)
	}
}

func TestGatePassThrough(t *testing.T) {
	store := session.NewMemStore()
	ctx := context.Background()
	if err := store.Set(ctx, session.KeyAuthToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	nav := newRecordingNav()
	g := newGate(store, nav)

	if got := g.Check(ctx); got != StateAuthenticated {
		t.Errorf("Check = %v, want %v", got, StateAuthenticated)
	}
	if nav.resets != 0 || nav.pushes != 0 {
		t.Errorf("authenticated check must not navigate (resets=%d pushes=%d)", nav.resets, nav.pushes)
	}
	if nav.Current() != navigation.RouteDoctorHome {
		t.Errorf("current screen changed to %q", nav.Current())
	}
}

func TestGateFailsClosedOnAbsentToken(t *testing.T) {
	nav := newRecordingNav()
	g := newGate(session.NewMemStore(), nav)

	if got := g.Check(context.Background()); got != StateUnauthenticated {
		t.Errorf("Check = %v, want %v", got, StateUnauthenticated)
	}
	if nav.resets != 1 {
		t.Errorf("resets = %d, want exactly 1", nav.resets)
	}
	if nav.pushes != 0 {
		t.Errorf("pushes = %d, want 0 (reset, never push)", nav.pushes)
	}
	if nav.Depth() != 1 {
		t.Errorf("history depth = %d, want 1", nav.Depth())
	}
	if nav.Current() != navigation.RouteLanding {
		t.Errorf("current = %q, want %q", nav.Current(), navigation.RouteLanding)
	}
}

func TestGateFailsClosedOnStoreError(t *testing.T) {
	nav := newRecordingNav()
	g := newGate(erroringStore{err: context.DeadlineExceeded}, nav)

	if got := g.Check(context.Background()); got != StateUnauthenticated {
		t.Errorf("Check = %v, want %v", got, StateUnauthenticated)
	}
	if nav.resets != 1 || nav.Depth() != 1 || nav.Current() != navigation.RouteLanding {
		t.Errorf("store error must reset to landing (resets=%d depth=%d current=%q)",
			nav.resets, nav.Depth(), nav.Current())
	}
}

func TestGateEmptyTokenIsUnauthenticated(t *testing.T) {
	store := session.NewMemStore()
	ctx := context.Background()
	if err := store.Set(ctx, session.KeyAuthToken, ""); err != nil {
		t.Fatalf("Set: %v", err)
	}

	nav := newRecordingNav()
	g := newGate(store, nav)

	if got := g.Check(ctx); got != StateUnauthenticated {
		t.Errorf("empty token: Check = %v, want %v", got, StateUnauthenticated)
	}
}

func TestGateRecheckOnFocusCatchesDeletedToken(t *testing.T) {
	store := session.NewMemStore()
	ctx := context.Background()
	if err := store.Set(ctx, session.KeyAuthToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	nav := newRecordingNav()
	g := newGate(store, nav)

	if got := g.Check(ctx); got != StateAuthenticated {
		t.Fatalf("mount check = %v, want authenticated", got)
	}

	// Token invalidated while the screen was backgrounded.
	if err := store.Delete(ctx, session.KeyAuthToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// Focus event: same gate instance, no remount.
	if got := g.Check(ctx); got != StateUnauthenticated {
		t.Errorf("focus check = %v, want unauthenticated", got)
	}
	if nav.resets != 1 || nav.Current() != navigation.RouteLanding || nav.Depth() != 1 {
		t.Errorf("focus failure must reset to landing (resets=%d depth=%d current=%q)",
			nav.resets, nav.Depth(), nav.Current())
	}
}

func TestGateTimesOutHungStore(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	defer close(store.release)

	nav := newRecordingNav()
	mgr := session.NewManager(store, zerolog.Nop())
	g := New(mgr, nav, Config{CheckTimeout: 50 * time.Millisecond}, zerolog.Nop())

	start := time.Now()
	got := g.Check(context.Background())
	if got != StateUnauthenticated {
		t.Errorf("Check = %v, want %v", got, StateUnauthenticated)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("check took %v, should have timed out around 50ms", elapsed)
	}
	if nav.resets != 1 {
		t.Errorf("timed-out check must reset (resets=%d)", nav.resets)
	}
}

func TestGateClosedPerformsNoNavigation(t *testing.T) {
	nav := newRecordingNav()
	g := newGate(session.NewMemStore(), nav)

	g.Close()

	if got := g.Check(context.Background()); got != StateUnauthenticated {
		t.Errorf("Check on closed gate = %v, want %v", got, StateUnauthenticated)
	}
	if nav.resets != 0 || nav.pushes != 0 {
		t.Errorf("closed gate navigated (resets=%d pushes=%d)", nav.resets, nav.pushes)
	}
}
