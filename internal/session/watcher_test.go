package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWatcherReportsVaultRewrite(t *testing.T) {
	fs, _ := newTestFileStore(t)
	ctx := context.Background()

	if err := fs.Set(ctx, KeyAuthToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	w, err := WatchVault(fs.Path(), zerolog.Nop())
	if err != nil {
		t.Fatalf("WatchVault: %v", err)
	}
	defer w.Close()

	// Rewrite the vault the way another process would.
	if err := fs.Set(ctx, KeyAuthToken, "def"); err != nil {
		t.Fatalf("second Set: %v", err)
	}

	select {
	case <-w.Changes():
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification after vault rewrite")
	}
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	fs, _ := newTestFileStore(t)
	ctx := context.Background()

	w, err := WatchVault(fs.Path(), zerolog.Nop())
	if err != nil {
		t.Fatalf("WatchVault: %v", err)
	}
	defer w.Close()

	// The install secret lives in the same directory; touching it must not
	// look like a session change. Reopening the store rewrites nothing, so
	// trigger an unrelated write directly.
	other, err := OpenFileStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	if err := other.Set(ctx, KeyAuthToken, "elsewhere"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case <-w.Changes():
		t.Fatal("unexpected notification for unrelated vault")
	case <-time.After(300 * time.Millisecond):
	}
}
