package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherSignalsOnMatchedFile(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, []string{"legacy.csv"}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "legacy.csv"), []byte("A\n1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		if filepath.Base(ev.Path) != "legacy.csv" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
}

func TestWatcherIgnoresUnmatchedFile(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, []string{"legacy.csv"}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		t.Errorf("unexpected event for unmatched file: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherClosesOnCancel(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, []string{"legacy.csv"}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := w.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected channel close, got event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel did not close on cancel")
	}
}
