package storage

import (
	"context"
	"errors"
	"testing"

	"archpanel/internal/domain"
)

func TestWriteThenReadRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	key := PanelKey("run-1", domain.PanelHeroView, "png")
	got, err := store.Write(context.Background(), key, []byte("panel-bytes"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got != key {
		t.Fatalf("canonical key = %q, want %q", got, key)
	}

	data, err := store.Read(context.Background(), key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "panel-bytes" {
		t.Fatalf("read back %q", data)
	}
}

func TestReadMissingKeyIsNotFound(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	_, err = store.Read(context.Background(), "runs/nope/hero_view.png")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	for _, key := range []string{"", "../escape.png", "runs/../../etc/passwd"} {
		if _, err := store.Write(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("key %q should be rejected", key)
		}
	}
}
