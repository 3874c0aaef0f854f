package runcache

import (
	"path/filepath"
	"testing"
	"time"

	"archpanel/internal/domain"
	"archpanel/internal/infra"
)

func testPack(fingerprint string) *domain.GeometryReferencePack {
	return &domain.GeometryReferencePack{
		Fingerprint: fingerprint,
		Renders: map[domain.PanelType]domain.PackRender{
			domain.PanelHeroView: {Clay: []byte("clay"), Depth: []byte("depth")},
		},
		BuiltAt: time.Now(),
	}
}

func TestPutThenGetPack(t *testing.T) {
	c, err := New("", time.Hour, infra.DiscardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.PutPack(testPack("fp-a")); err != nil {
		t.Fatalf("PutPack: %v", err)
	}

	got, ok := c.Pack("fp-a")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got.Renders[domain.PanelHeroView].Clay) != "clay" {
		t.Fatal("render bytes lost in cache")
	}
	if _, ok := c.Pack("fp-other"); ok {
		t.Fatal("unexpected hit for unknown fingerprint")
	}
}

func TestSnapshotSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packs.msgpack")

	c, err := New(path, time.Hour, infra.DiscardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.PutPack(testPack("fp-a")); err != nil {
		t.Fatalf("PutPack: %v", err)
	}

	reopened, err := New(path, time.Hour, infra.DiscardLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := reopened.Pack("fp-a")
	if !ok {
		t.Fatal("expected snapshot to restore the pack")
	}
	if got.Fingerprint != "fp-a" {
		t.Fatalf("fingerprint = %q", got.Fingerprint)
	}
	if string(got.Renders[domain.PanelHeroView].Depth) != "depth" {
		t.Fatal("render layers lost across restart")
	}
}

func TestRestoreSkipsExpiredEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packs.msgpack")

	c, err := New(path, time.Hour, infra.DiscardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stale := testPack("fp-old")
	stale.BuiltAt = time.Now().Add(-2 * time.Hour)
	if err := c.PutPack(stale); err != nil {
		t.Fatalf("PutPack: %v", err)
	}

	reopened, err := New(path, time.Hour, infra.DiscardLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, ok := reopened.Pack("fp-old"); ok {
		t.Fatal("entries older than the TTL must not be restored")
	}
}

func TestStyleProfileRoundTripsThroughSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packs.msgpack")

	c, err := New(path, time.Hour, infra.DiscardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lock := "Modern Scandinavian architecture, red brick facade, gable roof, 2-storey single building"
	if err := c.PutStyleProfile("fp-a", lock); err != nil {
		t.Fatalf("PutStyleProfile: %v", err)
	}

	reopened, err := New(path, time.Hour, infra.DiscardLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := reopened.StyleProfile("fp-a")
	if !ok || got != lock {
		t.Fatalf("style profile = %q, %v", got, ok)
	}
	if _, ok := reopened.Pack("fp-a"); ok {
		t.Fatal("style entry must not masquerade as a pack")
	}
}

func TestInvalidateDropsEntry(t *testing.T) {
	c, err := New("", time.Hour, infra.DiscardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.PutPack(testPack("fp-a")); err != nil {
		t.Fatalf("PutPack: %v", err)
	}
	if err := c.Invalidate("fp-a"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := c.Pack("fp-a"); ok {
		t.Fatal("entry should be gone after invalidation")
	}
}
