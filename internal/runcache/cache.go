// Package runcache memoizes per-design artifacts across runs. The synthesis
// backend is stateless, so any reuse between runs of the same design has to
// live on this side: geometry packs are keyed by design fingerprint and
// survive worker restarts through an on-disk snapshot.
package runcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/vmihailenco/msgpack/v5"

	"archpanel/internal/domain"
	"archpanel/internal/infra"
)

const cleanupInterval = 10 * time.Minute

// stylePrefix separates style-profile keys from pack keys in the shared
// memory store.
const stylePrefix = "style:"

// Cache is a fingerprint-keyed store for geometry reference packs. Entries
// expire after the configured TTL; a design revision always produces a new
// fingerprint, so stale entries only cost disk, never correctness.
type Cache struct {
	mu           sync.Mutex
	mem          *gocache.Cache
	snapshotPath string
	ttl          time.Duration
	logger       infra.Logger
}

type snapshot struct {
	Packs   map[string]domain.GeometryReferencePack `msgpack:"packs"`
	Styles  map[string]string                       `msgpack:"styles"`
	SavedAt time.Time                               `msgpack:"saved_at"`
}

// New builds a cache with the given TTL, restoring any snapshot found at
// snapshotPath. An empty path disables persistence.
func New(snapshotPath string, ttl time.Duration, logger infra.Logger) (*Cache, error) {
	c := &Cache{
		mem:          gocache.New(ttl, cleanupInterval),
		snapshotPath: snapshotPath,
		ttl:          ttl,
		logger:       logger,
	}
	if snapshotPath == "" {
		return c, nil
	}
	if err := c.restore(); err != nil {
		return nil, err
	}
	return c, nil
}

// Pack returns the cached geometry pack for the fingerprint, if present.
func (c *Cache) Pack(fingerprint string) (*domain.GeometryReferencePack, bool) {
	v, ok := c.mem.Get(fingerprint)
	if !ok {
		return nil, false
	}
	pack, ok := v.(domain.GeometryReferencePack)
	if !ok {
		return nil, false
	}
	return &pack, true
}

// PutPack stores the pack under its fingerprint and refreshes the snapshot.
func (c *Cache) PutPack(pack *domain.GeometryReferencePack) error {
	if pack == nil || pack.Fingerprint == "" {
		return errors.New("runcache: pack with fingerprint required")
	}
	c.mem.Set(pack.Fingerprint, *pack, gocache.DefaultExpiration)
	return c.persist()
}

// StyleProfile returns the cached style lock for the fingerprint.
func (c *Cache) StyleProfile(fingerprint string) (string, bool) {
	v, ok := c.mem.Get(stylePrefix + fingerprint)
	if !ok {
		return "", false
	}
	lock, ok := v.(string)
	return lock, ok
}

// PutStyleProfile stores the design's style lock so operators can audit
// which profile grounded a past run even after its results are gone.
func (c *Cache) PutStyleProfile(fingerprint, lock string) error {
	if fingerprint == "" {
		return errors.New("runcache: fingerprint required")
	}
	c.mem.Set(stylePrefix+fingerprint, lock, gocache.DefaultExpiration)
	return c.persist()
}

// Invalidate drops every entry for one fingerprint.
func (c *Cache) Invalidate(fingerprint string) error {
	c.mem.Delete(fingerprint)
	c.mem.Delete(stylePrefix + fingerprint)
	return c.persist()
}

func (c *Cache) persist() error {
	if c.snapshotPath == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := snapshot{
		Packs:   make(map[string]domain.GeometryReferencePack),
		Styles:  make(map[string]string),
		SavedAt: time.Now(),
	}
	for key, item := range c.mem.Items() {
		switch v := item.Object.(type) {
		case domain.GeometryReferencePack:
			snap.Packs[key] = v
		case string:
			snap.Styles[strings.TrimPrefix(key, stylePrefix)] = v
		}
	}
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("runcache: encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.snapshotPath), 0o755); err != nil {
		return fmt.Errorf("runcache: ensure snapshot dir: %w", err)
	}
	// Write-then-rename keeps a crash from truncating the live snapshot.
	tmp := c.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("runcache: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, c.snapshotPath); err != nil {
		return fmt.Errorf("runcache: replace snapshot: %w", err)
	}
	return nil
}

func (c *Cache) restore() error {
	data, err := os.ReadFile(c.snapshotPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("runcache: read snapshot: %w", err)
	}
	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		// A corrupt snapshot is re-derivable state; rebuild instead of failing.
		c.logger.Warn().Err(err).Str("path", c.snapshotPath).Msg("runcache: discarding unreadable snapshot")
		return nil
	}
	for key, pack := range snap.Packs {
		age := time.Since(pack.BuiltAt)
		if c.ttl > 0 && age >= c.ttl {
			continue
		}
		remaining := gocache.DefaultExpiration
		if c.ttl > 0 {
			remaining = c.ttl - age
		}
		c.mem.Set(key, pack, remaining)
	}
	for fingerprint, lock := range snap.Styles {
		c.mem.Set(stylePrefix+fingerprint, lock, gocache.DefaultExpiration)
	}
	return nil
}
