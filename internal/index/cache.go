// Package index maintains the sorted account index the pager serves pages
// from. The index is a cached, wholesale-replaced snapshot: a rebuild scans
// the ledger for matching accounts, orders them by the raw bytes of the name
// field, and swaps the previous snapshot out atomically. A failed rebuild
// leaves the previous snapshot untouched.
package index

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"guestdex/internal/codec"
	"guestdex/internal/ledger"
	"guestdex/internal/metrics"
)

// nameFilterOffset anchors the server-side filter immediately after the name
// field's 4-byte length prefix, so the filter bytes match against the start
// of the encoded name. This is a fixed-offset prefix match, not name
// equality; see BytesFilter.
const nameFilterOffset = 4

// Cache owns the current account index. Safe for concurrent use; concurrent
// rebuilds for the same filter are coalesced into one ledger scan.
type Cache struct {
	client     ledger.Client
	maxNameLen int
	log        *zap.Logger
	metrics    *metrics.Metrics

	flight singleflight.Group

	mu     sync.RWMutex
	ids    []ledger.AccountID
	filter string
	built  bool
}

// Config carries the cache's construction parameters.
type Config struct {
	// MaxNameLen is the longest name, in bytes, the sort-key slice must
	// cover. Names longer than this sort by their first MaxNameLen bytes.
	MaxNameLen int
}

// New creates an empty cache over client. The index is not built until the
// first Rebuild.
func New(client ledger.Client, cfg Config, log *zap.Logger, m *metrics.Metrics) *Cache {
	if m == nil {
		m = metrics.NewNop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		client:     client,
		maxNameLen: cfg.MaxNameLen,
		log:        log.Named("index"),
		metrics:    m,
	}
}

// Stale reports whether a rebuild is required before serving pages for
// filter.
func (c *Cache) Stale(filter string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.built || c.filter != filter
}

// Len returns the number of identifiers in the current index.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}

// Filter returns the filter string the current index was built with.
func (c *Cache) Filter() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// Snapshot returns a copy of the full identifier sequence, for callers that
// need to compare index states.
func (c *Cache) Snapshot() []ledger.AccountID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ledger.AccountID, len(c.ids))
	copy(out, c.ids)
	return out
}

// Rebuild scans the ledger for accounts owned by owner matching filter and
// replaces the index. Concurrent callers rebuilding for the same filter
// share one in-flight scan and its result. On error the previous index is
// left exactly as it was.
func (c *Cache) Rebuild(ctx context.Context, owner ledger.AccountID, filter string) error {
	// The scan is shared by every coalesced caller, so it must not die with
	// the first caller's request context. The ledger client bounds the scan
	// with its own timeout.
	scanCtx := context.WithoutCancel(ctx)
	_, err, shared := c.flight.Do(filter, func() (any, error) {
		return nil, c.rebuild(scanCtx, owner, filter)
	})
	if shared {
		c.metrics.IndexRebuildsTotal.WithLabelValues("shared").Inc()
	}
	return err
}

type sortEntry struct {
	id  ledger.AccountID
	key []byte
}

func (c *Cache) rebuild(ctx context.Context, owner ledger.AccountID, filter string) error {
	started := time.Now()

	var byteFilter *ledger.BytesFilter
	if filter != "" {
		byteFilter = &ledger.BytesFilter{Offset: nameFilterOffset, Bytes: []byte(filter)}
	}
	slice := &ledger.SliceSpec{Offset: 0, Length: nameFilterOffset + c.maxNameLen}

	scanned, err := c.client.ScanOwned(ctx, owner, byteFilter, slice)
	if err != nil {
		c.metrics.IndexRebuildsTotal.WithLabelValues("error").Inc()
		c.metrics.LedgerErrorsTotal.WithLabelValues("scan_owned").Inc()
		c.log.Warn("rebuild scan failed", zap.String("filter", filter), zap.Error(err))
		return err
	}

	entries := make([]sortEntry, 0, len(scanned))
	for _, ks := range scanned {
		// NamePrefix tolerates names the slice cuts short, so a name
		// longer than MaxNameLen still sorts by the bytes the slice
		// covers. Only a slice too short for the length prefix fails.
		key, err := codec.NamePrefix(ks.Data)
		if err != nil {
			// The account matched the scan but its slice does not
			// hold a readable name. Keep it with an empty sort key;
			// the decode stage decides whether it is served.
			c.log.Debug("unreadable sort key",
				zap.String("account", ks.ID.String()), zap.Error(err))
			key = nil
		}
		entries = append(entries, sortEntry{id: ks.ID, key: key})
	}

	// Raw byte order on the name, shorter key first on a shared prefix.
	// Ties on identical names break on the identifier so rebuilds over the
	// same ledger state order identically.
	sort.Slice(entries, func(i, j int) bool {
		if cmp := bytes.Compare(entries[i].key, entries[j].key); cmp != 0 {
			return cmp < 0
		}
		return bytes.Compare(entries[i].id[:], entries[j].id[:]) < 0
	})

	ids := make([]ledger.AccountID, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}

	c.mu.Lock()
	c.ids = ids
	c.filter = filter
	c.built = true
	c.mu.Unlock()

	c.metrics.IndexRebuildsTotal.WithLabelValues("ok").Inc()
	c.metrics.IndexSize.Set(float64(len(ids)))
	c.metrics.IndexRebuildSeconds.Observe(time.Since(started).Seconds())
	c.log.Info("index rebuilt",
		zap.String("filter", filter),
		zap.Int("accounts", len(ids)),
		zap.Duration("took", time.Since(started)))
	return nil
}

// Page returns the identifiers for the 1-based page of the given size, as a
// half-open slice of the index clipped to its length. Out-of-range pages and
// non-positive arguments yield an empty result, never an error.
func (c *Cache) Page(page, size int) []ledger.AccountID {
	if page < 1 || size < 1 {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	start := (page - 1) * size
	if start >= len(c.ids) {
		return nil
	}
	end := start + size
	if end > len(c.ids) {
		end = len(c.ids)
	}

	out := make([]ledger.AccountID, end-start)
	copy(out, c.ids[start:end])
	return out
}
