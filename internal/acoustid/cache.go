package acoustid

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"

	xxhash "github.com/OneOfOne/xxhash"
	badger "github.com/dgraph-io/badger/v4"
)

// LookupFunc is the shape of Client.Lookup, so a cache can wrap it.
type LookupFunc func(ctx context.Context, fp string, durationSec float64) (*Candidate, error)

// Cache is an on-disk store of lookup outcomes keyed by fingerprint, so
// re-running the same capture does not hit the service again. Misses and
// no-candidate outcomes are cached too (negative entries).
type Cache struct {
	db *badger.DB
}

// OpenCache opens (or creates) a lookup cache in dir.
func OpenCache(dir string) (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open lookup cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

type cacheEntry struct {
	Found  bool   `json:"found"`
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
}

// Get returns the cached candidate for a fingerprint, if any. A negative
// entry returns (nil, true). Cache errors read as a miss.
func (c *Cache) Get(fp string, durationSec float64) (*Candidate, bool) {
	var entry cacheEntry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(fp, durationSec))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, false
	}
	if !entry.Found {
		return nil, true
	}
	return &Candidate{Title: entry.Title, Artist: entry.Artist}, true
}

// Put records a lookup outcome. cand may be nil for a negative entry.
// Cache write errors are dropped; the cache is an optimization only.
func (c *Cache) Put(fp string, durationSec float64, cand *Candidate) {
	entry := cacheEntry{}
	if cand != nil {
		entry = cacheEntry{Found: true, Title: cand.Title, Artist: cand.Artist}
	}
	val, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(fp, durationSec), val)
	})
}

// Cached wraps a lookup with this cache. Hits, including negative entries,
// never reach the wrapped lookup. Successful outcomes are written back;
// lookup errors are not cached, so transient failures stay retryable.
func (c *Cache) Cached(next LookupFunc) LookupFunc {
	return func(ctx context.Context, fp string, durationSec float64) (*Candidate, error) {
		if cand, ok := c.Get(fp, durationSec); ok {
			return cand, nil
		}
		cand, err := next(ctx, fp, durationSec)
		if err != nil {
			return nil, err
		}
		c.Put(fp, durationSec, cand)
		return cand, nil
	}
}

func cacheKey(fp string, durationSec float64) []byte {
	h := xxhash.Checksum64([]byte(fp + "|" + strconv.Itoa(int(durationSec+0.5))))
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, h)
	return key
}
