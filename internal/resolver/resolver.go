// Package resolver turns an exported segment into a track search query via a
// layered fallback: fingerprint lookup, then embedded tags, then a positional
// placeholder. Resolve is total: every partial failure is absorbed inside
// its own tier and the placeholder tier cannot fail.
package resolver

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/satindergrewal/aircheck/internal/fingerprint"
	"github.com/satindergrewal/aircheck/internal/tags"
)

// Identity is a resolved track identity. Artist may be empty.
type Identity struct {
	Title  string
	Artist string
}

// Query formats the identity as a catalog search query.
func (id Identity) Query() string {
	if id.Artist != "" {
		return id.Title + " - " + id.Artist
	}
	return id.Title
}

// Tier records which fallback produced a query.
type Tier int

const (
	TierFingerprint Tier = iota
	TierTags
	TierPlaceholder
)

func (t Tier) String() string {
	switch t {
	case TierFingerprint:
		return "fingerprint"
	case TierTags:
		return "tags"
	default:
		return "placeholder"
	}
}

// Resolution is the outcome for one segment.
type Resolution struct {
	Query string
	Tier  Tier
}

// Placeholder synthesizes the final-fallback resolution for a segment index.
func Placeholder(index int) Resolution {
	return Resolution{Query: fmt.Sprintf("Unknown Track %d", index+1), Tier: TierPlaceholder}
}

// LookupFunc sends a fingerprint to the recognition service. A nil result
// with nil error means the service had no usable match.
type LookupFunc func(ctx context.Context, fp string, durationSec float64) (*Identity, error)

// FingerprintFunc computes a fingerprint and duration from an exported
// segment file.
type FingerprintFunc func(path string) (fp string, durationSec float64, err error)

// TagFunc reads embedded title/artist metadata from the source file.
type TagFunc func(path string) (title, artist string, ok bool)

// Resolver resolves segments to queries. Lookup may be nil, in which case the
// fingerprint tier is skipped entirely without contacting anything.
type Resolver struct {
	lookup          LookupFunc
	fingerprintFn   FingerprintFunc
	readTags        TagFunc
	tagsAllSegments bool
	lookupTimeout   time.Duration
}

// New creates a Resolver. lookupTimeout bounds each recognition call; zero
// means no extra bound beyond the caller's context.
func New(lookup LookupFunc, tagsAllSegments bool, lookupTimeout time.Duration) *Resolver {
	return &Resolver{
		lookup:          lookup,
		fingerprintFn:   fingerprint.File,
		readTags:        tags.Read,
		tagsAllSegments: tagsAllSegments,
		lookupTimeout:   lookupTimeout,
	}
}

// SetFingerprintFunc overrides the fingerprint computation. For tests.
func (r *Resolver) SetFingerprintFunc(fn FingerprintFunc) { r.fingerprintFn = fn }

// SetTagFunc overrides the tag reader. For tests.
func (r *Resolver) SetTagFunc(fn TagFunc) { r.readTags = fn }

// Resolve maps one exported segment to a query. It never fails: fingerprint
// and tag errors fall through to the next tier, and the placeholder tier
// always terminates. segPath is the exported segment, sourcePath the original
// capture file the tags live in.
func (r *Resolver) Resolve(ctx context.Context, segPath, sourcePath string, index int) Resolution {
	if id := r.viaFingerprint(ctx, segPath, index); id != nil {
		return Resolution{Query: id.Query(), Tier: TierFingerprint}
	}

	// Embedded tags describe the whole source file; by default they are only
	// trusted for the first segment of a run.
	if r.tagsAllSegments || index == 0 {
		if id := r.viaTags(sourcePath); id != nil {
			return Resolution{Query: id.Query(), Tier: TierTags}
		}
	}

	return Placeholder(index)
}

// viaFingerprint runs tier 1. Every failure mode (missing credential,
// fingerprint error, service error, empty response, even a panic in the
// lookup path) yields nil rather than escaping.
func (r *Resolver) viaFingerprint(ctx context.Context, segPath string, index int) (id *Identity) {
	if r.lookup == nil {
		return nil // tier not configured; not an error
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("segment %d: lookup panic: %v", index, rec)
			id = nil
		}
	}()

	fp, duration, err := r.fingerprintFn(segPath)
	if err != nil {
		log.Printf("segment %d: fingerprint: %v", index, err)
		return nil
	}

	if r.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.lookupTimeout)
		defer cancel()
	}

	got, err := r.lookup(ctx, fp, duration)
	if err != nil {
		log.Printf("segment %d: lookup: %v", index, err)
		return nil
	}
	if got == nil || got.Title == "" {
		return nil
	}
	return got
}

func (r *Resolver) viaTags(sourcePath string) (id *Identity) {
	defer func() {
		if rec := recover(); rec != nil {
			id = nil
		}
	}()
	title, artist, ok := r.readTags(sourcePath)
	if !ok {
		return nil
	}
	return &Identity{Title: title, Artist: artist}
}
