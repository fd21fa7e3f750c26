// Command aircheck turns a long radio-capture audio file into an ordered list
// of track search queries ("Title - Artist" lines), one per detected track,
// ready to feed into a playlist-creation step.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/satindergrewal/aircheck/internal/acoustid"
	"github.com/satindergrewal/aircheck/internal/config"
	"github.com/satindergrewal/aircheck/internal/pipeline"
	"github.com/satindergrewal/aircheck/internal/resolver"
)

func main() {
	log.SetFlags(0)
	cfg := config.Load()

	output := flag.String("output", "queries.txt", "output queries file (one per line)")
	apiKey := flag.String("acoustid-key", "", "AcoustID API key (defaults to ACOUSTID_API_KEY env)")
	minSilence := flag.Int("min-silence-ms", int(cfg.MinSilenceMS), "minimum silence length (ms) to split tracks")
	thresh := flag.Float64("silence-thresh-db", cfg.SilenceThreshDB, "silence threshold in dBFS (negative)")
	keep := flag.Int("keep-silence-ms", int(cfg.KeepSilenceMS), "silence kept at segment edges (ms)")
	workers := flag.Int("workers", cfg.Workers, "concurrent segment resolutions")
	noProgress := flag.Bool("no-progress", false, "disable the progress bar")
	flag.Parse()

	input := flag.Arg(0)
	if input == "" {
		log.Fatal("usage: aircheck [flags] <capture.(mp3|m4a|wav|opus|...)>")
	}

	if *apiKey != "" {
		cfg.APIKey = *apiKey
	}
	cfg.MinSilenceMS = int64(*minSilence)
	cfg.SilenceThreshDB = *thresh
	cfg.KeepSilenceMS = int64(*keep)
	cfg.Workers = *workers

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lookup, closeCache := buildLookup(cfg)
	if closeCache != nil {
		defer closeCache()
	}
	if lookup == nil {
		log.Println("no AcoustID key configured; fingerprint lookup disabled")
	}

	res := resolver.New(lookup, cfg.TagsAllSegments, cfg.LookupTimeout)
	p := pipeline.New(cfg, res)
	p.SetProgress(!*noProgress)

	queries, err := p.Run(ctx, input, *output)
	if err != nil {
		log.Fatalf("aircheck: %v", err)
	}

	for _, q := range queries {
		fmt.Println(q)
	}
}

// buildLookup assembles the recognition tier: nil when no credential is
// configured, otherwise the service client, wrapped in the on-disk cache if
// one is enabled. Returns a cache closer when a cache was opened.
func buildLookup(cfg config.Config) (resolver.LookupFunc, func() error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	client := acoustid.NewClient(cfg.APIURL, cfg.APIKey)
	lookup := acoustid.LookupFunc(client.Lookup)

	var closer func() error
	if cfg.CacheDir != "" {
		cache, err := acoustid.OpenCache(cfg.CacheDir)
		if err != nil {
			log.Printf("lookup cache disabled: %v", err)
		} else {
			lookup = cache.Cached(lookup)
			closer = cache.Close
		}
	}

	fn := func(ctx context.Context, fp string, duration float64) (*resolver.Identity, error) {
		cand, err := lookup(ctx, fp, duration)
		if err != nil || cand == nil {
			return nil, err
		}
		return &resolver.Identity{Title: cand.Title, Artist: cand.Artist}, nil
	}
	return fn, closer
}
