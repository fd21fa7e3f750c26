// Package pipeline wires the batch run: load, segment, resolve each segment
// in time order, write the query list. One bad segment never aborts the
// batch; only an undecodable input or an unwritable sink is fatal.
package pipeline

import (
	"context"
	"log"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/satindergrewal/aircheck/internal/audio"
	"github.com/satindergrewal/aircheck/internal/config"
	"github.com/satindergrewal/aircheck/internal/resolver"
)

// Pipeline runs one capture through segmentation and identification.
type Pipeline struct {
	cfg      config.Config
	resolver *resolver.Resolver
	progress bool
}

// New creates a pipeline. Progress bars are off by default; the CLI turns
// them on for interactive runs.
func New(cfg config.Config, res *resolver.Resolver) *Pipeline {
	return &Pipeline{cfg: cfg, resolver: res}
}

// SetProgress toggles the terminal progress bar.
func (p *Pipeline) SetProgress(on bool) { p.progress = on }

// Run executes the full pass: decode inputPath, resolve every detected
// segment, write one query per line to outputPath. Returns the ordered query
// list. Decode and write failures are fatal; per-segment failures degrade to
// placeholders.
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath string) ([]string, error) {
	buf, err := audio.Load(inputPath, p.cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded %s (%.1f sec at %d Hz)", inputPath, buf.Duration.Seconds(), buf.SampleRate)

	resolutions, err := p.Process(ctx, buf, inputPath)
	if err != nil {
		return nil, err
	}

	queries := make([]string, len(resolutions))
	for i, r := range resolutions {
		queries[i] = r.Query
	}

	n, err := WriteQueries(outputPath, queries)
	if err != nil {
		return nil, err
	}
	log.Printf("wrote %d queries to %s", n, outputPath)
	return queries, nil
}

// Process segments the buffer and resolves every segment, preserving the
// segmenter's time order regardless of which tier answered or in what order
// workers finished. The only error it returns is context cancellation.
func (p *Pipeline) Process(ctx context.Context, buf *audio.Buffer, sourcePath string) ([]resolver.Resolution, error) {
	ranges := audio.DetectNonSilent(buf, p.cfg.MinSilenceMS, p.cfg.SilenceThreshDB, p.cfg.KeepSilenceMS)
	log.Printf("detected %d segment(s)", len(ranges))

	results := make([]resolver.Resolution, len(ranges))

	workers := p.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(ranges) {
		workers = len(ranges)
	}

	var bar *mpb.Bar
	var progress *mpb.Progress
	if p.progress {
		progress = mpb.New(mpb.WithWidth(64))
		bar = progress.AddBar(int64(len(ranges)),
			mpb.PrependDecorators(
				decor.Name("Resolving: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
	}

	// Bounded worker pool; results land at their segment index, never at
	// completion order.
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.resolveSegment(ctx, buf, ranges[i], i, sourcePath, len(ranges))
				if bar != nil {
					bar.Increment()
				}
			}
		}()
	}

	// Cancellation is honored between segments, not mid-segment, so every
	// launched segment still runs its cleanup.
feed:
	for i := range ranges {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if progress != nil {
		if ctx.Err() != nil {
			bar.Abort(true)
		}
		progress.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// resolveSegment exports one range, resolves it, and releases the exported
// material on every exit path. Any failure inside the segment degrades to the
// placeholder for that index only.
func (p *Pipeline) resolveSegment(ctx context.Context, buf *audio.Buffer, r audio.TimeRange, index int, sourcePath string, total int) (res resolver.Resolution) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("segment %d: recovered: %v", index, rec)
			res = resolver.Placeholder(index)
		}
	}()

	seg, err := audio.Export(buf, index, r)
	if err != nil {
		log.Printf("segment %d: export: %v", index, err)
		return resolver.Placeholder(index)
	}
	defer seg.Release()

	res = p.resolver.Resolve(ctx, seg.Path, sourcePath, index)
	log.Printf("segment %d/%d [%s]: %q (%s)", index+1, total, r, res.Query, res.Tier)
	return res
}
