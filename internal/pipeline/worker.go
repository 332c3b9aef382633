package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/vsdgest/internal/parser"
	"github.com/dgallion1/vsdgest/internal/vsd"
)

// Worker processes a single decode job.
type Worker struct {
	opts  vsd.Options
	cache *ResultCache
	stats *DecodeStats
	pub   *Publisher // nil when publishing is disabled
	log   *slog.Logger
}

func NewWorker(opts vsd.Options, cache *ResultCache, stats *DecodeStats, pub *Publisher, log *slog.Logger) *Worker {
	return &Worker{
		opts:  opts,
		cache: cache,
		stats: stats,
		pub:   pub,
		log:   log,
	}
}

// Process decodes a job's upload, or serves it from the cache, then
// publishes the result when a publisher is configured.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)

	// Phase 1: Decode
	job.SetStatus(StatusDecoding, "decoding")
	tree, cached := w.cache.Get(job.Filename, job.DocID)
	var elapsed time.Duration
	if cached {
		w.stats.RecordCacheHit()
		log.Info("decode served from cache")
	} else {
		opts := w.opts
		opts.Logger = log
		p, err := parser.ForFile(job.Filename, opts)
		if err != nil {
			log.Error("unsupported format", "error", err)
			job.AddError(err.Error())
			job.SetStatus(StatusFailed, "decoding")
			return
		}

		start := time.Now()
		tree, err = p.Parse(bytes.NewReader(job.FileData()), job.Filename)
		elapsed = time.Since(start)
		if err != nil {
			w.stats.RecordFailure()
			log.Error("decode failed", "error", err)
			job.AddError(fmt.Sprintf("decode: %s", err))
			job.SetStatus(StatusFailed, "decoding")
			return
		}
		w.stats.Record(elapsed.Milliseconds(), tree.Stats.Chunks)
		w.cache.Add(job.Filename, job.DocID, tree)
	}

	if job.Title != "" && job.Title != tree.Title {
		titled := *tree
		titled.Title = job.Title
		tree = &titled
	}
	job.SetResult(tree, cached, elapsed.Milliseconds())
	log.Info("decoded document",
		"pages", len(tree.Pages),
		"stencils", len(tree.Stencils),
		"chunks", tree.Stats.Chunks,
		"cyclic", tree.Stats.Cyclic,
		"duration_ms", elapsed.Milliseconds(),
	)

	if w.pub == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 2: Publish
	job.SetStatus(StatusPublishing, "publishing")
	n, err := w.pub.Publish(ctx, job.Snapshot(), tree)
	job.AddPublished(n)
	if err != nil {
		log.Error("publish failed", "published", n, "error", err)
		job.AddError(fmt.Sprintf("publish: %s", err))
		job.SetStatus(StatusPartial, "publishing")
		return
	}
	log.Info("published document", "nodes", n)
	job.SetStatus(StatusCompleted, "done")
}
