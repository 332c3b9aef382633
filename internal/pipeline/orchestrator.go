package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/vsdgest/internal/config"
	"github.com/dgallion1/vsdgest/internal/pathstore"
	"github.com/dgallion1/vsdgest/internal/vsd"
)

// Orchestrator manages the document decode pipeline.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	cache *ResultCache
	stats *DecodeStats
	pub   *Publisher
	log   *slog.Logger
	cfg   config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. ps may be nil to disable
// publishing.
func NewOrchestrator(cfg config.Config, ps *pathstore.Client, log *slog.Logger) (*Orchestrator, error) {
	cache, err := NewResultCache(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}
	o := &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		cache: cache,
		stats: NewDecodeStats(cfg.StatsWindow),
		log:   log,
		cfg:   cfg,
	}
	if ps != nil {
		o.pub = NewPublisher(ps, log, cfg.MaxConcurrentPublish)
	}
	return o, nil
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	opts := vsd.Options{MaxDepth: o.cfg.MaxDepth}
	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(opts, o.cache, o.stats, o.pub, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the rolling decode statistics.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}

// CachedResults returns the number of trees held by the result cache.
func (o *Orchestrator) CachedResults() int {
	return o.cache.Len()
}
