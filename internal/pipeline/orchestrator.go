package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docpass/internal/config"
	"github.com/dgallion1/docpass/internal/convert"
	"github.com/dgallion1/docpass/internal/parser"
)

// Orchestrator manages the document conversion pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	resolver convert.Resolver
	log      *slog.Logger
	cfg      config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. A nil resolver disables image upload.
func NewOrchestrator(cfg config.Config, resolver convert.Resolver, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		resolver: resolver,
		log:      log,
		cfg:      cfg,
	}
}

// Start launches the worker pool and the job janitor. Both stop when ctx is
// cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)

	opts := parser.Options{
		MarkdownExtensions:   o.cfg.MarkdownExtensions,
		PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext,
	}
	o.wg.Add(o.cfg.WorkerCount + 1)
	for i := range o.cfg.WorkerCount {
		w := NewWorker(o.resolver, o.log.With("worker", i), opts)
		go o.drain(ctx, w)
	}
	go o.janitor(ctx)
}

func (o *Orchestrator) drain(ctx context.Context, w *Worker) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-o.queue:
			if !ok {
				return
			}
			w.Process(ctx, job)
		}
	}
}

// janitor drops expired jobs. It sweeps at half the TTL, capped at five minutes.
func (o *Orchestrator) janitor(ctx context.Context) {
	defer o.wg.Done()
	every := min(o.cfg.JobTTL/2, 5*time.Minute)
	if every <= 0 {
		every = 5 * time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := o.jobs.Cleanup(); n > 0 {
				o.log.Debug("expired jobs removed", "count", n)
			}
		}
	}
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
