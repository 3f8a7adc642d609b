package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docpass/internal/convert"
	"github.com/dgallion1/docpass/internal/imagehost"
	"github.com/dgallion1/docpass/internal/parser"
)

// Worker processes a single conversion job.
type Worker struct {
	resolver  convert.Resolver
	log       *slog.Logger
	parseOpts parser.Options
}

// NewWorker returns a worker. A nil resolver skips the resolving phase.
func NewWorker(resolver convert.Resolver, log *slog.Logger, parseOpts parser.Options) *Worker {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Worker{
		resolver:  resolver,
		log:       log,
		parseOpts: parseOpts,
	}
}

// Process runs parse, rewrite, resolve and render for a job. Passes run one
// after another on the job's own tree.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFileWith(job.Filename, w.parseOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	c, err := convert.NewWith(p, job.FileData(), job.Filename, log)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	found := c.ImageURLs()
	replaced := c.ReplaceImageURLs(job.Mapping)
	log.Info("parsed document", "images", len(found), "mapped", replaced)

	// Phase 2: Resolve local images through the image host.
	status := StatusCompleted
	if w.resolver != nil {
		job.SetStatus(StatusResolving, "resolving")
		n, err := c.Resolve(ctx, w.resolver)
		if err != nil {
			log.Error("resolve failed", "error", err)
			job.AddError(err.Error())
			job.SetStatus(StatusFailed, "resolving")
			return
		}
		replaced += n

		for _, uri := range c.ImageURLs() {
			if !imagehost.IsRemote(uri) {
				job.AddError(fmt.Sprintf("unresolved image: %s", uri))
				status = StatusPartial
			}
		}
	}
	job.SetImages(len(found), replaced)

	// Phase 3: Render
	job.SetStatus(StatusRendering, "rendering")
	res := &Result{
		Title:       c.Page().Title,
		Images:      c.ImageURLs(),
		Description: c.Description(),
		Markdown:    c.Generate(),
	}
	job.Finish(status, res)

	log.Info("conversion complete",
		"status", status,
		"images", len(found),
		"replaced", replaced,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
