package queue

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/postly/postly-api/internal/metrics"
)

const (
	defaultWorkers = 2
	channelBuffer  = 256
)

var ErrPoolStopped = errors.New("worker pool stopped")

type job struct {
	op   string
	run  func()
	done chan struct{}
}

// Pool runs CPU and memory heavy jobs on a fixed number of workers so that at
// most len(workers) of them execute at once, regardless of how many requests
// are waiting.
type Pool struct {
	jobs    chan job
	workers int
	stopped chan struct{}
	log     zerolog.Logger
}

// NewPool creates a Pool with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewPool(numWorkers int, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Pool{
		jobs:    make(chan job, channelBuffer),
		workers: numWorkers,
		stopped: make(chan struct{}),
		log:     log,
	}
}

// Start launches the workers and must be called once. Workers exit when ctx
// is cancelled, after which Do fails fast with ErrPoolStopped.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.runWorker(ctx, i)
	}
	go func() {
		<-ctx.Done()
		close(p.stopped)
	}()
	p.log.Info().Int("workers", p.workers).Msg("hash worker pool started")
}

// Do queues fn and blocks until a worker has run it or ctx is done. When ctx
// ends first, fn may still run later; its effects must be safe to discard.
func (p *Pool) Do(ctx context.Context, op string, fn func()) error {
	j := job{op: op, run: fn, done: make(chan struct{})}

	select {
	case p.jobs <- j:
		metrics.HashQueueDepth.Set(float64(len(p.jobs)))
	case <-p.stopped:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-j.done:
		return nil
	case <-p.stopped:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.jobs:
			metrics.HashQueueDepth.Set(float64(len(p.jobs)))
			start := time.Now()
			j.run()
			metrics.PasswordHashDuration.WithLabelValues(j.op).Observe(time.Since(start).Seconds())
			close(j.done)
			p.log.Trace().
				Str("op", j.op).
				Int("worker_id", id).
				Dur("elapsed", time.Since(start)).
				Msg("hash job done")
		}
	}
}
