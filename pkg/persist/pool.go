// Package persist provides an asynchronous worker pool for the best-effort side
// calls made after a stream completes: saving the message pair, renaming the
// conversation after its first exchange and appending to the local journal.
//
// The pool decouples these calls from the chat loop so a slow or failing backend
// never delays the next message. Failures are logged and dropped.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/playground/pkg/chatbot"
	"github.com/papercomputeco/playground/pkg/journal"
	"github.com/papercomputeco/playground/pkg/logger"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
	defaultJobTimeout        = 30 * time.Second
)

// Backend is the subset of the chatbot client the pool calls.
type Backend interface {
	SaveMessages(ctx context.Context, conversationID string, req chatbot.SaveMessagesRequest) error
	UpdateTitle(ctx context.Context, conversationID, title string) error
}

// Job is a unit of work for the worker pool.
type Job interface {
	// Kind names the job in logs.
	Kind() string

	run(ctx context.Context, c *Config) error
}

// SaveMessagesJob stores a completed user/assistant pair in a conversation.
type SaveMessagesJob struct {
	ConversationID string
	Request        chatbot.SaveMessagesRequest
}

func (SaveMessagesJob) Kind() string { return "save_messages" }

func (j SaveMessagesJob) run(ctx context.Context, c *Config) error {
	if c.Backend == nil {
		return nil
	}
	return c.Backend.SaveMessages(ctx, j.ConversationID, j.Request)
}

// UpdateTitleJob renames a conversation.
type UpdateTitleJob struct {
	ConversationID string
	Title          string
}

func (UpdateTitleJob) Kind() string { return "update_title" }

func (j UpdateTitleJob) run(ctx context.Context, c *Config) error {
	if c.Backend == nil {
		return nil
	}
	return c.Backend.UpdateTitle(ctx, j.ConversationID, j.Title)
}

// JournalJob appends an entry to the local journal.
type JournalJob struct {
	Entry journal.Entry
}

func (JournalJob) Kind() string { return "journal" }

func (j JournalJob) run(ctx context.Context, c *Config) error {
	if c.Journal == nil {
		return nil
	}
	e := j.Entry
	return c.Journal.Append(ctx, &e)
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Backend receives save and title jobs. Those jobs are skipped when nil.
	Backend Backend

	// Journal receives journal jobs. Those jobs are skipped when nil.
	Journal journal.Driver

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// JobTimeout bounds each job (defaults to 30s).
	JobTimeout time.Duration

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Pool processes side-call jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	closeOnce sync.Once
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger.With("component", "persist"),
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "kind", job.Kind())
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped", "kind", job.Kind())
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Enqueue must not be called after Close.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("persist worker stopped", "worker_id", id)
}

func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	if err := job.run(ctx, p.config); err != nil {
		p.logger.Error("side call failed",
			"kind", job.Kind(),
			"error", err,
		)
		return
	}

	p.logger.Debug("side call done", "kind", job.Kind())
}
