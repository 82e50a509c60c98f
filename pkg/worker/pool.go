// Package worker provides an asynchronous worker pool that persists processed
// conversation turns and overflow closures to the provided storage.Driver and
// publishes the matching events.
//
// Jobs are routed to a worker by conversation id, so the turns of one
// conversation are stored one at a time and in the order they were queued.
//
// The pool decouples storage operations from the chat hot path so replies are
// returned as soon as they are composed.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/papercomputeco/companion/pkg/companion"
	"github.com/papercomputeco/companion/pkg/eventstream"
	"github.com/papercomputeco/companion/pkg/logger"
	"github.com/papercomputeco/companion/pkg/metrics"
	"github.com/papercomputeco/companion/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

const (
	KindTurn     = "turn"
	KindOverflow = "overflow"

	// ResponseTemplate names the reply strategy recorded with feedback.
	ResponseTemplate = "enhanced_conversational"

	// engagementScale maps user message length to an engagement score.
	engagementScale = 100.0
)

// Job is a unit of work for the worker pool to execute against. A job whose
// Result carries an Overflow closes the conversation; any other job persists
// a turn.
type Job struct {
	UserID         string
	ConversationID string

	// Message is the user's message text.
	Message string
	Result  *companion.Result

	// UserMessageID and ReplyMessageID are assigned by NewTurnJob so callers
	// can return them before the job runs.
	UserMessageID  string
	ReplyMessageID string
}

// NewTurnJob builds a turn job with fresh message ids.
func NewTurnJob(userID, conversationID, message string, res *companion.Result) Job {
	return Job{
		UserID:         userID,
		ConversationID: conversationID,
		Message:        message,
		Result:         res,
		UserMessageID:  uuid.NewString(),
		ReplyMessageID: uuid.NewString(),
	}
}

// NewOverflowJob builds a job that closes an overflowed conversation.
func NewOverflowJob(userID, conversationID string, res *companion.Result) Job {
	return Job{UserID: userID, ConversationID: conversationID, Result: res}
}

// Kind reports whether the job is a turn or an overflow closure.
func (j Job) Kind() string {
	if j.Result != nil && j.Result.Overflow != nil {
		return KindOverflow
	}
	return KindTurn
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting records.
	Driver storage.Driver

	// Publisher receives an event for each persisted job. Optional.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the total capacity of the buffered job channels (defaults
	// to 256), split evenly across workers.
	QueueSize uint

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Pool processes storage jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queues []chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, fmt.Errorf("worker pool requires a storage driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	perWorker := max(c.QueueSize/c.NumWorkers, 1)
	wp := &Pool{
		config: c,
		queues: make([]chan Job, c.NumWorkers),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		wp.queues[i] = make(chan Job, perWorker)
		go wp.worker(i, wp.queues[i])
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queueFor(job.ConversationID) <- job:
		p.logger.Debug("job queued",
			"kind", job.Kind(),
			"conversation_id", job.ConversationID,
		)
		return true
	default:
		p.config.Metrics.ObserveJob(job.Kind(), "dropped")
		p.logger.Error("job not queued, queue full, job dropped",
			"kind", job.Kind(),
			"conversation_id", job.ConversationID,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	for _, q := range p.queues {
		close(q)
	}
	p.wg.Wait()
}

// queueFor returns the queue owned by the worker assigned to a conversation.
func (p *Pool) queueFor(conversationID string) chan Job {
	return p.queues[xxhash.Sum64String(conversationID)%uint64(len(p.queues))]
}

// worker is the inner worker thread that continuously pulls jobs off its queue
func (p *Pool) worker(id uint, queue <-chan Job) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range queue {
		p.processJob(job)
	}

	p.logger.Debug("storage worker stopped", "worker_id", id)
}

func (p *Pool) processJob(job Job) {
	kind := job.Kind()
	if err := p.Process(context.Background(), job); err != nil {
		p.config.Metrics.ObserveJob(kind, "error")
		p.logger.Error("async storage failed",
			"kind", kind,
			"conversation_id", job.ConversationID,
			"error", err,
		)
		return
	}
	p.config.Metrics.ObserveJob(kind, "ok")
}

// Process runs job synchronously.
func (p *Pool) Process(ctx context.Context, job Job) error {
	if job.Result == nil {
		return fmt.Errorf("job for conversation %s has no result", job.ConversationID)
	}

	var (
		event *eventstream.Event
		err   error
	)
	if job.Kind() == KindOverflow {
		event, err = p.closeConversation(ctx, job)
	} else {
		event, err = p.storeTurn(ctx, job)
	}
	if err != nil {
		return err
	}

	if p.config.Publisher == nil {
		return nil
	}
	if err := p.config.Publisher.Publish(ctx, event); err != nil {
		// The records are stored; a lost event is logged, not retried.
		p.logger.Warn("failed to publish event",
			"event_type", event.EventType,
			"conversation_id", job.ConversationID,
			"error", err,
		)
	}
	return nil
}

// storeTurn persists both messages, learned facts, conversation metadata,
// themes and response feedback for one turn.
func (p *Pool) storeTurn(ctx context.Context, job Job) (*eventstream.Event, error) {
	res := job.Result
	driver := p.config.Driver
	now := storage.Now()

	if job.UserMessageID == "" {
		job.UserMessageID = uuid.NewString()
	}
	if job.ReplyMessageID == "" {
		job.ReplyMessageID = uuid.NewString()
	}

	userMsg := &storage.Message{
		ID:             job.UserMessageID,
		ConversationID: job.ConversationID,
		Content:        job.Message,
		IsUser:         true,
		Emotions:       res.Emotions,
		Topics:         res.Topics,
		Sentiment:      res.Sentiment,
		Intent:         string(res.Intent),
		Timestamp:      now,
	}
	if err := driver.AddMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("storing user message: %w", err)
	}

	reply := &storage.Message{
		ID:             job.ReplyMessageID,
		ConversationID: job.ConversationID,
		Content:        res.Response,
		Topics:         res.Topics,
		Intent:         "response",
		Timestamp:      now.Add(time.Microsecond),
	}
	if err := driver.AddMessage(ctx, reply); err != nil {
		return nil, fmt.Errorf("storing reply message: %w", err)
	}

	learned := 0
	for _, c := range res.Facts {
		created, err := driver.UpsertFact(ctx, job.UserID, job.ConversationID, c)
		if err != nil {
			return nil, fmt.Errorf("storing fact %s: %w", c.Key, err)
		}
		if created {
			learned++
		}
	}

	update := storage.ConversationUpdate{LastMessageAt: &now}
	if len(res.Emotions) > 0 {
		dominant := string(res.Emotions[0].Emotion)
		update.DominantEmotion = &dominant
	}
	if err := driver.UpdateConversation(ctx, job.ConversationID, update); err != nil {
		return nil, fmt.Errorf("updating conversation: %w", err)
	}

	for _, topic := range res.Topics {
		if err := driver.UpsertTheme(ctx, job.ConversationID, topic); err != nil {
			return nil, fmt.Errorf("storing theme %s: %w", topic, err)
		}
	}

	err := driver.AddFeedback(ctx, &storage.Feedback{
		MessageID:             reply.ID,
		ResponseType:          string(res.Intent),
		ResponseTemplate:      ResponseTemplate,
		EngagementScore:       float64(len(job.Message)) / engagementScale,
		ConversationContinued: true,
	})
	if err != nil {
		return nil, fmt.Errorf("storing feedback: %w", err)
	}

	p.logger.Info("turn stored",
		"conversation_id", job.ConversationID,
		"intent", res.Intent,
		"facts_learned", learned,
	)

	return eventstream.NewTurnEvent(job.ConversationID, job.UserID, eventstream.TurnMeta{
		UserMessageID:      userMsg.ID,
		AssistantMessageID: reply.ID,
		Intent:             res.Intent,
		Emotions:           res.Emotions,
		Topics:             res.Topics,
		Sentiment:          res.Sentiment,
		FactsLearned:       learned,
		MessageCount:       res.MemoryStatus.MessageCount,
	}), nil
}

// closeConversation deactivates an overflowed conversation and records its
// summary.
func (p *Pool) closeConversation(ctx context.Context, job Job) (*eventstream.Event, error) {
	overflow := job.Result.Overflow
	summary := overflow.Summary
	text := summary.Text()
	inactive := false

	err := p.config.Driver.UpdateConversation(ctx, job.ConversationID, storage.ConversationUpdate{
		Summary: &text,
		Active:  &inactive,
	})
	if err != nil {
		return nil, fmt.Errorf("closing conversation: %w", err)
	}

	journey := make([]string, 0, len(summary.RecentEmotions))
	for _, snap := range summary.RecentEmotions {
		if primary := snap.Primary(); primary != "" {
			journey = append(journey, string(primary))
		}
	}

	err = p.config.Driver.AddSummary(ctx, &storage.ConversationSummary{
		ConversationID:   job.ConversationID,
		Type:             storage.SummaryMemoryOverflow,
		KeyPoints:        summary.MainTopics,
		EmotionalJourney: journey,
		TopicsCovered:    summary.MainTopics,
		Revelations:      []string{},
	})
	if err != nil {
		return nil, fmt.Errorf("storing overflow summary: %w", err)
	}

	p.logger.Info("conversation closed on memory overflow",
		"conversation_id", job.ConversationID,
		"reason", overflow.Reason,
		"messages", summary.MessageCount,
	)

	return eventstream.NewOverflowEvent(job.ConversationID, job.UserID, eventstream.OverflowMeta{
		Reason:       string(overflow.Reason),
		MessageCount: summary.MessageCount,
		Topics:       summary.MainTopics,
		Summary:      text,
	}), nil
}
