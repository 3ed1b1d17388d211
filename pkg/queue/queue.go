// Package queue holds pending notifications and drives delivery attempts,
// re-enqueueing transient failures after a fixed delay.
package queue

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	log "github.com/OpenFero/alertrelay/pkg/logging"
	"github.com/OpenFero/alertrelay/pkg/metadata"
	"github.com/OpenFero/alertrelay/pkg/notify"
	"github.com/google/uuid"
	"github.com/raulk/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	defaultRetryDelay     = 60 * time.Second
	defaultMaxInFlight    = 4
	defaultAttemptTimeout = 10 * time.Second
	defaultMaxFailures    = 50
)

// Item is one pending notification. Items are not persisted.
type Item struct {
	ID          string         `json:"id"`
	Fingerprint string         `json:"fingerprint"`
	Message     notify.Message `json:"message"`
	Attempts    int            `json:"attempts"`
	NotBefore   time.Time      `json:"notBefore"`

	seq uint64
}

// Failure records a notification dropped after a permanent rejection
type Failure struct {
	Fingerprint string    `json:"fingerprint"`
	Event       string    `json:"event"`
	Error       string    `json:"error"`
	Attempts    int       `json:"attempts"`
	At          time.Time `json:"at"`
}

// Config holds retry queue settings
type Config struct {
	// RetryDelay is the fixed delay after a transient failure
	RetryDelay time.Duration
	// MaxInFlight bounds concurrent delivery attempts
	MaxInFlight int
	// AttemptTimeout bounds a single delivery attempt
	AttemptTimeout time.Duration
	// MinSpacing is the minimum time between two delivery attempts, zero disables
	MinSpacing time.Duration
	// MaxFailures is how many permanent failures are kept for operators
	MaxFailures int
	Clock       clock.Clock
	// OnDelivered is called after a successful delivery
	OnDelivered func(Item)
}

// Queue is a delay queue of notifications backed by a min-heap
type Queue struct {
	client      notify.Client
	clock       clock.Clock
	retryDelay  time.Duration
	timeout     time.Duration
	maxFailures int
	onDelivered func(Item)
	limiter     *rate.Limiter
	sem         *semaphore.Weighted

	mutex    sync.Mutex
	items    itemHeap
	seq      uint64
	failures []Failure

	wake chan struct{}
	wg   sync.WaitGroup
}

// New creates a queue delivering through client
func New(client notify.Client, cfg Config) *Queue {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = defaultMaxInFlight
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaultAttemptTimeout
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = defaultMaxFailures
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	q := &Queue{
		client:      client,
		clock:       cfg.Clock,
		retryDelay:  cfg.RetryDelay,
		timeout:     cfg.AttemptTimeout,
		maxFailures: cfg.MaxFailures,
		onDelivered: cfg.OnDelivered,
		sem:         semaphore.NewWeighted(int64(cfg.MaxInFlight)),
		wake:        make(chan struct{}, 1),
	}
	if cfg.MinSpacing > 0 {
		q.limiter = rate.NewLimiter(rate.Every(cfg.MinSpacing), 1)
	}
	return q
}

// Submit enqueues a notification for immediate delivery. It never blocks on
// delivery.
func (q *Queue) Submit(fingerprint string, msg notify.Message) Item {
	item := &Item{
		ID:          uuid.NewString(),
		Fingerprint: fingerprint,
		Message:     msg,
		NotBefore:   q.clock.Now(),
	}
	q.push(item)

	log.Debug("Queued notification",
		zap.String("id", item.ID),
		zap.String("fingerprint", fingerprint),
		zap.String("event", msg.Event))
	return *item
}

// Len returns the number of waiting items
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.items)
}

// Pending returns copies of the waiting items ordered by NotBefore
func (q *Queue) Pending() []Item {
	q.mutex.Lock()
	result := make([]Item, 0, len(q.items))
	for _, item := range q.items {
		result = append(result, *item)
	}
	q.mutex.Unlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].NotBefore.Equal(result[j].NotBefore) {
			return result[i].seq < result[j].seq
		}
		return result[i].NotBefore.Before(result[j].NotBefore)
	})
	return result
}

// Failures returns the most recent permanent failures, newest first
func (q *Queue) Failures() []Failure {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	result := make([]Failure, 0, len(q.failures))
	for i := len(q.failures) - 1; i >= 0; i-- {
		result = append(result, q.failures[i])
	}
	return result
}

// Run dispatches due items until ctx is cancelled. In-flight attempts are
// cancelled with ctx and abandoned.
func (q *Queue) Run(ctx context.Context) error {
	log.Info("Notification dispatcher started")
	defer log.Info("Notification dispatcher stopped")

	for {
		q.dispatchDue(ctx)

		var timerC <-chan time.Time
		var timer *clock.Timer
		if wait, ok := q.nextWait(); ok {
			timer = q.clock.Timer(wait)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			q.wg.Wait()
			return nil
		case <-q.wake:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// dispatchDue starts an attempt for every item whose NotBefore has passed,
// waiting for a free slot when MaxInFlight attempts are running
func (q *Queue) dispatchDue(ctx context.Context) {
	for {
		item := q.popDue()
		if item == nil {
			return
		}
		if err := q.sem.Acquire(ctx, 1); err != nil {
			q.push(item)
			return
		}
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			defer q.sem.Release(1)
			q.attempt(ctx, item)
		}()
	}
}

func (q *Queue) attempt(ctx context.Context, item *Item) {
	if q.limiter != nil {
		if err := q.limiter.Wait(ctx); err != nil {
			q.push(item)
			return
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, q.timeout)
	err := q.client.Send(attemptCtx, item.Message)
	cancel()
	item.Attempts++

	switch {
	case err == nil:
		metadata.DeliveryAttemptsTotal.WithLabelValues("success").Inc()
		log.Info("Delivered notification",
			zap.String("id", item.ID),
			zap.String("fingerprint", item.Fingerprint),
			zap.String("event", item.Message.Event),
			zap.Int("attempts", item.Attempts))
		if q.onDelivered != nil {
			q.onDelivered(*item)
		}

	case notify.IsPermanent(err):
		metadata.DeliveryAttemptsTotal.WithLabelValues("permanent").Inc()
		metadata.PermanentFailuresTotal.Inc()
		q.recordFailure(item, err)
		log.Named("config-alerts").Error("Notification rejected permanently, check provider credentials and payload",
			zap.String("id", item.ID),
			zap.String("fingerprint", item.Fingerprint),
			zap.String("event", item.Message.Event),
			zap.Error(err))

	case ctx.Err() != nil:
		log.Debug("Abandoning delivery attempt on shutdown", zap.String("id", item.ID))

	default:
		metadata.DeliveryAttemptsTotal.WithLabelValues("transient").Inc()
		item.NotBefore = q.clock.Now().Add(q.retryDelay)
		log.Warn("Failed to send notification, will retry",
			zap.String("id", item.ID),
			zap.String("fingerprint", item.Fingerprint),
			zap.Int("attempts", item.Attempts),
			zap.Duration("retryIn", q.retryDelay),
			zap.Error(err))
		q.push(item)
	}
}

func (q *Queue) push(item *Item) {
	q.mutex.Lock()
	q.seq++
	item.seq = q.seq
	heap.Push(&q.items, item)
	metadata.QueueDepth.Set(float64(len(q.items)))
	q.mutex.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) popDue() *Item {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if len(q.items) == 0 || q.items[0].NotBefore.After(q.clock.Now()) {
		return nil
	}
	item := heap.Pop(&q.items).(*Item)
	metadata.QueueDepth.Set(float64(len(q.items)))
	return item
}

func (q *Queue) nextWait() (time.Duration, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if len(q.items) == 0 {
		return 0, false
	}
	wait := q.items[0].NotBefore.Sub(q.clock.Now())
	if wait < 0 {
		wait = 0
	}
	return wait, true
}

func (q *Queue) recordFailure(item *Item, err error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.failures = append(q.failures, Failure{
		Fingerprint: item.Fingerprint,
		Event:       item.Message.Event,
		Error:       err.Error(),
		Attempts:    item.Attempts,
		At:          q.clock.Now(),
	})
	if len(q.failures) > q.maxFailures {
		q.failures = q.failures[len(q.failures)-q.maxFailures:]
	}
}
