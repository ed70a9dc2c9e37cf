package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"taskmanager/internal/platform/metrics"
	"taskmanager/pkg/email"
	"taskmanager/pkg/requestcontext"
)

const (
	defaultWorkers     = 2
	defaultBuffer      = 64
	defaultSendTimeout = 10 * time.Second

	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeDropped = "dropped"
)

// Dispatcher queues messages and delivers them on worker goroutines. The
// Notify methods never block and never report delivery failures.
type Dispatcher struct {
	sender      Sender
	logger      *slog.Logger
	metrics     *metrics.Metrics
	workers     int
	sendTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	wg     sync.WaitGroup
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithBuffer sets the queue capacity. Messages beyond it are dropped.
func WithBuffer(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan Message, n)
		}
	}
}

func WithSendTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.sendTimeout = timeout
		}
	}
}

// NewDispatcher starts the workers immediately.
func NewDispatcher(sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:      sender,
		logger:      slog.Default(),
		workers:     defaultWorkers,
		sendTimeout: defaultSendTimeout,
		queue:       make(chan Message, defaultBuffer),
	}
	for _, opt := range opts {
		opt(d)
	}
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

func (d *Dispatcher) NotifyWelcome(ctx context.Context, address, name string) {
	d.enqueue(ctx, Welcome(address, name))
}

func (d *Dispatcher) NotifyCancellation(ctx context.Context, address, name string) {
	d.enqueue(ctx, Cancellation(address, name))
}

func (d *Dispatcher) enqueue(ctx context.Context, msg Message) {
	msg.RequestID = requestcontext.RequestID(ctx)

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(ctx, msg, "dispatcher closed")
		return
	}
	select {
	case d.queue <- msg:
	default:
		d.drop(ctx, msg, "queue full")
	}
}

func (d *Dispatcher) drop(ctx context.Context, msg Message, reason string) {
	d.metrics.IncrementNotification(string(msg.Kind), outcomeDropped)
	d.logger.WarnContext(ctx, "notification dropped",
		"kind", string(msg.Kind),
		"to", email.Mask(msg.To),
		"reason", reason,
		"request_id", msg.RequestID,
	)
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.sender.Send(ctx, msg); err != nil {
		d.metrics.IncrementNotification(string(msg.Kind), outcomeFailed)
		d.logger.ErrorContext(ctx, "notification failed",
			"kind", string(msg.Kind),
			"to", email.Mask(msg.To),
			"error", err,
			"request_id", msg.RequestID,
		)
		return
	}
	d.metrics.IncrementNotification(string(msg.Kind), outcomeSent)
}

// Close stops accepting messages and waits for queued ones to be delivered
// or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
