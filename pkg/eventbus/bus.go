package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

var ErrClosed = errors.New("eventbus: bus is closed")

// Handler consumes one delivered payload. A nil return acknowledges the
// message; an error (or running past the handler timeout) negatively
// acknowledges it for redelivery.
type Handler func(ctx context.Context, payload []byte) error

// Options configures a Bus.
type Options struct {
	URL            string
	Exchange       string
	HandlerTimeout time.Duration // per-delivery bound; timeout counts as failure
	MaxRetries     int           // deliveries before a message is dead-lettered
	Logger         *logrus.Logger
}

type subscription struct {
	topic   string
	handler Handler
}

// Bus is a topic publish/subscribe client that owns its AMQP connection
// lifecycle. The exchange is non-durable and every subscription gets its own
// exclusive auto-delete queue, so each process instance receives its own
// copy of every matching event. Bindings are re-declared after reconnect.
type Bus struct {
	opts Options

	dial        func(url string) (*amqp.Connection, error)
	baseBackoff time.Duration

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	subs   []*subscription
	closed bool
}

func New(opts Options) *Bus {
	if opts.Exchange == "" {
		opts.Exchange = "social.events"
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	return &Bus{opts: opts, dial: amqp.Dial, baseBackoff: time.Second}
}

func (b *Bus) deadLetterQueue() string { return b.opts.Exchange + ".dlq" }

// Connect dials the broker, declares the exchange, and starts any pending
// subscriptions. Safe to call again after a connection loss.
func (b *Bus) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connectLocked(ctx)
}

func (b *Bus) connectLocked(ctx context.Context) error {
	if b.closed {
		return ErrClosed
	}
	if b.ch != nil {
		return nil
	}

	conn, err := b.dial(b.opts.URL)
	if err != nil {
		return fmt.Errorf("eventbus: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("eventbus: channel: %w", err)
	}
	if err := ch.ExchangeDeclare(b.opts.Exchange, "topic", false, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("eventbus: exchange declare: %w", err)
	}
	// Durable dead-letter destination for messages that exhaust retries.
	if _, err := ch.QueueDeclare(b.deadLetterQueue(), true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("eventbus: dlq declare: %w", err)
	}
	// Fair dispatch: one unacked delivery in flight per subscription.
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("eventbus: qos: %w", err)
	}

	b.conn, b.ch = conn, ch

	for _, s := range b.subs {
		if err := b.startConsumerLocked(s); err != nil {
			b.teardownLocked()
			return err
		}
	}

	closes := ch.NotifyClose(make(chan *amqp.Error, 1))
	go b.watch(closes)

	if b.opts.Logger != nil {
		b.opts.Logger.WithField("exchange", b.opts.Exchange).Info("event bus connected")
	}
	return nil
}

func (b *Bus) teardownLocked() {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
	b.conn, b.ch = nil, nil
}

// watch waits for an abnormal connection loss and reconnects.
func (b *Bus) watch(closes chan *amqp.Error) {
	amqpErr, ok := <-closes
	if !ok || amqpErr == nil {
		return // graceful Close
	}
	if b.opts.Logger != nil {
		b.opts.Logger.WithError(amqpErr).Warn("event bus connection lost, reconnecting")
	}

	b.mu.Lock()
	b.conn, b.ch = nil, nil
	b.mu.Unlock()

	b.Reconnect()
}

// Reconnect blocks until the bus is connected or closed, retrying with
// exponential backoff capped at 30s. A successful connect starts every
// pending subscription, so a subscriber-only service that could not reach
// the broker at startup comes up on its own once the broker does.
func (b *Bus) Reconnect() {
	backoff := b.baseBackoff
	for {
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return
		}
		err := b.connectLocked(context.Background())
		b.mu.Unlock()
		if err == nil {
			return
		}
		if b.opts.Logger != nil {
			b.opts.Logger.WithError(err).WithField("backoff", backoff).Warn("event bus connect failed")
		}
		time.Sleep(backoff)
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// Publish serializes payload as JSON and sends it once with the given
// routing key. Without a live connection it attempts to (re)connect first
// and returns an error when that fails; a publish is never silently dropped.
func (b *Bus) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("eventbus: marshal %s: %w", routingKey, err)
	}

	b.mu.Lock()
	if b.ch == nil {
		if err := b.connectLocked(ctx); err != nil {
			b.mu.Unlock()
			return fmt.Errorf("eventbus: publish %s: %w", routingKey, err)
		}
	}
	ch := b.ch
	b.mu.Unlock()

	return ch.PublishWithContext(ctx,
		b.opts.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   uuid.NewString(),
			Timestamp:   time.Now().UTC(),
			Body:        body,
		},
	)
}

// Subscribe binds handler to topic on an exclusive auto-delete queue. When
// the bus is not yet connected the subscription starts on the next Connect.
func (b *Bus) Subscribe(topic string, handler Handler) error {
	s := &subscription{topic: topic, handler: handler}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.subs = append(b.subs, s)
	if b.ch == nil {
		return nil
	}
	return b.startConsumerLocked(s)
}

func (b *Bus) startConsumerLocked(s *subscription) error {
	q, err := b.ch.QueueDeclare(
		"",    // broker-named
		false, // non-durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("eventbus: queue declare for %s: %w", s.topic, err)
	}
	if err := b.ch.QueueBind(q.Name, s.topic, b.opts.Exchange, false, nil); err != nil {
		return fmt.Errorf("eventbus: bind %s: %w", s.topic, err)
	}
	msgs, err := b.ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("eventbus: consume %s: %w", s.topic, err)
	}

	go func() {
		for d := range msgs {
			processDelivery(context.Background(), s.handler, &d, d.Body, s.topic,
				retriesFrom(d.Headers), b.opts.MaxRetries, b.opts.HandlerTimeout,
				b.republish, b.toDeadLetter, b.opts.Logger)
		}
	}()

	if b.opts.Logger != nil {
		b.opts.Logger.WithFields(logrus.Fields{"topic": s.topic, "queue": q.Name}).Info("subscribed")
	}
	return nil
}

// republish sends a failed delivery back through the exchange with its
// retry count incremented, instead of a broker requeue. A broker requeue
// redelivers immediately and loses the attempt count.
func (b *Bus) republish(ctx context.Context, topic string, retries int64, body []byte) error {
	b.mu.Lock()
	ch := b.ch
	b.mu.Unlock()
	if ch == nil {
		return errors.New("eventbus: no connection for republish")
	}
	return ch.PublishWithContext(ctx, b.opts.Exchange, topic, false, false, amqp.Publishing{
		ContentType: "application/json",
		Headers:     amqp.Table{retriesHeader: retries},
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
}

func (b *Bus) toDeadLetter(ctx context.Context, topic string, body []byte) error {
	b.mu.Lock()
	ch := b.ch
	b.mu.Unlock()
	if ch == nil {
		return errors.New("eventbus: no connection for dead-letter")
	}
	return ch.PublishWithContext(ctx, "", b.deadLetterQueue(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{"x-topic": topic},
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// Close shuts the bus down; in-flight handlers finish against a closed
// channel and their acks are lost, which at-least-once delivery tolerates.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.teardownLocked()
	return nil
}
