package eventbus

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const retriesHeader = "x-retries"

// acker is the acknowledgement surface of one delivered message.
// amqp.Delivery satisfies it.
type acker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type republishFn func(ctx context.Context, topic string, retries int64, body []byte) error
type deadLetterFn func(ctx context.Context, topic string, body []byte) error

// processDelivery drives one message through its delivery state machine:
//
//	Delivered -> Processing -> Acked | Nacked
//
// The message is acknowledged only after the handler returns nil. On failure
// or timeout it is republished with an incremented retry count, or routed to
// the dead-letter queue once maxRetries deliveries are exhausted. Only when
// neither is possible (connection gone) does it fall back to a broker
// requeue, so the message is never lost.
func processDelivery(ctx context.Context, h Handler, d acker, body []byte, topic string,
	retries int64, maxRetries int, timeout time.Duration,
	republish republishFn, deadLetter deadLetterFn, logger *logrus.Logger) {

	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- h(hctx, body) }()

	var herr error
	select {
	case herr = <-errCh:
	case <-hctx.Done():
		herr = fmt.Errorf("handler timed out after %s", timeout)
	}

	if herr == nil {
		_ = d.Ack(false)
		return
	}

	if logger != nil {
		logger.WithError(herr).WithFields(logrus.Fields{
			"topic":   topic,
			"attempt": retries + 1,
		}).Warn("event handler failed")
	}

	if retries+1 >= int64(maxRetries) {
		if err := deadLetter(ctx, topic, body); err != nil {
			_ = d.Nack(false, true)
			return
		}
		if logger != nil {
			logger.WithField("topic", topic).Error("event dead-lettered after max retries")
		}
		_ = d.Ack(false)
		return
	}

	if err := republish(ctx, topic, retries+1, body); err != nil {
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

// retriesFrom reads the retry counter header, tolerating the integer widths
// the AMQP field table may hand back.
func retriesFrom(headers amqp.Table) int64 {
	if headers == nil {
		return 0
	}
	switch v := headers[retriesHeader].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int8:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
