package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

type ackRecorder struct {
	mu      sync.Mutex
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = true
	return nil
}

func (a *ackRecorder) Nack(_, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = true
	a.requeue = requeue
	return nil
}

type redeliverRecorder struct {
	republished    bool
	retries        int64
	republishErr   error
	deadLettered   bool
	deadLetterErr  error
	deadLetterBody []byte
}

func (r *redeliverRecorder) republish(_ context.Context, _ string, retries int64, _ []byte) error {
	if r.republishErr != nil {
		return r.republishErr
	}
	r.republished = true
	r.retries = retries
	return nil
}

func (r *redeliverRecorder) deadLetter(_ context.Context, _ string, body []byte) error {
	if r.deadLetterErr != nil {
		return r.deadLetterErr
	}
	r.deadLettered = true
	r.deadLetterBody = body
	return nil
}

func run(h Handler, retries int64, rec *redeliverRecorder, timeout time.Duration) *ackRecorder {
	d := &ackRecorder{}
	processDelivery(context.Background(), h, d, []byte(`{}`), "post.created",
		retries, 5, timeout, rec.republish, rec.deadLetter, nil)
	return d
}

func TestDeliveryAckedOnSuccess(t *testing.T) {
	rec := &redeliverRecorder{}
	d := run(func(context.Context, []byte) error { return nil }, 0, rec, time.Second)

	require.True(t, d.acked)
	require.False(t, d.nacked)
	require.False(t, rec.republished)
	require.False(t, rec.deadLettered)
}

func TestDeliveryRepublishedOnFailure(t *testing.T) {
	rec := &redeliverRecorder{}
	d := run(func(context.Context, []byte) error { return errors.New("es down") }, 0, rec, time.Second)

	// The original is acked only after its retry copy is safely republished.
	require.True(t, d.acked)
	require.True(t, rec.republished)
	require.Equal(t, int64(1), rec.retries)
	require.False(t, rec.deadLettered)
}

func TestDeliveryDeadLetteredAfterMaxRetries(t *testing.T) {
	rec := &redeliverRecorder{}
	d := run(func(context.Context, []byte) error { return errors.New("es down") }, 4, rec, time.Second)

	require.True(t, d.acked)
	require.True(t, rec.deadLettered)
	require.False(t, rec.republished)
}

func TestDeliveryTimeoutCountsAsFailure(t *testing.T) {
	rec := &redeliverRecorder{}
	h := func(ctx context.Context, _ []byte) error {
		<-ctx.Done()
		return ctx.Err()
	}
	d := run(h, 0, rec, 20*time.Millisecond)

	require.True(t, d.acked)
	require.True(t, rec.republished)
}

func TestDeliveryRequeuedWhenRepublishFails(t *testing.T) {
	rec := &redeliverRecorder{republishErr: errors.New("conn gone")}
	d := run(func(context.Context, []byte) error { return errors.New("boom") }, 0, rec, time.Second)

	require.False(t, d.acked)
	require.True(t, d.nacked)
	require.True(t, d.requeue)
}

func TestDeliveryRequeuedWhenDeadLetterFails(t *testing.T) {
	rec := &redeliverRecorder{deadLetterErr: errors.New("conn gone")}
	d := run(func(context.Context, []byte) error { return errors.New("boom") }, 4, rec, time.Second)

	require.False(t, d.acked)
	require.True(t, d.nacked)
	require.True(t, d.requeue)
}

func TestRetriesFromHeaderWidths(t *testing.T) {
	require.Equal(t, int64(0), retriesFrom(nil))
	require.Equal(t, int64(0), retriesFrom(amqp.Table{}))
	require.Equal(t, int64(3), retriesFrom(amqp.Table{retriesHeader: int64(3)}))
	require.Equal(t, int64(3), retriesFrom(amqp.Table{retriesHeader: int32(3)}))
	require.Equal(t, int64(3), retriesFrom(amqp.Table{retriesHeader: 3}))
	require.Equal(t, int64(3), retriesFrom(amqp.Table{retriesHeader: float64(3)}))
	require.Equal(t, int64(0), retriesFrom(amqp.Table{retriesHeader: "3"}))
}
