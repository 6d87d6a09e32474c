package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/wanex63/kinopoisk/internal/logging"
)

// Handler processes one ingest request. A returned error rejects the
// message without requeue unless it is wrapped with Retry.
type Handler func(ctx context.Context, r IngestRequest) error

const (
	prefetch   = 50
	maxBackoff = 30 * time.Second
)

// retryDelay is how long a retryable message is held before it goes
// back to the queue, so an outage does not spin the consumer.
var retryDelay = 5 * time.Second

type retryError struct{ err error }

func (e *retryError) Error() string { return e.err.Error() }
func (e *retryError) Unwrap() error { return e.err }

// Retry marks err as transient: the message is requeued instead of dropped.
func Retry(err error) error {
	if err == nil {
		return nil
	}
	return &retryError{err: err}
}

// Retryable reports whether err was wrapped with Retry.
func Retryable(err error) bool {
	var re *retryError
	return errors.As(err, &re)
}

// Consume reads IngestQueue until ctx is cancelled, reconnecting with
// exponential backoff whenever the broker goes away. It returns ctx.Err().
func Consume(ctx context.Context, url string, h Handler) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logging.Warn().Err(err).Dur("retry_in", backoff).Msg("ingest consumer: dial failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, h)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn().Err(err).Msg("ingest consumer: loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, h Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		logging.Warn().Err(err).Msg("ingest consumer: set QoS failed")
	}
	if err := declare(ch); err != nil {
		return err
	}
	msgs, err := ch.Consume(IngestQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	logging.Info().Str("queue", IngestQueue).Msg("ingest consumer: waiting for messages")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			settle(ctx, d, d.Body, h)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// settle runs h on body and acks. Undecodable bodies and plain handler
// errors are nacked without requeue so a poison message cannot loop.
// Retryable errors, and failures caused by shutdown, are requeued.
func settle(ctx context.Context, d acknowledger, body []byte, h Handler) {
	r, err := DecodeIngestRequest(body)
	if err != nil {
		logging.Error().Err(err).Msg("ingest consumer: undecodable message dropped")
		_ = d.Nack(false, false)
		return
	}
	err = h(ctx, r)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case ctx.Err() != nil:
		_ = d.Nack(false, true)
	case Retryable(err):
		logging.Warn().Err(err).Int64("kinopoisk_id", r.KinopoiskID).Dur("retry_in", retryDelay).Msg("ingest consumer: message requeued")
		sleep(ctx, retryDelay)
		_ = d.Nack(false, true)
	default:
		logging.Error().Err(err).Int64("kinopoisk_id", r.KinopoiskID).Msg("ingest consumer: message rejected")
		_ = d.Nack(false, false)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
