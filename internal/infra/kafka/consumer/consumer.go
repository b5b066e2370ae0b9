package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-uploader/internal/config"
)

const fetchBackoff = 500 * time.Millisecond

// uploadedHandler defines the interface for handling accepted upload messages.
type uploadedHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// client is the part of a Kafka consumer group reader the loop needs.
type client interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msg kafka.Message) error
	Close() error
}

// groupClient adapts the wbf consumer to client.
type groupClient struct {
	c *wbfkafka.Consumer
}

func (g groupClient) Fetch(ctx context.Context) (kafka.Message, error) {
	return g.c.Fetch(ctx)
}

func (g groupClient) Commit(ctx context.Context, msg kafka.Message) error {
	return g.c.Commit(ctx, msg)
}

func (g groupClient) Close() error {
	return g.c.Close()
}

// Consumer represents a Kafka consumer along with its configuration
// and the handler that runs derivative processing for each message.
type Consumer struct {
	Client          client
	uploadedHandler uploadedHandler
	cfg             *config.Kafka
	strategy        retry.Strategy
	backoff         time.Duration
}

// New creates a new Consumer.
// - cfg: Kafka configuration struct
// - s: retry strategy
// - uh: handler for accepted upload messages
func New(
	cfg *config.Kafka,
	s retry.Strategy,
	uh uploadedHandler,
) *Consumer {
	consumer := wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID)

	return &Consumer{
		Client:          groupClient{c: consumer},
		uploadedHandler: uh,
		cfg:             cfg,
		strategy:        s,
		backoff:         fetchBackoff,
	}
}

// Consume fetches messages one at a time, hands them to the handler and commits
// the offset afterwards. Messages the handler rejects are committed too, since
// redelivering a malformed payload cannot succeed. It stops on context cancellation.
func (c *Consumer) Consume(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	zlog.Logger.Info().
		Str("topic", c.cfg.Topic).
		Str("group_id", c.cfg.GroupID).
		Msg("starting consumer")

	for {
		if ctx.Err() != nil {
			zlog.Logger.Info().Msg("shutdown signal received, stopping consumer")
			return
		}

		var msg kafka.Message
		err := retry.Do(func() error {
			var fetchErr error
			msg, fetchErr = c.Client.Fetch(ctx)
			return fetchErr
		}, c.strategy)
		if err != nil {
			// A fetch interrupted by shutdown is expected.
			if ctx.Err() == nil {
				zlog.Logger.Err(err).Msg("failed to fetch message")
			}

			select {
			case <-ctx.Done():
			case <-time.After(c.backoff):
			}
			continue
		}

		if err := c.uploadedHandler.Handle(ctx, msg); err != nil {
			zlog.Logger.Err(err).
				Str("message", string(msg.Value)).
				Msg("dropping message")
		}

		err = retry.Do(func() error {
			return c.Client.Commit(ctx, msg)
		}, c.strategy)
		if err != nil {
			zlog.Logger.Err(err).Msg("failed to commit message after retries")
			continue
		}

		zlog.Logger.Debug().
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("message committed")
	}
}
