package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/famtree/internal/models"
)

type EventHandler func(ctx context.Context, ev models.TreeEvent) error

type PurgeHandler func(ctx context.Context, task models.PurgeTask) error

type Consumer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewConsumer(natsURL string) (*Consumer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Consumer{nc: nc, js: js}, nil
}

// EnsureStreams lets a consumer start before any producer has created the streams.
func (c *Consumer) EnsureStreams(ctx context.Context) error {
	return ensureStreams(ctx, c.js)
}

// decode unmarshals a message body into v. Malformed messages are terminated
// so they are not redelivered.
func decode(msg jetstream.Msg, v any) bool {
	if err := json.Unmarshal(msg.Data(), v); err != nil {
		slog.Error("drop malformed message", "subject", msg.Subject(), "error", err)
		_ = msg.Term()
		return false
	}
	return true
}

func settle(msg jetstream.Msg, err error, kind string, attrs ...any) {
	if err != nil {
		slog.Error("process "+kind+" error", append(attrs, "error", err, "subject", msg.Subject())...)
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

// ConsumePurges starts consuming purge tasks from the MEDIA_PURGE stream.
// workerCount determines how many goroutines process messages concurrently.
func (c *Consumer) ConsumePurges(ctx context.Context, consumerName string, handler PurgeHandler, workerCount int) error {
	if workerCount < 1 {
		workerCount = 1
	}
	stream, err := c.js.Stream(ctx, PurgeStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", PurgeStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
		FilterSubject: PurgeSubjectBase + ".>",
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	msgCh := make(chan jetstream.Msg, workerCount*2)

	go func() {
		defer close(msgCh)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(workerCount, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("fetch purge tasks error", "error", err)
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				select {
				case msgCh <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	for i := 0; i < workerCount; i++ {
		go func(workerID int) {
			for msg := range msgCh {
				var task models.PurgeTask
				if !decode(msg, &task) {
					continue
				}
				settle(msg, handler(ctx, task), "purge task", "worker", workerID, "user_id", task.UserID)
			}
		}(i)
	}

	slog.Info("purge consumer started", "consumer", consumerName, "workers", workerCount)
	return nil
}

// ConsumeTreeEvents starts an ephemeral consumer of new tree events, used by
// each API replica to feed its websocket hub.
func (c *Consumer) ConsumeTreeEvents(ctx context.Context, handler EventHandler) error {
	stream, err := c.js.Stream(ctx, EventsStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", EventsStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		AckPolicy:         jetstream.AckExplicitPolicy,
		AckWait:           10 * time.Second,
		MaxDeliver:        3,
		FilterSubject:     EventsSubjectBase + ".>",
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: time.Minute,
	})
	if err != nil {
		return fmt.Errorf("create tree event consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				var ev models.TreeEvent
				if !decode(msg, &ev) {
					continue
				}
				settle(msg, handler(ctx, ev), "tree event", "type", ev.Type)
			}
		}
	}()

	slog.Info("tree event consumer started")
	return nil
}

// QueueDepth returns the number of purge tasks still waiting in the stream.
func (c *Consumer) QueueDepth(ctx context.Context) (uint64, error) {
	return queueDepth(ctx, c.js)
}

func (c *Consumer) Ping() error {
	if !c.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (c *Consumer) Close() {
	c.nc.Close()
}
