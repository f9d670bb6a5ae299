package queue

import (
	"context"
	"encoding/base32"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/famtree/internal/models"
)

const (
	EventsStreamName  = "FAMILY_EVENTS"
	EventsSubjectBase = "family.events"
	PurgeStreamName   = "MEDIA_PURGE"
	PurgeSubjectBase  = "media.purge"
)

var subjectEncoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// subjectToken encodes userID as a single subject token. User ids come from the
// token's sub claim and may contain dots, wildcards or whitespace.
func subjectToken(userID string) string {
	if userID == "" {
		return "_"
	}
	return subjectEncoding.EncodeToString([]byte(userID))
}

// EventSubject is the subject a user's tree events are published on.
func EventSubject(userID string) string {
	return EventsSubjectBase + "." + subjectToken(userID)
}

func PurgeSubject(userID string) string {
	return PurgeSubjectBase + "." + subjectToken(userID)
}

func connect(natsURL string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create jetstream context: %w", err)
	}
	return nc, js, nil
}

// Producer publishes tree events and purge tasks to JetStream.
type Producer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewProducer(natsURL string) (*Producer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Producer{nc: nc, js: js}, nil
}

func streamConfigs() []jetstream.StreamConfig {
	return []jetstream.StreamConfig{
		{
			Name:        EventsStreamName,
			Subjects:    []string{EventsSubjectBase + ".>"},
			Retention:   jetstream.InterestPolicy,
			MaxAge:      24 * time.Hour,
			MaxMsgs:     1000000,
			Storage:     jetstream.FileStorage,
			Description: "Family tree change events",
		},
		{
			Name:        PurgeStreamName,
			Subjects:    []string{PurgeSubjectBase + ".>"},
			Retention:   jetstream.WorkQueuePolicy,
			MaxAge:      7 * 24 * time.Hour,
			Storage:     jetstream.FileStorage,
			Duplicates:  time.Minute,
			Description: "Media objects left behind by deleted rows",
		},
	}
}

// EnsureStreams creates JetStream streams if they don't exist.
// Retries up to 30 times (1s apart) to handle NATS startup delay.
func (p *Producer) EnsureStreams(ctx context.Context) error {
	return ensureStreams(ctx, p.js)
}

func ensureStreams(ctx context.Context, js jetstream.JetStream) error {
	const maxAttempts = 30
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		allOK := true
		for _, cfg := range streamConfigs() {
			opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_, err := js.CreateOrUpdateStream(opCtx, cfg)
			cancel()
			if err != nil {
				allOK = false
				if attempt == maxAttempts {
					return fmt.Errorf("create stream %s: %w (after %d attempts)", cfg.Name, err, maxAttempts)
				}
				slog.Warn("ensure NATS stream (retrying...)", "name", cfg.Name, "attempt", attempt, "error", err)
				break
			}
			slog.Info("ensured NATS stream", "name", cfg.Name)
		}
		if allOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return nil
}

// PublishTreeEvent publishes ev on the owner's event subject.
func (p *Producer) PublishTreeEvent(ctx context.Context, ev models.TreeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal tree event: %w", err)
	}
	if _, err := p.js.Publish(ctx, EventSubject(ev.UserID), payload); err != nil {
		return fmt.Errorf("publish tree event: %w", err)
	}
	return nil
}

// PublishPurge queues task for the media worker.
func (p *Producer) PublishPurge(ctx context.Context, task models.PurgeTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal purge task: %w", err)
	}
	if _, err := p.js.Publish(ctx, PurgeSubject(task.UserID), payload); err != nil {
		return fmt.Errorf("publish purge task: %w", err)
	}
	return nil
}

func queueDepth(ctx context.Context, js jetstream.JetStream) (uint64, error) {
	stream, err := js.Stream(ctx, PurgeStreamName)
	if err != nil {
		return 0, err
	}
	info, err := stream.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.State.Msgs, nil
}

func (p *Producer) Ping() error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *Producer) Close() {
	p.nc.Close()
}
