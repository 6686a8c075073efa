package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geoscatter/internal/core/domain"
)

// Subjects and streams used for render jobs.
const (
	JobsStream      = "MAP_JOBS"
	RendersStream   = "MAP_RENDERS"
	JobsSubject     = "maps.jobs"
	RenderedSubject = "maps.rendered"
)

// JobSubject is the subject a job of kind is published on.
func JobSubject(kind domain.JobKind) string { return JobsSubject + "." + string(kind) }

// renderedSubject is the subject announcing finished jobs of kind.
func renderedSubject(kind domain.JobKind) string { return RenderedSubject + "." + string(kind) }

// Publisher implements ports.JobPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the job streams exist.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := EnsureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, js: js}, nil
}

// EnsureStreams creates or updates the job and render-event streams.
func EnsureStreams(js nats.JetStreamContext) error {
	streams := []nats.StreamConfig{
		{
			Name:      JobsStream,
			Subjects:  []string{JobsSubject + ".>"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      RendersStream,
			Subjects:  []string{RenderedSubject + ".>"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// PublishJob queues job on maps.jobs.<kind>. The job ID doubles as the
// JetStream message ID, so retried publishes are deduplicated.
func (p *Publisher) PublishJob(ctx context.Context, job *domain.RenderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(JobSubject(job.Kind), data, nats.Context(ctx), nats.MsgId(job.ID))
	return err
}

// PublishRendered announces a finished job on maps.rendered.<kind>.
func (p *Publisher) PublishRendered(ctx context.Context, event *domain.RenderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(renderedSubject(event.Kind), data, nats.Context(ctx))
	return err
}

// Ping reports whether the connection is up.
func (p *Publisher) Ping(ctx context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats: %s", p.conn.Status())
	}
	return p.conn.FlushWithContext(ctx)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Connect opens a NATS connection that keeps reconnecting.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("geoscatter"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
